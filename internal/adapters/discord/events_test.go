package discord

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/rolesmith/internal/ports/secondary"
)

func TestReactionToken(t *testing.T) {
	assert.Equal(t, "😀", reactionToken(discordgo.Emoji{Name: "😀"}))
	assert.Equal(t, "party:42", reactionToken(discordgo.Emoji{Name: "party", ID: "42"}))
	assert.Equal(t, "a:dance:43", reactionToken(discordgo.Emoji{Name: "dance", ID: "43", Animated: true}))
}

func TestMessageEvent(t *testing.T) {
	ev := messageEvent(&discordgo.MessageCreate{Message: &discordgo.Message{
		ID:        "M1",
		ChannelID: "C1",
		GuildID:   "G1",
		Content:   "rs!new",
		Author:    &discordgo.User{ID: "U1"},
		Member:    &discordgo.Member{Roles: []string{"R1", "R2"}},
	}})

	require.NotNil(t, ev)
	assert.Equal(t, secondary.MessageEvent{
		GuildID:       "G1",
		ChannelID:     "C1",
		MessageID:     "M1",
		AuthorID:      "U1",
		AuthorRoleIDs: []string{"R1", "R2"},
		Content:       "rs!new",
	}, *ev)

	assert.Nil(t, messageEvent(&discordgo.MessageCreate{}))
}

func TestReactionEvent(t *testing.T) {
	ev := reactionEvent(&discordgo.MessageReaction{
		UserID:    "U1",
		MessageID: "M1",
		ChannelID: "C1",
		GuildID:   "G1",
		Emoji:     discordgo.Emoji{Name: "party", ID: "42"},
	})

	require.NotNil(t, ev)
	assert.Equal(t, "party:42", ev.Reaction)
	assert.Equal(t, "U1", ev.UserID)
}

func TestGuildRemovedEvent(t *testing.T) {
	removed := guildRemovedEvent(&discordgo.GuildDelete{Guild: &discordgo.Guild{ID: "G1"}})
	require.NotNil(t, removed)
	assert.Equal(t, "G1", removed.GuildID)

	assert.Nil(t, guildRemovedEvent(&discordgo.GuildDelete{Guild: &discordgo.Guild{ID: "G1", Unavailable: true}}))
}

func TestAPIReaction(t *testing.T) {
	assert.Equal(t, "dance:43", apiReaction("a:dance:43"))
	assert.Equal(t, "party:42", apiReaction("party:42"))
	assert.Equal(t, "a:44", apiReaction("a:44"))
	assert.Equal(t, "😀", apiReaction("😀"))
}
