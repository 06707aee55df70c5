package discord

import (
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/example/rolesmith/internal/ports/secondary"
)

// reactionToken renders an emoji the way the registry stores it: unicode
// verbatim, custom emoji as name:id and animated ones as a:name:id.
func reactionToken(e discordgo.Emoji) string {
	if e.ID == "" {
		return e.Name
	}
	if e.Animated {
		return "a:" + e.Name + ":" + e.ID
	}
	return e.Name + ":" + e.ID
}

// apiReaction converts a stored token to the name:id form the reaction
// endpoints accept.
func apiReaction(token string) string {
	if strings.HasPrefix(token, "a:") && strings.Count(token, ":") == 2 {
		return token[len("a:"):]
	}
	return token
}

func messageEvent(m *discordgo.MessageCreate) *secondary.MessageEvent {
	if m == nil || m.Message == nil {
		return nil
	}

	ev := &secondary.MessageEvent{
		GuildID:   m.GuildID,
		ChannelID: m.ChannelID,
		MessageID: m.ID,
		Content:   m.Content,
	}
	if m.Author != nil {
		ev.AuthorID = m.Author.ID
		ev.AuthorIsBot = m.Author.Bot
	}
	if m.Member != nil {
		ev.AuthorRoleIDs = append([]string(nil), m.Member.Roles...)
	}
	return ev
}

func reactionEvent(r *discordgo.MessageReaction) *secondary.ReactionEvent {
	if r == nil {
		return nil
	}
	return &secondary.ReactionEvent{
		GuildID:   r.GuildID,
		ChannelID: r.ChannelID,
		MessageID: r.MessageID,
		UserID:    r.UserID,
		Reaction:  reactionToken(r.Emoji),
	}
}

// guildRemovedEvent translates a guild delete. An unavailable guild is an
// outage, not a removal, and yields nil.
func guildRemovedEvent(g *discordgo.GuildDelete) *secondary.GuildRemovedEvent {
	if g == nil || g.Guild == nil || g.Unavailable {
		return nil
	}
	return &secondary.GuildRemovedEvent{GuildID: g.ID}
}
