package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/rolesmith/internal/ports/primary"
)

func TestRegistry_BindAndUnbind(t *testing.T) {
	f := newFixture()
	f.addSelector("M1", "C1", "G1")
	ctx := context.Background()

	result, err := f.registry.Bind(ctx, "M1", "R1", "😀")
	require.NoError(t, err)
	assert.Equal(t, primary.BindCreated, result)

	result, err = f.registry.Bind(ctx, "M1", "R2", "😀")
	require.NoError(t, err)
	assert.Equal(t, primary.BindDuplicate, result)

	roleID, found, err := f.registry.RoleFor(ctx, "M1", "😀")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "R1", roleID, "duplicate bind must not overwrite")

	unbound, err := f.registry.Unbind(ctx, "M1", "😀")
	require.NoError(t, err)
	assert.Equal(t, primary.UnbindRemoved, unbound)

	unbound, err = f.registry.Unbind(ctx, "M1", "😀")
	require.NoError(t, err)
	assert.Equal(t, primary.UnbindAbsent, unbound)

	_, found, err = f.registry.RoleFor(ctx, "M1", "😀")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRegistry_AnimatedEmojiMatchesEitherForm(t *testing.T) {
	f := newFixture()
	f.addSelector("M1", "C1", "G1")
	ctx := context.Background()

	_, err := f.registry.Bind(ctx, "M1", "R1", "a:dance:987")
	require.NoError(t, err)

	for _, token := range []string{"a:dance:987", "dance:987"} {
		roleID, found, err := f.registry.RoleFor(ctx, "M1", token)
		require.NoError(t, err)
		assert.True(t, found, token)
		assert.Equal(t, "R1", roleID, token)
	}

	unbound, err := f.registry.Unbind(ctx, "M1", "dance:987")
	require.NoError(t, err)
	assert.Equal(t, primary.UnbindRemoved, unbound)

	_, found, err := f.registry.RoleFor(ctx, "M1", "a:dance:987")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRegistry_RegisterSelector(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	err := f.registry.RegisterSelector(ctx,
		primary.Selector{MessageID: "M1", ChannelID: "C1", GuildID: "G1"},
		[]primary.Binding{{Reaction: "😀", RoleID: "R1"}, {Reaction: "party:42", RoleID: "R2"}},
	)
	require.NoError(t, err)

	isSelector, err := f.registry.IsSelector(ctx, "M1")
	require.NoError(t, err)
	assert.True(t, isSelector)

	bindings, err := f.registry.BindingsFor(ctx, "M1")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"😀": "R1", "party:42": "R2"}, bindings)

	guilds, err := f.registry.ListGuilds(ctx)
	require.NoError(t, err)
	require.Len(t, guilds, 1)
	assert.Equal(t, "G1", guilds[0].GuildID)

	require.NoError(t, f.registry.DeleteSelector(ctx, "M1"))
	sel, err := f.registry.GetSelector(ctx, "M1")
	require.NoError(t, err)
	assert.Nil(t, sel)
}

func TestRegistry_MessagesInCreationOrder(t *testing.T) {
	f := newFixture()
	f.addSelector("M3", "C1", "G1")
	f.addSelector("M1", "C1", "G1")
	f.addSelector("M2", "C2", "G1")

	ids, err := f.registry.MessagesIn(context.Background(), "C1")
	require.NoError(t, err)
	assert.Equal(t, []string{"M3", "M1"}, ids)
}

func TestRegistry_IsAdmin(t *testing.T) {
	f := newFixture()
	f.grantAdmin("G1", "R-ADMIN")
	ctx := context.Background()

	tests := []struct {
		name    string
		guildID string
		roles   []string
		want    bool
	}{
		{name: "has admin role", guildID: "G1", roles: []string{"R-X", "R-ADMIN"}, want: true},
		{name: "no admin role", guildID: "G1", roles: []string{"R-X"}, want: false},
		{name: "no roles", guildID: "G1", want: false},
		{name: "admin of another guild", guildID: "G2", roles: []string{"R-ADMIN"}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.registry.IsAdmin(ctx, tt.guildID, tt.roles)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRegistry_ListCleanupQueue(t *testing.T) {
	f := newFixture()
	f.store.queue["G1"] = time.Date(2026, 3, 1, 12, 30, 0, 0, time.FixedZone("CET", 3600))

	entries, err := f.registry.ListCleanupQueue(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "2026-03-01T11:30:00Z", entries[0].UnreachableSince)
}

func TestRegistry_StoreErrorsAreWrapped(t *testing.T) {
	f := newFixture()
	f.store.err = errors.New("database is locked")

	_, err := f.registry.Bind(context.Background(), "M1", "R1", "😀")

	var storeErr *primary.StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "bind", storeErr.Op)
}
