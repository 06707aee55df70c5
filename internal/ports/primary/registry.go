package primary

import "context"

// RegistryService defines the primary port for the reaction-role registry.
type RegistryService interface {
	// Bind maps a reaction on a selector to a role.
	Bind(ctx context.Context, messageID, roleID, reaction string) (BindResult, error)

	// Unbind removes the mapping of a reaction on a selector.
	Unbind(ctx context.Context, messageID, reaction string) (UnbindResult, error)

	// RoleFor returns the role bound to a reaction, found=false if none.
	RoleFor(ctx context.Context, messageID, reaction string) (roleID string, found bool, err error)

	// BindingsFor returns reaction -> role for a selector (empty if unknown).
	BindingsFor(ctx context.Context, messageID string) (map[string]string, error)

	// MessagesIn returns the selector message IDs of a channel in creation order.
	MessagesIn(ctx context.Context, channelID string) ([]string, error)

	// RegisterSelector records a published selector and its bindings.
	RegisterSelector(ctx context.Context, selector Selector, bindings []Binding) error

	// DeleteSelector removes a selector and its bindings.
	DeleteSelector(ctx context.Context, messageID string) error

	// IsSelector reports whether a message is a registered selector.
	IsSelector(ctx context.Context, messageID string) (bool, error)

	// GetSelector returns a selector by message ID (nil if unknown).
	GetSelector(ctx context.Context, messageID string) (*Selector, error)

	// ListSelectors returns every selector.
	ListSelectors(ctx context.Context) ([]*Selector, error)

	// Guild accessors.
	AddGuild(ctx context.Context, guildID string) error
	RemoveGuild(ctx context.Context, guildID string) error
	ListGuilds(ctx context.Context) ([]*Guild, error)
	SetSystemChannel(ctx context.Context, guildID, channelID string) error
	SystemChannel(ctx context.Context, guildID string) (string, error)

	// Admin role accessors.
	AddAdmin(ctx context.Context, guildID, roleID string) (bool, error)
	RemoveAdmin(ctx context.Context, guildID, roleID string) (bool, error)
	ListAdmins(ctx context.Context, guildID string) ([]string, error)
	IsAdmin(ctx context.Context, guildID string, memberRoleIDs []string) (bool, error)

	// ListCleanupQueue returns the guilds currently believed unreachable.
	ListCleanupQueue(ctx context.Context) ([]*CleanupEntry, error)
}

// BindResult is the outcome of Bind.
type BindResult int

const (
	BindCreated BindResult = iota
	BindDuplicate
)

// UnbindResult is the outcome of Unbind.
type UnbindResult int

const (
	UnbindRemoved UnbindResult = iota
	UnbindAbsent
)

// Selector is a published reaction-role message.
type Selector struct {
	MessageID string
	ChannelID string
	GuildID   string
	CreatedAt string
}

// Binding is one reaction -> role pair.
type Binding struct {
	Reaction string
	RoleID   string
}

// Guild is a registered server.
type Guild struct {
	GuildID         string
	SystemChannelID string
	CreatedAt       string
}

// CleanupEntry is a guild pending removal.
type CleanupEntry struct {
	GuildID          string
	UnreachableSince string
}
