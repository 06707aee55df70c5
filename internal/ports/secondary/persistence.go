// Package secondary defines the secondary ports (driven adapters) for the application.
// These are the interfaces through which the application drives external systems.
package secondary

import (
	"context"
	"time"
)

// GuildRepository defines the secondary port for guild persistence.
type GuildRepository interface {
	// Create registers a guild. Registering an existing guild is a no-op.
	Create(ctx context.Context, guildID string) error

	// Exists reports whether the guild is registered.
	Exists(ctx context.Context, guildID string) (bool, error)

	// List returns every registered guild ordered by registration.
	List(ctx context.Context) ([]*GuildRecord, error)

	// SetSystemChannel sets (or clears, with "") the guild notification channel.
	SetSystemChannel(ctx context.Context, guildID, channelID string) error

	// GetSystemChannel returns the guild notification channel, "" if unset.
	GetSystemChannel(ctx context.Context, guildID string) (string, error)

	// Purge removes the guild and every row that belongs to it: admin roles,
	// selectors, their bindings and any cleanup queue entry.
	Purge(ctx context.Context, guildID string) error
}

// GuildRecord represents a guild as stored in persistence.
type GuildRecord struct {
	GuildID         string
	SystemChannelID string // Empty string means null
	CreatedAt       string
}

// AdminRoleRepository defines the secondary port for admin role persistence.
type AdminRoleRepository interface {
	// Add grants admin rights to a role. Returns false when already present.
	Add(ctx context.Context, guildID, roleID string) (bool, error)

	// Remove revokes admin rights from a role. Returns false when absent.
	Remove(ctx context.Context, guildID, roleID string) (bool, error)

	// List returns the admin role IDs of a guild.
	List(ctx context.Context, guildID string) ([]string, error)
}

// SelectorRepository defines the secondary port for managed messages and
// their reaction bindings.
type SelectorRepository interface {
	// Create persists a selector together with its bindings. Re-creating an
	// existing selector keeps the original row and ignores duplicate bindings.
	Create(ctx context.Context, selector *SelectorRecord, bindings []BindingRecord) error

	// GetByMessage retrieves a selector by message ID (nil if unknown).
	GetByMessage(ctx context.Context, messageID string) (*SelectorRecord, error)

	// List returns every selector in insertion order.
	List(ctx context.Context) ([]*SelectorRecord, error)

	// ListByChannel returns the selectors of a channel in insertion order.
	ListByChannel(ctx context.Context, channelID string) ([]*SelectorRecord, error)

	// Delete removes a selector and its bindings. Deleting an unknown selector
	// is a no-op.
	Delete(ctx context.Context, messageID string) error

	// AddBinding adds one binding. Returns false if (message, reaction) is
	// already bound; nothing is written in that case.
	AddBinding(ctx context.Context, binding BindingRecord) (bool, error)

	// RemoveBinding removes one binding. Returns false if it was absent.
	RemoveBinding(ctx context.Context, messageID, reaction string) (bool, error)

	// GetBinding returns the role bound to (message, reaction), "" if none.
	GetBinding(ctx context.Context, messageID, reaction string) (string, error)

	// ListBindings returns the bindings of a message in submission order.
	ListBindings(ctx context.Context, messageID string) ([]BindingRecord, error)
}

// SelectorRecord represents a managed message as stored in persistence.
type SelectorRecord struct {
	MessageID string
	ChannelID string
	GuildID   string
	Seq       int64
	CreatedAt string
}

// BindingRecord represents one reaction -> role mapping.
type BindingRecord struct {
	MessageID string
	Reaction  string
	RoleID    string
}

// SessionKey identifies a creation session.
type SessionKey struct {
	OperatorID string
	ChannelID  string
}

// SessionRepository defines the secondary port for creation session persistence.
type SessionRepository interface {
	// Create inserts a new session. Returns false, without touching the
	// existing row, when a session already exists for the key.
	Create(ctx context.Context, session *SessionRecord) (bool, error)

	// Get retrieves a session (nil if none).
	Get(ctx context.Context, key SessionKey) (*SessionRecord, error)

	// Update writes step, target channel and selector message ID.
	Update(ctx context.Context, session *SessionRecord) error

	// AppendBinding adds a pending binding at the end of the session's list.
	// Returns false when the reaction is already pending.
	AppendBinding(ctx context.Context, key SessionKey, reaction, roleID string) (bool, error)

	// Delete removes the session and its pending bindings. Returns false when
	// no session existed.
	Delete(ctx context.Context, key SessionKey) (bool, error)
}

// SessionRecord represents a creation session as stored in persistence.
type SessionRecord struct {
	Key               SessionKey
	GuildID           string
	Step              int
	TargetChannelID   string // Empty string means null
	SelectorMessageID string // Empty string means null
	Bindings          []PendingBinding
	CreatedAt         string
	UpdatedAt         string
}

// PendingBinding is a reaction/role pair collected by a session.
type PendingBinding struct {
	Reaction string
	RoleID   string
}

// CleanupQueueRepository defines the secondary port for the guild cleanup queue.
type CleanupQueueRepository interface {
	// Enqueue records a guild as unreachable since the given time. An existing
	// entry keeps its original timestamp.
	Enqueue(ctx context.Context, guildID string, since time.Time) error

	// Dequeue removes a guild from the queue. Removing an absent guild is a no-op.
	Dequeue(ctx context.Context, guildID string) error

	// List returns every queued guild.
	List(ctx context.Context) ([]*CleanupEntryRecord, error)
}

// CleanupEntryRecord represents a queued guild.
type CleanupEntryRecord struct {
	GuildID          string
	UnreachableSince time.Time
}

// SettingsRepository persists runtime-editable bot settings.
type SettingsRepository interface {
	// Load returns every stored setting.
	Load(ctx context.Context) (map[string]string, error)

	// Save upserts one setting.
	Save(ctx context.Context, key, value string) error
}
