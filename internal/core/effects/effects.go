// Package effects defines effect types as data structures representing I/O operations.
// This is the foundation of the Functional Core / Imperative Shell pattern.
// Effects are pure data - they describe what should happen, not how.
package effects

import "time"

// Effect is the base interface for all effects.
// Effects represent I/O operations as data that can be interpreted by the shell.
type Effect interface {
	// EffectType returns a string identifier for the effect type.
	EffectType() string
}

// Persisted entities.
const (
	EntitySelector     = "selector"
	EntityGuild        = "guild"
	EntityCleanupQueue = "cleanup_queue"
)

// Persist operations.
const (
	OpDelete  = "delete"
	OpPurge   = "purge"
	OpEnqueue = "enqueue"
	OpDequeue = "dequeue"
)

// LogEffect represents a logging operation.
type LogEffect struct {
	Level   string
	Message string
	Fields  map[string]any
}

func (e LogEffect) EffectType() string { return "log" }

// PersistEffect represents a registry store mutation.
type PersistEffect struct {
	Entity    string    // e.g., "selector", "guild", "cleanup_queue"
	Operation string    // e.g., "delete", "purge", "enqueue"
	Key       string    // message ID or guild ID
	At        time.Time // Only for enqueue
}

func (e PersistEffect) EffectType() string { return "persist" }

// NotifyEffect represents an operational notification.
// An empty GuildID targets the global system channel.
type NotifyEffect struct {
	GuildID string
	Text    string
}

func (e NotifyEffect) EffectType() string { return "notify" }
