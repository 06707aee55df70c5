package primary

import "context"

// NotificationService delivers operational notifications. It never fails:
// undeliverable notifications end up in the log.
type NotificationService interface {
	// Notify sends text to the guild's system channel, falling back to the
	// global system channel. An empty guildID goes straight to the global one.
	Notify(ctx context.Context, guildID, text string)
}
