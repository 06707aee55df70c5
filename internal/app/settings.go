package app

import "context"

// BotSettings is the runtime configuration services read and update.
// Implemented by config.Settings.
type BotSettings interface {
	Name() string
	Prefix() string
	Logo() string
	OwnerID() string
	Colour() int
	SystemChannel() string
	SetColour(ctx context.Context, raw string) (int, error)
	SetSystemChannel(ctx context.Context, channelID string) error
}
