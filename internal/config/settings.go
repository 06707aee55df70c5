package config

import (
	"context"
	"fmt"
	"sync"

	"github.com/example/rolesmith/internal/ports/secondary"
)

// Keys of persisted settings.
const (
	SettingColour        = "bot.colour"
	SettingSystemChannel = "bot.system_channel"
)

// Settings is the runtime view of the bot configuration. Colour and the
// global system channel can be changed while running; changes are persisted
// and win over the file configuration on the next start.
type Settings struct {
	store secondary.SettingsRepository

	name    string
	prefix  string
	logo    string
	ownerID string

	mu            sync.RWMutex
	colour        int
	systemChannel string
}

// NewSettings creates Settings from the loaded configuration.
func NewSettings(cfg *Config, store secondary.SettingsRepository) (*Settings, error) {
	colour, err := ParseColour(cfg.Bot.Colour)
	if err != nil {
		return nil, fmt.Errorf("invalid bot colour: %w", err)
	}

	return &Settings{
		store:         store,
		name:          cfg.Bot.Name,
		prefix:        cfg.Bot.Prefix,
		logo:          cfg.Bot.Logo,
		ownerID:       cfg.Bot.OwnerID,
		colour:        colour,
		systemChannel: cfg.Bot.SystemChannel,
	}, nil
}

// Load overlays persisted settings.
func (s *Settings) Load(ctx context.Context) error {
	stored, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if raw, ok := stored[SettingColour]; ok {
		colour, err := ParseColour(raw)
		if err != nil {
			return fmt.Errorf("invalid stored colour: %w", err)
		}
		s.colour = colour
	}
	if channel, ok := stored[SettingSystemChannel]; ok {
		s.systemChannel = channel
	}
	return nil
}

func (s *Settings) Name() string    { return s.name }
func (s *Settings) Prefix() string  { return s.prefix }
func (s *Settings) Logo() string    { return s.logo }
func (s *Settings) OwnerID() string { return s.ownerID }

// Colour returns the embed colour.
func (s *Settings) Colour() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.colour
}

// SystemChannel returns the global notification channel, "" if unset.
func (s *Settings) SystemChannel() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.systemChannel
}

// SetColour parses, persists and applies a new embed colour.
func (s *Settings) SetColour(ctx context.Context, raw string) (int, error) {
	colour, err := ParseColour(raw)
	if err != nil {
		return 0, err
	}

	if err := s.store.Save(ctx, SettingColour, FormatColour(colour)); err != nil {
		return 0, fmt.Errorf("failed to save colour: %w", err)
	}

	s.mu.Lock()
	s.colour = colour
	s.mu.Unlock()
	return colour, nil
}

// SetSystemChannel persists and applies a new global notification channel.
func (s *Settings) SetSystemChannel(ctx context.Context, channelID string) error {
	if err := s.store.Save(ctx, SettingSystemChannel, channelID); err != nil {
		return fmt.Errorf("failed to save system channel: %w", err)
	}

	s.mu.Lock()
	s.systemChannel = channelID
	s.mu.Unlock()
	return nil
}
