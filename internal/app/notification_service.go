package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/example/rolesmith/internal/ports/primary"
	"github.com/example/rolesmith/internal/ports/secondary"
)

// NotificationServiceImpl implements the NotificationService interface.
// Guild notifications go to the guild system channel, then to the global
// system channel, then to the log.
type NotificationServiceImpl struct {
	guildRepo secondary.GuildRepository
	platform  secondary.Platform
	settings  BotSettings
	logger    zerolog.Logger
}

// NewNotificationService creates a new NotificationService with injected dependencies.
func NewNotificationService(
	guildRepo secondary.GuildRepository,
	platform secondary.Platform,
	settings BotSettings,
	logger zerolog.Logger,
) *NotificationServiceImpl {
	return &NotificationServiceImpl{
		guildRepo: guildRepo,
		platform:  platform,
		settings:  settings,
		logger:    logger,
	}
}

// Notify delivers text for guildID. It never fails.
func (s *NotificationServiceImpl) Notify(ctx context.Context, guildID, text string) {
	if guildID == "" {
		s.notifyGlobal(ctx, text)
		return
	}

	channelID, err := s.guildRepo.GetSystemChannel(ctx, guildID)
	if err != nil {
		s.notifyGlobal(ctx, fmt.Sprintf(
			"Database error when fetching guild system channels:\n```\n%v\n```\n\n%s", err, text))
		return
	}
	if channelID == "" {
		s.notifyGlobal(ctx, text)
		return
	}

	_, res := s.platform.SendMessage(ctx, channelID, secondary.OutboundMessage{Content: text})
	if res.OK() {
		return
	}

	s.logger.Warn().
		Str("guild", guildID).
		Str("channel", channelID).
		Stringer("outcome", res.Outcome).
		Err(res.Err).
		Msg("guild system channel unusable, falling back to global")
	s.notifyGlobal(ctx, text)
}

func (s *NotificationServiceImpl) notifyGlobal(ctx context.Context, text string) {
	channelID := s.settings.SystemChannel()
	if channelID == "" {
		s.logger.Info().Str("notification", text).Msg("no system channel configured")
		return
	}

	_, res := s.platform.SendMessage(ctx, channelID, secondary.OutboundMessage{Content: text})
	if res.OK() {
		return
	}

	event := s.logger.Warn().Str("channel", channelID).Str("notification", text).Err(res.Err)
	switch res.Outcome {
	case secondary.OutcomeNotFound:
		event.Msg("I cannot find the system channel.")
	case secondary.OutcomeForbidden:
		event.Msg("I cannot send messages to the system channel.")
	default:
		event.Msg("failed to deliver notification")
	}
}

// Ensure NotificationServiceImpl implements the interface.
var _ primary.NotificationService = (*NotificationServiceImpl)(nil)
