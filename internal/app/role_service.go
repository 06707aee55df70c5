package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/example/rolesmith/internal/ports/primary"
	"github.com/example/rolesmith/internal/ports/secondary"
)

const (
	assignForbidden = "Someone tried to add a role to themselves but I do not have" +
		" permissions to add it. Ensure that I have a role that is" +
		" hierarchically higher than the role I have to assign, and" +
		" that I have the `Manage Roles` permission."
	revokeForbidden = "Someone tried to remove a role from themselves but I do not have" +
		" permissions to remove it. Ensure that I have a role that is" +
		" hierarchically higher than the role I have to remove, and that I" +
		" have the `Manage Roles` permission."
)

// RoleServiceImpl implements the RoleService interface.
type RoleServiceImpl struct {
	registry primary.RegistryService
	platform secondary.Platform
	notifier primary.NotificationService
	logger   zerolog.Logger
}

// NewRoleService creates a new RoleService with injected dependencies.
func NewRoleService(
	registry primary.RegistryService,
	platform secondary.Platform,
	notifier primary.NotificationService,
	logger zerolog.Logger,
) *RoleServiceImpl {
	return &RoleServiceImpl{
		registry: registry,
		platform: platform,
		notifier: notifier,
		logger:   logger,
	}
}

// ReactionAdded assigns the bound role. Reactions without a binding are
// removed from the selector so it only ever shows its own options.
func (s *RoleServiceImpl) ReactionAdded(ctx context.Context, ev secondary.ReactionEvent) error {
	if ev.UserID == s.platform.SelfID() {
		return nil
	}

	roleID, managed := s.lookup(ctx, ev, "Database error after a user added a reaction")
	if !managed {
		return nil
	}

	logger := s.eventLogger(ev)
	if roleID == "" {
		if res := s.platform.RemoveUserReaction(ctx, ev.ChannelID, ev.MessageID, ev.Reaction, ev.UserID); !res.OK() {
			logger.Warn().Stringer("outcome", res.Outcome).Err(res.Err).Msg("failed to remove unbound reaction")
		}
		return nil
	}

	res := s.platform.AssignRole(ctx, ev.GuildID, ev.UserID, roleID)
	switch res.Outcome {
	case secondary.OutcomeOK:
		logger.Debug().Str("role", roleID).Msg("role assigned")
	case secondary.OutcomeForbidden:
		s.notifier.Notify(ctx, ev.GuildID, assignForbidden)
	default:
		logger.Warn().Str("role", roleID).Stringer("outcome", res.Outcome).Err(res.Err).Msg("failed to assign role")
	}
	return nil
}

// ReactionRemoved revokes the bound role.
func (s *RoleServiceImpl) ReactionRemoved(ctx context.Context, ev secondary.ReactionEvent) error {
	if ev.UserID == s.platform.SelfID() {
		return nil
	}

	roleID, managed := s.lookup(ctx, ev, "Database error after a user removed a reaction")
	if !managed || roleID == "" {
		return nil
	}

	logger := s.eventLogger(ev)
	res := s.platform.RevokeRole(ctx, ev.GuildID, ev.UserID, roleID)
	switch res.Outcome {
	case secondary.OutcomeOK:
		logger.Debug().Str("role", roleID).Msg("role revoked")
	case secondary.OutcomeForbidden:
		s.notifier.Notify(ctx, ev.GuildID, revokeForbidden)
	default:
		logger.Warn().Str("role", roleID).Stringer("outcome", res.Outcome).Err(res.Err).Msg("failed to revoke role")
	}
	return nil
}

// lookup resolves the role bound to the event's reaction. managed is false
// when the message is not a selector or the store failed; store failures are
// reported to the guild.
func (s *RoleServiceImpl) lookup(ctx context.Context, ev secondary.ReactionEvent, storeContext string) (roleID string, managed bool) {
	isSelector, err := s.registry.IsSelector(ctx, ev.MessageID)
	if err != nil {
		s.notifier.Notify(ctx, ev.GuildID, fmt.Sprintf("%s:\n```\n%v\n```", storeContext, err))
		return "", false
	}
	if !isSelector {
		return "", false
	}

	roleID, _, err = s.registry.RoleFor(ctx, ev.MessageID, ev.Reaction)
	if err != nil {
		s.notifier.Notify(ctx, ev.GuildID, fmt.Sprintf("Database error when getting reactions:\n```\n%v\n```", err))
		return "", false
	}
	return roleID, true
}

func (s *RoleServiceImpl) eventLogger(ev secondary.ReactionEvent) zerolog.Logger {
	return s.logger.With().
		Str("guild", ev.GuildID).
		Str("message", ev.MessageID).
		Str("user", ev.UserID).
		Str("reaction", ev.Reaction).
		Logger()
}

// Ensure RoleServiceImpl implements the interface.
var _ primary.RoleService = (*RoleServiceImpl)(nil)
