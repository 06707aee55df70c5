package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/example/rolesmith/internal/ctxutil"
	"github.com/example/rolesmith/internal/ports/primary"
	"github.com/example/rolesmith/internal/ports/secondary"
)

// Dispatcher routes inbound platform events to the services. It is driven
// by a single consumer, so events are handled strictly one at a time.
type Dispatcher struct {
	commands *CommandHandler
	creation primary.CreationService
	roles    primary.RoleService
	registry primary.RegistryService
	notifier primary.NotificationService
	logger   zerolog.Logger
}

// NewDispatcher creates a new Dispatcher.
func NewDispatcher(
	commands *CommandHandler,
	creation primary.CreationService,
	roles primary.RoleService,
	registry primary.RegistryService,
	notifier primary.NotificationService,
	logger zerolog.Logger,
) *Dispatcher {
	return &Dispatcher{
		commands: commands,
		creation: creation,
		roles:    roles,
		registry: registry,
		notifier: notifier,
		logger:   logger,
	}
}

// HandleMessage runs a command or feeds the message to its creation session.
func (d *Dispatcher) HandleMessage(ctx context.Context, msg secondary.MessageEvent) {
	if msg.AuthorIsBot || msg.GuildID == "" {
		return
	}
	ctx = ctxutil.WithOperatorID(ctx, msg.AuthorID)

	handled, err := d.commands.Handle(ctx, msg)
	if err != nil {
		d.fail(ctx, msg.GuildID, "message", err)
		return
	}
	if handled {
		return
	}

	if _, err := d.creation.Submit(ctx, msg); err != nil {
		d.fail(ctx, msg.GuildID, "creation", err)
	}
}

// HandleReactionAdded grants roles for reactions on selectors.
func (d *Dispatcher) HandleReactionAdded(ctx context.Context, ev secondary.ReactionEvent) {
	ctx = ctxutil.WithOperatorID(ctx, ev.UserID)
	if err := d.roles.ReactionAdded(ctx, ev); err != nil {
		d.fail(ctx, ev.GuildID, "reaction added", err)
	}
}

// HandleReactionRemoved revokes roles for reactions on selectors.
func (d *Dispatcher) HandleReactionRemoved(ctx context.Context, ev secondary.ReactionEvent) {
	ctx = ctxutil.WithOperatorID(ctx, ev.UserID)
	if err := d.roles.ReactionRemoved(ctx, ev); err != nil {
		d.fail(ctx, ev.GuildID, "reaction removed", err)
	}
}

// HandleGuildRemoved purges every row of a guild the bot left.
func (d *Dispatcher) HandleGuildRemoved(ctx context.Context, ev secondary.GuildRemovedEvent) {
	if err := d.registry.RemoveGuild(ctx, ev.GuildID); err != nil {
		d.fail(ctx, "", "guild removed", err)
		return
	}
	d.logger.Info().Str("guild", ev.GuildID).Msg("guild removed, registry purged")
}

// fail reports a handler error. Store errors reach the guild as a
// notification; anything else is only logged.
func (d *Dispatcher) fail(ctx context.Context, guildID, event string, err error) {
	d.logger.Error().
		Err(err).
		Str("event", event).
		Str("guild", guildID).
		Str("operator", ctxutil.OperatorFromContext(ctx)).
		Msg("event handling failed")

	var storeErr *primary.StoreError
	if errors.As(err, &storeErr) {
		d.notifier.Notify(ctx, guildID, fmt.Sprintf("Database error:\n```\n%v\n```", storeErr.Err))
	}
}
