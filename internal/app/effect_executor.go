// Package app contains the application layer - service implementations and effect execution.
package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/example/rolesmith/internal/core/effects"
	"github.com/example/rolesmith/internal/ctxutil"
	"github.com/example/rolesmith/internal/ports/primary"
	"github.com/example/rolesmith/internal/ports/secondary"
)

// EffectExecutor interprets and executes effects.
// This is the "Imperative Shell" - the only place planned I/O happens.
type EffectExecutor interface {
	Execute(ctx context.Context, effs []effects.Effect) error
}

// DefaultEffectExecutor implements EffectExecutor against the registry store
// and the notification service.
type DefaultEffectExecutor struct {
	selectorRepo secondary.SelectorRepository
	guildRepo    secondary.GuildRepository
	cleanupRepo  secondary.CleanupQueueRepository
	notifier     primary.NotificationService
	logger       zerolog.Logger
}

// NewEffectExecutor creates a new DefaultEffectExecutor.
func NewEffectExecutor(
	selectorRepo secondary.SelectorRepository,
	guildRepo secondary.GuildRepository,
	cleanupRepo secondary.CleanupQueueRepository,
	notifier primary.NotificationService,
	logger zerolog.Logger,
) *DefaultEffectExecutor {
	return &DefaultEffectExecutor{
		selectorRepo: selectorRepo,
		guildRepo:    guildRepo,
		cleanupRepo:  cleanupRepo,
		notifier:     notifier,
		logger:       logger,
	}
}

// Execute processes a slice of effects, executing each in sequence. The first
// failing effect stops the run.
func (e *DefaultEffectExecutor) Execute(ctx context.Context, effs []effects.Effect) error {
	for _, eff := range effs {
		if err := e.executeOne(ctx, eff); err != nil {
			return fmt.Errorf("failed to execute %s effect: %w", eff.EffectType(), err)
		}
	}
	return nil
}

func (e *DefaultEffectExecutor) executeOne(ctx context.Context, eff effects.Effect) error {
	switch typed := eff.(type) {
	case effects.PersistEffect:
		return e.executePersist(ctx, typed)
	case effects.NotifyEffect:
		e.notifier.Notify(ctx, typed.GuildID, typed.Text)
		return nil
	case effects.LogEffect:
		e.executeLog(ctx, typed)
		return nil
	default:
		return fmt.Errorf("unknown effect type: %T", eff)
	}
}

func (e *DefaultEffectExecutor) executePersist(ctx context.Context, eff effects.PersistEffect) error {
	switch eff.Entity {
	case effects.EntitySelector:
		return e.executeSelectorOp(ctx, eff)
	case effects.EntityGuild:
		return e.executeGuildOp(ctx, eff)
	case effects.EntityCleanupQueue:
		return e.executeQueueOp(ctx, eff)
	default:
		return fmt.Errorf("unknown entity: %s", eff.Entity)
	}
}

func (e *DefaultEffectExecutor) executeSelectorOp(ctx context.Context, eff effects.PersistEffect) error {
	switch eff.Operation {
	case effects.OpDelete:
		return primary.NewStoreError("delete selector", e.selectorRepo.Delete(ctx, eff.Key))
	default:
		return fmt.Errorf("unknown selector operation: %s", eff.Operation)
	}
}

func (e *DefaultEffectExecutor) executeGuildOp(ctx context.Context, eff effects.PersistEffect) error {
	switch eff.Operation {
	case effects.OpPurge:
		return primary.NewStoreError("purge guild", e.guildRepo.Purge(ctx, eff.Key))
	default:
		return fmt.Errorf("unknown guild operation: %s", eff.Operation)
	}
}

func (e *DefaultEffectExecutor) executeQueueOp(ctx context.Context, eff effects.PersistEffect) error {
	switch eff.Operation {
	case effects.OpEnqueue:
		return primary.NewStoreError("enqueue guild", e.cleanupRepo.Enqueue(ctx, eff.Key, eff.At))
	case effects.OpDequeue:
		return primary.NewStoreError("dequeue guild", e.cleanupRepo.Dequeue(ctx, eff.Key))
	default:
		return fmt.Errorf("unknown cleanup queue operation: %s", eff.Operation)
	}
}

func (e *DefaultEffectExecutor) executeLog(ctx context.Context, eff effects.LogEffect) {
	level, err := zerolog.ParseLevel(eff.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	event := e.logger.WithLevel(level).Fields(eff.Fields)
	if runID := ctxutil.RunIDFromContext(ctx); runID != "" {
		event = event.Str("run_id", runID)
	}
	event.Msg(eff.Message)
}

// Ensure DefaultEffectExecutor implements the interface.
var _ EffectExecutor = (*DefaultEffectExecutor)(nil)
