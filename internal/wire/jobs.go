package wire

import (
	"context"
	"fmt"
	"time"

	"github.com/example/rolesmith/internal/ports/primary"
	"github.com/example/rolesmith/internal/scheduler"
)

// CleanupJob runs the message sweep and then the guild sweep.
func CleanupJob(svc primary.ReconcileService, interval time.Duration) scheduler.Job {
	return scheduler.Job{
		Name:     JobCleanup,
		Interval: interval,
		Run: func(ctx context.Context) error {
			if _, err := svc.SweepMessages(ctx); err != nil {
				return fmt.Errorf("message sweep: %w", err)
			}
			if _, err := svc.SweepGuilds(ctx, time.Now().UTC()); err != nil {
				return fmt.Errorf("guild sweep: %w", err)
			}
			return nil
		},
	}
}

// QueueRecheckJob gives queued guilds an early chance to recover.
func QueueRecheckJob(svc primary.ReconcileService, interval time.Duration) scheduler.Job {
	return scheduler.Job{
		Name:     JobQueueRecheck,
		Interval: interval,
		Run: func(ctx context.Context) error {
			_, err := svc.RecheckQueue(ctx)
			return err
		},
	}
}
