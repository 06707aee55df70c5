package primary

import (
	"context"
	"time"
)

// ReconcileService defines the primary port for registry reconciliation.
type ReconcileService interface {
	// SweepMessages verifies every selector still exists.
	SweepMessages(ctx context.Context) (*SweepReport, error)

	// SweepGuilds verifies every guild is reachable and purges guilds that
	// stayed unreachable past the grace period.
	SweepGuilds(ctx context.Context, now time.Time) (*SweepReport, error)

	// RecheckQueue gives queued guilds a chance to recover early.
	RecheckQueue(ctx context.Context) (*SweepReport, error)
}

// SweepReport summarises one reconciliation pass.
type SweepReport struct {
	RunID     string
	Kind      string
	Checked   int
	Pruned    int
	Forbidden int
	Enqueued  int
	Dequeued  int
	Purged    int
	Skipped   int
}
