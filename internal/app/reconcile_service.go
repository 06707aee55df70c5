package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/example/rolesmith/internal/core/reconcile"
	"github.com/example/rolesmith/internal/ctxutil"
	"github.com/example/rolesmith/internal/ports/primary"
	"github.com/example/rolesmith/internal/ports/secondary"
)

// Sweep kinds, as reported in SweepReport.Kind.
const (
	SweepKindMessages = "messages"
	SweepKindGuilds   = "guilds"
	SweepKindQueue    = "queue"
)

// ReconcileServiceImpl implements the ReconcileService interface.
// It fetches platform state, hands it to the reconcile planner and executes
// the resulting effects.
type ReconcileServiceImpl struct {
	selectorRepo secondary.SelectorRepository
	guildRepo    secondary.GuildRepository
	cleanupRepo  secondary.CleanupQueueRepository
	platform     secondary.Platform
	executor     EffectExecutor
	notifier     primary.NotificationService
	limiter      *rate.Limiter
	grace        time.Duration
	logger       zerolog.Logger
}

// NewReconcileService creates a new ReconcileService with injected dependencies.
// A nil limiter disables fetch pacing; a non-positive grace uses the default.
func NewReconcileService(
	selectorRepo secondary.SelectorRepository,
	guildRepo secondary.GuildRepository,
	cleanupRepo secondary.CleanupQueueRepository,
	platform secondary.Platform,
	executor EffectExecutor,
	notifier primary.NotificationService,
	limiter *rate.Limiter,
	grace time.Duration,
	logger zerolog.Logger,
) *ReconcileServiceImpl {
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
	if grace <= 0 {
		grace = reconcile.DefaultGracePeriod
	}
	return &ReconcileServiceImpl{
		selectorRepo: selectorRepo,
		guildRepo:    guildRepo,
		cleanupRepo:  cleanupRepo,
		platform:     platform,
		executor:     executor,
		notifier:     notifier,
		limiter:      limiter,
		grace:        grace,
		logger:       logger,
	}
}

// SweepMessages verifies that every selector's channel and message still exist.
func (s *ReconcileServiceImpl) SweepMessages(ctx context.Context) (*primary.SweepReport, error) {
	ctx, report, logger := s.startRun(ctx, SweepKindMessages)

	selectors, err := s.selectorRepo.List(ctx)
	if err != nil {
		return report, s.storeFailure(ctx, logger, "list selectors", err)
	}

	for _, sel := range selectors {
		channelStatus, err := s.fetchChannel(ctx, sel.ChannelID)
		if err != nil {
			return report, err
		}
		messageStatus := channelStatus
		if channelStatus == reconcile.StatusReachable {
			if messageStatus, err = s.fetchMessage(ctx, sel.ChannelID, sel.MessageID); err != nil {
				return report, err
			}
		}
		report.Checked++

		plan := reconcile.PlanMessageCheck(reconcile.MessageCheckInput{
			MessageID:     sel.MessageID,
			ChannelID:     sel.ChannelID,
			GuildID:       sel.GuildID,
			ChannelStatus: channelStatus,
			MessageStatus: messageStatus,
		})
		if err := s.apply(ctx, logger, report, plan); err != nil {
			return report, err
		}
	}

	s.finishRun(logger, report)
	return report, nil
}

// SweepGuilds checks every registered guild against the cleanup queue, then
// gives every entry past its grace period a final check.
func (s *ReconcileServiceImpl) SweepGuilds(ctx context.Context, now time.Time) (*primary.SweepReport, error) {
	ctx, report, logger := s.startRun(ctx, SweepKindGuilds)

	guilds, err := s.guildRepo.List(ctx)
	if err != nil {
		return report, s.storeFailure(ctx, logger, "list guilds", err)
	}
	queue, err := s.cleanupRepo.List(ctx)
	if err != nil {
		return report, s.storeFailure(ctx, logger, "list cleanup queue", err)
	}

	queued := make(map[string]bool, len(queue))
	for _, entry := range queue {
		queued[entry.GuildID] = true
	}

	for _, g := range guilds {
		status, err := s.fetchGuild(ctx, g.GuildID)
		if err != nil {
			return report, err
		}
		report.Checked++

		plan := reconcile.PlanGuildCheck(reconcile.GuildCheckInput{
			GuildID: g.GuildID,
			Status:  status,
			Queued:  queued[g.GuildID],
			Now:     now,
		})
		if err := s.apply(ctx, logger, report, plan); err != nil {
			return report, err
		}
	}

	// Re-read: the pass above may have enqueued or dequeued entries.
	queue, err = s.cleanupRepo.List(ctx)
	if err != nil {
		return report, s.storeFailure(ctx, logger, "list cleanup queue", err)
	}

	for _, entry := range queue {
		if !reconcile.IsGraceExpired(entry.UnreachableSince, now, s.grace) {
			continue
		}

		status, err := s.fetchGuild(ctx, entry.GuildID)
		if err != nil {
			return report, err
		}

		plan := reconcile.PlanFinalCheck(reconcile.FinalCheckInput{
			GuildID: entry.GuildID,
			Status:  status,
		})
		if err := s.apply(ctx, logger, report, plan); err != nil {
			return report, err
		}
	}

	s.finishRun(logger, report)
	return report, nil
}

// RecheckQueue dequeues every queued guild that is reachable again.
func (s *ReconcileServiceImpl) RecheckQueue(ctx context.Context) (*primary.SweepReport, error) {
	ctx, report, logger := s.startRun(ctx, SweepKindQueue)

	queue, err := s.cleanupRepo.List(ctx)
	if err != nil {
		return report, s.storeFailure(ctx, logger, "list cleanup queue", err)
	}

	for _, entry := range queue {
		status, err := s.fetchGuild(ctx, entry.GuildID)
		if err != nil {
			return report, err
		}
		report.Checked++

		if err := s.apply(ctx, logger, report, reconcile.PlanRecheck(entry.GuildID, status)); err != nil {
			return report, err
		}
	}

	s.finishRun(logger, report)
	return report, nil
}

func (s *ReconcileServiceImpl) startRun(ctx context.Context, kind string) (context.Context, *primary.SweepReport, zerolog.Logger) {
	runID := uuid.NewString()
	logger := s.logger.With().Str("run_id", runID).Str("sweep", kind).Logger()
	logger.Info().Msg("sweep started")
	return ctxutil.WithRunID(ctx, runID), &primary.SweepReport{RunID: runID, Kind: kind}, logger
}

func (s *ReconcileServiceImpl) finishRun(logger zerolog.Logger, report *primary.SweepReport) {
	logger.Info().
		Int("checked", report.Checked).
		Int("pruned", report.Pruned).
		Int("forbidden", report.Forbidden).
		Int("enqueued", report.Enqueued).
		Int("dequeued", report.Dequeued).
		Int("purged", report.Purged).
		Int("skipped", report.Skipped).
		Msg("sweep finished")
}

// apply executes a plan and counts its verdict. A store failure aborts the
// run; the next scheduled run starts over.
func (s *ReconcileServiceImpl) apply(ctx context.Context, logger zerolog.Logger, report *primary.SweepReport, plan reconcile.Plan) error {
	if err := s.executor.Execute(ctx, plan.Effects); err != nil {
		var storeErr *primary.StoreError
		if errors.As(err, &storeErr) {
			return s.storeFailure(ctx, logger, storeErr.Op, storeErr.Err)
		}
		return fmt.Errorf("failed to apply sweep plan: %w", err)
	}

	switch plan.Verdict {
	case reconcile.VerdictPruned:
		report.Pruned++
	case reconcile.VerdictForbidden:
		report.Forbidden++
	case reconcile.VerdictEnqueued:
		report.Enqueued++
	case reconcile.VerdictDequeued:
		report.Dequeued++
	case reconcile.VerdictPurged:
		report.Purged++
	case reconcile.VerdictSkipped:
		report.Skipped++
	}
	return nil
}

func (s *ReconcileServiceImpl) storeFailure(ctx context.Context, logger zerolog.Logger, op string, err error) error {
	logger.Error().Err(err).Str("op", op).Msg("sweep aborted on store error")
	s.notifier.Notify(ctx, "", fmt.Sprintf("Database error:\n```\n%v\n```", err))
	return primary.NewStoreError(op, err)
}

func (s *ReconcileServiceImpl) fetchChannel(ctx context.Context, channelID string) (reconcile.FetchStatus, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return reconcile.StatusTransient, err
	}
	info, res := s.platform.FetchChannel(ctx, channelID)
	if res.OK() && !info.CanView {
		return reconcile.StatusForbidden, nil
	}
	return fetchStatus(res), nil
}

func (s *ReconcileServiceImpl) fetchMessage(ctx context.Context, channelID, messageID string) (reconcile.FetchStatus, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return reconcile.StatusTransient, err
	}
	_, res := s.platform.FetchMessage(ctx, channelID, messageID)
	return fetchStatus(res), nil
}

func (s *ReconcileServiceImpl) fetchGuild(ctx context.Context, guildID string) (reconcile.FetchStatus, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return reconcile.StatusTransient, err
	}
	_, res := s.platform.FetchGuild(ctx, guildID)
	return fetchStatus(res), nil
}

// fetchStatus maps a platform result onto what the planner understands.
// An invalid request is not evidence of absence, so it counts as transient.
func fetchStatus(res secondary.Result) reconcile.FetchStatus {
	switch res.Outcome {
	case secondary.OutcomeOK:
		return reconcile.StatusReachable
	case secondary.OutcomeNotFound:
		return reconcile.StatusNotFound
	case secondary.OutcomeForbidden:
		return reconcile.StatusForbidden
	default:
		return reconcile.StatusTransient
	}
}

// Ensure ReconcileServiceImpl implements the interface.
var _ primary.ReconcileService = (*ReconcileServiceImpl)(nil)
