// Package scheduler runs periodic jobs, at most one run per job at a time.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Job is a named unit of periodic work.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

type entry struct {
	Job
	running sync.Mutex
}

// Scheduler runs each job once at start and then every Interval. A tick
// that arrives while the previous run of the same job is still going is
// skipped.
type Scheduler struct {
	jobs   []*entry
	logger zerolog.Logger
}

// New creates a Scheduler for the given jobs.
func New(logger zerolog.Logger, jobs ...Job) (*Scheduler, error) {
	s := &Scheduler{logger: logger.With().Str("component", "scheduler").Logger()}
	seen := make(map[string]bool, len(jobs))
	for _, j := range jobs {
		if j.Interval <= 0 {
			return nil, fmt.Errorf("job %s: interval must be positive", j.Name)
		}
		if seen[j.Name] {
			return nil, fmt.Errorf("job %s registered twice", j.Name)
		}
		seen[j.Name] = true
		s.jobs = append(s.jobs, &entry{Job: j})
	}
	return s, nil
}

// Run blocks until ctx is cancelled. Job errors are logged, never returned.
func (s *Scheduler) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, e := range s.jobs {
		g.Go(func() error {
			s.loop(ctx, e)
			return nil
		})
	}
	return g.Wait()
}

func (s *Scheduler) loop(ctx context.Context, e *entry) {
	ticker := time.NewTicker(e.Interval)
	defer ticker.Stop()

	for {
		// Runs are started on their own goroutine so the ticker keeps
		// firing (and skipping) while a long run is in progress.
		done := make(chan struct{})
		go func() {
			defer close(done)
			if _, err := s.tryRun(ctx, e); err != nil {
				s.logger.Error().Err(err).Str("job", e.Name).Msg("job failed")
			}
		}()

		for waiting := true; waiting; {
			select {
			case <-ctx.Done():
				<-done
				return
			case <-done:
				waiting = false
			case <-ticker.C:
				s.logger.Warn().Str("job", e.Name).Msg("previous run still in progress, skipping tick")
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// tryRun runs e unless a run is already in progress, reporting whether it ran.
func (s *Scheduler) tryRun(ctx context.Context, e *entry) (bool, error) {
	if !e.running.TryLock() {
		s.logger.Warn().Str("job", e.Name).Msg("job already running, skipped")
		return false, nil
	}
	defer e.running.Unlock()

	start := time.Now()
	s.logger.Debug().Str("job", e.Name).Msg("job started")
	err := e.Run(ctx)
	s.logger.Info().Str("job", e.Name).Dur("took", time.Since(start)).Err(err).Msg("job finished")
	return true, err
}
