// Package bot runs the long-lived process: the platform connection, the
// event consumer and the background jobs.
package bot

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/example/rolesmith/internal/ports/secondary"
)

// EventHandler consumes inbound platform events.
type EventHandler interface {
	HandleMessage(ctx context.Context, msg secondary.MessageEvent)
	HandleReactionAdded(ctx context.Context, ev secondary.ReactionEvent)
	HandleReactionRemoved(ctx context.Context, ev secondary.ReactionEvent)
	HandleGuildRemoved(ctx context.Context, ev secondary.GuildRemovedEvent)
}

// Runner is a background component that runs until its context ends.
type Runner interface {
	Run(ctx context.Context) error
}

// Bot wires an event source to its handler and background jobs.
type Bot struct {
	source  secondary.EventSource
	handler EventHandler
	jobs    Runner
	logger  zerolog.Logger
}

// New creates a Bot.
func New(source secondary.EventSource, handler EventHandler, jobs Runner, logger zerolog.Logger) *Bot {
	return &Bot{
		source:  source,
		handler: handler,
		jobs:    jobs,
		logger:  logger,
	}
}

// Run opens the platform connection and blocks until ctx is cancelled or a
// component fails. Events are handled one at a time in arrival order.
func (b *Bot) Run(ctx context.Context) error {
	if err := b.source.Open(ctx); err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return b.consume(ctx)
	})
	g.Go(func() error {
		return b.jobs.Run(ctx)
	})
	g.Go(func() error {
		<-ctx.Done()
		b.logger.Info().Msg("shutting down")
		if err := b.source.Close(); err != nil {
			return fmt.Errorf("failed to disconnect: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (b *Bot) consume(ctx context.Context) error {
	events := b.source.Events()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return errors.New("event stream closed")
			}
			b.dispatch(ctx, ev)
		}
	}
}

func (b *Bot) dispatch(ctx context.Context, ev secondary.Event) {
	switch {
	case ev.Message != nil:
		b.handler.HandleMessage(ctx, *ev.Message)
	case ev.ReactionAdded != nil:
		b.handler.HandleReactionAdded(ctx, *ev.ReactionAdded)
	case ev.ReactionRemoved != nil:
		b.handler.HandleReactionRemoved(ctx, *ev.ReactionRemoved)
	case ev.GuildRemoved != nil:
		b.handler.HandleGuildRemoved(ctx, *ev.GuildRemoved)
	default:
		b.logger.Warn().Msg("ignoring empty event")
	}
}
