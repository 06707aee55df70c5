package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/example/rolesmith/internal/wire"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Connect to Discord and run the bot",
		Long: `Connect to Discord, handle commands and reactions, and run the
background sweeps until interrupted.

Background jobs:
  cleanup         message sweep followed by guild sweep (reconcile.cleanup_interval)
  queue-recheck   early recovery of queued guilds (reconcile.queue_recheck_interval)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			b, err := wire.Bot()
			if err != nil {
				return fmt.Errorf("failed to start: %w", err)
			}
			return b.Run(ctx)
		},
	}
}
