package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/rolesmith/internal/wire"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run a reconciliation pass now",
	Long: `Run one reconciliation pass against Discord and print its report.

Do not run a sweep while 'rolesmith serve' is sweeping the same database;
the scheduler only guards against overlapping runs inside one process.`,
}

var sweepMessagesCmd = &cobra.Command{
	Use:   "messages",
	Short: "Prune selectors whose message or channel no longer exists",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		adapter, err := wire.SweepAdapter(cmd.OutOrStdout())
		if err != nil {
			return err
		}
		_, err = adapter.Messages(context.Background())
		return err
	},
}

var sweepGuildsCmd = &cobra.Command{
	Use:   "guilds",
	Short: "Queue unreachable guilds and purge those past the grace period",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		adapter, err := wire.SweepAdapter(cmd.OutOrStdout())
		if err != nil {
			return err
		}
		_, err = adapter.Guilds(context.Background(), time.Now().UTC())
		return err
	},
}

var sweepQueueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Dequeue guilds that became reachable again",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		adapter, err := wire.SweepAdapter(cmd.OutOrStdout())
		if err != nil {
			return err
		}
		_, err = adapter.Queue(context.Background())
		return err
	},
}

func init() {
	sweepCmd.AddCommand(sweepMessagesCmd)
	sweepCmd.AddCommand(sweepGuildsCmd)
	sweepCmd.AddCommand(sweepQueueCmd)
}

// SweepCmd returns the sweep command
func SweepCmd() *cobra.Command {
	return sweepCmd
}
