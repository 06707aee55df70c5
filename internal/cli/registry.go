package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/rolesmith/internal/wire"
)

var guildsCmd = &cobra.Command{
	Use:   "guilds",
	Short: "Inspect registered guilds",
}

var guildsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered guilds and their system channels",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		adapter, err := wire.RegistryAdapter(cmd.OutOrStdout())
		if err != nil {
			return err
		}
		_, err = adapter.ListGuilds(context.Background())
		return err
	},
}

var selectorsCmd = &cobra.Command{
	Use:   "selectors",
	Short: "Inspect published reaction-role messages",
}

var selectorsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List selectors with their binding counts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		channel, _ := cmd.Flags().GetString("channel")

		adapter, err := wire.RegistryAdapter(cmd.OutOrStdout())
		if err != nil {
			return err
		}
		_, err = adapter.ListSelectors(context.Background(), channel)
		return err
	},
}

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Inspect the guild cleanup queue",
}

var queueListCmd = &cobra.Command{
	Use:   "list",
	Short: "List unreachable guilds and whether their grace period has expired",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := wire.Config()
		if err != nil {
			return err
		}

		adapter, err := wire.RegistryAdapter(cmd.OutOrStdout())
		if err != nil {
			return err
		}
		_, err = adapter.ListQueue(context.Background(), time.Now().UTC(), cfg.Reconcile.GracePeriod)
		return err
	},
}

func init() {
	selectorsListCmd.Flags().String("channel", "", "Only list selectors in this channel ID")

	guildsCmd.AddCommand(guildsListCmd)
	selectorsCmd.AddCommand(selectorsListCmd)
	queueCmd.AddCommand(queueListCmd)
}

// GuildsCmd returns the guilds command
func GuildsCmd() *cobra.Command {
	return guildsCmd
}

// SelectorsCmd returns the selectors command
func SelectorsCmd() *cobra.Command {
	return selectorsCmd
}

// QueueCmd returns the queue command
func QueueCmd() *cobra.Command {
	return queueCmd
}
