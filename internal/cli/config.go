package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/rolesmith/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a sample configuration file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "rolesmith.toml"
		if len(args) == 1 {
			path = args[0]
		}

		if err := config.InitConfig(path); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote sample configuration to %s\n", path)
		fmt.Fprintln(cmd.OutOrStdout(), "  Set bot.token (or ROLESMITH_BOT__TOKEN) before running 'rolesmith serve'.")
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
}

// ConfigCmd returns the config command
func ConfigCmd() *cobra.Command {
	return configCmd
}
