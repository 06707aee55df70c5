// Package cli contains the cobra commands of the rolesmith binary.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/example/rolesmith/internal/version"
	"github.com/example/rolesmith/internal/wire"
)

// RootCmd returns the rolesmith root command with every subcommand attached.
func RootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "rolesmith",
		Short:   "Rolesmith - reaction roles for Discord servers",
		Version: version.String(),
		Long: `Rolesmith lets server moderators publish messages to which members react
in order to give themselves roles. It keeps its registry of those messages in
line with Discord over time.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			path, _ := cmd.Flags().GetString("config")
			wire.SetConfigPath(path)
		},
	}

	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to the TOML configuration file")

	rootCmd.AddCommand(ServeCmd())
	rootCmd.AddCommand(ConfigCmd())
	rootCmd.AddCommand(DBCmd())
	rootCmd.AddCommand(GuildsCmd())
	rootCmd.AddCommand(SelectorsCmd())
	rootCmd.AddCommand(QueueCmd())
	rootCmd.AddCommand(SweepCmd())
	rootCmd.AddCommand(VersionCmd())

	return rootCmd
}
