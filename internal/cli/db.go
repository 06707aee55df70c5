package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/example/rolesmith/internal/db"
	"github.com/example/rolesmith/internal/wire"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Inspect and migrate the registry database",
}

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the database or bring its schema up to date",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Opening the database applies pending migrations.
		database, err := wire.Database()
		if err != nil {
			return err
		}

		applied, err := db.AppliedVersion(database)
		if err != nil {
			return fmt.Errorf("failed to read schema version: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "✓ Schema at version %d (latest %d)\n", applied, db.CurrentVersion())
		return nil
	},
}

var dbPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configured database path",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := wire.Config()
		if err != nil {
			return err
		}

		path, err := filepath.Abs(cfg.Database.Path)
		if err != nil {
			path = cfg.Database.Path
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

var dbSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load development fixtures into an empty database",
	Long: `Load two guilds, admin roles, selectors with bindings and one queued guild.

Intended for trying out the listing commands against a scratch database:
  rolesmith -c dev.toml db seed
  rolesmith -c dev.toml selectors list`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := wire.Database()
		if err != nil {
			return err
		}

		if err := db.SeedFixtures(database); err != nil {
			return fmt.Errorf("failed to seed database: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), "✓ Loaded development fixtures")
		return nil
	},
}

func init() {
	dbCmd.AddCommand(dbMigrateCmd)
	dbCmd.AddCommand(dbPathCmd)
	dbCmd.AddCommand(dbSeedCmd)
}

// DBCmd returns the db command
func DBCmd() *cobra.Command {
	return dbCmd
}
