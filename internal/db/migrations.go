package db

import (
	"database/sql"
	"fmt"
)

// Migration represents a database migration
type Migration struct {
	Version int
	Name    string
	Up      func(*sql.Tx) error
}

// migrations is the list of all migrations in order
var migrations = []Migration{
	{
		Version: 1,
		Name:    "create_registry_tables",
		Up:      migrationV1,
	},
	{
		Version: 2,
		Name:    "add_guild_system_channel_and_cleanup_queue",
		Up:      migrationV2,
	},
	{
		Version: 3,
		Name:    "add_creation_sessions",
		Up:      migrationV3,
	},
	{
		Version: 4,
		Name:    "add_settings",
		Up:      migrationV4,
	},
}

// CurrentVersion returns the highest known migration version.
func CurrentVersion() int {
	return migrations[len(migrations)-1].Version
}

// AppliedVersion returns the highest applied migration version, 0 if none.
func AppliedVersion(db *sql.DB) (int, error) {
	if err := createVersionTable(db); err != nil {
		return 0, err
	}
	var v int
	if err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("failed to get current schema version: %w", err)
	}
	return v, nil
}

func createVersionTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}
	return nil
}

// RunMigrations applies every pending migration, each in its own transaction.
func RunMigrations(db *sql.DB) error {
	currentVersion, err := AppliedVersion(db)
	if err != nil {
		return err
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin transaction for migration %d: %w", migration.Version, err)
		}

		if err := migration.Up(tx); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s) failed: %w", migration.Version, migration.Name, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", migration.Version); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}
	}

	return nil
}

// migrationV1 creates the selector and binding tables.
func migrationV1(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS admin_roles (
			guild_id TEXT NOT NULL,
			role_id TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (guild_id, role_id)
		);

		CREATE TABLE IF NOT EXISTS selectors (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			message_id TEXT NOT NULL UNIQUE,
			channel_id TEXT NOT NULL,
			guild_id TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		CREATE INDEX IF NOT EXISTS idx_selectors_channel ON selectors(channel_id, seq);
		CREATE INDEX IF NOT EXISTS idx_selectors_guild ON selectors(guild_id);

		CREATE TABLE IF NOT EXISTS reaction_bindings (
			message_id TEXT NOT NULL,
			reaction TEXT NOT NULL,
			role_id TEXT NOT NULL,
			position INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (message_id, reaction)
		);
	`)
	return err
}

// migrationV2 adds the guilds table, backfilled from existing selectors, and
// the cleanup queue.
func migrationV2(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS guilds (
			guild_id TEXT PRIMARY KEY,
			system_channel_id TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		INSERT OR IGNORE INTO guilds (guild_id)
			SELECT DISTINCT guild_id FROM selectors;
		INSERT OR IGNORE INTO guilds (guild_id)
			SELECT DISTINCT guild_id FROM admin_roles;

		CREATE TABLE IF NOT EXISTS cleanup_queue (
			guild_id TEXT PRIMARY KEY,
			unreachable_since INTEGER NOT NULL
		);
	`)
	return err
}

// migrationV3 adds persisted creation sessions.
func migrationV3(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS creation_sessions (
			operator_id TEXT NOT NULL,
			channel_id TEXT NOT NULL,
			guild_id TEXT NOT NULL,
			step INTEGER NOT NULL CHECK(step IN (1, 2, 3)),
			target_channel_id TEXT,
			selector_message_id TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (operator_id, channel_id)
		);

		CREATE TABLE IF NOT EXISTS session_bindings (
			operator_id TEXT NOT NULL,
			channel_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			reaction TEXT NOT NULL,
			role_id TEXT NOT NULL,
			PRIMARY KEY (operator_id, channel_id, reaction)
		);
	`)
	return err
}

// migrationV4 adds the settings table.
func migrationV4(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
	`)
	return err
}
