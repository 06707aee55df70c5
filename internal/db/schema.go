package db

import (
	"database/sql"
	"fmt"
)

// SchemaSQL is the complete schema for fresh installs.
// This schema reflects the current state after all migrations.
//
// # Schema Drift Protection
//
// This is the SINGLE SOURCE OF TRUTH for the database schema. Repository tests
// load it through GetSchemaSQL() instead of declaring their own tables, so a
// query referencing a missing column fails with "no such column" in tests.
//
// When adding new columns or tables:
//  1. Append a migration to the list in migrations.go
//  2. Update SchemaSQL here
//  3. Run the repository tests to verify alignment
const SchemaSQL = `
-- Guilds (registered servers)
CREATE TABLE IF NOT EXISTS guilds (
	guild_id TEXT PRIMARY KEY,
	system_channel_id TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Admin roles (roles allowed to manage selectors)
CREATE TABLE IF NOT EXISTS admin_roles (
	guild_id TEXT NOT NULL,
	role_id TEXT NOT NULL,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (guild_id, role_id)
);

-- Selectors (managed reaction-role messages)
CREATE TABLE IF NOT EXISTS selectors (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	message_id TEXT NOT NULL UNIQUE,
	channel_id TEXT NOT NULL,
	guild_id TEXT NOT NULL,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_selectors_channel ON selectors(channel_id, seq);
CREATE INDEX IF NOT EXISTS idx_selectors_guild ON selectors(guild_id);

-- Reaction bindings (reaction -> role on a selector)
CREATE TABLE IF NOT EXISTS reaction_bindings (
	message_id TEXT NOT NULL,
	reaction TEXT NOT NULL,
	role_id TEXT NOT NULL,
	position INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (message_id, reaction)
);

-- Cleanup queue (guilds observed unreachable)
CREATE TABLE IF NOT EXISTS cleanup_queue (
	guild_id TEXT PRIMARY KEY,
	unreachable_since INTEGER NOT NULL
);

-- Creation sessions (guided selector creation in progress)
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

-- Settings (runtime-editable bot settings)
CREATE TABLE IF NOT EXISTS settings (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
`

// InitSchema creates the schema on a fresh database or migrates an existing one.
func InitSchema(db *sql.DB) error {
	// Check if schema_version table exists to determine if this is a fresh install
	var tableCount int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'").Scan(&tableCount)
	if err != nil {
		return err
	}

	if tableCount > 0 {
		return RunMigrations(db)
	}

	// Databases created before versioning already carry the v1 tables.
	var oldTableCount int
	err = db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name IN ('selectors', 'reaction_bindings')").Scan(&oldTableCount)
	if err != nil {
		return err
	}
	if oldTableCount > 0 {
		if err := createVersionTable(db); err != nil {
			return err
		}
		if _, err := db.Exec("INSERT INTO schema_version (version) VALUES (1)"); err != nil {
			return fmt.Errorf("failed to record baseline version: %w", err)
		}
		return RunMigrations(db)
	}

	// Completely fresh install - create modern schema directly and mark
	// every migration as applied.
	if _, err := db.Exec(SchemaSQL); err != nil {
		return err
	}
	if err := createVersionTable(db); err != nil {
		return err
	}
	for _, m := range migrations {
		if _, err := db.Exec("INSERT INTO schema_version (version) VALUES (?)", m.Version); err != nil {
			return err
		}
	}
	return nil
}

// GetSchemaSQL returns the authoritative schema SQL for use by tests.
// Tests should use this instead of hardcoding their own schema to prevent drift.
func GetSchemaSQL() string {
	return SchemaSQL
}
