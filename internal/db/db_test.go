package db

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_FreshInstallMarksAllMigrations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "test.db")

	database, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	v, err := AppliedVersion(database)
	require.NoError(t, err)
	assert.Equal(t, CurrentVersion(), v)

	var n int
	require.NoError(t, database.QueryRow("SELECT COUNT(*) FROM settings").Scan(&n))
	assert.Equal(t, 0, n)
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	first, err := Open(path)
	require.NoError(t, err)
	_, err = first.Exec("INSERT INTO guilds (guild_id) VALUES ('g1')")
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { second.Close() })

	var n int
	require.NoError(t, second.QueryRow("SELECT COUNT(*) FROM guilds").Scan(&n))
	assert.Equal(t, 1, n)
}

func TestInitSchema_UpgradesUnversionedDatabase(t *testing.T) {
	database, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	database.SetMaxOpenConns(1)
	t.Cleanup(func() { database.Close() })

	// A database from before versioning: only the v1 tables exist.
	tx, err := database.Begin()
	require.NoError(t, err)
	require.NoError(t, migrationV1(tx))
	require.NoError(t, tx.Commit())

	_, err = database.Exec("INSERT INTO selectors (message_id, channel_id, guild_id) VALUES ('m1', 'c1', 'g1')")
	require.NoError(t, err)
	_, err = database.Exec("INSERT INTO admin_roles (guild_id, role_id) VALUES ('g2', 'r1')")
	require.NoError(t, err)

	require.NoError(t, InitSchema(database))

	v, err := AppliedVersion(database)
	require.NoError(t, err)
	assert.Equal(t, CurrentVersion(), v)

	// Guilds were backfilled from selectors and admin roles.
	var n int
	require.NoError(t, database.QueryRow("SELECT COUNT(*) FROM guilds").Scan(&n))
	assert.Equal(t, 2, n)

	require.NoError(t, database.QueryRow("SELECT COUNT(*) FROM creation_sessions").Scan(&n))
	assert.Equal(t, 0, n)
}

func TestSeedFixtures(t *testing.T) {
	database, err := Open(filepath.Join(t.TempDir(), "seed.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	require.NoError(t, SeedFixtures(database))

	var selectors, bindings, queued int
	require.NoError(t, database.QueryRow("SELECT COUNT(*) FROM selectors").Scan(&selectors))
	require.NoError(t, database.QueryRow("SELECT COUNT(*) FROM reaction_bindings").Scan(&bindings))
	require.NoError(t, database.QueryRow("SELECT COUNT(*) FROM cleanup_queue").Scan(&queued))
	assert.Equal(t, 3, selectors)
	assert.Equal(t, 3, bindings)
	assert.Equal(t, 1, queued)
}
