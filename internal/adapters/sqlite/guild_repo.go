// Package sqlite contains SQLite implementations of repository interfaces.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/rolesmith/internal/ports/secondary"
)

// GuildRepository implements secondary.GuildRepository with SQLite.
type GuildRepository struct {
	db *sql.DB
}

// NewGuildRepository creates a new SQLite guild repository.
func NewGuildRepository(db *sql.DB) *GuildRepository {
	return &GuildRepository{db: db}
}

// Create registers a guild.
func (r *GuildRepository) Create(ctx context.Context, guildID string) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO guilds (guild_id) VALUES (?)",
		guildID,
	)
	if err != nil {
		return fmt.Errorf("failed to create guild: %w", err)
	}
	return nil
}

// Exists reports whether the guild is registered.
func (r *GuildRepository) Exists(ctx context.Context, guildID string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM guilds WHERE guild_id = ?",
		guildID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check guild: %w", err)
	}
	return n > 0, nil
}

// List returns every registered guild ordered by registration.
func (r *GuildRepository) List(ctx context.Context) ([]*secondary.GuildRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT guild_id, system_channel_id, created_at FROM guilds ORDER BY created_at ASC, guild_id ASC",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list guilds: %w", err)
	}
	defer rows.Close()

	var guilds []*secondary.GuildRecord
	for rows.Next() {
		var (
			channel   sql.NullString
			createdAt time.Time
		)
		record := &secondary.GuildRecord{}
		if err := rows.Scan(&record.GuildID, &channel, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan guild: %w", err)
		}
		record.SystemChannelID = channel.String
		record.CreatedAt = createdAt.Format(time.RFC3339)
		guilds = append(guilds, record)
	}

	return guilds, rows.Err()
}

// SetSystemChannel sets the guild notification channel, registering the guild
// if needed.
func (r *GuildRepository) SetSystemChannel(ctx context.Context, guildID, channelID string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO guilds (guild_id, system_channel_id) VALUES (?, ?)
		ON CONFLICT(guild_id) DO UPDATE SET system_channel_id = excluded.system_channel_id`,
		guildID, nullString(channelID),
	)
	if err != nil {
		return fmt.Errorf("failed to set system channel: %w", err)
	}
	return nil
}

// GetSystemChannel returns the guild notification channel, "" if unset.
func (r *GuildRepository) GetSystemChannel(ctx context.Context, guildID string) (string, error) {
	var channel sql.NullString
	err := r.db.QueryRowContext(ctx,
		"SELECT system_channel_id FROM guilds WHERE guild_id = ?",
		guildID,
	).Scan(&channel)

	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get system channel: %w", err)
	}
	return channel.String, nil
}

// Purge removes the guild and all rows that belong to it in one transaction.
// Children go first, so a purge interrupted outside the transaction boundary
// is completed by running it again.
func (r *GuildRepository) Purge(ctx context.Context, guildID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin guild purge: %w", err)
	}
	defer tx.Rollback()

	statements := []string{
		"DELETE FROM reaction_bindings WHERE message_id IN (SELECT message_id FROM selectors WHERE guild_id = ?)",
		"DELETE FROM selectors WHERE guild_id = ?",
		"DELETE FROM admin_roles WHERE guild_id = ?",
		"DELETE FROM session_bindings WHERE (operator_id, channel_id) IN (SELECT operator_id, channel_id FROM creation_sessions WHERE guild_id = ?)",
		"DELETE FROM creation_sessions WHERE guild_id = ?",
		"DELETE FROM cleanup_queue WHERE guild_id = ?",
		"DELETE FROM guilds WHERE guild_id = ?",
	}
	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt, guildID); err != nil {
			return fmt.Errorf("failed to purge guild %s: %w", guildID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit guild purge: %w", err)
	}
	return nil
}

// Ensure GuildRepository implements the interface.
var _ secondary.GuildRepository = (*GuildRepository)(nil)
