package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/rolesmith/internal/ports/secondary"
)

// CleanupQueueRepository implements secondary.CleanupQueueRepository with SQLite.
type CleanupQueueRepository struct {
	db *sql.DB
}

// NewCleanupQueueRepository creates a new SQLite cleanup queue repository.
func NewCleanupQueueRepository(db *sql.DB) *CleanupQueueRepository {
	return &CleanupQueueRepository{db: db}
}

// Enqueue records a guild as unreachable. An existing entry keeps its timestamp.
func (r *CleanupQueueRepository) Enqueue(ctx context.Context, guildID string, since time.Time) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO cleanup_queue (guild_id, unreachable_since) VALUES (?, ?)",
		guildID, since.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue guild: %w", err)
	}
	return nil
}

// Dequeue removes a guild from the queue.
func (r *CleanupQueueRepository) Dequeue(ctx context.Context, guildID string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM cleanup_queue WHERE guild_id = ?", guildID)
	if err != nil {
		return fmt.Errorf("failed to dequeue guild: %w", err)
	}
	return nil
}

// List returns every queued guild, oldest first.
func (r *CleanupQueueRepository) List(ctx context.Context) ([]*secondary.CleanupEntryRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT guild_id, unreachable_since FROM cleanup_queue ORDER BY unreachable_since ASC, guild_id ASC",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list cleanup queue: %w", err)
	}
	defer rows.Close()

	var entries []*secondary.CleanupEntryRecord
	for rows.Next() {
		var since int64
		record := &secondary.CleanupEntryRecord{}
		if err := rows.Scan(&record.GuildID, &since); err != nil {
			return nil, fmt.Errorf("failed to scan cleanup entry: %w", err)
		}
		record.UnreachableSince = time.Unix(since, 0).UTC()
		entries = append(entries, record)
	}

	return entries, rows.Err()
}

// Ensure CleanupQueueRepository implements the interface.
var _ secondary.CleanupQueueRepository = (*CleanupQueueRepository)(nil)
