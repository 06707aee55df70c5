package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/rolesmith/internal/ports/secondary"
)

// SelectorRepository implements secondary.SelectorRepository with SQLite.
type SelectorRepository struct {
	db *sql.DB
}

// NewSelectorRepository creates a new SQLite selector repository.
func NewSelectorRepository(db *sql.DB) *SelectorRepository {
	return &SelectorRepository{db: db}
}

// Create persists a selector, its bindings and its guild in one transaction.
// Every insert ignores conflicts, so re-running a partially applied create
// converges on the same rows.
func (r *SelectorRepository) Create(ctx context.Context, selector *secondary.SelectorRecord, bindings []secondary.BindingRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin selector create: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"INSERT OR IGNORE INTO guilds (guild_id) VALUES (?)",
		selector.GuildID,
	); err != nil {
		return fmt.Errorf("failed to register guild: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT OR IGNORE INTO selectors (message_id, channel_id, guild_id) VALUES (?, ?, ?)",
		selector.MessageID, selector.ChannelID, selector.GuildID,
	); err != nil {
		return fmt.Errorf("failed to create selector: %w", err)
	}

	for i, b := range bindings {
		if _, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO reaction_bindings (message_id, reaction, role_id, position) VALUES (?, ?, ?, ?)",
			selector.MessageID, b.Reaction, b.RoleID, i,
		); err != nil {
			return fmt.Errorf("failed to create binding: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit selector create: %w", err)
	}
	return nil
}

// GetByMessage retrieves a selector by message ID.
func (r *SelectorRepository) GetByMessage(ctx context.Context, messageID string) (*secondary.SelectorRecord, error) {
	var createdAt time.Time
	record := &secondary.SelectorRecord{}
	err := r.db.QueryRowContext(ctx,
		"SELECT seq, message_id, channel_id, guild_id, created_at FROM selectors WHERE message_id = ?",
		messageID,
	).Scan(&record.Seq, &record.MessageID, &record.ChannelID, &record.GuildID, &createdAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get selector: %w", err)
	}

	record.CreatedAt = createdAt.Format(time.RFC3339)
	return record, nil
}

// List returns every selector in insertion order.
func (r *SelectorRepository) List(ctx context.Context) ([]*secondary.SelectorRecord, error) {
	return r.query(ctx,
		"SELECT seq, message_id, channel_id, guild_id, created_at FROM selectors ORDER BY seq ASC",
	)
}

// ListByChannel returns the selectors of a channel in insertion order.
func (r *SelectorRepository) ListByChannel(ctx context.Context, channelID string) ([]*secondary.SelectorRecord, error) {
	return r.query(ctx,
		"SELECT seq, message_id, channel_id, guild_id, created_at FROM selectors WHERE channel_id = ? ORDER BY seq ASC",
		channelID,
	)
}

func (r *SelectorRepository) query(ctx context.Context, q string, args ...any) ([]*secondary.SelectorRecord, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list selectors: %w", err)
	}
	defer rows.Close()

	var selectors []*secondary.SelectorRecord
	for rows.Next() {
		var createdAt time.Time
		record := &secondary.SelectorRecord{}
		if err := rows.Scan(&record.Seq, &record.MessageID, &record.ChannelID, &record.GuildID, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan selector: %w", err)
		}
		record.CreatedAt = createdAt.Format(time.RFC3339)
		selectors = append(selectors, record)
	}

	return selectors, rows.Err()
}

// Delete removes a selector and its bindings, bindings first.
func (r *SelectorRepository) Delete(ctx context.Context, messageID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin selector delete: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM reaction_bindings WHERE message_id = ?", messageID); err != nil {
		return fmt.Errorf("failed to delete bindings: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM selectors WHERE message_id = ?", messageID); err != nil {
		return fmt.Errorf("failed to delete selector: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit selector delete: %w", err)
	}
	return nil
}

// AddBinding adds one binding at the end of the message's list.
func (r *SelectorRepository) AddBinding(ctx context.Context, binding secondary.BindingRecord) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO reaction_bindings (message_id, reaction, role_id, position)
		VALUES (?, ?, ?, (SELECT COALESCE(MAX(position), -1) + 1 FROM reaction_bindings WHERE message_id = ?))`,
		binding.MessageID, binding.Reaction, binding.RoleID, binding.MessageID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to add binding: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	return rowsAffected > 0, nil
}

// RemoveBinding removes one binding.
func (r *SelectorRepository) RemoveBinding(ctx context.Context, messageID, reaction string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM reaction_bindings WHERE message_id = ? AND reaction = ?",
		messageID, reaction,
	)
	if err != nil {
		return false, fmt.Errorf("failed to remove binding: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	return rowsAffected > 0, nil
}

// GetBinding returns the role bound to (message, reaction), "" if none.
func (r *SelectorRepository) GetBinding(ctx context.Context, messageID, reaction string) (string, error) {
	var roleID string
	err := r.db.QueryRowContext(ctx,
		"SELECT role_id FROM reaction_bindings WHERE message_id = ? AND reaction = ?",
		messageID, reaction,
	).Scan(&roleID)

	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get binding: %w", err)
	}
	return roleID, nil
}

// ListBindings returns the bindings of a message in submission order.
func (r *SelectorRepository) ListBindings(ctx context.Context, messageID string) ([]secondary.BindingRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT message_id, reaction, role_id FROM reaction_bindings WHERE message_id = ? ORDER BY position ASC",
		messageID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list bindings: %w", err)
	}
	defer rows.Close()

	var bindings []secondary.BindingRecord
	for rows.Next() {
		var b secondary.BindingRecord
		if err := rows.Scan(&b.MessageID, &b.Reaction, &b.RoleID); err != nil {
			return nil, fmt.Errorf("failed to scan binding: %w", err)
		}
		bindings = append(bindings, b)
	}

	return bindings, rows.Err()
}

// Ensure SelectorRepository implements the interface.
var _ secondary.SelectorRepository = (*SelectorRepository)(nil)
