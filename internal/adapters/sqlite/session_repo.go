package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/rolesmith/internal/ports/secondary"
)

// SessionRepository implements secondary.SessionRepository with SQLite.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new SQLite creation session repository.
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create inserts a new session unless one already exists for the key.
func (r *SessionRepository) Create(ctx context.Context, session *secondary.SessionRecord) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO creation_sessions (operator_id, channel_id, guild_id, step, target_channel_id, selector_message_id)
		VALUES (?, ?, ?, ?, ?, ?)`,
		session.Key.OperatorID, session.Key.ChannelID, session.GuildID, session.Step,
		nullString(session.TargetChannelID), nullString(session.SelectorMessageID),
	)
	if err != nil {
		return false, fmt.Errorf("failed to create session: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	return rowsAffected > 0, nil
}

// Get retrieves a session with its pending bindings.
func (r *SessionRepository) Get(ctx context.Context, key secondary.SessionKey) (*secondary.SessionRecord, error) {
	var (
		target    sql.NullString
		messageID sql.NullString
		createdAt time.Time
		updatedAt time.Time
	)

	record := &secondary.SessionRecord{Key: key}
	err := r.db.QueryRowContext(ctx, `
		SELECT guild_id, step, target_channel_id, selector_message_id, created_at, updated_at
		FROM creation_sessions WHERE operator_id = ? AND channel_id = ?`,
		key.OperatorID, key.ChannelID,
	).Scan(&record.GuildID, &record.Step, &target, &messageID, &createdAt, &updatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	record.TargetChannelID = target.String
	record.SelectorMessageID = messageID.String
	record.CreatedAt = createdAt.Format(time.RFC3339)
	record.UpdatedAt = updatedAt.Format(time.RFC3339)

	rows, err := r.db.QueryContext(ctx, `
		SELECT reaction, role_id FROM session_bindings
		WHERE operator_id = ? AND channel_id = ? ORDER BY position ASC`,
		key.OperatorID, key.ChannelID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get session bindings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var b secondary.PendingBinding
		if err := rows.Scan(&b.Reaction, &b.RoleID); err != nil {
			return nil, fmt.Errorf("failed to scan session binding: %w", err)
		}
		record.Bindings = append(record.Bindings, b)
	}

	return record, rows.Err()
}

// Update writes step, target channel and selector message ID.
func (r *SessionRepository) Update(ctx context.Context, session *secondary.SessionRecord) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE creation_sessions
		SET step = ?, target_channel_id = ?, selector_message_id = ?, updated_at = CURRENT_TIMESTAMP
		WHERE operator_id = ? AND channel_id = ?`,
		session.Step, nullString(session.TargetChannelID), nullString(session.SelectorMessageID),
		session.Key.OperatorID, session.Key.ChannelID,
	)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("session %s/%s not found", session.Key.OperatorID, session.Key.ChannelID)
	}
	return nil
}

// AppendBinding adds a pending binding at the end of the session's list.
func (r *SessionRepository) AppendBinding(ctx context.Context, key secondary.SessionKey, reaction, roleID string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO session_bindings (operator_id, channel_id, position, reaction, role_id)
		VALUES (?, ?, (SELECT COALESCE(MAX(position), -1) + 1 FROM session_bindings WHERE operator_id = ? AND channel_id = ?), ?, ?)`,
		key.OperatorID, key.ChannelID, key.OperatorID, key.ChannelID, reaction, roleID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to append session binding: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	return rowsAffected > 0, nil
}

// Delete removes the session and its pending bindings.
func (r *SessionRepository) Delete(ctx context.Context, key secondary.SessionKey) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin session delete: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM session_bindings WHERE operator_id = ? AND channel_id = ?",
		key.OperatorID, key.ChannelID,
	); err != nil {
		return false, fmt.Errorf("failed to delete session bindings: %w", err)
	}

	result, err := tx.ExecContext(ctx,
		"DELETE FROM creation_sessions WHERE operator_id = ? AND channel_id = ?",
		key.OperatorID, key.ChannelID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit session delete: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	return rowsAffected > 0, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// Ensure SessionRepository implements the interface.
var _ secondary.SessionRepository = (*SessionRepository)(nil)
