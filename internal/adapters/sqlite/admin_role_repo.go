package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/rolesmith/internal/ports/secondary"
)

// AdminRoleRepository implements secondary.AdminRoleRepository with SQLite.
type AdminRoleRepository struct {
	db *sql.DB
}

// NewAdminRoleRepository creates a new SQLite admin role repository.
func NewAdminRoleRepository(db *sql.DB) *AdminRoleRepository {
	return &AdminRoleRepository{db: db}
}

// Add grants admin rights to a role and registers the guild.
func (r *AdminRoleRepository) Add(ctx context.Context, guildID, roleID string) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin admin add: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "INSERT OR IGNORE INTO guilds (guild_id) VALUES (?)", guildID); err != nil {
		return false, fmt.Errorf("failed to register guild: %w", err)
	}

	result, err := tx.ExecContext(ctx,
		"INSERT OR IGNORE INTO admin_roles (guild_id, role_id) VALUES (?, ?)",
		guildID, roleID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to add admin role: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit admin add: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	return rowsAffected > 0, nil
}

// Remove revokes admin rights from a role.
func (r *AdminRoleRepository) Remove(ctx context.Context, guildID, roleID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM admin_roles WHERE guild_id = ? AND role_id = ?",
		guildID, roleID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to remove admin role: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	return rowsAffected > 0, nil
}

// List returns the admin role IDs of a guild.
func (r *AdminRoleRepository) List(ctx context.Context, guildID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT role_id FROM admin_roles WHERE guild_id = ? ORDER BY created_at ASC, role_id ASC",
		guildID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list admin roles: %w", err)
	}
	defer rows.Close()

	var roles []string
	for rows.Next() {
		var roleID string
		if err := rows.Scan(&roleID); err != nil {
			return nil, fmt.Errorf("failed to scan admin role: %w", err)
		}
		roles = append(roles, roleID)
	}

	return roles, rows.Err()
}

// Ensure AdminRoleRepository implements the interface.
var _ secondary.AdminRoleRepository = (*AdminRoleRepository)(nil)
