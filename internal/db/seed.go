package db

import (
	"database/sql"
	"fmt"
	"time"
)

// SeedFixtures populates the database with development fixtures: two guilds,
// admin roles, a handful of selectors with bindings and one queued guild.
// Uses snowflake-shaped IDs so the CLI listings look realistic.
func SeedFixtures(database *sql.DB) error {
	guilds := []struct{ id, systemChannel string }{
		{"700000000000000001", "710000000000000001"},
		{"700000000000000002", ""},
	}
	for _, g := range guilds {
		var channel sql.NullString
		if g.systemChannel != "" {
			channel = sql.NullString{String: g.systemChannel, Valid: true}
		}
		if _, err := database.Exec(
			"INSERT INTO guilds (guild_id, system_channel_id) VALUES (?, ?)",
			g.id, channel,
		); err != nil {
			return fmt.Errorf("seed guilds: %w", err)
		}
	}

	admins := []struct{ guild, role string }{
		{"700000000000000001", "720000000000000001"},
		{"700000000000000002", "720000000000000002"},
	}
	for _, a := range admins {
		if _, err := database.Exec(
			"INSERT INTO admin_roles (guild_id, role_id) VALUES (?, ?)",
			a.guild, a.role,
		); err != nil {
			return fmt.Errorf("seed admin roles: %w", err)
		}
	}

	selectors := []struct {
		message, channel, guild string
		bindings                [][2]string
	}{
		{"730000000000000001", "710000000000000002", "700000000000000001", [][2]string{
			{"🔴", "740000000000000001"},
			{"🔵", "740000000000000002"},
		}},
		{"730000000000000002", "710000000000000002", "700000000000000001", [][2]string{
			{"party:750000000000000001", "740000000000000003"},
		}},
		{"730000000000000003", "710000000000000003", "700000000000000002", nil},
	}
	for _, s := range selectors {
		if _, err := database.Exec(
			"INSERT INTO selectors (message_id, channel_id, guild_id) VALUES (?, ?, ?)",
			s.message, s.channel, s.guild,
		); err != nil {
			return fmt.Errorf("seed selectors: %w", err)
		}
		for i, b := range s.bindings {
			if _, err := database.Exec(
				"INSERT INTO reaction_bindings (message_id, reaction, role_id, position) VALUES (?, ?, ?, ?)",
				s.message, b[0], b[1], i,
			); err != nil {
				return fmt.Errorf("seed bindings: %w", err)
			}
		}
	}

	since := time.Now().Add(-6 * time.Hour).Unix()
	if _, err := database.Exec(
		"INSERT INTO cleanup_queue (guild_id, unreachable_since) VALUES (?, ?)",
		"700000000000000002", since,
	); err != nil {
		return fmt.Errorf("seed cleanup queue: %w", err)
	}

	return nil
}
