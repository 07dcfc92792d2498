package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/helpinghands/volunteer-dashboard/internal/core/domain"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS credentials (
		subject_id    TEXT PRIMARY KEY,
		email         TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS volunteers (
		id           TEXT PRIMARY KEY,
		auth_user_id TEXT UNIQUE REFERENCES credentials (subject_id) ON DELETE SET NULL,
		first_name   TEXT NOT NULL DEFAULT '',
		last_name    TEXT NOT NULL DEFAULT '',
		email        TEXT NOT NULL,
		active       BOOLEAN NOT NULL DEFAULT TRUE,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS roles (
		name         TEXT PRIMARY KEY,
		display_name TEXT NOT NULL,
		description  TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS volunteer_roles (
		volunteer_id TEXT NOT NULL REFERENCES volunteers (id) ON DELETE CASCADE,
		role         TEXT NOT NULL REFERENCES roles (name),
		active       BOOLEAN NOT NULL DEFAULT TRUE,
		granted_by   TEXT NOT NULL DEFAULT '',
		granted_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (volunteer_id, role)
	)`,
	`CREATE INDEX IF NOT EXISTS volunteer_roles_active_idx
		ON volunteer_roles (volunteer_id) WHERE active`,
	`CREATE TABLE IF NOT EXISTS events (
		id        TEXT PRIMARY KEY,
		name      TEXT NOT NULL,
		category  TEXT NOT NULL,
		starts_at TIMESTAMPTZ NOT NULL,
		active    BOOLEAN NOT NULL DEFAULT TRUE
	)`,
	`CREATE TABLE IF NOT EXISTS volunteer_hours (
		id           TEXT PRIMARY KEY,
		volunteer_id TEXT NOT NULL REFERENCES volunteers (id) ON DELETE CASCADE,
		event_id     TEXT NOT NULL REFERENCES events (id),
		hours        NUMERIC(6, 2) NOT NULL CHECK (hours > 0),
		status       TEXT NOT NULL DEFAULT 'pending',
		reviewed_by  TEXT NOT NULL DEFAULT '',
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
		reviewed_at  TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS volunteer_hours_status_idx ON volunteer_hours (status, created_at)`,
}

const seedRole = `
	INSERT INTO roles (name, display_name, description)
	VALUES ($1, $2, $3)
	ON CONFLICT (name) DO NOTHING
`

// Migrate creates the schema if missing and seeds the built-in roles. It is
// safe to run on every start.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	for _, r := range domain.BuiltInRoles {
		if _, err := db.ExecContext(ctx, seedRole, r.Name, r.DisplayName, r.Description); err != nil {
			return fmt.Errorf("seed role %s: %w", r.Name, err)
		}
	}
	return nil
}
