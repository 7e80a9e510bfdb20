package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// schema holds the DDL applied by Migrate. Statements are idempotent so the
// schema can be re-applied at every startup.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id                    TEXT PRIMARY KEY,
		email                 TEXT NOT NULL UNIQUE,
		name                  TEXT,
		password_hash         TEXT NOT NULL,
		theme                 TEXT NOT NULL DEFAULT 'system',
		notifications_enabled INTEGER NOT NULL DEFAULT 1,
		task_sort_order       TEXT NOT NULL DEFAULT 'createdAt',
		date_format           TEXT NOT NULL DEFAULT 'MM/dd/yyyy',
		weekly_digest         INTEGER NOT NULL DEFAULT 0,
		created_at            TEXT NOT NULL,
		updated_at            TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS tasks (
		id           TEXT PRIMARY KEY,
		user_id      TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		title        TEXT NOT NULL CHECK (length(title) > 0),
		description  TEXT,
		completed    INTEGER NOT NULL DEFAULT 0,
		priority     TEXT NOT NULL DEFAULT 'medium' CHECK (priority IN ('low', 'medium', 'high')),
		due_date     TEXT,
		completed_at TEXT,
		created_at   TEXT NOT NULL,
		updated_at   TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_user_id ON tasks(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_user_completed ON tasks(user_id, completed)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		id            TEXT PRIMARY KEY,
		user_id       TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		refresh_token TEXT NOT NULL UNIQUE,
		expires_at    TEXT NOT NULL,
		revoked_at    TEXT,
		created_at    TEXT NOT NULL,
		updated_at    TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_user_id ON sessions(user_id)`,
}

// Migrate applies the schema to the database behind the pool. The statements
// run in one transaction so a failure leaves no half-applied schema behind.
func Migrate(ctx context.Context, pool *ConnectionPool) error {
	return pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		for _, statement := range schema {
			if _, err := tx.ExecContext(ctx, statement); err != nil {
				return fmt.Errorf("failed to apply schema: %w", err)
			}
		}
		return nil
	})
}

// formatTime renders a timestamp in the canonical stored representation.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// parseTime parses a stored timestamp.
func parseTime(value string) (time.Time, error) {
	return time.Parse(time.RFC3339, value)
}

// parseTimePtr parses a stored nullable timestamp into a pointer.
func parseTimePtr(value string) (*time.Time, error) {
	ts, err := parseTime(value)
	if err != nil {
		return nil, err
	}
	return &ts, nil
}
