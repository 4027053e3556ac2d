// Package postgres opens the shared database handle and applies the schema.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// Open connects to Postgres, verifies the connection, and ensures the schema
// exists. The returned handle is shared by all stores.
func Open(ctx context.Context, url string) (*sql.DB, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}

	if err := InitSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// InitSchema applies the table definitions. Idempotent, safe to run at every
// startup and in integration tests.
func InitSchema(ctx context.Context, db *sql.DB) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS issues (
		id UUID PRIMARY KEY,
		reporter_id UUID NOT NULL,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		lat DOUBLE PRECISION NOT NULL,
		lng DOUBLE PRECISION NOT NULL,
		address TEXT NOT NULL DEFAULT '',
		media JSONB NOT NULL DEFAULT '[]',
		priority INT NOT NULL DEFAULT 0,
		version BIGINT NOT NULL DEFAULT 1,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE TABLE IF NOT EXISTS verifications (
		issue_id UUID PRIMARY KEY REFERENCES issues(id) ON DELETE CASCADE,
		verified BOOLEAN NOT NULL DEFAULT FALSE,
		confidence_score INT NOT NULL DEFAULT 0,
		tags JSONB NOT NULL DEFAULT '[]',
		duplicate_of UUID,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE TABLE IF NOT EXISTS assignments (
		id UUID PRIMARY KEY,
		issue_id UUID NOT NULL REFERENCES issues(id) ON DELETE CASCADE,
		assignee_id UUID NOT NULL,
		assigner_id UUID NOT NULL,
		status TEXT NOT NULL DEFAULT 'assigned',
		completed_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE UNIQUE INDEX IF NOT EXISTS assignments_one_active
		ON assignments (issue_id)
		WHERE status IN ('assigned', 'in_progress');

	CREATE TABLE IF NOT EXISTS notifications (
		id UUID PRIMARY KEY,
		recipient_id UUID NOT NULL,
		message TEXT NOT NULL,
		category TEXT NOT NULL,
		issue_id UUID,
		read BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE INDEX IF NOT EXISTS notifications_recipient
		ON notifications (recipient_id, created_at DESC);

	CREATE TABLE IF NOT EXISTS credit_entries (
		user_id UUID NOT NULL,
		event_key TEXT NOT NULL,
		amount INT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (user_id, event_key)
	);

	CREATE TABLE IF NOT EXISTS campaigns (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		campaign_date TIMESTAMPTZ NOT NULL,
		status TEXT NOT NULL DEFAULT 'upcoming',
		join_bonus INT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE TABLE IF NOT EXISTS campaign_participants (
		campaign_id UUID NOT NULL REFERENCES campaigns(id) ON DELETE CASCADE,
		user_id UUID NOT NULL,
		joined_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (campaign_id, user_id)
	);`

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
