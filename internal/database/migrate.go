package database

import (
	"context"
	"fmt"
)

// schema is applied at startup. Statements are idempotent so the server can
// run them unconditionally.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL DEFAULT '',
		daily_goal INTEGER NOT NULL DEFAULT 120,
		current_streak INTEGER NOT NULL DEFAULT 0,
		total_study_time INTEGER NOT NULL DEFAULT 0,
		total_mindful_time INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS study_sessions (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		subject TEXT NOT NULL,
		goal TEXT NOT NULL DEFAULT '',
		technique TEXT NOT NULL,
		duration INTEGER NOT NULL,
		start_time TIMESTAMPTZ NOT NULL,
		end_time TIMESTAMPTZ,
		completed BOOLEAN NOT NULL DEFAULT FALSE,
		focus_score INTEGER,
		notes TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	// The single-active-session invariant: at most one incomplete study
	// session per user, enforced by the database regardless of races.
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_study_sessions_active
		ON study_sessions (user_id) WHERE NOT completed`,

	`CREATE INDEX IF NOT EXISTS ix_study_sessions_user_created
		ON study_sessions (user_id, created_at DESC)`,

	`CREATE TABLE IF NOT EXISTS mindful_sessions (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		title TEXT NOT NULL,
		category TEXT NOT NULL,
		duration_seconds INTEGER NOT NULL,
		audio_url TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		completed BOOLEAN NOT NULL DEFAULT FALSE,
		completed_at TIMESTAMPTZ,
		rating INTEGER,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE INDEX IF NOT EXISTS ix_mindful_sessions_user_created
		ON mindful_sessions (user_id, created_at)`,

	`CREATE TABLE IF NOT EXISTS conversations (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		title TEXT NOT NULL,
		subject TEXT,
		last_message TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	// seq preserves append order independently of timestamp resolution.
	`CREATE TABLE IF NOT EXISTS messages (
		seq BIGSERIAL,
		id UUID PRIMARY KEY,
		conversation_id UUID NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
		type TEXT NOT NULL,
		content TEXT NOT NULL,
		ts TIMESTAMPTZ NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS ix_messages_conversation_seq
		ON messages (conversation_id, seq)`,

	`CREATE TABLE IF NOT EXISTS documents (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		type TEXT NOT NULL,
		storage_ref TEXT NOT NULL,
		size_bytes BIGINT,
		uploaded_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE INDEX IF NOT EXISTS ix_documents_user_uploaded
		ON documents (user_id, uploaded_at DESC)`,
}

// Migrate applies the schema. Safe to call on every startup.
func Migrate(ctx context.Context, db *DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement %d: %w", i, err)
		}
	}
	return nil
}
