package postgres

import (
	"context"
	"database/sql"

	"github.com/deskhub/deskhub/internal/apperr"
)

// Schema is the canonical DDL for the dashboard store. EnsureSchema applies
// it idempotently on startup; the composite unique keys below are the only
// concurrency-safety mechanism for credential refresh and sync upserts.
const Schema = `
CREATE TABLE IF NOT EXISTS users (
    user_id      TEXT PRIMARY KEY,
    email        TEXT NOT NULL UNIQUE,
    display_name TEXT,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS credentials (
    user_id        TEXT NOT NULL REFERENCES users(user_id),
    provider       TEXT NOT NULL,
    access_cipher  TEXT NOT NULL,
    refresh_cipher TEXT NOT NULL,
    expires_at     TIMESTAMPTZ NOT NULL,
    scopes         JSONB NOT NULL DEFAULT '[]',
    created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (user_id, provider)
);

CREATE TABLE IF NOT EXISTS emails (
    email_id       TEXT PRIMARY KEY,
    user_id        TEXT NOT NULL REFERENCES users(user_id),
    gmail_id       TEXT NOT NULL,
    thread_id      TEXT NOT NULL DEFAULT '',
    from_addr      TEXT NOT NULL DEFAULT '',
    to_addrs       JSONB NOT NULL DEFAULT '[]',
    subject        TEXT NOT NULL DEFAULT '',
    snippet        TEXT NOT NULL DEFAULT '',
    body           TEXT,
    is_read        BOOLEAN NOT NULL DEFAULT FALSE,
    is_starred     BOOLEAN NOT NULL DEFAULT FALSE,
    labels         JSONB NOT NULL DEFAULT '[]',
    received_at    TIMESTAMPTZ NOT NULL,
    linked_task_id TEXT,
    synced_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    UNIQUE (user_id, gmail_id)
);
CREATE INDEX IF NOT EXISTS emails_user_received_idx ON emails (user_id, received_at DESC);

CREATE TABLE IF NOT EXISTS calendar_events (
    event_id        TEXT PRIMARY KEY,
    user_id         TEXT NOT NULL REFERENCES users(user_id),
    google_event_id TEXT NOT NULL,
    title           TEXT NOT NULL,
    description     TEXT,
    start_time      TIMESTAMPTZ NOT NULL,
    end_time        TIMESTAMPTZ NOT NULL,
    location        TEXT,
    attendees       JSONB NOT NULL DEFAULT '[]',
    linked_task_id  TEXT,
    synced_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    UNIQUE (user_id, google_event_id)
);
CREATE INDEX IF NOT EXISTS calendar_events_user_window_idx ON calendar_events (user_id, start_time, end_time);

CREATE TABLE IF NOT EXISTS tasks (
    task_id         TEXT PRIMARY KEY,
    user_id         TEXT NOT NULL REFERENCES users(user_id),
    title           TEXT NOT NULL,
    description     TEXT,
    status          TEXT NOT NULL DEFAULT 'todo',
    priority        TEXT NOT NULL DEFAULT 'medium',
    due_date        TIMESTAMPTZ,
    tags            JSONB NOT NULL DEFAULT '[]',
    linked_email_id TEXT,
    linked_note_id  TEXT,
    linked_event_id TEXT,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS tasks_user_created_idx ON tasks (user_id, created_at DESC);

CREATE TABLE IF NOT EXISTS notes (
    note_id    TEXT PRIMARY KEY,
    user_id    TEXT NOT NULL REFERENCES users(user_id),
    title      TEXT NOT NULL,
    content    TEXT NOT NULL DEFAULT '',
    tags       JSONB NOT NULL DEFAULT '[]',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

// EnsureSchema applies the DDL. Safe to run on every startup.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return apperr.Wrap(apperr.Database, "schema setup failed", err)
	}
	return nil
}
