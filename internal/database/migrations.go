package database

import (
	"context"
	"database/sql"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
    username      TEXT PRIMARY KEY,
    password      TEXT NOT NULL,
    first_name    TEXT NOT NULL,
    last_name     TEXT NOT NULL,
    phone         TEXT NOT NULL,
    join_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    last_login_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS messages (
    id            BIGSERIAL PRIMARY KEY,
    from_username TEXT NOT NULL REFERENCES users (username) ON DELETE CASCADE,
    to_username   TEXT NOT NULL REFERENCES users (username) ON DELETE CASCADE,
    body          TEXT NOT NULL,
    sent_at       TIMESTAMPTZ NOT NULL,
    read_at       TIMESTAMPTZ,
    CONSTRAINT messages_no_self_send CHECK (from_username <> to_username)
);
CREATE INDEX IF NOT EXISTS idx_messages_from ON messages (from_username, sent_at DESC);
CREATE INDEX IF NOT EXISTS idx_messages_to ON messages (to_username, sent_at DESC);
`

func RunMigrations(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}
