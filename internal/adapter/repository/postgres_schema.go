package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS users (
	id     TEXT PRIMARY KEY,
	role   TEXT NOT NULL,
	name   TEXT NOT NULL DEFAULT '',
	email  TEXT NOT NULL DEFAULT '',
	avatar TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS users_role_idx ON users (role);

CREATE TABLE IF NOT EXISTS conversations (
	id              TEXT PRIMARY KEY,
	participants    TEXT[] NOT NULL,
	pair_key        TEXT UNIQUE,
	last_message_id TEXT,
	last_message_at TIMESTAMPTZ,
	created_at      TIMESTAMPTZ NOT NULL,
	updated_at      TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS conversations_participants_idx ON conversations USING GIN (participants);

CREATE TABLE IF NOT EXISTS messages (
	seq             BIGSERIAL,
	id              TEXT PRIMARY KEY,
	conversation_id TEXT NOT NULL REFERENCES conversations (id),
	sender          TEXT NOT NULL,
	content         TEXT NOT NULL,
	read_by         TEXT[] NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS messages_conversation_order_idx ON messages (conversation_id, created_at, seq);
`

// MigratePostgres applies the schema. Every statement is idempotent.
func MigratePostgres(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, postgresSchema)
	return err
}
