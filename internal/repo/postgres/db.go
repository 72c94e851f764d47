package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres dsn is required")
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}

	cfg.MinConns = 0
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}

	return pool, nil
}

var schemaStatements = []string{
	`
CREATE TABLE IF NOT EXISTS tags (
	id TEXT PRIMARY KEY,
	tag TEXT NOT NULL,
	emoji TEXT NOT NULL,
	delay INTEGER NOT NULL DEFAULT 0,
	match_mode TEXT NOT NULL DEFAULT 'equals',
	require_media BOOLEAN NOT NULL DEFAULT FALSE,
	thread_name TEXT NOT NULL DEFAULT '',
	moderation_enabled BOOLEAN NOT NULL DEFAULT FALSE,
	counter_name TEXT NOT NULL DEFAULT '',
	reply_ok TEXT NOT NULL DEFAULT '',
	reply_need_media TEXT NOT NULL DEFAULT '',
	reply_duplicate TEXT NOT NULL DEFAULT '',
	reply_pending TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_tags_trigger ON tags (LOWER(tag))`,
	`
CREATE TABLE IF NOT EXISTS logs (
	id BIGSERIAL PRIMARY KEY,
	user_id BIGINT NOT NULL,
	username TEXT NOT NULL DEFAULT '',
	chat_id BIGINT NOT NULL,
	message_id INTEGER NOT NULL,
	trigger TEXT NOT NULL,
	emoji TEXT NOT NULL,
	thread_name TEXT NOT NULL DEFAULT '',
	media_type TEXT NOT NULL DEFAULT '',
	caption TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	`CREATE INDEX IF NOT EXISTS idx_logs_created_at ON logs (created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_logs_trigger ON logs (trigger)`,
	`
CREATE TABLE IF NOT EXISTS moderation_queue (
	id TEXT PRIMARY KEY,
	chat_id BIGINT NOT NULL,
	message_id INTEGER NOT NULL,
	user_id BIGINT NOT NULL,
	username TEXT NOT NULL DEFAULT '',
	display_name TEXT NOT NULL DEFAULT '',
	tag TEXT NOT NULL,
	emoji TEXT NOT NULL,
	text TEXT NOT NULL DEFAULT '',
	caption TEXT NOT NULL DEFAULT '',
	media_info JSONB NOT NULL DEFAULT '{}',
	thread_name TEXT NOT NULL DEFAULT '',
	counter_name TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'pending',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	`CREATE INDEX IF NOT EXISTS idx_moderation_status_created ON moderation_queue (status, created_at)`,
	`
CREATE TABLE IF NOT EXISTS media_hashes (
	id BIGSERIAL PRIMARY KEY,
	file_hash TEXT NOT NULL UNIQUE,
	file_id TEXT NOT NULL,
	file_type TEXT NOT NULL,
	user_id BIGINT NOT NULL,
	chat_id BIGINT NOT NULL,
	message_id INTEGER NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	`
CREATE TABLE IF NOT EXISTS reaction_queue (
	id BIGSERIAL PRIMARY KEY,
	moderation_id TEXT NOT NULL DEFAULT '',
	chat_id BIGINT NOT NULL,
	message_id INTEGER NOT NULL,
	emoji TEXT NOT NULL,
	attempts INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	`CREATE INDEX IF NOT EXISTS idx_reaction_queue_created ON reaction_queue (created_at)`,
}

// Migrate creates the schema when it does not exist yet. Statements are
// individually idempotent so reruns are safe.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema statement: %w", err)
		}
	}

	return nil
}
