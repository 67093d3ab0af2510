package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS links (
		id           UUID PRIMARY KEY,
		code         TEXT NOT NULL UNIQUE,
		original_url TEXT NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL,
		expires_at   TIMESTAMPTZ,
		click_count  INTEGER NOT NULL DEFAULT 0,
		active       BOOLEAN NOT NULL DEFAULT TRUE
	)`,
	`CREATE INDEX IF NOT EXISTS idx_links_expires_at ON links (expires_at) WHERE expires_at IS NOT NULL`,
	`CREATE TABLE IF NOT EXISTS click_events (
		id         UUID PRIMARY KEY,
		link_id    UUID NOT NULL,
		clicked_at TIMESTAMPTZ NOT NULL,
		user_agent TEXT NOT NULL DEFAULT '',
		client_ip  TEXT NOT NULL DEFAULT '',
		referrer   TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_click_events_link_clicked ON click_events (link_id, clicked_at)`,
	`CREATE INDEX IF NOT EXISTS idx_click_events_clicked_at ON click_events (clicked_at)`,
	`CREATE TABLE IF NOT EXISTS click_summaries (
		id           UUID PRIMARY KEY,
		link_id      UUID NOT NULL,
		period_start TIMESTAMPTZ NOT NULL,
		period_end   TIMESTAMPTZ NOT NULL,
		click_count  INTEGER NOT NULL,
		user_agents  JSONB NOT NULL DEFAULT '{}',
		client_ips   JSONB NOT NULL DEFAULT '{}',
		referrers    JSONB NOT NULL DEFAULT '{}',
		compacted    BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE INDEX IF NOT EXISTS idx_click_summaries_link ON click_summaries (link_id)`,
	`CREATE TABLE IF NOT EXISTS link_archives (
		id            UUID PRIMARY KEY,
		link_id       UUID NOT NULL,
		code          TEXT NOT NULL,
		body          BYTEA NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL,
		expires_at    TIMESTAMPTZ,
		total_clicks  INTEGER NOT NULL,
		compressed_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_link_archives_code ON link_archives (code)`,
}

// Migrate creates the schema if it does not exist yet. Statements are
// idempotent, so running it on every startup is safe.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}

	return nil
}
