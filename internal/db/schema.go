package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema is idempotent; Migrate may run on every start.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS channels (
		id                   BIGSERIAL PRIMARY KEY,
		identifier           VARCHAR(64) NOT NULL UNIQUE CHECK (identifier = lower(identifier)),
		display_name         TEXT NOT NULL,
		category             VARCHAR(20) NOT NULL CHECK (category IN
		                         ('business', 'technology', 'news', 'entertainment', 'education', 'sport')),
		population           BIGINT NOT NULL DEFAULT 0 CHECK (population >= 0),
		population_estimated BOOLEAN NOT NULL DEFAULT false,
		source_tag           VARCHAR(20) NOT NULL CHECK (source_tag IN ('manual', 'curated-popular', 'topic-sweep')),
		verified             BOOLEAN NOT NULL DEFAULT true,
		added_at             TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at           TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_channels_category_population
		ON channels (category, population DESC, id)`,
}

// Migrate creates the channels table and its indexes if they are missing.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for i, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i+1, err)
		}
	}
	return nil
}
