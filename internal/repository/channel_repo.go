package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mathieu-neron/channelfinder/internal/model"
)

var (
	// ErrChannelNotFound is returned by point lookups that match no row.
	ErrChannelNotFound = errors.New("channel not found")
	// ErrInvalidChannel is returned when a record would violate a store invariant.
	ErrInvalidChannel = errors.New("invalid channel record")
)

const channelColumns = `id, identifier, display_name, category, population, population_estimated,
		       source_tag, verified, added_at, updated_at`

type ChannelRepo struct {
	pool *pgxpool.Pool
}

func NewChannelRepo(pool *pgxpool.Pool) *ChannelRepo {
	return &ChannelRepo{pool: pool}
}

// Upsert inserts the channel or, when the identifier already exists,
// overwrites every non-key field except added_at (first-seen semantics).
// On success ch.ID, ch.AddedAt and ch.UpdatedAt reflect the stored row.
func (r *ChannelRepo) Upsert(ctx context.Context, ch *model.Channel) (inserted bool, err error) {
	if err := ValidateForUpsert(ch); err != nil {
		return false, err
	}

	query := `
		INSERT INTO channels (identifier, display_name, category, population,
		                      population_estimated, source_tag, verified)
		VALUES ($1, $2, $3, $4, $5, $6, true)
		ON CONFLICT (identifier) DO UPDATE
		SET display_name = EXCLUDED.display_name,
		    category = EXCLUDED.category,
		    population = EXCLUDED.population,
		    population_estimated = EXCLUDED.population_estimated,
		    source_tag = EXCLUDED.source_tag,
		    verified = true,
		    updated_at = NOW()
		RETURNING id, added_at, updated_at, (xmax = 0) AS inserted`

	err = r.pool.QueryRow(ctx, query,
		ch.Identifier, ch.DisplayName, string(ch.Category), ch.Population,
		ch.PopulationEstimated, string(ch.SourceTag),
	).Scan(&ch.ID, &ch.AddedAt, &ch.UpdatedAt, &inserted)
	if err != nil {
		return false, fmt.Errorf("upsert channel %s: %w", ch.Identifier, err)
	}
	ch.Verified = true
	return inserted, nil
}

// ValidateForUpsert checks the invariants every stored row must satisfy.
func ValidateForUpsert(ch *model.Channel) error {
	switch {
	case ch == nil:
		return fmt.Errorf("%w: nil record", ErrInvalidChannel)
	case !ch.Verified:
		return fmt.Errorf("%w: %q has not passed verification", ErrInvalidChannel, ch.Identifier)
	case ch.Identifier == "" || ch.Identifier != model.NormalizeIdentifier(ch.Identifier):
		return fmt.Errorf("%w: identifier %q is not normalized", ErrInvalidChannel, ch.Identifier)
	case !ch.Category.Valid():
		return fmt.Errorf("%w: unknown category %q", ErrInvalidChannel, ch.Category)
	case ch.Population < 0:
		return fmt.Errorf("%w: negative population %d", ErrInvalidChannel, ch.Population)
	}
	for _, tag := range model.SourceTags {
		if ch.SourceTag == tag {
			return nil
		}
	}
	return fmt.Errorf("%w: unknown source tag %q", ErrInvalidChannel, ch.SourceTag)
}

// ListByCategory returns channels of a category ordered by population
// descending; ties keep insertion order. A limit <= 0 returns every row.
func (r *ChannelRepo) ListByCategory(ctx context.Context, category model.Category, limit int) ([]model.Channel, error) {
	query := `
		SELECT ` + channelColumns + `
		FROM channels
		WHERE category = $1
		ORDER BY population DESC, id ASC`
	args := []any{string(category)}
	if limit > 0 {
		query += `
		LIMIT $2`
		args = append(args, limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var channels []model.Channel
	for rows.Next() {
		ch, err := scanChannel(rows)
		if err != nil {
			return nil, err
		}
		channels = append(channels, *ch)
	}
	return channels, rows.Err()
}

// All returns every stored channel grouped by category in classification
// order, then by population descending.
func (r *ChannelRepo) All(ctx context.Context) ([]model.Channel, error) {
	query := `
		SELECT ` + channelColumns + `
		FROM channels
		ORDER BY array_position($1::text[], category), population DESC, id ASC`

	order := make([]string, len(model.Categories))
	for i, c := range model.Categories {
		order[i] = string(c)
	}
	rows, err := r.pool.Query(ctx, query, order)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	channels := []model.Channel{}
	for rows.Next() {
		ch, err := scanChannel(rows)
		if err != nil {
			return nil, err
		}
		channels = append(channels, *ch)
	}
	return channels, rows.Err()
}

// Count returns the number of stored channels.
func (r *ChannelRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM channels`).Scan(&n)
	return n, err
}

// GetByID returns a single channel by its numeric id.
func (r *ChannelRepo) GetByID(ctx context.Context, id int64) (*model.Channel, error) {
	query := `SELECT ` + channelColumns + ` FROM channels WHERE id = $1`
	ch, err := scanChannel(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", ErrChannelNotFound, id)
	}
	return ch, err
}

// GetByIdentifier returns a single channel by its normalized username.
func (r *ChannelRepo) GetByIdentifier(ctx context.Context, identifier string) (*model.Channel, error) {
	identifier = model.NormalizeIdentifier(identifier)
	query := `SELECT ` + channelColumns + ` FROM channels WHERE identifier = $1`
	ch, err := scanChannel(r.pool.QueryRow(ctx, query, identifier))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: @%s", ErrChannelNotFound, identifier)
	}
	return ch, err
}

// Stats returns aggregate statistics over all channels. The three queries
// run in one repeatable-read snapshot so the totals agree with each other.
func (r *ChannelRepo) Stats(ctx context.Context) (*model.StatsResponse, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	stats := NewEmptyStats()

	err = tx.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(population), 0)::BIGINT,
			COALESCE(SUM(population) FILTER (WHERE population_estimated), 0)::BIGINT
		FROM channels`,
	).Scan(&stats.TotalChannels, &stats.TotalMembers, &stats.EstimatedMembers)
	if err != nil {
		return nil, err
	}

	if err := countInto(ctx, tx, `SELECT category, COUNT(*) FROM channels GROUP BY category`, func(key string, n int) {
		stats.Categories[model.Category(key)] = n
	}); err != nil {
		return nil, err
	}

	if err := countInto(ctx, tx, `SELECT source_tag, COUNT(*) FROM channels GROUP BY source_tag`, func(key string, n int) {
		stats.Sources[model.SourceTag(key)] = n
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	stats.GeneratedAt = time.Now().UTC()
	return stats, nil
}

// NewEmptyStats returns a zeroed StatsResponse with every category and
// source key present.
func NewEmptyStats() *model.StatsResponse {
	stats := &model.StatsResponse{
		Categories: make(map[model.Category]int, len(model.Categories)),
		Sources:    make(map[model.SourceTag]int, len(model.SourceTags)),
	}
	for _, c := range model.Categories {
		stats.Categories[c] = 0
	}
	for _, s := range model.SourceTags {
		stats.Sources[s] = 0
	}
	return stats
}

func countInto(ctx context.Context, tx pgx.Tx, query string, set func(key string, n int)) error {
	rows, err := tx.Query(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return err
		}
		set(key, n)
	}
	return rows.Err()
}

func scanChannel(row pgx.Row) (*model.Channel, error) {
	var ch model.Channel
	var category, source string
	err := row.Scan(
		&ch.ID, &ch.Identifier, &ch.DisplayName, &category, &ch.Population, &ch.PopulationEstimated,
		&source, &ch.Verified, &ch.AddedAt, &ch.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	ch.Category = model.Category(category)
	ch.SourceTag = model.SourceTag(source)
	return &ch, nil
}
