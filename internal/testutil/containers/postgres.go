//go:build integration

// Package containers starts throwaway Postgres and Redis instances for
// integration tests.
package containers

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/mathieu-neron/channelfinder/internal/db"
)

// PostgresContainer wraps a testcontainers Postgres instance with a migrated schema.
type PostgresContainer struct {
	Container *tcpostgres.PostgresContainer
	URL       string
	Pool      *pgxpool.Pool
}

// NewPostgresContainer starts Postgres, connects a pool and applies the schema.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("channelfinder"),
		tcpostgres.WithUsername("channelfinder"),
		tcpostgres.WithPassword("password"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	url, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get postgres connection string: %v", err)
	}

	pool, err := db.NewPool(ctx, url, zerolog.Nop())
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to connect to postgres: %v", err)
	}

	if err := db.Migrate(ctx, pool); err != nil {
		pool.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to migrate: %v", err)
	}

	pc := &PostgresContainer{Container: container, URL: url, Pool: pool}
	t.Cleanup(func() {
		pool.Close()
		_ = container.Terminate(context.Background())
	})
	return pc
}

// Truncate empties the channels table and resets its id sequence.
func (p *PostgresContainer) Truncate(ctx context.Context) error {
	_, err := p.Pool.Exec(ctx, `TRUNCATE channels RESTART IDENTITY`)
	return err
}
