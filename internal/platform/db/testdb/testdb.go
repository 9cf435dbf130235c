//go:build integration

package testdb

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"commissions/internal/platform/db"
)

type Handle struct {
	Pool *pgxpool.Pool
	stop func(context.Context) error
}

func (h *Handle) Close() {
	if h.Pool != nil {
		h.Pool.Close()
	}
	if h.stop != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = h.stop(ctx)
	}
}

// Start runs a throwaway Postgres container with every migration applied.
func Start(ctx context.Context) (*Handle, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	pg, err := postgres.RunContainer(ctx,
		tc.WithImage("postgres:16-alpine"),
		postgres.WithDatabase("commissions"),
		postgres.WithUsername("commissions"),
		postgres.WithPassword("commissions"),
		tc.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		),
	)
	if err != nil {
		return nil, err
	}

	uri, err := pg.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = pg.Terminate(context.Background())
		return nil, err
	}
	pool, err := db.Connect(ctx, uri)
	if err != nil {
		_ = pg.Terminate(context.Background())
		return nil, err
	}
	if err := db.Migrate(ctx, pool); err != nil {
		pool.Close()
		_ = pg.Terminate(context.Background())
		return nil, err
	}
	return &Handle{Pool: pool, stop: pg.Terminate}, nil
}
