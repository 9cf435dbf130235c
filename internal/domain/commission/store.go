package commission

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"commissions/internal/platform/querier"
)

var (
	_ StoreAPI        = (*Store)(nil)
	_ Tx              = (*Store)(nil)
	_ DirectoryWriter = (*Store)(nil)
	_ StoreAPI        = (*MemoryStore)(nil)
	_ DirectoryWriter = (*MemoryStore)(nil)
	_ Tx              = (*memoryView)(nil)
)

// Store is the Postgres implementation. DB is the pool, or a pgx.Tx while
// running inside WithinTx.
type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

func (s *Store) Ping(ctx context.Context) error {
	var one int
	return s.DB.QueryRow(ctx, "SELECT 1").Scan(&one)
}

func (s *Store) WithinTx(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&Store{DB: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func notFound(err, sentinel error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return sentinel
	}
	return err
}
