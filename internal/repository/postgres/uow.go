package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/theovalguide/review-service/internal/repository"
	"github.com/theovalguide/review-service/pkg/database"
)

// UnitOfWork runs a function against transaction-scoped repositories. All
// writes inside fn commit together or not at all.
type UnitOfWork struct {
	pool database.TxBeginner
}

// NewUnitOfWork creates a PostgreSQL-backed unit of work.
func NewUnitOfWork(pool database.TxBeginner) *UnitOfWork {
	return &UnitOfWork{pool: pool}
}

// Do begins a READ COMMITTED transaction, hands fn repositories bound to it,
// and commits iff fn returns nil. The deferred rollback is a no-op after a
// successful commit.
func (u *UnitOfWork) Do(ctx context.Context, fn func(repository.Repositories) error) error {
	tx, err := u.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	repos := repository.Repositories{
		Professors: NewProfessorRepository(tx),
		Classes:    NewClassRepository(tx),
		Reviews:    NewReviewRepository(tx),
	}

	if err := fn(repos); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}
