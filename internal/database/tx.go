package database

import (
	"context"
	"errors"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"fnh-backend/internal/apperrors"
	"fnh-backend/internal/metrics"
)

// Querier is the subset of pgx shared by *pgxpool.Pool and pgx.Tx.
// Repository write methods take a Querier so the billing engine can run
// them inside one transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DB is what the services need from the database: direct queries for
// reads and serializable transactions for writes. *Pool implements it;
// service tests substitute an in-memory version.
type DB interface {
	Querier
	InTx(ctx context.Context, fn func(tx Querier) error) error
}

// Pool adapts a pgxpool.Pool to the DB interface.
type Pool struct {
	*pgxpool.Pool
}

func NewPool(pool *pgxpool.Pool) *Pool {
	return &Pool{Pool: pool}
}

func (p *Pool) InTx(ctx context.Context, fn func(tx Querier) error) error {
	return WithSerializableTx(ctx, p.Pool, func(tx pgx.Tx) error { return fn(tx) })
}

// maxTxRetries bounds transparent retries on serialization failures.
const maxTxRetries = 3

// WithSerializableTx runs fn inside a serializable transaction. Either
// every write commits or none does. Serialization failures (SQLSTATE
// 40001) and deadlocks (40P01) are retried from scratch up to
// maxTxRetries before surfacing as apperrors.ErrConflict.
func WithSerializableTx(ctx context.Context, pool *pgxpool.Pool, fn func(tx pgx.Tx) error) error {
	var lastErr error

	for attempt := 0; attempt < maxTxRetries; attempt++ {
		tx, err := pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
		if err != nil {
			return err
		}

		err = fn(tx)
		if err == nil {
			err = tx.Commit(ctx)
		}
		if err == nil {
			return nil
		}

		_ = tx.Rollback(ctx)

		if !isRetryable(err) {
			return err
		}

		lastErr = err
		metrics.TxConflictRetriesTotal.Inc()
		log.Printf("[DB] Serialization conflict, retrying transaction (attempt %d/%d)", attempt+1, maxTxRetries)
	}

	return errors.Join(apperrors.ErrConflict, lastErr)
}

func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}
