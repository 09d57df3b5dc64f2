package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the subset of pgx used by repositories. Both *pgxpool.Pool and
// pgx.Tx satisfy it, so the same repository method runs standalone or inside
// a transaction depending on what the caller passes.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TxRunner runs a function inside one database transaction. Services depend
// on this rather than on *DB so tests can substitute a fake runner.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, q Querier) error) error
}

// WithTx begins a transaction, runs fn, and commits. Any error from fn rolls
// the whole transaction back, so an entity mutation can never commit without
// its revision and activity log entry.
func (db *DB) WithTx(ctx context.Context, fn func(ctx context.Context, q Querier) error) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(ctx, tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
