package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type contextKey string

// DBTxKey is the context key under which an open transaction travels.
// Repositories check it before falling back to the shared pool, so every
// query issued during a unit of work joins the same transaction.
const DBTxKey contextKey = "db_tx"

// TxFromContext retrieves the transaction from context, or nil when the
// caller is not inside a unit of work.
func TxFromContext(ctx context.Context) pgx.Tx {
	tx, _ := ctx.Value(DBTxKey).(pgx.Tx)
	return tx
}

// ContextWithTx returns a child context carrying the transaction.
func ContextWithTx(ctx context.Context, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, DBTxKey, tx)
}

// RunInTx executes fn inside a single transaction. The transaction is stored
// in the context passed to fn; either every write fn performs commits, or the
// whole transaction rolls back. A nested call joins the outer transaction
// instead of opening a second one.
func RunInTx(ctx context.Context, pool *pgxpool.Pool, fn func(ctx context.Context) error) error {
	if TxFromContext(ctx) != nil {
		return fn(ctx)
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(ContextWithTx(ctx, tx)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// WithTx begins a transaction on the pool stored in ctx by PoolMiddleware-like
// wiring. It exists for callers that need manual commit control; most code
// should use RunInTx.
func WithTx(ctx context.Context, pool *pgxpool.Pool) (pgx.Tx, context.Context, error) {
	if pool == nil {
		return nil, ctx, errors.New("no database pool available")
	}
	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, ctx, err
	}
	return tx, ContextWithTx(ctx, tx), nil
}

// IsSerializationFailure reports whether err is a transient transaction
// conflict (serialization failure, deadlock, or lock timeout) that the client
// may retry.
func IsSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case "40001", "40P01", "55P03":
		return true
	}
	return false
}
