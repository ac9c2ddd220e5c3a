// Package tx carries a database transaction through context so stores can
// join a caller-opened transaction without changing their method signatures.
// The retention flow uses it to commit an erasure mutation and its audit
// entry as one unit.
package tx

import (
	"context"
	"database/sql"
)

type ctxKey struct{}

// Querier is the subset of database/sql shared by *sql.DB and *sql.Tx that
// the postgres stores issue statements through.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// WithTx returns a context carrying the transaction. A nil transaction
// leaves the context unchanged.
func WithTx(ctx context.Context, tx *sql.Tx) context.Context {
	if tx == nil {
		return ctx
	}
	return context.WithValue(ctx, ctxKey{}, tx)
}

// From extracts the carried transaction, if any.
func From(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(ctxKey{}).(*sql.Tx)
	return tx, ok
}

// QuerierFor resolves the statement target: the carried transaction when one
// is present, the plain connection pool otherwise.
func QuerierFor(ctx context.Context, db *sql.DB) Querier {
	if tx, ok := From(ctx); ok {
		return tx
	}
	return db
}
