package main

import (
	"context"
	"database/sql"
	"time"

	dErrors "inkregister/pkg/domain-errors"
	"inkregister/pkg/platform/tx"
)

const defaultRetentionTxTimeout = 5 * time.Second

// retentionPostgresTx runs erasure mutations and their audit entries in one
// database transaction. The stores pick the transaction up from the context.
type retentionPostgresTx struct {
	db      *sql.DB
	timeout time.Duration
}

func newRetentionPostgresTx(db *sql.DB) *retentionPostgresTx {
	return &retentionPostgresTx{db: db}
}

func (t *retentionPostgresTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultRetentionTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	sqlTx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = sqlTx.Rollback()
	}()

	if err := fn(tx.WithTx(ctx, sqlTx)); err != nil {
		return err
	}
	return sqlTx.Commit()
}
