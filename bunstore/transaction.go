package bunstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/edukit/registrar"
)

// Transaction runs fn inside one database transaction. MaxWait bounds
// how long BEGIN may take and Timeout bounds the body.
func (s *Store) Transaction(ctx context.Context, fn func(ctx context.Context, tx *Store) error, opts ...registrar.TxOption) error {
	txo := registrar.NewTxOptions(opts...)

	beginCtx := ctx
	if txo.MaxWait > 0 {
		var cancel context.CancelFunc
		beginCtx, cancel = context.WithTimeout(ctx, txo.MaxWait)
		defer cancel()
	}

	tx, err := s.root.BeginTx(beginCtx, &sql.TxOptions{
		Isolation: txo.Isolation.SQL(),
		ReadOnly:  txo.ReadOnly,
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return registrar.NewErrorWithCause(registrar.KindTimeout,
				fmt.Sprintf("could not begin transaction within %s", txo.MaxWait), err)
		}
		return registrar.NewErrorWithCause(registrar.KindTransaction,
			"failed to begin transaction", err)
	}

	bodyCtx := ctx
	if txo.Timeout > 0 {
		var cancel context.CancelFunc
		bodyCtx, cancel = context.WithTimeout(ctx, txo.Timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(bodyCtx, s.withTx(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return registrar.NewErrorWithCause(registrar.KindTransaction,
				fmt.Sprintf("rollback failed after: %v", err), rbErr)
		}
		if errors.Is(err, context.DeadlineExceeded) && bodyCtx.Err() != nil {
			return registrar.NewErrorWithCause(registrar.KindTimeout,
				fmt.Sprintf("transaction exceeded %s", txo.Timeout), err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return translate(err)
	}
	return nil
}
