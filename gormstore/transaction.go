package gormstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/edukit/registrar"
)

// Transaction runs fn inside one database transaction. Every repository
// created from the store fn receives operates on that transaction. An
// error from fn rolls everything back; MaxWait bounds how long BEGIN may
// take and Timeout bounds the body.
func (s *Store) Transaction(ctx context.Context, fn func(ctx context.Context, tx *Store) error, opts ...registrar.TxOption) error {
	txo := registrar.NewTxOptions(opts...)

	beginCtx := ctx
	if txo.MaxWait > 0 {
		var cancel context.CancelFunc
		beginCtx, cancel = context.WithTimeout(ctx, txo.MaxWait)
		defer cancel()
	}

	tx := s.db.WithContext(beginCtx).Begin(&sql.TxOptions{
		Isolation: txo.Isolation.SQL(),
		ReadOnly:  txo.ReadOnly,
	})
	if tx.Error != nil {
		if errors.Is(tx.Error, context.DeadlineExceeded) {
			return registrar.NewErrorWithCause(registrar.KindTimeout,
				fmt.Sprintf("could not begin transaction within %s", txo.MaxWait), tx.Error)
		}
		return registrar.NewErrorWithCause(registrar.KindTransaction,
			"failed to begin transaction", tx.Error)
	}

	bodyCtx := ctx
	if txo.Timeout > 0 {
		var cancel context.CancelFunc
		bodyCtx, cancel = context.WithTimeout(ctx, txo.Timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(bodyCtx, s.withDB(tx.WithContext(bodyCtx))); err != nil {
		if rbErr := tx.Rollback().Error; rbErr != nil && !errors.Is(rbErr, gorm.ErrInvalidTransaction) {
			return registrar.NewErrorWithCause(registrar.KindTransaction,
				fmt.Sprintf("rollback failed after: %v", err), rbErr)
		}
		if bodyCtx.Err() != nil && errors.Is(err, context.DeadlineExceeded) {
			return registrar.NewErrorWithCause(registrar.KindTimeout,
				fmt.Sprintf("transaction exceeded %s", txo.Timeout), err)
		}
		return err
	}

	if err := tx.Commit().Error; err != nil {
		return translate(err)
	}
	return nil
}
