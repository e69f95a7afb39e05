package bunstore

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/edukit/registrar"
)

// SQLSTATE classes for integrity violations
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgNotNullViolation    = "23502"
	pgCheckViolation      = "23514"
)

// translate maps a driver error onto the registrar taxonomy. Errors
// that are already classified pass through untouched.
func translate(err error) error {
	if err == nil {
		return nil
	}

	var regErr registrar.Error
	if errors.As(err, &regErr) {
		return err
	}

	if errors.Is(err, sql.ErrNoRows) {
		return registrar.NewErrorWithCause(registrar.KindNotFound, "record not found", err)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return registrar.NewErrorWithCause(registrar.KindTimeout, "operation timed out", err)
	}
	if errors.Is(err, sql.ErrTxDone) {
		return registrar.NewErrorWithCause(registrar.KindTransaction, "transaction already closed", err)
	}

	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		code := pgErr.Field('C')
		switch code {
		case pgUniqueViolation:
			return registrar.Error{Kind: registrar.KindDuplicate, Message: "unique constraint violated", Code: code, Cause: err}
		case pgForeignKeyViolation:
			return registrar.Error{Kind: registrar.KindForeignKey, Message: "foreign key constraint violated", Code: code, Cause: err}
		case pgNotNullViolation, pgCheckViolation:
			return registrar.Error{Kind: registrar.KindValidation, Message: "constraint violated", Code: code, Cause: err}
		}
		return registrar.Error{Kind: registrar.KindInternal, Message: "unknown database error", Code: code, Cause: err}
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return registrar.NewErrorWithCause(registrar.KindDuplicate, "unique constraint violated", err)
		case sqlite3.ErrConstraintForeignKey:
			return registrar.NewErrorWithCause(registrar.KindForeignKey, "foreign key constraint violated", err)
		}
		if sqliteErr.Code == sqlite3.ErrConstraint {
			return registrar.NewErrorWithCause(registrar.KindValidation, "constraint violated", err)
		}
		return registrar.NewErrorWithCause(registrar.KindInternal, "unknown database error", err)
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate"):
		return registrar.NewErrorWithCause(registrar.KindDuplicate, "unique constraint violated", err)
	case strings.Contains(msg, "foreign key constraint"):
		return registrar.NewErrorWithCause(registrar.KindForeignKey, "foreign key constraint violated", err)
	case strings.Contains(msg, "connection refused") || strings.Contains(msg, "connection reset"):
		return registrar.NewErrorWithCause(registrar.KindConnection, "database connection failed", err)
	}

	return registrar.NewErrorWithCause(registrar.KindInternal, "unknown database error", err)
}
