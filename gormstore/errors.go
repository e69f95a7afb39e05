package gormstore

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/edukit/registrar"
)

// translate maps a gorm error onto the registrar taxonomy. Errors that
// are already classified pass through untouched.
func translate(err error) error {
	if err == nil {
		return nil
	}

	var regErr registrar.Error
	if errors.As(err, &regErr) {
		return err
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return registrar.NewErrorWithCause(registrar.KindNotFound, "record not found", err)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return registrar.NewErrorWithCause(registrar.KindDuplicate, "unique constraint violated", err)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return registrar.NewErrorWithCause(registrar.KindForeignKey, "foreign key constraint violated", err)
	case errors.Is(err, gorm.ErrInvalidTransaction):
		return registrar.NewErrorWithCause(registrar.KindTransaction, "invalid transaction", err)
	case errors.Is(err, gorm.ErrMissingWhereClause):
		return registrar.NewErrorWithCause(registrar.KindValidation, "missing where clause", err)
	case errors.Is(err, gorm.ErrInvalidField), errors.Is(err, gorm.ErrInvalidData):
		return registrar.NewErrorWithCause(registrar.KindValidation, "invalid field or data", err)
	case errors.Is(err, context.DeadlineExceeded):
		return registrar.NewErrorWithCause(registrar.KindTimeout, "operation timed out", err)
	case errors.Is(err, context.Canceled):
		return registrar.NewErrorWithCause(registrar.KindTimeout, "operation canceled", err)
	}

	// Drivers that gorm's TranslateError does not cover (notably the
	// sqlite driver on older constraint shapes) surface raw messages.
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
