package registrar

import (
	"errors"
	"fmt"
)

// =====================================
// Error Handling
// =====================================

// Kind classifies the errors a store can surface.
type Kind string

const (
	KindNotFound    Kind = "not_found"
	KindDuplicate   Kind = "duplicate"
	KindForeignKey  Kind = "foreign_key"
	KindValidation  Kind = "validation"
	KindConnection  Kind = "connection"
	KindTimeout     Kind = "timeout"
	KindTransaction Kind = "transaction"
	KindUnsupported Kind = "unsupported"
	KindInternal    Kind = "internal"
)

// Error is the error type returned by every repository operation.
// Kind carries the taxonomy, Code the backend-specific code (SQLSTATE etc.)
// when one is available, and Cause the underlying driver error.
type Error struct {
	Kind    Kind
	Message string
	Code    string
	Cause   error
}

// Error implements the error interface
func (e Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error
func (e Error) Unwrap() error {
	return e.Cause
}

// Is matches two Errors by Kind, so errors.Is works across instances.
func (e Error) Is(target error) bool {
	if t, ok := target.(Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

// NewError creates a new Error
func NewError(kind Kind, message string) Error {
	return Error{Kind: kind, Message: message}
}

// NewErrorWithCause creates a new Error wrapping a driver error
func NewErrorWithCause(kind Kind, message string, cause error) Error {
	return Error{Kind: kind, Message: message, Cause: cause}
}

// NewErrorWithCode creates a new Error carrying a backend error code
func NewErrorWithCode(kind Kind, message string, code string) Error {
	return Error{Kind: kind, Message: message, Code: code}
}

// IsNotFound reports whether err is a "not found" error
func IsNotFound(err error) bool {
	return IsKind(err, KindNotFound)
}

// IsDuplicate reports whether err is a unique-constraint violation
func IsDuplicate(err error) bool {
	return IsKind(err, KindDuplicate)
}

// IsForeignKey reports whether err is a referential-integrity violation
func IsForeignKey(err error) bool {
	return IsKind(err, KindForeignKey)
}

// IsValidation reports whether err is a validation error
func IsValidation(err error) bool {
	return IsKind(err, KindValidation)
}

// IsConnection reports whether err is a connection error
func IsConnection(err error) bool {
	return IsKind(err, KindConnection)
}

// IsTimeout reports whether err is a timeout error
func IsTimeout(err error) bool {
	return IsKind(err, KindTimeout)
}

// IsTransaction reports whether err is a transaction error
func IsTransaction(err error) bool {
	return IsKind(err, KindTransaction)
}

// IsKind reports whether err (or any error it wraps) is of the given kind
func IsKind(err error, kind Kind) bool {
	var e Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
