package registrar

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessage(t *testing.T) {
	err := NewError(KindNotFound, "user not found")
	assert.Equal(t, "not_found: user not found", err.Error())

	wrapped := NewErrorWithCause(KindDuplicate, "email taken", errors.New("UNIQUE constraint failed"))
	assert.Contains(t, wrapped.Error(), "duplicate: email taken")
	assert.Contains(t, wrapped.Error(), "UNIQUE constraint failed")
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("driver says no")
	err := NewErrorWithCause(KindConnection, "connect failed", cause)

	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, cause, err.Unwrap())
}

func TestErrorIsMatchesByKind(t *testing.T) {
	a := NewError(KindNotFound, "one")
	b := NewError(KindNotFound, "two")
	c := NewError(KindDuplicate, "three")

	assert.True(t, errors.Is(a, b))
	assert.False(t, errors.Is(a, c))
}

func TestKindHelpers(t *testing.T) {
	tests := []struct {
		kind  Kind
		check func(error) bool
	}{
		{KindNotFound, IsNotFound},
		{KindDuplicate, IsDuplicate},
		{KindForeignKey, IsForeignKey},
		{KindValidation, IsValidation},
		{KindConnection, IsConnection},
		{KindTimeout, IsTimeout},
		{KindTransaction, IsTransaction},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			err := NewError(tt.kind, "boom")
			assert.True(t, tt.check(err))
			assert.False(t, tt.check(NewError(KindInternal, "other")))
			assert.False(t, tt.check(errors.New("plain")))
		})
	}
}

func TestKindHelpersSeeThroughWrapping(t *testing.T) {
	err := fmt.Errorf("loading profile: %w", NewError(KindNotFound, "user not found"))
	assert.True(t, IsNotFound(err))
	assert.False(t, IsDuplicate(err))
}

func TestErrorCode(t *testing.T) {
	err := NewErrorWithCode(KindDuplicate, "unique constraint violated", "23505")
	assert.Equal(t, "23505", err.Code)
	assert.True(t, IsDuplicate(err))
}
