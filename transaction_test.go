package registrar

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsolationSQLMapping(t *testing.T) {
	assert.Equal(t, sql.LevelDefault, IsolationDefault.SQL())
	assert.Equal(t, sql.LevelReadUncommitted, IsolationReadUncommitted.SQL())
	assert.Equal(t, sql.LevelReadCommitted, IsolationReadCommitted.SQL())
	assert.Equal(t, sql.LevelRepeatableRead, IsolationRepeatableRead.SQL())
	assert.Equal(t, sql.LevelSerializable, IsolationSerializable.SQL())
	assert.Equal(t, sql.LevelDefault, Isolation("made_up").SQL())
}

func TestNewTxOptions(t *testing.T) {
	txo := NewTxOptions()
	assert.Equal(t, IsolationDefault, txo.Isolation)
	assert.Zero(t, txo.MaxWait)
	assert.Zero(t, txo.Timeout)
	assert.False(t, txo.ReadOnly)

	txo = NewTxOptions(
		WithIsolation(IsolationSerializable),
		WithMaxWait(2*time.Second),
		WithTimeout(5*time.Second),
		ReadOnly(),
	)
	assert.Equal(t, IsolationSerializable, txo.Isolation)
	assert.Equal(t, 2*time.Second, txo.MaxWait)
	assert.Equal(t, 5*time.Second, txo.Timeout)
	assert.True(t, txo.ReadOnly)
}
