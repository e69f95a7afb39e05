package registrar

import (
	"database/sql"
	"time"
)

// =====================================
// Transactions
// =====================================

// Isolation selects the transaction isolation level. IsolationDefault
// defers to the database; the others map onto the standard levels where
// the backend supports them.
type Isolation string

const (
	IsolationDefault         Isolation = ""
	IsolationReadUncommitted Isolation = "read_uncommitted"
	IsolationReadCommitted   Isolation = "read_committed"
	IsolationRepeatableRead  Isolation = "repeatable_read"
	IsolationSerializable    Isolation = "serializable"
)

// SQL maps the isolation level onto database/sql.
func (i Isolation) SQL() sql.IsolationLevel {
	switch i {
	case IsolationReadUncommitted:
		return sql.LevelReadUncommitted
	case IsolationReadCommitted:
		return sql.LevelReadCommitted
	case IsolationRepeatableRead:
		return sql.LevelRepeatableRead
	case IsolationSerializable:
		return sql.LevelSerializable
	default:
		return sql.LevelDefault
	}
}

// TxOptions configures one transactional batch. MaxWait bounds how long
// BEGIN may take (acquiring a connection/slot); Timeout bounds the body.
// Zero means unbounded.
type TxOptions struct {
	Isolation Isolation
	MaxWait   time.Duration
	Timeout   time.Duration
	ReadOnly  bool
}

// TxOption mutates TxOptions
type TxOption func(*TxOptions)

// NewTxOptions applies opts over the defaults
func NewTxOptions(opts ...TxOption) TxOptions {
	var txo TxOptions
	for _, opt := range opts {
		opt(&txo)
	}
	return txo
}

// WithIsolation sets the isolation level
func WithIsolation(level Isolation) TxOption {
	return func(o *TxOptions) { o.Isolation = level }
}

// WithMaxWait bounds transaction acquisition
func WithMaxWait(d time.Duration) TxOption {
	return func(o *TxOptions) { o.MaxWait = d }
}

// WithTimeout bounds the transaction body
func WithTimeout(d time.Duration) TxOption {
	return func(o *TxOptions) { o.Timeout = d }
}

// ReadOnly marks the transaction read-only
func ReadOnly() TxOption {
	return func(o *TxOptions) { o.ReadOnly = true }
}
