// Package registrar provides the data-access layer for a school-management
// system: one repository per entity, a uniform operation set over a
// relational store, and adapter packages implementing it (gormstore,
// bunstore).
package registrar

import "context"

// =====================================
// Core Repository Interface
// =====================================

// Repository is the uniform operation set every entity repository offers.
// Adapters provide the concrete implementation; the school package wraps
// one instance per entity with typed lookup helpers.
type Repository[T any] interface {
	// ===============================
	// Basic CRUD Operations
	// ===============================

	// Create inserts one entity. A collision with any unique index
	// returns a KindDuplicate error.
	Create(ctx context.Context, entity *T) error

	// CreateMany bulk-inserts entities and returns the number of rows
	// actually written. With SkipDuplicates, rows colliding with a
	// unique index are silently skipped instead of failing the batch.
	CreateMany(ctx context.Context, entities []*T, opts ...CreateOption) (int64, error)

	// FindByID retrieves a single entity by primary key.
	// Returns KindNotFound if no row matches.
	FindByID(ctx context.Context, id interface{}) (*T, error)

	// FindOne retrieves the first entity matching the options.
	// Returns KindNotFound if no row matches.
	FindOne(ctx context.Context, opts ...QueryOption) (*T, error)

	// FindAll retrieves every entity matching the options. Supports
	// filtering, ordering, cursor/offset pagination, projection,
	// relation loading and distinct.
	FindAll(ctx context.Context, opts ...QueryOption) ([]*T, error)

	// Update persists the full entity. The entity must carry its
	// primary key; KindNotFound if the row no longer exists.
	Update(ctx context.Context, entity *T) error

	// UpdateFields applies a partial update to the row with the given
	// primary key. KindNotFound if the row does not exist.
	UpdateFields(ctx context.Context, id interface{}, updates map[string]interface{}) error

	// UpdateMany applies a partial update to every row matching the
	// options and reports the affected count. Zero matches is not an
	// error.
	UpdateMany(ctx context.Context, updates map[string]interface{}, opts ...QueryOption) (int64, error)

	// Upsert inserts the entity, or updates updateColumns of the
	// existing row when the insert collides on conflictColumns. An
	// empty updateColumns updates every non-key column.
	Upsert(ctx context.Context, entity *T, conflictColumns []string, updateColumns []string) error

	// Delete removes the row with the given primary key. KindNotFound
	// if absent; KindForeignKey if another table still references it.
	Delete(ctx context.Context, id interface{}) error

	// DeleteMany removes every row matching the options and reports the
	// affected count.
	DeleteMany(ctx context.Context, opts ...QueryOption) (int64, error)

	// ===============================
	// Query Operations
	// ===============================

	// Count returns the number of rows matching the options.
	Count(ctx context.Context, opts ...QueryOption) (int64, error)

	// Exists reports whether at least one row matches the options.
	Exists(ctx context.Context, opts ...QueryOption) (bool, error)

	// Aggregate computes the requested aggregations over the matching
	// rows and returns them as a single row keyed by alias.
	Aggregate(ctx context.Context, aggs []Aggregation, opts ...QueryOption) (Row, error)

	// GroupBy groups the matching rows by the given columns, computes
	// the aggregations per group, and applies any Having options.
	GroupBy(ctx context.Context, by []string, aggs []Aggregation, opts ...QueryOption) ([]Row, error)

	// ===============================
	// Raw Escape Hatch
	// ===============================

	// RawQuery executes backend-native SQL and scans rows into entities.
	RawQuery(ctx context.Context, query string, args []interface{}) ([]*T, error)

	// RawExec executes backend-native SQL that returns no rows.
	RawExec(ctx context.Context, query string, args []interface{}) (Result, error)
}

// Result reports the outcome of a write that returns no rows
type Result interface {
	LastInsertId() (int64, error)
	RowsAffected() (int64, error)
}

// Row is one result row of an aggregate or group-by query
type Row map[string]interface{}

// =====================================
// Aggregations
// =====================================

// AggregateFunc names an aggregate function
type AggregateFunc string

const (
	AggCount AggregateFunc = "COUNT"
	AggSum   AggregateFunc = "SUM"
	AggAvg   AggregateFunc = "AVG"
	AggMin   AggregateFunc = "MIN"
	AggMax   AggregateFunc = "MAX"
)

// Aggregation requests one aggregate over one column. Field "*" is only
// meaningful with AggCount. The Alias keys the value in the result Row;
// when empty it defaults to func_field, e.g. "avg_score".
type Aggregation struct {
	Func  AggregateFunc
	Field string
	Alias string
}

// Key returns the alias the aggregation's value is stored under.
func (a Aggregation) Key() string {
	if a.Alias != "" {
		return a.Alias
	}
	field := a.Field
	if field == "*" {
		field = "all"
	}
	switch a.Func {
	case AggCount:
		return "count_" + field
	case AggSum:
		return "sum_" + field
	case AggAvg:
		return "avg_" + field
	case AggMin:
		return "min_" + field
	case AggMax:
		return "max_" + field
	default:
		return field
	}
}

// Count requests COUNT(*)
func Count() Aggregation { return Aggregation{Func: AggCount, Field: "*", Alias: "count"} }

// Sum requests SUM(field)
func Sum(field string) Aggregation { return Aggregation{Func: AggSum, Field: field} }

// Avg requests AVG(field)
func Avg(field string) Aggregation { return Aggregation{Func: AggAvg, Field: field} }

// Min requests MIN(field)
func Min(field string) Aggregation { return Aggregation{Func: AggMin, Field: field} }

// Max requests MAX(field)
func Max(field string) Aggregation { return Aggregation{Func: AggMax, Field: field} }

// =====================================
// Create Options
// =====================================

// CreateOptions controls bulk inserts
type CreateOptions struct {
	SkipDuplicates bool
	BatchSize      int
}

// CreateOption mutates CreateOptions
type CreateOption func(*CreateOptions)

// NewCreateOptions applies opts over the defaults
func NewCreateOptions(opts ...CreateOption) CreateOptions {
	co := CreateOptions{BatchSize: 100}
	for _, opt := range opts {
		opt(&co)
	}
	return co
}

// SkipDuplicates makes CreateMany skip rows that would violate a unique
// constraint instead of failing the whole batch.
func SkipDuplicates() CreateOption {
	return func(co *CreateOptions) { co.SkipDuplicates = true }
}

// BatchSize sets how many rows are written per INSERT statement
func BatchSize(n int) CreateOption {
	return func(co *CreateOptions) { co.BatchSize = n }
}
