package registrar

import "context"

// =====================================
// Fluent Query Builder
// =====================================

// QueryBuilder provides a fluent alternative to passing QueryOption
// values directly. Build once, execute against any Repository[T].
type QueryBuilder[T any] struct {
	opts []QueryOption
}

// NewQueryBuilder creates a new query builder for entity type T
func NewQueryBuilder[T any]() *QueryBuilder[T] {
	return &QueryBuilder[T]{}
}

// Where adds a WHERE condition
func (qb *QueryBuilder[T]) Where(field string, operator Operator, value interface{}) *QueryBuilder[T] {
	qb.opts = append(qb.opts, Where(field, operator, value))
	return qb
}

// WhereNull adds a WHERE IS NULL condition
func (qb *QueryBuilder[T]) WhereNull(field string) *QueryBuilder[T] {
	qb.opts = append(qb.opts, WhereNull(field))
	return qb
}

// OrderBy adds an ORDER BY clause
func (qb *QueryBuilder[T]) OrderBy(field string, direction OrderDirection) *QueryBuilder[T] {
	qb.opts = append(qb.opts, OrderBy(field, direction))
	return qb
}

// Limit caps the number of results
func (qb *QueryBuilder[T]) Limit(count int) *QueryBuilder[T] {
	qb.opts = append(qb.opts, Limit(count))
	return qb
}

// Offset skips the first count results
func (qb *QueryBuilder[T]) Offset(count int) *QueryBuilder[T] {
	qb.opts = append(qb.opts, Offset(count))
	return qb
}

// Select projects specific fields
func (qb *QueryBuilder[T]) Select(fields ...string) *QueryBuilder[T] {
	qb.opts = append(qb.opts, Select(fields...))
	return qb
}

// Preload eagerly loads a relation, optionally scoped
func (qb *QueryBuilder[T]) Preload(relation string, scope ...QueryOption) *QueryBuilder[T] {
	qb.opts = append(qb.opts, Preload(relation, scope...))
	return qb
}

// After positions the result set at a cursor value
func (qb *QueryBuilder[T]) After(field string, value interface{}) *QueryBuilder[T] {
	qb.opts = append(qb.opts, After(field, value))
	return qb
}

// Distinct deduplicates the result set
func (qb *QueryBuilder[T]) Distinct() *QueryBuilder[T] {
	qb.opts = append(qb.opts, Distinct())
	return qb
}

// Unscoped includes soft-deleted rows
func (qb *QueryBuilder[T]) Unscoped() *QueryBuilder[T] {
	qb.opts = append(qb.opts, Unscoped())
	return qb
}

// Options returns the accumulated query options
func (qb *QueryBuilder[T]) Options() []QueryOption {
	return qb.opts
}

// Find executes the query and returns all matches
func (qb *QueryBuilder[T]) Find(ctx context.Context, repo Repository[T]) ([]*T, error) {
	return repo.FindAll(ctx, qb.opts...)
}

// First executes the query and returns the first match,
// KindNotFound when nothing matches
func (qb *QueryBuilder[T]) First(ctx context.Context, repo Repository[T]) (*T, error) {
	return repo.FindOne(ctx, qb.opts...)
}

// Count executes the query and returns the number of matches
func (qb *QueryBuilder[T]) Count(ctx context.Context, repo Repository[T]) (int64, error) {
	return repo.Count(ctx, qb.opts...)
}
