package gormstore

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/edukit/registrar"
)

// Repository implements registrar.Repository for one entity type on a
// gorm-backed Store.
type Repository[T any] struct {
	store *Store
}

// NewRepository creates a repository bound to the given store
func NewRepository[T any](store *Store) *Repository[T] {
	return &Repository[T]{store: store}
}

var _ registrar.Repository[struct{}] = (*Repository[struct{}])(nil)

func (r *Repository[T]) db(ctx context.Context) *gorm.DB {
	return r.store.db.WithContext(ctx)
}

// =====================================
// Basic CRUD Operations
// =====================================

func (r *Repository[T]) Create(ctx context.Context, entity *T) error {
	return translate(r.db(ctx).Create(entity).Error)
}

func (r *Repository[T]) CreateMany(ctx context.Context, entities []*T, opts ...registrar.CreateOption) (int64, error) {
	if len(entities) == 0 {
		return 0, nil
	}

	co := registrar.NewCreateOptions(opts...)
	tx := r.db(ctx)
	if co.SkipDuplicates {
		tx = tx.Clauses(clause.OnConflict{DoNothing: true})
	}

	res := tx.CreateInBatches(entities, co.BatchSize)
	if res.Error != nil {
		return 0, translate(res.Error)
	}
	return res.RowsAffected, nil
}

func (r *Repository[T]) FindByID(ctx context.Context, id interface{}) (*T, error) {
	var entity T
	if err := r.db(ctx).First(&entity, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &entity, nil
}

func (r *Repository[T]) FindOne(ctx context.Context, opts ...registrar.QueryOption) (*T, error) {
	tx, _, err := r.query(ctx, opts)
	if err != nil {
		return nil, err
	}

	var entity T
	if err := tx.First(&entity).Error; err != nil {
		return nil, translate(err)
	}
	return &entity, nil
}

func (r *Repository[T]) FindAll(ctx context.Context, opts ...registrar.QueryOption) ([]*T, error) {
	tx, _, err := r.query(ctx, opts)
	if err != nil {
		return nil, err
	}

	var entities []*T
	if err := tx.Find(&entities).Error; err != nil {
		return nil, translate(err)
	}
	return entities, nil
}

func (r *Repository[T]) Update(ctx context.Context, entity *T) error {
	// Select("*") writes zero-valued fields too; a plain struct update
	// would silently skip them.
	res := r.db(ctx).Model(entity).Select("*").Updates(entity)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return registrar.NewError(registrar.KindNotFound, "record not found")
	}
	return nil
}

func (r *Repository[T]) UpdateFields(ctx context.Context, id interface{}, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return registrar.NewError(registrar.KindValidation, "no fields to update")
	}

	res := r.db(ctx).Model(new(T)).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return registrar.NewError(registrar.KindNotFound, "record not found")
	}
	return nil
}

func (r *Repository[T]) UpdateMany(ctx context.Context, updates map[string]interface{}, opts ...registrar.QueryOption) (int64, error) {
	if len(updates) == 0 {
		return 0, registrar.NewError(registrar.KindValidation, "no fields to update")
	}

	tx, q, err := r.query(ctx, opts)
	if err != nil {
		return 0, err
	}
	switch {
	case q.Limit != nil || q.Offset != nil:
		// SQL has no portable LIMIT on UPDATE, so scope by id subquery.
		sub := tx.Model(new(T)).Select("id")
		tx = r.db(ctx).Where("id IN (?)", sub)
		if q.Unscoped {
			tx = tx.Unscoped()
		}
	case len(q.Conditions) == 0 && q.Cursor == nil:
		tx = tx.Session(&gorm.Session{AllowGlobalUpdate: true})
	}

	res := tx.Model(new(T)).Updates(updates)
	if res.Error != nil {
		return 0, translate(res.Error)
	}
	return res.RowsAffected, nil
}

func (r *Repository[T]) Upsert(ctx context.Context, entity *T, conflictColumns []string, updateColumns []string) error {
	if len(conflictColumns) == 0 {
		return registrar.NewError(registrar.KindValidation, "upsert requires conflict columns")
	}

	columns := make([]clause.Column, 0, len(conflictColumns))
	for _, c := range conflictColumns {
		columns = append(columns, clause.Column{Name: c})
	}

	oc := clause.OnConflict{Columns: columns}
	if len(updateColumns) > 0 {
		oc.DoUpdates = clause.AssignmentColumns(updateColumns)
	} else {
		oc.UpdateAll = true
	}

	return translate(r.db(ctx).Clauses(oc).Create(entity).Error)
}

func (r *Repository[T]) Delete(ctx context.Context, id interface{}) error {
	res := r.db(ctx).Delete(new(T), "id = ?", id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return registrar.NewError(registrar.KindNotFound, "record not found")
	}
	return nil
}

func (r *Repository[T]) DeleteMany(ctx context.Context, opts ...registrar.QueryOption) (int64, error) {
	tx, q, err := r.query(ctx, opts)
	if err != nil {
		return 0, err
	}
	switch {
	case q.Limit != nil || q.Offset != nil:
		// SQL has no portable LIMIT on DELETE, so scope by id subquery.
		sub := tx.Model(new(T)).Select("id")
		tx = r.db(ctx).Where("id IN (?)", sub)
		if q.Unscoped {
			tx = tx.Unscoped()
		}
	case len(q.Conditions) == 0 && q.Cursor == nil:
		tx = tx.Session(&gorm.Session{AllowGlobalUpdate: true})
	}

	res := tx.Delete(new(T))
	if res.Error != nil {
		return 0, translate(res.Error)
	}
	return res.RowsAffected, nil
}

// =====================================
// Query Operations
// =====================================

func (r *Repository[T]) Count(ctx context.Context, opts ...registrar.QueryOption) (int64, error) {
	tx, _, err := r.query(ctx, opts)
	if err != nil {
		return 0, err
	}

	var count int64
	if err := tx.Model(new(T)).Count(&count).Error; err != nil {
		return 0, translate(err)
	}
	return count, nil
}

func (r *Repository[T]) Exists(ctx context.Context, opts ...registrar.QueryOption) (bool, error) {
	count, err := r.Count(ctx, append(opts, registrar.Limit(1))...)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *Repository[T]) Aggregate(ctx context.Context, aggs []registrar.Aggregation, opts ...registrar.QueryOption) (registrar.Row, error) {
	if len(aggs) == 0 {
		return nil, registrar.NewError(registrar.KindValidation, "at least one aggregation is required")
	}

	tx, _, err := r.query(ctx, opts)
	if err != nil {
		return nil, err
	}

	selects := make([]string, 0, len(aggs))
	for _, a := range aggs {
		expr, err := aggregateExpr(a)
		if err != nil {
			return nil, err
		}
		selects = append(selects, expr)
	}

	row := map[string]interface{}{}
	if err := tx.Model(new(T)).Select(strings.Join(selects, ", ")).Take(&row).Error; err != nil {
		return nil, translate(err)
	}
	return registrar.Row(row), nil
}

func (r *Repository[T]) GroupBy(ctx context.Context, by []string, aggs []registrar.Aggregation, opts ...registrar.QueryOption) ([]registrar.Row, error) {
	if len(by) == 0 {
		return nil, registrar.NewError(registrar.KindValidation, "at least one group column is required")
	}

	tx, _, err := r.query(ctx, opts)
	if err != nil {
		return nil, err
	}

	selects := make([]string, 0, len(by)+len(aggs))
	selects = append(selects, by...)
	for _, a := range aggs {
		expr, err := aggregateExpr(a)
		if err != nil {
			return nil, err
		}
		selects = append(selects, expr)
	}

	for _, col := range by {
		tx = tx.Group(col)
	}

	var raw []map[string]interface{}
	if err := tx.Model(new(T)).Select(strings.Join(selects, ", ")).Find(&raw).Error; err != nil {
		return nil, translate(err)
	}

	rows := make([]registrar.Row, 0, len(raw))
	for _, m := range raw {
		rows = append(rows, registrar.Row(m))
	}
	return rows, nil
}

func aggregateExpr(a registrar.Aggregation) (string, error) {
	switch a.Func {
	case registrar.AggCount, registrar.AggSum, registrar.AggAvg, registrar.AggMin, registrar.AggMax:
	default:
		return "", registrar.NewError(registrar.KindUnsupported,
			fmt.Sprintf("unsupported aggregate function: %s", a.Func))
	}
	if a.Field == "" {
		return "", registrar.NewError(registrar.KindValidation, "aggregation requires a field")
	}
	if a.Field == "*" && a.Func != registrar.AggCount {
		return "", registrar.NewError(registrar.KindValidation,
			fmt.Sprintf("%s does not accept *", a.Func))
	}
	return fmt.Sprintf("%s(%s) AS %s", a.Func, a.Field, a.Key()), nil
}

// =====================================
// Raw Escape Hatch
// =====================================

func (r *Repository[T]) RawQuery(ctx context.Context, query string, args []interface{}) ([]*T, error) {
	var entities []*T
	if err := r.db(ctx).Raw(query, args...).Scan(&entities).Error; err != nil {
		return nil, translate(err)
	}
	return entities, nil
}

func (r *Repository[T]) RawExec(ctx context.Context, query string, args []interface{}) (registrar.Result, error) {
	res := r.db(ctx).Exec(query, args...)
	if res.Error != nil {
		return nil, translate(res.Error)
	}
	return sqlResult{rowsAffected: res.RowsAffected}, nil
}

// sqlResult implements registrar.Result
type sqlResult struct {
	lastInsertID int64
	rowsAffected int64
}

func (r sqlResult) LastInsertId() (int64, error) { return r.lastInsertID, nil }
func (r sqlResult) RowsAffected() (int64, error) { return r.rowsAffected, nil }
