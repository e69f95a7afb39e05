package bunstore

import (
	"context"
	"database/sql"
	"fmt"
	"reflect"
	"strings"

	"github.com/edukit/registrar"
)

// Repository implements registrar.Repository for one entity type on a
// bun-backed Store.
type Repository[T any] struct {
	store *Store
}

// NewRepository creates a repository bound to the given store
func NewRepository[T any](store *Store) *Repository[T] {
	return &Repository[T]{store: store}
}

var _ registrar.Repository[struct{}] = (*Repository[struct{}])(nil)

// =====================================
// Basic CRUD Operations
// =====================================

func (r *Repository[T]) Create(ctx context.Context, entity *T) error {
	r.assignID(entity)
	_, err := r.store.db.NewInsert().Model(entity).Exec(ctx)
	return translate(err)
}

func (r *Repository[T]) CreateMany(ctx context.Context, entities []*T, opts ...registrar.CreateOption) (int64, error) {
	if len(entities) == 0 {
		return 0, nil
	}

	co := registrar.NewCreateOptions(opts...)
	for _, e := range entities {
		r.assignID(e)
	}

	var written int64
	for start := 0; start < len(entities); start += co.BatchSize {
		end := start + co.BatchSize
		if end > len(entities) {
			end = len(entities)
		}
		batch := entities[start:end]

		insert := r.store.db.NewInsert().Model(&batch)
		if co.SkipDuplicates {
			insert = insert.On("CONFLICT DO NOTHING")
		}

		res, err := insert.Exec(ctx)
		if err != nil {
			return written, translate(err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return written, translate(err)
		}
		written += n
	}
	return written, nil
}

func (r *Repository[T]) FindByID(ctx context.Context, id interface{}) (*T, error) {
	var entity T
	err := r.store.db.NewSelect().Model(&entity).Where("id = ?", id).Limit(1).Scan(ctx)
	if err != nil {
		return nil, translate(err)
	}
	return &entity, nil
}

func (r *Repository[T]) FindOne(ctx context.Context, opts ...registrar.QueryOption) (*T, error) {
	var entity T
	sel, _, err := r.selectQuery(&entity, opts)
	if err != nil {
		return nil, err
	}
	if err := sel.Limit(1).Scan(ctx); err != nil {
		return nil, translate(err)
	}
	return &entity, nil
}

func (r *Repository[T]) FindAll(ctx context.Context, opts ...registrar.QueryOption) ([]*T, error) {
	var entities []*T
	sel, _, err := r.selectQuery(&entities, opts)
	if err != nil {
		return nil, err
	}
	if err := sel.Scan(ctx); err != nil {
		return nil, translate(err)
	}
	return entities, nil
}

func (r *Repository[T]) Update(ctx context.Context, entity *T) error {
	res, err := r.store.db.NewUpdate().Model(entity).WherePK().Exec(ctx)
	if err != nil {
		return translate(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return translate(err)
	}
	if n == 0 {
		return registrar.NewError(registrar.KindNotFound, "record not found")
	}
	return nil
}

func (r *Repository[T]) UpdateFields(ctx context.Context, id interface{}, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return registrar.NewError(registrar.KindValidation, "no fields to update")
	}

	upd := r.store.db.NewUpdate().Model((*T)(nil)).Where("id = ?", id)
	for col, val := range updates {
		upd = upd.Set(fmt.Sprintf("%s = ?", col), val)
	}

	res, err := upd.Exec(ctx)
	if err != nil {
		return translate(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return translate(err)
	}
	if n == 0 {
		return registrar.NewError(registrar.KindNotFound, "record not found")
	}
	return nil
}

func (r *Repository[T]) UpdateMany(ctx context.Context, updates map[string]interface{}, opts ...registrar.QueryOption) (int64, error) {
	if len(updates) == 0 {
		return 0, registrar.NewError(registrar.KindValidation, "no fields to update")
	}

	q, err := registrar.Build(opts...)
	if err != nil {
		return 0, err
	}

	upd := r.store.db.NewUpdate().Model((*T)(nil))
	for col, val := range updates {
		upd = upd.Set(fmt.Sprintf("%s = ?", col), val)
	}
	switch {
	case q.Limit != nil || q.Offset != nil:
		sub, err := r.idScope(q)
		if err != nil {
			return 0, err
		}
		upd = upd.Where("id IN (?)", sub)
	case len(q.Conditions) == 0 && q.Cursor == nil:
		upd = upd.Where("1 = 1")
	default:
		for _, cond := range q.Conditions {
			expr, args, err := conditionSQL(cond)
			if err != nil {
				return 0, err
			}
			upd = upd.Where(expr, args...)
		}
		if q.Cursor != nil {
			upd = upd.Where(fmt.Sprintf("%s >= ?", q.Cursor.Field), q.Cursor.Value)
		}
	}

	res, err := upd.Exec(ctx)
	if err != nil {
		return 0, translate(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, translate(err)
	}
	return n, nil
}

func (r *Repository[T]) Upsert(ctx context.Context, entity *T, conflictColumns []string, updateColumns []string) error {
	if len(conflictColumns) == 0 {
		return registrar.NewError(registrar.KindValidation, "upsert requires conflict columns")
	}

	if len(updateColumns) == 0 {
		cols, err := r.nonKeyColumns(conflictColumns)
		if err != nil {
			return err
		}
		updateColumns = cols
	}

	r.assignID(entity)
	insert := r.store.db.NewInsert().Model(entity).
		On(fmt.Sprintf("CONFLICT (%s) DO UPDATE", strings.Join(conflictColumns, ", ")))
	for _, col := range updateColumns {
		insert = insert.Set(fmt.Sprintf("%s = EXCLUDED.%s", col, col))
	}

	_, err := insert.Exec(ctx)
	return translate(err)
}

func (r *Repository[T]) Delete(ctx context.Context, id interface{}) error {
	res, err := r.store.db.NewDelete().Model((*T)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return translate(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return translate(err)
	}
	if n == 0 {
		return registrar.NewError(registrar.KindNotFound, "record not found")
	}
	return nil
}

func (r *Repository[T]) DeleteMany(ctx context.Context, opts ...registrar.QueryOption) (int64, error) {
	q, err := registrar.Build(opts...)
	if err != nil {
		return 0, err
	}

	del := r.store.db.NewDelete().Model((*T)(nil))
	switch {
	case q.Limit != nil || q.Offset != nil:
		sub, err := r.idScope(q)
		if err != nil {
			return 0, err
		}
		del = del.Where("id IN (?)", sub)
	case len(q.Conditions) == 0 && q.Cursor == nil:
		del = del.Where("1 = 1")
	default:
		for _, cond := range q.Conditions {
			expr, args, err := conditionSQL(cond)
			if err != nil {
				return 0, err
			}
			del = del.Where(expr, args...)
		}
		if q.Cursor != nil {
			del = del.Where(fmt.Sprintf("%s >= ?", q.Cursor.Field), q.Cursor.Value)
		}
	}

	res, err := del.Exec(ctx)
	if err != nil {
		return 0, translate(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, translate(err)
	}
	return n, nil
}

// =====================================
// Query Operations
// =====================================

func (r *Repository[T]) Count(ctx context.Context, opts ...registrar.QueryOption) (int64, error) {
	sel, _, err := r.selectQuery((*T)(nil), opts)
	if err != nil {
		return 0, err
	}
	count, err := sel.Count(ctx)
	if err != nil {
		return 0, translate(err)
	}
	return int64(count), nil
}

func (r *Repository[T]) Exists(ctx context.Context, opts ...registrar.QueryOption) (bool, error) {
	sel, _, err := r.selectQuery((*T)(nil), opts)
	if err != nil {
		return false, err
	}
	exists, err := sel.Exists(ctx)
	if err != nil {
		return false, translate(err)
	}
	return exists, nil
}

func (r *Repository[T]) Aggregate(ctx context.Context, aggs []registrar.Aggregation, opts ...registrar.QueryOption) (registrar.Row, error) {
	if len(aggs) == 0 {
		return nil, registrar.NewError(registrar.KindValidation, "at least one aggregation is required")
	}

	sel, _, err := r.selectQuery((*T)(nil), opts)
	if err != nil {
		return nil, err
	}
	for _, a := range aggs {
		expr, err := aggregateExpr(a)
		if err != nil {
			return nil, err
		}
		sel = sel.ColumnExpr(expr)
	}

	rows, err := sel.Rows(ctx)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	result, err := scanRows(rows)
	if err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return registrar.Row{}, nil
	}
	return result[0], nil
}

func (r *Repository[T]) GroupBy(ctx context.Context, by []string, aggs []registrar.Aggregation, opts ...registrar.QueryOption) ([]registrar.Row, error) {
	if len(by) == 0 {
		return nil, registrar.NewError(registrar.KindValidation, "at least one group column is required")
	}

	sel, _, err := r.selectQuery((*T)(nil), opts)
	if err != nil {
		return nil, err
	}
	for _, col := range by {
		sel = sel.ColumnExpr(col).Group(col)
	}
	for _, a := range aggs {
		expr, err := aggregateExpr(a)
		if err != nil {
			return nil, err
		}
		sel = sel.ColumnExpr(expr)
	}

	rows, err := sel.Rows(ctx)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	return scanRows(rows)
}

// =====================================
// Raw Escape Hatch
// =====================================

func (r *Repository[T]) RawQuery(ctx context.Context, query string, args []interface{}) ([]*T, error) {
	var entities []*T
	if err := r.store.db.NewRaw(query, args...).Scan(ctx, &entities); err != nil {
		return nil, translate(err)
	}
	return entities, nil
}

func (r *Repository[T]) RawExec(ctx context.Context, query string, args []interface{}) (registrar.Result, error) {
	return r.store.Exec(ctx, query, args...)
}

// =====================================
// Helpers
// =====================================

// assignID fills an empty string primary key; bun does not run gorm's
// create hooks.
func (r *Repository[T]) assignID(entity *T) {
	v := reflect.ValueOf(entity).Elem()
	f := v.FieldByName("ID")
	if f.IsValid() && f.Kind() == reflect.String && f.String() == "" && f.CanSet() {
		f.SetString(newID())
	}
}

// nonKeyColumns lists the table's columns minus the primary key and the
// given conflict columns, for DO UPDATE SET of a full upsert.
func (r *Repository[T]) nonKeyColumns(conflictColumns []string) ([]string, error) {
	table := r.store.root.Table(reflect.TypeOf((*T)(nil)).Elem())
	if table == nil {
		return nil, registrar.NewError(registrar.KindValidation, "unknown table for model")
	}

	skip := make(map[string]bool, len(conflictColumns)+1)
	for _, c := range conflictColumns {
		skip[c] = true
	}
	for _, f := range table.PKs {
		skip[f.Name] = true
	}

	cols := make([]string, 0, len(table.Fields))
	for _, f := range table.Fields {
		if !skip[f.Name] {
			cols = append(cols, f.Name)
		}
	}
	return cols, nil
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

// scanRows reads generic rows into maps keyed by column name
func scanRows(rows *sql.Rows) ([]registrar.Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, translate(err)
	}

	var out []registrar.Row
	for rows.Next() {
		values := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, translate(err)
		}

		row := make(registrar.Row, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, translate(err)
	}
	return out, nil
}
