package bunstore

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/edukit/registrar"
)

func newID() string {
	return uuid.NewString()
}

// selectQuery resolves the option list into a bun select over model,
// returning the built Query alongside.
func (r *Repository[T]) selectQuery(model interface{}, opts []registrar.QueryOption) (*bun.SelectQuery, *registrar.Query, error) {
	q, err := registrar.Build(opts...)
	if err != nil {
		return nil, nil, err
	}

	sel := r.store.db.NewSelect().Model(model)

	for _, cond := range q.Conditions {
		expr, args, err := conditionSQL(cond)
		if err != nil {
			return nil, nil, err
		}
		sel = sel.Where(expr, args...)
	}

	if q.Cursor != nil {
		sel = sel.Where(fmt.Sprintf("%s >= ?", q.Cursor.Field), q.Cursor.Value)
		if len(q.Orders) == 0 {
			sel = sel.Order(fmt.Sprintf("%s ASC", q.Cursor.Field))
		}
	}

	for _, ord := range q.Orders {
		sel = sel.Order(fmt.Sprintf("%s %s", ord.Field, ord.Direction))
	}

	if len(q.Fields) > 0 {
		sel = sel.Column(q.Fields...)
	}
	if q.Distinct {
		sel = sel.Distinct()
	}

	for _, inc := range q.Includes {
		scoped, err := relationScope(inc)
		if err != nil {
			return nil, nil, err
		}
		if scoped == nil {
			sel = sel.Relation(inc.Relation)
		} else {
			sel = sel.Relation(inc.Relation, scoped)
		}
	}

	if len(q.Groups) > 0 {
		sel = sel.Group(q.Groups...)
	}
	for _, h := range q.Having {
		expr, args, err := conditionSQL(h)
		if err != nil {
			return nil, nil, err
		}
		sel = sel.Having(expr, args...)
	}

	if q.Limit != nil {
		sel = sel.Limit(*q.Limit)
	}
	if q.Offset != nil {
		sel = sel.Offset(*q.Offset)
	}
	// sqlite has no FOR UPDATE syntax; its single-writer model locks anyway.
	if q.Lock && !strings.HasPrefix(strings.ToLower(r.store.config.Driver), "sqlite") {
		sel = sel.For("UPDATE")
	}

	return sel, q, nil
}

// idScope renders the query's scope as an id subquery. Bulk writes use
// it when a limit or offset narrows the affected rows, since SQL has no
// portable LIMIT on UPDATE or DELETE.
func (r *Repository[T]) idScope(q *registrar.Query) (*bun.SelectQuery, error) {
	sel := r.store.db.NewSelect().Model((*T)(nil)).Column("id")

	for _, cond := range q.Conditions {
		expr, args, err := conditionSQL(cond)
		if err != nil {
			return nil, err
		}
		sel = sel.Where(expr, args...)
	}
	if q.Cursor != nil {
		sel = sel.Where(fmt.Sprintf("%s >= ?", q.Cursor.Field), q.Cursor.Value)
		if len(q.Orders) == 0 {
			sel = sel.Order(fmt.Sprintf("%s ASC", q.Cursor.Field))
		}
	}
	for _, ord := range q.Orders {
		sel = sel.Order(fmt.Sprintf("%s %s", ord.Field, ord.Direction))
	}
	if q.Limit != nil {
		sel = sel.Limit(*q.Limit)
	}
	if q.Offset != nil {
		sel = sel.Offset(*q.Offset)
	}
	return sel, nil
}

// relationScope compiles a nested include scope into the function bun's
// Relation accepts. Returns nil for an unscoped include.
func relationScope(inc registrar.Include) (func(*bun.SelectQuery) *bun.SelectQuery, error) {
	if len(inc.Scope) == 0 {
		return nil, nil
	}

	sub, err := registrar.Build(inc.Scope...)
	if err != nil {
		return nil, err
	}
	for _, cond := range sub.Conditions {
		if _, _, err := conditionSQL(cond); err != nil {
			return nil, err
		}
	}

	return func(sel *bun.SelectQuery) *bun.SelectQuery {
		for _, cond := range sub.Conditions {
			expr, args, _ := conditionSQL(cond)
			sel = sel.Where(expr, args...)
		}
		for _, ord := range sub.Orders {
			sel = sel.Order(fmt.Sprintf("%s %s", ord.Field, ord.Direction))
		}
		if sub.Limit != nil {
			sel = sel.Limit(*sub.Limit)
		}
		if sub.Offset != nil {
			sel = sel.Offset(*sub.Offset)
		}
		return sel
	}, nil
}

// conditionSQL renders one condition as a SQL fragment with bind args
func conditionSQL(c registrar.Condition) (string, []interface{}, error) {
	switch cond := c.(type) {
	case registrar.BasicCondition:
		return basicConditionSQL(cond)
	case registrar.CompositeCondition:
		if len(cond.Conditions) == 0 {
			return "", nil, registrar.NewError(registrar.KindValidation, "empty condition group")
		}
		parts := make([]string, 0, len(cond.Conditions))
		args := make([]interface{}, 0, len(cond.Conditions))
		for _, sub := range cond.Conditions {
			expr, subArgs, err := conditionSQL(sub)
			if err != nil {
				return "", nil, err
			}
			parts = append(parts, expr)
			args = append(args, subArgs...)
		}
		joined := "(" + strings.Join(parts, " "+string(cond.Logic)+" ") + ")"
		return joined, args, nil
	default:
		return "", nil, registrar.NewError(registrar.KindUnsupported,
			fmt.Sprintf("unsupported condition type: %T", c))
	}
}

func basicConditionSQL(cond registrar.BasicCondition) (string, []interface{}, error) {
	if cond.FieldName == "" {
		return "", nil, registrar.NewError(registrar.KindValidation, "condition requires a field")
	}

	switch cond.Op {
	case registrar.OpIsNull, registrar.OpIsNotNull:
		return fmt.Sprintf("%s %s", cond.FieldName, cond.Op), nil, nil
	case registrar.OpBetween:
		bounds, ok := cond.Val.([]interface{})
		if !ok || len(bounds) != 2 {
			return "", nil, registrar.NewError(registrar.KindValidation,
				"BETWEEN requires exactly two values")
		}
		return fmt.Sprintf("%s BETWEEN ? AND ?", cond.FieldName), bounds, nil
	case registrar.OpIn, registrar.OpNotIn:
		return fmt.Sprintf("%s %s (?)", cond.FieldName, cond.Op), []interface{}{bun.In(cond.Val)}, nil
	case registrar.OpEqual, registrar.OpNotEqual,
		registrar.OpGreaterThan, registrar.OpGreaterThanOrEqual,
		registrar.OpLessThan, registrar.OpLessThanOrEqual,
		registrar.OpLike, registrar.OpNotLike:
		return fmt.Sprintf("%s %s ?", cond.FieldName, cond.Op), []interface{}{cond.Val}, nil
	default:
		return "", nil, registrar.NewError(registrar.KindUnsupported,
			fmt.Sprintf("unsupported operator: %s", cond.Op))
	}
}
