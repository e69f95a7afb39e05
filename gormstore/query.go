package gormstore

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/edukit/registrar"
)

// query resolves the option list into a gorm handle with every clause
// applied, and returns the built Query alongside so callers can inspect
// it (bulk writes need to know whether any condition was given).
func (r *Repository[T]) query(ctx context.Context, opts []registrar.QueryOption) (*gorm.DB, *registrar.Query, error) {
	q, err := registrar.Build(opts...)
	if err != nil {
		return nil, nil, err
	}

	tx := r.db(ctx)
	if q.Unscoped {
		tx = tx.Unscoped()
	}

	for _, cond := range q.Conditions {
		expr, args, err := conditionSQL(cond)
		if err != nil {
			return nil, nil, err
		}
		tx = tx.Where(expr, args...)
	}

	if q.Cursor != nil {
		tx = tx.Where(fmt.Sprintf("%s >= ?", q.Cursor.Field), q.Cursor.Value)
		// The cursor is only deterministic under an order on its field.
		if len(q.Orders) == 0 {
			tx = tx.Order(fmt.Sprintf("%s %s", q.Cursor.Field, registrar.OrderAsc))
		}
	}

	for _, ord := range q.Orders {
		tx = tx.Order(fmt.Sprintf("%s %s", ord.Field, ord.Direction))
	}

	if len(q.Fields) > 0 {
		tx = tx.Select(q.Fields)
	}
	if q.Distinct {
		tx = tx.Distinct()
	}

	for _, inc := range q.Includes {
		scoped, err := preloadScope(inc)
		if err != nil {
			return nil, nil, err
		}
		if scoped == nil {
			tx = tx.Preload(inc.Relation)
		} else {
			tx = tx.Preload(inc.Relation, scoped)
		}
	}

	if len(q.Groups) > 0 {
		tx = tx.Group(strings.Join(q.Groups, ", "))
	}
	for _, h := range q.Having {
		expr, args, err := conditionSQL(h)
		if err != nil {
			return nil, nil, err
		}
		tx = tx.Having(expr, args...)
	}

	if q.Limit != nil {
		tx = tx.Limit(*q.Limit)
	}
	if q.Offset != nil {
		tx = tx.Offset(*q.Offset)
	}
	// sqlite has no FOR UPDATE syntax; its single-writer model locks anyway.
	if q.Lock && !strings.HasPrefix(strings.ToLower(r.store.config.Driver), "sqlite") {
		tx = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	return tx, q, nil
}

// preloadScope compiles a nested include scope into the function gorm's
// Preload accepts. Returns nil for an unscoped include.
func preloadScope(inc registrar.Include) (func(*gorm.DB) *gorm.DB, error) {
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

	return func(tx *gorm.DB) *gorm.DB {
		for _, cond := range sub.Conditions {
			expr, args, _ := conditionSQL(cond)
			tx = tx.Where(expr, args...)
		}
		for _, ord := range sub.Orders {
			tx = tx.Order(fmt.Sprintf("%s %s", ord.Field, ord.Direction))
		}
		if sub.Limit != nil {
			tx = tx.Limit(*sub.Limit)
		}
		if sub.Offset != nil {
			tx = tx.Offset(*sub.Offset)
		}
		return tx
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
	case registrar.OpEqual, registrar.OpNotEqual,
		registrar.OpGreaterThan, registrar.OpGreaterThanOrEqual,
		registrar.OpLessThan, registrar.OpLessThanOrEqual,
		registrar.OpLike, registrar.OpNotLike,
		registrar.OpIn, registrar.OpNotIn:
		return fmt.Sprintf("%s %s ?", cond.FieldName, cond.Op), []interface{}{cond.Val}, nil
	default:
		return "", nil, registrar.NewError(registrar.KindUnsupported,
			fmt.Sprintf("unsupported operator: %s", cond.Op))
	}
}
