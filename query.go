package registrar

import "strings"

// =====================================
// Query Model
// =====================================

// Operator represents query operators
type Operator string

const (
	OpEqual              Operator = "="
	OpNotEqual           Operator = "!="
	OpGreaterThan        Operator = ">"
	OpGreaterThanOrEqual Operator = ">="
	OpLessThan           Operator = "<"
	OpLessThanOrEqual    Operator = "<="
	OpLike               Operator = "LIKE"
	OpNotLike            Operator = "NOT LIKE"
	OpIn                 Operator = "IN"
	OpNotIn              Operator = "NOT IN"
	OpIsNull             Operator = "IS NULL"
	OpIsNotNull          Operator = "IS NOT NULL"
	OpBetween            Operator = "BETWEEN"
)

// LogicOperator represents logic operators for combining conditions
type LogicOperator string

const (
	LogicAnd LogicOperator = "AND"
	LogicOr  LogicOperator = "OR"
)

// OrderDirection represents sort direction
type OrderDirection string

const (
	OrderAsc  OrderDirection = "ASC"
	OrderDesc OrderDirection = "DESC"
)

// Order represents sorting order
type Order struct {
	Field     string
	Direction OrderDirection
}

// Include requests eager loading of one declared relation. A to-many
// relation accepts its own scope: nested filter, sort and pagination
// options applied to the related rows only.
type Include struct {
	Relation string
	Scope    []QueryOption
}

// Cursor positions a paginated result set at the first row whose Field
// compares >= Value under the query's ordering. Pair with Offset(1) to
// exclude the cursor row itself.
type Cursor struct {
	Field string
	Value interface{}
}

// Query is the backend-agnostic description of a read or bulk-write scope.
// Adapters walk this struct to build their native queries.
type Query struct {
	Conditions []Condition
	Orders     []Order
	Limit      *int
	Offset     *int
	Fields     []string
	Includes   []Include
	Groups     []string
	Having     []Condition
	Distinct   bool
	Cursor     *Cursor
	Unscoped   bool
	Lock       bool
}

// Validate rejects option combinations the contract forbids. Field
// projection and relation loading are mutually exclusive: choose Select
// or Include, not both.
func (q *Query) Validate() error {
	if len(q.Fields) > 0 && len(q.Includes) > 0 {
		return NewError(KindValidation, "select and include are mutually exclusive")
	}
	if q.Cursor != nil && q.Cursor.Field == "" {
		return NewError(KindValidation, "cursor requires a field")
	}
	return nil
}

// Condition represents a query condition
type Condition interface {
	Field() string
	Operator() Operator
	Value() interface{}
	String() string
}

// BasicCondition implements Condition
type BasicCondition struct {
	FieldName string
	Op        Operator
	Val       interface{}
}

func (c BasicCondition) Field() string      { return c.FieldName }
func (c BasicCondition) Operator() Operator { return c.Op }
func (c BasicCondition) Value() interface{} { return c.Val }
func (c BasicCondition) String() string {
	switch c.Op {
	case OpIsNull, OpIsNotNull:
		return c.FieldName + " " + string(c.Op)
	default:
		return c.FieldName + " " + string(c.Op) + " ?"
	}
}

// CompositeCondition groups conditions under AND/OR
type CompositeCondition struct {
	Conditions []Condition
	Logic      LogicOperator
}

func (c CompositeCondition) Field() string      { return "" }
func (c CompositeCondition) Operator() Operator { return "" }
func (c CompositeCondition) Value() interface{} { return nil }
func (c CompositeCondition) String() string {
	if len(c.Conditions) == 0 {
		return ""
	}
	parts := make([]string, 0, len(c.Conditions))
	for _, cond := range c.Conditions {
		parts = append(parts, cond.String())
	}
	return "(" + strings.Join(parts, " "+string(c.Logic)+" ") + ")"
}

// =====================================
// Query Options
// =====================================

// QueryOption mutates a Query under construction
type QueryOption interface {
	Apply(query *Query)
}

// Build applies opts to an empty Query and validates the result.
func Build(opts ...QueryOption) (*Query, error) {
	q := &Query{}
	for _, opt := range opts {
		opt.Apply(q)
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}
	return q, nil
}

// ConditionOption implements QueryOption for conditions
type ConditionOption struct {
	Condition Condition
}

func (o ConditionOption) Apply(query *Query) {
	query.Conditions = append(query.Conditions, o.Condition)
}

// OrderOption implements QueryOption for ordering
type OrderOption struct {
	Order Order
}

func (o OrderOption) Apply(query *Query) {
	query.Orders = append(query.Orders, o.Order)
}

// LimitOption implements QueryOption for limiting results
type LimitOption struct {
	Count int
}

func (o LimitOption) Apply(query *Query) {
	query.Limit = &o.Count
}

// OffsetOption implements QueryOption for result offset
type OffsetOption struct {
	Count int
}

func (o OffsetOption) Apply(query *Query) {
	query.Offset = &o.Count
}

// FieldsOption implements QueryOption for field projection
type FieldsOption struct {
	Fields []string
}

func (o FieldsOption) Apply(query *Query) {
	query.Fields = append(query.Fields, o.Fields...)
}

// IncludeOption implements QueryOption for relation eager loading
type IncludeOption struct {
	Include Include
}

func (o IncludeOption) Apply(query *Query) {
	query.Includes = append(query.Includes, o.Include)
}

// GroupByOption implements QueryOption for grouping
type GroupByOption struct {
	Fields []string
}

func (o GroupByOption) Apply(query *Query) {
	query.Groups = append(query.Groups, o.Fields...)
}

// HavingOption implements QueryOption for having conditions
type HavingOption struct {
	Condition Condition
}

func (o HavingOption) Apply(query *Query) {
	query.Having = append(query.Having, o.Condition)
}

// DistinctOption implements QueryOption for distinct results
type DistinctOption struct{}

func (o DistinctOption) Apply(query *Query) {
	query.Distinct = true
}

// CursorOption implements QueryOption for cursor pagination
type CursorOption struct {
	Cursor Cursor
}

func (o CursorOption) Apply(query *Query) {
	c := o.Cursor
	query.Cursor = &c
}

// UnscopedOption implements QueryOption for including soft-deleted rows
type UnscopedOption struct{}

func (o UnscopedOption) Apply(query *Query) {
	query.Unscoped = true
}

// LockOption implements QueryOption for row locking
type LockOption struct{}

func (o LockOption) Apply(query *Query) {
	query.Lock = true
}

// =====================================
// Query Builder Functions
// =====================================

// Where creates a basic WHERE condition
func Where(field string, operator Operator, value interface{}) QueryOption {
	return ConditionOption{Condition: BasicCondition{FieldName: field, Op: operator, Val: value}}
}

// WhereCondition wraps a Condition as a QueryOption
func WhereCondition(condition Condition) QueryOption {
	return ConditionOption{Condition: condition}
}

// Cond creates a bare condition for use inside And/Or
func Cond(field string, operator Operator, value interface{}) Condition {
	return BasicCondition{FieldName: field, Op: operator, Val: value}
}

// And groups conditions with AND
func And(conditions ...Condition) QueryOption {
	return ConditionOption{Condition: CompositeCondition{Conditions: conditions, Logic: LogicAnd}}
}

// Or groups conditions with OR
func Or(conditions ...Condition) QueryOption {
	return ConditionOption{Condition: CompositeCondition{Conditions: conditions, Logic: LogicOr}}
}

// WhereIn creates a WHERE IN condition
func WhereIn(field string, values []interface{}) QueryOption {
	return Where(field, OpIn, values)
}

// WhereLike creates a WHERE LIKE condition
func WhereLike(field string, value string) QueryOption {
	return Where(field, OpLike, value)
}

// WhereNull creates a WHERE IS NULL condition
func WhereNull(field string) QueryOption {
	return Where(field, OpIsNull, nil)
}

// WhereNotNull creates a WHERE IS NOT NULL condition
func WhereNotNull(field string) QueryOption {
	return Where(field, OpIsNotNull, nil)
}

// OrderBy creates an ordering option
func OrderBy(field string, direction OrderDirection) QueryOption {
	return OrderOption{Order: Order{Field: field, Direction: direction}}
}

// Limit creates a limit option
func Limit(count int) QueryOption {
	return LimitOption{Count: count}
}

// Offset creates an offset option
func Offset(count int) QueryOption {
	return OffsetOption{Count: count}
}

// Select creates a field projection option. Mutually exclusive with Preload.
func Select(fields ...string) QueryOption {
	return FieldsOption{Fields: fields}
}

// Preload eagerly loads a declared relation. Scope options narrow, sort or
// paginate the related rows of a to-many relation.
func Preload(relation string, scope ...QueryOption) QueryOption {
	return IncludeOption{Include: Include{Relation: relation, Scope: scope}}
}

// GroupBy creates a group by option
func GroupBy(fields ...string) QueryOption {
	return GroupByOption{Fields: fields}
}

// Having creates a having condition option
func Having(field string, operator Operator, value interface{}) QueryOption {
	return HavingOption{Condition: BasicCondition{FieldName: field, Op: operator, Val: value}}
}

// Distinct creates a distinct option
func Distinct() QueryOption {
	return DistinctOption{}
}

// After creates a cursor pagination option
func After(field string, value interface{}) QueryOption {
	return CursorOption{Cursor: Cursor{Field: field, Value: value}}
}

// Unscoped includes soft-deleted rows in the result set
func Unscoped() QueryOption {
	return UnscopedOption{}
}

// ForUpdate locks the matched rows for the duration of the surrounding
// transaction (SELECT ... FOR UPDATE). Backends without row locking
// ignore it.
func ForUpdate() QueryOption {
	return LockOption{}
}
