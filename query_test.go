package registrar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildCollectsOptions(t *testing.T) {
	q, err := Build(
		Where("status", OpEqual, "Active"),
		OrderBy("last_name", OrderAsc),
		Limit(20),
		Offset(40),
		Distinct(),
	)
	require.NoError(t, err)

	require.Len(t, q.Conditions, 1)
	assert.Equal(t, "status", q.Conditions[0].Field())
	assert.Equal(t, OpEqual, q.Conditions[0].Operator())
	assert.Equal(t, "Active", q.Conditions[0].Value())

	require.Len(t, q.Orders, 1)
	assert.Equal(t, Order{Field: "last_name", Direction: OrderAsc}, q.Orders[0])

	require.NotNil(t, q.Limit)
	assert.Equal(t, 20, *q.Limit)
	require.NotNil(t, q.Offset)
	assert.Equal(t, 40, *q.Offset)
	assert.True(t, q.Distinct)
}

func TestSelectAndIncludeAreMutuallyExclusive(t *testing.T) {
	_, err := Build(
		Select("id", "email"),
		Preload("Sessions"),
	)
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestSelectAloneIsFine(t *testing.T) {
	q, err := Build(Select("id", "email"))
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "email"}, q.Fields)
}

func TestPreloadCarriesScope(t *testing.T) {
	q, err := Build(Preload("Grades",
		Where("year", OpEqual, 2025),
		OrderBy("score", OrderDesc),
	))
	require.NoError(t, err)

	require.Len(t, q.Includes, 1)
	assert.Equal(t, "Grades", q.Includes[0].Relation)
	assert.Len(t, q.Includes[0].Scope, 2)
}

func TestCursorRequiresField(t *testing.T) {
	_, err := Build(After("", "abc"))
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	q, err := Build(After("id", "abc"))
	require.NoError(t, err)
	require.NotNil(t, q.Cursor)
	assert.Equal(t, "id", q.Cursor.Field)
	assert.Equal(t, "abc", q.Cursor.Value)
}

func TestBasicConditionString(t *testing.T) {
	assert.Equal(t, "email = ?", Cond("email", OpEqual, "x").String())
	assert.Equal(t, "deleted_at IS NULL", Cond("deleted_at", OpIsNull, nil).String())
	assert.Equal(t, "score >= ?", Cond("score", OpGreaterThanOrEqual, 50).String())
}

func TestCompositeConditionString(t *testing.T) {
	composite := CompositeCondition{
		Logic: LogicOr,
		Conditions: []Condition{
			Cond("status", OpEqual, "Late"),
			Cond("status", OpEqual, "Absent"),
		},
	}
	assert.Equal(t, "(status = ? OR status = ?)", composite.String())
}

func TestWhereHelpers(t *testing.T) {
	q, err := Build(
		WhereIn("status", []interface{}{"Active", "Suspended"}),
		WhereLike("email", "%@school.edu"),
		WhereNull("graduation_date"),
		WhereNotNull("user_id"),
	)
	require.NoError(t, err)
	require.Len(t, q.Conditions, 4)
	assert.Equal(t, OpIn, q.Conditions[0].Operator())
	assert.Equal(t, OpLike, q.Conditions[1].Operator())
	assert.Equal(t, OpIsNull, q.Conditions[2].Operator())
	assert.Equal(t, OpIsNotNull, q.Conditions[3].Operator())
}

func TestGroupByAndHaving(t *testing.T) {
	q, err := Build(
		GroupBy("status"),
		Having("count", OpGreaterThan, 3),
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"status"}, q.Groups)
	require.Len(t, q.Having, 1)
}

func TestUnscoped(t *testing.T) {
	q, err := Build(Unscoped())
	require.NoError(t, err)
	assert.True(t, q.Unscoped)
}

func TestForUpdate(t *testing.T) {
	q, err := Build(ForUpdate())
	require.NoError(t, err)
	assert.True(t, q.Lock)
}

func TestQueryBuilderAccumulatesOptions(t *testing.T) {
	opts := NewQueryBuilder[struct{}]().
		Where("level", OpEqual, "Year_One").
		OrderBy("name", OrderAsc).
		Limit(10).
		Options()

	q, err := Build(opts...)
	require.NoError(t, err)
	assert.Len(t, q.Conditions, 1)
	assert.Len(t, q.Orders, 1)
	require.NotNil(t, q.Limit)
	assert.Equal(t, 10, *q.Limit)
}

func TestAggregationKeys(t *testing.T) {
	assert.Equal(t, "count", Count().Key())
	assert.Equal(t, "avg_score", Avg("score").Key())
	assert.Equal(t, "sum_credits", Sum("credits").Key())
	assert.Equal(t, "min_year", Min("year").Key())
	assert.Equal(t, "max_year", Max("year").Key())
	assert.Equal(t, "mean", Aggregation{Func: AggAvg, Field: "score", Alias: "mean"}.Key())
}

func TestCreateOptions(t *testing.T) {
	co := NewCreateOptions()
	assert.False(t, co.SkipDuplicates)
	assert.Equal(t, 100, co.BatchSize)

	co = NewCreateOptions(SkipDuplicates(), BatchSize(500))
	assert.True(t, co.SkipDuplicates)
	assert.Equal(t, 500, co.BatchSize)
}
