package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCapabilityTable(t *testing.T) {
	assert.True(t, IsOrderable(ScalarString))
	assert.True(t, IsOrderable(ScalarObjectId))
	assert.False(t, IsOrderable(ScalarBool))

	assert.True(t, IsNumeric(ScalarInt))
	assert.True(t, IsNumeric(ScalarDecimal))
	assert.False(t, IsNumeric(ScalarString))

	assert.True(t, IsComparable(ScalarBool))
	assert.True(t, IsComparable(ScalarBinData))
	assert.True(t, IsComparable(ScalarNull))
	assert.True(t, IsComparable(ScalarString)) // orderable implies comparable
	assert.False(t, IsComparable(ScalarRegex))
}

func TestComparisonOperatorsForString(t *testing.T) {
	ops := ComparisonOperatorsFor(ScalarString)
	assert.Contains(t, ops, OpEq)
	assert.Contains(t, ops, OpRegex)
	assert.Contains(t, ops, OpIRegex)
	assert.Contains(t, ops, OpLt)
}

func TestComparisonOperatorsForBool(t *testing.T) {
	ops := ComparisonOperatorsFor(ScalarBool)
	assert.Contains(t, ops, OpEq)
	assert.NotContains(t, ops, OpLt)
	assert.NotContains(t, ops, OpRegex)
}

func TestAggregateFunctionsFor(t *testing.T) {
	assert.ElementsMatch(t, []AggregateFunction{AggregateCount}, AggregateFunctionsFor(ScalarBool))
	assert.ElementsMatch(t,
		[]AggregateFunction{AggregateCount, AggregateMin, AggregateMax},
		AggregateFunctionsFor(ScalarString))
	assert.ElementsMatch(t,
		[]AggregateFunction{AggregateCount, AggregateMin, AggregateMax, AggregateAvg, AggregateSum},
		AggregateFunctionsFor(ScalarInt))
}

func TestRepresentationOf(t *testing.T) {
	rep, ok := RepresentationOf(ScalarDecimal)
	assert.True(t, ok)
	assert.Equal(t, RepBigDecimal, rep)

	_, ok = RepresentationOf(ScalarRegex)
	assert.False(t, ok)
}
