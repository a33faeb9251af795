package queryplan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndc-mongo/core/schema"
)

func buildTestCatalog(t *testing.T) *schema.Catalog {
	t.Helper()

	artist := &schema.ObjectType{Name: "Artist", Fields: []schema.ObjectField{
		{Name: "_id", Type: schema.ScalarT{Scalar: schema.ScalarObjectId}},
		{Name: "name", Type: schema.ScalarT{Scalar: schema.ScalarString}},
	}}
	track := &schema.ObjectType{Name: "Track", Fields: []schema.ObjectField{
		{Name: "_id", Type: schema.ScalarT{Scalar: schema.ScalarObjectId}},
		{Name: "artistId", Type: schema.ScalarT{Scalar: schema.ScalarObjectId}},
		{Name: "albumId", Type: schema.ScalarT{Scalar: schema.ScalarObjectId}},
		{Name: "title", Type: schema.ScalarT{Scalar: schema.ScalarString}},
		{Name: "price", Type: schema.ScalarT{Scalar: schema.ScalarDecimal}},
	}}

	cat, err := schema.NewCatalogBuilder().
		AddSchemaObjectType(artist).
		AddSchemaObjectType(track).
		AddCollection(&schema.Collection{Name: "artists", Type: artist}).
		AddCollection(&schema.Collection{Name: "tracks", Type: track}).
		Build()
	require.NoError(t, err)
	return cat
}

func TestPlanSimpleColumnSelection(t *testing.T) {
	cat := buildTestCatalog(t)
	planner := NewPlanner(cat, nil)

	req := &QueryRequest{
		Target: Target{Name: "tracks"},
		Query: RequestQuery{
			Fields: map[string]RequestField{
				"albumId": {Column: "albumId"},
				"title":   {Column: "title"},
			},
		},
	}

	plan, err := planner.Plan(req)
	require.NoError(t, err)
	assert.Equal(t, "tracks", plan.Collection)
	require.Len(t, plan.Query.Fields, 2)
	assert.Equal(t, "albumId", plan.Query.Fields[0].Alias)
	assert.Equal(t, "title", plan.Query.Fields[1].Alias)
}

func TestPlanUnknownColumnFails(t *testing.T) {
	cat := buildTestCatalog(t)
	planner := NewPlanner(cat, nil)

	req := &QueryRequest{
		Target: Target{Name: "tracks"},
		Query:  RequestQuery{Fields: map[string]RequestField{"nope": {Column: "nope"}}},
	}

	_, err := planner.Plan(req)
	require.Error(t, err)
	var pe *QueryPlanError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, ErrUnknownObjectTypeField, pe.Kind)
}

func TestPlanPredicateWithVariable(t *testing.T) {
	cat := buildTestCatalog(t)
	planner := NewPlanner(cat, nil)

	req := &QueryRequest{
		Target: Target{Name: "tracks"},
		Query: RequestQuery{
			Fields: map[string]RequestField{"title": {Column: "title"}},
			Predicate: &RequestPredicate{Comparison: &RequestComparison{
				ColumnPath: []string{"artistId"},
				Operator:   schema.OpEq,
				Value:      RequestComparisonValue{IsVariable: true, Variable: "artistId"},
			}},
		},
		Variables: []map[string]any{{"artistId": "a1"}, {"artistId": "a2"}},
	}

	plan, err := planner.Plan(req)
	require.NoError(t, err)
	require.Len(t, plan.Variables, 1)
	assert.Equal(t, "artistId", plan.Variables[0].Name)
	assert.Equal(t, []any{"a1", "a2"}, plan.Variables[0].Values)
	assert.Equal(t, 2, plan.BindingCount())
}

func TestPlanForeachBindingCount(t *testing.T) {
	cat := buildTestCatalog(t)
	planner := NewPlanner(cat, nil)

	req := &QueryRequest{
		Target:  Target{Name: "tracks"},
		Query:   RequestQuery{Fields: map[string]RequestField{"title": {Column: "title"}}},
		Foreach: []map[string]any{{"artistId": 1}, {"artistId": 2}},
	}

	plan, err := planner.Plan(req)
	require.NoError(t, err)
	assert.True(t, plan.HasVariables())
	assert.Equal(t, 2, plan.BindingCount())
}

func TestPlanEmptyForeachStillFansOutWithZeroBindings(t *testing.T) {
	cat := buildTestCatalog(t)
	planner := NewPlanner(cat, nil)

	req := &QueryRequest{
		Target:  Target{Name: "tracks"},
		Query:   RequestQuery{Fields: map[string]RequestField{"title": {Column: "title"}}},
		Foreach: []map[string]any{},
	}

	plan, err := planner.Plan(req)
	require.NoError(t, err)
	assert.True(t, plan.HasVariables())
	assert.Equal(t, 0, plan.BindingCount())
}

func TestPlanRegexOperatorUnavailableOnObjectId(t *testing.T) {
	cat := buildTestCatalog(t)
	planner := NewPlanner(cat, nil)

	req := &QueryRequest{
		Target: Target{Name: "tracks"},
		Query: RequestQuery{
			Predicate: &RequestPredicate{Comparison: &RequestComparison{
				ColumnPath: []string{"artistId"},
				Operator:   schema.OpRegex,
				Value:      RequestComparisonValue{Literal: "^a"},
			}},
		},
	}
	_, err := planner.Plan(req)
	require.Error(t, err)
	var pe *QueryPlanError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, ErrUnknownComparisonOperator, pe.Kind)
}

func TestPlanVariableTypeConflictDetected(t *testing.T) {
	cat := buildTestCatalog(t)
	planner := NewPlanner(cat, nil)

	req := &QueryRequest{
		Target: Target{Name: "tracks"},
		Query: RequestQuery{
			Predicate: &RequestPredicate{And: []RequestPredicate{
				{Comparison: &RequestComparison{
					ColumnPath: []string{"artistId"},
					Operator:   schema.OpEq,
					Value:      RequestComparisonValue{IsVariable: true, Variable: "x"},
				}},
				{Comparison: &RequestComparison{
					ColumnPath: []string{"title"},
					Operator:   schema.OpEq,
					Value:      RequestComparisonValue{IsVariable: true, Variable: "x"},
				}},
			}},
		},
	}

	_, err := planner.Plan(req)
	require.Error(t, err)
	var pe *QueryPlanError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, ErrVariableTypeConflict, pe.Kind)
}
