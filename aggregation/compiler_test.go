package aggregation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/ndc-mongo/core/queryplan"
	"github.com/ndc-mongo/core/schema"
)

func simpleTitleField() []queryplan.NamedField {
	return []queryplan.NamedField{
		{Alias: "title", Field: queryplan.Field{Column: &queryplan.ColumnField{Column: "title"}}},
	}
}

func TestCompileSingleQueryNoVariables(t *testing.T) {
	plan := &queryplan.QueryPlan{
		Collection: "tracks",
		RootType:   schema.ObjectT{},
		Query:      queryplan.Query{Fields: simpleTitleField()},
	}

	p, err := Compile(plan)
	require.NoError(t, err)
	stages := p.Stages()
	require.Len(t, stages, 1)
	assert.Equal(t, "$replaceWith", stages[0][0].Key)
}

// TestCompileForeachFanOut models two foreach bindings on artistId, one
// facet branch per binding, each filtering on its own literal value.
func TestCompileForeachFanOut(t *testing.T) {
	plan := &queryplan.QueryPlan{
		Collection: "tracks",
		RootType:   schema.ObjectT{},
		Query:      queryplan.Query{Fields: simpleTitleField()},
		Foreach: [][]queryplan.ForeachBinding{
			{{Column: "artistId", ScalarType: schema.ScalarInt, Literal: int32(1)}},
			{{Column: "artistId", ScalarType: schema.ScalarInt, Literal: int32(2)}},
		},
	}

	p, err := Compile(plan)
	require.NoError(t, err)
	stages := p.Stages()
	require.Len(t, stages, 2) // $facet, $replaceWith

	facetDoc := stages[0][0].Value.(bson.D)
	require.Len(t, facetDoc, 2)
	assert.Equal(t, "__FACET___0", facetDoc[0].Key)
	assert.Equal(t, "__FACET___1", facetDoc[1].Key)

	branch0 := facetDoc[0].Value.([]bson.D)
	matchFilter := branch0[0][0].Value.(bson.M)
	andClauses := matchFilter["$and"].(bson.A)
	require.Len(t, andClauses, 1)
	assert.Equal(t, bson.M{"$eq": int32(1)}, andClauses[0].(bson.M)["artistId"])

	rowSets := stages[1][0].Value.(bson.M)["row_sets"].(bson.A)
	assert.Equal(t, bson.A{"$__FACET___0", "$__FACET___1"}, rowSets)
}

func TestCompileEmptyForeachYieldsEmptyRowSetsWithoutTouchingCollection(t *testing.T) {
	plan := &queryplan.QueryPlan{
		Collection: "tracks",
		RootType:   schema.ObjectT{},
		Query:      queryplan.Query{Fields: simpleTitleField()},
		Foreach:    [][]queryplan.ForeachBinding{},
	}

	p, err := Compile(plan)
	require.NoError(t, err)
	stages := p.Stages()
	require.Len(t, stages, 1)
	assert.Equal(t, bson.M{"row_sets": bson.A{}}, stages[0][0].Value.(bson.M)["$literal"])
}

func TestCompileVariablesSubstituteLiteralPerBranch(t *testing.T) {
	plan := &queryplan.QueryPlan{
		Collection: "tracks",
		RootType:   schema.ObjectT{},
		Query: queryplan.Query{
			Fields: simpleTitleField(),
			Predicate: &queryplan.Predicate{Comparison: &queryplan.Comparison{
				ColumnPath: []queryplan.ResolvedPathSegment{{FieldName: "artistId"}},
				ScalarType: schema.ScalarInt,
				Operator:   schema.OpEq,
				Value:      queryplan.ComparisonValue{IsVariable: true, Variable: "artistId"},
			}},
		},
		Variables: []queryplan.VariableBinding{
			{Name: "artistId", Type: schema.ScalarT{Scalar: schema.ScalarInt}, Values: []any{int32(7), int32(8)}},
		},
	}

	p, err := Compile(plan)
	require.NoError(t, err)
	facetDoc := p.Stages()[0][0].Value.(bson.D)
	branch0 := facetDoc[0].Value.([]bson.D)
	filter := branch0[0][0].Value.(bson.M)["artistId"].(bson.M)
	assert.Equal(t, int32(7), filter["$eq"])
}

func TestCompileAggregatesAssemblesRowsAndAggregates(t *testing.T) {
	plan := &queryplan.QueryPlan{
		Collection: "tracks",
		RootType:   schema.ObjectT{},
		Query: queryplan.Query{
			Fields: simpleTitleField(),
			Aggregates: []queryplan.Aggregate{
				{Alias: "count", CountAll: true},
				{Alias: "avgPrice", Function: schema.AggregateAvg, Column: "price", ColumnType: schema.ScalarT{Scalar: schema.ScalarDecimal}},
			},
		},
	}

	p, err := Compile(plan)
	require.NoError(t, err)
	stages := p.Stages()
	require.Len(t, stages, 2) // $facet, $replaceWith

	facetDoc := stages[0][0].Value.(bson.D)
	assert.Equal(t, rowsBranch, facetDoc[0].Key)
	assert.Equal(t, "count", facetDoc[1].Key)
	assert.Equal(t, "avgPrice", facetDoc[2].Key)

	assembled := stages[1][0].Value.(bson.D)
	assert.Equal(t, "rows", assembled[0].Key)
	assert.Equal(t, "aggregates", assembled[1].Key)
}
