package testhelpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndc-mongo/core/aggregation"
	"github.com/ndc-mongo/core/queryplan"
	"github.com/ndc-mongo/core/schema"
)

func buildCatalog(t *testing.T) *schema.Catalog {
	t.Helper()

	artist := &schema.ObjectType{Name: "Artist", Fields: []schema.ObjectField{
		{Name: "_id", Type: schema.ScalarT{Scalar: schema.ScalarObjectId}},
		{Name: "name", Type: schema.ScalarT{Scalar: schema.ScalarString}},
	}}
	track := &schema.ObjectType{Name: "Track", Fields: []schema.ObjectField{
		{Name: "_id", Type: schema.ScalarT{Scalar: schema.ScalarObjectId}},
		{Name: "artistId", Type: schema.ScalarT{Scalar: schema.ScalarObjectId}},
		{Name: "title", Type: schema.ScalarT{Scalar: schema.ScalarString}},
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

// TestBuiltRequestPlansAndCompiles exercises the builders end to end: a
// request assembled entirely through this package's fluent API must plan
// and compile exactly like the equivalent map-literal request would.
func TestBuiltRequestPlansAndCompiles(t *testing.T) {
	cat := buildCatalog(t)
	planner := queryplan.NewPlanner(cat, nil)

	req := Request("tracks").
		Query(NewQuery().
			Fields(map[string]queryplan.RequestField{
				"title": Col("title"),
			}).
			Predicate(Eq("artistId", "64f1a2b3c4d5e6f7a8b9c0d1")).
			OrderBy(Asc("title")).
			Limit(10)).
		Build()

	plan, err := planner.Plan(req)
	require.NoError(t, err)
	assert.Equal(t, "tracks", plan.Collection)
	require.Len(t, plan.Query.Fields, 1)
	assert.Equal(t, "title", plan.Query.Fields[0].Alias)

	p, err := aggregation.Compile(plan)
	require.NoError(t, err)
	require.NotEmpty(t, p.Stages())
}

func TestBuiltRequestWithRelationshipAndAggregate(t *testing.T) {
	cat := buildCatalog(t)
	planner := queryplan.NewPlanner(cat, nil)

	req := Request("artists").
		Query(NewQuery().
			Fields(map[string]queryplan.RequestField{
				"name": Col("name"),
				"tracks": Related("tracks", NewQuery().
					Fields(map[string]queryplan.RequestField{"title": Col("title")}).
					Aggregates(map[string]queryplan.RequestAggregate{"total": CountAggregate()}),
					map[string]queryplan.RequestRelationshipArgument{"artistId": ColumnRef("_id")}),
			})).
		Relationships(map[string]queryplan.RequestRelationshipDecl{
			"tracks": JoinOn("tracks", "_id", "artistId"),
		}).
		Build()

	plan, err := planner.Plan(req)
	require.NoError(t, err)

	p, err := aggregation.Compile(plan)
	require.NoError(t, err)
	require.NotEmpty(t, p.Stages())
}

func TestBuiltForeachRequestDistinguishesEmptyFromAbsent(t *testing.T) {
	cat := buildCatalog(t)
	planner := queryplan.NewPlanner(cat, nil)

	req := Request("tracks").
		Query(NewQuery().Fields(map[string]queryplan.RequestField{"title": Col("title")})).
		Foreach().
		Build()

	plan, err := planner.Plan(req)
	require.NoError(t, err)
	assert.True(t, plan.HasVariables())
	assert.Equal(t, 0, plan.BindingCount())
}
