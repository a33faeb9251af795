package aggregation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
)

func TestPipelineIsImmutable(t *testing.T) {
	base := NewPipeline().Match(bson.M{"a": 1})
	withSort := base.Sort(bson.D{{Key: "a", Value: 1}})

	assert.Len(t, base.Stages(), 1, "appending to a derived pipeline must not mutate the base")
	assert.Len(t, withSort.Stages(), 2)
}

func TestPipelineFacetUsesExplicitBranchOrder(t *testing.T) {
	branches := map[string]Pipeline{
		"b": NewPipeline().Match(bson.M{"x": 2}),
		"a": NewPipeline().Match(bson.M{"x": 1}),
	}
	p := NewPipeline().Facet(branches, []string{"a", "b"})

	facetStage := p.Stages()[0][0].Value.(bson.D)
	assert.Equal(t, "a", facetStage[0].Key)
	assert.Equal(t, "b", facetStage[1].Key)
}

func TestPipelineLookupUsesLetAndSubPipeline(t *testing.T) {
	sub := NewPipeline().Match(bson.M{"$expr": bson.M{"$eq": bson.A{"$$v", "$target"}}})
	p := NewPipeline().Lookup("tracks", bson.M{"v": "$artistId"}, sub, "tracks")

	lookupDoc := p.Stages()[0][0].Value.(bson.D)
	assert.Equal(t, "from", lookupDoc[0].Key)
	assert.Equal(t, "tracks", lookupDoc[0].Value)
	assert.Equal(t, "pipeline", lookupDoc[2].Key)
	assert.Equal(t, sub.Stages(), lookupDoc[2].Value)
}
