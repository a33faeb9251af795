package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDuplicateObjectTypeAcrossSchemaAndNativeMutation(t *testing.T) {
	album := &ObjectType{Name: "Album", Fields: []ObjectField{
		{Name: "title", Type: ScalarT{Scalar: ScalarString}},
	}}
	albumAgain := &ObjectType{Name: "Album", Fields: []ObjectField{
		{Name: "other", Type: ScalarT{Scalar: ScalarInt}},
	}}

	b := NewCatalogBuilder().AddSchemaObjectType(album)
	b.AddNativeMutation(
		&Procedure{Name: "hello", ResultType: ScalarT{Scalar: ScalarString}},
		map[string]*ObjectType{"Album": albumAgain},
	)

	_, err := b.Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "multiple definitions")
	assert.Contains(t, err.Error(), "Album")
}

func TestDuplicateCollectionName(t *testing.T) {
	elem := &ObjectType{Name: "Track", Fields: []ObjectField{{Name: "_id", Type: ScalarT{Scalar: ScalarObjectId}}}}
	b := NewCatalogBuilder().
		AddSchemaObjectType(elem).
		AddCollection(&Collection{Name: "tracks", Type: elem}).
		AddCollection(&Collection{Name: "tracks", Type: elem})

	_, err := b.Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tracks")
}

func TestFunctionRepresentationRequiresValueField(t *testing.T) {
	result := &ObjectType{Name: "CountResult", Fields: []ObjectField{{Name: "total", Type: ScalarT{Scalar: ScalarInt}}}}
	b := NewCatalogBuilder().
		AddSchemaObjectType(result).
		AddNativeQuery("countAll", nil, "CountResult", nil, RepresentationFunction, "")

	_, err := b.Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "countAll")
}

func TestUndefinedObjectTypeReference(t *testing.T) {
	col := &ObjectType{Name: "Playlist", Fields: []ObjectField{
		{Name: "owner", Type: ObjectT{Object: &ObjectType{Name: "User"}}},
	}}
	b := NewCatalogBuilder().
		AddSchemaObjectType(col).
		AddCollection(&Collection{Name: "playlists", Type: col})

	_, err := b.Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "User")
}

func TestValidCatalogMerge(t *testing.T) {
	track := &ObjectType{Name: "Track", Fields: []ObjectField{
		{Name: "_id", Type: ScalarT{Scalar: ScalarObjectId}},
		{Name: "albumId", Type: ScalarT{Scalar: ScalarObjectId}},
		{Name: "title", Type: ScalarT{Scalar: ScalarString}},
	}}
	countResult := &ObjectType{Name: "CountResult", Fields: []ObjectField{{Name: "__value", Type: ScalarT{Scalar: ScalarInt}}}}

	cat, err := NewCatalogBuilder().
		AddSchemaObjectType(track).
		AddSchemaObjectType(countResult).
		AddCollection(&Collection{
			Name: "tracks",
			Type: track,
			UniquenessConstraints: []UniquenessConstraint{
				{Name: "_id_", FieldNames: []string{"_id"}},
			},
		}).
		AddNativeQuery("trackCount", []Argument{{Name: "artistId", Type: ScalarT{Scalar: ScalarObjectId}}},
			"CountResult", nil, RepresentationFunction, "count tracks by artist").
		Build()

	require.NoError(t, err)
	_, ok := cat.CollectionByName("tracks")
	assert.True(t, ok)
	fn, ok := cat.FunctionByName("trackCount")
	require.True(t, ok)
	assert.Equal(t, ScalarT{Scalar: ScalarInt}, fn.ResultType)
}
