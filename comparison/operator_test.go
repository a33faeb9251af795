package comparison

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/ndc-mongo/core/queryplan"
	"github.com/ndc-mongo/core/schema"
)

func TestCompileMatchEq(t *testing.T) {
	c := &queryplan.Comparison{
		ColumnPath: []queryplan.ResolvedPathSegment{{FieldName: "artistId"}},
		Operator:   schema.OpEq,
	}
	got := CompileMatch(c, int64(1))
	assert.Equal(t, bson.M{"artistId": bson.M{"$eq": int64(1)}}, got)
}

func TestCompileMatchIRegex(t *testing.T) {
	c := &queryplan.Comparison{
		ColumnPath: []queryplan.ResolvedPathSegment{{FieldName: "title"}},
		Operator:   schema.OpIRegex,
	}
	got := CompileMatch(c, "^abc")
	assert.Equal(t, bson.M{"title": bson.M{"$regex": "^abc", "$options": "i"}}, got)
}

func TestCompileExpressionRegex(t *testing.T) {
	c := &queryplan.Comparison{
		ColumnPath: []queryplan.ResolvedPathSegment{{FieldName: "title"}},
		Operator:   schema.OpRegex,
	}
	got := CompileExpression(c, "$title", "^abc")
	assert.Equal(t, bson.M{"$regexMatch": bson.M{"input": "$title", "regex": "^abc"}}, got)
}

func TestCompileExpressionGt(t *testing.T) {
	c := &queryplan.Comparison{
		ColumnPath: []queryplan.ResolvedPathSegment{{FieldName: "price"}},
		Operator:   schema.OpGt,
	}
	got := CompileExpression(c, "$price", 10.0)
	assert.Equal(t, bson.M{"$gt": bson.A{"$price", 10.0}}, got)
}

func TestColumnKeySkipsRelationshipHops(t *testing.T) {
	path := []queryplan.ResolvedPathSegment{
		{Relationship: "albums"},
		{FieldName: "title"},
	}
	assert.Equal(t, "title", ColumnKey(path))
}

func TestMangleNameDiffersByType(t *testing.T) {
	stringType := schema.ScalarT{Scalar: schema.ScalarString}
	intType := schema.ScalarT{Scalar: schema.ScalarInt}

	a := MangleName("artistId", stringType)
	b := MangleName("artistId", intType)
	assert.NotEqual(t, a, b)

	c := MangleName("artistId", stringType)
	assert.Equal(t, a, c, "same name and type must mangle identically")
}

func TestMangleNameStableAcrossAnonymousFieldOrder(t *testing.T) {
	a := schema.ObjectT{Object: &schema.ObjectType{Fields: []schema.ObjectField{
		{Name: "street", Type: schema.ScalarT{Scalar: schema.ScalarString}},
		{Name: "num", Type: schema.ScalarT{Scalar: schema.ScalarInt}},
	}}}
	b := schema.ObjectT{Object: &schema.ObjectType{Fields: []schema.ObjectField{
		{Name: "num", Type: schema.ScalarT{Scalar: schema.ScalarInt}},
		{Name: "street", Type: schema.ScalarT{Scalar: schema.ScalarString}},
	}}}
	assert.Equal(t, MangleName("addr", a), MangleName("addr", b))
}
