package aggregation

import (
	"go.mongodb.org/mongo-driver/bson"

	"github.com/ndc-mongo/core/queryplan"
)

// ProjectRow builds the aggregation-expression document that projects
// fields out of a row currently referenced by root (typically "$$ROOT" at
// the top level, or a $map "$$this" inside a nested array). Every leaf
// value is wrapped in $ifNull against null so a field absent from a
// document (as opposed to one explicitly storing null) still serializes to
// an explicit JSON null rather than being silently dropped.
func ProjectRow(fields []queryplan.NamedField, root string) bson.D {
	doc := make(bson.D, 0, len(fields))
	for _, nf := range fields {
		doc = append(doc, bson.E{Key: nf.Alias, Value: projectField(nf.Field, root)})
	}
	return doc
}

func projectField(f queryplan.Field, root string) any {
	switch {
	case f.Column != nil:
		return projectColumn(f.Column, root)
	case f.Relationship != nil:
		return projectRelationship(f.Relationship)
	default:
		return nil
	}
}

func projectColumn(cf *queryplan.ColumnField, root string) any {
	path := root + "." + cf.Column
	if cf.Fields == nil {
		return bson.M{"$ifNull": bson.A{path, nil}}
	}
	return bson.M{"$ifNull": bson.A{projectNestedField(cf.Fields, path), nil}}
}

func projectNestedField(nf *queryplan.NestedField, valueExpr string) any {
	switch {
	case nf.Object != nil:
		return ProjectRow(nf.Object.Fields, valueExpr)
	case nf.Array != nil:
		as := "e"
		var inner any = "$$" + as
		if nf.Array.Fields != nil {
			inner = projectNestedField(nf.Array.Fields, "$$"+as)
		}
		return bson.M{"$map": bson.M{
			"input": valueExpr,
			"as":    as,
			"in":    inner,
		}}
	default:
		return valueExpr
	}
}

// projectRelationship references the array a $lookup stage placed at the
// relationship's field name and reshapes it into a nested row-set value:
// {rows, aggregates}. The relationship's own sub-pipeline (compiled via
// compileQuery, same as the top level) already projected every row through
// ProjectRow, so this never re-projects — it only adapts the $lookup
// array's shape to the row-set a relationship field's value must carry.
//
// Without aggregates the looked-up array already *is* the row list.  With
// aggregates, compileQuery's aggregate assembly runs once per joined parent
// row and always emits exactly one {aggregates, rows} document, so the
// looked-up array holds exactly one element that must be unwrapped.
func projectRelationship(rf *queryplan.RelationshipField) any {
	path := "$" + rf.Relationship
	if len(rf.Query.Aggregates) == 0 {
		return bson.M{"rows": path}
	}
	return bson.M{"$let": bson.M{
		"vars": bson.M{"r": bson.M{"$first": path}},
		"in": bson.M{
			"rows":       bson.M{"$ifNull": bson.A{"$$r.rows", bson.A{}}},
			"aggregates": "$$r.aggregates",
		},
	}}
}
