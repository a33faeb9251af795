package comparison

import (
	"go.mongodb.org/mongo-driver/bson"

	"github.com/ndc-mongo/core/queryplan"
	"github.com/ndc-mongo/core/schema"
)

// ColumnKey renders a resolved column path as a dotted Mongo field key for
// use inside a document already joined up to that point (the common case:
// every segment is a plain field name, because a path that crosses a
// relationship is matched post-$lookup by the pipeline compiler, not here).
func ColumnKey(path []queryplan.ResolvedPathSegment) string {
	key := ""
	for i, seg := range path {
		if seg.Relationship != "" {
			continue
		}
		if i > 0 && key != "" {
			key += "."
		}
		key += seg.FieldName
	}
	return key
}

// CompileMatch lowers a resolved comparison into match-query form, suitable
// for a top-level $match stage: `{ column: { $op: value } }`. value must
// already be a BSON-ready literal or a `$$v_...` variable reference string.
func CompileMatch(c *queryplan.Comparison, value any) bson.M {
	key := ColumnKey(c.ColumnPath)

	switch c.Operator {
	case schema.OpRegex:
		return bson.M{key: bson.M{"$regex": value}}
	case schema.OpIRegex:
		return bson.M{key: bson.M{"$regex": value, "$options": "i"}}
	default:
		return bson.M{key: bson.M{matchOperatorName(c.Operator): value}}
	}
}

// CompileExpression lowers a resolved comparison into aggregation-expression
// form, suitable for use inside a $replaceWith, $facet branch condition, or
// any other stage that evaluates expressions rather than a match document:
// `{ $op: [columnExpr, value] }`. columnExpr is the `$field` (or `$$var`)
// expression referring to the column's current value in that stage.
func CompileExpression(c *queryplan.Comparison, columnExpr string, value any) bson.M {
	switch c.Operator {
	case schema.OpRegex:
		return bson.M{"$regexMatch": bson.M{"input": columnExpr, "regex": value}}
	case schema.OpIRegex:
		return bson.M{"$regexMatch": bson.M{"input": columnExpr, "regex": value, "options": "i"}}
	default:
		return bson.M{expressionOperatorName(c.Operator): bson.A{columnExpr, value}}
	}
}

func matchOperatorName(op schema.ComparisonOperator) string {
	switch op {
	case schema.OpEq:
		return "$eq"
	case schema.OpNeq:
		return "$ne"
	case schema.OpLt:
		return "$lt"
	case schema.OpLte:
		return "$lte"
	case schema.OpGt:
		return "$gt"
	case schema.OpGte:
		return "$gte"
	default:
		return "$eq"
	}
}

func expressionOperatorName(op schema.ComparisonOperator) string {
	switch op {
	case schema.OpEq:
		return "$eq"
	case schema.OpNeq:
		return "$ne"
	case schema.OpLt:
		return "$lt"
	case schema.OpLte:
		return "$lte"
	case schema.OpGt:
		return "$gt"
	case schema.OpGte:
		return "$gte"
	default:
		return "$eq"
	}
}
