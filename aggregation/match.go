package aggregation

import (
	"go.mongodb.org/mongo-driver/bson"

	"github.com/ndc-mongo/core/bsonjson"
	"github.com/ndc-mongo/core/comparison"
	"github.com/ndc-mongo/core/queryplan"
	"github.com/ndc-mongo/core/schema"
)

// CompileMatchPredicate lowers a resolved predicate tree into match-query
// form for use in a top-level $match stage. It binds literal comparison
// values through the JSON→BSON codec into their column's resolved scalar
// type (as the aggregation-expression compiler in expr.go does too); a
// binding failure here is a planning defect surfaced before the pipeline
// ever reaches the database.
func CompileMatchPredicate(pred *queryplan.Predicate) (bson.M, error) {
	if pred == nil {
		return bson.M{}, nil
	}

	switch {
	case len(pred.And) > 0:
		clauses := make(bson.A, 0, len(pred.And))
		for i := range pred.And {
			m, err := CompileMatchPredicate(&pred.And[i])
			if err != nil {
				return nil, err
			}
			clauses = append(clauses, m)
		}
		return bson.M{"$and": clauses}, nil

	case len(pred.Or) > 0:
		clauses := make(bson.A, 0, len(pred.Or))
		for i := range pred.Or {
			m, err := CompileMatchPredicate(&pred.Or[i])
			if err != nil {
				return nil, err
			}
			clauses = append(clauses, m)
		}
		return bson.M{"$or": clauses}, nil

	case pred.Not != nil:
		m, err := CompileMatchPredicate(pred.Not)
		if err != nil {
			return nil, err
		}
		return bson.M{"$nor": bson.A{m}}, nil

	case pred.Comparison != nil:
		return compileComparisonMatch(pred.Comparison)

	default:
		return bson.M{}, nil
	}
}

func compileComparisonMatch(c *queryplan.Comparison) (bson.M, error) {
	value, err := bindComparisonValue(c)
	if err != nil {
		return nil, err
	}
	return comparison.CompileMatch(c, value), nil
}

// bindComparisonValue resolves a comparison's operand to a BSON-ready value:
// a literal is converted through the codec against the column's scalar
// type, a variable reference must already have been substituted with its
// bound literal by the time compilation reaches here (see foreach.go).
func bindComparisonValue(c *queryplan.Comparison) (any, error) {
	if c.Value.IsVariable {
		return nil, &queryplan.QueryPlanError{
			Kind:   queryplan.ErrNotImplemented,
			Detail: "unbound variable reference " + c.Value.Variable + " reached the pipeline compiler",
		}
	}
	return bsonjson.ToBSON(schema.ScalarT{Scalar: c.ScalarType}, c.Value.Literal)
}
