package aggregation

import (
	"go.mongodb.org/mongo-driver/bson"

	"github.com/ndc-mongo/core/comparison"
	"github.com/ndc-mongo/core/queryplan"
)

// CompileExpressionPredicate lowers a resolved predicate tree into
// aggregation-expression form ($and/$or/$not of boolean expressions), for
// use inside a $lookup sub-pipeline's $expr match alongside the join-key
// equality built from the relationship's column mapping.
func CompileExpressionPredicate(pred *queryplan.Predicate) (bson.M, error) {
	if pred == nil {
		return bson.M{"$literal": true}, nil
	}

	switch {
	case len(pred.And) > 0:
		clauses := make(bson.A, 0, len(pred.And))
		for i := range pred.And {
			e, err := CompileExpressionPredicate(&pred.And[i])
			if err != nil {
				return nil, err
			}
			clauses = append(clauses, e)
		}
		return bson.M{"$and": clauses}, nil

	case len(pred.Or) > 0:
		clauses := make(bson.A, 0, len(pred.Or))
		for i := range pred.Or {
			e, err := CompileExpressionPredicate(&pred.Or[i])
			if err != nil {
				return nil, err
			}
			clauses = append(clauses, e)
		}
		return bson.M{"$or": clauses}, nil

	case pred.Not != nil:
		e, err := CompileExpressionPredicate(pred.Not)
		if err != nil {
			return nil, err
		}
		return bson.M{"$not": bson.A{e}}, nil

	case pred.Comparison != nil:
		return compileComparisonExpression(pred.Comparison)

	default:
		return bson.M{"$literal": true}, nil
	}
}

func compileComparisonExpression(c *queryplan.Comparison) (bson.M, error) {
	value, err := bindComparisonValue(c)
	if err != nil {
		return nil, err
	}
	columnExpr := "$" + comparison.ColumnKey(c.ColumnPath)
	return comparison.CompileExpression(c, columnExpr, value), nil
}
