package aggregation

import (
	"strconv"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/ndc-mongo/core/queryplan"
	"github.com/ndc-mongo/core/schema"
)

// compileForeach lowers a plan carrying a variable set or a foreach binding
// list into a single pipeline that fans out into one $facet branch per
// binding, then collapses the facet's output document into the row_sets
// array the response serializer expects, one element per binding in
// request order. A plan with zero bindings compiles to a single $replaceWith
// of the literal {row_sets: []}, which reads no field of the collection but
// emits one such document per input document; the response serializer
// answers a zero-binding plan with an empty response regardless.
func compileForeach(plan *queryplan.QueryPlan) (Pipeline, error) {
	count := plan.BindingCount()
	if count == 0 {
		return NewPipeline().ReplaceWith(bson.M{"$literal": bson.M{"row_sets": bson.A{}}}), nil
	}

	branches := map[string]Pipeline{}
	order := make([]string, 0, count)
	for i := 0; i < count; i++ {
		name := "__FACET___" + strconv.Itoa(i)
		order = append(order, name)

		bound, err := bindQueryForIndex(&plan.Query, plan.Variables, plan.Foreach, i)
		if err != nil {
			return Pipeline{}, err
		}
		branch, err := compileQuery(bound, plan.Relationships)
		if err != nil {
			return Pipeline{}, err
		}
		branches[name] = branch
	}

	rowSets := make(bson.A, 0, count)
	for _, name := range order {
		rowSets = append(rowSets, "$"+name)
	}

	return NewPipeline().Facet(branches, order).ReplaceWith(bson.M{"row_sets": rowSets}), nil
}

// bindQueryForIndex returns a copy of q with the variable references in q's
// own predicate resolved to their literal values for binding index i, and,
// for a plain foreach binding set, an extra equality clause per foreach
// column ANDed onto the predicate. Predicates of relationship sub-queries are
// not substituted; a variable reference there fails compilation as unbound.
func bindQueryForIndex(q *queryplan.Query, variables []queryplan.VariableBinding, foreach [][]queryplan.ForeachBinding, i int) (*queryplan.Query, error) {
	bound := *q

	if len(variables) > 0 {
		values := map[string]queryplan.ComparisonValue{}
		for _, v := range variables {
			values[v.Name] = queryplan.ComparisonValue{Literal: v.Values[i]}
		}
		bound.Predicate = substitutePredicate(q.Predicate, values)
		return &bound, nil
	}

	if i < len(foreach) {
		bound.Predicate = andPredicate(q.Predicate, foreachClause(foreach[i]))
	}
	return &bound, nil
}

// substitutePredicate deep-copies pred, replacing every variable-valued
// comparison operand with its bound literal for this facet branch.
func substitutePredicate(pred *queryplan.Predicate, values map[string]queryplan.ComparisonValue) *queryplan.Predicate {
	if pred == nil {
		return nil
	}
	out := &queryplan.Predicate{}
	for _, p := range pred.And {
		out.And = append(out.And, *substitutePredicate(&p, values))
	}
	for _, p := range pred.Or {
		out.Or = append(out.Or, *substitutePredicate(&p, values))
	}
	if pred.Not != nil {
		out.Not = substitutePredicate(pred.Not, values)
	}
	if pred.Comparison != nil {
		c := *pred.Comparison
		if c.Value.IsVariable {
			if bound, ok := values[c.Value.Variable]; ok {
				c.Value = bound
			}
		}
		out.Comparison = &c
	}
	return out
}

func andPredicate(a, b *queryplan.Predicate) *queryplan.Predicate {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	default:
		return &queryplan.Predicate{And: []queryplan.Predicate{*a, *b}}
	}
}

// foreachClause builds an And-of-equality predicate from one resolved
// foreach binding row; nil for an empty row (no columns to match on).
func foreachClause(row []queryplan.ForeachBinding) *queryplan.Predicate {
	if len(row) == 0 {
		return nil
	}
	clauses := make([]queryplan.Predicate, 0, len(row))
	for _, b := range row {
		clauses = append(clauses, queryplan.Predicate{Comparison: &queryplan.Comparison{
			ColumnPath: []queryplan.ResolvedPathSegment{{FieldName: b.Column}},
			ScalarType: b.ScalarType,
			Operator:   schema.OpEq,
			Value:      queryplan.ComparisonValue{Literal: b.Literal},
		}})
	}
	return &queryplan.Predicate{And: clauses}
}
