package aggregation

import (
	"go.mongodb.org/mongo-driver/bson"

	"github.com/ndc-mongo/core/queryplan"
	"github.com/ndc-mongo/core/schema"
)

const rowsBranch = "__ROWS__"

// CompileAggregateAssembly wraps paged (the already-filtered, sorted,
// paginated row pipeline, not yet projected) in a $facet that computes
// aggregates alongside the row set, then flattens the facet's single output
// document back into the {aggregates, rows} shape the response serializer
// expects. Each aggregate branch groups over filtered, the same matching set
// before pagination, since aggregates are computed over the whole matching
// set regardless of limit/offset.
func CompileAggregateAssembly(q *queryplan.Query, filtered, paged Pipeline) (Pipeline, error) {
	branches := map[string]Pipeline{
		rowsBranch: paged.ReplaceWith(ProjectRow(q.Fields, "$$ROOT")),
	}
	order := []string{rowsBranch}

	for _, agg := range q.Aggregates {
		branch, err := compileAggregateBranch(agg, filtered)
		if err != nil {
			return Pipeline{}, err
		}
		branches[agg.Alias] = branch
		order = append(order, agg.Alias)
	}

	assembled := bson.D{{Key: "rows", Value: "$" + rowsBranch}}
	if len(q.Aggregates) > 0 {
		aggregates := make(bson.D, 0, len(q.Aggregates))
		for _, agg := range q.Aggregates {
			aggregates = append(aggregates, bson.E{
				Key:   agg.Alias,
				Value: bson.M{"$ifNull": bson.A{bson.M{"$first": "$" + agg.Alias + ".value"}, aggregateZeroValue(agg)}},
			})
		}
		assembled = append(assembled, bson.E{Key: "aggregates", Value: aggregates})
	}

	p := NewPipeline().Facet(branches, order)
	return p.ReplaceWith(assembled), nil
}

func compileAggregateBranch(agg queryplan.Aggregate, filtered Pipeline) (Pipeline, error) {
	if agg.CountAll {
		return filtered.addStage("$count", "value"), nil
	}

	field := "$" + agg.Column
	switch agg.Function {
	case schema.AggregateCount:
		return filtered.addStage("$group", bson.D{
			{Key: "_id", Value: nil},
			{Key: "value", Value: bson.M{"$sum": bson.M{"$cond": bson.A{bson.M{"$ne": bson.A{field, nil}}, 1, 0}}}},
		}), nil
	case schema.AggregateMin:
		return filtered.addStage("$group", bson.D{{Key: "_id", Value: nil}, {Key: "value", Value: bson.M{"$min": field}}}), nil
	case schema.AggregateMax:
		return filtered.addStage("$group", bson.D{{Key: "_id", Value: nil}, {Key: "value", Value: bson.M{"$max": field}}}), nil
	case schema.AggregateAvg:
		return filtered.addStage("$group", bson.D{{Key: "_id", Value: nil}, {Key: "value", Value: bson.M{"$avg": field}}}), nil
	case schema.AggregateSum:
		return filtered.addStage("$group", bson.D{{Key: "_id", Value: nil}, {Key: "value", Value: bson.M{"$sum": field}}}), nil
	default:
		return Pipeline{}, &queryplan.QueryPlanError{
			Kind:   queryplan.ErrNotImplemented,
			Detail: "unsupported aggregate function " + string(agg.Function),
		}
	}
}

// aggregateZeroValue is the value an aggregate branch resolves to when the
// matching set is empty: $count/$group on zero input documents yields zero
// output documents, so $first on that branch is null. Count and sum replace
// that null with 0; min, max and avg have no identity element and stay null.
func aggregateZeroValue(agg queryplan.Aggregate) any {
	if agg.CountAll || agg.Function == schema.AggregateCount || agg.Function == schema.AggregateSum {
		return 0
	}
	return nil
}
