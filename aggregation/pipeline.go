// Package aggregation is the pipeline compiler (C5): it assembles a
// [queryplan.QueryPlan] into a MongoDB aggregation pipeline, using the
// comparison package (C4) to lower predicates and the bsonjson package to
// bind literal values.
//
// Pipeline itself is an immutable, fluent stage builder in the style of
// gmqb/goodm from the reference corpus: every method returns a new Pipeline
// rather than mutating the receiver, so a partially built pipeline can be
// safely reused as the common prefix of several branches (the filtered and
// paged pipelines CompileAggregateAssembly receives depend on exactly this
// property).
package aggregation

import "go.mongodb.org/mongo-driver/bson"

// Pipeline is an ordered, immutable sequence of aggregation stages.
type Pipeline struct {
	stages []bson.D
}

// NewPipeline returns an empty pipeline.
func NewPipeline() Pipeline {
	return Pipeline{}
}

// Stages returns the pipeline as a []bson.D, ready for
// (*mongo.Collection).Aggregate.
func (p Pipeline) Stages() []bson.D {
	return p.stages
}

// IsEmpty reports whether no stages have been added.
func (p Pipeline) IsEmpty() bool {
	return len(p.stages) == 0
}

func (p Pipeline) addStage(name string, value any) Pipeline {
	next := make([]bson.D, len(p.stages), len(p.stages)+1)
	copy(next, p.stages)
	next = append(next, bson.D{{Key: name, Value: value}})
	return Pipeline{stages: next}
}

// Match appends a $match stage.
func (p Pipeline) Match(filter bson.M) Pipeline {
	return p.addStage("$match", filter)
}

// Lookup appends a $lookup stage performing a sub-pipeline join, the form
// relationship traversal always uses (rather than the localField/
// foreignField shorthand) since the join key may itself be an expression
// over the source row via $let.
func (p Pipeline) Lookup(from string, let bson.M, sub Pipeline, as string) Pipeline {
	doc := bson.D{
		{Key: "from", Value: from},
		{Key: "let", Value: let},
		{Key: "pipeline", Value: sub.stages},
		{Key: "as", Value: as},
	}
	return p.addStage("$lookup", doc)
}

// Sort appends a $sort stage. 1 means ascending, -1 descending.
func (p Pipeline) Sort(spec bson.D) Pipeline {
	return p.addStage("$sort", spec)
}

// Skip appends a $skip stage.
func (p Pipeline) Skip(n int64) Pipeline {
	return p.addStage("$skip", n)
}

// Limit appends a $limit stage.
func (p Pipeline) Limit(n int64) Pipeline {
	return p.addStage("$limit", n)
}

// Facet appends a $facet stage. Branch order is not significant to MongoDB,
// but callers that rely on positional correspondence (the foreach fan-out)
// pass branchOrder to make iteration deterministic regardless of map order.
func (p Pipeline) Facet(branches map[string]Pipeline, branchOrder []string) Pipeline {
	doc := make(bson.D, 0, len(branchOrder))
	for _, name := range branchOrder {
		doc = append(doc, bson.E{Key: name, Value: branches[name].stages})
	}
	return p.addStage("$facet", doc)
}

// ReplaceWith appends a $replaceWith stage.
func (p Pipeline) ReplaceWith(expr any) Pipeline {
	return p.addStage("$replaceWith", expr)
}
