package aggregation

import (
	"sort"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/ndc-mongo/core/comparison"
	"github.com/ndc-mongo/core/queryplan"
)

// Compile lowers a resolved query plan into an executable aggregation
// pipeline. A plan with variables or a foreach binding set fans out into one
// $facet branch per binding (see foreach.go); everything else compiles to a
// single linear pipeline.
func Compile(plan *queryplan.QueryPlan) (Pipeline, error) {
	if plan.HasVariables() {
		return compileForeach(plan)
	}
	return compileQuery(&plan.Query, plan.Relationships)
}

// compileQuery lowers one Query (the top-level plan body, or a relationship
// sub-query) into a pipeline over its own collection scope. It does not
// append the relationship $lookup itself; the caller already positioned the
// pipeline's input to the right document stream.
func compileQuery(q *queryplan.Query, relationships map[string]queryplan.RequestRelationshipDecl) (Pipeline, error) {
	p := NewPipeline()

	if q.Predicate != nil {
		filter, err := CompileMatchPredicate(q.Predicate)
		if err != nil {
			return Pipeline{}, err
		}
		p = p.Match(filter)
	}

	p, err := appendRelationshipLookups(p, q.Fields, relationships)
	if err != nil {
		return Pipeline{}, err
	}
	filtered := p

	if len(q.OrderBy) > 0 {
		p = p.Sort(compileSort(q.OrderBy))
	}

	paged := p
	if q.Offset != nil {
		paged = paged.Skip(*q.Offset)
	}
	if q.Limit != nil {
		paged = paged.Limit(*q.Limit)
	}

	if len(q.Aggregates) > 0 {
		return CompileAggregateAssembly(q, filtered, paged)
	}

	return paged.ReplaceWith(ProjectRow(q.Fields, "$$ROOT")), nil
}

func compileSort(order []queryplan.OrderElement) bson.D {
	spec := make(bson.D, 0, len(order))
	for _, o := range order {
		dir := 1
		if o.Descending {
			dir = -1
		}
		spec = append(spec, bson.E{Key: comparison.ColumnKey(o.ColumnPath), Value: dir})
	}
	return spec
}

// appendRelationshipLookups adds one $lookup per relationship field
// referenced at this level, each joining the declared column mapping via
// $let/$expr and recursively compiling the relationship's own sub-query as
// its pipeline.
func appendRelationshipLookups(p Pipeline, fields []queryplan.NamedField, relationships map[string]queryplan.RequestRelationshipDecl) (Pipeline, error) {
	names := make([]string, 0, len(fields))
	byName := map[string]*queryplan.RelationshipField{}
	for _, nf := range fields {
		if nf.Field.Relationship == nil {
			continue
		}
		rf := nf.Field.Relationship
		names = append(names, rf.Relationship)
		byName[rf.Relationship] = rf
	}
	sort.Strings(names)

	for _, name := range names {
		rf := byName[name]
		decl := relationships[rf.Relationship]

		sub, err := compileQuery(&rf.Query, relationships)
		if err != nil {
			return Pipeline{}, err
		}

		let := bson.M{}
		conds := make(bson.A, 0, len(decl.ColumnMapping))
		for _, mapping := range decl.ColumnMapping {
			varName := letVariableName(mapping.SourceColumn)
			let[varName] = "$" + mapping.SourceColumn
			conds = append(conds, bson.M{"$eq": bson.A{"$$" + varName, "$" + mapping.TargetColumn}})
		}
		joinMatch := bson.D{{Key: "$match", Value: bson.M{"$expr": bson.M{"$and": conds}}}}
		sub = Pipeline{stages: append([]bson.D{joinMatch}, sub.stages...)}

		p = p.Lookup(rf.TargetCollection, let, sub, rf.Relationship)
	}
	return p, nil
}

func letVariableName(sourceColumn string) string {
	return "lv_" + sourceColumn
}
