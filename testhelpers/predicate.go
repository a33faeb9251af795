package testhelpers

import (
	"github.com/ndc-mongo/core/queryplan"
	"github.com/ndc-mongo/core/schema"
)

// And combines predicates with conjunction.
func And(preds ...queryplan.RequestPredicate) queryplan.RequestPredicate {
	return queryplan.RequestPredicate{And: preds}
}

// Or combines predicates with disjunction. Or() with no arguments yields a
// node with no clauses, which the planner rejects as an empty predicate node.
func Or(preds ...queryplan.RequestPredicate) queryplan.RequestPredicate {
	return queryplan.RequestPredicate{Or: preds}
}

func Not(p queryplan.RequestPredicate) queryplan.RequestPredicate {
	return queryplan.RequestPredicate{Not: &p}
}

// Where builds a single-column comparison against a literal value.
func Where(column string, op schema.ComparisonOperator, value any) queryplan.RequestPredicate {
	return queryplan.RequestPredicate{Comparison: &queryplan.RequestComparison{
		ColumnPath: []string{column},
		Operator:   op,
		Value:      queryplan.RequestComparisonValue{Literal: value},
	}}
}

// WhereVar builds a single-column comparison against a declared variable.
func WhereVar(column string, op schema.ComparisonOperator, variable string) queryplan.RequestPredicate {
	return queryplan.RequestPredicate{Comparison: &queryplan.RequestComparison{
		ColumnPath: []string{column},
		Operator:   op,
		Value:      queryplan.RequestComparisonValue{IsVariable: true, Variable: variable},
	}}
}

// WherePath builds a comparison against a dotted cross-relationship column
// path, e.g. WherePath([]string{"artist", "name"}, schema.OpEq, "Queen").
func WherePath(path []string, op schema.ComparisonOperator, value any) queryplan.RequestPredicate {
	return queryplan.RequestPredicate{Comparison: &queryplan.RequestComparison{
		ColumnPath: path,
		Operator:   op,
		Value:      queryplan.RequestComparisonValue{Literal: value},
	}}
}

func Eq(column string, value any) queryplan.RequestPredicate {
	return Where(column, schema.OpEq, value)
}

func Asc(columnPath ...string) queryplan.RequestOrderElement {
	return queryplan.RequestOrderElement{ColumnPath: columnPath}
}

func Desc(columnPath ...string) queryplan.RequestOrderElement {
	return queryplan.RequestOrderElement{ColumnPath: columnPath, Descending: true}
}

// ColumnRef builds a relationship argument that binds to a column on the
// source row, as opposed to a literal value.
func ColumnRef(column string) queryplan.RequestRelationshipArgument {
	return queryplan.RequestRelationshipArgument{IsColumn: true, Column: column}
}

func LiteralArg(value any) queryplan.RequestRelationshipArgument {
	return queryplan.RequestRelationshipArgument{Literal: value}
}

// JoinOn declares a relationship edge joined on a single column pair.
func JoinOn(targetCollection, sourceColumn, targetColumn string) queryplan.RequestRelationshipDecl {
	return queryplan.RequestRelationshipDecl{
		TargetCollection: targetCollection,
		ColumnMapping:    []queryplan.RelationshipArgumentBinding{{SourceColumn: sourceColumn, TargetColumn: targetColumn}},
	}
}
