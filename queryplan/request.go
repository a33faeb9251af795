// Package queryplan resolves a wire-shape query request against a
// [schema.Catalog] into a fully typed [QueryPlan] (C3). Every subsequent
// stage — the expression compiler, the pipeline compiler, the response
// serializer — consumes the plan, never the request, so this package is
// where catalog mismatches are caught and reported with a path.
package queryplan

import "github.com/ndc-mongo/core/schema"

// Target names the collection or function a request is issued against.
type Target struct {
	Name         string
	IsFunction   bool
	FunctionArgs map[string]any
}

// RequestField is one client-requested projection field, before resolution.
// Exactly one of Column or Relationship is set.
type RequestField struct {
	Alias        string
	Column       string
	Fields       *RequestNestedField
	Relationship *RequestRelationshipField
}

// RequestNestedField selects into an object or array-of-object column.
// Exactly one of Object or Array is set.
type RequestNestedField struct {
	Object *RequestNestedObject
	Array  *RequestNestedArray
}

// RequestNestedObject selects a subset of fields from an object-typed column.
type RequestNestedObject struct {
	Fields map[string]RequestField
}

// RequestNestedArray selects into the elements of an array-typed column.
// Fields is nil when the elements themselves need no further narrowing.
type RequestNestedArray struct {
	Fields *RequestNestedField
}

// RequestRelationshipField projects through a declared relationship edge.
type RequestRelationshipField struct {
	Relationship string
	Arguments    map[string]RequestRelationshipArgument
	Query        *RequestQuery
}

// RequestRelationshipArgument is either a literal value or a reference to a
// column on the source row (used to bind the join key).
type RequestRelationshipArgument struct {
	IsColumn bool
	Column   string
	Literal  any
}

// RequestAggregate is one client-requested aggregate computation.
type RequestAggregate struct {
	Alias    string
	Function schema.AggregateFunction
	Column   string
	CountAll bool // true for a bare "count" with no column (counts all rows)
}

// RequestOrderElement is one element of an order_by clause.
type RequestOrderElement struct {
	ColumnPath []string // supports dotted cross-relationship paths
	Descending bool
}

// RequestComparisonValue is either a literal JSON value or a reference to a
// declared variable name.
type RequestComparisonValue struct {
	IsVariable bool
	Variable   string
	Literal    any
}

// RequestPredicate is a boolean expression tree over column comparisons.
// Exactly one field group is populated per node, matching the tagged-variant
// style used throughout this codebase for closed operator sets.
type RequestPredicate struct {
	And        []RequestPredicate
	Or         []RequestPredicate
	Not        *RequestPredicate
	Comparison *RequestComparison
}

// RequestComparison compares a (possibly cross-relationship) column path
// against a literal or variable value using a named operator.
type RequestComparison struct {
	ColumnPath []string
	Operator   schema.ComparisonOperator
	Value      RequestComparisonValue
}

// RequestQuery is the projection/aggregate/predicate/order/pagination body
// shared by the top-level request and every nested relationship query.
type RequestQuery struct {
	Fields     map[string]RequestField
	Aggregates map[string]RequestAggregate
	Predicate  *RequestPredicate
	OrderBy    []RequestOrderElement
	Limit      *int64
	Offset     *int64
}

// RelationshipArgumentBinding declares how a relationship's arguments are
// satisfied: each entry ties a source column to a target column (a
// foreign-key join). Only column-to-column bindings are represented.
type RelationshipArgumentBinding struct {
	SourceColumn string
	TargetColumn string
}

// RequestRelationshipDecl is a declared edge in the request's relationship
// map, named by the identifiers RequestRelationshipField.Relationship
// refers to.
type RequestRelationshipDecl struct {
	TargetCollection string
	ColumnMapping    []RelationshipArgumentBinding
}

// QueryRequest is the full wire-shape request the planner resolves.
type QueryRequest struct {
	Target        Target
	Query         RequestQuery
	Relationships map[string]RequestRelationshipDecl
	Variables     []map[string]any    // one map of variable-name -> literal value per binding
	Foreach       []map[string]any    // one map of column-name -> literal equality value per binding
	Arguments     map[string]any      // arguments bound to the collection/function itself
}
