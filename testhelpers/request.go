// Package testhelpers provides fluent builders for assembling
// [queryplan.QueryRequest] values in tests, cutting out the map-literal
// noise of constructing a request body by hand.
package testhelpers

import (
	"github.com/ndc-mongo/core/queryplan"
	"github.com/ndc-mongo/core/schema"
)

// RequestBuilder assembles a QueryRequest one chained call at a time.
type RequestBuilder struct {
	req queryplan.QueryRequest
}

// Request starts a builder for a request against the named collection.
func Request(collection string) *RequestBuilder {
	return &RequestBuilder{req: queryplan.QueryRequest{Target: queryplan.Target{Name: collection}}}
}

// Function starts a builder for a request against a native query function.
func Function(name string, args map[string]any) *RequestBuilder {
	return &RequestBuilder{req: queryplan.QueryRequest{
		Target: queryplan.Target{Name: name, IsFunction: true, FunctionArgs: args},
	}}
}

func (b *RequestBuilder) Query(q *QueryBuilder) *RequestBuilder {
	b.req.Query = q.Build()
	return b
}

func (b *RequestBuilder) Relationships(decls map[string]queryplan.RequestRelationshipDecl) *RequestBuilder {
	b.req.Relationships = decls
	return b
}

func (b *RequestBuilder) Variables(vars ...map[string]any) *RequestBuilder {
	b.req.Variables = vars
	return b
}

// Foreach sets an explicit (possibly empty) foreach binding list; pass no
// rows to still distinguish "foreach requested with zero bindings" from
// "foreach not requested at all" the same way the wire format does.
func (b *RequestBuilder) Foreach(rows ...map[string]any) *RequestBuilder {
	if rows == nil {
		rows = []map[string]any{}
	}
	b.req.Foreach = rows
	return b
}

func (b *RequestBuilder) Arguments(args map[string]any) *RequestBuilder {
	b.req.Arguments = args
	return b
}

func (b *RequestBuilder) Build() *queryplan.QueryRequest {
	return &b.req
}

// QueryBuilder assembles a RequestQuery, usable both for the top-level
// request and for a relationship's nested query.
type QueryBuilder struct {
	q queryplan.RequestQuery
}

func NewQuery() *QueryBuilder {
	return &QueryBuilder{}
}

func (b *QueryBuilder) Fields(fields map[string]queryplan.RequestField) *QueryBuilder {
	b.q.Fields = fields
	return b
}

func (b *QueryBuilder) Aggregates(aggregates map[string]queryplan.RequestAggregate) *QueryBuilder {
	b.q.Aggregates = aggregates
	return b
}

func (b *QueryBuilder) Predicate(p queryplan.RequestPredicate) *QueryBuilder {
	b.q.Predicate = &p
	return b
}

func (b *QueryBuilder) OrderBy(elements ...queryplan.RequestOrderElement) *QueryBuilder {
	b.q.OrderBy = elements
	return b
}

func (b *QueryBuilder) Limit(n int64) *QueryBuilder {
	b.q.Limit = &n
	return b
}

func (b *QueryBuilder) Offset(n int64) *QueryBuilder {
	b.q.Offset = &n
	return b
}

func (b *QueryBuilder) Build() queryplan.RequestQuery {
	return b.q
}

// Col is shorthand for a plain column projection with no nested selection.
func Col(column string) queryplan.RequestField {
	return queryplan.RequestField{Column: column}
}

// ColAs sets RequestField.Alias to alias. The planner names a projected
// field by its key in the Fields map, not by this value.
func ColAs(alias, column string) queryplan.RequestField {
	return queryplan.RequestField{Alias: alias, Column: column}
}

// NestedObject selects a subset of fields from an object-typed column.
func NestedObject(column string, fields map[string]queryplan.RequestField) queryplan.RequestField {
	return queryplan.RequestField{
		Column: column,
		Fields: &queryplan.RequestNestedField{Object: &queryplan.RequestNestedObject{Fields: fields}},
	}
}

// NestedArray narrows the elements of an array-typed column; pass a nil
// elementFields to project elements whole.
func NestedArray(column string, elementFields *queryplan.RequestNestedField) queryplan.RequestField {
	return queryplan.RequestField{
		Column: column,
		Fields: &queryplan.RequestNestedField{Array: &queryplan.RequestNestedArray{Fields: elementFields}},
	}
}

// Related projects through a declared relationship edge.
func Related(relationship string, query *QueryBuilder, args map[string]queryplan.RequestRelationshipArgument) queryplan.RequestField {
	q := query.Build()
	return queryplan.RequestField{
		Relationship: &queryplan.RequestRelationshipField{
			Relationship: relationship,
			Arguments:    args,
			Query:        &q,
		},
	}
}

func CountAggregate() queryplan.RequestAggregate {
	return queryplan.RequestAggregate{CountAll: true}
}

func CountColumnAggregate(column string) queryplan.RequestAggregate {
	return queryplan.RequestAggregate{Function: schema.AggregateCount, Column: column}
}

func SumAggregate(column string) queryplan.RequestAggregate {
	return queryplan.RequestAggregate{Function: schema.AggregateSum, Column: column}
}

func AvgAggregate(column string) queryplan.RequestAggregate {
	return queryplan.RequestAggregate{Function: schema.AggregateAvg, Column: column}
}

func MinAggregate(column string) queryplan.RequestAggregate {
	return queryplan.RequestAggregate{Function: schema.AggregateMin, Column: column}
}

func MaxAggregate(column string) queryplan.RequestAggregate {
	return queryplan.RequestAggregate{Function: schema.AggregateMax, Column: column}
}
