package queryplan

import "github.com/ndc-mongo/core/schema"

// MaxNestedFieldDepth bounds how many NestedField::Object/Array layers the
// planner will descend before giving up with ErrMaxNestedFieldDepth. A
// pathological request can otherwise walk an attacker-controlled selection
// tree arbitrarily deep; the catalog's own object graph is finite, but a
// client-supplied nested-field tree is not bounded by it.
const MaxNestedFieldDepth = 64

// Field is one resolved projection field: exactly one of Column or
// Relationship is set. Kept as a tagged struct, not an interface, so every
// consumer (pipeline compiler, response serializer) switches on a concrete
// shape rather than a type-asserted interface.
type Field struct {
	Column       *ColumnField
	Relationship *RelationshipField
}

// ColumnField selects a column already resolved against the catalog, with
// its full type and, for object/array columns, a nested selection.
type ColumnField struct {
	Column     string
	ColumnType schema.Type
	Fields     *NestedField
}

// NestedField narrows a column of object or array type into a sub-selection,
// mirroring NestedField::Object / NestedField::Array from the request shape
// but with every name already resolved.
type NestedField struct {
	Object *NestedObject
	Array  *NestedArray
}

// NestedObject is an ordered field selection against an ObjectType.
type NestedObject struct {
	Fields []NamedField
}

// NamedField pairs the alias the client requested with the resolved field.
type NamedField struct {
	Alias string
	Field Field
}

// NestedArray narrows the elements of an array column; Fields is nil when
// the elements are projected whole.
type NestedArray struct {
	Fields *NestedField
}

// RelationshipField traverses a relationship edge into a sub-query against
// the target collection's element type.
type RelationshipField struct {
	Relationship     string
	TargetCollection string
	Arguments        map[string]RelationshipArgumentBinding
	Query            Query
}

// Aggregate is one resolved aggregate computation.
type Aggregate struct {
	Alias      string
	Function   schema.AggregateFunction
	Column     string
	ColumnType schema.Type
	CountAll   bool
}

// ComparisonValue is a resolved predicate operand: either a literal exactly
// as the request supplied it, or a reference to a declared variable carrying
// the type inferred from the column it is compared against. The planner does
// not type-check a literal; the pipeline compiler binds it against the
// column's scalar type through the codec and fails compilation if it does
// not fit.
type ComparisonValue struct {
	IsVariable   bool
	Variable     string
	VariableType schema.Type
	Literal      any
}

// Comparison compares a resolved column path (possibly crossing
// relationships) against a value using an operator available on the
// column's scalar type.
type Comparison struct {
	ColumnPath []ResolvedPathSegment
	ScalarType schema.ScalarType
	Operator   schema.ComparisonOperator
	Value      ComparisonValue
}

// ResolvedPathSegment is one hop of a column path: a plain field name, or a
// named relationship traversed to reach a field on the far side.
type ResolvedPathSegment struct {
	FieldName    string
	Relationship string // non-empty when this hop crosses a relationship
}

// Predicate is a boolean expression tree over resolved comparisons.
type Predicate struct {
	And        []Predicate
	Or         []Predicate
	Not        *Predicate
	Comparison *Comparison
}

// OrderElement is one resolved order_by element.
type OrderElement struct {
	ColumnPath []ResolvedPathSegment
	ScalarType schema.ScalarType
	Descending bool
}

// Query is the resolved body shared by the top-level plan and every
// relationship sub-query.
type Query struct {
	Fields     []NamedField
	Aggregates []Aggregate
	Predicate  *Predicate
	OrderBy    []OrderElement
	Limit      *int64
	Offset     *int64
	Groups     []GroupBy // reserved for grouped aggregates; the planner never sets it
}

// GroupBy describes a single grouping dimension. No compiler reads Groups;
// every Query compiles as ungrouped.
type GroupBy struct {
	ColumnPath []ResolvedPathSegment
	ScalarType schema.ScalarType
}

// ForeachBinding is one resolved column/value pair within a single foreach
// row, typed against the root collection's schema so the pipeline compiler
// can bind its literal through the codec without re-consulting the catalog.
type ForeachBinding struct {
	Column     string
	ScalarType schema.ScalarType
	Literal    any
}

// VariableBinding is one resolved declaration of a request-level variable:
// its name, its inferred type (from how it's compared against a column),
// and the per-row literal values it's bound to (one per variables[] entry).
type VariableBinding struct {
	Name   string
	Type   schema.Type
	Values []any
}

// QueryPlan is the root of the resolved plan tree.
type QueryPlan struct {
	Collection    string
	RootType      schema.Type
	Query         Query
	Variables     []VariableBinding
	Foreach       [][]ForeachBinding
	Arguments     map[string]any
	Relationships map[string]RequestRelationshipDecl
}

// HasVariables reports whether this plan must be compiled via the
// variable-set / foreach fan-out rather than a single pipeline.
func (p *QueryPlan) HasVariables() bool {
	return len(p.Variables) > 0 || p.Foreach != nil
}

// HasAggregates reports whether the top-level query requests any aggregate.
func (p *QueryPlan) HasAggregates() bool {
	return len(p.Query.Aggregates) > 0
}

// BindingCount returns how many parameterized executions this plan fans out
// into: len(Variables[i].Values) if variables are used, else len(Foreach),
// else 1 for a direct, unparameterized execution.
func (p *QueryPlan) BindingCount() int {
	if len(p.Variables) > 0 {
		return len(p.Variables[0].Values)
	}
	if p.Foreach != nil {
		return len(p.Foreach)
	}
	return 1
}
