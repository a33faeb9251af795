// Package schema is the type and catalog model shared by the planner, the
// expression and pipeline compilers, and the response serializer (C1).
//
// The scalar kind enumeration and the struct-merging idea behind
// [ObjectType] equality are adapted from the type-inference Generator in
// jreyesr/steampipe-plugin-mongodb's mongodb/analyzer package (itself ported
// from Facebook's archived mongoschema project), which already enumerates
// this exact set of BSON primitive kinds. Where that package inferred a Go
// struct field type from sampled documents, this package instead carries a
// closed, declared type through planning, compilation and serialization.
package schema

// ScalarType is a closed enumeration of MongoDB BSON scalar kinds, plus the
// distinguished ExtendedJSON escape hatch.
type ScalarType string

const (
	ScalarDouble              ScalarType = "Double"
	ScalarDecimal             ScalarType = "Decimal"
	ScalarInt                 ScalarType = "Int"
	ScalarLong                ScalarType = "Long"
	ScalarString              ScalarType = "String"
	ScalarDate                ScalarType = "Date"
	ScalarTimestamp           ScalarType = "Timestamp"
	ScalarBinData             ScalarType = "BinData"
	ScalarObjectId            ScalarType = "ObjectId"
	ScalarBool                ScalarType = "Bool"
	ScalarNull                ScalarType = "Null"
	ScalarRegex               ScalarType = "Regex"
	ScalarJavascript          ScalarType = "Javascript"
	ScalarJavascriptWithScope ScalarType = "JavascriptWithScope"
	ScalarMinKey              ScalarType = "MinKey"
	ScalarMaxKey              ScalarType = "MaxKey"
	ScalarUndefined           ScalarType = "Undefined"
	ScalarDBPointer           ScalarType = "DbPointer"
	ScalarSymbol              ScalarType = "Symbol"

	// ScalarExtendedJSON means "any BSON value, serialized as canonical
	// extended JSON". It is not a real BSON type; it is the system's escape
	// hatch for values the closed type system can't otherwise express.
	ScalarExtendedJSON ScalarType = "ExtendedJSON"
)

// AllScalarTypes lists every scalar kind the catalog can publish capabilities
// for, in declaration order. Useful for exhaustiveness checks in tests.
var AllScalarTypes = []ScalarType{
	ScalarDouble, ScalarDecimal, ScalarInt, ScalarLong, ScalarString,
	ScalarDate, ScalarTimestamp, ScalarBinData, ScalarObjectId, ScalarBool,
	ScalarNull, ScalarRegex, ScalarJavascript, ScalarJavascriptWithScope,
	ScalarMinKey, ScalarMaxKey, ScalarUndefined, ScalarDBPointer, ScalarSymbol,
	ScalarExtendedJSON,
}

var orderableScalars = map[ScalarType]bool{
	ScalarDouble: true, ScalarDecimal: true, ScalarInt: true, ScalarLong: true,
	ScalarString: true, ScalarDate: true, ScalarTimestamp: true, ScalarObjectId: true,
}

var numericScalars = map[ScalarType]bool{
	ScalarDouble: true, ScalarDecimal: true, ScalarInt: true, ScalarLong: true,
}

// comparableExtra holds the scalars that are comparable but not orderable.
var comparableExtra = map[ScalarType]bool{
	ScalarBool: true, ScalarBinData: true, ScalarObjectId: true, ScalarNull: true,
}

// IsOrderable reports whether values of this scalar kind support <, <=, >, >=
// and may appear in an order_by target.
func IsOrderable(s ScalarType) bool { return orderableScalars[s] }

// IsNumeric reports whether values of this scalar kind may be summed/averaged.
func IsNumeric(s ScalarType) bool { return numericScalars[s] }

// IsComparable reports whether values of this scalar kind support eq/neq.
// Comparable = orderable ∪ {Bool, BinData, ObjectId, Null}.
func IsComparable(s ScalarType) bool {
	return orderableScalars[s] || comparableExtra[s]
}

// Representation is a scalar type's client-visible JSON encoding tag,
// published in schema snapshots for the connector's outer (out-of-scope)
// surface. The zero value means "no representation published".
type Representation string

const (
	RepFloat64    Representation = "Float64"
	RepBigDecimal Representation = "BigDecimal"
	RepInt32      Representation = "Int32"
	RepInt64      Representation = "Int64"
	RepString     Representation = "String"
	RepTimestamp  Representation = "Timestamp"
	RepBoolean    Representation = "Boolean"
	RepJSON       Representation = "JSON"
)

var representations = map[ScalarType]Representation{
	ScalarDouble:   RepFloat64,
	ScalarDecimal:  RepBigDecimal,
	ScalarInt:      RepInt32,
	ScalarLong:     RepInt64,
	ScalarString:   RepString,
	ScalarDate:     RepTimestamp,
	ScalarObjectId: RepString,
	ScalarBool:     RepBoolean,

	ScalarExtendedJSON: RepJSON,
}

// RepresentationOf returns the scalar's published representation tag, and
// whether one is published at all. Timestamp, BinData, Null, Regex,
// Javascript(WithScope), Symbol, MinKey, MaxKey, Undefined and DbPointer
// have none: they only ever appear embedded inside an ExtendedJSON-typed
// field.
func RepresentationOf(s ScalarType) (Representation, bool) {
	r, ok := representations[s]
	return r, ok
}

// AggregateFunction names one of the fixed MongoDB accumulator functions
// that C5 can compile a plan aggregate into.
type AggregateFunction string

const (
	AggregateCount AggregateFunction = "count"
	AggregateMin   AggregateFunction = "min"
	AggregateMax   AggregateFunction = "max"
	AggregateAvg   AggregateFunction = "avg"
	AggregateSum   AggregateFunction = "sum"
)

// AggregateFunctionsFor returns the aggregate functions available on a
// column of the given scalar type. `count` is always available (it does not
// depend on the column's scalar type in the first place, but is listed here
// for symmetry with the catalog's per-scalar publication.
func AggregateFunctionsFor(s ScalarType) []AggregateFunction {
	fns := []AggregateFunction{AggregateCount}
	if IsOrderable(s) {
		fns = append(fns, AggregateMin, AggregateMax)
	}
	if IsNumeric(s) {
		fns = append(fns, AggregateAvg, AggregateSum)
	}
	return fns
}

// ComparisonOperator names one of the fixed comparison operators the
// expression compiler (C4) can lower a predicate into.
type ComparisonOperator string

const (
	OpEq     ComparisonOperator = "eq"
	OpNeq    ComparisonOperator = "neq"
	OpLt     ComparisonOperator = "lt"
	OpLte    ComparisonOperator = "lte"
	OpGt     ComparisonOperator = "gt"
	OpGte    ComparisonOperator = "gte"
	OpRegex  ComparisonOperator = "regex"
	OpIRegex ComparisonOperator = "iregex"
)

// ComparisonOperatorsFor returns the comparison operators available on a
// column of the given scalar type: eq/neq if comparable, lt/lte/gt/gte if
// orderable, regex/iregex only for String.
func ComparisonOperatorsFor(s ScalarType) []ComparisonOperator {
	var ops []ComparisonOperator
	if IsComparable(s) {
		ops = append(ops, OpEq, OpNeq)
	}
	if IsOrderable(s) {
		ops = append(ops, OpLt, OpLte, OpGt, OpGte)
	}
	if s == ScalarString {
		ops = append(ops, OpRegex, OpIRegex)
	}
	return ops
}

// HasComparisonOperator reports whether op is available on scalar type s.
func HasComparisonOperator(s ScalarType, op ComparisonOperator) bool {
	for _, o := range ComparisonOperatorsFor(s) {
		if o == op {
			return true
		}
	}
	return false
}

// HasAggregateFunction reports whether fn is available on scalar type s.
func HasAggregateFunction(s ScalarType, fn AggregateFunction) bool {
	for _, f := range AggregateFunctionsFor(s) {
		if f == fn {
			return true
		}
	}
	return false
}
