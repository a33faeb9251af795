package response

import (
	"go.mongodb.org/mongo-driver/bson"

	"github.com/ndc-mongo/core/bsonjson"
	"github.com/ndc-mongo/core/queryplan"
	"github.com/ndc-mongo/core/schema"
)

// Serialize walks plan and the documents the executor returned for it,
// dispatching on whether the plan fans out over variables/foreach and
// whether it requested aggregates, per the four shapes the pipeline
// compiler produces.
func Serialize(plan *queryplan.QueryPlan, docs []bson.M) (QueryResponse, error) {
	if len(plan.Query.Fields) == 0 && !plan.HasAggregates() {
		return nil, newErr(ErrNoFieldsSelected, "$", "query requested neither fields nor aggregates")
	}

	rowType := schema.ObjectT{Object: buildRowType(plan.Query.Fields)}

	if plan.HasVariables() {
		return serializeForeach(plan, docs, rowType)
	}
	if plan.HasAggregates() {
		return serializeAggregateDirect(plan, docs, rowType)
	}
	return serializeDirect(docs, rowType)
}

func serializeDirect(docs []bson.M, rowType schema.Type) (QueryResponse, error) {
	rows, err := convertRows(docsToSlice(docs), rowType, "$")
	if err != nil {
		return nil, err
	}
	return QueryResponse{{Rows: rows}}, nil
}

func serializeAggregateDirect(plan *queryplan.QueryPlan, docs []bson.M, rowType schema.Type) (QueryResponse, error) {
	if len(docs) != 1 {
		return nil, newErr(ErrExpectedSingleDoc, "$", "aggregate query must produce exactly one document")
	}
	set, err := convertAggregateWrapped(docs[0], plan.Query.Aggregates, rowType, "$")
	if err != nil {
		return nil, err
	}
	return QueryResponse{set}, nil
}

func serializeForeach(plan *queryplan.QueryPlan, docs []bson.M, rowType schema.Type) (QueryResponse, error) {
	if plan.BindingCount() == 0 {
		// Zero bindings compile to a literal row_sets: [] emitted once per
		// input document, so the document count carries no information.
		return QueryResponse{}, nil
	}
	if len(docs) != 1 {
		return nil, newErr(ErrExpectedSingleDoc, "$", "foreach/variable-set query must produce exactly one document")
	}

	rawSets, err := fieldAsSlice(docs[0], "row_sets", "$")
	if err != nil {
		return nil, err
	}

	out := make(QueryResponse, 0, len(rawSets))
	for i, raw := range rawSets {
		path := "$.row_sets." + itoa(i)
		if plan.HasAggregates() {
			doc, ok := asDoc(raw)
			if !ok {
				return nil, newErr(ErrBsonDeserialization, path, "expected an aggregate row-set document")
			}
			set, err := convertAggregateWrapped(doc, plan.Query.Aggregates, rowType, path)
			if err != nil {
				return nil, err
			}
			out = append(out, set)
			continue
		}

		items, ok := asSlice(raw)
		if !ok {
			return nil, newErr(ErrBsonDeserialization, path, "expected an array of rows")
		}
		rows, err := convertRows(items, rowType, path)
		if err != nil {
			return nil, err
		}
		out = append(out, RowSet{Rows: rows})
	}
	return out, nil
}

func convertAggregateWrapped(doc bson.M, aggs []queryplan.Aggregate, rowType schema.Type, path string) (RowSet, error) {
	rawRows, err := fieldAsSlice(doc, "rows", path)
	if err != nil {
		return RowSet{}, err
	}
	rows, err := convertRows(rawRows, rowType, path+".rows")
	if err != nil {
		return RowSet{}, err
	}

	rawAggs, ok := doc["aggregates"]
	if !ok {
		return RowSet{Rows: rows}, nil
	}
	aggDoc, ok := asDoc(rawAggs)
	if !ok {
		return RowSet{}, newErr(ErrAggregatesNotObject, path+".aggregates", "")
	}

	converted := make(map[string]any, len(aggs))
	for _, agg := range aggs {
		raw, ok := aggDoc[agg.Alias]
		if !ok {
			continue
		}
		v, err := bsonjson.ToJSON(aggregateResultType(agg), raw)
		if err != nil {
			return RowSet{}, newErr(ErrBsonToJson, path+".aggregates."+agg.Alias, err.Error())
		}
		converted[agg.Alias] = v
	}
	return RowSet{Rows: rows, Aggregates: converted}, nil
}

// aggregateResultType is the scalar type an aggregate function's computed
// value serializes as: count is always an integer, min/max return the
// column's own type, avg/sum serialize as Decimal over a Decimal column
// (MongoDB's $avg/$sum then produce a Decimal128) and as Double otherwise.
func aggregateResultType(agg queryplan.Aggregate) schema.Type {
	switch agg.Function {
	case schema.AggregateCount:
		return schema.ScalarT{Scalar: schema.ScalarInt}
	case schema.AggregateMin, schema.AggregateMax:
		return schema.ScalarT{Scalar: mustScalar(agg.ColumnType)}
	default:
		if mustScalar(agg.ColumnType) == schema.ScalarDecimal {
			return schema.ScalarT{Scalar: schema.ScalarDecimal}
		}
		return schema.ScalarT{Scalar: schema.ScalarDouble}
	}
}

func mustScalar(t schema.Type) schema.ScalarType {
	if s, ok := schema.Scalar(t); ok {
		return s
	}
	return schema.ScalarExtendedJSON
}

func convertRows(docs []any, rowType schema.Type, path string) ([]map[string]any, error) {
	out := make([]map[string]any, 0, len(docs))
	for i, raw := range docs {
		v, err := bsonjson.ToJSON(rowType, raw)
		if err != nil {
			return nil, newErr(ErrBsonToJson, path+"."+itoa(i), err.Error())
		}
		m, ok := asOrderedMap(v)
		if !ok {
			return nil, newErr(ErrBsonDeserialization, path+"."+itoa(i), "projected row is not an object")
		}
		out = append(out, m)
	}
	return out, nil
}

// asOrderedMap flattens a bsonjson.Object (the ordered-field-preserving
// JSON object type the codec returns for every object-typed value, at every
// nesting level) into a plain map for the response's row shape; field
// order is a JSON-encoding concern handled by bsonjson.Object's own
// MarshalJSON, not by this in-memory representation. Every nested Object,
// whether reached directly through a field or through an intervening slice
// (a NestedArray of objects, or a relationship's row list), is flattened
// the same way, so no bsonjson.Object ever survives into the returned map.
func asOrderedMap(v any) (map[string]any, bool) {
	obj, ok := v.(bsonjson.Object)
	if !ok {
		return nil, false
	}
	m := make(map[string]any, len(obj))
	for _, f := range obj {
		m[f.Key] = flattenValue(f.Value)
	}
	return m, true
}

// flattenValue recursively replaces every bsonjson.Object reachable from v
// (directly, or nested inside a slice) with a plain map[string]any, leaving
// every other value untouched.
func flattenValue(v any) any {
	switch t := v.(type) {
	case bsonjson.Object:
		m, _ := asOrderedMap(t)
		return m
	case []any:
		out := make([]any, len(t))
		for i, elem := range t {
			out[i] = flattenValue(elem)
		}
		return out
	default:
		return v
	}
}
