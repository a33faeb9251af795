package queryplan

import (
	"sort"
	"strconv"

	"github.com/hashicorp/go-hclog"

	"github.com/ndc-mongo/core/schema"
)

// Planner resolves wire-shape requests against a fixed catalog. It carries
// no per-request state other than the path stack threaded through its
// recursive resolve* methods, matching the catalog's own "immutable,
// constructed once" lifecycle.
type Planner struct {
	Catalog *schema.Catalog
	Logger  hclog.Logger
}

// NewPlanner builds a Planner over cat. A nil logger is replaced with a
// discarding one so callers never need a nil check.
func NewPlanner(cat *schema.Catalog, logger hclog.Logger) *Planner {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Planner{Catalog: cat, Logger: logger}
}

// planCtx carries the mutable bookkeeping threaded through a single Plan
// call: the variable types inferred so far (for consistency checking) and
// the relationship map currently in scope.
type planCtx struct {
	relationships map[string]RequestRelationshipDecl
	varTypes      map[string]schema.Type
}

// Plan resolves req into a fully typed QueryPlan, or a *QueryPlanError
// describing the first defect encountered.
func (p *Planner) Plan(req *QueryRequest) (*QueryPlan, error) {
	collectionName, rootType, err := p.resolveTarget(req.Target)
	if err != nil {
		return nil, err
	}

	ctx := &planCtx{relationships: req.Relationships, varTypes: map[string]schema.Type{}}

	resolvedQuery, err := p.resolveQuery(rootType, &req.Query, ctx, Path{}, 0)
	if err != nil {
		return nil, err
	}

	variables, err := p.resolveVariables(req.Variables, ctx.varTypes)
	if err != nil {
		return nil, err
	}

	foreach, err := p.resolveForeach(rootType, req.Foreach)
	if err != nil {
		return nil, err
	}
	if foreach == nil && req.Variables != nil && len(variables) == 0 {
		// A variables[] list with no referenced variable (or no rows) still
		// fans out to one row set per row: empty foreach rows run the query
		// unchanged in each branch.
		foreach = make([][]ForeachBinding, len(req.Variables))
	}

	return &QueryPlan{
		Collection:    collectionName,
		RootType:      rootType,
		Query:         resolvedQuery,
		Variables:     variables,
		Foreach:       foreach,
		Arguments:     req.Arguments,
		Relationships: req.Relationships,
	}, nil
}

// resolveForeach types each raw foreach row's columns against rootType,
// which must be an object when any row is non-empty, mirroring how a
// variables[] row is typed by the comparisons that reference it, except a
// foreach column need not be referenced anywhere else in the query.
func (p *Planner) resolveForeach(rootType schema.Type, raw []map[string]any) ([][]ForeachBinding, error) {
	if raw == nil {
		return nil, nil
	}

	var objType *schema.ObjectType
	for _, row := range raw {
		if len(row) > 0 {
			var ok bool
			objType, ok = schema.Object(rootType)
			if !ok {
				return nil, newErr(ErrRootTypeIsNotObject, Path{}, "foreach")
			}
			break
		}
	}

	out := make([][]ForeachBinding, len(raw))
	for i, row := range raw {
		names := make([]string, 0, len(row))
		for name := range row {
			names = append(names, name)
		}
		sort.Strings(names)

		bindings := make([]ForeachBinding, 0, len(names))
		for _, name := range names {
			decl, ok := objType.FieldByName(name)
			if !ok {
				return nil, newErr(ErrUnknownObjectTypeField, Path{}, "foreach."+strconv.Itoa(i)+"."+name)
			}
			scalarType, ok := schema.Scalar(decl.Type)
			if !ok {
				return nil, newErr(ErrUnknownScalarType, Path{}, "foreach."+strconv.Itoa(i)+"."+name+" is not a scalar column")
			}
			bindings = append(bindings, ForeachBinding{Column: name, ScalarType: scalarType, Literal: row[name]})
		}
		out[i] = bindings
	}
	return out, nil
}

// resolveTarget looks up the request's collection or function in the
// catalog and determines the element type rows of this query are projected
// against. For a function, that element type is the declared result type of
// its __value field, per the "implicit root type" rule.
func (p *Planner) resolveTarget(t Target) (string, schema.Type, error) {
	if t.IsFunction {
		fn, ok := p.Catalog.FunctionByName(t.Name)
		if !ok {
			return "", nil, newErr(ErrUnknownCollection, Path{}, "function "+t.Name)
		}
		// The catalog already stores the __value field's type as ResultType.
		return t.Name, fn.ResultType, nil
	}

	col, ok := p.Catalog.CollectionByName(t.Name)
	if !ok {
		return "", nil, newErr(ErrUnknownCollection, Path{}, t.Name)
	}
	return t.Name, schema.ObjectT{Object: col.Type}, nil
}

// resolveQuery resolves one query body (top-level or relationship-nested)
// against rootType, which must resolve to an object type if any fields are
// requested.
func (p *Planner) resolveQuery(rootType schema.Type, rq *RequestQuery, ctx *planCtx, path Path, depth int) (Query, error) {
	var objType *schema.ObjectType
	if len(rq.Fields) > 0 {
		var ok bool
		objType, ok = schema.Object(rootType)
		if !ok {
			return Query{}, newErr(ErrRootTypeIsNotObject, path, "")
		}
	}

	fields, err := p.resolveFields(objType, rq.Fields, ctx, path, depth)
	if err != nil {
		return Query{}, err
	}

	var aggObjType *schema.ObjectType
	if len(rq.Aggregates) > 0 {
		var ok bool
		aggObjType, ok = schema.Object(rootType)
		if !ok {
			return Query{}, newErr(ErrRootTypeIsNotObject, path, "")
		}
	}
	aggregates, err := p.resolveAggregates(aggObjType, rq.Aggregates, path)
	if err != nil {
		return Query{}, err
	}

	var predicate *Predicate
	if rq.Predicate != nil {
		predObjType, ok := schema.Object(rootType)
		if !ok {
			return Query{}, newErr(ErrRootTypeIsNotObject, path, "")
		}
		predicate, err = p.resolvePredicate(predObjType, rq.Predicate, ctx, path)
		if err != nil {
			return Query{}, err
		}
	}

	var orderBy []OrderElement
	if len(rq.OrderBy) > 0 {
		orderObjType, ok := schema.Object(rootType)
		if !ok {
			return Query{}, newErr(ErrRootTypeIsNotObject, path, "")
		}
		for _, el := range rq.OrderBy {
			segs, scalarType, err := p.resolveColumnPath(orderObjType, el.ColumnPath, ctx.relationships, path)
			if err != nil {
				return Query{}, err
			}
			if !schema.IsOrderable(scalarType) {
				return Query{}, newErr(ErrUnknownComparisonOperator, path, "column of type "+string(scalarType)+" is not orderable")
			}
			orderBy = append(orderBy, OrderElement{ColumnPath: segs, ScalarType: scalarType, Descending: el.Descending})
		}
	}

	return Query{
		Fields:     fields,
		Aggregates: aggregates,
		Predicate:  predicate,
		OrderBy:    orderBy,
		Limit:      rq.Limit,
		Offset:     rq.Offset,
	}, nil
}

func (p *Planner) resolveFields(objType *schema.ObjectType, reqFields map[string]RequestField, ctx *planCtx, path Path, depth int) ([]NamedField, error) {
	if len(reqFields) == 0 {
		return nil, nil
	}
	aliases := make([]string, 0, len(reqFields))
	for alias := range reqFields {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases) // deterministic plan shape regardless of map iteration order

	out := make([]NamedField, 0, len(reqFields))
	for _, alias := range aliases {
		rf := reqFields[alias]
		fieldPath := path.child(alias)
		field, err := p.resolveField(objType, rf, ctx, fieldPath, depth)
		if err != nil {
			return nil, err
		}
		out = append(out, NamedField{Alias: alias, Field: field})
	}
	return out, nil
}

func (p *Planner) resolveField(objType *schema.ObjectType, rf RequestField, ctx *planCtx, path Path, depth int) (Field, error) {
	if rf.Relationship != nil {
		rel, err := p.resolveRelationship(rf.Relationship, ctx, path, depth)
		if err != nil {
			return Field{}, err
		}
		return Field{Relationship: rel}, nil
	}

	decl, ok := objType.FieldByName(rf.Column)
	if !ok {
		return Field{}, newErr(ErrUnknownObjectTypeField, path, rf.Column)
	}

	colField := &ColumnField{Column: rf.Column, ColumnType: decl.Type}
	if rf.Fields != nil {
		if depth+1 > MaxNestedFieldDepth {
			return Field{}, newErr(ErrMaxNestedFieldDepth, path, "")
		}
		nested, err := p.resolveNestedField(decl.Type, rf.Fields, ctx, path, depth+1)
		if err != nil {
			return Field{}, err
		}
		colField.Fields = nested
	}
	return Field{Column: colField}, nil
}

// resolveNestedField resolves a NestedField::Object or NestedField::Array
// selection against colType, stripping one layer of Nullable before
// deciding which variant applies (nullability is tracked on the column, not
// re-derived here; the serializer propagates it from ColumnType).
func (p *Planner) resolveNestedField(colType schema.Type, rnf *RequestNestedField, ctx *planCtx, path Path, depth int) (*NestedField, error) {
	underlying := schema.Underlying(colType)

	switch {
	case rnf.Object != nil:
		objType, ok := schema.Object(underlying)
		if !ok {
			return nil, newErr(ErrExpectedObject, path, "")
		}
		fields, err := p.resolveFields(objType, rnf.Object.Fields, ctx, path, depth)
		if err != nil {
			return nil, err
		}
		return &NestedField{Object: &NestedObject{Fields: fields}}, nil

	case rnf.Array != nil:
		elemType, ok := schema.Array(underlying)
		if !ok {
			return nil, newErr(ErrExpectedArray, path, "")
		}
		var elemFields *NestedField
		if rnf.Array.Fields != nil {
			if depth+1 > MaxNestedFieldDepth {
				return nil, newErr(ErrMaxNestedFieldDepth, path, "")
			}
			var err error
			elemFields, err = p.resolveNestedField(elemType, rnf.Array.Fields, ctx, path, depth+1)
			if err != nil {
				return nil, err
			}
		}
		return &NestedField{Array: &NestedArray{Fields: elemFields}}, nil

	default:
		return nil, newErr(ErrNotImplemented, path, "empty nested field selection")
	}
}

func (p *Planner) resolveAggregates(objType *schema.ObjectType, reqAggs map[string]RequestAggregate, path Path) ([]Aggregate, error) {
	if len(reqAggs) == 0 {
		return nil, nil
	}
	aliases := make([]string, 0, len(reqAggs))
	for alias := range reqAggs {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)

	out := make([]Aggregate, 0, len(reqAggs))
	for _, alias := range aliases {
		ra := reqAggs[alias]
		aggPath := path.child(alias)
		if ra.CountAll {
			out = append(out, Aggregate{Alias: alias, Function: schema.AggregateCount, CountAll: true})
			continue
		}
		decl, ok := objType.FieldByName(ra.Column)
		if !ok {
			return nil, newErr(ErrUnknownObjectTypeField, aggPath, ra.Column)
		}
		scalarType, ok := schema.Scalar(decl.Type)
		if !ok {
			return nil, newErr(ErrUnknownScalarType, aggPath, ra.Column+" is not a scalar column")
		}
		if !schema.HasAggregateFunction(scalarType, ra.Function) {
			return nil, newErr(ErrUnknownAggregateFunction, aggPath, string(ra.Function)+" on "+string(scalarType))
		}
		out = append(out, Aggregate{Alias: alias, Function: ra.Function, Column: ra.Column, ColumnType: decl.Type})
	}
	return out, nil
}

// resolveColumnPath resolves a (possibly dotted, possibly cross-relationship)
// column path against objType, returning the resolved hop sequence and the
// terminal scalar type. Shared by predicate and order-by resolution, since
// both need identical cross-relationship path-walking semantics.
func (p *Planner) resolveColumnPath(objType *schema.ObjectType, colPath []string, relationships map[string]RequestRelationshipDecl, path Path) ([]ResolvedPathSegment, schema.ScalarType, error) {
	if len(colPath) == 0 {
		return nil, "", newErr(ErrUnknownObjectTypeField, path, "empty column path")
	}

	current := objType
	var segs []ResolvedPathSegment

	for i, name := range colPath {
		isLast := i == len(colPath)-1

		if rel, isRel := relationships[name]; isRel && !isLast {
			targetCol, ok := p.Catalog.CollectionByName(rel.TargetCollection)
			if !ok {
				return nil, "", newErr(ErrUnspecifiedRelation, path, name)
			}
			segs = append(segs, ResolvedPathSegment{Relationship: name})
			current = targetCol.Type
			continue
		}

		decl, ok := current.FieldByName(name)
		if !ok {
			return nil, "", newErr(ErrUnknownObjectTypeField, path, name)
		}

		if isLast {
			scalarType, ok := schema.Scalar(decl.Type)
			if !ok {
				return nil, "", newErr(ErrUnknownScalarType, path, name+" is not a scalar column")
			}
			segs = append(segs, ResolvedPathSegment{FieldName: name})
			return segs, scalarType, nil
		}

		nextObj, ok := schema.Object(decl.Type)
		if !ok {
			return nil, "", newErr(ErrExpectedObject, path, name)
		}
		segs = append(segs, ResolvedPathSegment{FieldName: name})
		current = nextObj
	}

	return nil, "", newErr(ErrUnknownObjectTypeField, path, "path did not terminate on a scalar field")
}

func (p *Planner) resolvePredicate(objType *schema.ObjectType, rp *RequestPredicate, ctx *planCtx, path Path) (*Predicate, error) {
	switch {
	case len(rp.And) > 0:
		clauses := make([]Predicate, 0, len(rp.And))
		for _, sub := range rp.And {
			resolved, err := p.resolvePredicate(objType, &sub, ctx, path)
			if err != nil {
				return nil, err
			}
			clauses = append(clauses, *resolved)
		}
		return &Predicate{And: clauses}, nil

	case len(rp.Or) > 0:
		clauses := make([]Predicate, 0, len(rp.Or))
		for _, sub := range rp.Or {
			resolved, err := p.resolvePredicate(objType, &sub, ctx, path)
			if err != nil {
				return nil, err
			}
			clauses = append(clauses, *resolved)
		}
		return &Predicate{Or: clauses}, nil

	case rp.Not != nil:
		resolved, err := p.resolvePredicate(objType, rp.Not, ctx, path)
		if err != nil {
			return nil, err
		}
		return &Predicate{Not: resolved}, nil

	case rp.Comparison != nil:
		return p.resolveComparison(objType, rp.Comparison, ctx, path)

	default:
		return nil, newErr(ErrNotImplemented, path, "empty predicate node")
	}
}

func (p *Planner) resolveComparison(objType *schema.ObjectType, rc *RequestComparison, ctx *planCtx, path Path) (*Predicate, error) {
	segs, scalarType, err := p.resolveColumnPath(objType, rc.ColumnPath, ctx.relationships, path)
	if err != nil {
		return nil, err
	}

	if !schema.HasComparisonOperator(scalarType, rc.Operator) {
		return nil, newErr(ErrUnknownComparisonOperator, path, string(rc.Operator)+" on "+string(scalarType))
	}

	value, err := p.resolveComparisonValue(scalarType, rc.Value, ctx, path)
	if err != nil {
		return nil, err
	}

	return &Predicate{Comparison: &Comparison{
		ColumnPath: segs,
		ScalarType: scalarType,
		Operator:   rc.Operator,
		Value:      value,
	}}, nil
}

func (p *Planner) resolveComparisonValue(scalarType schema.ScalarType, rv RequestComparisonValue, ctx *planCtx, path Path) (ComparisonValue, error) {
	if !rv.IsVariable {
		return ComparisonValue{Literal: rv.Literal}, nil
	}

	varType := schema.Type(schema.ScalarT{Scalar: scalarType})
	if existing, seen := ctx.varTypes[rv.Variable]; seen {
		if !existing.Equal(varType) {
			return ComparisonValue{}, newErr(ErrVariableTypeConflict, path, rv.Variable)
		}
	} else {
		ctx.varTypes[rv.Variable] = varType
	}

	return ComparisonValue{IsVariable: true, Variable: rv.Variable, VariableType: varType}, nil
}

// resolveRelationship looks up the named relationship edge, resolves its
// target collection's element type, and recursively resolves its nested
// query against that type.
func (p *Planner) resolveRelationship(rf *RequestRelationshipField, ctx *planCtx, path Path, depth int) (*RelationshipField, error) {
	decl, ok := ctx.relationships[rf.Relationship]
	if !ok {
		return nil, newErr(ErrUnspecifiedRelation, path, rf.Relationship)
	}

	targetCol, ok := p.Catalog.CollectionByName(decl.TargetCollection)
	if !ok {
		return nil, newErr(ErrUnknownCollection, path, decl.TargetCollection)
	}

	var nestedQuery Query
	if rf.Query != nil {
		var err error
		nestedQuery, err = p.resolveQuery(schema.ObjectT{Object: targetCol.Type}, rf.Query, ctx, path, depth+1)
		if err != nil {
			return nil, err
		}
	}

	bindings := make(map[string]RelationshipArgumentBinding, len(decl.ColumnMapping))
	for _, m := range decl.ColumnMapping {
		bindings[m.SourceColumn] = m
	}

	return &RelationshipField{
		Relationship:     rf.Relationship,
		TargetCollection: decl.TargetCollection,
		Arguments:        bindings,
		Query:            nestedQuery,
	}, nil
}

// resolveVariables turns the raw variables[] rows plus the types inferred
// while walking predicates into VariableBinding values: one per distinct
// variable name referenced, each carrying every row's literal value in
// request order so facet branch i can be built from Values[i].
func (p *Planner) resolveVariables(rawVariables []map[string]any, varTypes map[string]schema.Type) ([]VariableBinding, error) {
	if len(rawVariables) == 0 {
		return nil, nil
	}

	names := make([]string, 0, len(varTypes))
	for name := range varTypes {
		names = append(names, name)
	}
	sort.Strings(names)

	bindings := make([]VariableBinding, 0, len(names))
	for _, name := range names {
		values := make([]any, len(rawVariables))
		for i, row := range rawVariables {
			v, ok := row[name]
			if !ok {
				return nil, newErr(ErrUnknownVariable, Path{}, "binding "+strconv.Itoa(i)+" is missing a value for "+name)
			}
			values[i] = v
		}
		bindings = append(bindings, VariableBinding{Name: name, Type: varTypes[name], Values: values})
	}
	return bindings, nil
}
