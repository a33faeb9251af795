package response

import (
	"github.com/ndc-mongo/core/queryplan"
	"github.com/ndc-mongo/core/schema"
)

// buildRowType constructs the synthetic, anonymous object type a selected
// field list projects to. It mirrors the compiler's own projection: a
// column with no nested selection keeps its full catalog type, one with a
// nested selection narrows to exactly the requested sub-fields (preserving
// the column's own nullability), and a relationship field becomes a
// {rows, aggregates} object over the relationship's own row type.
func buildRowType(fields []queryplan.NamedField) *schema.ObjectType {
	out := &schema.ObjectType{Fields: make([]schema.ObjectField, 0, len(fields))}
	for _, nf := range fields {
		out.Fields = append(out.Fields, schema.ObjectField{Name: nf.Alias, Type: fieldType(nf.Field)})
	}
	return out
}

func fieldType(f queryplan.Field) schema.Type {
	switch {
	case f.Column != nil:
		return columnType(f.Column)
	case f.Relationship != nil:
		return relationshipType(f.Relationship)
	default:
		return schema.ScalarT{Scalar: schema.ScalarExtendedJSON}
	}
}

func columnType(cf *queryplan.ColumnField) schema.Type {
	if cf.Fields == nil {
		return cf.ColumnType
	}

	nullable := schema.IsNullable(cf.ColumnType)
	narrowed := narrowType(schema.Underlying(cf.ColumnType), cf.Fields)
	if nullable {
		return schema.Nullable(narrowed)
	}
	return narrowed
}

// narrowType descends one NestedField layer, rebuilding the object or array
// type for exactly the requested sub-selection. underlying is the column's
// full catalog type with any outer Nullable already stripped.
func narrowType(underlying schema.Type, nf *queryplan.NestedField) schema.Type {
	switch {
	case nf.Object != nil:
		return schema.ObjectT{Object: buildRowType(nf.Object.Fields)}

	case nf.Array != nil:
		elem := schema.ElementType(underlying)
		if nf.Array.Fields == nil {
			return schema.ArrayT{ElementType: elem}
		}
		elemNullable := schema.IsNullable(elem)
		narrowedElem := narrowType(schema.Underlying(elem), nf.Array.Fields)
		if elemNullable {
			narrowedElem = schema.Nullable(narrowedElem)
		}
		return schema.ArrayT{ElementType: narrowedElem}

	default:
		return underlying
	}
}

func relationshipType(rf *queryplan.RelationshipField) schema.Type {
	rowObj := buildRowType(rf.Query.Fields)
	fields := []schema.ObjectField{
		{Name: "rows", Type: schema.ArrayT{ElementType: schema.ObjectT{Object: rowObj}}},
	}
	if len(rf.Query.Aggregates) > 0 {
		fields = append(fields, schema.ObjectField{Name: "aggregates", Type: schema.ScalarT{Scalar: schema.ScalarExtendedJSON}})
	}
	return schema.ObjectT{Object: &schema.ObjectType{Fields: fields}}
}
