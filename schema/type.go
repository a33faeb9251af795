package schema

import "fmt"

// Type is one of Scalar, Object, ArrayOf or Nullable. It is implemented as a
// small closed set of structs rather than open interface dispatch: the
// type grammar is fixed, and a tagged variant keeps planner, compiler and
// serializer switches exhaustive.
type Type interface {
	typeTag() string
	// Equal reports structural equality. Named object types compare by
	// name; anonymous ones compare field-by-field, recursively.
	Equal(other Type) bool
	String() string
}

// ScalarT wraps a single BSON scalar kind.
type ScalarT struct {
	Scalar ScalarType
}

func (ScalarT) typeTag() string { return "scalar" }
func (s ScalarT) String() string { return string(s.Scalar) }
func (s ScalarT) Equal(other Type) bool {
	o, ok := other.(ScalarT)
	return ok && o.Scalar == s.Scalar
}

// ObjectT wraps a reference to an object type.
type ObjectT struct {
	Object *ObjectType
}

func (ObjectT) typeTag() string { return "object" }
func (o ObjectT) String() string {
	if o.Object == nil {
		return "Object(<nil>)"
	}
	if o.Object.Name != "" {
		return fmt.Sprintf("Object(%s)", o.Object.Name)
	}
	return "Object(<anonymous>)"
}
func (o ObjectT) Equal(other Type) bool {
	t, ok := other.(ObjectT)
	if !ok {
		return false
	}
	return objectTypesEqual(o.Object, t.Object)
}

// ArrayT wraps the element type of an array.
type ArrayT struct {
	ElementType Type
}

func (ArrayT) typeTag() string { return "array" }
func (a ArrayT) String() string { return fmt.Sprintf("ArrayOf(%s)", a.ElementType) }
func (a ArrayT) Equal(other Type) bool {
	o, ok := other.(ArrayT)
	return ok && a.ElementType.Equal(o.ElementType)
}

// NullableT wraps a type that additionally admits BSON null/undefined.
// Construct through [Nullable], which collapses Nullable(Nullable(T)).
type NullableT struct {
	Underlying Type
}

func (NullableT) typeTag() string { return "nullable" }
func (n NullableT) String() string { return fmt.Sprintf("Nullable(%s)", n.Underlying) }
func (n NullableT) Equal(other Type) bool {
	o, ok := other.(NullableT)
	return ok && n.Underlying.Equal(o.Underlying)
}

// Nullable constructs Nullable(t), collapsing a doubly-nullable type into a
// singly-nullable one: Nullable(Nullable(T)) == Nullable(T). This is the
// "into_nullable" operation.
func Nullable(t Type) Type {
	if already, ok := t.(NullableT); ok {
		return already
	}
	return NullableT{Underlying: t}
}

// IsNullable reports whether t admits BSON null/undefined at the top level.
func IsNullable(t Type) bool {
	_, ok := t.(NullableT)
	return ok
}

// Underlying strips one layer of Nullable, if present; otherwise returns t
// unchanged.
func Underlying(t Type) Type {
	if n, ok := t.(NullableT); ok {
		return n.Underlying
	}
	return t
}

// ElementType descends through a nested-array-of-object projection: it
// unwraps Nullable and ArrayOf layers to reach the element type a nested
// field selection applies to. If t is neither nullable nor an array, it is
// returned unchanged, a permissive fallback for under-specified
// aggregate/element type inference.
func ElementType(t Type) Type {
	switch v := t.(type) {
	case NullableT:
		return ElementType(v.Underlying)
	case ArrayT:
		return v.ElementType
	default:
		return t
	}
}

// Scalar returns t's scalar kind and whether t resolves to one, after
// stripping any Nullable wrapper.
func Scalar(t Type) (ScalarType, bool) {
	if s, ok := Underlying(t).(ScalarT); ok {
		return s.Scalar, true
	}
	return "", false
}

// Object returns t's object type and whether t resolves to one, after
// stripping any Nullable wrapper.
func Object(t Type) (*ObjectType, bool) {
	if o, ok := Underlying(t).(ObjectT); ok {
		return o.Object, true
	}
	return nil, false
}

// Array returns t's element type and whether t resolves to an array, after
// stripping any Nullable wrapper.
func Array(t Type) (Type, bool) {
	if a, ok := Underlying(t).(ArrayT); ok {
		return a.ElementType, true
	}
	return nil, false
}

// ObjectField is one declared field of an ObjectType: a name, a type, and an
// optional description. Fields are kept in an ordered slice (not a map) so
// that JSON projection → JSON object with exactly the keys
// declared in t, in declaration order") has a well-defined order to follow.
type ObjectField struct {
	Name        string
	Type        Type
	Description string
}

// ObjectType is an optional name plus an ordered field list. Anonymous
// object types (Name == "") arise from nested projections; see
// objectTypesEqual for how they compare.
type ObjectType struct {
	Name        string
	Description string
	Fields      []ObjectField
}

// FieldByName looks up a declared field, returning (field, true) if found.
func (o *ObjectType) FieldByName(name string) (ObjectField, bool) {
	if o == nil {
		return ObjectField{}, false
	}
	for _, f := range o.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return ObjectField{}, false
}

// HasValueField reports whether o has the single __value field required of
// a function-representation native query's result type.
func (o *ObjectType) HasValueField() bool {
	_, ok := o.FieldByName("__value")
	return ok
}

func objectTypesEqual(a, b *ObjectType) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if a.Name != "" || b.Name != "" {
		// A named type is only equal to another reference carrying the
		// same name: names are unique in the catalog, so
		// name equality stands in for full structural equality without
		// re-walking the field list every time.
		return a.Name == b.Name
	}
	// Anonymous object types must be compared structurally.
	if len(a.Fields) != len(b.Fields) {
		return false
	}
	bByName := make(map[string]ObjectField, len(b.Fields))
	for _, f := range b.Fields {
		bByName[f.Name] = f
	}
	for _, fa := range a.Fields {
		fb, ok := bByName[fa.Name]
		if !ok {
			return false
		}
		if !fa.Type.Equal(fb.Type) {
			return false
		}
	}
	return true
}
