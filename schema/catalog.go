package schema

import (
	"sort"

	"github.com/pkg/errors"
	"github.com/turbot/go-kit/helpers"
)

// Representation of a native query's presence in the query surface.
type NativeQueryRepresentation string

const (
	RepresentationCollection NativeQueryRepresentation = "collection"
	RepresentationFunction   NativeQueryRepresentation = "function"
)

// Argument declares one parameter of a function, procedure or native query.
type Argument struct {
	Name        string
	Type        Type
	Description string
}

// UniquenessConstraint records a primary-key-like constraint on a
// collection, typically on its `_id: ObjectId` field. The builder stores the
// constraints a Collection is added with; it derives none itself.
type UniquenessConstraint struct {
	Name       string
	FieldNames []string
}

// Collection is a named, queryable set of documents: either a real MongoDB
// collection or a collection-representation native query.
type Collection struct {
	Name                  string
	Type                  *ObjectType
	UniquenessConstraints []UniquenessConstraint
	Description           string
	// Arguments is non-empty only for a collection-representation native
	// query (a real collection takes none).
	Arguments []Argument
}

// Function is a named, parameterized native query whose declared
// representation is RepresentationFunction. Its result object type must
// carry a __value field (enforced at catalog construction); ResultType holds
// that __value field's type.
type Function struct {
	Name        string
	Arguments   []Argument
	ResultType  Type
	Description string
}

// Procedure is a named, user-declared MongoDB command (a native mutation),
// surfaced to the query surface as a callable procedure.
type Procedure struct {
	Name        string
	Arguments   []Argument
	ResultType  Type
	Description string
}

// Catalog is the merged, immutable schema snapshot consumed by the planner,
// compiler and serializer. It is constructed once via [CatalogBuilder] and
// never mutated afterwards.
type Catalog struct {
	ObjectTypes map[string]*ObjectType
	Collections map[string]*Collection
	Functions   map[string]*Function
	Procedures  map[string]*Procedure
}

// ObjectTypeByName resolves a name in the merged object-type table.
func (c *Catalog) ObjectTypeByName(name string) (*ObjectType, bool) {
	t, ok := c.ObjectTypes[name]
	return t, ok
}

// CollectionByName resolves a real collection or collection-representation
// native query by name.
func (c *Catalog) CollectionByName(name string) (*Collection, bool) {
	col, ok := c.Collections[name]
	return col, ok
}

// FunctionByName resolves a function-representation native query by name.
func (c *Catalog) FunctionByName(name string) (*Function, bool) {
	fn, ok := c.Functions[name]
	return fn, ok
}

// nativeQueryDecl is the builder's internal representation of one
// native_queries/*.json declaration.
// The core never parses the file itself; a collaborator decodes it and
// hands the builder this struct.
type nativeQueryDecl struct {
	name           string
	arguments      []Argument
	resultTypeName string
	localTypes     map[string]*ObjectType
	representation NativeQueryRepresentation
	description    string
}

// CatalogBuilder accumulates schema object types, collections, and native
// query/mutation declarations, then validates and merges them into an
// immutable [Catalog]. Callers build a catalog once from whatever
// configuration source they use (file-tree parsing, schema introspection,
// or a hand-written test fixture) and hand the finished value to a Planner.
type CatalogBuilder struct {
	schemaObjectTypes map[string]*ObjectType
	collections       map[string]*Collection
	nativeQueries     []nativeQueryDecl
	nativeMutations   []*Procedure

	// duplicateObjectTypeNames and duplicateCollectionNames accumulate every
	// duplicate name found so far, across all Add* calls, so Build can report
	// every defect at once.
	duplicateObjectTypeNames []string
	duplicateCollectionNames []string
}

// NewCatalogBuilder returns an empty builder.
func NewCatalogBuilder() *CatalogBuilder {
	return &CatalogBuilder{
		schemaObjectTypes: map[string]*ObjectType{},
		collections:       map[string]*Collection{},
	}
}

// AddSchemaObjectType registers a named object type declared directly under
// schema/.
func (b *CatalogBuilder) AddSchemaObjectType(ot *ObjectType) *CatalogBuilder {
	if _, exists := b.schemaObjectTypes[ot.Name]; exists {
		b.duplicateObjectTypeNames = append(b.duplicateObjectTypeNames, ot.Name)
	}
	b.schemaObjectTypes[ot.Name] = ot
	return b
}

// AddCollection registers a real MongoDB collection. Its element type must
// already be registered (directly or via AddSchemaObjectType).
func (b *CatalogBuilder) AddCollection(col *Collection) *CatalogBuilder {
	if _, exists := b.collections[col.Name]; exists {
		b.duplicateCollectionNames = append(b.duplicateCollectionNames, col.Name)
	}
	b.collections[col.Name] = col
	return b
}

// AddNativeQuery registers a native query declaration: its own local object
// types (scoped to this native query), a result object type name, and a
// representation. localTypes may be nil if the native query contributes no
// object types of its own (it may reuse a schema type as its result).
func (b *CatalogBuilder) AddNativeQuery(
	name string,
	arguments []Argument,
	resultTypeName string,
	localTypes map[string]*ObjectType,
	representation NativeQueryRepresentation,
	description string,
) *CatalogBuilder {
	b.nativeQueries = append(b.nativeQueries, nativeQueryDecl{
		name:           name,
		arguments:      arguments,
		resultTypeName: resultTypeName,
		localTypes:     localTypes,
		representation: representation,
		description:    description,
	})
	return b
}

// AddNativeMutation registers a native mutation, surfaced as a procedure.
// localTypes, like AddNativeQuery, are scoped to this declaration.
func (b *CatalogBuilder) AddNativeMutation(proc *Procedure, localTypes map[string]*ObjectType) *CatalogBuilder {
	b.nativeMutations = append(b.nativeMutations, proc)
	for name, ot := range localTypes {
		if _, exists := b.schemaObjectTypes[name]; exists {
			b.duplicateObjectTypeNames = append(b.duplicateObjectTypeNames, name)
		}
		b.schemaObjectTypes[name] = ot
	}
	return b
}

// Build validates every accumulated declaration and merges it into a
// Catalog. All defects found (duplicate object-type names, duplicate
// collection names, a function-representation native query whose result
// lacks __value, or a reference to an undefined object type) are collected
// into a single error; Build never stops at the first one.
func (b *CatalogBuilder) Build() (*Catalog, error) {
	var errs []error

	// merge native-query-local object types into the same flat table,
	// detecting duplicates across schema ∪ native-query-local ∪
	// native-mutation-local.
	for _, nq := range b.nativeQueries {
		for name, ot := range nq.localTypes {
			if _, exists := b.schemaObjectTypes[name]; exists {
				b.duplicateObjectTypeNames = append(b.duplicateObjectTypeNames, name)
			}
			b.schemaObjectTypes[name] = ot
		}
	}

	if len(b.duplicateObjectTypeNames) > 0 {
		errs = append(errs, &ConfigurationError{
			Kind:  ErrDuplicateObjectType,
			Names: dedupSorted(b.duplicateObjectTypeNames),
		})
	}
	if len(b.duplicateCollectionNames) > 0 {
		errs = append(errs, &ConfigurationError{
			Kind:  ErrDuplicateCollection,
			Names: dedupSorted(b.duplicateCollectionNames),
		})
	}

	functions := map[string]*Function{}
	for _, nq := range b.nativeQueries {
		resultType, ok := b.schemaObjectTypes[nq.resultTypeName]
		if !ok {
			errs = append(errs, &ConfigurationError{
				Kind:  ErrUndefinedObjectType,
				Names: []string{nq.resultTypeName},
			})
			continue
		}

		switch nq.representation {
		case RepresentationFunction:
			if !resultType.HasValueField() {
				errs = append(errs, &ConfigurationError{
					Kind:  ErrMissingField,
					Names: []string{nq.name},
				})
				continue
			}
			valueField, _ := resultType.FieldByName("__value")
			functions[nq.name] = &Function{
				Name:        nq.name,
				Arguments:   nq.arguments,
				ResultType:  valueField.Type,
				Description: nq.description,
			}
		case RepresentationCollection:
			if _, exists := b.collections[nq.name]; exists {
				if !contains(b.duplicateCollectionNames, nq.name) {
					b.duplicateCollectionNames = append(b.duplicateCollectionNames, nq.name)
					errs = append(errs, &ConfigurationError{Kind: ErrDuplicateCollection, Names: []string{nq.name}})
				}
				continue
			}
			b.collections[nq.name] = &Collection{
				Name:        nq.name,
				Type:        resultType,
				Arguments:   nq.arguments,
				Description: nq.description,
			}
		default:
			errs = append(errs, errors.Errorf("native query %q: unknown representation %q", nq.name, nq.representation))
		}
	}

	// Validate that every object field referencing an object type by name
	// resolves (covers collections' element types transitively via Object
	// fields, and the collections/functions themselves).
	for _, col := range b.collections {
		if col.Type != nil {
			walkObjectTypeRefs(col.Type, b.schemaObjectTypes, &errs, map[string]bool{})
		}
	}

	procedures := map[string]*Procedure{}
	for _, proc := range b.nativeMutations {
		procedures[proc.Name] = proc
	}

	if len(errs) > 0 {
		return nil, joinConfigErrors(errs)
	}

	return &Catalog{
		ObjectTypes: b.schemaObjectTypes,
		Collections: b.collections,
		Functions:   functions,
		Procedures:  procedures,
	}, nil
}

// walkObjectTypeRefs recursively checks that every named object type
// reachable from t is present in the table, recording ErrUndefinedObjectType
// for any that are not.
func walkObjectTypeRefs(t *ObjectType, table map[string]*ObjectType, errs *[]error, seen map[string]bool) {
	if t == nil {
		return
	}
	if t.Name != "" {
		if seen[t.Name] {
			return
		}
		seen[t.Name] = true
		if _, ok := table[t.Name]; !ok {
			*errs = append(*errs, &ConfigurationError{Kind: ErrUndefinedObjectType, Names: []string{t.Name}})
			return
		}
	}
	for _, f := range t.Fields {
		walkTypeRefs(f.Type, table, errs, seen)
	}
}

func walkTypeRefs(t Type, table map[string]*ObjectType, errs *[]error, seen map[string]bool) {
	switch v := t.(type) {
	case NullableT:
		walkTypeRefs(v.Underlying, table, errs, seen)
	case ArrayT:
		walkTypeRefs(v.ElementType, table, errs, seen)
	case ObjectT:
		walkObjectTypeRefs(v.Object, table, errs, seen)
	}
}

func contains(ss []string, s string) bool {
	return helpers.StringSliceContains(ss, s)
}

func dedupSorted(names []string) []string {
	set := map[string]bool{}
	for _, n := range names {
		set[n] = true
	}
	out := make([]string, 0, len(set))
	for n := range set {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func joinConfigErrors(errs []error) error {
	msg := "catalog validation failed:"
	for _, e := range errs {
		msg += "\n  - " + e.Error()
	}
	return errors.New(msg)
}
