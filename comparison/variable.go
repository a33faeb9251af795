// Package comparison is the expression compiler (C4): it lowers resolved
// plan comparisons into the two MongoDB expression dialects (match-query and
// aggregation-expression) and produces type-fingerprinted variable names.
// The pipeline compiler substitutes variable values as literals in each
// facet branch and does not use those names.
package comparison

import (
	"hash/fnv"
	"sort"
	"strconv"

	"github.com/ndc-mongo/core/schema"
)

// MangleName produces the `v_<name>_<type-fingerprint>` mongo variable name
// for a request variable of name bound at type t. Two references to the same
// name under different types produce distinct mangled names. The pipeline
// compiler does not call it: its $lookup `let` bindings are named
// `lv_<source column>`.
func MangleName(name string, t schema.Type) string {
	return "v_" + name + "_" + TypeFingerprint(t)
}

// MongoVariableRef returns the `$$v_...` aggregation-expression reference for
// a mangled variable name.
func MongoVariableRef(mangledName string) string {
	return "$$" + mangledName
}

// TypeFingerprint is a deterministic, collision-resistant hash of t's
// structure, including nullability. It is not required to be
// human-readable, only stable across calls for structurally equal types, so
// a 64-bit FNV-1a hash of the type's canonical string form is enough: the
// closed, finite type grammar means two structurally different types almost
// never produce the same canonical string, and a hash collision on top of
// that is vanishingly unlikely within one request's variable set.
func TypeFingerprint(t schema.Type) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(canonicalString(t)))
	return strconv.FormatUint(h.Sum64(), 36)
}

// canonicalString renders t in a form that differs whenever t's structure
// differs, independent of object-type field declaration order for anonymous
// types (named types already compare by name, so their String() form is
// already canonical).
func canonicalString(t schema.Type) string {
	switch v := t.(type) {
	case schema.NullableT:
		return "Nullable(" + canonicalString(v.Underlying) + ")"
	case schema.ArrayT:
		return "ArrayOf(" + canonicalString(v.ElementType) + ")"
	case schema.ObjectT:
		if v.Object == nil {
			return "Object(<nil>)"
		}
		if v.Object.Name != "" {
			return "Object(" + v.Object.Name + ")"
		}
		fields := append([]schema.ObjectField(nil), v.Object.Fields...)
		sort.Slice(fields, func(i, j int) bool { return fields[i].Name < fields[j].Name })
		s := "Object{"
		for i, f := range fields {
			if i > 0 {
				s += ","
			}
			s += f.Name + ":" + canonicalString(f.Type)
		}
		return s + "}"
	case schema.ScalarT:
		return string(v.Scalar)
	default:
		return t.String()
	}
}
