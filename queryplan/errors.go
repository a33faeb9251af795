package queryplan

import (
	"fmt"
	"strings"
)

// Path is the breadcrumb trail of field names, aliases and relationship
// names the planner has descended through, attached to every QueryPlanError
// so a client error points at the exact offending projection or predicate.
type Path []string

func (p Path) String() string {
	if len(p) == 0 {
		return "$"
	}
	return "$." + strings.Join(p, ".")
}

func (p Path) child(seg string) Path {
	next := make(Path, len(p), len(p)+1)
	copy(next, p)
	return append(next, seg)
}

// ErrorKind is the closed set of ways a request can fail to resolve against
// the catalog.
type ErrorKind string

const (
	ErrUnknownCollection         ErrorKind = "UnknownCollection"
	ErrUnspecifiedRelation       ErrorKind = "UnspecifiedRelation"
	ErrUnknownObjectTypeField    ErrorKind = "UnknownObjectTypeField"
	ErrUnknownComparisonOperator ErrorKind = "UnknownComparisonOperator"
	ErrUnknownAggregateFunction  ErrorKind = "UnknownAggregateFunction"
	ErrUnknownScalarType         ErrorKind = "UnknownScalarType"
	ErrExpectedObject            ErrorKind = "ExpectedObject"
	ErrExpectedArray             ErrorKind = "ExpectedArray"
	ErrNotImplemented            ErrorKind = "NotImplemented"
	ErrRootTypeIsNotObject       ErrorKind = "RootTypeIsNotObject"
	ErrRelationshipUnification   ErrorKind = "RelationshipUnification"
	ErrUnknownVariable           ErrorKind = "UnknownVariable"
	ErrVariableTypeConflict      ErrorKind = "VariableTypeConflict"
	ErrArgumentBinding           ErrorKind = "ArgumentBinding"
	ErrMaxNestedFieldDepth       ErrorKind = "MaxNestedFieldDepth"
)

// QueryPlanError is the single error type the planner returns. Detail
// carries kind-specific context (a name, a feature description, and so on)
// for the client-facing message; Path locates it within the request.
type QueryPlanError struct {
	Kind   ErrorKind
	Path   Path
	Detail string
}

func (e *QueryPlanError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s at %s", e.Kind, e.Path)
	}
	return fmt.Sprintf("%s at %s: %s", e.Kind, e.Path, e.Detail)
}

func newErr(kind ErrorKind, path Path, detail string) *QueryPlanError {
	return &QueryPlanError{Kind: kind, Path: path, Detail: detail}
}

// ArgumentBindingError reports the outcome of binding a parameterized call's
// supplied arguments against its declared signature. It accumulates every
// defect rather than stopping at the first, matching the composite
// error-reporting shape used by the catalog and configuration surfaces.
type ArgumentBindingError struct {
	Excess  []string
	Missing []string
	Invalid map[string]error
}

func (e *ArgumentBindingError) HasErrors() bool {
	return len(e.Excess) > 0 || len(e.Missing) > 0 || len(e.Invalid) > 0
}

func (e *ArgumentBindingError) Error() string {
	var parts []string
	if len(e.Excess) > 0 {
		parts = append(parts, fmt.Sprintf("excess arguments: %v", e.Excess))
	}
	if len(e.Missing) > 0 {
		parts = append(parts, fmt.Sprintf("missing arguments: %v", e.Missing))
	}
	if len(e.Invalid) > 0 {
		names := make([]string, 0, len(e.Invalid))
		for name := range e.Invalid {
			names = append(names, name)
		}
		parts = append(parts, fmt.Sprintf("invalid arguments: %v", names))
	}
	return "argument binding failed: " + strings.Join(parts, "; ")
}
