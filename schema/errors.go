package schema

import "fmt"

// ConfigurationErrorKind discriminates the fatal-at-startup defects
// enumerated in the catalog errors
type ConfigurationErrorKind string

const (
	ErrDuplicateObjectType ConfigurationErrorKind = "DuplicateObjectType"
	ErrDuplicateCollection ConfigurationErrorKind = "DuplicateCollection"
	ErrMissingField        ConfigurationErrorKind = "MissingField"
	ErrUndefinedObjectType ConfigurationErrorKind = "UndefinedObjectType"
)

// ConfigurationError is a fatal, startup-time catalog defect. Names always
// holds every offending name for Kind (e.g. every duplicated object-type
// name), never just the first.
type ConfigurationError struct {
	Kind  ConfigurationErrorKind
	Names []string
}

func (e *ConfigurationError) Error() string {
	switch e.Kind {
	case ErrDuplicateObjectType:
		return fmt.Sprintf("multiple definitions of object type(s): %v", e.Names)
	case ErrDuplicateCollection:
		return fmt.Sprintf("multiple definitions of collection(s): %v", e.Names)
	case ErrMissingField:
		return fmt.Sprintf("native quer(y/ies) missing required __value field: %v", e.Names)
	case ErrUndefinedObjectType:
		return fmt.Sprintf("reference to undefined object type(s): %v", e.Names)
	default:
		return fmt.Sprintf("configuration error (%s): %v", e.Kind, e.Names)
	}
}
