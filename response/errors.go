package response

import "fmt"

// ErrorKind is the closed set of ways serialization can fail to turn
// documents the executor returned into a well-shaped QueryResponse.
type ErrorKind string

const (
	ErrAggregatesNotObject ErrorKind = "AggregatesNotObject"
	ErrExpectedSingleDoc   ErrorKind = "ExpectedSingleDocument"
	ErrBsonToJson          ErrorKind = "BsonToJson"
	ErrBsonDeserialization ErrorKind = "BsonDeserialization"
	ErrNoFieldsSelected    ErrorKind = "NoFieldsSelected"
)

// SerializationError is the single error type Serialize returns.
type SerializationError struct {
	Kind   ErrorKind
	Path   string
	Detail string
}

func (e *SerializationError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s at %s", e.Kind, e.Path)
	}
	return fmt.Sprintf("%s at %s: %s", e.Kind, e.Path, e.Detail)
}

func newErr(kind ErrorKind, path, detail string) *SerializationError {
	return &SerializationError{Kind: kind, Path: path, Detail: detail}
}
