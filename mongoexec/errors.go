package mongoexec

import (
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
)

// MongoAgentError wraps a failure the database itself reported while
// running a compiled pipeline. It is surfaced verbatim to the client; the
// executor never retries and never tries to reinterpret a driver error into
// one of the planner's own error kinds, since by this point the request has
// already been fully validated against the catalog.
type MongoAgentError struct {
	Cause error
}

func (e *MongoAgentError) Error() string {
	return "mongodb: " + e.Cause.Error()
}

func (e *MongoAgentError) Unwrap() error {
	return e.Cause
}

// IsCommandError reports whether the underlying cause is a server-reported
// command error (as opposed to a transport/connection failure), which is
// the distinction a caller deciding whether to surface error.code needs.
func (e *MongoAgentError) IsCommandError() bool {
	var cmdErr mongo.CommandError
	return errors.As(e.Cause, &cmdErr)
}

func newMongoAgentError(cause error) *MongoAgentError {
	return &MongoAgentError{Cause: cause}
}
