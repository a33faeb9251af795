// Package mongoexec is the executor (C6): it hands a compiled aggregation
// pipeline to the driver and returns the raw documents it produced, with no
// retry and no interpretation of the result shape (that is the response
// serializer's job).
package mongoexec

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ndc-mongo/core/aggregation"
)

// Executor runs a compiled pipeline against a named collection. It is an
// interface so planning and pipeline-compiler tests never need a live
// deployment, matching how the catalog and planner are tested purely
// in-process.
type Executor interface {
	Aggregate(ctx context.Context, collection string, pipeline aggregation.Pipeline) ([]bson.M, error)
}

// ClientExecutor runs pipelines against a real database via a *mongo.Client.
type ClientExecutor struct {
	Client   *mongo.Client
	Database string
}

// NewClientExecutor builds an Executor bound to dbName on client.
func NewClientExecutor(client *mongo.Client, dbName string) *ClientExecutor {
	return &ClientExecutor{Client: client, Database: dbName}
}

// Aggregate runs pipeline against collection and drains the cursor fully.
// A query plan always asks for either a single assembled document
// (variables/foreach, or aggregates) or a small page of rows, so eager
// draining keeps the executor's surface to one call instead of exposing a
// cursor the caller has to remember to close.
func (e *ClientExecutor) Aggregate(ctx context.Context, collection string, pipeline aggregation.Pipeline) ([]bson.M, error) {
	coll := e.Client.Database(e.Database).Collection(collection)

	cursor, err := coll.Aggregate(ctx, pipeline.Stages(), options.Aggregate().SetAllowDiskUse(true))
	if err != nil {
		return nil, newMongoAgentError(err)
	}
	defer cursor.Close(ctx)

	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, newMongoAgentError(err)
	}
	return docs, nil
}

// Connect dials client against uri; the caller owns the returned client's
// lifetime and must Disconnect it.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(err, "connecting to mongo")
	}
	return client, nil
}
