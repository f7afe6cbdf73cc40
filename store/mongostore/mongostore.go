// Package mongostore is the document-store destination: canonical
// records are grouped by collection and bulk-upserted (find-by-id,
// replace) into mongodb.
package mongostore

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/bcampbell/regomat/record"
	"github.com/bcampbell/regomat/store"
)

const DefaultBulkLimit = 50000

// Upserter is the slice of the mongo client we need. Broken out so
// tests can fake the server.
type Upserter interface {
	Ping(ctx context.Context) error
	BulkUpsert(ctx context.Context, collection string, models []mongo.WriteModel) (*mongo.BulkWriteResult, error)
	Disconnect(ctx context.Context) error
}

type clientUpserter struct {
	client *mongo.Client
	dbName string
}

func (cu *clientUpserter) Ping(ctx context.Context) error {
	return cu.client.Ping(ctx, nil)
}

func (cu *clientUpserter) BulkUpsert(ctx context.Context, collection string, models []mongo.WriteModel) (*mongo.BulkWriteResult, error) {
	coll := cu.client.Database(cu.dbName).Collection(collection)
	return coll.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
}

func (cu *clientUpserter) Disconnect(ctx context.Context) error {
	return cu.client.Disconnect(ctx)
}

// NewUpserter connects to a mongodb database.
func NewUpserter(ctx context.Context, uri, dbName string) (Upserter, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	return &clientUpserter{client: client, dbName: dbName}, nil
}

// MongoStore implements store.Writer against a document store.
type MongoStore struct {
	upserter Upserter

	// BulkLimit is the per-collection pending-document count which
	// triggers a bulk write.
	BulkLimit int

	stats *store.Stats
	log   *zap.SugaredLogger

	pending map[string][]mongo.WriteModel
}

func New(upserter Upserter, stats *store.Stats, log *zap.SugaredLogger) *MongoStore {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if stats == nil {
		stats = store.NewStats()
	}
	return &MongoStore{
		upserter:  upserter,
		BulkLimit: DefaultBulkLimit,
		stats:     stats,
		log:       log,
	}
}

// Open verifies the server is reachable. Failure here disables the
// destination for the whole run.
func (ms *MongoStore) Open(ctx context.Context, run store.RunInfo) error {
	if err := ms.upserter.Ping(ctx); err != nil {
		return fmt.Errorf("mongodb connection failed: %w", err)
	}
	ms.pending = map[string][]mongo.WriteModel{}
	return nil
}

func (ms *MongoStore) Accept(ctx context.Context, rec record.Record) error {
	collection, id, body, err := record.ToDocument(rec)
	if err != nil {
		ms.log.Warnw("[mongodb] cannot save item with no id", "error", err)
		ms.stats.Inc("mongodb/dropped_items", 1)
		return nil
	}

	doc := bson.M{"_id": id}
	for k, v := range body {
		doc[k] = v
	}

	ms.pending[collection] = append(ms.pending[collection],
		mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": id}).
			SetReplacement(doc).
			SetUpsert(true))

	if len(ms.pending[collection]) >= ms.BulkLimit {
		return ms.Flush(ctx)
	}
	return nil
}

func (ms *MongoStore) Flush(ctx context.Context) error {
	for collection, models := range ms.pending {
		if len(models) == 0 {
			continue
		}
		ms.stats.Inc("mongodb/attempted_items", int64(len(models)))

		result, err := ms.upserter.BulkUpsert(ctx, collection, models)

		var writeErrs []mongo.BulkWriteError
		if err != nil {
			// unordered bulks carry on past individual failures; dig the
			// per-document errors out and keep going
			bwe, ok := err.(mongo.BulkWriteException)
			if !ok {
				return fmt.Errorf("mongodb bulk on %s: %w", collection, err)
			}
			writeErrs = bwe.WriteErrors
		}

		if result != nil {
			for name, n := range map[string]int64{
				"inserted": result.InsertedCount,
				"matched":  result.MatchedCount,
				"modified": result.ModifiedCount,
				"removed":  result.DeletedCount,
				"upserted": result.UpsertedCount,
			} {
				if n > 0 {
					ms.log.Infow("[mongodb] wrote records",
						"outcome", name, "count", n, "collection", collection)
					ms.stats.Inc("mongodb/"+name+"_items", n)
				}
			}
		}

		if len(writeErrs) > 0 {
			ms.log.Infow("[mongodb] errors reported", "errors", len(writeErrs))
			for i, we := range writeErrs {
				if i >= 5 {
					break
				}
				ms.log.Info(we.Message)
			}
			ms.stats.Inc("mongodb/errors", int64(len(writeErrs)))
			ms.stats.Inc("errors", int64(len(writeErrs)))
		}
	}
	ms.pending = map[string][]mongo.WriteModel{}
	return nil
}

func (ms *MongoStore) Close(ctx context.Context) error {
	if err := ms.Flush(ctx); err != nil {
		return err
	}
	return ms.upserter.Disconnect(ctx)
}
