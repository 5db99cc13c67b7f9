package provenance

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/quipucords/chaski/pkg/errors"
)

const (
	// DefaultMongoDatabase is used when no database name is configured.
	DefaultMongoDatabase = "chaski"

	recordsCollection = "crate_provenance"
	runsCollection    = "provenance_runs"
	connectTimeout    = 10 * time.Second
)

// MongoStore keeps one document per crate version and one per run.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongoStore connects to uri and verifies the connection.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	if database == "" {
		database = DefaultMongoDatabase
	}
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "connect to mongodb")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "ping mongodb")
	}
	return &MongoStore{client: client, db: client.Database(database)}, nil
}

// Save upserts each record keyed by name and version, then inserts a run
// document listing the keys it covered.
func (s *MongoStore) Save(ctx context.Context, report *Report) error {
	records := s.db.Collection(recordsCollection)
	keys := make([]string, 0, len(report.Records))
	for _, rec := range report.Records {
		filter := bson.D{{Key: "name", Value: rec.Name}, {Key: "version", Value: rec.Version}}
		update := bson.D{
			{Key: "$set", Value: rec},
			{Key: "$setOnInsert", Value: bson.D{{Key: "first_seen", Value: report.Generated}}},
		}
		if _, err := records.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true)); err != nil {
			return errors.Wrap(errors.ErrCodeNetwork, err, "upsert %s %s", rec.Name, rec.Version)
		}
		keys = append(keys, rec.Name+"@"+rec.Version)
	}

	run := bson.D{
		{Key: "_id", Value: report.RunID},
		{Key: "generated", Value: report.Generated},
		{Key: "crates", Value: keys},
		{Key: "unknown", Value: len(report.Unknown())},
	}
	if _, err := s.db.Collection(runsCollection).InsertOne(ctx, run); err != nil {
		return errors.Wrap(errors.ErrCodeNetwork, err, "record provenance run %s", report.RunID)
	}
	return nil
}

// Lookup returns the stored record for name at version.
func (s *MongoStore) Lookup(ctx context.Context, name, version string) (*Record, error) {
	var rec Record
	err := s.db.Collection(recordsCollection).
		FindOne(ctx, bson.D{{Key: "name", Value: name}, {Key: "version", Value: version}}).
		Decode(&rec)
	if err == mongo.ErrNoDocuments {
		return nil, errors.New(errors.ErrCodeNotFound, "no provenance for %s %s", name, version)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "lookup %s %s", name, version)
	}
	return &rec, nil
}

// Close disconnects the client.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
