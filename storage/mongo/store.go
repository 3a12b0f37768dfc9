// Package mongo implements storage.MetadataStore on MongoDB.
//
// Records are merged server-side: an upsert only $sets the fields present in
// the patch, so concurrent writers on different keys never contend and zero
// values never clobber stored ones.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/poiesic/scribe/core"
	"github.com/poiesic/scribe/storage"
)

// DefaultCollection holds ingest records when no collection is configured.
const DefaultCollection = "ingest_records"

// Store implements storage.MetadataStore on a MongoDB collection.
type Store struct {
	client     *mongo.Client
	collection *mongo.Collection
	logger     *slog.Logger
}

var _ storage.MetadataStore = (*Store)(nil)

// Open connects to uri and uses database/collection for records.
func Open(ctx context.Context, uri, database, collection string) (storage.MetadataStore, error) {
	if collection == "" {
		collection = DefaultCollection
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	return &Store{
		client:     client,
		collection: client.Database(database).Collection(collection),
		logger:     slog.Default().With("component", "mongo-store"),
	}, nil
}

// Close disconnects the client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// Upsert applies the patch with a single find-and-modify.
func (s *Store) Upsert(ctx context.Context, patch *core.IngestRecord) (*core.IngestRecord, error) {
	if err := core.ValidateRecord(patch); err != nil {
		return nil, err
	}

	update := buildUpdate(patch, time.Now().UTC())
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var doc recordDoc
	err := s.collection.FindOneAndUpdate(ctx, bson.M{"_id": patch.SourceID}, update, opts).Decode(&doc)
	if err != nil {
		return nil, fmt.Errorf("upsert record %s: %w", patch.SourceID, err)
	}
	return doc.toRecord(), nil
}

// Get retrieves the record for id.
func (s *Store) Get(ctx context.Context, id string) (*core.IngestRecord, error) {
	var doc recordDoc
	err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: record %s", storage.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get record %s: %w", id, err)
	}
	return doc.toRecord(), nil
}

// List returns records sorted by _id, which is the source id.
func (s *Store) List(ctx context.Context, status core.Status) ([]*core.IngestRecord, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = string(status)
	}
	cursor, err := s.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []recordDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	records := make([]*core.IngestRecord, 0, len(docs))
	for i := range docs {
		records = append(records, docs[i].toRecord())
	}
	return records, nil
}
