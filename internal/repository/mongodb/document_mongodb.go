package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"otikaapi/internal/model"
	"otikaapi/internal/repository"
)

// DocumentMongo is a MongoDB implementation of repository.DocumentStore.
// Each collection maps to a MongoDB collection of the same name; the driver
// assigns ObjectID identifiers.
type DocumentMongo struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewDocumentMongo wraps a connected client, using database name.
func NewDocumentMongo(client *mongo.Client, name string) *DocumentMongo {
	if client == nil {
		return &DocumentMongo{}
	}
	return &DocumentMongo{client: client, db: client.Database(name)}
}

var _ repository.DocumentStore = (*DocumentMongo)(nil)

// Create inserts doc and returns the hex form of the assigned _id.
func (r *DocumentMongo) Create(ctx context.Context, collection string, doc any) (string, error) {
	if r.db == nil {
		return "", repository.ErrStoreUnavailable
	}
	res, err := r.db.Collection(collection).InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", fmt.Errorf("%w: %v", repository.ErrDuplicateKey, err)
		}
		return "", fmt.Errorf("store write: %w", err)
	}
	return idString(res.InsertedID), nil
}

// Query returns documents in _id order. ObjectIDs lead with their creation
// second, so this is insertion order for driver-assigned ids.
func (r *DocumentMongo) Query(ctx context.Context, collection string, filter model.Filter, limit int) ([]model.Record, error) {
	if r.db == nil {
		return nil, repository.ErrStoreUnavailable
	}

	f := bson.M{}
	for k, v := range filter {
		f[k] = v
	}
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cur, err := r.db.Collection(collection).Find(ctx, f, opts)
	if err != nil {
		return nil, err
	}
	var docs []bson.M
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	items := make([]model.Record, 0, len(docs))
	for _, d := range docs {
		items = append(items, toRecord(d))
	}
	return items, nil
}

// EnsureUnique creates a unique ascending index on field.
func (r *DocumentMongo) EnsureUnique(ctx context.Context, collection, field string) error {
	if r.db == nil {
		return repository.ErrStoreUnavailable
	}
	_, err := r.db.Collection(collection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: field, Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uq_" + field),
	})
	if err != nil {
		return fmt.Errorf("ensure unique %s.%s: %w", collection, field, err)
	}
	return nil
}

func (r *DocumentMongo) Ping(ctx context.Context) error {
	if r.client == nil {
		return repository.ErrStoreUnavailable
	}
	return r.client.Ping(ctx, readpref.Primary())
}

func (r *DocumentMongo) Name() string {
	if r.db == nil {
		return ""
	}
	return r.db.Name()
}

func (r *DocumentMongo) CollectionNames(ctx context.Context) ([]string, error) {
	if r.db == nil {
		return nil, repository.ErrStoreUnavailable
	}
	return r.db.ListCollectionNames(ctx, bson.D{})
}

func (r *DocumentMongo) Close(ctx context.Context) error {
	if r.client == nil {
		return nil
	}
	err := r.client.Disconnect(ctx)
	if errors.Is(err, mongo.ErrClientDisconnected) {
		return nil
	}
	return err
}

// toRecord moves _id into a string "id" field and normalises nested BSON
// containers into plain maps and slices for JSON output.
func toRecord(d bson.M) model.Record {
	rec := make(model.Record, len(d))
	for k, v := range d {
		if k == "_id" {
			continue
		}
		rec[k] = plain(v)
	}
	if id, ok := d["_id"]; ok {
		rec["id"] = idString(id)
	}
	return rec
}

func plain(v any) any {
	switch t := v.(type) {
	case bson.M:
		m := make(map[string]any, len(t))
		for k, vv := range t {
			m[k] = plain(vv)
		}
		return m
	case bson.D:
		m := make(map[string]any, len(t))
		for _, e := range t {
			m[e.Key] = plain(e.Value)
		}
		return m
	case bson.A:
		out := make([]any, len(t))
		for i, vv := range t {
			out[i] = plain(vv)
		}
		return out
	case primitive.ObjectID:
		return t.Hex()
	default:
		return v
	}
}

func idString(id any) string {
	switch t := id.(type) {
	case primitive.ObjectID:
		return t.Hex()
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}
