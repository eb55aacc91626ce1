// Package mongodb stores hotel documents in a single MongoDB collection, one
// record per (hotelId, collection).
package mongodb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hotelops/api/internal/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collectionName = "hotel_documents"

type record struct {
	HotelID    string        `bson:"hotelId"`
	Collection string        `bson:"collection"`
	Items      bson.RawValue `bson:"items"`
	Version    int64         `bson:"version"`
	CreatedAt  time.Time     `bson:"createdAt"`
	UpdatedAt  time.Time     `bson:"updatedAt"`
}

type Backend struct {
	coll *mongo.Collection
}

func New(db *mongo.Database) *Backend {
	return &Backend{coll: db.Collection(collectionName)}
}

// Connect dials uri and verifies the connection.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

// EnsureIndexes creates the unique (hotelId, collection) index that makes
// lazy document creation race-safe.
func (b *Backend) EnsureIndexes(ctx context.Context) error {
	_, err := b.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "hotelId", Value: 1}, {Key: "collection", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("unique_hotel_collection"),
	})
	return err
}

func (b *Backend) Load(ctx context.Context, hotelID string, coll store.Collection) (store.Raw, error) {
	var rec record
	err := b.coll.FindOne(ctx, bson.M{"hotelId": hotelID, "collection": string(coll)}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return store.Raw{}, store.ErrNotFound
	}
	if err != nil {
		return store.Raw{}, fmt.Errorf("load %s/%s: %w", hotelID, coll, err)
	}
	return toRaw(rec)
}

func (b *Backend) Create(ctx context.Context, hotelID string, coll store.Collection, items []byte) (store.Raw, error) {
	arr, err := itemsToBSON(items)
	if err != nil {
		return store.Raw{}, err
	}

	now := time.Now().UTC()
	_, err = b.coll.InsertOne(ctx, bson.M{
		"hotelId":    hotelID,
		"collection": string(coll),
		"items":      arr,
		"version":    int64(1),
		"createdAt":  now,
		"updatedAt":  now,
	})
	if mongo.IsDuplicateKeyError(err) {
		return store.Raw{}, store.ErrExists
	}
	if err != nil {
		return store.Raw{}, fmt.Errorf("create %s/%s: %w", hotelID, coll, err)
	}
	return store.Raw{Items: items, Version: 1, CreatedAt: now, UpdatedAt: now}, nil
}

func (b *Backend) Save(ctx context.Context, hotelID string, coll store.Collection, items []byte, expected int64) (store.Raw, error) {
	arr, err := itemsToBSON(items)
	if err != nil {
		return store.Raw{}, err
	}

	filter := bson.M{"hotelId": hotelID, "collection": string(coll), "version": expected}
	update := bson.M{
		"$set": bson.M{"items": arr, "updatedAt": time.Now().UTC()},
		"$inc": bson.M{"version": int64(1)},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var rec record
	err = b.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return store.Raw{}, store.ErrVersionConflict
	}
	if err != nil {
		return store.Raw{}, fmt.Errorf("save %s/%s: %w", hotelID, coll, err)
	}
	return toRaw(rec)
}

func toRaw(rec record) (store.Raw, error) {
	items, err := itemsFromBSON(rec.Items)
	if err != nil {
		return store.Raw{}, err
	}
	return store.Raw{
		Items:     items,
		Version:   rec.Version,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}, nil
}

// itemsToBSON converts a JSON array into a BSON array value.
func itemsToBSON(items []byte) (bson.A, error) {
	var wrapped struct {
		Items bson.A `bson:"items"`
	}
	doc := append(append([]byte(`{"items":`), items...), '}')
	if err := bson.UnmarshalExtJSON(doc, false, &wrapped); err != nil {
		return nil, fmt.Errorf("convert items to bson: %w", err)
	}
	if wrapped.Items == nil {
		wrapped.Items = bson.A{}
	}
	return wrapped.Items, nil
}

// itemsFromBSON converts a stored BSON array back into a JSON array.
func itemsFromBSON(v bson.RawValue) ([]byte, error) {
	if v.Type == 0 {
		return []byte("[]"), nil
	}
	ext, err := bson.MarshalExtJSON(bson.D{{Key: "items", Value: v}}, false, false)
	if err != nil {
		return nil, fmt.Errorf("convert items from bson: %w", err)
	}
	var wrapped struct {
		Items json.RawMessage `json:"items"`
	}
	if err := json.Unmarshal(ext, &wrapped); err != nil {
		return nil, fmt.Errorf("convert items from bson: %w", err)
	}
	return wrapped.Items, nil
}
