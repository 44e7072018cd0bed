package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection holds one document per stored key.
const Collection = "storefront_kv"

type kvDocument struct {
	Key       string    `bson:"_id"`
	Value     string    `bson:"value"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// Storage keeps session and cart snapshots in a MongoDB collection.
type Storage struct {
	client *mongo.Client
	col    *mongo.Collection
	now    func() time.Time
}

// NewStorage returns a Storage over db. client is only used by Ping and Close
// and may be nil in tests that manage the connection themselves.
func NewStorage(client *mongo.Client, db *mongo.Database) *Storage {
	return &Storage{
		client: client,
		col:    db.Collection(Collection),
		now:    time.Now,
	}
}

func (s *Storage) Get(ctx context.Context, key string) (string, bool, error) {
	var doc kvDocument
	err := s.col.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("mongo find %s: %w", key, err)
	}
	return doc.Value, true, nil
}

func (s *Storage) Set(ctx context.Context, key, value string) error {
	doc := kvDocument{Key: key, Value: value, UpdatedAt: s.now().UTC()}
	_, err := s.col.ReplaceOne(ctx, bson.M{"_id": key}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mongo upsert %s: %w", key, err)
	}
	return nil
}

func (s *Storage) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if _, err := s.col.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": keys}}); err != nil {
		return fmt.Errorf("mongo delete: %w", err)
	}
	return nil
}

// EnsureIndexes creates the updated_at index used to find stale profiles.
func (s *Storage) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := s.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "updated_at", Value: 1}},
	})
	return err
}

// Ping reports whether the deployment is reachable.
func (s *Storage) Ping(ctx context.Context) error {
	if s.client == nil {
		return errors.New("mongo: no client")
	}
	return s.client.Ping(ctx, nil)
}

// Close disconnects the client.
func (s *Storage) Close() error {
	if s.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}
