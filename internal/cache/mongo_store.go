package cache

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const entriesCollection = "report_cache"

// cacheDoc carries its report index, so invalidation is a single DeleteMany
// and the TTL index reaps index records together with their values.
type cacheDoc struct {
	Key       string    `bson:"_id"`
	Index     string    `bson:"index"`
	Value     []byte    `bson:"value"`
	ExpiresAt time.Time `bson:"expires_at"`
}

// MongoStore keeps cache entries in MongoDB. A TTL index on expires_at lets
// the server reap entries; reads also ignore anything already expired.
type MongoStore struct {
	entries *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		entries: db.Collection(entriesCollection),
	}
}

func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.entries.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
		{Keys: bson.D{{Key: "index", Value: 1}}},
	})
	return err
}

func (s *MongoStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var doc cacheDoc
	err := s.entries.FindOne(ctx, bson.M{"_id": key, "expires_at": bson.M{"$gt": time.Now()}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return doc.Value, true, nil
}

func (s *MongoStore) Set(ctx context.Context, index, key string, value []byte, ttl time.Duration) error {
	doc := cacheDoc{Key: key, Index: index, Value: value, ExpiresAt: time.Now().Add(ttl)}
	_, err := s.entries.ReplaceOne(ctx, bson.M{"_id": key}, doc, options.Replace().SetUpsert(true))
	return err
}

func (s *MongoStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	_, err := s.entries.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": keys}})
	return err
}

func (s *MongoStore) DeleteIndex(ctx context.Context, index string) (int, error) {
	res, err := s.entries.DeleteMany(ctx, bson.M{"index": index})
	if err != nil {
		return 0, err
	}
	return int(res.DeletedCount), nil
}
