package migration

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoSource reads legacy collections from a live MongoDB database.
type MongoSource struct {
	client *mongo.Client
	db     *mongo.Database
}

// ConnectMongo dials uri and checks the primary is reachable.
func ConnectMongo(ctx context.Context, uri, database string) (*MongoSource, error) {
	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10*time.Second).
		SetReadPreference(readpref.SecondaryPreferred()))
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.PrimaryPreferred()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &MongoSource{client: client, db: client.Database(database)}, nil
}

// Each streams every document of collection. A missing collection yields
// nothing.
func (s *MongoSource) Each(ctx context.Context, collection string, fn func(bson.Raw) error) error {
	cur, err := s.db.Collection(collection).Find(ctx, bson.D{}, options.Find().SetBatchSize(500))
	if err != nil {
		return fmt.Errorf("query %s: %w", collection, err)
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		if err := fn(cur.Current); err != nil {
			return err
		}
	}
	return cur.Err()
}

// Count reports how many documents each collection holds, for dry runs.
func (s *MongoSource) Count(ctx context.Context, collections ...string) (map[string]int64, error) {
	counts := make(map[string]int64, len(collections))
	for _, name := range collections {
		n, err := s.db.Collection(name).CountDocuments(ctx, bson.D{})
		if err != nil {
			return nil, fmt.Errorf("count %s: %w", name, err)
		}
		counts[name] = n
	}
	return counts, nil
}

func (s *MongoSource) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Collections lists every legacy collection the importer reads.
func Collections() []string {
	return []string{
		CollUsers, CollBackgrounds, CollChallenges, CollAttempts, CollAids,
		CollAidUses, CollChatHistory, CollResourceItems, CollResourceLocks, CollFollowerSpends,
	}
}
