package database

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	UsersCollection = "users"
	IdeasCollection = "ideas"
)

// ErrNotFound is returned by FindOne when no document matches the filter.
var ErrNotFound = errors.New("document not found")

// FindOptions narrows a Find call. A zero value returns every match in natural order.
type FindOptions struct {
	Sort  bson.D
	Limit int64
}

// UpdateResult reports what a single UpdateOne call did.
type UpdateResult struct {
	Matched  int64
	Modified int64
	Upserted bool
}

// Collection is the subset of document-store operations the registries rely on.
// Each UpdateOne is atomic for the document it touches.
type Collection interface {
	FindOne(ctx context.Context, filter bson.M, out interface{}) error
	Find(ctx context.Context, filter bson.M, out interface{}, opts FindOptions) error
	InsertOne(ctx context.Context, doc interface{}) error
	UpdateOne(ctx context.Context, filter, update bson.M, upsert bool) (UpdateResult, error)
}

// Store hands out collections and owns the underlying connection.
type Store interface {
	Collection(name string) Collection
	Close(ctx context.Context) error
}

// MongoStore is a Store backed by a MongoDB database.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

// ConnectDB dials MongoDB, pings the primary and makes sure the logical-key
// indexes exist. The caller owns the returned store and must Close it.
func ConnectDB(ctx context.Context, uri, dbName string) (*MongoStore, error) {
	if uri == "" {
		return nil, errors.New("MONGO_URI is not set")
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}

	// Ping the primary
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	s := &MongoStore{client: client, db: client.Database(dbName)}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	log.Printf("[Database] Connected to MongoDB database %q", dbName)
	return s, nil
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	unique := map[string]string{
		UsersCollection: "email",
		IdeasCollection: "idea_id",
	}
	for coll, key := range unique {
		model := mongo.IndexModel{
			Keys:    bson.D{{Key: key, Value: 1}},
			Options: options.Index().SetUnique(true),
		}
		if _, err := s.db.Collection(coll).Indexes().CreateOne(ctx, model); err != nil {
			return fmt.Errorf("create unique index %s.%s: %w", coll, key, err)
		}
	}
	return nil
}

func (s *MongoStore) Collection(name string) Collection {
	return &mongoCollection{coll: s.db.Collection(name)}
}

func (s *MongoStore) Close(ctx context.Context) error {
	log.Println("[Database] Disconnecting from MongoDB")
	return s.client.Disconnect(ctx)
}

type mongoCollection struct {
	coll *mongo.Collection
}

func (c *mongoCollection) FindOne(ctx context.Context, filter bson.M, out interface{}) error {
	err := c.coll.FindOne(ctx, filter).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}

func (c *mongoCollection) Find(ctx context.Context, filter bson.M, out interface{}, opts FindOptions) error {
	findOpts := options.Find()
	if len(opts.Sort) > 0 {
		findOpts.SetSort(opts.Sort)
	}
	if opts.Limit > 0 {
		findOpts.SetLimit(opts.Limit)
	}

	cursor, err := c.coll.Find(ctx, filter, findOpts)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)

	return cursor.All(ctx, out)
}

func (c *mongoCollection) InsertOne(ctx context.Context, doc interface{}) error {
	_, err := c.coll.InsertOne(ctx, doc)
	return err
}

func (c *mongoCollection) UpdateOne(ctx context.Context, filter, update bson.M, upsert bool) (UpdateResult, error) {
	res, err := c.coll.UpdateOne(ctx, filter, update, options.Update().SetUpsert(upsert))
	if err != nil {
		return UpdateResult{}, err
	}
	return UpdateResult{
		Matched:  res.MatchedCount,
		Modified: res.ModifiedCount,
		Upserted: res.UpsertedID != nil,
	}, nil
}
