package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/piwi3910/itemgraph/internal/config"
)

// disconnectTimeout bounds Close.
const disconnectTimeout = 5 * time.Second

// MongoStore implements DocumentStore on MongoDB.
// The document key is stored in _id.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongoStore connects to MongoDB and selects the configured database.
func NewMongoStore(ctx context.Context, cfg *config.MongoConfig) (*MongoStore, error) {
	opts := options.Client().ApplyURI(cfg.URI)
	if cfg.ConnectTimeout > 0 {
		opts.SetConnectTimeout(cfg.ConnectTimeout)
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	return &MongoStore{
		client: client,
		db:     client.Database(cfg.Database),
	}, nil
}

// Backend implements DocumentStore.
func (s *MongoStore) Backend() string { return "mongo" }

// Get implements DocumentStore.
func (s *MongoStore) Get(ctx context.Context, collection, id string) (Document, error) {
	if err := validateKey(collection, id); err != nil {
		return nil, err
	}

	var raw bson.M
	err := s.db.Collection(collection).FindOne(ctx, bson.M{"_id": id}).Decode(&raw)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrDocumentNotFound
		}
		return nil, classifyMongo("mongo find one", err)
	}

	return fromBSON(raw), nil
}

// List implements DocumentStore. Documents come back in natural order.
func (s *MongoStore) List(ctx context.Context, collection string) ([]Document, error) {
	if err := validateCollection(collection); err != nil {
		return nil, err
	}
	return s.find(ctx, collection, bson.D{})
}

// Where implements DocumentStore.
func (s *MongoStore) Where(ctx context.Context, collection, field, value string) ([]Document, error) {
	if err := validateCollection(collection); err != nil {
		return nil, err
	}
	return s.find(ctx, collection, bson.D{{Key: field, Value: value}})
}

func (s *MongoStore) find(ctx context.Context, collection string, filter bson.D) ([]Document, error) {
	cursor, err := s.db.Collection(collection).Find(ctx, filter)
	if err != nil {
		return nil, classifyMongo("mongo find", err)
	}

	var raws []bson.M
	if err := cursor.All(ctx, &raws); err != nil {
		return nil, classifyMongo("mongo cursor", err)
	}

	docs := make([]Document, 0, len(raws))
	for _, raw := range raws {
		docs = append(docs, fromBSON(raw))
	}
	return docs, nil
}

// Put implements DocumentStore as an upsert on _id.
func (s *MongoStore) Put(ctx context.Context, collection, id string, doc Document) error {
	if err := validateKey(collection, id); err != nil {
		return err
	}

	body := bson.M{}
	for k, v := range doc {
		body[k] = v
	}
	body["_id"] = id

	_, err := s.db.Collection(collection).ReplaceOne(ctx,
		bson.M{"_id": id}, body, options.Replace().SetUpsert(true))
	if err != nil {
		return classifyMongo("mongo replace", err)
	}
	return nil
}

// Ping implements DocumentStore.
func (s *MongoStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	return nil
}

// Close implements DocumentStore.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), disconnectTimeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// fromBSON converts a raw Mongo document, moving _id to id.
func fromBSON(raw bson.M) Document {
	doc := make(Document, len(raw))
	for k, v := range raw {
		if k == "_id" {
			continue
		}
		doc[k] = v
	}

	var key string
	switch id := raw["_id"].(type) {
	case string:
		key = id
	case primitive.ObjectID:
		key = id.Hex()
	default:
		if id != nil {
			key = fmt.Sprint(id)
		}
	}
	return withID(doc, key)
}

func classifyMongo(op string, err error) error {
	if mongo.IsTimeout(err) || mongo.IsNetworkError(err) {
		return fmt.Errorf("%s: %w: %w", op, ErrStorageUnavailable, err)
	}
	return classify(op, err)
}
