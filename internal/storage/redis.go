package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/piwi3910/itemgraph/internal/config"
)

const (
	// idsKeySuffix names the sorted set holding a collection's document keys.
	idsKeySuffix = "ids"

	// seqKeySuffix names the counter that scores new keys in the ids set.
	seqKeySuffix = "seq"

	// Documents never expire.
	documentTTL = 0
)

// RedisStore implements DocumentStore on Redis.
// It supports both standalone Redis and Redis Sentinel for high availability.
//
// Data Model:
//   - <prefix><collection>:<id> (string) - JSON document body
//   - <prefix><collection>:ids (sorted set) - document keys scored by insertion sequence
//   - <prefix><collection>:seq (counter) - last insertion sequence
//
// Example:
//
//	store, err := NewRedisStore(&cfg.Redis)
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	doc, err := store.Get(ctx, "users", "u1")
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore creates a new RedisStore instance.
// It configures Redis Sentinel when mode is "sentinel".
func NewRedisStore(cfg *config.RedisConfig) (*RedisStore, error) {
	client, err := NewRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &RedisStore{
		client: client,
		prefix: cfg.KeyPrefix,
	}, nil
}

// NewRedisClient builds a standalone or Sentinel client from cfg. It is shared
// by the document store and the HTTP rate limiter.
func NewRedisClient(cfg *config.RedisConfig) (redis.UniversalClient, error) {
	password, err := cfg.GetPassword()
	if err != nil {
		return nil, err
	}

	if cfg.Mode == "sentinel" {
		// Redis Sentinel mode for HA
		return redis.NewFailoverClient(&redis.FailoverOptions{
			MasterName:    cfg.MasterName,
			SentinelAddrs: cfg.Addresses,
			Password:      password,
			DB:            cfg.DB,
			MaxRetries:    cfg.MaxRetries,
			DialTimeout:   cfg.DialTimeout,
			ReadTimeout:   cfg.ReadTimeout,
			WriteTimeout:  cfg.WriteTimeout,
			PoolSize:      cfg.PoolSize,
		}), nil
	}

	addr := "localhost:6379"
	if len(cfg.Addresses) > 0 {
		addr = cfg.Addresses[0]
	}
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           cfg.DB,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		PoolSize:     cfg.PoolSize,
	}), nil
}

// Backend implements DocumentStore.
func (r *RedisStore) Backend() string { return "redis" }

func (r *RedisStore) docKey(collection, id string) string {
	return r.prefix + collection + ":" + id
}

func (r *RedisStore) idsKey(collection string) string {
	return r.prefix + collection + ":" + idsKeySuffix
}

func (r *RedisStore) seqKey(collection string) string {
	return r.prefix + collection + ":" + seqKeySuffix
}

// Get reads one document.
// Returns ErrDocumentNotFound if the key does not exist.
func (r *RedisStore) Get(ctx context.Context, collection, id string) (Document, error) {
	if err := validateKey(collection, id); err != nil {
		return nil, err
	}

	data, err := r.client.Get(ctx, r.docKey(collection, id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrDocumentNotFound
		}
		return nil, classify("redis get", err)
	}

	return decodeJSONDocument(data, id)
}

// List returns the collection in insertion order.
func (r *RedisStore) List(ctx context.Context, collection string) ([]Document, error) {
	if err := validateCollection(collection); err != nil {
		return nil, err
	}

	ids, err := r.client.ZRange(ctx, r.idsKey(collection), 0, -1).Result()
	if err != nil {
		return nil, classify("redis list ids", err)
	}

	return r.getMany(ctx, collection, ids)
}

// Where loads the collection and keeps documents whose field equals value.
// Redis has no secondary indexes here, so this is a full scan.
func (r *RedisStore) Where(ctx context.Context, collection, field, value string) ([]Document, error) {
	all, err := r.List(ctx, collection)
	if err != nil {
		return nil, err
	}

	docs := make([]Document, 0, len(all))
	for _, doc := range all {
		if v, ok := doc[field].(string); ok && v == value {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

// getMany fetches the bodies for ids with one MGET. Keys listed in the
// index but missing a body are skipped.
func (r *RedisStore) getMany(ctx context.Context, collection string, ids []string) ([]Document, error) {
	docs := make([]Document, 0, len(ids))
	if len(ids) == 0 {
		return docs, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.docKey(collection, id)
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, classify("redis mget", err)
	}

	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		doc, err := decodeJSONDocument([]byte(s), ids[i])
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Put stores the document body and indexes its key.
func (r *RedisStore) Put(ctx context.Context, collection, id string, doc Document) error {
	if err := validateKey(collection, id); err != nil {
		return err
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	seq, err := r.client.Incr(ctx, r.seqKey(collection)).Result()
	if err != nil {
		return classify("redis put", err)
	}

	// Use pipeline for atomic operations. NX keeps the original position
	// when a document is replaced.
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.docKey(collection, id), data, documentTTL)
	pipe.ZAddNX(ctx, r.idsKey(collection), redis.Z{
		Score:  float64(seq),
		Member: id,
	})

	if _, err := pipe.Exec(ctx); err != nil {
		return classify("redis put", err)
	}
	return nil
}

// Close closes the Redis connection and releases resources.
func (r *RedisStore) Close() error {
	return r.client.Close()
}

// Ping checks if Redis is available.
// Returns ErrStorageUnavailable if Redis cannot be reached.
func (r *RedisStore) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	return nil
}

// decodeJSONDocument parses a stored JSON body and injects the key as id.
func decodeJSONDocument(data []byte, id string) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal document %q: %w", id, err)
	}
	return withID(doc, id), nil
}
