package storage

import (
	"context"
	"errors"
	"fmt"
	"os"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/piwi3910/itemgraph/internal/config"
)

// emulatorHostEnv is read by the Firestore client library.
const emulatorHostEnv = "FIRESTORE_EMULATOR_HOST"

// FirestoreStore implements DocumentStore on Cloud Firestore.
// Collections map one to one onto top-level Firestore collections.
type FirestoreStore struct {
	client *firestore.Client
}

// NewFirestoreStore connects to Firestore. When an emulator host is
// configured the credentials file is ignored.
func NewFirestoreStore(ctx context.Context, cfg *config.FirestoreConfig) (*FirestoreStore, error) {
	var opts []option.ClientOption

	if cfg.EmulatorHost != "" {
		if err := os.Setenv(emulatorHostEnv, cfg.EmulatorHost); err != nil {
			return nil, fmt.Errorf("failed to set %s: %w", emulatorHostEnv, err)
		}
	} else if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	databaseID := cfg.DatabaseID
	if databaseID == "" {
		databaseID = firestore.DefaultDatabaseID
	}

	client, err := firestore.NewClientWithDatabase(ctx, cfg.ProjectID, databaseID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}

	return &FirestoreStore{client: client}, nil
}

// NewFirestoreStoreFromClient wraps an existing client.
func NewFirestoreStoreFromClient(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{client: client}
}

// Backend implements DocumentStore.
func (s *FirestoreStore) Backend() string { return "firestore" }

// Get implements DocumentStore.
func (s *FirestoreStore) Get(ctx context.Context, collection, id string) (Document, error) {
	if err := validateKey(collection, id); err != nil {
		return nil, err
	}

	snap, err := s.client.Collection(collection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrDocumentNotFound
		}
		return nil, classifyFirestore("firestore get", err)
	}
	if !snap.Exists() {
		return nil, ErrDocumentNotFound
	}

	return withID(snap.Data(), snap.Ref.ID), nil
}

// List implements DocumentStore.
func (s *FirestoreStore) List(ctx context.Context, collection string) ([]Document, error) {
	if err := validateCollection(collection); err != nil {
		return nil, err
	}
	return s.collect("firestore list", s.client.Collection(collection).Documents(ctx))
}

// Where implements DocumentStore.
func (s *FirestoreStore) Where(ctx context.Context, collection, field, value string) ([]Document, error) {
	if err := validateCollection(collection); err != nil {
		return nil, err
	}
	query := s.client.Collection(collection).Where(field, "==", value)
	return s.collect("firestore where", query.Documents(ctx))
}

func (s *FirestoreStore) collect(op string, it *firestore.DocumentIterator) ([]Document, error) {
	snaps, err := it.GetAll()
	if err != nil {
		return nil, classifyFirestore(op, err)
	}

	docs := make([]Document, 0, len(snaps))
	for _, snap := range snaps {
		docs = append(docs, withID(snap.Data(), snap.Ref.ID))
	}
	return docs, nil
}

// Put implements DocumentStore.
func (s *FirestoreStore) Put(ctx context.Context, collection, id string, doc Document) error {
	if err := validateKey(collection, id); err != nil {
		return err
	}
	if _, err := s.client.Collection(collection).Doc(id).Set(ctx, doc); err != nil {
		return classifyFirestore("firestore put", err)
	}
	return nil
}

// Ping lists at most one collection to prove the project is reachable.
func (s *FirestoreStore) Ping(ctx context.Context) error {
	it := s.client.Collections(ctx)
	if _, err := it.Next(); err != nil && !errors.Is(err, iterator.Done) {
		return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	return nil
}

// Close implements DocumentStore.
func (s *FirestoreStore) Close() error {
	return s.client.Close()
}

// classifyFirestore maps gRPC status codes that signal an unreachable or
// overloaded backend onto ErrStorageUnavailable.
func classifyFirestore(op string, err error) error {
	switch status.Code(err) {
	case codes.Unavailable, codes.DeadlineExceeded, codes.Canceled, codes.ResourceExhausted:
		return fmt.Errorf("%s: %w: %w", op, ErrStorageUnavailable, err)
	}
	return classify(op, err)
}
