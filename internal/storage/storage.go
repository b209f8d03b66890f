// Package storage provides the document store the itemgraph API reads from.
//
// A document store holds schemaless documents grouped into named collections
// and addressed by string keys. Backends exist for Firestore, Redis, MongoDB
// and an in-memory map; InstrumentedStore decorates any of them with metrics,
// logging and a per-call timeout.
package storage

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// Common sentinel errors for storage operations.
var (
	// ErrDocumentNotFound is returned when a point read finds no document.
	ErrDocumentNotFound = errors.New("document not found")

	// ErrStorageUnavailable is returned when the storage backend cannot be reached
	// or the call timed out.
	ErrStorageUnavailable = errors.New("storage backend unavailable")

	// ErrInvalidID is returned when a document key is empty or contains a path separator.
	ErrInvalidID = errors.New("invalid document ID")

	// ErrInvalidCollection is returned when a collection name is empty or contains a path separator.
	ErrInvalidCollection = errors.New("invalid collection name")
)

// Document is a raw stored document. The document key is always present under "id".
type Document = map[string]any

// DocumentStore defines read access (plus Put for seeding) to a document store.
// Implementations must be safe for concurrent use.
//
// Example usage:
//
//	store, err := storage.Open(ctx, cfg, logger, metrics)
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	doc, err := store.Get(ctx, "users", "u1")
//	if errors.Is(err, storage.ErrDocumentNotFound) {
//	    // absent
//	}
type DocumentStore interface {
	// Get reads one document by key.
	// Returns ErrDocumentNotFound if the document does not exist.
	// Returns ErrInvalidID if id is empty or contains "/".
	Get(ctx context.Context, collection, id string) (Document, error)

	// List returns every document of a collection in store order.
	// Returns an empty slice if the collection is empty or absent.
	List(ctx context.Context, collection string) ([]Document, error)

	// Where returns the documents whose field equals value.
	// Returns an empty slice if nothing matches.
	Where(ctx context.Context, collection, field, value string) ([]Document, error)

	// Put creates or replaces a document.
	Put(ctx context.Context, collection, id string, doc Document) error

	// Ping checks if the storage backend is available.
	// Returns ErrStorageUnavailable if the backend cannot be reached.
	Ping(ctx context.Context) error

	// Close releases resources. After calling Close, the store should not be used.
	Close() error

	// Backend names the implementation, e.g. "redis".
	Backend() string
}

// IsTransient reports whether err is a failure worth retrying later:
// an unreachable backend, a timeout or a cancelled request.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrStorageUnavailable) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// validateCollection checks a collection name.
func validateCollection(collection string) error {
	if collection == "" || strings.Contains(collection, "/") {
		return fmt.Errorf("%w: %q", ErrInvalidCollection, collection)
	}
	return nil
}

// validateKey checks a collection name and a document key.
func validateKey(collection, id string) error {
	if err := validateCollection(collection); err != nil {
		return err
	}
	if id == "" || strings.Contains(id, "/") {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}

// withID sets doc["id"] to key unless the document carries its own non-empty id.
func withID(doc Document, key string) Document {
	if doc == nil {
		doc = Document{}
	}
	if existing, ok := doc["id"]; !ok || existing == nil || existing == "" {
		doc["id"] = key
	}
	return doc
}

// classify wraps transient failures with ErrStorageUnavailable so callers can
// tell them apart from permanent ones.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsTransient(err) && !errors.Is(err, ErrStorageUnavailable) {
		return fmt.Errorf("%s: %w: %w", op, ErrStorageUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// copyDocument returns a shallow copy of doc.
func copyDocument(doc Document) Document {
	out := make(Document, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out
}
