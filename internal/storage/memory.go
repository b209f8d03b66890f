package storage

import (
	"context"
	"fmt"
	"sync"
)

// memoryCollection keeps documents with their insertion order.
type memoryCollection struct {
	docs  map[string]Document
	order []string
}

// MemoryStore implements DocumentStore in process memory.
// Documents are copied on the way in and out.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]*memoryCollection
	closed      bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string]*memoryCollection),
	}
}

// Backend implements DocumentStore.
func (s *MemoryStore) Backend() string { return "memory" }

// Get implements DocumentStore.
func (s *MemoryStore) Get(ctx context.Context, collection, id string) (Document, error) {
	if err := validateKey(collection, id); err != nil {
		return nil, err
	}
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.collections[collection]
	if !ok {
		return nil, ErrDocumentNotFound
	}
	doc, ok := c.docs[id]
	if !ok {
		return nil, ErrDocumentNotFound
	}
	return withID(copyDocument(doc), id), nil
}

// List implements DocumentStore.
func (s *MemoryStore) List(ctx context.Context, collection string) ([]Document, error) {
	return s.scan(ctx, collection, func(Document) bool { return true })
}

// Where implements DocumentStore.
func (s *MemoryStore) Where(ctx context.Context, collection, field, value string) ([]Document, error) {
	return s.scan(ctx, collection, func(doc Document) bool {
		v, ok := doc[field].(string)
		return ok && v == value
	})
}

func (s *MemoryStore) scan(ctx context.Context, collection string, match func(Document) bool) ([]Document, error) {
	if err := validateCollection(collection); err != nil {
		return nil, err
	}
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := []Document{}
	c, ok := s.collections[collection]
	if !ok {
		return docs, nil
	}
	for _, id := range c.order {
		doc := withID(copyDocument(c.docs[id]), id)
		if match(doc) {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

// Put implements DocumentStore. Replacing a document keeps its position.
func (s *MemoryStore) Put(ctx context.Context, collection, id string, doc Document) error {
	if err := validateKey(collection, id); err != nil {
		return err
	}
	if err := s.check(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.collections[collection]
	if !ok {
		c = &memoryCollection{docs: make(map[string]Document)}
		s.collections[collection] = c
	}
	if _, exists := c.docs[id]; !exists {
		c.order = append(c.order, id)
	}
	c.docs[id] = copyDocument(doc)
	return nil
}

// Ping implements DocumentStore.
func (s *MemoryStore) Ping(ctx context.Context) error {
	return s.check(ctx)
}

// Close implements DocumentStore.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// check fails when the context is done or the store is closed.
func (s *MemoryStore) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return classify("memory", err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return errStoreClosed
	}
	return nil
}

var errStoreClosed = fmt.Errorf("%w: store closed", ErrStorageUnavailable)
