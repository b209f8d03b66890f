// Package storagetest provides DocumentStore doubles for tests.
package storagetest

import (
	"context"
	"sync"

	"github.com/piwi3910/itemgraph/internal/storage"
)

// Call records one store request.
type Call struct {
	Op         string
	Collection string
	Arg        string
}

// FaultStore wraps a DocumentStore, records every call and fails the
// operations listed in Errors.
type FaultStore struct {
	storage.DocumentStore

	mu     sync.Mutex
	calls  []Call
	Errors map[string]error // keyed by "get", "list", "where" or "ping", optionally suffixed ":<collection>"
}

// New wraps next. A nil next gets an empty memory store.
func New(next storage.DocumentStore) *FaultStore {
	if next == nil {
		next = storage.NewMemoryStore()
	}
	return &FaultStore{DocumentStore: next, Errors: map[string]error{}}
}

// Fail makes op fail with err, on every collection or only on collection.
func (f *FaultStore) Fail(op, collection string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := op
	if collection != "" {
		key += ":" + collection
	}
	f.Errors[key] = err
}

// Calls returns the recorded calls.
func (f *FaultStore) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// Count returns how many times op was called.
func (f *FaultStore) Count(op string) int {
	n := 0
	for _, c := range f.Calls() {
		if c.Op == op {
			n++
		}
	}
	return n
}

func (f *FaultStore) record(op, collection, arg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Op: op, Collection: collection, Arg: arg})
	if err, ok := f.Errors[op+":"+collection]; ok {
		return err
	}
	return f.Errors[op]
}

// Get implements storage.DocumentStore.
func (f *FaultStore) Get(ctx context.Context, collection, id string) (storage.Document, error) {
	if err := f.record("get", collection, id); err != nil {
		return nil, err
	}
	return f.DocumentStore.Get(ctx, collection, id)
}

// List implements storage.DocumentStore.
func (f *FaultStore) List(ctx context.Context, collection string) ([]storage.Document, error) {
	if err := f.record("list", collection, ""); err != nil {
		return nil, err
	}
	return f.DocumentStore.List(ctx, collection)
}

// Where implements storage.DocumentStore.
func (f *FaultStore) Where(ctx context.Context, collection, field, value string) ([]storage.Document, error) {
	if err := f.record("where", collection, field+"=="+value); err != nil {
		return nil, err
	}
	return f.DocumentStore.Where(ctx, collection, field, value)
}

// Ping implements storage.DocumentStore.
func (f *FaultStore) Ping(ctx context.Context) error {
	if err := f.record("ping", "", ""); err != nil {
		return err
	}
	return f.DocumentStore.Ping(ctx)
}
