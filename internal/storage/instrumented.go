package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/piwi3910/itemgraph/internal/observability"
)

// InstrumentedStore wraps a DocumentStore with metrics, debug logging and a
// per-call timeout. A zero timeout leaves the caller's deadline untouched.
type InstrumentedStore struct {
	next    DocumentStore
	logger  *observability.Logger
	metrics *observability.Metrics
	timeout time.Duration
}

// NewInstrumentedStore decorates next. metrics may be nil.
func NewInstrumentedStore(next DocumentStore, logger *observability.Logger, metrics *observability.Metrics, timeout time.Duration) *InstrumentedStore {
	if logger == nil {
		logger = observability.NewNopLogger()
	}
	return &InstrumentedStore{
		next:    next,
		logger:  logger.WithComponent("store"),
		metrics: metrics,
		timeout: timeout,
	}
}

// Backend implements DocumentStore.
func (s *InstrumentedStore) Backend() string { return s.next.Backend() }

// Unwrap returns the decorated store.
func (s *InstrumentedStore) Unwrap() DocumentStore { return s.next }

// Get implements DocumentStore.
func (s *InstrumentedStore) Get(ctx context.Context, collection, id string) (Document, error) {
	var doc Document
	err := s.observe(ctx, "get", collection, id, func(ctx context.Context) error {
		var err error
		doc, err = s.next.Get(ctx, collection, id)
		return err
	})
	return doc, err
}

// List implements DocumentStore.
func (s *InstrumentedStore) List(ctx context.Context, collection string) ([]Document, error) {
	var docs []Document
	err := s.observe(ctx, "list", collection, "", func(ctx context.Context) error {
		var err error
		docs, err = s.next.List(ctx, collection)
		return err
	})
	return docs, err
}

// Where implements DocumentStore.
func (s *InstrumentedStore) Where(ctx context.Context, collection, field, value string) ([]Document, error) {
	var docs []Document
	err := s.observe(ctx, "where", collection, field+"=="+value, func(ctx context.Context) error {
		var err error
		docs, err = s.next.Where(ctx, collection, field, value)
		return err
	})
	return docs, err
}

// Put implements DocumentStore.
func (s *InstrumentedStore) Put(ctx context.Context, collection, id string, doc Document) error {
	return s.observe(ctx, "put", collection, id, func(ctx context.Context) error {
		return s.next.Put(ctx, collection, id, doc)
	})
}

// Ping implements DocumentStore.
func (s *InstrumentedStore) Ping(ctx context.Context) error {
	return s.observe(ctx, "ping", "", "", s.next.Ping)
}

// Close implements DocumentStore.
func (s *InstrumentedStore) Close() error {
	return s.next.Close()
}

// observe runs call under the configured timeout and records the outcome.
func (s *InstrumentedStore) observe(ctx context.Context, operation, collection, key string, call func(context.Context) error) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	err := call(ctx)
	duration := time.Since(start)

	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) && !errors.Is(err, ErrStorageUnavailable) {
		err = fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}

	notFound := errors.Is(err, ErrDocumentNotFound)
	if s.metrics != nil {
		s.metrics.RecordStoreOperation(s.next.Backend(), operation, collection, duration, err, notFound)
	}

	logErr := err
	if notFound {
		logErr = nil
	}
	s.logger.WithContext(ctx).LogStoreOperation(operation, collection, key, duration, logErr)

	return err
}
