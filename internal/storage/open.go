package storage

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/piwi3910/itemgraph/internal/config"
	"github.com/piwi3910/itemgraph/internal/observability"
)

// Open builds the configured backend and wraps it in an InstrumentedStore.
// The returned store is connected but not yet pinged.
func Open(ctx context.Context, cfg *config.Config, logger *observability.Logger, metrics *observability.Metrics) (DocumentStore, error) {
	var (
		backend DocumentStore
		err     error
	)

	switch cfg.Store.Backend {
	case config.BackendFirestore:
		backend, err = NewFirestoreStore(ctx, &cfg.Firestore)
	case config.BackendRedis:
		backend, err = NewRedisStore(&cfg.Redis)
	case config.BackendMongo:
		backend, err = NewMongoStore(ctx, &cfg.Mongo)
	case config.BackendMemory:
		backend = NewMemoryStore()
	default:
		return nil, fmt.Errorf("unsupported store backend: %q", cfg.Store.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Store.Backend, err)
	}

	logger.Info("document store opened",
		zap.String("backend", backend.Backend()),
		zap.Duration("operation_timeout", cfg.Store.OperationTimeout),
	)

	return NewInstrumentedStore(backend, logger, metrics, cfg.Store.OperationTimeout), nil
}
