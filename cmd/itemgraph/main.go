// Package main is the entry point for the itemgraph API server.
// It serves a read-only GraphQL API over users, items and comments kept in a
// document store.
//
// The application performs the following initialization sequence:
//  1. Load configuration from config file and environment variables
//  2. Initialize structured logging with zap
//  3. Open and ping the configured document store
//  4. Build the repository, resolvers and GraphQL schema
//  5. Register health checks and the optional rate limiter
//  6. Start the HTTP server with graceful shutdown support
//
// Graceful shutdown is triggered by SIGINT (Ctrl+C) or SIGTERM signals.
//
// Example usage:
//
//	# Start with default config
//	./itemgraph
//
//	# Start with custom config file
//	./itemgraph --config=/etc/itemgraph/config.yaml
//
//	# Start with environment variable overrides
//	export ITEMGRAPH_STORE_BACKEND=redis
//	export ITEMGRAPH_REDIS_ADDRESSES=redis.example.com:6379
//	./itemgraph
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/piwi3910/itemgraph/internal/config"
	"github.com/piwi3910/itemgraph/internal/graphql"
	"github.com/piwi3910/itemgraph/internal/middleware"
	"github.com/piwi3910/itemgraph/internal/observability"
	"github.com/piwi3910/itemgraph/internal/repository"
	"github.com/piwi3910/itemgraph/internal/server"
	"github.com/piwi3910/itemgraph/internal/storage"
)

const (
	// Version is the application version (set via build flags).
	Version = "1.0.0"

	// ServiceName is the name of this service.
	ServiceName = "itemgraph"
)

// startupPingTimeout bounds the initial store connectivity check.
const startupPingTimeout = 10 * time.Second

var (
	// Command-line flags.
	configPath  = flag.String("config", config.DefaultConfigPath, "Path to configuration file")
	showVersion = flag.Bool("version", false, "Show version information and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		if _, err := fmt.Fprintf(os.Stdout, "%s version %s\n", ServiceName, Version); err != nil {
			panic(err)
		}
		os.Exit(0)
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run executes the main application logic.
func run() error {
	cfg, err := loadConfiguration(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := observability.NewLogger(cfg.Observability.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		// Syncing stdout/stderr fails on some platforms; nothing to do about it.
		_ = logger.Sync()
	}()

	logger.Info("itemgraph starting",
		zap.String("version", Version),
		zap.String("environment", cfg.Environment),
		zap.String("backend", cfg.Store.Backend),
	)

	components, err := initializeComponents(context.Background(), cfg, logger, prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
	if err != nil {
		return err
	}
	defer components.Close(logger)

	return components.server.Start()
}

// loadConfiguration loads and validates configuration.
func loadConfiguration(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// applicationComponents holds all initialized application components.
type applicationComponents struct {
	store       storage.DocumentStore
	limitClient redis.UniversalClient
	server      *server.Server
}

// Close releases the store and the rate limiter connection.
func (c *applicationComponents) Close(logger *observability.Logger) {
	if c.limitClient != nil {
		if err := c.limitClient.Close(); err != nil {
			logger.Warn("failed to close rate limiter connection", zap.Error(err))
		}
	}
	if c.store != nil {
		if err := c.store.Close(); err != nil {
			logger.Warn("failed to close document store", zap.Error(err))
		}
	}
}

// initializeComponents wires the store, GraphQL stack and HTTP server.
// Everything opened so far is closed again when a later step fails.
func initializeComponents(
	ctx context.Context,
	cfg *config.Config,
	logger *observability.Logger,
	reg prometheus.Registerer,
	gatherer prometheus.Gatherer,
) (_ *applicationComponents, err error) {
	components := &applicationComponents{}
	defer func() {
		if err != nil {
			components.Close(logger)
		}
	}()

	var metrics *observability.Metrics
	if cfg.Observability.Metrics.Enabled {
		metrics = observability.NewMetrics(cfg.Observability.Metrics.Namespace, reg)
	}

	components.store, err = storage.Open(ctx, cfg, logger, metrics)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, startupPingTimeout)
	defer cancel()
	if err = components.store.Ping(pingCtx); err != nil {
		return nil, fmt.Errorf("document store is not reachable: %w", err)
	}

	repo := repository.New(components.store, cfg.Store.Collections)
	root := graphql.NewRootResolver(repo, logger, metrics)
	schema, err := graphql.NewSchema(root, cfg.GraphQL, logger)
	if err != nil {
		return nil, err
	}
	handler := graphql.NewHandler(schema, logger.WithComponent("graphql"), metrics)

	health := observability.NewHealthChecker(Version)
	health.RegisterHealthCheck("store", observability.StoreHealthCheck(components.store))
	health.RegisterReadinessCheck("store", observability.StoreHealthCheck(components.store))

	var opts []server.Option
	if metrics != nil {
		opts = append(opts, server.WithMetrics(metrics, gatherer))
	}

	if cfg.Security.RateLimit.Enabled {
		limiter, limitErr := initializeRateLimiter(ctx, cfg, components, logger)
		if limitErr != nil {
			return nil, limitErr
		}
		health.RegisterHealthCheck("rate_limiter", func(ctx context.Context) error {
			return components.limitClient.Ping(ctx).Err()
		})
		opts = append(opts, server.WithRateLimiter(limiter))
	}

	components.server = server.New(cfg, logger, handler, health, opts...)

	return components, nil
}

// initializeRateLimiter connects the limiter to the redis section's server.
func initializeRateLimiter(
	ctx context.Context,
	cfg *config.Config,
	components *applicationComponents,
	logger *observability.Logger,
) (*middleware.RateLimiter, error) {
	client, err := storage.NewRedisClient(&cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limiter client: %w", err)
	}
	components.limitClient = client

	limiter, err := middleware.NewRateLimiter(ctx, cfg.Security.RateLimit, cfg.Redis.KeyPrefix, client,
		logger.WithComponent("ratelimit").Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize rate limiter: %w", err)
	}

	logger.Info("rate limiting enabled",
		zap.Int("requests_per_second", cfg.Security.RateLimit.RequestsPerSecond),
		zap.Int("burst", cfg.Security.RateLimit.Burst),
	)
	return limiter, nil
}
