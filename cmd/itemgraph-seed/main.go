// Package main loads a JSON fixture of users, items and comments into the
// configured document store.
//
// Example usage:
//
//	./itemgraph-seed --config=config/config.yaml --fixture=testdata/fixture.json
//	./itemgraph-seed --fixture=- < fixture.json
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/piwi3910/itemgraph/internal/config"
	"github.com/piwi3910/itemgraph/internal/observability"
	"github.com/piwi3910/itemgraph/internal/seed"
	"github.com/piwi3910/itemgraph/internal/storage"
)

var (
	configPath  = flag.String("config", config.DefaultConfigPath, "Path to configuration file")
	fixturePath = flag.String("fixture", "-", "Fixture file, or - for stdin")
)

func main() {
	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.Store.Backend == config.BackendMemory {
		return fmt.Errorf("seeding the memory backend has no lasting effect")
	}

	logger, err := observability.NewLogger(cfg.Observability.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	f, err := readFixture(*fixturePath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(ctx, cfg, logger, nil)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	_, err = seed.Load(ctx, store, cfg.Store.Collections, f, logger)
	return err
}

func readFixture(path string) (*seed.Fixture, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open fixture: %w", err)
		}
		defer func() { _ = file.Close() }()
		r = file
	}
	return seed.Decode(r)
}
