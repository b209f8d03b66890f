// Package helpers provides common test utilities for integration tests.
//
//go:build integration
// +build integration

package helpers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap/zaptest"

	"github.com/piwi3910/itemgraph/internal/config"
	"github.com/piwi3910/itemgraph/internal/graphql"
	"github.com/piwi3910/itemgraph/internal/observability"
	"github.com/piwi3910/itemgraph/internal/repository"
	"github.com/piwi3910/itemgraph/internal/seed"
	"github.com/piwi3910/itemgraph/internal/server"
	"github.com/piwi3910/itemgraph/internal/storage"
)

// TestServer wraps an HTTP test server for integration testing.
type TestServer struct {
	Server *httptest.Server
	Config *config.Config
	Store  storage.DocumentStore
	client *http.Client
}

// NewTestServer opens the store described by cfg, loads fixture into it and
// serves the full HTTP stack.
func NewTestServer(t *testing.T, cfg *config.Config, fixture string) *TestServer {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cfg.Server.GinMode = "test"
	if cfg.GraphQL.Path == "" {
		cfg.GraphQL.Path = "/graphql"
	}
	if cfg.Store.Collections == (config.CollectionsConfig{}) {
		cfg.Store.Collections = config.CollectionsConfig{Users: "users", Items: "items", Comments: "comments"}
	}

	logger := &observability.Logger{Logger: zaptest.NewLogger(t)}
	metrics := observability.NewMetrics("integration", prometheus.NewRegistry())

	store, err := storage.Open(ctx, cfg, logger, metrics)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	if err := store.Ping(ctx); err != nil {
		t.Fatalf("store not reachable: %v", err)
	}

	if fixture != "" {
		f, err := seed.Decode(bytes.NewBufferString(fixture))
		if err != nil {
			t.Fatalf("bad fixture: %v", err)
		}
		if _, err := seed.Load(ctx, store, cfg.Store.Collections, f, logger); err != nil {
			t.Fatalf("failed to load fixture: %v", err)
		}
	}

	root := graphql.NewRootResolver(repository.New(store, cfg.Store.Collections), logger, metrics)
	schema, err := graphql.NewSchema(root, cfg.GraphQL, logger)
	if err != nil {
		t.Fatalf("failed to parse schema: %v", err)
	}

	health := observability.NewHealthChecker("integration")
	health.RegisterReadinessCheck("store", observability.StoreHealthCheck(store))

	srv := server.New(cfg, logger, graphql.NewHandler(schema, logger, metrics), health)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)

	return &TestServer{Server: ts, Config: cfg, Store: store, client: NewTestHTTPClient(RequestTimeout(cfg.Store.Backend))}
}

// GraphQLResponse is a decoded GraphQL response body.
type GraphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message    string         `json:"message"`
		Path       []any          `json:"path"`
		Extensions map[string]any `json:"extensions"`
	} `json:"errors"`
}

// Query posts a GraphQL query and decodes the response.
func (ts *TestServer) Query(t *testing.T, query string, variables map[string]any) *GraphQLResponse {
	t.Helper()

	body, err := json.Marshal(map[string]any{"query": query, "variables": variables})
	if err != nil {
		t.Fatalf("failed to encode request: %v", err)
	}

	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost,
		ts.Server.URL+ts.Config.GraphQL.Path, bytes.NewReader(body))
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := ts.client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}

	var out GraphQLResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return &out
}
