// Package stores runs the GraphQL API against every real document store.
//
//go:build integration
// +build integration

package stores

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/itemgraph/internal/config"
	"github.com/piwi3910/itemgraph/tests/integration/helpers"
)

// Ids sort in insertion order so every backend lists them the same way.
const fixture = `{
  "users": [
    {"id": "u1", "name": "Ada", "birthday": "1815-12-10"},
    {"id": "u2", "name": "Alan", "birthday": "1912-06-23"}
  ],
  "items": [
    {"id": "i1", "userId": "u1", "title": "Notes", "content": "Analytical engine"},
    {"id": "i2", "userId": "u2", "title": "Paper", "content": "Computable numbers"},
    {"id": "i3", "userId": "u1", "title": "Letters", "content": "To Babbage"},
    {"id": "i4", "userId": "ghost", "title": "Orphan", "content": "No owner"}
  ],
  "comments": [
    {"id": "c1", "itemId": "i1", "userId": "u2", "content": "Remarkable"},
    {"id": "c2", "userId": "u1", "content": "Unattached"}
  ]
}`

func baseConfig(backend string) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{ShutdownTimeout: 5 * time.Second},
		Store: config.StoreConfig{
			Backend:          backend,
			OperationTimeout: 10 * time.Second,
		},
		GraphQL: config.GraphQLConfig{Path: "/graphql", MaxDepth: 10, MaxParallelism: 4},
	}
}

func TestRedisBackend(t *testing.T) {
	redis := helpers.SetupRedisContainer(context.Background(), t)

	cfg := baseConfig(config.BackendRedis)
	cfg.Redis = config.RedisConfig{
		Mode:         "standalone",
		Addresses:    []string{redis.Addr()},
		KeyPrefix:    "it:",
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	}

	runScenarios(t, helpers.NewTestServer(t, cfg, fixture))
}

func TestMongoBackend(t *testing.T) {
	mongo := helpers.SetupMongoContainer(context.Background(), t)

	cfg := baseConfig(config.BackendMongo)
	cfg.Mongo = config.MongoConfig{
		URI:            "mongodb://" + mongo.Addr(),
		Database:       "itemgraph_test",
		ConnectTimeout: 10 * time.Second,
	}

	runScenarios(t, helpers.NewTestServer(t, cfg, fixture))
}

func TestFirestoreBackend(t *testing.T) {
	emulator := helpers.SetupFirestoreEmulator(context.Background(), t)

	cfg := baseConfig(config.BackendFirestore)
	cfg.Firestore = config.FirestoreConfig{
		ProjectID:    "demo-itemgraph",
		DatabaseID:   "(default)",
		EmulatorHost: emulator.Addr(),
	}

	runScenarios(t, helpers.NewTestServer(t, cfg, fixture))
}

func decode(t *testing.T, resp *helpers.GraphQLResponse, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(resp.Data, out))
}

func runScenarios(t *testing.T, ts *helpers.TestServer) {
	t.Run("items in store order with owners", func(t *testing.T) {
		resp := ts.Query(t, `{ items { id title user { name } } }`, nil)
		require.Empty(t, resp.Errors)

		var data struct {
			Items []struct {
				ID    string
				Title string
				User  *struct{ Name string }
			}
		}
		decode(t, resp, &data)

		require.Len(t, data.Items, 4)
		assert.Equal(t, "i1", data.Items[0].ID)
		assert.Equal(t, "Ada", data.Items[0].User.Name)
		assert.Equal(t, "Alan", data.Items[1].User.Name)
		assert.Nil(t, data.Items[3].User, "dangling owner resolves to null")
	})

	t.Run("user with items", func(t *testing.T) {
		resp := ts.Query(t, `query($id: String!) { user(id: $id) { name birthday items { id } } }`,
			map[string]any{"id": "u1"})
		require.Empty(t, resp.Errors)

		var data struct {
			User struct {
				Name     string
				Birthday string
				Items    []struct{ ID string }
			}
		}
		decode(t, resp, &data)

		assert.Equal(t, "Ada", data.User.Name)
		assert.Equal(t, "1815-12-10", data.User.Birthday)
		ids := make([]string, 0, len(data.User.Items))
		for _, it := range data.User.Items {
			ids = append(ids, it.ID)
		}
		assert.ElementsMatch(t, []string{"i1", "i3"}, ids)
	})

	t.Run("unknown user", func(t *testing.T) {
		resp := ts.Query(t, `{ user(id: "nobody") { name } }`, nil)

		require.Len(t, resp.Errors, 1)
		assert.Equal(t, "User not found.", resp.Errors[0].Message)
		assert.Equal(t, "NOT_FOUND", resp.Errors[0].Extensions["code"])
		assert.JSONEq(t, `{"user":null}`, string(resp.Data))
	})

	t.Run("comments", func(t *testing.T) {
		resp := ts.Query(t, `{ item(id: "i1") { comments { content user { name } } } comment(id: "c2") { item { id } } }`, nil)
		require.Empty(t, resp.Errors)
		assert.JSONEq(t,
			`{"item":{"comments":[{"content":"Remarkable","user":{"name":"Alan"}}]},"comment":{"item":null}}`,
			string(resp.Data))
	})
}
