package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/itemgraph/internal/config"
)

// writeConfig writes yaml into a temporary config file and returns its path.
func writeConfig(t *testing.T, yaml string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	return path
}

// TestLoad tests the Load function with various scenarios.
func TestLoad(t *testing.T) {
	tests := []struct {
		name       string
		configYAML string
		envVars    map[string]string
		wantErr    bool
		validate   func(*testing.T, *config.Config)
	}{
		{
			name:       "defaults only",
			configYAML: "environment: production\n",
			validate: func(t *testing.T, cfg *config.Config) {
				t.Helper()
				assert.Equal(t, "0.0.0.0", cfg.Server.Host)
				assert.Equal(t, 4000, cfg.Server.Port)
				assert.Equal(t, config.BackendFirestore, cfg.Store.Backend)
				assert.Equal(t, 10*time.Second, cfg.Store.OperationTimeout)
				assert.Equal(t, "users", cfg.Store.Collections.Users)
				assert.Equal(t, "items", cfg.Store.Collections.Items)
				assert.Equal(t, "comments", cfg.Store.Collections.Comments)
				assert.Equal(t, "/graphql", cfg.GraphQL.Path)
				assert.Equal(t, 10, cfg.GraphQL.MaxParallelism)
				assert.Equal(t, "(default)", cfg.Firestore.DatabaseID)
			},
		},
		{
			name: "redis backend with overrides",
			configYAML: `
server:
  host: 127.0.0.1
  port: 9090
  gin_mode: debug
store:
  backend: redis
  operation_timeout: 2s
  collections:
    items: posts
redis:
  addresses:
    - redis.internal:6379
  db: 3
  key_prefix: "test:"
`,
			validate: func(t *testing.T, cfg *config.Config) {
				t.Helper()
				assert.Equal(t, "127.0.0.1", cfg.Server.Host)
				assert.Equal(t, 9090, cfg.Server.Port)
				assert.Equal(t, config.BackendRedis, cfg.Store.Backend)
				assert.Equal(t, 2*time.Second, cfg.Store.OperationTimeout)
				assert.Equal(t, "posts", cfg.Store.Collections.Items)
				assert.Equal(t, "users", cfg.Store.Collections.Users)
				assert.Equal(t, []string{"redis.internal:6379"}, cfg.Redis.Addresses)
				assert.Equal(t, 3, cfg.Redis.DB)
				assert.Equal(t, "test:", cfg.Redis.KeyPrefix)
			},
		},
		{
			name:       "environment variable overrides file",
			configYAML: "store:\n  backend: memory\n",
			envVars: map[string]string{
				"ITEMGRAPH_STORE_BACKEND": "mongo",
				"ITEMGRAPH_MONGO_URI":     "mongodb://mongo:27017",
			},
			validate: func(t *testing.T, cfg *config.Config) {
				t.Helper()
				assert.Equal(t, config.BackendMongo, cfg.Store.Backend)
				assert.Equal(t, "mongodb://mongo:27017", cfg.Mongo.URI)
			},
		},
		{
			name:       "platform PORT wins",
			configYAML: "server:\n  port: 8080\n",
			envVars:    map[string]string{"PORT": "5555"},
			validate: func(t *testing.T, cfg *config.Config) {
				t.Helper()
				assert.Equal(t, 5555, cfg.Server.Port)
			},
		},
		{
			name:       "non numeric PORT",
			configYAML: "server:\n  port: 8080\n",
			envVars:    map[string]string{"PORT": "eighty"},
			wantErr:    true,
		},
		{
			name:       "malformed yaml",
			configYAML: "server: [port",
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg, err := config.Load(writeConfig(t, tt.configYAML))
			if tt.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, cfg)
			if tt.validate != nil {
				tt.validate(t, cfg)
			}
		})
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 4000, cfg.Server.Port)
}

// validConfig returns a configuration that passes validation with the memory backend.
func validConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg, err := config.Load(writeConfig(t, "store:\n  backend: memory\n"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestValidate(t *testing.T) {
	credentials := filepath.Join(t.TempDir(), "service-account.json")
	require.NoError(t, os.WriteFile(credentials, []byte(`{"type":"service_account"}`), 0o600))

	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{
			name:   "memory backend",
			mutate: func(_ *config.Config) {},
		},
		{
			name:    "port out of range",
			mutate:  func(c *config.Config) { c.Server.Port = 70000 },
			wantErr: "invalid server port",
		},
		{
			name:    "unknown gin mode",
			mutate:  func(c *config.Config) { c.Server.GinMode = "verbose" },
			wantErr: "invalid gin_mode",
		},
		{
			name:    "unknown backend",
			mutate:  func(c *config.Config) { c.Store.Backend = "dynamo" },
			wantErr: "invalid store backend",
		},
		{
			name:    "negative operation timeout",
			mutate:  func(c *config.Config) { c.Store.OperationTimeout = -time.Second },
			wantErr: "operation_timeout",
		},
		{
			name:    "empty collection name",
			mutate:  func(c *config.Config) { c.Store.Collections.Items = "" },
			wantErr: "collection names",
		},
		{
			name: "firestore without project",
			mutate: func(c *config.Config) {
				c.Store.Backend = config.BackendFirestore
			},
			wantErr: "project_id",
		},
		{
			name: "firestore with missing credentials file",
			mutate: func(c *config.Config) {
				c.Store.Backend = config.BackendFirestore
				c.Firestore.ProjectID = "demo"
				c.Firestore.CredentialsFile = "/nonexistent/service-account.json"
			},
			wantErr: "credentials_file does not exist",
		},
		{
			name: "firestore with credentials file",
			mutate: func(c *config.Config) {
				c.Store.Backend = config.BackendFirestore
				c.Firestore.ProjectID = "demo"
				c.Firestore.CredentialsFile = credentials
			},
		},
		{
			name: "firestore emulator skips credentials",
			mutate: func(c *config.Config) {
				c.Store.Backend = config.BackendFirestore
				c.Firestore.ProjectID = "demo"
				c.Firestore.CredentialsFile = "/nonexistent/service-account.json"
				c.Firestore.EmulatorHost = "localhost:8686"
			},
		},
		{
			name: "redis sentinel without master",
			mutate: func(c *config.Config) {
				c.Store.Backend = config.BackendRedis
				c.Redis.Mode = "sentinel"
			},
			wantErr: "master_name",
		},
		{
			name: "redis bad db",
			mutate: func(c *config.Config) {
				c.Store.Backend = config.BackendRedis
				c.Redis.DB = 16
			},
			wantErr: "invalid redis db",
		},
		{
			name: "mongo without database",
			mutate: func(c *config.Config) {
				c.Store.Backend = config.BackendMongo
				c.Mongo.Database = ""
			},
			wantErr: "mongo database",
		},
		{
			name:    "graphql path without slash",
			mutate:  func(c *config.Config) { c.GraphQL.Path = "graphql" },
			wantErr: "invalid graphql path",
		},
		{
			name:    "zero parallelism",
			mutate:  func(c *config.Config) { c.GraphQL.MaxParallelism = 0 },
			wantErr: "max_parallelism",
		},
		{
			name:    "bad log level",
			mutate:  func(c *config.Config) { c.Observability.Logging.Level = "trace" },
			wantErr: "invalid logging level",
		},
		{
			name: "rate limit without rate",
			mutate: func(c *config.Config) {
				c.Security.RateLimit = config.RateLimitConfig{Enabled: true, RequestsPerSecond: 0, Burst: 1}
			},
			wantErr: "requests_per_second",
		},
		{
			name: "rate limit burst below rate",
			mutate: func(c *config.Config) {
				c.Security.RateLimit = config.RateLimitConfig{Enabled: true, RequestsPerSecond: 10, Burst: 5}
			},
			wantErr: "burst",
		},
		{
			name: "rate limit checks redis section on other backends",
			mutate: func(c *config.Config) {
				c.Security.RateLimit = config.RateLimitConfig{Enabled: true, RequestsPerSecond: 10, Burst: 20}
				c.Redis.DB = 99
			},
			wantErr: "invalid redis db",
		},
		{
			name: "rate limit enabled",
			mutate: func(c *config.Config) {
				c.Security.RateLimit = config.RateLimitConfig{Enabled: true, RequestsPerSecond: 10, Burst: 20}
			},
		},
		{
			name: "metrics without path",
			mutate: func(c *config.Config) {
				c.Observability.Metrics.Enabled = true
				c.Observability.Metrics.Path = ""
			},
			wantErr: "metrics path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRedisConfig_GetPassword(t *testing.T) {
	t.Run("plain password", func(t *testing.T) {
		rc := config.RedisConfig{Password: "secret"}
		pw, err := rc.GetPassword()
		require.NoError(t, err)
		assert.Equal(t, "secret", pw)
	})

	t.Run("from environment", func(t *testing.T) {
		t.Setenv("ITEMGRAPH_TEST_REDIS_PW", "from-env")
		rc := config.RedisConfig{Password: "ignored", PasswordEnvVar: "ITEMGRAPH_TEST_REDIS_PW"}
		pw, err := rc.GetPassword()
		require.NoError(t, err)
		assert.Equal(t, "from-env", pw)
	})

	t.Run("unset environment variable", func(t *testing.T) {
		rc := config.RedisConfig{PasswordEnvVar: "ITEMGRAPH_TEST_REDIS_PW_UNSET"}
		_, err := rc.GetPassword()
		assert.Error(t, err)
	})
}

func TestServerConfig_Address(t *testing.T) {
	sc := config.ServerConfig{Host: "127.0.0.1", Port: 4000}
	assert.Equal(t, "127.0.0.1:4000", sc.Address())
}
