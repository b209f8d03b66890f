// Package config provides configuration management for the itemgraph API.
// It loads configuration from YAML files and environment variables using Viper,
// applies defaults, and validates the result.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultConfigPath is used when no --config flag is given.
const DefaultConfigPath = ""

// Store backends.
const (
	BackendFirestore = "firestore"
	BackendRedis     = "redis"
	BackendMongo     = "mongo"
	BackendMemory    = "memory"
)

// Config represents the complete configuration for the itemgraph API.
//
// Configuration can be loaded from:
//   - YAML file (config/config.yaml)
//   - Environment variables (prefixed with ITEMGRAPH_)
//   - PORT, when the hosting platform assigns the listener port
//
// Example:
//
//	cfg, err := config.Load("config/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
type Config struct {
	Environment   string              `mapstructure:"environment"`
	Server        ServerConfig        `mapstructure:"server"`
	Store         StoreConfig         `mapstructure:"store"`
	Firestore     FirestoreConfig     `mapstructure:"firestore"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Mongo         MongoConfig         `mapstructure:"mongo"`
	GraphQL       GraphQLConfig       `mapstructure:"graphql"`
	Observability ObservabilityConfig `mapstructure:"observability"`
	Security      SecurityConfig      `mapstructure:"security"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	// Host is the network interface to bind to (e.g., "0.0.0.0", "localhost")
	Host string `mapstructure:"host"`

	// Port is the HTTP server port (default: 4000)
	Port int `mapstructure:"port"`

	// ReadTimeout is the maximum duration for reading the entire request
	ReadTimeout time.Duration `mapstructure:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the response
	WriteTimeout time.Duration `mapstructure:"write_timeout"`

	// IdleTimeout is the maximum duration to wait for the next request when keep-alives are enabled
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	// MaxHeaderBytes is the maximum size of request headers
	MaxHeaderBytes int `mapstructure:"max_header_bytes"`

	// GinMode sets the Gin framework mode ("debug", "release", "test")
	GinMode string `mapstructure:"gin_mode"`
}

// StoreConfig selects and tunes the document store backend.
type StoreConfig struct {
	// Backend is one of "firestore", "redis", "mongo", "memory".
	Backend string `mapstructure:"backend"`

	// OperationTimeout bounds every single store call. Zero disables it.
	OperationTimeout time.Duration `mapstructure:"operation_timeout"`

	Collections CollectionsConfig `mapstructure:"collections"`
}

// CollectionsConfig names the collections holding each entity.
type CollectionsConfig struct {
	Users    string `mapstructure:"users"`
	Items    string `mapstructure:"items"`
	Comments string `mapstructure:"comments"`
}

// FirestoreConfig contains Cloud Firestore client configuration.
type FirestoreConfig struct {
	// ProjectID is the GCP project owning the database.
	ProjectID string `mapstructure:"project_id"`

	// DatabaseID selects a named database; "(default)" uses the default one.
	DatabaseID string `mapstructure:"database_id"`

	// CredentialsFile is the path to the service account JSON file.
	// Leave empty to use Application Default Credentials.
	CredentialsFile string `mapstructure:"credentials_file"`

	// EmulatorHost points the client at a local emulator (host:port).
	EmulatorHost string `mapstructure:"emulator_host"`
}

// RedisConfig contains Redis client configuration.
type RedisConfig struct {
	// Mode specifies Redis deployment mode: "standalone" or "sentinel"
	Mode string `mapstructure:"mode"`

	// Addresses contains Redis server addresses
	// For standalone: ["localhost:6379"]
	// For sentinel: ["sentinel1:26379", "sentinel2:26379"]
	Addresses []string `mapstructure:"addresses"`

	// MasterName is required for Sentinel mode (e.g., "mymaster")
	MasterName string `mapstructure:"master_name"`

	// Password for Redis authentication (deprecated, use PasswordEnvVar)
	Password string `mapstructure:"password"`

	// PasswordEnvVar names an environment variable holding the password
	PasswordEnvVar string `mapstructure:"password_env_var"`

	// DB is the Redis database number (0-15)
	DB int `mapstructure:"db"`

	// PoolSize is the maximum number of socket connections
	PoolSize int `mapstructure:"pool_size"`

	// MaxRetries is the go-redis internal retry count. Keep at 0 to issue one request per read.
	MaxRetries int `mapstructure:"max_retries"`

	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`

	// KeyPrefix is prepended to every key written or read.
	KeyPrefix string `mapstructure:"key_prefix"`
}

// MongoConfig contains MongoDB client configuration.
type MongoConfig struct {
	URI            string        `mapstructure:"uri"`
	Database       string        `mapstructure:"database"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

// GraphQLConfig contains GraphQL endpoint settings.
type GraphQLConfig struct {
	// Path is the HTTP path of the GraphQL endpoint
	Path string `mapstructure:"path"`

	// EnablePlayground serves the GraphQL playground on GET <path> outside release mode
	EnablePlayground bool `mapstructure:"enable_playground"`

	// MaxDepth limits query nesting depth (0 = unlimited)
	MaxDepth int `mapstructure:"max_depth"`

	// MaxParallelism limits concurrently running field resolvers per request
	MaxParallelism int `mapstructure:"max_parallelism"`
}

// ObservabilityConfig contains logging and metrics configuration.
type ObservabilityConfig struct {
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// LoggingConfig contains structured logging configuration.
type LoggingConfig struct {
	// Level sets the log level ("debug", "info", "warn", "error", "fatal")
	Level string `mapstructure:"level"`

	// Format sets the log format ("json", "console")
	Format string `mapstructure:"format"`

	OutputPaths      []string `mapstructure:"output_paths"`
	ErrorOutputPaths []string `mapstructure:"error_output_paths"`
	EnableCaller     bool     `mapstructure:"enable_caller"`
	EnableStacktrace bool     `mapstructure:"enable_stacktrace"`

	// Development enables development mode (more verbose, console format)
	Development bool `mapstructure:"development"`
}

// MetricsConfig contains Prometheus metrics configuration.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Path      string `mapstructure:"path"`
	Namespace string `mapstructure:"namespace"`
}

// SecurityConfig contains HTTP security configuration.
type SecurityConfig struct {
	EnableCORS      bool     `mapstructure:"enable_cors"`
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
	AllowedMethods  []string `mapstructure:"allowed_methods"`
	AllowedHeaders  []string `mapstructure:"allowed_headers"`
	SecurityHeaders bool     `mapstructure:"security_headers"`

	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// RateLimitConfig configures the per-client token bucket kept in Redis.
// The limiter connects with the settings of the redis section.
type RateLimitConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	RequestsPerSecond int  `mapstructure:"requests_per_second"`
	Burst             int  `mapstructure:"burst"`
}

// Load loads configuration from the specified file path and environment variables.
// Environment variables override file values and should be prefixed with ITEMGRAPH_
// (e.g., ITEMGRAPH_STORE_BACKEND=redis). A bare PORT variable, as set by most
// container platforms, overrides server.port.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/itemgraph")
	}

	v.SetEnvPrefix("ITEMGRAPH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// Config file is optional if all values come from env vars
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if port := os.Getenv("PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT value %q: %w", port, err)
		}
		cfg.Server.Port = p
	}

	return &cfg, nil
}

// setDefaults sets default values for all configuration options.
func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "production")

	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 4000)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.max_header_bytes", 1048576) // 1MB
	v.SetDefault("server.gin_mode", "release")

	// Store defaults
	v.SetDefault("store.backend", BackendFirestore)
	v.SetDefault("store.operation_timeout", "10s")
	v.SetDefault("store.collections.users", "users")
	v.SetDefault("store.collections.items", "items")
	v.SetDefault("store.collections.comments", "comments")

	// Firestore defaults
	v.SetDefault("firestore.database_id", "(default)")
	v.SetDefault("firestore.credentials_file", "service-account.json")

	// Redis defaults
	v.SetDefault("redis.mode", "standalone")
	v.SetDefault("redis.addresses", []string{"localhost:6379"})
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.max_retries", 0)
	v.SetDefault("redis.dial_timeout", "5s")
	v.SetDefault("redis.read_timeout", "3s")
	v.SetDefault("redis.write_timeout", "3s")
	v.SetDefault("redis.key_prefix", "itemgraph:")

	// Mongo defaults
	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "itemgraph")
	v.SetDefault("mongo.connect_timeout", "10s")

	// GraphQL defaults
	v.SetDefault("graphql.path", "/graphql")
	v.SetDefault("graphql.enable_playground", true)
	v.SetDefault("graphql.max_depth", 10)
	v.SetDefault("graphql.max_parallelism", 10)

	// Logging defaults
	v.SetDefault("observability.logging.level", "info")
	v.SetDefault("observability.logging.format", "json")
	v.SetDefault("observability.logging.output_paths", []string{"stdout"})
	v.SetDefault("observability.logging.error_output_paths", []string{"stderr"})
	v.SetDefault("observability.logging.enable_caller", true)
	v.SetDefault("observability.logging.enable_stacktrace", false)
	v.SetDefault("observability.logging.development", false)

	// Metrics defaults
	v.SetDefault("observability.metrics.enabled", true)
	v.SetDefault("observability.metrics.path", "/metrics")
	v.SetDefault("observability.metrics.namespace", "itemgraph")

	// Security defaults
	v.SetDefault("security.enable_cors", false)
	v.SetDefault("security.allowed_methods", []string{"GET", "POST", "OPTIONS"})
	v.SetDefault("security.allowed_headers", []string{"Content-Type", "Authorization", "X-Request-ID"})
	v.SetDefault("security.security_headers", true)
	v.SetDefault("security.rate_limit.enabled", false)
	v.SetDefault("security.rate_limit.requests_per_second", 20)
	v.SetDefault("security.rate_limit.burst", 40)
}

// Validate validates the configuration and returns an error if any values are invalid.
// This should be called after Load() to ensure the configuration is valid before use.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}

	if err := c.validateStore(); err != nil {
		return err
	}

	if err := c.validateGraphQL(); err != nil {
		return err
	}

	if err := c.validateObservability(); err != nil {
		return err
	}

	if err := c.validateRateLimit(); err != nil {
		return err
	}

	return nil
}

// validateRateLimit validates the rate limit configuration.
func (c *Config) validateRateLimit() error {
	rl := c.Security.RateLimit
	if !rl.Enabled {
		return nil
	}
	if rl.RequestsPerSecond < 1 {
		return fmt.Errorf("rate_limit requests_per_second must be at least 1, got %d", rl.RequestsPerSecond)
	}
	if rl.Burst < rl.RequestsPerSecond {
		return fmt.Errorf("rate_limit burst (%d) must be at least requests_per_second (%d)", rl.Burst, rl.RequestsPerSecond)
	}
	if c.Store.Backend != BackendRedis {
		// The limiter needs Redis even when documents live elsewhere.
		return c.validateRedis()
	}
	return nil
}

// validateServer validates the server configuration.
func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be 1-65535)", c.Server.Port)
	}

	if c.Server.GinMode != "debug" && c.Server.GinMode != "release" && c.Server.GinMode != "test" {
		return fmt.Errorf("invalid gin_mode: %s (must be debug, release, or test)", c.Server.GinMode)
	}

	return nil
}

// validateStore validates the store selection and the settings of the chosen backend.
func (c *Config) validateStore() error {
	if c.Store.OperationTimeout < 0 {
		return fmt.Errorf("invalid store operation_timeout: %s (must be >= 0)", c.Store.OperationTimeout)
	}

	cols := c.Store.Collections
	if cols.Users == "" || cols.Items == "" || cols.Comments == "" {
		return fmt.Errorf("store collection names cannot be empty")
	}

	switch c.Store.Backend {
	case BackendFirestore:
		return c.validateFirestore()
	case BackendRedis:
		return c.validateRedis()
	case BackendMongo:
		return c.validateMongo()
	case BackendMemory:
		return nil
	default:
		return fmt.Errorf("invalid store backend: %s (must be firestore, redis, mongo, or memory)", c.Store.Backend)
	}
}

// validateFirestore validates the Firestore configuration.
func (c *Config) validateFirestore() error {
	if c.Firestore.ProjectID == "" {
		return fmt.Errorf("firestore project_id is required")
	}

	if c.Firestore.EmulatorHost != "" || c.Firestore.CredentialsFile == "" {
		return nil
	}

	if _, err := os.Stat(c.Firestore.CredentialsFile); os.IsNotExist(err) {
		return fmt.Errorf("firestore credentials_file does not exist: %s", c.Firestore.CredentialsFile)
	}

	return nil
}

// validateRedis validates the Redis configuration.
func (c *Config) validateRedis() error {
	if c.Redis.Mode != "standalone" && c.Redis.Mode != "sentinel" {
		return fmt.Errorf("invalid redis mode: %s (must be standalone or sentinel)", c.Redis.Mode)
	}

	if len(c.Redis.Addresses) == 0 {
		return fmt.Errorf("redis addresses cannot be empty")
	}

	if c.Redis.Mode == "sentinel" && c.Redis.MasterName == "" {
		return fmt.Errorf("redis master_name is required for sentinel mode")
	}

	if c.Redis.DB < 0 || c.Redis.DB > 15 {
		return fmt.Errorf("invalid redis db: %d (must be 0-15)", c.Redis.DB)
	}

	return nil
}

// validateMongo validates the MongoDB configuration.
func (c *Config) validateMongo() error {
	if c.Mongo.URI == "" {
		return fmt.Errorf("mongo uri is required")
	}

	if c.Mongo.Database == "" {
		return fmt.Errorf("mongo database is required")
	}

	return nil
}

// validateGraphQL validates the GraphQL endpoint configuration.
func (c *Config) validateGraphQL() error {
	if !strings.HasPrefix(c.GraphQL.Path, "/") {
		return fmt.Errorf("invalid graphql path: %q (must start with /)", c.GraphQL.Path)
	}

	if c.GraphQL.MaxDepth < 0 {
		return fmt.Errorf("invalid graphql max_depth: %d", c.GraphQL.MaxDepth)
	}

	if c.GraphQL.MaxParallelism < 1 {
		return fmt.Errorf("invalid graphql max_parallelism: %d (must be > 0)", c.GraphQL.MaxParallelism)
	}

	return nil
}

// validateObservability validates the logging and metrics configuration.
func (c *Config) validateObservability() error {
	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "fatal": true,
	}
	if !validLogLevels[c.Observability.Logging.Level] {
		return fmt.Errorf("invalid logging level: %s", c.Observability.Logging.Level)
	}

	if c.Observability.Logging.Format != "json" && c.Observability.Logging.Format != "console" {
		return fmt.Errorf("invalid logging format: %s (must be json or console)", c.Observability.Logging.Format)
	}

	if c.Observability.Metrics.Enabled && c.Observability.Metrics.Path == "" {
		return fmt.Errorf("metrics path cannot be empty when metrics are enabled")
	}

	return nil
}

// GetPassword resolves the Redis password, preferring PasswordEnvVar.
func (r *RedisConfig) GetPassword() (string, error) {
	if r.PasswordEnvVar != "" {
		pw, ok := os.LookupEnv(r.PasswordEnvVar)
		if !ok {
			return "", fmt.Errorf("redis password environment variable %s is not set", r.PasswordEnvVar)
		}
		return pw, nil
	}
	return r.Password, nil
}

// Address returns the host:port the HTTP server listens on.
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
