// Package server provides the HTTP server for the itemgraph API.
// It includes Gin-based routing, middleware setup, and graceful shutdown handling.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/piwi3910/itemgraph/internal/config"
	"github.com/piwi3910/itemgraph/internal/graphql"
	"github.com/piwi3910/itemgraph/internal/middleware"
	"github.com/piwi3910/itemgraph/internal/observability"
)

// Server represents the HTTP server for the itemgraph API.
//
// The server provides:
//   - the GraphQL endpoint (POST <graphql.path>) and optional playground
//   - Health check endpoints (/health, /ready)
//   - Prometheus metrics endpoint (/metrics)
//   - Request id, logging, recovery and rate limiting middleware
//   - Graceful shutdown support
//
// Example:
//
//	srv := server.New(cfg, logger, gqlHandler, healthChecker,
//	    server.WithMetrics(metrics, prometheus.DefaultGatherer))
//	if err := srv.Start(); err != nil {
//	    log.Fatal(err)
//	}
type Server struct {
	config      *config.Config
	logger      *observability.Logger
	router      *gin.Engine
	httpServer  *http.Server
	graphql     *graphql.Handler
	healthCheck *observability.HealthChecker
	metrics     *observability.Metrics
	gatherer    prometheus.Gatherer
	rateLimiter *middleware.RateLimiter

	shutdownOnce sync.Once
}

// Option customizes a Server.
type Option func(*Server)

// WithMetrics enables HTTP metrics and serves gatherer on the metrics path.
func WithMetrics(metrics *observability.Metrics, gatherer prometheus.Gatherer) Option {
	return func(s *Server) {
		s.metrics = metrics
		s.gatherer = gatherer
	}
}

// WithRateLimiter installs the per-client rate limiter.
func WithRateLimiter(rl *middleware.RateLimiter) Option {
	return func(s *Server) {
		s.rateLimiter = rl
	}
}

// New creates a new Server and configures middleware and routes.
// It panics if a required dependency is missing.
func New(
	cfg *config.Config,
	logger *observability.Logger,
	gql *graphql.Handler,
	health *observability.HealthChecker,
	opts ...Option,
) *Server {
	if cfg == nil {
		panic("config cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	if gql == nil {
		panic("graphql handler cannot be nil")
	}
	if health == nil {
		health = observability.NewHealthChecker("")
	}

	gin.SetMode(cfg.Server.GinMode)

	srv := &Server{
		config:      cfg,
		logger:      logger.WithComponent("server"),
		router:      gin.New(),
		graphql:     gql,
		healthCheck: health,
	}
	for _, opt := range opts {
		opt(srv)
	}

	srv.setupMiddleware()
	srv.setupRoutes()

	return srv
}

// setupMiddleware configures middleware for the Gin router.
// Middleware is executed in the order they are added.
func (s *Server) setupMiddleware() {
	// Recovery middleware - must be first to catch panics
	s.router.Use(s.recoveryMiddleware())

	s.router.Use(middleware.RequestID(s.logger))
	s.router.Use(s.loggingMiddleware())

	if s.metrics != nil {
		s.router.Use(s.metricsMiddleware())
	}

	if s.config.Security.EnableCORS {
		s.router.Use(s.corsMiddleware())
	}

	if s.config.Security.SecurityHeaders {
		headers := middleware.DefaultSecurityHeadersConfig()
		if s.playgroundEnabled() {
			headers.HTMLPaths = []string{s.config.GraphQL.Path}
		}
		s.router.Use(middleware.SecurityHeaders(headers))
	}

	if s.rateLimiter != nil {
		s.router.Use(s.rateLimiter.Middleware())
	}
}

// Start listens on the configured address and serves until SIGINT or SIGTERM.
func (s *Server) Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", s.config.Server.Address())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Server.Address(), err)
	}

	return s.Serve(ctx, ln)
}

// Serve serves HTTP on ln until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.httpServer = &http.Server{
		Handler:        s.router,
		ReadTimeout:    s.config.Server.ReadTimeout,
		WriteTimeout:   s.config.Server.WriteTimeout,
		IdleTimeout:    s.config.Server.IdleTimeout,
		MaxHeaderBytes: s.config.Server.MaxHeaderBytes,
	}

	serverErrors := make(chan error, 1)

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	s.logger.Info("server ready",
		zap.String("url", s.URL(ln.Addr())),
		zap.String("mode", s.config.Server.GinMode),
	)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
		return s.Shutdown()
	}
}

// URL returns the GraphQL endpoint URL for a bound address.
// Wildcard hosts are reported as localhost.
func (s *Server) URL(addr net.Addr) string {
	host, port, err := net.SplitHostPort(addr.String())
	if err != nil {
		return "http://" + addr.String() + s.config.GraphQL.Path
	}
	if ip := net.ParseIP(host); ip != nil && ip.IsUnspecified() {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port) + s.config.GraphQL.Path
}

// Shutdown gracefully shuts down the HTTP server.
// It waits for active requests to complete or until the shutdown timeout expires.
// This method is safe to call multiple times - only the first call will execute.
func (s *Server) Shutdown() error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.httpServer == nil {
			return
		}

		s.logger.Info("initiating graceful shutdown",
			zap.Duration("timeout", s.config.Server.ShutdownTimeout),
		)

		ctx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
		defer cancel()

		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Error("error during shutdown", zap.Error(err))
			shutdownErr = fmt.Errorf("server shutdown failed: %w", err)
			return
		}

		s.logger.Info("server shutdown complete")
	})

	return shutdownErr
}

// Router returns the underlying Gin router.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// recoveryMiddleware recovers from panics and logs the error.
func (s *Server) recoveryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				s.logger.WithContext(c.Request.Context()).Error("panic recovered",
					zap.Any("error", err),
					zap.String("method", c.Request.Method),
					zap.String("path", c.Request.URL.Path),
					zap.String("client_ip", c.ClientIP()),
				)

				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"errors": []gin.H{{"message": "Internal server error."}},
				})
			}
		}()
		c.Next()
	}
}

// loggingMiddleware logs HTTP requests and responses.
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		logger := observability.LoggerFromContext(c.Request.Context())
		logger.Info("HTTP request",
			zap.Int("status", c.Writer.Status()),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.String("client_ip", c.ClientIP()),
			zap.Duration("latency", time.Since(start)),
			zap.Int("body_size", c.Writer.Size()),
			zap.String("user_agent", c.Request.UserAgent()),
		)

		for _, e := range c.Errors {
			logger.Error("request error", zap.Error(e.Err))
		}
	}
}

// metricsMiddleware collects Prometheus metrics for HTTP requests.
func (s *Server) metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		s.metrics.HTTPInFlightInc()
		defer s.metrics.HTTPInFlightDec()

		c.Next()

		// Unmatched paths share one label.
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		s.metrics.RecordHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}

// corsMiddleware adds CORS headers to responses.
func (s *Server) corsMiddleware() gin.HandlerFunc {
	allowAll := len(s.config.Security.AllowedOrigins) == 0
	allowed := make(map[string]bool, len(s.config.Security.AllowedOrigins))
	// Only explicitly listed origins may send credentials.
	for _, origin := range s.config.Security.AllowedOrigins {
		if origin == "*" {
			allowAll = true
			continue
		}
		allowed[origin] = true
	}
	methods := strings.Join(s.config.Security.AllowedMethods, ", ")
	headers := strings.Join(s.config.Security.AllowedHeaders, ", ")

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		if origin != "" && (allowAll || allowed[origin]) {
			h := c.Writer.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			if allowed[origin] {
				h.Set("Access-Control-Allow-Credentials", "true")
			}
			h.Set("Access-Control-Allow-Headers", headers)
			h.Set("Access-Control-Allow-Methods", methods)
			h.Add("Vary", "Origin")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
