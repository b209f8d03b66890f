package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// setupRoutes configures all HTTP routes:
//   - Health and readiness endpoints
//   - Prometheus metrics endpoint
//   - GraphQL endpoint and playground
func (s *Server) setupRoutes() {
	// Health check endpoints (no authentication required)
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/healthz", s.handleHealth)
	s.router.GET("/ready", s.handleReadiness)
	s.router.GET("/readyz", s.handleReadiness)

	if s.config.Observability.Metrics.Enabled && s.gatherer != nil {
		handler := promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})
		s.router.GET(s.config.Observability.Metrics.Path, gin.WrapH(handler))
	}

	s.setupGraphQLRoutes()

	s.router.GET("/", s.handleRoot)
	s.router.NoRoute(s.handleNotFound)
}

// handleHealth returns the health status of the server.
// This endpoint is used by load balancers and monitoring systems.
func (s *Server) handleHealth(c *gin.Context) {
	health := s.healthCheck.CheckHealth(c.Request.Context())

	statusCode := http.StatusOK
	if health.Status != "healthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, health)
}

// handleReadiness reports whether the server can answer queries,
// which requires a reachable document store.
func (s *Server) handleReadiness(c *gin.Context) {
	readiness := s.healthCheck.CheckReadiness(c.Request.Context())

	statusCode := http.StatusOK
	if !readiness.Ready {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, readiness)
}

// handleRoot returns basic API information.
func (s *Server) handleRoot(c *gin.Context) {
	endpoints := gin.H{
		"graphql": s.config.GraphQL.Path,
		"health":  "/health",
		"ready":   "/ready",
	}
	if s.config.Observability.Metrics.Enabled {
		endpoints["metrics"] = s.config.Observability.Metrics.Path
	}
	if s.playgroundEnabled() {
		endpoints["playground"] = s.config.GraphQL.Path
	}

	c.JSON(http.StatusOK, gin.H{
		"name":        "itemgraph",
		"description": "Read-only GraphQL API over users, items and comments",
		"backend":     s.config.Store.Backend,
		"endpoints":   endpoints,
	})
}

func (s *Server) handleNotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{
		"errors": []gin.H{{"message": "Not found."}},
	})
}
