package graphql

import (
	"context"
	"net/http"
	"time"

	"github.com/99designs/gqlgen/graphql/playground"
	"github.com/gin-gonic/gin"
	graphqlgo "github.com/graph-gophers/graphql-go"
	"go.uber.org/zap"

	"github.com/piwi3910/itemgraph/internal/observability"
)

// Request is a GraphQL-over-HTTP request body.
type Request struct {
	Query         string                 `json:"query" binding:"required"`
	OperationName string                 `json:"operationName"`
	Variables     map[string]interface{} `json:"variables"`
}

// Handler executes GraphQL requests against a parsed schema.
type Handler struct {
	schema  *graphqlgo.Schema
	logger  *observability.Logger
	metrics *observability.Metrics
}

// NewHandler creates a handler. metrics may be nil.
func NewHandler(schema *graphqlgo.Schema, logger *observability.Logger, metrics *observability.Metrics) *Handler {
	if schema == nil {
		panic("graphql: schema cannot be nil")
	}
	if logger == nil {
		logger = observability.NewNopLogger()
	}
	return &Handler{schema: schema, logger: logger, metrics: metrics}
}

// Execute runs one request and records its metrics.
func (h *Handler) Execute(ctx context.Context, req Request) *graphqlgo.Response {
	start := time.Now()
	resp := h.schema.Exec(ctx, req.Query, req.OperationName, req.Variables)
	duration := time.Since(start)

	if h.metrics != nil {
		h.metrics.RecordGraphQLRequest(duration, len(resp.Errors))
	}
	h.logger.WithContext(ctx).LogGraphQLRequest(req.OperationName, len(resp.Errors), duration)

	return resp
}

// GinHandler decodes a POST body, executes it and writes the response.
// Execution errors are reported inside the body with status 200; only an
// undecodable request gets a 400.
//
// Example:
//
//	router.POST("/graphql", handler.GinHandler())
func (h *Handler) GinHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req Request
		if err := c.ShouldBindJSON(&req); err != nil {
			h.logger.WithContext(c.Request.Context()).Debug("invalid graphql request", zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{
				"errors": []gin.H{{"message": "Request body must be JSON with a non-empty query."}},
			})
			return
		}

		c.JSON(http.StatusOK, h.Execute(c.Request.Context(), req))
	}
}

// PlaygroundHandler returns a handler for the GraphQL playground UI.
// The playground provides an interactive GraphQL IDE for exploring the schema
// and testing queries.
//
// Example:
//
//	router.GET("/graphql", PlaygroundHandler("/graphql"))
func PlaygroundHandler(endpoint string) gin.HandlerFunc {
	h := playground.Handler("itemgraph", endpoint)
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
