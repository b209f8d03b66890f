package server

import (
	"go.uber.org/zap"

	"github.com/piwi3910/itemgraph/internal/graphql"
)

// setupGraphQLRoutes configures the GraphQL endpoints.
//
// Endpoints:
//   - POST <path> - GraphQL query endpoint
//   - GET <path> - GraphQL playground UI (outside release mode, when enabled)
func (s *Server) setupGraphQLRoutes() {
	path := s.config.GraphQL.Path

	s.router.POST(path, s.graphql.GinHandler())

	if s.playgroundEnabled() {
		s.router.GET(path, graphql.PlaygroundHandler(path))
		s.logger.Info("GraphQL playground enabled", zap.String("path", path))
	}
}

// playgroundEnabled reports whether the playground is served.
func (s *Server) playgroundEnabled() bool {
	return s.config.GraphQL.EnablePlayground && s.config.Server.GinMode != "release"
}
