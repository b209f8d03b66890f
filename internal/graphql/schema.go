// Package graphql serves the itemgraph GraphQL API: the schema, its
// resolvers and the HTTP handler that executes requests against them.
package graphql

import (
	"context"
	_ "embed"
	"fmt"

	graphqlgo "github.com/graph-gophers/graphql-go"
	"go.uber.org/zap"

	"github.com/piwi3910/itemgraph/internal/config"
	"github.com/piwi3910/itemgraph/internal/observability"
)

//go:embed schema.graphql
var schemaSDL string

// SchemaSDL returns the schema definition the API serves.
func SchemaSDL() string {
	return schemaSDL
}

// NewSchema parses the schema once and binds it to root.
//
// Example:
//
//	root := graphql.NewRootResolver(repo, logger, metrics)
//	schema, err := graphql.NewSchema(root, cfg.GraphQL, logger)
func NewSchema(root *RootResolver, cfg config.GraphQLConfig, logger *observability.Logger) (*graphqlgo.Schema, error) {
	opts := []graphqlgo.SchemaOpt{
		graphqlgo.Logger(panicLogger{logger: logger}),
	}
	if cfg.MaxDepth > 0 {
		opts = append(opts, graphqlgo.MaxDepth(cfg.MaxDepth))
	}
	if cfg.MaxParallelism > 0 {
		opts = append(opts, graphqlgo.MaxParallelism(cfg.MaxParallelism))
	}

	schema, err := graphqlgo.ParseSchema(schemaSDL, root, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse graphql schema: %w", err)
	}
	return schema, nil
}

// panicLogger reports resolver panics through zap. The executor turns the
// panic into a GraphQL error on its own.
type panicLogger struct {
	logger *observability.Logger
}

func (p panicLogger) LogPanic(ctx context.Context, value interface{}) {
	p.logger.WithContext(ctx).Error("graphql resolver panic",
		zap.Any("panic", value),
		zap.Stack("stack"),
	)
}
