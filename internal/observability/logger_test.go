package observability_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/piwi3910/itemgraph/internal/config"
	"github.com/piwi3910/itemgraph/internal/observability"
)

// observedLogger returns a Logger that records entries at debug level and above.
func observedLogger() (*observability.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return &observability.Logger{Logger: zap.New(core)}, logs
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.LoggingConfig
	}{
		{
			name: "production json",
			cfg:  config.LoggingConfig{Level: "info", Format: "json", OutputPaths: []string{"stdout"}},
		},
		{
			name: "production console",
			cfg:  config.LoggingConfig{Level: "warn", Format: "console"},
		},
		{
			name: "development",
			cfg:  config.LoggingConfig{Level: "debug", Development: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := observability.NewLogger(tt.cfg)
			require.NoError(t, err)
			require.NotNil(t, logger)
			assert.NotNil(t, logger.Logger)
		})
	}
}

func TestNewLogger_BadOutputPath(t *testing.T) {
	_, err := observability.NewLogger(config.LoggingConfig{
		Level:       "info",
		OutputPaths: []string{"/nonexistent-dir/itemgraph/out.log"},
	})
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zap.DebugLevel},
		{"info", zap.InfoLevel},
		{"warn", zap.WarnLevel},
		{"error", zap.ErrorLevel},
		{"fatal", zap.FatalLevel},
		{"", zap.InfoLevel},
		{"loud", zap.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, observability.ParseLevel(tt.in).Level())
		})
	}
}

func TestWithContext_AddsRequestID(t *testing.T) {
	logger, logs := observedLogger()

	ctx := observability.ContextWithRequestID(context.Background(), "req-42")
	logger.WithContext(ctx).Info("hello")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "req-42", logs.All()[0].ContextMap()["request_id"])
}

func TestWithContext_NoFields(t *testing.T) {
	logger, _ := observedLogger()
	assert.Same(t, logger, logger.WithContext(context.Background()))
}

func TestLoggerFromContext(t *testing.T) {
	logger, _ := observedLogger()

	ctx := observability.ContextWithLogger(context.Background(), logger)
	assert.Same(t, logger, observability.LoggerFromContext(ctx))

	fallback := observability.LoggerFromContext(context.Background())
	require.NotNil(t, fallback)
	fallback.Info("discarded")
}

func TestRequestIDFromContext(t *testing.T) {
	assert.Empty(t, observability.RequestIDFromContext(context.Background()))

	ctx := observability.ContextWithRequestID(context.Background(), "abc")
	assert.Equal(t, "abc", observability.RequestIDFromContext(ctx))
}

func TestWithComponentAndError(t *testing.T) {
	logger, logs := observedLogger()

	logger.WithComponent("store").WithError(errors.New("boom")).Error("failed")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "store", fields["component"])
	assert.Equal(t, "boom", fields["error"])
}

func TestLogStoreOperation(t *testing.T) {
	logger, logs := observedLogger()

	logger.LogStoreOperation("get", "users", "u1", time.Millisecond, nil)
	logger.LogStoreOperation("list", "items", "", time.Millisecond, errors.New("unavailable"))

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zap.DebugLevel, entries[0].Level)
	assert.Equal(t, "u1", entries[0].ContextMap()["key"])
	assert.Equal(t, zap.WarnLevel, entries[1].Level)
	assert.Equal(t, "items", entries[1].ContextMap()["collection"])
}

func TestLogGraphQLRequest(t *testing.T) {
	logger, logs := observedLogger()

	logger.LogGraphQLRequest("GetItems", 1, 3*time.Millisecond)

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "GetItems", fields["operation"])
	assert.EqualValues(t, 1, fields["errors"])
}
