package observability_test

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/itemgraph/internal/observability"
)

func newTestMetrics(t *testing.T) (*observability.Metrics, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	return observability.NewMetrics("test", reg), reg
}

func TestNewMetrics_Registers(t *testing.T) {
	m, reg := newTestMetrics(t)
	m.RecordHTTPRequest("GET", "/health", 200, time.Millisecond)
	m.RecordGraphQLRequest(time.Millisecond, 0)
	m.RecordResolverError("NOT_FOUND")
	m.RecordStoreOperation("memory", "get", "users", time.Millisecond, nil, false)

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "test_http_requests_total")
	assert.Contains(t, names, "test_graphql_requests_total")
	assert.Contains(t, names, "test_graphql_resolver_errors_total")
	assert.Contains(t, names, "test_store_operations_total")
	assert.Contains(t, names, "test_store_operation_duration_seconds")
}

func TestNewMetrics_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	observability.NewMetrics("dup", reg)
	assert.Panics(t, func() { observability.NewMetrics("dup", reg) })
}

func TestRecordHTTPRequest(t *testing.T) {
	m, _ := newTestMetrics(t)

	m.RecordHTTPRequest("POST", "/graphql", 200, time.Millisecond)
	m.RecordHTTPRequest("POST", "/graphql", 200, time.Millisecond)
	m.RecordHTTPRequest("POST", "/graphql", 400, time.Millisecond)

	assert.InDelta(t, 2, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("POST", "/graphql", "200")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("POST", "/graphql", "400")), 0)
}

func TestHTTPInFlight(t *testing.T) {
	m, _ := newTestMetrics(t)

	m.HTTPInFlightInc()
	m.HTTPInFlightInc()
	m.HTTPInFlightDec()

	assert.InDelta(t, 1, testutil.ToFloat64(m.HTTPRequestsInFlight), 0)
}

func TestRecordGraphQLRequest(t *testing.T) {
	m, _ := newTestMetrics(t)

	m.RecordGraphQLRequest(time.Millisecond, 0)
	m.RecordGraphQLRequest(time.Millisecond, 2)
	m.RecordGraphQLRequest(time.Millisecond, 1)

	assert.InDelta(t, 1, testutil.ToFloat64(m.GraphQLRequestsTotal.WithLabelValues("success")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.GraphQLRequestsTotal.WithLabelValues("error")), 0)
	assert.Equal(t, 2, testutil.CollectAndCount(m.GraphQLRequestDuration))
}

func TestRecordStoreOperation(t *testing.T) {
	m, _ := newTestMetrics(t)

	m.RecordStoreOperation("redis", "get", "users", time.Millisecond, nil, false)
	m.RecordStoreOperation("redis", "get", "users", time.Millisecond, errors.New("not found"), true)
	m.RecordStoreOperation("redis", "list", "items", time.Millisecond, errors.New("down"), false)

	total := m.StoreOperationsTotal
	assert.InDelta(t, 1, testutil.ToFloat64(total.WithLabelValues("redis", "get", "users", "success")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(total.WithLabelValues("redis", "get", "users", "not_found")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(total.WithLabelValues("redis", "list", "items", "error")), 0)
}

func TestRecordResolverError(t *testing.T) {
	m, _ := newTestMetrics(t)

	m.RecordResolverError("STORE_UNAVAILABLE")
	m.RecordResolverError("STORE_UNAVAILABLE")

	assert.InDelta(t, 2, testutil.ToFloat64(m.GraphQLResolverErrors.WithLabelValues("STORE_UNAVAILABLE")), 0)
}
