package helpers

import (
	"net/http"
	"time"

	"github.com/piwi3910/itemgraph/internal/config"
)

const (
	// DefaultRequestTimeout bounds one GraphQL round trip.
	DefaultRequestTimeout = 30 * time.Second

	// EmulatorRequestTimeout applies to the Firestore emulator, whose first
	// queries on a fresh collection are slow.
	EmulatorRequestTimeout = 90 * time.Second
)

// RequestTimeout returns the client timeout used against backend.
func RequestTimeout(backend string) time.Duration {
	if backend == config.BackendFirestore {
		return EmulatorRequestTimeout
	}
	return DefaultRequestTimeout
}

// NewTestHTTPClient creates the client TestServer sends GraphQL requests
// with. A stuck backend fails the request after timeout instead of hanging
// the test.
func NewTestHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}
