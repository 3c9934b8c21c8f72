package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dframe-go/dframe/observability/metrics"
	"github.com/dframe-go/dframe/router"
)

func TestPrometheusRecordsDispatch(t *testing.T) {
	rec := metrics.NewPrometheus(metrics.WithRegistry(prometheus.NewRegistry()))

	r := router.New(router.WithRecorder(rec))
	r.Sign("GET /items/{id}", func(id string) string { return id })

	for _, target := range []string{"/items/1", "/items/2", "/missing"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, target, nil))
	}
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/items/1", nil))

	expected := `
# HELP dframe_router_dispatch_total Requests dispatched, by outcome and method
# TYPE dframe_router_dispatch_total counter
dframe_router_dispatch_total{method="GET",outcome="not_found"} 1
dframe_router_dispatch_total{method="GET",outcome="pattern"} 2
dframe_router_dispatch_total{method="POST",outcome="method_not_allowed"} 1
`
	require.NoError(t, testutil.GatherAndCompare(rec.Registry(), strings.NewReader(expected),
		"dframe_router_dispatch_total"))
	assert.Equal(t, 3, testutil.CollectAndCount(rec.Registry(), "dframe_router_dispatch_duration_seconds"))
}

func TestPrometheusHandler(t *testing.T) {
	rec := metrics.NewPrometheus(metrics.WithNamespace("app"), metrics.WithBuckets([]float64{0.1, 1}))
	rec.RecordDispatch(router.ClassExact, http.MethodGet, 50*time.Millisecond)

	w := httptest.NewRecorder()
	rec.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `app_router_dispatch_total{method="GET",outcome="exact"} 1`)
	assert.Contains(t, body, `app_router_dispatch_duration_seconds_bucket{outcome="exact",le="0.1"} 1`)
	assert.Contains(t, body, "go_goroutines")
}
