package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, metrics *Metrics) string {
	t.Helper()
	rr := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	return rr.Body.String()
}

func TestMetricsExposeRegistryCommands(t *testing.T) {
	metrics := NewMetrics()
	metrics.ObserveCommand("mint", "ok", 3*time.Millisecond)
	metrics.ObserveCommand("mint", "denied", time.Millisecond)
	metrics.SetHead(4, 12)
	require.Error(t, metrics.Jobs().Track("registry_integrity").End(errors.New("mismatch")))

	body := scrape(t, metrics)
	require.Contains(t, body, `registry_commands_total{op="mint",outcome="ok"} 1`)
	require.Contains(t, body, `registry_commands_total{op="mint",outcome="denied"} 1`)
	require.Contains(t, body, "registry_head_version 4")
	require.Contains(t, body, "registry_head_seq 12")
	require.Contains(t, body, `registry_jobs_total{job="registry_integrity",status="failure"} 1`)
}

func TestMetricsMiddlewareRecordsRequest(t *testing.T) {
	metrics := NewMetrics()

	handler := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	routeCtx := chi.NewRouteContext()
	routeCtx.RoutePatterns = append(routeCtx.RoutePatterns, "/tokens/{id}")

	req := httptest.NewRequest(http.MethodGet, "/tokens/7", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusTeapot, rr.Code)

	body := scrape(t, metrics)
	require.Contains(t, body, `registry_http_requests_total{code="418",route="/tokens/{id}"} 1`)
	require.Contains(t, body, `registry_http_request_duration_seconds_bucket{route="/tokens/{id}"`)
}

func TestNilMetricsAreSafe(t *testing.T) {
	var metrics *Metrics
	metrics.ObserveCommand("mint", "ok", time.Millisecond)
	metrics.SetHead(1, 1)
	require.Nil(t, metrics.Jobs())

	rr := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
