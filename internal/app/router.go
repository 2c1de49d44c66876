package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/nft-registry/internal/observability"
	"github.com/odyssey-erp/nft-registry/internal/platform/httpx"
	registryhttp "github.com/odyssey-erp/nft-registry/internal/registry/http"
	"github.com/odyssey-erp/nft-registry/jobs"
)

// ReadinessFunc reports whether the service can serve traffic.
type ReadinessFunc func() error

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger          *slog.Logger
	Config          *Config
	RegistryHandler *registryhttp.Handler
	JobHandler      *jobs.Handler
	Metrics         *observability.Metrics
	Ready           ReadinessFunc
}

// NewRouter constructs the chi.Router with registry defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if params.Ready != nil {
			if err := params.Ready(); err != nil {
				httpx.Problem(w, http.StatusServiceUnavailable, "Service Unavailable", err.Error())
				return
			}
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})

	if params.RegistryHandler != nil {
		r.Route("/v1", params.RegistryHandler.MountRoutes)
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}
	return r
}
