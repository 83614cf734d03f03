// Package httptransport assembles the chi router: shared middleware, the
// banner/health/metrics endpoints, and every feature handler's routes.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"scrollvault/internal/platform/metrics"
	"scrollvault/internal/platform/middleware"
	"scrollvault/pkg/platform/httputil"
)

// Registrar is implemented by every feature handler.
type Registrar interface {
	Register(r chi.Router)
}

// HealthCheck reports whether a backing dependency is reachable.
type HealthCheck func(ctx context.Context) error

type Options struct {
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	// Checks run on /health keyed by dependency name. Nil means no checks.
	Checks map[string]HealthCheck
	Now    func() time.Time
}

func NewRouter(opts Options, handlers ...Registrar) chi.Router {
	if opts.Now == nil {
		opts.Now = time.Now
	}

	r := chi.NewRouter()
	r.Use(middleware.Recovery(opts.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(opts.Logger))
	r.Use(middleware.Latency(opts.Metrics))

	r.Get("/", handleBanner)
	r.Get("/health", handleHealth(opts))
	if opts.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}

	for _, h := range handlers {
		h.Register(r)
	}
	return r
}

func handleBanner(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"message":              "FAA.zone Scroll Backend",
		"status":               "SCROLL_ARCHITECTURE_ACTIVE",
		"vault_mesh_connected": true,
		"planetary_motion":     "AUTHORIZED",
	})
}

func handleHealth(opts Options) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		status, code := "healthy", http.StatusOK
		deps := make(map[string]string, len(opts.Checks))
		for name, check := range opts.Checks {
			if err := check(ctx); err != nil {
				opts.Logger.WarnContext(ctx, "health check failed",
					"request_id", middleware.GetRequestID(ctx),
					"dependency", name,
					"error", err,
				)
				deps[name] = "unavailable"
				status, code = "degraded", http.StatusServiceUnavailable
				continue
			}
			deps[name] = "ok"
		}

		body := map[string]any{
			"status":           status,
			"scroll_backend":   "operational",
			"vault_mesh":       "connected",
			"planetary_motion": "authorized",
			"timestamp":        opts.Now().UTC().Format(time.RFC3339),
		}
		if len(deps) > 0 {
			body["dependencies"] = deps
		}
		httputil.WriteJSON(w, code, body)
	}
}
