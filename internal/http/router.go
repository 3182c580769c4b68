// Package httpapi assembles the application and operations routers.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"net/netip"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ekaa/internal/auth/gate"
	"ekaa/internal/platform/metrics"
	"ekaa/internal/platform/middleware"
	"ekaa/pkg/platform/httputil"
	"ekaa/pkg/platform/middleware/metadata"
)

// RouteRegistrar is implemented by every feature handler.
type RouteRegistrar interface {
	Register(r chi.Router)
}

// Deps are the collaborators of the application router.
type Deps struct {
	Logger        *slog.Logger
	Metrics       *metrics.Metrics
	Authenticator gate.Authenticator
	Handlers      []RouteRegistrar
	// TrustedProxies may set the client address through forwarding headers.
	TrustedProxies []netip.Prefix
}

// NewRouter builds the public router. The gate runs after request metadata is
// attached so redirects are logged with the request ID.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(d.Logger))
	r.Use(metadata.ClientMetadata(d.TrustedProxies))
	r.Use(middleware.Logger(d.Logger, d.Metrics))
	r.Use(gate.Middleware(d.Authenticator, d.Logger))

	for _, h := range d.Handlers {
		h.Register(r)
	}
	return r
}

// HealthCheck reports whether one dependency is reachable.
type HealthCheck func(ctx context.Context) error

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// NewOpsRouter serves /metrics from gatherer and /healthz from checks.
func NewOpsRouter(gatherer prometheus.Gatherer, checks map[string]HealthCheck) http.Handler {
	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := healthResponse{Status: "ok", Checks: make(map[string]string, len(checks))}
		status := http.StatusOK
		for name, check := range checks {
			if err := check(ctx); err != nil {
				resp.Checks[name] = err.Error()
				resp.Status = "unhealthy"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}
		httputil.WriteJSON(w, status, resp)
	})
	return r
}
