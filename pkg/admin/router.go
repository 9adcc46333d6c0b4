// Package admin exposes the broker's unauthenticated operational HTTP
// surface: liveness, readiness, and (when enabled) Prometheus metrics.
package admin

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/brokerlabs/leasebroker/pkg/broker"
	"github.com/brokerlabs/leasebroker/pkg/metrics"
)

// NewRouter builds the admin HTTP handler. registry may be nil before the
// broker has finished starting up, in which case readiness reports
// unhealthy. Prometheus metrics are mounted on /metrics when enabled.
func NewRouter(registry *broker.Registry) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Second))

	health := NewHealthHandler(registry)
	r.Get("/healthz", health.Liveness)
	r.Get("/readyz", health.Readiness)

	if h := metrics.Handler(); h != nil {
		r.Handle("/metrics", h)
	}

	return r
}
