package admin

import (
	"encoding/json"
	"net/http"

	"github.com/brokerlabs/leasebroker/pkg/broker"
)

// HealthHandler serves the broker's liveness and readiness probes.
type HealthHandler struct {
	registry *broker.Registry
}

// NewHealthHandler creates a health handler. registry may be nil.
func NewHealthHandler(registry *broker.Registry) *HealthHandler {
	return &HealthHandler{registry: registry}
}

// Liveness handles GET /healthz: always 200 once the HTTP server itself is
// answering requests.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readiness handles GET /readyz: 200 once the registry is initialized, 503
// otherwise.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if h.registry == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "registry not initialized"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"logs":   h.registry.OrchestratorCount(),
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
