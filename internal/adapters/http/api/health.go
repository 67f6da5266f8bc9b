package api

import (
	"net/http"

	"github.com/okian/gscore/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthDependencies reports backend readiness and runtime counters.
type HealthDependencies interface {
	FDCEnabled() bool
	GetStats() map[string]interface{}
}

// HealthHandler serves liveness, service stats and the Prometheus exposition.
type HealthHandler struct {
	deps    HealthDependencies
	metrics http.Handler
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(deps HealthDependencies) *HealthHandler {
	return &HealthHandler{
		deps:    deps,
		metrics: promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}),
	}
}

type healthResponse struct {
	Status     string `json:"status"`
	FDCEnabled bool   `json:"fdcEnabled"`
}

// HandleHealth handles GET /health requests.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", FDCEnabled: h.deps.FDCEnabled()})
}

// HandleStats handles GET /stats requests.
func (h *HealthHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, h.deps.GetStats())
}

// HandleMetrics handles GET /healthz requests with the Prometheus exposition.
func (h *HealthHandler) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	h.metrics.ServeHTTP(w, r)
}
