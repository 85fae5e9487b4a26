package api

import (
	"net/http"

	"github.com/dukerupert/quickorder/internal/handler"
)

// BreakerReporter exposes the state of the circuit around collaborator reads.
type BreakerReporter interface {
	BreakerState() string
}

// HealthHandler reports liveness and the commerce circuit state.
type HealthHandler struct {
	commerce BreakerReporter
	version  string
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(commerce BreakerReporter, version string) *HealthHandler {
	return &HealthHandler{commerce: commerce, version: version}
}

type healthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version,omitempty"`
	Commerce string `json:"commerce"`
}

// Health handles GET /health
//
// Always 200 while the process is serving. An open circuit reports
// "degraded": restarting this service would not bring the platform back.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	state := h.commerce.BreakerState()

	status := "ok"
	if state != "closed" {
		status = "degraded"
	}

	handler.JSONResponse(w, http.StatusOK, healthResponse{
		Status:   status,
		Version:  h.version,
		Commerce: state,
	})
}
