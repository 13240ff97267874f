package handlers

import (
	"net/http"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Account string `json:"account,omitempty"`
}

// HealthHandler handles health check requests
type HealthHandler struct {
	version string
	account string
}

// NewHealthHandler creates a new health handler. account is the trading
// address reported to clients; empty omits it.
func NewHealthHandler(version, account string) *HealthHandler {
	return &HealthHandler{version: version, account: account}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: h.version,
		Account: h.account,
	})
}
