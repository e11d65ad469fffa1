package api

import (
	"encoding/json"
	"net/http"

	"github.com/ayusman/mudra/internal/app"
)

// StatusSource reports the pipeline status and toggles tracking.
type StatusSource interface {
	Status() app.Status
	SetEnabled(enabled bool)
	IsEnabled() bool
}

// StatusHandler serves the pipeline status.
type StatusHandler struct {
	source StatusSource
}

// NewStatusHandler creates a new StatusHandler.
func NewStatusHandler(s StatusSource) *StatusHandler {
	return &StatusHandler{source: s}
}

// ServeHTTP handles GET /api/status.
func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, h.source.Status())
}

type enabledRequest struct {
	Enabled *bool `json:"enabled"`
}

type enabledResponse struct {
	Enabled bool `json:"enabled"`
}

// EnabledHandler turns tracking on and off.
type EnabledHandler struct {
	source StatusSource
}

// NewEnabledHandler creates a new EnabledHandler.
func NewEnabledHandler(s StatusSource) *EnabledHandler {
	return &EnabledHandler{source: s}
}

// ServeHTTP handles GET and PUT /api/enabled.
func (h *EnabledHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
	case http.MethodPut:
		var req enabledRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
		if req.Enabled == nil {
			writeError(w, http.StatusBadRequest, "enabled is required")
			return
		}
		h.source.SetEnabled(*req.Enabled)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, enabledResponse{Enabled: h.source.IsEnabled()})
}
