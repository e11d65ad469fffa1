package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/control"
	"github.com/ayusman/mudra/internal/gesture"
)

// SettingsService reads and applies live settings.
type SettingsService interface {
	Settings() app.Settings
	ApplySettings(s app.Settings) error
}

// SettingsHandler serves the tracking and control settings.
type SettingsHandler struct {
	service SettingsService
}

// NewSettingsHandler creates a new SettingsHandler.
func NewSettingsHandler(s SettingsService) *SettingsHandler {
	return &SettingsHandler{service: s}
}

// ServeHTTP handles GET and PUT /api/settings. A PUT body may hold only the
// fields to change; the rest keep their current values.
func (h *SettingsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.service.Settings())
	case http.MethodPut:
		h.update(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *SettingsHandler) update(w http.ResponseWriter, r *http.Request) {
	settings := h.service.Settings()
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if err := h.service.ApplySettings(settings); err != nil {
		if errors.Is(err, gesture.ErrInvalidConfig) || errors.Is(err, control.ErrInvalidSettings) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to apply settings")
		return
	}

	writeJSON(w, http.StatusOK, h.service.Settings())
}
