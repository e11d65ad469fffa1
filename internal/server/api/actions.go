package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/ayusman/mudra/internal/plugin"
	"github.com/ayusman/mudra/internal/store"
)

// PluginCatalog looks up discovered plugins.
type PluginCatalog interface {
	Get(name string) (*plugin.Plugin, error)
	List() []*plugin.Plugin
}

// ActionHandler serves the bindings from gesture events to plugin actions.
type ActionHandler struct {
	store   *store.Store
	plugins PluginCatalog
}

// NewActionHandler creates a new ActionHandler. When plugins is not nil, new
// bindings must name a discovered plugin and one of its actions.
func NewActionHandler(s *store.Store, plugins PluginCatalog) *ActionHandler {
	return &ActionHandler{store: s, plugins: plugins}
}

// ServeHTTP routes /api/actions and /api/actions/{id}.
func (h *ActionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/actions"), "/")

	switch {
	case id == "" && r.Method == http.MethodGet:
		h.list(w, r)
	case id == "" && r.Method == http.MethodPost:
		h.create(w, r)
	case id != "" && r.Method == http.MethodGet:
		if action, ok := h.lookup(w, id); ok {
			writeJSON(w, http.StatusOK, toBindingResponse(action))
		}
	case id != "" && r.Method == http.MethodPut:
		h.update(w, r, id)
	case id != "" && r.Method == http.MethodDelete:
		h.delete(w, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// bindingRequest is the body of both POST and PUT. Empty fields leave the
// binding unchanged on PUT.
type bindingRequest struct {
	Gesture    string          `json:"gesture"`
	PluginName string          `json:"plugin_name"`
	ActionName string          `json:"action_name"`
	Config     json.RawMessage `json:"config"`
	Enabled    *bool           `json:"enabled"`
}

type bindingResponse struct {
	ID         string          `json:"id"`
	Gesture    string          `json:"gesture"`
	PluginName string          `json:"plugin_name"`
	ActionName string          `json:"action_name"`
	Config     json.RawMessage `json:"config"`
	Enabled    bool            `json:"enabled"`
	CreatedAt  string          `json:"created_at"`
}

func toBindingResponse(a *store.Action) bindingResponse {
	config := a.Config
	if config == nil {
		config = json.RawMessage("{}")
	}
	return bindingResponse{
		ID:         a.ID,
		Gesture:    a.Gesture,
		PluginName: a.PluginName,
		ActionName: a.ActionName,
		Config:     config,
		Enabled:    a.Enabled,
		CreatedAt:  a.CreatedAt.Format(timeFormat),
	}
}

// apply merges req into a and reports the first invalid field.
func (h *ActionHandler) apply(a *store.Action, req bindingRequest) error {
	if req.Gesture != "" {
		if !store.IsBindableGesture(req.Gesture) {
			return fmt.Errorf("Unknown gesture %q", req.Gesture)
		}
		a.Gesture = req.Gesture
	}

	target := req.PluginName != "" || req.ActionName != ""
	if req.PluginName != "" {
		a.PluginName = req.PluginName
	}
	if req.ActionName != "" {
		a.ActionName = req.ActionName
	}
	if target {
		if err := h.checkPlugin(a.PluginName, a.ActionName); err != nil {
			return err
		}
	}

	if req.Config != nil {
		a.Config = req.Config
	}
	if req.Enabled != nil {
		a.Enabled = *req.Enabled
	}
	return nil
}

// list answers GET /api/actions[?gesture=name] together with the event names
// that can be bound.
func (h *ActionHandler) list(w http.ResponseWriter, r *http.Request) {
	actions := h.store.Actions()

	var bound []*store.Action
	var err error
	if gesture := r.URL.Query().Get("gesture"); gesture != "" {
		bound, err = actions.ListByGesture(gesture)
	} else {
		bound, err = actions.List()
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list actions")
		return
	}

	out := make([]bindingResponse, len(bound))
	for i, a := range bound {
		out[i] = toBindingResponse(a)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"actions":  out,
		"gestures": store.BindableGestures,
	})
}

func (h *ActionHandler) create(w http.ResponseWriter, r *http.Request) {
	var req bindingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	switch "" {
	case req.Gesture:
		writeError(w, http.StatusBadRequest, "gesture is required")
		return
	case req.PluginName:
		writeError(w, http.StatusBadRequest, "plugin_name is required")
		return
	case req.ActionName:
		writeError(w, http.StatusBadRequest, "action_name is required")
		return
	}

	action := &store.Action{
		ID:      uuid.New().String(),
		Config:  json.RawMessage("{}"),
		Enabled: true,
	}
	if err := h.apply(action, req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.Actions().Create(action); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create action")
		return
	}

	writeJSON(w, http.StatusCreated, toBindingResponse(action))
}

func (h *ActionHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	action, ok := h.lookup(w, id)
	if !ok {
		return
	}

	var req bindingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if err := h.apply(action, req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.Actions().Update(action); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update action")
		return
	}

	writeJSON(w, http.StatusOK, toBindingResponse(action))
}

func (h *ActionHandler) delete(w http.ResponseWriter, id string) {
	if err := h.store.Actions().Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Action not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete action")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// lookup loads a binding, writing the error response when it fails.
func (h *ActionHandler) lookup(w http.ResponseWriter, id string) (*store.Action, bool) {
	action, err := h.store.Actions().GetByID(id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "Action not found")
		return nil, false
	case err != nil:
		writeError(w, http.StatusInternalServerError, "Failed to get action")
		return nil, false
	}
	return action, true
}

// checkPlugin fails when the plugin is unknown or lacks the action.
func (h *ActionHandler) checkPlugin(pluginName, actionName string) error {
	if h.plugins == nil {
		return nil
	}
	p, err := h.plugins.Get(pluginName)
	if err != nil {
		return fmt.Errorf("Plugin %q not found", pluginName)
	}
	if !p.Manifest.Supports(actionName) {
		return fmt.Errorf("Plugin %q does not support action %q", pluginName, actionName)
	}
	return nil
}
