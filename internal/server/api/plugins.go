package api

import (
	"log"
	"net/http"
)

// PluginRegistry is a PluginCatalog that can rescan its plugin directory.
type PluginRegistry interface {
	PluginCatalog
	Discover() error
}

// PluginHandler lists discovered plugins.
type PluginHandler struct {
	plugins PluginRegistry
}

// NewPluginHandler creates a new PluginHandler.
func NewPluginHandler(p PluginRegistry) *PluginHandler {
	return &PluginHandler{plugins: p}
}

type pluginResponse struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Description string   `json:"description"`
	Actions     []string `json:"actions"`
}

type listPluginsResponse struct {
	Plugins []pluginResponse `json:"plugins"`
}

// ServeHTTP handles GET /api/plugins, and POST /api/plugins to rescan the
// plugin directory.
func (h *PluginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
	case http.MethodPost:
		if err := h.plugins.Discover(); err != nil {
			log.Printf("plugin discovery failed: %v", err)
			writeError(w, http.StatusInternalServerError, "Failed to discover plugins")
			return
		}
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	plugins := h.plugins.List()
	response := listPluginsResponse{
		Plugins: make([]pluginResponse, 0, len(plugins)),
	}
	for _, p := range plugins {
		actions := p.Manifest.Actions
		if actions == nil {
			actions = []string{}
		}
		response.Plugins = append(response.Plugins, pluginResponse{
			Name:        p.Manifest.Name,
			Version:     p.Manifest.Version,
			Description: p.Manifest.Description,
			Actions:     actions,
		})
	}

	writeJSON(w, http.StatusOK, response)
}
