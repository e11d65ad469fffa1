package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/control"
	"github.com/ayusman/mudra/internal/plugin"
	"github.com/ayusman/mudra/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestPlugins(t *testing.T) *plugin.Manager {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, "cursor")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("failed to create plugin dir: %v", err)
	}
	manifest := `{"name": "cursor", "version": "1.0.0", "executable": "cursor", "actions": ["move", "click", "zoom-in", "zoom-out"]}`
	if err := os.WriteFile(filepath.Join(dir, plugin.ManifestFile), []byte(manifest), 0644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}

	m := plugin.NewManager(root)
	if err := m.Discover(); err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	return m
}

func doJSON(t *testing.T, client *http.Client, method, url, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("NewRequest() error = %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s error = %v", method, url, err)
	}
	return resp
}

func TestAPI_ActionWorkflow(t *testing.T) {
	s := newTestStore(t)
	srv := New(Config{Store: s, Plugins: newTestPlugins(t)})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	client := ts.Client()

	// 1. Reject bindings the dispatcher could never run
	rejected := []string{
		`{"gesture": "wave", "plugin_name": "cursor", "action_name": "click"}`,
		`{"gesture": "spread", "plugin_name": "missing", "action_name": "click"}`,
		`{"gesture": "spread", "plugin_name": "cursor", "action_name": "shutdown"}`,
		`{"gesture": "spread", "plugin_name": "cursor"}`,
		`not json`,
	}
	for _, body := range rejected {
		resp := doJSON(t, client, http.MethodPost, ts.URL+"/api/actions", body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("POST %s status = %d, want %d", body, resp.StatusCode, http.StatusBadRequest)
		}
	}

	// 2. Create a binding
	resp := doJSON(t, client, http.MethodPost, ts.URL+"/api/actions",
		`{"gesture": "spread", "plugin_name": "cursor", "action_name": "zoom-in", "config": {"key": "="}}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("POST status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}
	var created actionJSON
	json.NewDecoder(resp.Body).Decode(&created)
	resp.Body.Close()

	if created.ID == "" || created.Gesture != control.GestureSpread || !created.Enabled {
		t.Fatalf("unexpected created action %+v", created)
	}

	// 3. List, filtered and unfiltered
	var listed struct {
		Actions  []actionJSON `json:"actions"`
		Gestures []string     `json:"gestures"`
	}
	resp, _ = client.Get(ts.URL + "/api/actions")
	json.NewDecoder(resp.Body).Decode(&listed)
	resp.Body.Close()
	if len(listed.Actions) != 1 || len(listed.Gestures) != len(store.BindableGestures) {
		t.Fatalf("unexpected listing %+v", listed)
	}

	resp, _ = client.Get(ts.URL + "/api/actions?gesture=pinch")
	json.NewDecoder(resp.Body).Decode(&listed)
	resp.Body.Close()
	if len(listed.Actions) != 0 {
		t.Errorf("expected no pinch actions, got %d", len(listed.Actions))
	}

	// 4. Disable it
	resp = doJSON(t, client, http.MethodPut, ts.URL+"/api/actions/"+created.ID, `{"enabled": false}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("PUT status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	resp.Body.Close()

	bindings, err := s.Actions().Bindings(control.GestureSpread)
	if err != nil {
		t.Fatalf("Bindings() error = %v", err)
	}
	if len(bindings) != 0 {
		t.Errorf("disabled action should not be bound, got %+v", bindings)
	}

	// 5. Delete and verify
	resp = doJSON(t, client, http.MethodDelete, ts.URL+"/api/actions/"+created.ID, "")
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("DELETE status = %d, want %d", resp.StatusCode, http.StatusNoContent)
	}
	resp.Body.Close()

	resp, _ = client.Get(ts.URL + "/api/actions/" + created.ID)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("GET after delete status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
	resp.Body.Close()
}

type actionJSON struct {
	ID         string          `json:"id"`
	Gesture    string          `json:"gesture"`
	PluginName string          `json:"plugin_name"`
	ActionName string          `json:"action_name"`
	Config     json.RawMessage `json:"config"`
	Enabled    bool            `json:"enabled"`
}

func TestAPI_SettingsWorkflow(t *testing.T) {
	s := newTestStore(t)
	a := app.New(app.Config{Store: s})
	srv := New(Config{Store: s, Tracker: a})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	client := ts.Client()

	// Partial update keeps the other fields
	resp := doJSON(t, client, http.MethodPut, ts.URL+"/api/settings", `{"control": {"mode": "lift"}}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("PUT status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	var got app.Settings
	json.NewDecoder(resp.Body).Decode(&got)
	resp.Body.Close()

	if got.Control.Mode != control.ModeLift {
		t.Errorf("expected lift mode, got %s", got.Control.Mode)
	}
	if got.Control.Sensitivity != control.DefaultSettings().Sensitivity {
		t.Errorf("expected sensitivity to be kept, got %v", got.Control.Sensitivity)
	}

	stored, err := s.Settings().LoadControlSettings(control.DefaultSettings())
	if err != nil {
		t.Fatalf("LoadControlSettings() error = %v", err)
	}
	if stored.Mode != control.ModeLift {
		t.Errorf("expected persisted lift mode, got %s", stored.Mode)
	}

	// Invalid values are rejected and nothing changes
	for _, body := range []string{
		`{"tracking": {"loss_tolerance": -3}}`,
		`{"control": {"sensitivity": 0}}`,
		`{"control": {"mode": "wave"}}`,
	} {
		resp := doJSON(t, client, http.MethodPut, ts.URL+"/api/settings", body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("PUT %s status = %d, want %d", body, resp.StatusCode, http.StatusBadRequest)
		}
	}
	if a.Settings().Control.Mode != control.ModeLift {
		t.Error("rejected update changed the settings")
	}

	// Enabled toggle is persisted
	resp = doJSON(t, client, http.MethodPut, ts.URL+"/api/enabled", `{"enabled": false}`)
	resp.Body.Close()
	if enabled, err := s.Settings().Enabled(true); err != nil || enabled {
		t.Errorf("expected persisted disabled state, got %v, %v", enabled, err)
	}
}

func TestAPI_Sessions(t *testing.T) {
	s := newTestStore(t)
	start := time.Now().Add(-time.Minute).Truncate(time.Second)
	for i := 0; i < 3; i++ {
		id, err := s.Sessions().Start(uint64(10+i), start.Add(time.Duration(i)*time.Second))
		if err != nil {
			t.Fatalf("Start() error = %v", err)
		}
		if i < 2 {
			if err := s.Sessions().End(id, start.Add(time.Duration(i+5)*time.Second), 30, store.EndReasonLost); err != nil {
				t.Fatalf("End() error = %v", err)
			}
		}
	}

	ts := httptest.NewServer(New(Config{Store: s}))
	defer ts.Close()

	var listed struct {
		Sessions []struct {
			ID         int64   `json:"id"`
			TrackingID uint64  `json:"tracking_id"`
			EndedAt    string  `json:"ended_at"`
			Duration   float64 `json:"duration_seconds"`
			EndReason  string  `json:"end_reason"`
		} `json:"sessions"`
	}

	resp, err := ts.Client().Get(ts.URL + "/api/sessions?limit=2")
	if err != nil {
		t.Fatalf("GET /api/sessions error = %v", err)
	}
	json.NewDecoder(resp.Body).Decode(&listed)
	resp.Body.Close()

	if len(listed.Sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(listed.Sessions))
	}
	if listed.Sessions[0].TrackingID != 12 || listed.Sessions[0].EndedAt != "" {
		t.Errorf("expected newest open session first, got %+v", listed.Sessions[0])
	}
	if listed.Sessions[1].EndReason != store.EndReasonLost || listed.Sessions[1].Duration != 5 {
		t.Errorf("unexpected ended session %+v", listed.Sessions[1])
	}

	resp, _ = ts.Client().Get(ts.URL + "/api/sessions/" + "999")
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for missing session, got %d", resp.StatusCode)
	}

	resp, _ = ts.Client().Get(ts.URL + "/api/sessions?limit=-1")
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for bad limit, got %d", resp.StatusCode)
	}
}

func TestAPI_Plugins(t *testing.T) {
	ts := httptest.NewServer(New(Config{Plugins: newTestPlugins(t)}))
	defer ts.Close()

	for _, method := range []string{http.MethodGet, http.MethodPost} {
		resp := doJSON(t, ts.Client(), method, ts.URL+"/api/plugins", "")
		var listed struct {
			Plugins []struct {
				Name    string   `json:"name"`
				Actions []string `json:"actions"`
			} `json:"plugins"`
		}
		json.NewDecoder(resp.Body).Decode(&listed)
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s status = %d, want %d", method, resp.StatusCode, http.StatusOK)
		}
		if len(listed.Plugins) != 1 || listed.Plugins[0].Name != "cursor" || len(listed.Plugins[0].Actions) != 4 {
			t.Errorf("%s: unexpected plugins %+v", method, listed.Plugins)
		}
	}
}

func TestAPI_HealthCheck(t *testing.T) {
	srv := New(Config{Hub: NewHub()})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL + "/api/health")
	if err != nil {
		t.Fatalf("GET /api/health error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var health struct {
		Status  string `json:"status"`
		Uptime  string `json:"uptime"`
		Clients *int   `json:"clients"`
	}
	json.NewDecoder(resp.Body).Decode(&health)

	if health.Status != "ok" {
		t.Errorf("status = %s, want ok", health.Status)
	}
	if health.Clients == nil || *health.Clients != 0 {
		t.Errorf("expected zero clients, got %v", health.Clients)
	}
}
