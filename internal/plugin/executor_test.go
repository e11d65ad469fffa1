package plugin

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

// scriptPlugin writes a shell script plugin into a temp dir.
func scriptPlugin(t *testing.T, name, script string, actions ...string) *Plugin {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("skipping shell plugin test on Windows")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, name+".sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0755); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}

	return &Plugin{
		Manifest: Manifest{
			Name:       name,
			Version:    "1.0.0",
			Executable: name + ".sh",
			Actions:    actions,
		},
		Path:       dir,
		Executable: path,
	}
}

func TestExecutor_Execute(t *testing.T) {
	p := scriptPlugin(t, "cursor", "echo '{\"success\":true,\"data\":{\"moved\":true}}'\n", "move")

	resp, err := NewExecutor(5*time.Second).Execute(p, &Request{
		Action:  "move",
		Gesture: "move",
		Params:  json.RawMessage(`{"x":10,"y":20}`),
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !resp.Success || resp.Error != "" {
		t.Errorf("expected success, got %+v", resp)
	}

	var data map[string]bool
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		t.Fatalf("failed to unmarshal data: %v", err)
	}
	if !data["moved"] {
		t.Errorf("expected moved=true, got %v", data)
	}
}

func TestExecutor_Execute_SendsRequestOnStdin(t *testing.T) {
	p := scriptPlugin(t, "echo", "INPUT=$(cat)\necho \"{\\\"success\\\":true,\\\"data\\\":$INPUT}\"\n")

	resp, err := NewExecutor(5*time.Second).Execute(p, &Request{
		Action:  "mouse-down",
		Gesture: "press",
		Config:  json.RawMessage(`{"button":"left"}`),
		Params:  json.RawMessage(`{"x":640,"y":360}`),
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	var got Request
	if err := json.Unmarshal(resp.Data, &got); err != nil {
		t.Fatalf("failed to decode echoed request: %v", err)
	}
	if got.Action != "mouse-down" || got.Gesture != "press" {
		t.Errorf("unexpected echoed request %+v", got)
	}
	if string(got.Params) != `{"x":640,"y":360}` {
		t.Errorf("unexpected params %s", got.Params)
	}
}

func TestExecutor_Execute_Errors(t *testing.T) {
	tests := []struct {
		name    string
		script  string
		timeout time.Duration
		want    string
	}{
		{"timeout", "sleep 10\necho '{\"success\":true}'\n", 100 * time.Millisecond, "timed out"},
		{"invalid json", "echo 'not json'\n", 5 * time.Second, "parse plugin response"},
		{"non-zero exit", "echo 'no display' >&2\nexit 1\n", 5 * time.Second, "no display"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := scriptPlugin(t, "bad", tt.script)
			_, err := NewExecutor(tt.timeout).Execute(p, &Request{Action: "click"})
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestExecutor_Execute_ErrorResponse(t *testing.T) {
	p := scriptPlugin(t, "cursor", "echo '{\"success\":false,\"error\":\"cliclick not installed\"}'\n")

	resp, err := NewExecutor(5*time.Second).Execute(p, &Request{Action: "click"})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if resp.Success || resp.Error != "cliclick not installed" {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestExecutor_Execute_UnsupportedAction(t *testing.T) {
	p := &Plugin{Manifest: Manifest{Name: "cursor", Actions: []string{"move"}}}

	_, err := NewExecutor(time.Second).Execute(p, &Request{Action: "launch"})
	if !errors.Is(err, ErrUnsupportedAction) {
		t.Errorf("expected ErrUnsupportedAction, got %v", err)
	}
}

func TestNewExecutor_DefaultTimeout(t *testing.T) {
	if got := NewExecutor(0).Timeout(); got != DefaultTimeout {
		t.Errorf("expected default timeout %s, got %s", DefaultTimeout, got)
	}
	if got := NewExecutor(3 * time.Second).Timeout(); got != 3*time.Second {
		t.Errorf("expected 3s, got %s", got)
	}
}

func TestManifest_Supports(t *testing.T) {
	m := Manifest{Actions: []string{"move", "click"}}
	if !m.Supports("click") || m.Supports("scroll") {
		t.Errorf("unexpected Supports results for %v", m.Actions)
	}
	if !(Manifest{}).Supports("anything") {
		t.Error("expected manifest without actions to accept any action")
	}
}
