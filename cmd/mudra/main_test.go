package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSettingsURL(t *testing.T) {
	tests := []struct {
		addr string
		want string
	}{
		{"127.0.0.1:8080", "http://127.0.0.1:8080"},
		{":8080", "http://localhost:8080"},
		{"0.0.0.0:9000", "http://localhost:9000"},
		{"[::]:9000", "http://localhost:9000"},
		{"localhost", "http://localhost"},
	}

	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			if got := settingsURL(tt.addr); got != tt.want {
				t.Errorf("settingsURL(%q) = %q, want %q", tt.addr, got, tt.want)
			}
		})
	}
}

func TestFindWebDir_DataDir(t *testing.T) {
	dataDir := t.TempDir()
	web := filepath.Join(dataDir, "web")
	if err := os.MkdirAll(web, 0755); err != nil {
		t.Fatalf("failed to create web dir: %v", err)
	}

	// The package directory has no web dir of its own.
	if got := findWebDir(dataDir); got != web {
		t.Errorf("findWebDir() = %q, want %q", got, web)
	}
}

func TestOpenRecording(t *testing.T) {
	r, closeFn, err := openRecording("")
	if err != nil || r != nil {
		t.Fatalf("expected recording disabled, got %v, %v", r, err)
	}
	closeFn()

	dir := filepath.Join(t.TempDir(), "rec")
	r, closeFn, err = openRecording(dir)
	if err != nil {
		t.Fatalf("openRecording() error = %v", err)
	}
	if r == nil {
		t.Fatal("expected a recorder")
	}
	closeFn()

	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) != 1 {
		t.Fatalf("expected one session file, got %v, %v", entries, err)
	}
}
