// Package testdata holds recorded sensor sessions used by integration tests.
package testdata

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"strings"

	"github.com/ayusman/mudra/internal/sensor"
	"github.com/ayusman/mudra/internal/skeleton"
)

//go:embed sessions/*.jsonl
var sessionsFS embed.FS

// Recorded sessions.
const (
	// RaiseAndLose: one person stands still, raises the right hand and sweeps
	// it, closes it, then walks out of view.
	RaiseAndLose = "raise_and_lose.jsonl"
	// TwoPeople: two people raise a hand at the same time; the nearer one is
	// tracking id 22.
	TwoPeople = "two_people.jsonl"
)

// LoadSession decodes a recorded session by file name.
func LoadSession(name string) ([]skeleton.Frame, error) {
	data, err := sessionsFS.ReadFile("sessions/" + name)
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", name, err)
	}

	frames, err := sensor.ReadSession(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode session %s: %w", name, err)
	}

	return frames, nil
}

// Sessions lists the names of all recorded sessions.
func Sessions() ([]string, error) {
	entries, err := fs.ReadDir(sessionsFS, "sessions")
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".jsonl") {
			continue
		}
		names = append(names, entry.Name())
	}

	return names, nil
}
