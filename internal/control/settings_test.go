package control

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/ayusman/mudra/internal/gesture"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"grip", ModeGrip, false},
		{"LIFT", ModeLift, false},
		{"Disabled", ModeDisabled, false},
		{"wave", ModeDisabled, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidSettings) {
					t.Errorf("expected ErrInvalidSettings, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseMode() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseMode(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestSettings_JSONUsesModeNames(t *testing.T) {
	s := DefaultSettings()
	s.Mode = ModeLift

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if raw["mode"] != "lift" {
		t.Errorf("expected mode 'lift', got %v", raw["mode"])
	}

	var back Settings
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if back != s {
		t.Errorf("expected %+v, got %+v", s, back)
	}
}

func TestSettings_Validate(t *testing.T) {
	if err := DefaultSettings().Validate(); err != nil {
		t.Fatalf("default settings invalid: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Settings)
	}{
		{"mode", func(s *Settings) { s.Mode = Mode(9) }},
		{"sensitivity", func(s *Settings) { s.Sensitivity = 0 }},
		{"width", func(s *Settings) { s.ScreenWidth = 0 }},
		{"height", func(s *Settings) { s.ScreenHeight = -1 }},
		{"zoom step", func(s *Settings) { s.ZoomStep = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSettings()
			tt.mutate(&s)
			if err := s.Validate(); !errors.Is(err, ErrInvalidSettings) {
				t.Errorf("expected ErrInvalidSettings, got %v", err)
			}
		})
	}
}

func TestCursorMapper_Map(t *testing.T) {
	m := CursorMapper{Sensitivity: 1, Width: 1000, Height: 500}

	tests := []struct {
		name  string
		v     gesture.Vector2
		wantX int
		wantY int
	}{
		{"origin is center", gesture.Vector2{}, 500, 250},
		{"up moves toward top", gesture.Vector2{X: 0.25, Y: 0.25}, 750, 125},
		{"clamped low", gesture.Vector2{X: -2, Y: 2}, 0, 0},
		{"clamped high", gesture.Vector2{X: 2, Y: -2}, 999, 499},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y := m.Map(tt.v)
			if x != tt.wantX || y != tt.wantY {
				t.Errorf("Map(%+v) = (%d, %d), want (%d, %d)", tt.v, x, y, tt.wantX, tt.wantY)
			}
		})
	}
}

func TestCursorMapper_ZeroScreen(t *testing.T) {
	m := CursorMapper{Sensitivity: 1}
	if x, y := m.Map(gesture.Vector2{X: 0.3, Y: 0.3}); x != 0 || y != 0 {
		t.Errorf("expected (0, 0) for empty screen, got (%d, %d)", x, y)
	}
}
