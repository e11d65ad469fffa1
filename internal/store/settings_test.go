package store

import (
	"errors"
	"testing"

	"github.com/ayusman/mudra/internal/control"
	"github.com/ayusman/mudra/internal/gesture"
)

func TestSettingsRepository_CRUD(t *testing.T) {
	repo := newTestStore(t).Settings()

	if _, err := repo.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	if err := repo.Set("a", "1"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := repo.Set("a", "2"); err != nil {
		t.Fatalf("Set() overwrite error = %v", err)
	}
	if v, err := repo.Get("a"); err != nil || v != "2" {
		t.Errorf("expected '2', got %q, %v", v, err)
	}

	if err := repo.SetMany(map[string]string{"b": "x", "c": "y"}); err != nil {
		t.Fatalf("SetMany() error = %v", err)
	}
	all, err := repo.All()
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}
	if len(all) != 3 || all["b"] != "x" || all["c"] != "y" {
		t.Errorf("unexpected settings %v", all)
	}

	if err := repo.Delete("a"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := repo.Delete("a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestSettingsRepository_TrackingConfigRoundTrip(t *testing.T) {
	repo := newTestStore(t).Settings()
	defaults := gesture.DefaultConfig()

	got, err := repo.LoadTrackingConfig(defaults)
	if err != nil {
		t.Fatalf("LoadTrackingConfig() error = %v", err)
	}
	if got != defaults {
		t.Errorf("expected defaults from empty store, got %+v", got)
	}

	cfg := defaults
	cfg.HandLiftZDistance = 0.25
	cfg.LeftHandOffset.X = 0.2
	cfg.HandsDownTimeout = 120
	if err := repo.SaveTrackingConfig(cfg); err != nil {
		t.Fatalf("SaveTrackingConfig() error = %v", err)
	}

	got, err = repo.LoadTrackingConfig(defaults)
	if err != nil {
		t.Fatalf("LoadTrackingConfig() error = %v", err)
	}
	if got != cfg {
		t.Errorf("expected %+v, got %+v", cfg, got)
	}
}

func TestSettingsRepository_TrackingConfigPartialOverlay(t *testing.T) {
	repo := newTestStore(t).Settings()
	if err := repo.Set(KeyLossTolerance, "9"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, err := repo.LoadTrackingConfig(gesture.DefaultConfig())
	if err != nil {
		t.Fatalf("LoadTrackingConfig() error = %v", err)
	}
	if got.LossTolerance != 9 {
		t.Errorf("expected loss tolerance 9, got %d", got.LossTolerance)
	}
	if got.HandUpYDistance != gesture.DefaultHandUpYDistance {
		t.Errorf("expected default hand up distance, got %v", got.HandUpYDistance)
	}
}

func TestSettingsRepository_RejectsBadValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"not a number", KeyHandUpYDistance, "high"},
		{"negative", KeyHandsDownTimeout, "-1"},
		{"not an int", KeyLossTolerance, "1.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newTestStore(t).Settings()
			if err := repo.Set(tt.key, tt.value); err != nil {
				t.Fatalf("Set() error = %v", err)
			}

			defaults := gesture.DefaultConfig()
			got, err := repo.LoadTrackingConfig(defaults)
			if err == nil {
				t.Fatal("expected error for bad value")
			}
			if got != defaults {
				t.Errorf("expected defaults on error, got %+v", got)
			}
		})
	}

	repo := newTestStore(t).Settings()
	bad := gesture.DefaultConfig()
	bad.HandUpYDistance = -1
	if err := repo.SaveTrackingConfig(bad); !errors.Is(err, gesture.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig on save, got %v", err)
	}
}

func TestSettingsRepository_ControlSettingsRoundTrip(t *testing.T) {
	repo := newTestStore(t).Settings()

	s := control.DefaultSettings()
	s.Mode = control.ModeLift
	s.Sensitivity = 2.25
	s.ScreenWidth = 2560
	s.ScreenHeight = 1440
	if err := repo.SaveControlSettings(s); err != nil {
		t.Fatalf("SaveControlSettings() error = %v", err)
	}

	got, err := repo.LoadControlSettings(control.DefaultSettings())
	if err != nil {
		t.Fatalf("LoadControlSettings() error = %v", err)
	}
	if got != s {
		t.Errorf("expected %+v, got %+v", s, got)
	}

	if err := repo.Set(KeyControlMode, "wave"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if _, err := repo.LoadControlSettings(control.DefaultSettings()); !errors.Is(err, control.ErrInvalidSettings) {
		t.Errorf("expected ErrInvalidSettings for bad mode, got %v", err)
	}
}

func TestSettingsRepository_Enabled(t *testing.T) {
	repo := newTestStore(t).Settings()

	if v, err := repo.Enabled(true); err != nil || !v {
		t.Errorf("expected default true, got %v, %v", v, err)
	}
	if err := repo.SetEnabled(false); err != nil {
		t.Fatalf("SetEnabled() error = %v", err)
	}
	if v, err := repo.Enabled(true); err != nil || v {
		t.Errorf("expected stored false, got %v, %v", v, err)
	}
}
