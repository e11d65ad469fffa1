// Package control turns the active subject's hand gestures into cursor
// commands and dispatches them to plugins.
package control

import (
	"errors"
	"fmt"
	"strings"
)

// Mode selects which hand gesture presses the mouse button.
type Mode int

const (
	// ModeDisabled moves nothing and never presses.
	ModeDisabled Mode = iota
	// ModeGrip presses while the controlling hand is closed.
	ModeGrip
	// ModeLift presses while the controlling hand is pushed toward the sensor.
	ModeLift
)

var modeNames = []string{"disabled", "grip", "lift"}

func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return fmt.Sprintf("Mode(%d)", int(m))
	}
	return modeNames[m]
}

// ParseMode parses a mode name, case-insensitively.
func ParseMode(s string) (Mode, error) {
	for i, name := range modeNames {
		if strings.EqualFold(name, s) {
			return Mode(i), nil
		}
	}
	return ModeDisabled, fmt.Errorf("%w: unknown mode %q", ErrInvalidSettings, s)
}

// MarshalText encodes the mode by name.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText decodes a mode name.
func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// ErrInvalidSettings is returned when Settings hold out-of-range values.
var ErrInvalidSettings = errors.New("invalid control settings")

// Settings configures cursor mapping and press detection.
type Settings struct {
	Mode         Mode    `json:"mode"`
	Sensitivity  float64 `json:"sensitivity"`
	ScreenWidth  int     `json:"screen_width"`
	ScreenHeight int     `json:"screen_height"`
	// ZoomStep is the change in two-hand distance, in meters, that emits a
	// spread or pinch gesture.
	ZoomStep float64 `json:"zoom_step"`
}

// DefaultSettings returns the settings used on first start.
func DefaultSettings() Settings {
	return Settings{
		Mode:         ModeGrip,
		Sensitivity:  1.5,
		ScreenWidth:  1920,
		ScreenHeight: 1080,
		ZoomStep:     0.1,
	}
}

// Validate checks the settings.
func (s Settings) Validate() error {
	switch {
	case s.Mode < ModeDisabled || s.Mode > ModeLift:
		return fmt.Errorf("%w: mode %d", ErrInvalidSettings, int(s.Mode))
	case s.Sensitivity <= 0:
		return fmt.Errorf("%w: sensitivity must be positive", ErrInvalidSettings)
	case s.ScreenWidth <= 0 || s.ScreenHeight <= 0:
		return fmt.Errorf("%w: screen size %dx%d", ErrInvalidSettings, s.ScreenWidth, s.ScreenHeight)
	case s.ZoomStep <= 0:
		return fmt.Errorf("%w: zoom step must be positive", ErrInvalidSettings)
	}
	return nil
}
