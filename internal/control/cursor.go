package control

import (
	"math"

	"github.com/ayusman/mudra/internal/gesture"
)

// CursorMapper maps control plane positions to screen pixels.
// The control plane origin lands in the middle of the screen and +Y points up.
type CursorMapper struct {
	Sensitivity float64
	Width       int
	Height      int
}

// NewCursorMapper creates a mapper from settings.
func NewCursorMapper(s Settings) CursorMapper {
	return CursorMapper{
		Sensitivity: s.Sensitivity,
		Width:       s.ScreenWidth,
		Height:      s.ScreenHeight,
	}
}

// Map converts v to screen coordinates clamped to the screen.
func (m CursorMapper) Map(v gesture.Vector2) (x, y int) {
	fx := (v.X*m.Sensitivity + 0.5) * float64(m.Width)
	fy := (0.5 - v.Y*m.Sensitivity) * float64(m.Height)
	return clamp(fx, m.Width), clamp(fy, m.Height)
}

func clamp(v float64, size int) int {
	if size <= 0 {
		return 0
	}
	i := int(math.Round(v))
	if i < 0 {
		return 0
	}
	if i > size-1 {
		return size - 1
	}
	return i
}
