// Package sensor delivers body frames from a depth sensor, a recorded session
// or an in-memory playback.
package sensor

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ayusman/mudra/internal/skeleton"
)

// Default sensor settings
const (
	DefaultFPS = 30
	IdleFPS    = 5
)

// ErrSensorNotOpen is returned when reading from a sensor that is not open.
var ErrSensorNotOpen = errors.New("sensor is not open")

// ErrEndOfStream is returned when a non-looping playback has no frames left.
var ErrEndOfStream = errors.New("no more frames")

// Sensor defines the interface for body frame sources.
type Sensor interface {
	Open() error
	Close() error
	ReadFrame() (skeleton.Frame, error)
	SetFPS(fps int)
	FPS() int
	IsOpen() bool
}

// DecodeFrame parses one JSON-encoded frame. Slots beyond MaxBodies are dropped.
func DecodeFrame(data []byte) (skeleton.Frame, error) {
	var f skeleton.Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return skeleton.Frame{}, fmt.Errorf("decode frame: %w", err)
	}
	if len(f.Bodies) > skeleton.MaxBodies {
		f.Bodies = f.Bodies[:skeleton.MaxBodies]
	}
	return f, nil
}

// EncodeFrame serializes a frame as a single JSON line without the trailing newline.
func EncodeFrame(f skeleton.Frame) ([]byte, error) {
	data, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	return data, nil
}
