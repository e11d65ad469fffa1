package sensor

import (
	"sync"

	"github.com/ayusman/mudra/internal/skeleton"
)

// MockSensor plays back a fixed sequence of frames
type MockSensor struct {
	frames  []skeleton.Frame
	index   int
	loop    bool
	fps     int
	mu      sync.Mutex
	running bool
}

func NewMockSensor(frames []skeleton.Frame, loop bool) *MockSensor {
	return &MockSensor{
		frames: frames,
		loop:   loop,
		fps:    DefaultFPS,
	}
}

func (s *MockSensor) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = true
	s.index = 0
	return nil
}

func (s *MockSensor) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	return nil
}

func (s *MockSensor) ReadFrame() (skeleton.Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return skeleton.Frame{}, ErrSensorNotOpen
	}

	if len(s.frames) == 0 {
		return skeleton.Frame{}, ErrEndOfStream
	}

	if s.index >= len(s.frames) {
		if !s.loop {
			return skeleton.Frame{}, ErrEndOfStream
		}
		s.index = 0
	}

	frame := s.frames[s.index]
	s.index++

	return frame, nil
}

func (s *MockSensor) SetFPS(fps int) {
	if fps <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fps = fps
}

func (s *MockSensor) FPS() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fps
}

func (s *MockSensor) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// SetFrames replaces the frame sequence
func (s *MockSensor) SetFrames(frames []skeleton.Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = frames
	s.index = 0
}

// Reset restarts playback from the beginning
func (s *MockSensor) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.index = 0
}

// Remaining returns how many frames are left before the end of the sequence.
func (s *MockSensor) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames) - s.index
}
