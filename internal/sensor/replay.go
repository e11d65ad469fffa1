package sensor

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/ayusman/mudra/internal/skeleton"
)

// ReadSession decodes a recorded session: one JSON frame per line.
// Blank lines are skipped.
func ReadSession(r io.Reader) ([]skeleton.Frame, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxFrameLine)

	var frames []skeleton.Frame
	line := 0
	for scanner.Scan() {
		line++
		data := bytes.TrimSpace(scanner.Bytes())
		if len(data) == 0 {
			continue
		}
		f, err := DecodeFrame(data)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		frames = append(frames, f)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}

	return frames, nil
}

// OpenReplay loads a recorded session file into a playback sensor.
func OpenReplay(path string, loop bool) (*MockSensor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}
	defer f.Close()

	frames, err := ReadSession(f)
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", path, err)
	}

	return NewMockSensor(frames, loop), nil
}

// Recorder appends frames to a session stream.
type Recorder struct {
	mu  sync.Mutex
	w   *bufio.Writer
	n   int
	err error
}

// NewRecorder creates a Recorder writing to w.
func NewRecorder(w io.Writer) *Recorder {
	return &Recorder{w: bufio.NewWriter(w)}
}

// Record writes one frame. After the first error every call returns it.
func (r *Recorder) Record(f skeleton.Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return r.err
	}

	data, err := EncodeFrame(f)
	if err != nil {
		r.err = err
		return err
	}
	if _, err := r.w.Write(append(data, '\n')); err != nil {
		r.err = fmt.Errorf("write frame: %w", err)
		return r.err
	}
	r.n++
	return nil
}

// Count returns the number of frames written.
func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.n
}

// Flush writes buffered frames to the underlying writer.
func (r *Recorder) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return r.err
	}
	if err := r.w.Flush(); err != nil {
		r.err = fmt.Errorf("flush session: %w", err)
	}
	return r.err
}
