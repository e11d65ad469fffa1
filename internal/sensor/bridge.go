package sensor

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/ayusman/mudra/internal/skeleton"
)

// BridgeIdleTimeout is how long the bridge process may stay unused before it is stopped.
const BridgeIdleTimeout = 30 * time.Second

// maxFrameLine bounds a single JSON frame from the bridge.
const maxFrameLine = 1 << 20

// BridgeSensor reads frames from an external body-tracking bridge process.
//
// The bridge owns the depth camera SDK. Each ReadFrame writes a "next" line to
// the bridge stdin and reads the bridge's most recent frame back as one JSON
// line from its stdout. The process is started lazily on the first read.
type BridgeSensor struct {
	path      string
	args      []string
	cmd       *exec.Cmd
	stdin     io.WriteCloser
	stdout    *bufio.Scanner
	mu        sync.Mutex
	open      bool
	started   bool
	fps       int
	idleTimer *time.Timer
}

// NewBridgeSensor creates a sensor backed by the bridge executable at path.
// An empty path searches the usual install locations.
func NewBridgeSensor(path string, args ...string) (*BridgeSensor, error) {
	if path == "" {
		path = findBridge()
	}
	if path == "" {
		return nil, fmt.Errorf("body bridge executable not found")
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("body bridge: %w", err)
	}

	return &BridgeSensor{
		path: path,
		args: args,
		fps:  DefaultFPS,
	}, nil
}

// Open marks the sensor as ready. The bridge process starts on the first read.
func (s *BridgeSensor) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = true
	return nil
}

// Close shuts down the bridge process.
func (s *BridgeSensor) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = false
	return s.shutdown()
}

// ReadFrame requests the latest frame from the bridge.
func (s *BridgeSensor) ReadFrame() (skeleton.Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.open {
		return skeleton.Frame{}, ErrSensorNotOpen
	}

	if err := s.ensureStarted(); err != nil {
		return skeleton.Frame{}, err
	}

	if _, err := io.WriteString(s.stdin, "next\n"); err != nil {
		s.shutdown()
		return skeleton.Frame{}, fmt.Errorf("write request: %w", err)
	}

	if !s.stdout.Scan() {
		err := s.stdout.Err()
		if err == nil {
			err = io.ErrUnexpectedEOF
		}
		s.shutdown()
		return skeleton.Frame{}, fmt.Errorf("read frame: %w", err)
	}

	frame, err := DecodeFrame(s.stdout.Bytes())
	if err != nil {
		return skeleton.Frame{}, err
	}

	s.resetIdleTimer()
	return frame, nil
}

// SetFPS sets the rate the bridge is asked to capture at.
// Values less than or equal to 0 are ignored.
func (s *BridgeSensor) SetFPS(fps int) {
	if fps <= 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.fps = fps
	if s.started {
		fmt.Fprintf(s.stdin, "fps %d\n", fps)
	}
}

// FPS returns the current capture rate.
func (s *BridgeSensor) FPS() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fps
}

// IsOpen returns true if the sensor is open.
func (s *BridgeSensor) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

func (s *BridgeSensor) ensureStarted() error {
	if s.started {
		return nil
	}

	s.cmd = exec.Command(s.path, append([]string{"--fps", fmt.Sprint(s.fps)}, s.args...)...)

	stdin, err := s.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}

	stdout, err := s.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}

	// Bridge diagnostics go straight to our stderr
	s.cmd.Stderr = os.Stderr

	if err := s.cmd.Start(); err != nil {
		return fmt.Errorf("start body bridge: %w", err)
	}

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 64*1024), maxFrameLine)

	s.stdin = stdin
	s.stdout = scanner
	s.started = true

	return nil
}

func (s *BridgeSensor) shutdown() error {
	if !s.started {
		return nil
	}

	if s.idleTimer != nil {
		s.idleTimer.Stop()
		s.idleTimer = nil
	}

	if s.stdin != nil {
		s.stdin.Close()
	}

	err := s.cmd.Wait()
	s.started = false
	s.cmd = nil
	s.stdin = nil
	s.stdout = nil

	return err
}

func (s *BridgeSensor) resetIdleTimer() {
	if s.idleTimer != nil {
		s.idleTimer.Stop()
	}
	s.idleTimer = time.AfterFunc(BridgeIdleTimeout, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.shutdown()
	})
}

// findBridge looks for the body bridge executable next to the binary,
// in the working directory and under ~/.mudra.
func findBridge() string {
	execPath, err := os.Executable()
	var execDir string
	if err == nil {
		execDir = filepath.Dir(execPath)
	}

	candidates := []string{
		"bridge/mudra-bridge",
		"../bridge/mudra-bridge",
		filepath.Join(execDir, "mudra-bridge"),
		filepath.Join(os.Getenv("HOME"), ".mudra/bin/mudra-bridge"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			absPath, err := filepath.Abs(path)
			if err == nil {
				return absPath
			}
			return path
		}
	}
	return ""
}
