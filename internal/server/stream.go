package server

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/ayusman/mudra/internal/render"
	"github.com/ayusman/mudra/internal/skeleton"
)

// DefaultStreamFPS is the MJPEG frame rate.
const DefaultStreamFPS = 15

// FrameSource provides the most recent sensor frame and its active subject.
type FrameSource interface {
	LatestFrame() (skeleton.Frame, uint64, bool)
}

// StreamHandler serves an MJPEG view of the tracked skeletons.
type StreamHandler struct {
	frames   FrameSource
	renderer *render.Renderer
	interval time.Duration
}

// NewStreamHandler creates a new StreamHandler sending at most fps frames per second.
func NewStreamHandler(frames FrameSource, renderer *render.Renderer, fps int) *StreamHandler {
	if fps <= 0 {
		fps = DefaultStreamFPS
	}
	return &StreamHandler{
		frames:   frames,
		renderer: renderer,
		interval: time.Second / time.Duration(fps),
	}
}

// ServeHTTP streams MJPEG frames to connected clients. A frame is only sent
// when the sensor delivered a new one.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	var lastSeq uint64
	sent := false

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}

		frame, activeID, ok := h.frames.LatestFrame()
		if !ok || (sent && frame.Sequence == lastSeq) {
			continue
		}

		buf, err := h.renderer.EncodeJPEG(frame, activeID)
		if err != nil {
			log.Printf("stream encode error: %v", err)
			continue
		}

		// Write MJPEG frame
		fmt.Fprintf(w, "--frame\r\n")
		fmt.Fprintf(w, "Content-Type: image/jpeg\r\n")
		fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", len(buf))
		if _, err := w.Write(buf); err != nil {
			return
		}
		fmt.Fprintf(w, "\r\n")

		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		lastSeq, sent = frame.Sequence, true
	}
}

// SnapshotHandler serves the latest frame as a single JPEG image.
type SnapshotHandler struct {
	frames   FrameSource
	renderer *render.Renderer
}

// NewSnapshotHandler creates a new SnapshotHandler.
func NewSnapshotHandler(frames FrameSource, renderer *render.Renderer) *SnapshotHandler {
	return &SnapshotHandler{frames: frames, renderer: renderer}
}

// ServeHTTP handles GET /api/snapshot.
func (h *SnapshotHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	frame, activeID, ok := h.frames.LatestFrame()
	if !ok {
		http.Error(w, "No frame available", http.StatusServiceUnavailable)
		return
	}

	buf, err := h.renderer.EncodeJPEG(frame, activeID)
	if err != nil {
		http.Error(w, "Failed to encode frame", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(buf)
}
