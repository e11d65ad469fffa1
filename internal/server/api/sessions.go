package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ayusman/mudra/internal/store"
)

// DefaultSessionLimit is the number of sessions listed when no limit is given.
const DefaultSessionLimit = 50

// SessionHandler serves the tracking session history.
type SessionHandler struct {
	store *store.Store
	now   func() time.Time
}

// NewSessionHandler creates a new SessionHandler with the given store.
func NewSessionHandler(s *store.Store) *SessionHandler {
	return &SessionHandler{store: s, now: time.Now}
}

type sessionResponse struct {
	ID         int64   `json:"id"`
	TrackingID uint64  `json:"tracking_id"`
	StartedAt  string  `json:"started_at"`
	EndedAt    string  `json:"ended_at,omitempty"`
	Duration   float64 `json:"duration_seconds"`
	Frames     int     `json:"frames"`
	EndReason  string  `json:"end_reason,omitempty"`
}

type listSessionsResponse struct {
	Sessions []sessionResponse `json:"sessions"`
}

func (h *SessionHandler) toResponse(s *store.Session) sessionResponse {
	resp := sessionResponse{
		ID:         s.ID,
		TrackingID: s.TrackingID,
		StartedAt:  s.StartedAt.Format(timeFormat),
		Duration:   s.Duration(h.now()).Seconds(),
		Frames:     s.Frames,
		EndReason:  s.EndReason,
	}
	if s.EndedAt != nil {
		resp.EndedAt = s.EndedAt.Format(timeFormat)
	}
	return resp
}

// ServeHTTP handles GET /api/sessions?limit=N and GET /api/sessions/{id}.
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/sessions")
	path = strings.TrimPrefix(path, "/")
	if path != "" {
		h.get(w, path)
		return
	}

	limit := DefaultSessionLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	sessions, err := h.store.Sessions().List(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list sessions")
		return
	}

	response := listSessionsResponse{
		Sessions: make([]sessionResponse, 0, len(sessions)),
	}
	for _, s := range sessions {
		response.Sessions = append(response.Sessions, h.toResponse(s))
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *SessionHandler) get(w http.ResponseWriter, rawID string) {
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid session id")
		return
	}

	s, err := h.store.Sessions().Get(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get session")
		return
	}
	writeJSON(w, http.StatusOK, h.toResponse(s))
}
