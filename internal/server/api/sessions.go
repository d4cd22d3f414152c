// Package api provides the HTTP API handlers for the Lazarillo assistant.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/ayusman/lazarillo/internal/risk"
	"github.com/ayusman/lazarillo/internal/store"
)

// SessionsHandler serves the session history: past capture runs and the
// alerts vocalized during each one.
type SessionsHandler struct {
	store *store.Store
}

// NewSessionsHandler creates a new SessionsHandler with the given store.
func NewSessionsHandler(s *store.Store) *SessionsHandler {
	return &SessionsHandler{store: s}
}

// ServeHTTP routes requests.
// Expected paths: /api/sessions, /api/sessions/{id}, /api/sessions/{id}/alerts
func (h *SessionsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/sessions")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		h.list(w, r)
		return
	}

	if id, ok := strings.CutSuffix(path, "/alerts"); ok {
		h.alerts(w, r, id)
		return
	}
	h.get(w, r, path)
}

type sessionResponse struct {
	ID        string `json:"id"`
	CameraID  int    `json:"camera_id"`
	StartedAt string `json:"started_at"`
	EndedAt   string `json:"ended_at,omitempty"`
	Frames    int64  `json:"frames"`
	Alerts    int64  `json:"alerts"`
}

type alertResponse struct {
	ID        string  `json:"id"`
	Label     string  `json:"label"`
	Level     string  `json:"level"`
	Score     float64 `json:"score"`
	Message   string  `json:"message"`
	CreatedAt string  `json:"created_at"`
}

func toSessionResponse(s *store.Session) sessionResponse {
	resp := sessionResponse{
		ID:        s.ID,
		CameraID:  s.CameraID,
		StartedAt: s.StartedAt.Format(time.RFC3339),
		Frames:    s.Frames,
		Alerts:    s.Alerts,
	}
	if s.EndedAt != nil {
		resp.EndedAt = s.EndedAt.Format(time.RFC3339)
	}
	return resp
}

func (h *SessionsHandler) list(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.store.Sessions().List(50)
	if err != nil {
		http.Error(w, "Failed to list sessions", http.StatusInternalServerError)
		return
	}

	out := make([]sessionResponse, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, toSessionResponse(s))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *SessionsHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	session, err := h.store.Sessions().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "Session not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to get session", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(session))
}

func (h *SessionsHandler) alerts(w http.ResponseWriter, r *http.Request, id string) {
	if _, err := h.store.Sessions().GetByID(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "Session not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to get session", http.StatusInternalServerError)
		return
	}

	events, err := h.store.Alerts().ListBySession(id)
	if err != nil {
		http.Error(w, "Failed to list alerts", http.StatusInternalServerError)
		return
	}

	out := make([]alertResponse, 0, len(events))
	for _, e := range events {
		out = append(out, alertResponse{
			ID:        e.ID,
			Label:     e.Label,
			Level:     risk.ParseLevel(e.Level).String(),
			Score:     e.Score,
			Message:   e.Message,
			CreatedAt: e.CreatedAt.Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
