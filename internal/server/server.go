// Package server provides the HTTP surface of the Lazarillo assistant: the
// browser UI feed, session control, scene description and history.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/ayusman/lazarillo/internal/app"
	"github.com/ayusman/lazarillo/internal/assistant"
	"github.com/ayusman/lazarillo/internal/capture"
	"github.com/ayusman/lazarillo/internal/server/api"
	"github.com/ayusman/lazarillo/internal/store"
)

// Config holds the server configuration.
type Config struct {
	StaticDir string
	Store     *store.Store
	App       *app.App
	Logger    zerolog.Logger

	// OnAPIKeyChange is invoked after the Gemini API key setting is updated
	// so the assistant can be rebuilt with the new key.
	OnAPIKeyChange func(key string)
}

// Server is the HTTP server for the Lazarillo application.
type Server struct {
	config Config
	logger zerolog.Logger
	mux    *http.ServeMux
	start  time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		logger: config.Logger,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)
	s.mux.HandleFunc("/api/cameras", s.handleCameras)

	if s.config.App != nil {
		s.mux.HandleFunc("/api/state", s.handleState)
		s.mux.HandleFunc("/api/session/start", s.handleSessionStart)
		s.mux.HandleFunc("/api/session/stop", s.handleSessionStop)
		s.mux.HandleFunc("/api/detection/enable", s.handleDetectionToggle(true))
		s.mux.HandleFunc("/api/detection/disable", s.handleDetectionToggle(false))
		s.mux.HandleFunc("/api/assistant/describe", s.handleDescribe)
		s.mux.HandleFunc("/api/assistant/quick", s.handleQuickDescribe)
		s.mux.HandleFunc("/api/assistant/ask", s.handleAsk)
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.App))
		s.mux.Handle("/api/events", NewEventsHandler(s.config.App, s.logger))
		s.mux.Handle("/metrics", s.config.App.Metrics().Handler())
	}

	if s.config.Store != nil {
		sessionsHandler := api.NewSessionsHandler(s.config.Store)
		s.mux.Handle("/api/sessions", sessionsHandler)
		s.mux.Handle("/api/sessions/", sessionsHandler)

		settingsHandler := api.NewSettingsHandler(s.config.Store, s.config.OnAPIKeyChange)
		s.mux.Handle("/api/settings", settingsHandler)
	}

	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	})
}

func (s *Server) handleCameras(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"cameras": capture.ListDevices(5),
	})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, s.config.App.State())
}

func (s *Server) handleSessionStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := s.config.App.Start(); err != nil {
		s.logger.Error().Err(err).Msg("session start failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"error": "no se pudo abrir la cámara",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": s.config.App.SessionID(),
	})
}

func (s *Server) handleSessionStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.config.App.Stop()
	writeJSON(w, http.StatusOK, map[string]any{"stopped": true})
}

func (s *Server) handleDetectionToggle(enabled bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		s.config.App.SetEnabled(enabled)
		writeJSON(w, http.StatusOK, map[string]any{"enabled": enabled})
	}
}

func (s *Server) handleDescribe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if !s.config.App.RequestDescription() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"error": "asistente no configurado",
		})
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{"requested": true})
}

func (s *Server) handleQuickDescribe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	text, err := s.config.App.QuickDescribe(ctx)
	if err != nil {
		var apiErr *assistant.APIError
		if errors.As(err, &apiErr) {
			writeJSON(w, http.StatusBadGateway, map[string]any{"error": apiErr.Message})
			return
		}
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"error": "el asistente no está disponible",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"description": text})
}

type askRequest struct {
	Question string `json:"question"`
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Question == "" {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	answer, err := s.config.App.Answer(ctx, req.Question)
	if err != nil {
		var apiErr *assistant.APIError
		if errors.As(err, &apiErr) {
			writeJSON(w, http.StatusBadGateway, map[string]any{"error": apiErr.Message})
			return
		}
		s.logger.Error().Err(err).Msg("assistant answer failed")
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"error": "el asistente no está disponible",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"answer": answer})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
