// Package api exposes alert ingestion and engine state over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/alertpipe/alertpipe/internal/alert"
	"github.com/alertpipe/alertpipe/internal/engine"
	"github.com/alertpipe/alertpipe/internal/version"
)

// Server provides the HTTP ingestion and status endpoints.
type Server struct {
	engine    *engine.Engine
	events    *engine.EventBuffer
	logger    zerolog.Logger
	addr      string
	startTime time.Time
	gatherer  prometheus.Gatherer
	httpSrv   *http.Server
}

// NewServer creates an API server for one engine instance. events may be
// nil when no event listing is wanted; gatherer may be nil to omit /metrics.
func NewServer(eng *engine.Engine, events *engine.EventBuffer, gatherer prometheus.Gatherer, logger zerolog.Logger, addr string) *Server {
	return &Server{
		engine:    eng,
		events:    events,
		logger:    logger.With().Str("component", "api").Logger(),
		addr:      addr,
		startTime: time.Now(),
		gatherer:  gatherer,
	}
}

// Handler builds the HTTP routing table.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/alerts", s.handleSubmit).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/history", s.handleHistory).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/suppressions", s.handleSuppressions).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/escalations", s.handleEscalations).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/events", s.handleEvents).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/stats", s.handleStats).Methods(http.MethodGet)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}
	return r
}

// Start runs the HTTP server until Shutdown is called.
func (s *Server) Start() error {
	s.httpSrv = &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	s.logger.Info().Str("address", s.addr).Msg("Starting API server")
	if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the HTTP server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

// wireAlert is the ingestion body; timestamp is epoch milliseconds.
type wireAlert struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Severity  string         `json:"severity"`
	Message   string         `json:"message"`
	Timestamp int64          `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
}

// handleSubmit accepts one alert and hands it to the engine. Processing is
// asynchronous; outcomes are observed through events, so a parseable body
// always answers 202.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var body wireAlert
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	a := &alert.Alert{
		ID:       body.ID,
		Type:     body.Type,
		Severity: alert.Severity(body.Severity),
		Message:  body.Message,
		Data:     body.Data,
	}
	if body.Timestamp > 0 {
		a.Timestamp = time.UnixMilli(body.Timestamp).UTC()
	}

	s.engine.Submit(a)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{"status": "accepted", "id": body.ID})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]any{
		"status":  "healthy",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"uptime":  time.Since(s.startTime).String(),
		"version": version.GetVersion(),
		"commit":  version.GetCommit(),
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	records := s.engine.History()
	s.writeJSON(w, map[string]any{"records": records, "count": len(records)})
}

func (s *Server) handleSuppressions(w http.ResponseWriter, r *http.Request) {
	entries := s.engine.Suppressions()
	s.writeJSON(w, map[string]any{"entries": entries, "count": len(entries)})
}

func (s *Server) handleEscalations(w http.ResponseWriter, r *http.Request) {
	records := s.engine.Escalations()
	s.writeJSON(w, map[string]any{"records": records, "count": len(records)})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	var events []engine.Event
	if s.events != nil {
		events = s.events.Recent(200)
	}
	s.writeJSON(w, map[string]any{"events": events, "count": len(events)})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.engine.StatsSnapshot())
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
