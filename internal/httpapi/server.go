// Package httpapi is the HTTP JSON surface over the actions engine, the
// gorilla/mux + rs/cors surface the teacher's dashboard-api exposes over
// its own database, adapted to serve live []actions.Action instead of
// stored portfolio snapshots. Shared by cmd/advisor's "serve" subcommand
// and the standalone cmd/advisor-api binary.
package httpapi

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/lnoperator/advisor/internal/actions"
	"github.com/lnoperator/advisor/internal/snapshot"
)

// APIResponse wraps every JSON response the same way the teacher's
// dashboard-api does, so clients can always check Success before reading
// Data.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Server serves GET /api/actions, /api/actions/stream, and /api/health.
type Server struct {
	source snapshot.Source
	engine *actions.Engine
	days   uint32
	router *mux.Router

	mu      sync.RWMutex
	latest  []actions.Action
	started time.Time
}

// NewServer constructs a Server; call SetActions whenever a new action
// list is available (e.g. from a refresh.Scheduler's OnActions callback)
// to keep /api/actions/stream current. /api/actions recomputes on every
// request and does not read the cached list.
func NewServer(source snapshot.Source, engine *actions.Engine, days uint32) *Server {
	s := &Server{
		source:  source,
		engine:  engine,
		days:    days,
		router:  mux.NewRouter(),
		started: time.Now().UTC(),
	}
	s.setupRoutes()
	return s
}

// Handler returns the CORS-wrapped http.Handler to pass to
// http.ListenAndServe.
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	})
	return c.Handler(s.router)
}

// SetActions updates the cached action list /api/actions/stream serves;
// /api/actions also stores each list it computes here. Safe to call
// concurrently with requests.
func (s *Server) SetActions(acts []actions.Action) {
	s.mu.Lock()
	s.latest = acts
	s.mu.Unlock()
}

func (s *Server) snapshotActions() []actions.Action {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/actions", s.handleActions).Methods("GET")
	api.HandleFunc("/actions/stream", s.handleActionsStream).Methods("GET")
	api.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// handleActions recomputes the action list on demand against a fresh
// snapshot, the same pull-based model /api/portfolio/current uses against
// the teacher's database.
func (s *Server) handleActions(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	snap, err := s.source.Snapshot(ctx, s.days)
	if err != nil {
		log.Printf("handleActions: fetching snapshot: %v", err)
		s.writeError(w, http.StatusInternalServerError, "failed to fetch snapshot")
		return
	}

	acts, err := s.engine.Get(snap, time.Now().UTC())
	if err != nil {
		log.Printf("handleActions: computing actions: %v", err)
		s.writeError(w, http.StatusInternalServerError, "failed to compute actions")
		return
	}
	s.SetActions(acts)

	s.writeJSON(w, APIResponse{Success: true, Data: acts})
}

// handleActionsStream serves the most recently cached action list as a
// server-sent event and keeps the connection open, re-sending the cached
// list every 5 seconds until the client disconnects. A SetActions call is
// not pushed on its own; it shows up in the next 5-second event.
func (s *Server) handleActionsStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	writeEvent := func() {
		data, err := json.Marshal(APIResponse{Success: true, Data: s.snapshotActions()})
		if err != nil {
			return
		}
		w.Write([]byte("data: "))
		w.Write(data)
		w.Write([]byte("\n\n"))
		flusher.Flush()
	}

	writeEvent()
	for {
		select {
		case <-ticker.C:
			writeEvent()
		case <-r.Context().Done():
			return
		}
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"status":     "healthy",
			"started_at": s.started,
			"timestamp":  time.Now().UTC(),
		},
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode JSON response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(APIResponse{Success: false, Error: message}); err != nil {
		log.Printf("failed to encode error response (status %d, message %q): %v", status, message, err)
	}
}
