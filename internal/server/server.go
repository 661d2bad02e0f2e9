package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/troupekit/troupe/internal/engine"
	"github.com/troupekit/troupe/internal/store"
)

// Server is the troupe HTTP API server.
type Server struct {
	db      *store.DB
	engine  *engine.Engine
	router  chi.Router
	version string
	started time.Time
}

// New creates a new Server with the given database, engine, and version string.
func New(db *store.DB, eng *engine.Engine, version string) *Server {
	s := &Server{
		db:      db,
		engine:  eng,
		version: version,
		started: time.Now(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		// Read surface for prompt assembly
		r.Get("/characters/{ownerID}/memories", s.handleGetMemories)
		r.Get("/characters/{ownerID}/relationships", s.handleGetRelationships)
		r.Get("/characters/{ownerID}/vitals", s.handleGetVitals)
		r.Get("/characters/{ownerID}/wants", s.handleGetWants)
		r.Get("/characters/{ownerID}/events", s.handleGetEvents)

		// Write surface for chat/activity collaborators
		r.Post("/characters", s.handleRegisterCharacter)
		r.Post("/events", s.handleRecordEvent)
		r.Post("/characters/{ownerID}/activity", s.handleActivity)

		// Job triggers for the external heartbeat
		r.Post("/sweep", s.handleSweep)
		r.Post("/characters/{ownerID}/review", s.handleReview)
		r.Post("/consequences/run", s.handleConsequences)
		r.Post("/reset/daily", s.handleDailyReset)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	dbOK := true
	if err := s.db.Ping(); err != nil {
		dbOK = false
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
		"uptime":  time.Since(s.started).Seconds(),
		"db":      dbOK,
		"db_path": s.db.Path,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
