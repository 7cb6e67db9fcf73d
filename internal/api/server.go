// Package api exposes the engine's operations over HTTP. It is a thin
// protocol adapter: all semantics live in the engine.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Blakeem/AI-Prompt-Guide-MCP-sub002/internal/config"
	"github.com/Blakeem/AI-Prompt-Guide-MCP-sub002/internal/engine"
)

// Server is the HTTP API server.
type Server struct {
	router chi.Router
	engine *engine.Engine
	log    *slog.Logger
	cfg    config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(eng *engine.Engine, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		engine: eng,
		log:    log,
		cfg:    cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints (auth is a no-op when no key is configured).
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey))

		r.Get("/api/documents", s.handleListDocuments)
		r.Get("/api/documents/*", s.handleGetDocument)
		r.Get("/api/sections", s.handleGetSection)
		r.Post("/api/sections/mutate", s.handleMutateSection)
		r.Post("/api/references", s.handleLoadReferences)
		r.Get("/api/search", s.handleSearch)
		r.Get("/api/stats", s.handleStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
