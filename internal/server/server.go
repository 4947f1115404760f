package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/meltforce/liftlog/internal/connectivity"
	"github.com/meltforce/liftlog/internal/session"
	"github.com/meltforce/liftlog/internal/syncer"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	manager *session.Manager
	sync    *syncer.Coordinator
	monitor *connectivity.Monitor
	log     *slog.Logger
	apiKey  string
	router  chi.Router
}

// New creates a new Server with all routes configured.
func New(manager *session.Manager, sync *syncer.Coordinator, monitor *connectivity.Monitor, apiKey string, log *slog.Logger) *Server {
	s := &Server{
		manager: manager,
		sync:    sync,
		monitor: monitor,
		log:     log,
		apiKey:  apiKey,
		router:  chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	// Mutation endpoints (API key required)
	s.router.Group(func(r chi.Router) {
		r.Use(APIKeyAuth(s.apiKey))
		r.Post("/api/v1/session/open", s.handleOpenSession)
		r.Post("/api/v1/session/sets", s.handleLogSet)
		r.Post("/api/v1/session/skip", s.handleSkipExercise)
		r.Post("/api/v1/session/expand", s.handleToggleExpanded)
		r.Post("/api/v1/session/complete", s.handleCompleteWorkout)
		r.Post("/api/v1/session/uncomplete", s.handleUncompleteWorkout)
		r.Post("/api/v1/sync", s.handleTriggerSync)
		r.Post("/api/v1/connectivity", s.handleSetConnectivity)
		r.Post("/api/v1/downloads", s.handleDownloadDay)
		r.Delete("/api/v1/downloads/{dayID}", s.handleClearDownload)
	})

	// Read endpoints (no auth — tsnet handles access)
	s.router.Get("/api/v1/session", s.handleGetSession)
	s.router.Get("/api/v1/session/progress", s.handleGetProgress)
	s.router.Get("/api/v1/sync/status", s.handleSyncStatus)
	s.router.Get("/api/v1/sync/pending", s.handlePendingCount)
	s.router.Get("/api/v1/downloads", s.handleListDownloads)
}

// SetMCP mounts the MCP transport under /mcp.
func (s *Server) SetMCP(h http.Handler) {
	s.router.Mount("/mcp", h)
}
