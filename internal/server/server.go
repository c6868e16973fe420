package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"tailscale.com/client/local"
	"tailscale.com/client/tailscale/apitype"

	"github.com/claude/kinetic/internal/coach"
)

// whoIser resolves a tailnet peer address to its identity.
type whoIser interface {
	WhoIs(ctx context.Context, remoteAddr string) (*apitype.WhoIsResponse, error)
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	coach  *coach.Service
	log    *slog.Logger
	apiKey string
	who    whoIser
	router chi.Router
}

// New creates a new Server with all routes configured.
func New(svc *coach.Service, apiKey string, log *slog.Logger) *Server {
	s := &Server{
		coach:  svc,
		log:    log,
		apiKey: apiKey,
		router: chi.NewRouter(),
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
	s.router.Use(s.Identity)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/me", s.handleMe)

		r.Get("/exercises", s.handleListExercises)
		r.Get("/exercises/{id}", s.handleGetExercise)

		r.Get("/sessions", s.handleSessionHistory)
		r.Get("/sessions/{id}", s.handleGetSession)

		r.Get("/progress", s.handleProgress)
		r.Get("/progress/weekly", s.handleWeeklyProgress)
		r.Get("/progress/exercises/{id}", s.handleExerciseStats)
		r.Get("/progress/trend", s.handleTrend)
		r.Get("/progress/insights", s.handleInsights)

		r.Get("/goals", s.handleGetGoals)
		r.Get("/goals/status", s.handleGoalStatus)

		// Mutating endpoints (API key required)
		r.Group(func(r chi.Router) {
			r.Use(APIKeyAuth(s.apiKey))
			r.Post("/sessions", s.handleStartSession)
			r.Post("/sessions/{id}/frames", s.handleFrame)
			r.Post("/sessions/{id}/resync", s.handleResync)
			r.Post("/sessions/{id}/end", s.handleEndSession)
			r.Put("/goals", s.handleSetGoals)
		})
	})
}

// SetTailscale enables tailnet identity lookup for every request.
func (s *Server) SetTailscale(lc *local.Client) {
	if lc != nil {
		s.who = lc
	}
}

// SetMCP mounts an MCP streamable-HTTP handler at /mcp.
func (s *Server) SetMCP(h http.Handler) {
	s.router.Handle("/mcp", h)
}
