package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/meltforce/repcoach/internal/session"
	"github.com/meltforce/repcoach/internal/storage"
	"tailscale.com/client/tailscale/apitype"
)

// WhoIsClient resolves a remote address to a tailnet identity. Satisfied by
// the tsnet local client.
type WhoIsClient interface {
	WhoIs(ctx context.Context, remoteAddr string) (*apitype.WhoIsResponse, error)
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	db       *storage.DB
	sessions *session.Manager
	log      *slog.Logger
	apiKey   string
	whois    WhoIsClient
	router   chi.Router
}

// New creates a new Server with all routes configured.
func New(db *storage.DB, sessions *session.Manager, apiKey string, log *slog.Logger) *Server {
	s := &Server{
		db:       db,
		sessions: sessions,
		log:      log,
		apiKey:   apiKey,
		router:   chi.NewRouter(),
	}
	s.routes()
	return s
}

// SetTailscale enables tailnet identity resolution. Must be called before
// the first request; without it every request runs as the dev user.
func (s *Server) SetTailscale(client WhoIsClient) {
	s.whois = client
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)
	s.router.Use(s.identity)

	// Live session endpoints (no auth — tsnet handles access)
	s.router.Route("/api/v1/sessions", func(r chi.Router) {
		r.Post("/", s.handleCreateSession)
		r.Get("/{id}", s.handleGetSession)
		r.Get("/{id}/summary", s.handleSessionSummary)
		r.Post("/{id}/sets", s.handleCompleteSet)
		r.Post("/{id}/skip-exercise", s.handleSkipExercise)
		r.Post("/{id}/rest/adjust", s.handleAdjustRest)
		r.Post("/{id}/rest/pause", s.handlePauseRest)
		r.Post("/{id}/rest/resume", s.handleResumeRest)
		r.Post("/{id}/rest/skip", s.handleSkipRest)
		r.Post("/{id}/finish", s.handleFinishSession)
	})

	// Bulk write endpoints (API key required)
	s.router.Group(func(r chi.Router) {
		r.Use(APIKeyAuth(s.apiKey))
		r.Post("/api/v1/exercise-logs", s.handleWriteExerciseLogs)
		r.Post("/api/v1/daily-aggregates", s.handleWriteDailyAggregate)
	})

	// Read endpoints
	s.router.Get("/api/v1/exercise-logs", s.handleQueryExerciseLogs)
	s.router.Get("/api/v1/daily-aggregates", s.handleQueryDailyAggregates)
	s.router.Get("/api/v1/daily-aggregates/today", s.handleTodayAggregate)
	s.router.Get("/api/v1/volume-summary", s.handleVolumeSummary)

	// Templates
	s.router.Get("/api/v1/templates", s.handleListTemplates)
	s.router.Post("/api/v1/templates", s.handleCreateTemplate)
	s.router.Get("/api/v1/templates/{id}", s.handleGetTemplate)

	s.router.Get("/api/v1/me", s.handleMe)
}
