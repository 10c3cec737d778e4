// Package web exposes exploration sessions over a JSON HTTP API.
package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/KaramelBytes/tabex/internal/config"
	"github.com/KaramelBytes/tabex/internal/session"
	"github.com/KaramelBytes/tabex/internal/web/middleware"
)

// Server is the HTTP host for exploration sessions.
type Server struct {
	cfg    *config.Global
	store  *session.Store
	router *chi.Mux
	server *http.Server
}

// NewServer creates a Server backed by store.
func NewServer(cfg *config.Global, store *session.Store) *Server {
	s := &Server{cfg: cfg, store: store, router: chi.NewRouter()}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(chimw.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	s.router.Use(middleware.SecurityHeaders)
	if d := s.cfg.ReadTimeout(); d > 0 {
		s.router.Use(chimw.Timeout(2 * d))
	}
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api/sessions", func(r chi.Router) {
		r.Post("/", s.handleCreateSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Delete("/", s.handleDeleteSession)
			r.Get("/head", s.handleHead)
			r.Get("/profile", s.handleProfile)
			r.Get("/distinct/{column}", s.handleDistinct)
			r.Post("/filter", s.handleApplyFilter)
			r.Delete("/filter", s.handleClearFilter)
			r.Post("/chart", s.handleChart)
			r.Get("/export", s.handleExport)
		})
	})
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

// Start listens on the configured address until Shutdown is called.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              s.cfg.Addr(),
		Handler:           s.router,
		ReadTimeout:       s.cfg.ReadTimeout(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	slog.Info("server starting", "addr", s.cfg.Addr())
	err := s.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
