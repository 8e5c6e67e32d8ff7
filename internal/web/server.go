// Package web serves the mood-melodies JSON API.
package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// DefaultAddr is the default server address.
const DefaultAddr = "127.0.0.1:8080"

const shutdownTimeout = 10 * time.Second

// DiscoveryWait bounds how long a request waits for endpoint discovery.
// Analyses should be given the same bound (analysis.WithDiscoveryWait) so
// discovery wait, request timeout and mock delay together stay under
// writeTimeout.
const DiscoveryWait = 20 * time.Second

const writeTimeout = 60 * time.Second

// ServerConfig holds server configuration.
type ServerConfig struct {
	Addr      string
	Endpoints Endpoints
	Analyzer  Analyzer
	Playlists Playlists
	History   History // Optional
	Logger    *zap.Logger

	// DiscoveryWait overrides the DiscoveryWait default for GET /api/endpoint.
	DiscoveryWait time.Duration
}

// Server is the HTTP server for the API.
type Server struct {
	router   chi.Router
	server   *http.Server
	handlers *Handlers
	logger   *zap.Logger
}

// NewServer creates a new API server.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Endpoints == nil || cfg.Analyzer == nil || cfg.Playlists == nil {
		return nil, errors.New("server requires endpoints, analyzer and playlists")
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := chi.NewRouter()

	s := &Server{
		router:   router,
		handlers: NewHandlers(cfg.Endpoints, cfg.Analyzer, cfg.Playlists, cfg.History, logger),
		logger:   logger,
	}

	if cfg.DiscoveryWait > 0 {
		s.handlers.discoveryWait = cfg.DiscoveryWait
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: writeTimeout,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// setupMiddleware configures middleware for the router.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
}

// setupRoutes configures routes for the application.
func (s *Server) setupRoutes() {
	h := s.handlers

	s.router.Get("/healthz", h.Health)

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/endpoint", func(r chi.Router) {
			r.Get("/", h.GetEndpoint)
			r.Put("/", h.PutEndpoint)
			r.Delete("/", h.DeleteEndpoint)
			r.Get("/survey", h.Survey)
		})

		r.Post("/analyze", h.Analyze)
		r.Post("/analyze/sample", h.AnalyzeSample)

		r.Get("/mood/last", h.LastMood)
		r.Get("/moods", h.Moods)
		r.Get("/moods/history", h.MoodHistory)
		r.Get("/moods/trends", h.MoodTrends)
		r.Get("/moods/sessions", h.MoodSessions)

		r.Get("/playlists/{mood}", h.Playlist)
		r.Get("/playlists/{mood}/names", h.PlaylistNames)
	})
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.server.Addr
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info("starting server", zap.String("url", "http://"+s.server.Addr))
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Run starts the server and shuts it down gracefully when ctx is done.
// Callers wire ctx to SIGINT/SIGTERM.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := s.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}
