// Package web hosts the HTTP API for identification, enrollment and
// attendance queries.
package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/vbartonek/face-attendance/internal/attendance"
	"github.com/vbartonek/face-attendance/internal/config"
	"github.com/vbartonek/face-attendance/internal/gallery"
	"github.com/vbartonek/face-attendance/internal/web/middleware"
)

// Server represents the web server
type Server struct {
	cfg        config.WebConfig
	router     *chi.Mux
	httpServer *http.Server
	log        *logrus.Logger
}

// Deps holds everything the API handlers operate on. Snapshot and Index may
// be nil; the write endpoints then skip cache invalidation and index updates.
type Deps struct {
	Store    gallery.Store
	Snapshot *gallery.Snapshot
	Index    *gallery.SignatureIndex
	Events   attendance.EventStore
	Service  *attendance.Service
}

// NewServer creates a new web server
func NewServer(cfg config.WebConfig, deps Deps, log *logrus.Logger) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	r := chi.NewRouter()

	s := &Server{
		cfg:    cfg,
		router: r,
		log:    log,
	}

	// Set up middleware stack
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(30 * time.Second))
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	// Set up routes
	s.setupRoutes(deps)

	// Create HTTP server
	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.WithField("addr", s.httpServer.Addr).Info("starting web server")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down web server")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

// Router returns the chi router for testing
func (s *Server) Router() *chi.Mux {
	return s.router
}
