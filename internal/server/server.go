// Package server provides the HTTP API for Fuda.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/fuda/internal/config"
	"github.com/hyperjump/fuda/internal/matcher"
)

// Server is the HTTP server for the Fuda API.
type Server struct {
	engine *matcher.Engine
	config *config.Config
	logger *zap.Logger
	server *http.Server
}

// NewServer creates a server around the given engine.
func NewServer(engine *matcher.Engine, cfg *config.Config, logger *zap.Logger) *Server {
	return &Server{
		engine: engine,
		config: cfg,
		logger: logger,
	}
}

// Router builds the chi router with all API routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Post("/api/v1/resolve", s.handleResolve)
	r.Post("/api/v1/resolve/batch", s.handleResolveBatch)
	r.Get("/api/v1/tags/exact", s.handleExact)
	r.Get("/api/v1/tags/alias", s.handleAlias)
	r.Get("/api/v1/tags/search", s.handlePrefixSearch)
	r.Post("/api/v1/reload", s.handleReload)
	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/api/health", s.handleHealth)

	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
