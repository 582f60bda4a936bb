// Package server provides the HTTP API for Kotae.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kotae-dev/kotae/internal/audit"
	"github.com/kotae-dev/kotae/internal/auth"
	"github.com/kotae-dev/kotae/internal/config"
	"github.com/kotae-dev/kotae/internal/service"
)

// Server is the HTTP server for the Kotae API.
type Server struct {
	svc      *service.Service
	users    *auth.UserStore
	sessions *auth.SessionManager
	sink     *audit.Sink
	config   *config.ServerConfig
	logger   *zap.Logger
	server   *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(
	svc *service.Service,
	users *auth.UserStore,
	sessions *auth.SessionManager,
	sink *audit.Sink,
	cfg *config.ServerConfig,
	logger *zap.Logger,
) *Server {
	return &Server{
		svc:      svc,
		users:    users,
		sessions: sessions,
		sink:     sink,
		config:   cfg,
		logger:   logger,
	}
}

// Router builds the chi router with all routes and middleware.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))
	r.Use(middleware.Compress(5))

	r.Post("/api/v1/login", s.handleLogin)
	r.Post("/api/v1/logout", s.handleLogout)
	r.Post("/api/v1/documents", s.requirePermission(auth.PermUploadDocs, s.handleUpload))
	r.Post("/api/v1/ask", s.requirePermission(auth.PermQuery, s.handleAsk))
	r.Get("/api/v1/stats", s.requirePermission(auth.PermQuery, s.handleStats))
	r.Delete("/api/v1/collection", s.requirePermission(auth.PermManageUsers, s.handleClear))
	r.Get("/api/v1/audit", s.requirePermission(auth.PermViewAudit, s.handleAuditList))
	r.Get("/api/v1/audit/search", s.requirePermission(auth.PermViewAudit, s.handleAuditSearch))
	r.Get("/health", s.handleHealth)

	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
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
