// Package server wires the shared HTTP surface (internal/api) onto a
// net/http.ServeMux with the teacher's setupRoutes/applyMiddleware/
// graceful-shutdown shape, adapted to the spec's four routes.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sundayezeilo/urlshortener/internal/api"
	"github.com/sundayezeilo/urlshortener/internal/config"
	"github.com/sundayezeilo/urlshortener/internal/httpx"
)

// HealthDetail returns additional fields to surface on /health (e.g. the
// active storage/auth provider).
type HealthDetail func() map[string]string

// Server represents the HTTP server with all dependencies.
type Server struct {
	config       *config.Config
	logger       *slog.Logger
	handler      *api.Handler
	healthDetail HealthDetail
	server       *http.Server
}

// New creates a new Server instance.
func New(cfg *config.Config, logger *slog.Logger, handler *api.Handler, healthDetail HealthDetail) *Server {
	return &Server{config: cfg, logger: logger, handler: handler, healthDetail: healthDetail}
}

// Start starts the HTTP server and blocks until shutdown.
func (s *Server) Start(ctx context.Context) error {
	mux := s.setupRoutes()
	handler := s.applyMiddleware(mux)
	s.server = &http.Server{
		Addr:    ":" + s.config.Server.Port,
		Handler: handler,
	}

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("starting http server", "addr", s.server.Addr, "env", s.config.App.Environment)
		serverErrors <- s.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		s.logger.Info("received shutdown signal", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := s.server.Shutdown(ctx); err != nil {
			if closeErr := s.server.Close(); closeErr != nil {
				return fmt.Errorf("failed to close server: %w", closeErr)
			}
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}

		s.logger.Info("server stopped gracefully")
		return nil
	}
}

const shutdownTimeout = 10 * time.Second

// setupRoutes configures all HTTP routes. OPTIONS /api/links needs no
// dedicated route: httpx.CORS short-circuits every OPTIONS request with a
// 204 before it reaches the mux.
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthCheckHandler)

	mux.HandleFunc("POST /api/links", s.handler.CreateLink)
	mux.HandleFunc("GET /api/links", s.handler.ListLinks)
	mux.HandleFunc("GET /{slug}", s.handler.ResolveSlug)

	return mux
}

// applyMiddleware wraps the handler with middleware in the correct order.
func (s *Server) applyMiddleware(handler http.Handler) http.Handler {
	return httpx.Chain(
		httpx.Recovery(s.logger),
		httpx.RequestID,
		httpx.Logger(s.logger),
		httpx.CORS(s.config.Server.CORSAllowOrigin),
	)(handler)
}

// healthCheckHandler handles health check requests.
func (s *Server) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	body := map[string]string{"status": "ok"}
	if s.healthDetail != nil {
		for k, v := range s.healthDetail() {
			body[k] = v
		}
	}
	httpx.WriteJSON(w, http.StatusOK, body)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}

	s.logger.Info("shutting down server")

	if err := s.server.Shutdown(ctx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			s.logger.Warn("shutdown timeout exceeded, forcing close")
			return s.server.Close()
		}
		return err
	}

	return nil
}
