// Package server wires the HTTP API: routing, middleware and lifecycle.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/utilhub/nfequery/internal/artifact"
	"github.com/utilhub/nfequery/internal/config"
	"github.com/utilhub/nfequery/internal/server/handlers"
	"github.com/utilhub/nfequery/internal/server/middleware"
)

type Server struct {
	config    *config.ServerEnvironment
	logger    *slog.Logger
	router    *chi.Mux
	service   handlers.QueryService
	artifacts *artifact.Store
}

func NewServer(
	cfg *config.ServerEnvironment,
	logger *slog.Logger,
	service handlers.QueryService,
	artifacts *artifact.Store,
) *Server {
	server := &Server{
		config:    cfg,
		logger:    logger,
		router:    chi.NewRouter(),
		service:   service,
		artifacts: artifacts,
	}

	server.setupMiddleware()
	server.registerRoutes()

	return server
}

// Router exposes the configured handler tree, mainly for tests.
func (s *Server) Router() http.Handler { return s.router }

func (s *Server) setupMiddleware() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.RequestLogging(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(chimiddleware.Timeout(60 * time.Second))
	s.router.Use(middleware.SecurityHeaders(s.config.Environment))
	s.router.Use(middleware.RateLimit(s.config.RateLimitRPS, s.config.RateLimitBurst))
	s.router.Use(middleware.RequestSizeLimit(s.config.MaxRequestBytes))
}

func (s *Server) registerRoutes() {
	s.router.Get("/health/live", handlers.HandleHealth)
	s.router.Get("/health/ready", handlers.HandleReadiness(s.readinessCheck))
	s.router.Get("/version", handlers.HandleVersion())

	s.router.Route("/v1", func(r chi.Router) {
		r.Post("/queries", handlers.HandleQuery(s.service))
		r.Get("/artifacts/{name}", handlers.HandleArtifact(s.artifacts))
	})
}

// readinessCheck verifies the local dependencies a query needs: the
// certificate store directory and the artifact directory.
func (s *Server) readinessCheck(ctx context.Context) error {
	if _, err := os.ReadDir(s.config.CertDir); err != nil {
		return fmt.Errorf("certificate store unavailable: %w", err)
	}
	if _, err := os.Stat(s.artifacts.Dir()); err != nil {
		return fmt.Errorf("artifact directory unavailable: %w", err)
	}
	return nil
}

func (s *Server) Start(ctx context.Context) error {
	serverAddr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	httpServer := &http.Server{
		Addr:         serverAddr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("service listening",
			slog.String("environment", s.config.Environment),
			slog.String("address", serverAddr))

		err := httpServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			serverErrors <- fmt.Errorf("server failed to start: %w", err)
		}
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), s.config.ServerShutdownTimeout)
	defer shutdownCancel()

	s.logger.Info("shutting down HTTP server")

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("HTTP server shutdown error",
			slog.String("error", err.Error()))
		return fmt.Errorf("HTTP server shutdown failed: %w", err)
	}

	s.logger.Info("HTTP server shutdown complete")
	return nil
}
