// Package api provides the REST API server for daylytics.
//
// The server exposes authentication, task, document, folder, bucket and
// storage accounting endpoints over HTTP, with JWT bearer authentication
// on everything except health probes, metrics and the auth endpoints
// themselves.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/daylytics/daylytics/internal/api/auth"
	"github.com/daylytics/daylytics/internal/logger"
	"github.com/daylytics/daylytics/pkg/blob"
	"github.com/daylytics/daylytics/pkg/storage"
	"github.com/daylytics/daylytics/pkg/store"
)

// shutdownTimeout is how long Stop waits for in-flight requests to drain.
const shutdownTimeout = 5 * time.Second

// Server is the REST API server.
type Server struct {
	config       APIConfig
	httpServer   *http.Server
	shutdownOnce sync.Once
}

// NewServer creates a new API server.
//
// The JWT secret is resolved from the DAYLYTICS_API_SECRET environment
// variable or the config file, in that order, and must be at least
// 32 characters long.
//
// registry may be nil, in which case the /metrics endpoint is not mounted.
func NewServer(config APIConfig, st store.Store, blobs blob.Store, orch *storage.Orchestrator, registry *prometheus.Registry) (*Server, error) {
	config.applyDefaults()

	secret := config.GetJWTSecret()
	if secret == "" {
		return nil, fmt.Errorf("JWT secret is not configured: set %s or api.jwt.secret", EnvJWTSecret)
	}

	jwtService, err := auth.NewJWTService(auth.JWTConfig{
		Secret:               secret,
		AccessTokenDuration:  config.JWT.AccessTokenDuration,
		RefreshTokenDuration: config.JWT.RefreshTokenDuration,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT service: %w", err)
	}

	router := NewRouter(config, st, blobs, orch, jwtService, registry)

	return &Server{
		config: config,
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", config.Port),
			Handler:      router,
			ReadTimeout:  config.ReadTimeout,
			WriteTimeout: config.WriteTimeout,
			IdleTimeout:  config.IdleTimeout,
		},
	}, nil
}

// Start runs the HTTP server until the context is cancelled or the server
// fails. On context cancellation the server is shut down gracefully.
func (s *Server) Start(ctx context.Context) error {
	logger.Info("Starting API server", "port", s.config.Port)

	errChan := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("API server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.Stop(shutdownCtx)
	case err := <-errChan:
		return fmt.Errorf("API server error: %w", err)
	}
}

// Stop gracefully shuts down the server, waiting for in-flight requests
// up to the context deadline. Safe to call multiple times.
func (s *Server) Stop(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		err = s.httpServer.Shutdown(ctx)
		if err != nil {
			logger.Error("API server shutdown error", "error", err)
		} else {
			logger.Info("API server stopped")
		}
	})
	return err
}

// Port returns the configured listen port.
func (s *Server) Port() int {
	return s.config.Port
}
