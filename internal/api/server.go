package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/call-relay/crc/internal/auth"
	"github.com/call-relay/crc/internal/config"
)

// Server represents the HTTP API server.
type Server struct {
	httpServer     *http.Server
	relay          RelayPort
	ingest         IngestPort
	control        CallControlPort
	stream         StreamPort
	authMiddleware *auth.Middleware
	cfg            config.ServerConfig
	startTime      time.Time
}

// NewServer creates a new API server without authentication.
func NewServer(relay RelayPort, ingest IngestPort, control CallControlPort, stream StreamPort, cfg config.ServerConfig) *Server {
	return &Server{
		relay:     relay,
		ingest:    ingest,
		control:   control,
		stream:    stream,
		cfg:       cfg,
		startTime: time.Now(),
	}
}

// NewServerWithAuth creates a new API server with authentication middleware.
func NewServerWithAuth(relay RelayPort, ingest IngestPort, control CallControlPort, stream StreamPort, authMiddleware *auth.Middleware, cfg config.ServerConfig) *Server {
	s := NewServer(relay, ingest, control, stream, cfg)
	s.authMiddleware = authMiddleware
	return s
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)

	// WriteTimeout must stay zero: SSE connections outlive any fixed
	// deadline.
	s.httpServer = &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      mux,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	return nil
}

// Stop gracefully stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}

	return nil
}
