// Package main implements the Call Relay Container entry point.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/call-relay/crc/internal/api"
	"github.com/call-relay/crc/internal/audit"
	"github.com/call-relay/crc/internal/auth"
	"github.com/call-relay/crc/internal/call"
	"github.com/call-relay/crc/internal/config"
	"github.com/call-relay/crc/internal/ingest"
	"github.com/call-relay/crc/internal/provider/elevenlabs"
	"github.com/call-relay/crc/internal/provider/twilio"
	"github.com/call-relay/crc/internal/relay"
	"github.com/call-relay/crc/internal/stream"
)

const Version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zlog, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()
	logger := zlog.Sugar()

	logger.Infow("starting call relay container", "version", Version, "addr", cfg.Server.Addr)

	auditLogger, err := audit.NewLogger(cfg.Audit)
	if err != nil {
		logger.Fatalw("failed to initialize audit logger", "error", err)
	}

	hub := relay.NewHub(cfg.Relay, logger)
	normalizer := ingest.NewNormalizer(hub, logger)
	normalizer.SetAuditLogger(auditLogger)
	streamAdapter := stream.NewAdapter(hub, cfg.Relay, logger)

	twilioClient := twilio.NewClient(cfg.Twilio, logger)
	agentClient := elevenlabs.NewClient(cfg.ElevenLabs, logger)

	orchestrator := call.NewOrchestrator(twilioClient, agentClient, hub, cfg, logger)
	orchestrator.SetAuditLogger(auditLogger)

	var server *api.Server
	if cfg.Auth.Enabled {
		verifier, err := auth.NewVerifier(cfg.Auth)
		if err != nil {
			logger.Fatalw("failed to initialize auth", "error", err)
		}
		server = api.NewServerWithAuth(hub, normalizer, orchestrator, streamAdapter,
			auth.NewMiddleware(verifier), cfg.Server)
	} else {
		logger.Warnw("authentication disabled, all routes are open")
		server = api.NewServer(hub, normalizer, orchestrator, streamAdapter, cfg.Server)
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	logger.Infow("call relay container started",
		"health", "http://localhost"+cfg.Server.Addr+"/api/v1/health")

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-shutdown:
		logger.Infow("shutdown signal received", "signal", sig)
	case err := <-serverErr:
		logger.Errorw("server failed", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Stop(ctx); err != nil {
		logger.Errorw("error stopping HTTP server", "error", err)
	}

	// Closing the hub closes every observer sink, letting in-flight SSE
	// handlers drain before the process exits.
	hub.Close()

	if err := auditLogger.Close(); err != nil {
		logger.Errorw("error closing audit logger", "error", err)
	}

	logger.Infow("call relay container shutdown complete")
}
