// cmd/jagritid/main.go
// Package main implements the entry point for the Jagriti proxy.
// It initializes all components and starts the HTTP server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lexi-legal/jagriti-proxy/internal/config"
	"github.com/lexi-legal/jagriti-proxy/internal/document"
	"github.com/lexi-legal/jagriti-proxy/internal/event"
	"github.com/lexi-legal/jagriti-proxy/internal/jagriti"
	"github.com/lexi-legal/jagriti-proxy/internal/metrics"
	"github.com/lexi-legal/jagriti-proxy/internal/reference"
	"github.com/lexi-legal/jagriti-proxy/internal/search"
	"github.com/lexi-legal/jagriti-proxy/internal/server"
	"github.com/lexi-legal/jagriti-proxy/internal/storage"
	"github.com/lexi-legal/jagriti-proxy/internal/telemetry"
)

// version is stamped at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// Load configuration from environment variables
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	// Configure structured logging for the application
	logLevel := slog.LevelInfo
	if cfg.Env == "dev" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	if cfg.Tracing {
		if _, err := telemetry.InitTracer(telemetry.ServiceName, version); err != nil {
			logger.Error("failed to initialize OpenTelemetry tracer", "error", err)
			os.Exit(1)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			telemetry.ShutdownTracer(ctx)
		}()
	}

	m := metrics.NewMetrics()

	// One pooled client for every portal call
	client := jagriti.New(cfg.UpstreamURL, cfg.RequestTimeout)
	defer client.Close()

	store, err := storage.NewMemory(cfg.DocumentCacheSize, func(id string) {
		m.DocumentEvictions.Inc()
		logger.Debug("evicted document", "id", id)
	})
	if err != nil {
		logger.Error("failed to initialize document store", "error", err)
		os.Exit(1)
	}
	documents := document.NewRecoverer(store, cfg.Host, cfg.Port)

	refs := reference.New(client, cfg.ReferenceCacheTTL)

	// Initialize event publisher (NATS JetStream or no-op)
	pub := event.NewPublisher(cfg.NATSURL)
	defer pub.Close()

	svc := search.NewService(client, documents, search.WithPublisher(pub))

	mux, err := server.NewMux(svc, refs, documents, cfg.CORSAllowedOrigins)
	if err != nil {
		logger.Error("failed to initialize HTTP handlers", "error", err)
		os.Exit(1)
	}

	// A search may wait the full upstream timeout before it answers
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 15*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info("server starting",
			"addr", srv.Addr,
			"env", cfg.Env,
			"version", version,
			"upstream", cfg.UpstreamURL)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}

	// client.Close and pub.Close are deferred above
	logger.Info("server exited")
}
