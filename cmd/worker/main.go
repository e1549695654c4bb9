// Package main provides the entrypoint for the export worker: it consumes
// queued export jobs, renders the files, and stores the artifacts.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/parquesmx/parques/internal/api/middleware"
	"github.com/parquesmx/parques/internal/branding"
	"github.com/parquesmx/parques/internal/catalog"
	"github.com/parquesmx/parques/internal/database"
	"github.com/parquesmx/parques/internal/export"
	"github.com/parquesmx/parques/internal/exportreq"
	"github.com/parquesmx/parques/internal/source"
	"github.com/parquesmx/parques/internal/telemetry"
	"github.com/parquesmx/parques/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "parques-worker"

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting export worker")

	// Worker also exposes a health endpoint for Cloud Run.
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	telemetryCfg := telemetry.ConfigFromEnv(serviceName, Version)
	tp, err := telemetry.Init(ctx, telemetryCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	// Connect to database
	dbConfig := database.ConfigFromEnv()
	pool, err := database.Connect(ctx, dbConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	// Build the export catalog
	registry, err := catalog.NewRegistry()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build export catalog")
	}

	brandingService := branding.NewService(branding.ServiceConfig{
		Repository: branding.NewPostgresRepository(pool),
		Logger:     log,
		CacheTTL:   5 * time.Minute,
	})

	// Authorization happened when the request was created, so the worker
	// engine runs allow-all.
	engine := export.NewEngine(export.EngineConfig{
		Registry:   registry,
		Source:     source.NewPostgresSource(pool),
		Authorizer: export.AllowAll{},
		Branding:   brandingService.Resolve(ctx, os.Getenv("BRANDING_PROFILE")),
		Logger:     log,
	})

	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	job := worker.NewExportJob(worker.ExportJobConfig{
		Engine:     engine,
		Repository: exportreq.NewPostgresRepository(pool),
		Metrics:    metrics,
		Logger:     log,
	})

	projectID := os.Getenv("PUBSUB_PROJECT_ID")
	subscription := os.Getenv("PUBSUB_EXPORT_SUBSCRIPTION")
	if subscription == "" {
		log.Fatal().Msg("PUBSUB_EXPORT_SUBSCRIPTION is required")
	}

	handler, err := worker.NewPubSubHandler(ctx, worker.PubSubConfig{
		ProjectID:        projectID,
		SubscriptionName: subscription,
		Job:              job,
		Logger:           log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize pubsub handler")
	}
	defer handler.Close()

	// HTTP server for health checks
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"OK","version":"%s"}`, Version)
	})

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("health server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("health server error")
		}
	}()

	// Start consuming export jobs
	errCh := make(chan error, 1)
	go func() {
		errCh <- handler.Start(ctx)
	}()

	// Wait for interrupt signal or subscriber failure
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		log.Info().Msg("shutting down worker")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("subscriber stopped")
		}
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server forced to shutdown")
	}

	log.Info().Msg("worker stopped")
}
