// Package main provides the entrypoint for the parks export API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/parquesmx/parques/internal/api"
	"github.com/parquesmx/parques/internal/api/middleware"
	"github.com/parquesmx/parques/internal/auth"
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
	const serviceName = "parques-api"

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting parks export API")

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	// Initialize OpenTelemetry
	ctx := context.Background()
	telemetryCfg := telemetry.ConfigFromEnv(serviceName, Version)

	tp, err := telemetry.Init(ctx, telemetryCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if telemetryCfg.Enabled {
		log.Info().
			Str("otlp_endpoint", telemetryCfg.OTLPEndpoint).
			Msg("OpenTelemetry initialized")
	}

	// Initialize metrics
	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	// Connect to database
	dbConfig := database.ConfigFromEnv()
	pool, err := database.Connect(ctx, dbConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	log.Info().
		Str("host", dbConfig.Host).
		Int("port", dbConfig.Port).
		Str("database", dbConfig.Database).
		Msg("database connected")

	// Initialize JWT service (get signing key from environment)
	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		jwtSigningKey = "local-dev-signing-key-change-in-production"
		log.Warn().Msg("using default JWT signing key - not secure for production")
	}

	jwtService := auth.NewJWTService(auth.JWTConfig{
		SigningKey: jwtSigningKey,
		Issuer:     os.Getenv("JWT_ISSUER"),
		Audience:   os.Getenv("JWT_AUDIENCE"),
	})

	// Build the export catalog. A broken entity config is a programming
	// error, so fail fast.
	registry, err := catalog.NewRegistry()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build export catalog")
	}
	log.Info().Strs("entities", registry.ListEntities()).Msg("export catalog loaded")

	// Resolve the branding profile exports are rendered with.
	brandingService := branding.NewService(branding.ServiceConfig{
		Repository: branding.NewPostgresRepository(pool),
		Logger:     log,
		CacheTTL:   5 * time.Minute,
	})
	brandingProfile := brandingService.Resolve(ctx, os.Getenv("BRANDING_PROFILE"))

	// Initialize the export engine
	engine := export.NewEngine(export.EngineConfig{
		Registry:   registry,
		Source:     source.NewPostgresSource(pool),
		Authorizer: auth.PermissionAuthorizer{},
		Branding:   brandingProfile,
		Logger:     log,
	})
	log.Info().Msg("export engine initialized")

	// Initialize the async export request service. Without a Pub/Sub
	// topic, requests stay pending until a worker picks them up.
	var publisher exportreq.Publisher = exportreq.NopPublisher{}
	if topic := os.Getenv("PUBSUB_EXPORT_TOPIC"); topic != "" {
		projectID := os.Getenv("PUBSUB_PROJECT_ID")
		pubPublisher, err := worker.NewPubSubPublisher(ctx, projectID, topic)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize pubsub publisher")
		}
		defer pubPublisher.Close()
		publisher = pubPublisher
		log.Info().Str("topic", topic).Msg("pubsub publisher initialized")
	} else {
		log.Warn().Msg("PUBSUB_EXPORT_TOPIC not set - export requests will not be dispatched")
	}

	requestService := exportreq.NewService(exportreq.ServiceConfig{
		Repository: exportreq.NewPostgresRepository(pool),
		Registry:   registry,
		Authorizer: auth.PermissionAuthorizer{},
		Publisher:  publisher,
		Logger:     log,
	})
	log.Info().Msg("export request service initialized")

	// Create router with configuration
	router := api.NewRouter(api.RouterConfig{
		Version:   Version,
		BuildTime: BuildTime,
		Logger:    log,
		Metrics:   metrics,
		Tokens:    jwtService,
		Engine:    engine,
		Requests:  requestService,
		Database:  pool,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}
