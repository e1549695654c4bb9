// Package api provides the HTTP API for the parks export service.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/parquesmx/parques/internal/api/handler"
	"github.com/parquesmx/parques/internal/api/middleware"
	"github.com/parquesmx/parques/internal/auth"
	"github.com/parquesmx/parques/internal/export"
	"github.com/parquesmx/parques/internal/exportreq"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version   string
	BuildTime string
	Logger    zerolog.Logger
	Metrics   *middleware.Metrics
	Tokens    *auth.JWTService
	Engine    *export.Engine
	Requests  *exportreq.Service
	Database  handler.Pinger
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.Tracing)
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware())
	}
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.SecurityHeaders)

	var exportRecorder handler.ExportRecorder
	if cfg.Metrics != nil {
		exportRecorder = cfg.Metrics
	}

	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.Database)
	exportHandler := handler.NewExportHandler(cfg.Engine, exportRecorder)
	requestHandler := handler.NewExportRequestHandler(cfg.Requests)

	authMiddleware := middleware.Auth(cfg.Tokens)

	// Rate limits: file generation is the expensive path.
	exportRateLimit := middleware.RateLimitByActor(middleware.ExportRateLimit)     // 10 req/min
	standardRateLimit := middleware.RateLimitByActor(middleware.StandardRateLimit) // 100 req/min

	r.Route("/v1", func(r chi.Router) {
		// Ops endpoints (public, so limited per IP)
		r.Route("/ops", func(r chi.Router) {
			r.Use(middleware.RateLimitByIP(middleware.StandardRateLimit))

			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
		})

		// Export endpoints (authenticated)
		r.Route("/exports", func(r chi.Router) {
			r.Use(authMiddleware)

			r.With(standardRateLimit).Get("/entities", exportHandler.ListEntities)
			r.With(standardRateLimit).Get("/entities/{entity}", exportHandler.GetEntity)

			r.With(exportRateLimit).Post("/{entity}", exportHandler.Export)
			r.With(standardRateLimit).Post("/{entity}/preview", exportHandler.Preview)
		})

		// Asynchronous export requests (authenticated)
		r.Route("/export-requests", func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(standardRateLimit)

			r.Post("/", requestHandler.Create)
			r.Get("/", requestHandler.List)
			r.Get("/{id}", requestHandler.Get)
			r.Get("/{id}/download", requestHandler.Download)
		})
	})

	return r
}
