package exportreq

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/parquesmx/parques/internal/export"
)

// Publisher enqueues export jobs for the worker.
type Publisher interface {
	// PublishExportJob enqueues the request for background processing.
	PublishExportJob(ctx context.Context, requestID string) error
}

// NopPublisher discards jobs. Used in deployments without a worker, where
// requests stay pending until processed another way, and in tests.
type NopPublisher struct{}

// PublishExportJob implements Publisher.
func (NopPublisher) PublishExportJob(context.Context, string) error { return nil }

// ServiceConfig holds configuration for the export request service.
type ServiceConfig struct {
	Repository Repository
	Registry   *export.Registry
	Authorizer export.Authorizer // nil means AllowAll
	Publisher  Publisher         // nil means NopPublisher
	Logger     zerolog.Logger
}

// Service manages the lifecycle of asynchronous export requests.
type Service struct {
	repo       Repository
	registry   *export.Registry
	authorizer export.Authorizer
	publisher  Publisher
	logger     zerolog.Logger
}

// NewService creates an export request service.
func NewService(cfg ServiceConfig) *Service {
	authorizer := cfg.Authorizer
	if authorizer == nil {
		authorizer = export.AllowAll{}
	}
	publisher := cfg.Publisher
	if publisher == nil {
		publisher = NopPublisher{}
	}
	return &Service{
		repo:       cfg.Repository,
		registry:   cfg.Registry,
		authorizer: authorizer,
		publisher:  publisher,
		logger:     cfg.Logger,
	}
}

// Create validates the options against the registry, checks the actor's
// entity permissions, persists a pending request and enqueues it for the
// worker. Failures use the engine's error taxonomy so the HTTP layer maps
// them uniformly. The permission check here is the only one on the async
// path: the worker runs allow-all on the stored request.
func (s *Service) Create(ctx context.Context, actorID string, opts export.ExportOptions) (*ExportRequest, error) {
	cfg := s.registry.Get(opts.Entity)
	if cfg == nil {
		return nil, export.NewError(export.CodeEntityNotFound, fmt.Sprintf("unknown entity %q", opts.Entity))
	}
	if !cfg.Supports(opts.Format) {
		return nil, export.NewError(export.CodeFormatNotSupported,
			fmt.Sprintf("entity %q does not support format %q", opts.Entity, opts.Format))
	}
	if err := s.authorizer.Authorize(ctx, cfg.Entity, cfg.Permissions, actorID); err != nil {
		return nil, export.WrapError(export.CodePermissionDenied,
			fmt.Sprintf("actor %q may not export %q", actorID, cfg.Entity), err)
	}

	now := time.Now()
	req := &ExportRequest{
		ID:        "exp_" + uuid.New().String()[:22],
		ActorID:   actorID,
		Entity:    opts.Entity,
		Format:    opts.Format,
		Options:   opts,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, req); err != nil {
		return nil, fmt.Errorf("persisting export request: %w", err)
	}

	if err := s.publisher.PublishExportJob(ctx, req.ID); err != nil {
		// The request stays pending; a later sweep or manual retry can
		// still pick it up. Surface the problem in logs only.
		s.logger.Error().Err(err).Str("request_id", req.ID).Msg("failed to enqueue export job")
	}

	s.logger.Info().
		Str("request_id", req.ID).
		Str("entity", req.Entity).
		Str("format", string(req.Format)).
		Str("actor", actorID).
		Msg("export request created")

	return req, nil
}

// Get retrieves an actor's request, surfacing TTL expiry as a status.
func (s *Service) Get(ctx context.Context, actorID, id string) (*ExportRequest, error) {
	req, err := s.repo.GetByActorAndID(ctx, actorID, id)
	if err != nil {
		return nil, err
	}
	if req.Expired(time.Now()) {
		req.Status = StatusExpired
	}
	return req, nil
}

// List retrieves an actor's requests, newest first.
func (s *Service) List(ctx context.Context, actorID string, limit int) ([]*ExportRequest, error) {
	requests, err := s.repo.List(ctx, actorID, ListOptions{Limit: limit})
	if err != nil {
		return nil, err
	}
	now := time.Now()
	for _, req := range requests {
		if req.Expired(now) {
			req.Status = StatusExpired
		}
	}
	return requests, nil
}

// Download returns a ready artifact and its metadata.
func (s *Service) Download(ctx context.Context, actorID, id string) (*ExportRequest, []byte, error) {
	req, err := s.repo.GetByActorAndID(ctx, actorID, id)
	if err != nil {
		return nil, nil, err
	}
	if req.Expired(time.Now()) {
		return nil, nil, ErrArtifactExpired
	}
	if req.Status != StatusReady {
		return nil, nil, ErrArtifactNotReady
	}
	data, err := s.repo.GetArtifact(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return req, data, nil
}
