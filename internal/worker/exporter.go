// Package worker processes queued export requests in the background: it
// runs the export engine for each job and stores the finished artifact.
package worker

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/parquesmx/parques/internal/export"
	"github.com/parquesmx/parques/internal/exportreq"
)

// ExportRecorder records export outcomes for telemetry. Satisfied by
// middleware.Metrics.
type ExportRecorder interface {
	RecordExport(ctx context.Context, entity, format, status string, duration time.Duration, bytes int)
}

// ExportJobConfig holds configuration for the export job runner.
type ExportJobConfig struct {
	Engine     *export.Engine
	Repository exportreq.Repository
	Metrics    ExportRecorder // nil disables recording
	Logger     zerolog.Logger

	// StoreTimeout bounds each artifact store attempt. Default 30s.
	StoreTimeout time.Duration
}

// ExportJob runs one queued export request end to end. Authorization
// already happened when the request was created, so the job's engine runs
// with an allow-all authorizer.
type ExportJob struct {
	engine       *export.Engine
	repo         exportreq.Repository
	metrics      ExportRecorder
	logger       zerolog.Logger
	storeTimeout time.Duration
}

// NewExportJob creates an export job runner.
func NewExportJob(cfg ExportJobConfig) *ExportJob {
	storeTimeout := cfg.StoreTimeout
	if storeTimeout == 0 {
		storeTimeout = 30 * time.Second
	}
	return &ExportJob{
		engine:       cfg.Engine,
		repo:         cfg.Repository,
		metrics:      cfg.Metrics,
		logger:       cfg.Logger,
		storeTimeout: storeTimeout,
	}
}

func (j *ExportJob) recordExport(ctx context.Context, req *exportreq.ExportRequest, status string, duration time.Duration, bytes int) {
	if j.metrics == nil {
		return
	}
	j.metrics.RecordExport(ctx, req.Entity, string(req.Format), status, duration, bytes)
}

// Process executes the request with the given ID. The export itself is not
// retried; storing the artifact is, since that is plain I/O against our own
// database.
func (j *ExportJob) Process(ctx context.Context, requestID string) error {
	req, err := j.repo.Get(ctx, requestID)
	if err != nil {
		return err
	}

	logger := j.logger.With().
		Str("request_id", req.ID).
		Str("entity", req.Entity).
		Str("format", string(req.Format)).
		Logger()

	switch req.Status {
	case exportreq.StatusReady, exportreq.StatusProcessing, exportreq.StatusFailed:
		// Redelivered message for a job already picked up or settled.
		logger.Debug().Str("status", string(req.Status)).Msg("skipping export job")
		return nil
	}

	if err := j.repo.SetStatus(ctx, req.ID, exportreq.StatusProcessing, ""); err != nil {
		return err
	}

	start := time.Now()
	result, err := j.engine.Export(ctx, req.Options, req.ActorID)
	if err != nil {
		logger.Error().Err(err).Msg("export job failed")
		j.recordExport(ctx, req, string(export.CodeOf(err)), time.Since(start), 0)
		if statusErr := j.repo.SetStatus(ctx, req.ID, exportreq.StatusFailed, err.Error()); statusErr != nil {
			logger.Error().Err(statusErr).Msg("failed to record export failure")
			return statusErr
		}
		// The stored options are immutable, so redelivering the message
		// cannot change the outcome. The failure is settled.
		return nil
	}

	if err := j.storeArtifact(ctx, req.ID, result); err != nil {
		logger.Error().Err(err).Msg("failed to store export artifact")
		if statusErr := j.repo.SetStatus(ctx, req.ID, exportreq.StatusFailed, "failed to store artifact"); statusErr != nil {
			logger.Error().Err(statusErr).Msg("failed to record export failure")
			return statusErr
		}
		return nil
	}

	j.recordExport(ctx, req, "success", time.Since(start), result.Size)

	logger.Info().
		Int("records", result.RecordCount).
		Int("bytes", result.Size).
		Msg("export job completed")
	return nil
}

// storeArtifact persists the finished payload, retrying transient database
// failures with exponential backoff.
func (j *ExportJob) storeArtifact(ctx context.Context, requestID string, result *export.ExportResult) error {
	storeCtx, cancel := context.WithTimeout(ctx, j.storeTimeout)
	defer cancel()

	operation := func() error {
		return j.repo.StoreArtifact(storeCtx, requestID, exportreq.Artifact{
			Filename:    result.Filename,
			MIMEType:    result.MIMEType,
			RecordCount: result.RecordCount,
			Data:        result.Data,
		})
	}

	policy := backoff.WithContext(backoff.NewExponentialBackOff(), storeCtx)
	return backoff.Retry(operation, policy)
}
