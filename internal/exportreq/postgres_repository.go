package exportreq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/parquesmx/parques/internal/export"
)

// PostgresRepository is a PostgreSQL implementation of Repository. Artifacts
// are stored inline as bytea; they are bounded by the caller's limit and
// expire after ArtifactTTL.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL export request repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Create persists a new pending request.
func (r *PostgresRepository) Create(ctx context.Context, req *ExportRequest) error {
	options, err := json.Marshal(req.Options)
	if err != nil {
		return fmt.Errorf("encoding options: %w", err)
	}

	query := `
		INSERT INTO export_requests
			(id, actor_id, entity, format, options, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = r.pool.Exec(ctx, query,
		req.ID, req.ActorID, req.Entity, string(req.Format), options,
		string(req.Status), req.CreatedAt, req.UpdatedAt,
	)
	return err
}

// Get retrieves a request by ID.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*ExportRequest, error) {
	query := selectClause + ` WHERE id = $1`
	return r.scanRequest(r.pool.QueryRow(ctx, query, id))
}

// GetByActorAndID retrieves a request owned by the given actor.
func (r *PostgresRepository) GetByActorAndID(ctx context.Context, actorID, id string) (*ExportRequest, error) {
	query := selectClause + ` WHERE id = $1 AND actor_id = $2`
	return r.scanRequest(r.pool.QueryRow(ctx, query, id, actorID))
}

// List retrieves an actor's requests, newest first.
func (r *PostgresRepository) List(ctx context.Context, actorID string, opts ListOptions) ([]*ExportRequest, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}

	query := selectClause + ` WHERE actor_id = $1 ORDER BY created_at DESC LIMIT $2`
	rows, err := r.pool.Query(ctx, query, actorID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []*ExportRequest
	for rows.Next() {
		req, err := r.scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

// SetStatus transitions a request's status.
func (r *PostgresRepository) SetStatus(ctx context.Context, id string, status Status, errorMessage string) error {
	query := `
		UPDATE export_requests
		SET status = $2, error_message = $3, updated_at = $4
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query, id, string(status), errorMessage, time.Now())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRequestNotFound
	}
	return nil
}

// StoreArtifact marks a request ready and stores its payload.
func (r *PostgresRepository) StoreArtifact(ctx context.Context, id string, artifact Artifact) error {
	now := time.Now()
	expiresAt := now.Add(ArtifactTTL)

	query := `
		UPDATE export_requests
		SET status = $2, filename = $3, mime_type = $4, record_count = $5,
			artifact = $6, expires_at = $7, updated_at = $8
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query, id, string(StatusReady),
		artifact.Filename, artifact.MIMEType, artifact.RecordCount,
		artifact.Data, expiresAt, now,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRequestNotFound
	}
	return nil
}

// GetArtifact retrieves the stored payload of a ready request.
func (r *PostgresRepository) GetArtifact(ctx context.Context, id string) ([]byte, error) {
	query := `SELECT artifact FROM export_requests WHERE id = $1 AND status = $2`

	var data []byte
	err := r.pool.QueryRow(ctx, query, id, string(StatusReady)).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrArtifactNotReady
		}
		return nil, err
	}
	return data, nil
}

const selectClause = `
	SELECT id, actor_id, entity, format, options, status,
		COALESCE(filename, ''), COALESCE(mime_type, ''), COALESCE(record_count, 0),
		COALESCE(error_message, ''), created_at, updated_at, expires_at
	FROM export_requests
`

// scanRequest scans one request row.
func (r *PostgresRepository) scanRequest(row pgx.Row) (*ExportRequest, error) {
	var req ExportRequest
	var format, status string
	var options []byte

	err := row.Scan(
		&req.ID,
		&req.ActorID,
		&req.Entity,
		&format,
		&options,
		&status,
		&req.Filename,
		&req.MIMEType,
		&req.RecordCount,
		&req.ErrorMessage,
		&req.CreatedAt,
		&req.UpdatedAt,
		&req.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}

	req.Format = export.Format(format)
	req.Status = Status(status)
	if err := json.Unmarshal(options, &req.Options); err != nil {
		return nil, fmt.Errorf("decoding options: %w", err)
	}
	return &req, nil
}
