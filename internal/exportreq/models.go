// Package exportreq implements asynchronous export requests: queued jobs
// that run the export engine in a worker and store the finished artifact
// for later download.
package exportreq

import (
	"errors"
	"time"

	"github.com/parquesmx/parques/internal/export"
)

// Status is the lifecycle state of an export request.
type Status string

// Request statuses.
const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusReady      Status = "ready"
	StatusFailed     Status = "failed"
	StatusExpired    Status = "expired"
)

// ArtifactTTL is how long a finished artifact stays downloadable.
const ArtifactTTL = 24 * time.Hour

// Package errors.
var (
	ErrRequestNotFound  = errors.New("export request not found")
	ErrArtifactNotReady = errors.New("export artifact is not ready")
	ErrArtifactExpired  = errors.New("export artifact has expired")
)

// ExportRequest is one queued export job and, once finished, its stored
// artifact metadata.
type ExportRequest struct {
	ID      string
	ActorID string
	Entity  string
	Format  export.Format

	// Options is the full export invocation, replayed by the worker.
	Options export.ExportOptions

	Status       Status
	Filename     string
	MIMEType     string
	RecordCount  int
	ErrorMessage string

	CreatedAt time.Time
	UpdatedAt time.Time

	// ExpiresAt is set when the artifact is stored.
	ExpiresAt *time.Time
}

// Expired reports whether a ready artifact is past its TTL.
func (r *ExportRequest) Expired(now time.Time) bool {
	return r.Status == StatusReady && r.ExpiresAt != nil && now.After(*r.ExpiresAt)
}
