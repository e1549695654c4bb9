package exportreq

import "context"

// ListOptions contains options for listing export requests.
type ListOptions struct {
	Limit int
}

// Repository defines persistence for export requests and their artifacts.
type Repository interface {
	// Create persists a new pending request.
	Create(ctx context.Context, req *ExportRequest) error

	// Get retrieves a request by ID.
	// Returns ErrRequestNotFound when it does not exist.
	Get(ctx context.Context, id string) (*ExportRequest, error)

	// GetByActorAndID retrieves a request owned by the given actor.
	GetByActorAndID(ctx context.Context, actorID, id string) (*ExportRequest, error)

	// List retrieves an actor's requests, newest first.
	List(ctx context.Context, actorID string, opts ListOptions) ([]*ExportRequest, error)

	// SetStatus transitions a request's status, recording an error
	// message for failures.
	SetStatus(ctx context.Context, id string, status Status, errorMessage string) error

	// StoreArtifact marks a request ready and stores its payload.
	StoreArtifact(ctx context.Context, id string, artifact Artifact) error

	// GetArtifact retrieves the stored payload of a ready request.
	GetArtifact(ctx context.Context, id string) ([]byte, error)
}

// Artifact is a finished export payload and its metadata.
type Artifact struct {
	Filename    string
	MIMEType    string
	RecordCount int
	Data        []byte
}
