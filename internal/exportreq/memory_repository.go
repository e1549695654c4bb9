package exportreq

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepository is an in-memory implementation of Repository for tests
// and local development.
type MemoryRepository struct {
	mu        sync.RWMutex
	requests  map[string]*ExportRequest
	artifacts map[string][]byte
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		requests:  make(map[string]*ExportRequest),
		artifacts: make(map[string][]byte),
	}
}

// Create persists a new pending request.
func (r *MemoryRepository) Create(_ context.Context, req *ExportRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *req
	r.requests[req.ID] = &copied
	return nil
}

// Get retrieves a request by ID.
func (r *MemoryRepository) Get(_ context.Context, id string) (*ExportRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	req, ok := r.requests[id]
	if !ok {
		return nil, ErrRequestNotFound
	}
	copied := *req
	return &copied, nil
}

// GetByActorAndID retrieves a request owned by the given actor.
func (r *MemoryRepository) GetByActorAndID(ctx context.Context, actorID, id string) (*ExportRequest, error) {
	req, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.ActorID != actorID {
		return nil, ErrRequestNotFound
	}
	return req, nil
}

// List retrieves an actor's requests, newest first.
func (r *MemoryRepository) List(_ context.Context, actorID string, opts ListOptions) ([]*ExportRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var requests []*ExportRequest
	for _, req := range r.requests {
		if req.ActorID == actorID {
			copied := *req
			requests = append(requests, &copied)
		}
	}
	sort.Slice(requests, func(i, j int) bool {
		return requests[i].CreatedAt.After(requests[j].CreatedAt)
	})
	if opts.Limit > 0 && len(requests) > opts.Limit {
		requests = requests[:opts.Limit]
	}
	return requests, nil
}

// SetStatus transitions a request's status.
func (r *MemoryRepository) SetStatus(_ context.Context, id string, status Status, errorMessage string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok {
		return ErrRequestNotFound
	}
	req.Status = status
	req.ErrorMessage = errorMessage
	req.UpdatedAt = time.Now()
	return nil
}

// StoreArtifact marks a request ready and stores its payload.
func (r *MemoryRepository) StoreArtifact(_ context.Context, id string, artifact Artifact) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok {
		return ErrRequestNotFound
	}
	now := time.Now()
	expiresAt := now.Add(ArtifactTTL)
	req.Status = StatusReady
	req.Filename = artifact.Filename
	req.MIMEType = artifact.MIMEType
	req.RecordCount = artifact.RecordCount
	req.ExpiresAt = &expiresAt
	req.UpdatedAt = now
	r.artifacts[id] = artifact.Data
	return nil
}

// GetArtifact retrieves the stored payload of a ready request.
func (r *MemoryRepository) GetArtifact(_ context.Context, id string) ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	req, ok := r.requests[id]
	if !ok {
		return nil, ErrRequestNotFound
	}
	if req.Status != StatusReady {
		return nil, ErrArtifactNotReady
	}
	return r.artifacts[id], nil
}
