package branding

import (
	"context"
	"sync"
	"time"
)

// InMemoryRepository is an in-memory implementation of Repository for testing.
type InMemoryRepository struct {
	mu       sync.RWMutex
	profiles map[string]*Profile
}

// NewInMemoryRepository creates a new in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		profiles: make(map[string]*Profile),
	}
}

// GetProfile retrieves a single profile by name.
func (r *InMemoryRepository) GetProfile(ctx context.Context, name string) (*Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	profile, ok := r.profiles[name]
	if !ok {
		return nil, ErrProfileNotFound
	}
	return profile, nil
}

// ListProfiles retrieves all profiles.
func (r *InMemoryRepository) ListProfiles(ctx context.Context) (map[string]*Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[string]*Profile, len(r.profiles))
	for k, v := range r.profiles {
		result[k] = v
	}
	return result, nil
}

// SetProfile creates or updates a profile.
func (r *InMemoryRepository) SetProfile(ctx context.Context, profile *Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	profile.UpdatedAt = time.Now()
	r.profiles[profile.Name] = profile
	return nil
}

// DeleteProfile removes a profile by name.
func (r *InMemoryRepository) DeleteProfile(ctx context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.profiles, name)
	return nil
}

// Ensure InMemoryRepository implements Repository interface.
var _ Repository = (*InMemoryRepository)(nil)
