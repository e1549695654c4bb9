// Package branding manages the visual identity profiles applied to
// generated export documents.
package branding

import (
	"context"
	"errors"
	"time"

	"github.com/parquesmx/parques/internal/export"
)

// DefaultProfileName is the profile applied when no other is requested.
const DefaultProfileName = "default"

// ErrProfileNotFound is returned when a branding profile is not found.
var ErrProfileNotFound = errors.New("branding profile not found")

// Profile is a named branding configuration.
type Profile struct {
	Name      string
	Config    export.BrandingConfig
	UpdatedAt time.Time
}

// Repository defines the interface for branding profile storage.
type Repository interface {
	// GetProfile retrieves a single profile by name.
	GetProfile(ctx context.Context, name string) (*Profile, error)

	// ListProfiles retrieves all profiles.
	ListProfiles(ctx context.Context) (map[string]*Profile, error)

	// SetProfile creates or updates a profile.
	SetProfile(ctx context.Context, profile *Profile) error

	// DeleteProfile removes a profile by name.
	DeleteProfile(ctx context.Context, name string) error
}
