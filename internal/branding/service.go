package branding

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/parquesmx/parques/internal/export"
)

// ServiceConfig holds configuration for the branding service.
type ServiceConfig struct {
	Repository Repository
	Logger     zerolog.Logger
	CacheTTL   time.Duration // How long to cache profiles in memory
}

// Service resolves branding profiles with caching and a built-in fallback.
type Service struct {
	repo     Repository
	logger   zerolog.Logger
	cacheTTL time.Duration

	mu          sync.RWMutex
	cache       map[string]*Profile
	cacheExpiry time.Time
}

// NewService creates a new branding service.
func NewService(cfg ServiceConfig) *Service {
	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 5 * time.Minute
	}

	return &Service{
		repo:     cfg.Repository,
		logger:   cfg.Logger,
		cacheTTL: cacheTTL,
		cache:    make(map[string]*Profile),
	}
}

// Resolve returns the branding configuration for the named profile. A
// missing or unreadable profile falls back to the built-in default, so
// exports never fail for lack of branding.
func (s *Service) Resolve(ctx context.Context, name string) export.BrandingConfig {
	if name == "" {
		name = DefaultProfileName
	}

	if profile := s.getCached(name); profile != nil {
		return profile.Config
	}

	profile, err := s.repo.GetProfile(ctx, name)
	if err == nil {
		s.setCached(name, profile)
		return profile.Config
	}

	if !errors.Is(err, ErrProfileNotFound) {
		s.logger.Warn().Err(err).Str("profile", name).Msg("failed to load branding profile")
	}

	return export.DefaultBranding()
}

// SetProfile updates a profile and refreshes the cache.
func (s *Service) SetProfile(ctx context.Context, profile *Profile) error {
	profile.UpdatedAt = time.Now()
	if err := s.repo.SetProfile(ctx, profile); err != nil {
		return err
	}

	s.setCached(profile.Name, profile)
	return nil
}

// InvalidateCache clears cached profiles, forcing a refresh on next access.
func (s *Service) InvalidateCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = make(map[string]*Profile)
	s.cacheExpiry = time.Time{}
}

func (s *Service) getCached(name string) *Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if time.Now().After(s.cacheExpiry) {
		return nil
	}
	return s.cache[name]
}

func (s *Service) setCached(name string, profile *Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache[name] = profile
	if s.cacheExpiry.Before(time.Now()) {
		s.cacheExpiry = time.Now().Add(s.cacheTTL)
	}
}
