package export

import (
	"fmt"
	"sort"
)

// Registry maps entity names to export configurations. It is built once at
// startup and read-only afterwards, so it is safe to share by reference
// across concurrent exports. New entities are added, never patched.
type Registry struct {
	configs map[string]*ExportConfig
}

// NewRegistry builds a registry from the given configs.
// Each config must have a unique entity name, at least one field, and a
// default format contained in its supported formats.
func NewRegistry(configs ...*ExportConfig) (*Registry, error) {
	r := &Registry{configs: make(map[string]*ExportConfig, len(configs))}
	for _, cfg := range configs {
		if err := validateConfig(cfg); err != nil {
			return nil, err
		}
		if _, exists := r.configs[cfg.Entity]; exists {
			return nil, fmt.Errorf("duplicate entity %q", cfg.Entity)
		}
		r.configs[cfg.Entity] = cfg
	}
	return r, nil
}

func validateConfig(cfg *ExportConfig) error {
	if cfg.Entity == "" {
		return fmt.Errorf("config missing entity name")
	}
	if len(cfg.Fields) == 0 {
		return fmt.Errorf("entity %q has no fields", cfg.Entity)
	}
	seen := make(map[string]bool, len(cfg.Fields))
	for _, f := range cfg.Fields {
		if f.Key == "" {
			return fmt.Errorf("entity %q has a field without a key", cfg.Entity)
		}
		if seen[f.Key] {
			return fmt.Errorf("entity %q has duplicate field %q", cfg.Entity, f.Key)
		}
		seen[f.Key] = true
	}
	if len(cfg.SupportedFormats) == 0 {
		return fmt.Errorf("entity %q supports no formats", cfg.Entity)
	}
	if !cfg.Supports(cfg.DefaultFormat) {
		return fmt.Errorf("entity %q default format %q not in supported formats", cfg.Entity, cfg.DefaultFormat)
	}
	return nil
}

// Get returns the config for an entity, or nil when unknown.
// An unknown entity is not an error at this layer.
func (r *Registry) Get(entity string) *ExportConfig {
	return r.configs[entity]
}

// ListEntities returns all registered entity names, sorted.
func (r *Registry) ListEntities() []string {
	names := make([]string, 0, len(r.configs))
	for name := range r.configs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SupportsFormat reports whether the entity exists and allows the format.
func (r *Registry) SupportsFormat(entity string, format Format) bool {
	cfg := r.configs[entity]
	return cfg != nil && cfg.Supports(format)
}

// RequiredFields returns the keys of an entity's required fields.
func (r *Registry) RequiredFields(entity string) []string {
	cfg := r.configs[entity]
	if cfg == nil {
		return nil
	}
	var keys []string
	for _, f := range cfg.Fields {
		if f.Required {
			keys = append(keys, f.Key)
		}
	}
	return keys
}
