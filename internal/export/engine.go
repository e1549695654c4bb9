package export

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// DataSource is the injected data-access boundary. The engine does not know
// or care what storage sits behind it.
type DataSource interface {
	// FetchRows returns the raw rows for an entity. Filters and sort are
	// forwarded opaquely from the export options.
	FetchRows(ctx context.Context, entity string, query Query) ([]Row, error)
}

// Query is what the engine forwards to the data source.
type Query struct {
	Filters map[string]any
	Sort    *SortSpec
}

// Authorizer is the authorization boundary hook. Real policy lives outside
// the engine.
type Authorizer interface {
	// Authorize returns an error when the actor may not export the entity.
	Authorize(ctx context.Context, entity string, required []string, actorID string) error
}

// AllowAll is the default Authorizer: every actor may export everything.
type AllowAll struct{}

// Authorize always succeeds.
func (AllowAll) Authorize(context.Context, string, []string, string) error { return nil }

// EngineConfig configures an Engine.
type EngineConfig struct {
	Registry   *Registry
	Source     DataSource
	Authorizer Authorizer     // nil means AllowAll
	Branding   BrandingConfig // zero value means DefaultBranding
	Logger     zerolog.Logger

	// Clock supplies timestamps for filenames and metadata. Defaults to
	// time.Now; injectable for deterministic tests.
	Clock func() time.Time

	// Renderers overrides the default CSV/XLSX/PDF/JSON set.
	Renderers []Renderer
}

// Engine orchestrates one export: validate, authorize, fetch, project,
// render, package. It holds no per-request state; concurrent exports share
// the registry and branding by reference only.
type Engine struct {
	registry   *Registry
	source     DataSource
	authorizer Authorizer
	branding   BrandingConfig
	logger     zerolog.Logger
	clock      func() time.Time
	renderers  map[Format]Renderer
}

// NewEngine creates an engine with the standard renderer set unless
// overridden.
func NewEngine(cfg EngineConfig) *Engine {
	e := &Engine{
		registry:   cfg.Registry,
		source:     cfg.Source,
		authorizer: cfg.Authorizer,
		branding:   cfg.Branding,
		logger:     cfg.Logger,
		clock:      cfg.Clock,
	}
	if e.authorizer == nil {
		e.authorizer = AllowAll{}
	}
	if e.branding.Locale.DateLayout == "" {
		e.branding = DefaultBranding()
	}
	if e.clock == nil {
		e.clock = time.Now
	}

	renderers := cfg.Renderers
	if renderers == nil {
		renderers = []Renderer{
			NewCSVRenderer(),
			NewXLSXRenderer(),
			NewPDFRenderer(),
			NewJSONRenderer(),
		}
	}
	e.renderers = make(map[Format]Renderer, len(renderers))
	for _, r := range renderers {
		e.renderers[r.Format()] = r
	}
	return e
}

// Registry exposes the engine's entity registry for listing endpoints.
func (e *Engine) Registry() *Registry { return e.registry }

// Export runs the full pipeline and returns the packaged result.
func (e *Engine) Export(ctx context.Context, opts ExportOptions, actorID string) (*ExportResult, error) {
	cfg, fields, err := e.validate(opts)
	if err != nil {
		return nil, err
	}

	if err := e.authorizer.Authorize(ctx, cfg.Entity, cfg.Permissions, actorID); err != nil {
		return nil, WrapError(CodePermissionDenied, fmt.Sprintf("actor %q may not export %q", actorID, cfg.Entity), err)
	}

	rows, err := e.fetch(ctx, cfg, opts)
	if err != nil {
		return nil, err
	}

	projected := projectRows(rows, fields)

	renderer := e.renderers[opts.Format]
	if renderer == nil {
		// Legal format with no renderer wired: a deployment mistake.
		return nil, NewError(CodeFormatNotSupported, fmt.Sprintf("no renderer registered for format %q", opts.Format))
	}

	generatedAt := e.clock()
	req := &RenderRequest{
		Rows:        projected,
		Fields:      fields,
		Config:      cfg,
		Branding:    e.resolveBranding(opts),
		Options:     opts,
		GeneratedAt: generatedAt,
	}

	data, err := renderer.Render(req)
	if err != nil {
		return nil, WrapError(CodeDataError, fmt.Sprintf("rendering %s for %q", opts.Format, cfg.Entity), err)
	}

	result := &ExportResult{
		Filename:    e.filename(opts, renderer, generatedAt),
		Data:        data,
		MIMEType:    renderer.MIMEType(),
		Size:        len(data),
		RecordCount: len(projected),
		Metadata: ResultMetadata{
			GeneratedAt: generatedAt,
			GeneratedBy: actorID,
			Entity:      cfg.Entity,
			Format:      opts.Format,
		},
	}

	e.logger.Info().
		Str("entity", cfg.Entity).
		Str("format", string(opts.Format)).
		Str("actor", actorID).
		Int("records", result.RecordCount).
		Int("bytes", result.Size).
		Msg("export generated")

	return result, nil
}

// Preview runs the same pipeline with a capped limit and returns the
// projected rows as locale-formatted structured data. It never parses
// rendered binary output.
func (e *Engine) Preview(ctx context.Context, opts ExportOptions, actorID string) (*Preview, error) {
	const previewCap = 20

	cfg, fields, err := e.validate(opts)
	if err != nil {
		return nil, err
	}

	if err := e.authorizer.Authorize(ctx, cfg.Entity, cfg.Permissions, actorID); err != nil {
		return nil, WrapError(CodePermissionDenied, fmt.Sprintf("actor %q may not export %q", actorID, cfg.Entity), err)
	}

	if opts.Limit <= 0 || opts.Limit > previewCap {
		opts.Limit = previewCap
	}

	rows, err := e.fetch(ctx, cfg, opts)
	if err != nil {
		return nil, err
	}

	projected := projectRows(rows, fields)
	loc := e.resolveBranding(opts).Locale

	preview := &Preview{
		Entity:      cfg.Entity,
		Columns:     make([]PreviewField, 0, len(fields)),
		Rows:        make([]map[string]string, 0, len(projected)),
		RecordCount: len(projected),
	}
	for _, f := range fields {
		preview.Columns = append(preview.Columns, PreviewField{Key: f.Key, Label: f.Label, Type: f.Type})
	}
	for _, row := range projected {
		formatted := make(map[string]string, len(fields))
		for _, f := range fields {
			formatted[f.Key] = FormatCell(f.Type, row[f.Key], loc, ArraySepDocument)
		}
		preview.Rows = append(preview.Rows, formatted)
	}
	return preview, nil
}

// validate resolves the config and the selected fields for a request.
func (e *Engine) validate(opts ExportOptions) (*ExportConfig, []ExportField, error) {
	cfg := e.registry.Get(opts.Entity)
	if cfg == nil {
		return nil, nil, NewError(CodeEntityNotFound, fmt.Sprintf("unknown entity %q", opts.Entity))
	}
	if !cfg.Supports(opts.Format) {
		return nil, nil, NewError(CodeFormatNotSupported,
			fmt.Sprintf("entity %q does not support format %q", opts.Entity, opts.Format))
	}
	return cfg, selectFields(cfg, opts.Fields), nil
}

// fetch calls the data source and applies the offset/limit window. This is
// simple post-fetch slicing, not pagination at the source.
func (e *Engine) fetch(ctx context.Context, cfg *ExportConfig, opts ExportOptions) ([]Row, error) {
	sort := opts.Sort
	if sort == nil && cfg.Sorting.Default.Field != "" {
		def := cfg.Sorting.Default
		sort = &def
	}

	rows, err := e.source.FetchRows(ctx, cfg.Entity, Query{Filters: opts.Filters, Sort: sort})
	if err != nil {
		return nil, WrapError(CodeDataError, fmt.Sprintf("fetching rows for %q", cfg.Entity), err)
	}

	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(rows) {
		return nil, nil
	}
	rows = rows[offset:]
	if opts.Limit > 0 && opts.Limit < len(rows) {
		rows = rows[:opts.Limit]
	}
	return rows, nil
}

// resolveBranding picks the per-request branding override or the engine's
// profile. The returned value is read-only to callers.
func (e *Engine) resolveBranding(opts ExportOptions) *BrandingConfig {
	if opts.Branding != nil {
		return opts.Branding
	}
	return &e.branding
}

// filename computes the output filename: explicit override, else
// `${entity}_${YYYY-MM-DD}.${ext}`.
func (e *Engine) filename(opts ExportOptions, renderer Renderer, generatedAt time.Time) string {
	if opts.Filename != "" {
		return opts.Filename
	}
	return fmt.Sprintf("%s_%s.%s", opts.Entity, generatedAt.Format("2006-01-02"), renderer.Extension())
}

// selectFields resolves the output columns: the explicit selection in
// config order, with required fields always included; or every field when
// no selection was made.
func selectFields(cfg *ExportConfig, keys []string) []ExportField {
	if len(keys) == 0 {
		return cfg.Fields
	}
	requested := make(map[string]bool, len(keys))
	for _, k := range keys {
		requested[k] = true
	}
	var selected []ExportField
	for _, f := range cfg.Fields {
		if requested[f.Key] || f.Required {
			selected = append(selected, f)
		}
	}
	return selected
}

// projectRows applies per-field transform, condition and type coercion.
// Missing keys and suppressed cells project to nil and render empty.
func projectRows(rows []Row, fields []ExportField) []Row {
	projected := make([]Row, 0, len(rows))
	for _, row := range rows {
		out := make(Row, len(fields))
		for _, f := range fields {
			if f.Condition != nil && !f.Condition(row) {
				out[f.Key] = nil
				continue
			}
			value := row[f.Key]
			if f.Transform != nil {
				value = f.Transform(value, row)
			}
			out[f.Key] = CoerceValue(f.Type, value)
		}
		projected = append(projected, out)
	}
	return projected
}
