package export

import "time"

// ExportOptions describes one export invocation.
type ExportOptions struct {
	Entity string `json:"entity"`
	Format Format `json:"format"`

	// Fields selects a subset of the entity's fields by key. Empty means
	// every field in config order. Required fields are always included.
	Fields []string `json:"fields,omitempty"`

	// Filters are passed through opaquely to the data source.
	Filters map[string]any `json:"filters,omitempty"`

	// Filename overrides the default `${entity}_${YYYY-MM-DD}.${ext}`.
	Filename string `json:"filename,omitempty"`

	// Template is one of corporate, minimal, detailed. Empty means corporate.
	Template string `json:"template,omitempty"`

	// DisableHeader and DisableFooter override the branding toggles for
	// this request only.
	DisableHeader bool `json:"disableHeader,omitempty"`
	DisableFooter bool `json:"disableFooter,omitempty"`

	// Branding replaces the engine's profile for this request.
	Branding *BrandingConfig `json:"-"`

	Sort *SortSpec `json:"sort,omitempty"`

	// Limit and Offset window the fetched rows after the data source
	// returns. Zero limit means no cap; offset defaults to 0.
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

// ExportResult is the engine's output, produced per request and never
// persisted by the engine itself.
type ExportResult struct {
	Filename    string
	Data        []byte
	MIMEType    string
	Size        int
	RecordCount int
	Metadata    ResultMetadata
}

// ResultMetadata records how a result was generated.
type ResultMetadata struct {
	GeneratedAt time.Time
	GeneratedBy string
	Entity      string
	Format      Format
}

// Preview is the structured equivalent of an export: the same pipeline run
// with a small limit, returning formatted rows instead of a rendered file.
type Preview struct {
	Entity      string              `json:"entity"`
	Columns     []PreviewField      `json:"columns"`
	Rows        []map[string]string `json:"rows"`
	RecordCount int                 `json:"recordCount"`
}

// PreviewField describes one preview column.
type PreviewField struct {
	Key   string    `json:"key"`
	Label string    `json:"label"`
	Type  FieldType `json:"type"`
}
