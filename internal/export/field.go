// Package export implements the multi-format data export engine: a registry
// of entity export configurations, a shared value-formatting policy, and
// CSV/XLSX/PDF/JSON renderers driven by a single orchestrating Engine.
package export

// FieldType governs how a field's raw value is coerced during projection
// and how each renderer encodes it.
type FieldType string

// Supported field types.
const (
	TypeText     FieldType = "text"
	TypeNumber   FieldType = "number"
	TypeDate     FieldType = "date"
	TypeBoolean  FieldType = "boolean"
	TypeCurrency FieldType = "currency"
	TypeArray    FieldType = "array"
	TypeEmail    FieldType = "email"
	TypeURL      FieldType = "url"
)

// Format identifies an output format.
type Format string

// Supported output formats.
const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
	FormatJSON Format = "json"
)

// Row is one record returned by the data source: field key to raw value.
type Row map[string]any

// TransformFunc derives a display value from the raw value and its row.
// It runs before type coercion.
type TransformFunc func(value any, row Row) any

// ConditionFunc decides whether a field is emitted for a given row.
// When it returns false the cell is left empty; the row itself is kept.
type ConditionFunc func(row Row) bool

// ExportField describes one column of an exportable entity.
type ExportField struct {
	// Key reads the source row and identifies the field in requests.
	// Unique within an entity's field list.
	Key string

	// Label is the human-readable column header.
	Label string

	// Type drives coercion and per-renderer encoding.
	Type FieldType

	// Required fields cannot be excluded by a field-selection request.
	Required bool

	// Transform, when set, runs before type coercion.
	Transform TransformFunc

	// Condition, when set and false for a row, blanks the cell.
	Condition ConditionFunc

	// Width is a layout hint for the spreadsheet and document renderers,
	// in characters. Zero means auto.
	Width float64
}

// ExportConfig describes one exportable entity.
type ExportConfig struct {
	// Entity is the stable identifier and registry key.
	Entity string

	DisplayName string
	Description string

	// Fields in output column order.
	Fields []ExportField

	// Permissions are capability tags checked by the Authorizer.
	Permissions []string

	DefaultFormat    Format
	SupportedFormats []Format

	// Filters names the filter keys the data source accepts for this
	// entity. Passed through opaquely by the engine.
	Filters []string

	// Sorting names the sortable field keys and the default sort.
	Sorting SortingConfig
}

// SortingConfig declares the sortable keys and default order for an entity.
type SortingConfig struct {
	Allowed []string
	Default SortSpec
}

// SortSpec is a sort request forwarded to the data source.
type SortSpec struct {
	Field      string `json:"field"`
	Descending bool   `json:"descending,omitempty"`
}

// Field returns the field with the given key, or nil.
func (c *ExportConfig) Field(key string) *ExportField {
	for i := range c.Fields {
		if c.Fields[i].Key == key {
			return &c.Fields[i]
		}
	}
	return nil
}

// Supports reports whether the entity allows the given format.
func (c *ExportConfig) Supports(format Format) bool {
	for _, f := range c.SupportedFormats {
		if f == format {
			return true
		}
	}
	return false
}
