package models

import "github.com/parquesmx/parques/internal/export"

// EntitySummary describes one exportable entity for UI pickers.
type EntitySummary struct {
	Entity           string          `json:"entity"`
	DisplayName      string          `json:"displayName"`
	Description      string          `json:"description,omitempty"`
	DefaultFormat    export.Format   `json:"defaultFormat"`
	SupportedFormats []export.Format `json:"supportedFormats"`
	Fields           []EntityField   `json:"fields"`
	Filters          []string        `json:"filters,omitempty"`
}

// EntityField describes one exportable field.
type EntityField struct {
	Key      string           `json:"key"`
	Label    string           `json:"label"`
	Type     export.FieldType `json:"type"`
	Required bool             `json:"required,omitempty"`
}

// EntityList is the payload of the entity listing endpoint.
type EntityList struct {
	Items []EntitySummary `json:"items"`
}

// ExportRequestBody is the request body for synchronous and asynchronous
// exports.
type ExportRequestBody struct {
	Format        export.Format    `json:"format"`
	Fields        []string         `json:"fields,omitempty"`
	Filters       map[string]any   `json:"filters,omitempty"`
	Filename      string           `json:"filename,omitempty"`
	Template      string           `json:"template,omitempty"`
	DisableHeader bool             `json:"disableHeader,omitempty"`
	DisableFooter bool             `json:"disableFooter,omitempty"`
	Sort          *export.SortSpec `json:"sort,omitempty"`
	Limit         int              `json:"limit,omitempty"`
	Offset        int              `json:"offset,omitempty"`
}

// Options converts the request body into engine options. The entity is set
// by the caller from the URL or the async body.
func (b ExportRequestBody) Options() export.ExportOptions {
	return export.ExportOptions{
		Format:        b.Format,
		Fields:        b.Fields,
		Filters:       b.Filters,
		Filename:      b.Filename,
		Template:      b.Template,
		DisableHeader: b.DisableHeader,
		DisableFooter: b.DisableFooter,
		Sort:          b.Sort,
		Limit:         b.Limit,
		Offset:        b.Offset,
	}
}

// AsyncExportRequestBody is the request body for creating an export request.
type AsyncExportRequestBody struct {
	Entity string `json:"entity"`
	ExportRequestBody
}

// ExportRequest is the API representation of an asynchronous export request.
type ExportRequest struct {
	ID           string        `json:"id"`
	Entity       string        `json:"entity"`
	Format       export.Format `json:"format"`
	Status       string        `json:"status"`
	Filename     string        `json:"filename,omitempty"`
	RecordCount  int           `json:"recordCount,omitempty"`
	ErrorMessage string        `json:"errorMessage,omitempty"`
	CreatedAt    Timestamp     `json:"createdAt"`
	UpdatedAt    Timestamp     `json:"updatedAt"`
	ExpiresAt    *Timestamp    `json:"expiresAt,omitempty"`
}

// PagedExportRequests is a page of export requests.
type PagedExportRequests struct {
	Items []ExportRequest   `json:"items"`
	Meta  PagedResponseMeta `json:"meta"`
}
