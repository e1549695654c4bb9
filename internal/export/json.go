package export

import (
	"encoding/json"
	"fmt"
	"time"
)

// JSONRenderer emits the projected rows as a structured document with a
// small metadata envelope. Values are locale-formatted display strings so
// the payload matches what CSV and PDF consumers see.
type JSONRenderer struct{}

// NewJSONRenderer creates the JSON renderer.
func NewJSONRenderer() *JSONRenderer { return &JSONRenderer{} }

// Format implements Renderer.
func (r *JSONRenderer) Format() Format { return FormatJSON }

// MIMEType implements Renderer.
func (r *JSONRenderer) MIMEType() string { return "application/json" }

// Extension implements Renderer.
func (r *JSONRenderer) Extension() string { return "json" }

type jsonDocument struct {
	Entity      string              `json:"entity"`
	Title       string              `json:"title"`
	GeneratedAt time.Time           `json:"generatedAt"`
	RecordCount int                 `json:"recordCount"`
	Records     []map[string]string `json:"records"`
}

// Render implements Renderer.
func (r *JSONRenderer) Render(req *RenderRequest) ([]byte, error) {
	loc := req.Branding.Locale

	doc := jsonDocument{
		Entity:      req.Config.Entity,
		Title:       reportTitle(req),
		GeneratedAt: req.GeneratedAt,
		RecordCount: len(req.Rows),
		Records:     make([]map[string]string, 0, len(req.Rows)),
	}
	for _, row := range req.Rows {
		record := make(map[string]string, len(req.Fields))
		for _, f := range req.Fields {
			record[f.Key] = FormatCell(f.Type, row[f.Key], loc, ArraySepDocument)
		}
		doc.Records = append(doc.Records, record)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling document: %w", err)
	}
	return data, nil
}
