package export

import "time"

// RenderRequest is the input every renderer receives: projected rows, the
// selected fields in config order, and the read-only config and branding.
type RenderRequest struct {
	Rows        []Row
	Fields      []ExportField
	Config      *ExportConfig
	Branding    *BrandingConfig
	Options     ExportOptions
	GeneratedAt time.Time
}

// Renderer turns projected rows into a file payload. Implementations hold
// no state across calls; each Render is a pure function of its request,
// which lets the engine call any renderer interchangeably.
type Renderer interface {
	Format() Format
	MIMEType() string
	Extension() string
	Render(req *RenderRequest) ([]byte, error)
}

// headerEnabled reports whether a renderer should emit its corporate
// header block for this request.
func headerEnabled(req *RenderRequest) bool {
	if req.Options.Template == TemplateMinimal || req.Options.DisableHeader {
		return false
	}
	return req.Branding.Templates.Header.Enabled
}

// footerEnabled reports whether a renderer should emit its footer block.
func footerEnabled(req *RenderRequest) bool {
	if req.Options.Template == TemplateMinimal || req.Options.DisableFooter {
		return false
	}
	return req.Branding.Templates.Footer.Enabled
}

// reportTitle is the title shown in header blocks.
func reportTitle(req *RenderRequest) string {
	if req.Config.DisplayName != "" {
		return "Reporte de " + req.Config.DisplayName
	}
	return "Reporte de " + req.Config.Entity
}
