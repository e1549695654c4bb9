package export

import (
	"strconv"
	"strings"
)

// utf8BOM makes accented characters display correctly in spreadsheet tools
// that assume BOM-less files are Latin-1.
const utf8BOM = "\xEF\xBB\xBF"

// CSVRenderer emits delimited text with an optional corporate header block
// and footer. All values, including synthetic header and footer cells, go
// through the same escaping rule.
type CSVRenderer struct{}

// NewCSVRenderer creates the CSV renderer.
func NewCSVRenderer() *CSVRenderer { return &CSVRenderer{} }

// Format implements Renderer.
func (r *CSVRenderer) Format() Format { return FormatCSV }

// MIMEType implements Renderer.
func (r *CSVRenderer) MIMEType() string { return "text/csv; charset=utf-8" }

// Extension implements Renderer.
func (r *CSVRenderer) Extension() string { return "csv" }

// Render implements Renderer.
func (r *CSVRenderer) Render(req *RenderRequest) ([]byte, error) {
	var b strings.Builder
	b.WriteString(utf8BOM)

	loc := req.Branding.Locale
	org := req.Branding.Organization

	if headerEnabled(req) {
		writeKeyValueLine(&b, "Organización", org.Name)
		writeKeyValueLine(&b, "Reporte", reportTitle(req))
		if req.Branding.Templates.Header.ShowTimestamp {
			writeKeyValueLine(&b, "Generado", req.GeneratedAt.Format(loc.DateLayout+" 15:04"))
		}
		if org.Department != "" {
			writeKeyValueLine(&b, "Departamento", org.Department)
		}
		b.WriteString("\n")
	}

	cells := make([]string, len(req.Fields))
	for i, f := range req.Fields {
		cells[i] = escapeCSV(f.Label)
	}
	b.WriteString(strings.Join(cells, ","))
	b.WriteString("\n")

	for _, row := range req.Rows {
		for i, f := range req.Fields {
			cells[i] = escapeCSV(FormatCell(f.Type, row[f.Key], loc, ArraySepDocument))
		}
		b.WriteString(strings.Join(cells, ","))
		b.WriteString("\n")
	}

	if footerEnabled(req) {
		b.WriteString("\n")
		writeKeyValueLine(&b, "Total de Registros", strconv.Itoa(len(req.Rows)))
		if req.Branding.Templates.Footer.ShowWebsite && org.Website != "" {
			writeKeyValueLine(&b, "Sitio Web", org.Website)
		}
		if req.Branding.Templates.Footer.ShowDisclaimer && org.Disclaimer != "" {
			writeKeyValueLine(&b, "Aviso", org.Disclaimer)
		}
	}

	return []byte(b.String()), nil
}

func writeKeyValueLine(b *strings.Builder, key, value string) {
	b.WriteString(escapeCSV(key))
	b.WriteString(",")
	b.WriteString(escapeCSV(value))
	b.WriteString("\n")
}

// escapeCSV wraps a value in double quotes, doubling internal quotes,
// whenever it contains a comma, a quote, or a newline. Other values are
// emitted bare.
func escapeCSV(value string) string {
	if !strings.ContainsAny(value, ",\"\n\r") {
		return value
	}
	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}
