package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// PDFRenderer draws a paginated document. The PDF table has no native typed
// cells, so every value is pre-formatted exactly as in CSV.
type PDFRenderer struct{}

// NewPDFRenderer creates the PDF renderer.
func NewPDFRenderer() *PDFRenderer { return &PDFRenderer{} }

// Format implements Renderer.
func (r *PDFRenderer) Format() Format { return FormatPDF }

// MIMEType implements Renderer.
func (r *PDFRenderer) MIMEType() string { return "application/pdf" }

// Extension implements Renderer.
func (r *PDFRenderer) Extension() string { return "pdf" }

// Wide tables flip to landscape.
const landscapeFieldThreshold = 6

// Table row heights in millimeters.
const (
	pdfHeaderRowHeight = 8.0
	pdfBodyRowHeight   = 6.5
)

// Render implements Renderer.
func (r *PDFRenderer) Render(req *RenderRequest) ([]byte, error) {
	orientation := "P"
	if len(req.Fields) > landscapeFieldThreshold {
		orientation = "L"
	}

	pdf := gofpdf.New(orientation, "mm", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	// Core fonts are cp1252; translate so accented Spanish renders.
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	doc := &pdfDoc{
		pdf:    pdf,
		tr:     tr,
		req:    req,
		family: req.Branding.Fonts.Family,
	}
	doc.computeLayout()

	if headerEnabled(req) {
		doc.drawHeader()
	}
	doc.drawTable()
	if footerEnabled(req) {
		doc.drawFooter()
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("serializing document: %w", err)
	}
	return buf.Bytes(), nil
}

// pdfDoc carries the drawing state for a single Render call.
type pdfDoc struct {
	pdf    *gofpdf.Fpdf
	tr     func(string) string
	req    *RenderRequest
	family string

	marginLeft   float64
	marginTop    float64
	marginBottom float64
	usableWidth  float64
	pageHeight   float64
	colWidths    []float64
}

func (d *pdfDoc) computeLayout() {
	pageWidth, pageHeight := d.pdf.GetPageSize()
	left, top, right, bottom := d.pdf.GetMargins()

	d.marginLeft = left
	d.marginTop = top
	d.marginBottom = bottom
	d.pageHeight = pageHeight
	d.usableWidth = pageWidth - left - right

	// Width hints are weights; fields without a hint share equally.
	weights := make([]float64, len(d.req.Fields))
	total := 0.0
	for i, f := range d.req.Fields {
		w := f.Width
		if w == 0 {
			w = 15
		}
		weights[i] = w
		total += w
	}
	d.colWidths = make([]float64, len(weights))
	for i, w := range weights {
		d.colWidths[i] = d.usableWidth * w / total
	}
}

// drawHeader draws the corporate block with absolute positioning and a
// horizontal rule in the primary brand color.
func (d *pdfDoc) drawHeader() {
	branding := d.req.Branding
	fonts := branding.Fonts
	y := d.marginTop

	d.pdf.SetTextColor(hexToRGB(branding.Colors.Primary))
	d.pdf.SetFont(d.family, "B", fonts.Title)
	d.pdf.SetXY(d.marginLeft, y)
	d.pdf.CellFormat(d.usableWidth, 8, d.tr(branding.Organization.Name), "", 0, "L", false, 0, "")
	y += 9

	d.pdf.SetTextColor(hexToRGB(branding.Colors.Text))
	if branding.Organization.Department != "" {
		d.pdf.SetFont(d.family, "", fonts.Header)
		d.pdf.SetXY(d.marginLeft, y)
		d.pdf.CellFormat(d.usableWidth, 6, d.tr(branding.Organization.Department), "", 0, "L", false, 0, "")
		y += 7
	}

	d.pdf.SetFont(d.family, "B", fonts.Header+1)
	d.pdf.SetXY(d.marginLeft, y)
	d.pdf.CellFormat(d.usableWidth, 6, d.tr(reportTitle(d.req)), "", 0, "L", false, 0, "")
	y += 7

	if branding.Templates.Header.ShowTimestamp {
		d.pdf.SetFont(d.family, "", fonts.Small+1)
		d.pdf.SetXY(d.marginLeft, y)
		stamp := "Generado: " + d.req.GeneratedAt.Format(branding.Locale.DateLayout+" 15:04")
		d.pdf.CellFormat(d.usableWidth, 5, d.tr(stamp), "", 0, "L", false, 0, "")
		y += 6
	}

	d.pdf.SetDrawColor(hexToRGB(branding.Colors.Primary))
	d.pdf.SetLineWidth(0.6)
	d.pdf.Line(d.marginLeft, y, d.marginLeft+d.usableWidth, y)
	d.pdf.SetY(y + 4)
}

// drawTable draws the header row and body with pagination; the header row
// repeats on every page.
func (d *pdfDoc) drawTable() {
	loc := d.req.Branding.Locale
	alternate := d.req.Branding.Templates.Table.AlternateRows

	d.drawTableHeader()

	altR, altG, altB := hexToRGB(d.req.Branding.Colors.TableAlternate)
	d.pdf.SetTextColor(hexToRGB(d.req.Branding.Colors.Text))
	d.pdf.SetFont(d.family, "", d.req.Branding.Fonts.Body)

	for i, row := range d.req.Rows {
		if d.pdf.GetY()+pdfBodyRowHeight > d.pageHeight-d.marginBottom-10 {
			d.pdf.AddPage()
			d.pdf.SetY(d.marginTop)
			d.drawTableHeader()
			d.pdf.SetTextColor(hexToRGB(d.req.Branding.Colors.Text))
			d.pdf.SetFont(d.family, "", d.req.Branding.Fonts.Body)
		}

		fill := alternate && i%2 == 1
		if fill {
			d.pdf.SetFillColor(altR, altG, altB)
		}

		x := d.marginLeft
		y := d.pdf.GetY()
		for j, field := range d.req.Fields {
			text := FormatCell(field.Type, row[field.Key], loc, ArraySepDocument)
			align := "L"
			switch field.Type {
			case TypeNumber, TypeCurrency:
				align = "R"
			case TypeDate, TypeBoolean:
				align = "C"
			}
			d.pdf.SetXY(x, y)
			d.pdf.CellFormat(d.colWidths[j], pdfBodyRowHeight,
				d.tr(d.fitText(text, d.colWidths[j])), "1", 0, align, fill, 0, "")
			x += d.colWidths[j]
		}
		d.pdf.SetY(y + pdfBodyRowHeight)
	}
}

func (d *pdfDoc) drawTableHeader() {
	d.pdf.SetFillColor(hexToRGB(d.req.Branding.Colors.TableHeader))
	d.pdf.SetTextColor(255, 255, 255)
	d.pdf.SetFont(d.family, "B", d.req.Branding.Fonts.Body+1)

	x := d.marginLeft
	y := d.pdf.GetY()
	for j, field := range d.req.Fields {
		d.pdf.SetXY(x, y)
		d.pdf.CellFormat(d.colWidths[j], pdfHeaderRowHeight,
			d.tr(d.fitText(field.Label, d.colWidths[j])), "1", 0, "C", true, 0, "")
		x += d.colWidths[j]
	}
	d.pdf.SetY(y + pdfHeaderRowHeight)
}

// drawFooter draws record count, website and disclaimer below the table.
func (d *pdfDoc) drawFooter() {
	branding := d.req.Branding
	y := d.pdf.GetY() + 5

	if y+15 > d.pageHeight-d.marginBottom {
		d.pdf.AddPage()
		y = d.marginTop
	}

	d.pdf.SetTextColor(hexToRGB(branding.Colors.Text))
	d.pdf.SetFont(d.family, "B", branding.Fonts.Body)
	d.pdf.SetXY(d.marginLeft, y)
	total := fmt.Sprintf("Total de Registros: %d", len(d.req.Rows))
	d.pdf.CellFormat(d.usableWidth, 5, d.tr(total), "", 0, "L", false, 0, "")
	y += 6

	if branding.Templates.Footer.ShowWebsite && branding.Organization.Website != "" {
		d.pdf.SetFont(d.family, "", branding.Fonts.Small+1)
		d.pdf.SetXY(d.marginLeft, y)
		d.pdf.CellFormat(d.usableWidth, 4, d.tr(branding.Organization.Website), "", 0, "L", false, 0, "")
		y += 5
	}

	if branding.Templates.Footer.ShowDisclaimer && branding.Organization.Disclaimer != "" {
		d.pdf.SetFont(d.family, "I", branding.Fonts.Small)
		d.pdf.SetXY(d.marginLeft, y)
		d.pdf.CellFormat(d.usableWidth, 4, d.tr(branding.Organization.Disclaimer), "", 0, "L", false, 0, "")
	}
}

// fitText trims a value so it fits its column, appending an ellipsis when
// truncated.
func (d *pdfDoc) fitText(text string, colWidth float64) string {
	limit := colWidth - 2
	if d.pdf.GetStringWidth(d.tr(text)) <= limit {
		return text
	}
	runes := []rune(text)
	for len(runes) > 1 {
		runes = runes[:len(runes)-1]
		candidate := string(runes) + "..."
		if d.pdf.GetStringWidth(d.tr(candidate)) <= limit {
			return candidate
		}
	}
	return string(runes)
}

// hexToRGB parses a #RRGGBB palette color.
func hexToRGB(color string) (int, int, int) {
	var r, g, b int
	if _, err := fmt.Sscanf(hexDigits(color), "%02x%02x%02x", &r, &g, &b); err != nil {
		return 0, 0, 0
	}
	return r, g, b
}
