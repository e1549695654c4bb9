package export

import (
	"fmt"
	"os"
	"time"

	"github.com/xuri/excelize/v2"
)

// XLSXRenderer builds a styled workbook. Unlike CSV and PDF it binds native
// typed cell values (time.Time, float64) with number formats, so exported
// sheets sort and compute correctly.
type XLSXRenderer struct{}

// NewXLSXRenderer creates the XLSX renderer.
func NewXLSXRenderer() *XLSXRenderer { return &XLSXRenderer{} }

// Format implements Renderer.
func (r *XLSXRenderer) Format() Format { return FormatXLSX }

// MIMEType implements Renderer.
func (r *XLSXRenderer) MIMEType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// Extension implements Renderer.
func (r *XLSXRenderer) Extension() string { return "xlsx" }

// Cell number formats.
const (
	numFmtDate     = "dd/mm/yyyy"
	numFmtCurrency = `"$"#,##0.00`
	numFmtNumber   = "#,##0"
)

// Render implements Renderer.
func (r *XLSXRenderer) Render(req *RenderRequest) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := sheetName(req.Config.DisplayName, req.Config.Entity)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("naming sheet: %w", err)
	}

	landscape := "landscape"
	paperA4 := 9
	fitWidth := 1
	if err := f.SetPageLayout(sheet, &excelize.PageLayoutOptions{
		Orientation: &landscape,
		Size:        &paperA4,
		FitToWidth:  &fitWidth,
	}); err != nil {
		return nil, fmt.Errorf("setting page layout: %w", err)
	}

	styles, err := newSheetStyles(f, req.Branding)
	if err != nil {
		return nil, fmt.Errorf("building styles: %w", err)
	}

	cursor := 1
	if headerEnabled(req) {
		cursor, err = r.writeHeader(f, sheet, req, styles, cursor)
		if err != nil {
			return nil, err
		}
	}

	if err := r.writeTableHeader(f, sheet, req, styles, cursor); err != nil {
		return nil, err
	}
	cursor++

	if err := r.writeRows(f, sheet, req, styles, cursor); err != nil {
		return nil, err
	}
	cursor += len(req.Rows)

	if footerEnabled(req) {
		if err := r.writeFooter(f, sheet, req, styles, cursor+1); err != nil {
			return nil, err
		}
	}

	if err := r.setColumnWidths(f, sheet, req); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("serializing workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// writeHeader emits the corporate block: optional logo space, merged title,
// organization, department and timestamp rows.
func (r *XLSXRenderer) writeHeader(f *excelize.File, sheet string, req *RenderRequest, styles *sheetStyles, row int) (int, error) {
	branding := req.Branding
	lastCol := len(req.Fields)

	if branding.Templates.Header.ShowLogo && branding.Organization.LogoPath != "" {
		if _, err := os.Stat(branding.Organization.LogoPath); err == nil {
			cell, _ := excelize.CoordinatesToCellName(1, row)
			// Missing or unreadable images must not fail the export.
			_ = f.AddPicture(sheet, cell, branding.Organization.LogoPath, nil)
		}
		_ = f.SetRowHeight(sheet, row, 42)
		row++
	}

	if err := r.mergedRow(f, sheet, row, lastCol, reportTitle(req), styles.title); err != nil {
		return row, err
	}
	_ = f.SetRowHeight(sheet, row, 24)
	row++

	if err := r.mergedRow(f, sheet, row, lastCol, branding.Organization.Name, styles.subtitle); err != nil {
		return row, err
	}
	row++

	if branding.Organization.Department != "" {
		if err := r.mergedRow(f, sheet, row, lastCol, branding.Organization.Department, styles.subtitle); err != nil {
			return row, err
		}
		row++
	}

	if branding.Templates.Header.ShowTimestamp {
		stamp := "Generado: " + req.GeneratedAt.Format(branding.Locale.DateLayout+" 15:04")
		if err := r.mergedRow(f, sheet, row, lastCol, stamp, styles.small); err != nil {
			return row, err
		}
		row++
	}

	// Blank spacer before the table.
	return row + 1, nil
}

func (r *XLSXRenderer) mergedRow(f *excelize.File, sheet string, row, lastCol int, value string, style int) error {
	start, _ := excelize.CoordinatesToCellName(1, row)
	end, _ := excelize.CoordinatesToCellName(lastCol, row)
	if lastCol > 1 {
		if err := f.MergeCell(sheet, start, end); err != nil {
			return fmt.Errorf("merging header row %d: %w", row, err)
		}
	}
	if err := f.SetCellValue(sheet, start, value); err != nil {
		return fmt.Errorf("writing header row %d: %w", row, err)
	}
	if err := f.SetCellStyle(sheet, start, end, style); err != nil {
		return fmt.Errorf("styling header row %d: %w", row, err)
	}
	return nil
}

func (r *XLSXRenderer) writeTableHeader(f *excelize.File, sheet string, req *RenderRequest, styles *sheetStyles, row int) error {
	for i, field := range req.Fields {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		if err := f.SetCellValue(sheet, cell, field.Label); err != nil {
			return fmt.Errorf("writing table header: %w", err)
		}
		if err := f.SetCellStyle(sheet, cell, cell, styles.tableHeader); err != nil {
			return fmt.Errorf("styling table header: %w", err)
		}
	}
	return f.SetRowHeight(sheet, row, 22)
}

func (r *XLSXRenderer) writeRows(f *excelize.File, sheet string, req *RenderRequest, styles *sheetStyles, startRow int) error {
	alternate := req.Branding.Templates.Table.AlternateRows
	loc := req.Branding.Locale

	for i, dataRow := range req.Rows {
		rowNum := startRow + i
		alt := alternate && i%2 == 1
		for j, field := range req.Fields {
			cell, _ := excelize.CoordinatesToCellName(j+1, rowNum)

			value := dataRow[field.Key]
			var cellValue any
			switch field.Type {
			case TypeDate:
				if t, ok := value.(time.Time); ok {
					cellValue = t
				} else {
					cellValue = ""
				}
			case TypeNumber, TypeCurrency:
				if n, ok := value.(float64); ok {
					cellValue = n
				} else {
					cellValue = ""
				}
			case TypeBoolean, TypeArray:
				cellValue = FormatCell(field.Type, value, loc, ArraySepSpreadsheet)
			default:
				cellValue = FormatCell(field.Type, value, loc, ArraySepSpreadsheet)
			}

			if err := f.SetCellValue(sheet, cell, cellValue); err != nil {
				return fmt.Errorf("writing row %d: %w", rowNum, err)
			}
			if err := f.SetCellStyle(sheet, cell, cell, styles.cell(field.Type, alt)); err != nil {
				return fmt.Errorf("styling row %d: %w", rowNum, err)
			}
		}
	}
	return nil
}

func (r *XLSXRenderer) writeFooter(f *excelize.File, sheet string, req *RenderRequest, styles *sheetStyles, row int) error {
	lastCol := len(req.Fields)
	total := fmt.Sprintf("Total de Registros: %d", len(req.Rows))
	if err := r.mergedRow(f, sheet, row, lastCol, total, styles.subtitle); err != nil {
		return err
	}
	row++

	org := req.Branding.Organization
	contact := ""
	if req.Branding.Templates.Footer.ShowWebsite && org.Website != "" {
		contact = org.Website
	}
	if req.Branding.Templates.Footer.ShowDisclaimer && org.Disclaimer != "" {
		if contact != "" {
			contact += " - "
		}
		contact += org.Disclaimer
	}
	if contact == "" {
		return nil
	}
	return r.mergedRow(f, sheet, row, lastCol, contact, styles.small)
}

// setColumnWidths applies explicit hints or auto-sizes from the widest
// formatted cell, clamped to [10, 50].
func (r *XLSXRenderer) setColumnWidths(f *excelize.File, sheet string, req *RenderRequest) error {
	loc := req.Branding.Locale
	for i, field := range req.Fields {
		width := field.Width
		if width == 0 {
			longest := len(field.Label)
			for _, row := range req.Rows {
				if l := len(FormatCell(field.Type, row[field.Key], loc, ArraySepSpreadsheet)); l > longest {
					longest = l
				}
			}
			width = float64(longest + 2)
		}
		if width < 10 {
			width = 10
		}
		if width > 50 {
			width = 50
		}
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return fmt.Errorf("resolving column %d: %w", i+1, err)
		}
		if err := f.SetColWidth(sheet, col, col, width); err != nil {
			return fmt.Errorf("setting column width: %w", err)
		}
	}
	return nil
}

// sheetName fits the display name into Excel's 31-character sheet limit.
func sheetName(displayName, entity string) string {
	name := displayName
	if name == "" {
		name = entity
	}
	if len(name) > 31 {
		name = name[:31]
	}
	return name
}

// sheetStyles caches the style IDs a sheet needs.
type sheetStyles struct {
	title       int
	subtitle    int
	small       int
	tableHeader int

	// base and alternate-row cell styles keyed by field type class.
	cells map[string]int
}

func newSheetStyles(f *excelize.File, branding *BrandingConfig) (*sheetStyles, error) {
	fonts := branding.Fonts
	s := &sheetStyles{cells: make(map[string]int)}

	var err error
	s.title, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: fonts.Title, Color: hexDigits(branding.Colors.Primary), Family: fonts.Family},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, err
	}

	s.subtitle, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: fonts.Header, Color: hexDigits(branding.Colors.Text), Family: fonts.Family},
	})
	if err != nil {
		return nil, err
	}

	s.small, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Size: fonts.Small, Color: hexDigits(branding.Colors.Text), Family: fonts.Family},
	})
	if err != nil {
		return nil, err
	}

	thin := []excelize.Border{
		{Type: "left", Style: 1, Color: "999999"},
		{Type: "right", Style: 1, Color: "999999"},
		{Type: "top", Style: 1, Color: "999999"},
		{Type: "bottom", Style: 1, Color: "999999"},
	}

	s.tableHeader, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: fonts.Header, Color: "FFFFFF", Family: fonts.Family},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{hexDigits(branding.Colors.TableHeader)}},
		Border:    thin,
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
	})
	if err != nil {
		return nil, err
	}

	classes := map[string]struct {
		numFmt string
		align  string
	}{
		"date":     {numFmtDate, "center"},
		"currency": {numFmtCurrency, "right"},
		"number":   {numFmtNumber, "right"},
		"center":   {"", "center"},
		"text":     {"", "left"},
	}
	altFill := excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{hexDigits(branding.Colors.TableAlternate)}}

	for class, def := range classes {
		style := excelize.Style{
			Font:      &excelize.Font{Size: fonts.Body, Color: hexDigits(branding.Colors.Text), Family: fonts.Family},
			Border:    thin,
			Alignment: &excelize.Alignment{Horizontal: def.align, Vertical: "center"},
		}
		if def.numFmt != "" {
			numFmt := def.numFmt
			style.CustomNumFmt = &numFmt
		}
		id, err := f.NewStyle(&style)
		if err != nil {
			return nil, err
		}
		s.cells[class] = id

		altStyle := style
		altStyle.Fill = altFill
		altID, err := f.NewStyle(&altStyle)
		if err != nil {
			return nil, err
		}
		s.cells[class+"_alt"] = altID
	}

	return s, nil
}

// cell returns the style ID for a field type, with the alternate-row fill
// when alt is set. Numeric and currency cells align right, date and boolean
// cells center, everything else aligns left.
func (s *sheetStyles) cell(ft FieldType, alt bool) int {
	var class string
	switch ft {
	case TypeDate:
		class = "date"
	case TypeCurrency:
		class = "currency"
	case TypeNumber:
		class = "number"
	case TypeBoolean:
		class = "center"
	default:
		class = "text"
	}
	if alt {
		class += "_alt"
	}
	return s.cells[class]
}

// hexDigits strips the leading # from a palette color for excelize.
func hexDigits(color string) string {
	if len(color) > 0 && color[0] == '#' {
		return color[1:]
	}
	return color
}
