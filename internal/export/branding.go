package export

// BrandingConfig is a presentation profile shared by all renderers.
// It is read-only during an export and safe to share across requests.
type BrandingConfig struct {
	Organization Organization
	Colors       Palette
	Fonts        FontTable
	Templates    Templates
	Locale       Locale
}

// Organization identifies the issuing body on headers and footers.
type Organization struct {
	Name       string
	Department string
	Website    string
	Disclaimer string
	LogoPath   string
}

// Palette is the fixed brand color set, as #RRGGBB hex strings.
type Palette struct {
	Primary        string
	Secondary      string
	Accent         string
	Text           string
	Background     string
	TableHeader    string
	TableAlternate string
}

// FontTable maps document roles to sizes in points.
type FontTable struct {
	Family string
	Title  float64
	Header float64
	Body   float64
	Small  float64
}

// Templates toggles the structural blocks each renderer may emit.
type Templates struct {
	Header HeaderTemplate
	Footer FooterTemplate
	Table  TableTemplate
}

// HeaderTemplate controls the corporate header block.
type HeaderTemplate struct {
	Enabled       bool
	ShowLogo      bool
	ShowTimestamp bool
}

// FooterTemplate controls the footer block.
type FooterTemplate struct {
	Enabled        bool
	ShowWebsite    bool
	ShowDisclaimer bool
}

// TableTemplate controls table styling.
type TableTemplate struct {
	AlternateRows bool
}

// Locale holds the value-formatting conventions for rendered output.
type Locale struct {
	Language string

	// DateLayout is a Go reference layout, e.g. "02/01/2006".
	DateLayout string

	CurrencySymbol string
	ThousandsSep   string
	DecimalSep     string

	// Yes and No are the localized boolean display strings.
	Yes string
	No  string
}

// Template names accepted in ExportOptions.
const (
	TemplateCorporate = "corporate"
	TemplateMinimal   = "minimal"
	TemplateDetailed  = "detailed"
)

// DefaultBranding returns the stock es-MX municipal profile.
func DefaultBranding() BrandingConfig {
	return BrandingConfig{
		Organization: Organization{
			Name:       "Dirección de Parques y Jardines",
			Department: "Coordinación de Áreas Verdes",
			Website:    "https://parques.gob.mx",
			Disclaimer: "Documento generado automáticamente. Información de uso interno.",
		},
		Colors: Palette{
			Primary:        "#1B5E20",
			Secondary:      "#388E3C",
			Accent:         "#8BC34A",
			Text:           "#212121",
			Background:     "#FFFFFF",
			TableHeader:    "#2E7D32",
			TableAlternate: "#F1F8E9",
		},
		Fonts: FontTable{
			Family: "Helvetica",
			Title:  16,
			Header: 11,
			Body:   9,
			Small:  7,
		},
		Templates: Templates{
			Header: HeaderTemplate{Enabled: true, ShowLogo: true, ShowTimestamp: true},
			Footer: FooterTemplate{Enabled: true, ShowWebsite: true, ShowDisclaimer: true},
			Table:  TableTemplate{AlternateRows: true},
		},
		Locale: Locale{
			Language:       "es-MX",
			DateLayout:     "02/01/2006",
			CurrencySymbol: "$",
			ThousandsSep:   ",",
			DecimalSep:     ".",
			Yes:            "Sí",
			No:             "No",
		},
	}
}
