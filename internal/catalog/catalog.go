// Package catalog defines the exportable entities of the parks system and
// builds the production export registry. New entities are added here; the
// registry itself is never patched at runtime.
package catalog

import (
	"fmt"

	"github.com/parquesmx/parques/internal/export"
)

// NewRegistry builds the registry with every exportable entity.
func NewRegistry() (*export.Registry, error) {
	return export.NewRegistry(
		Parks(),
		Activities(),
		Trees(),
		Volunteers(),
		Finance(),
	)
}

var allFormats = []export.Format{export.FormatCSV, export.FormatXLSX, export.FormatPDF, export.FormatJSON}

// Parks is the export configuration for municipal parks.
func Parks() *export.ExportConfig {
	return &export.ExportConfig{
		Entity:      "parks",
		DisplayName: "Parques",
		Description: "Parques y áreas verdes municipales",
		Fields: []export.ExportField{
			{Key: "name", Label: "Nombre", Type: export.TypeText, Required: true, Width: 28},
			{Key: "type", Label: "Tipo", Type: export.TypeText, Width: 16},
			{Key: "address", Label: "Dirección", Type: export.TypeText, Width: 32},
			{Key: "area_m2", Label: "Superficie (m²)", Type: export.TypeNumber, Width: 14},
			{Key: "opened_at", Label: "Fecha de Apertura", Type: export.TypeDate, Width: 16},
			{Key: "active", Label: "Activo", Type: export.TypeBoolean, Width: 10},
			{Key: "amenities", Label: "Amenidades", Type: export.TypeArray, Width: 30},
			{Key: "maintenance_cost", Label: "Costo de Mantenimiento", Type: export.TypeCurrency, Width: 18},
			{
				Key:   "manager_email",
				Label: "Responsable",
				Type:  export.TypeEmail,
				Width: 24,
				// Contact data is only shown for parks under management.
				Condition: func(row export.Row) bool { return boolField(row, "active") },
			},
		},
		Permissions:      []string{"exports:parks"},
		DefaultFormat:    export.FormatXLSX,
		SupportedFormats: allFormats,
		Filters:          []string{"type", "active"},
		Sorting: export.SortingConfig{
			Allowed: []string{"name", "area_m2", "opened_at"},
			Default: export.SortSpec{Field: "name"},
		},
	}
}

// Activities is the export configuration for programmed park activities.
func Activities() *export.ExportConfig {
	return &export.ExportConfig{
		Entity:      "activities",
		DisplayName: "Actividades",
		Description: "Actividades y talleres programados en parques",
		Fields: []export.ExportField{
			{Key: "name", Label: "Actividad", Type: export.TypeText, Required: true, Width: 26},
			{Key: "park", Label: "Parque", Type: export.TypeText, Required: true, Width: 24},
			{Key: "category", Label: "Categoría", Type: export.TypeText, Width: 16},
			{Key: "starts_at", Label: "Fecha de Inicio", Type: export.TypeDate, Width: 16},
			{Key: "capacity", Label: "Cupo", Type: export.TypeNumber, Width: 10},
			{
				Key:   "enrolled",
				Label: "Ocupación",
				Type:  export.TypeText,
				Width: 12,
				// Derived display value: enrolled out of capacity.
				Transform: func(value any, row export.Row) any {
					return fmt.Sprintf("%v/%v", orZero(value), orZero(row["capacity"]))
				},
			},
			{Key: "price", Label: "Precio", Type: export.TypeCurrency, Width: 12},
			{Key: "instructor", Label: "Instructor", Type: export.TypeText, Width: 22},
			{Key: "days", Label: "Días", Type: export.TypeArray, Width: 24},
			{Key: "active", Label: "Vigente", Type: export.TypeBoolean, Width: 10},
		},
		Permissions:      []string{"exports:activities"},
		DefaultFormat:    export.FormatXLSX,
		SupportedFormats: allFormats,
		Filters:          []string{"park", "category", "active"},
		Sorting: export.SortingConfig{
			Allowed: []string{"name", "starts_at", "price"},
			Default: export.SortSpec{Field: "starts_at", Descending: true},
		},
	}
}

// Trees is the export configuration for the urban tree census.
func Trees() *export.ExportConfig {
	healthLabels := map[string]string{
		"good":     "Saludable",
		"fair":     "Regular",
		"poor":     "Deteriorado",
		"critical": "Crítico",
	}
	return &export.ExportConfig{
		Entity:      "trees",
		DisplayName: "Árboles",
		Description: "Censo de arbolado urbano",
		Fields: []export.ExportField{
			{Key: "species", Label: "Especie", Type: export.TypeText, Required: true, Width: 24},
			{Key: "common_name", Label: "Nombre Común", Type: export.TypeText, Width: 20},
			{Key: "park", Label: "Parque", Type: export.TypeText, Width: 24},
			{Key: "planted_at", Label: "Fecha de Plantación", Type: export.TypeDate, Width: 16},
			{Key: "height_m", Label: "Altura (m)", Type: export.TypeNumber, Width: 12},
			{Key: "diameter_cm", Label: "Diámetro (cm)", Type: export.TypeNumber, Width: 12},
			{
				Key:   "health",
				Label: "Estado",
				Type:  export.TypeText,
				Width: 14,
				Transform: func(value any, _ export.Row) any {
					if label, ok := healthLabels[fmt.Sprintf("%v", value)]; ok {
						return label
					}
					return value
				},
			},
			{Key: "protected", Label: "Protegido", Type: export.TypeBoolean, Width: 10},
		},
		Permissions:      []string{"exports:trees"},
		DefaultFormat:    export.FormatCSV,
		SupportedFormats: allFormats,
		Filters:          []string{"park", "species", "health"},
		Sorting: export.SortingConfig{
			Allowed: []string{"species", "planted_at", "height_m"},
			Default: export.SortSpec{Field: "species"},
		},
	}
}

// Volunteers is the export configuration for registered volunteers.
func Volunteers() *export.ExportConfig {
	return &export.ExportConfig{
		Entity:      "volunteers",
		DisplayName: "Voluntarios",
		Description: "Voluntarios registrados en programas de parques",
		Fields: []export.ExportField{
			{Key: "name", Label: "Nombre", Type: export.TypeText, Required: true, Width: 26},
			{
				Key:   "email",
				Label: "Correo",
				Type:  export.TypeEmail,
				Width: 26,
				// Inactive volunteers keep their contact data private.
				Condition: func(row export.Row) bool { return boolField(row, "active") },
			},
			{
				Key:       "phone",
				Label:     "Teléfono",
				Type:      export.TypeText,
				Width:     16,
				Condition: func(row export.Row) bool { return boolField(row, "active") },
			},
			{Key: "joined_at", Label: "Fecha de Ingreso", Type: export.TypeDate, Width: 16},
			{Key: "hours", Label: "Horas Acumuladas", Type: export.TypeNumber, Width: 14},
			{Key: "skills", Label: "Habilidades", Type: export.TypeArray, Width: 30},
			{Key: "active", Label: "Activo", Type: export.TypeBoolean, Width: 10},
		},
		Permissions:      []string{"exports:volunteers"},
		DefaultFormat:    export.FormatXLSX,
		SupportedFormats: allFormats,
		Filters:          []string{"active"},
		Sorting: export.SortingConfig{
			Allowed: []string{"name", "joined_at", "hours"},
			Default: export.SortSpec{Field: "hours", Descending: true},
		},
	}
}

// Finance is the export configuration for finance movements. PDF is
// deliberately unsupported: finance reports go through the spreadsheet
// pipeline where amounts stay numeric.
func Finance() *export.ExportConfig {
	typeLabels := map[string]string{"income": "Ingreso", "expense": "Egreso"}
	return &export.ExportConfig{
		Entity:      "finance",
		DisplayName: "Finanzas",
		Description: "Movimientos financieros de parques",
		Fields: []export.ExportField{
			{Key: "concept", Label: "Concepto", Type: export.TypeText, Required: true, Width: 30},
			{Key: "category", Label: "Categoría", Type: export.TypeText, Width: 18},
			{
				Key:   "movement",
				Label: "Tipo",
				Type:  export.TypeText,
				Width: 12,
				Transform: func(value any, _ export.Row) any {
					if label, ok := typeLabels[fmt.Sprintf("%v", value)]; ok {
						return label
					}
					return value
				},
			},
			{Key: "amount", Label: "Monto", Type: export.TypeCurrency, Required: true, Width: 14},
			{Key: "date", Label: "Fecha", Type: export.TypeDate, Width: 14},
			{Key: "cost_center", Label: "Centro de Costo", Type: export.TypeText, Width: 18},
			{Key: "approved", Label: "Aprobado", Type: export.TypeBoolean, Width: 10},
		},
		Permissions:      []string{"exports:finance"},
		DefaultFormat:    export.FormatXLSX,
		SupportedFormats: []export.Format{export.FormatCSV, export.FormatXLSX, export.FormatJSON},
		Filters:          []string{"category", "movement", "approved"},
		Sorting: export.SortingConfig{
			Allowed: []string{"date", "amount"},
			Default: export.SortSpec{Field: "date", Descending: true},
		},
	}
}

func boolField(row export.Row, key string) bool {
	b, _ := row[key].(bool)
	return b
}

func orZero(v any) any {
	if v == nil {
		return 0
	}
	return v
}
