package export_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parquesmx/parques/internal/export"
)

func esMX() export.Locale {
	return export.DefaultBranding().Locale
}

func TestCoerceValue_Date(t *testing.T) {
	parsed := export.CoerceValue(export.TypeDate, "2024-03-15")
	tm, ok := parsed.(time.Time)
	require.True(t, ok)
	assert.Equal(t, 2024, tm.Year())
	assert.Equal(t, time.March, tm.Month())

	native := time.Date(2022, 1, 2, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, native, export.CoerceValue(export.TypeDate, native))

	assert.Nil(t, export.CoerceValue(export.TypeDate, "no es fecha"))
	assert.Nil(t, export.CoerceValue(export.TypeDate, nil))
}

func TestCoerceValue_Numbers(t *testing.T) {
	assert.Equal(t, 42.5, export.CoerceValue(export.TypeNumber, "42.5"))
	assert.Equal(t, float64(7), export.CoerceValue(export.TypeNumber, 7))
	assert.Equal(t, float64(0), export.CoerceValue(export.TypeNumber, "n/a"), "unparseable numbers fall back to zero")
	assert.Equal(t, 99.99, export.CoerceValue(export.TypeCurrency, 99.99))
}

func TestCoerceValue_Boolean(t *testing.T) {
	assert.Equal(t, true, export.CoerceValue(export.TypeBoolean, true))
	assert.Equal(t, true, export.CoerceValue(export.TypeBoolean, "true"))
	assert.Equal(t, false, export.CoerceValue(export.TypeBoolean, "maybe"))
	assert.Equal(t, true, export.CoerceValue(export.TypeBoolean, 1))
}

func TestCoerceValue_Array(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, export.CoerceValue(export.TypeArray, []string{"a", "b"}))
	assert.Equal(t, []string{"1", "x"}, export.CoerceValue(export.TypeArray, []any{1, "x"}))
	assert.Equal(t, []string{"solo"}, export.CoerceValue(export.TypeArray, "solo"))
}

func TestFormatCell_NilRendersEmpty(t *testing.T) {
	for _, ft := range []export.FieldType{
		export.TypeText, export.TypeNumber, export.TypeDate,
		export.TypeBoolean, export.TypeCurrency, export.TypeArray,
	} {
		assert.Empty(t, export.FormatCell(ft, nil, esMX(), export.ArraySepDocument))
	}
}

func TestFormatCell_Date(t *testing.T) {
	tm := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "01/06/2024", export.FormatCell(export.TypeDate, tm, esMX(), export.ArraySepDocument))
}

func TestFormatCell_Boolean(t *testing.T) {
	assert.Equal(t, "Sí", export.FormatCell(export.TypeBoolean, true, esMX(), export.ArraySepDocument))
	assert.Equal(t, "No", export.FormatCell(export.TypeBoolean, false, esMX(), export.ArraySepDocument))
}

func TestFormatCell_Currency(t *testing.T) {
	assert.Equal(t, "$1,234,567.80", export.FormatCell(export.TypeCurrency, 1234567.8, esMX(), export.ArraySepDocument))
	assert.Equal(t, "$0.00", export.FormatCell(export.TypeCurrency, 0.0, esMX(), export.ArraySepDocument))
}

func TestFormatCell_Number(t *testing.T) {
	// Whole numbers drop decimals, fractional numbers keep two.
	assert.Equal(t, "1,500", export.FormatCell(export.TypeNumber, 1500.0, esMX(), export.ArraySepDocument))
	assert.Equal(t, "3.14", export.FormatCell(export.TypeNumber, 3.14, esMX(), export.ArraySepDocument))
	assert.Equal(t, "-2,000", export.FormatCell(export.TypeNumber, -2000.0, esMX(), export.ArraySepDocument))
}

func TestFormatCell_ArraySeparators(t *testing.T) {
	items := []string{"juegos", "cancha", "fuente"}
	assert.Equal(t, "juegos; cancha; fuente",
		export.FormatCell(export.TypeArray, items, esMX(), export.ArraySepDocument))
	assert.Equal(t, "juegos, cancha, fuente",
		export.FormatCell(export.TypeArray, items, esMX(), export.ArraySepSpreadsheet))
}
