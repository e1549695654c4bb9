package export

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Array separators. CSV and PDF join with "; ", spreadsheet cells with ", ".
// Both renderers apply their convention consistently.
const (
	ArraySepDocument    = "; "
	ArraySepSpreadsheet = ", "
)

// dateParseLayouts are tried in order when coercing string dates.
var dateParseLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"2006-01-02 15:04:05",
	"02/01/2006",
}

// CoerceValue applies the shared projection-time typing policy: dates become
// time.Time, numbers and currency become float64, booleans stay bool, arrays
// become []string, everything else becomes a string. A nil result means the
// value is absent and renders as an empty cell. Coercion never fails hard;
// fields are not an error source.
func CoerceValue(ft FieldType, v any) any {
	if v == nil {
		return nil
	}
	switch ft {
	case TypeDate:
		return coerceDate(v)
	case TypeNumber, TypeCurrency:
		return coerceNumber(v)
	case TypeBoolean:
		return coerceBool(v)
	case TypeArray:
		return coerceArray(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func coerceDate(v any) any {
	switch t := v.(type) {
	case time.Time:
		return t
	case *time.Time:
		if t == nil {
			return nil
		}
		return *t
	case string:
		for _, layout := range dateParseLayouts {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed
			}
		}
		return nil
	default:
		return nil
	}
}

// coerceNumber mirrors a parseFloat-with-zero-fallback policy so that
// spreadsheet cells stay numeric.
func coerceNumber(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		return parsed
	default:
		return 0
	}
}

func coerceBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(b))
		return err == nil && parsed
	case float64:
		return b != 0
	case int:
		return b != 0
	default:
		return false
	}
}

func coerceArray(v any) []string {
	switch a := v.(type) {
	case []string:
		return a
	case []any:
		items := make([]string, 0, len(a))
		for _, item := range a {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return items
	case string:
		return []string{a}
	default:
		return nil
	}
}

// FormatCell renders a coerced value as a locale-aware display string.
// This is the final-encoding step used by the CSV, PDF and JSON renderers;
// the XLSX renderer binds native values instead and only uses this for
// boolean and array cells.
func FormatCell(ft FieldType, v any, loc Locale, arraySep string) string {
	if v == nil {
		return ""
	}
	switch ft {
	case TypeDate:
		t, ok := v.(time.Time)
		if !ok || t.IsZero() {
			return ""
		}
		return t.Format(loc.DateLayout)
	case TypeBoolean:
		if b, ok := v.(bool); ok && b {
			return loc.Yes
		}
		return loc.No
	case TypeCurrency:
		return loc.CurrencySymbol + formatNumber(coerceNumber(v), 2, loc)
	case TypeNumber:
		n := coerceNumber(v)
		decimals := 0
		if n != math.Trunc(n) {
			decimals = 2
		}
		return formatNumber(n, decimals, loc)
	case TypeArray:
		items, ok := v.([]string)
		if !ok {
			return ""
		}
		return strings.Join(items, arraySep)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// formatNumber renders n with thousands separators and a fixed number of
// decimals using the locale's separator characters.
func formatNumber(n float64, decimals int, loc Locale) string {
	neg := n < 0
	s := strconv.FormatFloat(math.Abs(n), 'f', decimals, 64)

	intPart := s
	fracPart := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, fracPart = s[:i], s[i+1:]
	}

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, digit := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteString(loc.ThousandsSep)
		}
		b.WriteRune(digit)
	}
	if fracPart != "" {
		b.WriteString(loc.DecimalSep)
		b.WriteString(fracPart)
	}
	return b.String()
}
