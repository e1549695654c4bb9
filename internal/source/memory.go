package source

import (
	"context"
	"fmt"
	"sort"

	"github.com/parquesmx/parques/internal/export"
)

// MemorySource serves rows from a fixed in-memory dataset. Used in tests
// and for running the API without a database.
type MemorySource struct {
	data map[string][]export.Row
}

// NewMemorySource creates a source over the given dataset.
func NewMemorySource(data map[string][]export.Row) *MemorySource {
	return &MemorySource{data: data}
}

// FetchRows implements export.DataSource. Filters match by equality on the
// stringified value; sort compares stringified values (numeric fields in
// the seed data are stored pre-sorted where order matters).
func (s *MemorySource) FetchRows(_ context.Context, entity string, query export.Query) ([]export.Row, error) {
	rows, ok := s.data[entity]
	if !ok {
		return nil, fmt.Errorf("no data for entity %q", entity)
	}

	filtered := make([]export.Row, 0, len(rows))
	for _, row := range rows {
		if matchesFilters(row, query.Filters) {
			filtered = append(filtered, row)
		}
	}

	if query.Sort != nil && query.Sort.Field != "" {
		field, desc := query.Sort.Field, query.Sort.Descending
		sort.SliceStable(filtered, func(i, j int) bool {
			a := fmt.Sprintf("%v", filtered[i][field])
			b := fmt.Sprintf("%v", filtered[j][field])
			if desc {
				return a > b
			}
			return a < b
		})
	}
	return filtered, nil
}

func matchesFilters(row export.Row, filters map[string]any) bool {
	for key, want := range filters {
		if fmt.Sprintf("%v", row[key]) != fmt.Sprintf("%v", want) {
			return false
		}
	}
	return true
}
