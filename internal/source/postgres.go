// Package source provides data-source implementations for the export
// engine: a PostgreSQL source for production and an in-memory source for
// tests and seeding.
package source

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/parquesmx/parques/internal/export"
)

// entityTable maps an exportable entity to its backing table. Filter and
// sort keys are whitelisted per entity so request input never reaches SQL
// unchecked.
type entityTable struct {
	table   string
	columns []string
	filters map[string]string
	sorts   map[string]string
}

// tables is the static entity-to-table mapping. It mirrors the export
// catalog: one entry per registered entity.
var tables = map[string]entityTable{
	"parks": {
		table:   "parks",
		columns: []string{"name", "type", "address", "area_m2", "opened_at", "active", "amenities", "maintenance_cost", "manager_email"},
		filters: map[string]string{"type": "type", "active": "active"},
		sorts:   map[string]string{"name": "name", "area_m2": "area_m2", "opened_at": "opened_at"},
	},
	"activities": {
		table:   "activities",
		columns: []string{"name", "park", "category", "starts_at", "capacity", "enrolled", "price", "instructor", "days", "active"},
		filters: map[string]string{"park": "park", "category": "category", "active": "active"},
		sorts:   map[string]string{"name": "name", "starts_at": "starts_at", "price": "price"},
	},
	"trees": {
		table:   "trees",
		columns: []string{"species", "common_name", "park", "planted_at", "height_m", "diameter_cm", "health", "protected"},
		filters: map[string]string{"park": "park", "species": "species", "health": "health"},
		sorts:   map[string]string{"species": "species", "planted_at": "planted_at", "height_m": "height_m"},
	},
	"volunteers": {
		table:   "volunteers",
		columns: []string{"name", "email", "phone", "joined_at", "hours", "skills", "active"},
		filters: map[string]string{"active": "active"},
		sorts:   map[string]string{"name": "name", "joined_at": "joined_at", "hours": "hours"},
	},
	"finance": {
		table:   "finance_movements",
		columns: []string{"concept", "category", "movement", "amount", "date", "cost_center", "approved"},
		filters: map[string]string{"category": "category", "movement": "movement", "approved": "approved"},
		sorts:   map[string]string{"date": "date", "amount": "amount"},
	},
}

// PostgresSource is the production data boundary: one query per export,
// column keys matching the catalog's field keys.
type PostgresSource struct {
	pool *pgxpool.Pool
}

// NewPostgresSource creates a PostgreSQL data source.
func NewPostgresSource(pool *pgxpool.Pool) *PostgresSource {
	return &PostgresSource{pool: pool}
}

// FetchRows implements export.DataSource.
func (s *PostgresSource) FetchRows(ctx context.Context, entity string, query export.Query) ([]export.Row, error) {
	spec, ok := tables[entity]
	if !ok {
		return nil, fmt.Errorf("no table mapping for entity %q", entity)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s", strings.Join(spec.columns, ", "), spec.table)

	var args []any
	var conditions []string
	for key, value := range query.Filters {
		column, allowed := spec.filters[key]
		if !allowed {
			continue
		}
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if len(conditions) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(conditions, " AND "))
	}

	if query.Sort != nil {
		if column, allowed := spec.sorts[query.Sort.Field]; allowed {
			direction := "ASC"
			if query.Sort.Descending {
				direction = "DESC"
			}
			fmt.Fprintf(&b, " ORDER BY %s %s", column, direction)
		}
	}

	rows, err := s.pool.Query(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", spec.table, err)
	}
	defer rows.Close()

	var result []export.Row
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("reading %s row: %w", spec.table, err)
		}
		row := make(export.Row, len(spec.columns))
		for i, column := range spec.columns {
			row[column] = values[i]
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s rows: %w", spec.table, err)
	}
	return result, nil
}
