package export_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parquesmx/parques/internal/export"
)

// fixedNow is the deterministic clock used by every engine test.
var fixedNow = time.Date(2024, 6, 1, 10, 30, 0, 0, time.UTC)

// spySource records fetch calls and serves canned rows.
type spySource struct {
	rows      []export.Row
	err       error
	calls     int
	lastQuery export.Query
}

func (s *spySource) FetchRows(_ context.Context, _ string, query export.Query) ([]export.Row, error) {
	s.calls++
	s.lastQuery = query
	if s.err != nil {
		return nil, s.err
	}
	return s.rows, nil
}

// captureRenderer records the request it was rendered with.
type captureRenderer struct {
	format export.Format
	ext    string
	last   *export.RenderRequest
}

func (r *captureRenderer) Format() export.Format { return r.format }
func (r *captureRenderer) MIMEType() string      { return "application/octet-stream" }
func (r *captureRenderer) Extension() string     { return r.ext }
func (r *captureRenderer) Render(req *export.RenderRequest) ([]byte, error) {
	r.last = req
	return []byte("rendered"), nil
}

// denyAll rejects every authorization check.
type denyAll struct{}

func (denyAll) Authorize(context.Context, string, []string, string) error {
	return errors.New("no matching permission")
}

func parksConfig() *export.ExportConfig {
	return &export.ExportConfig{
		Entity:      "parks",
		DisplayName: "Parques",
		Fields: []export.ExportField{
			{Key: "name", Label: "Nombre", Type: export.TypeText, Required: true},
			{Key: "area_m2", Label: "Superficie (m²)", Type: export.TypeNumber},
			{Key: "opened_at", Label: "Fecha de Apertura", Type: export.TypeDate},
			{Key: "active", Label: "Activo", Type: export.TypeBoolean},
			{Key: "amenities", Label: "Amenidades", Type: export.TypeArray},
			{Key: "maintenance_cost", Label: "Costo", Type: export.TypeCurrency},
			{
				Key:       "manager_email",
				Label:     "Responsable",
				Type:      export.TypeEmail,
				Condition: func(row export.Row) bool { b, _ := row["active"].(bool); return b },
			},
		},
		DefaultFormat:    export.FormatXLSX,
		SupportedFormats: []export.Format{export.FormatCSV, export.FormatXLSX, export.FormatJSON},
	}
}

func newTestEngine(t *testing.T, src export.DataSource, renderers ...export.Renderer) *export.Engine {
	t.Helper()
	registry, err := export.NewRegistry(parksConfig())
	require.NoError(t, err)

	return export.NewEngine(export.EngineConfig{
		Registry:  registry,
		Source:    src,
		Logger:    zerolog.Nop(),
		Clock:     func() time.Time { return fixedNow },
		Renderers: renderers,
	})
}

func sampleRows(n int) []export.Row {
	rows := make([]export.Row, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, export.Row{
			"name":             fmt.Sprintf("Parque %03d", i),
			"area_m2":          float64(1000 + i),
			"opened_at":        "2013-05-04",
			"active":           i%2 == 0,
			"amenities":        []string{"juegos", "cancha"},
			"maintenance_cost": 12500.5,
			"manager_email":    "gestion@parques.gob.mx",
		})
	}
	return rows
}

func TestEngine_Export_UnknownEntity_DoesNotFetch(t *testing.T) {
	src := &spySource{rows: sampleRows(3)}
	engine := newTestEngine(t, src)

	_, err := engine.Export(context.Background(), export.ExportOptions{
		Entity: "playgrounds",
		Format: export.FormatCSV,
	}, "u1")

	require.Error(t, err)
	assert.Equal(t, export.CodeEntityNotFound, export.CodeOf(err))
	assert.Zero(t, src.calls, "validation failures must not touch the data source")
}

func TestEngine_Export_UnsupportedFormat_DoesNotFetch(t *testing.T) {
	src := &spySource{rows: sampleRows(3)}
	engine := newTestEngine(t, src)

	_, err := engine.Export(context.Background(), export.ExportOptions{
		Entity: "parks",
		Format: export.FormatPDF, // not in the parks config's supported set
	}, "u1")

	require.Error(t, err)
	assert.Equal(t, export.CodeFormatNotSupported, export.CodeOf(err))
	assert.Zero(t, src.calls)
}

func TestEngine_Export_PermissionDenied(t *testing.T) {
	registry, err := export.NewRegistry(parksConfig())
	require.NoError(t, err)

	src := &spySource{rows: sampleRows(3)}
	engine := export.NewEngine(export.EngineConfig{
		Registry:   registry,
		Source:     src,
		Authorizer: denyAll{},
		Logger:     zerolog.Nop(),
		Clock:      func() time.Time { return fixedNow },
	})

	_, err = engine.Export(context.Background(), export.ExportOptions{
		Entity: "parks",
		Format: export.FormatCSV,
	}, "u1")

	require.Error(t, err)
	assert.Equal(t, export.CodePermissionDenied, export.CodeOf(err))
	assert.Zero(t, src.calls)
}

func TestEngine_Export_SourceErrorIsDataError(t *testing.T) {
	src := &spySource{err: errors.New("connection reset")}
	engine := newTestEngine(t, src)

	_, err := engine.Export(context.Background(), export.ExportOptions{
		Entity: "parks",
		Format: export.FormatCSV,
	}, "u1")

	require.Error(t, err)
	assert.Equal(t, export.CodeDataError, export.CodeOf(err))
}

func TestEngine_Export_DefaultFilename(t *testing.T) {
	src := &spySource{rows: sampleRows(2)}
	engine := newTestEngine(t, src)

	result, err := engine.Export(context.Background(), export.ExportOptions{
		Entity: "parks",
		Format: export.FormatXLSX,
	}, "u1")

	require.NoError(t, err)
	assert.Equal(t, "parks_2024-06-01.xlsx", result.Filename)
	assert.Equal(t, fixedNow, result.Metadata.GeneratedAt)
	assert.Equal(t, "u1", result.Metadata.GeneratedBy)
}

func TestEngine_Export_FilenameOverride(t *testing.T) {
	src := &spySource{rows: sampleRows(2)}
	engine := newTestEngine(t, src)

	result, err := engine.Export(context.Background(), export.ExportOptions{
		Entity:   "parks",
		Format:   export.FormatCSV,
		Filename: "inventario.csv",
	}, "u1")

	require.NoError(t, err)
	assert.Equal(t, "inventario.csv", result.Filename)
}

func TestEngine_Export_LimitOffsetWindow(t *testing.T) {
	src := &spySource{rows: sampleRows(25)}
	capture := &captureRenderer{format: export.FormatCSV, ext: "csv"}
	engine := newTestEngine(t, src, capture)

	result, err := engine.Export(context.Background(), export.ExportOptions{
		Entity: "parks",
		Format: export.FormatCSV,
		Limit:  10,
		Offset: 5,
	}, "u1")

	require.NoError(t, err)
	assert.Equal(t, 10, result.RecordCount)
	require.Len(t, capture.last.Rows, 10)
	assert.Equal(t, "Parque 005", capture.last.Rows[0]["name"])
	assert.Equal(t, "Parque 014", capture.last.Rows[9]["name"])
}

func TestEngine_Export_OffsetPastEnd(t *testing.T) {
	src := &spySource{rows: sampleRows(3)}
	capture := &captureRenderer{format: export.FormatCSV, ext: "csv"}
	engine := newTestEngine(t, src, capture)

	result, err := engine.Export(context.Background(), export.ExportOptions{
		Entity: "parks",
		Format: export.FormatCSV,
		Offset: 10,
	}, "u1")

	require.NoError(t, err)
	assert.Zero(t, result.RecordCount)
	assert.Empty(t, capture.last.Rows)
}

func TestEngine_Export_FieldSelectionKeepsRequired(t *testing.T) {
	src := &spySource{rows: sampleRows(1)}
	capture := &captureRenderer{format: export.FormatCSV, ext: "csv"}
	engine := newTestEngine(t, src, capture)

	_, err := engine.Export(context.Background(), export.ExportOptions{
		Entity: "parks",
		Format: export.FormatCSV,
		Fields: []string{"area_m2", "active"},
	}, "u1")

	require.NoError(t, err)

	keys := make([]string, 0, len(capture.last.Fields))
	for _, f := range capture.last.Fields {
		keys = append(keys, f.Key)
	}
	// name is required and comes first because selection preserves config order.
	assert.Equal(t, []string{"name", "area_m2", "active"}, keys)
}

func TestEngine_Export_ProjectionKeepsNativeTypes(t *testing.T) {
	src := &spySource{rows: sampleRows(1)}
	capture := &captureRenderer{format: export.FormatCSV, ext: "csv"}
	engine := newTestEngine(t, src, capture)

	_, err := engine.Export(context.Background(), export.ExportOptions{
		Entity: "parks",
		Format: export.FormatCSV,
	}, "u1")

	require.NoError(t, err)
	require.Len(t, capture.last.Rows, 1)

	row := capture.last.Rows[0]
	assert.IsType(t, time.Time{}, row["opened_at"])
	assert.Equal(t, float64(1000), row["area_m2"])
	assert.Equal(t, true, row["active"])
	assert.Equal(t, []string{"juegos", "cancha"}, row["amenities"])
	assert.Equal(t, 12500.5, row["maintenance_cost"])
}

func TestEngine_Export_ConditionSuppressesCell(t *testing.T) {
	rows := []export.Row{
		{"name": "Parque Norte", "active": true, "manager_email": "norte@parques.gob.mx"},
		{"name": "Parque Sur", "active": false, "manager_email": "sur@parques.gob.mx"},
	}
	src := &spySource{rows: rows}
	capture := &captureRenderer{format: export.FormatCSV, ext: "csv"}
	engine := newTestEngine(t, src, capture)

	_, err := engine.Export(context.Background(), export.ExportOptions{
		Entity: "parks",
		Format: export.FormatCSV,
	}, "u1")

	require.NoError(t, err)
	require.Len(t, capture.last.Rows, 2)
	assert.Equal(t, "norte@parques.gob.mx", capture.last.Rows[0]["manager_email"])
	assert.Nil(t, capture.last.Rows[1]["manager_email"])
}

func TestEngine_Export_DefaultSortForwarded(t *testing.T) {
	cfg := parksConfig()
	cfg.Sorting = export.SortingConfig{
		Allowed: []string{"name"},
		Default: export.SortSpec{Field: "name"},
	}
	registry, err := export.NewRegistry(cfg)
	require.NoError(t, err)

	src := &spySource{rows: sampleRows(1)}
	engine := export.NewEngine(export.EngineConfig{
		Registry: registry,
		Source:   src,
		Logger:   zerolog.Nop(),
		Clock:    func() time.Time { return fixedNow },
	})

	_, err = engine.Export(context.Background(), export.ExportOptions{
		Entity: "parks",
		Format: export.FormatCSV,
	}, "u1")

	require.NoError(t, err)
	require.NotNil(t, src.lastQuery.Sort)
	assert.Equal(t, "name", src.lastQuery.Sort.Field)
}

func TestEngine_Preview_CapsLimit(t *testing.T) {
	src := &spySource{rows: sampleRows(25)}
	engine := newTestEngine(t, src)

	preview, err := engine.Preview(context.Background(), export.ExportOptions{
		Entity: "parks",
		Format: export.FormatXLSX,
	}, "u1")

	require.NoError(t, err)
	assert.Equal(t, 20, preview.RecordCount)
	assert.Len(t, preview.Rows, 20)
}

func TestEngine_Preview_FormatsValues(t *testing.T) {
	src := &spySource{rows: sampleRows(2)}
	engine := newTestEngine(t, src)

	preview, err := engine.Preview(context.Background(), export.ExportOptions{
		Entity: "parks",
		Format: export.FormatXLSX,
	}, "u1")

	require.NoError(t, err)
	require.NotEmpty(t, preview.Rows)

	first := preview.Rows[0]
	assert.Equal(t, "Sí", first["active"])
	assert.Equal(t, "04/05/2013", first["opened_at"])
	assert.Equal(t, "$12,500.50", first["maintenance_cost"])
	assert.Equal(t, "juegos; cancha", first["amenities"])

	second := preview.Rows[1]
	assert.Equal(t, "No", second["active"])
	assert.Equal(t, "", second["manager_email"], "suppressed cells render empty")
}
