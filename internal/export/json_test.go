package export_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parquesmx/parques/internal/export"
)

func TestJSONRenderer_Document(t *testing.T) {
	branding := export.DefaultBranding()
	cfg := parksConfig()
	req := &export.RenderRequest{
		Rows: []export.Row{
			{
				"name":             "Parque Norte",
				"area_m2":          float64(1500),
				"opened_at":        time.Date(2013, 5, 4, 0, 0, 0, 0, time.UTC),
				"active":           false,
				"amenities":        []string{"juegos", "cancha"},
				"maintenance_cost": 12500.5,
				"manager_email":    nil,
			},
		},
		Fields:      cfg.Fields,
		Config:      cfg,
		Branding:    &branding,
		GeneratedAt: time.Date(2024, 6, 1, 10, 30, 0, 0, time.UTC),
	}

	data, err := export.NewJSONRenderer().Render(req)
	require.NoError(t, err)

	var doc struct {
		Entity      string              `json:"entity"`
		Title       string              `json:"title"`
		RecordCount int                 `json:"recordCount"`
		Records     []map[string]string `json:"records"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))

	assert.Equal(t, "parks", doc.Entity)
	assert.Equal(t, "Reporte de Parques", doc.Title)
	assert.Equal(t, 1, doc.RecordCount)
	require.Len(t, doc.Records, 1)

	record := doc.Records[0]
	assert.Equal(t, "Parque Norte", record["name"])
	assert.Equal(t, "1,500", record["area_m2"])
	assert.Equal(t, "04/05/2013", record["opened_at"])
	assert.Equal(t, "No", record["active"])
	assert.Equal(t, "juegos; cancha", record["amenities"])
	assert.Equal(t, "$12,500.50", record["maintenance_cost"])
	assert.Equal(t, "", record["manager_email"], "suppressed cells render empty")
}

func TestJSONRenderer_EmptyRows(t *testing.T) {
	branding := export.DefaultBranding()
	cfg := parksConfig()
	req := &export.RenderRequest{
		Fields:   cfg.Fields,
		Config:   cfg,
		Branding: &branding,
	}

	data, err := export.NewJSONRenderer().Render(req)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, float64(0), doc["recordCount"])
	assert.Empty(t, doc["records"])
}
