package export_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parquesmx/parques/internal/export"
)

func TestNewRegistry_RejectsDuplicateEntity(t *testing.T) {
	_, err := export.NewRegistry(parksConfig(), parksConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate entity")
}

func TestNewRegistry_RejectsEmptyFields(t *testing.T) {
	cfg := parksConfig()
	cfg.Fields = nil
	_, err := export.NewRegistry(cfg)
	require.Error(t, err)
}

func TestNewRegistry_RejectsDuplicateFieldKeys(t *testing.T) {
	cfg := parksConfig()
	cfg.Fields = append(cfg.Fields, export.ExportField{Key: "name", Label: "Otra vez", Type: export.TypeText})
	_, err := export.NewRegistry(cfg)
	require.Error(t, err)
}

func TestNewRegistry_RejectsDefaultFormatOutsideSupported(t *testing.T) {
	cfg := parksConfig()
	cfg.DefaultFormat = export.FormatPDF // supported set is csv/xlsx/json
	_, err := export.NewRegistry(cfg)
	require.Error(t, err)
}

func TestRegistry_GetUnknownReturnsNil(t *testing.T) {
	registry, err := export.NewRegistry(parksConfig())
	require.NoError(t, err)
	assert.Nil(t, registry.Get("no-such-entity"))
}

func TestRegistry_ListEntitiesSorted(t *testing.T) {
	second := parksConfig()
	second.Entity = "activities"
	registry, err := export.NewRegistry(parksConfig(), second)
	require.NoError(t, err)
	assert.Equal(t, []string{"activities", "parks"}, registry.ListEntities())
}

func TestRegistry_SupportsFormat(t *testing.T) {
	registry, err := export.NewRegistry(parksConfig())
	require.NoError(t, err)

	assert.True(t, registry.SupportsFormat("parks", export.FormatCSV))
	assert.False(t, registry.SupportsFormat("parks", export.FormatPDF))
	assert.False(t, registry.SupportsFormat("missing", export.FormatCSV))
}

func TestRegistry_RequiredFields(t *testing.T) {
	registry, err := export.NewRegistry(parksConfig())
	require.NoError(t, err)
	assert.Equal(t, []string{"name"}, registry.RequiredFields("parks"))
	assert.Nil(t, registry.RequiredFields("missing"))
}
