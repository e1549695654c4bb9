package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/parquesmx/parques/internal/api/models"
	"github.com/parquesmx/parques/internal/api/response"
	"github.com/parquesmx/parques/internal/auth"
	"github.com/parquesmx/parques/internal/export"
)

// ExportRecorder records export outcomes for telemetry. Satisfied by
// middleware.Metrics.
type ExportRecorder interface {
	RecordExport(ctx context.Context, entity, format, status string, duration time.Duration, bytes int)
}

// ExportHandler handles the synchronous export endpoints.
type ExportHandler struct {
	engine  *export.Engine
	metrics ExportRecorder // nil disables recording
}

// NewExportHandler creates a new ExportHandler.
func NewExportHandler(engine *export.Engine, metrics ExportRecorder) *ExportHandler {
	return &ExportHandler{engine: engine, metrics: metrics}
}

// ListEntities handles GET /v1/exports/entities - list exportable entities.
func (h *ExportHandler) ListEntities(w http.ResponseWriter, r *http.Request) {
	registry := h.engine.Registry()

	list := models.EntityList{Items: []models.EntitySummary{}}
	for _, entity := range registry.ListEntities() {
		list.Items = append(list.Items, entitySummary(registry.Get(entity)))
	}

	w.Header().Set("Cache-Control", "private, max-age=300")
	response.JSON(w, r, http.StatusOK, list)
}

// GetEntity handles GET /v1/exports/entities/{entity} - describe one entity.
func (h *ExportHandler) GetEntity(w http.ResponseWriter, r *http.Request) {
	entity := chi.URLParam(r, "entity")

	cfg := h.engine.Registry().Get(entity)
	if cfg == nil {
		response.NotFound(w, r, "unknown export entity")
		return
	}

	w.Header().Set("Cache-Control", "private, max-age=300")
	response.JSON(w, r, http.StatusOK, entitySummary(cfg))
}

// Export handles POST /v1/exports/{entity} - generate and download a file.
func (h *ExportHandler) Export(w http.ResponseWriter, r *http.Request) {
	opts, ok := decodeExportOptions(w, r)
	if !ok {
		return
	}

	actor, _ := auth.ActorFromContext(r.Context())
	start := time.Now()
	result, err := h.engine.Export(r.Context(), opts, actor.ID)
	if err != nil {
		h.recordExport(r.Context(), opts.Entity, string(opts.Format), string(export.CodeOf(err)), time.Since(start), 0)
		response.ExportError(w, r, err)
		return
	}

	h.recordExport(r.Context(), opts.Entity, string(result.Metadata.Format), "success", time.Since(start), result.Size)
	response.Attachment(w, r, result)
}

func (h *ExportHandler) recordExport(ctx context.Context, entity, format, status string, duration time.Duration, bytes int) {
	if h.metrics == nil {
		return
	}
	h.metrics.RecordExport(ctx, entity, format, status, duration, bytes)
}

// Preview handles POST /v1/exports/{entity}/preview - structured sample rows.
func (h *ExportHandler) Preview(w http.ResponseWriter, r *http.Request) {
	opts, ok := decodeExportOptions(w, r)
	if !ok {
		return
	}

	actor, _ := auth.ActorFromContext(r.Context())
	preview, err := h.engine.Preview(r.Context(), opts, actor.ID)
	if err != nil {
		response.ExportError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, preview)
}

// decodeExportOptions reads the request body into ExportOptions for the
// entity named in the URL. An empty body is allowed: the entity's defaults
// apply.
func decodeExportOptions(w http.ResponseWriter, r *http.Request) (export.ExportOptions, bool) {
	var body models.ExportRequestBody
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			response.BadRequest(w, r, "invalid JSON body", nil)
			return export.ExportOptions{}, false
		}
	}

	opts := body.Options()
	opts.Entity = chi.URLParam(r, "entity")
	return opts, true
}

func entitySummary(cfg *export.ExportConfig) models.EntitySummary {
	fields := make([]models.EntityField, 0, len(cfg.Fields))
	for _, f := range cfg.Fields {
		fields = append(fields, models.EntityField{
			Key:      f.Key,
			Label:    f.Label,
			Type:     f.Type,
			Required: f.Required,
		})
	}

	return models.EntitySummary{
		Entity:           cfg.Entity,
		DisplayName:      cfg.DisplayName,
		Description:      cfg.Description,
		DefaultFormat:    cfg.DefaultFormat,
		SupportedFormats: cfg.SupportedFormats,
		Fields:           fields,
		Filters:          cfg.Filters,
	}
}
