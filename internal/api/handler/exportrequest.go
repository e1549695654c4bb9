package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/parquesmx/parques/internal/api/models"
	"github.com/parquesmx/parques/internal/api/response"
	"github.com/parquesmx/parques/internal/auth"
	"github.com/parquesmx/parques/internal/exportreq"
)

const (
	defaultRequestPageSize = 20
	maxRequestPageSize     = 100
)

// ExportRequestHandler handles the asynchronous export request endpoints.
type ExportRequestHandler struct {
	service *exportreq.Service
}

// NewExportRequestHandler creates a new ExportRequestHandler.
func NewExportRequestHandler(service *exportreq.Service) *ExportRequestHandler {
	return &ExportRequestHandler{service: service}
}

// Create handles POST /v1/export-requests - queue an export for background
// generation.
func (h *ExportRequestHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body models.AsyncExportRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}
	if body.Entity == "" {
		response.BadRequest(w, r, "entity is required", []models.FieldError{
			{Field: "entity", Message: "required"},
		})
		return
	}

	opts := body.Options()
	opts.Entity = body.Entity

	actor, _ := auth.ActorFromContext(r.Context())
	req, err := h.service.Create(r.Context(), actor.ID, opts)
	if err != nil {
		response.ExportError(w, r, err)
		return
	}

	location := fmt.Sprintf("/v1/export-requests/%s", req.ID)
	response.Accepted(w, r, location, toExportRequestModel(req))
}

// List handles GET /v1/export-requests - the actor's requests, newest first.
func (h *ExportRequestHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := defaultRequestPageSize
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > maxRequestPageSize {
			response.BadRequest(w, r, "limit must be between 1 and 100", []models.FieldError{
				{Field: "limit", Message: "must be between 1 and 100"},
			})
			return
		}
		limit = parsed
	}

	actor, _ := auth.ActorFromContext(r.Context())
	requests, err := h.service.List(r.Context(), actor.ID, limit)
	if err != nil {
		response.InternalError(w, r, "failed to list export requests")
		return
	}

	page := models.PagedExportRequests{
		Items: make([]models.ExportRequest, 0, len(requests)),
		Meta:  models.PagedResponseMeta{Limit: limit},
	}
	for _, req := range requests {
		page.Items = append(page.Items, toExportRequestModel(req))
	}

	response.JSON(w, r, http.StatusOK, page)
}

// Get handles GET /v1/export-requests/{id} - poll one request's status.
func (h *ExportRequestHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())

	req, err := h.service.Get(r.Context(), actor.ID, chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, exportreq.ErrRequestNotFound) {
			response.NotFound(w, r, "export request not found")
			return
		}
		response.InternalError(w, r, "failed to load export request")
		return
	}

	response.JSON(w, r, http.StatusOK, toExportRequestModel(req))
}

// Download handles GET /v1/export-requests/{id}/download - fetch the stored
// artifact once the request is ready.
func (h *ExportRequestHandler) Download(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())

	req, data, err := h.service.Download(r.Context(), actor.ID, chi.URLParam(r, "id"))
	if err != nil {
		switch {
		case errors.Is(err, exportreq.ErrRequestNotFound):
			response.NotFound(w, r, "export request not found")
		case errors.Is(err, exportreq.ErrArtifactExpired):
			response.Gone(w, r, "the export artifact has expired")
		case errors.Is(err, exportreq.ErrArtifactNotReady):
			response.Conflict(w, r, "the export is not ready yet")
		default:
			response.InternalError(w, r, "failed to load export artifact")
		}
		return
	}

	w.Header().Set("Content-Type", req.MIMEType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", req.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func toExportRequestModel(req *exportreq.ExportRequest) models.ExportRequest {
	out := models.ExportRequest{
		ID:           req.ID,
		Entity:       req.Entity,
		Format:       req.Format,
		Status:       string(req.Status),
		Filename:     req.Filename,
		RecordCount:  req.RecordCount,
		ErrorMessage: req.ErrorMessage,
		CreatedAt:    models.Timestamp(req.CreatedAt),
		UpdatedAt:    models.Timestamp(req.UpdatedAt),
	}
	if req.ExpiresAt != nil {
		expires := models.Timestamp(*req.ExpiresAt)
		out.ExpiresAt = &expires
	}
	return out
}
