// Package response provides utilities for HTTP response handling.
package response

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/parquesmx/parques/internal/api/middleware"
	"github.com/parquesmx/parques/internal/api/models"
	"github.com/parquesmx/parques/internal/export"
)

// JSON writes a JSON response with the given status code, including the
// X-Request-Id header for correlation.
func JSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	if requestID := middleware.GetRequestID(r.Context()); requestID != "" {
		w.Header().Set("X-Request-Id", requestID)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// Accepted writes a 202 Accepted response with a Location header.
func Accepted(w http.ResponseWriter, r *http.Request, location string, data any) {
	if requestID := middleware.GetRequestID(r.Context()); requestID != "" {
		w.Header().Set("X-Request-Id", requestID)
	}
	w.Header().Set("Content-Type", "application/json")
	if location != "" {
		w.Header().Set("Location", location)
	}
	w.WriteHeader(http.StatusAccepted)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// Attachment streams an export result as a file download. The result's
// fields map directly onto the download headers.
func Attachment(w http.ResponseWriter, r *http.Request, result *export.ExportResult) {
	if requestID := middleware.GetRequestID(r.Context()); requestID != "" {
		w.Header().Set("X-Request-Id", requestID)
	}
	w.Header().Set("Content-Type", result.MIMEType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(result.Size))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Data)
}

// Error writes a Problem+JSON error response.
func Error(w http.ResponseWriter, r *http.Request, problem *models.Problem) {
	problem.Instance = r.URL.Path
	problem.Write(w)
}

// BadRequest writes a 400 Bad Request error response.
func BadRequest(w http.ResponseWriter, r *http.Request, detail string, errors []models.FieldError) {
	Error(w, r, models.NewBadRequest(middleware.GetRequestID(r.Context()), detail, errors))
}

// Unauthorized writes a 401 Unauthorized error response.
func Unauthorized(w http.ResponseWriter, r *http.Request, detail string) {
	Error(w, r, models.NewUnauthorized(middleware.GetRequestID(r.Context()), detail))
}

// Forbidden writes a 403 Forbidden error response.
func Forbidden(w http.ResponseWriter, r *http.Request, detail string) {
	Error(w, r, models.NewForbidden(middleware.GetRequestID(r.Context()), detail))
}

// NotFound writes a 404 Not Found error response.
func NotFound(w http.ResponseWriter, r *http.Request, detail string) {
	Error(w, r, models.NewNotFound(middleware.GetRequestID(r.Context()), detail))
}

// Gone writes a 410 Gone error response.
func Gone(w http.ResponseWriter, r *http.Request, detail string) {
	Error(w, r, models.NewGone(middleware.GetRequestID(r.Context()), detail))
}

// Conflict writes a 409 Conflict error response.
func Conflict(w http.ResponseWriter, r *http.Request, detail string) {
	Error(w, r, models.NewConflict(middleware.GetRequestID(r.Context()), detail))
}

// InternalError writes a 500 Internal Server Error response.
func InternalError(w http.ResponseWriter, r *http.Request, detail string) {
	Error(w, r, models.NewInternalError(middleware.GetRequestID(r.Context()), detail))
}

// ExportError maps an export engine error onto the Problem taxonomy.
func ExportError(w http.ResponseWriter, r *http.Request, err error) {
	switch export.CodeOf(err) {
	case export.CodeEntityNotFound:
		NotFound(w, r, err.Error())
	case export.CodeFormatNotSupported:
		BadRequest(w, r, err.Error(), nil)
	case export.CodePermissionDenied:
		Forbidden(w, r, "you do not have permission to export this entity")
	default:
		// DATA_ERROR and TEMPLATE_ERROR: the cause goes to logs, the
		// caller gets a generic message.
		InternalError(w, r, "the export could not be generated")
	}
}
