package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/parquesmx/parques/internal/api/middleware"
	"github.com/parquesmx/parques/internal/auth"
)

func TestRateLimitByIP_BlocksAfterLimit(t *testing.T) {
	cfg := middleware.RateLimitConfig{RequestLimit: 2, WindowLength: time.Minute}
	handler := middleware.RateLimitByIP(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/v1/exports/entities", nil)
		req.RemoteAddr = "10.0.0.1:52100"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, do().Code)
	assert.Equal(t, http.StatusOK, do().Code)

	rec := do()
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
}

func TestRateLimitByActor_KeyedByActorNotIP(t *testing.T) {
	cfg := middleware.RateLimitConfig{RequestLimit: 1, WindowLength: time.Minute}
	handler := middleware.RateLimitByActor(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	doAs := func(actorID string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/v1/exports/parks", nil)
		req.RemoteAddr = "10.0.0.1:52100"
		ctx := auth.WithActor(req.Context(), auth.Actor{ID: actorID})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req.WithContext(ctx))
		return rec
	}

	assert.Equal(t, http.StatusOK, doAs("usr_a").Code)
	assert.Equal(t, http.StatusTooManyRequests, doAs("usr_a").Code)

	// A different actor from the same IP gets its own window.
	assert.Equal(t, http.StatusOK, doAs("usr_b").Code)
}
