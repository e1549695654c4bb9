package api_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parquesmx/parques/internal/api"
	"github.com/parquesmx/parques/internal/auth"
	"github.com/parquesmx/parques/internal/catalog"
	"github.com/parquesmx/parques/internal/export"
	"github.com/parquesmx/parques/internal/exportreq"
	"github.com/parquesmx/parques/internal/source"
)

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func newTestRouter(t *testing.T, db stubPinger) (http.Handler, *auth.JWTService) {
	t.Helper()

	registry, err := catalog.NewRegistry()
	require.NoError(t, err)

	src := source.NewMemorySource(map[string][]export.Row{
		"parks": {
			{
				"name":             "Parque Norte",
				"type":             "urbano",
				"area_m2":          float64(15200),
				"opened_at":        "2010-03-15",
				"active":           true,
				"amenities":        []string{"juegos", "cancha"},
				"maintenance_cost": 8400.0,
				"manager_email":    "norte@parques.gob.mx",
			},
		},
	})

	engine := export.NewEngine(export.EngineConfig{
		Registry:   registry,
		Source:     src,
		Authorizer: auth.PermissionAuthorizer{},
		Logger:     zerolog.Nop(),
		Clock:      func() time.Time { return time.Date(2024, 6, 1, 10, 30, 0, 0, time.UTC) },
	})

	requests := exportreq.NewService(exportreq.ServiceConfig{
		Repository: exportreq.NewMemoryRepository(),
		Registry:   registry,
		Authorizer: auth.PermissionAuthorizer{},
		Logger:     zerolog.Nop(),
	})

	tokens := auth.NewJWTService(auth.JWTConfig{
		SigningKey: "test-signing-key",
		Issuer:     "https://parques.gob.mx",
		Audience:   "parques-api",
	})

	router := api.NewRouter(api.RouterConfig{
		Version:   "test",
		BuildTime: "now",
		Logger:    zerolog.Nop(),
		Tokens:    tokens,
		Engine:    engine,
		Requests:  requests,
		Database:  db,
	})
	return router, tokens
}

func bearerFor(t *testing.T, tokens *auth.JWTService) string {
	return bearerWithPermissions(t, tokens, []string{"exports:parks"})
}

func bearerWithPermissions(t *testing.T, tokens *auth.JWTService, permissions []string) string {
	t.Helper()
	token, _, err := tokens.GenerateToken("usr_test", permissions)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestRouter_HealthIsPublic(t *testing.T) {
	router, _ := newTestRouter(t, stubPinger{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/ops/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"OK"`)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestRouter_OpsRateLimitedByIP(t *testing.T) {
	router, _ := newTestRouter(t, stubPinger{})

	// Standard limit is 100/min per IP; httptest requests share one
	// RemoteAddr.
	var last *httptest.ResponseRecorder
	for i := 0; i < 101; i++ {
		last = httptest.NewRecorder()
		router.ServeHTTP(last, httptest.NewRequest(http.MethodGet, "/v1/ops/health", nil))
	}

	assert.Equal(t, http.StatusTooManyRequests, last.Code)
	assert.Equal(t, "60", last.Header().Get("Retry-After"))
}

func TestRouter_ReadinessReportsDatabaseFailure(t *testing.T) {
	router, _ := newTestRouter(t, stubPinger{err: errors.New("connection refused")})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/ops/ready", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRouter_ExportsRequireAuth(t *testing.T) {
	router, _ := newTestRouter(t, stubPinger{})

	for _, path := range []string{
		"/v1/exports/entities",
		"/v1/exports/entities/parks",
		"/v1/export-requests",
	} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}

func TestRouter_ListEntities(t *testing.T) {
	router, tokens := newTestRouter(t, stubPinger{})

	req := httptest.NewRequest(http.MethodGet, "/v1/exports/entities", nil)
	req.Header.Set("Authorization", bearerFor(t, tokens))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"entity":"parks"`)
	assert.Contains(t, rec.Body.String(), `"entity":"volunteers"`)
}

func TestRouter_UnknownEntityIs404(t *testing.T) {
	router, tokens := newTestRouter(t, stubPinger{})

	req := httptest.NewRequest(http.MethodGet, "/v1/exports/entities/playgrounds", nil)
	req.Header.Set("Authorization", bearerFor(t, tokens))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
}

func TestRouter_SynchronousExport(t *testing.T) {
	router, tokens := newTestRouter(t, stubPinger{})

	body := strings.NewReader(`{"format":"csv"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/exports/parks", body)
	req.Header.Set("Authorization", bearerFor(t, tokens))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `filename="parks_2024-06-01.csv"`)
	assert.Contains(t, rec.Body.String(), "Parque Norte")
}

func TestRouter_Preview(t *testing.T) {
	router, tokens := newTestRouter(t, stubPinger{})

	body := strings.NewReader(`{"format":"csv","limit":5}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/exports/parks/preview", body)
	req.Header.Set("Authorization", bearerFor(t, tokens))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Parque Norte")
}

func TestRouter_AsyncExportDeniedLikeSyncExport(t *testing.T) {
	router, tokens := newTestRouter(t, stubPinger{})
	// Authenticated, but without the parks permission tag.
	bearer := bearerWithPermissions(t, tokens, []string{"exports:trees"})

	body := strings.NewReader(`{"format":"csv"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/exports/parks", body)
	req.Header.Set("Authorization", bearer)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code, rec.Body.String())

	// Queueing the same export must be refused the same way.
	body = strings.NewReader(`{"entity":"parks","format":"csv"}`)
	req = httptest.NewRequest(http.MethodPost, "/v1/export-requests", body)
	req.Header.Set("Authorization", bearer)
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code, rec.Body.String())
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
}

func TestRouter_AsyncExportLifecycle(t *testing.T) {
	router, tokens := newTestRouter(t, stubPinger{})
	bearer := bearerFor(t, tokens)

	body := strings.NewReader(`{"entity":"parks","format":"xlsx"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/export-requests", body)
	req.Header.Set("Authorization", bearer)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	location := rec.Header().Get("Location")
	require.True(t, strings.HasPrefix(location, "/v1/export-requests/exp_"))

	req = httptest.NewRequest(http.MethodGet, location, nil)
	req.Header.Set("Authorization", bearer)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"pending"`)

	// The artifact does not exist until the worker processes the job.
	req = httptest.NewRequest(http.MethodGet, location+"/download", nil)
	req.Header.Set("Authorization", bearer)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}
