package exportreq_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parquesmx/parques/internal/auth"
	"github.com/parquesmx/parques/internal/catalog"
	"github.com/parquesmx/parques/internal/export"
	"github.com/parquesmx/parques/internal/exportreq"
)

// recordingPublisher captures published request IDs.
type recordingPublisher struct {
	ids []string
	err error
}

func (p *recordingPublisher) PublishExportJob(_ context.Context, requestID string) error {
	if p.err != nil {
		return p.err
	}
	p.ids = append(p.ids, requestID)
	return nil
}

func newTestService(t *testing.T, repo exportreq.Repository, publisher exportreq.Publisher) *exportreq.Service {
	t.Helper()
	registry, err := catalog.NewRegistry()
	require.NoError(t, err)
	return exportreq.NewService(exportreq.ServiceConfig{
		Repository: repo,
		Registry:   registry,
		Publisher:  publisher,
		Logger:     zerolog.Nop(),
	})
}

func TestService_Create(t *testing.T) {
	repo := exportreq.NewMemoryRepository()
	publisher := &recordingPublisher{}
	service := newTestService(t, repo, publisher)
	ctx := context.Background()

	req, err := service.Create(ctx, "usr_1", export.ExportOptions{
		Entity: "parks",
		Format: export.FormatXLSX,
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(req.ID, "exp_"))
	assert.Equal(t, exportreq.StatusPending, req.Status)
	assert.Equal(t, "usr_1", req.ActorID)
	assert.Equal(t, []string{req.ID}, publisher.ids)

	stored, err := service.Get(ctx, "usr_1", req.ID)
	require.NoError(t, err)
	assert.Equal(t, req.Entity, stored.Entity)
}

func TestService_Create_UnknownEntity(t *testing.T) {
	service := newTestService(t, exportreq.NewMemoryRepository(), &recordingPublisher{})

	_, err := service.Create(context.Background(), "usr_1", export.ExportOptions{
		Entity: "lakes",
		Format: export.FormatCSV,
	})
	require.Error(t, err)
	assert.Equal(t, export.CodeEntityNotFound, export.CodeOf(err))
}

func TestService_Create_UnsupportedFormat(t *testing.T) {
	service := newTestService(t, exportreq.NewMemoryRepository(), &recordingPublisher{})

	// Finance deliberately has no PDF pipeline.
	_, err := service.Create(context.Background(), "usr_1", export.ExportOptions{
		Entity: "finance",
		Format: export.FormatPDF,
	})
	require.Error(t, err)
	assert.Equal(t, export.CodeFormatNotSupported, export.CodeOf(err))
}

func TestService_Create_PermissionDenied(t *testing.T) {
	repo := exportreq.NewMemoryRepository()
	registry, err := catalog.NewRegistry()
	require.NoError(t, err)
	publisher := &recordingPublisher{}
	service := exportreq.NewService(exportreq.ServiceConfig{
		Repository: repo,
		Registry:   registry,
		Authorizer: auth.PermissionAuthorizer{},
		Publisher:  publisher,
		Logger:     zerolog.Nop(),
	})

	// The actor holds a tag for a different entity.
	ctx := auth.WithActor(context.Background(), auth.Actor{
		ID:          "usr_1",
		Permissions: []string{"exports:trees"},
	})

	_, err = service.Create(ctx, "usr_1", export.ExportOptions{
		Entity: "parks",
		Format: export.FormatCSV,
	})
	require.Error(t, err)
	assert.Equal(t, export.CodePermissionDenied, export.CodeOf(err))

	// Nothing persisted, nothing enqueued.
	requests, err := service.List(ctx, "usr_1", 10)
	require.NoError(t, err)
	assert.Empty(t, requests)
	assert.Empty(t, publisher.ids)

	// The matching tag goes through.
	granted := auth.WithActor(context.Background(), auth.Actor{
		ID:          "usr_2",
		Permissions: []string{"exports:parks"},
	})
	req, err := service.Create(granted, "usr_2", export.ExportOptions{
		Entity: "parks",
		Format: export.FormatCSV,
	})
	require.NoError(t, err)
	assert.Equal(t, exportreq.StatusPending, req.Status)
}

func TestService_Create_PublishFailureKeepsRequestPending(t *testing.T) {
	repo := exportreq.NewMemoryRepository()
	service := newTestService(t, repo, &recordingPublisher{err: errors.New("broker down")})
	ctx := context.Background()

	req, err := service.Create(ctx, "usr_1", export.ExportOptions{
		Entity: "parks",
		Format: export.FormatCSV,
	})
	require.NoError(t, err, "publish failures must not fail creation")

	stored, err := service.Get(ctx, "usr_1", req.ID)
	require.NoError(t, err)
	assert.Equal(t, exportreq.StatusPending, stored.Status)
}

func TestService_Get_OtherActorsRequestIsNotFound(t *testing.T) {
	repo := exportreq.NewMemoryRepository()
	service := newTestService(t, repo, &recordingPublisher{})
	ctx := context.Background()

	req, err := service.Create(ctx, "usr_1", export.ExportOptions{
		Entity: "parks",
		Format: export.FormatCSV,
	})
	require.NoError(t, err)

	_, err = service.Get(ctx, "usr_2", req.ID)
	assert.ErrorIs(t, err, exportreq.ErrRequestNotFound)
}

func TestService_List_NewestFirst(t *testing.T) {
	repo := exportreq.NewMemoryRepository()
	service := newTestService(t, repo, &recordingPublisher{})
	ctx := context.Background()

	for _, entity := range []string{"parks", "trees", "volunteers"} {
		_, err := service.Create(ctx, "usr_1", export.ExportOptions{
			Entity: entity,
			Format: export.FormatCSV,
		})
		require.NoError(t, err)
		time.Sleep(time.Millisecond)
	}

	requests, err := service.List(ctx, "usr_1", 2)
	require.NoError(t, err)
	require.Len(t, requests, 2)
	assert.Equal(t, "volunteers", requests[0].Entity)
	assert.Equal(t, "trees", requests[1].Entity)
}

func TestService_Download(t *testing.T) {
	repo := exportreq.NewMemoryRepository()
	service := newTestService(t, repo, &recordingPublisher{})
	ctx := context.Background()

	req, err := service.Create(ctx, "usr_1", export.ExportOptions{
		Entity: "parks",
		Format: export.FormatCSV,
	})
	require.NoError(t, err)

	// Not ready yet.
	_, _, err = service.Download(ctx, "usr_1", req.ID)
	assert.ErrorIs(t, err, exportreq.ErrArtifactNotReady)

	require.NoError(t, repo.StoreArtifact(ctx, req.ID, exportreq.Artifact{
		Filename:    "parks_2024-06-01.csv",
		MIMEType:    "text/csv; charset=utf-8",
		RecordCount: 12,
		Data:        []byte("payload"),
	}))

	got, data, err := service.Download(ctx, "usr_1", req.ID)
	require.NoError(t, err)
	assert.Equal(t, "parks_2024-06-01.csv", got.Filename)
	assert.Equal(t, []byte("payload"), data)
	assert.Equal(t, exportreq.StatusReady, got.Status)
}

func TestService_Download_Expired(t *testing.T) {
	repo := exportreq.NewMemoryRepository()
	service := newTestService(t, repo, &recordingPublisher{})
	ctx := context.Background()

	// Seed a ready request whose artifact TTL has already passed.
	now := time.Now()
	expiredAt := now.Add(-time.Hour)
	req := &exportreq.ExportRequest{
		ID:        "exp_expired0000000000000000",
		ActorID:   "usr_1",
		Entity:    "parks",
		Format:    export.FormatCSV,
		Status:    exportreq.StatusReady,
		CreatedAt: now.Add(-2 * exportreq.ArtifactTTL),
		UpdatedAt: now.Add(-2 * exportreq.ArtifactTTL),
		ExpiresAt: &expiredAt,
	}
	require.NoError(t, repo.Create(ctx, req))

	_, _, err := service.Download(ctx, "usr_1", req.ID)
	assert.ErrorIs(t, err, exportreq.ErrArtifactExpired)

	// Polling reports the expired status too.
	got, err := service.Get(ctx, "usr_1", req.ID)
	require.NoError(t, err)
	assert.Equal(t, exportreq.StatusExpired, got.Status)
}
