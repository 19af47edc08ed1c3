package resources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrimech/portal/internal/apperr"
	"github.com/agrimech/portal/internal/models"
	"github.com/agrimech/portal/internal/session"
)

func ptr[T any](v T) *T { return &v }

func TestDownload_AuthRuleAndCounter(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, &fakeFiles{}, nil)
	ctx := context.Background()

	open, err := svc.Create(ctx, Input{Title: ptr("Seed Drill Guide"), FileURL: ptr("https://cdn.example/drill.pdf")})
	require.NoError(t, err)
	gated, err := svc.Create(ctx, Input{Title: ptr("Hire Market Report"), FileURL: ptr("s3://bucket/library/r.pdf"), RequiresAuth: ptr(true)})
	require.NoError(t, err)

	url, err := svc.Download(ctx, open.Slug, false)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/drill.pdf", url)
	assert.Equal(t, 1, store.items[open.ID].DownloadCount)

	_, err = svc.Download(ctx, gated.Slug, false)
	assert.ErrorIs(t, err, apperr.ErrAuthRequired)
	assert.Equal(t, 0, store.items[gated.ID].DownloadCount)

	url, err = svc.Download(ctx, gated.Slug, true)
	require.NoError(t, err)
	assert.Equal(t, "https://signed.example/bucket/library/r.pdf", url)

	_, err = svc.Download(ctx, "nope", true)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestListPublic_FiltersAndRedacts(t *testing.T) {
	svc := NewService(newMemStore(), nil, nil)
	ctx := context.Background()
	_, err := svc.Create(ctx, Input{Title: ptr("Irrigation Pumps"), Category: ptr("guides"), FileURL: ptr("https://cdn/a.pdf")})
	require.NoError(t, err)
	_, err = svc.Create(ctx, Input{Title: ptr("Draft"), Category: ptr("guides"), FileURL: ptr("https://cdn/b.pdf"), IsPublic: ptr(false)})
	require.NoError(t, err)
	_, err = svc.Create(ctx, Input{Title: ptr("Annual Report"), Category: ptr("reports"), FileURL: ptr("https://cdn/c.pdf")})
	require.NoError(t, err)

	list, total, err := svc.ListPublic(ctx, "guides", "", 20, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Empty(t, list[0].FileURL)

	list, _, err = svc.ListPublic(ctx, "", "annual", 20, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "annual-report", list[0].Slug)

	cats, err := svc.Categories(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"guides", "reports"}, cats)
}

func TestUploadAndDelete(t *testing.T) {
	files := &fakeFiles{}
	svc := NewService(newMemStore(), files, nil)
	ctx := context.Background()

	_, err := svc.UploadFile(ctx, Upload{Filename: "tool.exe", Size: 10, Body: strings.NewReader("x")})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	item, err := svc.UploadFile(ctx, Upload{Filename: "Thresher Manual.pdf", Size: 3, Body: strings.NewReader("pdf"), Category: "Post Harvest"})
	require.NoError(t, err)
	assert.Equal(t, "thresher-manual-pdf", item.Slug)
	assert.Equal(t, "application/pdf", item.FileType)
	require.Len(t, files.keys, 1)
	assert.True(t, strings.HasPrefix(files.keys[0], "library/post-harvest/"))

	require.NoError(t, svc.Delete(ctx, item.ID))
	assert.Equal(t, []string{item.FileURL}, files.deleted)
	assert.ErrorIs(t, svc.Delete(ctx, item.ID), apperr.ErrNotFound)

	_, err = NewService(newMemStore(), nil, nil).UploadFile(ctx, Upload{Filename: "a.pdf", Body: strings.NewReader("")})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestUpdate_ReplacingFileDeletesOld(t *testing.T) {
	files := &fakeFiles{}
	svc := NewService(newMemStore(), files, nil)
	ctx := context.Background()
	item, err := svc.Create(ctx, Input{Title: ptr("Guide"), FileURL: ptr("s3://bucket/library/old.pdf")})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, item.ID, Input{FileURL: ptr("s3://bucket/library/new.pdf")})
	require.NoError(t, err)
	assert.Equal(t, "s3://bucket/library/new.pdf", updated.FileURL)
	assert.Equal(t, []string{"s3://bucket/library/old.pdf"}, files.deleted)

	_, err = svc.Update(ctx, item.ID, Input{Title: ptr(" ")})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestHandler_DownloadUsesSession(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := NewService(newMemStore(), nil, nil)
	_, err := svc.Create(context.Background(), Input{Title: ptr("Members Toolkit"), FileURL: ptr("https://cdn/t.zip"), RequiresAuth: ptr(true)})
	require.NoError(t, err)

	route := func(user *models.User) *gin.Engine {
		r := gin.New()
		r.Use(func(c *gin.Context) {
			if user != nil {
				c.Set(session.ContextUser, user)
			}
		})
		r.GET("/api/resources/:slug/download", NewHandler(svc, nil).Download)
		return r
	}

	w := httptest.NewRecorder()
	route(nil).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/resources/members-toolkit/download", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	route(&models.User{ID: uuid.New()}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/resources/members-toolkit/download", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "https://cdn/t.zip")
}
