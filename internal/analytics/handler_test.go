package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrimech/portal/internal/apperr"
	"github.com/agrimech/portal/internal/models"
)

type fakeSource struct {
	since    time.Time
	webinar  *WebinarSummary
	failWith error
}

func (f *fakeSource) Dashboard(_ context.Context, since time.Time) (*Dashboard, error) {
	f.since = since
	if f.failWith != nil {
		return nil, f.failWith
	}
	d := &Dashboard{Webinars: 3, NewContacts: 2, WebinarsByStatus: map[models.WebinarStatus]int{models.WebinarStatusUpcoming: 2, models.WebinarStatusCompleted: 1}}
	d.Users.Total = 10
	return d, nil
}

func (f *fakeSource) Webinar(_ context.Context, id uuid.UUID) (*WebinarSummary, error) {
	if f.webinar == nil || f.webinar.WebinarID != id {
		return nil, apperr.NotFound("webinar")
	}
	cp := *f.webinar
	return &cp, nil
}

type fakeViewers struct{}

func (fakeViewers) ViewerCount(uuid.UUID) int { return 4 }
func (fakeViewers) TotalViewers() int         { return 9 }

func newRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/api/admin/stats", h.Stats)
	r.GET("/api/admin/webinars/:id/stats", h.WebinarStats)
	return r
}

func get(r http.Handler, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestStats(t *testing.T) {
	src := &fakeSource{}
	h := NewHandler(src, fakeViewers{}, nil)
	now := time.Date(2031, 5, 31, 0, 0, 0, 0, time.UTC)
	h.now = func() time.Time { return now }

	w := get(newRouter(h), "/api/admin/stats")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, now.Add(-RecentWindow), src.since)

	var body struct {
		Data Dashboard `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 10, body.Data.Users.Total)
	assert.Equal(t, 2, body.Data.WebinarsByStatus[models.WebinarStatusUpcoming])
	assert.Equal(t, 9, body.Data.LiveViewers)
}

func TestStats_InternalErrorIsOpaque(t *testing.T) {
	h := NewHandler(&fakeSource{failWith: errors.New("pq: relation missing")}, nil, nil)
	w := get(newRouter(h), "/api/admin/stats")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "relation")
}

func TestWebinarStats(t *testing.T) {
	id := uuid.New()
	h := NewHandler(&fakeSource{webinar: &WebinarSummary{WebinarID: id, TotalRegistrations: 4, TotalAttended: 3}}, fakeViewers{}, nil)
	r := newRouter(h)

	w := get(r, "/api/admin/webinars/"+id.String()+"/stats")
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data WebinarSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Data.TotalNoShow)
	require.NotNil(t, body.Data.AttendanceRate)
	assert.InDelta(t, 0.75, *body.Data.AttendanceRate, 1e-9)
	assert.Equal(t, 4, body.Data.LiveViewers)

	assert.Equal(t, http.StatusNotFound, get(r, "/api/admin/webinars/"+uuid.NewString()+"/stats").Code)
	assert.Equal(t, http.StatusNotFound, get(r, "/api/admin/webinars/xyz/stats").Code)
}
