package events

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrimech/portal/internal/apperr"
	"github.com/agrimech/portal/internal/models"
)

type memStore struct {
	mu     sync.Mutex
	events map[uuid.UUID]*models.Event
}

func newMemStore() *memStore {
	return &memStore{events: make(map[uuid.UUID]*models.Event)}
}

func (m *memStore) Create(_ context.Context, e *models.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.ID = uuid.New()
	cp := *e
	m.events[e.ID] = &cp
	return nil
}

func (m *memStore) GetByID(_ context.Context, id uuid.UUID) (*models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[id]
	if !ok {
		return nil, apperr.NotFound("event")
	}
	cp := *e
	return &cp, nil
}

func (m *memStore) GetBySlug(_ context.Context, slug string, publicOnly bool) (*models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.events {
		if e.Slug == slug && (!publicOnly || e.IsPublic) {
			cp := *e
			return &cp, nil
		}
	}
	return nil, apperr.NotFound("event")
}

func (m *memStore) SlugExists(_ context.Context, slug string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.events {
		if e.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) List(_ context.Context, f Filter) ([]models.Event, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := make([]models.Event, 0)
	for _, e := range m.events {
		if f.PublicOnly && !e.IsPublic {
			continue
		}
		if f.UpcomingAfter != nil {
			end := e.StartDate
			if e.EndDate != nil {
				end = *e.EndDate
			}
			if end.Before(*f.UpcomingAfter) {
				continue
			}
		}
		list = append(list, *e)
	}
	return list, len(list), nil
}

func (m *memStore) Update(_ context.Context, e *models.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *e
	m.events[e.ID] = &cp
	return nil
}

func (m *memStore) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.events[id]; !ok {
		return apperr.NotFound("event")
	}
	delete(m.events, id)
	return nil
}

func ptr[T any](v T) *T { return &v }

func newTestService() *Service {
	svc := NewService(newMemStore(), nil)
	svc.now = func() time.Time { return time.Date(2031, 6, 1, 0, 0, 0, 0, time.UTC) }
	return svc
}

func TestCreate_DerivesSlugAndParsesDates(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	e, err := svc.Create(ctx, Input{Title: ptr("Mechanization Field Day"), StartDate: ptr("2031-07-10"), EndDate: ptr("2031-07-11T17:00:00Z")})
	require.NoError(t, err)
	assert.Equal(t, "mechanization-field-day", e.Slug)
	assert.True(t, e.IsPublic)
	assert.Equal(t, 10, e.StartDate.Day())
	require.NotNil(t, e.EndDate)

	again, err := svc.Create(ctx, Input{Title: ptr("Mechanization Field Day"), StartDate: ptr("2031-08-01")})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(again.Slug, "mechanization-field-day-"))
}

func TestCreate_RejectsBadDates(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, Input{Title: ptr("Expo"), StartDate: ptr("next tuesday")})
	assert.ErrorIs(t, err, apperr.ErrInvalidDate)

	_, err = svc.Create(ctx, Input{Title: ptr("Expo"), StartDate: ptr("2031-07-10"), EndDate: ptr("2031-07-09")})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.Create(ctx, Input{Title: ptr("Expo")})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestUpdate_PartialAndClearEndDate(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	e, err := svc.Create(ctx, Input{Title: ptr("Training"), StartDate: ptr("2031-07-10"), EndDate: ptr("2031-07-12"), Location: ptr("Kaduna")})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, e.ID, Input{EndDate: ptr("")})
	require.NoError(t, err)
	assert.Nil(t, updated.EndDate)
	assert.Equal(t, "Kaduna", updated.Location)

	_, err = svc.Update(ctx, e.ID, Input{EndDate: ptr("2031-07-01")})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.Update(ctx, uuid.New(), Input{})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestListPublic_UpcomingHidesPastAndPrivate(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	_, err := svc.Create(ctx, Input{Title: ptr("Past"), StartDate: ptr("2031-01-10")})
	require.NoError(t, err)
	_, err = svc.Create(ctx, Input{Title: ptr("Hidden"), StartDate: ptr("2031-09-10"), IsPublic: ptr(false)})
	require.NoError(t, err)
	_, err = svc.Create(ctx, Input{Title: ptr("Next"), StartDate: ptr("2031-09-10")})
	require.NoError(t, err)

	list, total, err := svc.ListPublic(ctx, true, "", 20, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "next", list[0].Slug)

	_, err = svc.GetPublic(ctx, "hidden")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestHandler_GetAndDelete(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := newTestService()
	e, err := svc.Create(context.Background(), Input{Title: ptr("Harvest Expo"), StartDate: ptr("2031-09-10")})
	require.NoError(t, err)

	h := NewHandler(svc, nil)
	r := gin.New()
	r.GET("/api/events/:slug", h.Get)
	r.DELETE("/api/admin/events/:id", h.Delete)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/events/harvest-expo", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"title":"Harvest Expo"`)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/admin/events/"+e.ID.String(), nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/admin/events/"+e.ID.String(), nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
