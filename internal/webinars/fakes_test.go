package webinars

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/agrimech/portal/internal/apperr"
	"github.com/agrimech/portal/internal/models"
)

type memStore struct {
	mu            sync.Mutex
	webinars      map[uuid.UUID]*models.Webinar
	resources     map[uuid.UUID]*models.WebinarResource
	recordings    map[uuid.UUID]*models.WebinarRecording
	registrations map[[2]uuid.UUID]bool
}

func newMemStore() *memStore {
	return &memStore{
		webinars:      make(map[uuid.UUID]*models.Webinar),
		resources:     make(map[uuid.UUID]*models.WebinarResource),
		recordings:    make(map[uuid.UUID]*models.WebinarRecording),
		registrations: make(map[[2]uuid.UUID]bool),
	}
}

func (m *memStore) Create(_ context.Context, w *models.Webinar) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.webinars {
		if existing.Slug == w.Slug {
			return apperr.Validation("slug already in use")
		}
	}
	w.ID = uuid.New()
	w.CurrentAttendees = 0
	w.CreatedAt = time.Now()
	w.UpdatedAt = w.CreatedAt
	cp := *w
	m.webinars[w.ID] = &cp
	return nil
}

func (m *memStore) GetByID(_ context.Context, id uuid.UUID) (*models.Webinar, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.webinars[id]
	if !ok {
		return nil, apperr.NotFound("webinar")
	}
	cp := *w
	return &cp, nil
}

func (m *memStore) GetBySlug(_ context.Context, slug string, publicOnly bool) (*models.Webinar, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, w := range m.webinars {
		if w.Slug == slug && (!publicOnly || w.IsPublic) {
			cp := *w
			return &cp, nil
		}
	}
	return nil, apperr.NotFound("webinar")
}

func (m *memStore) SlugExists(_ context.Context, slug string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, w := range m.webinars {
		if w.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) List(_ context.Context, f models.WebinarFilter) ([]models.Webinar, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := make([]models.Webinar, 0)
	for _, w := range m.webinars {
		if f.PublicOnly && !w.IsPublic {
			continue
		}
		if f.Status != "" && w.Status != f.Status {
			continue
		}
		if f.Category != "" && w.Category != f.Category {
			continue
		}
		list = append(list, *w)
	}
	return list, len(list), nil
}

func (m *memStore) Update(_ context.Context, id uuid.UUID, in Update) (*models.Webinar, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.webinars[id]
	if !ok {
		return nil, apperr.NotFound("webinar")
	}
	assign(&w.Title, in.Title)
	assign(&w.Slug, in.Slug)
	assign(&w.Description, in.Description)
	assign(&w.ScheduledDate, in.ScheduledDate)
	assign(&w.Status, in.Status)
	assign(&w.IsPublic, in.IsPublic)
	assign(&w.RegistrationRequired, in.RegistrationRequired)
	if in.ClearMaxAttendees {
		w.MaxAttendees = nil
	} else if in.MaxAttendees != nil {
		v := *in.MaxAttendees
		w.MaxAttendees = &v
	}
	w.UpdatedAt = time.Now()
	cp := *w
	return &cp, nil
}

func (m *memStore) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.webinars[id]; !ok {
		return apperr.NotFound("webinar")
	}
	delete(m.webinars, id)
	return nil
}

func (m *memStore) IsRegistered(_ context.Context, webinarID, userID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.registrations[[2]uuid.UUID{webinarID, userID}], nil
}

func (m *memStore) ListResources(_ context.Context, webinarID uuid.UUID) ([]models.WebinarResource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := make([]models.WebinarResource, 0)
	for _, r := range m.resources {
		if r.WebinarID == webinarID {
			list = append(list, *r)
		}
	}
	return list, nil
}

func (m *memStore) GetResource(_ context.Context, id uuid.UUID) (*models.WebinarResource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.resources[id]
	if !ok {
		return nil, apperr.NotFound("resource")
	}
	cp := *r
	return &cp, nil
}

func (m *memStore) CreateResource(_ context.Context, res *models.WebinarResource) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	res.ID = uuid.New()
	cp := *res
	m.resources[res.ID] = &cp
	return nil
}

func (m *memStore) UpdateResource(_ context.Context, id uuid.UUID, in ResourceUpdate) (*models.WebinarResource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.resources[id]
	if !ok {
		return nil, apperr.NotFound("resource")
	}
	assign(&r.Title, in.Title)
	assign(&r.RequiresAuth, in.RequiresAuth)
	cp := *r
	return &cp, nil
}

func (m *memStore) DeleteResource(_ context.Context, id uuid.UUID) (*models.WebinarResource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.resources[id]
	if !ok {
		return nil, apperr.NotFound("resource")
	}
	delete(m.resources, id)
	return r, nil
}

func (m *memStore) IncrementDownloads(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.resources[id]; ok {
		r.DownloadCount++
	}
	return nil
}

func (m *memStore) ListRecordings(_ context.Context, webinarID uuid.UUID) ([]models.WebinarRecording, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := make([]models.WebinarRecording, 0)
	for _, r := range m.recordings {
		if r.WebinarID == webinarID {
			list = append(list, *r)
		}
	}
	return list, nil
}

func (m *memStore) GetRecording(_ context.Context, id uuid.UUID) (*models.WebinarRecording, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.recordings[id]
	if !ok {
		return nil, apperr.NotFound("recording")
	}
	cp := *r
	return &cp, nil
}

func (m *memStore) CreateRecording(_ context.Context, rec *models.WebinarRecording) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec.ID = uuid.New()
	cp := *rec
	m.recordings[rec.ID] = &cp
	return nil
}

func (m *memStore) UpdateRecording(_ context.Context, id uuid.UUID, in RecordingUpdate) (*models.WebinarRecording, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.recordings[id]
	if !ok {
		return nil, apperr.NotFound("recording")
	}
	assign(&r.Title, in.Title)
	assign(&r.RequiresAuth, in.RequiresAuth)
	cp := *r
	return &cp, nil
}

func (m *memStore) DeleteRecording(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.recordings[id]; !ok {
		return apperr.NotFound("recording")
	}
	delete(m.recordings, id)
	return nil
}

func (m *memStore) IncrementViews(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.recordings[id]; ok {
		r.ViewCount++
	}
	return nil
}

type fakeFiles struct {
	uploaded []string
	deleted  []string
}

func (f *fakeFiles) ResolveDownloadURL(_ context.Context, stored string) (string, error) {
	return "https://signed.example/" + stored, nil
}

func (f *fakeFiles) Upload(_ context.Context, key, _ string, body io.Reader, _ int64) (string, error) {
	if _, err := io.Copy(io.Discard, body); err != nil {
		return "", err
	}
	f.uploaded = append(f.uploaded, key)
	return "s3://bucket/" + key, nil
}

func (f *fakeFiles) DeleteObject(_ context.Context, stored string) error {
	f.deleted = append(f.deleted, stored)
	return nil
}
