package resources

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/agrimech/portal/internal/apperr"
	"github.com/agrimech/portal/internal/models"
)

type memStore struct {
	mu    sync.Mutex
	items map[uuid.UUID]*models.LibraryResource
}

func newMemStore() *memStore {
	return &memStore{items: make(map[uuid.UUID]*models.LibraryResource)}
}

func (m *memStore) Create(_ context.Context, item *models.LibraryResource) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	item.ID = uuid.New()
	cp := *item
	m.items[item.ID] = &cp
	return nil
}

func (m *memStore) GetByID(_ context.Context, id uuid.UUID) (*models.LibraryResource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[id]
	if !ok {
		return nil, apperr.NotFound("resource")
	}
	cp := *item
	return &cp, nil
}

func (m *memStore) GetBySlug(_ context.Context, slug string, publicOnly bool) (*models.LibraryResource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, item := range m.items {
		if item.Slug == slug && (!publicOnly || item.IsPublic) {
			cp := *item
			return &cp, nil
		}
	}
	return nil, apperr.NotFound("resource")
}

func (m *memStore) SlugExists(_ context.Context, slug string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, item := range m.items {
		if item.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) List(_ context.Context, f Filter) ([]models.LibraryResource, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := make([]models.LibraryResource, 0)
	for _, item := range m.items {
		if f.PublicOnly && !item.IsPublic {
			continue
		}
		if f.Category != "" && item.Category != f.Category {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(item.Title+" "+item.Description), strings.ToLower(f.Search)) {
			continue
		}
		list = append(list, *item)
	}
	return list, len(list), nil
}

func (m *memStore) Update(_ context.Context, item *models.LibraryResource) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *item
	m.items[item.ID] = &cp
	return nil
}

func (m *memStore) Delete(_ context.Context, id uuid.UUID) (*models.LibraryResource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[id]
	if !ok {
		return nil, apperr.NotFound("resource")
	}
	delete(m.items, id)
	return item, nil
}

func (m *memStore) IncrementDownloads(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if item, ok := m.items[id]; ok {
		item.DownloadCount++
	}
	return nil
}

func (m *memStore) Categories(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := map[string]bool{}
	list := make([]string, 0)
	for _, item := range m.items {
		if item.IsPublic && item.Category != "" && !seen[item.Category] {
			seen[item.Category] = true
			list = append(list, item.Category)
		}
	}
	return list, nil
}

type fakeFiles struct {
	mu      sync.Mutex
	keys    []string
	deleted []string
}

func (f *fakeFiles) ResolveDownloadURL(_ context.Context, stored string) (string, error) {
	if !strings.HasPrefix(stored, "s3://") {
		return stored, nil
	}
	return "https://signed.example/" + strings.TrimPrefix(stored, "s3://"), nil
}

func (f *fakeFiles) Upload(_ context.Context, key, _ string, body io.Reader, _ int64) (string, error) {
	if _, err := io.Copy(io.Discard, body); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys = append(f.keys, key)
	return "s3://bucket/" + key, nil
}

func (f *fakeFiles) DeleteObject(_ context.Context, stored string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, stored)
	return nil
}
