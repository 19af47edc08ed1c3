package admin

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/agrimech/portal/internal/apperr"
	"github.com/agrimech/portal/internal/models"
)

type memStore struct {
	mu     sync.Mutex
	admins map[uuid.UUID]*models.AdminUser
}

func newMemStore() *memStore {
	return &memStore{admins: make(map[uuid.UUID]*models.AdminUser)}
}

func (m *memStore) Create(_ context.Context, a *models.AdminUser) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.admins {
		if existing.Username == a.Username {
			return apperr.Validation("username already taken")
		}
	}
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	cp := *a
	m.admins[a.ID] = &cp
	return nil
}

func (m *memStore) find(match func(*models.AdminUser) bool) (*models.AdminUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.admins {
		if match(a) {
			cp := *a
			return &cp, nil
		}
	}
	return nil, apperr.NotFound("admin")
}

func (m *memStore) GetByID(_ context.Context, id uuid.UUID) (*models.AdminUser, error) {
	return m.find(func(a *models.AdminUser) bool { return a.ID == id })
}

func (m *memStore) GetByUsername(_ context.Context, username string) (*models.AdminUser, error) {
	return m.find(func(a *models.AdminUser) bool { return a.Username == username })
}

func (m *memStore) GetByEmail(_ context.Context, email string) (*models.AdminUser, error) {
	return m.find(func(a *models.AdminUser) bool { return a.Email == email })
}

func (m *memStore) UpdateLastLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.admins[id]; ok {
		a.LastLoginAt = &at
	}
	return nil
}

func (m *memStore) SetPasswordResetToken(_ context.Context, id uuid.UUID, token string, expires time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.admins[id]
	if !ok {
		return apperr.NotFound("admin")
	}
	a.PasswordResetToken = &token
	a.PasswordResetExpires = &expires
	return nil
}

func (m *memStore) ResetPassword(_ context.Context, token, passwordHash string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.admins {
		if a.PasswordResetToken != nil && *a.PasswordResetToken == token && a.PasswordResetExpires.After(now) {
			a.PasswordHash = passwordHash
			a.PasswordResetToken = nil
			a.PasswordResetExpires = nil
			return nil
		}
	}
	return apperr.ErrInvalidOrExpiredToken
}

func (m *memStore) Update(_ context.Context, id uuid.UUID, in Update) (*models.AdminUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.admins[id]
	if !ok {
		return nil, apperr.NotFound("admin")
	}
	if in.FullName != nil {
		a.FullName = *in.FullName
	}
	if in.Email != nil {
		a.Email = *in.Email
	}
	if in.Role != nil {
		a.Role = *in.Role
	}
	if in.IsActive != nil {
		a.IsActive = *in.IsActive
	}
	if in.passwordHash != nil {
		a.PasswordHash = *in.passwordHash
	}
	cp := *a
	return &cp, nil
}

func (m *memStore) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.admins[id]; !ok {
		return apperr.NotFound("admin")
	}
	delete(m.admins, id)
	return nil
}

func (m *memStore) List(_ context.Context) ([]models.AdminUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := make([]models.AdminUser, 0, len(m.admins))
	for _, a := range m.admins {
		list = append(list, *a)
	}
	return list, nil
}

type fakeNotifier struct {
	mu     sync.Mutex
	tokens []string
}

func (f *fakeNotifier) SendAdminPasswordReset(_ context.Context, _, _, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens = append(f.tokens, token)
	return nil
}
