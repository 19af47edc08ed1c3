package accounts

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/agrimech/portal/internal/apperr"
	"github.com/agrimech/portal/internal/models"
)

// memStore mirrors the repository's guarded updates in memory.
type memStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]*models.User
}

func newMemStore() *memStore {
	return &memStore{users: make(map[uuid.UUID]*models.User)}
}

func (m *memStore) Create(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return apperr.ErrDuplicateEmail
		}
	}
	u.ID = uuid.New()
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *memStore) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, apperr.NotFound("user")
	}
	cp := *u
	return &cp, nil
}

func (m *memStore) GetByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperr.NotFound("user")
}

func (m *memStore) VerifyEmail(_ context.Context, token string, now time.Time) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.EmailVerificationToken != nil && *u.EmailVerificationToken == token &&
			u.EmailVerificationExpires != nil && u.EmailVerificationExpires.After(now) {
			u.IsEmailVerified = true
			u.EmailVerificationToken, u.EmailVerificationExpires = nil, nil
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperr.ErrInvalidOrExpiredToken
}

func (m *memStore) SetVerificationToken(_ context.Context, id uuid.UUID, token string, expires time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return apperr.NotFound("user")
	}
	u.EmailVerificationToken, u.EmailVerificationExpires = &token, &expires
	return nil
}

func (m *memStore) SetPasswordResetToken(_ context.Context, id uuid.UUID, token string, expires time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return apperr.NotFound("user")
	}
	u.PasswordResetToken, u.PasswordResetExpires = &token, &expires
	return nil
}

func (m *memStore) ResetPassword(_ context.Context, token, hash string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.PasswordResetToken != nil && *u.PasswordResetToken == token &&
			u.PasswordResetExpires != nil && u.PasswordResetExpires.After(now) {
			u.PasswordHash = hash
			u.PasswordResetToken, u.PasswordResetExpires = nil, nil
			return nil
		}
	}
	return apperr.ErrInvalidOrExpiredToken
}

func (m *memStore) UpdateLastLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return apperr.NotFound("user")
	}
	u.LastLoginAt = &at
	return nil
}

func (m *memStore) UpdatePassword(_ context.Context, id uuid.UUID, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return apperr.NotFound("user")
	}
	u.PasswordHash = hash
	return nil
}

func (m *memStore) Update(_ context.Context, id uuid.UUID, in UserUpdate) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, apperr.NotFound("user")
	}
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&u.FirstName, in.FirstName)
	set(&u.LastName, in.LastName)
	set(&u.Organization, in.Organization)
	set(&u.Country, in.Country)
	set(&u.Bio, in.Bio)
	if in.Role != nil {
		u.Role = *in.Role
	}
	if in.IsActive != nil {
		u.IsActive = *in.IsActive
	}
	if in.IsEmailVerified != nil {
		u.IsEmailVerified = *in.IsEmailVerified
	}
	cp := *u
	return &cp, nil
}

func (m *memStore) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return apperr.NotFound("user")
	}
	delete(m.users, id)
	return nil
}

func (m *memStore) List(_ context.Context, f UserFilter) ([]models.User, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, *u)
	}
	return out, len(out), nil
}

type sentEmail struct {
	kind, to, token string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentEmail
	err  error
}

func (f *fakeNotifier) SendVerification(_ context.Context, to, _, token string) error {
	return f.record("verification", to, token)
}

func (f *fakeNotifier) SendPasswordReset(_ context.Context, to, _, token string) error {
	return f.record("reset", to, token)
}

func (f *fakeNotifier) record(kind, to, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentEmail{kind: kind, to: to, token: token})
	return nil
}

func (f *fakeNotifier) last(kind string) (sentEmail, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.sent) - 1; i >= 0; i-- {
		if f.sent[i].kind == kind {
			return f.sent[i], true
		}
	}
	return sentEmail{}, false
}
