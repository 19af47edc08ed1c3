package contacts

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrimech/portal/internal/apperr"
	"github.com/agrimech/portal/internal/models"
)

type memStore struct {
	mu    sync.Mutex
	forms map[uuid.UUID]*models.ContactForm
}

func newMemStore() *memStore {
	return &memStore{forms: make(map[uuid.UUID]*models.ContactForm)}
}

func (m *memStore) Create(_ context.Context, f *models.ContactForm) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	f.ID = uuid.New()
	f.Status = models.ContactStatusNew
	f.CreatedAt = time.Now()
	f.UpdatedAt = f.CreatedAt
	cp := *f
	m.forms[f.ID] = &cp
	return nil
}

func (m *memStore) GetByID(_ context.Context, id uuid.UUID) (*models.ContactForm, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.forms[id]
	if !ok {
		return nil, apperr.NotFound("contact")
	}
	cp := *f
	return &cp, nil
}

func (m *memStore) List(_ context.Context, status models.ContactStatus, limit, offset int) ([]models.ContactForm, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := make([]models.ContactForm, 0)
	for _, f := range m.forms {
		if status == "" || f.Status == status {
			list = append(list, *f)
		}
	}
	return list, len(list), nil
}

func (m *memStore) SetStatus(_ context.Context, id uuid.UUID, from, to models.ContactStatus) (*models.ContactForm, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.forms[id]
	if !ok || f.Status != from {
		return nil, apperr.ErrInvalidTransition
	}
	f.Status = to
	cp := *f
	return &cp, nil
}

func (m *memStore) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.forms[id]; !ok {
		return apperr.NotFound("contact")
	}
	delete(m.forms, id)
	return nil
}

type fakeNotifier struct {
	to, subject string
}

func (f *fakeNotifier) SendContactAcknowledgement(_ context.Context, to, _ string, subject string) error {
	f.to, f.subject = to, subject
	return nil
}

func validSubmission() Submission {
	return Submission{
		Name:        "Amina Okoro",
		Email:       "Amina@Example.com ",
		Subject:     "Tractor leasing",
		Message:     "Do you run leasing schemes for smallholders?",
		InquiryType: "partnership",
	}
}

func TestSubmit_StoresAndAcknowledges(t *testing.T) {
	notifier := &fakeNotifier{}
	svc := NewService(newMemStore(), notifier, nil)

	f, err := svc.Submit(context.Background(), validSubmission())
	require.NoError(t, err)
	assert.Equal(t, models.ContactStatusNew, f.Status)
	assert.Equal(t, "amina@example.com", f.Email)
	assert.Equal(t, "amina@example.com", notifier.to)
	assert.Equal(t, "Tractor leasing", notifier.subject)
}

func TestSubmit_Validation(t *testing.T) {
	svc := NewService(newMemStore(), nil, nil)
	cases := map[string]func(*Submission){
		"missing name":    func(s *Submission) { s.Name = " " },
		"missing subject": func(s *Submission) { s.Subject = "" },
		"missing message": func(s *Submission) { s.Message = "" },
		"bad email":       func(s *Submission) { s.Email = "not-an-email" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := validSubmission()
			mutate(&in)
			_, err := svc.Submit(context.Background(), in)
			assert.ErrorIs(t, err, apperr.ErrValidation)
		})
	}
}

func TestUpdateStatus_Workflow(t *testing.T) {
	svc := NewService(newMemStore(), nil, nil)
	ctx := context.Background()
	f, err := svc.Submit(ctx, validSubmission())
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, f.ID, models.ContactStatusResponded)
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)

	got, err := svc.UpdateStatus(ctx, f.ID, models.ContactStatusRead)
	require.NoError(t, err)
	assert.Equal(t, models.ContactStatusRead, got.Status)

	got, err = svc.UpdateStatus(ctx, f.ID, models.ContactStatusRead)
	require.NoError(t, err)
	assert.Equal(t, models.ContactStatusRead, got.Status)

	_, err = svc.UpdateStatus(ctx, f.ID, models.ContactStatusResponded)
	require.NoError(t, err)
	_, err = svc.UpdateStatus(ctx, f.ID, models.ContactStatusClosed)
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, f.ID, models.ContactStatusNew)
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)

	_, err = svc.UpdateStatus(ctx, f.ID, "archived")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.UpdateStatus(ctx, uuid.New(), models.ContactStatusRead)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestList_FiltersByStatus(t *testing.T) {
	svc := NewService(newMemStore(), nil, nil)
	ctx := context.Background()
	first, err := svc.Submit(ctx, validSubmission())
	require.NoError(t, err)
	_, err = svc.Submit(ctx, validSubmission())
	require.NoError(t, err)
	_, err = svc.UpdateStatus(ctx, first.ID, models.ContactStatusClosed)
	require.NoError(t, err)

	list, total, err := svc.List(ctx, "new", 50, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, list, 1)

	_, _, err = svc.List(ctx, "bogus", 50, 0)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}
