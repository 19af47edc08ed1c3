package contacts

import (
	"context"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agrimech/portal/internal/apperr"
	"github.com/agrimech/portal/internal/models"
)

const (
	maxNameLen    = 200
	maxSubjectLen = 300
	maxMessageLen = 5000
)

// Store is the contact form persistence the service depends on.
type Store interface {
	Create(ctx context.Context, f *models.ContactForm) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.ContactForm, error)
	List(ctx context.Context, status models.ContactStatus, limit, offset int) ([]models.ContactForm, int, error)
	SetStatus(ctx context.Context, id uuid.UUID, from, to models.ContactStatus) (*models.ContactForm, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Notifier sends the acknowledgement to the sender of a message.
type Notifier interface {
	SendContactAcknowledgement(ctx context.Context, to, name, subject string) error
}

// Submission is a message posted from the contact page.
type Submission struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Organization string `json:"organization"`
	Subject      string `json:"subject"`
	Message      string `json:"message"`
	InquiryType  string `json:"inquiryType"`
}

// Service accepts contact messages and lets admins work through them.
type Service struct {
	store    Store
	notifier Notifier
	logger   *zap.Logger
}

// NewService creates a contacts service. notifier may be nil.
func NewService(store Store, notifier Notifier, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, notifier: notifier, logger: logger}
}

// Submit validates and stores a message, then queues the acknowledgement email.
func (s *Service) Submit(ctx context.Context, in Submission) (*models.ContactForm, error) {
	f := &models.ContactForm{
		Name:         strings.TrimSpace(in.Name),
		Email:        strings.TrimSpace(strings.ToLower(in.Email)),
		Organization: strings.TrimSpace(in.Organization),
		Subject:      strings.TrimSpace(in.Subject),
		Message:      strings.TrimSpace(in.Message),
		InquiryType:  strings.TrimSpace(in.InquiryType),
	}
	if err := validate(f); err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, f); err != nil {
		return nil, err
	}
	s.logger.Info("contact message received", zap.String("contact_id", f.ID.String()), zap.String("inquiry_type", f.InquiryType))
	if s.notifier != nil {
		if err := s.notifier.SendContactAcknowledgement(ctx, f.Email, f.Name, f.Subject); err != nil {
			s.logger.Warn("contact acknowledgement not queued", zap.Error(err), zap.String("contact_id", f.ID.String()))
		}
	}
	return f, nil
}

func validate(f *models.ContactForm) error {
	switch {
	case f.Name == "":
		return apperr.Validation("name is required")
	case len(f.Name) > maxNameLen:
		return apperr.Validation("name is too long")
	case f.Subject == "":
		return apperr.Validation("subject is required")
	case len(f.Subject) > maxSubjectLen:
		return apperr.Validation("subject is too long")
	case f.Message == "":
		return apperr.Validation("message is required")
	case len(f.Message) > maxMessageLen:
		return apperr.Validation("message is too long")
	}
	addr, err := mail.ParseAddress(f.Email)
	if err != nil || addr.Address != f.Email {
		return apperr.Validation("invalid email address")
	}
	return nil
}

// List returns messages, optionally filtered by status.
func (s *Service) List(ctx context.Context, status string, limit, offset int) ([]models.ContactForm, int, error) {
	st := models.ContactStatus(status)
	if status != "" && !st.Valid() {
		return nil, 0, apperr.Validation("invalid status")
	}
	return s.store.List(ctx, st, limit, offset)
}

// Get returns one message.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.ContactForm, error) {
	return s.store.GetByID(ctx, id)
}

// UpdateStatus moves a message to next if the workflow allows it.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, next models.ContactStatus) (*models.ContactForm, error) {
	if !next.Valid() {
		return nil, apperr.Validation("invalid status")
	}
	f, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !f.Status.CanTransitionTo(next) {
		return nil, apperr.ErrInvalidTransition
	}
	if f.Status == next {
		return f, nil
	}
	return s.store.SetStatus(ctx, id, f.Status, next)
}

// Delete removes a message.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.store.Delete(ctx, id)
}
