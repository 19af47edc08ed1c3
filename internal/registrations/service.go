package registrations

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agrimech/portal/internal/apperr"
	"github.com/agrimech/portal/internal/metrics"
	"github.com/agrimech/portal/internal/models"
)

// Store is the registration persistence the service depends on.
type Store interface {
	Register(ctx context.Context, webinarID, userID uuid.UUID) (*models.WebinarRegistration, int, error)
	Cancel(ctx context.Context, webinarID, userID uuid.UUID) (int, error)
	Get(ctx context.Context, webinarID, userID uuid.UUID) (*models.WebinarRegistration, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.RegistrationView, error)
	ListForWebinar(ctx context.Context, webinarID uuid.UUID) ([]models.RegistrantView, error)
	SetAttended(ctx context.Context, id uuid.UUID, attended bool) (*models.WebinarRegistration, error)
}

// WebinarLookup resolves webinars by slug or id.
type WebinarLookup interface {
	GetBySlug(ctx context.Context, slug string, publicOnly bool) (*models.Webinar, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Webinar, error)
}

// UserLookup loads the registrant for the confirmation email.
type UserLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Notifier sends the registration confirmation.
type Notifier interface {
	SendRegistrationConfirmation(ctx context.Context, to, name string, w *models.Webinar) error
}

// CountPublisher announces attendee counts to live viewers.
type CountPublisher interface {
	PublishAttendees(webinarID uuid.UUID, count int, max *int)
}

// Status is a user's registration state for one webinar.
type Status struct {
	Registered       bool                        `json:"registered"`
	Registration     *models.WebinarRegistration `json:"registration,omitempty"`
	CurrentAttendees int                         `json:"currentAttendees"`
	MaxAttendees     *int                        `json:"maxAttendees"`
	IsFull           bool                        `json:"isFull"`
}

// Service is the webinar registration manager.
type Service struct {
	store     Store
	webinars  WebinarLookup
	users     UserLookup
	notifier  Notifier
	publisher CountPublisher
	now       func() time.Time
	logger    *zap.Logger
}

// NewService creates a registration service. notifier and publisher may be nil.
func NewService(store Store, webinars WebinarLookup, users UserLookup, notifier Notifier, publisher CountPublisher, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:     store,
		webinars:  webinars,
		users:     users,
		notifier:  notifier,
		publisher: publisher,
		now:       time.Now,
		logger:    logger,
	}
}

// Register signs userID up for the public webinar at slug. Checks run in order: webinar
// exists, registration is required, the webinar is not in the past, the user is not already
// registered, a seat is free.
func (s *Service) Register(ctx context.Context, slug string, userID uuid.UUID) (*models.WebinarRegistration, error) {
	reg, err := s.register(ctx, slug, userID)
	metrics.WebinarRegistrationsTotal.WithLabelValues(metrics.Result(err == nil, apperr.KindOf(err).String())).Inc()
	return reg, err
}

func (s *Service) register(ctx context.Context, slug string, userID uuid.UUID) (*models.WebinarRegistration, error) {
	w, err := s.webinars.GetBySlug(ctx, slug, true)
	if err != nil {
		return nil, err
	}
	if !w.RegistrationRequired {
		return nil, apperr.ErrRegistrationNotRequired
	}
	if w.ScheduledDate.Before(s.now()) {
		return nil, apperr.ErrEventInPast
	}

	reg, count, err := s.store.Register(ctx, w.ID, userID)
	if err != nil {
		return nil, err
	}
	w.CurrentAttendees = count
	s.logger.Info("webinar registration",
		zap.String("webinar_id", w.ID.String()),
		zap.String("user_id", userID.String()),
		zap.Int("attendees", count),
	)
	s.publish(w)
	s.confirm(ctx, userID, w)
	return reg, nil
}

// Cancel withdraws userID from the webinar at slug and frees the seat.
func (s *Service) Cancel(ctx context.Context, slug string, userID uuid.UUID) error {
	w, err := s.webinars.GetBySlug(ctx, slug, true)
	if err != nil {
		return err
	}
	count, err := s.store.Cancel(ctx, w.ID, userID)
	if err != nil {
		return err
	}
	w.CurrentAttendees = count
	metrics.WebinarRegistrationsTotal.WithLabelValues("cancelled").Inc()
	s.logger.Info("webinar registration cancelled", zap.String("webinar_id", w.ID.String()), zap.String("user_id", userID.String()))
	s.publish(w)
	return nil
}

// Status reports whether userID is registered for the webinar at slug, with its seat counts.
func (s *Service) Status(ctx context.Context, slug string, userID uuid.UUID) (*Status, error) {
	w, err := s.webinars.GetBySlug(ctx, slug, true)
	if err != nil {
		return nil, err
	}
	st := &Status{CurrentAttendees: w.CurrentAttendees, MaxAttendees: w.MaxAttendees, IsFull: w.IsFull()}
	reg, err := s.store.Get(ctx, w.ID, userID)
	switch {
	case err == nil:
		st.Registered = true
		st.Registration = reg
	case apperr.KindOf(err) != apperr.KindNotFound:
		return nil, err
	}
	return st, nil
}

// ListForUser returns the webinars userID is registered for.
func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.RegistrationView, error) {
	return s.store.ListForUser(ctx, userID)
}

// ListForWebinar returns the registrants of a webinar.
func (s *Service) ListForWebinar(ctx context.Context, webinarID uuid.UUID) ([]models.RegistrantView, error) {
	if _, err := s.webinars.GetByID(ctx, webinarID); err != nil {
		return nil, err
	}
	return s.store.ListForWebinar(ctx, webinarID)
}

// SetAttended marks a registration as attended or not.
func (s *Service) SetAttended(ctx context.Context, id uuid.UUID, attended bool) (*models.WebinarRegistration, error) {
	return s.store.SetAttended(ctx, id, attended)
}

func (s *Service) publish(w *models.Webinar) {
	if s.publisher != nil {
		s.publisher.PublishAttendees(w.ID, w.CurrentAttendees, w.MaxAttendees)
	}
}

func (s *Service) confirm(ctx context.Context, userID uuid.UUID, w *models.Webinar) {
	if s.notifier == nil || s.users == nil {
		return
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		s.logger.Warn("registration confirmation skipped", zap.Error(err), zap.String("user_id", userID.String()))
		return
	}
	if err := s.notifier.SendRegistrationConfirmation(ctx, u.Email, u.FirstName, w); err != nil {
		s.logger.Warn("registration confirmation not queued", zap.Error(err), zap.String("user_id", userID.String()))
	}
}
