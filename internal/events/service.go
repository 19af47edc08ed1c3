package events

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agrimech/portal/internal/apperr"
	"github.com/agrimech/portal/internal/models"
	"github.com/agrimech/portal/pkg/utils"
)

// Store is the event persistence the service depends on.
type Store interface {
	Create(ctx context.Context, e *models.Event) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error)
	GetBySlug(ctx context.Context, slug string, publicOnly bool) (*models.Event, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	List(ctx context.Context, f Filter) ([]models.Event, int, error)
	Update(ctx context.Context, e *models.Event) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Input carries admin-supplied event fields. Nil fields are left unchanged on update.
// Dates accept RFC3339 or YYYY-MM-DD; an empty EndDate clears it.
type Input struct {
	Slug            *string `json:"slug"`
	Title           *string `json:"title"`
	Description     *string `json:"description"`
	Location        *string `json:"location"`
	StartDate       *string `json:"startDate"`
	EndDate         *string `json:"endDate"`
	EventType       *string `json:"eventType"`
	RegistrationURL *string `json:"registrationUrl"`
	ImageURL        *string `json:"imageUrl"`
	IsPublic        *bool   `json:"isPublic"`
}

// Service manages field days, exhibitions and trainings.
type Service struct {
	store  Store
	now    func() time.Time
	logger *zap.Logger
}

// NewService creates an events service.
func NewService(store Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, now: time.Now, logger: logger}
}

// ListPublic returns public events. upcoming keeps only events that have not yet ended.
func (s *Service) ListPublic(ctx context.Context, upcoming bool, eventType string, limit, offset int) ([]models.Event, int, error) {
	f := Filter{PublicOnly: true, EventType: eventType, Limit: limit, Offset: offset}
	if upcoming {
		now := s.now()
		f.UpcomingAfter = &now
	}
	return s.store.List(ctx, f)
}

// GetPublic returns a public event by slug.
func (s *Service) GetPublic(ctx context.Context, slug string) (*models.Event, error) {
	return s.store.GetBySlug(ctx, slug, true)
}

// AdminList returns every event.
func (s *Service) AdminList(ctx context.Context, limit, offset int) ([]models.Event, int, error) {
	return s.store.List(ctx, Filter{Limit: limit, Offset: offset})
}

// Get returns an event by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	return s.store.GetByID(ctx, id)
}

// Create adds an event. Title and start date are required; the slug is derived from the
// title when omitted.
func (s *Service) Create(ctx context.Context, in Input) (*models.Event, error) {
	if in.Title == nil || strings.TrimSpace(*in.Title) == "" {
		return nil, apperr.Validation("title is required")
	}
	if in.StartDate == nil {
		return nil, apperr.Validation("startDate is required")
	}
	e := &models.Event{IsPublic: true}
	if err := apply(e, in); err != nil {
		return nil, err
	}
	if e.Slug == "" {
		slug, err := s.uniqueSlug(ctx, e.Title)
		if err != nil {
			return nil, err
		}
		e.Slug = slug
	}
	if err := s.store.Create(ctx, e); err != nil {
		return nil, err
	}
	s.logger.Info("event created", zap.String("event_id", e.ID.String()), zap.String("slug", e.Slug))
	return e, nil
}

// Update applies the non-nil fields of in to an event.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in Input) (*models.Event, error) {
	e, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := apply(e, in); err != nil {
		return nil, err
	}
	if e.Title == "" {
		return nil, apperr.Validation("title is required")
	}
	if e.Slug == "" {
		return nil, apperr.Validation("slug must not be empty")
	}
	if err := s.store.Update(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// Delete removes an event.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.store.Delete(ctx, id)
}

func apply(e *models.Event, in Input) error {
	if in.StartDate != nil {
		t, ok := utils.ParseDate(*in.StartDate)
		if !ok {
			return apperr.ErrInvalidDate
		}
		e.StartDate = t
	}
	if in.EndDate != nil {
		if strings.TrimSpace(*in.EndDate) == "" {
			e.EndDate = nil
		} else {
			t, ok := utils.ParseDate(*in.EndDate)
			if !ok {
				return apperr.ErrInvalidDate
			}
			e.EndDate = &t
		}
	}
	if e.EndDate != nil && e.EndDate.Before(e.StartDate) {
		return apperr.Validation("end date must not be before start date")
	}
	if in.Slug != nil {
		e.Slug = utils.Slugify(*in.Slug)
	}
	setString(&e.Title, in.Title)
	setString(&e.Description, in.Description)
	setString(&e.Location, in.Location)
	setString(&e.EventType, in.EventType)
	setString(&e.RegistrationURL, in.RegistrationURL)
	setString(&e.ImageURL, in.ImageURL)
	if in.IsPublic != nil {
		e.IsPublic = *in.IsPublic
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}

func (s *Service) uniqueSlug(ctx context.Context, title string) (string, error) {
	base := utils.Slugify(title)
	if base == "" {
		base = "event"
	}
	exists, err := s.store.SlugExists(ctx, base)
	if err != nil {
		return "", err
	}
	if !exists {
		return base, nil
	}
	return base + "-" + uuid.NewString()[:8], nil
}
