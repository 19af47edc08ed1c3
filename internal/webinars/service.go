package webinars

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agrimech/portal/internal/apperr"
	"github.com/agrimech/portal/internal/metrics"
	"github.com/agrimech/portal/internal/models"
	"github.com/agrimech/portal/pkg/storage"
	"github.com/agrimech/portal/pkg/utils"
)

const (
	// DefaultPageSize and MaxPageSize bound the public listing.
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Store is the webinar persistence the service depends on.
type Store interface {
	Create(ctx context.Context, w *models.Webinar) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Webinar, error)
	GetBySlug(ctx context.Context, slug string, publicOnly bool) (*models.Webinar, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	List(ctx context.Context, f models.WebinarFilter) ([]models.Webinar, int, error)
	Update(ctx context.Context, id uuid.UUID, in Update) (*models.Webinar, error)
	Delete(ctx context.Context, id uuid.UUID) error
	IsRegistered(ctx context.Context, webinarID, userID uuid.UUID) (bool, error)

	ListResources(ctx context.Context, webinarID uuid.UUID) ([]models.WebinarResource, error)
	GetResource(ctx context.Context, id uuid.UUID) (*models.WebinarResource, error)
	CreateResource(ctx context.Context, res *models.WebinarResource) error
	UpdateResource(ctx context.Context, id uuid.UUID, in ResourceUpdate) (*models.WebinarResource, error)
	DeleteResource(ctx context.Context, id uuid.UUID) (*models.WebinarResource, error)
	IncrementDownloads(ctx context.Context, id uuid.UUID) error

	ListRecordings(ctx context.Context, webinarID uuid.UUID) ([]models.WebinarRecording, error)
	GetRecording(ctx context.Context, id uuid.UUID) (*models.WebinarRecording, error)
	CreateRecording(ctx context.Context, rec *models.WebinarRecording) error
	UpdateRecording(ctx context.Context, id uuid.UUID, in RecordingUpdate) (*models.WebinarRecording, error)
	DeleteRecording(ctx context.Context, id uuid.UUID) error
	IncrementViews(ctx context.Context, id uuid.UUID) error
}

// FileStore holds uploaded files. *storage.S3 implements it.
type FileStore interface {
	ResolveDownloadURL(ctx context.Context, stored string) (string, error)
	Upload(ctx context.Context, key, contentType string, body io.Reader, contentLength int64) (string, error)
	DeleteObject(ctx context.Context, stored string) error
}

// Input carries webinar fields from the admin API. Dates are raw strings so the service can
// report InvalidDate. Nil fields are unset.
type Input struct {
	Slug                 *string
	Title                *string
	Description          *string
	Category             *string
	SpeakerName          *string
	SpeakerTitle         *string
	SpeakerBio           *string
	SpeakerImageURL      *string
	ScheduledDate        *string
	DurationMinutes      *int
	Status               *models.WebinarStatus
	RegistrationRequired *bool
	MaxAttendees         *int
	UnlimitedAttendees   bool
	IsPublic             *bool
	MeetingURL           *string
	ThumbnailURL         *string
	Tags                 []string
}

// Update is a validated partial update of a webinar row.
type Update struct {
	Slug                 *string
	Title                *string
	Description          *string
	Category             *string
	SpeakerName          *string
	SpeakerTitle         *string
	SpeakerBio           *string
	SpeakerImageURL      *string
	ScheduledDate        *time.Time
	DurationMinutes      *int
	Status               *models.WebinarStatus
	RegistrationRequired *bool
	MaxAttendees         *int
	ClearMaxAttendees    bool
	IsPublic             *bool
	MeetingURL           *string
	ThumbnailURL         *string
	Tags                 []string
}

// ResourceUpdate is a partial update of a webinar resource.
type ResourceUpdate struct {
	Title        *string
	Description  *string
	FileURL      *string
	FileType     *string
	RequiresAuth *bool
}

// RecordingUpdate is a partial update of a webinar recording.
type RecordingUpdate struct {
	Title           *string
	VideoURL        *string
	DurationMinutes *int
	RequiresAuth    *bool
}

// Upload describes a file posted to the upload endpoint.
type Upload struct {
	Filename     string
	Size         int64
	Body         io.Reader
	Title        string
	Description  string
	RequiresAuth bool
}

// Service implements the public webinar catalogue and the admin webinar surface.
type Service struct {
	store  Store
	files  FileStore
	logger *zap.Logger
}

// NewService creates a webinar service. files may be nil when no object storage is configured.
func NewService(store Store, files FileStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, files: files, logger: logger}
}

// List returns public webinars matching f.
func (s *Service) List(ctx context.Context, f models.WebinarFilter) ([]models.Webinar, int, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, 0, apperr.Validation("invalid status")
	}
	f.PublicOnly = true
	return s.store.List(ctx, f)
}

// Detail returns a public webinar with the attachments viewer may see. A nil viewer is
// anonymous: attachments that require auth are left out and IsRegistered is false.
func (s *Service) Detail(ctx context.Context, slug string, viewer *uuid.UUID) (*models.WebinarDetail, error) {
	w, err := s.store.GetBySlug(ctx, slug, true)
	if err != nil {
		return nil, err
	}
	resources, err := s.store.ListResources(ctx, w.ID)
	if err != nil {
		return nil, err
	}
	recordings, err := s.store.ListRecordings(ctx, w.ID)
	if err != nil {
		return nil, err
	}
	d := &models.WebinarDetail{
		Webinar:    *w,
		Resources:  make([]models.WebinarResource, 0, len(resources)),
		Recordings: make([]models.WebinarRecording, 0, len(recordings)),
	}
	for _, r := range resources {
		if r.RequiresAuth && viewer == nil {
			continue
		}
		d.Resources = append(d.Resources, r.Redacted())
	}
	for _, r := range recordings {
		if r.RequiresAuth && viewer == nil {
			continue
		}
		d.Recordings = append(d.Recordings, r.Redacted())
	}
	if viewer != nil {
		d.IsRegistered, err = s.store.IsRegistered(ctx, w.ID, *viewer)
		if err != nil {
			return nil, err
		}
	}
	return d, nil
}

// DownloadResource checks access to a webinar resource, counts the download and returns a URL
// the caller can fetch.
func (s *Service) DownloadResource(ctx context.Context, slug string, resourceID uuid.UUID, authenticated bool) (string, error) {
	w, err := s.store.GetBySlug(ctx, slug, true)
	if err != nil {
		return "", err
	}
	res, err := s.store.GetResource(ctx, resourceID)
	if err != nil {
		return "", err
	}
	if res.WebinarID != w.ID {
		return "", apperr.NotFound("resource")
	}
	if res.RequiresAuth && !authenticated {
		return "", apperr.ErrAuthRequired
	}
	if err := s.store.IncrementDownloads(ctx, res.ID); err != nil {
		s.logger.Warn("download counter not updated", zap.Error(err), zap.String("resource_id", res.ID.String()))
	}
	metrics.ResourceDownloadsTotal.WithLabelValues("webinar_resource").Inc()
	return s.resolve(ctx, res.FileURL)
}

// ViewRecording applies the same access rule to a recording, counts the view and returns its URL.
func (s *Service) ViewRecording(ctx context.Context, slug string, recordingID uuid.UUID, authenticated bool) (string, error) {
	w, err := s.store.GetBySlug(ctx, slug, true)
	if err != nil {
		return "", err
	}
	rec, err := s.store.GetRecording(ctx, recordingID)
	if err != nil {
		return "", err
	}
	if rec.WebinarID != w.ID {
		return "", apperr.NotFound("recording")
	}
	if rec.RequiresAuth && !authenticated {
		return "", apperr.ErrAuthRequired
	}
	if err := s.store.IncrementViews(ctx, rec.ID); err != nil {
		s.logger.Warn("view counter not updated", zap.Error(err), zap.String("recording_id", rec.ID.String()))
	}
	metrics.ResourceDownloadsTotal.WithLabelValues("recording").Inc()
	return s.resolve(ctx, rec.VideoURL)
}

func (s *Service) resolve(ctx context.Context, stored string) (string, error) {
	if s.files == nil {
		return stored, nil
	}
	return s.files.ResolveDownloadURL(ctx, stored)
}

// AdminList returns webinars of any visibility matching f.
func (s *Service) AdminList(ctx context.Context, f models.WebinarFilter) ([]models.Webinar, int, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, 0, apperr.Validation("invalid status")
	}
	f.PublicOnly = false
	return s.store.List(ctx, f)
}

// Get returns a webinar by ID regardless of visibility.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Webinar, error) {
	return s.store.GetByID(ctx, id)
}

// Create adds a webinar. Title and scheduledDate are required; the slug is derived from the
// title when not given.
func (s *Service) Create(ctx context.Context, in Input) (*models.Webinar, error) {
	if in.Title == nil || strings.TrimSpace(*in.Title) == "" {
		return nil, apperr.Validation("title is required")
	}
	if in.ScheduledDate == nil {
		return nil, apperr.Validation("scheduledDate is required")
	}
	u, err := validate(in)
	if err != nil {
		return nil, err
	}
	w := &models.Webinar{
		Title:                strings.TrimSpace(*in.Title),
		ScheduledDate:        *u.ScheduledDate,
		DurationMinutes:      60,
		Status:               models.WebinarStatusUpcoming,
		RegistrationRequired: true,
		IsPublic:             true,
		MaxAttendees:         u.MaxAttendees,
		Tags:                 u.Tags,
	}
	assign(&w.Description, u.Description)
	assign(&w.Category, u.Category)
	assign(&w.SpeakerName, u.SpeakerName)
	assign(&w.SpeakerTitle, u.SpeakerTitle)
	assign(&w.SpeakerBio, u.SpeakerBio)
	assign(&w.SpeakerImageURL, u.SpeakerImageURL)
	assign(&w.MeetingURL, u.MeetingURL)
	assign(&w.ThumbnailURL, u.ThumbnailURL)
	assign(&w.DurationMinutes, u.DurationMinutes)
	assign(&w.Status, u.Status)
	assign(&w.RegistrationRequired, u.RegistrationRequired)
	assign(&w.IsPublic, u.IsPublic)

	if u.Slug != nil {
		w.Slug = *u.Slug
	} else {
		w.Slug, err = s.uniqueSlug(ctx, w.Title)
		if err != nil {
			return nil, err
		}
	}
	if err := s.store.Create(ctx, w); err != nil {
		return nil, err
	}
	s.logger.Info("webinar created", zap.String("webinar_id", w.ID.String()), zap.String("slug", w.Slug))
	return w, nil
}

// Update edits a webinar. The attendee counter is not editable here, and maxAttendees may not
// drop below the current attendee count.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in Input) (*models.Webinar, error) {
	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		return nil, apperr.Validation("title cannot be empty")
	}
	u, err := validate(in)
	if err != nil {
		return nil, err
	}
	if u.MaxAttendees != nil {
		current, err := s.store.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if *u.MaxAttendees < current.CurrentAttendees {
			return nil, apperr.Validation("maxAttendees cannot be below current attendees (%d)", current.CurrentAttendees)
		}
	}
	return s.store.Update(ctx, id, u)
}

// Delete removes a webinar and, best-effort, the stored files of its resources.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	resources, err := s.store.ListResources(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	for _, r := range resources {
		s.deleteFile(ctx, r.FileURL)
	}
	s.logger.Info("webinar deleted", zap.String("webinar_id", id.String()))
	return nil
}

func (s *Service) deleteFile(ctx context.Context, stored string) {
	if s.files == nil {
		return
	}
	if err := s.files.DeleteObject(ctx, stored); err != nil {
		s.logger.Warn("stored file not deleted", zap.Error(err), zap.String("file_url", stored))
	}
}

func (s *Service) uniqueSlug(ctx context.Context, title string) (string, error) {
	base := utils.Slugify(title)
	if base == "" {
		base = "webinar"
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

// ListResources returns all resources of a webinar, including file locations.
func (s *Service) ListResources(ctx context.Context, webinarID uuid.UUID) ([]models.WebinarResource, error) {
	if _, err := s.store.GetByID(ctx, webinarID); err != nil {
		return nil, err
	}
	return s.store.ListResources(ctx, webinarID)
}

// AddResource attaches a resource that already lives at fileURL.
func (s *Service) AddResource(ctx context.Context, webinarID uuid.UUID, res models.WebinarResource) (*models.WebinarResource, error) {
	if strings.TrimSpace(res.Title) == "" {
		return nil, apperr.Validation("title is required")
	}
	if strings.TrimSpace(res.FileURL) == "" {
		return nil, apperr.Validation("fileUrl is required")
	}
	if _, err := s.store.GetByID(ctx, webinarID); err != nil {
		return nil, err
	}
	res.WebinarID = webinarID
	if err := s.store.CreateResource(ctx, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// UploadResource stores an uploaded file and attaches it to the webinar.
func (s *Service) UploadResource(ctx context.Context, webinarID uuid.UUID, up Upload) (*models.WebinarResource, error) {
	if s.files == nil {
		return nil, apperr.Validation("file uploads are not configured")
	}
	if up.Size > storage.MaxResourceFileSize {
		return nil, apperr.Validation("file size exceeds 50MB limit")
	}
	if !storage.ValidateResourceFileType(up.Filename) {
		return nil, apperr.Validation("file type not allowed")
	}
	if _, err := s.store.GetByID(ctx, webinarID); err != nil {
		return nil, err
	}
	key := storage.ResourceKey(storage.FolderWebinarResources, webinarID.String(), up.Filename)
	contentType := storage.ContentTypeForFilename(up.Filename)
	stored, err := s.files.Upload(ctx, key, contentType, up.Body, up.Size)
	if err != nil {
		return nil, err
	}
	title := strings.TrimSpace(up.Title)
	if title == "" {
		title = up.Filename
	}
	res := &models.WebinarResource{
		WebinarID:    webinarID,
		Title:        title,
		Description:  up.Description,
		FileURL:      stored,
		FileType:     contentType,
		FileSize:     up.Size,
		RequiresAuth: up.RequiresAuth,
	}
	if err := s.store.CreateResource(ctx, res); err != nil {
		s.deleteFile(ctx, stored)
		return nil, err
	}
	return res, nil
}

// UpdateResource edits a webinar resource.
func (s *Service) UpdateResource(ctx context.Context, id uuid.UUID, in ResourceUpdate) (*models.WebinarResource, error) {
	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		return nil, apperr.Validation("title cannot be empty")
	}
	return s.store.UpdateResource(ctx, id, in)
}

// DeleteResource removes a webinar resource and its stored file.
func (s *Service) DeleteResource(ctx context.Context, id uuid.UUID) error {
	res, err := s.store.DeleteResource(ctx, id)
	if err != nil {
		return err
	}
	s.deleteFile(ctx, res.FileURL)
	return nil
}

// ListRecordings returns all recordings of a webinar.
func (s *Service) ListRecordings(ctx context.Context, webinarID uuid.UUID) ([]models.WebinarRecording, error) {
	if _, err := s.store.GetByID(ctx, webinarID); err != nil {
		return nil, err
	}
	return s.store.ListRecordings(ctx, webinarID)
}

// AddRecording attaches a recording to a webinar.
func (s *Service) AddRecording(ctx context.Context, webinarID uuid.UUID, rec models.WebinarRecording) (*models.WebinarRecording, error) {
	if strings.TrimSpace(rec.Title) == "" {
		return nil, apperr.Validation("title is required")
	}
	if strings.TrimSpace(rec.VideoURL) == "" {
		return nil, apperr.Validation("videoUrl is required")
	}
	if rec.DurationMinutes < 0 {
		return nil, apperr.Validation("duration cannot be negative")
	}
	if _, err := s.store.GetByID(ctx, webinarID); err != nil {
		return nil, err
	}
	rec.WebinarID = webinarID
	if err := s.store.CreateRecording(ctx, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// UpdateRecording edits a recording.
func (s *Service) UpdateRecording(ctx context.Context, id uuid.UUID, in RecordingUpdate) (*models.WebinarRecording, error) {
	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		return nil, apperr.Validation("title cannot be empty")
	}
	if in.DurationMinutes != nil && *in.DurationMinutes < 0 {
		return nil, apperr.Validation("duration cannot be negative")
	}
	return s.store.UpdateRecording(ctx, id, in)
}

// DeleteRecording removes a recording.
func (s *Service) DeleteRecording(ctx context.Context, id uuid.UUID) error {
	return s.store.DeleteRecording(ctx, id)
}

func validate(in Input) (Update, error) {
	u := Update{
		Title:                trimmed(in.Title),
		Description:          in.Description,
		Category:             in.Category,
		SpeakerName:          in.SpeakerName,
		SpeakerTitle:         in.SpeakerTitle,
		SpeakerBio:           in.SpeakerBio,
		SpeakerImageURL:      in.SpeakerImageURL,
		DurationMinutes:      in.DurationMinutes,
		Status:               in.Status,
		RegistrationRequired: in.RegistrationRequired,
		MaxAttendees:         in.MaxAttendees,
		ClearMaxAttendees:    in.UnlimitedAttendees,
		IsPublic:             in.IsPublic,
		MeetingURL:           in.MeetingURL,
		ThumbnailURL:         in.ThumbnailURL,
		Tags:                 in.Tags,
	}
	if in.ScheduledDate != nil {
		t, ok := utils.ParseDate(*in.ScheduledDate)
		if !ok {
			return Update{}, apperr.ErrInvalidDate
		}
		u.ScheduledDate = &t
	}
	if in.Slug != nil {
		slug := utils.Slugify(*in.Slug)
		if slug == "" {
			return Update{}, apperr.Validation("invalid slug")
		}
		u.Slug = &slug
	}
	if in.Status != nil && !in.Status.Valid() {
		return Update{}, apperr.Validation("invalid status")
	}
	if in.DurationMinutes != nil && *in.DurationMinutes <= 0 {
		return Update{}, apperr.Validation("duration must be positive")
	}
	if in.MaxAttendees != nil && *in.MaxAttendees < 0 {
		return Update{}, apperr.Validation("maxAttendees cannot be negative")
	}
	if in.UnlimitedAttendees {
		u.MaxAttendees = nil
	}
	return u, nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}

func assign[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
