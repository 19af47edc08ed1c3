package resources

import (
	"context"
	"io"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agrimech/portal/internal/apperr"
	"github.com/agrimech/portal/internal/metrics"
	"github.com/agrimech/portal/internal/models"
	"github.com/agrimech/portal/pkg/storage"
	"github.com/agrimech/portal/pkg/utils"
)

// Store is the library persistence the service depends on.
type Store interface {
	Create(ctx context.Context, item *models.LibraryResource) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.LibraryResource, error)
	GetBySlug(ctx context.Context, slug string, publicOnly bool) (*models.LibraryResource, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	List(ctx context.Context, f Filter) ([]models.LibraryResource, int, error)
	Update(ctx context.Context, item *models.LibraryResource) error
	Delete(ctx context.Context, id uuid.UUID) (*models.LibraryResource, error)
	IncrementDownloads(ctx context.Context, id uuid.UUID) error
	Categories(ctx context.Context) ([]string, error)
}

// FileStore resolves and manages stored files. A nil FileStore serves stored URLs as-is.
type FileStore interface {
	ResolveDownloadURL(ctx context.Context, stored string) (string, error)
	Upload(ctx context.Context, key, contentType string, body io.Reader, contentLength int64) (string, error)
	DeleteObject(ctx context.Context, stored string) error
}

// Input carries admin-supplied library fields. Nil fields are left unchanged on update.
type Input struct {
	Slug         *string `json:"slug"`
	Title        *string `json:"title"`
	Description  *string `json:"description"`
	Category     *string `json:"category"`
	FileURL      *string `json:"fileUrl"`
	FileType     *string `json:"fileType"`
	RequiresAuth *bool   `json:"requiresAuth"`
	IsPublic     *bool   `json:"isPublic"`
}

// Upload is a file posted to the library.
type Upload struct {
	Filename     string
	Size         int64
	Body         io.Reader
	Title        string
	Description  string
	Category     string
	RequiresAuth bool
}

// Service manages the site resource library.
type Service struct {
	store  Store
	files  FileStore
	logger *zap.Logger
}

// NewService creates a library service. files may be nil.
func NewService(store Store, files FileStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, files: files, logger: logger}
}

// ListPublic returns published items with file locations removed; files are fetched through Download.
func (s *Service) ListPublic(ctx context.Context, category, search string, limit, offset int) ([]models.LibraryResource, int, error) {
	list, total, err := s.store.List(ctx, Filter{
		PublicOnly: true,
		Category:   strings.TrimSpace(category),
		Search:     strings.TrimSpace(search),
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		return nil, 0, err
	}
	for i := range list {
		list[i].FileURL = ""
	}
	return list, total, nil
}

// GetPublic returns a published item by slug without its file location.
func (s *Service) GetPublic(ctx context.Context, slug string) (*models.LibraryResource, error) {
	item, err := s.store.GetBySlug(ctx, slug, true)
	if err != nil {
		return nil, err
	}
	item.FileURL = ""
	return item, nil
}

// Categories returns the categories in use by published items.
func (s *Service) Categories(ctx context.Context) ([]string, error) {
	return s.store.Categories(ctx)
}

// Download checks access to a published item, counts the download and returns a fetchable URL.
func (s *Service) Download(ctx context.Context, slug string, authenticated bool) (string, error) {
	item, err := s.store.GetBySlug(ctx, slug, true)
	if err != nil {
		return "", err
	}
	if item.RequiresAuth && !authenticated {
		return "", apperr.ErrAuthRequired
	}
	if err := s.store.IncrementDownloads(ctx, item.ID); err != nil {
		s.logger.Warn("download counter not updated", zap.Error(err), zap.String("resource_id", item.ID.String()))
	}
	metrics.ResourceDownloadsTotal.WithLabelValues("library_resource").Inc()
	if s.files == nil {
		return item.FileURL, nil
	}
	return s.files.ResolveDownloadURL(ctx, item.FileURL)
}

// AdminList returns every item including file locations.
func (s *Service) AdminList(ctx context.Context, category, search string, limit, offset int) ([]models.LibraryResource, int, error) {
	return s.store.List(ctx, Filter{Category: category, Search: search, Limit: limit, Offset: offset})
}

// Get returns an item by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.LibraryResource, error) {
	return s.store.GetByID(ctx, id)
}

// Create adds an item. Title and file URL are required.
func (s *Service) Create(ctx context.Context, in Input) (*models.LibraryResource, error) {
	item := &models.LibraryResource{IsPublic: true}
	apply(item, in)
	if item.Title == "" {
		return nil, apperr.Validation("title is required")
	}
	if item.FileURL == "" {
		return nil, apperr.Validation("fileUrl is required")
	}
	if err := s.create(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// UploadFile stores a file in the library bucket and creates an item pointing at it.
func (s *Service) UploadFile(ctx context.Context, up Upload) (*models.LibraryResource, error) {
	if s.files == nil {
		return nil, apperr.Validation("file uploads are not configured")
	}
	if up.Size > storage.MaxResourceFileSize {
		return nil, apperr.Validation("file size exceeds 50MB limit")
	}
	if !storage.ValidateResourceFileType(up.Filename) {
		return nil, apperr.Validation("file type not allowed")
	}
	title := strings.TrimSpace(up.Title)
	if title == "" {
		title = up.Filename
	}
	category := strings.TrimSpace(up.Category)
	owner := utils.Slugify(category)
	if owner == "" {
		owner = "general"
	}
	contentType := storage.ContentTypeForFilename(up.Filename)
	stored, err := s.files.Upload(ctx, storage.ResourceKey(storage.FolderLibrary, owner, up.Filename), contentType, up.Body, up.Size)
	if err != nil {
		return nil, err
	}
	item := &models.LibraryResource{
		Title:        title,
		Description:  strings.TrimSpace(up.Description),
		Category:     category,
		FileURL:      stored,
		FileType:     contentType,
		RequiresAuth: up.RequiresAuth,
		IsPublic:     true,
	}
	if err := s.create(ctx, item); err != nil {
		s.deleteFile(ctx, stored)
		return nil, err
	}
	return item, nil
}

func (s *Service) create(ctx context.Context, item *models.LibraryResource) error {
	if item.Slug == "" {
		slug, err := s.uniqueSlug(ctx, item.Title)
		if err != nil {
			return err
		}
		item.Slug = slug
	}
	if err := s.store.Create(ctx, item); err != nil {
		return err
	}
	s.logger.Info("library resource created", zap.String("resource_id", item.ID.String()), zap.String("slug", item.Slug))
	return nil
}

// Update applies the non-nil fields of in to an item.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in Input) (*models.LibraryResource, error) {
	item, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := item.FileURL
	apply(item, in)
	switch {
	case item.Title == "":
		return nil, apperr.Validation("title cannot be empty")
	case item.Slug == "":
		return nil, apperr.Validation("slug must not be empty")
	case item.FileURL == "":
		return nil, apperr.Validation("fileUrl cannot be empty")
	}
	if err := s.store.Update(ctx, item); err != nil {
		return nil, err
	}
	if previous != item.FileURL {
		s.deleteFile(ctx, previous)
	}
	return item, nil
}

// Delete removes an item and its stored file.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	item, err := s.store.Delete(ctx, id)
	if err != nil {
		return err
	}
	s.deleteFile(ctx, item.FileURL)
	return nil
}

func (s *Service) deleteFile(ctx context.Context, stored string) {
	if s.files == nil || stored == "" {
		return
	}
	if err := s.files.DeleteObject(ctx, stored); err != nil {
		s.logger.Warn("stored file not deleted", zap.Error(err), zap.String("file_url", stored))
	}
}

func apply(item *models.LibraryResource, in Input) {
	if in.Slug != nil {
		item.Slug = utils.Slugify(*in.Slug)
	}
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = strings.TrimSpace(*v)
		}
	}
	set(&item.Title, in.Title)
	set(&item.Description, in.Description)
	set(&item.Category, in.Category)
	set(&item.FileURL, in.FileURL)
	set(&item.FileType, in.FileType)
	if in.RequiresAuth != nil {
		item.RequiresAuth = *in.RequiresAuth
	}
	if in.IsPublic != nil {
		item.IsPublic = *in.IsPublic
	}
}

func (s *Service) uniqueSlug(ctx context.Context, title string) (string, error) {
	base := utils.Slugify(title)
	if base == "" {
		base = "resource"
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
