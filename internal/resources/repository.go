package resources

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agrimech/portal/internal/apperr"
	"github.com/agrimech/portal/internal/models"
	"github.com/agrimech/portal/pkg/database"
)

const libraryColumns = `id, slug, title, COALESCE(description, ''), COALESCE(category, ''), file_url,
	COALESCE(file_type, ''), requires_auth, download_count, is_public, created_at, updated_at`

// Filter narrows library listings.
type Filter struct {
	PublicOnly bool
	Category   string
	Search     string
	Limit      int
	Offset     int
}

// Repository handles the resources table.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a resource library repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanItem(row pgx.Row) (*models.LibraryResource, error) {
	var r models.LibraryResource
	err := row.Scan(&r.ID, &r.Slug, &r.Title, &r.Description, &r.Category, &r.FileURL, &r.FileType,
		&r.RequiresAuth, &r.DownloadCount, &r.IsPublic, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, apperr.NotFound("resource")
		}
		return nil, err
	}
	return &r, nil
}

func mapWriteErr(err error) error {
	if database.IsUniqueViolation(err, "resources_slug_key") {
		return apperr.Validation("slug already in use")
	}
	return err
}

// Create inserts a library item.
func (r *Repository) Create(ctx context.Context, item *models.LibraryResource) error {
	row := r.pool.QueryRow(ctx, `INSERT INTO resources (slug, title, description, category, file_url, file_type,
			requires_auth, is_public)
		VALUES ($1, $2, NULLIF($3,''), NULLIF($4,''), $5, NULLIF($6,''), $7, $8)
		RETURNING `+libraryColumns,
		item.Slug, item.Title, item.Description, item.Category, item.FileURL, item.FileType, item.RequiresAuth, item.IsPublic)
	created, err := scanItem(row)
	if err != nil {
		return mapWriteErr(err)
	}
	*item = *created
	return nil
}

// GetByID returns an item by id.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.LibraryResource, error) {
	return scanItem(r.pool.QueryRow(ctx, `SELECT `+libraryColumns+` FROM resources WHERE id = $1`, id))
}

// GetBySlug returns an item by slug; publicOnly hides unpublished items.
func (r *Repository) GetBySlug(ctx context.Context, slug string, publicOnly bool) (*models.LibraryResource, error) {
	return scanItem(r.pool.QueryRow(ctx, `SELECT `+libraryColumns+` FROM resources
		WHERE slug = $1 AND (NOT $2 OR is_public)`, slug, publicOnly))
}

// SlugExists reports whether slug is taken.
func (r *Repository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM resources WHERE slug = $1)`, slug).Scan(&exists)
	return exists, err
}

// List returns items newest first with the total matching count. Search matches title and
// description case-insensitively.
func (r *Repository) List(ctx context.Context, f Filter) ([]models.LibraryResource, int, error) {
	const where = ` WHERE (NOT $1 OR is_public)
		AND ($2 = '' OR category = $2)
		AND ($3 = '' OR title ILIKE '%' || $3 || '%' OR description ILIKE '%' || $3 || '%')`
	args := []any{f.PublicOnly, f.Category, f.Search}
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM resources`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+libraryColumns+` FROM resources`+where+`
		ORDER BY created_at DESC
		LIMIT $4 OFFSET $5`, append(args, f.Limit, f.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	list := make([]models.LibraryResource, 0)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, *item)
	}
	return list, total, rows.Err()
}

// Update overwrites every editable field of item.
func (r *Repository) Update(ctx context.Context, item *models.LibraryResource) error {
	row := r.pool.QueryRow(ctx, `UPDATE resources SET slug = $2, title = $3, description = NULLIF($4,''),
			category = NULLIF($5,''), file_url = $6, file_type = NULLIF($7,''), requires_auth = $8,
			is_public = $9, updated_at = NOW()
		WHERE id = $1
		RETURNING `+libraryColumns,
		item.ID, item.Slug, item.Title, item.Description, item.Category, item.FileURL, item.FileType,
		item.RequiresAuth, item.IsPublic)
	updated, err := scanItem(row)
	if err != nil {
		return mapWriteErr(err)
	}
	*item = *updated
	return nil
}

// Delete removes an item and returns it so its file can be cleaned up.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (*models.LibraryResource, error) {
	return scanItem(r.pool.QueryRow(ctx, `DELETE FROM resources WHERE id = $1 RETURNING `+libraryColumns, id))
}

// IncrementDownloads bumps the download counter.
func (r *Repository) IncrementDownloads(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `UPDATE resources SET download_count = download_count + 1 WHERE id = $1`, id)
	return err
}

// Categories returns the distinct categories of public items.
func (r *Repository) Categories(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT category FROM resources
		WHERE is_public AND category IS NOT NULL AND category <> ''
		ORDER BY category`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := make([]string, 0)
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	return list, rows.Err()
}
