package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agrimech/portal/internal/apperr"
	"github.com/agrimech/portal/internal/models"
	"github.com/agrimech/portal/pkg/database"
)

const eventColumns = `id, slug, title, description, COALESCE(location, ''), start_date, end_date,
	COALESCE(event_type, ''), COALESCE(registration_url, ''), COALESCE(image_url, ''), is_public,
	created_at, updated_at`

// Filter narrows event listings.
type Filter struct {
	PublicOnly bool
	// UpcomingAfter, when set, keeps events that have not ended by that time.
	UpcomingAfter *time.Time
	EventType     string
	Limit         int
	Offset        int
}

// Repository handles events persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an events repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanEvent(row pgx.Row) (*models.Event, error) {
	var e models.Event
	err := row.Scan(&e.ID, &e.Slug, &e.Title, &e.Description, &e.Location, &e.StartDate, &e.EndDate,
		&e.EventType, &e.RegistrationURL, &e.ImageURL, &e.IsPublic, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, apperr.NotFound("event")
		}
		return nil, err
	}
	return &e, nil
}

func mapWriteErr(err error) error {
	switch {
	case database.IsUniqueViolation(err, "events_slug_key"):
		return apperr.Validation("slug already in use")
	case database.IsCheckViolation(err, "events_dates"):
		return apperr.Validation("end date must not be before start date")
	}
	return err
}

// Create inserts an event.
func (r *Repository) Create(ctx context.Context, e *models.Event) error {
	row := r.pool.QueryRow(ctx, `INSERT INTO events (slug, title, description, location, start_date, end_date,
			event_type, registration_url, image_url, is_public)
		VALUES ($1, $2, $3, NULLIF($4,''), $5, $6, NULLIF($7,''), NULLIF($8,''), NULLIF($9,''), $10)
		RETURNING `+eventColumns,
		e.Slug, e.Title, e.Description, e.Location, e.StartDate, e.EndDate, e.EventType, e.RegistrationURL,
		e.ImageURL, e.IsPublic)
	created, err := scanEvent(row)
	if err != nil {
		return mapWriteErr(err)
	}
	*e = *created
	return nil
}

// GetByID returns an event by id.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	return scanEvent(r.pool.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id))
}

// GetBySlug returns an event by slug; publicOnly hides non-public events.
func (r *Repository) GetBySlug(ctx context.Context, slug string, publicOnly bool) (*models.Event, error) {
	return scanEvent(r.pool.QueryRow(ctx, `SELECT `+eventColumns+` FROM events
		WHERE slug = $1 AND (NOT $2 OR is_public)`, slug, publicOnly))
}

// SlugExists reports whether slug is taken.
func (r *Repository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM events WHERE slug = $1)`, slug).Scan(&exists)
	return exists, err
}

// List returns events ordered by start date, with the total matching count.
func (r *Repository) List(ctx context.Context, f Filter) ([]models.Event, int, error) {
	const where = ` WHERE (NOT $1 OR is_public)
		AND ($2::timestamptz IS NULL OR COALESCE(end_date, start_date) >= $2)
		AND ($3 = '' OR event_type = $3)`
	args := []any{f.PublicOnly, f.UpcomingAfter, f.EventType}
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM events`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+eventColumns+` FROM events`+where+`
		ORDER BY start_date ASC
		LIMIT $4 OFFSET $5`, append(args, f.Limit, f.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	list := make([]models.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, *e)
	}
	return list, total, rows.Err()
}

// Update overwrites every editable field of e.
func (r *Repository) Update(ctx context.Context, e *models.Event) error {
	row := r.pool.QueryRow(ctx, `UPDATE events SET slug = $2, title = $3, description = $4,
			location = NULLIF($5,''), start_date = $6, end_date = $7, event_type = NULLIF($8,''),
			registration_url = NULLIF($9,''), image_url = NULLIF($10,''), is_public = $11, updated_at = NOW()
		WHERE id = $1
		RETURNING `+eventColumns,
		e.ID, e.Slug, e.Title, e.Description, e.Location, e.StartDate, e.EndDate, e.EventType,
		e.RegistrationURL, e.ImageURL, e.IsPublic)
	updated, err := scanEvent(row)
	if err != nil {
		return mapWriteErr(err)
	}
	*e = *updated
	return nil
}

// Delete removes an event.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("event")
	}
	return nil
}
