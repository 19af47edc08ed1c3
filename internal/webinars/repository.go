package webinars

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agrimech/portal/internal/apperr"
	"github.com/agrimech/portal/internal/models"
	"github.com/agrimech/portal/pkg/database"
)

const webinarColumns = `id, slug, title, description, COALESCE(category, ''), COALESCE(speaker_name, ''),
	COALESCE(speaker_title, ''), COALESCE(speaker_bio, ''), COALESCE(speaker_image_url, ''), scheduled_date,
	duration_minutes, status, registration_required, max_attendees, current_attendees, is_public,
	COALESCE(meeting_url, ''), COALESCE(thumbnail_url, ''), tags, created_at, updated_at`

const resourceColumns = `id, webinar_id, title, COALESCE(description, ''), file_url, COALESCE(file_type, ''),
	file_size, requires_auth, download_count, created_at, updated_at`

const recordingColumns = `id, webinar_id, title, video_url, duration_minutes, requires_auth, view_count,
	created_at, updated_at`

// Repository handles webinar, webinar resource and recording persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a webinar repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanWebinar(row pgx.Row) (*models.Webinar, error) {
	var w models.Webinar
	err := row.Scan(&w.ID, &w.Slug, &w.Title, &w.Description, &w.Category, &w.SpeakerName, &w.SpeakerTitle,
		&w.SpeakerBio, &w.SpeakerImageURL, &w.ScheduledDate, &w.DurationMinutes, &w.Status,
		&w.RegistrationRequired, &w.MaxAttendees, &w.CurrentAttendees, &w.IsPublic, &w.MeetingURL,
		&w.ThumbnailURL, &w.Tags, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, apperr.NotFound("webinar")
		}
		return nil, err
	}
	if w.Tags == nil {
		w.Tags = []string{}
	}
	return &w, nil
}

func scanResource(row pgx.Row) (*models.WebinarResource, error) {
	var r models.WebinarResource
	err := row.Scan(&r.ID, &r.WebinarID, &r.Title, &r.Description, &r.FileURL, &r.FileType, &r.FileSize,
		&r.RequiresAuth, &r.DownloadCount, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, apperr.NotFound("resource")
		}
		return nil, err
	}
	return &r, nil
}

func scanRecording(row pgx.Row) (*models.WebinarRecording, error) {
	var r models.WebinarRecording
	err := row.Scan(&r.ID, &r.WebinarID, &r.Title, &r.VideoURL, &r.DurationMinutes, &r.RequiresAuth,
		&r.ViewCount, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, apperr.NotFound("recording")
		}
		return nil, err
	}
	return &r, nil
}

func mapWriteErr(err error) error {
	switch {
	case database.IsUniqueViolation(err, "webinars_slug_key"):
		return apperr.Validation("slug already in use")
	case database.IsCheckViolation(err, "webinars_attendee_ceiling"):
		return apperr.Validation("maxAttendees cannot be below current attendees")
	}
	return err
}

// Create inserts w and fills its generated fields. current_attendees always starts at 0.
func (r *Repository) Create(ctx context.Context, w *models.Webinar) error {
	const q = `INSERT INTO webinars (slug, title, description, category, speaker_name, speaker_title, speaker_bio,
		speaker_image_url, scheduled_date, duration_minutes, status, registration_required, max_attendees,
		is_public, meeting_url, thumbnail_url, tags)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, ''), $9, $10,
		$11, $12, $13, $14, NULLIF($15, ''), NULLIF($16, ''), $17)
		RETURNING ` + webinarColumns
	tags := w.Tags
	if tags == nil {
		tags = []string{}
	}
	created, err := scanWebinar(r.pool.QueryRow(ctx, q, w.Slug, w.Title, w.Description, w.Category, w.SpeakerName,
		w.SpeakerTitle, w.SpeakerBio, w.SpeakerImageURL, w.ScheduledDate, w.DurationMinutes, string(w.Status),
		w.RegistrationRequired, w.MaxAttendees, w.IsPublic, w.MeetingURL, w.ThumbnailURL, tags))
	if err != nil {
		return mapWriteErr(err)
	}
	*w = *created
	return nil
}

// GetByID returns a webinar by ID regardless of visibility.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Webinar, error) {
	return scanWebinar(r.pool.QueryRow(ctx, `SELECT `+webinarColumns+` FROM webinars WHERE id = $1`, id))
}

// GetBySlug returns a webinar by slug. With publicOnly, private webinars are reported as not found.
func (r *Repository) GetBySlug(ctx context.Context, slug string, publicOnly bool) (*models.Webinar, error) {
	q := `SELECT ` + webinarColumns + ` FROM webinars WHERE slug = $1`
	if publicOnly {
		q += ` AND is_public`
	}
	return scanWebinar(r.pool.QueryRow(ctx, q, slug))
}

// SlugExists reports whether a webinar already uses slug.
func (r *Repository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM webinars WHERE slug = $1)`, slug).Scan(&exists)
	return exists, err
}

// List returns a page of webinars matching f, ordered by scheduled date, and the total match count.
func (r *Repository) List(ctx context.Context, f models.WebinarFilter) ([]models.Webinar, int, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.PublicOnly {
		conds = append(conds, "is_public")
	}
	if f.Status != "" {
		add("status = $%d", string(f.Status))
	}
	if f.Category != "" {
		add("category = $%d", f.Category)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		add("(title ILIKE $%[1]d OR description ILIKE $%[1]d)", "%"+s+"%")
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM webinars`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, f.Limit, f.Offset)
	q := fmt.Sprintf(`SELECT %s FROM webinars%s ORDER BY scheduled_date DESC LIMIT $%d OFFSET $%d`,
		webinarColumns, where, len(args)-1, len(args))
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	list := make([]models.Webinar, 0)
	for rows.Next() {
		w, err := scanWebinar(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, *w)
	}
	return list, total, rows.Err()
}

// Update applies the non-nil fields of in and stamps updated_at. current_attendees is never written here.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, in Update) (*models.Webinar, error) {
	var status *string
	if in.Status != nil {
		s := string(*in.Status)
		status = &s
	}
	const q = `UPDATE webinars SET
		slug = COALESCE($2, slug),
		title = COALESCE($3, title),
		description = COALESCE($4, description),
		category = COALESCE($5, category),
		speaker_name = COALESCE($6, speaker_name),
		speaker_title = COALESCE($7, speaker_title),
		speaker_bio = COALESCE($8, speaker_bio),
		speaker_image_url = COALESCE($9, speaker_image_url),
		scheduled_date = COALESCE($10, scheduled_date),
		duration_minutes = COALESCE($11, duration_minutes),
		status = COALESCE($12, status),
		registration_required = COALESCE($13, registration_required),
		max_attendees = CASE WHEN $14 THEN NULL ELSE COALESCE($15, max_attendees) END,
		is_public = COALESCE($16, is_public),
		meeting_url = COALESCE($17, meeting_url),
		thumbnail_url = COALESCE($18, thumbnail_url),
		tags = COALESCE($19, tags),
		updated_at = NOW()
		WHERE id = $1
		RETURNING ` + webinarColumns
	w, err := scanWebinar(r.pool.QueryRow(ctx, q, id, in.Slug, in.Title, in.Description, in.Category,
		in.SpeakerName, in.SpeakerTitle, in.SpeakerBio, in.SpeakerImageURL, in.ScheduledDate, in.DurationMinutes,
		status, in.RegistrationRequired, in.ClearMaxAttendees, in.MaxAttendees, in.IsPublic, in.MeetingURL,
		in.ThumbnailURL, in.Tags))
	if err != nil {
		return nil, mapWriteErr(err)
	}
	return w, nil
}

// Delete hard-deletes a webinar; its registrations, resources and recordings cascade.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM webinars WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("webinar")
	}
	return nil
}

// IsRegistered reports whether userID holds a registration for webinarID.
func (r *Repository) IsRegistered(ctx context.Context, webinarID, userID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM webinar_registrations WHERE webinar_id = $1 AND user_id = $2)`,
		webinarID, userID).Scan(&exists)
	return exists, err
}

// ListResources returns the files attached to a webinar, oldest first.
func (r *Repository) ListResources(ctx context.Context, webinarID uuid.UUID) ([]models.WebinarResource, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+resourceColumns+` FROM webinar_resources WHERE webinar_id = $1 ORDER BY created_at`, webinarID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := make([]models.WebinarResource, 0)
	for rows.Next() {
		res, err := scanResource(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *res)
	}
	return list, rows.Err()
}

// GetResource returns a webinar resource by ID.
func (r *Repository) GetResource(ctx context.Context, id uuid.UUID) (*models.WebinarResource, error) {
	return scanResource(r.pool.QueryRow(ctx, `SELECT `+resourceColumns+` FROM webinar_resources WHERE id = $1`, id))
}

// CreateResource inserts res and fills its generated fields.
func (r *Repository) CreateResource(ctx context.Context, res *models.WebinarResource) error {
	const q = `INSERT INTO webinar_resources (webinar_id, title, description, file_url, file_type, file_size, requires_auth)
		VALUES ($1, $2, NULLIF($3, ''), $4, NULLIF($5, ''), $6, $7)
		RETURNING ` + resourceColumns
	created, err := scanResource(r.pool.QueryRow(ctx, q, res.WebinarID, res.Title, res.Description, res.FileURL,
		res.FileType, res.FileSize, res.RequiresAuth))
	if err != nil {
		return err
	}
	*res = *created
	return nil
}

// UpdateResource applies the non-nil fields of in.
func (r *Repository) UpdateResource(ctx context.Context, id uuid.UUID, in ResourceUpdate) (*models.WebinarResource, error) {
	const q = `UPDATE webinar_resources SET
		title = COALESCE($2, title),
		description = COALESCE($3, description),
		file_url = COALESCE($4, file_url),
		file_type = COALESCE($5, file_type),
		requires_auth = COALESCE($6, requires_auth),
		updated_at = NOW()
		WHERE id = $1
		RETURNING ` + resourceColumns
	return scanResource(r.pool.QueryRow(ctx, q, id, in.Title, in.Description, in.FileURL, in.FileType, in.RequiresAuth))
}

// DeleteResource removes a webinar resource and returns the deleted row.
func (r *Repository) DeleteResource(ctx context.Context, id uuid.UUID) (*models.WebinarResource, error) {
	return scanResource(r.pool.QueryRow(ctx, `DELETE FROM webinar_resources WHERE id = $1 RETURNING `+resourceColumns, id))
}

// IncrementDownloads bumps the download counter of a resource.
func (r *Repository) IncrementDownloads(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `UPDATE webinar_resources SET download_count = download_count + 1 WHERE id = $1`, id)
	return err
}

// ListRecordings returns the recordings of a webinar, oldest first.
func (r *Repository) ListRecordings(ctx context.Context, webinarID uuid.UUID) ([]models.WebinarRecording, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+recordingColumns+` FROM webinar_recordings WHERE webinar_id = $1 ORDER BY created_at`, webinarID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := make([]models.WebinarRecording, 0)
	for rows.Next() {
		rec, err := scanRecording(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *rec)
	}
	return list, rows.Err()
}

// GetRecording returns a recording by ID.
func (r *Repository) GetRecording(ctx context.Context, id uuid.UUID) (*models.WebinarRecording, error) {
	return scanRecording(r.pool.QueryRow(ctx, `SELECT `+recordingColumns+` FROM webinar_recordings WHERE id = $1`, id))
}

// CreateRecording inserts rec and fills its generated fields.
func (r *Repository) CreateRecording(ctx context.Context, rec *models.WebinarRecording) error {
	const q = `INSERT INTO webinar_recordings (webinar_id, title, video_url, duration_minutes, requires_auth)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + recordingColumns
	created, err := scanRecording(r.pool.QueryRow(ctx, q, rec.WebinarID, rec.Title, rec.VideoURL, rec.DurationMinutes, rec.RequiresAuth))
	if err != nil {
		return err
	}
	*rec = *created
	return nil
}

// UpdateRecording applies the non-nil fields of in.
func (r *Repository) UpdateRecording(ctx context.Context, id uuid.UUID, in RecordingUpdate) (*models.WebinarRecording, error) {
	const q = `UPDATE webinar_recordings SET
		title = COALESCE($2, title),
		video_url = COALESCE($3, video_url),
		duration_minutes = COALESCE($4, duration_minutes),
		requires_auth = COALESCE($5, requires_auth),
		updated_at = NOW()
		WHERE id = $1
		RETURNING ` + recordingColumns
	return scanRecording(r.pool.QueryRow(ctx, q, id, in.Title, in.VideoURL, in.DurationMinutes, in.RequiresAuth))
}

// DeleteRecording removes a recording.
func (r *Repository) DeleteRecording(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM webinar_recordings WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("recording")
	}
	return nil
}

// IncrementViews bumps the view counter of a recording.
func (r *Repository) IncrementViews(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `UPDATE webinar_recordings SET view_count = view_count + 1 WHERE id = $1`, id)
	return err
}

// CountByStatus returns the number of webinars per status.
func (r *Repository) CountByStatus(ctx context.Context) (map[models.WebinarStatus]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM webinars GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := make(map[models.WebinarStatus]int)
	for rows.Next() {
		var (
			status models.WebinarStatus
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}
