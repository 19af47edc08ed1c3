package analytics

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agrimech/portal/internal/apperr"
	"github.com/agrimech/portal/internal/models"
	"github.com/agrimech/portal/pkg/database"
)

// Repository runs the aggregate queries behind the admin dashboard.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an analytics repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Dashboard collects site-wide counts. since bounds the "recent" figures.
func (r *Repository) Dashboard(ctx context.Context, since time.Time) (*Dashboard, error) {
	d := &Dashboard{WebinarsByStatus: make(map[models.WebinarStatus]int)}
	const q = `SELECT
		(SELECT COUNT(*) FROM users),
		(SELECT COUNT(*) FROM users WHERE is_email_verified),
		(SELECT COUNT(*) FROM users WHERE created_at >= $1),
		(SELECT COUNT(*) FROM webinars),
		(SELECT COUNT(*) FROM webinar_registrations),
		(SELECT COUNT(*) FROM webinar_registrations WHERE attended),
		(SELECT COUNT(*) FROM webinar_registrations WHERE registered_at >= $1),
		(SELECT COUNT(*) FROM contact_forms WHERE status = 'new'),
		(SELECT COUNT(*) FROM events WHERE COALESCE(end_date, start_date) >= NOW()),
		(SELECT COUNT(*) FROM resources),
		(SELECT COALESCE(SUM(download_count), 0) FROM resources),
		(SELECT COUNT(*) FROM email_logs WHERE status = 'failed' AND created_at >= $1)`
	err := r.pool.QueryRow(ctx, q, since).Scan(
		&d.Users.Total, &d.Users.Verified, &d.Users.Recent,
		&d.Webinars,
		&d.Registrations.Total, &d.Registrations.Attended, &d.Registrations.Recent,
		&d.NewContacts, &d.UpcomingEvents,
		&d.Library.Items, &d.Library.Downloads,
		&d.FailedEmails,
	)
	if err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM webinars GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			status models.WebinarStatus
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		d.WebinarsByStatus[status] = n
	}
	return d, rows.Err()
}

// Webinar collects registration and material figures for one webinar.
func (r *Repository) Webinar(ctx context.Context, id uuid.UUID) (*WebinarSummary, error) {
	var s WebinarSummary
	const q = `SELECT w.id, w.title, w.current_attendees, w.max_attendees,
		(SELECT COUNT(*) FROM webinar_registrations WHERE webinar_id = w.id),
		(SELECT COUNT(*) FROM webinar_registrations WHERE webinar_id = w.id AND attended),
		(SELECT COALESCE(SUM(download_count), 0) FROM webinar_resources WHERE webinar_id = w.id),
		(SELECT COALESCE(SUM(view_count), 0) FROM webinar_recordings WHERE webinar_id = w.id)
		FROM webinars w WHERE w.id = $1`
	err := r.pool.QueryRow(ctx, q, id).Scan(&s.WebinarID, &s.Title, &s.CurrentAttendees, &s.MaxAttendees,
		&s.TotalRegistrations, &s.TotalAttended, &s.ResourceDownloads, &s.RecordingViews)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, apperr.NotFound("webinar")
		}
		return nil, err
	}
	return &s, nil
}
