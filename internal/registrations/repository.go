package registrations

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agrimech/portal/internal/apperr"
	"github.com/agrimech/portal/internal/models"
	"github.com/agrimech/portal/pkg/database"
)

// Repository handles webinar registration persistence and the attendee counter.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a registrations repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Register inserts the (webinar, user) row and takes one seat in a single transaction. The
// seat is taken with a conditional increment so concurrent registrations can never push
// current_attendees past max_attendees. It returns the registration and the new count.
func (r *Repository) Register(ctx context.Context, webinarID, userID uuid.UUID) (*models.WebinarRegistration, int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	reg := models.WebinarRegistration{WebinarID: webinarID, UserID: userID}
	const insert = `INSERT INTO webinar_registrations (webinar_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (webinar_id, user_id) DO NOTHING
		RETURNING id, registered_at, attended`
	err = tx.QueryRow(ctx, insert, webinarID, userID).Scan(&reg.ID, &reg.RegisteredAt, &reg.Attended)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, 0, apperr.ErrAlreadyRegistered
		}
		return nil, 0, err
	}

	var count int
	const take = `UPDATE webinars SET current_attendees = current_attendees + 1
		WHERE id = $1 AND (max_attendees IS NULL OR current_attendees < max_attendees)
		RETURNING current_attendees`
	err = tx.QueryRow(ctx, take, webinarID).Scan(&count)
	if err != nil {
		if database.IsNoRows(err) || database.IsCheckViolation(err, "webinars_attendee_ceiling") {
			return nil, 0, apperr.ErrFull
		}
		return nil, 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, 0, err
	}
	return &reg, count, nil
}

// Cancel deletes the registration and releases its seat. It returns the new count.
func (r *Repository) Cancel(ctx context.Context, webinarID, userID uuid.UUID) (int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `DELETE FROM webinar_registrations WHERE webinar_id = $1 AND user_id = $2`, webinarID, userID)
	if err != nil {
		return 0, err
	}
	if tag.RowsAffected() == 0 {
		return 0, apperr.NotFound("registration")
	}

	var count int
	err = tx.QueryRow(ctx, `UPDATE webinars SET current_attendees = current_attendees - 1
		WHERE id = $1 AND current_attendees > 0
		RETURNING current_attendees`, webinarID).Scan(&count)
	if database.IsNoRows(err) {
		err = tx.QueryRow(ctx, `SELECT current_attendees FROM webinars WHERE id = $1`, webinarID).Scan(&count)
	}
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return count, nil
}

// Get returns the registration of userID for webinarID.
func (r *Repository) Get(ctx context.Context, webinarID, userID uuid.UUID) (*models.WebinarRegistration, error) {
	var reg models.WebinarRegistration
	err := r.pool.QueryRow(ctx, `SELECT id, webinar_id, user_id, registered_at, attended
		FROM webinar_registrations WHERE webinar_id = $1 AND user_id = $2`, webinarID, userID).
		Scan(&reg.ID, &reg.WebinarID, &reg.UserID, &reg.RegisteredAt, &reg.Attended)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, apperr.NotFound("registration")
		}
		return nil, err
	}
	return &reg, nil
}

// ListForUser returns a user's registrations with their webinars, soonest first.
func (r *Repository) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.RegistrationView, error) {
	const q = `SELECT r.id, r.webinar_id, r.user_id, r.registered_at, r.attended,
			w.slug, w.title, w.scheduled_date, w.status
		FROM webinar_registrations r
		JOIN webinars w ON w.id = r.webinar_id
		WHERE r.user_id = $1
		ORDER BY w.scheduled_date`
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := make([]models.RegistrationView, 0)
	for rows.Next() {
		var v models.RegistrationView
		if err := rows.Scan(&v.ID, &v.WebinarID, &v.UserID, &v.RegisteredAt, &v.Attended,
			&v.WebinarSlug, &v.WebinarTitle, &v.ScheduledDate, &v.Status); err != nil {
			return nil, err
		}
		list = append(list, v)
	}
	return list, rows.Err()
}

// ListForWebinar returns the registrants of a webinar in registration order.
func (r *Repository) ListForWebinar(ctx context.Context, webinarID uuid.UUID) ([]models.RegistrantView, error) {
	const q = `SELECT r.id, r.webinar_id, r.user_id, r.registered_at, r.attended,
			u.email, u.first_name, u.last_name
		FROM webinar_registrations r
		JOIN users u ON u.id = r.user_id
		WHERE r.webinar_id = $1
		ORDER BY r.registered_at`
	rows, err := r.pool.Query(ctx, q, webinarID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := make([]models.RegistrantView, 0)
	for rows.Next() {
		var v models.RegistrantView
		if err := rows.Scan(&v.ID, &v.WebinarID, &v.UserID, &v.RegisteredAt, &v.Attended,
			&v.Email, &v.FirstName, &v.LastName); err != nil {
			return nil, err
		}
		list = append(list, v)
	}
	return list, rows.Err()
}

// SetAttended records whether a registrant attended.
func (r *Repository) SetAttended(ctx context.Context, id uuid.UUID, attended bool) (*models.WebinarRegistration, error) {
	var reg models.WebinarRegistration
	err := r.pool.QueryRow(ctx, `UPDATE webinar_registrations SET attended = $2 WHERE id = $1
		RETURNING id, webinar_id, user_id, registered_at, attended`, id, attended).
		Scan(&reg.ID, &reg.WebinarID, &reg.UserID, &reg.RegisteredAt, &reg.Attended)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, apperr.NotFound("registration")
		}
		return nil, err
	}
	return &reg, nil
}

// Count returns the total number of registrations.
func (r *Repository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM webinar_registrations`).Scan(&n)
	return n, err
}
