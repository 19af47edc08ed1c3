package contacts

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agrimech/portal/internal/apperr"
	"github.com/agrimech/portal/internal/models"
	"github.com/agrimech/portal/pkg/database"
)

const contactColumns = `id, name, email, COALESCE(organization, ''), subject, message, COALESCE(inquiry_type, ''),
	status, created_at, updated_at`

// Repository handles contact_forms persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a contact form repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanContact(row pgx.Row) (*models.ContactForm, error) {
	var f models.ContactForm
	err := row.Scan(&f.ID, &f.Name, &f.Email, &f.Organization, &f.Subject, &f.Message, &f.InquiryType,
		&f.Status, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, apperr.NotFound("contact")
		}
		return nil, err
	}
	return &f, nil
}

// Create stores a new message with status new.
func (r *Repository) Create(ctx context.Context, f *models.ContactForm) error {
	row := r.pool.QueryRow(ctx, `INSERT INTO contact_forms (name, email, organization, subject, message, inquiry_type)
		VALUES ($1, $2, NULLIF($3,''), $4, $5, NULLIF($6,''))
		RETURNING `+contactColumns,
		f.Name, f.Email, f.Organization, f.Subject, f.Message, f.InquiryType)
	created, err := scanContact(row)
	if err != nil {
		return err
	}
	*f = *created
	return nil
}

// GetByID returns a message by id.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.ContactForm, error) {
	return scanContact(r.pool.QueryRow(ctx, `SELECT `+contactColumns+` FROM contact_forms WHERE id = $1`, id))
}

// List returns messages newest first, optionally filtered by status, with the total count.
func (r *Repository) List(ctx context.Context, status models.ContactStatus, limit, offset int) ([]models.ContactForm, int, error) {
	const where = ` WHERE ($1 = '' OR status = $1)`
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM contact_forms`+where, string(status)).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+contactColumns+` FROM contact_forms`+where+`
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, string(status), limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	list := make([]models.ContactForm, 0)
	for rows.Next() {
		f, err := scanContact(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, *f)
	}
	return list, total, rows.Err()
}

// SetStatus moves a message from one status to another. It returns ErrInvalidTransition when
// the stored status is no longer from.
func (r *Repository) SetStatus(ctx context.Context, id uuid.UUID, from, to models.ContactStatus) (*models.ContactForm, error) {
	f, err := scanContact(r.pool.QueryRow(ctx, `UPDATE contact_forms SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING `+contactColumns, id, string(from), string(to)))
	if apperr.KindOf(err) == apperr.KindNotFound {
		return nil, apperr.ErrInvalidTransition
	}
	return f, err
}

// Delete removes a message.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM contact_forms WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("contact")
	}
	return nil
}

// CountByStatus returns the number of messages with the given status.
func (r *Repository) CountByStatus(ctx context.Context, status models.ContactStatus) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM contact_forms WHERE status = $1`, string(status)).Scan(&n)
	return n, err
}
