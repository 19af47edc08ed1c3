package emaillogs

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agrimech/portal/internal/models"
	"github.com/agrimech/portal/pkg/queue"
)

// Repository handles email_logs persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an email logs repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Begin records a pending delivery keyed by the job id. Retries of the same job reuse the row.
func (r *Repository) Begin(ctx context.Context, id uuid.UUID, p queue.EmailPayload) error {
	const q = `INSERT INTO email_logs (id, email_type, recipient_email, subject, status)
		VALUES ($1, $2, $3, NULLIF($4,''), 'pending')
		ON CONFLICT (id) DO NOTHING`
	_, err := r.pool.Exec(ctx, q, id, p.EmailType, p.RecipientEmail, p.Subject)
	return err
}

// MarkSent marks a delivery as sent.
func (r *Repository) MarkSent(ctx context.Context, id uuid.UUID, attempts int) error {
	const q = `UPDATE email_logs SET status = 'sent', attempts = $2, sent_at = NOW(), error_message = NULL WHERE id = $1`
	_, err := r.pool.Exec(ctx, q, id, attempts)
	return err
}

// MarkFailed records a failed attempt with its error text.
func (r *Repository) MarkFailed(ctx context.Context, id uuid.UUID, attempts int, errMsg string) error {
	const q = `UPDATE email_logs SET status = 'failed', attempts = $2, error_message = $3 WHERE id = $1`
	_, err := r.pool.Exec(ctx, q, id, attempts, errMsg)
	return err
}

// Filter narrows the admin listing.
type Filter struct {
	Status    string
	EmailType string
	Limit     int
	Offset    int
}

// List returns email logs, newest first, with the total matching count.
func (r *Repository) List(ctx context.Context, f Filter) ([]models.EmailLog, int, error) {
	const where = ` WHERE ($1 = '' OR status = $1) AND ($2 = '' OR email_type = $2)`
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM email_logs`+where, f.Status, f.EmailType).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT id, email_type, recipient_email, COALESCE(subject,''), status, attempts, sent_at, COALESCE(error_message,''), created_at
		FROM email_logs`+where+`
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`, f.Status, f.EmailType, f.Limit, f.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	list := make([]models.EmailLog, 0)
	for rows.Next() {
		var el models.EmailLog
		if err := rows.Scan(&el.ID, &el.EmailType, &el.RecipientEmail, &el.Subject, &el.Status, &el.Attempts, &el.SentAt, &el.ErrorMessage, &el.CreatedAt); err != nil {
			return nil, 0, err
		}
		list = append(list, el)
	}
	return list, total, rows.Err()
}
