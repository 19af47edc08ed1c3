package accounts

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

const userColumns = `id, email, password_hash, first_name, last_name, role, is_active, is_email_verified,
	email_verification_token, email_verification_expires, password_reset_token, password_reset_expires,
	last_login_at, COALESCE(organization,''), COALESCE(country,''), COALESCE(bio,''), created_at, updated_at`

// Repository handles user persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an accounts repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.Role, &u.IsActive, &u.IsEmailVerified,
		&u.EmailVerificationToken, &u.EmailVerificationExpires, &u.PasswordResetToken, &u.PasswordResetExpires,
		&u.LastLoginAt, &u.Organization, &u.Country, &u.Bio, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, apperr.NotFound("user")
		}
		return nil, err
	}
	return &u, nil
}

// Create inserts u and fills its generated fields.
func (r *Repository) Create(ctx context.Context, u *models.User) error {
	const q = `INSERT INTO users (email, password_hash, first_name, last_name, role, is_active, is_email_verified,
		email_verification_token, email_verification_expires, organization, country, bio)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULLIF($10,''), NULLIF($11,''), NULLIF($12,''))
		RETURNING ` + userColumns
	created, err := scanUser(r.pool.QueryRow(ctx, q, u.Email, u.PasswordHash, u.FirstName, u.LastName, string(u.Role),
		u.IsActive, u.IsEmailVerified, u.EmailVerificationToken, u.EmailVerificationExpires, u.Organization, u.Country, u.Bio))
	if err != nil {
		if database.IsUniqueViolation(err, "users_email_key") {
			return apperr.ErrDuplicateEmail
		}
		return err
	}
	*u = *created
	return nil
}

// GetByID returns a user by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// GetByEmail returns a user by exact email.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

// VerifyEmail consumes a live verification token: the verified flag is set and the token and
// expiry are cleared by the same statement.
func (r *Repository) VerifyEmail(ctx context.Context, token string, now time.Time) (*models.User, error) {
	const q = `UPDATE users SET is_email_verified = TRUE, email_verification_token = NULL,
		email_verification_expires = NULL, updated_at = NOW()
		WHERE email_verification_token = $1 AND email_verification_expires > $2
		RETURNING ` + userColumns
	u, err := scanUser(r.pool.QueryRow(ctx, q, token, now))
	if apperr.KindOf(err) == apperr.KindNotFound {
		return nil, apperr.ErrInvalidOrExpiredToken
	}
	return u, err
}

// SetVerificationToken replaces any outstanding verification token.
func (r *Repository) SetVerificationToken(ctx context.Context, id uuid.UUID, token string, expires time.Time) error {
	const q = `UPDATE users SET email_verification_token = $2, email_verification_expires = $3, updated_at = NOW() WHERE id = $1`
	return execOne(ctx, r.pool, q, id, token, expires)
}

// SetPasswordResetToken replaces any outstanding reset token.
func (r *Repository) SetPasswordResetToken(ctx context.Context, id uuid.UUID, token string, expires time.Time) error {
	const q = `UPDATE users SET password_reset_token = $2, password_reset_expires = $3, updated_at = NOW() WHERE id = $1`
	return execOne(ctx, r.pool, q, id, token, expires)
}

// ResetPassword consumes a live reset token and stores the new hash in one statement.
func (r *Repository) ResetPassword(ctx context.Context, token, passwordHash string, now time.Time) error {
	const q = `UPDATE users SET password_hash = $2, password_reset_token = NULL, password_reset_expires = NULL, updated_at = NOW()
		WHERE password_reset_token = $1 AND password_reset_expires > $3`
	tag, err := r.pool.Exec(ctx, q, token, passwordHash, now)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.ErrInvalidOrExpiredToken
	}
	return nil
}

// UpdateLastLogin stamps last_login_at.
func (r *Repository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return execOne(ctx, r.pool, `UPDATE users SET last_login_at = $2 WHERE id = $1`, id, at)
}

// UpdatePassword stores a new password hash.
func (r *Repository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return execOne(ctx, r.pool, `UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`, id, passwordHash)
}

// Update applies the non-nil fields of in.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, in UserUpdate) (*models.User, error) {
	var role *string
	if in.Role != nil {
		s := string(*in.Role)
		role = &s
	}
	const q = `UPDATE users SET
		first_name = COALESCE($2, first_name),
		last_name = COALESCE($3, last_name),
		organization = COALESCE($4, organization),
		country = COALESCE($5, country),
		bio = COALESCE($6, bio),
		role = COALESCE($7, role),
		is_active = COALESCE($8, is_active),
		is_email_verified = COALESCE($9, is_email_verified),
		email_verification_token = CASE WHEN $9::boolean IS TRUE THEN NULL ELSE email_verification_token END,
		email_verification_expires = CASE WHEN $9::boolean IS TRUE THEN NULL ELSE email_verification_expires END,
		updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns
	return scanUser(r.pool.QueryRow(ctx, q, id, in.FirstName, in.LastName, in.Organization, in.Country, in.Bio,
		role, in.IsActive, in.IsEmailVerified))
}

// Delete hard-deletes a user.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("user")
	}
	return nil
}

// List returns users matching f, newest first, with the total count.
func (r *Repository) List(ctx context.Context, f UserFilter) ([]models.User, int, error) {
	const where = ` WHERE ($1 = '' OR email ILIKE '%' || $1 || '%' OR first_name ILIKE '%' || $1 || '%' OR last_name ILIKE '%' || $1 || '%')`
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`+where, f.Search).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users`+where+` ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		f.Search, f.Limit, f.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	list := make([]models.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, *u)
	}
	return list, total, rows.Err()
}

func execOne(ctx context.Context, pool *pgxpool.Pool, q string, args ...any) error {
	tag, err := pool.Exec(ctx, q, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("user")
	}
	return nil
}
