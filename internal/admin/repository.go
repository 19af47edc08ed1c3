package admin

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

const adminColumns = `id, username, password_hash, full_name, email, role, is_active,
	password_reset_token, password_reset_expires, last_login_at, created_at, updated_at`

// Repository handles admin_users persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an admin repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanAdmin(row pgx.Row) (*models.AdminUser, error) {
	var a models.AdminUser
	err := row.Scan(&a.ID, &a.Username, &a.PasswordHash, &a.FullName, &a.Email, &a.Role, &a.IsActive,
		&a.PasswordResetToken, &a.PasswordResetExpires, &a.LastLoginAt, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, apperr.NotFound("admin")
		}
		return nil, err
	}
	return &a, nil
}

func mapUnique(err error) error {
	switch {
	case database.IsUniqueViolation(err, "admin_users_username_key"):
		return apperr.Validation("username already taken")
	case database.IsUniqueViolation(err, "admin_users_email_key"):
		return apperr.Validation("email already in use by another admin")
	}
	return err
}

// Create inserts a and fills its generated fields.
func (r *Repository) Create(ctx context.Context, a *models.AdminUser) error {
	const q = `INSERT INTO admin_users (username, password_hash, full_name, email, role, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + adminColumns
	created, err := scanAdmin(r.pool.QueryRow(ctx, q, a.Username, a.PasswordHash, a.FullName, a.Email, string(a.Role), a.IsActive))
	if err != nil {
		return mapUnique(err)
	}
	*a = *created
	return nil
}

// GetByID returns an admin by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.AdminUser, error) {
	return scanAdmin(r.pool.QueryRow(ctx, `SELECT `+adminColumns+` FROM admin_users WHERE id = $1`, id))
}

// GetByUsername returns an admin by username.
func (r *Repository) GetByUsername(ctx context.Context, username string) (*models.AdminUser, error) {
	return scanAdmin(r.pool.QueryRow(ctx, `SELECT `+adminColumns+` FROM admin_users WHERE username = $1`, username))
}

// GetByEmail returns an admin by email.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*models.AdminUser, error) {
	return scanAdmin(r.pool.QueryRow(ctx, `SELECT `+adminColumns+` FROM admin_users WHERE email = $1`, email))
}

// UpdateLastLogin stamps last_login_at.
func (r *Repository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := r.pool.Exec(ctx, `UPDATE admin_users SET last_login_at = $2 WHERE id = $1`, id, at)
	return err
}

// SetPasswordResetToken replaces any outstanding reset token.
func (r *Repository) SetPasswordResetToken(ctx context.Context, id uuid.UUID, token string, expires time.Time) error {
	_, err := r.pool.Exec(ctx, `UPDATE admin_users SET password_reset_token = $2, password_reset_expires = $3, updated_at = NOW() WHERE id = $1`,
		id, token, expires)
	return err
}

// ResetPassword consumes a live reset token and stores the new hash in one statement.
func (r *Repository) ResetPassword(ctx context.Context, token, passwordHash string, now time.Time) error {
	const q = `UPDATE admin_users SET password_hash = $2, password_reset_token = NULL, password_reset_expires = NULL, updated_at = NOW()
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

// Update applies the non-nil fields of in.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, in Update) (*models.AdminUser, error) {
	var role *string
	if in.Role != nil {
		s := string(*in.Role)
		role = &s
	}
	const q = `UPDATE admin_users SET
		full_name = COALESCE($2, full_name),
		email = COALESCE($3, email),
		role = COALESCE($4, role),
		is_active = COALESCE($5, is_active),
		password_hash = COALESCE($6, password_hash),
		updated_at = NOW()
		WHERE id = $1
		RETURNING ` + adminColumns
	a, err := scanAdmin(r.pool.QueryRow(ctx, q, id, in.FullName, in.Email, role, in.IsActive, in.passwordHash))
	if err != nil {
		return nil, mapUnique(err)
	}
	return a, nil
}

// Delete hard-deletes an admin.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM admin_users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("admin")
	}
	return nil
}

// List returns all admins ordered by username.
func (r *Repository) List(ctx context.Context) ([]models.AdminUser, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+adminColumns+` FROM admin_users ORDER BY username`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := make([]models.AdminUser, 0)
	for rows.Next() {
		a, err := scanAdmin(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *a)
	}
	return list, rows.Err()
}

// Count returns the number of admin accounts.
func (r *Repository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM admin_users`).Scan(&n)
	return n, err
}
