package admin

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agrimech/portal/internal/apperr"
	"github.com/agrimech/portal/internal/auth"
	"github.com/agrimech/portal/internal/metrics"
	"github.com/agrimech/portal/internal/models"
	"github.com/agrimech/portal/pkg/utils"
)

// ResetTTL is how long an admin password-reset token stays valid.
const ResetTTL = time.Hour

// Store is the admin persistence the service depends on.
type Store interface {
	Create(ctx context.Context, a *models.AdminUser) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.AdminUser, error)
	GetByUsername(ctx context.Context, username string) (*models.AdminUser, error)
	GetByEmail(ctx context.Context, email string) (*models.AdminUser, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	SetPasswordResetToken(ctx context.Context, id uuid.UUID, token string, expires time.Time) error
	ResetPassword(ctx context.Context, token, passwordHash string, now time.Time) error
	Update(ctx context.Context, id uuid.UUID, in Update) (*models.AdminUser, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]models.AdminUser, error)
}

// Notifier sends the admin reset link.
type Notifier interface {
	SendAdminPasswordReset(ctx context.Context, to, name, token string) error
}

// TokenIssuer signs and validates admin bearer tokens.
type TokenIssuer interface {
	Generate(adminID uuid.UUID, username, role string) (string, error)
	Validate(token string) (*auth.Claims, error)
}

// LoginResult is returned by a successful admin login.
type LoginResult struct {
	Token string            `json:"token"`
	Admin *models.AdminUser `json:"admin"`
}

// CreateInput is the data needed to create an admin account.
type CreateInput struct {
	Username string
	Password string
	FullName string
	Email    string
	Role     models.AdminRole
}

// Update is a partial update of an admin row. Nil fields are left unchanged.
type Update struct {
	FullName *string
	Email    *string
	Role     *models.AdminRole
	IsActive *bool
	Password *string

	passwordHash *string
}

// Service implements admin login, the bearer-token guard, password reset and admin management.
type Service struct {
	store    Store
	hasher   *auth.Hasher
	tokens   TokenIssuer
	notifier Notifier
	now      func() time.Time
	logger   *zap.Logger
}

// NewService creates an admin service.
func NewService(store Store, hasher *auth.Hasher, tokens TokenIssuer, notifier Notifier, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, hasher: hasher, tokens: tokens, notifier: notifier, now: time.Now, logger: logger}
}

// Login checks credentials and issues a bearer token. Unknown username, inactive account and
// wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	a, err := s.store.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if apperr.KindOf(err) != apperr.KindNotFound {
			return nil, err
		}
		s.hasher.CompareDummy(password)
		metrics.AuthAttemptsTotal.WithLabelValues("admin", "failure").Inc()
		return nil, apperr.ErrInvalidCredentials
	}
	if !s.hasher.Compare(password, a.PasswordHash) || !a.IsActive {
		metrics.AuthAttemptsTotal.WithLabelValues("admin", "failure").Inc()
		return nil, apperr.ErrInvalidCredentials
	}

	token, err := s.tokens.Generate(a.ID, a.Username, string(a.Role))
	if err != nil {
		return nil, err
	}
	now := s.now()
	if err := s.store.UpdateLastLogin(ctx, a.ID, now); err != nil {
		s.logger.Warn("update admin last login failed", zap.Error(err), zap.String("admin_id", a.ID.String()))
	} else {
		a.LastLoginAt = &now
	}
	metrics.AuthAttemptsTotal.WithLabelValues("admin", "success").Inc()
	s.logger.Info("admin logged in", zap.String("admin_id", a.ID.String()))
	return &LoginResult{Token: token, Admin: a}, nil
}

// Authenticate resolves a bearer token to the current admin record. Every failure is
// ErrUnauthorized.
func (s *Service) Authenticate(ctx context.Context, token string) (*models.AdminUser, error) {
	if token == "" {
		return nil, apperr.ErrUnauthorized
	}
	claims, err := s.tokens.Validate(token)
	if err != nil {
		return nil, apperr.ErrUnauthorized
	}
	a, err := s.store.GetByID(ctx, claims.AdminID)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return nil, apperr.ErrUnauthorized
		}
		return nil, err
	}
	if !a.IsActive {
		return nil, apperr.ErrUnauthorized
	}
	return a, nil
}

// RequestPasswordReset issues a reset token when email belongs to an active admin. The result
// does not reveal whether it does.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	a, err := s.store.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return nil
		}
		return err
	}
	if !a.IsActive {
		return nil
	}
	token, err := utils.RandomToken()
	if err != nil {
		return err
	}
	if err := s.store.SetPasswordResetToken(ctx, a.ID, token, s.now().Add(ResetTTL)); err != nil {
		return err
	}
	if s.notifier == nil {
		return nil
	}
	if err := s.notifier.SendAdminPasswordReset(ctx, a.Email, a.FullName, token); err != nil {
		s.logger.Warn("admin password reset email not queued", zap.Error(err), zap.String("admin_id", a.ID.String()))
	}
	return nil
}

// ResetPassword consumes a reset token and sets the new password.
func (s *Service) ResetPassword(ctx context.Context, token, password string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return apperr.ErrInvalidOrExpiredToken
	}
	if err := auth.ValidatePassword(password); err != nil {
		return err
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return err
	}
	return s.store.ResetPassword(ctx, token, hash, s.now())
}

// List returns all admin accounts.
func (s *Service) List(ctx context.Context) ([]models.AdminUser, error) {
	return s.store.List(ctx)
}

// Get returns one admin account.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.AdminUser, error) {
	return s.store.GetByID(ctx, id)
}

// Create adds an active admin account.
func (s *Service) Create(ctx context.Context, in CreateInput) (*models.AdminUser, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	in.FullName = strings.TrimSpace(in.FullName)
	if in.Username == "" {
		return nil, apperr.Validation("username is required")
	}
	if in.FullName == "" {
		return nil, apperr.Validation("full name is required")
	}
	if err := validateEmail(in.Email); err != nil {
		return nil, err
	}
	if in.Role == "" {
		in.Role = models.AdminRoleAdmin
	}
	if !in.Role.Valid() {
		return nil, apperr.Validation("invalid role")
	}
	if err := auth.ValidatePassword(in.Password); err != nil {
		return nil, err
	}
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}
	a := &models.AdminUser{
		Username:     in.Username,
		PasswordHash: hash,
		FullName:     in.FullName,
		Email:        in.Email,
		Role:         in.Role,
		IsActive:     true,
	}
	if err := s.store.Create(ctx, a); err != nil {
		return nil, err
	}
	s.logger.Info("admin created", zap.String("admin_id", a.ID.String()), zap.String("role", string(a.Role)))
	return a, nil
}

// UpdateAdmin edits an admin account on behalf of actor. An admin cannot deactivate or demote
// themselves.
func (s *Service) UpdateAdmin(ctx context.Context, actor, id uuid.UUID, in Update) (*models.AdminUser, error) {
	if actor == id {
		if in.IsActive != nil && !*in.IsActive {
			return nil, apperr.Validation("you cannot deactivate your own account")
		}
		if in.Role != nil && *in.Role != models.AdminRoleSuperAdmin {
			return nil, apperr.Validation("you cannot change your own role")
		}
	}
	if in.FullName != nil && strings.TrimSpace(*in.FullName) == "" {
		return nil, apperr.Validation("full name cannot be empty")
	}
	if in.Email != nil {
		email := strings.TrimSpace(*in.Email)
		if err := validateEmail(email); err != nil {
			return nil, err
		}
		in.Email = &email
	}
	if in.Role != nil && !in.Role.Valid() {
		return nil, apperr.Validation("invalid role")
	}
	if in.Password != nil {
		if err := auth.ValidatePassword(*in.Password); err != nil {
			return nil, err
		}
		hash, err := s.hasher.Hash(*in.Password)
		if err != nil {
			return nil, err
		}
		in.passwordHash = &hash
	}
	return s.store.Update(ctx, id, in)
}

// DeleteAdmin removes an admin account. An admin cannot delete themselves.
func (s *Service) DeleteAdmin(ctx context.Context, actor, id uuid.UUID) error {
	if actor == id {
		return apperr.Validation("you cannot delete your own account")
	}
	return s.store.Delete(ctx, id)
}

func validateEmail(email string) error {
	if email == "" {
		return apperr.Validation("email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return apperr.Validation("invalid email address")
	}
	return nil
}
