package accounts

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

const (
	// VerificationTTL is how long an email-verification token stays valid.
	VerificationTTL = 24 * time.Hour
	// ResetTTL is how long a password-reset token stays valid.
	ResetTTL = time.Hour
)

// Store is the user persistence the service depends on.
type Store interface {
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	VerifyEmail(ctx context.Context, token string, now time.Time) (*models.User, error)
	SetVerificationToken(ctx context.Context, id uuid.UUID, token string, expires time.Time) error
	SetPasswordResetToken(ctx context.Context, id uuid.UUID, token string, expires time.Time) error
	ResetPassword(ctx context.Context, token, passwordHash string, now time.Time) error
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	Update(ctx context.Context, id uuid.UUID, in UserUpdate) (*models.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, f UserFilter) ([]models.User, int, error)
}

// Notifier sends account emails. Delivery is best-effort.
type Notifier interface {
	SendVerification(ctx context.Context, to, name, token string) error
	SendPasswordReset(ctx context.Context, to, name, token string) error
}

// RegisterInput is the data needed to create an account.
type RegisterInput struct {
	Email           string
	Password        string
	ConfirmPassword string
	FirstName       string
	LastName        string
	Organization    string
	Country         string
}

// ProfileInput holds the self-editable profile fields; nil fields are left unchanged.
type ProfileInput struct {
	FirstName    *string
	LastName     *string
	Organization *string
	Country      *string
	Bio          *string
}

// UserUpdate is a partial update of a user row.
type UserUpdate struct {
	ProfileInput
	Role            *models.UserRole
	IsActive        *bool
	IsEmailVerified *bool
}

// UserFilter narrows the admin user listing.
type UserFilter struct {
	Search string
	Limit  int
	Offset int
}

// Options tune account policy.
type Options struct {
	// RequireEmailVerification makes Login reject unverified accounts.
	RequireEmailVerification bool
}

// Service implements registration, verification, password reset and login for site users.
type Service struct {
	store    Store
	hasher   *auth.Hasher
	notifier Notifier
	opts     Options
	now      func() time.Time
	logger   *zap.Logger
}

// NewService creates an accounts service.
func NewService(store Store, hasher *auth.Hasher, notifier Notifier, opts Options, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, hasher: hasher, notifier: notifier, opts: opts, now: time.Now, logger: logger}
}

// Register creates an active, unverified account and sends the verification link.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Email = strings.TrimSpace(in.Email)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	if err := validateEmail(in.Email); err != nil {
		return nil, err
	}
	if in.FirstName == "" {
		return nil, apperr.Validation("first name is required")
	}
	if in.ConfirmPassword != in.Password {
		return nil, apperr.Validation("passwords do not match")
	}
	if err := auth.ValidatePassword(in.Password); err != nil {
		return nil, err
	}

	if _, err := s.store.GetByEmail(ctx, in.Email); err == nil {
		return nil, apperr.ErrDuplicateEmail
	} else if apperr.KindOf(err) != apperr.KindNotFound {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}
	token, err := utils.RandomToken()
	if err != nil {
		return nil, err
	}
	expires := s.now().Add(VerificationTTL)
	u := &models.User{
		Email:                    in.Email,
		PasswordHash:             hash,
		FirstName:                in.FirstName,
		LastName:                 in.LastName,
		Role:                     models.UserRoleUser,
		IsActive:                 true,
		IsEmailVerified:          false,
		EmailVerificationToken:   &token,
		EmailVerificationExpires: &expires,
		Organization:             in.Organization,
		Country:                  in.Country,
	}
	if err := s.store.Create(ctx, u); err != nil {
		return nil, err
	}

	if err := s.notifier.SendVerification(ctx, u.Email, u.FirstName, token); err != nil {
		s.logger.Warn("verification email not queued", zap.Error(err), zap.String("user_id", u.ID.String()))
	}
	s.logger.Info("user registered", zap.String("user_id", u.ID.String()))
	return u, nil
}

// VerifyEmail consumes a verification token. A token works at most once.
func (s *Service) VerifyEmail(ctx context.Context, token string) (*models.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, apperr.ErrInvalidOrExpiredToken
	}
	return s.store.VerifyEmail(ctx, token, s.now())
}

// ResendVerification issues a fresh verification token for an unverified account. Unknown
// and already-verified emails succeed silently.
func (s *Service) ResendVerification(ctx context.Context, email string) error {
	u, err := s.store.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return nil
		}
		return err
	}
	if u.IsEmailVerified || !u.IsActive {
		return nil
	}
	token, err := utils.RandomToken()
	if err != nil {
		return err
	}
	if err := s.store.SetVerificationToken(ctx, u.ID, token, s.now().Add(VerificationTTL)); err != nil {
		return err
	}
	if err := s.notifier.SendVerification(ctx, u.Email, u.FirstName, token); err != nil {
		s.logger.Warn("verification email not queued", zap.Error(err), zap.String("user_id", u.ID.String()))
	}
	return nil
}

// RequestPasswordReset issues a one-hour reset token when the email belongs to an active
// account. The result is the same whether or not the account exists.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	u, err := s.store.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return nil
		}
		return err
	}
	if !u.IsActive {
		return nil
	}
	token, err := utils.RandomToken()
	if err != nil {
		return err
	}
	if err := s.store.SetPasswordResetToken(ctx, u.ID, token, s.now().Add(ResetTTL)); err != nil {
		return err
	}
	if err := s.notifier.SendPasswordReset(ctx, u.Email, u.FirstName, token); err != nil {
		s.logger.Warn("password reset email not queued", zap.Error(err), zap.String("user_id", u.ID.String()))
	}
	return nil
}

// ResetPassword consumes a reset token and sets the new password. confirm is checked when given.
func (s *Service) ResetPassword(ctx context.Context, token, password, confirm string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return apperr.ErrInvalidOrExpiredToken
	}
	if confirm != "" && confirm != password {
		return apperr.Validation("passwords do not match")
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

// Login verifies credentials. Unknown email, inactive account and wrong password all yield
// ErrInvalidCredentials after a full bcrypt comparison.
func (s *Service) Login(ctx context.Context, email, password string) (*models.User, error) {
	u, err := s.store.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if apperr.KindOf(err) != apperr.KindNotFound {
			return nil, err
		}
		s.hasher.CompareDummy(password)
		metrics.AuthAttemptsTotal.WithLabelValues("user", "failure").Inc()
		return nil, apperr.ErrInvalidCredentials
	}
	ok := s.hasher.Compare(password, u.PasswordHash)
	if !ok || !u.IsActive || (s.opts.RequireEmailVerification && !u.IsEmailVerified) {
		metrics.AuthAttemptsTotal.WithLabelValues("user", "failure").Inc()
		return nil, apperr.ErrInvalidCredentials
	}

	now := s.now()
	if err := s.store.UpdateLastLogin(ctx, u.ID, now); err != nil {
		s.logger.Warn("update last login failed", zap.Error(err), zap.String("user_id", u.ID.String()))
	} else {
		u.LastLoginAt = &now
	}
	metrics.AuthAttemptsTotal.WithLabelValues("user", "success").Inc()
	return u, nil
}

// ActiveUser loads a user for a session. Inactive accounts are reported as not found.
func (s *Service) ActiveUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !u.IsActive {
		return nil, apperr.NotFound("user")
	}
	return u, nil
}

// Profile returns the user's own record.
func (s *Service) Profile(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.store.GetByID(ctx, id)
}

// UpdateProfile edits the user's own profile fields.
func (s *Service) UpdateProfile(ctx context.Context, id uuid.UUID, in ProfileInput) (*models.User, error) {
	if err := validateProfile(in); err != nil {
		return nil, err
	}
	return s.store.Update(ctx, id, UserUpdate{ProfileInput: in})
}

// ChangePassword replaces the password after checking the current one.
func (s *Service) ChangePassword(ctx context.Context, id uuid.UUID, current, next, confirm string) error {
	u, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !s.hasher.Compare(current, u.PasswordHash) {
		return apperr.ErrInvalidCredentials
	}
	if confirm != "" && confirm != next {
		return apperr.Validation("passwords do not match")
	}
	if err := auth.ValidatePassword(next); err != nil {
		return err
	}
	hash, err := s.hasher.Hash(next)
	if err != nil {
		return err
	}
	return s.store.UpdatePassword(ctx, id, hash)
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

func validateProfile(in ProfileInput) error {
	if in.FirstName != nil && strings.TrimSpace(*in.FirstName) == "" {
		return apperr.Validation("first name cannot be empty")
	}
	return nil
}
