package accounts

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/agrimech/portal/internal/apperr"
	"github.com/agrimech/portal/internal/auth"
	"github.com/agrimech/portal/internal/models"
)

// CreateUserInput is an admin-created account. Such accounts start verified.
type CreateUserInput struct {
	Email        string
	Password     string
	FirstName    string
	LastName     string
	Role         models.UserRole
	Organization string
	Country      string
}

// ListUsers returns a page of users.
func (s *Service) ListUsers(ctx context.Context, f UserFilter) ([]models.UserPublic, int, error) {
	users, total, err := s.store.List(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	out := make([]models.UserPublic, 0, len(users))
	for i := range users {
		out = append(out, users[i].ToPublic())
	}
	return out, total, nil
}

// GetUser returns one user.
func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.store.GetByID(ctx, id)
}

// CreateUser creates an active, verified account on behalf of an admin.
func (s *Service) CreateUser(ctx context.Context, in CreateUserInput) (*models.User, error) {
	in.Email = strings.TrimSpace(in.Email)
	in.FirstName = strings.TrimSpace(in.FirstName)
	if err := validateEmail(in.Email); err != nil {
		return nil, err
	}
	if in.FirstName == "" {
		return nil, apperr.Validation("first name is required")
	}
	if in.Role == "" {
		in.Role = models.UserRoleUser
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
	u := &models.User{
		Email:           in.Email,
		PasswordHash:    hash,
		FirstName:       in.FirstName,
		LastName:        strings.TrimSpace(in.LastName),
		Role:            in.Role,
		IsActive:        true,
		IsEmailVerified: true,
		Organization:    in.Organization,
		Country:         in.Country,
	}
	if err := s.store.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// UpdateUser applies an admin edit.
func (s *Service) UpdateUser(ctx context.Context, id uuid.UUID, in UserUpdate) (*models.User, error) {
	if in.Role != nil && !in.Role.Valid() {
		return nil, apperr.Validation("invalid role")
	}
	if err := validateProfile(in.ProfileInput); err != nil {
		return nil, err
	}
	return s.store.Update(ctx, id, in)
}

// DeleteUser hard-deletes a user and, through the schema, their registrations.
func (s *Service) DeleteUser(ctx context.Context, id uuid.UUID) error {
	return s.store.Delete(ctx, id)
}
