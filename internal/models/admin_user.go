package models

import (
	"time"

	"github.com/google/uuid"
)

// AdminRole is the role of an admin operator.
type AdminRole string

const (
	AdminRoleAdmin      AdminRole = "admin"
	AdminRoleSuperAdmin AdminRole = "super_admin"
)

// Valid reports whether r is one of the known admin roles.
func (r AdminRole) Valid() bool {
	switch r {
	case AdminRoleAdmin, AdminRoleSuperAdmin:
		return true
	}
	return false
}

// AdminUser is a privileged operator. Stored in its own table; never a flag on User.
type AdminUser struct {
	ID                   uuid.UUID  `json:"id"`
	Username             string     `json:"username"`
	PasswordHash         string     `json:"-"`
	FullName             string     `json:"fullName"`
	Email                string     `json:"email"`
	Role                 AdminRole  `json:"role"`
	IsActive             bool       `json:"isActive"`
	PasswordResetToken   *string    `json:"-"`
	PasswordResetExpires *time.Time `json:"-"`
	LastLoginAt          *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt            time.Time  `json:"createdAt"`
	UpdatedAt            time.Time  `json:"updatedAt"`
}
