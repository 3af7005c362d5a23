package types

import (
	"time"

	"github.com/google/uuid"
)

// User is an administrative account. Accounts are deactivated rather than
// hard-deleted in normal operation so the audit trail survives, though the
// admin routes also allow hard deletes.
type User struct {
	ID           uuid.UUID  `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	FirstName    string     `json:"firstName"`
	LastName     string     `json:"lastName"`
	Role         Role       `json:"role"`
	IsActive     bool       `json:"isActive"`
	LastLogin    *time.Time `json:"lastLogin,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// Identity is the minimal projection attached to the request context by the
// authentication middleware.
type Identity struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	IsActive  bool      `json:"isActive"`
}

// CreateUserParams is the admin user-creation request body.
type CreateUserParams struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"firstName" validate:"required,max=100"`
	LastName  string `json:"lastName" validate:"required,max=100"`
	Role      string `json:"role" validate:"required,oneof=manager admin super_admin"`
	IsActive  *bool  `json:"isActive"`
}

// UpdateUserParams carries optional fields for a partial user update.
type UpdateUserParams struct {
	Email     *string `json:"email" validate:"omitempty,email"`
	FirstName *string `json:"firstName" validate:"omitempty,min=1,max=100"`
	LastName  *string `json:"lastName" validate:"omitempty,min=1,max=100"`
	Role      *string `json:"role" validate:"omitempty,oneof=manager admin super_admin"`
	IsActive  *bool   `json:"isActive"`
}

// UpdateProfileParams is the self-service profile update body.
type UpdateProfileParams struct {
	Email     *string `json:"email" validate:"omitempty,email"`
	FirstName *string `json:"firstName" validate:"omitempty,min=1,max=100"`
	LastName  *string `json:"lastName" validate:"omitempty,min=1,max=100"`
}

// ChangePasswordParams is the self-service password change body.
type ChangePasswordParams struct {
	CurrentPassword string `json:"currentPassword" validate:"required,min=6"`
	NewPassword     string `json:"newPassword" validate:"required,min=6"`
}

// BulkUserParams applies one operation to a set of users.
type BulkUserParams struct {
	Operation string   `json:"operation" validate:"required,oneof=activate deactivate delete"`
	UserIDs   []string `json:"userIds" validate:"required,min=1,dive,uuid"`
}
