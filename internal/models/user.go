package models

import (
	"time"

	"github.com/google/uuid"
)

// Role constants
const (
	RoleUser       = "user"
	RoleAdmin      = "admin"
	RoleSuperadmin = "superadmin"
)

// User represents a person signed in via OIDC or a bearer token.
type User struct {
	ID        uuid.UUID `json:"id"`
	Sub       string    `json:"sub"` // OIDC subject identifier
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Picture   string    `json:"picture"`
	Role      string    `json:"role"` // user, admin, superadmin
	Bio       string    `json:"bio"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsAdmin returns true if the user's cached role grants admin capability.
// Authoritative checks go through the database (is_admin); this is only
// used to decide what navigation to render.
func (u *User) IsAdmin() bool {
	return u != nil && (u.Role == RoleAdmin || u.Role == RoleSuperadmin)
}

// IsSuperadmin returns true if the user's cached role is superadmin.
func (u *User) IsSuperadmin() bool {
	return u != nil && u.Role == RoleSuperadmin
}

// DisplayName returns the name, falling back to the email address.
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}
