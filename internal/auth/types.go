package auth

import (
	"strings"
	"time"
)

// Role is the single permission level attached to a user account. Roles are
// assigned at registration and never mutated by any exposed operation.
type Role string

const (
	RoleResident Role = "resident"
	RoleAdmin    Role = "admin"
)

// Valid reports whether the role is one of the two known levels.
func (r Role) Valid() bool {
	return r == RoleResident || r == RoleAdmin
}

// Capability names the permission level an operation requires.
type Capability string

const (
	// CapabilityAuthenticated admits any resolved identity.
	CapabilityAuthenticated Capability = "authenticated"
	// CapabilityAdmin admits only identities with the admin role.
	CapabilityAdmin Capability = "admin"
)

// Identity is the resolved (userID, role) pair for an authenticated request.
// It is carried explicitly through context, never as ambient session state.
type Identity struct {
	UserID string
	Role   Role
}

// Allows reports whether this identity satisfies the required capability.
func (i Identity) Allows(c Capability) bool {
	if strings.TrimSpace(i.UserID) == "" || !i.Role.Valid() {
		return false
	}
	switch c {
	case CapabilityAuthenticated:
		return true
	case CapabilityAdmin:
		return i.Role == RoleAdmin
	default:
		return false
	}
}

// User is a community member account. Name, unit and phone are the only
// fields profile edits may touch; email and role are immutable after creation.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	UnitNumber   string    `json:"unit_number,omitempty"`
	PhoneNumber  string    `json:"phone_number,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// UserUpdate carries optional profile edits. Nil fields are left untouched.
type UserUpdate struct {
	Name        *string
	UnitNumber  *string
	PhoneNumber *string
}
