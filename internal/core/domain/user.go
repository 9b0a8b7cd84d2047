package domain

import (
	"fmt"
	"strings"
	"time"
)

// Role is the capability tag carried by every identity.
type Role string

const (
	RoleAdmin       Role = "admin"
	RoleSalesperson Role = "salesperson"

	// legacyRoleSalesperson is the role name used by accounts created before
	// the roles were renamed. Accepted on input only.
	legacyRoleSalesperson = "vendedor"
)

// SessionTTL is the fixed lifetime of an issued session token.
const SessionTTL = 24 * time.Hour

// ParseRole converts user input into a Role.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(RoleAdmin):
		return RoleAdmin, nil
	case string(RoleSalesperson), legacyRoleSalesperson:
		return RoleSalesperson, nil
	default:
		return "", Invalid("role", fmt.Sprintf("unknown role %q", s))
	}
}

// User models a back-office account.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Identity returns the token-facing view of the user.
func (u *User) Identity() Identity {
	return Identity{ID: u.ID, Email: u.Email, Role: u.Role}
}

// NormalizeEmail lower-cases and trims an email so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Identity is the authenticated caller extracted from a session token.
type Identity struct {
	ID    int64
	Email string
	Role  Role
}

func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}
