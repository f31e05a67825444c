package models

import (
	"errors"
	"strings"
)

// Role is the closed set of authorization roles a user can hold.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

var ErrInvalidRole = errors.New("role must be one of: user, admin")

// ParseRole normalizes s and validates it against the known roles.
func ParseRole(s string) (Role, error) {
	role := Role(strings.ToLower(strings.TrimSpace(s)))
	if !role.Valid() {
		return "", ErrInvalidRole
	}
	return role, nil
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Actor is the authenticated identity performing a request.
type Actor struct {
	ID   uint64
	Role Role
}

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// Authenticated reports whether the actor carries a usable identity.
func (a Actor) Authenticated() bool {
	return a.ID != 0 && a.Role.Valid()
}
