package domain

import (
	"errors"
	"strings"
)

// Role is a membership role within a single organization. Roles are compared
// by explicit set membership, never by rank.
type Role string

const (
	RoleViewer     Role = "viewer"
	RoleCourier    Role = "courier"
	RoleDispatcher Role = "dispatcher"
	RoleAdmin      Role = "admin"
	RoleOwner      Role = "owner"
)

// ErrUnknownRole reports a role string outside the fixed role set.
var ErrUnknownRole = errors.New("domain: unknown role")

// Roles lists every role from lowest to highest privilege.
func Roles() []Role {
	return []Role{RoleViewer, RoleCourier, RoleDispatcher, RoleAdmin, RoleOwner}
}

// ParseRole normalises s and returns the matching Role.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", ErrUnknownRole
	}
	return r, nil
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleViewer, RoleCourier, RoleDispatcher, RoleAdmin, RoleOwner:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }
