package domain

import (
	"slices"

	dErrors "learnhub/pkg/domain-errors"
)

// Role is the closed set of account roles. Routes reference the constants, so
// a misspelled role is a compile error instead of an authorization bypass.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

var knownRoles = []Role{RoleUser, RoleAdmin}

// ParseRole is case-sensitive: "Admin" is not a role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unknown role")
	}
	return r, nil
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return slices.Contains(knownRoles, r)
}

func (r Role) String() string {
	return string(r)
}

// RoleSet is an immutable set of roles required by a protected operation.
type RoleSet struct {
	roles map[Role]struct{}
}

// Roles builds a RoleSet. Unknown roles are dropped so they can never match.
func Roles(roles ...Role) RoleSet {
	set := RoleSet{roles: make(map[Role]struct{}, len(roles))}
	for _, r := range roles {
		if r.Valid() {
			set.roles[r] = struct{}{}
		}
	}
	return set
}

// Contains reports whether r is a known role present in the set.
func (s RoleSet) Contains(r Role) bool {
	if !r.Valid() {
		return false
	}
	_, ok := s.roles[r]
	return ok
}

// Empty reports whether the set holds no roles.
func (s RoleSet) Empty() bool {
	return len(s.roles) == 0
}
