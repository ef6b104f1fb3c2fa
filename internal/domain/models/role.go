// internal/domain/models/role.go
package models

import "strings"

// Role is the closed set of account roles. Every authorization checkpoint
// switches over these values and denies anything else.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// AllRoles returns all valid user roles.
func AllRoles() []Role {
	return []Role{RoleUser, RoleAdmin}
}

// ParseRole converts a raw value into a Role. The second result is false
// for anything outside the enum.
func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleUser:
		return RoleUser, true
	case RoleAdmin:
		return RoleAdmin, true
	default:
		return "", false
	}
}

// RoleOrUser parses a stored role, demoting unknown values to RoleUser.
func RoleOrUser(s string) Role {
	if r, ok := ParseRole(s); ok {
		return r
	}
	return RoleUser
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, ok := ParseRole(string(r))
	return ok
}

// String returns the stored form of the role.
func (r Role) String() string { return string(r) }

// RoleStrings returns the enum as plain strings (JSON schema, messages).
func RoleStrings() []string {
	roles := AllRoles()
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = string(r)
	}
	return out
}
