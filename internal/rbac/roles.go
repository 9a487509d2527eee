// Package rbac implements role-based access control with a fixed three-tier
// hierarchy. Every authenticated user carries exactly one role; a role grants
// everything the roles below it grant.
package rbac

import "strings"

// Role names, ordered by privilege.
const (
	RoleSuperadmin = "superadmin"
	RoleAdmin      = "admin"
	RoleStaff      = "staff"
)

var roleLevels = map[string]int{
	RoleSuperadmin: 3,
	RoleAdmin:      2,
	RoleStaff:      1,
}

// Valid reports whether name is a known role.
func Valid(name string) bool {
	_, ok := roleLevels[normalize(name)]
	return ok
}

// Allows reports whether the held role satisfies the required role. A higher
// role always satisfies a lower requirement.
func Allows(held, required string) bool {
	h, ok := roleLevels[normalize(held)]
	if !ok {
		return false
	}
	req, ok := roleLevels[normalize(required)]
	if !ok {
		return false
	}
	return h >= req
}

// Roles returns the known role names from highest to lowest privilege.
func Roles() []string {
	return []string{RoleSuperadmin, RoleAdmin, RoleStaff}
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
