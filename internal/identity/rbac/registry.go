// Package rbac holds the static role-to-permission mapping and the lookups
// the access guard runs on every protected request. The table is built once
// at startup and never mutated, so unsynchronized concurrent reads are safe.
package rbac

import (
	"sort"

	"github.com/lockhaven/identity/internal/identity/domain"
)

// Permission is a capability scoped to an action:resource pair.
type Permission string

// The closed permission set. Granting a new capability is a change to
// DefaultGrants, not to any schema.
const (
	// User management
	CreateUser Permission = "create:user"
	ReadUser   Permission = "read:user"
	UpdateUser Permission = "update:user"
	DeleteUser Permission = "delete:user"

	// Own profile
	ReadOwnProfile   Permission = "read:own_profile"
	UpdateOwnProfile Permission = "update:own_profile"

	// Admin-only
	ReadAllUsers  Permission = "read:all_users"
	UpdateAnyUser Permission = "update:any_user"
	DeleteAnyUser Permission = "delete:any_user"
	AssignRoles   Permission = "assign:roles"
)

// DefaultGrants is the canonical role→permission table. Admin gets the full
// set, user gets self-service, guest gets nothing.
func DefaultGrants() map[string][]Permission {
	return map[string][]Permission{
		domain.RoleAdmin: {
			CreateUser, ReadUser, UpdateUser, DeleteUser,
			ReadOwnProfile, UpdateOwnProfile,
			ReadAllUsers, UpdateAnyUser, DeleteAnyUser, AssignRoles,
		},
		domain.RoleUser: {
			ReadOwnProfile, UpdateOwnProfile,
		},
		domain.RoleGuest: {},
	}
}

// Registry answers permission queries against a precomputed immutable table.
type Registry struct {
	grants map[string]map[Permission]struct{}
}

// NewRegistry precomputes per-role permission sets for O(1) membership checks.
func NewRegistry(grants map[string][]Permission) *Registry {
	table := make(map[string]map[Permission]struct{}, len(grants))
	for role, perms := range grants {
		set := make(map[Permission]struct{}, len(perms))
		for _, p := range perms {
			set[p] = struct{}{}
		}
		table[role] = set
	}
	return &Registry{grants: table}
}

// Default returns a Registry over DefaultGrants.
func Default() *Registry {
	return NewRegistry(DefaultGrants())
}

// HasPermission reports whether at least one held role grants the required
// permission. Unknown roles grant nothing.
func (r *Registry) HasPermission(roles []string, required string) bool {
	for _, role := range roles {
		if set, ok := r.grants[role]; ok {
			if _, ok := set[Permission(required)]; ok {
				return true
			}
		}
	}
	return false
}

// Expand returns the sorted union of all grants for the given roles. Used to
// answer capability queries in bulk.
func (r *Registry) Expand(roles []string) []Permission {
	union := make(map[Permission]struct{})
	for _, role := range roles {
		for p := range r.grants[role] {
			union[p] = struct{}{}
		}
	}

	out := make([]Permission, 0, len(union))
	for p := range union {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Roles lists the role names known to the registry.
func (r *Registry) Roles() []string {
	out := make([]string, 0, len(r.grants))
	for role := range r.grants {
		out = append(out, role)
	}
	sort.Strings(out)
	return out
}
