package permission

import (
	"errors"
	"sync"
)

const (
	// RoleAdmin bypasses every permission check.
	RoleAdmin = "admin"
	// RoleSystem bypasses every permission check, like [RoleAdmin].
	RoleSystem = "system"
)

// IsBypassRole reports whether the role satisfies any permission check.
func IsBypassRole(role string) bool {
	return role == RoleAdmin || role == RoleSystem
}

// Allowed is the authorization predicate: true when the role set contains
// a bypass role, else true iff perm is a member of the permission set.
func Allowed(roles []string, perms []string, perm string) bool {
	for _, role := range roles {
		if IsBypassRole(role) {
			return true
		}
	}
	for _, granted := range perms {
		if granted == perm {
			return true
		}
	}
	return false
}

// HasRole reports membership of role in the role set.
func HasRole(roles []string, role string) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

// Roles maps role names to default permission grants. It seeds the
// permission set of newly created users that name a role but no explicit
// grants.
type Roles struct {
	registry *Registry

	mu     sync.RWMutex
	grants map[string][]string
	frozen bool
}

// NewRoles creates a role table validated against the given registry.
func NewRoles(registry *Registry) *Roles {
	return &Roles{
		registry: registry,
		grants:   make(map[string][]string),
	}
}

// Register defines a role and its default permission grants. Every grant
// must already be present in the registry.
func (r *Roles) Register(role string, perms []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return errors.New("role table frozen")
	}
	if role == "" {
		return errors.New("role name cannot be empty")
	}
	if _, exists := r.grants[role]; exists {
		return errors.New("role already registered: " + role)
	}
	for _, perm := range perms {
		if !r.registry.Has(perm) {
			return errors.New("permission not registered: " + perm)
		}
	}

	r.grants[role] = append([]string(nil), perms...)
	return nil
}

// Known reports whether the role has been registered. Bypass roles are
// always known.
func (r *Roles) Known(role string) bool {
	if IsBypassRole(role) {
		return true
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.grants[role]
	return ok
}

// Grants returns the union of default grants for the given roles, without
// duplicates, preserving first-seen order.
func (r *Roles) Grants(roles []string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	var out []string
	for _, role := range roles {
		for _, perm := range r.grants[role] {
			if _, dup := seen[perm]; dup {
				continue
			}
			seen[perm] = struct{}{}
			out = append(out, perm)
		}
	}
	return out
}

// Freeze makes the role table immutable. Called once at manager build time.
func (r *Roles) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
}
