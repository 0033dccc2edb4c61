package authgate

import (
	"context"

	"github.com/MrEthical07/authgate/permission"
)

// HasPermission reports whether the user may exercise perm. Users whose
// role set includes admin or system pass every check, before the
// permission string is even considered.
func (m *Manager) HasPermission(user *User, perm string) bool {
	if m == nil || user == nil {
		return false
	}
	return permission.Allowed(user.Roles, user.Permissions, perm)
}

// RequirePermission is HasPermission as an error-returning guard.
func (m *Manager) RequirePermission(ctx context.Context, user *User, perm string) error {
	if m == nil {
		return ErrManagerNotReady
	}
	if m.HasPermission(user, perm) {
		return nil
	}
	userID := ""
	if user != nil {
		userID = user.ID
	}
	m.metrics.Inc(MetricPermissionDenied)
	m.emitAudit(ctx, auditEventPermissionDenied, false, userID, "", ErrPermissionDenied, func() map[string]string {
		return map[string]string{"permission": perm}
	})
	return ErrPermissionDenied
}

// RequireRole fails unless the user holds the role. The admin bypass
// does not apply here; role checks are literal membership.
func (m *Manager) RequireRole(ctx context.Context, user *User, role string) error {
	if m == nil {
		return ErrManagerNotReady
	}
	if user == nil {
		return ErrPermissionDenied
	}
	if permission.HasRole(user.Roles, role) {
		return nil
	}
	m.metrics.Inc(MetricPermissionDenied)
	m.emitAudit(ctx, auditEventPermissionDenied, false, user.ID, "", ErrPermissionDenied, func() map[string]string {
		return map[string]string{"role": role}
	})
	return ErrPermissionDenied
}
