package authgate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/MrEthical07/authgate/permission"
	"github.com/google/uuid"
)

// defaultAdminID is the well-known id the bootstrap admin account is
// seeded under. Seeding checks for this id, so it runs at most once per
// backing user store.
const defaultAdminID = "admin-default"

// GetUser returns the user with the given id, without its password
// hash.
func (m *Manager) GetUser(ctx context.Context, id string) (*User, error) {
	if m == nil {
		return nil, ErrManagerNotReady
	}
	u, err := m.users.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("%w: user lookup: %v", ErrInternal, err)
	}
	return u.public(), nil
}

// CreateUser registers a new account with a fresh id. Role names must
// be known to the role table; role grants are folded into the user's
// permission set at creation time. Permissions must be registered.
func (m *Manager) CreateUser(ctx context.Context, in CreateUserInput) (*User, error) {
	if m == nil {
		return nil, ErrManagerNotReady
	}
	if ctx == nil {
		ctx = context.Background()
	}

	username := strings.TrimSpace(in.Username)
	if username == "" {
		return nil, errors.New("authgate: username required")
	}
	if in.Password == "" {
		return nil, errors.New("authgate: password required")
	}

	for _, role := range in.Roles {
		if permission.IsBypassRole(role) {
			continue
		}
		if !m.roles.Known(role) {
			return nil, fmt.Errorf("authgate: unknown role %q", role)
		}
	}
	for _, perm := range in.Permissions {
		if !m.registry.Has(perm) {
			return nil, fmt.Errorf("authgate: unknown permission %q", perm)
		}
	}

	hash, err := m.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("%w: hash password: %v", ErrInternal, err)
	}

	perms := mergePermissions(in.Permissions, m.roles.Grants(in.Roles))

	u := &User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        strings.TrimSpace(in.Email),
		Roles:        append([]string(nil), in.Roles...),
		Permissions:  perms,
		Created:      m.now(),
		Active:       true,
		PasswordHash: hash,
	}

	if err := m.users.Create(ctx, u); err != nil {
		if errors.Is(err, ErrUserExists) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("%w: create user: %v", ErrInternal, err)
	}

	m.metrics.Inc(MetricUserCreated)
	m.emitAudit(ctx, auditEventUserCreated, true, u.ID, "", nil, func() map[string]string {
		return map[string]string{"username": u.Username}
	})

	return u.public(), nil
}

// SetUserActive flips an account's active flag. Deactivation does not
// touch the user's existing sessions; those fail at the next
// validation.
func (m *Manager) SetUserActive(ctx context.Context, id string, active bool) error {
	if m == nil {
		return ErrManagerNotReady
	}
	if err := m.users.SetActive(ctx, id, active); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("%w: set active: %v", ErrInternal, err)
	}
	m.emitAudit(ctx, auditEventUserStatusChange, true, id, "", nil, func() map[string]string {
		return map[string]string{"active": fmt.Sprintf("%t", active)}
	})
	return nil
}

// GetActiveSessions returns every currently usable session, for
// monitoring and audit.
func (m *Manager) GetActiveSessions(ctx context.Context) ([]SessionInfo, error) {
	if m == nil {
		return nil, ErrManagerNotReady
	}
	sessions, err := m.sessions.ActiveSessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list sessions: %v", ErrInternal, err)
	}

	out := make([]SessionInfo, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, SessionInfo{
			SessionID: s.ID,
			UserID:    s.UserID,
			Created:   s.Created,
			Expires:   s.Expires,
			IP:        s.IP,
			UserAgent: s.UserAgent,
			Active:    s.Active,
		})
	}
	return out, nil
}

// ActiveSessionCount reports how many usable sessions a user holds.
func (m *Manager) ActiveSessionCount(ctx context.Context, userID string) (int, error) {
	if m == nil {
		return 0, ErrManagerNotReady
	}
	n, err := m.sessions.ActiveCountFor(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("%w: count sessions: %v", ErrInternal, err)
	}
	return n, nil
}

func (m *Manager) seedDefaultAdmin() error {
	ctx := context.Background()

	_, err := m.users.Get(ctx, defaultAdminID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return fmt.Errorf("%w: admin lookup: %v", ErrInternal, err)
	}

	hash, err := m.hasher.Hash(m.cfg.Bootstrap.AdminPassword)
	if err != nil {
		return fmt.Errorf("%w: hash admin password: %v", ErrInternal, err)
	}

	admin := &User{
		ID:       defaultAdminID,
		Username: "admin",
		Roles:    []string{"admin", "system"},
		Permissions: []string{
			"config.read",
			"config.write",
			"agent.control",
			"debug.access",
			"user.manage",
			"secret.manage",
		},
		Created:      m.now(),
		Active:       true,
		PasswordHash: hash,
	}

	if err := m.users.Create(ctx, admin); err != nil {
		// A concurrent process may have seeded it first.
		if errors.Is(err, ErrUserExists) {
			return nil
		}
		return fmt.Errorf("%w: seed admin: %v", ErrInternal, err)
	}
	return nil
}

func mergePermissions(direct, granted []string) []string {
	seen := make(map[string]struct{}, len(direct)+len(granted))
	out := make([]string, 0, len(direct)+len(granted))
	for _, p := range direct {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	for _, p := range granted {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
