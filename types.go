package authgate

import (
	"context"
	"time"
)

// User is a registry record. A user with the admin or system role is
// authorized for every permission regardless of the Permissions set.
// Users are never hard-deleted; deactivation is Active=false.
type User struct {
	ID          string
	Username    string
	Email       string
	Roles       []string
	Permissions []string
	Created     time.Time
	// LastLogin is zero until the first successful authentication.
	LastLogin time.Time
	Active    bool
	// PasswordHash feeds the built-in verifier. It is stripped from every
	// User value the Manager hands out.
	PasswordHash string
}

func (u *User) clone() *User {
	if u == nil {
		return nil
	}
	dup := *u
	dup.Roles = append([]string(nil), u.Roles...)
	dup.Permissions = append([]string(nil), u.Permissions...)
	return &dup
}

// public returns a copy safe to hand across the API boundary.
func (u *User) public() *User {
	dup := u.clone()
	if dup != nil {
		dup.PasswordHash = ""
	}
	return dup
}

// CreateUserInput describes a user to create. The Manager assigns the id
// and creation timestamp. When Permissions is empty, the default grants of
// the named roles are applied.
type CreateUserInput struct {
	Username    string
	Email       string
	Password    string
	Roles       []string
	Permissions []string
}

// UserStore is the user registry persistence boundary. The in-memory
// implementation is the default; stores/postgres provides a durable one.
type UserStore interface {
	// Get returns the user or [ErrUserNotFound].
	Get(ctx context.Context, id string) (*User, error)
	// FindByUsername returns the user or [ErrUserNotFound].
	FindByUsername(ctx context.Context, username string) (*User, error)
	// Create inserts the user; [ErrUserExists] on duplicate id or
	// username.
	Create(ctx context.Context, u *User) error
	// TouchLastLogin records the most recent successful authentication.
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
	// SetActive flips the deactivation flag.
	SetActive(ctx context.Context, id string, active bool) error
}

// CredentialVerifier is the external collaborator that checks a plaintext
// password. The Manager only consumes the boolean; hashing strength is the
// verifier's concern. An error return is treated as an internal fault, not
// as a failed login.
type CredentialVerifier interface {
	Verify(ctx context.Context, username, password string) (bool, error)
}

// SessionInfo is the safe introspection view for a session. It excludes
// the stored bearer token material.
type SessionInfo struct {
	SessionID string
	UserID    string
	Created   time.Time
	Expires   time.Time
	IP        string
	UserAgent string
	Active    bool
}

// AuthResult is returned by [Manager.ValidateToken]: the authenticated
// user plus the session that carried the token.
type AuthResult struct {
	User    *User
	Session SessionInfo
}

// LoginResult is returned by [Manager.Authenticate].
type LoginResult struct {
	Token     string
	User      *User
	SessionID string
}
