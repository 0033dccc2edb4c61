package session

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by [Store.Get] for unknown session ids.
var ErrNotFound = errors.New("session not found")

// Config holds store tuning parameters shared by all backends.
type Config struct {
	// Timeout is the session lifetime; Expires = Created + Timeout.
	Timeout time.Duration
	// MaxPerUser caps concurrently active sessions per user. Creating a
	// session beyond the cap evicts the user's oldest-created one.
	MaxPerUser int
	// RedisPrefix namespaces keys for [RedisStore]; ignored by
	// [MemoryStore].
	RedisPrefix string
}

// DefaultConfig returns the production defaults: 24h timeout, 5 sessions.
func DefaultConfig() Config {
	return Config{
		Timeout:     24 * time.Hour,
		MaxPerUser:  5,
		RedisPrefix: "ag:",
	}
}

// Store is the session persistence boundary. Implementations must make
// Create atomic per user and must never resurrect a deactivated session.
type Store interface {
	// Create sweeps expired sessions, enforces the per-user cap by
	// evicting the oldest-created active session when needed, and inserts
	// a fresh active session. It returns the created session and the ids
	// of any sessions deactivated to make room.
	Create(ctx context.Context, userID, ip, userAgent string) (*Session, []string, error)

	// Get returns the session (active or not) or [ErrNotFound].
	Get(ctx context.Context, sessionID string) (*Session, error)

	// AttachToken stores the signed bearer string on the session for
	// reference and audit.
	AttachToken(ctx context.Context, sessionID, token string) error

	// Deactivate marks the session inactive. Idempotent; unknown ids are
	// not an error.
	Deactivate(ctx context.Context, sessionID string) error

	// ActiveCountFor returns the number of usable sessions owned by the
	// user.
	ActiveCountFor(ctx context.Context, userID string) (int, error)

	// ActiveSessions returns every usable session, for monitoring and
	// audit.
	ActiveSessions(ctx context.Context) ([]*Session, error)

	// Sweep removes sessions whose expiry has passed and returns how many
	// were dropped. It only touches sessions already failing the usable
	// predicate, so calling it on any schedule leaves observable behavior
	// unchanged.
	Sweep(ctx context.Context) (int, error)
}
