package authgate

import "errors"

var (
	// ErrManagerNotReady is returned when a Manager method is called on a
	// nil or incompletely built receiver.
	ErrManagerNotReady = errors.New("manager not ready")
	// ErrRateLimited rejects authentication for an identifier with too
	// many recent failed attempts. The verifier is never consulted.
	ErrRateLimited = errors.New("login rate limited")
	// ErrInvalidCredentials covers unknown user, inactive user, and wrong
	// password alike; callers must not be able to tell them apart.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken covers malformed tokens, bad signatures, and
	// unknown sessions.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredSession is returned when the signature verifies but the
	// session is past its expiry; validation deactivates it as a side
	// effect.
	ErrExpiredSession = errors.New("session expired")
	// ErrInactiveSession is returned for sessions terminated by logout or
	// eviction.
	ErrInactiveSession = errors.New("session inactive")
	// ErrInactiveUser is returned when the session is fine but its owner
	// is deactivated or gone; the session's own active flag is untouched.
	ErrInactiveUser = errors.New("user inactive")
	// ErrPermissionDenied is returned by the permission and role guards
	// for authenticated users lacking the required grant.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrUserNotFound is returned by administrative lookups.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserExists rejects user creation with a duplicate username.
	ErrUserExists = errors.New("user already exists")
	// ErrInternal wraps unexpected collaborator faults. It is the only
	// error class that reports a bug or outage rather than an expected
	// negative outcome.
	ErrInternal = errors.New("internal error")
)
