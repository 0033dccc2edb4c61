// Package authgate provides a self-contained session-and-token
// authentication manager: signed bearer tokens, a bounded concurrent
// session store with oldest-evicted caps, failed-login throttling, a user
// registry with role/permission authorization, and middleware hooks for
// HTTP integration.
//
// The package is designed for concurrent server workloads: Manager methods
// are safe to call from multiple goroutines after initialization through
// [Builder.Build]. There is no process-wide singleton; construct one
// [Manager] at startup and pass it to request handlers.
//
// # Architecture boundaries
//
// authgate is the public surface. It exposes [Manager], [Builder],
// [Config], and value types (User, SessionInfo, AuthResult, AuditEvent,
// MetricsSnapshot). Token encoding lives in token/, session persistence in
// session/, attempt tracking in internal/rate, and authorization rules in
// permission/.
//
// # Failure semantics
//
// Expected negative outcomes (bad credentials, rate limits, invalid or
// expired tokens, missing permissions) are sentinel error values matched
// with errors.Is; they never panic and never cross the API as anything
// but values. Only collaborator faults are wrapped in [ErrInternal], and
// those still leave the manager's state consistent.
package authgate
