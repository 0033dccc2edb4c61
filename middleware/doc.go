// Package middleware exposes HTTP adapters over authgate.Manager:
// bearer token extraction, token validation, guest fallback, and
// permission/role guards.
//
// # Guards
//
//   - [Authenticate] — extracts the bearer token, validates it, and
//     injects the result into the request context.
//   - [RequirePermission] — rejects requests whose identity lacks a
//     permission.
//   - [RequireRole] — rejects requests whose identity lacks a role.
//   - [Throttle] — per-client request rate limiting in front of the
//     login endpoint.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Manager calls. It makes
// no authentication decisions of its own, and its rejection bodies are
// deliberately generic so responses do not reveal which check failed.
//
// # What this package must NOT do
//
//   - Decode or sign tokens directly (delegates to the Manager).
//   - Distinguish token failure modes in response bodies.
//   - Touch the session or user stores.
package middleware
