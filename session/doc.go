// Package session provides the bounded concurrent session store: per-user
// caps with oldest-created eviction, lazy expiry sweeps, and pluggable
// persistence.
//
// # Store contract
//
// [Store] is the persistence boundary. [MemoryStore] is the reference
// behavior: mutex-guarded maps, cleanup piggybacked on creation, no
// background timers. [RedisStore] keeps the same observable semantics on a
// Redis backend so deployments can swap in durable session state without
// touching the Manager.
//
// Creation is atomic per user: sweep expired entries, count the user's
// active sessions, evict the oldest-created one at the cap, insert the new
// session. Session ids are monotonic ULIDs, so equal-millisecond creations
// still evict deterministically (smaller id first).
//
// # What this package must NOT do
//
//   - Interpret bearer tokens or evaluate permissions.
//   - Reactivate a session once it is expired, logged out, or evicted.
//   - Import authgate, token, or permission (no upward imports).
package session
