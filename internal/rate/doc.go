// Package rate tracks failed login attempts per identifier (client IP when
// available, else username) and decides lockout.
//
// # Window semantics
//
// Counters are latched, not sliding: a record accumulates failures until it
// crosses the threshold, and from then on the identifier is rejected while
// the most recent attempt is younger than the window. The passage of time
// never resets the count; only [Limiter.Clear] does. One fresh failure after
// the window lapses therefore re-arms the lockout immediately. Rejection
// depends on age-since-last-attempt, not age-since-first-attempt.
//
// # What this package must NOT do
//
//   - Consult the credential verifier or any user data.
//   - Be imported outside the authgate module.
package rate
