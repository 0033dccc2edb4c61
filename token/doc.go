// Package token implements the signed bearer token codec: a base64url JSON
// payload joined to a lowercase hex HMAC-SHA256 signature by a single dot.
//
// # Wire format
//
//	<base64url(JSON payload)>.<hex(HMAC-SHA256(secret, base64 text))>
//
// The signature covers the encoded payload text, not the decoded bytes, so
// verification recomputes the MAC over segment one exactly as received. The
// payload carries sessionId, userId, and an advisory exp in epoch
// milliseconds; the authoritative expiry decision belongs to the session
// store, never to this package.
//
// # What this package must NOT do
//
//   - Hold session state or consult any store (the codec is stateless).
//   - Compare signatures with ordinary equality (constant-time only).
//   - Import authgate, session, or permission (no upward imports).
package token
