// Package password provides Argon2id hashing in PHC string format and the
// default credential verifier used by the Manager when no external
// verifier is injected.
//
// The Manager itself never sees plaintext passwords after verification;
// it only consumes the pass/fail boolean.
package password
