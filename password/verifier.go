package password

import "context"

// HashLookup resolves a username to its stored password hash. The second
// return is false when the user is unknown; the verifier then fails
// without revealing which case occurred.
type HashLookup func(ctx context.Context, username string) (string, bool)

// StoreVerifier verifies plaintext passwords against hashes resolved
// through a [HashLookup]. It satisfies the Manager's CredentialVerifier
// boundary without this package knowing the user model.
type StoreVerifier struct {
	hasher *Argon2
	lookup HashLookup
}

// NewStoreVerifier creates a [StoreVerifier].
func NewStoreVerifier(hasher *Argon2, lookup HashLookup) *StoreVerifier {
	return &StoreVerifier{hasher: hasher, lookup: lookup}
}

// Verify reports whether the password matches the stored hash for
// username. Unknown users and empty stored hashes verify false, not as
// errors, so callers cannot distinguish them from a wrong password.
func (v *StoreVerifier) Verify(ctx context.Context, username, password string) (bool, error) {
	if v == nil || v.hasher == nil || v.lookup == nil {
		return false, nil
	}

	encoded, ok := v.lookup(ctx, username)
	if !ok || encoded == "" {
		return false, nil
	}

	match, err := v.hasher.Verify(password, encoded)
	if err != nil {
		// Corrupt stored hash: treat as non-match rather than leaking
		// storage details through the login path.
		return false, nil
	}
	return match, nil
}
