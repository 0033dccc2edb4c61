package password

import (
	"context"
	"strings"
	"testing"
)

func testConfig() Config {
	// Minimum legal costs keep the test suite fast.
	return Config{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   16,
	}
}

func TestHashVerifyRoundTrip(t *testing.T) {
	hasher, err := NewArgon2(testConfig())
	if err != nil {
		t.Fatalf("NewArgon2 failed: %v", err)
	}

	encoded, err := hasher.Hash("correct-horse-battery")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if !strings.HasPrefix(encoded, "$argon2id$") {
		t.Fatalf("unexpected PHC prefix: %s", encoded)
	}

	ok, err := hasher.Verify("correct-horse-battery", encoded)
	if err != nil || !ok {
		t.Fatalf("expected match, ok=%v err=%v", ok, err)
	}

	ok, err = hasher.Verify("wrong-password", encoded)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if ok {
		t.Fatal("wrong password verified")
	}
}

func TestHashesAreSalted(t *testing.T) {
	hasher, err := NewArgon2(testConfig())
	if err != nil {
		t.Fatalf("NewArgon2 failed: %v", err)
	}

	a, _ := hasher.Hash("same-password")
	b, _ := hasher.Hash("same-password")
	if a == b {
		t.Fatal("two hashes of the same password must differ")
	}
}

func TestVerifyRejectsMalformedHash(t *testing.T) {
	hasher, err := NewArgon2(testConfig())
	if err != nil {
		t.Fatalf("NewArgon2 failed: %v", err)
	}

	for _, bad := range []string{
		"",
		"plaintext",
		"$argon2id$v=19$m=8192,t=1,p=1$short$short",
		"$bcrypt$v=19$m=8192,t=1,p=1$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAA",
	} {
		if _, err := hasher.Verify("x", bad); err == nil {
			t.Fatalf("malformed hash accepted: %q", bad)
		}
	}
}

func TestNewArgon2RejectsWeakConfig(t *testing.T) {
	weak := testConfig()
	weak.Memory = 1024
	if _, err := NewArgon2(weak); err == nil {
		t.Fatal("expected rejection of sub-minimum memory")
	}
}

func TestStoreVerifier(t *testing.T) {
	hasher, err := NewArgon2(testConfig())
	if err != nil {
		t.Fatalf("NewArgon2 failed: %v", err)
	}
	encoded, err := hasher.Hash("hunter2-hunter2")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}

	hashes := map[string]string{"alice": encoded, "ghost": ""}
	verifier := NewStoreVerifier(hasher, func(_ context.Context, username string) (string, bool) {
		h, ok := hashes[username]
		return h, ok
	})

	ctx := context.Background()

	ok, err := verifier.Verify(ctx, "alice", "hunter2-hunter2")
	if err != nil || !ok {
		t.Fatalf("expected match, ok=%v err=%v", ok, err)
	}
	ok, err = verifier.Verify(ctx, "alice", "wrong")
	if err != nil || ok {
		t.Fatalf("expected mismatch, ok=%v err=%v", ok, err)
	}
	// Unknown user and empty hash are indistinguishable from a mismatch.
	ok, err = verifier.Verify(ctx, "nobody", "hunter2-hunter2")
	if err != nil || ok {
		t.Fatalf("expected mismatch for unknown user, ok=%v err=%v", ok, err)
	}
	ok, err = verifier.Verify(ctx, "ghost", "hunter2-hunter2")
	if err != nil || ok {
		t.Fatalf("expected mismatch for empty hash, ok=%v err=%v", ok, err)
	}
}
