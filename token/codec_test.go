package token

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
)

func newTestCodec(t *testing.T) *Codec {
	t.Helper()

	c, err := NewCodec([]byte("unit-test-secret-0123456789abcdef"))
	if err != nil {
		t.Fatalf("NewCodec failed: %v", err)
	}
	return c
}

func TestNewCodecRejectsEmptySecret(t *testing.T) {
	if _, err := NewCodec(nil); err == nil {
		t.Fatal("expected error for empty secret")
	}
}

func TestSignVerifyRoundTrip(t *testing.T) {
	c := newTestCodec(t)

	in := Payload{SessionID: "sid-1", UserID: "uid-1", Exp: 1700000000000}
	tok, err := c.Sign(in)
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	out, err := c.Verify(tok)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if out != in {
		t.Fatalf("payload mismatch: got %+v want %+v", out, in)
	}
}

func TestTokenShape(t *testing.T) {
	c := newTestCodec(t)

	tok, err := c.Sign(Payload{SessionID: "s", UserID: "u", Exp: 42})
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	parts := strings.Split(tok, ".")
	if len(parts) != 2 {
		t.Fatalf("expected exactly one delimiter, got %d segments", len(parts))
	}

	body, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		t.Fatalf("segment one is not base64url: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(body, &decoded); err != nil {
		t.Fatalf("segment one is not JSON: %v", err)
	}
	for _, key := range []string{"sessionId", "userId", "exp"} {
		if _, ok := decoded[key]; !ok {
			t.Fatalf("payload missing key %q", key)
		}
	}

	if len(parts[1]) != 64 {
		t.Fatalf("signature is not 32 hex bytes: len=%d", len(parts[1]))
	}
	if parts[1] != strings.ToLower(parts[1]) {
		t.Fatal("signature must be lowercase hex")
	}
}

func TestVerifyRejectsTampering(t *testing.T) {
	c := newTestCodec(t)

	tok, err := c.Sign(Payload{SessionID: "sid-2", UserID: "uid-2", Exp: 99})
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	// Flip every single character in turn; all variants must fail.
	for i := 0; i < len(tok); i++ {
		mutated := []byte(tok)
		if mutated[i] == 'A' {
			mutated[i] = 'B'
		} else {
			mutated[i] = 'A'
		}
		if string(mutated) == tok {
			continue
		}
		if _, err := c.Verify(string(mutated)); err == nil {
			t.Fatalf("tampered token accepted at offset %d", i)
		}
	}
}

func TestVerifyRejectsWrongSegmentCount(t *testing.T) {
	c := newTestCodec(t)

	tok, err := c.Sign(Payload{SessionID: "s", UserID: "u", Exp: 1})
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	for _, bad := range []string{"", "nodots", tok + ".extra", "." + tok} {
		if _, err := c.Verify(bad); err == nil {
			t.Fatalf("accepted malformed token %q", bad)
		}
	}
}

func TestVerifyRejectsForeignSecret(t *testing.T) {
	c := newTestCodec(t)

	other, err := NewCodec([]byte("a-completely-different-secret"))
	if err != nil {
		t.Fatalf("NewCodec failed: %v", err)
	}

	tok, err := other.Sign(Payload{SessionID: "s", UserID: "u", Exp: 1})
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	if _, err := c.Verify(tok); err == nil {
		t.Fatal("accepted token signed with a different secret")
	}
}
