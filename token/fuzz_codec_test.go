package token

import (
	"strings"
	"testing"
)

// FuzzVerify exercises the codec with arbitrary token strings.
// Goal: no panics; invalid inputs must be rejected with errors.
func FuzzVerify(f *testing.F) {
	c, err := NewCodec([]byte("fuzz-secret"))
	if err != nil {
		f.Fatal(err)
	}

	valid, err := c.Sign(Payload{SessionID: "sid", UserID: "uid", Exp: 1})
	if err != nil {
		f.Fatal(err)
	}

	f.Add(valid)
	f.Add("")
	f.Add(".")
	f.Add("..")
	f.Add("eyJzZXNzaW9uSWQiOiJ4In0.deadbeef")
	f.Add("not-base64!.0000")

	f.Fuzz(func(t *testing.T, input string) {
		p, err := c.Verify(input)
		if err != nil {
			if p != (Payload{}) {
				t.Fatal("failed Verify must return zero payload")
			}
			return
		}
		// Anything accepted must survive a re-sign round trip.
		resigned, signErr := c.Sign(p)
		if signErr != nil {
			t.Fatalf("re-sign of accepted payload failed: %v", signErr)
		}
		if strings.Count(resigned, ".") != 1 {
			t.Fatal("signed token must contain exactly one delimiter")
		}
	})
}
