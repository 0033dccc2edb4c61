package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
)

const delimiter = "."

// ErrInvalidToken is returned for any token that fails decoding or
// signature verification. Callers get no detail about which step failed.
var ErrInvalidToken = errors.New("invalid token")

// Payload is the signed token body. Exp is epoch milliseconds and is
// advisory only; it mirrors the session's expiry at issuance.
type Payload struct {
	SessionID string `json:"sessionId"`
	UserID    string `json:"userId"`
	Exp       int64  `json:"exp"`
}

// Codec signs and verifies bearer tokens with a symmetric secret.
type Codec struct {
	secret []byte
}

// NewCodec creates a [Codec]. The secret must be non-empty; 32 random
// bytes is the expected strength.
func NewCodec(secret []byte) (*Codec, error) {
	if len(secret) == 0 {
		return nil, errors.New("token secret must not be empty")
	}

	c := &Codec{secret: make([]byte, len(secret))}
	copy(c.secret, secret)
	return c, nil
}

// Sign encodes and signs the payload into wire format.
func (c *Codec) Sign(p Payload) (string, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return "", err
	}

	encoded := base64.RawURLEncoding.EncodeToString(body)
	return encoded + delimiter + c.signature(encoded), nil
}

// Verify checks the token's shape and signature and returns the decoded
// payload. Every failure mode collapses to [ErrInvalidToken]; the payload
// is only decoded after the signature matches.
func (c *Codec) Verify(tok string) (Payload, error) {
	var p Payload

	parts := strings.Split(tok, delimiter)
	if len(parts) != 2 {
		return p, ErrInvalidToken
	}

	body, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return p, ErrInvalidToken
	}

	// MAC over the base64 text of segment one, exactly as received.
	expected := c.signature(parts[0])
	if !hmac.Equal([]byte(expected), []byte(parts[1])) {
		return p, ErrInvalidToken
	}

	if err := json.Unmarshal(body, &p); err != nil {
		return p, ErrInvalidToken
	}

	return p, nil
}

func (c *Codec) signature(encodedPayload string) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(encodedPayload))
	return hex.EncodeToString(mac.Sum(nil))
}
