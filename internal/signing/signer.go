// Package signing implements the deterministic keyed-MAC used to sign and
// verify every frame crossing the stage A to stage B boundary.
package signing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Signer signs and verifies message bodies with a single shared secret.
type Signer struct {
	secret []byte
}

// New builds a Signer over the given shared secret.
func New(secret string) *Signer {
	return &Signer{secret: []byte(secret)}
}

// Sign returns the lowercase hex HMAC-SHA256 of body under the shared
// secret.
func (s *Signer) Sign(body string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(body))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify recomputes the MAC over body and compares it against sig in
// constant time. Trailing whitespace on sig is stripped first to tolerate
// line-ending normalization by intermediate stream readers.
func (s *Signer) Verify(body, sig string) bool {
	sig = strings.TrimRight(sig, "\r\n \t")
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(body))
	expected := mac.Sum(nil)

	got, err := hex.DecodeString(sig)
	if err != nil {
		return false
	}
	return hmac.Equal(expected, got)
}
