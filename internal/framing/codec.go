// Package framing implements the signed-line wire codec shared by stage A's
// fan-out sessions and stage B's upstream client: body + "|sig:" + hex(HMAC)
// + "\n".
package framing

import (
	"fmt"
	"strings"

	"github.com/marketpulse/tickmesh/internal/signing"
	"github.com/marketpulse/tickmesh/internal/ticks"
)

const sigMarker = "|sig:"

// SignedBody signs body and appends the "|sig:<hex>" suffix, without a
// trailing newline. This is the unit a subscriber session queues: the
// newline is appended only at the point the session actually writes to its
// socket.
func SignedBody(signer *signing.Signer, body string) string {
	return body + sigMarker + signer.Sign(body)
}

// Encode signs body and appends the trailing newline. The returned string
// never itself ends in another newline before the appended one; body must
// not contain "\n".
func Encode(signer *signing.Signer, body string) string {
	return SignedBody(signer, body) + "\n"
}

// ErrNoSignature is returned when a line has no "|sig:" marker at all.
var ErrNoSignature = fmt.Errorf("framing: no %q marker in line", sigMarker)

// ErrBadSignature is returned when the signature fails verification.
var ErrBadSignature = fmt.Errorf("framing: signature verification failed")

// DecodeLine verifies and parses one signed line (with or without its
// trailing newline already stripped) into a Tick. The signature is located
// by the LAST occurrence of "|sig:" so that a body containing that literal
// substring is still framed correctly.
func DecodeLine(signer *signing.Signer, line string) (ticks.Tick, error) {
	var t ticks.Tick

	line = strings.TrimRight(line, "\n")

	idx := strings.LastIndex(line, sigMarker)
	if idx < 0 {
		return t, ErrNoSignature
	}

	body := line[:idx]
	sig := line[idx+len(sigMarker):]

	if !signer.Verify(body, sig) {
		return t, ErrBadSignature
	}

	if err := t.UnmarshalJSON([]byte(body)); err != nil {
		return t, fmt.Errorf("framing: %w", err)
	}
	return t, nil
}
