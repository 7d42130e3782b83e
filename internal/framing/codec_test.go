package framing

import (
	"strings"
	"testing"

	"github.com/marketpulse/tickmesh/internal/signing"
)

const testSecret = "exchange-a-secret"

func tickBody() string {
	return `{"symbol":"S0001","open":1.17000,"high":1.17031,"low":1.16980,"close":1.17012,"volume":3214,"ts":1714000000}`
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	s := signing.New(testSecret)
	frame := Encode(s, tickBody())

	if !strings.HasSuffix(frame, "\n") || strings.Count(frame, "\n") != 1 {
		t.Fatalf("frame must end in exactly one newline, got %q", frame)
	}

	tick, err := DecodeLine(s, frame)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if tick.Symbol != "S0001" || tick.TS != 1714000000 || tick.Volume != 3214 {
		t.Fatalf("unexpected decoded tick: %+v", tick)
	}
}

func TestDecodeLineMissingMarker(t *testing.T) {
	s := signing.New(testSecret)
	_, err := DecodeLine(s, tickBody()+"\n")
	if err != ErrNoSignature {
		t.Fatalf("expected ErrNoSignature, got %v", err)
	}
}

func TestDecodeLineBadSignature(t *testing.T) {
	s := signing.New(testSecret)
	frame := Encode(s, tickBody())
	tampered := strings.TrimSuffix(frame, "\n")
	// Replace the last hex char with a different one so the signature really changes.
	last := "0"
	if strings.HasSuffix(tampered, "0") {
		last = "1"
	}
	tampered = tampered[:len(tampered)-1] + last + "\n"

	_, err := DecodeLine(s, tampered)
	if err != ErrBadSignature {
		t.Fatalf("expected ErrBadSignature, got %v", err)
	}
}

func TestDecodeLineToleratesLiteralMarkerInBody(t *testing.T) {
	s := signing.New(testSecret)
	body := `{"symbol":"S0001|sig:deadbeef","open":1.17000,"high":1.17000,"low":1.17000,"close":1.17000,"volume":1,"ts":1}`
	frame := Encode(s, body)

	tick, err := DecodeLine(s, frame)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if tick.Symbol != "S0001|sig:deadbeef" {
		t.Fatalf("unexpected symbol: %q", tick.Symbol)
	}
}

func TestDecodeLineAliasesTimestamp(t *testing.T) {
	s := signing.New(testSecret)
	body := `{"symbol":"S0002","open":1.0,"high":1.0,"low":1.0,"close":1.0,"volume":1,"timestamp":42}`
	frame := Encode(s, body)

	tick, err := DecodeLine(s, frame)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if tick.TS != 42 {
		t.Fatalf("expected ts aliased from timestamp, got %d", tick.TS)
	}
}
