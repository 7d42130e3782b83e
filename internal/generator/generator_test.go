package generator

import (
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/marketpulse/tickmesh/internal/framing"
	"github.com/marketpulse/tickmesh/internal/signing"
)

type captureSink struct {
	mu     sync.Mutex
	frames []string
}

func (c *captureSink) Broadcast(frame string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = append(c.frames, frame)
}

func TestEmitBatchProducesSignedVerifiableFrames(t *testing.T) {
	signer := signing.New("exchange-a-secret")
	sink := &captureSink{}
	g := New(signer, sink, slog.Default())

	g.emitBatch(1714000000)

	if len(sink.frames) == 0 {
		t.Fatalf("expected at least one frame")
	}
	if len(sink.frames)%2 != 0 {
		t.Fatalf("expected an even number of frames (two per symbol), got %d", len(sink.frames))
	}

	for _, frame := range sink.frames {
		line := frame + "\n"
		tick, err := framing.DecodeLine(signer, line)
		if err != nil {
			t.Fatalf("frame failed verification: %v", err)
		}
		if !strings.HasPrefix(tick.Symbol, "S") {
			t.Fatalf("unexpected symbol: %q", tick.Symbol)
		}
		if tick.TS != 1714000000 {
			t.Fatalf("unexpected ts: %d", tick.TS)
		}
	}
}

func TestEmitBatchSymbolCountInRange(t *testing.T) {
	signer := signing.New("exchange-a-secret")
	sink := &captureSink{}
	g := New(signer, sink, slog.Default())

	g.emitBatch(1)

	n := len(sink.frames) / 2
	if n < minSymbols || n > maxSymbols {
		t.Fatalf("symbol count %d outside [%d,%d]", n, minSymbols, maxSymbols)
	}
}
