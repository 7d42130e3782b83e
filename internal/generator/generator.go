// Package generator synthesizes one second of OHLCV ticks for the stage A
// symbol universe and hands signed frames to the fan-out server.
package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/marketpulse/tickmesh/internal/framing"
	"github.com/marketpulse/tickmesh/internal/signing"
	"github.com/marketpulse/tickmesh/internal/ticks"
)

const (
	universeSize = 1000
	minSymbols   = 100
	maxSymbols   = 300
	minVolume    = 1000
	maxVolume    = 5000
	baseFloor    = 1.17000
	baseStep     = 0.00010
	noiseSpan    = 3e-4
)

// Sink receives one already-signed, newline-free frame body per generated
// tick, to be fanned out to every live subscriber session.
type Sink interface {
	Broadcast(signedBody string)
}

// Generator synthesizes one second of OHLCV ticks for the symbol universe
// and pushes signed frames to every connected session, once per second.
type Generator struct {
	signer *signing.Signer
	sink   Sink
	logger *slog.Logger
	rng    *rand.Rand
	clock  func() time.Time
}

// New builds a Generator seeded from the current time.
func New(signer *signing.Signer, sink Sink, logger *slog.Logger) *Generator {
	return &Generator{
		signer: signer,
		sink:   sink,
		logger: logger,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		clock:  time.Now,
	}
}

// Run blocks, emitting one batch per second until ctx is canceled.
func (g *Generator) Run(ctx context.Context) {
	for {
		now := g.clock()
		g.emitBatch(now.Unix())

		next := now.Truncate(time.Second).Add(time.Second)
		wait := next.Sub(g.clock())
		if wait < 0 {
			wait = 0
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

// emitBatch performs one generation cycle: sample k symbols, draw two ticks
// each, shuffle the 2k batch, and deliver every frame to every live
// session.
func (g *Generator) emitBatch(ts int64) {
	k := minSymbols + g.rng.Intn(maxSymbols-minSymbols+1)
	indices := g.distinctIndices(k)

	batch := make([]string, 0, 2*k)
	for _, i := range indices {
		symbol := fmt.Sprintf("S%04d", i+1)
		base := baseFloor + float64(i%100)*baseStep
		batch = append(batch, g.signedTick(symbol, base, ts), g.signedTick(symbol, base, ts))
	}

	g.rng.Shuffle(len(batch), func(a, b int) { batch[a], batch[b] = batch[b], batch[a] })

	for _, frame := range batch {
		if frame == "" {
			continue
		}
		g.sink.Broadcast(frame)
	}
}

// distinctIndices draws k distinct indices uniformly from [0, universeSize).
func (g *Generator) distinctIndices(k int) []int {
	chosen := make(map[int]struct{}, k)
	out := make([]int, 0, k)
	for len(out) < k {
		i := g.rng.Intn(universeSize)
		if _, ok := chosen[i]; ok {
			continue
		}
		chosen[i] = struct{}{}
		out = append(out, i)
	}
	return out
}

func (g *Generator) signedTick(symbol string, base float64, ts int64) string {
	noise := g.uniform(-noiseSpan, noiseSpan)
	noiseHigh := g.uniform(-noiseSpan, noiseSpan)
	noiseLow := g.uniform(-noiseSpan, noiseSpan)

	close := base + noise
	high := close + abs(noiseHigh)
	low := close - abs(noiseLow)
	volume := int64(minVolume + g.rng.Intn(maxVolume-minVolume+1))

	t := ticks.Tick{
		Symbol: symbol,
		Open:   ticks.NewPrice(base),
		High:   ticks.NewPrice(high),
		Low:    ticks.NewPrice(low),
		Close:  ticks.NewPrice(close),
		Volume: volume,
		TS:     ts,
	}

	body, err := json.Marshal(t)
	if err != nil {
		g.logger.Error("generator: marshal tick failed", "error", err, "symbol", symbol)
		return ""
	}
	return framing.SignedBody(g.signer, string(body))
}

func (g *Generator) uniform(lo, hi float64) float64 {
	return lo + g.rng.Float64()*(hi-lo)
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
