// Package aggregator implements stage B's bar aggregation state machine:
// fold same-second ticks per symbol, close out every in-progress bar when
// the ingress timestamp advances, and fan the closed bars out to storage
// and live subscribers.
package aggregator

import (
	"context"
	"log/slog"
	"time"

	"github.com/marketpulse/tickmesh/internal/obs"
	"github.com/marketpulse/tickmesh/internal/ring"
	"github.com/marketpulse/tickmesh/internal/ticks"
)

// pollInterval is the consumer's only blocking call: a short sleep when the
// ring is empty. It otherwise spins on Pop.
const pollInterval = time.Millisecond

// Persister writes a closed bar to the relational store.
type Persister interface {
	Persist(bar ticks.Bar)
}

// Broadcaster sends a closed bar to every live push-channel subscriber.
type Broadcaster interface {
	Broadcast(bar ticks.Bar)
}

// Aggregator owns the symbol -> in-progress-bar mapping and the scalar
// last_sec that gates close-out. At most one accumulation second is held
// open at a time.
type Aggregator struct {
	ring      *ring.Ring[ticks.Tick]
	bars      map[string]ticks.Bar
	lastSec   int64
	persist   Persister
	broadcast Broadcaster
	logger    *slog.Logger
}

// New builds an Aggregator reading from r.
func New(r *ring.Ring[ticks.Tick], persist Persister, broadcast Broadcaster, logger *slog.Logger) *Aggregator {
	return &Aggregator{
		ring:      r,
		bars:      make(map[string]ticks.Bar),
		persist:   persist,
		broadcast: broadcast,
		logger:    logger,
	}
}

// Run drains the ring and applies aggregation until ctx is canceled. If the
// stream stalls, open bars are never flushed — there is no wall-clock
// timeout here, matching the reference behavior.
func (a *Aggregator) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		t, ok := a.ring.Pop()
		if !ok {
			select {
			case <-time.After(pollInterval):
			case <-ctx.Done():
				return
			}
			continue
		}
		a.Apply(t)
	}
}

// Apply applies one popped tick to the state machine: close out every
// in-progress bar if the timestamp has advanced, upsert the tick, then
// advance last_sec. The first ever tick cannot trigger a close-out.
func (a *Aggregator) Apply(t ticks.Tick) {
	if a.lastSec != 0 && t.TS != a.lastSec {
		a.closeOut()
	}
	a.upsert(t)
	a.lastSec = t.TS
}

func (a *Aggregator) upsert(t ticks.Tick) {
	bar, ok := a.bars[t.Symbol]
	if !ok {
		a.bars[t.Symbol] = ticks.NewBar(t)
		return
	}
	bar.Apply(t)
	a.bars[t.Symbol] = bar
}

// closeOut emits every in-progress bar and clears the table. Emission order
// is unspecified (map iteration).
func (a *Aggregator) closeOut() {
	for _, bar := range a.bars {
		obs.BarsEmitted.Inc()
		a.persist.Persist(bar)
		a.broadcast.Broadcast(bar)
	}
	a.bars = make(map[string]ticks.Bar)
}
