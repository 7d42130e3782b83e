// Package ticks holds the wire-level data model shared by both stages: the
// per-second OHLCV tick synthesized by stage A and verified by stage B, and
// the one-second bar the aggregator folds ticks into.
package ticks

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Price is a decimal price formatted on the wire with exactly five
// fractional digits.
type Price decimal.Decimal

// NewPrice builds a Price from a float64 tick-generator sample.
func NewPrice(f float64) Price {
	return Price(decimal.NewFromFloat(f))
}

// Decimal exposes the underlying decimal.Decimal for arithmetic.
func (p Price) Decimal() decimal.Decimal { return decimal.Decimal(p) }

// Float64 converts back to a float64, losing decimal precision guarantees.
func (p Price) Float64() float64 {
	f, _ := decimal.Decimal(p).Float64()
	return f
}

// String renders the price with exactly five fractional digits.
func (p Price) String() string {
	return decimal.Decimal(p).StringFixed(5)
}

// MarshalJSON emits the price as a bare JSON number, not a quoted string, to
// match the wire example in the protocol contract.
func (p Price) MarshalJSON() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalJSON accepts both bare numbers and quoted decimal strings.
func (p *Price) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("ticks: invalid price %q: %w", s, err)
	}
	*p = Price(d)
	return nil
}

// MaxPrice returns the larger of two prices.
func MaxPrice(a, b Price) Price {
	if decimal.Decimal(a).Cmp(decimal.Decimal(b)) >= 0 {
		return a
	}
	return b
}

// MinPrice returns the smaller of two prices.
func MinPrice(a, b Price) Price {
	if decimal.Decimal(a).Cmp(decimal.Decimal(b)) <= 0 {
		return a
	}
	return b
}

// Tick is a single synthetic OHLCV observation at second granularity.
type Tick struct {
	Symbol string `json:"symbol"`
	Open   Price  `json:"open"`
	High   Price  `json:"high"`
	Low    Price  `json:"low"`
	Close  Price  `json:"close"`
	Volume int64  `json:"volume"`
	TS     int64  `json:"ts"`
}

// tickWire mirrors Tick but accepts the alternate "timestamp" field name on
// ingress, aliased to TS when TS itself is absent.
type tickWire struct {
	Symbol    string `json:"symbol"`
	Open      Price  `json:"open"`
	High      Price  `json:"high"`
	Low       Price  `json:"low"`
	Close     Price  `json:"close"`
	Volume    int64  `json:"volume"`
	TS        *int64 `json:"ts"`
	Timestamp *int64 `json:"timestamp"`
}

// MarshalJSON emits the canonical "ts" field name.
func (t Tick) MarshalJSON() ([]byte, error) {
	return json.Marshal(tickWire{
		Symbol: t.Symbol,
		Open:   t.Open,
		High:   t.High,
		Low:    t.Low,
		Close:  t.Close,
		Volume: t.Volume,
		TS:     &t.TS,
	})
}

// UnmarshalJSON accepts either "ts" or "timestamp"; "ts" wins if both are
// present.
func (t *Tick) UnmarshalJSON(data []byte) error {
	var raw tickWire
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("ticks: malformed tick body: %w", err)
	}
	ts := raw.TS
	if ts == nil {
		ts = raw.Timestamp
	}
	if ts == nil {
		return fmt.Errorf("ticks: tick missing both ts and timestamp")
	}
	*t = Tick{
		Symbol: raw.Symbol,
		Open:   raw.Open,
		High:   raw.High,
		Low:    raw.Low,
		Close:  raw.Close,
		Volume: raw.Volume,
		TS:     *ts,
	}
	return nil
}

// Bar is the one-second aggregate of same-second ticks for one
// symbol, keyed by the accumulation second. At most one in-progress bar
// exists per symbol at any moment.
type Bar struct {
	Symbol string `json:"symbol"`
	TS     int64  `json:"ts"`
	Open   Price  `json:"open"`
	High   Price  `json:"high"`
	Low    Price  `json:"low"`
	Close  Price  `json:"close"`
	Volume int64  `json:"volume"`
}

// NewBar seeds an in-progress bar from the first tick of a new accumulation
// window. Open is seeded from the tick's close, not its open — this is
// surprising but normative: it reproduces the reference behavior exactly.
func NewBar(t Tick) Bar {
	return Bar{
		Symbol: t.Symbol,
		TS:     t.TS,
		Open:   t.Close,
		High:   t.High,
		Low:    t.Low,
		Close:  t.Close,
		Volume: t.Volume,
	}
}

// Apply folds a subsequent tick from the same accumulation window into an
// in-progress bar. Open and TS never change after creation.
func (b *Bar) Apply(t Tick) {
	b.High = MaxPrice(b.High, t.High)
	b.Low = MinPrice(b.Low, t.Low)
	b.Close = t.Close
	b.Volume += t.Volume
}
