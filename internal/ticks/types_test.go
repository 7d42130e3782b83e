package ticks

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriceMarshalsAsBareFiveDigitNumber(t *testing.T) {
	p := NewPrice(1.17003)
	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.Equal(t, "1.17003", string(data))
}

func TestPriceUnmarshalsBareAndQuoted(t *testing.T) {
	var bare, quoted Price
	require.NoError(t, json.Unmarshal([]byte("1.17003"), &bare))
	require.NoError(t, json.Unmarshal([]byte(`"1.17003"`), &quoted))
	assert.Equal(t, bare.String(), quoted.String())
}

func TestTickAcceptsTSOrTimestamp(t *testing.T) {
	var byTS, byTimestamp Tick
	require.NoError(t, json.Unmarshal([]byte(`{"symbol":"S0001","open":1,"high":1,"low":1,"close":1,"volume":10,"ts":1000}`), &byTS))
	require.NoError(t, json.Unmarshal([]byte(`{"symbol":"S0001","open":1,"high":1,"low":1,"close":1,"volume":10,"timestamp":1000}`), &byTimestamp))
	assert.Equal(t, int64(1000), byTS.TS)
	assert.Equal(t, int64(1000), byTimestamp.TS)
}

func TestTickPrefersTSWhenBothPresent(t *testing.T) {
	var tick Tick
	require.NoError(t, json.Unmarshal([]byte(`{"symbol":"S0001","open":1,"high":1,"low":1,"close":1,"volume":10,"ts":1000,"timestamp":2000}`), &tick))
	assert.Equal(t, int64(1000), tick.TS)
}

func TestTickUnmarshalRejectsMissingTimestamp(t *testing.T) {
	var tick Tick
	err := json.Unmarshal([]byte(`{"symbol":"S0001","open":1,"high":1,"low":1,"close":1,"volume":10}`), &tick)
	assert.Error(t, err)
}

func TestNewBarSeedsOpenFromClose(t *testing.T) {
	tick := Tick{Symbol: "S0001", TS: 1000, Open: NewPrice(1.1), High: NewPrice(1.2), Low: NewPrice(1.0), Close: NewPrice(1.15), Volume: 50}
	bar := NewBar(tick)
	assert.Equal(t, bar.Open.String(), bar.Close.String(), "open must be seeded from the tick's close, not its open")
	assert.Equal(t, "1.15000", bar.Open.String())
}

func TestBarApplyExpandsHighLowAndAccumulatesVolume(t *testing.T) {
	bar := NewBar(Tick{Symbol: "S0001", TS: 1000, Close: NewPrice(1.1), High: NewPrice(1.1), Low: NewPrice(1.1), Volume: 50})
	bar.Apply(Tick{Symbol: "S0001", TS: 1000, Close: NewPrice(1.05), High: NewPrice(1.3), Low: NewPrice(0.9), Volume: 20})

	assert.Equal(t, "1.30000", bar.High.String())
	assert.Equal(t, "0.90000", bar.Low.String())
	assert.Equal(t, "1.05000", bar.Close.String())
	assert.Equal(t, int64(70), bar.Volume)
}
