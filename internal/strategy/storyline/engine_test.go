package storyline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sniperbot/internal/domain"
	"sniperbot/internal/strategy/zones"
)

func b(o, h, l, c float64) domain.Candle {
	return domain.Candle{Open: o, High: h, Low: l, Close: c}
}

func series(candles ...domain.Candle) domain.Series {
	base := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	for i := range candles {
		candles[i].Symbol = "EURUSD"
		candles[i].Timeframe = "4h"
		candles[i].OpenTime = base.Add(time.Duration(i) * 4 * time.Hour)
		candles[i].CloseTime = base.Add(time.Duration(i+1) * 4 * time.Hour)
	}
	return domain.Series{Symbol: "EURUSD", Timeframe: "4h", Candles: candles}
}

// drift produces n continuous candles stepping each close by step, so no
// zones ever form.
func drift(n int, start, step float64) []domain.Candle {
	out := make([]domain.Candle, n)
	o := start
	for i := 0; i < n; i++ {
		c := o + step
		hi, lo := o, c
		if c > o {
			hi, lo = c, o
		}
		out[i] = b(o, hi+0.2, lo-0.2, c)
		o = c
	}
	return out
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	zoneEngine, err := zones.New(zones.Config{})
	require.NoError(t, err)
	e, err := New(Config{RejectionCandles: 3, MomentumLookback: 5}, zoneEngine)
	require.NoError(t, err)
	return e
}

func TestNewRequiresZoneEngine(t *testing.T) {
	_, err := New(Config{}, nil)
	assert.Error(t, err)
}

func TestDeriveBullRejection(t *testing.T) {
	e := newTestEngine(t)
	// The last candle dips into the fresh demand zone at [98, 100] and
	// closes back above it.
	s := series(
		b(110, 111, 99, 100),
		b(98, 109, 97, 108),
	)

	story := e.Derive(s, 108)
	assert.Equal(t, domain.BiasBull, story.Bias)
	require.NotNil(t, story.RejectionZone)
	assert.Equal(t, domain.Demand, story.RejectionZone.Direction)
	assert.Equal(t, 100.0, story.RejectionZone.Top)
	assert.Equal(t, 98.0, story.RejectionZone.Bottom)
	// No opposing supply zone above price, so the snapshot high is the target.
	assert.Equal(t, 111.0, story.TPTarget)
}

func TestDeriveBearRejection(t *testing.T) {
	e := newTestEngine(t)
	// The last candle pokes into the fresh supply zone at [100, 102] and
	// closes back below it.
	s := series(
		b(90, 101, 89, 100),
		b(102, 103, 91, 92),
	)

	story := e.Derive(s, 92)
	assert.Equal(t, domain.BiasBear, story.Bias)
	require.NotNil(t, story.RejectionZone)
	assert.Equal(t, domain.Supply, story.RejectionZone.Direction)
	assert.Equal(t, 89.0, story.TPTarget)
}

func TestRejectionPrecedesMomentum(t *testing.T) {
	e := newTestEngine(t)
	// Eight rising candles would read BULL on momentum, but the final pair
	// forms a supply zone the last candle rejects from.
	candles := drift(8, 100, 1)
	candles = append(candles,
		b(108, 119, 107.8, 118),
		b(120, 121, 109, 110),
	)
	s := series(candles...)

	story := e.Derive(s, 110)
	assert.Equal(t, domain.BiasBear, story.Bias)
	require.NotNil(t, story.RejectionZone)
	assert.Equal(t, 118.0, story.RejectionZone.Bottom)
	assert.Equal(t, 120.0, story.RejectionZone.Top)
}

func TestDeriveMomentumBull(t *testing.T) {
	e := newTestEngine(t)
	s := series(drift(8, 100, 1)...)

	story := e.Derive(s, 108)
	assert.Equal(t, domain.BiasBull, story.Bias)
	assert.Nil(t, story.RejectionZone)
	assert.Equal(t, s.HighestHigh(), story.TPTarget)
}

func TestDeriveMomentumBear(t *testing.T) {
	e := newTestEngine(t)
	s := series(drift(8, 100, -1)...)

	story := e.Derive(s, 92)
	assert.Equal(t, domain.BiasBear, story.Bias)
	assert.Nil(t, story.RejectionZone)
	assert.Equal(t, s.LowestLow(), story.TPTarget)
}

func TestDeriveNoneWhenTooShort(t *testing.T) {
	e := newTestEngine(t)
	// Five candles cannot satisfy the five-bar momentum lookback.
	s := series(drift(5, 100, 1)...)

	story := e.Derive(s, 105)
	assert.Equal(t, domain.BiasNone, story.Bias)
	assert.Nil(t, story.RejectionZone)
}
