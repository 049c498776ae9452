package structure

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sniperbot/internal/domain"
)

func b(o, h, l, c float64) domain.Candle {
	return domain.Candle{Open: o, High: h, Low: l, Close: c}
}

func series(candles ...domain.Candle) domain.Series {
	base := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	for i := range candles {
		candles[i].Symbol = "EURUSD"
		candles[i].Timeframe = "15m"
		candles[i].OpenTime = base.Add(time.Duration(i) * 15 * time.Minute)
		candles[i].CloseTime = base.Add(time.Duration(i+1) * 15 * time.Minute)
	}
	return domain.Series{Symbol: "EURUSD", Timeframe: "15m", Candles: candles}
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New(Config{SwingLookback: 2, BOSLookback: 4})
	require.NoError(t, err)
	return e
}

// quietFixture has a swing high at bar 2 (15.0) and a swing low at bar 4
// (7.0) with no break or sweep against either.
func quietFixture() domain.Series {
	return series(
		b(9.5, 10, 9, 9.8),
		b(9, 11, 8.5, 10),
		b(11, 15, 9, 12),
		b(10, 12, 8, 9),
		b(8, 11, 7, 8.5),
		b(8.5, 11.5, 7.5, 9),
		b(9, 12.5, 8, 10),
		b(10, 13, 8.2, 11),
		b(11, 13.5, 8.4, 12),
	)
}

func TestNewValidation(t *testing.T) {
	_, err := New(Config{SwingLookback: -1})
	assert.Error(t, err)

	_, err = New(Config{BOSLookback: -1})
	assert.Error(t, err)

	e, err := New(Config{})
	require.NoError(t, err)
	assert.Equal(t, 3, e.cfg.SwingLookback)
	assert.Equal(t, 5, e.cfg.BOSLookback)
}

func TestAnalyzeSwingsOnly(t *testing.T) {
	e := newTestEngine(t)
	snap := e.Analyze(quietFixture())

	require.NotNil(t, snap.SwingHigh)
	assert.Equal(t, 2, snap.SwingHigh.Index)
	assert.Equal(t, 15.0, snap.SwingHigh.Price)
	assert.Equal(t, domain.SwingHigh, snap.SwingHigh.Kind)

	require.NotNil(t, snap.SwingLow)
	assert.Equal(t, 4, snap.SwingLow.Index)
	assert.Equal(t, 7.0, snap.SwingLow.Price)

	assert.Nil(t, snap.BullBOS)
	assert.Nil(t, snap.BearBOS)
	assert.Nil(t, snap.BullSweep)
	assert.Nil(t, snap.BearSweep)
	assert.False(t, snap.HasBOS(domain.BiasBull))
	assert.False(t, snap.HasBOS(domain.BiasNone))
}

func TestAnalyzeBullBOSAndSellSweep(t *testing.T) {
	e := newTestEngine(t)
	// Two wicks pierce the 15.0 swing high with bodies rejected back below,
	// then the final candle closes through it.
	s := series(
		b(9.5, 10, 9, 9.8),
		b(9, 11, 8.5, 10),
		b(11, 15, 9, 12),
		b(10, 12, 8, 9),
		b(8, 11, 7, 8.5),
		b(8.5, 11.5, 7.5, 9),
		b(10, 15.3, 8, 11),
		b(12, 15.6, 11, 13),
		b(13, 16.2, 12.5, 15.5),
	)
	snap := e.Analyze(s)

	require.NotNil(t, snap.SwingHigh)
	assert.Equal(t, 15.0, snap.SwingHigh.Price)

	require.NotNil(t, snap.BullBOS)
	assert.Equal(t, domain.BiasBull, snap.BullBOS.Direction)
	assert.Equal(t, 8, snap.BullBOS.BreakIndex)
	assert.Equal(t, 15.0, snap.BullBOS.BrokenSwing.Price)
	assert.True(t, snap.HasBOS(domain.BiasBull))
	assert.False(t, snap.HasBOS(domain.BiasBear))

	// The deepest of the two wicks is retained.
	require.NotNil(t, snap.BearSweep)
	assert.Equal(t, domain.Sell, snap.BearSweep.Direction)
	assert.Equal(t, 15.6, snap.BearSweep.WickLevel)
	assert.Equal(t, snap.BearSweep, snap.Sweep(domain.Sell))
}

func TestAnalyzeBearBOSAndBuySweep(t *testing.T) {
	e := newTestEngine(t)
	// A wick dips under the 7.0 swing low with the body holding above,
	// then the final candle closes below it.
	s := series(
		b(9.5, 10, 9, 9.8),
		b(9, 11, 8.5, 10),
		b(11, 15, 9, 12),
		b(10, 12, 8, 9),
		b(8, 11, 7, 8.5),
		b(8.5, 11.5, 7.5, 9),
		b(9, 12.5, 8, 10),
		b(8, 9, 6.4, 8.5),
		b(8.5, 9, 6, 6.5),
	)
	snap := e.Analyze(s)

	// The dip to 6.4 stays unconfirmed; the retained swing low is still 7.0.
	require.NotNil(t, snap.SwingLow)
	assert.Equal(t, 4, snap.SwingLow.Index)
	assert.Equal(t, 7.0, snap.SwingLow.Price)

	require.NotNil(t, snap.BearBOS)
	assert.Equal(t, domain.BiasBear, snap.BearBOS.Direction)
	assert.Equal(t, 8, snap.BearBOS.BreakIndex)
	assert.True(t, snap.HasBOS(domain.BiasBear))

	require.NotNil(t, snap.BullSweep)
	assert.Equal(t, domain.Buy, snap.BullSweep.Direction)
	assert.Equal(t, 6.4, snap.BullSweep.WickLevel)
	assert.Equal(t, snap.BullSweep, snap.Sweep(domain.Buy))
}

func TestSweepNear(t *testing.T) {
	e := newTestEngine(t)
	s := series(
		b(9.5, 10, 9, 9.8),
		b(9, 11, 8.5, 10),
		b(11, 15, 9, 12),
		b(10, 12, 8, 9),
		b(8, 11, 7, 8.5),
		b(8.5, 11.5, 7.5, 9),
		b(9, 12.5, 8, 10),
		b(8, 9, 6.4, 8.5),
		b(8.5, 9, 6, 6.5),
	)
	snap := e.Analyze(s)

	sweep := e.SweepNear(s, snap, domain.Buy, 10)
	require.NotNil(t, sweep)
	assert.Equal(t, 6.4, sweep.WickLevel)

	// No retained swing high breach on the sell side.
	assert.Nil(t, e.SweepNear(s, snap, domain.Sell, 10))

	// Missing swings always return nil.
	assert.Nil(t, e.SweepNear(s, Snapshot{}, domain.Buy, 10))
	assert.Nil(t, e.SweepNear(s, Snapshot{}, domain.Sell, 10))
}
