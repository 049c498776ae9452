package zones

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sniperbot/internal/domain"
)

// b builds one candle; times are filled in by series.
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
	e, err := New(Config{})
	require.NoError(t, err)
	return e
}

func TestNewValidation(t *testing.T) {
	_, err := New(Config{Lookback: 1})
	assert.Error(t, err)

	_, err = New(Config{MitigationBuffer: -0.1})
	assert.Error(t, err)

	_, err = New(Config{MissWindow: -1})
	assert.Error(t, err)

	e, err := New(Config{})
	require.NoError(t, err)
	assert.Equal(t, 40, e.cfg.Lookback)
	assert.Equal(t, 0.001, e.cfg.MitigationBuffer)
	assert.Equal(t, 3, e.cfg.MissWindow)
}

func TestScanTooShort(t *testing.T) {
	e := newTestEngine(t)
	assert.Nil(t, e.Scan(series(b(100, 101, 99, 100.5))))
}

func TestScanALevelSupply(t *testing.T) {
	e := newTestEngine(t)
	// Bullish candle, then a bearish candle opening with a gap up.
	s := series(
		b(100, 111, 99, 110),
		b(112, 113, 101, 102),
	)

	store := e.Scan(s)
	require.Len(t, store, 1)
	z := store[0]
	assert.Equal(t, domain.ZoneALevel, z.Kind)
	assert.Equal(t, domain.Supply, z.Direction)
	assert.Equal(t, 112.0, z.Top)
	assert.Equal(t, 110.0, z.Bottom)
	assert.Equal(t, 0, z.FormationIndex)
	assert.Equal(t, domain.ZoneFresh, z.State)
	assert.True(t, z.Eligible())
}

func TestScanVLevelDemand(t *testing.T) {
	e := newTestEngine(t)
	s := series(
		b(110, 111, 99, 100),
		b(98, 109, 97, 108),
	)

	store := e.Scan(s)
	require.Len(t, store, 1)
	z := store[0]
	assert.Equal(t, domain.ZoneVLevel, z.Kind)
	assert.Equal(t, domain.Demand, z.Direction)
	assert.Equal(t, 100.0, z.Top)
	assert.Equal(t, 98.0, z.Bottom)
}

func TestScanOCGap(t *testing.T) {
	e := newTestEngine(t)
	// Two bullish candles with a gap between first close and second open.
	s := series(
		b(100, 105.5, 99.5, 105),
		b(107, 110.5, 106.5, 110),
	)

	store := e.Scan(s)
	require.Len(t, store, 1)
	z := store[0]
	assert.Equal(t, domain.ZoneOCGap, z.Kind)
	assert.Equal(t, domain.Demand, z.Direction)
	assert.Equal(t, 107.0, z.Top)
	assert.Equal(t, 105.0, z.Bottom)
}

func TestScanContinuousPairsFormNoZones(t *testing.T) {
	e := newTestEngine(t)
	// Every candle opens at the prior close: the pair interval collapses.
	s := series(
		b(100, 100.5, 99.5, 100.2),
		b(100.2, 100.6, 99.8, 100.0),
		b(100.0, 100.4, 99.6, 100.3),
		b(100.3, 100.7, 99.9, 100.1),
	)
	assert.Empty(t, e.Scan(s))
}

func TestZoneStaysFreshBeforeMissWindow(t *testing.T) {
	e := newTestEngine(t)
	// Two bars after formation, none touching the zone.
	s := series(
		b(100, 111, 99, 110),
		b(112, 113, 101, 102),
		b(102, 103, 101, 103),
		b(103, 104, 102, 102),
	)

	store := e.Scan(s)
	require.Len(t, store, 1)
	assert.Equal(t, domain.ZoneFresh, store[0].State)
}

func TestZoneMissAfterFullWindow(t *testing.T) {
	e := newTestEngine(t)
	// Three bars after formation with price staying away from the zone.
	s := series(
		b(100, 111, 99, 110),
		b(112, 113, 101, 102),
		b(102, 103, 101, 103),
		b(103, 104, 102, 102),
		b(102, 103, 101, 103),
	)

	store := e.Scan(s)
	require.Len(t, store, 1)
	z := store[0]
	assert.Equal(t, domain.ZoneMiss, z.State)
	assert.True(t, z.Eligible(), "MISS zones remain tradeable")
}

func TestZoneMitigatedByWickTouch(t *testing.T) {
	e := newTestEngine(t)
	// The third candle's wick reaches back into the supply zone.
	s := series(
		b(100, 111, 99, 110),
		b(112, 113, 101, 102),
		b(102, 110, 101, 103),
	)

	store := e.Scan(s)
	require.Len(t, store, 1)
	z := store[0]
	assert.Equal(t, domain.ZoneMitigated, z.State)
	assert.False(t, z.Eligible())
}

func TestBodyBreakFlipsZoneAndSpawnsChild(t *testing.T) {
	e := newTestEngine(t)
	// Demand zone at [98, 100]; the third candle's body closes below 98.
	s := series(
		b(110, 111, 99, 100),
		b(98, 109, 97, 108),
		b(108, 109, 90, 95),
	)

	store := e.Scan(s)
	require.Len(t, store, 2)

	parent, child := store[0], store[1]
	assert.Equal(t, domain.ZoneFlipped, parent.State)
	assert.False(t, parent.Eligible())

	assert.Equal(t, domain.ZoneFlip, child.Kind)
	assert.Equal(t, domain.Supply, child.Direction)
	assert.Equal(t, parent.Top, child.Top)
	assert.Equal(t, parent.Bottom, child.Bottom)
	assert.Equal(t, parent.ID, child.Lineage)
	assert.Equal(t, 2, child.FormationIndex)
	assert.Equal(t, domain.ZoneFresh, child.State)
}

// lifecycleFixture forms a single V-Level demand zone at [98, 100] on bars
// 10-11. Bars 12-14 stay clear of the zone, bar 15 closes its body below the
// bottom, and bars 16-17 hold under the flipped zone without touching it.
func lifecycleFixture() []domain.Candle {
	return []domain.Candle{
		b(110, 110.6, 109.4, 110.2),
		b(110.2, 110.7, 109.6, 109.9),
		b(109.9, 110.4, 109.3, 110.1),
		b(110.1, 110.5, 109.5, 109.8),
		b(109.8, 110.3, 109.2, 110.0),
		b(110.0, 110.6, 109.4, 110.3),
		b(110.3, 110.8, 109.7, 109.9),
		b(109.9, 110.4, 109.3, 110.2),
		b(110.2, 110.7, 109.6, 110.0),
		b(110.0, 110.5, 109.4, 110.0),
		b(110, 111, 99, 100),
		b(98, 109, 97, 108),
		b(108, 108.4, 102.0, 102.3),
		b(102.3, 103.0, 101.5, 102.0),
		b(102.0, 102.5, 100.4, 100.5),
		b(100.5, 100.6, 94.5, 95.0),
		b(95.0, 95.5, 94.6, 95.2),
		b(95.2, 95.6, 94.8, 95.0),
	}
}

func TestMissedZoneFlipsOnBodyBreak(t *testing.T) {
	e := newTestEngine(t)
	candles := lifecycleFixture()

	// Snapshot after the full miss window, before the break.
	store := e.Scan(series(candles[:15]...))
	require.Len(t, store, 1)
	assert.Equal(t, domain.ZoneMiss, store[0].State)
	assert.True(t, store[0].Eligible())

	// The break bar overrides the accrued miss and spawns the flip child.
	store = e.Scan(series(candles...))
	require.Len(t, store, 2)

	parent, child := store[0], store[1]
	assert.Equal(t, domain.ZoneVLevel, parent.Kind)
	assert.Equal(t, domain.ZoneFlipped, parent.State)
	assert.False(t, parent.Eligible())

	assert.Equal(t, domain.ZoneFlip, child.Kind)
	assert.Equal(t, domain.Supply, child.Direction)
	assert.Equal(t, 100.0, child.Top)
	assert.Equal(t, 98.0, child.Bottom)
	assert.Equal(t, 15, child.FormationIndex)
	assert.Equal(t, parent.ID, child.Lineage)
	assert.Equal(t, domain.ZoneFresh, child.State)

	fresh := e.FreshZones(series(candles...), domain.Supply)
	require.Len(t, fresh, 1)
	assert.Equal(t, domain.ZoneFlip, fresh[0].Kind)
}

// priorityFixture carries one flipped demand zone (spawning a supply FLIP
// child), a missed supply zone, and two fresh supply zones formed at
// different bars.
func priorityFixture() domain.Series {
	return series(
		b(110, 111, 99, 100),
		b(98, 109, 97, 108),
		b(108, 109, 90, 95),
		b(95, 96.6, 94.9, 96.5),
		b(97.4, 97.5, 95.9, 96.0),
		b(96.0, 96.1, 92.9, 93.0),
		b(93.0, 94.1, 92.9, 94.0),
		b(94.8, 94.9, 93.4, 93.5),
		b(93.5, 93.85, 93.3, 93.8),
		b(93.85, 93.86, 93.1, 93.2),
	)
}

func TestFreshZonesPriorityOrdering(t *testing.T) {
	e := newTestEngine(t)
	out := e.FreshZones(priorityFixture(), domain.Supply)
	require.Len(t, out, 4)

	// FLIP child first, then the missed zone, then fresh zones newest first.
	assert.Equal(t, domain.ZoneFlip, out[0].Kind)
	assert.Equal(t, 98.0, out[0].Bottom)

	assert.Equal(t, domain.ZoneMiss, out[1].State)
	assert.Equal(t, 96.5, out[1].Bottom)

	assert.Equal(t, domain.ZoneFresh, out[2].State)
	assert.Equal(t, 93.8, out[2].Bottom)

	assert.Equal(t, domain.ZoneFresh, out[3].State)
	assert.Equal(t, 94.0, out[3].Bottom)
}

func TestFreshZonesFiltersDirection(t *testing.T) {
	e := newTestEngine(t)
	// The only demand zone in the fixture flipped, so nothing is left.
	assert.Empty(t, e.FreshZones(priorityFixture(), domain.Demand))
}

func TestEligibleZonesBothDirections(t *testing.T) {
	e := newTestEngine(t)
	out := e.EligibleZones(priorityFixture())
	assert.Len(t, out, 4)
	for _, z := range out {
		assert.True(t, z.Eligible())
	}
}
