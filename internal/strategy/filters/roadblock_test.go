package filters

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sniperbot/internal/domain"
)

func supplyAt(bottom, top float64) domain.Zone {
	return domain.Zone{Direction: domain.Supply, Top: top, Bottom: bottom, State: domain.ZoneFresh}
}

func demandAt(bottom, top float64) domain.Zone {
	return domain.Zone{Direction: domain.Demand, Top: top, Bottom: bottom, State: domain.ZoneFresh}
}

func newRoadblock(t *testing.T) *RoadblockFilter {
	t.Helper()
	f, err := NewRoadblock(RoadblockConfig{MinRR: 2.0})
	require.NoError(t, err)
	return f
}

func TestNewRoadblockValidation(t *testing.T) {
	_, err := NewRoadblock(RoadblockConfig{MinRR: -1})
	assert.Error(t, err)

	f, err := NewRoadblock(RoadblockConfig{})
	require.NoError(t, err)
	assert.Equal(t, 2.0, f.cfg.MinRR)
}

func TestCheckNonPositiveRiskPasses(t *testing.T) {
	f := newRoadblock(t)
	v := f.Check(100, domain.Buy, []domain.Zone{supplyAt(101, 102)}, 0, 120)
	assert.True(t, v.Pass)
	assert.True(t, math.IsInf(v.RR, 1))
	assert.Nil(t, v.NearestBlocker)
}

func TestCheckNoBlockerPasses(t *testing.T) {
	f := newRoadblock(t)
	v := f.Check(100, domain.Buy, nil, 2, 120)
	assert.True(t, v.Pass)
	assert.True(t, math.IsInf(v.RR, 1))
}

func TestCheckBuyBlockerTooClose(t *testing.T) {
	f := newRoadblock(t)
	v := f.Check(100, domain.Buy, []domain.Zone{supplyAt(103, 104)}, 2, 120)
	assert.False(t, v.Pass)
	require.NotNil(t, v.NearestBlocker)
	assert.Equal(t, 103.0, v.NearestBlocker.Bottom)
	assert.InDelta(t, 1.5, v.RR, 1e-9)
}

func TestCheckBuyBlockerAtExactThresholdPasses(t *testing.T) {
	f := newRoadblock(t)
	v := f.Check(100, domain.Buy, []domain.Zone{supplyAt(104, 105)}, 2, 120)
	assert.True(t, v.Pass)
	assert.InDelta(t, 2.0, v.RR, 1e-9)
}

func TestCheckBuyIgnoresZonesOffPath(t *testing.T) {
	f := newRoadblock(t)
	zones := []domain.Zone{
		supplyAt(98, 99),   // below entry
		supplyAt(121, 122), // beyond target
		demandAt(103, 104), // wrong direction
	}
	v := f.Check(100, domain.Buy, zones, 2, 120)
	assert.True(t, v.Pass)
	assert.Nil(t, v.NearestBlocker)
}

func TestCheckBuyNearestBlockerWins(t *testing.T) {
	f := newRoadblock(t)
	zones := []domain.Zone{
		supplyAt(110, 111),
		supplyAt(103, 104),
	}
	v := f.Check(100, domain.Buy, zones, 2, 120)
	assert.False(t, v.Pass)
	require.NotNil(t, v.NearestBlocker)
	assert.Equal(t, 103.0, v.NearestBlocker.Bottom)
}

func TestCheckSell(t *testing.T) {
	f := newRoadblock(t)

	v := f.Check(100, domain.Sell, []domain.Zone{demandAt(95, 96)}, 2, 80)
	assert.True(t, v.Pass, "blocker two risk distances below passes")
	assert.InDelta(t, 2.0, v.RR, 1e-9)

	v = f.Check(100, domain.Sell, []domain.Zone{demandAt(97, 98)}, 2, 80)
	assert.False(t, v.Pass)
	require.NotNil(t, v.NearestBlocker)
	assert.InDelta(t, 1.0, v.RR, 1e-9)
}
