package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestZoneEligible(t *testing.T) {
	assert.True(t, Zone{State: ZoneFresh}.Eligible())
	assert.True(t, Zone{State: ZoneMiss}.Eligible())
	assert.False(t, Zone{State: ZoneMitigated}.Eligible())
	assert.False(t, Zone{State: ZoneFlipped}.Eligible())
}

func TestZoneMid(t *testing.T) {
	assert.Equal(t, 99.0, Zone{Top: 100, Bottom: 98}.Mid())
}

func TestZoneSameBounds(t *testing.T) {
	a := Zone{Top: 100, Bottom: 98}
	assert.True(t, a.SameBounds(Zone{Top: 100, Bottom: 98, State: ZoneMiss}))
	assert.False(t, a.SameBounds(Zone{Top: 100, Bottom: 97}))
}

func TestDirectionOpposite(t *testing.T) {
	assert.Equal(t, Sell, Buy.Opposite())
	assert.Equal(t, Buy, Sell.Opposite())
	assert.Equal(t, Demand, Supply.Opposite())
	assert.Equal(t, Supply, Demand.Opposite())
}

func TestTradeIntentDistances(t *testing.T) {
	long := TradeIntent{EntryPrice: 100, StopLoss: 98, TakeProfit: 106}
	assert.Equal(t, 2.0, long.RiskDistance())
	assert.Equal(t, 6.0, long.RewardDistance())

	short := TradeIntent{EntryPrice: 100, StopLoss: 102, TakeProfit: 94}
	assert.Equal(t, 2.0, short.RiskDistance())
	assert.Equal(t, 6.0, short.RewardDistance())
}
