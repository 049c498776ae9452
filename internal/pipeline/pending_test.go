package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"sniperbot/internal/domain"
)

func restingOrder() *domain.PendingOrder {
	return &domain.PendingOrder{
		OrderID:    42,
		Symbol:     "EURUSD",
		Direction:  domain.Buy,
		EntryPrice: 99.8,
		Zone:       domain.Zone{Direction: domain.Demand, Top: 99.8, Bottom: 98.0, State: domain.ZoneMiss},
		Bias:       domain.BiasBull,
		ExpiryBars: 8,
		BarsWaited: 2,
	}
}

func TestAssessNilOrderKeeps(t *testing.T) {
	var m PendingOrderMonitor
	assert.Equal(t, PendingKeep, m.Assess(nil, nil, domain.BiasBull))
}

func TestAssessKeepsHealthyOrder(t *testing.T) {
	var m PendingOrderMonitor
	po := restingOrder()
	eligible := []domain.Zone{po.Zone}

	assert.Equal(t, PendingKeep, m.Assess(po, eligible, domain.BiasBull))
	assert.Equal(t, PendingKeep, m.Assess(po, eligible, domain.BiasNone), "neutral bias is not a flip")
}

func TestAssessExpiryTakesPrecedence(t *testing.T) {
	var m PendingOrderMonitor
	po := restingOrder()
	po.BarsWaited = po.ExpiryBars

	// Expired, zone gone, and bias flipped at once: expiry wins.
	assert.Equal(t, CancelExpired, m.Assess(po, nil, domain.BiasBear))
}

func TestAssessZoneGonePrecedesBiasFlip(t *testing.T) {
	var m PendingOrderMonitor
	po := restingOrder()

	assert.Equal(t, CancelZoneGone, m.Assess(po, nil, domain.BiasBear))
}

func TestAssessZoneReidentifiedByBounds(t *testing.T) {
	var m PendingOrderMonitor
	po := restingOrder()

	// Same bounds and direction in the fresh scan, different lifecycle state.
	rescanned := []domain.Zone{{Direction: domain.Demand, Top: 99.8, Bottom: 98.0, State: domain.ZoneFresh}}
	assert.Equal(t, PendingKeep, m.Assess(po, rescanned, domain.BiasBull))

	// Same bounds but opposite direction does not match.
	flipped := []domain.Zone{{Direction: domain.Supply, Top: 99.8, Bottom: 98.0, State: domain.ZoneFresh}}
	assert.Equal(t, CancelZoneGone, m.Assess(po, flipped, domain.BiasBull))
}

func TestAssessBiasFlip(t *testing.T) {
	var m PendingOrderMonitor
	po := restingOrder()
	eligible := []domain.Zone{po.Zone}

	assert.Equal(t, CancelBiasFlipped, m.Assess(po, eligible, domain.BiasBear))
}

func TestStateOnBarAgesPendingOrder(t *testing.T) {
	s := NewState("EURUSD", 4)
	assert.Equal(t, 0, s.BarCount)
	assert.Equal(t, domain.BiasNone, s.LastBias)

	s.OnBar()
	assert.Equal(t, 1, s.BarCount)

	s.Pending = restingOrder()
	s.OnBar()
	assert.Equal(t, 2, s.BarCount)
	assert.Equal(t, 3, s.Pending.BarsWaited)
	assert.False(t, s.Pending.Expired())

	s.Pending.BarsWaited = 8
	assert.True(t, s.Pending.Expired())
}
