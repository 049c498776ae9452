package risk

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sniperbot/internal/domain"
	"sniperbot/internal/ports"
)

func newTestCalc(t *testing.T) *Calculator {
	t.Helper()
	c, err := NewCalculator(Config{RiskPercent: 1.0, MaxRiskPips: 50})
	require.NoError(t, err)
	return c
}

// buyInputs is a EURUSD long off a demand zone with sane tick economics.
func buyInputs() Inputs {
	return Inputs{
		Symbol:         "EURUSD",
		Direction:      domain.Buy,
		Entry:          1.1000,
		Zone:           domain.Zone{Direction: domain.Demand, Top: 1.0990, Bottom: 1.0980},
		TPTarget:       1.1100,
		AccountBalance: 10000,
		TickValue:      1,
		TickSize:       0.0001,
	}
}

func TestNewCalculatorValidation(t *testing.T) {
	_, err := NewCalculator(Config{RiskPercent: 0, MaxRiskPips: 50})
	assert.True(t, errors.Is(err, ports.ErrConfigurationError))

	_, err = NewCalculator(Config{RiskPercent: 150, MaxRiskPips: 50})
	assert.Error(t, err)

	_, err = NewCalculator(Config{RiskPercent: 1, MaxRiskPips: 0})
	assert.True(t, errors.Is(err, ports.ErrConfigurationError))
}

func TestResolveBuyAnchorsAtZoneBottom(t *testing.T) {
	c := newTestCalc(t)
	params, err := c.Resolve(buyInputs())
	require.NoError(t, err)

	assert.InDelta(t, 1.0980, params.StopLoss, 1e-9)
	assert.InDelta(t, 1.1100, params.TakeProfit, 1e-9)
	// 1% of 10000 risked over a 20-tick stop at $1 per tick.
	assert.InDelta(t, 5.0, params.Lots, 1e-9)
}

func TestResolveBuyAnchorsAtSweepWick(t *testing.T) {
	c := newTestCalc(t)
	in := buyInputs()
	in.Sweep = &domain.SweepEvent{Direction: domain.Buy, WickLevel: 1.0975}

	params, err := c.Resolve(in)
	require.NoError(t, err)
	assert.InDelta(t, 1.0975, params.StopLoss, 1e-9)
}

func TestResolveBuyClampsToMaxRiskPips(t *testing.T) {
	c := newTestCalc(t)
	in := buyInputs()
	in.Zone.Bottom = 1.0900 // 100 pips away, clamp at 50

	params, err := c.Resolve(in)
	require.NoError(t, err)
	assert.InDelta(t, 1.0950, params.StopLoss, 1e-9)
}

func TestResolveSell(t *testing.T) {
	c := newTestCalc(t)
	in := Inputs{
		Symbol:         "EURUSD",
		Direction:      domain.Sell,
		Entry:          1.1000,
		Zone:           domain.Zone{Direction: domain.Supply, Top: 1.1020, Bottom: 1.1010},
		TPTarget:       1.0900,
		AccountBalance: 10000,
		TickValue:      1,
		TickSize:       0.0001,
	}

	params, err := c.Resolve(in)
	require.NoError(t, err)
	assert.InDelta(t, 1.1020, params.StopLoss, 1e-9)
	assert.InDelta(t, 1.0900, params.TakeProfit, 1e-9)

	in.Zone.Top = 1.1100 // clamp
	params, err = c.Resolve(in)
	require.NoError(t, err)
	assert.InDelta(t, 1.1050, params.StopLoss, 1e-9)
}

func TestResolveDegenerateStop(t *testing.T) {
	c := newTestCalc(t)

	in := buyInputs()
	in.Zone.Bottom = 1.1010 // anchor above a long entry
	_, err := c.Resolve(in)
	assert.True(t, errors.Is(err, ports.ErrDegenerateStop))

	in = buyInputs()
	in.Zone.Bottom = in.Entry // zero stop distance
	_, err = c.Resolve(in)
	assert.True(t, errors.Is(err, ports.ErrDegenerateStop))
}

func TestResolveRejectsBadTickEconomics(t *testing.T) {
	c := newTestCalc(t)

	in := buyInputs()
	in.TickSize = 0
	_, err := c.Resolve(in)
	assert.True(t, errors.Is(err, ports.ErrConfigurationError))

	in = buyInputs()
	in.TickValue = -1
	_, err = c.Resolve(in)
	assert.True(t, errors.Is(err, ports.ErrConfigurationError))
}
