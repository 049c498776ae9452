package risk

import (
	"fmt"
	"math"

	"sniperbot/internal/domain"
	"sniperbot/internal/ports"
)

// Config holds risk sizing parameters.
type Config struct {
	RiskPercent float64 // percent of account balance risked per trade, e.g. 1.0
	MaxRiskPips float64 // stop-loss clamp in pips, e.g. 50
}

// Calculator resolves the final stop-loss, take-profit and position size
// for an accepted signal. It is pure arithmetic: identical inputs always
// produce identical parameters.
type Calculator struct {
	cfg Config
}

// NewCalculator creates a calculator with validated config.
func NewCalculator(cfg Config) (*Calculator, error) {
	if cfg.RiskPercent <= 0 || cfg.RiskPercent > 100 {
		return nil, fmt.Errorf("%w: risk percent must be in (0, 100], got %v", ports.ErrConfigurationError, cfg.RiskPercent)
	}
	if cfg.MaxRiskPips <= 0 {
		return nil, fmt.Errorf("%w: max risk pips must be positive, got %v", ports.ErrConfigurationError, cfg.MaxRiskPips)
	}
	return &Calculator{cfg: cfg}, nil
}

// Inputs carries everything the calculator needs for one signal.
type Inputs struct {
	Symbol    string
	Direction domain.Direction
	Entry     float64
	Zone      domain.Zone
	Sweep     *domain.SweepEvent // SL anchors below/above the sweep wick when present
	TPTarget  float64

	AccountBalance float64
	TickValue      float64
	TickSize       float64
}

// Params are the resolved trade parameters.
type Params struct {
	StopLoss   float64
	TakeProfit float64
	Lots       float64
}

// Resolve computes the stop, target and lot size. The stop anchors at the
// sweep wick when a sweep was detected, else at the zone boundary opposite
// the entry, then clamps to MaxRiskPips in price units. A zero or negative
// stop distance after clamping is a fault, never a tradeable result.
func (c *Calculator) Resolve(in Inputs) (Params, error) {
	maxRiskPrice := c.cfg.MaxRiskPips / domain.PipValue(in.Symbol)

	var sl float64
	if in.Direction == domain.Buy {
		anchor := in.Zone.Bottom
		if in.Sweep != nil {
			anchor = in.Sweep.WickLevel
		}
		sl = anchor
		if in.Entry-anchor > maxRiskPrice {
			sl = in.Entry - maxRiskPrice
		}
	} else {
		anchor := in.Zone.Top
		if in.Sweep != nil {
			anchor = in.Sweep.WickLevel
		}
		sl = anchor
		if anchor-in.Entry > maxRiskPrice {
			sl = in.Entry + maxRiskPrice
		}
	}

	stopDistance := math.Abs(in.Entry - sl)
	if in.Direction == domain.Buy && sl >= in.Entry {
		stopDistance = 0
	}
	if in.Direction == domain.Sell && sl <= in.Entry {
		stopDistance = 0
	}
	if stopDistance <= 0 {
		return Params{}, fmt.Errorf("%w: entry %v stop %v", ports.ErrDegenerateStop, in.Entry, sl)
	}

	lots, err := c.lotSize(in, stopDistance)
	if err != nil {
		return Params{}, err
	}

	return Params{StopLoss: sl, TakeProfit: in.TPTarget, Lots: lots}, nil
}

// lotSize risks RiskPercent of the balance across the stop distance,
// converted through the instrument's tick economics. Broker volume and
// margin limits are the execution collaborator's concern, not clamped here.
func (c *Calculator) lotSize(in Inputs, stopDistance float64) (float64, error) {
	if in.TickSize <= 0 || in.TickValue <= 0 {
		return 0, fmt.Errorf("%w: tick size %v and tick value %v must be positive", ports.ErrConfigurationError, in.TickSize, in.TickValue)
	}
	riskAmount := in.AccountBalance * c.cfg.RiskPercent / 100
	perLotRisk := stopDistance * in.TickValue / in.TickSize
	if perLotRisk <= 0 {
		return 0, fmt.Errorf("%w: non-positive per-lot risk", ports.ErrDegenerateStop)
	}
	return riskAmount / perLotRisk, nil
}
