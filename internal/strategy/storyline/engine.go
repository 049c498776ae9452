package storyline

import (
	"fmt"

	"sniperbot/internal/domain"
	"sniperbot/internal/strategy/zones"
)

// Config holds the higher-timeframe bias thresholds.
type Config struct {
	RejectionCandles int // HTF candles scanned for a zone rejection, e.g. 3
	MomentumLookback int // bars back for the fallback momentum bias, e.g. 20
}

// Engine derives the higher-timeframe storyline: a directional bias from a
// fresh-zone rejection (or momentum fallback) and the opposing-zone
// take-profit target. A rejection strictly precedes the momentum read;
// momentum is consulted only when no rejection exists in the scan window.
type Engine struct {
	cfg   Config
	zones *zones.Engine
}

// New creates a storyline engine sharing the given zone engine for
// higher-timeframe zone detection.
func New(cfg Config, zoneEngine *zones.Engine) (*Engine, error) {
	if zoneEngine == nil {
		return nil, fmt.Errorf("zone engine is required for storyline detection")
	}
	if cfg.RejectionCandles == 0 {
		cfg.RejectionCandles = 3
	}
	if cfg.MomentumLookback == 0 {
		cfg.MomentumLookback = 20
	}
	if cfg.RejectionCandles < 1 || cfg.MomentumLookback < 1 {
		return nil, fmt.Errorf("storyline lookbacks must be positive")
	}
	return &Engine{cfg: cfg, zones: zoneEngine}, nil
}

// Derive computes the storyline for a higher-timeframe snapshot given the
// current entry-timeframe price. Bias is NONE only when the snapshot is too
// short for even the momentum fallback.
func (e *Engine) Derive(htf domain.Series, currentPrice float64) domain.Storyline {
	fresh := e.zones.EligibleZones(htf)

	// A recent HTF candle rejecting off a fresh zone sets the bias outright.
	if z := e.rejection(htf, fresh, domain.Demand); z != nil {
		return domain.Storyline{
			Bias:          domain.BiasBull,
			RejectionZone: z,
			TPTarget:      e.opposingTP(fresh, domain.BiasBull, currentPrice, htf),
		}
	}
	if z := e.rejection(htf, fresh, domain.Supply); z != nil {
		return domain.Storyline{
			Bias:          domain.BiasBear,
			RejectionZone: z,
			TPTarget:      e.opposingTP(fresh, domain.BiasBear, currentPrice, htf),
		}
	}

	// Fallback: momentum bias from the close N bars prior.
	n := htf.Len()
	if n <= e.cfg.MomentumLookback {
		return domain.Storyline{Bias: domain.BiasNone}
	}
	if htf.Candles[n-1].Close > htf.Candles[n-1-e.cfg.MomentumLookback].Close {
		return domain.Storyline{Bias: domain.BiasBull, TPTarget: htf.HighestHigh()}
	}
	return domain.Storyline{Bias: domain.BiasBear, TPTarget: htf.LowestLow()}
}

// rejection scans the last few HTF candles, newest first, for a wick that
// entered a fresh zone of the given direction while the body closed back
// outside it.
func (e *Engine) rejection(htf domain.Series, fresh []domain.Zone, dir domain.ZoneDirection) *domain.Zone {
	candles := htf.Candles
	start := len(candles) - e.cfg.RejectionCandles
	if start < 0 {
		start = 0
	}

	for i := len(candles) - 1; i >= start; i-- {
		c := candles[i]
		for k := range fresh {
			z := fresh[k]
			if z.Direction != dir {
				continue
			}
			if c.Low > z.Top || c.High < z.Bottom {
				continue // wick never entered the zone
			}
			if dir == domain.Demand && c.BodyBottom() >= z.Bottom {
				return &z // wick dipped in, body closed above: bullish rejection
			}
			if dir == domain.Supply && c.BodyTop() <= z.Top {
				return &z // wick poked in, body closed below: bearish rejection
			}
		}
	}
	return nil
}

// opposingTP targets the nearest fresh HTF zone opposing the bias: the
// bottom of the closest supply above for BULL, the top of the closest
// demand below for BEAR. Falls back to the snapshot extreme.
func (e *Engine) opposingTP(fresh []domain.Zone, bias domain.Bias, price float64, htf domain.Series) float64 {
	if bias == domain.BiasBull {
		best := 0.0
		found := false
		for _, z := range fresh {
			if z.Direction == domain.Supply && z.Bottom > price {
				if !found || z.Bottom < best {
					best, found = z.Bottom, true
				}
			}
		}
		if found {
			return best
		}
		return htf.HighestHigh()
	}

	best := 0.0
	found := false
	for _, z := range fresh {
		if z.Direction == domain.Demand && z.Top < price {
			if !found || z.Top > best {
				best, found = z.Top, true
			}
		}
	}
	if found {
		return best
	}
	return htf.LowestLow()
}
