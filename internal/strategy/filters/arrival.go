package filters

import (
	"fmt"

	"sniperbot/internal/domain"
)

// ArrivalConfig holds the arrival-physics thresholds.
type ArrivalConfig struct {
	Lookback         int     // approach candles inspected, e.g. 3
	AvgBodyWindow    int     // bars averaged for the body baseline, e.g. 50
	MarubozuMultiple float64 // body multiple that flags momentum, e.g. 2.5
}

// ArrivalFilter classifies how price arrived at a candidate zone:
// compression (tradeable) or momentum (institutional displacement breaking
// through, kill).
type ArrivalFilter struct {
	cfg ArrivalConfig
}

// NewArrival creates an arrival filter with validated thresholds.
func NewArrival(cfg ArrivalConfig) (*ArrivalFilter, error) {
	if cfg.Lookback == 0 {
		cfg.Lookback = 3
	}
	if cfg.AvgBodyWindow == 0 {
		cfg.AvgBodyWindow = 50
	}
	if cfg.MarubozuMultiple == 0 {
		cfg.MarubozuMultiple = 2.5
	}
	if cfg.Lookback < 1 || cfg.AvgBodyWindow < 1 {
		return nil, fmt.Errorf("arrival lookbacks must be positive")
	}
	if cfg.MarubozuMultiple <= 1 {
		return nil, fmt.Errorf("marubozu multiple must exceed 1, got %v", cfg.MarubozuMultiple)
	}
	return &ArrivalFilter{cfg: cfg}, nil
}

// Classify inspects the approach to the zone. Any candle among the last
// Lookback with a body beyond MarubozuMultiple times the average body is a
// momentum arrival. Insufficient history or a flat market never blocks.
func (f *ArrivalFilter) Classify(series domain.Series) domain.Arrival {
	candles := series.Candles
	if len(candles) < f.cfg.Lookback+1 {
		return domain.ArrivalCompression
	}

	window := f.cfg.AvgBodyWindow
	if window > len(candles) {
		window = len(candles)
	}
	sum := 0.0
	for _, c := range candles[len(candles)-window:] {
		sum += c.Body()
	}
	avg := sum / float64(window)
	if avg <= 0 {
		return domain.ArrivalCompression
	}

	for _, c := range candles[len(candles)-f.cfg.Lookback:] {
		if c.Body() > f.cfg.MarubozuMultiple*avg {
			return domain.ArrivalMomentum
		}
	}
	return domain.ArrivalCompression
}
