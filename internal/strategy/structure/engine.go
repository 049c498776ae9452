package structure

import (
	"fmt"

	"sniperbot/internal/domain"
)

// Config holds swing and break-of-structure thresholds.
type Config struct {
	SwingLookback int // bars on each side a swing must dominate, e.g. 3
	BOSLookback   int // bars scanned for breaks and sweeps, e.g. 5
}

// Snapshot is the structural read of an entry-timeframe series: the retained
// swing extremes and any break or sweep events against them.
type Snapshot struct {
	SwingHigh *domain.SwingPoint
	SwingLow  *domain.SwingPoint
	BullBOS   *domain.BOSEvent
	BearBOS   *domain.BOSEvent
	BullSweep *domain.SweepEvent // wick below the swing low, body back above
	BearSweep *domain.SweepEvent // wick above the swing high, body back below
}

// HasBOS reports whether a break of structure in the given bias direction
// was detected.
func (s Snapshot) HasBOS(bias domain.Bias) bool {
	switch bias {
	case domain.BiasBull:
		return s.BullBOS != nil
	case domain.BiasBear:
		return s.BearBOS != nil
	}
	return false
}

// Sweep returns the sweep event supporting a trade direction, if any.
func (s Snapshot) Sweep(dir domain.Direction) *domain.SweepEvent {
	if dir == domain.Buy {
		return s.BullSweep
	}
	return s.BearSweep
}

// Engine detects swing points, break-of-structure and liquidity-sweep
// events. Stateless; everything derives from the snapshot passed in.
type Engine struct {
	cfg Config
}

// New creates a structure engine with validated thresholds.
func New(cfg Config) (*Engine, error) {
	if cfg.SwingLookback == 0 {
		cfg.SwingLookback = 3
	}
	if cfg.BOSLookback == 0 {
		cfg.BOSLookback = 5
	}
	if cfg.SwingLookback < 1 {
		return nil, fmt.Errorf("swing lookback must be positive, got %d", cfg.SwingLookback)
	}
	if cfg.BOSLookback < 1 {
		return nil, fmt.Errorf("BOS lookback must be positive, got %d", cfg.BOSLookback)
	}
	return &Engine{cfg: cfg}, nil
}

// Analyze computes the structural snapshot for a series.
func (e *Engine) Analyze(series domain.Series) Snapshot {
	snap := Snapshot{}
	snap.SwingHigh, snap.SwingLow = e.swings(series.Candles)

	if snap.SwingHigh != nil {
		snap.BearSweep, snap.BullBOS = e.breaksAbove(series.Candles, *snap.SwingHigh)
	}
	if snap.SwingLow != nil {
		snap.BullSweep, snap.BearBOS = e.breaksBelow(series.Candles, *snap.SwingLow)
	}
	return snap
}

// swings returns the most recent confirmed swing high and low. A bar is a
// swing high only if its high strictly exceeds every high within the
// lookback on both sides; confirmation requires the full right-hand window.
func (e *Engine) swings(candles []domain.Candle) (*domain.SwingPoint, *domain.SwingPoint) {
	n := e.cfg.SwingLookback
	var high, low *domain.SwingPoint

	for i := len(candles) - 1 - n; i >= n; i-- {
		if high == nil && dominatesHigh(candles, i, n) {
			h := domain.SwingPoint{Index: i, Price: candles[i].High, Kind: domain.SwingHigh}
			high = &h
		}
		if low == nil && dominatesLow(candles, i, n) {
			l := domain.SwingPoint{Index: i, Price: candles[i].Low, Kind: domain.SwingLow}
			low = &l
		}
		if high != nil && low != nil {
			break
		}
	}
	return high, low
}

func dominatesHigh(candles []domain.Candle, i, n int) bool {
	for j := i - n; j <= i+n; j++ {
		if j == i {
			continue
		}
		if candles[j].High >= candles[i].High {
			return false
		}
	}
	return true
}

func dominatesLow(candles []domain.Candle, i, n int) bool {
	for j := i - n; j <= i+n; j++ {
		if j == i {
			continue
		}
		if candles[j].Low <= candles[i].Low {
			return false
		}
	}
	return true
}

// breaksAbove scans the BOS lookback against a swing high. A close strictly
// above the swing high confirms a bullish BOS; a wick-only breach with the
// body back below is a sell-side sweep (stop hunt above the high).
func (e *Engine) breaksAbove(candles []domain.Candle, swing domain.SwingPoint) (*domain.SweepEvent, *domain.BOSEvent) {
	start := len(candles) - e.cfg.BOSLookback
	if start < 0 {
		start = 0
	}

	var sweep *domain.SweepEvent
	var bos *domain.BOSEvent
	for j := start; j < len(candles); j++ {
		c := candles[j]
		if c.Close > swing.Price && bos == nil {
			bos = &domain.BOSEvent{Direction: domain.BiasBull, BrokenSwing: swing, BreakIndex: j}
		}
		if c.High > swing.Price && c.BodyTop() <= swing.Price {
			if sweep == nil || c.High > sweep.WickLevel {
				sweep = &domain.SweepEvent{Direction: domain.Sell, WickLevel: c.High, Swing: swing}
			}
		}
	}
	return sweep, bos
}

func (e *Engine) breaksBelow(candles []domain.Candle, swing domain.SwingPoint) (*domain.SweepEvent, *domain.BOSEvent) {
	start := len(candles) - e.cfg.BOSLookback
	if start < 0 {
		start = 0
	}

	var sweep *domain.SweepEvent
	var bos *domain.BOSEvent
	for j := start; j < len(candles); j++ {
		c := candles[j]
		if c.Close < swing.Price && bos == nil {
			bos = &domain.BOSEvent{Direction: domain.BiasBear, BrokenSwing: swing, BreakIndex: j}
		}
		if c.Low < swing.Price && c.BodyBottom() >= swing.Price {
			if sweep == nil || c.Low < sweep.WickLevel {
				sweep = &domain.SweepEvent{Direction: domain.Buy, WickLevel: c.Low, Swing: swing}
			}
		}
	}
	return sweep, bos
}

// SweepNear rescans a wider window for an inducement sweep of the swing
// nearest the zone, as consumed by the trigger tier. The deepest wick is
// retained when several sweeps occur before confirmation.
func (e *Engine) SweepNear(series domain.Series, snap Snapshot, dir domain.Direction, lookback int) *domain.SweepEvent {
	if lookback <= 0 {
		lookback = 15
	}
	candles := series.Candles
	start := len(candles) - lookback
	if start < 0 {
		start = 0
	}

	var sweep *domain.SweepEvent
	if dir == domain.Buy {
		if snap.SwingLow == nil {
			return nil
		}
		swing := *snap.SwingLow
		for j := start; j < len(candles); j++ {
			c := candles[j]
			if c.Low < swing.Price && c.BodyBottom() >= swing.Price {
				if sweep == nil || c.Low < sweep.WickLevel {
					sweep = &domain.SweepEvent{Direction: domain.Buy, WickLevel: c.Low, Swing: swing}
				}
			}
		}
		return sweep
	}

	if snap.SwingHigh == nil {
		return nil
	}
	swing := *snap.SwingHigh
	for j := start; j < len(candles); j++ {
		c := candles[j]
		if c.High > swing.Price && c.BodyTop() <= swing.Price {
			if sweep == nil || c.High > sweep.WickLevel {
				sweep = &domain.SweepEvent{Direction: domain.Sell, WickLevel: c.High, Swing: swing}
			}
		}
	}
	return sweep
}
