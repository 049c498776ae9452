package trigger

import (
	"fmt"

	"sniperbot/internal/domain"
	"sniperbot/internal/strategy/structure"
)

// Config holds trigger confirmation lookbacks.
type Config struct {
	EngulfingLookback int // candles scanned for an engulfing at the zone, e.g. 10
	SweepLookback     int // candles scanned for the inducement sweep, e.g. 15
}

// Engine detects the Layer-5 trigger: an engulfing pattern at the candidate
// zone, optionally upgraded by an inducement sweep of the nearest swing.
type Engine struct {
	cfg       Config
	structure *structure.Engine
}

// New creates a trigger engine sharing the structure engine's sweep
// detection.
func New(cfg Config, structureEngine *structure.Engine) (*Engine, error) {
	if structureEngine == nil {
		return nil, fmt.Errorf("structure engine is required for trigger confirmation")
	}
	if cfg.EngulfingLookback == 0 {
		cfg.EngulfingLookback = 10
	}
	if cfg.SweepLookback == 0 {
		cfg.SweepLookback = 15
	}
	if cfg.EngulfingLookback < 2 || cfg.SweepLookback < 1 {
		return nil, fmt.Errorf("trigger lookbacks too small")
	}
	return &Engine{cfg: cfg, structure: structureEngine}, nil
}

// Confirm evaluates the trigger for a candidate zone and trade direction.
// Confidence is a pure function of the two detections: sweep+engulfing is
// HIGH, engulfing alone is MEDIUM, no engulfing is NONE (the Layer-5 kill).
func (e *Engine) Confirm(series domain.Series, zone domain.Zone, dir domain.Direction, snap structure.Snapshot) domain.TriggerResult {
	res := domain.TriggerResult{Confidence: domain.ConfidenceNone}

	res.Engulfing = e.engulfing(series, zone, dir)
	if res.Engulfing == nil {
		return res
	}

	res.Sweep = e.structure.SweepNear(series, snap, dir, e.cfg.SweepLookback)
	if res.Sweep != nil {
		res.Confidence = domain.ConfidenceHigh
	} else {
		res.Confidence = domain.ConfidenceMedium
	}
	return res
}

// engulfing scans the lookback for a candle whose body fully contains the
// prior candle's body, direction-consistent with the trade, with the
// qualifying wick touching the zone.
func (e *Engine) engulfing(series domain.Series, zone domain.Zone, dir domain.Direction) *domain.EngulfingEvent {
	candles := series.Candles
	if len(candles) < 2 {
		return nil
	}
	start := len(candles) - e.cfg.EngulfingLookback
	if start < 0 {
		start = 0
	}

	for i := start + 1; i < len(candles); i++ {
		prev, curr := candles[i-1], candles[i]
		contains := curr.BodyBottom() <= prev.BodyBottom() && curr.BodyTop() >= prev.BodyTop()
		if !contains {
			continue
		}

		if dir == domain.Buy && curr.Bullish() && curr.Low <= zone.Top {
			return &domain.EngulfingEvent{Direction: domain.Buy, Index: i, TouchedZone: &zone}
		}
		if dir == domain.Sell && curr.Bearish() && curr.High >= zone.Bottom {
			return &domain.EngulfingEvent{Direction: domain.Sell, Index: i, TouchedZone: &zone}
		}
	}
	return nil
}
