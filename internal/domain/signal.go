package domain

// Storyline is the higher-timeframe directional read: the bias, the fresh
// zone it was rejected from (nil when bias fell back to momentum), and the
// opposing-zone take-profit target.
type Storyline struct {
	Bias          Bias
	RejectionZone *Zone
	TPTarget      float64
}

// RoadblockVerdict reports the reward:risk screening of the path to target.
// RR is +Inf when no opposing zone intervenes.
type RoadblockVerdict struct {
	Pass           bool
	NearestBlocker *Zone
	RR             float64
}

// EngulfingEvent records an engulfing candle at the candidate zone.
type EngulfingEvent struct {
	Direction   Direction
	Index       int
	TouchedZone *Zone
}

// TriggerResult is the Layer-5 confirmation outcome.
type TriggerResult struct {
	Engulfing  *EngulfingEvent
	Sweep      *SweepEvent
	Confidence Confidence
}

// TradeIntent is a fully specified order the engine hands to the execution
// collaborator. Produced fresh per accepted signal; the engine keeps no
// reference once emitted.
type TradeIntent struct {
	Symbol     string
	Direction  Direction
	EntryMode  EntryMode
	EntryPrice float64
	StopLoss   float64
	TakeProfit float64
	Lots       float64
	ExpiryBars int

	// Signal quality metadata, carried for observers and persistence.
	Confidence Confidence
	ZoneKind   ZoneKind
	ZoneMiss   bool
	SweepTaken bool
}

// RiskDistance returns the absolute entry-to-stop distance.
func (t TradeIntent) RiskDistance() float64 {
	if t.EntryPrice > t.StopLoss {
		return t.EntryPrice - t.StopLoss
	}
	return t.StopLoss - t.EntryPrice
}

// RewardDistance returns the absolute entry-to-target distance.
func (t TradeIntent) RewardDistance() float64 {
	if t.TakeProfit > t.EntryPrice {
		return t.TakeProfit - t.EntryPrice
	}
	return t.EntryPrice - t.TakeProfit
}
