package domain

// Direction represents the side of a trade (BUY or SELL).
type Direction string

const (
	Buy  Direction = "BUY"
	Sell Direction = "SELL"
)

// Opposite returns the other trade direction.
func (d Direction) Opposite() Direction {
	if d == Buy {
		return Sell
	}
	return Buy
}

// Bias represents the higher-timeframe directional bias.
type Bias string

const (
	BiasBull Bias = "BULL"
	BiasBear Bias = "BEAR"
	BiasNone Bias = "NONE"
)

// EntryMode selects how an accepted signal is executed.
type EntryMode string

const (
	EntryLimit  EntryMode = "LIMIT"
	EntryMarket EntryMode = "MARKET"
)

// Confidence is the trigger quality tier of an accepted signal.
type Confidence string

const (
	ConfidenceHigh   Confidence = "HIGH"   // inducement sweep + engulfing
	ConfidenceMedium Confidence = "MEDIUM" // engulfing only
	ConfidenceNone   Confidence = "NONE"   // no engulfing, never tradeable
)

// Arrival classifies how price approached a candidate zone.
type Arrival string

const (
	ArrivalCompression Arrival = "COMPRESSION"
	ArrivalMomentum    Arrival = "MOMENTUM"
)

// KillReason tags the layer at which an evaluation cycle ended without a
// trade. Kills are expected control outcomes, not errors.
type KillReason string

const (
	KillNone              KillReason = ""
	KillNoFreshZone       KillReason = "NO_FRESH_ZONE"       // Layer 1
	KillBiasUnconfirmed   KillReason = "BIAS_UNCONFIRMED"    // Layer 2
	KillMomentumArrival   KillReason = "MOMENTUM_ARRIVAL"    // Layer 3
	KillRoadblockTooClose KillReason = "ROADBLOCK_TOO_CLOSE" // Layer 4
	KillNoTrigger         KillReason = "NO_TRIGGER"          // Layer 5
)

// Outcome is the resolved result of a recorded signal.
type Outcome string

const (
	OutcomeOpen Outcome = "OPEN"
	OutcomeWin  Outcome = "WIN"
	OutcomeLoss Outcome = "LOSS"
)
