package domain

// SwingKind distinguishes swing highs from swing lows.
type SwingKind string

const (
	SwingHigh SwingKind = "high"
	SwingLow  SwingKind = "low"
)

// SwingPoint is a confirmed local extreme: a bar whose high (or low)
// strictly dominates the N bars on each side.
type SwingPoint struct {
	Index int
	Price float64
	Kind  SwingKind
}

// BOSEvent is a break of structure: a body close beyond a retained swing
// point within the BOS lookback.
type BOSEvent struct {
	Direction   Bias // BULL for a close above the swing high, BEAR below the low
	BrokenSwing SwingPoint
	BreakIndex  int
}

// SweepEvent is a liquidity sweep (inducement): a wick transiently breached
// a swing point while the candle body closed back on the original side.
// WickLevel retains the deepest breach when several sweeps occur.
type SweepEvent struct {
	Direction Direction // BUY for a sweep below the swing low, SELL above the high
	WickLevel float64
	Swing     SwingPoint
}
