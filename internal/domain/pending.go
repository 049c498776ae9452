package domain

import "time"

// PendingOrder tracks a resting LIMIT order the engine has placed but that
// has not yet filled. It is cancelled when its bar-counted expiry elapses,
// when its underlying zone loses freshness, or when the storyline bias
// flips, whichever occurs first.
type PendingOrder struct {
	OrderID    int64 // broker's order ID
	Symbol     string
	Direction  Direction
	EntryPrice float64
	StopLoss   float64
	TakeProfit float64
	Lots       float64

	Zone       Zone // the zone the order rests at, identified by bounds
	Bias       Bias // storyline bias at placement time
	ExpiryBars int
	BarsWaited int
	PlacedAt   time.Time
}

// Expired reports whether the bar-counted expiry has elapsed.
func (p PendingOrder) Expired() bool {
	return p.BarsWaited >= p.ExpiryBars
}
