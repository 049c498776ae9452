package domain

import "time"

// SignalRecord is a persisted emitted signal, tracked until price reaches
// its target or stop so win/loss statistics can be derived.
type SignalRecord struct {
	ID         int64
	Symbol     string
	Direction  Direction
	Mode       EntryMode
	EntryPrice float64
	TPPrice    float64
	SLPrice    float64
	CreatedAt  time.Time

	Outcome    Outcome
	ClosePrice float64
	ClosedAt   time.Time
	PnLPips    float64
}

// SignalStats aggregates resolved signal outcomes over a window.
type SignalStats struct {
	Total     int
	Wins      int
	Losses    int
	Open      int
	WinRate   float64 // percent of closed signals won
	TotalPips float64
	AvgPips   float64
}
