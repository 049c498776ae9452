package ports

import (
	"context"
	"time"
)

// Calendar answers whether a symbol is inside a news blackout window.
// Consulted by the caller before invoking the pipeline, never by the
// pipeline itself.
type Calendar interface {
	IsBlackout(ctx context.Context, symbol string, now time.Time) (bool, error)
}

// SessionClock answers session-window and market-hours questions.
// Like Calendar, it gates evaluation from the caller's side.
type SessionClock interface {
	InSession(now time.Time) bool
	IsMarketOpen(symbol string, now time.Time) bool
}
