package calendar

import (
	"time"

	"sniperbot/internal/domain"
	"sniperbot/internal/ports"
)

// Session window names. BOTH disables the session gate entirely.
const (
	SessionLondon = "LONDON"
	SessionNY     = "NY"
	SessionBoth   = "BOTH"
)

// UTCSessionClock implements ports.SessionClock with fixed UTC session
// windows and the standard forex weekend closure. Crypto and synthetic
// instruments are treated as always open.
type UTCSessionClock struct {
	session string
}

// NewSessionClock returns a clock gating on the given session window.
func NewSessionClock(session string) *UTCSessionClock {
	return &UTCSessionClock{session: session}
}

// InSession reports whether now falls inside the configured session window.
func (c *UTCSessionClock) InSession(now time.Time) bool {
	hour := now.UTC().Hour()
	switch c.session {
	case SessionLondon:
		return hour >= 8 && hour <= 16
	case SessionNY:
		return hour >= 13 && hour <= 21
	default:
		return true
	}
}

// IsMarketOpen reports whether the symbol's market is open at now.
// Forex closes Friday 21:00 UTC through Sunday 21:00 UTC.
func (c *UTCSessionClock) IsMarketOpen(symbol string, now time.Time) bool {
	if domain.AlwaysOpen(symbol) {
		return true
	}

	utc := now.UTC()
	weekday := utc.Weekday()
	hour := utc.Hour()
	switch {
	case weekday == time.Friday && hour >= 21:
		return false
	case weekday == time.Saturday:
		return false
	case weekday == time.Sunday && hour < 21:
		return false
	}
	return true
}

var _ ports.SessionClock = (*UTCSessionClock)(nil)
