package pipeline

import "sniperbot/internal/domain"

// CooldownTracker suppresses repeat same-direction signals for a number of
// bars after any emitted signal, filled or not. Opposite-direction signals
// bypass the cooldown immediately. One tracker per symbol; bar counting is
// the caller's monotone new-bar counter.
type CooldownTracker struct {
	cooldownBars  int
	lastDirection domain.Direction
	lastBar       int
	armed         bool
}

// NewCooldownTracker creates a tracker; bars <= 0 disables suppression.
func NewCooldownTracker(bars int) *CooldownTracker {
	return &CooldownTracker{cooldownBars: bars}
}

// Allow reports whether a signal in the given direction may be emitted at
// the given bar counter.
func (t *CooldownTracker) Allow(dir domain.Direction, bar int) bool {
	if !t.armed || t.cooldownBars <= 0 {
		return true
	}
	if dir != t.lastDirection {
		return true
	}
	return bar-t.lastBar >= t.cooldownBars
}

// Record notes an emitted signal, starting the cooldown clock.
func (t *CooldownTracker) Record(dir domain.Direction, bar int) {
	t.armed = true
	t.lastDirection = dir
	t.lastBar = bar
}
