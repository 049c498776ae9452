package pipeline

import "sniperbot/internal/domain"

// State is the per-symbol state that survives across evaluation cycles:
// the new-bar counter, the cooldown tracker, and any resting order. Symbols
// are shared-nothing; the caller owns one State per symbol and passes it
// into every cycle. Everything else is recomputed from fresh snapshots.
type State struct {
	Symbol   string
	BarCount int
	Cooldown *CooldownTracker
	Pending  *domain.PendingOrder
	LastBias domain.Bias
}

// NewState creates the persistent state for one symbol.
func NewState(symbol string, cooldownBars int) *State {
	return &State{
		Symbol:   symbol,
		Cooldown: NewCooldownTracker(cooldownBars),
		LastBias: domain.BiasNone,
	}
}

// OnBar advances the monotone bar counter and ages any resting order.
func (s *State) OnBar() {
	s.BarCount++
	if s.Pending != nil {
		s.Pending.BarsWaited++
	}
}
