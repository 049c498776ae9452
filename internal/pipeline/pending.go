package pipeline

import "sniperbot/internal/domain"

// PendingDecision is the per-cycle verdict on a resting LIMIT order.
type PendingDecision string

const (
	PendingKeep       PendingDecision = "KEEP"
	CancelExpired     PendingDecision = "CANCEL_EXPIRED"
	CancelZoneGone    PendingDecision = "CANCEL_ZONE_UNFRESH"
	CancelBiasFlipped PendingDecision = "CANCEL_BIAS_FLIPPED"
)

// PendingOrderMonitor decides each cycle whether an outstanding LIMIT order
// should keep resting. It cancels on bar-counted expiry, on the underlying
// zone leaving freshness, or on a storyline bias flip, in that precedence.
type PendingOrderMonitor struct{}

// Assess evaluates one resting order against the current cycle's eligible
// zones and storyline bias. The caller increments BarsWaited once per
// new-bar event before assessing.
func (PendingOrderMonitor) Assess(po *domain.PendingOrder, eligible []domain.Zone, bias domain.Bias) PendingDecision {
	if po == nil {
		return PendingKeep
	}
	if po.Expired() {
		return CancelExpired
	}
	if !zoneStillEligible(po.Zone, eligible) {
		return CancelZoneGone
	}
	if biasFlipped(po.Bias, bias) {
		return CancelBiasFlipped
	}
	return PendingKeep
}

// zoneStillEligible re-identifies the order's zone by bounds and direction
// in the freshly recomputed zone set; zones carry no identity across
// snapshots.
func zoneStillEligible(z domain.Zone, eligible []domain.Zone) bool {
	for _, e := range eligible {
		if e.Direction == z.Direction && e.SameBounds(z) {
			return true
		}
	}
	return false
}

func biasFlipped(placed, current domain.Bias) bool {
	switch placed {
	case domain.BiasBull:
		return current == domain.BiasBear
	case domain.BiasBear:
		return current == domain.BiasBull
	}
	return false
}
