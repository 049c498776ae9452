package ports

import (
	"context"
	"time"

	"sniperbot/internal/domain"
)

// CycleSnapshot is what the pipeline reports after every evaluation cycle:
// the storyline read, the verdicts of each layer it reached, and either the
// kill reason or the emitted intent. Rendering and alerting are entirely
// external concerns built on this snapshot.
type CycleSnapshot struct {
	Symbol    string
	BarTime   time.Time
	Storyline domain.Storyline

	SelectedZone *domain.Zone
	Arrival      domain.Arrival
	Roadblock    *domain.RoadblockVerdict
	Trigger      *domain.TriggerResult

	Kill   domain.KillReason
	Intent *domain.TradeIntent
}

// CycleObserver is notified after each pipeline cycle. Implementations must
// not block the evaluation path longer than necessary; failures are logged
// by the caller and never fail the cycle.
type CycleObserver interface {
	OnCycle(ctx context.Context, snap CycleSnapshot) error
}
