package ports

import (
	"context"

	"sniperbot/internal/domain"
)

// SignalRepository persists emitted signals and their eventual outcomes.
type SignalRepository interface {
	// Record saves a new signal and returns its assigned ID.
	Record(ctx context.Context, rec *domain.SignalRecord) (int64, error)
	// OpenSignals retrieves signals still awaiting an outcome, most recent first.
	OpenSignals(ctx context.Context) ([]*domain.SignalRecord, error)
	// CloseSignal resolves a signal with its outcome and pip PnL.
	CloseSignal(ctx context.Context, id int64, outcome domain.Outcome, closePrice, pnlPips float64) error
	// Stats aggregates outcomes over the last days, optionally for one symbol
	// (empty string means all symbols).
	Stats(ctx context.Context, symbol string, days int) (*domain.SignalStats, error)
	// RecentSignals retrieves the most recent signals up to a limit.
	RecentSignals(ctx context.Context, limit int) ([]*domain.SignalRecord, error)
}
