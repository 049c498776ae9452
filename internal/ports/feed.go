package ports

import (
	"context"

	"sniperbot/internal/domain"
)

// CandleFeed supplies completed-bar snapshots for the engine. Implementations
// must exclude the still-forming bar and return candles oldest-first.
type CandleFeed interface {
	// Fetch retrieves the most recent count completed candles.
	Fetch(ctx context.Context, symbol, timeframe string, count int) (domain.Series, error)

	// Stream delivers completed candles as they close. It returns channels to
	// observe and stop the stream, mirroring the underlying websocket lifecycle.
	Stream(ctx context.Context, symbol, timeframe string, handler func(candle domain.Candle), errHandler func(err error)) (doneCh chan struct{}, stopCh chan struct{}, err error)
}
