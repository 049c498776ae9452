package ports

import (
	"context"
	"time"

	"sniperbot/internal/domain"
)

// OrderRequest carries everything the broker needs to place an order from an
// accepted TradeIntent.
type OrderRequest struct {
	Symbol     string
	Direction  domain.Direction
	Price      float64 // limit price; ignored for market orders
	StopLoss   float64
	TakeProfit float64
	Lots       float64
}

// OrderAck is the essential acknowledgement returned after placing an order.
type OrderAck struct {
	OrderID   int64
	Symbol    string
	Price     float64 // requested or average filled price
	AvgPrice  float64 // average filled price, 0 until filled
	Lots      float64
	Status    string // e.g. NEW, FILLED, CANCELED
	Timestamp time.Time
}

// OrderExecutor places and cancels orders with the broker. Rejections are
// surfaced as wrapped ports errors and are never retried by the core; the
// next bar's cycle may re-evaluate independently.
type OrderExecutor interface {
	PlaceMarket(ctx context.Context, req OrderRequest) (*OrderAck, error)
	PlaceLimit(ctx context.Context, req OrderRequest) (*OrderAck, error)
	// PlaceProtection attaches the stop-loss and take-profit close orders
	// for an already-filled entry, e.g. after a resting limit order fills.
	PlaceProtection(ctx context.Context, req OrderRequest) error
	Cancel(ctx context.Context, symbol string, orderID int64) (*OrderAck, error)
}

// AccountInfo exposes the balance and instrument metadata needed for
// position sizing.
type AccountInfo interface {
	Balance(ctx context.Context, asset string) (float64, error)
	TickValue(ctx context.Context, symbol string) (float64, error)
	TickSize(ctx context.Context, symbol string) (float64, error)
}
