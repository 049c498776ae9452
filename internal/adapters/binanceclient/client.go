package binanceclient

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"sniperbot/internal/domain"
	"sniperbot/internal/ports"

	"github.com/adshao/go-binance/v2/common"
	"github.com/adshao/go-binance/v2/futures"
)

const (
	// Base URLs
	baseURLProduction = "https://fapi.binance.com"
	baseURLTestnet    = "https://testnet.binancefuture.com"
)

// Client implements the ports.CandleFeed, ports.OrderExecutor and
// ports.AccountInfo interfaces using the go-binance futures library.
type Client struct {
	futuresClient        *futures.Client
	logger               ports.Logger
	reconnectDelay       time.Duration
	maxReconnectAttempts int
}

// Config holds configuration specific to the Binance client adapter.
type Config struct {
	APIKey               string
	SecretKey            string
	UseTestnet           bool
	Logger               ports.Logger
	ReconnectDelay       time.Duration // Reconnect delay (e.g., 1 * time.Second)
	MaxReconnectAttempts int           // Max attempts before giving up
}

// New creates a new Binance client adapter.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for Binance client")
	}
	if cfg.APIKey == "" || cfg.SecretKey == "" {
		cfg.Logger.Warn(context.Background(), "APIKey or SecretKey is empty. Client will only work for public endpoints.")
	}

	client := futures.NewClient(cfg.APIKey, cfg.SecretKey)

	// Set BaseURL directly instead of using global futures.UseTestnet
	if cfg.UseTestnet {
		client.BaseURL = baseURLTestnet
		cfg.Logger.Info(context.Background(), "Binance client configured for Testnet", map[string]interface{}{"baseURL": client.BaseURL})
	} else {
		client.BaseURL = baseURLProduction
		cfg.Logger.Info(context.Background(), "Binance client configured for Production", map[string]interface{}{"baseURL": client.BaseURL})
	}

	reconnectDelay := cfg.ReconnectDelay
	if reconnectDelay <= 0 {
		reconnectDelay = 1 * time.Second
	}
	maxAttempts := cfg.MaxReconnectAttempts
	if maxAttempts <= 0 {
		maxAttempts = 10
	}

	return &Client{
		futuresClient:        client,
		logger:               cfg.Logger,
		reconnectDelay:       reconnectDelay,
		maxReconnectAttempts: maxAttempts,
	}, nil
}

// handleError translates common Binance API errors into standardized ports errors.
func (c *Client) handleError(ctx context.Context, err error, operation string) error {
	if err == nil {
		return nil
	}

	fields := map[string]interface{}{"operation": operation, "originalError": err.Error()}

	var apiErr *common.APIError
	if errors.As(err, &apiErr) {
		fields["apiErrorCode"] = apiErr.Code
		fields["apiErrorMessage"] = apiErr.Message

		// Map specific Binance error codes to custom errors
		var mappedErr error
		switch apiErr.Code {
		case -1003: // Too many requests
			mappedErr = ports.ErrRateLimited
		case -1021: // Timestamp for this request is outside of the recvWindow
			mappedErr = ports.ErrTimeout
		case -1022: // Signature for this request is not valid
			mappedErr = ports.ErrAuthenticationFailed
		case -1101, -1102, -1103, -1104, -1105, -1106, -1111, -1115, -1116, -1117, -1120, -1121, -1125, -1127, -1128, -1130: // Parameter/Request format errors
			mappedErr = ports.ErrInvalidRequest
		case -2010: // New order rejected
			mappedErr = ports.ErrOrderPlacementFailed
		case -2011: // Cancel order rejected
			mappedErr = ports.ErrOrderCancelFailed
		case -2013: // Order does not exist
			mappedErr = ports.ErrOrderNotFound
		case -2014: // API-key format invalid
			mappedErr = ports.ErrInvalidAPIKeys
		case -2015: // Invalid API-key, IP, or permissions for action
			mappedErr = ports.ErrInvalidAPIKeys
		case -2019: // Margin is insufficient
			mappedErr = ports.ErrInsufficientFunds
		case -2022: // ReduceOnly Order is rejected
			mappedErr = ports.ErrOrderPlacementFailed
		case -3005: // Insufficient balance
			mappedErr = ports.ErrInsufficientFunds
		case -4003: // Qty not within permissible range
			mappedErr = ports.ErrInvalidRequest
		case -4014: // Price not within permissible range
			mappedErr = ports.ErrInvalidRequest
		default:
			mappedErr = ports.ErrUnknown
		}
		finalErr := fmt.Errorf("%s failed: %w: %w", operation, mappedErr, err)
		c.logger.Error(ctx, err, fmt.Sprintf("%s failed with API error", operation), fields)
		return finalErr
	}

	// Handle non-API errors (network, context cancellation, etc.)
	var finalErr error
	if errors.Is(err, context.DeadlineExceeded) {
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrTimeout, err)
	} else if errors.Is(err, context.Canceled) {
		finalErr = fmt.Errorf("%s operation canceled: %w: %w", operation, ports.ErrContextCanceled, err)
	} else if strings.Contains(err.Error(), "use of closed network connection") ||
		strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "connection reset by peer") {
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrConnectionFailed, err)
	} else {
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrUnknown, err)
	}

	c.logger.Error(ctx, err, fmt.Sprintf("%s failed", operation), fields)
	return finalErr
}

// SetServerTime synchronizes the client's time with the server's time.
func (c *Client) SetServerTime(ctx context.Context) error {
	op := "SetServerTime"
	_, err := c.futuresClient.NewSetServerTimeService().Do(ctx)
	if err != nil {
		return c.handleError(ctx, err, op)
	}
	c.logger.Debug(ctx, op+" successful")
	return nil
}

// Ping checks the connectivity to the exchange API.
func (c *Client) Ping(ctx context.Context) error {
	op := "Ping"
	err := c.futuresClient.NewPingService().Do(ctx)
	if err != nil {
		return c.handleError(ctx, fmt.Errorf("ping failed: %w", err), op)
	}
	c.logger.Debug(ctx, op+" successful")
	return nil
}

// --- ports.AccountInfo ---

// Balance retrieves the wallet balance for a specific asset (e.g., "USDT").
func (c *Client) Balance(ctx context.Context, asset string) (float64, error) {
	op := "Balance"
	account, err := c.futuresClient.NewGetAccountService().Do(ctx)
	if err != nil {
		return 0, c.handleError(ctx, err, op)
	}

	for _, bal := range account.Assets {
		if bal.Asset == asset {
			balance, err := strconv.ParseFloat(bal.WalletBalance, 64)
			if err != nil {
				parseErr := fmt.Errorf("could not parse balance '%s' for asset %s: %w", bal.WalletBalance, asset, err)
				return 0, c.handleError(ctx, parseErr, op)
			}
			return balance, nil
		}
	}

	err = fmt.Errorf("asset %s not found in account balance: %w", asset, ports.ErrNotFound)
	return 0, c.handleError(ctx, err, op)
}

// TickValue returns the quote value of one price tick for one contract.
// On USDT-margined futures a tick is worth its own price increment, so the
// tick value equals the tick size.
func (c *Client) TickValue(ctx context.Context, symbol string) (float64, error) {
	return c.TickSize(ctx, symbol)
}

// TickSize returns the minimum price increment for the symbol.
func (c *Client) TickSize(ctx context.Context, symbol string) (float64, error) {
	op := "TickSize"
	info, err := c.futuresClient.NewExchangeInfoService().Do(ctx)
	if err != nil {
		return 0, c.handleError(ctx, err, op)
	}
	for _, s := range info.Symbols {
		if s.Symbol != symbol {
			continue
		}
		for _, f := range s.Filters {
			if f["filterType"] == "PRICE_FILTER" {
				tickStr, ok := f["tickSize"].(string)
				if !ok {
					break
				}
				tick, err := strconv.ParseFloat(tickStr, 64)
				if err != nil {
					return 0, c.handleError(ctx, fmt.Errorf("could not parse tickSize '%s': %w", tickStr, err), op)
				}
				return tick, nil
			}
		}
	}
	err = fmt.Errorf("symbol %s not found in exchange info: %w", symbol, ports.ErrNotFound)
	return 0, c.handleError(ctx, err, op)
}

// --- ports.CandleFeed ---

// Fetch retrieves the most recent count completed candles. The still-forming
// bar that Binance always includes at the tail is dropped.
func (c *Client) Fetch(ctx context.Context, symbol, timeframe string, count int) (domain.Series, error) {
	op := "Fetch"
	binanceKlines, err := c.futuresClient.NewKlinesService().
		Symbol(symbol).
		Interval(timeframe).
		Limit(count + 1).
		Do(ctx)
	if err != nil {
		return domain.Series{}, c.handleError(ctx, err, op)
	}

	candles := make([]domain.Candle, 0, len(binanceKlines))
	for _, bk := range binanceKlines {
		candle, err := translateKline(bk, symbol, timeframe)
		if err != nil {
			return domain.Series{}, c.handleError(ctx, fmt.Errorf("failed to translate historical kline: %w", err), op)
		}
		candles = append(candles, candle)
	}

	// The last kline has not closed yet.
	if n := len(candles); n > 0 && candles[n-1].CloseTime.After(time.Now()) {
		candles = candles[:n-1]
	}
	if len(candles) > count {
		candles = candles[len(candles)-count:]
	}

	return domain.Series{Symbol: symbol, Timeframe: timeframe, Candles: candles}, nil
}

// FetchRange retrieves all candles between start and end, paging through
// the API limit. Used by the offline tooling, not the scan loop.
func (c *Client) FetchRange(ctx context.Context, symbol, timeframe string, start, end time.Time) ([]domain.Candle, error) {
	op := "FetchRange"
	var all []domain.Candle
	const maxLimit = 1500
	from := start

	for {
		klines, err := c.futuresClient.NewKlinesService().
			Symbol(symbol).
			Interval(timeframe).
			StartTime(from.UnixMilli()).
			EndTime(end.UnixMilli()).
			Limit(maxLimit).
			Do(ctx)
		if err != nil {
			return nil, c.handleError(ctx, err, op)
		}
		if len(klines) == 0 {
			break
		}
		for _, bk := range klines {
			candle, err := translateKline(bk, symbol, timeframe)
			if err != nil {
				return nil, c.handleError(ctx, fmt.Errorf("failed to translate historical kline range: %w", err), op)
			}
			all = append(all, candle)
		}
		last := klines[len(klines)-1]
		from = time.UnixMilli(last.CloseTime)
		if from.After(end) || len(klines) < maxLimit {
			break
		}
	}

	return all, nil
}

// Stream starts a WebSocket stream delivering completed candles, with
// automatic reconnection using exponential backoff.
func (c *Client) Stream(ctx context.Context, symbol, timeframe string, handler func(candle domain.Candle), errHandler func(err error)) (doneCh chan struct{}, stopCh chan struct{}, err error) {
	op := "Stream"
	wsCtx, cancelWs := context.WithCancel(ctx)

	// Only completed bars reach the handler.
	binanceHandler := func(event *futures.WsKlineEvent) {
		if event == nil || !event.Kline.IsFinal {
			return
		}
		candle, err := translateWsKline(event, timeframe)
		if err != nil {
			c.logger.Error(wsCtx, err, op+": Failed to translate WebSocket kline event")
			return
		}
		handler(candle)
	}

	binanceErrHandler := func(err error) {
		translatedErr := c.handleError(wsCtx, err, op+" WebSocket")
		c.logger.Warn(wsCtx, op+": WebSocket error reported", map[string]interface{}{"error": translatedErr})
		errHandler(translatedErr)
	}

	// Reconnection loop
	go func() {
		defer cancelWs()

		attempt := 0
		for {
			select {
			case <-wsCtx.Done():
				c.logger.Info(wsCtx, op+": Context cancelled, stopping connection attempts.", map[string]interface{}{"symbol": symbol, "timeframe": timeframe})
				return
			default:
				c.logger.Info(wsCtx, op+": Attempting WebSocket connection...", map[string]interface{}{"symbol": symbol, "timeframe": timeframe, "attempt": attempt + 1})
				innerDoneCh, innerStopCh, connectErr := futures.WsKlineServe(symbol, timeframe, binanceHandler, binanceErrHandler)

				if connectErr != nil {
					c.handleError(wsCtx, connectErr, op+" connection attempt")
					attempt++
					if attempt >= c.maxReconnectAttempts {
						c.logger.Error(wsCtx, connectErr, op+": Max reconnection attempts exceeded, giving up.", map[string]interface{}{"symbol": symbol, "timeframe": timeframe, "maxAttempts": c.maxReconnectAttempts})
						return
					}

					delay := c.reconnectDelay * time.Duration(1<<uint(attempt-1))
					jitter := time.Duration(float64(delay) * 0.1 * float64(time.Millisecond))
					actualDelay := delay + jitter
					c.logger.Info(wsCtx, op+": Connection failed, retrying...", map[string]interface{}{"symbol": symbol, "timeframe": timeframe, "attempt": attempt + 1, "delay": actualDelay.String()})

					select {
					case <-time.After(actualDelay):
						continue
					case <-wsCtx.Done():
						c.logger.Info(wsCtx, op+": Context cancelled during backoff.", map[string]interface{}{"symbol": symbol, "timeframe": timeframe})
						return
					}
				}

				c.logger.Info(wsCtx, op+": WebSocket connection established.", map[string]interface{}{"symbol": symbol, "timeframe": timeframe})
				attempt = 0

				select {
				case <-innerDoneCh:
					c.logger.Warn(wsCtx, op+": WebSocket connection closed unexpectedly. Reconnecting...", map[string]interface{}{"symbol": symbol, "timeframe": timeframe})
				case <-wsCtx.Done():
					c.logger.Info(wsCtx, op+": Context cancelled, stopping WebSocket.", map[string]interface{}{"symbol": symbol, "timeframe": timeframe})
					select {
					case innerStopCh <- struct{}{}:
						c.logger.Debug(wsCtx, op+": Stop signal sent to inner WebSocket.", map[string]interface{}{"symbol": symbol, "timeframe": timeframe})
					default:
						c.logger.Warn(wsCtx, op+": Failed to send stop signal to inner WebSocket (already closed?).", map[string]interface{}{"symbol": symbol, "timeframe": timeframe})
					}
					return
				}
			}
		}
	}()

	doneCh = make(chan struct{})
	stopCh = make(chan struct{})

	// Link the external stopCh to the internal context cancellation.
	go func() {
		select {
		case <-stopCh:
			c.logger.Info(ctx, op+": Received external stop signal, cancelling WebSocket context.", map[string]interface{}{"symbol": symbol, "timeframe": timeframe})
			cancelWs()
		case <-wsCtx.Done():
			c.logger.Debug(ctx, op+": WebSocket context done, stop listener exiting.", map[string]interface{}{"symbol": symbol, "timeframe": timeframe})
		}
	}()

	// Close the external doneCh when the internal context is done.
	go func() {
		<-wsCtx.Done()
		close(doneCh)
	}()

	return doneCh, stopCh, nil
}

// --- ports.OrderExecutor ---

// PlaceMarket places a market entry order followed by close-position
// stop-loss and take-profit orders at the levels the request carries.
func (c *Client) PlaceMarket(ctx context.Context, req ports.OrderRequest) (*ports.OrderAck, error) {
	op := "PlaceMarket"
	entrySide, closeSide := orderSides(req.Direction)
	qty := formatQty(req.Lots)

	order, err := c.futuresClient.NewCreateOrderService().
		Symbol(req.Symbol).
		Side(entrySide).
		Type(futures.OrderTypeMarket).
		Quantity(qty).
		Do(ctx)
	if err != nil {
		return nil, c.handleError(ctx, err, op)
	}

	ack := translateOrderResponse(order)
	c.logger.Info(ctx, op+" successful", map[string]interface{}{"symbol": req.Symbol, "side": entrySide, "quantity": qty, "orderID": ack.OrderID, "avgPrice": ack.AvgPrice})

	if err := c.placeProtection(ctx, req, closeSide, qty); err != nil {
		return ack, err
	}
	return ack, nil
}

// PlaceLimit places a GTC limit entry order. Protective orders are placed by
// the caller once the fill is observed, so a cancelled entry leaves nothing
// behind on the book.
func (c *Client) PlaceLimit(ctx context.Context, req ports.OrderRequest) (*ports.OrderAck, error) {
	op := "PlaceLimit"
	entrySide, _ := orderSides(req.Direction)
	qty := formatQty(req.Lots)

	order, err := c.futuresClient.NewCreateOrderService().
		Symbol(req.Symbol).
		Side(entrySide).
		Type(futures.OrderTypeLimit).
		TimeInForce(futures.TimeInForceTypeGTC).
		Quantity(qty).
		Price(formatPrice(req.Price)).
		Do(ctx)
	if err != nil {
		return nil, c.handleError(ctx, err, op)
	}

	ack := translateOrderResponse(order)
	c.logger.Info(ctx, op+" successful", map[string]interface{}{"symbol": req.Symbol, "side": entrySide, "quantity": qty, "price": req.Price, "orderID": ack.OrderID})
	return ack, nil
}

// Cancel cancels an open order.
func (c *Client) Cancel(ctx context.Context, symbol string, orderID int64) (*ports.OrderAck, error) {
	op := "Cancel"
	c.logger.Debug(ctx, "Attempting to cancel order", map[string]interface{}{"symbol": symbol, "orderID": orderID})

	res, err := c.futuresClient.NewCancelOrderService().
		Symbol(symbol).
		OrderID(orderID).
		Do(ctx)
	if err != nil {
		return nil, c.handleError(ctx, err, op)
	}

	// CancelOrderResponse lacks fill fields; map what it has.
	createOrderResp := &futures.CreateOrderResponse{
		OrderID:       res.OrderID,
		Symbol:        res.Symbol,
		ClientOrderID: res.ClientOrderID,
		Price:         res.Price,
		OrigQuantity:  res.OrigQuantity,
		Status:        res.Status,
		TimeInForce:   res.TimeInForce,
		Type:          res.Type,
		Side:          res.Side,
	}

	ack := translateOrderResponse(createOrderResp)
	c.logger.Info(ctx, op+" successful", map[string]interface{}{"symbol": symbol, "orderID": orderID, "status": ack.Status})
	return ack, nil
}

// PlaceProtection attaches stop-loss and take-profit close orders to an
// open position, e.g. after a resting limit entry fills.
func (c *Client) PlaceProtection(ctx context.Context, req ports.OrderRequest) error {
	_, closeSide := orderSides(req.Direction)
	return c.placeProtection(ctx, req, closeSide, formatQty(req.Lots))
}

// placeProtection attaches stop-loss and take-profit close orders to an open
// position.
func (c *Client) placeProtection(ctx context.Context, req ports.OrderRequest, closeSide futures.SideType, qty string) error {
	op := "PlaceProtection"

	if req.StopLoss > 0 {
		_, err := c.futuresClient.NewCreateOrderService().
			Symbol(req.Symbol).
			Side(closeSide).
			Type(futures.OrderTypeStopMarket).
			Quantity(qty).
			StopPrice(formatPrice(req.StopLoss)).
			ClosePosition(true).
			Do(ctx)
		if err != nil {
			return c.handleError(ctx, err, op+" stop-loss")
		}
		c.logger.Info(ctx, op+": stop-loss placed", map[string]interface{}{"symbol": req.Symbol, "stopPrice": req.StopLoss})
	}

	if req.TakeProfit > 0 {
		_, err := c.futuresClient.NewCreateOrderService().
			Symbol(req.Symbol).
			Side(closeSide).
			Type(futures.OrderTypeTakeProfitMarket).
			Quantity(qty).
			StopPrice(formatPrice(req.TakeProfit)).
			ClosePosition(true).
			Do(ctx)
		if err != nil {
			return c.handleError(ctx, err, op+" take-profit")
		}
		c.logger.Info(ctx, op+": take-profit placed", map[string]interface{}{"symbol": req.Symbol, "stopPrice": req.TakeProfit})
	}

	return nil
}

// --- Translation Helpers ---

func orderSides(dir domain.Direction) (entry, close futures.SideType) {
	if dir == domain.Buy {
		return futures.SideTypeBuy, futures.SideTypeSell
	}
	return futures.SideTypeSell, futures.SideTypeBuy
}

func formatQty(lots float64) string {
	return strconv.FormatFloat(lots, 'f', -1, 64)
}

func formatPrice(price float64) string {
	return strconv.FormatFloat(price, 'f', -1, 64)
}

func translateOrderResponse(order *futures.CreateOrderResponse) *ports.OrderAck {
	if order == nil {
		return nil
	}
	price, _ := strconv.ParseFloat(order.Price, 64)
	avgPrice, _ := strconv.ParseFloat(order.AvgPrice, 64)
	origQty, _ := strconv.ParseFloat(order.OrigQuantity, 64)

	return &ports.OrderAck{
		OrderID:   order.OrderID,
		Symbol:    order.Symbol,
		Price:     price,
		AvgPrice:  avgPrice,
		Lots:      origQty,
		Status:    string(order.Status),
		Timestamp: time.UnixMilli(order.UpdateTime),
	}
}

func translateWsKline(event *futures.WsKlineEvent, timeframe string) (domain.Candle, error) {
	if event == nil {
		return domain.Candle{}, errors.New("received nil kline event")
	}
	k := event.Kline
	return parseCandle(k.Symbol, timeframe, k.StartTime, k.EndTime, k.Open, k.High, k.Low, k.Close, k.Volume)
}

func translateKline(bk *futures.Kline, symbol, timeframe string) (domain.Candle, error) {
	if bk == nil {
		return domain.Candle{}, errors.New("received nil historical kline")
	}
	return parseCandle(symbol, timeframe, bk.OpenTime, bk.CloseTime, bk.Open, bk.High, bk.Low, bk.Close, bk.Volume)
}

func parseCandle(symbol, timeframe string, openTime, closeTime int64, open, high, low, cls, vol string) (domain.Candle, error) {
	o, err := strconv.ParseFloat(open, 64)
	if err != nil {
		return domain.Candle{}, fmt.Errorf("parsing open price '%s': %w", open, err)
	}
	h, err := strconv.ParseFloat(high, 64)
	if err != nil {
		return domain.Candle{}, fmt.Errorf("parsing high price '%s': %w", high, err)
	}
	l, err := strconv.ParseFloat(low, 64)
	if err != nil {
		return domain.Candle{}, fmt.Errorf("parsing low price '%s': %w", low, err)
	}
	cl, err := strconv.ParseFloat(cls, 64)
	if err != nil {
		return domain.Candle{}, fmt.Errorf("parsing close price '%s': %w", cls, err)
	}
	v, err := strconv.ParseFloat(vol, 64)
	if err != nil {
		return domain.Candle{}, fmt.Errorf("parsing volume '%s': %w", vol, err)
	}

	return domain.Candle{
		OpenTime:  time.UnixMilli(openTime),
		CloseTime: time.UnixMilli(closeTime),
		Symbol:    symbol,
		Timeframe: timeframe,
		Open:      o,
		High:      h,
		Low:       l,
		Close:     cl,
		Volume:    v,
	}, nil
}
