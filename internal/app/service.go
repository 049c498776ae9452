package app

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"sniperbot/config"
	"sniperbot/internal/domain"
	"sniperbot/internal/pipeline"
	"sniperbot/internal/ports"
	"sniperbot/internal/strategy/zones"
)

const (
	entryFetchBars     = 200 // entry-timeframe history per cycle
	storylineFetchBars = 120 // higher-timeframe history per cycle
)

// ScanService orchestrates the per-bar evaluation loop: it gates symbols on
// market hours, session and news, feeds fresh snapshots through the
// pipeline, executes accepted intents, and tracks resting orders and signal
// outcomes. All per-symbol state lives in pipeline.State; the engines stay
// pure.
type ScanService struct {
	cfg       *config.Config
	logger    ports.Logger
	feed      ports.CandleFeed
	executor  ports.OrderExecutor
	account   ports.AccountInfo
	repo      ports.SignalRepository
	calendar  ports.Calendar
	sessions  ports.SessionClock
	pipe      *pipeline.Pipeline
	zones     *zones.Engine
	observers []ports.CycleObserver
	monitor   pipeline.PendingOrderMonitor

	mu     sync.Mutex
	states map[string]*pipeline.State
}

// Deps bundles the collaborators the scan service needs.
type Deps struct {
	Config    *config.Config
	Logger    ports.Logger
	Feed      ports.CandleFeed
	Executor  ports.OrderExecutor
	Account   ports.AccountInfo
	Repo      ports.SignalRepository
	Calendar  ports.Calendar
	Sessions  ports.SessionClock
	Pipeline  *pipeline.Pipeline
	Zones     *zones.Engine
	Observers []ports.CycleObserver
}

// NewScanService creates the application service instance.
func NewScanService(deps Deps) (*ScanService, error) {
	if deps.Config == nil || deps.Logger == nil || deps.Feed == nil || deps.Executor == nil ||
		deps.Account == nil || deps.Repo == nil || deps.Sessions == nil ||
		deps.Pipeline == nil || deps.Zones == nil {
		return nil, fmt.Errorf("missing required dependencies for ScanService")
	}

	states := make(map[string]*pipeline.State, len(deps.Config.Symbols))
	for _, symbol := range deps.Config.Symbols {
		states[symbol] = pipeline.NewState(symbol, deps.Config.CooldownBars)
	}

	return &ScanService{
		cfg:       deps.Config,
		logger:    deps.Logger,
		feed:      deps.Feed,
		executor:  deps.Executor,
		account:   deps.Account,
		repo:      deps.Repo,
		calendar:  deps.Calendar,
		sessions:  deps.Sessions,
		pipe:      deps.Pipeline,
		zones:     deps.Zones,
		observers: deps.Observers,
		states:    states,
	}, nil
}

// Run starts the scan loop, evaluating every configured symbol once per
// entry-timeframe bar until the context is cancelled or a shutdown signal
// arrives.
func (s *ScanService) Run(ctx context.Context) error {
	s.logger.Info(ctx, "Starting scan service", map[string]interface{}{
		"symbols": s.cfg.Symbols, "entryTF": s.cfg.EntryTF, "storylineTF": s.cfg.StorylineTF, "execMode": s.cfg.ExecMode,
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		s.logger.Info(ctx, "Received shutdown signal", map[string]interface{}{"signal": sig.String()})
		cancel()
	}()

	interval, err := timeframeDuration(s.cfg.EntryTF)
	if err != nil {
		return err
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// First pass immediately so a restart does not idle a full bar.
	s.scanAll(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info(ctx, "Scan service stopped")
			return nil
		case <-ticker.C:
			s.scanAll(ctx)
		}
	}
}

// scanAll runs one evaluation cycle per symbol, then resolves open signals.
func (s *ScanService) scanAll(ctx context.Context) {
	for _, symbol := range s.cfg.Symbols {
		if ctx.Err() != nil {
			return
		}
		if err := s.EvaluateSymbol(ctx, symbol); err != nil {
			s.logger.Error(ctx, err, "Symbol evaluation failed", map[string]interface{}{"symbol": symbol})
		}
	}
	if err := s.CheckOutcomes(ctx); err != nil {
		s.logger.Error(ctx, err, "Outcome check failed")
	}
}

// EvaluateSymbol runs one full cycle for a symbol: gates, pending-order
// maintenance, pipeline evaluation, and execution of any accepted intent.
func (s *ScanService) EvaluateSymbol(ctx context.Context, symbol string) error {
	state := s.state(symbol)
	state.OnBar()
	now := time.Now().UTC()

	if !s.sessions.IsMarketOpen(symbol, now) {
		s.logger.Debug(ctx, "Market closed, skipping", map[string]interface{}{"symbol": symbol})
		return s.cancelIfExpired(ctx, state)
	}
	if !s.sessions.InSession(now) {
		s.logger.Debug(ctx, "Outside trading session, skipping", map[string]interface{}{"symbol": symbol})
		return s.cancelIfExpired(ctx, state)
	}
	if s.calendar != nil {
		blackout, err := s.calendar.IsBlackout(ctx, symbol, now)
		if err != nil {
			s.logger.Warn(ctx, "News blackout check failed, continuing without it", map[string]interface{}{"symbol": symbol, "error": err.Error()})
		} else if blackout {
			s.logger.Info(ctx, "News blackout active, skipping", map[string]interface{}{"symbol": symbol})
			return s.cancelIfExpired(ctx, state)
		}
	}

	entry, err := s.feed.Fetch(ctx, symbol, s.cfg.EntryTF, entryFetchBars)
	if err != nil {
		return fmt.Errorf("failed to fetch entry series: %w", err)
	}
	htf, err := s.feed.Fetch(ctx, symbol, s.cfg.StorylineTF, storylineFetchBars)
	if err != nil {
		return fmt.Errorf("failed to fetch storyline series: %w", err)
	}

	acct, err := s.accountSnapshot(ctx, symbol)
	if err != nil {
		return err
	}

	res, err := s.pipe.Evaluate(entry, htf, acct)
	if err != nil {
		if errors.Is(err, ports.ErrInsufficientHistory) {
			s.logger.Warn(ctx, "Insufficient history, skipping cycle", map[string]interface{}{"symbol": symbol, "error": err.Error()})
			return nil
		}
		return err
	}

	s.maintainPending(ctx, state, entry, res.Snapshot.Storyline.Bias)
	s.notifyObservers(ctx, res.Snapshot)

	if !res.Emitted() {
		s.logger.Debug(ctx, "Cycle killed", map[string]interface{}{"symbol": symbol, "phase": res.Phase, "kill": res.Kill})
		return nil
	}
	return s.execute(ctx, state, res.Intent, res.Snapshot.SelectedZone, res.Snapshot.Storyline.Bias)
}

// execute applies the caller-side screens (cooldown, open-trade cap,
// resting-order exclusivity) and places the order.
func (s *ScanService) execute(ctx context.Context, state *pipeline.State, intent *domain.TradeIntent, zone *domain.Zone, bias domain.Bias) error {
	op := "execute"

	if state.Pending != nil {
		s.logger.Info(ctx, op+": resting order outstanding, intent dropped", map[string]interface{}{"symbol": intent.Symbol, "orderID": state.Pending.OrderID})
		return nil
	}
	if !state.Cooldown.Allow(intent.Direction, state.BarCount) {
		s.logger.Info(ctx, op+": cooldown active, intent dropped", map[string]interface{}{"symbol": intent.Symbol, "direction": intent.Direction})
		return nil
	}

	open, err := s.repo.OpenSignals(ctx)
	if err != nil {
		return fmt.Errorf("failed to query open signals: %w", err)
	}
	if len(open) >= s.cfg.MaxOpenTrades {
		s.logger.Info(ctx, op+": open trade limit reached, intent dropped", map[string]interface{}{"open": len(open), "max": s.cfg.MaxOpenTrades})
		return nil
	}

	req := ports.OrderRequest{
		Symbol:     intent.Symbol,
		Direction:  intent.Direction,
		Price:      intent.EntryPrice,
		StopLoss:   intent.StopLoss,
		TakeProfit: intent.TakeProfit,
		Lots:       intent.Lots,
	}

	var ack *ports.OrderAck
	if intent.EntryMode == domain.EntryLimit {
		ack, err = s.executor.PlaceLimit(ctx, req)
	} else {
		ack, err = s.executor.PlaceMarket(ctx, req)
	}
	if err != nil {
		return fmt.Errorf("order placement failed: %w", err)
	}

	entryPrice := intent.EntryPrice
	if ack.AvgPrice > 0 {
		entryPrice = ack.AvgPrice
		if slip := math.Abs(ack.AvgPrice-intent.EntryPrice) / intent.EntryPrice; s.cfg.Slippage > 0 && slip > s.cfg.Slippage {
			s.logger.Warn(ctx, op+": fill slipped beyond tolerance", map[string]interface{}{
				"symbol": intent.Symbol, "intended": intent.EntryPrice, "filled": ack.AvgPrice,
				"slip": slip, "tolerance": s.cfg.Slippage,
			})
		}
	}

	rec := &domain.SignalRecord{
		Symbol:     intent.Symbol,
		Direction:  intent.Direction,
		Mode:       intent.EntryMode,
		EntryPrice: entryPrice,
		TPPrice:    intent.TakeProfit,
		SLPrice:    intent.StopLoss,
		CreatedAt:  time.Now().UTC(),
	}
	if _, err := s.repo.Record(ctx, rec); err != nil {
		s.logger.Error(ctx, err, op+": failed to persist signal, order is live", map[string]interface{}{"symbol": intent.Symbol, "orderID": ack.OrderID})
	}

	state.Cooldown.Record(intent.Direction, state.BarCount)

	if intent.EntryMode == domain.EntryLimit && zone != nil {
		state.Pending = &domain.PendingOrder{
			OrderID:    ack.OrderID,
			Symbol:     intent.Symbol,
			Direction:  intent.Direction,
			EntryPrice: intent.EntryPrice,
			StopLoss:   intent.StopLoss,
			TakeProfit: intent.TakeProfit,
			Lots:       intent.Lots,
			Zone:       *zone,
			Bias:       bias,
			ExpiryBars: intent.ExpiryBars,
			PlacedAt:   time.Now().UTC(),
		}
	}

	s.logger.Info(ctx, op+": signal executed", map[string]interface{}{
		"symbol": intent.Symbol, "direction": intent.Direction, "mode": intent.EntryMode,
		"entry": entryPrice, "sl": intent.StopLoss, "tp": intent.TakeProfit,
		"lots": intent.Lots, "confidence": intent.Confidence, "orderID": ack.OrderID,
	})
	return nil
}

// maintainPending runs the per-cycle verdict on a resting LIMIT order and
// cancels it when the premise no longer holds. A fill observed via price
// crossing the entry clears the resting state; the protective orders are
// attached at fill time.
func (s *ScanService) maintainPending(ctx context.Context, state *pipeline.State, entry domain.Series, bias domain.Bias) {
	po := state.Pending
	if po == nil {
		return
	}

	if last, ok := entry.Last(); ok && limitFilled(*po, last) {
		s.logger.Info(ctx, "Resting order filled", map[string]interface{}{"symbol": po.Symbol, "orderID": po.OrderID, "entry": po.EntryPrice})
		if err := s.attachProtection(ctx, *po); err != nil {
			s.logger.Error(ctx, err, "Failed to attach protection to filled order", map[string]interface{}{"symbol": po.Symbol, "orderID": po.OrderID})
		}
		state.Pending = nil
		return
	}

	decision := s.monitor.Assess(po, s.zones.EligibleZones(entry), bias)
	if decision == pipeline.PendingKeep {
		return
	}

	s.logger.Info(ctx, "Cancelling resting order", map[string]interface{}{"symbol": po.Symbol, "orderID": po.OrderID, "reason": decision})
	if _, err := s.executor.Cancel(ctx, po.Symbol, po.OrderID); err != nil {
		if !errors.Is(err, ports.ErrOrderNotFound) {
			s.logger.Error(ctx, err, "Failed to cancel resting order", map[string]interface{}{"symbol": po.Symbol, "orderID": po.OrderID})
			return
		}
		s.logger.Warn(ctx, "Resting order already gone on broker side", map[string]interface{}{"orderID": po.OrderID})
	}
	state.Pending = nil
}

// cancelIfExpired handles bar-counted expiry while the symbol is otherwise
// gated; zone and bias checks need fresh data and wait for an ungated cycle.
func (s *ScanService) cancelIfExpired(ctx context.Context, state *pipeline.State) error {
	po := state.Pending
	if po == nil || !po.Expired() {
		return nil
	}
	s.logger.Info(ctx, "Cancelling expired resting order", map[string]interface{}{"symbol": po.Symbol, "orderID": po.OrderID})
	if _, err := s.executor.Cancel(ctx, po.Symbol, po.OrderID); err != nil && !errors.Is(err, ports.ErrOrderNotFound) {
		return fmt.Errorf("failed to cancel expired order %d: %w", po.OrderID, err)
	}
	state.Pending = nil
	return nil
}

// attachProtection places the stop-loss and take-profit for a filled LIMIT
// entry.
func (s *ScanService) attachProtection(ctx context.Context, po domain.PendingOrder) error {
	return s.executor.PlaceProtection(ctx, ports.OrderRequest{
		Symbol:     po.Symbol,
		Direction:  po.Direction,
		StopLoss:   po.StopLoss,
		TakeProfit: po.TakeProfit,
		Lots:       po.Lots,
	})
}

// CheckOutcomes resolves open signals whose target or stop has been reached.
// A bar touching both levels resolves as a loss.
func (s *ScanService) CheckOutcomes(ctx context.Context) error {
	open, err := s.repo.OpenSignals(ctx)
	if err != nil {
		return fmt.Errorf("failed to query open signals: %w", err)
	}

	for _, rec := range open {
		series, err := s.feed.Fetch(ctx, rec.Symbol, s.cfg.EntryTF, 1)
		if err != nil {
			s.logger.Warn(ctx, "Outcome check fetch failed", map[string]interface{}{"symbol": rec.Symbol, "error": err.Error()})
			continue
		}
		last, ok := series.Last()
		if !ok {
			continue
		}

		outcome, closePrice := resolveOutcome(rec, last)
		if outcome == domain.OutcomeOpen {
			continue
		}

		pnl := signedPips(rec, closePrice)
		if err := s.repo.CloseSignal(ctx, rec.ID, outcome, closePrice, pnl); err != nil {
			s.logger.Error(ctx, err, "Failed to close resolved signal", map[string]interface{}{"signalID": rec.ID})
			continue
		}
		s.logger.Info(ctx, "Signal resolved", map[string]interface{}{
			"signalID": rec.ID, "symbol": rec.Symbol, "outcome": outcome, "closePrice": closePrice, "pnlPips": pnl,
		})
	}
	return nil
}

// Stats exposes aggregated signal outcomes for reporting.
func (s *ScanService) Stats(ctx context.Context, symbol string, days int) (*domain.SignalStats, error) {
	return s.repo.Stats(ctx, symbol, days)
}

// --- helpers ---

func (s *ScanService) state(symbol string) *pipeline.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[symbol]
	if !ok {
		st = pipeline.NewState(symbol, s.cfg.CooldownBars)
		s.states[symbol] = st
	}
	return st
}

func (s *ScanService) accountSnapshot(ctx context.Context, symbol string) (pipeline.Account, error) {
	balance, err := s.account.Balance(ctx, s.cfg.QuoteAsset)
	if err != nil {
		return pipeline.Account{}, fmt.Errorf("failed to fetch account balance: %w", err)
	}
	tickValue, err := s.account.TickValue(ctx, symbol)
	if err != nil {
		return pipeline.Account{}, fmt.Errorf("failed to fetch tick value: %w", err)
	}
	tickSize, err := s.account.TickSize(ctx, symbol)
	if err != nil {
		return pipeline.Account{}, fmt.Errorf("failed to fetch tick size: %w", err)
	}
	return pipeline.Account{Balance: balance, TickValue: tickValue, TickSize: tickSize}, nil
}

func (s *ScanService) notifyObservers(ctx context.Context, snap ports.CycleSnapshot) {
	for _, obs := range s.observers {
		if err := obs.OnCycle(ctx, snap); err != nil {
			s.logger.Warn(ctx, "Cycle observer failed", map[string]interface{}{"symbol": snap.Symbol, "error": err.Error()})
		}
	}
}

// limitFilled reports whether the last bar traded through the resting entry.
func limitFilled(po domain.PendingOrder, last domain.Candle) bool {
	if po.Direction == domain.Buy {
		return last.Low <= po.EntryPrice
	}
	return last.High >= po.EntryPrice
}

// resolveOutcome checks whether the bar reached the signal's stop or target.
func resolveOutcome(rec *domain.SignalRecord, last domain.Candle) (domain.Outcome, float64) {
	if rec.Direction == domain.Buy {
		if last.Low <= rec.SLPrice {
			return domain.OutcomeLoss, rec.SLPrice
		}
		if last.High >= rec.TPPrice {
			return domain.OutcomeWin, rec.TPPrice
		}
	} else {
		if last.High >= rec.SLPrice {
			return domain.OutcomeLoss, rec.SLPrice
		}
		if last.Low <= rec.TPPrice {
			return domain.OutcomeWin, rec.TPPrice
		}
	}
	return domain.OutcomeOpen, 0
}

// signedPips converts a close against the entry into pips, positive in the
// trade's favor.
func signedPips(rec *domain.SignalRecord, closePrice float64) float64 {
	diff := closePrice - rec.EntryPrice
	if rec.Direction == domain.Sell {
		diff = -diff
	}
	return diff * domain.PipValue(rec.Symbol)
}

// timeframeDuration parses interval strings like "15m", "4h", "1d".
func timeframeDuration(tf string) (time.Duration, error) {
	if tf == "" {
		return 0, fmt.Errorf("empty timeframe")
	}
	unit := tf[len(tf)-1]
	var n int
	if _, err := fmt.Sscanf(tf[:len(tf)-1], "%d", &n); err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid timeframe %q", tf)
	}
	switch unit {
	case 'm':
		return time.Duration(n) * time.Minute, nil
	case 'h':
		return time.Duration(n) * time.Hour, nil
	case 'd':
		return time.Duration(n) * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("invalid timeframe unit %q", tf)
	}
}
