package main

import (
	"flag"
	"fmt"
	"log"
	"sort"
	"time"

	"sniperbot/config"
	"sniperbot/internal/adapters/logger"
	"sniperbot/internal/analytics"
	"sniperbot/internal/domain"
	"sniperbot/internal/pipeline"
	"sniperbot/internal/risk"
	"sniperbot/internal/strategy/filters"
	"sniperbot/internal/strategy/storyline"
	"sniperbot/internal/strategy/structure"
	"sniperbot/internal/strategy/trigger"
	"sniperbot/internal/strategy/zones"
	"sniperbot/internal/utils"
)

const (
	entryWindow = 200 // bars handed to the pipeline per step
	htfWindow   = 120
	balance     = 10000
)

// replay runs the full pipeline bar-by-bar over recorded candles and prints
// the kill distribution plus simulated outcomes of every emitted signal.
func main() {
	entryCSV := flag.String("entry", "", "CSV of entry-timeframe candles (required)")
	htfCSV := flag.String("htf", "", "CSV of higher-timeframe candles (required)")
	flag.Parse()
	if *entryCSV == "" || *htfCSV == "" {
		log.Fatal("both -entry and -htf CSV paths are required")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}
	appLogger := logger.NewStdLogger(logger.LevelError) // engines stay quiet during replay

	entryCandles, err := utils.ReadCandlesFromCSV(*entryCSV)
	if err != nil {
		log.Fatalf("Error loading entry candles: %v", err)
	}
	htfCandles, err := utils.ReadCandlesFromCSV(*htfCSV)
	if err != nil {
		log.Fatalf("Error loading higher-timeframe candles: %v", err)
	}
	if len(entryCandles) == 0 || len(htfCandles) == 0 {
		log.Fatal("empty candle files")
	}
	symbol := entryCandles[0].Symbol

	pipe, err := buildPipeline(cfg, appLogger)
	if err != nil {
		log.Fatalf("FATAL: Failed to build pipeline: %v", err)
	}

	acct := pipeline.Account{Balance: balance, TickValue: 0.1, TickSize: 0.1}
	cooldown := pipeline.NewCooldownTracker(cfg.CooldownBars)

	kills := map[domain.KillReason]int{}
	var emitted, wins, losses, unresolved, faults, suppressed int
	var totalPips float64
	var records []*domain.SignalRecord

	for i := entryWindow; i < len(entryCandles); i++ {
		entry := domain.Series{
			Symbol:    symbol,
			Timeframe: cfg.EntryTF,
			Candles:   entryCandles[i-entryWindow : i],
		}
		htf := htfSlice(htfCandles, entry.Candles[len(entry.Candles)-1].CloseTime, cfg.StorylineTF, symbol)

		res, err := pipe.Evaluate(entry, htf, acct)
		if err != nil {
			faults++
			continue
		}
		if !res.Emitted() {
			kills[res.Kill]++
			continue
		}
		if !cooldown.Allow(res.Intent.Direction, i) {
			suppressed++
			continue
		}
		cooldown.Record(res.Intent.Direction, i)
		emitted++

		outcome, pips, closedAt := simulate(res.Intent, entryCandles[i:])
		switch outcome {
		case domain.OutcomeWin:
			wins++
			totalPips += pips
		case domain.OutcomeLoss:
			losses++
			totalPips += pips
		default:
			unresolved++
		}
		records = append(records, &domain.SignalRecord{
			Symbol:     symbol,
			Direction:  res.Intent.Direction,
			Mode:       res.Intent.EntryMode,
			EntryPrice: res.Intent.EntryPrice,
			TPPrice:    res.Intent.TakeProfit,
			SLPrice:    res.Intent.StopLoss,
			CreatedAt:  entryCandles[i-1].CloseTime,
			Outcome:    outcome,
			PnLPips:    pips,
			ClosedAt:   closedAt,
		})
	}

	fmt.Printf("Replayed %d bars of %s\n\n", len(entryCandles)-entryWindow, symbol)
	fmt.Println("Kill distribution:")
	reasons := make([]string, 0, len(kills))
	for r := range kills {
		reasons = append(reasons, string(r))
	}
	sort.Strings(reasons)
	for _, r := range reasons {
		fmt.Printf("  %-22s %d\n", r, kills[domain.KillReason(r)])
	}
	fmt.Printf("\nFaults (skipped cycles): %d\n", faults)
	fmt.Printf("Cooldown-suppressed:     %d\n", suppressed)
	fmt.Printf("Signals emitted:         %d\n", emitted)
	fmt.Printf("  wins:       %d\n", wins)
	fmt.Printf("  losses:     %d\n", losses)
	fmt.Printf("  unresolved: %d\n", unresolved)
	if closed := wins + losses; closed > 0 {
		fmt.Printf("  win rate:   %.1f%%\n", float64(wins)/float64(closed)*100)
		fmt.Printf("  total pips: %.1f\n", totalPips)
		printPerformance(analytics.AnalyzeSignals(records))
	}
}

func printPerformance(m *analytics.PerformanceMetrics) {
	fmt.Println("\nPerformance:")
	fmt.Printf("  profit factor:  %.2f\n", m.ProfitFactor)
	fmt.Printf("  expectancy:     %.1f pips/signal\n", m.Expectancy)
	fmt.Printf("  avg win/loss:   %.1f / %.1f pips\n", m.AvgWinPips, m.AvgLossPips)
	fmt.Printf("  max drawdown:   %.1f pips\n", m.MaxDrawdownPips)
	fmt.Printf("  streaks:        %d wins, %d losses\n", m.MaxConsecutiveWins, m.MaxConsecutiveLosses)
	months := make([]string, 0, len(m.MonthlyPips))
	for month := range m.MonthlyPips {
		months = append(months, month)
	}
	sort.Strings(months)
	for _, month := range months {
		fmt.Printf("  %s: %+.1f pips\n", month, m.MonthlyPips[month])
	}
}

// htfSlice returns the trailing higher-timeframe window closed at or before
// the given entry bar close.
func htfSlice(candles []domain.Candle, cutoff time.Time, timeframe, symbol string) domain.Series {
	n := sort.Search(len(candles), func(i int) bool {
		return candles[i].CloseTime.After(cutoff)
	})
	start := n - htfWindow
	if start < 0 {
		start = 0
	}
	return domain.Series{Symbol: symbol, Timeframe: timeframe, Candles: candles[start:n]}
}

// simulate walks forward from the signal bar until the stop or target is
// touched; a bar touching both counts as a loss.
func simulate(intent *domain.TradeIntent, future []domain.Candle) (domain.Outcome, float64, time.Time) {
	pip := domain.PipValue(intent.Symbol)
	for _, c := range future {
		if intent.Direction == domain.Buy {
			if c.Low <= intent.StopLoss {
				return domain.OutcomeLoss, (intent.StopLoss - intent.EntryPrice) * pip, c.CloseTime
			}
			if c.High >= intent.TakeProfit {
				return domain.OutcomeWin, (intent.TakeProfit - intent.EntryPrice) * pip, c.CloseTime
			}
		} else {
			if c.High >= intent.StopLoss {
				return domain.OutcomeLoss, (intent.EntryPrice - intent.StopLoss) * pip, c.CloseTime
			}
			if c.Low <= intent.TakeProfit {
				return domain.OutcomeWin, (intent.EntryPrice - intent.TakeProfit) * pip, c.CloseTime
			}
		}
	}
	return domain.OutcomeOpen, 0, time.Time{}
}

// buildPipeline wires the five layers from configuration.
func buildPipeline(cfg *config.Config, appLogger *logger.StdLogger) (*pipeline.Pipeline, error) {
	zoneEngine, err := zones.New(zones.Config{
		Lookback:         cfg.ZoneLookback,
		MitigationBuffer: cfg.MitigationBuffer,
		MissWindow:       cfg.MissWindow,
	})
	if err != nil {
		return nil, err
	}
	structEngine, err := structure.New(structure.Config{
		SwingLookback: cfg.SwingLookback,
		BOSLookback:   cfg.BOSLookback,
	})
	if err != nil {
		return nil, err
	}
	storyEngine, err := storyline.New(storyline.Config{}, zoneEngine)
	if err != nil {
		return nil, err
	}
	arrival, err := filters.NewArrival(filters.ArrivalConfig{
		Lookback:         cfg.ArrivalLookback,
		AvgBodyWindow:    cfg.AvgBodyWindow,
		MarubozuMultiple: cfg.MarubozuMultiple,
	})
	if err != nil {
		return nil, err
	}
	roadblock, err := filters.NewRoadblock(filters.RoadblockConfig{MinRR: cfg.MinRR})
	if err != nil {
		return nil, err
	}
	trig, err := trigger.New(trigger.Config{}, structEngine)
	if err != nil {
		return nil, err
	}
	calc, err := risk.NewCalculator(risk.Config{
		RiskPercent: cfg.RiskPercent,
		MaxRiskPips: cfg.MaxRiskPips,
	})
	if err != nil {
		return nil, err
	}

	return pipeline.New(pipeline.Config{
		ExecMode:        cfg.ExecMode,
		LimitExpiryBars: cfg.LimitExpiryBars,
		MaxRiskPips:     cfg.MaxRiskPips,
	}, pipeline.Deps{
		Logger:    appLogger,
		Zones:     zoneEngine,
		Structure: structEngine,
		Storyline: storyEngine,
		Arrival:   arrival,
		Roadblock: roadblock,
		Trigger:   trig,
		Calc:      calc,
	})
}
