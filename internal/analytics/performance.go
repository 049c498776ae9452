package analytics

import (
	"sort"
	"time"

	"sniperbot/internal/domain"
)

// PerformanceMetrics aggregates the outcomes of resolved signals. All
// profit figures are in pips, so results compare across instruments with
// different price scales.
type PerformanceMetrics struct {
	TotalSignals int
	Wins         int
	Losses       int
	WinRate      float64
	TotalPips    float64
	AvgWinPips   float64
	AvgLossPips  float64
	ProfitFactor float64
	Expectancy   float64 // expected pips per signal

	MaxConsecutiveWins   int
	MaxConsecutiveLosses int
	MaxDrawdownPips      float64 // deepest peak-to-trough on the cumulative pips curve
	MonthlyPips          map[string]float64
	EquityCurve          []EquityPoint
}

// EquityPoint is one resolved signal on the cumulative pips curve.
type EquityPoint struct {
	Time time.Time
	Pips float64
}

// AnalyzeSignals computes performance metrics over resolved signals.
// Open signals are ignored.
func AnalyzeSignals(records []*domain.SignalRecord) *PerformanceMetrics {
	metrics := &PerformanceMetrics{
		MonthlyPips: make(map[string]float64),
		EquityCurve: make([]EquityPoint, 0),
	}

	closed := make([]*domain.SignalRecord, 0, len(records))
	for _, rec := range records {
		if rec.Outcome == domain.OutcomeWin || rec.Outcome == domain.OutcomeLoss {
			closed = append(closed, rec)
		}
	}
	if len(closed) == 0 {
		return metrics
	}

	sort.Slice(closed, func(i, j int) bool {
		return closed[i].ClosedAt.Before(closed[j].ClosedAt)
	})

	var cumulative, peak, grossWin, grossLoss float64
	var streak int // positive for wins, negative for losses

	for _, rec := range closed {
		metrics.TotalSignals++
		cumulative += rec.PnLPips
		metrics.TotalPips = cumulative

		if rec.Outcome == domain.OutcomeWin {
			metrics.Wins++
			grossWin += rec.PnLPips
			if streak < 0 {
				streak = 0
			}
			streak++
			if streak > metrics.MaxConsecutiveWins {
				metrics.MaxConsecutiveWins = streak
			}
		} else {
			metrics.Losses++
			grossLoss += -rec.PnLPips
			if streak > 0 {
				streak = 0
			}
			streak--
			if -streak > metrics.MaxConsecutiveLosses {
				metrics.MaxConsecutiveLosses = -streak
			}
		}

		metrics.MonthlyPips[rec.ClosedAt.Format("2006-01")] += rec.PnLPips

		if cumulative > peak {
			peak = cumulative
		}
		if dd := peak - cumulative; dd > metrics.MaxDrawdownPips {
			metrics.MaxDrawdownPips = dd
		}
		metrics.EquityCurve = append(metrics.EquityCurve, EquityPoint{Time: rec.ClosedAt, Pips: cumulative})
	}

	metrics.WinRate = float64(metrics.Wins) / float64(metrics.TotalSignals)
	if metrics.Wins > 0 {
		metrics.AvgWinPips = grossWin / float64(metrics.Wins)
	}
	if metrics.Losses > 0 {
		metrics.AvgLossPips = -grossLoss / float64(metrics.Losses)
	}
	if grossLoss > 0 {
		metrics.ProfitFactor = grossWin / grossLoss
	}
	metrics.Expectancy = metrics.TotalPips / float64(metrics.TotalSignals)

	return metrics
}
