// Package stats turns ordered trade results into aggregate performance
// metrics. Everything here recomputes from scratch: drawdown and the
// Sharpe-like ratio depend on the full ordered set, so incremental updates
// are deliberately not offered.
package stats

import (
	"math"
	"sort"

	sig "edgelab-go/internal/signal"
)

// Metrics summarizes a list of trade results.
type Metrics struct {
	TotalTrades   int     `json:"total_trades"`
	WinningTrades int     `json:"winning_trades"`
	LosingTrades  int     `json:"losing_trades"`
	NoDataTrades  int     `json:"no_data_trades"`
	WinRate       float64 `json:"win_rate"` // percent
	AvgWin        float64 `json:"avg_win"`
	AvgLoss       float64 `json:"avg_loss"`
	AvgPnL        float64 `json:"avg_pnl"`
	TotalPnL      float64 `json:"total_pnl"`
	ProfitFactor  float64 `json:"profit_factor"` // +Inf when wins and no losses
	MaxDrawdown   float64 `json:"max_drawdown"`
	Sharpe        float64 `json:"sharpe"` // mean/population-stdev, unannualized
}

// SortChronological orders trades by entry time in place. Aggregation relies
// on this ordering: drawdown walks the cumulative P&L series.
func SortChronological(trades []sig.TradeResult) {
	sort.SliceStable(trades, func(i, j int) bool {
		return trades[i].Signal.Ts.Before(trades[j].Signal.Ts)
	})
}

// Aggregate computes metrics over trades in their given (chronological)
// order. NO_DATA trades count toward totals but neither bucket. Empty input
// degrades to zeros rather than erroring.
func Aggregate(trades []sig.TradeResult) Metrics {
	m := Metrics{TotalTrades: len(trades)}
	if len(trades) == 0 {
		return m
	}

	var winSum, lossSum, posSum, negSum float64
	for _, tr := range trades {
		m.TotalPnL += tr.PnLPct
		switch tr.Outcome {
		case sig.OutcomeWin:
			m.WinningTrades++
			winSum += tr.PnLPct
		case sig.OutcomeLoss:
			m.LosingTrades++
			lossSum += tr.PnLPct
		case sig.OutcomeNoData:
			m.NoDataTrades++
		}
		if tr.PnLPct > 0 {
			posSum += tr.PnLPct
		} else {
			negSum += tr.PnLPct
		}
	}

	m.WinRate = 100 * float64(m.WinningTrades) / float64(m.TotalTrades)
	m.AvgPnL = m.TotalPnL / float64(m.TotalTrades)
	if m.WinningTrades > 0 {
		m.AvgWin = winSum / float64(m.WinningTrades)
	}
	if m.LosingTrades > 0 {
		m.AvgLoss = lossSum / float64(m.LosingTrades)
	}

	switch {
	case negSum == 0 && posSum > 0:
		m.ProfitFactor = math.Inf(1)
	case negSum == 0:
		m.ProfitFactor = 0
	default:
		m.ProfitFactor = posSum / math.Abs(negSum)
	}

	m.MaxDrawdown = maxDrawdown(trades)
	m.Sharpe = sharpe(trades)
	return m
}

// maxDrawdown walks the cumulative P&L series in order, tracking the running
// peak; the result is the deepest peak-to-trough decline, never negative.
func maxDrawdown(trades []sig.TradeResult) float64 {
	var cum, peak, maxDD float64
	for _, tr := range trades {
		cum += tr.PnLPct
		if cum > peak {
			peak = cum
		}
		if dd := peak - cum; dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

// sharpe is mean over population standard deviation of per-trade P&L, with
// no risk-free rate and no annualization. Fewer than two trades, or zero
// variance, yields 0.
func sharpe(trades []sig.TradeResult) float64 {
	n := len(trades)
	if n < 2 {
		return 0
	}
	var sum float64
	for _, tr := range trades {
		sum += tr.PnLPct
	}
	mean := sum / float64(n)

	var variance float64
	for _, tr := range trades {
		d := tr.PnLPct - mean
		variance += d * d
	}
	variance /= float64(n)
	if variance == 0 {
		return 0
	}
	return mean / math.Sqrt(variance)
}
