// Package report flattens backtest results into records suitable for JSON
// artifacts or human-readable summaries, without re-running any simulation.
package report

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"edgelab-go/internal/backtest"
)

// TradeRow is the per-trade detail line of a flat record.
type TradeRow struct {
	Symbol    string    `json:"symbol"`
	Direction string    `json:"direction"`
	EntryTs   time.Time `json:"entry_ts"`
	Entry     float64   `json:"entry"`
	Exit      float64   `json:"exit"`
	PnLPct    float64   `json:"pnl_pct"`
	Outcome   string    `json:"outcome"`
	BarsHeld  int       `json:"bars_held"`
}

// Record is the flat, serializable form of one backtest result.
type Record struct {
	Detector     string     `json:"detector"`
	From         string     `json:"from"`
	To           string     `json:"to"`
	SignalCount  int        `json:"signal_count"`
	TradeCount   int        `json:"trade_count"`
	WinRate      float64    `json:"win_rate"`
	AvgPnL       float64    `json:"avg_pnl"`
	TotalPnL     float64    `json:"total_pnl"`
	ProfitFactor float64    `json:"profit_factor"`
	Sharpe       float64    `json:"sharpe"`
	MaxDrawdown  float64    `json:"max_drawdown"`
	Trades       []TradeRow `json:"trades"`
}

// FromResult flattens a backtest result. An infinite profit factor becomes -1
// in the record since JSON cannot carry +Inf.
func FromResult(r backtest.Result) Record {
	rec := Record{
		Detector:     r.Detector,
		From:         r.From.Format("2006-01-02"),
		To:           r.To.Format("2006-01-02"),
		SignalCount:  len(r.Signals),
		TradeCount:   len(r.Trades),
		WinRate:      r.Metrics.WinRate,
		AvgPnL:       r.Metrics.AvgPnL,
		TotalPnL:     r.Metrics.TotalPnL,
		ProfitFactor: r.Metrics.ProfitFactor,
		Sharpe:       r.Metrics.Sharpe,
		MaxDrawdown:  r.Metrics.MaxDrawdown,
		Trades:       make([]TradeRow, 0, len(r.Trades)),
	}
	if math.IsInf(rec.ProfitFactor, 1) {
		rec.ProfitFactor = -1
	}
	for _, tr := range r.Trades {
		rec.Trades = append(rec.Trades, TradeRow{
			Symbol:    tr.Signal.Symbol,
			Direction: string(tr.Signal.Direction),
			EntryTs:   tr.Signal.Ts,
			Entry:     tr.Signal.Entry,
			Exit:      tr.ExitPrice,
			PnLPct:    tr.PnLPct,
			Outcome:   string(tr.Outcome),
			BarsHeld:  tr.BarsHeld,
		})
	}
	return rec
}

// JSON renders the record as indented JSON.
func (rec Record) JSON() ([]byte, error) {
	return json.MarshalIndent(rec, "", "  ")
}

// Summary renders a compact multi-line text summary for CLI output.
func (rec Record) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s..%s: %d signals, %d trades\n", rec.Detector, rec.From, rec.To, rec.SignalCount, rec.TradeCount)
	pf := fmt.Sprintf("%.2f", rec.ProfitFactor)
	if rec.ProfitFactor < 0 {
		pf = "inf"
	}
	fmt.Fprintf(&b, "  win rate %.1f%%  total P&L %+.2f%%  avg %+.2f%%\n", rec.WinRate, rec.TotalPnL, rec.AvgPnL)
	fmt.Fprintf(&b, "  profit factor %s  sharpe %.2f  max drawdown %.2f%%\n", pf, rec.Sharpe, rec.MaxDrawdown)
	return b.String()
}
