// Package backtest drives detectors, scoring, and simulation over symbols and
// date ranges, then aggregates the outcomes.
package backtest

import (
	"time"

	sig "edgelab-go/internal/signal"
	"edgelab-go/internal/stats"
)

// Result is the output of one detector over one evaluation range. It is
// always rebuilt from scratch from its trade list; metrics are never patched
// in place.
type Result struct {
	Detector string             `json:"detector"`
	From     time.Time          `json:"from"`
	To       time.Time          `json:"to"`
	Signals  []sig.Signal       `json:"signals"`
	Trades   []sig.TradeResult  `json:"trades"`
	Metrics  stats.Metrics      `json:"metrics"`
}

// NewResult sorts the trades chronologically and derives metrics. All result
// construction funnels through here so stale-metric bugs cannot happen.
func NewResult(detectorName string, from, to time.Time, signals []sig.Signal, trades []sig.TradeResult) Result {
	sorted := make([]sig.TradeResult, len(trades))
	copy(sorted, trades)
	stats.SortChronological(sorted)
	return Result{
		Detector: detectorName,
		From:     from,
		To:       to,
		Signals:  signals,
		Trades:   sorted,
		Metrics:  stats.Aggregate(sorted),
	}
}

// ApplyContextGate rebuilds the result keeping only trades whose direction
// matches (or is unopposed by) the favored direction for the trade's day.
// Dropping trades changes the cumulative series, so the metrics are fully
// recomputed.
func ApplyContextGate(r Result, contexts map[string]sig.MarketContext) Result {
	kept := make([]sig.TradeResult, 0, len(r.Trades))
	for _, tr := range r.Trades {
		mctx, ok := contexts[tr.Signal.Ts.Format("2006-01-02")]
		if ok && mctx.Favored != sig.NoDirection && mctx.Favored != tr.Signal.Direction {
			continue
		}
		kept = append(kept, tr)
	}
	return NewResult(r.Detector, r.From, r.To, r.Signals, kept)
}

// Merge folds per-detector results into one portfolio-level result. Trades
// are merged into a single chronological list first, so drawdown and the
// Sharpe-like ratio are re-derived over the combined sequence rather than
// summed across detectors.
func Merge(results []Result) Result {
	if len(results) == 0 {
		return Result{Detector: "combined"}
	}
	merged := Result{Detector: "combined", From: results[0].From, To: results[0].To}
	for _, r := range results {
		if r.From.Before(merged.From) {
			merged.From = r.From
		}
		if r.To.After(merged.To) {
			merged.To = r.To
		}
		merged.Signals = append(merged.Signals, r.Signals...)
		merged.Trades = append(merged.Trades, r.Trades...)
	}
	return NewResult("combined", merged.From, merged.To, merged.Signals, merged.Trades)
}
