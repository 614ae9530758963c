package backtest

import (
	"math"
	"reflect"
	"testing"
	"time"

	sig "edgelab-go/internal/signal"
)

var day = time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

func tradeAt(minute int, dir sig.Direction, pnl float64, outcome sig.Outcome) sig.TradeResult {
	return sig.TradeResult{
		Signal:  sig.Signal{Symbol: "AAPL", Ts: day.Add(time.Duration(minute) * time.Minute), Direction: dir},
		PnLPct:  pnl,
		Outcome: outcome,
	}
}

func TestNewResultSortsAndAggregates(t *testing.T) {
	trades := []sig.TradeResult{
		tradeAt(30, sig.Long, 1, sig.OutcomeWin),
		tradeAt(10, sig.Long, -1, sig.OutcomeLoss),
	}
	r := NewResult("momentum_breakout", day, day.Add(24*time.Hour), nil, trades)

	if len(r.Trades) != 2 || !r.Trades[0].Signal.Ts.Before(r.Trades[1].Signal.Ts) {
		t.Fatalf("trades not sorted chronologically")
	}
	if r.Metrics.TotalTrades != 2 || r.Metrics.WinningTrades != 1 {
		t.Fatalf("unexpected metrics: %+v", r.Metrics)
	}
	// Input slice must not be mutated.
	if trades[0].Signal.Ts.After(trades[1].Signal.Ts) == false {
		t.Fatalf("caller slice was reordered")
	}
}

func TestNewResultMetricsRoundTrip(t *testing.T) {
	trades := []sig.TradeResult{
		tradeAt(0, sig.Long, 2, sig.OutcomeWin),
		tradeAt(1, sig.Long, -1, sig.OutcomeLoss),
		tradeAt(2, sig.Long, 1, sig.OutcomeWin),
	}
	r := NewResult("gap_go", day, day.Add(24*time.Hour), nil, trades)
	again := NewResult("gap_go", day, day.Add(24*time.Hour), nil, r.Trades)
	if !reflect.DeepEqual(r.Metrics, again.Metrics) {
		t.Fatalf("re-deriving metrics from stored trades changed them:\n%+v\n%+v", r.Metrics, again.Metrics)
	}
	if r.Metrics.MaxDrawdown != 1 {
		t.Fatalf("expected drawdown 1, got %.4f", r.Metrics.MaxDrawdown)
	}
}

func TestApplyContextGateRecomputes(t *testing.T) {
	trades := []sig.TradeResult{
		tradeAt(0, sig.Long, 2, sig.OutcomeWin),
		tradeAt(5, sig.Short, 1, sig.OutcomeWin),
		tradeAt(10, sig.Long, -1, sig.OutcomeLoss),
	}
	r := NewResult("momentum_breakout", day, day.Add(24*time.Hour), nil, trades)
	contexts := map[string]sig.MarketContext{
		day.Format("2006-01-02"): {Favored: sig.Long, Regime: "uptrend"},
	}

	gated := ApplyContextGate(r, contexts)
	if len(gated.Trades) != 2 {
		t.Fatalf("expected the short trade to be dropped, got %d trades", len(gated.Trades))
	}
	for _, tr := range gated.Trades {
		if tr.Signal.Direction != sig.Long {
			t.Fatalf("gate leaked a %s trade", tr.Signal.Direction)
		}
	}
	if gated.Metrics.TotalTrades != 2 {
		t.Fatalf("metrics must be rebuilt after gating: %+v", gated.Metrics)
	}
}

func TestApplyContextGateNeutralDayPasses(t *testing.T) {
	trades := []sig.TradeResult{tradeAt(0, sig.Short, 1, sig.OutcomeWin)}
	r := NewResult("gap_go", day, day.Add(24*time.Hour), nil, trades)
	contexts := map[string]sig.MarketContext{
		day.Format("2006-01-02"): {Favored: sig.NoDirection},
	}
	if gated := ApplyContextGate(r, contexts); len(gated.Trades) != 1 {
		t.Fatalf("neutral context must not drop trades")
	}
}

func TestMergeRederivesOverChronologicalList(t *testing.T) {
	a := NewResult("momentum_breakout", day, day.Add(24*time.Hour), nil, []sig.TradeResult{
		tradeAt(0, sig.Long, 2, sig.OutcomeWin),
		tradeAt(20, sig.Long, 1, sig.OutcomeWin),
	})
	b := NewResult("gap_go", day, day.Add(24*time.Hour), nil, []sig.TradeResult{
		tradeAt(10, sig.Long, -1, sig.OutcomeLoss),
	})

	m := Merge([]Result{a, b})
	if m.Detector != "combined" {
		t.Fatalf("unexpected merged detector %q", m.Detector)
	}
	if m.Metrics.TotalTrades != 3 {
		t.Fatalf("expected 3 merged trades, got %d", m.Metrics.TotalTrades)
	}
	// Interleaved order: +2, -1, +1 → max drawdown 1, not the per-detector 0.
	if m.Metrics.MaxDrawdown != 1 {
		t.Fatalf("drawdown must be re-derived over the merged sequence, got %.4f", m.Metrics.MaxDrawdown)
	}
	if math.Abs(m.Metrics.TotalPnL-2) > 1e-9 {
		t.Fatalf("expected total P&L 2, got %.4f", m.Metrics.TotalPnL)
	}
}

func TestMergeEmpty(t *testing.T) {
	m := Merge(nil)
	if m.Metrics.TotalTrades != 0 {
		t.Fatalf("empty merge must degrade to zeros")
	}
}
