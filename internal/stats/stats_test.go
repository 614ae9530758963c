package stats

import (
	"math"
	"reflect"
	"testing"
	"time"

	sig "edgelab-go/internal/signal"
)

var t0 = time.Date(2024, 3, 4, 14, 30, 0, 0, time.UTC)

func trade(minute int, pnl float64, outcome sig.Outcome) sig.TradeResult {
	return sig.TradeResult{
		Signal:  sig.Signal{Symbol: "AAPL", Ts: t0.Add(time.Duration(minute) * time.Minute), Direction: sig.Long},
		PnLPct:  pnl,
		Outcome: outcome,
	}
}

func TestAggregateDrawdownWalk(t *testing.T) {
	// P&L [+2, -1, +1] → cumulative [2,1,2], peaks [2,2,2], max drawdown 1.
	trades := []sig.TradeResult{
		trade(0, 2, sig.OutcomeWin),
		trade(1, -1, sig.OutcomeLoss),
		trade(2, 1, sig.OutcomeWin),
	}
	m := Aggregate(trades)
	if m.MaxDrawdown != 1 {
		t.Fatalf("expected max drawdown 1, got %.4f", m.MaxDrawdown)
	}
	if math.Abs(m.WinRate-200.0/3) > 1e-9 {
		t.Fatalf("expected win rate 66.7%%, got %.4f", m.WinRate)
	}
	if m.TotalTrades != 3 || m.WinningTrades != 2 || m.LosingTrades != 1 {
		t.Fatalf("unexpected counts: %+v", m)
	}
}

func TestAggregateEmptyDegradesToZeros(t *testing.T) {
	m := Aggregate(nil)
	if m.TotalTrades != 0 || m.WinRate != 0 || m.ProfitFactor != 0 || m.MaxDrawdown != 0 || m.Sharpe != 0 {
		t.Fatalf("expected all-zero metrics on empty input, got %+v", m)
	}
}

func TestProfitFactorEdges(t *testing.T) {
	onlyWins := []sig.TradeResult{trade(0, 1, sig.OutcomeWin), trade(1, 2, sig.OutcomeWin)}
	if pf := Aggregate(onlyWins).ProfitFactor; !math.IsInf(pf, 1) {
		t.Fatalf("wins with zero losses must give +Inf profit factor, got %.2f", pf)
	}

	mixed := []sig.TradeResult{trade(0, 3, sig.OutcomeWin), trade(1, -1.5, sig.OutcomeLoss)}
	if pf := Aggregate(mixed).ProfitFactor; pf != 2 {
		t.Fatalf("expected profit factor 2, got %.4f", pf)
	}
}

func TestSharpeNeedsTwoTrades(t *testing.T) {
	if s := Aggregate([]sig.TradeResult{trade(0, 5, sig.OutcomeWin)}).Sharpe; s != 0 {
		t.Fatalf("single trade must give Sharpe 0, got %.4f", s)
	}

	trades := []sig.TradeResult{trade(0, 2, sig.OutcomeWin), trade(1, -1, sig.OutcomeLoss)}
	m := Aggregate(trades)
	// mean 0.5, population stdev 1.5
	if math.Abs(m.Sharpe-0.5/1.5) > 1e-9 {
		t.Fatalf("expected Sharpe %.4f, got %.4f", 0.5/1.5, m.Sharpe)
	}

	flat := []sig.TradeResult{trade(0, 1, sig.OutcomeWin), trade(1, 1, sig.OutcomeWin)}
	if s := Aggregate(flat).Sharpe; s != 0 {
		t.Fatalf("zero variance must give Sharpe 0, got %.4f", s)
	}
}

func TestNoDataCountsNeitherBucket(t *testing.T) {
	trades := []sig.TradeResult{
		trade(0, 1, sig.OutcomeWin),
		trade(1, 0, sig.OutcomeNoData),
	}
	m := Aggregate(trades)
	if m.TotalTrades != 2 || m.WinningTrades != 1 || m.LosingTrades != 0 || m.NoDataTrades != 1 {
		t.Fatalf("unexpected bucket counts: %+v", m)
	}
	if m.WinningTrades+m.LosingTrades > m.TotalTrades {
		t.Fatalf("bucket invariant violated: %+v", m)
	}
}

func TestAggregateDeterministicRoundTrip(t *testing.T) {
	trades := []sig.TradeResult{
		trade(0, 2.5, sig.OutcomeWin),
		trade(1, -1.2, sig.OutcomeLoss),
		trade(2, 0.7, sig.OutcomeWin),
		trade(3, -0.4, sig.OutcomeLoss),
	}
	a := Aggregate(trades)
	b := Aggregate(trades)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("aggregation must be bit-for-bit deterministic:\n%+v\n%+v", a, b)
	}
}

func TestSortChronological(t *testing.T) {
	trades := []sig.TradeResult{
		trade(5, 1, sig.OutcomeWin),
		trade(1, -1, sig.OutcomeLoss),
		trade(3, 2, sig.OutcomeWin),
	}
	SortChronological(trades)
	for i := 1; i < len(trades); i++ {
		if trades[i].Signal.Ts.Before(trades[i-1].Signal.Ts) {
			t.Fatalf("trades not in chronological order after sort")
		}
	}
}
