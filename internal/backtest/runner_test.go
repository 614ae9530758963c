package backtest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"edgelab-go/internal/detector"
	"edgelab-go/internal/enhance"
	"edgelab-go/internal/provider"
	"edgelab-go/internal/risk"
	sig "edgelab-go/internal/signal"
	"edgelab-go/internal/simulate"
)

// winningDay returns bars where a 100/99/102.5 long fills its target.
func winningDay(symbol string, day time.Time) []sig.Bar {
	open := day.Add(14*time.Hour + 30*time.Minute)
	return []sig.Bar{
		{Symbol: symbol, Ts: open, Open: 100, High: 100.6, Low: 99.6, Close: 100.2, Volume: 1000},
		{Symbol: symbol, Ts: open.Add(time.Minute), Open: 100.2, High: 102.6, Low: 100.0, Close: 102.4, Volume: 1500},
	}
}

type fakeSource struct {
	failSymbols map[string]bool
}

func (f fakeSource) Bars(_ context.Context, symbol string, from, _ time.Time, _ string) ([]sig.Bar, error) {
	if f.failSymbols[symbol] {
		return nil, errors.New("upstream 503")
	}
	return winningDay(symbol, from), nil
}

func (f fakeSource) Levels(_ context.Context, _ string, _ time.Time) ([]sig.Level, error) {
	return nil, nil
}

func (f fakeSource) Context(_ context.Context, _ time.Time) (sig.MarketContext, error) {
	return sig.MarketContext{Favored: sig.NoDirection, Regime: "chop"}, nil
}

func newFakeSource(fail ...string) provider.Source {
	m := make(map[string]bool)
	for _, s := range fail {
		m[s] = true
	}
	f := fakeSource{failSymbols: m}
	return provider.Source{Bars: f, Levels: f, Context: f}
}

// fixedDetector emits n long signals pinned to the first bar.
type fixedDetector struct{ n int }

func (d fixedDetector) Name() string { return "fixed_long" }

func (d fixedDetector) Detect(symbol string, bars []sig.Bar) []sig.Signal {
	if len(bars) == 0 {
		return nil
	}
	out := make([]sig.Signal, 0, d.n)
	for i := 0; i < d.n; i++ {
		out = append(out, sig.Signal{
			Symbol:     symbol,
			Ts:         bars[0].Ts,
			Direction:  sig.Long,
			Entry:      100,
			Stop:       99,
			Target:     102.5,
			Confidence: 90,
			Detector:   d.Name(),
		})
	}
	return out
}

func newTestRunner(src provider.Source, det fixedDetector, limits risk.Limits, workers int) *Runner {
	return NewRunner(
		zerolog.Nop(),
		src,
		[]detector.Detector{det},
		enhance.New(enhance.DefaultWeights(), enhance.DefaultThresholds()),
		simulate.New(50),
		limits,
		"1m",
		workers,
	)
}

func TestRunRangeProducesTrades(t *testing.T) {
	monday := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	tuesday := monday.Add(24 * time.Hour)
	r := newTestRunner(newFakeSource(), fixedDetector{n: 1}, risk.Limits{}, 2)

	results := r.RunRange(context.Background(), []string{"AAPL", "TSLA"}, monday, tuesday)
	if len(results) != 1 {
		t.Fatalf("expected 1 per-detector result, got %d", len(results))
	}
	res := results[0]
	// 2 symbols x 2 weekdays x 1 signal, every trade a target fill.
	if res.Metrics.TotalTrades != 4 {
		t.Fatalf("expected 4 trades, got %d", res.Metrics.TotalTrades)
	}
	if res.Metrics.WinRate != 100 {
		t.Fatalf("expected 100%% win rate, got %.1f", res.Metrics.WinRate)
	}
	for i := 1; i < len(res.Trades); i++ {
		if res.Trades[i].Signal.Ts.Before(res.Trades[i-1].Signal.Ts) {
			t.Fatalf("trades not chronological after pooled run")
		}
	}
}

func TestRunRangeSkipsWeekends(t *testing.T) {
	friday := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	monday := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	r := newTestRunner(newFakeSource(), fixedDetector{n: 1}, risk.Limits{}, 1)

	results := r.RunRange(context.Background(), []string{"AAPL"}, friday, monday)
	if got := results[0].Metrics.TotalTrades; got != 2 {
		t.Fatalf("expected Fri+Mon only (2 trades), got %d", got)
	}
}

func TestRunRangeSurvivesProviderFailure(t *testing.T) {
	monday := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	r := newTestRunner(newFakeSource("BAD"), fixedDetector{n: 1}, risk.Limits{}, 2)

	results := r.RunRange(context.Background(), []string{"BAD", "AAPL"}, monday, monday)
	if got := results[0].Metrics.TotalTrades; got != 1 {
		t.Fatalf("expected the good symbol to still trade, got %d trades", got)
	}
}

func TestRunDayHonorsRiskLimits(t *testing.T) {
	monday := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	r := newTestRunner(newFakeSource(), fixedDetector{n: 3}, risk.Limits{MaxTradesPerDay: 1}, 1)

	out, err := r.RunDay(context.Background(), "AAPL", monday, fixedDetector{n: 3})
	if err != nil {
		t.Fatalf("RunDay errored: %v", err)
	}
	if len(out.Signals) != 3 {
		t.Fatalf("expected 3 raw signals, got %d", len(out.Signals))
	}
	if len(out.Trades) != 1 {
		t.Fatalf("risk cap must stop after 1 trade, got %d", len(out.Trades))
	}
}

func TestRunDayNoBarsIsEmptyNotError(t *testing.T) {
	monday := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	src := newFakeSource()
	src.Bars = emptyBars{}
	r := newTestRunner(src, fixedDetector{n: 1}, risk.Limits{}, 1)

	out, err := r.RunDay(context.Background(), "AAPL", monday, fixedDetector{n: 1})
	if err != nil {
		t.Fatalf("missing data must not error: %v", err)
	}
	if len(out.Signals) != 0 || len(out.Trades) != 0 {
		t.Fatalf("expected empty output, got %+v", out)
	}
}

type emptyBars struct{}

func (emptyBars) Bars(context.Context, string, time.Time, time.Time, string) ([]sig.Bar, error) {
	return nil, nil
}
