package backtest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"edgelab-go/internal/detector"
	"edgelab-go/internal/enhance"
	"edgelab-go/internal/metrics"
	"edgelab-go/internal/provider"
	"edgelab-go/internal/risk"
	sig "edgelab-go/internal/signal"
	"edgelab-go/internal/simulate"
)

// Runner wires providers, detectors, the scoring engine, and the simulator
// into full backtest runs. Configuration is read-only after construction, so
// a Runner is safe to use from the worker pool.
type Runner struct {
	log       zerolog.Logger
	src       provider.Source
	detectors []detector.Detector
	engine    *enhance.Engine
	sim       *simulate.Simulator
	limits    risk.Limits
	interval  string
	workers   int
}

// NewRunner builds a Runner; workers defaults to 4 and interval to 1m.
func NewRunner(log zerolog.Logger, src provider.Source, detectors []detector.Detector, engine *enhance.Engine, sim *simulate.Simulator, limits risk.Limits, interval string, workers int) *Runner {
	if interval == "" {
		interval = "1m"
	}
	if workers <= 0 {
		workers = 4
	}
	return &Runner{
		log:       log,
		src:       src,
		detectors: detectors,
		engine:    engine,
		sim:       sim,
		limits:    limits,
		interval:  interval,
		workers:   workers,
	}
}

// DayOutput is the raw product of one (symbol, date, detector) triple.
type DayOutput struct {
	Detector string
	Signals  []sig.Signal
	Trades   []sig.TradeResult
}

// RunDay evaluates one detector on one symbol for one session. A bar-provider
// failure surfaces as an error so the caller can skip the triple; missing
// levels or context degrade to neutral inputs instead.
func (r *Runner) RunDay(ctx context.Context, symbol string, date time.Time, det detector.Detector) (DayOutput, error) {
	out := DayOutput{Detector: det.Name()}
	day := date.Truncate(24 * time.Hour)

	bars, err := r.src.Bars.Bars(ctx, symbol, day, day.Add(24*time.Hour), r.interval)
	if err != nil {
		return out, fmt.Errorf("bars %s %s: %w", symbol, day.Format("2006-01-02"), err)
	}
	if len(bars) == 0 {
		return out, nil
	}

	levels, err := r.src.Levels.Levels(ctx, symbol, day)
	if err != nil {
		r.log.Warn().Err(err).Str("sym", symbol).Msg("levels unavailable, scoring without confluence")
		levels = nil
	}
	mctx, err := r.src.Context.Context(ctx, day)
	if err != nil {
		r.log.Warn().Err(err).Msg("market context unavailable, scoring neutral")
		mctx = sig.MarketContext{Favored: sig.NoDirection}
	}

	sigs := det.Detect(symbol, bars)
	metrics.SignalsTotal.WithLabelValues(det.Name()).Add(float64(len(sigs)))
	out.Signals = sigs

	tradesToday := 0
	dailyPnL := 0.0
	for _, s := range sigs {
		if !r.limits.Allow(tradesToday, dailyPnL) {
			r.log.Debug().Str("sym", symbol).Msg("risk limits reached, no further trades today")
			break
		}

		es := r.engine.Enhance(s, s.Entry, levels, mctx)
		if !es.Tradeable {
			continue
		}
		metrics.SignalsKept.WithLabelValues(det.Name(), string(es.Tier)).Inc()

		tr := r.sim.Run(es, bars)
		metrics.TradesTotal.WithLabelValues(det.Name(), string(tr.Outcome)).Inc()
		out.Trades = append(out.Trades, tr)
		tradesToday++
		dailyPnL += tr.PnLPct
	}
	return out, nil
}

type triple struct {
	symbol string
	date   time.Time
	det    detector.Detector
}

// RunRange evaluates every enabled detector over every symbol and weekday in
// [from, to], fanning triples across a worker pool. Aggregation happens only
// after all contributing trades are collected and sorted; one failing triple
// never aborts the batch.
func (r *Runner) RunRange(ctx context.Context, symbols []string, from, to time.Time) []Result {
	dates := weekdays(from, to)
	ledgers := make(map[string]*Ledger, len(r.detectors))
	for _, det := range r.detectors {
		ledgers[det.Name()] = NewLedger(len(symbols) * len(dates))
	}

	work := make(chan triple)
	var wg sync.WaitGroup
	for i := 0; i < r.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range work {
				out, err := r.RunDay(ctx, t.symbol, t.date, t.det)
				if err != nil {
					metrics.TriplesSkipped.WithLabelValues("provider_error").Inc()
					r.log.Warn().Err(err).Str("sym", t.symbol).Str("detector", t.det.Name()).Msg("skipping triple")
					continue
				}
				ledgers[t.det.Name()].Record(out.Signals, out.Trades)
			}
		}()
	}

	// Stop scheduling further triples once the context ends; in-flight days
	// still run to a terminal state on already-fetched bars.
feed:
	for _, date := range dates {
		for _, symbol := range symbols {
			for _, det := range r.detectors {
				select {
				case work <- triple{symbol: symbol, date: date, det: det}:
				case <-ctx.Done():
					break feed
				}
			}
		}
	}
	close(work)
	wg.Wait()

	results := make([]Result, 0, len(r.detectors))
	for _, det := range r.detectors {
		signals, trades := ledgers[det.Name()].Snapshot()
		results = append(results, NewResult(det.Name(), from, to, signals, trades))
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Detector < results[j].Detector })
	return results
}

// Contexts fetches the market context for each weekday in the range, keyed by
// date string, for use with ApplyContextGate. Failed days are omitted.
func (r *Runner) Contexts(ctx context.Context, from, to time.Time) map[string]sig.MarketContext {
	out := make(map[string]sig.MarketContext)
	for _, date := range weekdays(from, to) {
		mctx, err := r.src.Context.Context(ctx, date)
		if err != nil {
			r.log.Warn().Err(err).Str("date", date.Format("2006-01-02")).Msg("context fetch failed, gate will pass that day")
			continue
		}
		out[date.Format("2006-01-02")] = mctx
	}
	return out
}

func weekdays(from, to time.Time) []time.Time {
	var days []time.Time
	for d := from.Truncate(24 * time.Hour); !d.After(to); d = d.Add(24 * time.Hour) {
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		days = append(days, d)
	}
	return days
}
