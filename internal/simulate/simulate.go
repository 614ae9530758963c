// Package simulate replays enhanced signals bar-by-bar to determine the
// realized outcome of each trade decision.
package simulate

import (
	sig "edgelab-go/internal/signal"
)

// DefaultMaxHoldBars bounds the holding window when none is configured.
const DefaultMaxHoldBars = 120

// Simulator walks bars forward from a signal's entry until stop, target, or
// the holding window runs out. It holds configuration only and is safe for
// concurrent use.
type Simulator struct {
	maxHoldBars int
}

// New builds a simulator with the given holding window in bars.
func New(maxHoldBars int) *Simulator {
	if maxHoldBars <= 0 {
		maxHoldBars = DefaultMaxHoldBars
	}
	return &Simulator{maxHoldBars: maxHoldBars}
}

// Run replays one enhanced signal against the bar sequence. Entry happens at
// the first bar at or after the signal timestamp; with no such bar the trade
// is NO_DATA. When a bar touches both the stop and the target, the stop wins:
// the worse outcome is assumed to have happened first.
func (sim *Simulator) Run(es sig.EnhancedSignal, bars []sig.Bar) sig.TradeResult {
	s := es.Signal
	stop, target := es.AdjStop, es.AdjTarget
	res := sig.TradeResult{Signal: s, Outcome: sig.OutcomeNoData}

	start := -1
	for i, b := range bars {
		if !b.Ts.Before(s.Ts) {
			start = i
			break
		}
	}
	if start < 0 {
		return res
	}

	entry := s.Entry
	var mfe, mae float64 // percent of entry, never negative
	end := start + sim.maxHoldBars
	if end > len(bars) {
		end = len(bars)
	}

	for i := start; i < end; i++ {
		b := bars[i]
		res.BarsHeld = i - start + 1

		if s.Direction == sig.Long {
			if b.Low <= stop {
				return finish(res, stop, b, sig.OutcomeLoss, s, mfe, mae)
			}
			if b.High >= target {
				return finish(res, target, b, sig.OutcomeWin, s, mfe, mae)
			}
		} else {
			if b.High >= stop {
				return finish(res, stop, b, sig.OutcomeLoss, s, mfe, mae)
			}
			if b.Low <= target {
				return finish(res, target, b, sig.OutcomeWin, s, mfe, mae)
			}
		}

		mfe = maxf(mfe, favorablePct(s.Direction, entry, b))
		mae = maxf(mae, adversePct(s.Direction, entry, b))
	}

	// Holding window exhausted: exit at the last seen close and resolve the
	// timeout purely by the sign of the final P&L. Flat resolves to LOSS.
	last := bars[end-1]
	res = finish(res, last.Close, last, sig.OutcomeTimeout, s, mfe, mae)
	if res.PnLPct > 0 {
		res.Outcome = sig.OutcomeWin
	} else {
		res.Outcome = sig.OutcomeLoss
	}
	return res
}

func finish(res sig.TradeResult, exit float64, bar sig.Bar, outcome sig.Outcome, s sig.Signal, mfe, mae float64) sig.TradeResult {
	res.ExitPrice = exit
	res.ExitTs = bar.Ts
	res.Outcome = outcome
	res.PnLPct = pnlPct(s.Direction, s.Entry, exit)
	res.MaxFavorable = mfe
	res.MaxAdverse = mae
	return res
}

// pnlPct is the signed percent return of exiting at exit from entry.
func pnlPct(dir sig.Direction, entry, exit float64) float64 {
	if entry == 0 {
		return 0
	}
	raw := 100 * (exit - entry) / entry
	if dir == sig.Short {
		raw = -raw
	}
	return raw
}

func favorablePct(dir sig.Direction, entry float64, b sig.Bar) float64 {
	if entry == 0 {
		return 0
	}
	var v float64
	if dir == sig.Long {
		v = 100 * (b.High - entry) / entry
	} else {
		v = 100 * (entry - b.Low) / entry
	}
	return maxf(0, v)
}

func adversePct(dir sig.Direction, entry float64, b sig.Bar) float64 {
	if entry == 0 {
		return 0
	}
	var v float64
	if dir == sig.Long {
		v = 100 * (entry - b.Low) / entry
	} else {
		v = 100 * (b.High - entry) / entry
	}
	return maxf(0, v)
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
