package detector

import (
	"fmt"
	"math"

	sig "edgelab-go/internal/signal"
)

// MomentumBreakout flags sustained directional moves away from the session
// open: price must travel at least movePct percent from the first bar's open
// and print consecBars consecutive same-direction closes.
type MomentumBreakout struct {
	movePct  float64
	consec   int
	cooldown int
}

// NewMomentumBreakout builds a breakout detector with sane fallbacks.
func NewMomentumBreakout(movePct float64, consecBars, cooldownBars int) *MomentumBreakout {
	if movePct <= 0 {
		movePct = 1.5
	}
	if consecBars <= 0 {
		consecBars = 3
	}
	if cooldownBars <= 0 {
		cooldownBars = 10
	}
	return &MomentumBreakout{movePct: movePct, consec: consecBars, cooldown: cooldownBars}
}

// Name returns the identifier for the detector implementation.
func (d *MomentumBreakout) Name() string { return "momentum_breakout" }

// Detect scans the bar sequence and emits a signal at each qualifying breakout
// bar, skipping cooldown bars after each emission so one move is not reported
// repeatedly.
func (d *MomentumBreakout) Detect(symbol string, bars []sig.Bar) []sig.Signal {
	if len(bars) < d.consec+1 {
		return nil
	}
	sessionOpen := bars[0].Open
	if sessionOpen <= 0 {
		return nil
	}

	var out []sig.Signal
	for i := d.consec; i < len(bars); i++ {
		bar := bars[i]
		movePct := 100 * (bar.Close - sessionOpen) / sessionOpen
		if math.Abs(movePct) < d.movePct {
			continue
		}

		dir := sig.Long
		if movePct < 0 {
			dir = sig.Short
		}
		if !consecutiveCloses(bars[i-d.consec:i+1], dir) {
			continue
		}

		s, ok := d.buildSignal(symbol, bars, i, dir, movePct)
		if ok {
			out = append(out, s)
			i += d.cooldown
		}
	}
	return out
}

func (d *MomentumBreakout) buildSignal(symbol string, bars []sig.Bar, i int, dir sig.Direction, movePct float64) (sig.Signal, bool) {
	bar := bars[i]
	entry := bar.Close

	// Stop beyond the extreme of the confirmation window; target projects the
	// risk distance at 2.5R.
	var stop float64
	window := bars[i-d.consec : i+1]
	if dir == sig.Long {
		stop = window[0].Low
		for _, b := range window {
			if b.Low < stop {
				stop = b.Low
			}
		}
	} else {
		stop = window[0].High
		for _, b := range window {
			if b.High > stop {
				stop = b.High
			}
		}
	}

	risk := math.Abs(entry - stop)
	if risk <= 0 {
		return sig.Signal{}, false
	}
	var target float64
	if dir == sig.Long {
		target = entry + 2.5*risk
	} else {
		target = entry - 2.5*risk
	}

	confidence := clamp(50+10*math.Abs(movePct)/d.movePct, 0, 95)
	s := sig.Signal{
		Symbol:     symbol,
		Ts:         bar.Ts,
		Direction:  dir,
		Entry:      entry,
		Stop:       stop,
		Target:     target,
		Confidence: confidence,
		Detector:   d.Name(),
		Rationale:  fmt.Sprintf("%.2f%% move from session open with %d consecutive %s closes", movePct, d.consec, dir),
	}
	if s.Validate() != nil {
		return sig.Signal{}, false
	}
	return s, true
}

func consecutiveCloses(window []sig.Bar, dir sig.Direction) bool {
	for i := 1; i < len(window); i++ {
		if dir == sig.Long && window[i].Close <= window[i-1].Close {
			return false
		}
		if dir == sig.Short && window[i].Close >= window[i-1].Close {
			return false
		}
	}
	return true
}
