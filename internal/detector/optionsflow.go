package detector

import (
	"fmt"

	sig "edgelab-go/internal/signal"
)

// OptionsFlow uses unusual bar volume relative to a rolling average as a
// proxy for aggressive flow, taking the direction of the bar's body.
type OptionsFlow struct {
	ratio    float64
	lookback int
}

// NewOptionsFlow builds an options-flow detector; ratio defaults to 3x over a
// 20-bar average.
func NewOptionsFlow(ratio float64, lookback int) *OptionsFlow {
	if ratio <= 1 {
		ratio = 3.0
	}
	if lookback <= 0 {
		lookback = 20
	}
	return &OptionsFlow{ratio: ratio, lookback: lookback}
}

// Name returns the identifier for the detector implementation.
func (d *OptionsFlow) Name() string { return "options_flow" }

// Detect emits a signal whenever a bar's volume exceeds the rolling average
// by the configured ratio and the bar closed directionally. The stop hides
// beyond the trigger bar's range; the target projects 2R.
func (d *OptionsFlow) Detect(symbol string, bars []sig.Bar) []sig.Signal {
	if len(bars) <= d.lookback {
		return nil
	}

	var out []sig.Signal
	for i := d.lookback; i < len(bars); i++ {
		var sum float64
		for _, b := range bars[i-d.lookback : i] {
			sum += b.Volume
		}
		avg := sum / float64(d.lookback)
		if avg <= 0 {
			continue
		}
		bar := bars[i]
		ratio := bar.Volume / avg
		if ratio < d.ratio {
			continue
		}

		var dir sig.Direction
		switch {
		case bar.Close > bar.Open:
			dir = sig.Long
		case bar.Close < bar.Open:
			dir = sig.Short
		default:
			continue // doji, no directional read
		}

		entry := bar.Close
		var stop, target float64
		if dir == sig.Long {
			stop = bar.Low
			target = entry + 2*(entry-stop)
		} else {
			stop = bar.High
			target = entry - 2*(stop-entry)
		}
		if stop == entry {
			continue
		}

		s := sig.Signal{
			Symbol:     symbol,
			Ts:         bar.Ts,
			Direction:  dir,
			Entry:      entry,
			Stop:       stop,
			Target:     target,
			Confidence: clamp(40+10*ratio/d.ratio, 0, 92),
			Detector:   d.Name(),
			Rationale:  fmt.Sprintf("volume %.1fx the %d-bar average with %s close", ratio, d.lookback, dir),
			Meta: sig.Meta{
				Options: &sig.OptionsMeta{VolumeRatio: ratio, AvgVolume: avg},
			},
		}
		if s.Validate() == nil {
			out = append(out, s)
		}
	}
	return out
}
