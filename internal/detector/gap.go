package detector

import (
	"fmt"
	"math"

	sig "edgelab-go/internal/signal"
)

// GapDetector flags bars opening at least gapPct percent away from the prior
// close and proposes a continuation trade in the gap direction.
type GapDetector struct {
	gapPct float64
}

// NewGapDetector builds a gap detector; gapPct defaults to 2%.
func NewGapDetector(gapPct float64) *GapDetector {
	if gapPct <= 0 {
		gapPct = 2.0
	}
	return &GapDetector{gapPct: gapPct}
}

// Name returns the identifier for the detector implementation.
func (d *GapDetector) Name() string { return "gap_go" }

// Detect compares each open against the previous close. The stop sits a
// quarter of the way back into the gap, the target projects the gap size
// forward from the entry.
func (d *GapDetector) Detect(symbol string, bars []sig.Bar) []sig.Signal {
	if len(bars) < 2 {
		return nil
	}

	var out []sig.Signal
	for i := 1; i < len(bars); i++ {
		prevClose := bars[i-1].Close
		if prevClose <= 0 {
			continue
		}
		open := bars[i].Open
		gapPct := 100 * (open - prevClose) / prevClose
		if math.Abs(gapPct) < d.gapPct {
			continue
		}

		dir := sig.Long
		if gapPct < 0 {
			dir = sig.Short
		}
		gapSize := math.Abs(open - prevClose)
		entry := open
		var stop, target float64
		if dir == sig.Long {
			stop = entry - 0.75*gapSize
			target = entry + gapSize
		} else {
			stop = entry + 0.75*gapSize
			target = entry - gapSize
		}

		s := sig.Signal{
			Symbol:     symbol,
			Ts:         bars[i].Ts,
			Direction:  dir,
			Entry:      entry,
			Stop:       stop,
			Target:     target,
			Confidence: clamp(45+8*math.Abs(gapPct)/d.gapPct, 0, 90),
			Detector:   d.Name(),
			Rationale:  fmt.Sprintf("%.2f%% gap %s vs prior close %.2f", gapPct, dir, prevClose),
			Meta: sig.Meta{
				Gap: &sig.GapMeta{GapPct: gapPct, PrevClose: prevClose},
			},
		}
		if s.Validate() == nil {
			out = append(out, s)
		}
	}
	return out
}
