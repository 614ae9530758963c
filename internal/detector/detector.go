// Package detector contains signal generation logic run over bar sequences.
package detector

import (
	"strings"

	sig "edgelab-go/internal/signal"
)

// Detector defines behaviour shared by detector implementations. Detect must
// be pure with respect to its inputs: no state is carried across calls beyond
// configuration fixed at construction. A detector that cannot reach the data
// it needs returns an empty slice, never an error.
type Detector interface {
	Detect(symbol string, bars []sig.Bar) []sig.Signal
	Name() string
}

// Params expresses tunable knobs required by detector constructors.
type Params struct {
	MovePct        float64
	ConsecBars     int
	CooldownBars   int
	GapPct         float64
	VolumeRatio    float64
	VolumeLookback int
}

// Build returns a detector implementation matching the configured mode.
func Build(mode string, params Params) Detector {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "momentum", "momentum_breakout":
		return NewMomentumBreakout(params.MovePct, params.ConsecBars, params.CooldownBars)
	case "gap", "gap_go":
		return NewGapDetector(params.GapPct)
	case "options", "options_flow", "optionsflow":
		return NewOptionsFlow(params.VolumeRatio, params.VolumeLookback)
	default:
		return NewMomentumBreakout(params.MovePct, params.ConsecBars, params.CooldownBars)
	}
}

// BuildAll maps a list of modes to detector instances, skipping duplicates.
func BuildAll(modes []string, params Params) []Detector {
	seen := make(map[string]struct{}, len(modes))
	out := make([]Detector, 0, len(modes))
	for _, mode := range modes {
		d := Build(mode, params)
		if _, dup := seen[d.Name()]; dup {
			continue
		}
		seen[d.Name()] = struct{}{}
		out = append(out, d)
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
