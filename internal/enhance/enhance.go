// Package enhance turns raw detector signals into graded trade/no-trade
// decisions by fusing dark-pool confluence, market context, and confirmation
// scores into one composite.
package enhance

import (
	"fmt"
	"math"

	sig "edgelab-go/internal/signal"
)

// Weights configures the composite fusion. They must sum to 1.0.
type Weights struct {
	Base       float64 `yaml:"base"`
	Confluence float64 `yaml:"confluence"`
	Context    float64 `yaml:"context"`
	Volume     float64 `yaml:"volume"`
	Momentum   float64 `yaml:"momentum"`
}

// DefaultWeights returns the stock fusion weighting.
func DefaultWeights() Weights {
	return Weights{Base: 0.25, Confluence: 0.30, Context: 0.25, Volume: 0.10, Momentum: 0.10}
}

// Validate rejects weight sets that do not sum to 1.0 (small float slack).
func (w Weights) Validate() error {
	sum := w.Base + w.Confluence + w.Context + w.Volume + w.Momentum
	if math.Abs(sum-1.0) > 1e-6 {
		return fmt.Errorf("weights sum to %.6f, want 1.0", sum)
	}
	return nil
}

// Thresholds sets the composite-score tier boundaries (inclusive on the upper
// side) and the minimum reward:risk each tier must clear.
type Thresholds struct {
	Master   float64 `yaml:"master"`
	High     float64 `yaml:"high"`
	Medium   float64 `yaml:"medium"`
	MasterRR float64 `yaml:"master_rr"`
	HighRR   float64 `yaml:"high_rr"`
	MediumRR float64 `yaml:"medium_rr"`
}

// DefaultThresholds returns the stock tier boundaries.
func DefaultThresholds() Thresholds {
	return Thresholds{Master: 0.75, High: 0.60, Medium: 0.45, MasterRR: 1.5, HighRR: 2.0, MediumRR: 2.5}
}

// TierFor maps a composite score onto a confidence tier. Monotonic: a higher
// score can never produce a lower tier.
func (t Thresholds) TierFor(composite float64) sig.Tier {
	switch {
	case composite >= t.Master:
		return sig.TierMaster
	case composite >= t.High:
		return sig.TierHigh
	case composite >= t.Medium:
		return sig.TierMedium
	default:
		return sig.TierLow
	}
}

// MinRR returns the reward:risk floor for a tier. LOW shares the MEDIUM
// floor; it can never trade anyway because the composite check fails first.
func (t Thresholds) MinRR(tier sig.Tier) float64 {
	switch tier {
	case sig.TierMaster:
		return t.MasterRR
	case sig.TierHigh:
		return t.HighRR
	default:
		return t.MediumRR
	}
}

const (
	// neutralConfluence is used when no liquidity level sits near price.
	neutralConfluence = 0.3
	neutralConfirm    = 0.5
	contextAligned    = 1.0
	contextNeutral    = 0.5
	contextOpposed    = 0.1
)

// Engine scores signals. It holds configuration only; Enhance is a pure
// function of its arguments and may be called concurrently.
type Engine struct {
	weights      Weights
	thresholds   Thresholds
	proximityPct float64 // band around price where a level counts, percent
	stopBuffer   float64 // fraction of level price the stop hides beyond
}

// New builds a scoring engine, substituting defaults for zero values.
func New(w Weights, th Thresholds) *Engine {
	if w == (Weights{}) {
		w = DefaultWeights()
	}
	if th == (Thresholds{}) {
		th = DefaultThresholds()
	}
	return &Engine{weights: w, thresholds: th, proximityPct: 1.0, stopBuffer: 0.001}
}

// Enhance fuses the signal's raw confidence with dark-pool confluence,
// market-context alignment, and volume/momentum confirmation into a composite
// score, then applies the three-way trade gate: composite above the MEDIUM
// boundary, adjusted reward:risk above the tier floor, and never against a
// directional market context.
func (e *Engine) Enhance(s sig.Signal, currentPrice float64, levels []sig.Level, mctx sig.MarketContext) sig.EnhancedSignal {
	es := sig.EnhancedSignal{Signal: s, Tier: sig.TierLow, AdjStop: s.Stop, AdjTarget: s.Target}

	if err := s.Validate(); err != nil {
		es.Rejects = append(es.Rejects, fmt.Sprintf("malformed signal: %v", err))
		return es
	}

	conf, level, genuine := e.confluenceScore(s.Direction, currentPrice, levels)
	es.Scores = sig.Scores{
		Base:       s.Confidence / 100,
		Confluence: conf,
		Context:    contextScore(s.Direction, mctx),
		Volume:     volumeScore(s),
		Momentum:   momentumScore(s),
	}

	es.Composite = clamp01(e.weights.Base*es.Scores.Base +
		e.weights.Confluence*es.Scores.Confluence +
		e.weights.Context*es.Scores.Context +
		e.weights.Volume*es.Scores.Volume +
		e.weights.Momentum*es.Scores.Momentum)
	es.Tier = e.thresholds.TierFor(es.Composite)

	// Genuine confluence lets the stop tuck just beyond the liquidity level.
	if genuine {
		adj := adjustStop(s, level.Price, e.stopBuffer)
		if adj != s.Stop {
			es.AdjStop = adj
			es.Supports = append(es.Supports, fmt.Sprintf("stop moved behind dark-pool level %.2f", level.Price))
		}
	}
	es.RR = sig.RewardRisk(s.Direction, s.Entry, es.AdjStop, es.AdjTarget)

	minRR := e.thresholds.MinRR(es.Tier)
	scoreOK := es.Composite >= e.thresholds.Medium
	rrOK := es.RR >= minRR
	opposed := mctx.Favored != sig.NoDirection && mctx.Favored == s.Direction.Opposite()

	if scoreOK {
		es.Supports = append(es.Supports, fmt.Sprintf("composite %.2f clears %s tier", es.Composite, es.Tier))
	} else {
		es.Rejects = append(es.Rejects, fmt.Sprintf("composite %.2f below tradeable floor %.2f", es.Composite, e.thresholds.Medium))
	}
	if rrOK {
		es.Supports = append(es.Supports, fmt.Sprintf("reward:risk %.2f meets %.2f minimum", es.RR, minRR))
	} else {
		es.Rejects = append(es.Rejects, fmt.Sprintf("reward:risk %.2f below %.2f minimum", es.RR, minRR))
	}
	if opposed {
		es.Rejects = append(es.Rejects, fmt.Sprintf("%s signal against %s market context", s.Direction, mctx.Favored))
	} else if mctx.Favored == s.Direction {
		es.Supports = append(es.Supports, fmt.Sprintf("aligned with %s market context", mctx.Favored))
	}

	es.Tradeable = scoreOK && rrOK && !opposed
	return es
}

// confluenceScore finds the liquidity level nearest to price. Levels outside
// the proximity band score a weak-neutral default. A level on the wrong side
// of price for the direction still scores neutral; only correct-side levels
// count as genuine confluence and unlock the stop adjustment.
func (e *Engine) confluenceScore(dir sig.Direction, price float64, levels []sig.Level) (float64, sig.Level, bool) {
	if price <= 0 || len(levels) == 0 {
		return neutralConfluence, sig.Level{}, false
	}

	best := -1
	bestDist := math.MaxFloat64
	var maxVol float64
	for i, lv := range levels {
		if lv.Volume > maxVol {
			maxVol = lv.Volume
		}
		dist := math.Abs(lv.Price - price)
		if dist < bestDist {
			bestDist = dist
			best = i
		}
	}

	level := levels[best]
	band := price * e.proximityPct / 100
	if bestDist > band {
		return neutralConfluence, sig.Level{}, false
	}

	correctSide := (dir == sig.Long && level.Price <= price) || (dir == sig.Short && level.Price >= price)
	if !correctSide {
		return neutralConfluence, sig.Level{}, false
	}

	proximity := 1 - bestDist/band
	size := 1.0
	if maxVol > 0 {
		size = level.Volume / maxVol
	}
	return clamp01(0.6*proximity + 0.4*size), level, true
}

func contextScore(dir sig.Direction, mctx sig.MarketContext) float64 {
	switch mctx.Favored {
	case dir:
		return contextAligned
	case sig.NoDirection, "":
		return contextNeutral
	default:
		return contextOpposed
	}
}

// volumeScore reads the options-flow confirmation when the detector supplied
// it, else stays neutral.
func volumeScore(s sig.Signal) float64 {
	if s.Meta.Options == nil {
		return neutralConfirm
	}
	return clamp01(0.3 + 0.1*s.Meta.Options.VolumeRatio)
}

// momentumScore reads gap magnitude as momentum confirmation when present,
// else stays neutral.
func momentumScore(s sig.Signal) float64 {
	if s.Meta.Gap == nil {
		return neutralConfirm
	}
	return clamp01(0.3 + math.Abs(s.Meta.Gap.GapPct)/10)
}

// adjustStop tucks the stop just beyond the liquidity level, keeping the
// original stop whenever the adjustment would invert the price ordering.
func adjustStop(s sig.Signal, levelPrice, buffer float64) float64 {
	var adj float64
	switch s.Direction {
	case sig.Long:
		adj = levelPrice * (1 - buffer)
		if adj >= s.Entry {
			return s.Stop
		}
	case sig.Short:
		adj = levelPrice * (1 + buffer)
		if adj <= s.Entry {
			return s.Stop
		}
	default:
		return s.Stop
	}
	return adj
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
