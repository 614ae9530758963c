// Package signal standardizes payloads shared between detectors, the scoring
// engine, and the trade simulator.
package signal

import (
	"fmt"
	"time"
)

// Direction enumerates trade directions a detector may propose.
type Direction string

const (
	// Long indicates a bet on rising prices.
	Long Direction = "LONG"
	// Short indicates a bet on falling prices.
	Short Direction = "SHORT"
	// NoDirection is used by market context when neither side is favored.
	NoDirection Direction = "NONE"
)

// Opposite returns the mirrored direction; NoDirection maps to itself.
func (d Direction) Opposite() Direction {
	switch d {
	case Long:
		return Short
	case Short:
		return Long
	default:
		return NoDirection
	}
}

// Bar models a single OHLCV candle consumed by detectors and the simulator.
type Bar struct {
	Symbol string    `json:"symbol"`
	Ts     time.Time `json:"ts"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Level is a liquidity level reported by the dark-pool provider.
type Level struct {
	Price  float64 `json:"price"`
	Volume float64 `json:"volume"`
}

// MarketContext describes the day's broad market backdrop used to gate trades.
type MarketContext struct {
	Favored  Direction `json:"favored"`
	Regime   string    `json:"regime"`
	Strength float64   `json:"strength"`
}

// GapMeta carries auxiliary fields produced by the gap detector family.
type GapMeta struct {
	GapPct    float64 `json:"gap_pct"`
	PrevClose float64 `json:"prev_close"`
}

// OptionsMeta carries auxiliary fields produced by the options-flow family.
type OptionsMeta struct {
	VolumeRatio float64 `json:"volume_ratio"`
	AvgVolume   float64 `json:"avg_volume"`
}

// Meta is a small tagged union of known detector metadata plus a free-form
// extension map for detector-specific extras.
type Meta struct {
	Gap     *GapMeta          `json:"gap,omitempty"`
	Options *OptionsMeta      `json:"options,omitempty"`
	Extra   map[string]string `json:"extra,omitempty"`
}

// Signal expresses one proposed trade produced by a detector. A Signal is
// never mutated after creation; adjustments live on EnhancedSignal.
type Signal struct {
	Symbol     string    `json:"symbol"`
	Ts         time.Time `json:"ts"`
	Direction  Direction `json:"direction"`
	Entry      float64   `json:"entry"`
	Stop       float64   `json:"stop"`
	Target     float64   `json:"target"`
	Confidence float64   `json:"confidence"` // 0..100 raw detector confidence
	Detector   string    `json:"detector"`
	Rationale  string    `json:"rationale"`
	Meta       Meta      `json:"meta"`
}

// Validate checks the price-ordering invariant for the signal's direction.
func (s Signal) Validate() error {
	if s.Symbol == "" {
		return fmt.Errorf("signal missing symbol")
	}
	if s.Confidence < 0 || s.Confidence > 100 {
		return fmt.Errorf("confidence %.2f out of range", s.Confidence)
	}
	switch s.Direction {
	case Long:
		if !(s.Stop < s.Entry && s.Entry < s.Target) {
			return fmt.Errorf("long signal requires stop < entry < target, got %.4f/%.4f/%.4f", s.Stop, s.Entry, s.Target)
		}
	case Short:
		if !(s.Stop > s.Entry && s.Entry > s.Target) {
			return fmt.Errorf("short signal requires stop > entry > target, got %.4f/%.4f/%.4f", s.Stop, s.Entry, s.Target)
		}
	default:
		return fmt.Errorf("unknown direction %q", s.Direction)
	}
	return nil
}

// RewardRisk returns the reward:risk ratio implied by entry, stop, and target.
// Non-positive risk yields 0 rather than dividing by zero.
func (s Signal) RewardRisk() float64 {
	return RewardRisk(s.Direction, s.Entry, s.Stop, s.Target)
}

// RewardRisk computes reward:risk for an arbitrary stop/target pair, which
// the scoring engine needs after adjusting the stop.
func RewardRisk(dir Direction, entry, stop, target float64) float64 {
	var reward, risk float64
	switch dir {
	case Long:
		reward = target - entry
		risk = entry - stop
	case Short:
		reward = entry - target
		risk = stop - entry
	}
	if risk <= 0 {
		return 0
	}
	return reward / risk
}

// Tier buckets a composite score into discrete confidence grades.
type Tier string

const (
	TierMaster Tier = "MASTER"
	TierHigh   Tier = "HIGH"
	TierMedium Tier = "MEDIUM"
	TierLow    Tier = "LOW"
)

// Scores holds the individual enhancement components, each in [0,1].
type Scores struct {
	Base       float64 `json:"base"`
	Confluence float64 `json:"confluence"`
	Context    float64 `json:"context"`
	Volume     float64 `json:"volume"`
	Momentum   float64 `json:"momentum"`
}

// EnhancedSignal wraps a Signal with the multi-factor score breakdown and the
// final trade/no-trade verdict. It is rebuilt, never patched, when any
// scoring input changes.
type EnhancedSignal struct {
	Signal    Signal   `json:"signal"`
	Scores    Scores   `json:"scores"`
	Composite float64  `json:"composite"`
	Tier      Tier     `json:"tier"`
	AdjStop   float64  `json:"adj_stop"`
	AdjTarget float64  `json:"adj_target"`
	RR        float64  `json:"rr"`
	Tradeable bool     `json:"tradeable"`
	Supports  []string `json:"supports,omitempty"`
	Rejects   []string `json:"rejects,omitempty"`
}

// Outcome enumerates terminal states of a simulated trade.
type Outcome string

const (
	OutcomeWin     Outcome = "WIN"
	OutcomeLoss    Outcome = "LOSS"
	OutcomeTimeout Outcome = "TIMEOUT"
	OutcomeNoData  Outcome = "NO_DATA"
)

// TradeResult records the realized outcome of replaying one enhanced signal
// against historical bars. Created once by the simulator, then immutable.
type TradeResult struct {
	Signal       Signal    `json:"signal"`
	ExitPrice    float64   `json:"exit_price"`
	ExitTs       time.Time `json:"exit_ts,omitempty"` // zero when no exit happened
	PnLPct       float64   `json:"pnl_pct"`
	Outcome      Outcome   `json:"outcome"`
	BarsHeld     int       `json:"bars_held"`
	MaxFavorable float64   `json:"max_favorable_pct"`
	MaxAdverse   float64   `json:"max_adverse_pct"`
}
