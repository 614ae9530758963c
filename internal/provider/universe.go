package provider

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// UniverseFilter screens the configured symbol list before a run so thin
// names never reach the detectors.
type UniverseFilter struct {
	log          zerolog.Logger
	bars         BarProvider
	minDollarVol float64
	minBars      int
}

// NewUniverseFilter builds a screen requiring at least minDollarVol traded
// value and minBars bars on the sample day.
func NewUniverseFilter(log zerolog.Logger, bars BarProvider, minDollarVol float64, minBars int) *UniverseFilter {
	if minBars <= 0 {
		minBars = 30
	}
	return &UniverseFilter{log: log, bars: bars, minDollarVol: minDollarVol, minBars: minBars}
}

// Screen returns the subset of symbols that clear the liquidity screen on the
// sample date, deduplicated and sorted for determinism. A provider failure
// for one symbol drops that symbol, not the batch.
func (u *UniverseFilter) Screen(ctx context.Context, symbols []string, date time.Time, interval string) []string {
	seen := make(map[string]struct{}, len(symbols))
	var kept []string
	for _, raw := range symbols {
		sym := strings.ToUpper(strings.TrimSpace(raw))
		if sym == "" {
			continue
		}
		if _, dup := seen[sym]; dup {
			continue
		}
		seen[sym] = struct{}{}

		from := date.Truncate(24 * time.Hour)
		bars, err := u.bars.Bars(ctx, sym, from, from.Add(24*time.Hour), interval)
		if err != nil {
			u.log.Warn().Err(err).Str("sym", sym).Msg("universe screen fetch failed, dropping symbol")
			continue
		}
		if len(bars) < u.minBars {
			u.log.Debug().Str("sym", sym).Int("bars", len(bars)).Msg("dropped: too few bars")
			continue
		}
		var dollarVol float64
		for _, b := range bars {
			dollarVol += b.Close * b.Volume
		}
		if dollarVol < u.minDollarVol {
			u.log.Debug().Str("sym", sym).Float64("dollar_vol", dollarVol).Msg("dropped: thin tape")
			continue
		}
		kept = append(kept, sym)
	}
	sort.Strings(kept)
	return kept
}
