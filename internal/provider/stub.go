package provider

import (
	"context"
	"hash/fnv"
	"math"
	"time"

	sig "edgelab-go/internal/signal"
)

// Stub emits deterministic synthetic data, useful for tests and offline work.
// The same symbol and window always produce the same bars.
type Stub struct {
	BasePrice float64
}

// NewStub builds a synthetic provider anchored at basePrice.
func NewStub(basePrice float64) *Stub {
	if basePrice <= 0 {
		basePrice = 100
	}
	return &Stub{BasePrice: basePrice}
}

func symbolSeed(symbol string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(symbol))
	return h.Sum64()
}

// Bars generates one bar per interval step between from and to using a
// seeded sinusoidal walk. Pure function of its arguments.
func (s *Stub) Bars(ctx context.Context, symbol string, from, to time.Time, interval string) ([]sig.Bar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	step := parseInterval(interval)
	if !from.Before(to) {
		return nil, nil
	}

	seed := symbolSeed(symbol)
	base := s.BasePrice * (1 + float64(seed%40)/200) // symbol-specific anchor
	var bars []sig.Bar
	i := 0
	for ts := from; ts.Before(to); ts = ts.Add(step) {
		phase := float64(i) / 10
		drift := float64(int64(seed%7)-3) * 0.0004 * float64(i)
		mid := base * (1 + 0.004*math.Sin(phase) + drift)
		spread := base * 0.0015
		open := mid - spread/2
		clos := mid + spread/2
		if (seed+uint64(i))%3 == 0 {
			open, clos = clos, open
		}
		bars = append(bars, sig.Bar{
			Symbol: symbol,
			Ts:     ts,
			Open:   open,
			High:   math.Max(open, clos) + spread,
			Low:    math.Min(open, clos) - spread,
			Close:  clos,
			Volume: 1000 + float64((seed+uint64(i*31))%5000),
		})
		i++
	}
	return bars, nil
}

// Levels places liquidity at round increments below and above the anchor.
func (s *Stub) Levels(ctx context.Context, symbol string, date time.Time) ([]sig.Level, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	seed := symbolSeed(symbol)
	base := s.BasePrice * (1 + float64(seed%40)/200)
	return []sig.Level{
		{Price: base * 0.995, Volume: 50000 + float64(seed%20000)},
		{Price: base * 1.005, Volume: 30000 + float64(seed%10000)},
	}, nil
}

// Context alternates direction by day so ranges exercise the context gate.
func (s *Stub) Context(ctx context.Context, date time.Time) (sig.MarketContext, error) {
	if err := ctx.Err(); err != nil {
		return sig.MarketContext{}, err
	}
	switch date.YearDay() % 3 {
	case 0:
		return sig.MarketContext{Favored: sig.Long, Regime: "uptrend", Strength: 0.7}, nil
	case 1:
		return sig.MarketContext{Favored: sig.Short, Regime: "downtrend", Strength: 0.6}, nil
	default:
		return sig.MarketContext{Favored: sig.NoDirection, Regime: "chop", Strength: 0.2}, nil
	}
}

func parseInterval(interval string) time.Duration {
	switch interval {
	case "", "1m":
		return time.Minute
	case "5m":
		return 5 * time.Minute
	case "15m":
		return 15 * time.Minute
	case "1h":
		return time.Hour
	case "1d":
		return 24 * time.Hour
	default:
		if d, err := time.ParseDuration(interval); err == nil && d > 0 {
			return d
		}
		return time.Minute
	}
}
