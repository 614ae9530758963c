// Package provider hosts adapters for the external data sources the engine
// consumes: historical bars, dark-pool liquidity levels, and market context.
//
// Adapters keep "no data" and "failure" distinct: an empty slice with a nil
// error is a valid response, while a non-nil error means the caller should
// skip the affected scope and move on. Every call is bounded by its context.
package provider

import (
	"context"
	"time"

	sig "edgelab-go/internal/signal"
)

// BarProvider returns OHLCV bars ordered ascending by timestamp. Gaps are
// tolerated and simply absent.
type BarProvider interface {
	Bars(ctx context.Context, symbol string, from, to time.Time, interval string) ([]sig.Bar, error)
}

// LevelProvider returns dark-pool liquidity levels for a symbol and date.
type LevelProvider interface {
	Levels(ctx context.Context, symbol string, date time.Time) ([]sig.Level, error)
}

// ContextProvider returns the market backdrop for a date.
type ContextProvider interface {
	Context(ctx context.Context, date time.Time) (sig.MarketContext, error)
}

// Source bundles the three providers the orchestrator needs.
type Source struct {
	Bars    BarProvider
	Levels  LevelProvider
	Context ContextProvider
}
