// Package risk encodes guard-rails the orchestrator applies while taking
// simulated trades.
package risk

// Limits caps how much a single symbol/date may trade. Zero values disable
// the corresponding check.
type Limits struct {
	MaxTradesPerDay int     `yaml:"max_trades_per_day"`
	MaxDailyLossPct float64 `yaml:"max_daily_loss_pct"`
}

// Allow reports whether another trade may be taken given the trades already
// executed today and the running P&L percentage.
func (l Limits) Allow(tradesToday int, dailyPnLPct float64) bool {
	if l.MaxTradesPerDay > 0 && tradesToday >= l.MaxTradesPerDay {
		return false
	}
	if l.MaxDailyLossPct > 0 && dailyPnLPct <= -l.MaxDailyLossPct {
		return false
	}
	return true
}
