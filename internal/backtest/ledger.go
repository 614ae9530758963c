package backtest

import (
	"sync"

	sig "edgelab-go/internal/signal"
)

// Ledger collects signals and trade results across the worker pool. Workers
// only append; aggregation happens once, after the pool drains, on a sorted
// snapshot.
type Ledger struct {
	mu      sync.Mutex
	signals []sig.Signal
	trades  []sig.TradeResult
}

// NewLedger creates an empty ledger optionally pre-sizing storage.
func NewLedger(capacity int) *Ledger {
	if capacity < 0 {
		capacity = 0
	}
	return &Ledger{
		signals: make([]sig.Signal, 0, capacity),
		trades:  make([]sig.TradeResult, 0, capacity),
	}
}

// Record appends one day's output for a symbol.
func (l *Ledger) Record(signals []sig.Signal, trades []sig.TradeResult) {
	l.mu.Lock()
	l.signals = append(l.signals, signals...)
	l.trades = append(l.trades, trades...)
	l.mu.Unlock()
}

// Snapshot returns copies of the recorded signals and trades.
func (l *Ledger) Snapshot() ([]sig.Signal, []sig.TradeResult) {
	l.mu.Lock()
	defer l.mu.Unlock()
	signals := make([]sig.Signal, len(l.signals))
	copy(signals, l.signals)
	trades := make([]sig.TradeResult, len(l.trades))
	copy(trades, l.trades)
	return signals, trades
}

// Reset clears the ledger for reuse between runs.
func (l *Ledger) Reset() {
	l.mu.Lock()
	l.signals = l.signals[:0]
	l.trades = l.trades[:0]
	l.mu.Unlock()
}
