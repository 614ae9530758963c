package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SignalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "signals_total", Help: "Raw signals emitted by detectors"},
		[]string{"detector"},
	)
	SignalsKept = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "signals_kept_total", Help: "Signals that passed enhancement with a trade verdict"},
		[]string{"detector", "tier"},
	)
	TradesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "trades_total", Help: "Simulated trades by terminal outcome"},
		[]string{"detector", "outcome"},
	)
	TriplesSkipped = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "triples_skipped_total", Help: "Symbol/date/detector combinations skipped"},
		[]string{"reason"},
	)
	AlertsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "alerts_total", Help: "Alerts pushed to a notification sink"},
		[]string{"sink"},
	)
)

func init() {
	prometheus.MustRegister(SignalsTotal, SignalsKept, TradesTotal, TriplesSkipped, AlertsTotal)
}

// Serve exposes /metrics on the given address in a background goroutine.
func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
