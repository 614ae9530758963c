package detector

import (
	"testing"
	"time"

	sig "edgelab-go/internal/signal"
)

func mkBars(symbol string, start time.Time, ohlcv [][5]float64) []sig.Bar {
	bars := make([]sig.Bar, len(ohlcv))
	for i, row := range ohlcv {
		bars[i] = sig.Bar{
			Symbol: symbol,
			Ts:     start.Add(time.Duration(i) * time.Minute),
			Open:   row[0],
			High:   row[1],
			Low:    row[2],
			Close:  row[3],
			Volume: row[4],
		}
	}
	return bars
}

func TestMomentumDetectsLongBreakout(t *testing.T) {
	d := NewMomentumBreakout(1.0, 2, 5)
	start := time.Date(2024, 3, 4, 14, 30, 0, 0, time.UTC)
	bars := mkBars("AAPL", start, [][5]float64{
		{100.0, 100.4, 99.8, 100.2, 1000},
		{100.2, 100.8, 100.1, 100.7, 1100},
		{100.7, 101.4, 100.6, 101.3, 1300},
		{101.3, 101.6, 101.1, 101.5, 1200},
	})

	sigs := d.Detect("AAPL", bars)
	if len(sigs) == 0 {
		t.Fatalf("expected a breakout signal")
	}
	s := sigs[0]
	if s.Direction != sig.Long {
		t.Fatalf("expected LONG, got %s", s.Direction)
	}
	if err := s.Validate(); err != nil {
		t.Fatalf("emitted signal violates invariant: %v", err)
	}
	if s.Detector != "momentum_breakout" {
		t.Fatalf("unexpected detector tag %q", s.Detector)
	}
}

func TestMomentumDetectsShortBreakdown(t *testing.T) {
	d := NewMomentumBreakout(1.0, 2, 5)
	start := time.Date(2024, 3, 4, 14, 30, 0, 0, time.UTC)
	bars := mkBars("TSLA", start, [][5]float64{
		{200.0, 200.3, 199.4, 199.6, 900},
		{199.6, 199.8, 198.9, 199.0, 1000},
		{199.0, 199.2, 197.6, 197.8, 1500},
		{197.8, 198.1, 197.2, 197.4, 1200},
	})

	sigs := d.Detect("TSLA", bars)
	if len(sigs) == 0 {
		t.Fatalf("expected a breakdown signal")
	}
	if sigs[0].Direction != sig.Short {
		t.Fatalf("expected SHORT, got %s", sigs[0].Direction)
	}
	if err := sigs[0].Validate(); err != nil {
		t.Fatalf("emitted signal violates invariant: %v", err)
	}
}

func TestMomentumInsufficientDataReturnsEmpty(t *testing.T) {
	d := NewMomentumBreakout(1.0, 3, 5)
	start := time.Date(2024, 3, 4, 14, 30, 0, 0, time.UTC)
	bars := mkBars("AAPL", start, [][5]float64{
		{100, 100.5, 99.5, 100.2, 1000},
		{100.2, 100.6, 100.0, 100.4, 1000},
	})
	if sigs := d.Detect("AAPL", bars); len(sigs) != 0 {
		t.Fatalf("expected no signals on short history, got %d", len(sigs))
	}
	if sigs := d.Detect("AAPL", nil); len(sigs) != 0 {
		t.Fatalf("expected no signals on nil bars")
	}
}

func TestMomentumChoppyTapeStaysQuiet(t *testing.T) {
	d := NewMomentumBreakout(1.5, 3, 5)
	start := time.Date(2024, 3, 4, 14, 30, 0, 0, time.UTC)
	bars := mkBars("SPY", start, [][5]float64{
		{500, 500.5, 499.5, 500.2, 1000},
		{500.2, 500.6, 499.8, 499.9, 1000},
		{499.9, 500.4, 499.6, 500.3, 1000},
		{500.3, 500.7, 499.9, 500.0, 1000},
		{500.0, 500.5, 499.7, 500.2, 1000},
	})
	if sigs := d.Detect("SPY", bars); len(sigs) != 0 {
		t.Fatalf("expected no signals on chop, got %d", len(sigs))
	}
}

func TestBuildFactoryModes(t *testing.T) {
	cases := map[string]string{
		"momentum":     "momentum_breakout",
		"gap":          "gap_go",
		"options_flow": "options_flow",
		"":             "momentum_breakout",
		"unknown":      "momentum_breakout",
	}
	for mode, want := range cases {
		if got := Build(mode, Params{}).Name(); got != want {
			t.Fatalf("Build(%q) = %s, want %s", mode, got, want)
		}
	}
}

func TestBuildAllDeduplicates(t *testing.T) {
	ds := BuildAll([]string{"momentum", "momentum_breakout", "gap"}, Params{})
	if len(ds) != 2 {
		t.Fatalf("expected 2 unique detectors, got %d", len(ds))
	}
}
