package detector

import (
	"testing"
	"time"

	sig "edgelab-go/internal/signal"
)

func TestGapDetectorLongGapUp(t *testing.T) {
	d := NewGapDetector(2.0)
	start := time.Date(2024, 3, 1, 14, 30, 0, 0, time.UTC)
	bars := mkBars("NVDA", start, [][5]float64{
		{100, 101, 99.5, 100.5, 1000},
		{103.5, 104.2, 103.1, 104.0, 2500}, // ~3% gap up
	})

	sigs := d.Detect("NVDA", bars)
	if len(sigs) != 1 {
		t.Fatalf("expected 1 gap signal, got %d", len(sigs))
	}
	s := sigs[0]
	if s.Direction != sig.Long {
		t.Fatalf("expected LONG, got %s", s.Direction)
	}
	if s.Meta.Gap == nil {
		t.Fatalf("expected gap metadata on signal")
	}
	if s.Meta.Gap.PrevClose != 100.5 {
		t.Fatalf("unexpected prev close %.2f", s.Meta.Gap.PrevClose)
	}
	if err := s.Validate(); err != nil {
		t.Fatalf("emitted signal violates invariant: %v", err)
	}
}

func TestGapDetectorShortGapDown(t *testing.T) {
	d := NewGapDetector(2.0)
	start := time.Date(2024, 3, 1, 14, 30, 0, 0, time.UTC)
	bars := mkBars("META", start, [][5]float64{
		{300, 301, 298, 300, 1000},
		{291, 292, 288, 289, 3000}, // -3% gap down
	})

	sigs := d.Detect("META", bars)
	if len(sigs) != 1 {
		t.Fatalf("expected 1 gap signal, got %d", len(sigs))
	}
	if sigs[0].Direction != sig.Short {
		t.Fatalf("expected SHORT, got %s", sigs[0].Direction)
	}
	if err := sigs[0].Validate(); err != nil {
		t.Fatalf("emitted signal violates invariant: %v", err)
	}
}

func TestGapDetectorIgnoresSmallGaps(t *testing.T) {
	d := NewGapDetector(2.0)
	start := time.Date(2024, 3, 1, 14, 30, 0, 0, time.UTC)
	bars := mkBars("AAPL", start, [][5]float64{
		{100, 101, 99, 100, 1000},
		{100.8, 101.5, 100.4, 101, 1000}, // 0.8%, below threshold
	})
	if sigs := d.Detect("AAPL", bars); len(sigs) != 0 {
		t.Fatalf("expected no signals for sub-threshold gap, got %d", len(sigs))
	}
}
