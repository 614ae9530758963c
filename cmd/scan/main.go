package main

import (
	"context"
	"fmt"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"edgelab-go/internal/alert"
	"edgelab-go/internal/config"
	"edgelab-go/internal/detector"
	"edgelab-go/internal/enhance"
	"edgelab-go/internal/metrics"
	"edgelab-go/internal/provider"
	sig "edgelab-go/internal/signal"
	"edgelab-go/internal/util"
)

const defaultConfigPath = "config.yaml"

// windowBars bounds the rolling per-symbol bar window handed to detectors.
const windowBars = 240

func main() {
	_ = godotenv.Load()

	path := defaultConfigPath
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	log := util.NewLogger(cfg.App.LogLevel)

	if cfg.App.MetricsAddr != "" {
		_ = metrics.Serve(cfg.App.MetricsAddr)
	}

	ctx, cancel := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	symbols := cfg.Backtest.Symbols
	if len(symbols) == 0 {
		log.Fatal().Msg("no symbols configured")
	}

	detectors := detector.BuildAll(cfg.Detectors.Modes, detector.Params{
		MovePct:        cfg.Detectors.MovePct,
		ConsecBars:     cfg.Detectors.ConsecBars,
		CooldownBars:   cfg.Detectors.CooldownBars,
		GapPct:         cfg.Detectors.GapPct,
		VolumeRatio:    cfg.Detectors.VolumeRatio,
		VolumeLookback: cfg.Detectors.VolumeLookback,
	})
	engine := enhance.New(cfg.Scoring.Weights, cfg.Scoring.Thresholds)

	var sink alert.Sink
	if cfg.Alerts.WebhookURL != "" {
		sink = alert.NewWebhookSink(cfg.Alerts.WebhookURL)
	} else {
		sink = alert.NewLogSink(log)
	}

	src := buildSource(cfg)
	scanner := newScanner(log, src, detectors, engine, sink)

	bars := make(chan sig.Bar, 256)
	stream := provider.NewStream(cfg.Providers.StreamURL, symbols, log)
	go func() {
		if err := stream.Run(ctx, bars); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("bar stream ended")
		}
		close(bars)
	}()

	log.Info().Strs("symbols", symbols).Int("detectors", len(detectors)).Msg("live scan started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("shutting down")
			return
		case bar, ok := <-bars:
			if !ok {
				return
			}
			scanner.onBar(ctx, bar)
		}
	}
}

// scanner holds the per-symbol rolling windows and the dedupe state for the
// live loop.
type scanner struct {
	log       zerolog.Logger
	src       provider.Source
	detectors []detector.Detector
	engine    *enhance.Engine
	sink      alert.Sink

	windows map[string][]sig.Bar
	seen    map[string]struct{}
}

func newScanner(log zerolog.Logger, src provider.Source, dets []detector.Detector, engine *enhance.Engine, sink alert.Sink) *scanner {
	return &scanner{
		log:       log,
		src:       src,
		detectors: dets,
		engine:    engine,
		sink:      sink,
		windows:   make(map[string][]sig.Bar),
		seen:      make(map[string]struct{}),
	}
}

func (sc *scanner) onBar(ctx context.Context, bar sig.Bar) {
	window := append(sc.windows[bar.Symbol], bar)
	if len(window) > windowBars {
		window = window[len(window)-windowBars:]
	}
	sc.windows[bar.Symbol] = window

	levels, err := sc.src.Levels.Levels(ctx, bar.Symbol, bar.Ts)
	if err != nil {
		sc.log.Warn().Err(err).Str("sym", bar.Symbol).Msg("levels unavailable, scoring without confluence")
		levels = nil
	}
	mctx, err := sc.src.Context.Context(ctx, bar.Ts)
	if err != nil {
		sc.log.Warn().Err(err).Msg("market context unavailable, scoring neutral")
		mctx = sig.MarketContext{}
	}

	for _, det := range sc.detectors {
		for _, s := range det.Detect(bar.Symbol, window) {
			key := fmt.Sprintf("%s|%s|%s", s.Detector, s.Symbol, s.Ts.Format(time.RFC3339))
			if _, dup := sc.seen[key]; dup {
				continue
			}
			sc.seen[key] = struct{}{}
			metrics.SignalsTotal.WithLabelValues(det.Name()).Inc()

			es := sc.engine.Enhance(s, bar.Close, levels, mctx)
			if !es.Tradeable {
				continue
			}
			metrics.SignalsKept.WithLabelValues(det.Name(), string(es.Tier)).Inc()
			if err := sc.sink.Push(alert.FromEnhanced(es)); err != nil {
				sc.log.Error().Err(err).Str("sym", s.Symbol).Msg("alert delivery failed")
			}
		}
	}
}

func buildSource(cfg *config.Config) provider.Source {
	switch cfg.Providers.Mode {
	case "http":
		var opts []provider.HTTPOption
		if cfg.Providers.APIKeyEnv != "" {
			opts = append(opts, provider.WithAPIKey(os.Getenv(cfg.Providers.APIKeyEnv)))
		}
		h := provider.NewHTTP(cfg.Providers.BaseURL, opts...)
		return provider.Source{Bars: h, Levels: h, Context: h}
	default:
		s := provider.NewStub(100)
		return provider.Source{Bars: s, Levels: s, Context: s}
	}
}
