package main

import (
	"context"
	"fmt"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"edgelab-go/internal/backtest"
	"edgelab-go/internal/config"
	"edgelab-go/internal/detector"
	"edgelab-go/internal/enhance"
	"edgelab-go/internal/metrics"
	"edgelab-go/internal/provider"
	"edgelab-go/internal/report"
	"edgelab-go/internal/simulate"
	"edgelab-go/internal/util"
)

const defaultConfigPath = "config.yaml"

func main() {
	_ = godotenv.Load() // best-effort

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
		log.Info().Str("addr", cfg.App.MetricsAddr).Msg("metrics up")
	}

	ctx, cancel := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	from, err := time.Parse("2006-01-02", cfg.Backtest.From)
	if err != nil {
		log.Fatal().Err(err).Msg("parse backtest.from")
	}
	to, err := time.Parse("2006-01-02", cfg.Backtest.To)
	if err != nil {
		log.Fatal().Err(err).Msg("parse backtest.to")
	}

	src := buildSource(cfg)
	symbols := cfg.Backtest.Symbols
	if cfg.Backtest.MinDollarVolume > 0 {
		screen := provider.NewUniverseFilter(log, src.Bars, cfg.Backtest.MinDollarVolume, cfg.Backtest.MinBars)
		symbols = screen.Screen(ctx, symbols, from, cfg.Backtest.Interval)
		log.Info().Strs("symbols", symbols).Msg("universe after liquidity screen")
	}
	if len(symbols) == 0 {
		log.Warn().Msg("no symbols survived the screen, nothing to do")
		return
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
	sim := simulate.New(cfg.Simulator.MaxHoldBars)
	runner := backtest.NewRunner(log, src, detectors, engine, sim, cfg.Risk, cfg.Backtest.Interval, cfg.Backtest.Workers)

	log.Info().Time("from", from).Time("to", to).Int("detectors", len(detectors)).Msg("backtest started")
	results := runner.RunRange(ctx, symbols, from, to)

	if cfg.Backtest.ContextGate {
		contexts := runner.Contexts(ctx, from, to)
		for i, r := range results {
			results[i] = backtest.ApplyContextGate(r, contexts)
		}
		log.Info().Msg("context gate applied, metrics recomputed")
	}

	for _, r := range results {
		fmt.Print(report.FromResult(r).Summary())
	}
	combined := backtest.Merge(results)
	fmt.Print(report.FromResult(combined).Summary())

	if cfg.Backtest.TradesPath != "" {
		rec, err := report.NewJSONLRecorder(cfg.Backtest.TradesPath)
		if err != nil {
			log.Error().Err(err).Msg("open trade recorder")
			return
		}
		defer rec.Close()
		rec.RecordAll(combined.Trades)
		log.Info().Str("path", cfg.Backtest.TradesPath).Int("trades", len(combined.Trades)).Msg("trade records written")
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
