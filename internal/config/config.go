// Package config exposes strongly typed application configuration structs
// loaded from YAML.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"edgelab-go/internal/enhance"
	"edgelab-go/internal/risk"
)

// App captures process-wide runtime settings such as name, environment,
// metrics address, and logging level.
type App struct {
	Name        string `yaml:"name"`
	Env         string `yaml:"env"`
	MetricsAddr string `yaml:"metrics_addr"`
	LogLevel    string `yaml:"log_level"`
}

// Providers configures where bars, levels, and market context come from.
type Providers struct {
	Mode      string `yaml:"mode"` // "stub" or "http"
	BaseURL   string `yaml:"base_url"`
	APIKeyEnv string `yaml:"api_key_env"` // env var holding the bearer token
	StreamURL string `yaml:"stream_url"`
}

// Detectors selects the enabled detector modes and their tunables.
type Detectors struct {
	Modes          []string `yaml:"modes"`
	MovePct        float64  `yaml:"move_pct"`
	ConsecBars     int      `yaml:"consec_bars"`
	CooldownBars   int      `yaml:"cooldown_bars"`
	GapPct         float64  `yaml:"gap_pct"`
	VolumeRatio    float64  `yaml:"volume_ratio"`
	VolumeLookback int      `yaml:"volume_lookback"`
}

// Scoring bundles the fusion weights and tier thresholds.
type Scoring struct {
	Weights    enhance.Weights    `yaml:"weights"`
	Thresholds enhance.Thresholds `yaml:"thresholds"`
}

// Simulator tunes the trade replay.
type Simulator struct {
	MaxHoldBars int `yaml:"max_hold_bars"`
}

// Backtest describes the evaluation universe and range.
type Backtest struct {
	Symbols         []string `yaml:"symbols"`
	From            string   `yaml:"from"` // YYYY-MM-DD
	To              string   `yaml:"to"`
	Interval        string   `yaml:"interval"`
	Workers         int      `yaml:"workers"`
	ContextGate     bool     `yaml:"context_gate"`
	MinDollarVolume float64  `yaml:"min_dollar_volume"`
	MinBars         int      `yaml:"min_bars"`
	TradesPath      string   `yaml:"trades_path"`
}

// Alerts configures notification delivery for the live scanner.
type Alerts struct {
	WebhookURL string `yaml:"webhook_url"`
}

// Config collects every configuration leaf for easy marshaling from YAML.
type Config struct {
	App       App         `yaml:"app"`
	Providers Providers   `yaml:"providers"`
	Detectors Detectors   `yaml:"detectors"`
	Scoring   Scoring     `yaml:"scoring"`
	Simulator Simulator   `yaml:"simulator"`
	Risk      risk.Limits `yaml:"risk"`
	Backtest  Backtest    `yaml:"backtest"`
	Alerts    Alerts      `yaml:"alerts"`
}

// Load reads a YAML file from disk and hydrates a Config struct. Zero scoring
// weights fall back to the defaults so a minimal config stays valid.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var config Config
	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	if config.Scoring.Weights == (enhance.Weights{}) {
		config.Scoring.Weights = enhance.DefaultWeights()
	}
	if config.Scoring.Thresholds == (enhance.Thresholds{}) {
		config.Scoring.Thresholds = enhance.DefaultThresholds()
	}
	if err := config.Scoring.Weights.Validate(); err != nil {
		return nil, fmt.Errorf("scoring weights: %w", err)
	}
	return &config, nil
}

// Save persists a Config struct to disk as YAML.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
