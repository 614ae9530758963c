package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"edgelab-go/internal/config"
)

const defaultConfigPath = "config.yaml"

func main() {
	reader := bufio.NewReader(os.Stdin)

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	for {
		fmt.Println("\n=== EdgeLab Control ===")
		fmt.Println("1) Show configuration summary")
		fmt.Println("2) Edit scoring weights and thresholds")
		fmt.Println("3) Edit risk limits")
		fmt.Println("4) Edit backtest range and universe")
		fmt.Println("5) Save config")
		fmt.Println("6) Launch backtest")
		fmt.Println("7) Reload config from disk")
		fmt.Println("0) Exit")
		fmt.Print("Select option: ")

		input, _ := reader.ReadString('\n')
		choice := strings.TrimSpace(input)

		switch choice {
		case "1":
			printSummary(cfg)
		case "2":
			editScoring(reader, cfg)
		case "3":
			editRisk(reader, cfg)
		case "4":
			editBacktest(reader, cfg)
		case "5":
			if err := validateAndSave(cfg); err != nil {
				fmt.Fprintf(os.Stderr, "save failed: %v\n", err)
			} else {
				fmt.Println("config saved")
			}
		case "6":
			launchBacktest(reader)
		case "7":
			reloaded, err := loadConfig()
			if err != nil {
				fmt.Fprintf(os.Stderr, "reload failed: %v\n", err)
			} else {
				cfg = reloaded
				fmt.Println("config reloaded")
			}
		case "0":
			return
		default:
			fmt.Println("unknown option")
		}
	}
}

func printSummary(cfg *config.Config) {
	fmt.Println("\n--- Configuration Summary ---")
	fmt.Println("Detector modes:", strings.Join(cfg.Detectors.Modes, ", "))
	w := cfg.Scoring.Weights
	fmt.Printf("Weights: base %.2f | confluence %.2f | context %.2f | volume %.2f | momentum %.2f\n",
		w.Base, w.Confluence, w.Context, w.Volume, w.Momentum)
	th := cfg.Scoring.Thresholds
	fmt.Printf("Tiers: MASTER >= %.2f (RR %.1f) | HIGH >= %.2f (RR %.1f) | MEDIUM >= %.2f (RR %.1f)\n",
		th.Master, th.MasterRR, th.High, th.HighRR, th.Medium, th.MediumRR)
	fmt.Printf("Max trades/day: %d | daily loss stop: %.1f%%\n", cfg.Risk.MaxTradesPerDay, cfg.Risk.MaxDailyLossPct)
	fmt.Printf("Max hold bars: %d\n", cfg.Simulator.MaxHoldBars)
	fmt.Println("Universe:", strings.Join(cfg.Backtest.Symbols, ", "))
	fmt.Printf("Range: %s .. %s @ %s | workers %d | context gate %v\n",
		cfg.Backtest.From, cfg.Backtest.To, cfg.Backtest.Interval, cfg.Backtest.Workers, cfg.Backtest.ContextGate)
	fmt.Printf("Liquidity screen: $%.0f dollar volume, %d bars minimum\n", cfg.Backtest.MinDollarVolume, cfg.Backtest.MinBars)
}

func editScoring(reader *bufio.Reader, cfg *config.Config) {
	fmt.Println("\n--- Edit Scoring ---")
	fmt.Println("Weights must sum to 1.0; save rejects anything else.")
	cfg.Scoring.Weights.Base = promptFloat(reader, "Base weight", cfg.Scoring.Weights.Base)
	cfg.Scoring.Weights.Confluence = promptFloat(reader, "Confluence weight", cfg.Scoring.Weights.Confluence)
	cfg.Scoring.Weights.Context = promptFloat(reader, "Context weight", cfg.Scoring.Weights.Context)
	cfg.Scoring.Weights.Volume = promptFloat(reader, "Volume weight", cfg.Scoring.Weights.Volume)
	cfg.Scoring.Weights.Momentum = promptFloat(reader, "Momentum weight", cfg.Scoring.Weights.Momentum)
	cfg.Scoring.Thresholds.Master = promptFloat(reader, "MASTER threshold", cfg.Scoring.Thresholds.Master)
	cfg.Scoring.Thresholds.High = promptFloat(reader, "HIGH threshold", cfg.Scoring.Thresholds.High)
	cfg.Scoring.Thresholds.Medium = promptFloat(reader, "MEDIUM threshold", cfg.Scoring.Thresholds.Medium)
	cfg.Scoring.Thresholds.MasterRR = promptFloat(reader, "MASTER min reward/risk", cfg.Scoring.Thresholds.MasterRR)
	cfg.Scoring.Thresholds.HighRR = promptFloat(reader, "HIGH min reward/risk", cfg.Scoring.Thresholds.HighRR)
	cfg.Scoring.Thresholds.MediumRR = promptFloat(reader, "MEDIUM min reward/risk", cfg.Scoring.Thresholds.MediumRR)
}

func editRisk(reader *bufio.Reader, cfg *config.Config) {
	fmt.Println("\n--- Edit Risk Limits ---")
	fmt.Println("Zero disables a limit.")
	cfg.Risk.MaxTradesPerDay = int(promptFloat(reader, "Max trades per day", float64(cfg.Risk.MaxTradesPerDay)))
	cfg.Risk.MaxDailyLossPct = promptFloat(reader, "Max daily loss (%)", cfg.Risk.MaxDailyLossPct)
	cfg.Simulator.MaxHoldBars = int(promptFloat(reader, "Max hold bars", float64(cfg.Simulator.MaxHoldBars)))
}

func editBacktest(reader *bufio.Reader, cfg *config.Config) {
	fmt.Println("\n--- Edit Backtest ---")
	fmt.Printf("Current universe: %s\n", strings.Join(cfg.Backtest.Symbols, ", "))
	fmt.Print("Enter symbols comma-separated (blank to keep): ")
	if line, _ := reader.ReadString('\n'); strings.TrimSpace(line) != "" {
		parts := strings.Split(strings.TrimSpace(line), ",")
		cfg.Backtest.Symbols = nil
		for _, p := range parts {
			if trimmed := strings.ToUpper(strings.TrimSpace(p)); trimmed != "" {
				cfg.Backtest.Symbols = append(cfg.Backtest.Symbols, trimmed)
			}
		}
	}
	cfg.Backtest.From = promptString(reader, "From (YYYY-MM-DD)", cfg.Backtest.From)
	cfg.Backtest.To = promptString(reader, "To (YYYY-MM-DD)", cfg.Backtest.To)
	cfg.Backtest.Workers = int(promptFloat(reader, "Workers", float64(cfg.Backtest.Workers)))
	cfg.Backtest.MinDollarVolume = promptFloat(reader, "Min dollar volume (USD)", cfg.Backtest.MinDollarVolume)
	fmt.Printf("Context gate enabled: %v. Toggle? (y/N): ", cfg.Backtest.ContextGate)
	if line, _ := reader.ReadString('\n'); strings.EqualFold(strings.TrimSpace(line), "y") {
		cfg.Backtest.ContextGate = !cfg.Backtest.ContextGate
	}
}

func launchBacktest(reader *bufio.Reader) {
	fmt.Println("Launching backtest (Ctrl+C to stop)...")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cmd := exec.CommandContext(ctx, "go", "run", "./cmd/backtest", locateConfig())
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin

	if err := cmd.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start backtest: %v\n", err)
		return
	}

	go func() {
		_ = cmd.Wait()
		cancel()
	}()

	fmt.Print("\nPress ENTER to stop the run and return to menu...")
	_, _ = reader.ReadString('\n')
	cancel()
	time.Sleep(500 * time.Millisecond)
}

func promptFloat(reader *bufio.Reader, label string, current float64) float64 {
	fmt.Printf("%s [%.2f]: ", label, current)
	line, _ := reader.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		return current
	}
	val, err := strconv.ParseFloat(line, 64)
	if err != nil {
		fmt.Printf("invalid number, keeping %.2f\n", current)
		return current
	}
	return val
}

func promptString(reader *bufio.Reader, label, current string) string {
	fmt.Printf("%s [%s]: ", label, current)
	line, _ := reader.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		return current
	}
	return line
}

func validateAndSave(cfg *config.Config) error {
	if err := cfg.Scoring.Weights.Validate(); err != nil {
		return err
	}
	return config.Save(locateConfig(), cfg)
}

func loadConfig() (*config.Config, error) {
	return config.Load(locateConfig())
}

func locateConfig() string {
	if filepath.IsAbs(defaultConfigPath) {
		return defaultConfigPath
	}
	return filepath.Clean(defaultConfigPath)
}
