package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alejandrodnm/statarb/config"
	"github.com/alejandrodnm/statarb/internal/adapters/csvfile"
	"github.com/alejandrodnm/statarb/internal/adapters/notify"
	"github.com/alejandrodnm/statarb/internal/adapters/storage"
	"github.com/alejandrodnm/statarb/internal/backtest"
	"github.com/alejandrodnm/statarb/internal/ports"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	dataPath := flag.String("data", "", "CSV with two price columns and a zscore column (overrides config)")
	threshold := flag.Float64("threshold", 0, "z-score threshold to open a position (overrides config)")
	sweep := flag.Bool("sweep", true, "sweep candidate thresholds and report the best one")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	table := flag.Bool("table", false, "print full summary + sweep table (default: compact 1-line)")
	outPath := flag.String("out", "", "export the simulated table as CSV (overrides config)")
	noStore := flag.Bool("no-store", false, "do not persist the run")
	history := flag.Int("history", 0, "print the last N stored runs and exit (with -table, also the newest run's sweep)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	if *dataPath != "" {
		cfg.Backtest.DataPath = *dataPath
	}
	if *threshold != 0 {
		cfg.Backtest.Threshold = *threshold
	}
	if *outPath != "" {
		cfg.Output.CSVPath = *outPath
	}
	setupLogger(cfg.Log)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *history > 0 {
		if err := printHistory(ctx, cfg.Storage.DSN, *history, *table); err != nil {
			slog.Error("history failed", "err", err)
			os.Exit(1)
		}
		return
	}

	btCfg, err := engineConfig(cfg, *sweep)
	if err != nil {
		slog.Error("invalid backtest config", "err", err)
		os.Exit(1)
	}

	slog.Info("backtester starting",
		"config", *configPath,
		"data", cfg.Backtest.DataPath,
		"threshold", btCfg.Threshold,
		"find_best", btCfg.FindBest,
		"candidates", len(btCfg.Sweep.Thresholds),
	)

	// interfaces explícitas: un *SQLiteStorage nil no debe llegar al engine como no-nil
	var store ports.Storage
	if !*noStore {
		s, err := storage.NewSQLiteStorage(cfg.Storage.DSN)
		if err != nil {
			slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
			os.Exit(1)
		}
		defer s.Close()
		store = s
	}

	var tableWriter ports.TableWriter
	if cfg.Output.CSVPath != "" {
		tableWriter = csvfile.NewWriter(cfg.Output.CSVPath)
	}

	engine := backtest.New(
		btCfg,
		csvfile.NewLoader(cfg.Backtest.DataPath),
		store,
		tableWriter,
		notify.NewConsole(*table),
	)

	if _, err := engine.Run(ctx); err != nil {
		slog.Error("backtest failed", "err", err)
		os.Exit(1)
	}
}

// engineConfig traduce la config de archivo a la del engine. El flag -sweep=false
// desactiva el barrido aunque el archivo lo pida.
func engineConfig(cfg *config.Config, sweep bool) (backtest.Config, error) {
	bt := cfg.Backtest

	thresholds := bt.Sweep.Thresholds
	if len(thresholds) == 0 {
		var err error
		thresholds, err = backtest.ThresholdRange(bt.Sweep.Min, bt.Sweep.Max, bt.Sweep.Step)
		if err != nil {
			return backtest.Config{}, fmt.Errorf("engineConfig: %w", err)
		}
	}

	return backtest.Config{
		Threshold:   bt.Threshold,
		FindBest:    sweep && cfg.FindBest(),
		BaseCapital: bt.BaseCapital,
		Sweep: backtest.OptimizerConfig{
			Thresholds:  thresholds,
			Workers:     bt.Sweep.Workers,
			BaseCapital: bt.BaseCapital,
		},
	}, nil
}

// printHistory lista los últimos runs; con sweep también el barrido del más reciente.
func printHistory(ctx context.Context, dsn string, limit int, sweep bool) error {
	store, err := storage.NewSQLiteStorage(dsn)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer store.Close()

	return showHistory(ctx, store, notify.NewConsole(true), limit, sweep)
}

func showHistory(ctx context.Context, store ports.Storage, console *notify.Console, limit int, sweep bool) error {
	runs, err := store.ListRuns(ctx, limit)
	if err != nil {
		return err
	}
	if err := console.PrintHistory(runs); err != nil {
		return err
	}
	if !sweep || len(runs) == 0 {
		return nil
	}

	results, err := store.GetSweep(ctx, runs[0].RunID)
	if err != nil {
		return err
	}
	return console.PrintStoredSweep(runs[0], results)
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	// stderr: stdout queda para el reporte
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}
