package backtest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/statarb/internal/domain"
	"github.com/alejandrodnm/statarb/internal/ports"
	"github.com/google/uuid"
)

// DefaultBaseCapital is the notional capital a run starts with.
const DefaultBaseCapital = 1000.0

// Config contiene la configuración de un backtest.
type Config struct {
	Threshold   float64
	FindBest    bool
	BaseCapital float64
	Sweep       OptimizerConfig
}

// DefaultConfig devuelve la configuración por defecto: threshold 1.1,
// capital 1000 y barrido 1.0 a 1.9.
func DefaultConfig() Config {
	return Config{
		Threshold:   1.1,
		FindBest:    true,
		BaseCapital: DefaultBaseCapital,
		Sweep: OptimizerConfig{
			Thresholds:  DefaultThresholds(),
			BaseCapital: DefaultBaseCapital,
		},
	}
}

// Engine es el orquestador: carga la serie, ejecuta el pipeline y entrega el
// reporte a storage, exportador y notificador.
type Engine struct {
	cfg       Config
	loader    ports.SeriesLoader
	storage   ports.Storage
	table     ports.TableWriter
	notifier  ports.Notifier
	optimizer *Optimizer
}

// New crea un Engine con todas las dependencias inyectadas. storage, table y
// notifier pueden ser nil.
func New(
	cfg Config,
	loader ports.SeriesLoader,
	storage ports.Storage,
	table ports.TableWriter,
	notifier ports.Notifier,
) *Engine {
	if cfg.BaseCapital <= 0 {
		cfg.BaseCapital = DefaultBaseCapital
	}
	cfg.Sweep.BaseCapital = cfg.BaseCapital
	return &Engine{
		cfg:       cfg,
		loader:    loader,
		storage:   storage,
		table:     table,
		notifier:  notifier,
		optimizer: NewOptimizer(cfg.Sweep),
	}
}

// Run loads the series, backtests it and publishes the report. Storage, export
// and notification failures are logged; only load and computation errors are
// returned.
func (e *Engine) Run(ctx context.Context) (domain.Report, error) {
	start := time.Now()

	series, err := e.loader.LoadSeries(ctx)
	if err != nil {
		return domain.Report{}, fmt.Errorf("backtest.Run: load series: %w", err)
	}

	report, err := e.Backtest(ctx, series)
	if err != nil {
		return domain.Report{}, err
	}

	if e.storage != nil {
		if err := e.storage.SaveRun(ctx, report); err != nil {
			slog.Warn("storage error", "err", err, "run_id", report.RunID)
		}
	}
	if e.table != nil {
		if err := e.table.WriteSimulation(ctx, report.Symbol1, report.Symbol2, report.Simulation); err != nil {
			slog.Warn("table export error", "err", err, "run_id", report.RunID)
		}
	}
	if e.notifier != nil {
		if err := e.notifier.Notify(ctx, report); err != nil {
			slog.Warn("notifier error", "err", err)
		}
	}

	slog.Info("backtest complete",
		"run_id", report.RunID,
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return report, nil
}

// Backtest runs the pipeline over an in-memory series: drop incomplete rows,
// annotate zero crossings, detect triggers, pick the better long configuration
// and, if enabled, sweep the candidate thresholds with that configuration.
func (e *Engine) Backtest(ctx context.Context, series domain.Series) (domain.Report, error) {
	if err := ValidateThreshold(e.cfg.Threshold); err != nil {
		return domain.Report{}, fmt.Errorf("backtest.Backtest: %w", err)
	}

	points, droppedMissing := DropIncomplete(series.Points)
	if droppedMissing > 0 {
		slog.Info("dropped incomplete rows", "rows", droppedMissing)
	}
	if len(points) < 2 {
		return domain.Report{}, fmt.Errorf("backtest.Backtest: %w",
			&domain.InsufficientDataError{Stage: "load", Rows: len(points), Need: 2})
	}

	annotated, err := Annotate(points)
	if err != nil {
		return domain.Report{}, fmt.Errorf("backtest.Backtest: %w", err)
	}

	triggers, err := DetectTriggers(annotated, e.cfg.Threshold)
	if err != nil {
		return domain.Report{}, fmt.Errorf("backtest.Backtest: %w", err)
	}

	sim, err := SelectStrategy(annotated, triggers, e.cfg.Threshold, e.cfg.BaseCapital)
	if err != nil {
		return domain.Report{}, fmt.Errorf("backtest.Backtest: %w", err)
	}

	report := domain.Report{
		RunID:          uuid.New().String(),
		CreatedAt:      time.Now().UTC(),
		Source:         series.Source,
		Symbol1:        series.Symbol1,
		Symbol2:        series.Symbol2,
		InputRows:      series.Len(),
		DroppedMissing: droppedMissing,
		DroppedTail:    len(points) - len(annotated),
		Simulation:     sim,
		Chart:          BuildChart(sim),
	}

	slog.Info("backtest simulated",
		"pair", series.Symbol1+"/"+series.Symbol2,
		"threshold", e.cfg.Threshold,
		"long_config", int(sim.LongConfig),
		"trades", sim.Trades,
		"capital", sim.Terminal().Capital,
	)

	if e.cfg.FindBest {
		sweep, err := e.optimizer.Sweep(ctx, annotated, sim.LongConfig)
		if err != nil {
			return domain.Report{}, fmt.Errorf("backtest.Backtest: %w", err)
		}
		report.Sweep = &sweep
		slog.Info("best threshold found",
			"threshold", sweep.Best.Threshold,
			"capital", sweep.Best.Capital,
			"candidates", len(sweep.Results),
		)
	}

	return report, nil
}
