package backtest

// optimizer.go: barrido de thresholds en paralelo.
//
// Cada candidato es independiente dado el long config fijo: los workers leen la
// tabla anotada (solo lectura) y escriben en su propio slot de resultados, así
// que no hace falta ningún lock.

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"runtime"
	"time"

	"github.com/alejandrodnm/statarb/internal/domain"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// MaxCandidates limita el tamaño de un rango de thresholds.
const MaxCandidates = 10000

// OptimizerConfig controla el barrido de thresholds.
type OptimizerConfig struct {
	Thresholds  []float64 // candidatos, en orden de enumeración
	Workers     int       // <= 0 usa runtime.NumCPU()
	BaseCapital float64
}

// DefaultThresholds returns the candidate set 1.0, 1.1, … 1.9.
func DefaultThresholds() []float64 {
	th, _ := ThresholdRange(1.0, 1.9, 0.1)
	return th
}

// ThresholdRange enumerates min, min+step, … up to and including max. The
// arithmetic is decimal so the candidates carry no accumulated float error.
func ThresholdRange(min, max, step float64) ([]float64, error) {
	if err := ValidateThreshold(min); err != nil {
		return nil, fmt.Errorf("backtest.ThresholdRange: min: %w", err)
	}
	if !(step > 0) || math.IsInf(step, 0) {
		return nil, fmt.Errorf("backtest.ThresholdRange: step must be finite and > 0, got %v", step)
	}
	if math.IsNaN(max) || math.IsInf(max, 0) {
		return nil, fmt.Errorf("backtest.ThresholdRange: max must be finite, got %v", max)
	}
	if max < min {
		return nil, fmt.Errorf("backtest.ThresholdRange: max %v < min %v", max, min)
	}

	lo := decimal.NewFromFloat(min)
	hi := decimal.NewFromFloat(max)
	st := decimal.NewFromFloat(step)

	// floor((max-min)/step) + 1 candidatos
	if hi.Sub(lo).Div(st).GreaterThanOrEqual(decimal.NewFromInt(MaxCandidates)) {
		return nil, fmt.Errorf("backtest.ThresholdRange: more than %d candidates in [%v, %v] step %v",
			MaxCandidates, min, max, step)
	}

	var out []float64
	for v := lo; v.LessThanOrEqual(hi); v = v.Add(st) {
		out = append(out, v.InexactFloat64())
	}
	return out, nil
}

// Optimizer re-runs trigger detection, order assignment and simulation for
// every candidate threshold and keeps the one with the highest terminal capital.
type Optimizer struct {
	cfg      OptimizerConfig
	progress *rate.Sometimes
}

// NewOptimizer crea un Optimizer. Un set de candidatos vacío usa DefaultThresholds.
func NewOptimizer(cfg OptimizerConfig) *Optimizer {
	if len(cfg.Thresholds) == 0 {
		cfg.Thresholds = DefaultThresholds()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.BaseCapital <= 0 {
		cfg.BaseCapital = DefaultBaseCapital
	}
	return &Optimizer{
		cfg:      cfg,
		progress: &rate.Sometimes{First: 3, Interval: 2 * time.Second},
	}
}

// Thresholds returns the candidate set in enumeration order.
func (o *Optimizer) Thresholds() []float64 {
	return append([]float64(nil), o.cfg.Thresholds...)
}

// Sweep evaluates every candidate with the given long configuration. The best
// result is the highest terminal capital; ties go to the earliest candidate.
func (o *Optimizer) Sweep(ctx context.Context, points []domain.AnnotatedPoint, long domain.LongConfig) (domain.SweepResult, error) {
	if !long.Valid() {
		return domain.SweepResult{}, fmt.Errorf("backtest.Sweep: %w: got %d", domain.ErrInvalidLongConfig, long)
	}

	candidates := o.cfg.Thresholds
	results := make([]domain.ThresholdResult, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.Workers)

	for i, th := range candidates {
		i, th := i, th
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := o.evaluate(points, th, long)
			if err != nil {
				return fmt.Errorf("threshold %v: %w", th, err)
			}
			results[i] = res

			o.progress.Do(func() {
				slog.Info("sweep progress",
					"threshold", th,
					"capital", res.Capital,
					"trades", res.Trades,
				)
			})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return domain.SweepResult{}, fmt.Errorf("backtest.Sweep: %w", err)
	}

	sweep := domain.SweepResult{
		LongConfig: long,
		Results:    results,
		BestIndex:  domain.BestIndex(results),
	}
	if sweep.BestIndex >= 0 {
		sweep.Best = results[sweep.BestIndex]
	}
	return sweep, nil
}

// evaluate runs the full pipeline for one threshold.
func (o *Optimizer) evaluate(points []domain.AnnotatedPoint, threshold float64, long domain.LongConfig) (domain.ThresholdResult, error) {
	triggers, err := DetectTriggers(points, threshold)
	if err != nil {
		return domain.ThresholdResult{}, err
	}
	sim, err := simulateWith(points, triggers, threshold, long, o.cfg.BaseCapital)
	if err != nil {
		return domain.ThresholdResult{}, err
	}
	return domain.ThresholdResult{
		Threshold: threshold,
		Capital:   sim.Terminal().Capital,
		Trades:    sim.Trades,
	}, nil
}
