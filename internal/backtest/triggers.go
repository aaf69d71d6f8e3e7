package backtest

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/alejandrodnm/statarb/internal/domain"
)

// ValidateThreshold rejects zero, negative, NaN and infinite thresholds.
func ValidateThreshold(threshold float64) error {
	if !(threshold > 0) || math.IsInf(threshold, 0) {
		return fmt.Errorf("%w: got %v", domain.ErrInvalidThreshold, threshold)
	}
	return nil
}

// position is the per-row state of the trigger scan. A position stays open
// until the row at closeAt; while open no new trigger can fire.
type position struct {
	closeAt int // 0 = sin posición abierta
}

// step advances the scan by one row and reports whether row i opens a position.
// closeAt is the next zero crossing after i, or -1 if there is none.
func (p position) step(i int, absZ, threshold float64, closeAt int) (position, domain.Trigger, bool) {
	if absZ < threshold || closeAt < 0 {
		return p, domain.Trigger{}, false
	}
	if p.closeAt >= i {
		return p, domain.Trigger{}, false // posición abierta: se ignora la señal
	}
	return position{closeAt: closeAt}, domain.Trigger{Index: i, CloseIndex: closeAt}, true
}

// DetectTriggers scans the annotated table from row 1 and returns the rows
// where |z-score| >= threshold and no earlier position is still open.
// Row 0 is never a trigger; rows without a later zero crossing are skipped.
func DetectTriggers(points []domain.AnnotatedPoint, threshold float64) ([]domain.Trigger, error) {
	if err := ValidateThreshold(threshold); err != nil {
		return nil, fmt.Errorf("backtest.DetectTriggers: %w", err)
	}

	flips := make([]bool, len(points))
	for i, p := range points {
		flips[i] = p.SignFlip
	}
	next := nextFlips(flips)

	var (
		state    position
		triggers []domain.Trigger
	)
	for i := 1; i < len(points); i++ {
		var (
			t  domain.Trigger
			ok bool
		)
		state, t, ok = state.step(i, math.Abs(points[i].ZScore), threshold, next[i])
		if ok {
			triggers = append(triggers, t)
		}
	}

	slog.Debug("triggers detected", "threshold", threshold, "rows", len(points), "triggers", len(triggers))
	return triggers, nil
}
