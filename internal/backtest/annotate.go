package backtest

// annotate.go: detección de cruces por cero del z-score.
//
// Regla de signo: sign(0) es su propia clase (-1, 0, +1). Un cruce en la fila i
// es sign(z[i]) != sign(z[i-1]); la fila 0 nunca es un cruce. Así 0.5 → 0 y
// 0 → -0.3 cuentan ambos como cruce.

import (
	"log/slog"

	"github.com/alejandrodnm/statarb/internal/domain"
)

// DropIncomplete removes rows with a NaN or infinite field or a price that is not
// strictly positive, and re-indexes the remainder contiguously from 0. It returns the number dropped.
func DropIncomplete(points []domain.PricePoint) ([]domain.PricePoint, int) {
	out := make([]domain.PricePoint, 0, len(points))
	for _, p := range points {
		if !p.Complete() {
			continue
		}
		p.Index = len(out)
		out = append(out, p)
	}
	return out, len(points) - len(out)
}

// Annotate marks every sign flip of the z-score and attaches to each row the
// prices at the nearest later flip. Rows after the last flip have no such
// prices and are dropped, so the result is always a prefix of the input.
func Annotate(points []domain.PricePoint) ([]domain.AnnotatedPoint, error) {
	if len(points) < 2 {
		return nil, &domain.InsufficientDataError{Stage: "annotate", Rows: len(points), Need: 2}
	}

	flips := make([]bool, len(points))
	for i := 1; i < len(points); i++ {
		flips[i] = sign(points[i].ZScore) != sign(points[i-1].ZScore)
	}
	next := nextFlips(flips)

	out := make([]domain.AnnotatedPoint, 0, len(points))
	for i, p := range points {
		j := next[i]
		if j < 0 {
			break // desde aquí no hay más cruces: cola descartada
		}
		p.Index = i
		out = append(out, domain.AnnotatedPoint{
			PricePoint: p,
			SignFlip:   flips[i],
			NextPrice1: points[j].Price1,
			NextPrice2: points[j].Price2,
		})
	}

	if len(out) == 0 {
		return nil, &domain.InsufficientDataError{Stage: "annotate", Rows: 0, Need: 1}
	}

	slog.Debug("zero crossings annotated",
		"rows_in", len(points),
		"rows_out", len(out),
		"dropped_tail", len(points)-len(out),
	)
	return out, nil
}

// nextFlips returns, for each i, the smallest j > i with flips[j], or -1.
func nextFlips(flips []bool) []int {
	next := make([]int, len(flips))
	j := -1
	for i := len(flips) - 1; i >= 0; i-- {
		next[i] = j
		if flips[i] {
			j = i
		}
	}
	return next
}

func sign(z float64) int {
	switch {
	case z > 0:
		return 1
	case z < 0:
		return -1
	default:
		return 0
	}
}
