package backtest

import (
	"math"
	"math/rand"

	"github.com/alejandrodnm/statarb/internal/domain"
)

// row es (price1, price2, zscore).
type row [3]float64

func points(rows ...row) []domain.PricePoint {
	out := make([]domain.PricePoint, len(rows))
	for i, r := range rows {
		out[i] = domain.PricePoint{Index: i, Price1: r[0], Price2: r[1], ZScore: r[2]}
	}
	return out
}

// scenario is the five-row table used across the core tests.
func scenario() []domain.PricePoint {
	return points(
		row{100, 50, 0.2},
		row{101, 49, 1.3},
		row{99, 52, -1.4},
		row{105, 45, 0.1},
		row{102, 48, -0.2},
	)
}

// walk genera una serie sintética reproducible: dos precios correlacionados y
// un z-score que oscila alrededor de cero.
func walk(n int, seed int64) []domain.PricePoint {
	rng := rand.New(rand.NewSource(seed))
	out := make([]domain.PricePoint, n)
	p1, p2 := 100.0, 50.0
	for i := range out {
		p1 *= 1 + rng.NormFloat64()*0.01
		p2 *= 1 + rng.NormFloat64()*0.01
		z := 2*math.Sin(float64(i)/4) + rng.NormFloat64()*0.3
		out[i] = domain.PricePoint{Index: i, Price1: p1, Price2: p2, ZScore: z}
	}
	return out
}

func mustAnnotate(pts []domain.PricePoint) []domain.AnnotatedPoint {
	a, err := Annotate(pts)
	if err != nil {
		panic(err)
	}
	return a
}
