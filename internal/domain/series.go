package domain

import "math"

// Instrument identifies one of the two legs of a pair. The zero value is the
// first instrument (first price column of the input table).
type Instrument int

const (
	Instrument1 Instrument = 0
	Instrument2 Instrument = 1
)

// Other returns the opposite leg.
func (i Instrument) Other() Instrument {
	if i == Instrument1 {
		return Instrument2
	}
	return Instrument1
}

// String devuelve "sym1" o "sym2".
func (i Instrument) String() string {
	if i == Instrument1 {
		return "sym1"
	}
	return "sym2"
}

// PricePoint is one time step of the synchronized price history.
type PricePoint struct {
	Index  int
	Price1 float64
	Price2 float64
	ZScore float64
}

// Price returns the price of the given instrument at this step.
func (p PricePoint) Price(i Instrument) float64 {
	if i == Instrument1 {
		return p.Price1
	}
	return p.Price2
}

// Complete reports whether every required field holds a usable number: finite
// values and strictly positive prices.
func (p PricePoint) Complete() bool {
	return finite(p.Price1) && finite(p.Price2) && finite(p.ZScore) &&
		p.Price1 > 0 && p.Price2 > 0
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Series is the price+z-score table for a pair, in time order.
type Series struct {
	Symbol1 string
	Symbol2 string
	Source  string // file path or other origin, for reporting only
	Points  []PricePoint
}

// Len returns the number of rows.
func (s Series) Len() int { return len(s.Points) }

// AnnotatedPoint is a PricePoint plus the zero-crossing annotation: whether the
// z-score changed sign at this step and the prices at the next step that does.
type AnnotatedPoint struct {
	PricePoint
	SignFlip   bool
	NextPrice1 float64
	NextPrice2 float64
}

// NextPrice returns the price of the instrument at the next zero crossing.
func (a AnnotatedPoint) NextPrice(i Instrument) float64 {
	if i == Instrument1 {
		return a.NextPrice1
	}
	return a.NextPrice2
}
