package domain

import (
	"time"
)

// Trigger is a step where a position opens. CloseIndex is the next zero
// crossing strictly after Index, where the position closes.
type Trigger struct {
	Index      int
	CloseIndex int
}

// LongConfig selects which instrument is bought when the z-score is positive.
// With LongConfig0 a positive z-score buys instrument 1 and shorts instrument 2;
// LongConfig1 mirrors it.
type LongConfig int

const (
	LongConfig0 LongConfig = 0
	LongConfig1 LongConfig = 1
)

// Valid reports whether c is one of the two defined configurations.
func (c LongConfig) Valid() bool {
	return c == LongConfig0 || c == LongConfig1
}

// Order is the pair of legs opened at a trigger.
type Order struct {
	Index      int
	Long       Instrument
	LongEntry  float64 // price of Long at Index
	ShortEntry float64 // price of Long.Other() at Index
}

// Short returns the instrument sold in this order.
func (o Order) Short() Instrument { return o.Long.Other() }

// Ledger is the running simulation state: total capital plus the notional
// profit tracked per instrument.
type Ledger struct {
	Capital float64
	Profit1 float64
	Profit2 float64
}

// NewLedger splits the baseline capital evenly between the two instruments.
func NewLedger(baseCapital float64) Ledger {
	return Ledger{
		Capital: baseCapital,
		Profit1: baseCapital / 2,
		Profit2: baseCapital / 2,
	}
}

// Profit returns the profit tracked for one instrument.
func (l Ledger) Profit(i Instrument) float64 {
	if i == Instrument1 {
		return l.Profit1
	}
	return l.Profit2
}

// SimulatedRow is one row of the simulated table: the annotated point, the
// trigger and order columns, and the ledger after the row was applied.
type SimulatedRow struct {
	AnnotatedPoint

	Trigger    bool
	CloseIndex int // 0 when Trigger is false

	HasOrder    bool
	LongCoin    Instrument
	LongAt1     float64
	ShortAt1    float64
	LongAt2     float64
	ShortAt2    float64
	ReturnLong  float64
	ReturnShort float64

	Ledger
}

// Simulation is the full simulated table for one threshold and long configuration.
type Simulation struct {
	Threshold   float64
	LongConfig  LongConfig
	BaseCapital float64
	Rows        []SimulatedRow
	Trades      int
}

// Terminal returns the ledger of the last row, or the baseline for an empty table.
func (s Simulation) Terminal() Ledger {
	if len(s.Rows) == 0 {
		return NewLedger(s.BaseCapital)
	}
	return s.Rows[len(s.Rows)-1].Ledger
}

// ThresholdResult is the outcome of one candidate in a threshold sweep.
type ThresholdResult struct {
	Threshold float64
	Capital   float64
	Trades    int
}

// SweepResult holds every candidate in enumeration order plus the winner.
// BestIndex is the winner's position in Results.
type SweepResult struct {
	LongConfig LongConfig
	Results    []ThresholdResult
	Best       ThresholdResult
	BestIndex  int
}

// BestIndex returns the position of the highest capital in results, the
// earliest one on ties, or -1 for an empty slice.
func BestIndex(results []ThresholdResult) int {
	best := -1
	for i, r := range results {
		if best < 0 || r.Capital > results[best].Capital {
			best = i
		}
	}
	return best
}

// Report is everything a run produces for the caller, the notifier and storage.
type Report struct {
	RunID     string
	CreatedAt time.Time
	Source    string
	Symbol1   string
	Symbol2   string

	InputRows      int
	DroppedMissing int // rows removed for NaN/missing fields
	DroppedTail    int // trailing rows with no future zero crossing

	Simulation Simulation
	Chart      Chart
	Sweep      *SweepResult // nil when the sweep was not requested
}

// CapitalPct devuelve el capital final como porcentaje del baseline.
func (r Report) CapitalPct() float64 {
	return pctOf(r.Simulation.Terminal().Capital, r.Simulation.BaseCapital)
}

// ProfitPct returns the terminal profit of an instrument as a percentage of its
// half of the baseline.
func (r Report) ProfitPct(i Instrument) float64 {
	return pctOf(r.Simulation.Terminal().Profit(i), r.Simulation.BaseCapital/2)
}

// BestThreshold returns the sweep winner and whether a sweep was run.
func (r Report) BestThreshold() (float64, bool) {
	if r.Sweep == nil {
		return 0, false
	}
	return r.Sweep.Best.Threshold, true
}

func pctOf(v, base float64) float64 {
	if base == 0 {
		return 0
	}
	return v / base * 100
}

// RunSummary is the persisted headline of a past run.
type RunSummary struct {
	RunID         string
	CreatedAt     time.Time
	Source        string
	Symbol1       string
	Symbol2       string
	Threshold     float64
	LongConfig    LongConfig
	Rows          int
	Trades        int
	BaseCapital   float64
	Capital       float64
	Profit1       float64
	Profit2       float64
	BestThreshold *float64
}

// Chart contains the series a renderer needs to draw a run: normalized price
// curves, profit curves relative to baseline, and marker indices.
type Chart struct {
	Index []int

	Price1Norm []float64
	Price2Norm []float64

	Profit1 []float64
	Profit2 []float64
	Total   []float64

	Long1  []int
	Short1 []int
	Long2  []int
	Short2 []int
	Close  []int
}
