package notify_test

import (
	"bytes"
	"context"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/alejandrodnm/statarb/internal/adapters/notify"
	"github.com/alejandrodnm/statarb/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeReport(sweep bool) domain.Report {
	r := domain.Report{
		RunID:       "0f8fad5b-d9cb-469f-a165-70867728950e",
		Symbol1:     "BTCUSDT",
		Symbol2:     "ETHUSDT",
		InputRows:   5,
		DroppedTail: 1,
		Simulation: domain.Simulation{
			Threshold:   1.1,
			LongConfig:  domain.LongConfig1,
			BaseCapital: 1000,
			Trades:      1,
			Rows: []domain.SimulatedRow{
				{Ledger: domain.NewLedger(1000)},
				{Ledger: domain.Ledger{Capital: 1040.71, Profit1: 510.1, Profit2: 530.61}},
			},
		},
		Chart: domain.Chart{Long2: []int{1}, Short1: []int{1}, Close: []int{2}},
	}
	if sweep {
		r.Sweep = &domain.SweepResult{
			LongConfig: domain.LongConfig1,
			Results: []domain.ThresholdResult{
				{Threshold: 1.0, Capital: 1040.71, Trades: 1},
				{Threshold: 1.4, Capital: 1108.08, Trades: 1},
			},
			Best:      domain.ThresholdResult{Threshold: 1.4, Capital: 1108.08, Trades: 1},
			BestIndex: 1,
		}
	}
	return r
}

func TestConsole_NotifyCompact(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, false)

	require.NoError(t, n.Notify(context.Background(), makeReport(true)))

	out := buf.String()
	assert.Contains(t, out, "BTCUSDT/ETHUSDT")
	assert.Contains(t, out, "capital=104.1%")
	assert.Contains(t, out, "BTCUSDT 102.0%")
	assert.Contains(t, out, "ETHUSDT 106.1%")
	assert.Contains(t, out, "best=1.4")
}

func TestConsole_NotifyFullTable(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, true)

	require.NoError(t, n.Notify(context.Background(), makeReport(true)))

	out := buf.String()
	assert.Contains(t, out, "Total Capital")
	assert.Contains(t, out, "104.1")
	assert.Contains(t, out, "Best z-score threshold")
	assert.Contains(t, out, "Threshold sweep")
	assert.Contains(t, out, "1108.08")
	assert.Contains(t, out, "10.8%")
	assert.Contains(t, out, "ETHUSDT (config 1)")
	assert.Contains(t, out, "Markers")
}

func TestConsole_NotifyNoTrades(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, true)

	r := makeReport(false)
	r.Chart = domain.Chart{}
	require.NoError(t, n.Notify(context.Background(), r))

	out := buf.String()
	assert.Contains(t, out, "No trades at this threshold")
	assert.NotContains(t, out, "Threshold sweep")
}

func TestConsole_PrintHistory(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, true)

	best := 1.4
	require.NoError(t, n.PrintHistory([]domain.RunSummary{{
		RunID:         "0f8fad5b-d9cb-469f-a165-70867728950e",
		CreatedAt:     time.Now(),
		Symbol1:       "BTCUSDT",
		Symbol2:       "ETHUSDT",
		Threshold:     1.1,
		Trades:        3,
		Capital:       1040.71,
		BestThreshold: &best,
	}}))

	out := buf.String()
	assert.Contains(t, out, "0f8fad5b")
	assert.Contains(t, out, "BTCUSDT/ETHUSDT")
	assert.Contains(t, out, "1040.71")
}

func TestConsole_PrintHistoryEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, notify.NewConsoleWriter(&buf, false).PrintHistory(nil))
	assert.Contains(t, buf.String(), "No backtests stored yet")
}

func TestConsole_NotifyNonFiniteCapital(t *testing.T) {
	r := makeReport(false)
	r.Simulation.Rows[1].Ledger = domain.Ledger{Capital: math.Inf(1), Profit1: math.Inf(1), Profit2: math.NaN()}

	for _, full := range []bool{false, true} {
		var buf bytes.Buffer
		n := notify.NewConsoleWriter(&buf, full)
		assert.NotPanics(t, func() {
			require.NoError(t, n.Notify(context.Background(), r))
		})
		assert.Contains(t, buf.String(), "+Inf")
	}
}

func TestConsole_PrintStoredSweepMarksOneWinner(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, true)

	run := domain.RunSummary{RunID: "0f8fad5b-d9cb", Symbol1: "BTCUSDT", Symbol2: "ETHUSDT", BaseCapital: 1000}
	require.NoError(t, n.PrintStoredSweep(run, []domain.ThresholdResult{
		{Threshold: 1.2, Capital: 1050, Trades: 2},
		{Threshold: 1.2, Capital: 1050, Trades: 2},
		{Threshold: 1.5, Capital: 990, Trades: 1},
	}))

	out := buf.String()
	assert.Equal(t, 1, strings.Count(out, "*"))
	assert.Contains(t, out, "5.0%")
}

func TestConsole_PrintStoredSweepEmpty(t *testing.T) {
	var buf bytes.Buffer
	n := notify.NewConsoleWriter(&buf, true)
	require.NoError(t, n.PrintStoredSweep(domain.RunSummary{RunID: "abc"}, nil))
	assert.Contains(t, buf.String(), "no stored sweep")
}
