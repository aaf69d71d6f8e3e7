package backtest

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/alejandrodnm/statarb/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockLoader struct {
	series domain.Series
	err    error
}

func (m *mockLoader) LoadSeries(_ context.Context) (domain.Series, error) {
	return m.series, m.err
}

type mockStorage struct {
	saved []domain.Report
	err   error
}

func (m *mockStorage) SaveRun(_ context.Context, r domain.Report) error {
	m.saved = append(m.saved, r)
	return m.err
}

func (m *mockStorage) ListRuns(context.Context, int) ([]domain.RunSummary, error) { return nil, nil }

func (m *mockStorage) GetSweep(context.Context, string) ([]domain.ThresholdResult, error) {
	return nil, nil
}

func (m *mockStorage) Close() error { return nil }

type mockNotifier struct {
	reports []domain.Report
}

func (m *mockNotifier) Notify(_ context.Context, r domain.Report) error {
	m.reports = append(m.reports, r)
	return errors.New("terminal closed")
}

type mockTable struct {
	written int
}

func (m *mockTable) WriteSimulation(context.Context, string, string, domain.Simulation) error {
	m.written++
	return nil
}

func scenarioSeries() domain.Series {
	return domain.Series{Symbol1: "BTCUSDT", Symbol2: "ETHUSDT", Source: "mem", Points: scenario()}
}

func TestEngine_Run(t *testing.T) {
	store := &mockStorage{}
	table := &mockTable{}
	notifier := &mockNotifier{}
	e := New(DefaultConfig(), &mockLoader{series: scenarioSeries()}, store, table, notifier)

	report, err := e.Run(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, "BTCUSDT", report.Symbol1)
	assert.Equal(t, 5, report.InputRows)
	assert.Equal(t, 0, report.DroppedMissing)
	assert.Equal(t, 1, report.DroppedTail)
	assert.Equal(t, domain.LongConfig1, report.Simulation.LongConfig)
	assert.Equal(t, 1, report.Simulation.Trades)

	best, ok := report.BestThreshold()
	require.True(t, ok)
	assert.Equal(t, 1.4, best)
	assert.Equal(t, domain.LongConfig1, report.Sweep.LongConfig)

	// los fallos de notificación no abortan el run
	require.Len(t, store.saved, 1)
	assert.Equal(t, report.RunID, store.saved[0].RunID)
	assert.Equal(t, 1, table.written)
	assert.Len(t, notifier.reports, 1)
}

func TestEngine_RunWithoutSweep(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FindBest = false
	e := New(cfg, &mockLoader{series: scenarioSeries()}, nil, nil, nil)

	report, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.Nil(t, report.Sweep)
	_, ok := report.BestThreshold()
	assert.False(t, ok)
}

func TestEngine_LoadError(t *testing.T) {
	e := New(DefaultConfig(), &mockLoader{err: errors.New("no such file")}, nil, nil, nil)
	_, err := e.Run(context.Background())
	assert.ErrorContains(t, err, "no such file")
}

func TestEngine_DropsMissingRows(t *testing.T) {
	s := scenarioSeries()
	pts := append([]domain.PricePoint{{Price1: 100, Price2: 50, ZScore: math.NaN()}}, s.Points...)
	s.Points = pts

	cfg := DefaultConfig()
	cfg.FindBest = false
	report, err := New(cfg, nil, nil, nil, nil).Backtest(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, 6, report.InputRows)
	assert.Equal(t, 1, report.DroppedMissing)
	assert.Len(t, report.Simulation.Rows, 4)
	assert.Equal(t, 0, report.Simulation.Rows[0].Index)
}

func TestEngine_InsufficientData(t *testing.T) {
	s := domain.Series{Points: points(row{1, 1, 1}, row{math.NaN(), 1, 1})}
	_, err := New(DefaultConfig(), nil, nil, nil, nil).Backtest(context.Background(), s)

	var ide *domain.InsufficientDataError
	require.True(t, errors.As(err, &ide))
	assert.Equal(t, 1, ide.Rows)

	_, err = New(DefaultConfig(), nil, nil, nil, nil).Backtest(context.Background(), domain.Series{})
	assert.True(t, errors.As(err, &ide))
}

func TestEngine_InvalidThreshold(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Threshold = 0
	_, err := New(cfg, nil, nil, nil, nil).Backtest(context.Background(), scenarioSeries())
	assert.True(t, errors.Is(err, domain.ErrInvalidThreshold))
}

func TestEngine_Deterministic(t *testing.T) {
	s := domain.Series{Symbol1: "A", Symbol2: "B", Points: walk(1200, 99)}
	e := New(DefaultConfig(), nil, nil, nil, nil)

	r1, err := e.Backtest(context.Background(), s)
	require.NoError(t, err)
	r2, err := e.Backtest(context.Background(), s)
	require.NoError(t, err)

	assert.Equal(t, r1.Simulation, r2.Simulation)
	assert.Equal(t, r1.Sweep, r2.Sweep)
	assert.NotEqual(t, r1.RunID, r2.RunID)
}

func TestEngine_ZeroPriceRowIsDropped(t *testing.T) {
	s := scenarioSeries()
	s.Points[2].Price1, s.Points[2].Price2 = 0, 0

	report, err := New(DefaultConfig(), nil, nil, nil, nil).Backtest(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, 1, report.DroppedMissing)

	capital := report.Simulation.Terminal().Capital
	assert.False(t, math.IsInf(capital, 0) || math.IsNaN(capital))
	for _, r := range report.Sweep.Results {
		assert.False(t, math.IsInf(r.Capital, 0) || math.IsNaN(r.Capital))
	}
}
