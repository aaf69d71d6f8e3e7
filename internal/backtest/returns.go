package backtest

import (
	"log/slog"

	"github.com/alejandrodnm/statarb/internal/domain"
)

// Simulate walks the table in index order and compounds the ledger at every
// row that carries an order. Row 0 keeps the baseline. At an order the capital
// is split evenly between both legs and recombined with each leg's return:
//
//	capital = capital/2 * returnLong + capital/2 * returnShort
//
// Rows without an order carry the previous ledger forward unchanged.
func Simulate(points []domain.AnnotatedPoint, triggers []domain.Trigger, orders []domain.Order, baseCapital float64) domain.Simulation {
	closeAt := make(map[int]int, len(triggers))
	for _, t := range triggers {
		closeAt[t.Index] = t.CloseIndex
	}
	byIndex := make(map[int]domain.Order, len(orders))
	for _, o := range orders {
		byIndex[o.Index] = o
	}

	sim := domain.Simulation{
		BaseCapital: baseCapital,
		Rows:        make([]domain.SimulatedRow, len(points)),
	}

	ledger := domain.NewLedger(baseCapital)
	for i, p := range points {
		row := domain.SimulatedRow{
			AnnotatedPoint: p,
			ReturnLong:     1,
			ReturnShort:    1,
		}
		if c, ok := closeAt[i]; ok {
			row.Trigger = true
			row.CloseIndex = c
		}
		if o, ok := byIndex[i]; ok && i > 0 {
			row.HasOrder = true
			row.LongCoin = o.Long
			setEntries(&row, o)
			ledger, row.ReturnLong, row.ReturnShort = applyOrder(ledger, o, p)
			sim.Trades++
		}
		row.Ledger = ledger
		sim.Rows[i] = row
	}

	slog.Debug("returns simulated",
		"rows", len(points),
		"trades", sim.Trades,
		"capital", ledger.Capital,
	)
	return sim
}

// applyOrder realizes one paired trade on the ledger and returns the per-leg returns.
func applyOrder(l domain.Ledger, o domain.Order, p domain.AnnotatedPoint) (domain.Ledger, float64, float64) {
	returnLong := p.NextPrice(o.Long) / o.LongEntry
	returnShort := o.ShortEntry / p.NextPrice(o.Short())

	next := l
	next.Capital = (l.Capital/2)*returnLong + (l.Capital/2)*returnShort
	if o.Long == domain.Instrument1 {
		next.Profit1 = l.Profit1 * returnLong
		next.Profit2 = l.Profit2 * returnShort
	} else {
		next.Profit1 = l.Profit1 * returnShort
		next.Profit2 = l.Profit2 * returnLong
	}
	return next, returnLong, returnShort
}

func setEntries(row *domain.SimulatedRow, o domain.Order) {
	if o.Long == domain.Instrument1 {
		row.LongAt1 = o.LongEntry
		row.ShortAt2 = o.ShortEntry
		return
	}
	row.LongAt2 = o.LongEntry
	row.ShortAt1 = o.ShortEntry
}

// simulateWith runs AssignOrders and Simulate for one configuration.
func simulateWith(points []domain.AnnotatedPoint, triggers []domain.Trigger, threshold float64, cfg domain.LongConfig, baseCapital float64) (domain.Simulation, error) {
	orders, err := AssignOrders(points, triggers, cfg)
	if err != nil {
		return domain.Simulation{}, err
	}
	sim := Simulate(points, triggers, orders, baseCapital)
	sim.Threshold = threshold
	sim.LongConfig = cfg
	return sim, nil
}
