package backtest

import (
	"fmt"

	"github.com/alejandrodnm/statarb/internal/domain"
)

// AssignOrders opens one long and one short leg per trigger at the current
// prices. The long leg follows the sign of the z-score and cfg; a z-score of
// exactly zero matches neither direction and produces no order.
func AssignOrders(points []domain.AnnotatedPoint, triggers []domain.Trigger, cfg domain.LongConfig) ([]domain.Order, error) {
	if !cfg.Valid() {
		return nil, fmt.Errorf("backtest.AssignOrders: %w: got %d", domain.ErrInvalidLongConfig, cfg)
	}

	orders := make([]domain.Order, 0, len(triggers))
	for _, t := range triggers {
		if t.Index < 0 || t.Index >= len(points) {
			return nil, fmt.Errorf("backtest.AssignOrders: trigger index %d out of range [0,%d)", t.Index, len(points))
		}
		p := points[t.Index]
		long, ok := longLeg(p.ZScore, cfg)
		if !ok {
			continue
		}
		orders = append(orders, domain.Order{
			Index:      t.Index,
			Long:       long,
			LongEntry:  p.Price(long),
			ShortEntry: p.Price(long.Other()),
		})
	}
	return orders, nil
}

// longLeg returns the instrument bought for a z-score under cfg.
func longLeg(z float64, cfg domain.LongConfig) (domain.Instrument, bool) {
	onPositive := domain.Instrument1
	if cfg == domain.LongConfig1 {
		onPositive = domain.Instrument2
	}
	switch {
	case z > 0:
		return onPositive, true
	case z < 0:
		return onPositive.Other(), true
	default:
		return 0, false
	}
}
