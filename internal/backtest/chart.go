package backtest

import "github.com/alejandrodnm/statarb/internal/domain"

// BuildChart extracts what a renderer needs to draw a simulation: both price
// curves normalized to their first value, the profit curves as gain over the
// baseline, and marker indices for long, short and close points.
func BuildChart(sim domain.Simulation) domain.Chart {
	n := len(sim.Rows)
	ch := domain.Chart{
		Index:      make([]int, n),
		Price1Norm: make([]float64, n),
		Price2Norm: make([]float64, n),
		Profit1:    make([]float64, n),
		Profit2:    make([]float64, n),
		Total:      make([]float64, n),
	}
	if n == 0 {
		return ch
	}

	half := sim.BaseCapital / 2
	first := sim.Rows[0]
	for i, r := range sim.Rows {
		ch.Index[i] = r.Index
		ch.Price1Norm[i] = r.Price1 / first.Price1
		ch.Price2Norm[i] = r.Price2 / first.Price2
		ch.Profit1[i] = r.Profit1 - half
		ch.Profit2[i] = r.Profit2 - half
		ch.Total[i] = r.Capital - sim.BaseCapital

		if r.Trigger {
			ch.Close = append(ch.Close, r.CloseIndex)
		}
		if !r.HasOrder {
			continue
		}
		if r.LongCoin == domain.Instrument1 {
			ch.Long1 = append(ch.Long1, r.Index)
			ch.Short2 = append(ch.Short2, r.Index)
		} else {
			ch.Long2 = append(ch.Long2, r.Index)
			ch.Short1 = append(ch.Short1, r.Index)
		}
	}
	return ch
}
