package backtest

import (
	"log/slog"

	"github.com/alejandrodnm/statarb/internal/domain"
)

// SelectStrategy simulates both long configurations over the same triggers and
// returns the one with the higher terminal capital. Configuration 1 only wins
// on strictly greater capital, so a tie keeps configuration 0.
func SelectStrategy(points []domain.AnnotatedPoint, triggers []domain.Trigger, threshold, baseCapital float64) (domain.Simulation, error) {
	sim0, err := simulateWith(points, triggers, threshold, domain.LongConfig0, baseCapital)
	if err != nil {
		return domain.Simulation{}, err
	}
	sim1, err := simulateWith(points, triggers, threshold, domain.LongConfig1, baseCapital)
	if err != nil {
		return domain.Simulation{}, err
	}

	c0, c1 := sim0.Terminal().Capital, sim1.Terminal().Capital
	winner := sim0
	if c1 > c0 {
		winner = sim1
	}

	slog.Debug("long config selected",
		"capital_0", c0,
		"capital_1", c1,
		"long_config", int(winner.LongConfig),
	)
	return winner, nil
}
