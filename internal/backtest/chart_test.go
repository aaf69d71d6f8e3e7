package backtest

import (
	"testing"

	"github.com/alejandrodnm/statarb/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildChart_Scenario(t *testing.T) {
	a := mustAnnotate(scenario())
	tr, err := DetectTriggers(a, 1.1)
	require.NoError(t, err)
	sim, err := SelectStrategy(a, tr, 1.1, 1000)
	require.NoError(t, err)
	require.Equal(t, domain.LongConfig1, sim.LongConfig)

	ch := BuildChart(sim)
	assert.Equal(t, []int{0, 1, 2, 3}, ch.Index)
	assert.Equal(t, 1.0, ch.Price1Norm[0])
	assert.Equal(t, 101.0/100.0, ch.Price1Norm[1])
	assert.Equal(t, 49.0/50.0, ch.Price2Norm[1])

	assert.Equal(t, []int{1}, ch.Long2)
	assert.Equal(t, []int{1}, ch.Short1)
	assert.Empty(t, ch.Long1)
	assert.Empty(t, ch.Short2)
	assert.Equal(t, []int{2}, ch.Close)

	assert.Zero(t, ch.Total[0])
	assert.Equal(t, sim.Terminal().Capital-1000, ch.Total[3])
	assert.Equal(t, sim.Terminal().Profit2-500, ch.Profit2[3])
}

func TestBuildChart_Empty(t *testing.T) {
	ch := BuildChart(domain.Simulation{BaseCapital: 1000})
	assert.Empty(t, ch.Index)
	assert.Empty(t, ch.Close)
}
