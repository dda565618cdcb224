package blend

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSingleCandidateYieldsItsUtility(t *testing.T) {
	res, err := Compute([]Candidate{{Utility: 7, Activation: 3}}, 1)
	require.NoError(t, err)
	assert.Equal(t, 7.0, res.Value)
	assert.Equal(t, []float64{1}, res.Probabilities)
}

func TestProbabilitiesNormalize(t *testing.T) {
	res, err := Compute([]Candidate{
		{Utility: 1, Activation: 0.5},
		{Utility: 2, Activation: 1.5},
		{Utility: 3, Activation: -2},
	}, 0.8)
	require.NoError(t, err)

	var sum float64
	for _, p := range res.Probabilities {
		sum += p
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestEqualActivationsYieldUniformWeighting(t *testing.T) {
	res, err := Compute([]Candidate{
		{Utility: 0, Activation: 2},
		{Utility: 10, Activation: 2},
	}, 1)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, res.Value, 1e-9)
	assert.InDelta(t, 0.5, res.Probabilities[0], 1e-9)
}

func TestNoCandidatesErrors(t *testing.T) {
	_, err := Compute(nil, 1)
	assert.ErrorIs(t, err, ErrNoCandidates)
}

func TestNonPositiveTemperatureErrors(t *testing.T) {
	_, err := Compute([]Candidate{{Utility: 1, Activation: 1}}, 0)
	assert.ErrorIs(t, err, ErrTemperature)
}

func TestLargeActivationsDoNotOverflow(t *testing.T) {
	res, err := Compute([]Candidate{
		{Utility: 1, Activation: 1000},
		{Utility: 2, Activation: 1000.0001},
	}, 0.001)
	require.NoError(t, err)
	assert.False(t, math.IsNaN(res.Value))
	assert.False(t, math.IsInf(res.Value, 0))
}
