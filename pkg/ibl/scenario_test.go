package ibl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestScenarioTwoOptionDefaultConverges reproduces spec §8 end-to-end
// scenario 1: with default_utility=10, noise=0.25, decay=0.5, "A" pays 1
// and "B" pays -2; over many resets "A" should be selected in the large
// majority of trials once each participant has accumulated a few rounds.
func TestScenarioTwoOptionDefaultConverges(t *testing.T) {
	a, err := NewAgent("p", nil, WithSeed(7), WithDefaultUtility(10))
	require.NoError(t, err)

	const participants = 300
	const rounds = 20
	chosenA := 0
	for p := 0; p < participants; p++ {
		a.Reset(false)
		var lastChoice any
		for r := 0; r < rounds; r++ {
			choice, err := a.Choose("A", "B")
			require.NoError(t, err)
			lastChoice = choice
			if choice == "A" {
				require.NoError(t, a.Respond(1))
			} else {
				require.NoError(t, a.Respond(-2))
			}
		}
		if lastChoice == "A" {
			chosenA++
		}
	}

	assert.Greater(t, float64(chosenA)/float64(participants), 0.8)
}

// TestScenarioResetPreservation reproduces spec §8 end-to-end scenario
// 6: populate(5, A); choose/respond; reset(preserve_prepopulated=True)
// leaves only the A chunk at time 0.
func TestScenarioResetPreservation(t *testing.T) {
	a, err := NewAgent("p", nil, WithDefaultUtility(1))
	require.NoError(t, err)

	require.NoError(t, a.Populate(5, "A"))
	_, err = a.Choose("A", "B")
	require.NoError(t, err)
	require.NoError(t, a.Respond(1))

	a.Reset(true)

	instances := a.Instances()
	require.Len(t, instances, 1)
	assert.Equal(t, "A", instances[0].Attrs[0].Value)
	assert.Equal(t, 5.0, instances[0].Utility)
	assert.Equal(t, []int64{0}, instances[0].References)
}
