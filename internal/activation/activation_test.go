package activation

import (
	"math"
	"testing"

	"golang.org/x/exp/rand"

	"github.com/rogerlew/goibl/internal/instance"
	"github.com/rogerlew/goibl/internal/simreg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chunkWithRefs(refs ...int64) *instance.Chunk {
	return &instance.Chunk{
		ID:         1,
		Attrs:      instance.Tuple{{Name: "n", Value: 1}},
		Utility:    5,
		Created:    refs[0],
		References: refs,
	}
}

func TestBaseLevelZeroDecayIsLogCount(t *testing.T) {
	c := chunkWithRefs(1, 2, 3)
	res, ok := Compute(c, instance.Tuple{{Name: "n", Value: 1}}, 10, Params{Decay: 0}, rand.New(rand.NewSource(1)))
	require.True(t, ok)
	assert.InDelta(t, math.Log(3), res.Base, 1e-9)
}

func TestBaseLevelSingleReference(t *testing.T) {
	c := chunkWithRefs(4)
	res, ok := Compute(c, instance.Tuple{{Name: "n", Value: 1}}, 10, Params{Decay: 0.5}, rand.New(rand.NewSource(1)))
	require.True(t, ok)
	// ln((10-4)^-0.5) = -0.5*ln(6)
	assert.InDelta(t, -0.5*math.Log(6), res.Base, 1e-9)
}

func TestExcludedWhenNoStrictlyPastReference(t *testing.T) {
	c := chunkWithRefs(10)
	_, ok := Compute(c, instance.Tuple{{Name: "n", Value: 1}}, 10, Params{Decay: 0.5}, rand.New(rand.NewSource(1)))
	assert.False(t, ok)
}

func TestExactMatchPrefilterExcludesMismatch(t *testing.T) {
	c := chunkWithRefs(1)
	_, ok := Compute(c, instance.Tuple{{Name: "n", Value: 2}}, 10, Params{Decay: 0.5}, rand.New(rand.NewSource(1)))
	assert.False(t, ok)
}

func TestNoiseIsZeroWhenNoiseParamZero(t *testing.T) {
	c := chunkWithRefs(1)
	res, ok := Compute(c, instance.Tuple{{Name: "n", Value: 1}}, 10, Params{Decay: 0.5, Noise: 0}, rand.New(rand.NewSource(1)))
	require.True(t, ok)
	assert.Equal(t, 0.0, res.Noise)
}

func TestOptimizedLearningMatchesExactWithinTolerance(t *testing.T) {
	refs := []int64{1, 2, 3, 4, 5}
	exact := chunkWithRefs(refs...)
	exactRes, ok := Compute(exact, instance.Tuple{{Name: "n", Value: 1}}, 10, Params{Decay: 0.5}, rand.New(rand.NewSource(1)))
	require.True(t, ok)

	optimized := &instance.Chunk{
		ID:        2,
		Attrs:     instance.Tuple{{Name: "n", Value: 1}},
		Utility:   5,
		Created:   1,
		Count:     int64(len(refs)),
		Optimized: true,
	}
	optimizedRes, ok := Compute(optimized, instance.Tuple{{Name: "n", Value: 1}}, 10, Params{Decay: 0.5, OptimizedLearning: true}, rand.New(rand.NewSource(1)))
	require.True(t, ok)

	assert.InEpsilon(t, math.Abs(exactRes.Base), math.Abs(optimizedRes.Base), 0.05)
}

func TestPartialMatchingWithZeroPenaltyStillMatchesOnMismatch(t *testing.T) {
	simreg.Clear()
	defer simreg.Clear()
	require.NoError(t, simreg.Set("n", simreg.LinearOnMax(10), 1))

	c := chunkWithRefs(1)
	mu := 0.0
	res, ok := Compute(c, instance.Tuple{{Name: "n", Value: 2}}, 10, Params{Decay: 0.5, MismatchPenalty: &mu}, rand.New(rand.NewSource(1)))
	require.True(t, ok)
	assert.Equal(t, 0.0, res.Partial)
}

func TestPartialMatchingAppliesPenalty(t *testing.T) {
	simreg.Clear()
	defer simreg.Clear()
	require.NoError(t, simreg.Set("n", simreg.LinearOnMax(10), 1))

	c := chunkWithRefs(1)
	mu := 30.0
	res, ok := Compute(c, instance.Tuple{{Name: "n", Value: 3}}, 10, Params{Decay: 0.5, MismatchPenalty: &mu}, rand.New(rand.NewSource(1)))
	require.True(t, ok)
	// similarity(1,3) on [0,10] linear = 1 - 2/10 = 0.8; P = 30*(0.8-1) = -6
	assert.InDelta(t, -6.0, res.Partial, 1e-9)
}
