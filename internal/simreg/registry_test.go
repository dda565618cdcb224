package simreg

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetAndLookup(t *testing.T) {
	Clear()
	defer Clear()

	fn := LinearOnMax(10)
	require.NoError(t, Set("x", fn, 2))

	got, weight, ok := Lookup("x")
	require.True(t, ok)
	assert.Equal(t, 2.0, weight)
	assert.Equal(t, fn(3, 3), got(3, 3))
}

func TestSetValidation(t *testing.T) {
	Clear()
	defer Clear()

	assert.ErrorIs(t, Set("", LinearOnMax(1), 1), ErrNameRequired)
	assert.ErrorIs(t, Set("x", nil, 1), ErrFuncRequired)
	assert.ErrorIs(t, Set("x", LinearOnMax(1), -1), ErrWeight)
}

func TestLookupMissing(t *testing.T) {
	Clear()
	_, _, ok := Lookup("nope")
	assert.False(t, ok)
}

func TestNamesSorted(t *testing.T) {
	Clear()
	defer Clear()

	require.NoError(t, Set("b", LinearOnMax(1), 1))
	require.NoError(t, Set("a", LinearOnMax(1), 1))
	assert.Equal(t, []string{"a", "b"}, Names())
}

func TestLinearOnRange(t *testing.T) {
	s := LinearOnRange(0, 10)
	assert.InDelta(t, 1.0, s(5, 5), 1e-9)
	assert.InDelta(t, 0.5, s(0, 5), 1e-9)
	assert.InDelta(t, 0.0, s(0, 10), 1e-9)
}

func TestQuadraticOnRange(t *testing.T) {
	s := QuadraticOnRange(0, 10)
	assert.InDelta(t, 1.0, s(5, 5), 1e-9)
	assert.InDelta(t, 0.75, s(0, 5), 1e-9)
	assert.InDelta(t, 0.0, s(0, 10), 1e-9)
}

func TestSimilarityNonNumericFallsBackToEquality(t *testing.T) {
	s := LinearOnMax(10)
	assert.Equal(t, 1.0, s("red", "red"))
	assert.Equal(t, 0.0, s("red", "blue"))
}

func TestMustSetPanicsOnError(t *testing.T) {
	Clear()
	defer Clear()
	assert.Panics(t, func() { MustSet("", LinearOnMax(1), 1) })
}

func TestErrorsAreDistinct(t *testing.T) {
	assert.False(t, errors.Is(ErrNameRequired, ErrFuncRequired))
}
