package ibl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalizeEmptySchemaUsesSyntheticDecision(t *testing.T) {
	tuple, err := canonicalize(nil, "risky")
	require.NoError(t, err)
	require.Len(t, tuple, 1)
	assert.Equal(t, "_decision", tuple[0].Name)
	assert.Equal(t, "risky", tuple[0].Value)
}

func TestCanonicalizeSingleAttributeRawValue(t *testing.T) {
	tuple, err := canonicalize([]string{"x"}, 42)
	require.NoError(t, err)
	require.Len(t, tuple, 1)
	assert.Equal(t, "x", tuple[0].Name)
	assert.Equal(t, 42, tuple[0].Value)
}

func TestCanonicalizeMapOrdersBySchema(t *testing.T) {
	tuple, err := canonicalize([]string{"x", "y"}, map[string]any{"y": 2, "x": 1})
	require.NoError(t, err)
	require.Len(t, tuple, 2)
	assert.Equal(t, "x", tuple[0].Name)
	assert.Equal(t, "y", tuple[1].Name)
}

func TestCanonicalizeMissingAttributeErrors(t *testing.T) {
	_, err := canonicalize([]string{"x", "y"}, map[string]any{"x": 1})
	assert.ErrorIs(t, err, ErrSchema)
}

func TestCanonicalizeUnknownAttributeErrors(t *testing.T) {
	_, err := canonicalize([]string{"x"}, map[string]any{"x": 1, "z": 2})
	assert.ErrorIs(t, err, ErrSchema)
}

func TestCanonicalizeNonComparableValueErrors(t *testing.T) {
	_, err := canonicalize([]string{"x"}, []int{1, 2})
	assert.ErrorIs(t, err, ErrSchema)
}

func TestCanonicalizeMultiAttributeRequiresMap(t *testing.T) {
	_, err := canonicalize([]string{"x", "y"}, "not-a-map")
	assert.ErrorIs(t, err, ErrSchema)
}
