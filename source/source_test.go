package source

import (
	"testing"

	"github.com/event4u-app/data-helpers/dotpath"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapSource_GetAndSortedKeys(t *testing.T) {
	src := FromValue(map[string]any{"b": 2, "a": 1, "c": 3})
	v, ok := src.Get(dotpath.Literal("b"))
	require.True(t, ok)
	assert.Equal(t, 2, v)

	keys := src.Keys()
	require.Len(t, keys, 3)
	assert.Equal(t, "a", keys[0].String())
	assert.Equal(t, "b", keys[1].String())
	assert.Equal(t, "c", keys[2].String())
}

func TestMapSource_DigitKeyResolvesViaIndexSegment(t *testing.T) {
	src := FromValue(map[string]any{"0": "zero"})
	v, ok := src.Get(dotpath.Index(0))
	require.True(t, ok)
	assert.Equal(t, "zero", v)
}

func TestSliceSource_IndexAccess(t *testing.T) {
	src := FromValue([]any{"x", "y"})
	v, ok := src.Get(dotpath.Index(1))
	require.True(t, ok)
	assert.Equal(t, "y", v)

	_, ok = src.Get(dotpath.Index(5))
	assert.False(t, ok)
	_, ok = src.Get(dotpath.Literal("name"))
	assert.False(t, ok)
}

func TestSliceSource_SetGrowsWithNils(t *testing.T) {
	sink, ok := SinkFor([]any{"a"})
	require.True(t, ok)
	out, ok := sink.Set(dotpath.Index(3), "d")
	require.True(t, ok)
	assert.Equal(t, []any{"a", nil, nil, "d"}, out)
}

func TestSetDoesNotMutateOriginal(t *testing.T) {
	orig := map[string]any{"a": 1}
	sink, _ := SinkFor(orig)
	out, ok := sink.Set(dotpath.Literal("b"), 2)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"a": 1}, orig)
	assert.Equal(t, map[string]any{"a": 1, "b": 2}, out)
}

func TestScalarHasNoChildren(t *testing.T) {
	src := FromValue(42)
	assert.Empty(t, src.Keys())
	_, ok := src.Get(dotpath.Literal("x"))
	assert.False(t, ok)
	_, sinkOK := SinkFor(42)
	assert.False(t, sinkOK)
}
