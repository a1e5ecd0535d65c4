package mapper

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentHashCacheServesWhileUnchanged(t *testing.T) {
	c := NewContentHashCache()
	calls := 0
	compute := func() (any, error) {
		calls++
		return calls, nil
	}

	content := map[string]any{"a": 1}
	v, err := c.GetOrCompute("k", content, compute)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	v, err = c.GetOrCompute("k", map[string]any{"a": 1}, compute)
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	assert.Equal(t, 1, calls)
}

func TestContentHashCacheRecomputesOnChange(t *testing.T) {
	c := NewContentHashCache()
	calls := 0
	compute := func() (any, error) {
		calls++
		return calls, nil
	}

	_, err := c.GetOrCompute("k", map[string]any{"a": 1}, compute)
	require.NoError(t, err)
	v, err := c.GetOrCompute("k", map[string]any{"a": 2}, compute)
	require.NoError(t, err)
	assert.Equal(t, 2, v)
	assert.Equal(t, 2, calls)
}

func TestContentHashCacheKeyOrderIrrelevant(t *testing.T) {
	c := NewContentHashCache()
	calls := 0
	compute := func() (any, error) {
		calls++
		return "v", nil
	}

	_, err := c.GetOrCompute("k", map[string]any{"a": 1, "b": 2}, compute)
	require.NoError(t, err)
	_, err = c.GetOrCompute("k", map[string]any{"b": 2, "a": 1}, compute)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestContentHashCacheErrorsNotCached(t *testing.T) {
	c := NewContentHashCache()
	boom := errors.New("boom")
	calls := 0

	_, err := c.GetOrCompute("k", "src", func() (any, error) {
		calls++
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)

	v, err := c.GetOrCompute("k", "src", func() (any, error) {
		calls++
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.Equal(t, 2, calls)
}

func TestContentHashCacheInvalidateAndClear(t *testing.T) {
	c := NewContentHashCache()
	calls := 0
	compute := func() (any, error) {
		calls++
		return calls, nil
	}

	_, err := c.GetOrCompute("a", "x", compute)
	require.NoError(t, err)
	_, err = c.GetOrCompute("b", "y", compute)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Stats().Size)

	c.Invalidate("a")
	assert.Equal(t, 1, c.Stats().Size)
	_, err = c.GetOrCompute("a", "x", compute)
	require.NoError(t, err)
	assert.Equal(t, 3, calls)

	c.Clear()
	assert.Equal(t, 0, c.Stats().Size)
}
