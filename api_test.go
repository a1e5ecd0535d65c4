package datahelpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/event4u-app/data-helpers/mapper"
)

func TestFacadeRoundTrip(t *testing.T) {
	root, err := Set(nil, "user.tags.1", "beta")
	require.NoError(t, err)

	v, ok, err := Get(root, "user.tags.1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "beta", v)

	v, ok, err = Get(root, "user.tags.0")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Nil(t, v)

	root, err = Merge(root, "user", map[string]any{"name": "Ana"})
	require.NoError(t, err)
	name, _, err := Get(root, "user.name")
	require.NoError(t, err)
	assert.Equal(t, "Ana", name)

	root, err = Remove(root, "user.tags")
	require.NoError(t, err)
	_, ok, err = Get(root, "user.tags")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFacadeWildcardGet(t *testing.T) {
	root := map[string]any{"items": []any{
		map[string]any{"id": 1},
		map[string]any{"id": 2},
	}}
	v, ok, err := Get(root, "items.*.id")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []any{1, 2}, v)
}

func TestFacadeGetBadPath(t *testing.T) {
	_, _, err := Get(nil, "a..b")
	require.Error(t, err)
}

func TestFacadeRender(t *testing.T) {
	src := map[string]any{"user": map[string]any{"name": "ana"}}

	v, err := Render("{{ user.name | upper }}", src)
	require.NoError(t, err)
	assert.Equal(t, "ANA", v)

	v, err = Render("plain text", src)
	require.NoError(t, err)
	assert.Equal(t, "plain text", v)

	v, err = Render("{{ user.missing ?? 'n/a' }}", src)
	require.NoError(t, err)
	assert.Equal(t, "n/a", v)
}

func TestFacadeMap(t *testing.T) {
	out, err := Map(&mapper.Mapping{Pairs: []mapper.Pair{
		{Target: "profile.name", Source: "{{ user.name | ucfirst }}"},
	}}, map[string]any{"user": map[string]any{"name": "ana"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Ana", out.(map[string]any)["profile"].(map[string]any)["name"])
}
