package filters

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func apply(t *testing.T, v any, calls ...Call) any {
	t.Helper()
	out, err := NewEngine(nil).Apply(v, calls, nil)
	require.NoError(t, err)
	return out
}

func TestStringFilters(t *testing.T) {
	assert.Equal(t, "HELLO", apply(t, "hello", Call{Name: "upper"}))
	assert.Equal(t, "hello", apply(t, "HELLO", Call{Name: "lower"}))
	assert.Equal(t, "x", apply(t, "  x  ", Call{Name: "trim"}))
	assert.Equal(t, "Go", apply(t, "go", Call{Name: "ucfirst"}))
	assert.Equal(t, "user_name", apply(t, "userName", Call{Name: "snake"}))
	assert.Equal(t, "userName", apply(t, "user_name", Call{Name: "camel"}))
}

func TestPermissiveTyping_MismatchPassesThrough(t *testing.T) {
	assert.Equal(t, 42, apply(t, 42, Call{Name: "upper"}))
	assert.Equal(t, "scalar", apply(t, "scalar", Call{Name: "first"}))
	assert.Equal(t, true, apply(t, true, Call{Name: "join"}))
	assert.Equal(t, "abc", apply(t, "abc", Call{Name: "between", Args: []string{"1", "5"}}))
}

func TestCastFiltersFailInsteadOfPassingThrough(t *testing.T) {
	eng := NewEngine(nil)
	_, err := eng.Apply("not a number", []Call{{Name: "int"}}, nil)
	assert.ErrorIs(t, err, ErrInvalidFilterArgument)

	_, err = eng.Apply(nil, []Call{{Name: "required"}}, nil)
	assert.ErrorIs(t, err, ErrInvalidFilterArgument)

	out, err := eng.Apply("42", []Call{{Name: "int"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, 42, out)
}

func TestArrayFilters(t *testing.T) {
	arr := []any{"b", "a", "b", "c"}
	assert.Equal(t, 4, apply(t, arr, Call{Name: "count"}))
	assert.Equal(t, "b", apply(t, arr, Call{Name: "first"}))
	assert.Equal(t, "c", apply(t, arr, Call{Name: "last"}))
	assert.Equal(t, []any{"c", "b", "a", "b"}, apply(t, arr, Call{Name: "reverse"}))
	assert.Equal(t, []any{"a", "b", "b", "c"}, apply(t, arr, Call{Name: "sort"}))
	assert.Equal(t, []any{"b", "a", "c"}, apply(t, arr, Call{Name: "unique"}))
	assert.Equal(t, "b, a, b, c", apply(t, arr, Call{Name: "join", Args: []string{", "}}))
}

func TestSortIsNumericAware(t *testing.T) {
	out := apply(t, []any{"10", "9", "2"}, Call{Name: "sort"})
	assert.Equal(t, []any{"2", "9", "10"}, out)
}

func TestKeysAndValues(t *testing.T) {
	m := map[string]any{"b": 2, "a": 1}
	assert.Equal(t, []any{"a", "b"}, apply(t, m, Call{Name: "keys"}))
	assert.Equal(t, []any{1, 2}, apply(t, m, Call{Name: "values"}))
	assert.Equal(t, []any{0, 1}, apply(t, []any{"x", "y"}, Call{Name: "keys"}))
}

func TestBetween(t *testing.T) {
	between := Call{Name: "between", Args: []string{"1", "10"}}
	assert.Equal(t, true, apply(t, 5, between))
	assert.Equal(t, true, apply(t, 10, between))
	assert.Equal(t, false, apply(t, 11, between))

	strict := Call{Name: "between", Args: []string{"1", "10", "strict"}}
	assert.Equal(t, false, apply(t, 10, strict))
	assert.Equal(t, true, apply(t, 9.5, strict))
}

func TestClamp(t *testing.T) {
	clamp := Call{Name: "clamp", Args: []string{"0", "100"}}
	assert.Equal(t, 50, apply(t, 50, clamp))
	assert.Equal(t, 100, apply(t, 150, clamp))
	assert.Equal(t, 0, apply(t, -3, clamp))
	// Float bounds stay floats.
	assert.Equal(t, 1.5, apply(t, 9, Call{Name: "clamp", Args: []string{"0.5", "1.5"}}))
}

func TestBetweenBadArgs(t *testing.T) {
	_, err := NewEngine(nil).Apply(5, []Call{{Name: "between", Args: []string{"x", "y"}}}, nil)
	assert.ErrorIs(t, err, ErrInvalidFilterArgument)
}

func TestJSONFilter(t *testing.T) {
	out := apply(t, map[string]any{"b": 1, "a": []any{true, nil}}, Call{Name: "json"})
	assert.Equal(t, `{"a":[true,null],"b":1}`, out)
}

func TestDefaultFilter(t *testing.T) {
	assert.Equal(t, "fb", apply(t, nil, Call{Name: "default", Args: []string{"fb"}}))
	assert.Equal(t, "set", apply(t, "set", Call{Name: "default", Args: []string{"fb"}}))
}

func TestChainRunsLeftToRight(t *testing.T) {
	out := apply(t, "  go  ", Call{Name: "trim"}, Call{Name: "upper"})
	assert.Equal(t, "GO", out)
}

func TestUnknownFilter(t *testing.T) {
	_, err := NewEngine(nil).Apply(1, []Call{{Name: "nope"}}, nil)
	assert.ErrorIs(t, err, ErrUnknownFilter)
}

func TestRegisterCustomFilterAndAliases(t *testing.T) {
	reg := NewRegistry()
	err := reg.Register(Func(func(v any, _ []string, _ *Context) (any, error) {
		return v, nil
	}, "noop", "id"))
	require.NoError(t, err)

	_, ok := reg.Lookup("noop")
	assert.True(t, ok)
	_, ok = reg.Lookup("id")
	assert.True(t, ok)

	err = reg.Register(Func(func(v any, _ []string, _ *Context) (any, error) {
		return nil, nil
	}, "noop"))
	assert.Error(t, err)
}
