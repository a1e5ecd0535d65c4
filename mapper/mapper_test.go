package mapper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/event4u-app/data-helpers/access"
	"github.com/event4u-app/data-helpers/query"
)

func orderSource() map[string]any {
	return map[string]any{
		"order": map[string]any{
			"id": 42,
			"customer": map[string]any{
				"name":  "alice",
				"email": "ALICE@EXAMPLE.COM",
			},
			"items": []any{
				map[string]any{"sku": "a-1", "qty": 2, "price": 9.5},
				map[string]any{"sku": "b-2", "qty": 1, "price": 30.0},
				map[string]any{"sku": "c-3", "qty": 5, "price": 1.0},
			},
		},
	}
}

func TestMapBasicPairs(t *testing.T) {
	e := New(EngineConfig{})
	m := &Mapping{
		Name: "invoice",
		Pairs: []Pair{
			{Target: "invoice.customer", Source: "{{ order.customer.name | ucfirst }}"},
			{Target: "invoice.contact", Source: "{{ order.customer.email | lower }}"},
			{Target: "invoice.currency", Source: "EUR"},
			{Target: "invoice.note", Source: "{{ order.note ?? 'none' }}"},
		},
	}

	out, err := e.Map(m, orderSource(), nil)
	require.NoError(t, err)

	root := out.(map[string]any)["invoice"].(map[string]any)
	assert.Equal(t, "Alice", root["customer"])
	assert.Equal(t, "alice@example.com", root["contact"])
	assert.Equal(t, "EUR", root["currency"])
	assert.Equal(t, "none", root["note"])
}

func TestMapWildcardPair(t *testing.T) {
	e := New(EngineConfig{})
	m := &Mapping{Pairs: []Pair{
		{Target: "skus.*", Source: "{{ order.items.*.sku | upper }}"},
	}}

	out, err := e.Map(m, orderSource(), nil)
	require.NoError(t, err)
	assert.Equal(t, []any{"A-1", "B-2", "C-3"}, out.(map[string]any)["skus"])
}

func TestMapWildcardSkipNullReindex(t *testing.T) {
	src := map[string]any{"vals": []any{"a", nil, "c"}}

	e := New(EngineConfig{})
	sparse, err := e.Map(&Mapping{Name: "sparse", Pairs: []Pair{
		{Target: "out.*", Source: "{{ vals.* }}", SkipNull: true},
	}}, src, nil)
	require.NoError(t, err)
	assert.Equal(t, []any{"a", nil, "c"}, sparse.(map[string]any)["out"])

	dense, err := e.Map(&Mapping{Name: "dense", Pairs: []Pair{
		{Target: "out.*", Source: "{{ vals.* }}", SkipNull: true, Reindex: true},
	}}, src, nil)
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "c"}, dense.(map[string]any)["out"])
}

func TestMapPairWithQuery(t *testing.T) {
	e := New(EngineConfig{})
	where := query.Cmp("qty", ">=", 2)
	m := &Mapping{Pairs: []Pair{
		{
			Target: "lines.*",
			Source: "{{ order.items.* }}",
			Query: &query.Query{
				Where:   &where,
				OrderBy: []query.OrderKey{{Field: "sku"}},
				Limit:   1,
			},
		},
	}}

	out, err := e.Map(m, orderSource(), nil)
	require.NoError(t, err)

	lines := out.(map[string]any)["lines"].([]any)
	require.Len(t, lines, 1)
	assert.Equal(t, "a-1", lines[0].(map[string]any)["sku"])
}

func TestMapQueryWholeArrayTarget(t *testing.T) {
	e := New(EngineConfig{})
	where := query.Cmp("price", "<", 10)
	m := &Mapping{Pairs: []Pair{
		{
			Target: "cheap",
			Source: "{{ order.items.* }}",
			Query:  &query.Query{Where: &where},
		},
	}}

	out, err := e.Map(m, orderSource(), nil)
	require.NoError(t, err)

	cheap := out.(map[string]any)["cheap"].([]any)
	require.Len(t, cheap, 2)
	assert.Equal(t, "a-1", cheap[0].(map[string]any)["sku"])
	assert.Equal(t, "c-3", cheap[1].(map[string]any)["sku"])
}

func TestMapAliasAcrossPairs(t *testing.T) {
	e := New(EngineConfig{})
	m := &Mapping{Pairs: []Pair{
		{Target: "name", Source: "{{ order.customer.name | upper }}"},
		{Target: "label", Source: "{{ @name | lcfirst }}"},
	}}

	out, err := e.Map(m, orderSource(), nil)
	require.NoError(t, err)

	root := out.(map[string]any)
	assert.Equal(t, "ALICE", root["name"])
	assert.Equal(t, "aLICE", root["label"])
}

func TestMapUnknownAliasVerbatim(t *testing.T) {
	e := New(EngineConfig{})
	out, err := e.Map(&Mapping{Pairs: []Pair{
		{Target: "x", Source: "{{ @nobody }}"},
	}}, orderSource(), nil)
	require.NoError(t, err)
	assert.Equal(t, "@nobody", out.(map[string]any)["x"])
}

func TestMapHooksLifecycle(t *testing.T) {
	e := New(EngineConfig{})
	var events []string
	e.AddHooks(HookRegistration{Hooks: Hooks{
		BeforeAll: func(src, target any) bool {
			events = append(events, "beforeAll")
			return true
		},
		BeforePair: func(ctx *PairContext) bool {
			events = append(events, "beforePair:"+ctx.Source)
			return ctx.Source != "skip me"
		},
		PreTransform: func(v any, ctx *PairContext) any {
			events = append(events, "pre")
			return v
		},
		PostTransform: func(v any, ctx *PairContext) any {
			events = append(events, "post")
			if s, ok := v.(string); ok {
				return s + "!"
			}
			return v
		},
		BeforeWrite: func(v any, ctx *PairContext) WriteDecision {
			events = append(events, "beforeWrite")
			if v == "drop!" {
				return Skip()
			}
			return Write(v)
		},
		AfterWrite: func(v any, ctx *PairContext) {
			events = append(events, "afterWrite")
		},
		AfterPair: func(ctx *PairContext) {
			events = append(events, "afterPair")
		},
		AfterAll: func(target any) {
			events = append(events, "afterAll")
		},
	}})

	out, err := e.Map(&Mapping{Pairs: []Pair{
		{Target: "a", Source: "keep"},
		{Target: "b", Source: "drop"},
		{Target: "c", Source: "skip me"},
	}}, nil, nil)
	require.NoError(t, err)

	root := out.(map[string]any)
	assert.Equal(t, "keep!", root["a"])
	assert.NotContains(t, root, "b")
	assert.NotContains(t, root, "c")

	assert.Equal(t, []string{
		"beforeAll",
		"beforePair:keep", "pre", "post", "beforeWrite", "afterWrite", "afterPair",
		"beforePair:drop", "pre", "post", "beforeWrite", "afterPair",
		"beforePair:skip me",
		"afterAll",
	}, events)
}

func TestMapBeforeAllCancels(t *testing.T) {
	e := New(EngineConfig{})
	e.AddHooks(HookRegistration{Hooks: Hooks{
		BeforeAll: func(src, target any) bool { return false },
	}})

	out, err := e.Map(&Mapping{Pairs: []Pair{
		{Target: "x", Source: "never"},
	}}, nil, map[string]any{"kept": true})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"kept": true}, out)
}

func TestMapHookFilterByTargetPrefix(t *testing.T) {
	e := New(EngineConfig{})
	e.AddHooks(HookRegistration{
		Filter: HookFilter{TargetPrefix: "meta"},
		Hooks: Hooks{
			PostTransform: func(v any, ctx *PairContext) any { return "tagged" },
		},
	})

	out, err := e.Map(&Mapping{Pairs: []Pair{
		{Target: "meta.kind", Source: "raw"},
		{Target: "body", Source: "raw"},
	}}, nil, nil)
	require.NoError(t, err)

	root := out.(map[string]any)
	assert.Equal(t, "tagged", root["meta"].(map[string]any)["kind"])
	assert.Equal(t, "raw", root["body"])
}

func TestMapErrorModes(t *testing.T) {
	m := &Mapping{Pairs: []Pair{
		{Target: "a", Source: "{{ missing.one }}"},
		{Target: "b", Source: "{{ missing.two }}"},
		{Target: "c", Source: "ok"},
	}}
	src := map[string]any{}

	t.Run("fail fast", func(t *testing.T) {
		e := New(EngineConfig{StrictSource: true})
		_, err := e.Map(m, src, nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, access.ErrUndefinedSource)
	})

	t.Run("collect", func(t *testing.T) {
		e := New(EngineConfig{StrictSource: true, ErrorMode: Collect})
		out, err := e.Map(m, src, nil)
		require.Error(t, err)

		var list ErrorList
		require.ErrorAs(t, err, &list)
		assert.Len(t, list, 2)
		assert.Equal(t, "ok", out.(map[string]any)["c"])
	})

	t.Run("silent", func(t *testing.T) {
		e := New(EngineConfig{StrictSource: true, ErrorMode: Silent})
		out, err := e.Map(m, src, nil)
		require.NoError(t, err)
		assert.Equal(t, "ok", out.(map[string]any)["c"])
	})
}

func TestMapBatch(t *testing.T) {
	e := New(EngineConfig{})
	m := &Mapping{Pairs: []Pair{
		{Target: "names.*", Source: "{{ people.*.name | upper }}"},
	}}

	entries := []any{
		map[string]any{"people": []any{map[string]any{"name": "ana"}}},
		map[string]any{"people": []any{map[string]any{"name": "bo"}}},
	}

	var seen []int
	e.AddHooks(HookRegistration{Hooks: Hooks{
		BeforeEntry: func(i int, entry any) bool {
			seen = append(seen, i)
			return true
		},
	}})

	out, err := e.MapBatch(m, entries, nil)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, seen)

	// both entries write position 0; the later entry wins
	assert.Equal(t, []any{"BO"}, out.(map[string]any)["names"])
}

func TestMapBatchSkipEntry(t *testing.T) {
	e := New(EngineConfig{})
	e.AddHooks(HookRegistration{Hooks: Hooks{
		BeforeEntry: func(i int, entry any) bool { return i != 0 },
	}})

	out, err := e.MapBatch(&Mapping{Pairs: []Pair{
		{Target: "v", Source: "{{ n }}"},
	}}, []any{
		map[string]any{"n": 1},
		map[string]any{"n": 2},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, out.(map[string]any)["v"])
}

func TestMapRecompilesOnContentChange(t *testing.T) {
	e := New(EngineConfig{})

	out, err := e.Map(&Mapping{Name: "m", Pairs: []Pair{
		{Target: "v", Source: "one"},
	}}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "one", out.(map[string]any)["v"])

	// same name, different pairs: the content hash changes and the
	// mapping recompiles
	out, err = e.Map(&Mapping{Name: "m", Pairs: []Pair{
		{Target: "v", Source: "two"},
	}}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "two", out.(map[string]any)["v"])
}

func TestMapCompileErrorSurfaces(t *testing.T) {
	e := New(EngineConfig{})
	_, err := e.Map(&Mapping{Pairs: []Pair{
		{Target: "a..b", Source: "x"},
	}}, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pair 0 target")
}
