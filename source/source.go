// Package source defines the DataSource and DataSink contracts the engine
// reads and writes through, plus adapters for plain Go value trees
// (map[string]any, []any, scalars). External record types (ORM rows,
// framework collections) plug in by implementing the same interfaces; the
// engine never sees the concrete type behind the seam.
package source

import (
	"sort"

	"github.com/event4u-app/data-helpers/dotpath"
)

// DataSource is a readable node in a value tree. The engine borrows it for
// the duration of a read; it never retains or mutates a source.
type DataSource interface {
	// Get returns the child addressed by seg, reporting whether it exists.
	Get(seg dotpath.Segment) (any, bool)
	// Keys enumerates the children of this node in source-native order.
	// Map keys are reported sorted so wildcard expansion is deterministic.
	Keys() []dotpath.Segment
}

// DataSink is a writable node. Set and Remove return the updated container
// value; callers re-assign, the original is never mutated.
type DataSink interface {
	DataSource
	Set(seg dotpath.Segment, value any) (any, bool)
	Remove(seg dotpath.Segment) any
}

// FromValue wraps a plain Go value in the matching DataSource adapter.
// Unknown types become a scalar source with no children.
func FromValue(v any) DataSource {
	switch t := v.(type) {
	case map[string]any:
		return MapSource(t)
	case []any:
		return SliceSource(t)
	case DataSource:
		return t
	default:
		return ValueSource{}
	}
}

// SinkFor wraps a plain Go value in the matching DataSink adapter, or
// reports false for scalars and foreign types.
func SinkFor(v any) (DataSink, bool) {
	switch t := v.(type) {
	case map[string]any:
		return MapSource(t), true
	case []any:
		return SliceSource(t), true
	case DataSink:
		return t, true
	default:
		return nil, false
	}
}

// MapSource adapts map[string]any.
type MapSource map[string]any

func (m MapSource) Get(seg dotpath.Segment) (any, bool) {
	v, ok := m[seg.String()]
	return v, ok
}

func (m MapSource) Keys() []dotpath.Segment {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	segs := make([]dotpath.Segment, len(keys))
	for i, k := range keys {
		segs[i] = dotpath.Literal(k)
	}
	return segs
}

// Set writes under the segment's string form and returns a copied map.
func (m MapSource) Set(seg dotpath.Segment, value any) (any, bool) {
	out := make(map[string]any, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	out[seg.String()] = value
	return out, true
}

func (m MapSource) Remove(seg dotpath.Segment) any {
	key := seg.String()
	if _, ok := m[key]; !ok {
		return map[string]any(m)
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		if k != key {
			out[k] = v
		}
	}
	return out
}

// SliceSource adapts []any. Only index segments resolve.
type SliceSource []any

func (s SliceSource) Get(seg dotpath.Segment) (any, bool) {
	if seg.Kind != dotpath.KindIndex || seg.Index < 0 || seg.Index >= len(s) {
		return nil, false
	}
	return s[seg.Index], true
}

func (s SliceSource) Keys() []dotpath.Segment {
	segs := make([]dotpath.Segment, len(s))
	for i := range s {
		segs[i] = dotpath.Index(i)
	}
	return segs
}

// Set writes at the index, growing the slice with nils as needed. Literal
// segments do not address slices and report false.
func (s SliceSource) Set(seg dotpath.Segment, value any) (any, bool) {
	if seg.Kind != dotpath.KindIndex || seg.Index < 0 {
		return []any(s), false
	}
	n := len(s)
	if seg.Index >= n {
		n = seg.Index + 1
	}
	out := make([]any, n)
	copy(out, s)
	out[seg.Index] = value
	return out, true
}

// Remove nils out the index, preserving positions of later entries.
func (s SliceSource) Remove(seg dotpath.Segment) any {
	if seg.Kind != dotpath.KindIndex || seg.Index < 0 || seg.Index >= len(s) {
		return []any(s)
	}
	out := make([]any, len(s))
	copy(out, s)
	out[seg.Index] = nil
	return out
}

// ValueSource is a scalar leaf: no children.
type ValueSource struct{}

func (v ValueSource) Get(dotpath.Segment) (any, bool) { return nil, false }
func (v ValueSource) Keys() []dotpath.Segment         { return nil }
