package access

import (
	"strings"

	"github.com/event4u-app/data-helpers/dotpath"
)

// WildcardResult is the ordered outcome of resolving a wildcard path: one
// entry per concrete match, keyed by the resolved path string (wildcards
// replaced by the indices/keys actually visited, depth-first left-to-right).
// Resolving the same path against the same source twice yields identical
// key order and values.
type WildcardResult struct {
	keys   []string
	values map[string]any
}

// NewWildcardResult returns an empty result.
func NewWildcardResult() *WildcardResult {
	return &WildcardResult{values: make(map[string]any)}
}

// Put records v under the resolved path key, keeping first-insert order.
func (r *WildcardResult) Put(key string, v any) {
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = v
}

// Get returns the value stored under key.
func (r *WildcardResult) Get(key string) (any, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Keys returns the resolved path keys in insertion order.
func (r *WildcardResult) Keys() []string {
	return append([]string(nil), r.keys...)
}

// Values returns the values in key order.
func (r *WildcardResult) Values() []any {
	out := make([]any, len(r.keys))
	for i, k := range r.keys {
		out[i] = r.values[k]
	}
	return out
}

// Len returns the number of matches.
func (r *WildcardResult) Len() int { return len(r.keys) }

// WriteOptions controls how wildcard results are written to a target.
type WriteOptions struct {
	// SkipNull drops nil entries before positions are assigned.
	SkipNull bool
	// Reindex renumbers surviving entries densely 0..n-1; otherwise the
	// numeric tail of each resolved source path is kept, gaps included.
	Reindex bool
}

// Entry is one surviving wildcard match with its assigned target position.
type Entry struct {
	Key      string
	Value    any
	Position int
}

// Positions assigns target indices to the entries of wr. Without Reindex
// the position is the numeric tail of the resolved source path (the matched
// index); entries whose resolved path carries no numeric segment fall back
// to their ordinal.
func Positions(wr *WildcardResult, opts WriteOptions) []Entry {
	out := make([]Entry, 0, wr.Len())
	next := 0
	for _, key := range wr.keys {
		v := wr.values[key]
		if opts.SkipNull && v == nil {
			continue
		}
		pos := next
		if !opts.Reindex {
			if tail, ok := numericTail(key); ok {
				pos = tail
			}
		}
		out = append(out, Entry{Key: key, Value: v, Position: pos})
		next++
	}
	return out
}

// numericTail returns the last all-digit segment of a resolved path key.
func numericTail(key string) (int, bool) {
	segs := strings.Split(key, dotpath.Separator)
	for i := len(segs) - 1; i >= 0; i-- {
		p, err := dotpath.Parse(segs[i])
		if err != nil || p.Len() != 1 {
			continue
		}
		if s := p.At(0); s.Kind == dotpath.KindIndex {
			return s.Index, true
		}
	}
	return 0, false
}
