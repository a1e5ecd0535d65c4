package access

import (
	"fmt"
	"strconv"

	"github.com/event4u-app/data-helpers/dotpath"
	"github.com/event4u-app/data-helpers/source"
)

// Mutator writes values into a value tree. Every operation returns the new
// root; containers along the written path are copied, everything else is
// shared with the input.
type Mutator struct {
	opts Options
}

// NewMutator returns a mutator with the given options.
func NewMutator(opts Options) *Mutator {
	return &Mutator{opts: opts}
}

// Set writes value at path, creating missing intermediate containers unless
// StrictTarget is set. The zero-segment path replaces the whole root. A
// wildcard segment applies the write to every existing child at that level.
func (m *Mutator) Set(root any, path dotpath.Path, value any) (any, error) {
	if path.IsEmpty() {
		return value, nil
	}
	return m.update(root, path, path.Segments(), func(any, bool) any { return value })
}

// Merge combines value with whatever already exists at path: maps
// deep-merge recursively, sequences merge by index replace (incoming index
// i overwrites existing index i, other indices are kept). Anything else is
// replaced by the incoming value.
func (m *Mutator) Merge(root any, path dotpath.Path, value any) (any, error) {
	if path.IsEmpty() {
		return mergeValue(root, value), nil
	}
	return m.update(root, path, path.Segments(), func(old any, ok bool) any {
		if !ok {
			return value
		}
		return mergeValue(old, value)
	})
}

// Remove deletes the value at path. Missing paths are a no-op. Removing an
// index from a sequence nils the slot so later indices keep their position.
func (m *Mutator) Remove(root any, path dotpath.Path) (any, error) {
	if path.IsEmpty() {
		return nil, nil
	}
	return m.removeAt(root, path.Segments()), nil
}

// SetWildcard writes a wildcard read result to a target path containing one
// wildcard. Positions follow the numeric tail of each resolved source path,
// subject to WriteOptions (see Positions).
func (m *Mutator) SetWildcard(root any, target dotpath.Path, wr *WildcardResult, opts WriteOptions) (any, error) {
	for _, e := range Positions(wr, opts) {
		concrete := target.ReplaceWildcard(dotpath.Index(e.Position))
		var err error
		root, err = m.Set(root, concrete, e.Value)
		if err != nil {
			return root, err
		}
	}
	return root, nil
}

// update walks segs and applies fn at every addressed location, copying
// containers on the way back up.
func (m *Mutator) update(cur any, full dotpath.Path, segs []dotpath.Segment, fn func(old any, ok bool) any) (any, error) {
	seg, rest := segs[0], segs[1:]

	if seg.Kind == dotpath.KindWildcard {
		sink, ok := source.SinkFor(cur)
		if !ok {
			return cur, nil
		}
		keys := sink.Keys()
		out := cur
		for _, key := range keys {
			sink, _ = source.SinkFor(out)
			child, childOK := sink.Get(key)
			if len(rest) == 0 {
				out, _ = sink.Set(key, fn(child, childOK))
				continue
			}
			newChild, err := m.update(child, full, rest, fn)
			if err != nil {
				return cur, err
			}
			out, _ = sink.Set(key, newChild)
		}
		return out, nil
	}

	sink, ok := source.SinkFor(cur)
	if !ok {
		if m.opts.StrictTarget {
			return cur, fmt.Errorf("%w: %s", ErrUndefinedTargetParent, full)
		}
		sink, _ = source.SinkFor(newContainer(seg))
	}

	if len(rest) == 0 {
		old, oldOK := sink.Get(seg)
		out, setOK := sink.Set(seg, fn(old, oldOK))
		if !setOK {
			// Container kind cannot address this segment (e.g. a
			// literal key into a sequence); rebuild it.
			if m.opts.StrictTarget {
				return cur, fmt.Errorf("%w: %s", ErrUndefinedTargetParent, full)
			}
			fresh, _ := source.SinkFor(newContainer(seg))
			out, _ = fresh.Set(seg, fn(nil, false))
		}
		return out, nil
	}

	child, childOK := sink.Get(seg)
	if !childOK && m.opts.StrictTarget {
		return cur, fmt.Errorf("%w: %s", ErrUndefinedTargetParent, full)
	}
	newChild, err := m.update(child, full, rest, fn)
	if err != nil {
		return cur, err
	}
	out, setOK := sink.Set(seg, newChild)
	if !setOK {
		if m.opts.StrictTarget {
			return cur, fmt.Errorf("%w: %s", ErrUndefinedTargetParent, full)
		}
		fresh, _ := source.SinkFor(newContainer(seg))
		out, _ = fresh.Set(seg, newChild)
	}
	return out, nil
}

func (m *Mutator) removeAt(cur any, segs []dotpath.Segment) any {
	seg, rest := segs[0], segs[1:]
	sink, ok := source.SinkFor(cur)
	if !ok {
		return cur
	}

	if seg.Kind == dotpath.KindWildcard {
		keys := sink.Keys()
		out := cur
		for _, key := range keys {
			sink, _ = source.SinkFor(out)
			if len(rest) == 0 {
				out = sink.Remove(key)
				continue
			}
			child, childOK := sink.Get(key)
			if !childOK {
				continue
			}
			out, _ = sink.Set(key, m.removeAt(child, rest))
		}
		return out
	}

	if len(rest) == 0 {
		return sink.Remove(seg)
	}
	child, childOK := sink.Get(seg)
	if !childOK {
		return cur
	}
	out, _ := sink.Set(seg, m.removeAt(child, rest))
	return out
}

// newContainer picks the container flavor a segment kind addresses.
func newContainer(seg dotpath.Segment) any {
	if seg.Kind == dotpath.KindIndex {
		return []any{}
	}
	return map[string]any{}
}

// mergeValue implements the merge policy: map x map deep-merges, sequence x
// sequence replaces by index (sparse sequences may arrive as maps with
// all-digit keys), everything else is replaced by incoming.
func mergeValue(old, incoming any) any {
	switch inc := incoming.(type) {
	case map[string]any:
		if oldMap, ok := old.(map[string]any); ok && !allDigitKeys(inc) {
			out := make(map[string]any, len(oldMap)+len(inc))
			for k, v := range oldMap {
				out[k] = v
			}
			for k, v := range inc {
				if ov, exists := out[k]; exists {
					out[k] = mergeValue(ov, v)
				} else {
					out[k] = v
				}
			}
			return out
		}
		if oldSeq, ok := old.([]any); ok && allDigitKeys(inc) {
			return mergeSparse(oldSeq, inc)
		}
		if oldMap, ok := old.(map[string]any); ok {
			// Digit-keyed incoming onto a map: plain key merge.
			out := make(map[string]any, len(oldMap)+len(inc))
			for k, v := range oldMap {
				out[k] = v
			}
			for k, v := range inc {
				out[k] = v
			}
			return out
		}
		return incoming
	case []any:
		if oldSeq, ok := old.([]any); ok {
			n := len(oldSeq)
			if len(inc) > n {
				n = len(inc)
			}
			out := make([]any, n)
			copy(out, oldSeq)
			for i, v := range inc {
				out[i] = v
			}
			return out
		}
		return incoming
	default:
		return incoming
	}
}

// mergeSparse overlays a digit-keyed map onto a sequence by index.
func mergeSparse(old []any, inc map[string]any) []any {
	n := len(old)
	for k := range inc {
		idx, err := strconv.Atoi(k)
		if err != nil {
			continue
		}
		if idx+1 > n {
			n = idx + 1
		}
	}
	out := make([]any, n)
	copy(out, old)
	for k, v := range inc {
		idx, err := strconv.Atoi(k)
		if err != nil || idx < 0 {
			continue
		}
		out[idx] = v
	}
	return out
}

func allDigitKeys(m map[string]any) bool {
	if len(m) == 0 {
		return false
	}
	for k := range m {
		if k == "" {
			return false
		}
		for _, r := range k {
			if r < '0' || r > '9' {
				return false
			}
		}
	}
	return true
}
