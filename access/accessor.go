// Package access resolves dot-paths against value trees (Accessor) and
// produces updated trees for writes (Mutator). Reads never mutate the
// source; writes copy the containers along the written path and return the
// new root, so callers always re-assign.
package access

import (
	"errors"
	"fmt"

	"github.com/event4u-app/data-helpers/dotpath"
	"github.com/event4u-app/data-helpers/source"
)

var (
	// ErrUndefinedSource reports a missing source path under strict
	// source checking. Without strict mode a miss is simply "no value".
	ErrUndefinedSource = errors.New("undefined source value")
	// ErrUndefinedTargetParent reports a write whose parent path does not
	// exist under strict target checking.
	ErrUndefinedTargetParent = errors.New("undefined target parent")
)

// Options selects the strict checking modes for reads and writes.
type Options struct {
	// StrictSource turns missing reads into ErrUndefinedSource.
	StrictSource bool
	// StrictTarget requires the parent of a written path to exist
	// already instead of being created lazily.
	StrictTarget bool
}

// Accessor resolves paths against a value tree.
type Accessor struct {
	opts Options
}

// NewAccessor returns an accessor with the given options.
func NewAccessor(opts Options) *Accessor {
	return &Accessor{opts: opts}
}

// Get resolves path against root. Non-wildcard paths return the value and
// whether it exists; a miss is not an error unless StrictSource is set.
// Wildcard paths return a *WildcardResult (possibly empty) and true.
func (a *Accessor) Get(root any, path dotpath.Path) (any, bool, error) {
	if path.IsEmpty() {
		return root, true, nil
	}
	if path.HasWildcard() {
		wr := NewWildcardResult()
		expand(root, "", path.Segments(), wr)
		return wr, true, nil
	}
	cur := root
	for _, seg := range path.Segments() {
		v, ok := source.FromValue(cur).Get(seg)
		if !ok {
			if a.opts.StrictSource {
				return nil, false, fmt.Errorf("%w: %s", ErrUndefinedSource, path)
			}
			return nil, false, nil
		}
		cur = v
	}
	return cur, true, nil
}

// expand walks the remaining segments, fanning out at each wildcard over
// every child in source-native order and prefixing resolved keys with the
// concrete segment taken.
func expand(cur any, prefix string, segs []dotpath.Segment, out *WildcardResult) {
	if len(segs) == 0 {
		out.Put(prefix, cur)
		return
	}
	seg, rest := segs[0], segs[1:]
	node := source.FromValue(cur)
	if seg.Kind == dotpath.KindWildcard {
		for _, child := range node.Keys() {
			v, ok := node.Get(child)
			if !ok {
				continue
			}
			expand(v, dotpath.JoinKey(prefix, child.String()), rest, out)
		}
		return
	}
	v, ok := node.Get(seg)
	if !ok {
		return
	}
	expand(v, dotpath.JoinKey(prefix, seg.String()), rest, out)
}
