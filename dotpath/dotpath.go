// Package dotpath parses dot-separated path strings into typed segments.
//
// A path addresses a location inside nested map/slice data. Segments are
// separated by "."; a segment of "*" is a wildcard that matches every child
// at that level, an all-digit segment is a numeric index, and anything else
// is a literal map key. The empty string is the valid zero-segment path and
// denotes the whole value.
package dotpath

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Separator between path segments.
const Separator = "."

// ErrPathSyntax reports a malformed dot-path: an empty segment produced by a
// leading, trailing, or doubled separator.
var ErrPathSyntax = errors.New("malformed path")

// SegmentKind classifies a parsed path segment.
type SegmentKind int

const (
	// KindLiteral is a plain map key.
	KindLiteral SegmentKind = iota
	// KindIndex is an all-digit sequence index.
	KindIndex
	// KindWildcard matches every child at its level.
	KindWildcard
)

// Segment is one element of a parsed path.
type Segment struct {
	Kind  SegmentKind
	Key   string // literal key (KindLiteral)
	Index int    // numeric index (KindIndex)
}

// Literal returns a literal key segment.
func Literal(key string) Segment {
	return Segment{Kind: KindLiteral, Key: key}
}

// Index returns a numeric index segment.
func Index(i int) Segment {
	return Segment{Kind: KindIndex, Index: i}
}

// Wildcard returns the wildcard segment.
func Wildcard() Segment {
	return Segment{Kind: KindWildcard}
}

// String renders the segment the way it appears in a raw path.
func (s Segment) String() string {
	switch s.Kind {
	case KindIndex:
		return strconv.Itoa(s.Index)
	case KindWildcard:
		return "*"
	default:
		return s.Key
	}
}

// Path is an immutable parsed dot-path.
type Path struct {
	raw  string
	segs []Segment
}

// Parse tokenizes raw into a Path. The empty string yields the zero-segment
// path; any empty fragment (".a", "a.", "a..b") is a syntax error.
func Parse(raw string) (Path, error) {
	if raw == "" {
		return Path{}, nil
	}
	fragments := strings.Split(raw, Separator)
	segs := make([]Segment, 0, len(fragments))
	for _, frag := range fragments {
		switch {
		case frag == "":
			return Path{}, fmt.Errorf("%w: empty segment in %q", ErrPathSyntax, raw)
		case frag == "*":
			segs = append(segs, Wildcard())
		case allDigits(frag):
			n, err := strconv.Atoi(frag)
			if err != nil {
				// Digits too large for int; treat as a literal key.
				segs = append(segs, Literal(frag))
				continue
			}
			segs = append(segs, Index(n))
		default:
			segs = append(segs, Literal(frag))
		}
	}
	return Path{raw: raw, segs: segs}, nil
}

// MustParse is Parse that panics on error, for statically known paths.
func MustParse(raw string) Path {
	p, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return p
}

// FromSegments builds a path from already-classified segments.
func FromSegments(segs ...Segment) Path {
	parts := make([]string, len(segs))
	for i, s := range segs {
		parts[i] = s.String()
	}
	return Path{raw: strings.Join(parts, Separator), segs: append([]Segment(nil), segs...)}
}

// Len returns the number of segments.
func (p Path) Len() int { return len(p.segs) }

// IsEmpty reports whether this is the zero-segment path.
func (p Path) IsEmpty() bool { return len(p.segs) == 0 }

// Segments returns the parsed segments. Callers must not modify the result.
func (p Path) Segments() []Segment { return p.segs }

// At returns the i-th segment.
func (p Path) At(i int) Segment { return p.segs[i] }

// String returns the raw path text.
func (p Path) String() string { return p.raw }

// HasWildcard reports whether any segment is a wildcard.
func (p Path) HasWildcard() bool {
	for _, s := range p.segs {
		if s.Kind == KindWildcard {
			return true
		}
	}
	return false
}

// WildcardCount returns the number of wildcard segments.
func (p Path) WildcardCount() int {
	n := 0
	for _, s := range p.segs {
		if s.Kind == KindWildcard {
			n++
		}
	}
	return n
}

// Child returns a new path with seg appended.
func (p Path) Child(seg Segment) Path {
	segs := make([]Segment, 0, len(p.segs)+1)
	segs = append(segs, p.segs...)
	segs = append(segs, seg)
	raw := seg.String()
	if p.raw != "" {
		raw = p.raw + Separator + raw
	}
	return Path{raw: raw, segs: segs}
}

// Join appends all segments of q.
func (p Path) Join(q Path) Path {
	out := p
	for _, s := range q.segs {
		out = out.Child(s)
	}
	return out
}

// ReplaceWildcard returns a copy of p with the first wildcard segment
// replaced by seg. It returns p unchanged when there is no wildcard.
func (p Path) ReplaceWildcard(seg Segment) Path {
	for i, s := range p.segs {
		if s.Kind == KindWildcard {
			segs := append([]Segment(nil), p.segs...)
			segs[i] = seg
			return FromSegments(segs...)
		}
	}
	return p
}

// JoinKey appends frag to a resolved key string using the path separator.
func JoinKey(prefix, frag string) string {
	if prefix == "" {
		return frag
	}
	return prefix + Separator + frag
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
