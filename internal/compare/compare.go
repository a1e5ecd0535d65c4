// Package compare implements the value comparison rules shared by sorting,
// range filters, and the query operators: numeric-aware first, then
// case-insensitive lexicographic.
package compare

import (
	"strings"

	"github.com/spf13/cast"
)

// Numeric reports v as a float64 when it is a number or a numeric string.
// Booleans and nil are not numeric.
func Numeric(v any) (float64, bool) {
	switch v.(type) {
	case nil, bool:
		return 0, false
	case string:
		s := strings.TrimSpace(v.(string))
		if s == "" {
			return 0, false
		}
		f, err := cast.ToFloat64E(s)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		f, err := cast.ToFloat64E(v)
		if err != nil {
			return 0, false
		}
		return f, true
	}
}

// Values orders a against b: -1, 0, or 1. Two numerics compare as numbers
// (numeric strings included); everything else compares as lowercased
// strings. Nil ordering is the caller's concern; here nil sorts below
// everything non-nil.
func Values(a, b any) int {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0
		case a == nil:
			return -1
		default:
			return 1
		}
	}
	fa, aNum := Numeric(a)
	fb, bNum := Numeric(b)
	if aNum && bNum {
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		default:
			return 0
		}
	}
	sa := strings.ToLower(cast.ToString(a))
	sb := strings.ToLower(cast.ToString(b))
	return strings.Compare(sa, sb)
}

// Equal reports value equality for the query operators: numerics compare as
// numbers, everything else as exact strings.
func Equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	fa, aNum := Numeric(a)
	fb, bNum := Numeric(b)
	if aNum && bNum {
		return fa == fb
	}
	return cast.ToString(a) == cast.ToString(b)
}
