package filters

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/ohler55/ojg"
	"github.com/ohler55/ojg/oj"
	"github.com/spf13/cast"

	"github.com/event4u-app/data-helpers/internal/compare"
)

func builtins() []Filter {
	return []Filter{
		// String case and trim.
		stringFilter(strings.ToUpper, "upper", "uppercase"),
		stringFilter(strings.ToLower, "lower", "lowercase"),
		stringFilter(strings.TrimSpace, "trim"),
		stringFilter(ucfirst, "ucfirst"),
		stringFilter(lcfirst, "lcfirst"),
		stringFilter(snakeCase, "snake"),
		stringFilter(camelCase, "camel"),

		// Array introspection.
		Func(countFilter, "count", "length"),
		Func(firstFilter, "first"),
		Func(lastFilter, "last"),
		Func(keysFilter, "keys"),
		Func(valuesFilter, "values"),
		Func(reverseFilter, "reverse"),
		Func(sortFilter, "sort"),
		Func(uniqueFilter, "unique"),
		Func(joinFilter, "join", "implode"),

		// Range checks.
		Func(betweenFilter, "between"),
		Func(clampFilter, "clamp"),

		// Encoding and defaults.
		Func(jsonFilter, "json"),
		Func(defaultFilter, "default"),

		// Casts and validation: these fail instead of passing through.
		Func(castInt, "int", "integer"),
		Func(castFloat, "float", "double"),
		Func(castBool, "bool", "boolean"),
		Func(castString, "string", "str"),
		Func(requiredFilter, "required"),
	}
}

// stringFilter lifts a string function into a pass-through filter.
func stringFilter(fn func(string) string, names ...string) Filter {
	return Func(func(v any, _ []string, _ *Context) (any, error) {
		s, ok := v.(string)
		if !ok {
			return v, nil
		}
		return fn(s), nil
	}, names...)
}

func ucfirst(s string) string {
	r := []rune(s)
	if len(r) == 0 {
		return s
	}
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

func lcfirst(s string) string {
	r := []rune(s)
	if len(r) == 0 {
		return s
	}
	r[0] = unicode.ToLower(r[0])
	return string(r)
}

func snakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		if r == ' ' || r == '-' {
			b.WriteByte('_')
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func camelCase(s string) string {
	var b strings.Builder
	up := false
	for i, r := range s {
		switch {
		case r == '_' || r == '-' || r == ' ':
			up = true
		case up:
			b.WriteRune(unicode.ToUpper(r))
			up = false
		case i == 0:
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func countFilter(v any, _ []string, _ *Context) (any, error) {
	switch t := v.(type) {
	case []any:
		return len(t), nil
	case map[string]any:
		return len(t), nil
	case string:
		return len([]rune(t)), nil
	default:
		return v, nil
	}
}

func firstFilter(v any, _ []string, _ *Context) (any, error) {
	if s, ok := v.([]any); ok {
		if len(s) == 0 {
			return nil, nil
		}
		return s[0], nil
	}
	return v, nil
}

func lastFilter(v any, _ []string, _ *Context) (any, error) {
	if s, ok := v.([]any); ok {
		if len(s) == 0 {
			return nil, nil
		}
		return s[len(s)-1], nil
	}
	return v, nil
}

func keysFilter(v any, _ []string, _ *Context) (any, error) {
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make([]any, len(keys))
		for i, k := range keys {
			out[i] = k
		}
		return out, nil
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = i
		}
		return out, nil
	default:
		return v, nil
	}
}

func valuesFilter(v any, _ []string, _ *Context) (any, error) {
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make([]any, len(keys))
		for i, k := range keys {
			out[i] = t[k]
		}
		return out, nil
	case []any:
		return append([]any(nil), t...), nil
	default:
		return v, nil
	}
}

func reverseFilter(v any, _ []string, _ *Context) (any, error) {
	switch t := v.(type) {
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[len(t)-1-i] = e
		}
		return out, nil
	case string:
		r := []rune(t)
		for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
			r[i], r[j] = r[j], r[i]
		}
		return string(r), nil
	default:
		return v, nil
	}
}

func sortFilter(v any, args []string, _ *Context) (any, error) {
	s, ok := v.([]any)
	if !ok {
		return v, nil
	}
	desc := len(args) > 0 && strings.EqualFold(args[0], "desc")
	out := append([]any(nil), s...)
	sort.SliceStable(out, func(i, j int) bool {
		c := compare.Values(out[i], out[j])
		if desc {
			return c > 0
		}
		return c < 0
	})
	return out, nil
}

func uniqueFilter(v any, _ []string, _ *Context) (any, error) {
	s, ok := v.([]any)
	if !ok {
		return v, nil
	}
	seen := make(map[string]struct{}, len(s))
	out := make([]any, 0, len(s))
	for _, e := range s {
		key := fmt.Sprintf("%T:%v", e, e)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, e)
	}
	return out, nil
}

func joinFilter(v any, args []string, _ *Context) (any, error) {
	s, ok := v.([]any)
	if !ok {
		return v, nil
	}
	sep := ","
	if len(args) > 0 {
		sep = args[0]
	}
	parts := make([]string, len(s))
	for i, e := range s {
		parts[i] = cast.ToString(e)
	}
	return strings.Join(parts, sep), nil
}

// betweenFilter returns whether the value lies between its two numeric
// bounds. The optional third argument "strict" excludes the bounds
// themselves; the default is inclusive. Non-numeric values pass through.
func betweenFilter(v any, args []string, _ *Context) (any, error) {
	lo, hi, strict, err := rangeArgs(args)
	if err != nil {
		return nil, err
	}
	f, ok := compare.Numeric(v)
	if !ok {
		return v, nil
	}
	if strict {
		return f > lo && f < hi, nil
	}
	return f >= lo && f <= hi, nil
}

// clampFilter bounds the value into [min, max]. Values already in range
// are returned unchanged (type preserved); non-numeric values pass through.
func clampFilter(v any, args []string, _ *Context) (any, error) {
	lo, hi, _, err := rangeArgs(args)
	if err != nil {
		return nil, err
	}
	f, ok := compare.Numeric(v)
	if !ok {
		return v, nil
	}
	switch {
	case f < lo:
		return numeric(args[0], lo), nil
	case f > hi:
		return numeric(args[1], hi), nil
	default:
		return v, nil
	}
}

func rangeArgs(args []string) (lo, hi float64, strict bool, err error) {
	if len(args) < 2 {
		return 0, 0, false, fmt.Errorf("%w: need min and max", ErrInvalidFilterArgument)
	}
	lo, err = cast.ToFloat64E(args[0])
	if err != nil {
		return 0, 0, false, fmt.Errorf("%w: min %q is not numeric", ErrInvalidFilterArgument, args[0])
	}
	hi, err = cast.ToFloat64E(args[1])
	if err != nil {
		return 0, 0, false, fmt.Errorf("%w: max %q is not numeric", ErrInvalidFilterArgument, args[1])
	}
	strict = len(args) > 2 && strings.EqualFold(args[2], "strict")
	return lo, hi, strict, nil
}

// numeric keeps integer bounds integral.
func numeric(raw string, f float64) any {
	if n, err := strconv.Atoi(raw); err == nil {
		return n
	}
	return f
}

func jsonFilter(v any, _ []string, _ *Context) (any, error) {
	return oj.JSON(v, &ojg.Options{Sort: true}), nil
}

func defaultFilter(v any, args []string, _ *Context) (any, error) {
	if v != nil {
		return v, nil
	}
	if len(args) == 0 {
		return nil, nil
	}
	return args[0], nil
}

func castInt(v any, _ []string, _ *Context) (any, error) {
	n, err := cast.ToIntE(v)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot cast %T to int", ErrInvalidFilterArgument, v)
	}
	return n, nil
}

func castFloat(v any, _ []string, _ *Context) (any, error) {
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot cast %T to float", ErrInvalidFilterArgument, v)
	}
	return f, nil
}

func castBool(v any, _ []string, _ *Context) (any, error) {
	b, err := cast.ToBoolE(v)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot cast %T to bool", ErrInvalidFilterArgument, v)
	}
	return b, nil
}

func castString(v any, _ []string, _ *Context) (any, error) {
	s, err := cast.ToStringE(v)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot cast %T to string", ErrInvalidFilterArgument, v)
	}
	return s, nil
}

func requiredFilter(v any, _ []string, _ *Context) (any, error) {
	if v == nil {
		return nil, fmt.Errorf("%w: value is required", ErrInvalidFilterArgument)
	}
	return v, nil
}
