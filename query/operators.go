package query

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cast"

	"github.com/event4u-app/data-helpers/internal/compare"
)

// fieldValue resolves a possibly dotted field name inside a record.
func fieldValue(rec Record, field string) any {
	if v, ok := rec[field]; ok {
		return v
	}
	cur := any(rec)
	for _, part := range strings.Split(field, ".") {
		switch node := cur.(type) {
		case map[string]any:
			var ok bool
			cur, ok = node[part]
			if !ok {
				return nil
			}
		case []any:
			idx, err := strconv.Atoi(part)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil
			}
			cur = node[idx]
		default:
			return nil
		}
	}
	return cur
}

func applyWhere(records []Record, cond *Condition) ([]Record, error) {
	if cond == nil {
		return records, nil
	}
	out := make([]Record, 0, len(records))
	for _, rec := range records {
		ok, err := cond.Matches(func(f string) any { return fieldValue(rec, f) })
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

// applyDistinct keeps the first record observed per distinct field value,
// preserving first-seen order.
func applyDistinct(records []Record, field string) []Record {
	if field == "" {
		return records
	}
	seen := make(map[string]struct{}, len(records))
	out := make([]Record, 0, len(records))
	for _, rec := range records {
		v := fieldValue(rec, field)
		key := fmt.Sprintf("%T:%v", v, v)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, rec)
	}
	return out
}

func applyLike(records []Record, spec *LikeSpec) []Record {
	if spec == nil {
		return records
	}
	out := make([]Record, 0, len(records))
	for _, rec := range records {
		ok := likeMatch(fieldValue(rec, spec.Field), spec.Pattern)
		if ok != spec.Not {
			out = append(out, rec)
		}
	}
	return out
}

// likeMatch implements SQL LIKE with % as the only wildcard
// (multi-character; there is no single-character wildcard). Matching is
// case-insensitive, like the engine's string comparisons.
func likeMatch(have any, pattern any) bool {
	if have == nil || pattern == nil {
		return false
	}
	parts := strings.Split(cast.ToString(pattern), "%")
	for i, p := range parts {
		parts[i] = regexp.QuoteMeta(p)
	}
	re, err := regexp.Compile(`(?i)^` + strings.Join(parts, ".*") + `$`)
	if err != nil {
		return false
	}
	return re.MatchString(cast.ToString(have))
}

// applyOrderBy is a stable multi-key sort. Comparison is numeric-aware,
// otherwise case-insensitive lexicographic; nulls sort first ascending and
// last descending.
func applyOrderBy(records []Record, keys []OrderKey) []Record {
	if len(keys) == 0 {
		return records
	}
	out := append([]Record(nil), records...)
	sort.SliceStable(out, func(i, j int) bool {
		for _, k := range keys {
			c := compare.Values(fieldValue(out[i], k.Field), fieldValue(out[j], k.Field))
			if k.Desc {
				c = -c
			}
			if c != 0 {
				return c < 0
			}
		}
		return false
	})
	return out
}

// applyGroupBy partitions records by the composite value of fields, in
// first-seen order, and computes the requested aggregates per group.
func applyGroupBy(records []Record, fields []string, specs []AggregateSpec) ([]Group, error) {
	index := make(map[string]int)
	groups := make([]Group, 0)
	for _, rec := range records {
		var keyRepr strings.Builder
		keyVals := make([]any, len(fields))
		for i, f := range fields {
			v := fieldValue(rec, f)
			keyVals[i] = v
			fmt.Fprintf(&keyRepr, "%T:%v\x00", v, v)
		}
		repr := keyRepr.String()
		gi, ok := index[repr]
		if !ok {
			var key any
			if len(fields) == 1 {
				key = keyVals[0]
			} else {
				key = keyVals
			}
			index[repr] = len(groups)
			groups = append(groups, Group{Key: key})
			gi = len(groups) - 1
		}
		groups[gi].Members = append(groups[gi].Members, rec)
	}

	for gi := range groups {
		groups[gi].Aggregates = make(map[string]any, len(specs))
		for _, spec := range specs {
			v, err := aggregate(groups[gi].Members, spec)
			if err != nil {
				return nil, err
			}
			groups[gi].Aggregates[spec.Name()] = v
		}
	}
	return groups, nil
}

func aggregate(members []Record, spec AggregateSpec) (any, error) {
	fn := strings.ToUpper(strings.TrimSpace(spec.Func))
	if fn == "COUNT" {
		return len(members), nil
	}

	values := make([]any, 0, len(members))
	for _, rec := range members {
		if v := fieldValue(rec, spec.Field); v != nil {
			values = append(values, v)
		}
	}

	switch fn {
	case "SUM", "AVG", "MIN", "MAX":
		nums := make([]float64, 0, len(values))
		for _, v := range values {
			f, ok := compare.Numeric(v)
			if !ok {
				return nil, fmt.Errorf("%w: %s(%s) over %T value", ErrAggregationType, fn, spec.Field, v)
			}
			nums = append(nums, f)
		}
		if len(nums) == 0 {
			return nil, nil
		}
		switch fn {
		case "SUM", "AVG":
			sum := 0.0
			for _, f := range nums {
				sum += f
			}
			if fn == "AVG" {
				return sum / float64(len(nums)), nil
			}
			return sum, nil
		case "MIN":
			m := nums[0]
			for _, f := range nums[1:] {
				if f < m {
					m = f
				}
			}
			return m, nil
		default: // MAX
			m := nums[0]
			for _, f := range nums[1:] {
				if f > m {
					m = f
				}
			}
			return m, nil
		}
	case "FIRST":
		if len(values) == 0 {
			return nil, nil
		}
		return values[0], nil
	case "LAST":
		if len(values) == 0 {
			return nil, nil
		}
		return values[len(values)-1], nil
	case "COLLECT":
		return values, nil
	case "CONCAT":
		sep := spec.Sep
		if sep == "" {
			sep = ", "
		}
		parts := make([]string, len(values))
		for i, v := range values {
			parts[i] = cast.ToString(v)
		}
		return strings.Join(parts, sep), nil
	default:
		return nil, fmt.Errorf("%w: unknown aggregation %q", ErrInvalidCondition, spec.Func)
	}
}

// applyHaving filters groups by their aggregates. Group-by key fields are
// visible alongside aggregate names.
func applyHaving(groups []Group, fields []string, cond *Condition) ([]Group, error) {
	if cond == nil {
		return groups, nil
	}
	out := make([]Group, 0, len(groups))
	for _, g := range groups {
		rec := groupRecord(g, fields)
		ok, err := cond.Matches(func(f string) any { return rec[f] })
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, g)
		}
	}
	return out, nil
}

// groupRecord flattens a group into a record: its key fields plus its
// aggregates by name.
func groupRecord(g Group, fields []string) Record {
	rec := make(Record, len(fields)+len(g.Aggregates))
	if len(fields) == 1 {
		rec[fields[0]] = g.Key
	} else if tuple, ok := g.Key.([]any); ok {
		for i, f := range fields {
			if i < len(tuple) {
				rec[f] = tuple[i]
			}
		}
	}
	for name, v := range g.Aggregates {
		rec[name] = v
	}
	return rec
}

// applySlice implements OFFSET then LIMIT. A non-positive limit means
// unlimited.
func applySlice(records []Record, offset, limit int) []Record {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(records) {
		return []Record{}
	}
	out := records[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out
}
