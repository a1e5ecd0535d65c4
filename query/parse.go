package query

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/spf13/cast"
)

// ParseQuery builds a Query from a generic config map, the shape mapping
// definition files (YAML/HCL) and inline template declarations produce.
// Keys are matched case-insensitively and accept snake_case or camelCase.
func ParseQuery(config map[string]any) (*Query, error) {
	q := &Query{}
	for _, key := range sortedKeys(config) {
		raw := config[key]
		switch normalizeKey(key) {
		case "where":
			cond, err := ParseCondition(raw)
			if err != nil {
				return nil, err
			}
			q.Where = &cond
		case "distinct":
			q.Distinct = cast.ToString(raw)
		case "like":
			spec, err := parseLike(raw)
			if err != nil {
				return nil, err
			}
			q.Like = spec
		case "groupby":
			q.GroupBy = toStringList(raw)
		case "aggregates":
			specs, err := parseAggregates(raw)
			if err != nil {
				return nil, err
			}
			q.Aggregates = specs
		case "having":
			cond, err := ParseCondition(raw)
			if err != nil {
				return nil, err
			}
			q.Having = &cond
		case "orderby":
			keys, err := parseOrderBy(raw)
			if err != nil {
				return nil, err
			}
			q.OrderBy = keys
		case "offset":
			q.Offset = cast.ToInt(raw)
		case "limit":
			q.Limit = cast.ToInt(raw)
		default:
			return nil, fmt.Errorf("%w: unknown query key %q", ErrInvalidCondition, key)
		}
	}
	return q, nil
}

// ParseCondition builds a condition tree from generic data. A map is an
// implicit AND of its entries; the keys "or"/"and" (case-insensitive)
// introduce explicit groups with unlimited nesting; a field entry maps to
// either a bare value (equality) or a map of operator to operand.
func ParseCondition(raw any) (Condition, error) {
	switch node := raw.(type) {
	case map[string]any:
		var root Condition
		for _, key := range sortedKeys(node) {
			val := node[key]
			switch strings.ToLower(strings.TrimSpace(key)) {
			case "or":
				subs, err := parseConditionList(val)
				if err != nil {
					return Condition{}, err
				}
				root.And = append(root.And, Condition{Or: subs})
			case "and":
				subs, err := parseConditionList(val)
				if err != nil {
					return Condition{}, err
				}
				root.And = append(root.And, subs...)
			default:
				leaves, err := parseFieldCondition(key, val)
				if err != nil {
					return Condition{}, err
				}
				root.And = append(root.And, leaves...)
			}
		}
		return root, nil
	case []any:
		subs, err := parseConditionList(node)
		if err != nil {
			return Condition{}, err
		}
		return Condition{And: subs}, nil
	case Condition:
		return node, nil
	case nil:
		return Condition{}, nil
	default:
		return Condition{}, fmt.Errorf("%w: cannot build condition from %T", ErrInvalidCondition, raw)
	}
}

func parseConditionList(raw any) ([]Condition, error) {
	switch node := raw.(type) {
	case []any:
		out := make([]Condition, 0, len(node))
		for _, sub := range node {
			c, err := ParseCondition(sub)
			if err != nil {
				return nil, err
			}
			out = append(out, c)
		}
		return out, nil
	case map[string]any:
		c, err := ParseCondition(node)
		if err != nil {
			return nil, err
		}
		return c.And, nil
	default:
		return nil, fmt.Errorf("%w: group needs a list, got %T", ErrInvalidCondition, raw)
	}
}

func parseFieldCondition(field string, val any) ([]Condition, error) {
	ops, ok := val.(map[string]any)
	if !ok {
		return []Condition{Eq(field, val)}, nil
	}
	out := make([]Condition, 0, len(ops))
	for _, op := range sortedKeys(ops) {
		out = append(out, Condition{Field: field, Op: op, Value: ops[op]})
	}
	return out, nil
}

func parseLike(raw any) (*LikeSpec, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: like needs field and pattern", ErrInvalidCondition)
	}
	spec := &LikeSpec{}
	for _, key := range sortedKeys(m) {
		switch normalizeKey(key) {
		case "field":
			spec.Field = cast.ToString(m[key])
		case "pattern":
			spec.Pattern = cast.ToString(m[key])
		case "not":
			spec.Not = cast.ToBool(m[key])
		}
	}
	if spec.Field == "" {
		return nil, fmt.Errorf("%w: like needs a field", ErrInvalidCondition)
	}
	return spec, nil
}

var aggregatePattern = regexp.MustCompile(`(?i)^\s*([a-z]+)\s*\(\s*([^)]*?)\s*\)\s*(?:as\s+(\S+))?\s*$`)

func parseAggregates(raw any) ([]AggregateSpec, error) {
	list, ok := raw.([]any)
	if !ok {
		list = []any{raw}
	}
	out := make([]AggregateSpec, 0, len(list))
	for _, entry := range list {
		switch node := entry.(type) {
		case string:
			m := aggregatePattern.FindStringSubmatch(node)
			if m == nil {
				return nil, fmt.Errorf("%w: bad aggregate %q", ErrInvalidCondition, node)
			}
			field := m[2]
			if field == "*" {
				field = ""
			}
			out = append(out, AggregateSpec{Func: m[1], Field: field, As: m[3]})
		case map[string]any:
			spec := AggregateSpec{}
			for _, key := range sortedKeys(node) {
				switch normalizeKey(key) {
				case "func", "fn", "function":
					spec.Func = cast.ToString(node[key])
				case "field":
					spec.Field = cast.ToString(node[key])
				case "as", "alias":
					spec.As = cast.ToString(node[key])
				case "sep", "separator":
					spec.Sep = cast.ToString(node[key])
				}
			}
			if spec.Func == "" {
				return nil, fmt.Errorf("%w: aggregate needs a function", ErrInvalidCondition)
			}
			out = append(out, spec)
		default:
			return nil, fmt.Errorf("%w: bad aggregate entry %T", ErrInvalidCondition, entry)
		}
	}
	return out, nil
}

func parseOrderBy(raw any) ([]OrderKey, error) {
	list, ok := raw.([]any)
	if !ok {
		list = []any{raw}
	}
	out := make([]OrderKey, 0, len(list))
	for _, entry := range list {
		switch node := entry.(type) {
		case string:
			parts := strings.Fields(node)
			switch len(parts) {
			case 1:
				out = append(out, OrderKey{Field: parts[0]})
			case 2:
				out = append(out, OrderKey{Field: parts[0], Desc: strings.EqualFold(parts[1], "desc")})
			default:
				return nil, fmt.Errorf("%w: bad order key %q", ErrInvalidCondition, node)
			}
		case map[string]any:
			key := OrderKey{}
			for _, k := range sortedKeys(node) {
				switch normalizeKey(k) {
				case "field":
					key.Field = cast.ToString(node[k])
				case "desc":
					key.Desc = cast.ToBool(node[k])
				case "direction", "dir":
					key.Desc = strings.EqualFold(cast.ToString(node[k]), "desc")
				}
			}
			if key.Field == "" {
				return nil, fmt.Errorf("%w: order key needs a field", ErrInvalidCondition)
			}
			out = append(out, key)
		default:
			return nil, fmt.Errorf("%w: bad order entry %T", ErrInvalidCondition, entry)
		}
	}
	return out, nil
}

// normalizeKey folds case and separator style so order_by, orderBy, and
// ORDER BY all resolve.
func normalizeKey(key string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	key = strings.ReplaceAll(key, "_", "")
	key = strings.ReplaceAll(key, "-", "")
	key = strings.ReplaceAll(key, " ", "")
	return key
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func toStringList(raw any) []string {
	switch node := raw.(type) {
	case string:
		return []string{node}
	case []any:
		out := make([]string, len(node))
		for i, e := range node {
			out[i] = cast.ToString(e)
		}
		return out
	case []string:
		return append([]string(nil), node...)
	default:
		return nil
	}
}
