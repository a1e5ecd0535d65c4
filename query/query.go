// Package query applies SQL-like operators to arrays of records produced
// by wildcard expansion. Two execution modes exist on purpose: Engine.Apply
// runs a fixed pipeline (WHERE, DISTINCT, LIKE, GROUP BY, ORDER BY, OFFSET,
// LIMIT) regardless of how operators were declared, while Builder applies
// operators strictly in call order. They share the same operator
// implementations but are not interchangeable.
package query

import (
	"errors"
	"fmt"
	"strings"

	"github.com/event4u-app/data-helpers/internal/compare"
)

var (
	// ErrInvalidCondition reports an unusable condition tree or operator.
	ErrInvalidCondition = errors.New("invalid condition")
	// ErrAggregationType reports a non-numeric value fed to SUM, AVG,
	// MIN, or MAX.
	ErrAggregationType = errors.New("aggregation type mismatch")
)

// Record is one element of a wildcard array being queried.
type Record = map[string]any

// Condition is a node of a WHERE or HAVING tree: either a leaf
// (Field/Op/Value) or a group (And/Or). Multiple populated parts combine
// conjunctively; the empty condition matches every record.
type Condition struct {
	Field string
	Op    string
	Value any

	And []Condition
	Or  []Condition
}

// Eq builds an equality leaf.
func Eq(field string, value any) Condition {
	return Condition{Field: field, Op: "=", Value: value}
}

// Cmp builds a comparison leaf with an explicit operator.
func Cmp(field, op string, value any) Condition {
	return Condition{Field: field, Op: op, Value: value}
}

// AnyOf groups conditions combined by OR.
func AnyOf(conds ...Condition) Condition {
	return Condition{Or: conds}
}

// AllOf groups conditions combined by AND.
func AllOf(conds ...Condition) Condition {
	return Condition{And: conds}
}

// Matches evaluates the condition against a field lookup.
func (c Condition) Matches(get func(string) any) (bool, error) {
	if c.Field != "" {
		ok, err := matchLeaf(get(c.Field), c.Op, c.Value)
		if err != nil || !ok {
			return false, err
		}
	}
	for _, sub := range c.And {
		ok, err := sub.Matches(get)
		if err != nil || !ok {
			return false, err
		}
	}
	if len(c.Or) > 0 {
		anyOK := false
		for _, sub := range c.Or {
			ok, err := sub.Matches(get)
			if err != nil {
				return false, err
			}
			if ok {
				anyOK = true
				break
			}
		}
		if !anyOK {
			return false, nil
		}
	}
	return true, nil
}

func matchLeaf(have any, op string, want any) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(op)) {
	case "", "=", "==":
		return compare.Equal(have, want), nil
	case "!=", "<>":
		return !compare.Equal(have, want), nil
	case ">":
		return compare.Values(have, want) > 0, nil
	case ">=":
		return compare.Values(have, want) >= 0, nil
	case "<":
		return compare.Values(have, want) < 0, nil
	case "<=":
		return compare.Values(have, want) <= 0, nil
	case "in":
		return valueIn(have, want)
	case "not in":
		ok, err := valueIn(have, want)
		return !ok, err
	case "like":
		return likeMatch(have, want), nil
	case "not like":
		return !likeMatch(have, want), nil
	default:
		return false, fmt.Errorf("%w: operator %q", ErrInvalidCondition, op)
	}
}

func valueIn(have any, want any) (bool, error) {
	list, ok := want.([]any)
	if !ok {
		return false, fmt.Errorf("%w: IN needs a list, got %T", ErrInvalidCondition, want)
	}
	for _, w := range list {
		if compare.Equal(have, w) {
			return true, nil
		}
	}
	return false, nil
}

// OrderKey is one ORDER BY key.
type OrderKey struct {
	Field string
	Desc  bool
}

// LikeSpec is the standalone LIKE pipeline stage.
type LikeSpec struct {
	Field   string
	Pattern string
	Not     bool
}

// AggregateSpec declares one aggregate computed per group.
type AggregateSpec struct {
	// Func is one of COUNT, SUM, AVG, MIN, MAX, FIRST, LAST, COLLECT,
	// CONCAT (case-insensitive).
	Func string
	// Field the aggregate reads; COUNT ignores it.
	Field string
	// As names the result; empty derives "FUNC(field)".
	As string
	// Sep joins CONCAT values; empty means ", ".
	Sep string
}

// Name returns the key the aggregate result is stored under.
func (a AggregateSpec) Name() string {
	if a.As != "" {
		return a.As
	}
	field := a.Field
	if field == "" {
		field = "*"
	}
	return strings.ToUpper(a.Func) + "(" + field + ")"
}

// Group is the outcome of GROUP BY for one distinct key.
type Group struct {
	// Key is the group-by field value, or a []any tuple for composite
	// keys.
	Key any
	// Members are the records that share the key, in input order.
	Members []Record
	// Aggregates maps AggregateSpec.Name() to the computed value.
	Aggregates map[string]any
}

// CustomCall invokes a registered operator plug-in with its config.
type CustomCall struct {
	Name   string
	Config any
}

// Query declares the operators of one pipeline run. Declaration order is
// irrelevant; Engine.Apply always evaluates WHERE, DISTINCT, LIKE,
// GROUP BY (+HAVING), ORDER BY, OFFSET, LIMIT, then custom operators.
type Query struct {
	Where      *Condition
	Distinct   string
	Like       *LikeSpec
	GroupBy    []string
	Aggregates []AggregateSpec
	Having     *Condition
	OrderBy    []OrderKey
	// Offset skips leading records; Limit <= 0 means unlimited.
	Offset int
	Limit  int
	Custom []CustomCall
}
