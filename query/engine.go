package query

import (
	"fmt"
	"sync"
)

// Operator is the plug-in seam for custom SQL-like verbs beyond the
// built-ins.
type Operator interface {
	Name() string
	Apply(records []Record, config any, src any, aliases map[string]any) ([]Record, error)
}

// Engine runs queries in the fixed pipeline order. Safe for concurrent
// use; custom operator registration is guarded.
type Engine struct {
	mu     sync.RWMutex
	custom map[string]Operator
}

// NewEngine returns an engine with no custom operators.
func NewEngine() *Engine {
	return &Engine{custom: make(map[string]Operator)}
}

// Register adds a custom operator. Re-registering a name is an error.
func (e *Engine) Register(op Operator) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.custom[op.Name()]; exists {
		return fmt.Errorf("operator %q already registered", op.Name())
	}
	e.custom[op.Name()] = op
	return nil
}

// Apply evaluates q over records in the fixed order WHERE, DISTINCT, LIKE,
// GROUP BY (+HAVING), ORDER BY, OFFSET, LIMIT, custom operators — however
// the query was declared. src and aliases are passed through to custom
// operators only.
func (e *Engine) Apply(records []Record, q *Query, src any, aliases map[string]any) ([]Record, error) {
	if q == nil {
		return records, nil
	}

	out, err := applyWhere(records, q.Where)
	if err != nil {
		return nil, err
	}
	out = applyDistinct(out, q.Distinct)
	out = applyLike(out, q.Like)

	if len(q.GroupBy) > 0 {
		groups, err := applyGroupBy(out, q.GroupBy, q.Aggregates)
		if err != nil {
			return nil, err
		}
		groups, err = applyHaving(groups, q.GroupBy, q.Having)
		if err != nil {
			return nil, err
		}
		out = make([]Record, len(groups))
		for i, g := range groups {
			out[i] = groupRecord(g, q.GroupBy)
		}
	}

	out = applyOrderBy(out, q.OrderBy)
	out = applySlice(out, q.Offset, q.Limit)

	for _, call := range q.Custom {
		e.mu.RLock()
		op, ok := e.custom[call.Name]
		e.mu.RUnlock()
		if !ok {
			return nil, fmt.Errorf("%w: unknown operator %q", ErrInvalidCondition, call.Name)
		}
		out, err = op.Apply(out, call.Config, src, aliases)
		if err != nil {
			return nil, fmt.Errorf("operator %q: %w", call.Name, err)
		}
	}
	return out, nil
}

// Groups evaluates only the WHERE/DISTINCT/LIKE/GROUP BY/HAVING prefix of
// the pipeline and returns the surviving groups with their members intact,
// for callers that need per-group member access rather than flattened
// records. Unlike Apply, grouping always happens: an empty (or nil-query)
// GroupBy yields a single group holding every surviving record.
func (e *Engine) Groups(records []Record, q *Query) ([]Group, error) {
	if q == nil {
		q = &Query{}
	}
	out, err := applyWhere(records, q.Where)
	if err != nil {
		return nil, err
	}
	out = applyDistinct(out, q.Distinct)
	out = applyLike(out, q.Like)
	groups, err := applyGroupBy(out, q.GroupBy, q.Aggregates)
	if err != nil {
		return nil, err
	}
	return applyHaving(groups, q.GroupBy, q.Having)
}
