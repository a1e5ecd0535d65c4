package expr

import (
	"fmt"

	"github.com/event4u-app/data-helpers/access"
	"github.com/event4u-app/data-helpers/filters"
)

// Evaluator walks a parsed expression against a source tree plus the
// sibling values already resolved in the same mapping pass.
type Evaluator struct {
	acc     *access.Accessor
	filters *filters.Engine
}

// NewEvaluator wires an evaluator; nil arguments get defaults.
func NewEvaluator(acc *access.Accessor, eng *filters.Engine) *Evaluator {
	if acc == nil {
		acc = access.NewAccessor(access.Options{})
	}
	if eng == nil {
		eng = filters.NewEngine(nil)
	}
	return &Evaluator{acc: acc, filters: eng}
}

// Evaluate resolves x against src. Path references may produce a
// *access.WildcardResult when the path contains wildcards; callers decide
// how to iterate it.
func (e *Evaluator) Evaluate(x *Expression, src any, aliases map[string]any) (any, error) {
	v, _, err := e.eval(x.Root(), src, aliases)
	return v, err
}

// eval returns the value, whether it was present, and any hard error.
func (e *Evaluator) eval(n Node, src any, aliases map[string]any) (any, bool, error) {
	switch node := n.(type) {
	case LiteralNode:
		return node.Value, true, nil

	case PathNode:
		return e.acc.Get(src, node.Path)

	case AliasNode:
		if v, ok := aliases[node.Name]; ok {
			return v, true, nil
		}
		// Unknown alias resolves to its own reference text, never an
		// error.
		return "@" + node.Name, true, nil

	case DefaultNode:
		v, ok, err := e.eval(node.Inner, src, aliases)
		if err != nil {
			return nil, false, err
		}
		if !ok || v == nil {
			return node.Fallback, true, nil
		}
		return v, true, nil

	case FilterChainNode:
		v, _, err := e.eval(node.Inner, src, aliases)
		if err != nil {
			return nil, false, err
		}
		out, err := e.filters.Apply(v, node.Chain, &filters.Context{Source: src, Aliases: aliases})
		if err != nil {
			return nil, false, err
		}
		return out, true, nil

	default:
		return nil, false, fmt.Errorf("unsupported expression node %T", n)
	}
}
