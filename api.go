package datahelpers

import (
	"github.com/event4u-app/data-helpers/access"
	"github.com/event4u-app/data-helpers/dotpath"
	"github.com/event4u-app/data-helpers/expr"
	"github.com/event4u-app/data-helpers/mapper"
)

// The facade shares one bounded expression cache; everything else is
// cheap to build per call and carries no settings.
var exprCache = expr.NewCache(expr.DefaultCacheSize)

// Get resolves path against root. Wildcard paths return the matched
// values as a []any; a miss returns ok=false without error.
func Get(root any, path string) (any, bool, error) {
	p, err := dotpath.Parse(path)
	if err != nil {
		return nil, false, err
	}
	v, ok, err := access.NewAccessor(access.Options{}).Get(root, p)
	if wr, isWildcard := v.(*access.WildcardResult); isWildcard {
		return wr.Values(), ok, err
	}
	return v, ok, err
}

// Set writes value at path, creating intermediate containers, and
// returns the updated root.
func Set(root any, path string, value any) (any, error) {
	p, err := dotpath.Parse(path)
	if err != nil {
		return nil, err
	}
	return access.NewMutator(access.Options{}).Set(root, p, value)
}

// Merge deep-merges value into the subtree at path and returns the
// updated root. Sequences merge index-wise; maps merge key-wise.
func Merge(root any, path string, value any) (any, error) {
	p, err := dotpath.Parse(path)
	if err != nil {
		return nil, err
	}
	return access.NewMutator(access.Options{}).Merge(root, p, value)
}

// Remove deletes the value at path and returns the updated root.
// Removing a missing path is a no-op.
func Remove(root any, path string) (any, error) {
	p, err := dotpath.Parse(path)
	if err != nil {
		return nil, err
	}
	return access.NewMutator(access.Options{}).Remove(root, p)
}

// Render evaluates one expression against src: "{{ path | filters }}"
// resolves and transforms, anything else returns verbatim.
func Render(expression string, src any) (any, error) {
	x, err := exprCache.Parse(expression)
	if err != nil {
		return nil, err
	}
	return expr.NewEvaluator(nil, nil).Evaluate(x, src, nil)
}

// Map runs mapping m over src into target with default engine settings
// and returns the updated target.
func Map(m *mapper.Mapping, src any, target any) (any, error) {
	return mapper.New(mapper.EngineConfig{}).Map(m, src, target)
}
