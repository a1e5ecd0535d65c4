// Package filters implements named, parameterized value transformers and
// the registry/engine that chains them. Filters follow a permissive typing
// contract: a filter applied to a value it does not understand passes the
// value through unchanged. The exceptions are cast and validation filters
// (int, float, bool, required), whose whole purpose is to fail on bad
// input.
package filters

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrUnknownFilter reports a chain referencing an unregistered name.
	ErrUnknownFilter = errors.New("unknown filter")
	// ErrInvalidFilterArgument reports an argument a filter cannot use,
	// or a failed cast/validation.
	ErrInvalidFilterArgument = errors.New("invalid filter argument")
)

// Context carries the data a filter may consult beyond its input value.
type Context struct {
	// Source is the root the current mapping pass reads from.
	Source any
	// Aliases holds sibling values already resolved in the same pass.
	Aliases map[string]any
}

// Call is one step of a filter chain: a registered name plus the
// colon-delimited arguments split by the expression parser.
type Call struct {
	Name string
	Args []string
}

// Filter transforms a value. Implementations must be pure: same inputs,
// same output, no retained state.
type Filter interface {
	// Names returns the name and any aliases this filter registers under.
	Names() []string
	// Apply transforms v. Args come from the expression; ctx may be nil.
	Apply(v any, args []string, ctx *Context) (any, error)
}

// Registry maps filter names to implementations. Safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]Filter
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Filter)}
}

// Default returns a fresh registry pre-populated with the built-in
// filters. Each call returns an independent registry so hosts can extend
// theirs without affecting others.
func Default() *Registry {
	r := NewRegistry()
	for _, f := range builtins() {
		// Built-in names never collide with each other.
		_ = r.Register(f)
	}
	return r
}

// Register adds f under all of its names. Registering a name twice is an
// error; use a fresh registry to shadow built-ins.
func (r *Registry) Register(f Filter) error {
	names := f.Names()
	if len(names) == 0 {
		return fmt.Errorf("%w: filter registers no names", ErrInvalidFilterArgument)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, name := range names {
		if _, exists := r.byName[name]; exists {
			return fmt.Errorf("filter %q already registered", name)
		}
	}
	for _, name := range names {
		r.byName[name] = f
	}
	return nil
}

// Lookup resolves a filter by name.
func (r *Registry) Lookup(name string) (Filter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.byName[name]
	return f, ok
}

// Engine applies filter chains against a registry.
type Engine struct {
	reg *Registry
}

// NewEngine returns an engine over reg; nil means the default registry.
func NewEngine(reg *Registry) *Engine {
	if reg == nil {
		reg = Default()
	}
	return &Engine{reg: reg}
}

// Registry exposes the engine's registry for plug-in registration.
func (e *Engine) Registry() *Registry { return e.reg }

// Apply runs the chain left to right over v.
func (e *Engine) Apply(v any, chain []Call, ctx *Context) (any, error) {
	for _, call := range chain {
		f, ok := e.reg.Lookup(call.Name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownFilter, call.Name)
		}
		var err error
		v, err = f.Apply(v, call.Args, ctx)
		if err != nil {
			return nil, fmt.Errorf("filter %q: %w", call.Name, err)
		}
	}
	return v, nil
}

// Func adapts a plain function into a Filter.
func Func(fn func(v any, args []string, ctx *Context) (any, error), names ...string) Filter {
	return &funcFilter{names: names, fn: fn}
}

type funcFilter struct {
	names []string
	fn    func(v any, args []string, ctx *Context) (any, error)
}

func (f *funcFilter) Names() []string { return f.names }

func (f *funcFilter) Apply(v any, args []string, ctx *Context) (any, error) {
	return f.fn(v, args, ctx)
}
