// Package expr parses and evaluates the template expression language:
//
//	{{ path.to.value | filter:arg ?? "default" }}
//
// An expression references a source path or a sibling alias (@name), may
// supply a default applied before filters, and may chain filters. A string
// not wrapped in {{ }} is not parsed at all: it is a literal used verbatim,
// which is the escape hatch for static values.
package expr

import (
	"github.com/event4u-app/data-helpers/dotpath"
	"github.com/event4u-app/data-helpers/filters"
)

// Node is one node of a parsed expression tree.
type Node interface {
	node()
}

// PathNode references a dot-path in the source.
type PathNode struct {
	Path dotpath.Path
}

// AliasNode references a sibling value resolved earlier in the same
// mapping pass, written @name.
type AliasNode struct {
	Name string
}

// LiteralNode is a constant value.
type LiteralNode struct {
	Value any
}

// DefaultNode supplies a fallback when its inner node resolves to an
// absent or nil value. Defaults apply before any filter runs.
type DefaultNode struct {
	Inner    Node
	Fallback any
}

// FilterChainNode pipes its inner node through filters, left to right.
type FilterChainNode struct {
	Inner Node
	Chain []filters.Call
}

func (PathNode) node()        {}
func (AliasNode) node()       {}
func (LiteralNode) node()     {}
func (DefaultNode) node()     {}
func (FilterChainNode) node() {}

// Expression is an immutable parsed expression, cached by raw text.
type Expression struct {
	raw     string
	root    Node
	literal bool
}

// Raw returns the original expression text.
func (x *Expression) Raw() string { return x.raw }

// IsLiteral reports whether the raw text had no {{ }} wrapper and is used
// verbatim.
func (x *Expression) IsLiteral() bool { return x.literal }

// Root returns the root AST node.
func (x *Expression) Root() Node { return x.root }
