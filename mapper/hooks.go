package mapper

import (
	"strings"

	"github.com/event4u-app/data-helpers/dotpath"
)

// PassMode distinguishes a single mapping pass from a batch pass.
type PassMode int

const (
	// ModeAny matches both pass kinds in a HookFilter.
	ModeAny PassMode = iota
	// ModeSingle is one source mapped once.
	ModeSingle
	// ModeBatch is a list of entries mapped through the same pairs.
	ModeBatch
)

// PairContext describes the pair currently being mapped; hooks receive it
// on every per-pair callback.
type PairContext struct {
	// Target is the parsed target path of the pair.
	Target dotpath.Path
	// Source is the raw source expression text.
	Source string
	// PairIndex is the position of the pair in the mapping.
	PairIndex int
	// EntryIndex is the batch entry being processed, -1 outside batches.
	EntryIndex int
	// Mode reports the kind of the surrounding pass.
	Mode PassMode
}

// WriteDecision is the result of a BeforeWrite hook: either write a
// (possibly replaced) value or skip the write entirely.
type WriteDecision struct {
	write bool
	value any
}

// Write proceeds with v as the written value.
func Write(v any) WriteDecision { return WriteDecision{write: true, value: v} }

// Skip suppresses the write for this value.
func Skip() WriteDecision { return WriteDecision{} }

// Skipped reports whether the decision suppresses the write.
func (d WriteDecision) Skipped() bool { return !d.write }

// Value returns the value to write.
func (d WriteDecision) Value() any { return d.value }

// Hooks are the lifecycle callbacks of a mapping pass. Every field is
// optional. Before* hooks returning false cancel their scope only: the
// whole pass for BeforeAll, one batch entry for BeforeEntry, one pair for
// BeforePair.
type Hooks struct {
	BeforeAll func(src any, target any) bool
	AfterAll  func(target any)

	BeforeEntry func(index int, entry any) bool
	AfterEntry  func(index int, target any)

	BeforePair func(ctx *PairContext) bool
	AfterPair  func(ctx *PairContext)

	// PreTransform runs on the resolved value before wildcard iteration;
	// PostTransform runs on each value about to be written.
	PreTransform  func(v any, ctx *PairContext) any
	PostTransform func(v any, ctx *PairContext) any

	BeforeWrite func(v any, ctx *PairContext) WriteDecision
	AfterWrite  func(v any, ctx *PairContext)
}

// HookFilter restricts a hook registration to matching pairs. The zero
// value matches everything. Prefixes match on raw path/expression text;
// Mode restricts to single or batch passes.
type HookFilter struct {
	SourcePrefix string
	TargetPrefix string
	Mode         PassMode
}

// HookRegistration attaches hooks under a filter.
type HookRegistration struct {
	Filter HookFilter
	Hooks  Hooks
}

func (f HookFilter) matchesMode(mode PassMode) bool {
	return f.Mode == ModeAny || f.Mode == mode
}

func (f HookFilter) matchesPair(ctx *PairContext) bool {
	if !f.matchesMode(ctx.Mode) {
		return false
	}
	if f.SourcePrefix != "" && !strings.HasPrefix(ctx.Source, f.SourcePrefix) {
		return false
	}
	if f.TargetPrefix != "" && !strings.HasPrefix(ctx.Target.String(), f.TargetPrefix) {
		return false
	}
	return true
}
