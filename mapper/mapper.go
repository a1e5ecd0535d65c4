// Package mapper orchestrates mapping passes: for each declared
// target-path/source-expression pair it resolves the source, runs the
// lifecycle hooks, iterates wildcard matches, optionally pipes record
// arrays through the query engine, and writes results into the target
// tree. Compiled mappings are cached and invalidated by content hash, so
// editing a mapping definition at runtime recompiles it transparently.
package mapper

import (
	"fmt"

	"github.com/event4u-app/data-helpers/access"
	"github.com/event4u-app/data-helpers/dotpath"
	"github.com/event4u-app/data-helpers/expr"
	"github.com/event4u-app/data-helpers/filters"
	"github.com/event4u-app/data-helpers/query"
)

// Pair maps one source expression to one target path.
type Pair struct {
	// Target is a dot-path in the output, optionally with one wildcard.
	Target string
	// Source is an expression: {{ path | filters }} or a verbatim
	// literal.
	Source string
	// Query filters/sorts/groups record arrays before they are written.
	Query *query.Query
	// SkipNull drops nil wildcard entries before positions are assigned.
	SkipNull bool
	// Reindex renumbers surviving wildcard entries densely.
	Reindex bool
}

// Mapping is an ordered list of pairs, compiled once per content hash.
type Mapping struct {
	// Name keys the compiled form in the cache; empty means "default".
	Name  string
	Pairs []Pair
}

// EngineConfig carries every switch of a mapping engine explicitly; there
// is no process-wide state, so tests never need a global reset.
type EngineConfig struct {
	ErrorMode           ErrorMode
	StrictSource        bool
	StrictTarget        bool
	ExpressionCacheSize int
	// Filters overrides the default filter registry.
	Filters *filters.Registry
}

// Engine runs mapping passes. Create once, use from any goroutine; the
// caches are concurrency-safe and everything else is immutable after
// setup. Register hooks and custom operators before the first pass.
type Engine struct {
	cfg      EngineConfig
	acc      *access.Accessor
	mut      *access.Mutator
	filters  *filters.Engine
	exprs    *expr.Cache
	eval     *expr.Evaluator
	queries  *query.Engine
	compiled *ContentHashCache
	hooks    []HookRegistration
}

// New wires an engine from cfg.
func New(cfg EngineConfig) *Engine {
	opts := access.Options{StrictSource: cfg.StrictSource, StrictTarget: cfg.StrictTarget}
	acc := access.NewAccessor(opts)
	feng := filters.NewEngine(cfg.Filters)
	return &Engine{
		cfg:      cfg,
		acc:      acc,
		mut:      access.NewMutator(opts),
		filters:  feng,
		exprs:    expr.NewCache(cfg.ExpressionCacheSize),
		eval:     expr.NewEvaluator(acc, feng),
		queries:  query.NewEngine(),
		compiled: NewContentHashCache(),
	}
}

// AddHooks attaches lifecycle hooks under a filter.
func (e *Engine) AddHooks(reg HookRegistration) {
	e.hooks = append(e.hooks, reg)
}

// Queries exposes the query engine for custom operator registration.
func (e *Engine) Queries() *query.Engine { return e.queries }

// Filters exposes the filter registry for plug-in registration.
func (e *Engine) Filters() *filters.Registry { return e.filters.Registry() }

// ExpressionCache exposes the parsed-expression cache for inspection.
func (e *Engine) ExpressionCache() *expr.Cache { return e.exprs }

// CompiledCache exposes the compiled-mapping cache for inspection.
func (e *Engine) CompiledCache() *ContentHashCache { return e.compiled }

// Map runs one pass of m over src, writing into target (which may be nil)
// and returning the updated target.
func (e *Engine) Map(m *Mapping, src any, target any) (any, error) {
	col := &collector{mode: e.cfg.ErrorMode}
	pairs, err := e.compile(m)
	if err != nil {
		if abort := col.absorb(err); abort != nil {
			return target, abort
		}
		return target, col.finish()
	}
	if !e.fireBeforeAll(ModeSingle, src, target) {
		return target, col.finish()
	}
	target, err = e.mapPairs(pairs, src, target, ModeSingle, -1, col)
	if err != nil {
		return target, err
	}
	e.fireAfterAll(ModeSingle, target)
	return target, col.finish()
}

// MapBatch maps every entry through the same pairs into one shared
// target. BeforeEntry returning false skips that entry only.
func (e *Engine) MapBatch(m *Mapping, entries []any, target any) (any, error) {
	col := &collector{mode: e.cfg.ErrorMode}
	pairs, err := e.compile(m)
	if err != nil {
		if abort := col.absorb(err); abort != nil {
			return target, abort
		}
		return target, col.finish()
	}
	if !e.fireBeforeAll(ModeBatch, entries, target) {
		return target, col.finish()
	}
	for i, entry := range entries {
		if !e.fireBeforeEntry(ModeBatch, i, entry) {
			continue
		}
		target, err = e.mapPairs(pairs, entry, target, ModeBatch, i, col)
		if err != nil {
			return target, err
		}
		e.fireAfterEntry(ModeBatch, i, target)
	}
	e.fireAfterAll(ModeBatch, target)
	return target, col.finish()
}

type compiledPair struct {
	pair   Pair
	target dotpath.Path
	source *expr.Expression
}

// compile parses all pair paths and expressions once; the result lives in
// the content-hash cache until the mapping definition changes.
func (e *Engine) compile(m *Mapping) ([]compiledPair, error) {
	key := m.Name
	if key == "" {
		key = "default"
	}
	v, err := e.compiled.GetOrCompute(key, m, func() (any, error) {
		pairs := make([]compiledPair, 0, len(m.Pairs))
		for i, p := range m.Pairs {
			target, err := dotpath.Parse(p.Target)
			if err != nil {
				return nil, fmt.Errorf("pair %d target: %w", i, err)
			}
			source, err := e.exprs.Parse(p.Source)
			if err != nil {
				return nil, fmt.Errorf("pair %d source: %w", i, err)
			}
			pairs = append(pairs, compiledPair{pair: p, target: target, source: source})
		}
		return pairs, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]compiledPair), nil
}

func (e *Engine) mapPairs(pairs []compiledPair, src, target any, mode PassMode, entryIdx int, col *collector) (any, error) {
	aliases := make(map[string]any)
	for pi, cp := range pairs {
		ctx := &PairContext{
			Target:     cp.target,
			Source:     cp.pair.Source,
			PairIndex:  pi,
			EntryIndex: entryIdx,
			Mode:       mode,
		}
		if !e.fireBeforePair(ctx) {
			continue
		}
		out, err := e.runPair(cp, ctx, src, target, aliases)
		if err != nil {
			if abort := col.absorb(err); abort != nil {
				return target, abort
			}
			continue
		}
		target = out
		e.fireAfterPair(ctx)
	}
	return target, nil
}

func (e *Engine) runPair(cp compiledPair, ctx *PairContext, src, target any, aliases map[string]any) (any, error) {
	value, err := e.eval.Evaluate(cp.source, src, aliases)
	if err != nil {
		return target, err
	}
	value = e.firePreTransform(value, ctx)

	var aliasValue any = value
	switch v := value.(type) {
	case *access.WildcardResult:
		if cp.pair.Query != nil {
			records, err := e.queryRecords(recordsFrom(v.Values()), cp, src, aliases)
			if err != nil {
				return target, err
			}
			target, err = e.writeRecords(target, cp, ctx, records)
			if err != nil {
				return target, err
			}
			aliasValue = anySlice(records)
			break
		}
		entries := access.Positions(v, access.WriteOptions{SkipNull: cp.pair.SkipNull, Reindex: cp.pair.Reindex})
		surviving := make([]any, 0, len(entries))
		for _, entry := range entries {
			concrete := cp.target.ReplaceWildcard(dotpath.Index(entry.Position))
			target, err = e.writeOne(target, concrete, entry.Value, ctx)
			if err != nil {
				return target, err
			}
			surviving = append(surviving, entry.Value)
		}
		aliasValue = surviving

	case []any:
		if cp.pair.Query != nil {
			records, err := e.queryRecords(recordsFrom(v), cp, src, aliases)
			if err != nil {
				return target, err
			}
			target, err = e.writeRecords(target, cp, ctx, records)
			if err != nil {
				return target, err
			}
			aliasValue = anySlice(records)
			break
		}
		target, err = e.writeOne(target, cp.target, v, ctx)
		if err != nil {
			return target, err
		}

	default:
		target, err = e.writeOne(target, cp.target, value, ctx)
		if err != nil {
			return target, err
		}
	}

	if name := aliasName(cp.target); name != "" {
		aliases[name] = aliasValue
	}
	return target, nil
}

func (e *Engine) queryRecords(records []query.Record, cp compiledPair, src any, aliases map[string]any) ([]query.Record, error) {
	return e.queries.Apply(records, cp.pair.Query, src, aliases)
}

// writeRecords writes a query result: indexed under the target wildcard
// when there is one, as a whole array otherwise.
func (e *Engine) writeRecords(target any, cp compiledPair, ctx *PairContext, records []query.Record) (any, error) {
	if !cp.target.HasWildcard() {
		return e.writeOne(target, cp.target, anySlice(records), ctx)
	}
	var err error
	for i, rec := range records {
		concrete := cp.target.ReplaceWildcard(dotpath.Index(i))
		target, err = e.writeOne(target, concrete, map[string]any(rec), ctx)
		if err != nil {
			return target, err
		}
	}
	return target, nil
}

// writeOne funnels every write through PostTransform, BeforeWrite, the
// mutator, and AfterWrite.
func (e *Engine) writeOne(target any, path dotpath.Path, v any, ctx *PairContext) (any, error) {
	v = e.firePostTransform(v, ctx)
	decision := e.fireBeforeWrite(v, ctx)
	if decision.Skipped() {
		return target, nil
	}
	out, err := e.mut.Set(target, path, decision.Value())
	if err != nil {
		return target, err
	}
	e.fireAfterWrite(decision.Value(), ctx)
	return out, nil
}

// aliasName is the top segment of the pair's target path; later pairs in
// the same pass reference the pair's result as @name.
func aliasName(target dotpath.Path) string {
	if target.IsEmpty() {
		return ""
	}
	seg := target.At(0)
	if seg.Kind != dotpath.KindLiteral {
		return ""
	}
	return seg.Key
}

// recordsFrom coerces wildcard values into query records; scalars wrap
// under a "value" key so they stay addressable.
func recordsFrom(values []any) []query.Record {
	records := make([]query.Record, len(values))
	for i, v := range values {
		if m, ok := v.(map[string]any); ok {
			records[i] = m
			continue
		}
		records[i] = query.Record{"value": v}
	}
	return records
}

func anySlice(records []query.Record) []any {
	out := make([]any, len(records))
	for i, rec := range records {
		out[i] = map[string]any(rec)
	}
	return out
}

// --- hook dispatch -------------------------------------------------------

func (e *Engine) fireBeforeAll(mode PassMode, src, target any) bool {
	for _, reg := range e.hooks {
		if reg.Hooks.BeforeAll == nil || !reg.Filter.matchesMode(mode) {
			continue
		}
		if !reg.Hooks.BeforeAll(src, target) {
			return false
		}
	}
	return true
}

func (e *Engine) fireAfterAll(mode PassMode, target any) {
	for _, reg := range e.hooks {
		if reg.Hooks.AfterAll != nil && reg.Filter.matchesMode(mode) {
			reg.Hooks.AfterAll(target)
		}
	}
}

func (e *Engine) fireBeforeEntry(mode PassMode, index int, entry any) bool {
	for _, reg := range e.hooks {
		if reg.Hooks.BeforeEntry == nil || !reg.Filter.matchesMode(mode) {
			continue
		}
		if !reg.Hooks.BeforeEntry(index, entry) {
			return false
		}
	}
	return true
}

func (e *Engine) fireAfterEntry(mode PassMode, index int, target any) {
	for _, reg := range e.hooks {
		if reg.Hooks.AfterEntry != nil && reg.Filter.matchesMode(mode) {
			reg.Hooks.AfterEntry(index, target)
		}
	}
}

func (e *Engine) fireBeforePair(ctx *PairContext) bool {
	for _, reg := range e.hooks {
		if reg.Hooks.BeforePair == nil || !reg.Filter.matchesPair(ctx) {
			continue
		}
		if !reg.Hooks.BeforePair(ctx) {
			return false
		}
	}
	return true
}

func (e *Engine) fireAfterPair(ctx *PairContext) {
	for _, reg := range e.hooks {
		if reg.Hooks.AfterPair != nil && reg.Filter.matchesPair(ctx) {
			reg.Hooks.AfterPair(ctx)
		}
	}
}

func (e *Engine) firePreTransform(v any, ctx *PairContext) any {
	for _, reg := range e.hooks {
		if reg.Hooks.PreTransform != nil && reg.Filter.matchesPair(ctx) {
			v = reg.Hooks.PreTransform(v, ctx)
		}
	}
	return v
}

func (e *Engine) firePostTransform(v any, ctx *PairContext) any {
	for _, reg := range e.hooks {
		if reg.Hooks.PostTransform != nil && reg.Filter.matchesPair(ctx) {
			v = reg.Hooks.PostTransform(v, ctx)
		}
	}
	return v
}

func (e *Engine) fireBeforeWrite(v any, ctx *PairContext) WriteDecision {
	decision := Write(v)
	for _, reg := range e.hooks {
		if reg.Hooks.BeforeWrite == nil || !reg.Filter.matchesPair(ctx) {
			continue
		}
		decision = reg.Hooks.BeforeWrite(decision.Value(), ctx)
		if decision.Skipped() {
			return decision
		}
	}
	return decision
}

func (e *Engine) fireAfterWrite(v any, ctx *PairContext) {
	for _, reg := range e.hooks {
		if reg.Hooks.AfterWrite != nil && reg.Filter.matchesPair(ctx) {
			reg.Hooks.AfterWrite(v, ctx)
		}
	}
}
