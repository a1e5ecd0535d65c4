package query

// Builder is the call-order execution mode: every method applies its
// operator immediately, so Where(...).OrderBy(...).Limit(...) and
// OrderBy(...).Limit(...).Where(...) produce different results. This is
// deliberately distinct from Engine.Apply's fixed pipeline; hosts choose
// one mode per use.
type Builder struct {
	records []Record
	err     error
}

// From starts a builder over records. The input slice is not modified.
func From(records []Record) *Builder {
	return &Builder{records: append([]Record(nil), records...)}
}

// Where keeps records matching cond.
func (b *Builder) Where(cond Condition) *Builder {
	if b.err != nil {
		return b
	}
	b.records, b.err = applyWhere(b.records, &cond)
	return b
}

// Distinct keeps the first record per distinct field value.
func (b *Builder) Distinct(field string) *Builder {
	if b.err != nil {
		return b
	}
	b.records = applyDistinct(b.records, field)
	return b
}

// Like keeps records whose field matches the % pattern.
func (b *Builder) Like(field, pattern string) *Builder {
	if b.err != nil {
		return b
	}
	b.records = applyLike(b.records, &LikeSpec{Field: field, Pattern: pattern})
	return b
}

// NotLike keeps records whose field does not match the % pattern.
func (b *Builder) NotLike(field, pattern string) *Builder {
	if b.err != nil {
		return b
	}
	b.records = applyLike(b.records, &LikeSpec{Field: field, Pattern: pattern, Not: true})
	return b
}

// GroupBy groups at this point in the chain; the records downstream are
// the flattened group records (key fields plus aggregates).
func (b *Builder) GroupBy(fields []string, specs ...AggregateSpec) *Builder {
	if b.err != nil {
		return b
	}
	groups, err := applyGroupBy(b.records, fields, specs)
	if err != nil {
		b.err = err
		return b
	}
	out := make([]Record, len(groups))
	for i, g := range groups {
		out[i] = groupRecord(g, fields)
	}
	b.records = out
	return b
}

// Having filters records at this point in the chain; after GroupBy the
// visible fields are key fields and aggregate names.
func (b *Builder) Having(cond Condition) *Builder {
	return b.Where(cond)
}

// OrderBy sorts at this point in the chain.
func (b *Builder) OrderBy(keys ...OrderKey) *Builder {
	if b.err != nil {
		return b
	}
	b.records = applyOrderBy(b.records, keys)
	return b
}

// Offset drops the first n records at this point in the chain.
func (b *Builder) Offset(n int) *Builder {
	if b.err != nil {
		return b
	}
	b.records = applySlice(b.records, n, 0)
	return b
}

// Limit keeps at most n records at this point in the chain.
func (b *Builder) Limit(n int) *Builder {
	if b.err != nil {
		return b
	}
	b.records = applySlice(b.records, 0, n)
	return b
}

// Records returns the accumulated result or the first error encountered.
func (b *Builder) Records() ([]Record, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.records, nil
}
