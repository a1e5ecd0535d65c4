package mapper

import (
	"fmt"
	"strings"
)

// ErrorMode selects how failures inside one mapping pass surface.
type ErrorMode int

const (
	// FailFast aborts the pass on the first error.
	FailFast ErrorMode = iota
	// Collect accumulates all errors across the pass and returns them
	// together; a single collected error is returned bare.
	Collect
	// Silent absorbs failures: nothing is written for the failed pair
	// and no error is returned.
	Silent
)

// ErrorList aggregates the failures of one mapping pass under Collect.
type ErrorList []error

func (l ErrorList) Error() string {
	parts := make([]string, len(l))
	for i, err := range l {
		parts[i] = err.Error()
	}
	return fmt.Sprintf("%d mapping errors: %s", len(l), strings.Join(parts, "; "))
}

// Unwrap exposes the members to errors.Is and errors.As.
func (l ErrorList) Unwrap() []error { return l }

// collector buffers pass errors according to the engine's error mode.
type collector struct {
	mode ErrorMode
	errs []error
}

// absorb handles one failure. The returned error is non-nil only when the
// pass must abort immediately (FailFast).
func (c *collector) absorb(err error) error {
	if err == nil {
		return nil
	}
	switch c.mode {
	case Silent:
		return nil
	case Collect:
		c.errs = append(c.errs, err)
		return nil
	default:
		return err
	}
}

// finish returns the accumulated outcome of the pass.
func (c *collector) finish() error {
	switch len(c.errs) {
	case 0:
		return nil
	case 1:
		return c.errs[0]
	default:
		return ErrorList(c.errs)
	}
}
