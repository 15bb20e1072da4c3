// Package transformer runs ordered cleaning and enrichment steps over an
// in-memory dataframe. Concrete steps live in the builtin subpackage.
package transformer

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-gota/gota/dataframe"
)

// ErrMissingColumn is returned by a step whose input frame lacks a column it
// needs.
var ErrMissingColumn = errors.New("transformer: missing column")

// Report counts what the steps of a chain changed.
type Report struct {
	NullsFilled       int
	DuplicatesRemoved int
	CellsTrimmed      int
	ValuesCoerced     int
	ColumnsDerived    int
}

// Add accumulates o into r.
func (r *Report) Add(o Report) {
	r.NullsFilled += o.NullsFilled
	r.DuplicatesRemoved += o.DuplicatesRemoved
	r.CellsTrimmed += o.CellsTrimmed
	r.ValuesCoerced += o.ValuesCoerced
	r.ColumnsDerived += o.ColumnsDerived
}

// Step is one pass over a frame. Steps never modify their input; they return
// a new frame.
type Step interface {
	Name() string
	Apply(ctx context.Context, df dataframe.DataFrame) (dataframe.DataFrame, Report, error)
}

// Chain is an ordered list of steps.
type Chain []Step

// Apply runs every step in order. On failure it returns the frame produced
// by the last successful step, the report so far and the wrapped error.
func (c Chain) Apply(ctx context.Context, df dataframe.DataFrame) (dataframe.DataFrame, Report, error) {
	var total Report
	if df.Err != nil {
		return df, total, fmt.Errorf("transformer: input frame: %w", df.Err)
	}
	out := df
	for _, s := range c {
		if err := ctx.Err(); err != nil {
			return out, total, err
		}
		next, rep, err := s.Apply(ctx, out)
		total.Add(rep)
		if err != nil {
			return out, total, fmt.Errorf("transformer: %s: %w", s.Name(), err)
		}
		if next.Err != nil {
			return out, total, fmt.Errorf("transformer: %s: %w", s.Name(), next.Err)
		}
		out = next
	}
	return out, total, nil
}
