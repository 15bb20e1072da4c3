package builtin

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"vendoretl/internal/transformer"
)

// FillNull replaces every missing cell with the zero of its column: 0 for
// numbers, false for booleans and "0" for text.
type FillNull struct {
	Logger *slog.Logger
	// Silent suppresses the summary log line.
	Silent bool
}

func (FillNull) Name() string { return "fill_null" }

func (f FillNull) Apply(_ context.Context, df dataframe.DataFrame) (dataframe.DataFrame, transformer.Report, error) {
	var rep transformer.Report
	out := df
	for _, name := range df.Names() {
		s := df.Col(name)
		missing := 0
		for i := 0; i < s.Len(); i++ {
			if transformer.IsMissing(s.Elem(i)) {
				missing++
			}
		}
		if missing == 0 {
			continue
		}
		t := s.Type()
		zero := zeroOf(t)
		out = out.Mutate(rebuild(s, func(_ int, e series.Element) any {
			if transformer.IsMissing(e) {
				return zero
			}
			return valueOf(e, t)
		}))
		rep.NullsFilled += missing
	}
	if rep.NullsFilled > 0 && !f.Silent {
		logger(f.Logger).Info(fmt.Sprintf("Replaced %d missing values with 0", rep.NullsFilled))
	}
	return out, rep, out.Err
}

func zeroOf(t series.Type) any {
	switch t {
	case series.Int:
		return 0
	case series.Float:
		return 0.0
	case series.Bool:
		return false
	default:
		return "0"
	}
}
