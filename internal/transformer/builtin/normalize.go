package builtin

import (
	"context"
	"log/slog"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"vendoretl/internal/transformer"
)

// Normalize strips leading and trailing whitespace from every text cell.
// Numeric and boolean columns are left untouched.
type Normalize struct {
	Logger *slog.Logger
}

func (Normalize) Name() string { return "normalize" }

func (n Normalize) Apply(_ context.Context, df dataframe.DataFrame) (dataframe.DataFrame, transformer.Report, error) {
	var rep transformer.Report
	out := df
	for _, name := range df.Names() {
		s := df.Col(name)
		if s.Type() != series.String {
			continue
		}
		changed := 0
		trimmed := rebuild(s, func(_ int, e series.Element) any {
			if transformer.IsMissing(e) {
				return nil
			}
			v := e.String()
			t := strings.TrimSpace(v)
			if t != v {
				changed++
			}
			return t
		})
		if changed > 0 {
			out = out.Mutate(trimmed)
			rep.CellsTrimmed += changed
		}
	}
	logger(n.Logger).Info("Trimmed spaces in string columns", "cells", rep.CellsTrimmed)
	return out, rep, out.Err
}
