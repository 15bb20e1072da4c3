// Package builtin contains the cleaning and enrichment steps of the
// aggregate pipeline.
//
// Default returns them in the order the pipeline depends on: missing values
// are filled before duplicates are detected, so rows that differ only in
// nullness collapse; enrichment runs last on trimmed, typed data.
package builtin

import (
	"log/slog"

	"github.com/go-gota/gota/series"

	"vendoretl/internal/transformer"
)

// Default returns FillNull, DeDup, Normalize, Coerce{Volume: float},
// Enrich and a final silent FillNull.
func Default(logger *slog.Logger) transformer.Chain {
	return transformer.Chain{
		FillNull{Logger: logger},
		DeDup{Logger: logger},
		Normalize{Logger: logger},
		Coerce{Types: map[string]series.Type{"Volume": series.Float}},
		Enrich{},
		FillNull{Silent: true},
	}
}

// valueOf returns e as the Go value series.New expects for t.
func valueOf(e series.Element, t series.Type) any {
	if transformer.IsMissing(e) {
		return nil
	}
	switch t {
	case series.Int:
		v, err := e.Int()
		if err != nil {
			return nil
		}
		return v
	case series.Float:
		return e.Float()
	case series.Bool:
		v, err := e.Bool()
		if err != nil {
			return nil
		}
		return v
	default:
		return e.String()
	}
}

// rebuild returns a copy of s whose i-th value is fn(i, elem). fn returns a
// value of s's type, or nil for missing.
func rebuild(s series.Series, fn func(i int, e series.Element) any) series.Series {
	vals := make([]any, s.Len())
	for i := range vals {
		vals[i] = fn(i, s.Elem(i))
	}
	return series.New(vals, s.Type(), s.Name)
}

func logger(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}
