package builtin

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"vendoretl/internal/transformer"
)

// Coerce converts columns to the given types. Missing cells stay missing; a
// present value that cannot be represented in the target type is an error.
type Coerce struct {
	Types map[string]series.Type // column -> target type
}

func (Coerce) Name() string { return "coerce" }

func (c Coerce) Apply(_ context.Context, df dataframe.DataFrame) (dataframe.DataFrame, transformer.Report, error) {
	var rep transformer.Report
	if len(c.Types) == 0 {
		return df, rep, nil
	}
	names := make([]string, 0, len(c.Types))
	for name := range c.Types {
		names = append(names, name)
	}
	sort.Strings(names)
	if err := transformer.Require(df, names...); err != nil {
		return df, rep, err
	}

	out := df
	for _, name := range names {
		s := df.Col(name)
		to := c.Types[name]
		if s.Type() == to {
			continue
		}
		vals := make([]any, s.Len())
		for i := range vals {
			v, err := convert(s.Elem(i), to)
			if err != nil {
				return df, rep, fmt.Errorf("%s row %d: %w", name, i, err)
			}
			vals[i] = v
		}
		out = out.Mutate(series.New(vals, to, name))
		rep.ValuesCoerced += len(vals)
	}
	return out, rep, out.Err
}

func convert(e series.Element, to series.Type) (any, error) {
	if transformer.IsMissing(e) {
		return nil, nil
	}
	switch to {
	case series.Float:
		if e.Type() == series.String {
			f, err := strconv.ParseFloat(strings.TrimSpace(e.String()), 64)
			if err != nil {
				return nil, fmt.Errorf("%q is not a number", e.String())
			}
			return f, nil
		}
		return e.Float(), nil
	case series.Int:
		switch e.Type() {
		case series.Float:
			f := e.Float()
			if f != math.Trunc(f) || math.Abs(f) > math.MaxInt64 {
				return nil, fmt.Errorf("%v is not an integer", f)
			}
			return int(f), nil
		case series.String:
			i, err := strconv.Atoi(strings.TrimSpace(e.String()))
			if err != nil {
				return nil, fmt.Errorf("%q is not an integer", e.String())
			}
			return i, nil
		}
		return e.Int()
	case series.Bool:
		return e.Bool()
	default:
		if e.Type() == series.Float {
			return strconv.FormatFloat(e.Float(), 'f', -1, 64), nil
		}
		return e.String(), nil
	}
}
