package summary

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/shopspring/decimal"

	"vendoretl/internal/ddl"
	"vendoretl/internal/storage"
	"vendoretl/internal/transformer"
)

// decimalPlaces matches the DECIMAL(15,4) money columns.
const decimalPlaces = 4

// frameNames maps AggregatedTable columns whose frame column is named
// differently.
var frameNames = map[string]string{
	"TotalAdditionalCharges": "AdditionalCharges",
}

// Writer appends a transformed frame to AggregatedTable.
type Writer struct {
	Repo   storage.Repository
	Logger *slog.Logger
}

// Write converts every row of df to AggregatedTable's column types and
// appends them with a single CopyFrom. The append is all-or-nothing: a
// primary key collision anywhere in the frame leaves the table untouched.
func (w Writer) Write(ctx context.Context, df dataframe.DataFrame) (int64, error) {
	def := TableDef()
	srcs := make([]string, len(def.Columns))
	for i, c := range def.Columns {
		srcs[i] = c.Name
		if n, ok := frameNames[c.Name]; ok {
			srcs[i] = n
		}
	}
	if err := transformer.Require(df, srcs...); err != nil {
		return 0, fmt.Errorf("summary: write: %w", err)
	}

	cols := make([]series.Series, len(srcs))
	for i, n := range srcs {
		cols[i] = df.Col(n)
	}

	rows := df.Nrow()
	in := make(chan []any, rows)
	for r := 0; r < rows; r++ {
		row := make([]any, len(cols))
		for j, s := range cols {
			v, err := cellValue(s.Elem(r), def.Columns[j].Kind)
			if err != nil {
				return 0, fmt.Errorf("summary: write: %s row %d: %w", def.Columns[j].Name, r, err)
			}
			row[j] = v
		}
		in <- row
	}
	close(in)

	// One batch holding the whole frame.
	batch := max(rows, 1)
	n, err := storage.LoadBatches(ctx, w.Logger, def.ColumnNames(), in, batch, storage.CopyInto(w.Repo, def.FQN))
	if err != nil {
		return n, fmt.Errorf("summary: write: %w", err)
	}
	loggerOr(w.Logger).Info("Aggregated Table data inserted successfully.", "rows", n)
	return n, nil
}

// cellValue converts e to the Go value the drivers accept for kind. Missing
// cells become NULL.
func cellValue(e series.Element, kind string) (any, error) {
	if transformer.IsMissing(e) {
		return nil, nil
	}
	switch kind {
	case ddl.KindInt, ddl.KindBigInt:
		switch e.Type() {
		case series.Float:
			f := e.Float()
			if f != math.Trunc(f) || math.Abs(f) > math.MaxInt64 {
				return nil, fmt.Errorf("%v is not an integer", f)
			}
			return int64(f), nil
		case series.String:
			d, err := decimal.NewFromString(strings.TrimSpace(e.String()))
			if err != nil || !d.IsInteger() {
				return nil, fmt.Errorf("%q is not an integer", e.String())
			}
			return d.IntPart(), nil
		}
		v, err := e.Int()
		if err != nil {
			return nil, err
		}
		return int64(v), nil
	case ddl.KindDecimal, ddl.KindFloat:
		var d decimal.Decimal
		if e.Type() == series.String {
			var err error
			if d, err = decimal.NewFromString(strings.TrimSpace(e.String())); err != nil {
				return nil, fmt.Errorf("%q is not a number", e.String())
			}
		} else {
			f := e.Float()
			if math.IsInf(f, 0) {
				return nil, fmt.Errorf("%v is not a finite number", f)
			}
			d = decimal.NewFromFloat(f)
		}
		if kind == ddl.KindFloat {
			return d.InexactFloat64(), nil
		}
		return d.Round(decimalPlaces).InexactFloat64(), nil
	default:
		return e.String(), nil
	}
}
