package builtin

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"vendoretl/internal/logging"
	"vendoretl/internal/transformer"
)

// aggFrame builds a frame shaped like the aggregate query output.
func aggFrame(t *testing.T, rows ...[]any) dataframe.DataFrame {
	t.Helper()
	names := []string{"VendorNumber", "VendorName", "Brand", "Description", "Volume",
		"TotalPurchaseQuantity", "TotalPurchaseDollars", "TotalSalesQuantity", "TotalSalesDollars"}
	types := []series.Type{series.Int, series.String, series.Int, series.String, series.String,
		series.Int, series.Float, series.Int, series.Float}
	cols := make([]series.Series, len(names))
	for j := range names {
		vals := make([]any, len(rows))
		for i, r := range rows {
			vals[i] = r[j]
		}
		cols[j] = series.New(vals, types[j], names[j])
	}
	df := dataframe.New(cols...)
	if df.Err != nil {
		t.Fatalf("dataframe.New: %v", df.Err)
	}
	return df
}

func floatAt(t *testing.T, df dataframe.DataFrame, col string, row int) float64 {
	t.Helper()
	return df.Col(col).Elem(row).Float()
}

func TestFillNull(t *testing.T) {
	t.Parallel()

	df := aggFrame(t,
		[]any{100, nil, 5, "Gin", nil, 50, 1000.0, nil, nil},
	)
	out, rep, err := FillNull{Logger: logging.Discard()}.Apply(context.Background(), df)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if rep.NullsFilled != 4 {
		t.Fatalf("NullsFilled = %d, want 4", rep.NullsFilled)
	}
	if got := out.Col("VendorName").Elem(0).String(); got != "0" {
		t.Fatalf("VendorName = %q, want \"0\"", got)
	}
	if got, _ := out.Col("TotalSalesQuantity").Elem(0).Int(); got != 0 {
		t.Fatalf("TotalSalesQuantity = %d, want 0", got)
	}
	if got := floatAt(t, out, "TotalSalesDollars", 0); got != 0 {
		t.Fatalf("TotalSalesDollars = %v, want 0", got)
	}
	for _, name := range out.Names() {
		if transformer.IsMissing(out.Col(name).Elem(0)) {
			t.Fatalf("column %s still missing", name)
		}
	}
	// The input frame is not modified.
	if !df.Col("VendorName").Elem(0).IsNA() {
		t.Fatalf("input frame was mutated")
	}
}

func TestDeDup_KeepsFirstOfIdenticalRows(t *testing.T) {
	t.Parallel()

	row := []any{100, "Acme", 5, "Gin", "750", 50, 1000.0, 40, 1500.0}
	other := []any{100, "Acme", 6, "Gin", "750", 50, 1000.0, 40, 1500.0}
	df := aggFrame(t, row, other, row, row)

	out, rep, err := DeDup{Logger: logging.Discard()}.Apply(context.Background(), df)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if rep.DuplicatesRemoved != 2 || out.Nrow() != 2 {
		t.Fatalf("removed=%d rows=%d; want 2, 2", rep.DuplicatesRemoved, out.Nrow())
	}
	if b, _ := out.Col("Brand").Elem(1).Int(); b != 6 {
		t.Fatalf("second row brand = %d, want 6 (order preserved)", b)
	}
}

// TestDeDup_FloatPrecision: cells equal to six decimals are still distinct.
func TestDeDup_FloatPrecision(t *testing.T) {
	t.Parallel()

	a := []any{1, "A", 1, "d", "1", 1, 0.1234567, 1, 1.0}
	b := []any{1, "A", 1, "d", "1", 1, 0.1234568, 1, 1.0}
	out, rep, err := DeDup{Logger: logging.Discard()}.Apply(context.Background(), aggFrame(t, a, b))
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if rep.DuplicatesRemoved != 0 || out.Nrow() != 2 {
		t.Fatalf("removed=%d rows=%d; want 0, 2", rep.DuplicatesRemoved, out.Nrow())
	}
}

func TestNormalize_TrimsOnlyText(t *testing.T) {
	t.Parallel()

	df := aggFrame(t, []any{100, "  Acme  ", 5, "Gin\t", " 750 ", 50, 1000.0, 40, 1500.0})
	out, rep, err := Normalize{Logger: logging.Discard()}.Apply(context.Background(), df)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got := out.Col("VendorName").Elem(0).String(); got != "Acme" {
		t.Fatalf("VendorName = %q, want Acme", got)
	}
	if got := out.Col("Description").Elem(0).String(); got != "Gin" {
		t.Fatalf("Description = %q, want Gin", got)
	}
	if rep.CellsTrimmed != 3 {
		t.Fatalf("CellsTrimmed = %d, want 3", rep.CellsTrimmed)
	}
	if got := floatAt(t, out, "TotalPurchaseDollars", 0); got != 1000 {
		t.Fatalf("numeric column changed: %v", got)
	}
}

func TestCoerce_Volume(t *testing.T) {
	t.Parallel()

	df := aggFrame(t,
		[]any{1, "A", 1, "d", "750", 1, 1.0, 1, 1.0},
		[]any{2, "B", 2, "d", " 1.75", 1, 1.0, 1, 1.0},
	)
	out, _, err := Coerce{Types: map[string]series.Type{"Volume": series.Float}}.Apply(context.Background(), df)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	v := out.Col("Volume")
	if v.Type() != series.Float {
		t.Fatalf("Volume type = %s, want float", v.Type())
	}
	if v.Elem(0).Float() != 750 || v.Elem(1).Float() != 1.75 {
		t.Fatalf("Volume = %v", v.Float())
	}
}

func TestCoerce_Errors(t *testing.T) {
	t.Parallel()

	df := aggFrame(t, []any{1, "A", 1, "d", "Unknown", 1, 1.0, 1, 1.0})
	_, _, err := Coerce{Types: map[string]series.Type{"Volume": series.Float}}.Apply(context.Background(), df)
	if err == nil {
		t.Fatalf("want error for non-numeric Volume")
	}

	_, _, err = Coerce{Types: map[string]series.Type{"Size": series.Float}}.Apply(context.Background(), df)
	if !errors.Is(err, transformer.ErrMissingColumn) {
		t.Fatalf("err = %v, want ErrMissingColumn", err)
	}
}

func TestEnrich_Scenario(t *testing.T) {
	t.Parallel()

	df := aggFrame(t, []any{100, "Acme", 5, "Gin", "750", 50, 1000.0, 40, 1500.0})
	out, rep, err := Enrich{}.Apply(context.Background(), df)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if rep.ColumnsDerived != 4 {
		t.Fatalf("ColumnsDerived = %d", rep.ColumnsDerived)
	}
	if got := floatAt(t, out, ColGrossProfit, 0); got != 500 {
		t.Fatalf("GrossProfit = %v, want 500", got)
	}
	if got := floatAt(t, out, ColProfitMargin, 0); math.Abs(got-100.0/3) > 1e-9 {
		t.Fatalf("ProfitMargin = %v, want 33.33...", got)
	}
	if got := floatAt(t, out, ColStockTurnOver, 0); got != 0.8 {
		t.Fatalf("StockTurnOver = %v, want 0.8", got)
	}
	if got := floatAt(t, out, ColSalesToPurchaseRatio, 0); got != 1.5 {
		t.Fatalf("SalesToPurchaseRatio = %v, want 1.5", got)
	}
}

func TestEnrich_ZeroGuards(t *testing.T) {
	t.Parallel()

	df := aggFrame(t,
		[]any{1, "A", 1, "d", "1", 50, 1000.0, 0, 0.0}, // purchase only
		[]any{2, "B", 2, "d", "1", 0, 0.0, 7, 70.0},    // sales only
	)
	out, _, err := Enrich{}.Apply(context.Background(), df)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got := floatAt(t, out, ColGrossProfit, 0); got != -1000 {
		t.Fatalf("GrossProfit = %v, want -1000", got)
	}
	for _, c := range []struct {
		col string
		row int
	}{
		{ColProfitMargin, 0}, {ColStockTurnOver, 0},
		{ColStockTurnOver, 1}, {ColSalesToPurchaseRatio, 1},
	} {
		got := floatAt(t, out, c.col, c.row)
		if got != 0 || math.IsNaN(got) || math.IsInf(got, 0) {
			t.Fatalf("%s[%d] = %v, want exactly 0", c.col, c.row, got)
		}
	}
	if got := floatAt(t, out, ColProfitMargin, 1); got != 100 {
		t.Fatalf("ProfitMargin[1] = %v, want 100", got)
	}
}

func TestEnrich_MissingColumn(t *testing.T) {
	t.Parallel()

	df := dataframe.New(series.New([]float64{1}, series.Float, "TotalSalesDollars"))
	_, _, err := Enrich{}.Apply(context.Background(), df)
	if !errors.Is(err, transformer.ErrMissingColumn) {
		t.Fatalf("err = %v, want ErrMissingColumn", err)
	}
}

// TestDefault_NullsCollapseDuplicates: rows differing only in nullness
// become duplicates once filled, and the chain runs end to end.
func TestDefault_NullsCollapseDuplicates(t *testing.T) {
	t.Parallel()

	df := aggFrame(t,
		[]any{100, " Acme ", 5, "Gin", "750", 50, 1000.0, 40, 1500.0},
		[]any{200, "Bolt", 7, "Rum", "1000", 10, 100.0, nil, nil},
		[]any{200, "Bolt", 7, "Rum", "1000", 10, 100.0, 0, 0.0},
	)
	out, rep, err := Default(logging.Discard()).Apply(context.Background(), df)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if rep.NullsFilled != 2 || rep.DuplicatesRemoved != 1 {
		t.Fatalf("report = %+v, want 2 nulls, 1 duplicate", rep)
	}
	if out.Nrow() != 2 || out.Ncol() != 13 {
		t.Fatalf("shape = %s, want (2, 13)", transformer.Shape(out))
	}
	if got := out.Col("VendorName").Elem(0).String(); got != "Acme" {
		t.Fatalf("VendorName = %q", got)
	}
	if out.Col("Volume").Type() != series.Float {
		t.Fatalf("Volume not coerced")
	}
	if got := floatAt(t, out, ColGrossProfit, 1); got != -100 {
		t.Fatalf("GrossProfit[1] = %v, want -100", got)
	}
}

// TestDefault_Idempotent re-runs the chain on its own output.
func TestDefault_Idempotent(t *testing.T) {
	t.Parallel()

	df := aggFrame(t,
		[]any{100, "Acme", 5, "Gin", "750", 50, 1000.0, 40, 1500.0},
		[]any{200, "Bolt", 7, "Rum", "1000", 10, 100.0, nil, nil},
		[]any{300, "Crate", 9, "Vodka", nil, 0, 0.0, 3, 30.0},
	)
	chain := Default(logging.Discard())
	once, _, err := chain.Apply(context.Background(), df)
	if err != nil {
		t.Fatalf("first Apply: %v", err)
	}
	twice, rep, err := chain.Apply(context.Background(), once)
	if err != nil {
		t.Fatalf("second Apply: %v", err)
	}
	if rep.NullsFilled != 0 || rep.DuplicatesRemoved != 0 || rep.CellsTrimmed != 0 {
		t.Fatalf("second pass changed data: %+v", rep)
	}
	if once.Nrow() != twice.Nrow() || once.Ncol() != twice.Ncol() {
		t.Fatalf("shape changed: %s -> %s", transformer.Shape(once), transformer.Shape(twice))
	}
	for _, name := range once.Names() {
		a, b := once.Col(name), twice.Col(name)
		for i := 0; i < a.Len(); i++ {
			if transformer.Render(a.Elem(i)) != transformer.Render(b.Elem(i)) {
				t.Fatalf("%s[%d]: %s -> %s", name, i, a.Elem(i), b.Elem(i))
			}
		}
	}
}
