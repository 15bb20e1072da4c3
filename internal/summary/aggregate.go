package summary

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"vendoretl/internal/storage"
	"vendoretl/internal/transformer"
)

// aggregateTemplate pre-aggregates freight, purchases and sales separately
// and joins them on the purchase side. {Name} marks an identifier quoted
// with the backend's dialect.
//
// Fan-out: purchaseSummary groups by the purchase_prices columns too, so a
// vendor/brand with several (Price, PurchasePrice, Volume) tuples yields one
// row per tuple.
const aggregateTemplate = `
WITH freightSummary AS (
    SELECT {VendorNumber}, SUM({Freight}) AS {AdditionalCharges}
    FROM {vendor_invoice}
    GROUP BY {VendorNumber}
),
purchaseSummary AS (
    SELECT
        p.{VendorNumber},
        p.{VendorName},
        p.{Description},
        p.{Brand},
        pp.{Price} AS {ActualPrice},
        pp.{PurchasePrice},
        pp.{Volume},
        SUM(p.{Quantity}) AS {TotalPurchaseQuantity},
        SUM(p.{Dollars}) AS {TotalPurchaseDollars}
    FROM {purchases} AS p
    JOIN {purchase_prices} AS pp
      ON p.{VendorNumber} = pp.{VendorNumber}
     AND p.{Brand} = pp.{Brand}
    GROUP BY p.{VendorNumber}, p.{VendorName}, p.{Description}, p.{Brand},
             pp.{Price}, pp.{PurchasePrice}, pp.{Volume}
),
salesSummary AS (
    SELECT
        {VendorNo},
        {VendorName},
        {Brand},
        SUM({SalesQuantity}) AS {TotalSalesQuantity},
        SUM({ExciseTax}) AS {TotalExciseTax},
        SUM({SalesPrice}) AS {TotalSalesPrice},
        SUM({SalesDollars}) AS {TotalSalesDollars}
    FROM {sales}
    GROUP BY {VendorNo}, {VendorName}, {Brand}
)
SELECT
    ps.{VendorNumber},
    ps.{VendorName},
    ps.{Brand},
    ps.{Description},
    ps.{ActualPrice},
    ps.{PurchasePrice},
    ps.{Volume},
    ps.{TotalPurchaseQuantity},
    ps.{TotalPurchaseDollars},
    ss.{TotalSalesQuantity},
    ss.{TotalExciseTax},
    ss.{TotalSalesPrice},
    fs.{AdditionalCharges},
    ss.{TotalSalesDollars}
FROM purchaseSummary AS ps
LEFT JOIN salesSummary AS ss
  ON ps.{VendorNumber} = ss.{VendorNo} AND ps.{Brand} = ss.{Brand}
LEFT JOIN freightSummary AS fs
  ON ps.{VendorNumber} = fs.{VendorNumber}
`

var identRe = regexp.MustCompile(`\{(\w+)\}`)

// AggregateSQL renders the aggregation query for d.
func AggregateSQL(d storage.Dialect) string {
	return identRe.ReplaceAllStringFunc(aggregateTemplate, func(m string) string {
		return d.QuoteIdent(m[1 : len(m)-1])
	})
}

// column is one output column of the aggregation query.
type column struct {
	name string
	typ  series.Type
}

// columns is the aggregation query's output, in SELECT order. Volume stays
// text; the transformer coerces it.
var columns = []column{
	{"VendorNumber", series.Int},
	{"VendorName", series.String},
	{"Brand", series.Int},
	{"Description", series.String},
	{"ActualPrice", series.Float},
	{"PurchasePrice", series.Float},
	{"Volume", series.String},
	{"TotalPurchaseQuantity", series.Int},
	{"TotalPurchaseDollars", series.Float},
	{"TotalSalesQuantity", series.Int},
	{"TotalExciseTax", series.Float},
	{"TotalSalesPrice", series.Float},
	{"AdditionalCharges", series.Float},
	{"TotalSalesDollars", series.Float},
}

// Aggregator runs the aggregation query into a dataframe.
type Aggregator struct {
	Repo   storage.Repository
	Logger *slog.Logger
}

// Run executes the aggregation and returns one row per purchase group. SQL
// NULLs (unmatched sales or freight) are missing values in the frame. An
// empty result is a zero-row frame, not an error.
func (a Aggregator) Run(ctx context.Context) (dataframe.DataFrame, error) {
	start := time.Now()

	vals := make([][]any, len(columns))
	_, err := a.Repo.Query(ctx, AggregateSQL(a.Repo.Dialect()), func(rs storage.RowScanner) error {
		dest := make([]any, len(columns))
		for i, c := range columns {
			switch c.typ {
			case series.Int:
				dest[i] = new(sql.NullInt64)
			case series.Float:
				dest[i] = new(sql.NullFloat64)
			default:
				dest[i] = new(sql.NullString)
			}
		}
		if err := rs.Scan(dest...); err != nil {
			return err
		}
		for i, d := range dest {
			vals[i] = append(vals[i], scanned(d))
		}
		return nil
	})
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("summary: aggregate: %w", err)
	}

	cols := make([]series.Series, len(columns))
	for i, c := range columns {
		if vals[i] == nil {
			vals[i] = []any{}
		}
		cols[i] = series.New(vals[i], c.typ, c.name)
	}
	df := dataframe.New(cols...)
	if df.Err != nil {
		return df, fmt.Errorf("summary: aggregate: %w", df.Err)
	}

	loggerOr(a.Logger).Info(fmt.Sprintf("Aggregated Table created with %d records. Shape: %s. Time taken: %.2f sec",
		df.Nrow(), transformer.Shape(df), time.Since(start).Seconds()))
	return df, nil
}

// scanned unwraps a sql.Null* into the value series.New expects; nil marks a
// missing cell.
func scanned(d any) any {
	switch v := d.(type) {
	case *sql.NullInt64:
		if v.Valid {
			return int(v.Int64)
		}
	case *sql.NullFloat64:
		if v.Valid {
			return v.Float64
		}
	case *sql.NullString:
		if v.Valid {
			return v.String
		}
	}
	return nil
}
