// Package summary builds AggregatedTable: it prepares the table, runs the
// per-vendor/brand aggregation query and writes the transformed rows back.
package summary

import (
	"context"
	"fmt"
	"log/slog"

	"vendoretl/internal/ddl"
	"vendoretl/internal/storage"
)

// Table is the name of the aggregate table.
const Table = "AggregatedTable"

// TableDef returns the AggregatedTable definition. Columns are listed in
// write order; the primary key is (VendorNumber, Brand).
func TableDef() ddl.TableDef {
	col := func(name, kind string) ddl.ColumnDef {
		return ddl.ColumnDef{Name: name, Kind: kind, Nullable: true}
	}
	key := func(name string) ddl.ColumnDef {
		return ddl.ColumnDef{Name: name, Kind: ddl.KindInt, PrimaryKey: true}
	}
	return ddl.TableDef{
		FQN: Table,
		Columns: []ddl.ColumnDef{
			key("VendorNumber"),
			col("VendorName", ddl.KindVarchar),
			col("Description", ddl.KindVarchar),
			key("Brand"),
			col("PurchasePrice", ddl.KindDecimal),
			col("ActualPrice", ddl.KindDecimal),
			col("Volume", ddl.KindDecimal),
			col("TotalPurchaseQuantity", ddl.KindInt),
			col("TotalPurchaseDollars", ddl.KindDecimal),
			col("TotalSalesQuantity", ddl.KindInt),
			col("TotalSalesDollars", ddl.KindDecimal),
			col("TotalExciseTax", ddl.KindDecimal),
			col("TotalAdditionalCharges", ddl.KindDecimal),
			col("TotalSalesPrice", ddl.KindDecimal),
			col("GrossProfit", ddl.KindDecimal),
			col("ProfitMargin", ddl.KindDecimal),
			col("StockTurnOver", ddl.KindDecimal),
			col("SalesToPurchaseRatio", ddl.KindDecimal),
		},
	}
}

// Indexes returns the secondary indexes on the source tables' join and
// group keys.
func Indexes() []ddl.IndexDef {
	return []ddl.IndexDef{
		{Name: "idx_purchases_vendor_brand", Table: "purchases", Columns: []string{"VendorNumber", "Brand"}},
		{Name: "idx_purchase_prices_vendor_brand", Table: "purchase_prices", Columns: []string{"VendorNumber", "Brand"}},
		{Name: "idx_sales_vendor_brand", Table: "sales", Columns: []string{"VendorNo", "Brand"}},
		{Name: "idx_vendor_invoice_vendor", Table: "vendor_invoice", Columns: []string{"VendorNumber"}},
	}
}

// Result reports what Prepare could not do without failing.
type Result struct {
	// IndexErrors holds one error per index that could not be created.
	IndexErrors []error
}

// Preparer drops and recreates AggregatedTable and ensures the source
// indexes exist.
type Preparer struct {
	Repo   storage.Repository
	Logger *slog.Logger
}

// Prepare drops AggregatedTable if present, creates it empty and then
// creates the source-table indexes. Drop or create failures are returned.
// Index failures are logged at WARN and collected in Result; the table is
// usable without them.
func (p Preparer) Prepare(ctx context.Context) (Result, error) {
	var res Result
	log := loggerOr(p.Logger)

	def := TableDef()
	if err := storage.DropTable(ctx, p.Repo, def.FQN); err != nil {
		return res, fmt.Errorf("summary: %w", err)
	}
	if err := storage.CreateTable(ctx, p.Repo, def); err != nil {
		return res, fmt.Errorf("summary: %w", err)
	}
	log.Info("AggregatedTable created successfully.")

	for _, ix := range Indexes() {
		if err := storage.EnsureIndex(ctx, p.Repo, ix); err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			log.Warn("index not created", "index", ix.Name, "table", ix.Table, "error", err)
			res.IndexErrors = append(res.IndexErrors, err)
		}
	}
	if len(res.IndexErrors) == 0 {
		log.Info("Indexes created successfully.")
	} else {
		log.Warn(fmt.Sprintf("%d of %d indexes could not be created", len(res.IndexErrors), len(Indexes())))
	}
	return res, nil
}

func loggerOr(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}
