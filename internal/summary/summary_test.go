package summary

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"vendoretl/internal/ingest"
	"vendoretl/internal/logging"
	"vendoretl/internal/storage"
	"vendoretl/internal/storage/sqlite"
	"vendoretl/internal/transformer/builtin"
)

func newRepo(t *testing.T) storage.Repository {
	t.Helper()
	r, err := sqlite.Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("sqlite.Open: %v", err)
	}
	t.Cleanup(r.Close)
	return r
}

// seed loads the given CSV bodies, keyed by table name, through the bulk
// loader.
func seed(t *testing.T, repo storage.Repository, files map[string]string) {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name+".csv"), []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	l := &ingest.Loader{Repo: repo, Logger: logging.Discard(), ChunkSize: 2}
	sum, err := l.LoadDir(context.Background(), dir)
	if err != nil || sum.Failed != 0 {
		t.Fatalf("LoadDir: err=%v failed=%d", err, sum.Failed)
	}
}

func count(t *testing.T, repo storage.Repository, table string) int64 {
	t.Helper()
	var n int64
	_, err := repo.Query(context.Background(), "SELECT COUNT(*) FROM "+repo.Dialect().QuoteFQN(table), func(rs storage.RowScanner) error {
		return rs.Scan(&n)
	})
	if err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}

// metricsRow reads the numeric columns of one AggregatedTable row.
func metricsRow(t *testing.T, repo storage.Repository, vendor, brand int) map[string]float64 {
	t.Helper()
	names := []string{
		"TotalPurchaseQuantity", "TotalPurchaseDollars", "TotalSalesQuantity", "TotalSalesDollars",
		"TotalAdditionalCharges", "GrossProfit", "ProfitMargin", "StockTurnOver",
		"SalesToPurchaseRatio", "Volume",
	}
	d := repo.Dialect()
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = d.QuoteIdent(n)
	}
	q := "SELECT " + strings.Join(quoted, ", ") + " FROM " + d.QuoteFQN(Table) +
		" WHERE " + d.QuoteIdent("VendorNumber") + " = " + strconv.Itoa(vendor) +
		" AND " + d.QuoteIdent("Brand") + " = " + strconv.Itoa(brand)

	vals := make([]float64, len(names))
	n, err := repo.Query(context.Background(), q, func(rs storage.RowScanner) error {
		dest := make([]any, len(vals))
		for i := range vals {
			dest[i] = &vals[i]
		}
		return rs.Scan(dest...)
	})
	if err != nil || n != 1 {
		t.Fatalf("read %d/%d: n=%d err=%v", vendor, brand, n, err)
	}
	out := make(map[string]float64, len(names))
	for i, name := range names {
		out[name] = vals[i]
	}
	return out
}

var scenario = map[string]string{
	"purchases": "VendorNumber,VendorName,Description,Brand,Quantity,Dollars\n" +
		"100,Acme ,Gin 750,5,30,600\n" +
		"100,Acme ,Gin 750,5,20,400\n" +
		"200,Bolt,Rum,7,10,100\n",
	"purchase_prices": "VendorNumber,Brand,Price,PurchasePrice,Volume\n" +
		"100,5,37.5,20,750\n" +
		"200,7,12,10,1000\n",
	"sales": "VendorNo,VendorName,Brand,SalesQuantity,ExciseTax,SalesPrice,SalesDollars\n" +
		"100,Acme,5,25,1.5,37.5,937.5\n" +
		"100,Acme,5,15,0.5,37.5,562.5\n",
	"vendor_invoice": "VendorNumber,Freight\n" +
		"100,12.5\n" +
		"100,7.5\n",
}

func runPipeline(t *testing.T, repo storage.Repository) int64 {
	t.Helper()
	ctx := context.Background()
	log := logging.Discard()

	if _, err := (Preparer{Repo: repo, Logger: log}).Prepare(ctx); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	df, err := Aggregator{Repo: repo, Logger: log}.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	df, _, err = builtin.Default(log).Apply(ctx, df)
	if err != nil {
		t.Fatalf("transform: %v", err)
	}
	n, err := Writer{Repo: repo, Logger: log}.Write(ctx, df)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	return n
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestPipeline_EndToEnd(t *testing.T) {
	t.Parallel()

	repo := newRepo(t)
	seed(t, repo, scenario)

	if n := runPipeline(t, repo); n != 2 {
		t.Fatalf("inserted = %d, want 2", n)
	}
	if got := count(t, repo, Table); got != 2 {
		t.Fatalf("rows in %s = %d, want 2", Table, got)
	}

	acme := metricsRow(t, repo, 100, 5)
	want := map[string]float64{
		"TotalPurchaseQuantity":  50,
		"TotalPurchaseDollars":   1000,
		"TotalSalesQuantity":     40,
		"TotalSalesDollars":      1500,
		"TotalAdditionalCharges": 20,
		"GrossProfit":            500,
		"ProfitMargin":           33.3333,
		"StockTurnOver":          0.8,
		"SalesToPurchaseRatio":   1.5,
		"Volume":                 750,
	}
	for k, v := range want {
		if !near(acme[k], v) {
			t.Errorf("vendor 100 %s = %v, want %v", k, acme[k], v)
		}
	}
}

// TestPipeline_PurchaseOnly: a vendor/brand without sales or freight keeps
// its purchase totals and gets guarded zero metrics.
func TestPipeline_PurchaseOnly(t *testing.T) {
	t.Parallel()

	repo := newRepo(t)
	seed(t, repo, scenario)
	runPipeline(t, repo)

	bolt := metricsRow(t, repo, 200, 7)
	want := map[string]float64{
		"TotalPurchaseDollars":   100,
		"TotalSalesQuantity":     0,
		"TotalSalesDollars":      0,
		"TotalAdditionalCharges": 0,
		"GrossProfit":            -100,
		"ProfitMargin":           0,
		"StockTurnOver":          0,
		"SalesToPurchaseRatio":   0,
	}
	for k, v := range want {
		if bolt[k] != v {
			t.Errorf("vendor 200 %s = %v, want %v", k, bolt[k], v)
		}
	}
}

// TestPipeline_FanOutCollides: two price rows for one vendor/brand produce
// two aggregate rows, and the primary key rejects the write as a whole.
func TestPipeline_FanOutCollides(t *testing.T) {
	t.Parallel()

	repo := newRepo(t)
	files := map[string]string{}
	for k, v := range scenario {
		files[k] = v
	}
	files["purchase_prices"] += "100,5,39.99,21,750\n"
	seed(t, repo, files)

	ctx := context.Background()
	log := logging.Discard()
	if _, err := (Preparer{Repo: repo, Logger: log}).Prepare(ctx); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	df, err := Aggregator{Repo: repo, Logger: log}.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	acme := 0
	vn := df.Col("VendorNumber")
	for i := 0; i < vn.Len(); i++ {
		if v, _ := vn.Elem(i).Int(); v == 100 {
			acme++
		}
	}
	if acme != 2 {
		t.Fatalf("vendor 100 rows = %d, want 2 (one per price tuple)", acme)
	}

	df, _, err = builtin.Default(log).Apply(ctx, df)
	if err != nil {
		t.Fatalf("transform: %v", err)
	}
	if _, err := (Writer{Repo: repo, Logger: log}).Write(ctx, df); err == nil {
		t.Fatalf("Write succeeded; want primary key violation")
	}
	if got := count(t, repo, Table); got != 0 {
		t.Fatalf("rows after failed write = %d, want 0", got)
	}
}

// copyCounter records how many CopyFrom calls reach the backend.
type copyCounter struct {
	storage.Repository
	calls int
}

func (c *copyCounter) CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	c.calls++
	return c.Repository.CopyFrom(ctx, table, columns, rows)
}

// TestWriter_CollisionLeavesTableEmpty: a frame with several vendors and one
// duplicated key is appended in one call, so the rows ahead of the
// collision are rolled back with it.
func TestWriter_CollisionLeavesTableEmpty(t *testing.T) {
	t.Parallel()

	repo := newRepo(t)
	files := map[string]string{}
	for k, v := range scenario {
		files[k] = v
	}
	files["purchases"] += "300,Crux,Vodka,9,4,40
" +
		"400,Dune,Wine,11,2,300
"
	files["purchase_prices"] += "300,9,15,10,750
" +
		"400,11,25,150,750
" +
		"100,5,39.99,21,750
"
	seed(t, repo, files)

	ctx := context.Background()
	log := logging.Discard()
	if _, err := (Preparer{Repo: repo, Logger: log}).Prepare(ctx); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	df, err := Aggregator{Repo: repo, Logger: log}.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if df.Nrow() != 5 {
		t.Fatalf("aggregated rows = %d, want 5", df.Nrow())
	}
	df, _, err = builtin.Default(log).Apply(ctx, df)
	if err != nil {
		t.Fatalf("transform: %v", err)
	}

	cc := &copyCounter{Repository: repo}
	if _, err := (Writer{Repo: cc, Logger: log}).Write(ctx, df); err == nil {
		t.Fatalf("Write succeeded; want primary key violation")
	}
	if cc.calls != 1 {
		t.Fatalf("CopyFrom calls = %d, want 1", cc.calls)
	}
	if got := count(t, repo, Table); got != 0 {
		t.Fatalf("rows after failed write = %d, want 0", got)
	}
}

func TestPrepare_Idempotent(t *testing.T) {
	t.Parallel()

	repo := newRepo(t)
	seed(t, repo, scenario)
	runPipeline(t, repo)

	res, err := Preparer{Repo: repo, Logger: logging.Discard()}.Prepare(context.Background())
	if err != nil {
		t.Fatalf("second Prepare: %v", err)
	}
	if len(res.IndexErrors) != 0 {
		t.Fatalf("index errors on rerun: %v", res.IndexErrors)
	}
	if got := count(t, repo, Table); got != 0 {
		t.Fatalf("rows after Prepare = %d, want 0", got)
	}
}

// TestPrepare_MissingSources: without source tables the table is still
// created and every index failure is reported, not returned.
func TestPrepare_MissingSources(t *testing.T) {
	t.Parallel()

	repo := newRepo(t)
	res, err := Preparer{Repo: repo, Logger: logging.Discard()}.Prepare(context.Background())
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if len(res.IndexErrors) != len(Indexes()) {
		t.Fatalf("index errors = %d, want %d", len(res.IndexErrors), len(Indexes()))
	}
	if !storage.TableExists(context.Background(), repo, Table) {
		t.Fatalf("%s not created", Table)
	}
}

func TestAggregator_FailsWithoutSources(t *testing.T) {
	t.Parallel()

	repo := newRepo(t)
	if _, err := (Aggregator{Repo: repo, Logger: logging.Discard()}).Run(context.Background()); err == nil {
		t.Fatalf("want error when source tables are missing")
	}
}

// TestAggregator_Empty: no purchases means a zero-row frame that writes
// cleanly.
func TestAggregator_Empty(t *testing.T) {
	t.Parallel()

	repo := newRepo(t)
	seed(t, repo, map[string]string{
		"purchases":       "VendorNumber,VendorName,Description,Brand,Quantity,Dollars\n",
		"purchase_prices": "VendorNumber,Brand,Price,PurchasePrice,Volume\n",
		"sales":           "VendorNo,VendorName,Brand,SalesQuantity,ExciseTax,SalesPrice,SalesDollars\n",
		"vendor_invoice":  "VendorNumber,Freight\n",
	})
	if n := runPipeline(t, repo); n != 0 {
		t.Fatalf("inserted = %d, want 0", n)
	}
}

// TestAggregator_PurchaseDollarsSum checks each purchase group's total
// against a sum computed here.
func TestAggregator_PurchaseDollarsSum(t *testing.T) {
	t.Parallel()

	var b strings.Builder
	b.WriteString("VendorNumber,VendorName,Description,Brand,Quantity,Dollars\n")
	want := map[[2]int]float64{}
	for i := 0; i < 60; i++ {
		v, br := 1+i%4, 10+i%3
		dollars := float64(i%7) + 0.25
		want[[2]int{v, br}] += dollars
		b.WriteString(strconv.Itoa(v) + ",V,D," + strconv.Itoa(br) + ",1," + strconv.FormatFloat(dollars, 'f', 2, 64) + "\n")
	}
	var prices strings.Builder
	prices.WriteString("VendorNumber,Brand,Price,PurchasePrice,Volume\n")
	for k := range want {
		prices.WriteString(strconv.Itoa(k[0]) + "," + strconv.Itoa(k[1]) + ",1,1,750\n")
	}

	repo := newRepo(t)
	seed(t, repo, map[string]string{
		"purchases":       b.String(),
		"purchase_prices": prices.String(),
		"sales":           "VendorNo,VendorName,Brand,SalesQuantity,ExciseTax,SalesPrice,SalesDollars\n1,V,10,1,0,1,1\n",
		"vendor_invoice":  "VendorNumber,Freight\n1,1\n",
	})

	df, err := Aggregator{Repo: repo, Logger: logging.Discard()}.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if df.Nrow() != len(want) || df.Ncol() != 14 {
		t.Fatalf("shape = (%d, %d), want (%d, 14)", df.Nrow(), df.Ncol(), len(want))
	}
	vn, br, dollars := df.Col("VendorNumber"), df.Col("Brand"), df.Col("TotalPurchaseDollars")
	for i := 0; i < df.Nrow(); i++ {
		v, _ := vn.Elem(i).Int()
		b, _ := br.Elem(i).Int()
		if got := dollars.Elem(i).Float(); !near(got, want[[2]int{v, b}]) {
			t.Errorf("(%d, %d) TotalPurchaseDollars = %v, want %v", v, b, got, want[[2]int{v, b}])
		}
	}
}

func TestAggregateSQL_Quoting(t *testing.T) {
	t.Parallel()

	q := AggregateSQL(newRepo(t).Dialect())
	if strings.ContainsAny(q, "{}") {
		t.Fatalf("unrendered placeholder in query:\n%s", q)
	}
	for _, s := range []string{`FROM "vendor_invoice"`, `pp."Price" AS "ActualPrice"`, `ss."VendorNo"`} {
		if !strings.Contains(q, s) {
			t.Errorf("query missing %q", s)
		}
	}
}
