package sqlite

import (
	"context"
	"strings"
	"testing"

	"vendoretl/internal/ddl"
	"vendoretl/internal/storage"
)

func newRepo(tb testing.TB) *Repository {
	tb.Helper()
	r, closeFn, err := NewRepository(context.Background(), Config{DSN: ":memory:"})
	if err != nil {
		tb.Fatalf("NewRepository(:memory:): %v", err)
	}
	tb.Cleanup(closeFn)
	return r
}

func mustExec(tb testing.TB, r *Repository, sqlStmt string) {
	tb.Helper()
	if err := r.Exec(context.Background(), sqlStmt); err != nil {
		tb.Fatalf("exec %q: %v", sqlStmt, err)
	}
}

func TestNewRepositoryRejectsEmptyDSN(t *testing.T) {
	t.Parallel()

	if _, _, err := NewRepository(context.Background(), Config{}); err == nil {
		t.Fatalf("NewRepository() error = nil, want non-nil for empty DSN")
	}
}

// TestCopyFromAndQuery inserts rows with quoted mixed-case identifiers and
// reads them back, including a NULL.
func TestCopyFromAndQuery(t *testing.T) {
	t.Parallel()

	r := newRepo(t)
	ctx := context.Background()
	mustExec(t, r, `CREATE TABLE "vendor_invoice" ("VendorNumber" INTEGER, "Freight" REAL)`)

	rows := [][]any{{int64(100), 12.5}, {int64(100), 7.5}, {int64(200), nil}}
	n, err := r.CopyFrom(ctx, "vendor_invoice", []string{"VendorNumber", "Freight"}, rows)
	if err != nil {
		t.Fatalf("CopyFrom: %v", err)
	}
	if n != 3 {
		t.Fatalf("CopyFrom affected: got %d want 3", n)
	}

	type rec struct {
		vendor int64
		total  *float64
	}
	var got []rec
	_, err = r.Query(ctx, `SELECT "VendorNumber", SUM("Freight") FROM "vendor_invoice" GROUP BY "VendorNumber" ORDER BY 1`,
		func(s storage.RowScanner) error {
			var x rec
			if err := s.Scan(&x.vendor, &x.total); err != nil {
				return err
			}
			got = append(got, x)
			return nil
		})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("rows = %d, want 2", len(got))
	}
	if got[0].vendor != 100 || got[0].total == nil || *got[0].total != 20 {
		t.Fatalf("vendor 100 freight = %+v, want 20", got[0])
	}
	if got[1].vendor != 200 || got[1].total != nil {
		t.Fatalf("vendor 200 freight = %+v, want NULL", got[1])
	}
}

// TestCopyFromIsAllOrNothing verifies a failing row rolls back the rows
// inserted before it in the same call.
func TestCopyFromIsAllOrNothing(t *testing.T) {
	t.Parallel()

	r := newRepo(t)
	ctx := context.Background()
	mustExec(t, r, `CREATE TABLE "agg" ("VendorNumber" INTEGER NOT NULL, "Brand" INTEGER NOT NULL, PRIMARY KEY ("VendorNumber", "Brand"))`)

	rows := [][]any{{int64(1), int64(5)}, {int64(1), int64(5)}}
	if _, err := r.CopyFrom(ctx, "agg", []string{"VendorNumber", "Brand"}, rows); err == nil {
		t.Fatalf("CopyFrom() error = nil, want primary key violation")
	}

	var count int64
	if _, err := r.Query(ctx, `SELECT COUNT(*) FROM "agg"`, func(s storage.RowScanner) error { return s.Scan(&count) }); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("rows after failed CopyFrom = %d, want 0", count)
	}
}

func TestCopyFromRowLengthMismatch(t *testing.T) {
	t.Parallel()

	r := newRepo(t)
	mustExec(t, r, `CREATE TABLE "t" ("a" INTEGER, "b" TEXT)`)

	_, err := r.CopyFrom(context.Background(), "t", []string{"a", "b"}, [][]any{{1}})
	if err == nil || !strings.Contains(err.Error(), "row 0 length 1 != columns length 2") {
		t.Fatalf("CopyFrom() error = %v, want length mismatch", err)
	}
}

// TestDialectDDLRoundTrip creates a table and an index twice through the
// storage helpers; the index statement must be idempotent and the plain
// CREATE TABLE must not be.
func TestDialectDDLRoundTrip(t *testing.T) {
	t.Parallel()

	r := &wrappedRepo{Repository: newRepo(t)}
	ctx := context.Background()
	def := ddl.TableDef{FQN: "sales", Columns: []ddl.ColumnDef{
		{Name: "VendorNo", Kind: ddl.KindBigInt, Nullable: true},
		{Name: "Brand", Kind: ddl.KindBigInt, Nullable: true},
	}}
	ix := ddl.IndexDef{Name: "idx_sales_vendor_brand", Table: "sales", Columns: []string{"VendorNo", "Brand"}}

	if storage.TableExists(ctx, r, "sales") {
		t.Fatalf("TableExists before create = true")
	}
	if err := storage.CreateTable(ctx, r, def); err != nil {
		t.Fatalf("CreateTable: %v", err)
	}
	if !storage.TableExists(ctx, r, "sales") {
		t.Fatalf("TableExists after create = false")
	}
	if err := storage.CreateTable(ctx, r, def); err == nil {
		t.Fatalf("second CreateTable error = nil, want table exists")
	}
	for i := 0; i < 2; i++ {
		if err := storage.EnsureIndex(ctx, r, ix); err != nil {
			t.Fatalf("EnsureIndex #%d: %v", i+1, err)
		}
	}
	if err := storage.DropTable(ctx, r, "sales"); err != nil {
		t.Fatalf("DropTable: %v", err)
	}
	if storage.TableExists(ctx, r, "sales") {
		t.Fatalf("TableExists after drop = true")
	}
	if err := storage.DropTable(ctx, r, "sales"); err != nil {
		t.Fatalf("DropTable on missing table: %v", err)
	}
}

func TestExecEmptyIsNoop(t *testing.T) {
	t.Parallel()

	r := newRepo(t)
	if err := r.Exec(context.Background(), "   "); err != nil {
		t.Fatalf("Exec(blank) error = %v", err)
	}
	if err := r.Ping(context.Background()); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
}
