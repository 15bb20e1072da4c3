package builtin

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/zeebo/xxh3"

	"vendoretl/internal/transformer"
)

// DeDup removes rows whose every cell equals an earlier row's, keeping the
// first occurrence. Rows are bucketed by an xxh3 hash of their rendered
// cells and compared cell by cell inside a bucket.
type DeDup struct {
	Logger *slog.Logger
}

func (DeDup) Name() string { return "dedup" }

func (d DeDup) Apply(_ context.Context, df dataframe.DataFrame) (dataframe.DataFrame, transformer.Report, error) {
	var rep transformer.Report
	n := df.Nrow()
	if n < 2 {
		return df, rep, nil
	}

	cols := make([]series.Series, 0, df.Ncol())
	for _, name := range df.Names() {
		cols = append(cols, df.Col(name))
	}
	rowAt := func(i int) []string {
		cells := make([]string, len(cols))
		for j, s := range cols {
			cells[j] = transformer.Render(s.Elem(i))
		}
		return cells
	}

	buckets := make(map[uint64][][]string, n)
	keep := make([]int, 0, n)
	h := xxh3.New()
	for i := 0; i < n; i++ {
		cells := rowAt(i)
		h.Reset()
		for _, c := range cells {
			_, _ = h.WriteString(c)
			_, _ = h.Write([]byte{0x1f})
		}
		sum := h.Sum64()

		dup := false
		for _, prev := range buckets[sum] {
			if equalCells(prev, cells) {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		buckets[sum] = append(buckets[sum], cells)
		keep = append(keep, i)
	}

	rep.DuplicatesRemoved = n - len(keep)
	if rep.DuplicatesRemoved == 0 {
		return df, rep, nil
	}
	logger(d.Logger).Info(fmt.Sprintf("Removed %d duplicate rows", rep.DuplicatesRemoved))
	out := df.Subset(keep)
	return out, rep, out.Err
}

func equalCells(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
