// Package ingest loads a folder of CSV files into same-named tables.
//
// Each file is handled in two phases: the first chunk is read to infer a
// schema and the table is created (an existing table fails the file), then
// every chunk, the first included, is appended with one bulk copy. A failing
// file is logged and the loader moves on to the next one.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/zeebo/xxh3"

	"vendoretl/internal/datasource"
	"vendoretl/internal/datasource/file"
	"vendoretl/internal/ddl"
	"vendoretl/internal/metrics"
	"vendoretl/internal/parser/csv"
	"vendoretl/internal/storage"
)

// ErrTableExists fails a file whose target table is already present.
var ErrTableExists = errors.New("ingest: table already exists")

// Loader moves CSV files into a Repository.
type Loader struct {
	Repo      storage.Repository
	Logger    *slog.Logger
	ChunkSize int
	// Comma overrides the field delimiter; zero means ','.
	Comma rune
}

// FileResult describes the outcome of one file.
type FileResult struct {
	Path        string
	Table       string
	Rows        int64
	Chunks      int
	Fingerprint uint64 // xxh3 of the file bytes; zero when the file failed
	Elapsed     time.Duration
	Err         error
}

// Summary aggregates a LoadDir run.
type Summary struct {
	Files   []FileResult
	OK      int
	Failed  int
	Rows    int64
	Elapsed time.Duration
}

// LoadDir loads every *.csv file in dir in name order. Per-file failures are
// recorded in the Summary and do not stop the run; the returned error is
// reserved for failures to list dir or a canceled context.
func (l *Loader) LoadDir(ctx context.Context, dir string) (Summary, error) {
	logger := l.logger()
	var sum Summary

	paths, err := file.ListCSV(dir)
	if err != nil {
		return sum, fmt.Errorf("ingest: %w", err)
	}
	if len(paths) == 0 {
		logger.Warn("Folder is empty! Please check the folder path.", "folder", dir)
		return sum, nil
	}
	logger.Info(fmt.Sprintf("Total of %d CSV files found in the folder.", len(paths)), "folder", dir)

	start := time.Now()
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		res := l.LoadFile(ctx, p)
		sum.Files = append(sum.Files, res)
		if res.Err != nil {
			sum.Failed++
			logger.Error(fmt.Sprintf("Problem inserting records into %s: %v", res.Table, res.Err),
				"file", res.Path, "rows_before_failure", res.Rows)
			continue
		}
		sum.OK++
		sum.Rows += res.Rows
	}
	sum.Elapsed = time.Since(start)

	metrics.RecordRow(metrics.JobIngest, metrics.KindFailedFiles, int64(sum.Failed))
	logger.Info(fmt.Sprintf("Total of %d tables inserted.", sum.OK),
		"failed", sum.Failed, "rows", sum.Rows)
	logger.Info(fmt.Sprintf("Total time taken: %.2f seconds.", sum.Elapsed.Seconds()))
	return sum, nil
}

// LoadFile loads one CSV file into the table named after its stem.
func (l *Loader) LoadFile(ctx context.Context, path string) FileResult {
	src := file.NewLocal(path)
	return l.LoadSource(ctx, src, path, src.Stem())
}

// LoadSource loads the CSV stream of src into table. path only labels the
// input in the result and error messages.
func (l *Loader) LoadSource(ctx context.Context, src datasource.Source, path, table string) (res FileResult) {
	res = FileResult{Path: path, Table: table}
	start := time.Now()
	defer func() {
		res.Elapsed = time.Since(start)
		metrics.RecordStep(metrics.JobIngest, metrics.StepLoadFile, res.Err, res.Elapsed)
		metrics.RecordRow(metrics.JobIngest, metrics.KindLoaded, res.Rows)
		metrics.RecordBatches(metrics.JobIngest, int64(res.Chunks))
	}()

	rc, err := src.Open(ctx)
	if err != nil {
		res.Err = err
		return res
	}
	defer rc.Close()

	h := xxh3.New()
	cr, err := csv.NewChunkReader(io.TeeReader(rc, h), csv.Options{Comma: l.Comma, ChunkSize: l.ChunkSize})
	if err != nil {
		res.Err = fmt.Errorf("%s: %w", filepath.Base(path), err)
		return res
	}

	first, err := cr.Next()
	if err != nil && !errors.Is(err, io.EOF) {
		res.Err = err
		return res
	}

	// Phase 1: schema.
	def := InferSchema(res.Table, cr.Header(), first)
	if err := l.ensureSchema(ctx, def); err != nil {
		res.Err = err
		return res
	}
	logger := l.logger()
	logger.Info(fmt.Sprintf("%s is created successfully.", res.Table), "columns", describe(def))

	// Phase 2: rows.
	columns := def.ColumnNames()
	chunk := first
	for len(chunk) > 0 {
		rows := make([][]any, len(chunk))
		for i, rec := range chunk {
			rows[i] = ConvertRow(def, rec)
		}
		n, err := l.Repo.CopyFrom(ctx, res.Table, columns, rows)
		if err != nil {
			res.Err = fmt.Errorf("append chunk %d (ending line %d): %w", res.Chunks+1, cr.Line(), err)
			return res
		}
		res.Rows += n
		res.Chunks++
		logger.Info(fmt.Sprintf("Appended %d records into %s.", res.Rows, res.Table))

		chunk, err = cr.Next()
		if err != nil && !errors.Is(err, io.EOF) {
			res.Err = err
			return res
		}
	}

	// Drain anything the csv reader did not consume so the hash covers the
	// whole file.
	if _, err := io.Copy(h, rc); err != nil {
		res.Err = fmt.Errorf("read %s: %w", path, err)
		return res
	}
	res.Fingerprint = h.Sum64()

	logger.Info(fmt.Sprintf("Insertion completed: %d records inserted into %s.", res.Rows, res.Table),
		"chunks", res.Chunks, "fingerprint", fmt.Sprintf("%016x", res.Fingerprint))
	logger.Info(fmt.Sprintf("Time taken for %s is %.2f seconds.", res.Table, time.Since(start).Seconds()))
	return res
}

// ensureSchema creates def's table and refuses to touch an existing one.
func (l *Loader) ensureSchema(ctx context.Context, def ddl.TableDef) error {
	if storage.TableExists(ctx, l.Repo, def.FQN) {
		return fmt.Errorf("%w: %s", ErrTableExists, def.FQN)
	}
	return storage.CreateTable(ctx, l.Repo, def)
}

func (l *Loader) logger() *slog.Logger {
	if l.Logger == nil {
		return slog.Default()
	}
	return l.Logger
}

// describe renders "name:kind" pairs for the creation log line.
func describe(def ddl.TableDef) []string {
	out := make([]string, len(def.Columns))
	for i, c := range def.Columns {
		out[i] = c.Name + ":" + c.Kind
	}
	return out
}
