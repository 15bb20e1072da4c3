// Command ingest loads every *.csv file of a folder into a same-named table.
// A table is created from the file's first chunk and must not exist yet; a
// failed file is logged and the next one is loaded.
//
// Logs are appended to <log-dir>/ingestion.log. The exit code is 1 when any
// file failed.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"vendoretl/internal/cli"
	"vendoretl/internal/ingest"
	"vendoretl/internal/metrics"
	"vendoretl/internal/storage"

	// register all backends with the storage factory.
	_ "vendoretl/internal/storage/all"
)

const script = "ingestion"

// newRepositoryFn is a test seam.
var newRepositoryFn cli.OpenFunc = storage.New

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Getenv, os.Stderr))
}

func run(ctx context.Context, args []string, getenv func(string) string, stderr io.Writer) int {
	cfg, code, done := cli.ParseConfig("ingest", args, getenv, stderr)
	if done {
		return code
	}

	r, err := cli.Start(cfg, script, metrics.JobIngest, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "ingest: %v\n", err)
		return cli.ExitFailure
	}
	defer r.Close()

	repo, err := cli.Connect(ctx, newRepositoryFn, cfg, metrics.JobIngest, r.Logger)
	if err != nil {
		return cli.ExitFailure
	}
	defer repo.Close()

	l := &ingest.Loader{Repo: repo, Logger: r.Logger, ChunkSize: cfg.ChunkSize}
	sum, err := l.LoadDir(ctx, cfg.CSVFolder)
	if err != nil {
		r.Logger.Error("ingestion aborted", "folder", cfg.CSVFolder, "error", err)
		return cli.ExitFailure
	}
	if sum.Failed > 0 {
		return cli.ExitFailure
	}
	r.Logger.Info("Ingestion process completed successfully.")
	return cli.ExitOK
}
