// Command aggregate rebuilds AggregatedTable: it recreates the table, runs
// the vendor/brand aggregation, cleans and enriches the rows in memory and
// writes them back.
//
// Configuration comes from flags, the environment and an optional .env file;
// see internal/config. Logs are appended to <log-dir>/exploringData.log.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"vendoretl/internal/cli"
	"vendoretl/internal/metrics"
	"vendoretl/internal/storage"

	// register all backends with the storage factory.
	_ "vendoretl/internal/storage/all"
)

const script = "exploringData"

// newRepositoryFn is a test seam.
var newRepositoryFn cli.OpenFunc = storage.New

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Getenv, os.Stderr))
}

func run(ctx context.Context, args []string, getenv func(string) string, stderr io.Writer) int {
	cfg, code, done := cli.ParseConfig("aggregate", args, getenv, stderr)
	if done {
		return code
	}

	r, err := cli.Start(cfg, script, metrics.JobAggregate, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "aggregate: %v\n", err)
		return cli.ExitFailure
	}
	defer r.Close()

	repo, err := cli.Connect(ctx, newRepositoryFn, cfg, metrics.JobAggregate, r.Logger)
	if err != nil {
		return cli.ExitFailure
	}
	defer repo.Close()

	p := newPipeline(repo, r.Logger)
	if _, err := p.run(ctx); err != nil {
		r.Logger.Error("pipeline aborted", "error", err)
		return cli.ExitFailure
	}
	return cli.ExitOK
}
