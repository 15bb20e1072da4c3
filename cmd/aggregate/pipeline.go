package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-gota/gota/dataframe"

	"vendoretl/internal/metrics"
	"vendoretl/internal/storage"
	"vendoretl/internal/summary"
	"vendoretl/internal/transformer"
	"vendoretl/internal/transformer/builtin"
)

// pipeline runs Prepare -> Aggregate -> Transform -> Load in sequence. Any
// stage error stops the run.
type pipeline struct {
	repo   storage.Repository
	logger *slog.Logger
	chain  transformer.Chain
}

// stats summarizes a completed run.
type stats struct {
	IndexErrors int
	Aggregated  int
	Report      transformer.Report
	Inserted    int64
}

func newPipeline(repo storage.Repository, logger *slog.Logger) pipeline {
	return pipeline{
		repo:   repo,
		logger: logger,
		chain:  builtin.Default(logger),
	}
}

func (p pipeline) run(ctx context.Context) (stats, error) {
	var st stats

	err := p.stage(metrics.StepPrepareSchema, func() error {
		res, err := summary.Preparer{Repo: p.repo, Logger: p.logger}.Prepare(ctx)
		st.IndexErrors = len(res.IndexErrors)
		return err
	})
	if err != nil {
		return st, err
	}

	var df dataframe.DataFrame
	err = p.stage(metrics.StepAggregate, func() error {
		var err error
		df, err = summary.Aggregator{Repo: p.repo, Logger: p.logger}.Run(ctx)
		st.Aggregated = df.Nrow()
		return err
	})
	if err != nil {
		return st, err
	}
	metrics.RecordRow(metrics.JobAggregate, metrics.KindAggregated, int64(st.Aggregated))

	err = p.stage(metrics.StepTransform, func() error {
		start := time.Now()
		out, rep, err := p.chain.Apply(ctx, df)
		st.Report = rep
		if err != nil {
			return err
		}
		df = out
		p.logger.Info(fmt.Sprintf("Transformations & Cleaning completed. Final shape: %s. Time taken: %.2f sec",
			transformer.Shape(df), time.Since(start).Seconds()))
		return nil
	})
	metrics.RecordRow(metrics.JobAggregate, metrics.KindNullsFilled, int64(st.Report.NullsFilled))
	metrics.RecordRow(metrics.JobAggregate, metrics.KindDuplicatesRemoved, int64(st.Report.DuplicatesRemoved))
	if err != nil {
		return st, err
	}

	err = p.stage(metrics.StepLoad, func() error {
		var err error
		st.Inserted, err = summary.Writer{Repo: p.repo, Logger: p.logger}.Write(ctx, df)
		return err
	})
	metrics.RecordRow(metrics.JobAggregate, metrics.KindInserted, st.Inserted)
	return st, err
}

// stage times fn, records it under step and logs a failure with the stage
// name.
func (p pipeline) stage(step string, fn func() error) error {
	start := time.Now()
	err := fn()
	metrics.RecordStep(metrics.JobAggregate, step, err, time.Since(start))
	if err != nil {
		p.logger.Error("stage failed", "stage", step, "error", err)
		return fmt.Errorf("%s: %w", step, err)
	}
	return nil
}
