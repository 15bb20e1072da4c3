// Package cli holds the start-up and shut-down steps shared by the ingest
// and aggregate commands: configuration, the per-script log file, the
// metrics backend and the database connection.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"vendoretl/internal/config"
	"vendoretl/internal/logging"
	"vendoretl/internal/metrics"
	"vendoretl/internal/metrics/datadog"
	"vendoretl/internal/metrics/prompush"
	"vendoretl/internal/storage"
)

// Process exit codes.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitConfig  = 2
)

// ParseConfig loads .env, parses args with env fallbacks and validates the
// result. Issues are printed to stderr. done is true when the process should
// exit with code: after -validate, on a parse error, or on validation errors.
func ParseConfig(name string, args []string, getenv func(string) string, stderr io.Writer) (cfg *config.Config, code int, done bool) {
	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return nil, ExitConfig, true
	}

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	cfg, err := config.LoadFromArgs(fs, getenv, args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, ExitOK, true
		}
		fmt.Fprintf(stderr, "config: %v\n", err)
		return nil, ExitConfig, true
	}

	issues := config.Validate(cfg)
	for _, iss := range issues {
		fmt.Fprintf(stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		return cfg, ExitConfig, true
	}
	if cfg.ValidateOnly {
		fmt.Fprintln(stderr, "configuration is valid")
		return cfg, ExitOK, true
	}
	return cfg, ExitOK, false
}

// Run is the process-wide context of one command invocation.
type Run struct {
	ID     string
	Logger *slog.Logger

	closers []func() error
}

// Start opens <cfg.LogDir>/<script>.log and installs the configured metrics
// backend, grouped by the run id. Close undoes both.
func Start(cfg *config.Config, script, job string, stderr io.Writer) (*Run, error) {
	r := &Run{ID: uuid.NewString()}

	opts := logging.Options{RunID: r.ID}
	if cfg.Verbose {
		opts.Mirror = stderr
	}
	logger, closeLog, err := logging.Open(cfg.LogDir, script, opts)
	if err != nil {
		return nil, err
	}
	r.Logger = logger
	r.closers = append(r.closers, closeLog)

	if err := r.startMetrics(cfg, job); err != nil {
		_ = r.Close()
		return nil, err
	}
	return r, nil
}

func (r *Run) startMetrics(cfg *config.Config, job string) error {
	switch strings.ToLower(strings.TrimSpace(cfg.MetricsBackend)) {
	case "", "none":
		return nil
	case "prom", "prometheus", "pushgateway":
		b, err := prompush.NewBackend(job, cfg.PushgatewayURL, metrics.Labels{"run_id": r.ID})
		if err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
		metrics.SetBackend(b)
		r.Logger.Info("metrics enabled", "backend", "pushgateway", "url", cfg.PushgatewayURL, "job", job)
	case "datadog", "dogstatsd":
		b, err := datadog.NewBackend(datadog.Config{
			Addr:       cfg.DatadogAddr,
			Namespace:  "vendoretl.",
			GlobalTags: []string{"job:" + job, "run_id:" + r.ID},
		})
		if err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
		metrics.SetBackend(b)
		r.closers = append(r.closers, b.Close)
		r.Logger.Info("metrics enabled", "backend", "datadog", "addr", cfg.DatadogAddr)
	default:
		return fmt.Errorf("metrics: unknown backend %q", cfg.MetricsBackend)
	}
	// Flush before the backend closes.
	r.closers = append(r.closers, func() error {
		if err := metrics.Flush(); err != nil {
			r.Logger.Warn("metrics flush failed", "error", err)
		}
		return nil
	})
	return nil
}

// Close flushes metrics and closes the log file, in reverse start order.
func (r *Run) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	r.closers = nil
	return errors.Join(errs...)
}

// OpenFunc opens a Repository; commands swap it in tests.
type OpenFunc func(ctx context.Context, cfg storage.Config) (storage.Repository, error)

// Connect opens the repository through open and pings it. It records the
// connect step for job.
func Connect(ctx context.Context, open OpenFunc, cfg *config.Config, job string, logger *slog.Logger) (storage.Repository, error) {
	start := time.Now()
	repo, err := open(ctx, cfg.Storage())
	if err == nil {
		if err = repo.Ping(ctx); err != nil {
			repo.Close()
			repo = nil
		}
	}
	metrics.RecordStep(job, metrics.StepConnect, err, time.Since(start))
	if err != nil {
		logger.Error("Connection failed", "driver", cfg.Driver, "server", cfg.Server, "database", cfg.Database, "error", err)
		return nil, err
	}
	logger.Info("Successfully connected to the database.", "driver", cfg.Driver, "database", cfg.Database)
	return repo, nil
}
