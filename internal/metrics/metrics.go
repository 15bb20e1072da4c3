// Package metrics records operational metrics for the ingest and aggregate
// commands behind a small, backend-agnostic interface.
//
// A global backend defaults to a no-op, so instrumented code never checks
// whether metrics are configured. Concrete systems live in subpackages
// (prompush, datadog) and are installed once from main with SetBackend.
package metrics

import (
	"sync"
	"time"
)

// Job names used as the "job" label.
const (
	JobIngest    = "ingest"
	JobAggregate = "aggregate"
)

// Step names used as the "step" label.
const (
	StepLoadFile      = "load_file"
	StepConnect       = "connect"
	StepPrepareSchema = "prepare_schema"
	StepAggregate     = "aggregate"
	StepTransform     = "transform"
	StepLoad          = "load"
)

// Record kinds used as the "kind" label of etl_records_total.
const (
	KindLoaded            = "loaded"
	KindFailedFiles       = "failed_files"
	KindAggregated        = "aggregated"
	KindNullsFilled       = "nulls_filled"
	KindDuplicatesRemoved = "duplicates_removed"
	KindInserted          = "inserted"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a latency/duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it (e.g. Pushgateway).
	Flush() error
}

// nopBackend is used by default so metrics are optional.
type nopBackend struct{}

func (nopBackend) IncCounter(name string, delta float64, labels Labels)       {}
func (nopBackend) ObserveHistogram(name string, value float64, labels Labels) {}
func (nopBackend) Flush() error                                               { return nil }

var (
	mu      sync.RWMutex
	backend Backend = nopBackend{}
)

func current() Backend {
	mu.RLock()
	defer mu.RUnlock()
	return backend
}

// SetBackend installs a concrete backend. Passing nil keeps the existing backend.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	mu.Lock()
	backend = b
	mu.Unlock()
}

// Flush delegates to the current backend.
func Flush() error {
	return current().Flush()
}

// RecordStep counts one execution of step and records its duration, labelled
// success or failure by err.
func RecordStep(job, step string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}

	lbls := Labels{
		"job":    job,
		"step":   step,
		"status": status,
	}

	b := current()
	b.IncCounter("etl_step_total", 1, lbls)
	b.ObserveHistogram("etl_step_duration_seconds", d.Seconds(), lbls)
}

// RecordRow increments etl_records_total for job and kind (see the Kind
// constants). Non-positive deltas are ignored.
func RecordRow(job, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	current().IncCounter("etl_records_total", float64(delta), Labels{
		"job":  job,
		"kind": kind,
	})
}

// RecordBatches increments a batch-level counter for the given job.
func RecordBatches(job string, delta int64) {
	if delta <= 0 {
		return
	}
	current().IncCounter("etl_batches_total", float64(delta), Labels{
		"job": job,
	})
}
