// Package logging opens the per-script log files shared by the commands.
//
// Every script appends to <dir>/<script>.log; each record is tagged with the
// script name and a run_id so consecutive runs in one file stay separable.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Options tunes Open.
type Options struct {
	// Level is the minimum level written. The zero value is slog.LevelInfo.
	Level slog.Level
	// Mirror, when non-nil, receives a copy of every record (stderr for -v).
	Mirror io.Writer
	// RunID overrides the generated run identifier.
	RunID string
}

// Open creates dir on demand, opens <dir>/<script>.log in append mode and
// returns a logger writing to it. The returned close func must be called
// before exit to release the file.
func Open(dir, script string, opts Options) (*slog.Logger, func() error, error) {
	if script == "" {
		return nil, nil, fmt.Errorf("logging: script name is required")
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("logging: create %s: %w", dir, err)
	}

	path := filepath.Join(dir, script+".log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("logging: open %s: %w", path, err)
	}

	var w io.Writer = f
	if opts.Mirror != nil {
		w = io.MultiWriter(f, opts.Mirror)
	}

	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	logger := New(w, opts.Level).With("script", script, "run_id", runID)
	return logger, f.Close, nil
}

// New returns a text logger on w at level.
func New(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Discard returns a logger that drops everything. Tests use it.
func Discard() *slog.Logger {
	return New(io.Discard, slog.LevelError+1)
}
