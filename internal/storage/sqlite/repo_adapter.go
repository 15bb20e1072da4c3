// This file wires the SQLite backend into the storage factory; registration
// happens in init. DATABASE doubles as the file path when no DSN is given.

package sqlite

import (
	"context"

	"vendoretl/internal/storage"
)

// newRepository is a test hook that points to NewRepository by default.
// Tests may replace this variable to avoid real DB connections.
var newRepository = NewRepository

// wrappedRepo adapts *sqlite.Repository to the storage.Repository interface,
// adding a Close method that calls the cleanup function returned by
// NewRepository.
type wrappedRepo struct {
	*Repository
	closeFn func()
}

// Close implements storage.Repository.Close.
func (w *wrappedRepo) Close() {
	if w.closeFn != nil {
		w.closeFn()
	}
}

var _ storage.Repository = (*wrappedRepo)(nil)

// Open opens the SQLite database at dsn as a storage.Repository.
func Open(ctx context.Context, dsn string) (storage.Repository, error) {
	r, closeFn, err := newRepository(ctx, Config{DSN: dsn})
	if err != nil {
		return nil, err
	}
	return &wrappedRepo{Repository: r, closeFn: closeFn}, nil
}

func init() {
	storage.Register("sqlite", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		dsn := cfg.DSN
		if dsn == "" {
			dsn = cfg.Conn.Database
		}
		return Open(ctx, dsn)
	})
}
