// Package mssql implements a Microsoft SQL Server repository using
// database/sql and the go-mssqldb bulk copy API.
package mssql

import (
	"context"
	"database/sql"
	"fmt"

	mssql "github.com/microsoft/go-mssqldb"
	"github.com/microsoft/go-mssqldb/msdsn"

	"vendoretl/internal/storage"
	msddl "vendoretl/internal/storage/mssql/ddl"
)

// Config holds MSSQL repository configuration. DSN wins over the discrete
// connection fields.
type Config struct {
	DSN                    string
	Server                 string
	Database               string
	Username               string
	Password               string
	Encrypt                bool
	TrustServerCertificate bool
}

// Repository is an MSSQL-backed implementation of storage.Repository.
type Repository struct {
	db *sql.DB
}

// NewRepository opens and verifies a connection and returns a Close function
// for cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	dsn, err := BuildDSN(cfg)
	if err != nil {
		return nil, nil, err
	}
	// Validate DSN early to fail fast on obvious mistakes.
	if _, err := msdsn.Parse(dsn); err != nil {
		return nil, nil, fmt.Errorf("mssql dsn: %w", err)
	}
	db, err := sql.Open("sqlserver", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("sql.Open: %w", err)
	}
	if err := storage.PingSQL(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping: %w", err)
	}
	closeFn := func() { _ = db.Close() }
	return &Repository{db: db}, closeFn, nil
}

// Ping re-checks the connection.
func (r *Repository) Ping(ctx context.Context) error { return storage.PingSQL(ctx, r.db) }

// Exec executes a SQL statement or batch.
func (r *Repository) Exec(ctx context.Context, sqlText string) error {
	_, err := r.db.ExecContext(ctx, sqlText)
	return err
}

// Query streams result rows to fn.
func (r *Repository) Query(ctx context.Context, sqlText string, fn func(storage.RowScanner) error) (int64, error) {
	return storage.QueryRows(ctx, r.db, sqlText, fn)
}

// Dialect returns the SQL Server dialect.
func (r *Repository) Dialect() storage.Dialect { return msddl.Dialect{} }

// CopyFrom bulk-copies rows into table inside a transaction; a failure rolls
// back the whole call.
func (r *Repository) CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	rollback := func() { _ = tx.Rollback() }

	stmt, err := tx.PrepareContext(ctx, mssql.CopyIn(msddl.Dialect{}.QuoteFQN(table), mssql.BulkOptions{}, columns...))
	if err != nil {
		rollback()
		return 0, fmt.Errorf("prepare bulk: %w", err)
	}
	for i := range rows {
		if _, err := stmt.ExecContext(ctx, rows[i]...); err != nil {
			_ = stmt.Close()
			rollback()
			return 0, fmt.Errorf("bulk row %d: %w", i, err)
		}
	}
	res, err := stmt.ExecContext(ctx)
	if cerr := stmt.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		rollback()
		return 0, fmt.Errorf("bulk finalize: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		rollback()
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return n, nil
}
