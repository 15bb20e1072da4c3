// Package postgres implements a Postgres repository using pgx v5 and its
// native COPY protocol.
package postgres

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"vendoretl/internal/storage"
	pgddl "vendoretl/internal/storage/postgres/ddl"
)

// Config holds Postgres repository configuration. DSN wins over the discrete
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

// pgxPool is the subset of *pgxpool.Pool used by Repository; pgxmock pools
// satisfy it in tests.
type pgxPool interface {
	Ping(ctx context.Context) error
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
	Close()
}

// newPool is a test hook for pool construction.
var newPool = func(ctx context.Context, dsn string) (pgxPool, error) {
	return pgxpool.New(ctx, dsn)
}

// Repository is a Postgres-backed implementation of storage.Repository.
type Repository struct {
	pool pgxPool
}

// NewRepository opens a pool, verifies it and returns a Close function.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	dsn, err := BuildDSN(cfg)
	if err != nil {
		return nil, nil, err
	}
	pool, err := newPool(ctx, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("pgxpool: %w", err)
	}
	r := &Repository{pool: pool}
	if err := r.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("ping: %w", err)
	}
	return r, pool.Close, nil
}

// BuildDSN returns cfg.DSN when set, otherwise a postgres:// URL. sslmode is
// verify-full when encrypting with certificate validation, require when the
// certificate is trusted blindly and disable when encryption is off. User
// info is attached only when both username and password are set.
func BuildDSN(cfg Config) (string, error) {
	if cfg.DSN != "" {
		return cfg.DSN, nil
	}
	if strings.TrimSpace(cfg.Server) == "" {
		return "", fmt.Errorf("postgres: server is required when no DSN is given")
	}
	u := &url.URL{Scheme: "postgres", Host: strings.TrimSpace(cfg.Server), Path: "/" + cfg.Database}
	if cfg.Username != "" && cfg.Password != "" {
		u.User = url.UserPassword(cfg.Username, cfg.Password)
	}
	mode := "disable"
	switch {
	case cfg.Encrypt && cfg.TrustServerCertificate:
		mode = "require"
	case cfg.Encrypt:
		mode = "verify-full"
	}
	u.RawQuery = url.Values{"sslmode": {mode}}.Encode()
	return u.String(), nil
}

// Ping checks the pool and runs SELECT 1.
func (r *Repository) Ping(ctx context.Context) error {
	if err := r.pool.Ping(ctx); err != nil {
		return err
	}
	var one int
	return r.pool.QueryRow(ctx, "SELECT 1").Scan(&one)
}

// Exec implements storage.Repository.Exec for Postgres.
func (r *Repository) Exec(ctx context.Context, sql string) error {
	_, err := r.pool.Exec(ctx, sql)
	return err
}

// Query streams result rows to fn.
func (r *Repository) Query(ctx context.Context, sql string, fn func(storage.RowScanner) error) (int64, error) {
	rows, err := r.pool.Query(ctx, sql)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var n int64
	for rows.Next() {
		if err := fn(rows); err != nil {
			return n, err
		}
		n++
	}
	return n, rows.Err()
}

// CopyFrom writes rows with the COPY protocol; COPY is atomic per call.
func (r *Repository) CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	return r.pool.CopyFrom(ctx, splitFQN(table), columns, pgx.CopyFromRows(rows))
}

// Dialect returns the Postgres dialect.
func (r *Repository) Dialect() storage.Dialect { return pgddl.Dialect{} }

// splitFQN converts "schema.table" into a pgx.Identifier {"schema","table"}.
// If no dot is present, returns {"table"}.
func splitFQN(fqn string) pgx.Identifier {
	parts := strings.Split(fqn, ".")
	id := make(pgx.Identifier, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			id = append(id, p)
		}
	}
	return id
}
