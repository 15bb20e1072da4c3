// Package storage contains storage-agnostic contracts and utilities shared by
// the ingestion and aggregation commands.
//
// Backends (mssql, postgres, sqlite) live in subpackages and register a
// Factory from init(). Callers open a Repository through New and never import
// a backend directly; cmd packages blank-import internal/storage/all.
package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"vendoretl/internal/ddl"
)

// ErrUnknownKind is returned by New when no backend is registered for the
// requested kind.
var ErrUnknownKind = errors.New("unsupported storage.kind")

// RowScanner is the subset of *sql.Rows and pgx.Rows used by Query callbacks.
type RowScanner interface {
	Scan(dest ...any) error
}

// Repository is the single database handle used by a run.
type Repository interface {
	// Ping verifies the connection with a round trip.
	Ping(ctx context.Context) error
	// Exec runs a statement that returns no rows (DDL, DROP, ...).
	Exec(ctx context.Context, sql string) error
	// Query runs sql and calls fn once per result row. It returns the number
	// of rows visited.
	Query(ctx context.Context, sql string, fn func(RowScanner) error) (int64, error)
	// CopyFrom bulk-inserts rows aligned to columns into table. A call either
	// writes every row or none.
	CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (int64, error)
	// Dialect exposes the backend's SQL rendering rules.
	Dialect() Dialect
	Close()
}

// Dialect renders backend-specific SQL for the generic ddl model.
type Dialect interface {
	Name() string
	QuoteIdent(id string) string
	QuoteFQN(fqn string) string
	// MapType resolves a logical kind (ddl.KindInt, ...) to a column type.
	MapType(kind string) string
	// CreateTableSQL renders a CREATE TABLE that fails if the table exists.
	CreateTableSQL(t ddl.TableDef) (string, error)
	DropTableIfExistsSQL(fqn string) string
	// CreateIndexSQL renders an idempotent CREATE INDEX.
	CreateIndexSQL(ix ddl.IndexDef) (string, error)
}

// ConnParams are the discrete connection settings a backend turns into a DSN
// when Config.DSN is empty.
type ConnParams struct {
	Server   string
	Database string
	Username string
	Password string
	// Encrypt requests TLS on the connection.
	Encrypt bool
	// TrustServerCertificate skips server certificate validation.
	TrustServerCertificate bool
}

// Config selects a backend and how to reach it.
type Config struct {
	Kind string
	DSN  string
	Conn ConnParams
}

// Factory opens a Repository for cfg.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

var aliases = map[string]string{
	"sqlserver":  "mssql",
	"pgx":        "postgres",
	"postgresql": "postgres",
	"sqlite3":    "sqlite",
}

// NormalizeKind lowercases kind and resolves driver-name aliases.
func NormalizeKind(kind string) string {
	k := strings.ToLower(strings.TrimSpace(kind))
	if a, ok := aliases[k]; ok {
		return a
	}
	return k
}

// Register registers (or replaces) the Factory for kind.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[NormalizeKind(kind)] = f
}

// New opens a Repository using the Factory registered for cfg.Kind.
func New(ctx context.Context, cfg Config) (Repository, error) {
	kind := NormalizeKind(cfg.Kind)
	mu.RLock()
	f, ok := factories[kind]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w=%s", ErrUnknownKind, cfg.Kind)
	}
	cfg.Kind = kind
	return f(ctx, cfg)
}

// ListKinds returns the registered kinds in sorted order.
func ListKinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
