package storage

import (
	"context"
	"fmt"

	"vendoretl/internal/ddl"
)

// CreateTable renders def with the repository's dialect and executes it. The
// statement has no IF NOT EXISTS guard, so an existing table is an error.
func CreateTable(ctx context.Context, repo Repository, def ddl.TableDef) error {
	stmt, err := repo.Dialect().CreateTableSQL(def)
	if err != nil {
		return err
	}
	if err := repo.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("create table %s: %w", def.FQN, err)
	}
	return nil
}

// DropTable drops fqn when it exists.
func DropTable(ctx context.Context, repo Repository, fqn string) error {
	if err := repo.Exec(ctx, repo.Dialect().DropTableIfExistsSQL(fqn)); err != nil {
		return fmt.Errorf("drop table %s: %w", fqn, err)
	}
	return nil
}

// EnsureIndex creates ix unless an index with the same name already exists.
func EnsureIndex(ctx context.Context, repo Repository, ix ddl.IndexDef) error {
	stmt, err := repo.Dialect().CreateIndexSQL(ix)
	if err != nil {
		return err
	}
	if err := repo.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("create index %s on %s: %w", ix.Name, ix.Table, err)
	}
	return nil
}

// TableExists probes fqn with a query that returns no rows. Any error is
// read as "absent"; a real connectivity problem resurfaces on the next
// statement.
func TableExists(ctx context.Context, repo Repository, fqn string) bool {
	q := fmt.Sprintf("SELECT 1 FROM %s WHERE 1 = 0", repo.Dialect().QuoteFQN(fqn))
	_, err := repo.Query(ctx, q, func(RowScanner) error { return nil })
	return err == nil
}
