// Package ddl defines a small, backend-agnostic model for SQL DDL and helpers
// to render CREATE TABLE and CREATE INDEX statements from that model.
//
// The package does not know any SQL dialect. Callers supply a Quoter that
// escapes identifiers and a type mapper that resolves logical kinds; backend
// packages (internal/storage/<backend>/ddl) wrap these helpers with their own
// quoting, type mapping and idempotency guards.
package ddl

import (
	"fmt"
	"strings"
)

// Quoter escapes identifiers for a dialect. Ident quotes a single name, FQN a
// dotted "schema.table" name segment by segment.
type Quoter interface {
	Ident(string) string
	FQN(string) string
}

// Verbatim is a Quoter that emits identifiers unchanged.
type Verbatim struct{}

func (Verbatim) Ident(s string) string { return strings.TrimSpace(s) }
func (Verbatim) FQN(s string) string   { return strings.TrimSpace(s) }

// BuildCreateTableSQL renders a plain CREATE TABLE statement:
//
//	CREATE TABLE <fqn> (
//	  <col> <type> [NOT NULL],
//	  ...,
//	  [PRIMARY KEY (<pk-cols>)]
//	);
//
// A column's type is SQLType when set, otherwise mapType(Kind). No IF NOT
// EXISTS clause is emitted: creating an existing table is an error.
func BuildCreateTableSQL(t TableDef, q Quoter, mapType func(string) string) (string, error) {
	fqn := strings.TrimSpace(t.FQN)
	if fqn == "" {
		return "", fmt.Errorf("ddl: table FQN must not be empty")
	}
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("ddl: at least one column is required")
	}
	if q == nil {
		q = Verbatim{}
	}

	cols := make([]string, 0, len(t.Columns)+1)
	pks := make([]string, 0, 2)

	for _, c := range t.Columns {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return "", fmt.Errorf("ddl: column with empty name in table %s", fqn)
		}
		typ := strings.TrimSpace(c.SQLType)
		if typ == "" && mapType != nil && c.Kind != "" {
			typ = mapType(c.Kind)
		}
		if typ == "" {
			return "", fmt.Errorf("ddl: column %s missing SQLType", name)
		}

		def := q.Ident(name) + " " + typ
		if !c.Nullable {
			def += " NOT NULL"
		}
		cols = append(cols, def)

		if c.PrimaryKey {
			pks = append(pks, q.Ident(name))
		}
	}

	if len(pks) > 0 {
		cols = append(cols, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(pks, ", ")))
	}

	return fmt.Sprintf(
		"CREATE TABLE %s (\n  %s\n);",
		q.FQN(fqn),
		strings.Join(cols, ",\n  "),
	), nil
}

// BuildCreateIndexSQL renders "CREATE INDEX <name> ON <table> (<cols>)".
// ifNotExists adds the IF NOT EXISTS clause supported by Postgres and SQLite.
func BuildCreateIndexSQL(ix IndexDef, q Quoter, ifNotExists bool) (string, error) {
	name := strings.TrimSpace(ix.Name)
	table := strings.TrimSpace(ix.Table)
	if name == "" || table == "" {
		return "", fmt.Errorf("ddl: index requires a name and a table")
	}
	if len(ix.Columns) == 0 {
		return "", fmt.Errorf("ddl: index %s has no columns", name)
	}
	if q == nil {
		q = Verbatim{}
	}

	cols := make([]string, len(ix.Columns))
	for i, c := range ix.Columns {
		cols[i] = q.Ident(c)
	}

	guard := ""
	if ifNotExists {
		guard = "IF NOT EXISTS "
	}
	return fmt.Sprintf("CREATE INDEX %s%s ON %s (%s);",
		guard, q.Ident(name), q.FQN(table), strings.Join(cols, ", ")), nil
}
