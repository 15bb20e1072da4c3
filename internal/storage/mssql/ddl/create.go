// Package ddl provides MSSQL-specific helpers for generating DDL from the
// generic ddl model.
//
// The builders here:
//   - Use SQL Server-style identifier quoting: [schema].[table], [col].
//   - Emit a plain CREATE TABLE, so creating an existing table fails.
//   - Guard CREATE INDEX with a sys.indexes lookup since T-SQL has no
//     CREATE INDEX IF NOT EXISTS.
package ddl

import (
	"fmt"
	"strings"

	gddl "vendoretl/internal/ddl"
)

type quoter struct{}

func (quoter) Ident(s string) string { return quoteIdent(strings.TrimSpace(s)) }
func (quoter) FQN(s string) string   { return quoteFQN(s) }

// BuildCreateTableSQL returns a CREATE TABLE statement for t with kinds
// resolved through MapType.
func BuildCreateTableSQL(t gddl.TableDef) (string, error) {
	s, err := gddl.BuildCreateTableSQL(t, quoter{}, MapType)
	if err != nil {
		return "", fmt.Errorf("mssql %w", err)
	}
	return s, nil
}

// BuildDropTableSQL returns DROP TABLE IF EXISTS for fqn (SQL Server 2016+).
func BuildDropTableSQL(fqn string) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s;", quoteFQN(fqn))
}

// BuildCreateIndexSQL returns a script that creates ix unless an index with
// the same name already exists on the table:
//
//	IF NOT EXISTS (SELECT 1 FROM sys.indexes
//	               WHERE name = N'ix' AND object_id = OBJECT_ID(N'[t]'))
//	  CREATE INDEX [ix] ON [t] ([a], [b]);
func BuildCreateIndexSQL(ix gddl.IndexDef) (string, error) {
	create, err := gddl.BuildCreateIndexSQL(ix, quoter{}, false)
	if err != nil {
		return "", fmt.Errorf("mssql %w", err)
	}
	return fmt.Sprintf(
		"IF NOT EXISTS (SELECT 1 FROM sys.indexes WHERE name = N'%s' AND object_id = OBJECT_ID(N'%s'))\n  %s",
		escapeLiteral(strings.TrimSpace(ix.Name)),
		escapeLiteral(quoteFQN(ix.Table)),
		create,
	), nil
}

// quoteIdent quotes a single identifier segment using bracket syntax,
// escaping any closing brackets.
//
//	name      -> [name]
//	weird]id  -> [weird]]id]
func quoteIdent(id string) string {
	return "[" + strings.ReplaceAll(id, "]", "]]") + "]"
}

// quoteFQN quotes a possibly schema-qualified table name, e.g.:
//
//	"dbo.Users"   -> [dbo].[Users]
//	"Users"       -> [Users]
func quoteFQN(fqn string) string {
	parts := strings.Split(fqn, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, quoteIdent(p))
	}
	return strings.Join(out, ".")
}

func escapeLiteral(s string) string { return strings.ReplaceAll(s, "'", "''") }
