package ddl

import (
	"fmt"
	"strings"

	gddl "vendoretl/internal/ddl"
)

type quoter struct{}

func (quoter) Ident(s string) string { return quoteIdent(strings.TrimSpace(s)) }
func (quoter) FQN(s string) string   { return quoteFQN(s) }

// BuildCreateTableSQL returns a SQLite CREATE TABLE statement for t. FQN
// values like "main.events" are quoted segment by segment.
func BuildCreateTableSQL(t gddl.TableDef) (string, error) {
	s, err := gddl.BuildCreateTableSQL(t, quoter{}, MapType)
	if err != nil {
		return "", fmt.Errorf("sqlite %w", err)
	}
	return s, nil
}

func quoteIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}

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

// Dialect implements storage.Dialect for SQLite.
type Dialect struct{}

func (Dialect) Name() string                { return "sqlite" }
func (Dialect) QuoteIdent(id string) string { return quoteIdent(id) }
func (Dialect) QuoteFQN(fqn string) string  { return quoteFQN(fqn) }
func (Dialect) MapType(kind string) string  { return MapType(kind) }

func (Dialect) CreateTableSQL(t gddl.TableDef) (string, error) { return BuildCreateTableSQL(t) }
func (Dialect) DropTableIfExistsSQL(fqn string) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s;", quoteFQN(fqn))
}
func (Dialect) CreateIndexSQL(ix gddl.IndexDef) (string, error) {
	s, err := gddl.BuildCreateIndexSQL(ix, quoter{}, true)
	if err != nil {
		return "", fmt.Errorf("sqlite %w", err)
	}
	return s, nil
}
