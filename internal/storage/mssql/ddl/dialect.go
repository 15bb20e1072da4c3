package ddl

import gddl "vendoretl/internal/ddl"

// Dialect implements storage.Dialect for SQL Server.
type Dialect struct{}

func (Dialect) Name() string                { return "mssql" }
func (Dialect) QuoteIdent(id string) string { return quoteIdent(id) }
func (Dialect) QuoteFQN(fqn string) string  { return quoteFQN(fqn) }
func (Dialect) MapType(kind string) string  { return MapType(kind) }

func (Dialect) CreateTableSQL(t gddl.TableDef) (string, error) { return BuildCreateTableSQL(t) }
func (Dialect) DropTableIfExistsSQL(fqn string) string         { return BuildDropTableSQL(fqn) }
func (Dialect) CreateIndexSQL(ix gddl.IndexDef) (string, error) {
	return BuildCreateIndexSQL(ix)
}
