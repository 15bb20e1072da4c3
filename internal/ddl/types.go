package ddl

// Logical column kinds understood by every dialect's MapType.
const (
	KindInt     = "int"
	KindBigInt  = "bigint"
	KindFloat   = "float"
	KindDecimal = "decimal"
	KindVarchar = "varchar"
	KindText    = "text"
)

// ColumnDef describes a single column in a table definition. It intentionally
// uses simple, database-agnostic fields.
//
// Fields:
//   - Name: column name (unquoted; quoting happens at render time)
//   - Kind: logical type (KindInt, KindDecimal, ...) resolved by a dialect
//   - SQLType: explicit SQL type; when set it wins over Kind
//   - Nullable: whether NULL is allowed
//   - PrimaryKey: whether the column is part of the primary key
type ColumnDef struct {
	Name       string
	Kind       string
	SQLType    string
	Nullable   bool
	PrimaryKey bool
}

// TableDef holds the table name (FQN, optionally "schema.table") and an
// ordered list of columns.
type TableDef struct {
	FQN     string
	Columns []ColumnDef
}

// ColumnNames returns the column names in declaration order.
func (t TableDef) ColumnNames() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}

// IndexDef is a non-unique secondary index on Table(Columns...).
type IndexDef struct {
	Name    string
	Table   string
	Columns []string
}
