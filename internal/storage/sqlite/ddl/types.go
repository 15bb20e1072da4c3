// Package ddl contains SQLite-specific helpers for generating DDL.
//
// SQLite uses dynamic typing, so MapType returns the canonical affinity for
// each logical kind rather than a sized type.
package ddl

import (
	"strings"

	gddl "vendoretl/internal/ddl"
)

// MapType maps a logical kind into a SQLite column type:
//   - integer kinds -> INTEGER
//   - float         -> REAL
//   - decimal       -> NUMERIC
//   - others        -> TEXT
func MapType(kind string) string {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case gddl.KindInt, gddl.KindBigInt, "integer":
		return "INTEGER"
	case gddl.KindFloat, "double", "real":
		return "REAL"
	case gddl.KindDecimal, "numeric":
		return "NUMERIC"
	default:
		return "TEXT"
	}
}
