// Package ddl contains MSSQL-specific helpers for generating DDL.
package ddl

import (
	"strings"

	gddl "vendoretl/internal/ddl"
)

// MapType maps a logical kind into a SQL Server column type.
//
//	int      -> INT
//	bigint   -> BIGINT
//	float    -> FLOAT
//	decimal  -> DECIMAL(15,4)
//	varchar  -> VARCHAR(255)
//	text     -> NVARCHAR(MAX)
//
// Unknown or empty kinds fall back to NVARCHAR(MAX).
func MapType(kind string) string {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case gddl.KindInt, "integer":
		return "INT"
	case gddl.KindBigInt:
		return "BIGINT"
	case gddl.KindFloat, "double":
		return "FLOAT"
	case gddl.KindDecimal, "numeric":
		return "DECIMAL(15,4)"
	case gddl.KindVarchar:
		return "VARCHAR(255)"
	default:
		return "NVARCHAR(MAX)"
	}
}
