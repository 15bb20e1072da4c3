// Package ddl contains Postgres-specific helpers for generating DDL.
package ddl

import (
	"strings"

	gddl "vendoretl/internal/ddl"
)

// MapType normalizes a logical kind into a Postgres SQL type.
//
//	"int"/"integer"  -> INTEGER
//	"bigint"         -> BIGINT
//	"float"/"double" -> DOUBLE PRECISION
//	"decimal"        -> NUMERIC(15,4)
//	"varchar"        -> VARCHAR(255)
//	everything else  -> TEXT
func MapType(kind string) string {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case gddl.KindInt, "integer":
		return "INTEGER"
	case gddl.KindBigInt:
		return "BIGINT"
	case gddl.KindFloat, "double":
		return "DOUBLE PRECISION"
	case gddl.KindDecimal, "numeric":
		return "NUMERIC(15,4)"
	case gddl.KindVarchar:
		return "VARCHAR(255)"
	default:
		return "TEXT"
	}
}
