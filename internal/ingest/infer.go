package ingest

import (
	"math"
	"strconv"
	"strings"

	"vendoretl/internal/ddl"
)

// nullTokens are the cell values read as missing, in addition to "".
var nullTokens = map[string]struct{}{
	"#N/A": {}, "#N/A N/A": {}, "#NA": {}, "-1.#IND": {}, "-1.#QNAN": {},
	"-NaN": {}, "-nan": {}, "1.#IND": {}, "1.#QNAN": {}, "<NA>": {},
	"N/A": {}, "NA": {}, "NULL": {}, "NaN": {}, "None": {}, "n/a": {},
	"nan": {}, "null": {},
}

// IsNull reports whether a raw CSV cell stands for a missing value.
func IsNull(cell string) bool {
	s := strings.TrimSpace(cell)
	if s == "" {
		return true
	}
	_, ok := nullTokens[s]
	return ok
}

func parseInt(cell string) (int64, bool) {
	v, err := strconv.ParseInt(strings.TrimSpace(cell), 10, 64)
	return v, err == nil
}

func parseFloat(cell string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// InferSchema derives a table definition from a header and a sample of rows.
// A column is bigint when every non-null cell is an integer, float when
// every non-null cell is a finite number, and text otherwise (including
// columns with no non-null cells). Columns are nullable and there is no key.
func InferSchema(table string, header []string, rows [][]string) ddl.TableDef {
	cols := make([]ddl.ColumnDef, len(header))
	for j, name := range header {
		cols[j] = ddl.ColumnDef{Name: name, Kind: inferKind(j, rows), Nullable: true}
	}
	return ddl.TableDef{FQN: table, Columns: cols}
}

func inferKind(j int, rows [][]string) string {
	seen := false
	isInt, isFloat := true, true
	for _, r := range rows {
		if j >= len(r) || IsNull(r[j]) {
			continue
		}
		seen = true
		if isInt {
			if _, ok := parseInt(r[j]); !ok {
				isInt = false
			}
		}
		if !isInt {
			if _, ok := parseFloat(r[j]); !ok {
				isFloat = false
				break
			}
		}
	}
	switch {
	case !seen:
		return ddl.KindText
	case isInt:
		return ddl.KindBigInt
	case isFloat:
		return ddl.KindFloat
	default:
		return ddl.KindText
	}
}

// ConvertRow turns raw cells into driver values for def's columns: nulls
// become nil, numeric columns are parsed, and cells that do not parse are
// passed through as strings for the database to accept or reject.
func ConvertRow(def ddl.TableDef, rec []string) []any {
	out := make([]any, len(def.Columns))
	for j, c := range def.Columns {
		if j >= len(rec) || IsNull(rec[j]) {
			continue
		}
		cell := rec[j]
		switch c.Kind {
		case ddl.KindBigInt, ddl.KindInt:
			if v, ok := parseInt(cell); ok {
				out[j] = v
				continue
			}
		case ddl.KindFloat:
			if v, ok := parseFloat(cell); ok {
				out[j] = v
				continue
			}
		}
		out[j] = cell
	}
	return out
}
