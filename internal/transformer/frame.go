package transformer

import (
	"fmt"
	"math"
	"strconv"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// IsMissing reports whether e holds no value. NaN floats count as missing.
// So does a String cell whose text is exactly "NaN": gota stores it as NA,
// which matches ingest reading "NaN" as NULL.
func IsMissing(e series.Element) bool {
	if e.IsNA() {
		return true
	}
	return e.Type() == series.Float && math.IsNaN(e.Float())
}

// Require returns ErrMissingColumn naming the first of cols absent from df.
func Require(df dataframe.DataFrame, cols ...string) error {
	have := make(map[string]struct{}, df.Ncol())
	for _, n := range df.Names() {
		have[n] = struct{}{}
	}
	for _, c := range cols {
		if _, ok := have[c]; !ok {
			return fmt.Errorf("%w: %s", ErrMissingColumn, c)
		}
	}
	return nil
}

// Shape renders df's dimensions as "(rows, cols)".
func Shape(df dataframe.DataFrame) string {
	return fmt.Sprintf("(%d, %d)", df.Nrow(), df.Ncol())
}

// Render returns a canonical text form of e that distinguishes types and
// keeps full float precision. Two cells render equally only if they are
// equal.
func Render(e series.Element) string {
	if IsMissing(e) {
		return "\x00"
	}
	switch e.Type() {
	case series.Int:
		v, _ := e.Int()
		return "i" + strconv.Itoa(v)
	case series.Float:
		return "f" + strconv.FormatFloat(e.Float(), 'g', -1, 64)
	case series.Bool:
		v, _ := e.Bool()
		return "b" + strconv.FormatBool(v)
	default:
		return "s" + e.String()
	}
}
