// Package datasource defines where the bulk loader reads its bytes from.
package datasource

import (
	"context"
	"io"
)

// Source opens one input stream. Callers close the returned reader.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}
