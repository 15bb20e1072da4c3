// Package csv reads delimited files in bounded row chunks so arbitrarily
// large inputs never need to fit in memory.
package csv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DefaultChunkSize is used when Options.ChunkSize is not positive.
const DefaultChunkSize = 100000

// Options configures a ChunkReader. The zero value reads comma-separated
// input in DefaultChunkSize chunks.
type Options struct {
	// Comma is the field delimiter; zero means ','.
	Comma rune
	// ChunkSize is the maximum number of records returned by Next.
	ChunkSize int
	// LazyQuotes relaxes quote handling in encoding/csv.
	LazyQuotes bool
}

// ChunkReader yields records in chunks of at most Options.ChunkSize rows.
// Every record is padded or cut to the header width: missing cells become
// "", extra cells are dropped.
type ChunkReader struct {
	cr     *csv.Reader
	header []string
	size   int
	line   int
	done   bool
}

// NewChunkReader wraps r, strips a UTF-8 or UTF-16 byte order mark and reads
// the header row. Input without a BOM is passed through untouched.
func NewChunkReader(r io.Reader, opt Options) (*ChunkReader, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(transform.Nop))

	cr := csv.NewReader(decoded)
	if opt.Comma != 0 {
		cr.Comma = opt.Comma
	}
	cr.LazyQuotes = opt.LazyQuotes
	cr.FieldsPerRecord = -1

	h, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("csv: empty input, no header row")
	}
	if err != nil {
		return nil, fmt.Errorf("csv: read header: %w", err)
	}

	size := opt.ChunkSize
	if size <= 0 {
		size = DefaultChunkSize
	}
	return &ChunkReader{cr: cr, header: normalizeHeader(h), size: size, line: 1}, nil
}

// Header returns the normalized column names.
func (c *ChunkReader) Header() []string { return c.header }

// Next returns the next chunk of records. It returns io.EOF, and no records,
// once the input is exhausted. A malformed record aborts the read.
func (c *ChunkReader) Next() ([][]string, error) {
	if c.done {
		return nil, io.EOF
	}
	width := len(c.header)
	out := make([][]string, 0, min(c.size, 1024))
	for len(out) < c.size {
		rec, err := c.cr.Read()
		if errors.Is(err, io.EOF) {
			c.done = true
			break
		}
		c.line++
		if err != nil {
			return nil, fmt.Errorf("csv: line %d: %w", c.line, err)
		}
		row := make([]string, width)
		copy(row, rec)
		out = append(out, row)
	}
	if len(out) == 0 {
		return nil, io.EOF
	}
	return out, nil
}

// Line reports the last physical record number read (the header is line 1).
func (c *ChunkReader) Line() int { return c.line }

// normalizeHeader trims header cells, names blank cells col_N and suffixes
// repeated names with .1, .2, ...
func normalizeHeader(h []string) []string {
	res := make([]string, len(h))
	seen := make(map[string]int, len(h))
	for i, col := range h {
		c := strings.TrimSpace(col)
		if c == "" {
			c = "col_" + strconv.Itoa(i)
		}
		if n, ok := seen[c]; ok {
			seen[c] = n + 1
			c = c + "." + strconv.Itoa(n+1)
		} else {
			seen[c] = 0
		}
		res[i] = c
	}
	return res
}
