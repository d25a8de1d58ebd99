// Package tsv reads tab-separated variant files and loads them into
// database tables. It can guess a column schema from a sample of the input:
// columns whose values all parse as integers or floats become numeric
// columns, and string columns with few distinct values become
// dictionary-encoded HashtableString columns.
package tsv

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/zygoslab/zygosdb/errs"
)

// Reader reads tab-separated records. Unlike encoding/csv it applies no
// quoting rules; genomic TSV exports routinely contain bare quote
// characters inside fields.
type Reader struct {
	scanner *bufio.Scanner
	line    int
	fields  int
}

// NewReader creates a Reader over r. Lines longer than the default
// bufio.Scanner limit are accepted up to 16MB.
func NewReader(r io.Reader) *Reader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)

	return &Reader{scanner: scanner}
}

// Read returns the fields of the next record, skipping blank lines.
// Every record must have the same field count as the first one. It returns
// io.EOF when the input is exhausted.
func (r *Reader) Read() ([]string, error) {
	for r.scanner.Scan() {
		r.line++
		text := strings.TrimRight(r.scanner.Text(), "\r")
		if text == "" {
			continue
		}

		fields := strings.Split(text, "\t")
		if r.fields == 0 {
			r.fields = len(fields)
		} else if len(fields) != r.fields {
			return nil, fmt.Errorf("%w: line %d has %d fields, expected %d",
				errs.ErrColumnMismatch, r.line, len(fields), r.fields)
		}

		return fields, nil
	}
	if err := r.scanner.Err(); err != nil {
		return nil, err
	}

	return nil, io.EOF
}

// ReadAll reads the remaining records.
func (r *Reader) ReadAll() ([][]string, error) {
	var records [][]string
	for {
		fields, err := r.Read()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return nil, err
		}
		records = append(records, fields)
	}
}

// Line returns the number of the last line read, 1-based.
func (r *Reader) Line() int {
	return r.line
}
