package tables

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/mesadb/mesa/engine"
	"github.com/mesadb/mesa/sql"
)

// CSV reads a delimited file with a header row. Rows stream from disk as
// the engine pulls, one record at a time; the file is opened per Select
// and closed with the iterator. Cells are typed: integer text becomes
// int64, decimal text float64, empty cells NULL, everything else string.
// Row IDs are 1-based record ordinals.
type CSV struct {
	path  string
	comma rune
}

// CSVOption configures a CSV table.
type CSVOption func(*CSV)

// CSVWithComma sets the field delimiter, for tab- or semicolon-separated
// files.
func CSVWithComma(r rune) CSVOption {
	return func(c *CSV) { c.comma = r }
}

// NewCSV returns a table over the file at path. The file is not touched
// until the first Select.
func NewCSV(path string, opts ...CSVOption) *CSV {
	c := &CSV{path: path, comma: ','}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *CSV) Select(stmt *sql.SelectStatement) (engine.Iterator, error) {
	f, err := os.Open(c.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	r := csv.NewReader(f)
	r.Comma = c.comma
	r.FieldsPerRecord = -1 // ragged rows read as NULL in the missing columns

	header, err := r.Read()
	if err == io.EOF {
		_ = f.Close()
		return engine.NewSliceIterator(), nil
	}
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to read header of %s: %w", c.path, err)
	}
	return &csvIterator{path: c.path, file: f, r: r, header: header}, nil
}

type csvIterator struct {
	path   string
	file   *os.File
	r      *csv.Reader
	header []string
	n      int64
}

func (it *csvIterator) Next() (engine.Item, error) {
	record, err := it.r.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", it.path, err)
	}
	it.n++
	values := make(map[string]interface{}, len(it.header))
	for i, col := range it.header {
		if i < len(record) {
			values[col] = typedValue(record[i])
		} else {
			values[col] = nil
		}
	}
	return engine.Row{ID: it.n, Values: values}, nil
}

func (it *csvIterator) Close() error {
	if it.file == nil {
		return nil
	}
	err := it.file.Close()
	it.file = nil
	return err
}

// typedValue converts raw text to the value it looks like: int64, then
// float64, then string. Empty text reads as NULL.
func typedValue(s string) interface{} {
	if s == "" {
		return nil
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
