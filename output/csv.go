package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/mesadb/mesa/engine"
)

// CSVFormatter outputs rows as CSV with a header row. The header is the
// sorted union of every row's columns; cells a row lacks are left empty,
// as are NULL cells.
type CSVFormatter struct {
	writer io.Writer
}

// NewCSVFormatter creates a new CSV formatter
func NewCSVFormatter(w io.Writer) *CSVFormatter {
	return &CSVFormatter{writer: w}
}

// SetOutput sets the output writer
func (c *CSVFormatter) SetOutput(w io.Writer) {
	c.writer = w
}

// Format writes rows as CSV. No rows means no output, not even a header.
func (c *CSVFormatter) Format(rows []engine.Row) error {
	if len(rows) == 0 {
		return nil
	}

	w := csv.NewWriter(c.writer)
	columns := columnsOf(rows)
	if err := w.Write(columns); err != nil {
		return err
	}
	for _, row := range rows {
		record := make([]string, len(columns))
		for i, col := range columns {
			record[i] = sanitizeCell(row.Values[col])
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV writer: %w", err)
	}
	return nil
}

// sanitizeCell renders one cell, guarding strings that spreadsheet
// applications would execute as formulas. Such strings get a leading
// quote, with embedded single quotes doubled.
func sanitizeCell(v interface{}) string {
	s, isString := v.(string)
	if !isString {
		return renderValue(v)
	}
	if len(s) > 0 && strings.ContainsRune("=+-@\t\r\n|", rune(s[0])) {
		return "'" + strings.ReplaceAll(s, "'", "''")
	}
	return s
}
