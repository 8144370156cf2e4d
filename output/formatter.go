// Package output provides formatters for writing query results in various formats.
//
// Currently supported formats:
//   - JSON Lines: One JSON object per line
//   - CSV: Comma-separated values with header row
//   - Table: ASCII table with column headers
//
// Example usage:
//
//	formatter := output.NewJSONFormatter(os.Stdout)
//	if err := formatter.Format(rows); err != nil {
//	    log.Fatal(err)
//	}
package output

import (
	"fmt"
	"io"
	"sort"

	"github.com/mesadb/mesa/engine"
)

// Formatter defines the interface for result formatters.
//
// Implementers must provide Format to write rows in the target format
// and SetOutput to change the output destination.
type Formatter interface {
	// Format writes rows in the formatter's specific format
	Format(rows []engine.Row) error

	// SetOutput changes the output writer
	SetOutput(w io.Writer)
}

// columnsOf returns the sorted union of column names across rows. Rows
// from different sources may carry different columns, so the union keeps
// every row representable under one header.
func columnsOf(rows []engine.Row) []string {
	set := make(map[string]bool)
	for _, row := range rows {
		for col := range row.Values {
			set[col] = true
		}
	}
	columns := make([]string, 0, len(set))
	for col := range set {
		columns = append(columns, col)
	}
	sort.Strings(columns)
	return columns
}

// renderValue converts a cell to its display text. NULL renders as the
// empty string; formatters that want a marker substitute their own.
func renderValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return fmt.Sprintf("%t", val)
	case float32, float64:
		return fmt.Sprintf("%g", val)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
