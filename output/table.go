package output

import (
	"io"

	"github.com/olekukonko/tablewriter"

	"github.com/mesadb/mesa/engine"
)

// TableFormatter outputs rows as an ASCII table. NULL cells render as the
// literal NULL so they stay distinguishable from empty strings.
type TableFormatter struct {
	writer io.Writer
}

// NewTableFormatter creates a new ASCII table formatter
func NewTableFormatter(w io.Writer) *TableFormatter {
	return &TableFormatter{writer: w}
}

// SetOutput sets the output writer
func (f *TableFormatter) SetOutput(w io.Writer) {
	f.writer = w
}

// Format renders rows under the sorted union of their columns. No rows
// means no output.
func (f *TableFormatter) Format(rows []engine.Row) error {
	if len(rows) == 0 {
		return nil
	}

	columns := columnsOf(rows)
	table := tablewriter.NewWriter(f.writer)
	table.SetHeader(columns)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	for _, row := range rows {
		record := make([]string, len(columns))
		for i, col := range columns {
			if v, ok := row.Values[col]; ok && v != nil {
				record[i] = renderValue(v)
			} else {
				record[i] = "NULL"
			}
		}
		table.Append(record)
	}
	table.Render()
	return nil
}
