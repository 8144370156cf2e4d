package output

import (
	"encoding/json"
	"io"

	"github.com/mesadb/mesa/engine"
)

// JSONFormatter outputs rows as JSON Lines format
type JSONFormatter struct {
	writer io.Writer
}

// NewJSONFormatter creates a new JSON Lines formatter
func NewJSONFormatter(w io.Writer) *JSONFormatter {
	return &JSONFormatter{writer: w}
}

// SetOutput sets the output writer
func (j *JSONFormatter) SetOutput(w io.Writer) {
	j.writer = w
}

// Format writes each row's values as one JSON object per line. NULL cells
// encode as JSON null.
func (j *JSONFormatter) Format(rows []engine.Row) error {
	encoder := json.NewEncoder(j.writer)
	for _, row := range rows {
		if err := encoder.Encode(row.Values); err != nil {
			return err
		}
	}
	return nil
}
