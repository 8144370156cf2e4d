package tables

import (
	"bytes"
	"fmt"
	"strings"

	gawki "github.com/benhoyt/goawk/interp"
	gawkp "github.com/benhoyt/goawk/parser"

	"github.com/mesadb/mesa/engine"
	"github.com/mesadb/mesa/sql"
)

// AWK serves the printed output of an AWK program as rows. Each output
// line becomes one row: its whitespace-separated fields bind to the
// declared columns in order, typed like CSV cells; missing fields read as
// NULL and extra fields are dropped. Row IDs are 1-based line ordinals.
//
// The program text is parsed once at construction; each Select runs it
// over the input files.
//
// Example usage:
//
//	t, err := tables.NewAWK(`$3 > 0 { print $1, $3 * 100 }`,
//	    []string{"host", "load"}, "metrics.log")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	db.Register("load", t)
type AWK struct {
	prog    *gawkp.Program
	columns []string
	inputs  []string
}

// NewAWK parses program and returns a table producing one row per output
// line. columns names the output fields; inputs are the files the program
// reads (a BEGIN-only program needs none).
func NewAWK(program string, columns []string, inputs ...string) (*AWK, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("AWK table needs at least one column name")
	}
	prog, err := gawkp.ParseProgram([]byte(program), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to parse AWK program: %w", err)
	}
	return &AWK{prog: prog, columns: columns, inputs: inputs}, nil
}

func (a *AWK) Select(stmt *sql.SelectStatement) (engine.Iterator, error) {
	p, err := gawki.New(a.prog)
	if err != nil {
		return nil, fmt.Errorf("failed to build AWK interpreter: %w", err)
	}
	var buf bytes.Buffer
	config := &gawki.Config{
		Output: &buf,
		Args:   append([]string{}, a.inputs...),
	}
	if _, err := p.Execute(config); err != nil {
		return nil, fmt.Errorf("AWK program failed: %w", err)
	}

	var items []engine.Item
	var n int64
	for _, line := range strings.Split(buf.String(), "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		values := make(map[string]interface{}, len(a.columns))
		for i, col := range a.columns {
			if i < len(fields) {
				values[col] = typedValue(fields[i])
			} else {
				values[col] = nil
			}
		}
		n++
		items = append(items, engine.Row{ID: n, Values: values})
	}
	return engine.NewSliceIterator(items...), nil
}
