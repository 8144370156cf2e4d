// Package output provides formatters for writing query results in various formats.
//
// This package defines the Formatter interface and provides implementations
// for common output formats. All formatters work with rows as returned by
// the engine ([]engine.Row); only row values are written, never row IDs.
//
// # Supported Formats
//
//   - JSON Lines: One JSON object per line (suitable for streaming)
//   - CSV: Comma-separated values with header row
//   - Table: ASCII table with column headers (the CLI default)
//
// # Basic Usage
//
// Using the JSON formatter:
//
//	formatter := output.NewJSONFormatter(os.Stdout)
//	if err := formatter.Format(rows); err != nil {
//	    log.Fatal(err)
//	}
//
// Using the table formatter:
//
//	formatter := output.NewTableFormatter(os.Stdout)
//	if err := formatter.Format(rows); err != nil {
//	    log.Fatal(err)
//	}
//
// # Writing to Different Destinations
//
// Change output destination dynamically:
//
//	formatter := output.NewCSVFormatter(os.Stdout)
//
//	file, err := os.Create("result.csv")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer file.Close()
//
//	formatter.SetOutput(file)
//	if err := formatter.Format(rows); err != nil {
//	    log.Fatal(err)
//	}
//
// # Formatter Interface
//
// Implement custom formatters by satisfying the Formatter interface:
//
//	type Formatter interface {
//	    Format(rows []engine.Row) error
//	    SetOutput(w io.Writer)
//	}
//
// # Type Handling
//
// Cell values are rendered by type: strings directly, integers in decimal,
// floats in their shortest form, booleans as true/false. NULL cells render
// as empty in CSV, as JSON null in JSON Lines, and as the literal NULL in
// tables. Columns are the sorted union across all rows, so heterogeneous
// row sets stay representable under one header.
package output
