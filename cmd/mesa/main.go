package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mesadb/mesa/engine"
	"github.com/mesadb/mesa/output"
	"github.com/mesadb/mesa/sql"
)

var (
	configFlag  string
	verboseFlag bool
	formatFlag  string
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "mesa",
		Short: "SQL over anything that can pretend to be a table",
		Long: `mesa runs SQL against virtual tables: CSV and parquet files, JSON
endpoints, SQLite databases, AWK programs and in-memory data. Tables are
declared in a YAML catalog (mesa.yaml by default).`,
		Example: `  mesa query "SELECT name FROM users WHERE age > ?" --arg 21
  mesa query "SELECT * FROM events LIMIT 10" --format csv
  mesa shell
  mesa tables`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			initLogging(verboseFlag)
		},
	}

	root.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "catalog file (default ./mesa.yaml)")
	root.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().StringVarP(&formatFlag, "format", "f", "table", "output format: table, jsonl, csv")

	root.AddCommand(queryCmd(), shellCmd(), tablesCmd(), versionCmd())
	return root
}

func initLogging(verbose bool) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

func formatterFor(name string, w io.Writer) (output.Formatter, error) {
	switch name {
	case "table":
		return output.NewTableFormatter(w), nil
	case "jsonl", "json":
		return output.NewJSONFormatter(w), nil
	case "csv":
		return output.NewCSVFormatter(w), nil
	default:
		return nil, fmt.Errorf("unknown format %q (want table, jsonl or csv)", name)
	}
}

// runStatement parses text just far enough to route it: SELECT prints
// rows through f, everything else reports the number of rows affected.
func runStatement(db *engine.DB, text string, args []interface{}, f output.Formatter, out io.Writer) error {
	stmt, err := sql.Parse(text)
	if err != nil {
		return err
	}

	start := time.Now()
	if _, ok := stmt.(*sql.SelectStatement); ok {
		rows, err := db.Select(text, args...)
		if err != nil {
			return err
		}
		all, err := rows.All()
		if err != nil {
			return err
		}
		slog.Debug("query finished", "rows", len(all), "elapsed", time.Since(start))
		return f.Format(all)
	}

	n, err := db.Exec(text, args...)
	if err != nil {
		return err
	}
	slog.Debug("statement finished", "affected", n, "elapsed", time.Since(start))
	fmt.Fprintf(out, "%d rows affected\n", n)
	return nil
}
