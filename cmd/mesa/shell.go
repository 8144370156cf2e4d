package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/mesadb/mesa/engine"
)

func shellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive SQL shell over the catalog tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := loadCatalog(configFlag)
			if err != nil {
				return err
			}
			db, err := openDB(cat)
			if err != nil {
				return err
			}
			return runShell(db, cmd.OutOrStdout())
		},
	}
}

func runShell(db *engine.DB, out io.Writer) error {
	line := liner.NewLiner()
	defer func() { _ = line.Close() }()
	line.SetCtrlCAborts(true)

	histPath := historyPath()
	if histPath != "" {
		if f, err := os.Open(histPath); err == nil {
			_, _ = line.ReadHistory(f)
			_ = f.Close()
		}
	}

	errColor := color.New(color.FgRed)
	format := formatFlag

	fmt.Fprintln(out, "mesa shell. Type .help for commands, .exit to leave.")
	for {
		input, err := line.Prompt("mesa> ")
		if err == liner.ErrPromptAborted {
			continue
		}
		if err == io.EOF {
			fmt.Fprintln(out)
			break
		}
		if err != nil {
			return err
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		if strings.HasPrefix(input, ".") {
			quit, err := dotCommand(db, input, &format, out)
			if err != nil {
				errColor.Fprintf(os.Stderr, "Error: %v\n", err)
				continue
			}
			if quit {
				break
			}
			continue
		}

		f, err := formatterFor(format, out)
		if err != nil {
			errColor.Fprintf(os.Stderr, "Error: %v\n", err)
			continue
		}
		if err := runStatement(db, input, nil, f, out); err != nil {
			errColor.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}

	if histPath != "" {
		saveHistory(line, histPath)
	}
	return nil
}

// dotCommand handles shell directives. It reports whether the shell
// should exit.
func dotCommand(db *engine.DB, input string, format *string, out io.Writer) (bool, error) {
	fields := strings.Fields(input)
	switch fields[0] {
	case ".exit", ".quit":
		return true, nil
	case ".help":
		fmt.Fprint(out, `.tables          list registered tables
.format <name>   switch output format (table, jsonl, csv)
.help            show this help
.exit            leave the shell
`)
		return false, nil
	case ".tables":
		for _, name := range db.Tables() {
			fmt.Fprintln(out, name)
		}
		return false, nil
	case ".format":
		if len(fields) != 2 {
			return false, fmt.Errorf(".format wants one argument")
		}
		if _, err := formatterFor(fields[1], io.Discard); err != nil {
			return false, err
		}
		*format = fields[1]
		return false, nil
	default:
		return false, fmt.Errorf("unknown command %s (try .help)", fields[0])
	}
}

func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".mesa_history")
}

func saveHistory(line *liner.State, path string) {
	f, err := os.Create(path)
	if err != nil {
		slog.Debug("failed to save shell history", "error", err)
		return
	}
	defer func() { _ = f.Close() }()
	if _, err := line.WriteHistory(f); err != nil {
		slog.Debug("failed to write shell history", "error", err)
	}
}
