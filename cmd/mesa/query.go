package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesadb/mesa/engine"
)

func queryCmd() *cobra.Command {
	var argFlags, paramFlags []string

	cmd := &cobra.Command{
		Use:   "query <sql>",
		Short: "Run one SQL statement and print the result",
		Example: `  mesa query "SELECT * FROM users WHERE age > ?" --arg 21
  mesa query "SELECT * FROM users WHERE name = :who" --param who=alice
  mesa query "DELETE FROM scratch WHERE done = 1"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := loadCatalog(configFlag)
			if err != nil {
				return err
			}
			db, err := openDB(cat)
			if err != nil {
				return err
			}
			qargs, err := queryArgs(argFlags, paramFlags)
			if err != nil {
				return err
			}
			f, err := formatterFor(formatFlag, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			return runStatement(db, args[0], qargs, f, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringArrayVar(&argFlags, "arg", nil, "positional argument for ?, may repeat")
	cmd.Flags().StringArrayVar(&paramFlags, "param", nil, "named argument as name=value, may repeat")
	return cmd
}

// queryArgs converts flag text into engine arguments, positional first
// so named values never shift the ? cursor.
func queryArgs(positional, named []string) ([]interface{}, error) {
	args := make([]interface{}, 0, len(positional)+len(named))
	for _, p := range positional {
		args = append(args, typedArg(p))
	}
	for _, n := range named {
		name, value, ok := strings.Cut(n, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("--param wants name=value, got %q", n)
		}
		args = append(args, engine.Named(name, typedArg(value)))
	}
	return args, nil
}

// typedArg reads flag text the way SQL literals read: integer, float,
// the bare word null, then string.
func typedArg(s string) interface{} {
	if strings.EqualFold(s, "null") {
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
