package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func tablesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List the tables the catalog declares",
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := loadCatalog(configFlag)
			if err != nil {
				return err
			}
			db, err := openDB(cat)
			if err != nil {
				return err
			}
			for _, name := range db.Tables() {
				spec := cat.Tables[name]
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", name, spec.Type)
			}
			return nil
		},
	}
}
