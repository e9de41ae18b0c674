package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Faultbox/dtsconv/internal/source"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <archive.grf> [pattern]",
		Short: "List the entries of a GRF archive",
		Long: `List the entries of a GRF archive, optionally filtered by a glob
matched against the entry's base name, e.g. "*.rsm".`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := source.OpenArchive(args[0])
			if err != nil {
				return err
			}
			defer a.Close()

			pattern := ""
			if len(args) > 1 {
				pattern = args[1]
			}
			names, err := a.List(pattern)
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}
