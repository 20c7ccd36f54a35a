package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export <dir>",
		Short: "Write a JSONL snapshot of all table objects and properties",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.open()
			if err != nil {
				return err
			}
			if err := db.Export(cmd.Context(), args[0]); err != nil {
				return sysError("export: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported to %s\n", args[0])
			return nil
		},
	}
}

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <dir>",
		Short: "Replace all table objects and properties with a JSONL snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.open()
			if err != nil {
				return err
			}
			if err := db.Import(cmd.Context(), args[0]); err != nil {
				if errors.Is(err, os.ErrNotExist) {
					return userError("import: no snapshot in %s: %w", args[0], err)
				}
				return sysError("import: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported from %s\n", args[0])
			return nil
		},
	}
}
