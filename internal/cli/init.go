package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/davstore/internal/paths"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize davstore storage",
		Long:  "Create the configuration and data directories, then create or migrate the database.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.open(); err != nil {
				return err
			}
			cfg, err := a.storeConfig()
			if err != nil {
				return err
			}
			if err := os.MkdirAll(paths.AttachmentsDir(cfg.DataDir), 0o755); err != nil {
				return sysError("create attachments dir: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "davstore initialized in %s\n", cfg.DataDir)
			return nil
		},
	}
}
