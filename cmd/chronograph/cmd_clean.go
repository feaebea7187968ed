package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chronograph-dev/chronograph/internal/ops"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove every persisted artifact for this workspace",
	RunE:  runClean,
}

func runClean(cmd *cobra.Command, args []string) error {
	facade := ops.New(workspaceFlag, cfg, logger)
	if _, err := facade.Clean(cmd.Context(), ops.CleanRequest{WorkspacePath: workspaceFlag}); err != nil {
		return err
	}
	fmt.Println("cleaned")
	return nil
}
