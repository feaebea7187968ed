package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chronograph-dev/chronograph/internal/ops"
)

var syncJSON bool

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Scan the workspace and record its repository layout",
	Long: `Sync walks the workspace tree, classifies it (single repo, multi repo, or
plain directory), and persists a content-stripped project descriptor plus
a manifest summarizing what was found.

Examples:
  chronograph sync
  chronograph sync --workspace ../other-repo`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().BoolVar(&syncJSON, "json", false, "output as JSON")
}

func runSync(cmd *cobra.Command, args []string) error {
	facade := ops.New(workspaceFlag, cfg, logger)
	resp, err := facade.Sync(cmd.Context(), ops.SyncRequest{WorkspacePath: workspaceFlag})
	if err != nil {
		return err
	}

	if syncJSON {
		return printJSON(resp)
	}
	fmt.Printf("synced %s: %d repositories, %d files\n", resp.Manifest.WorkspaceName, resp.RepoCount, resp.FileCount)
	return nil
}
