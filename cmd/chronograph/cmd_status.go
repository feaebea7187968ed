package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chronograph-dev/chronograph/internal/ops"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report what's currently persisted for this workspace",
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "output as JSON")
}

func runStatus(cmd *cobra.Command, args []string) error {
	facade := ops.New(workspaceFlag, cfg, logger)
	resp, err := facade.Status(cmd.Context(), ops.StatusRequest{WorkspacePath: workspaceFlag})
	if err != nil {
		return err
	}

	if statusJSON {
		return printJSON(resp)
	}
	fmt.Printf("workspace: %s\n", resp.Manifest.WorkspaceName)
	fmt.Printf("kind: %s\n", resp.Manifest.Kind)
	fmt.Printf("last sync: %s\n", resp.Manifest.LastSync.Format("2006-01-02 15:04:05"))
	fmt.Printf("repos: %d  files: %d\n", resp.Manifest.RepoCount, resp.Manifest.FileCount)
	fmt.Printf("graph built: %t\n", resp.HasGraph)
	fmt.Printf("store: %d files, %d bytes, %d snapshots\n", resp.StoreStats.FileCount, resp.StoreStats.TotalSizeBytes, resp.StoreStats.SnapshotCount)
	return nil
}
