package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chronograph-dev/chronograph/internal/ops"
)

var gitChangesRef string
var gitChangesJSON bool

var gitChangesCmd = &cobra.Command{
	Use:   "git-changes",
	Short: "List paths changed relative to a git ref",
	RunE:  runGitChanges,
}

func init() {
	gitChangesCmd.Flags().StringVar(&gitChangesRef, "ref", "", "git ref to diff against (default HEAD)")
	gitChangesCmd.Flags().BoolVar(&gitChangesJSON, "json", false, "output as JSON")
}

func runGitChanges(cmd *cobra.Command, args []string) error {
	facade := ops.New(workspaceFlag, cfg, logger)
	resp, err := facade.GitChanges(cmd.Context(), ops.GitChangesRequest{WorkspacePath: workspaceFlag, Ref: gitChangesRef})
	if err != nil {
		return err
	}

	if gitChangesJSON {
		return printJSON(resp)
	}
	for _, p := range resp.ChangedPaths {
		fmt.Println(p)
	}
	return nil
}
