package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chronograph-dev/chronograph/internal/ops"
)

var graphBuildJSON bool

var graphBuildCmd = &cobra.Command{
	Use:   "graph-build",
	Short: "Build the static source graph and its automaton description",
	Long: `graph-build reads the project descriptor sync produced, extracts file-level
reference edges, classifies every node into a structural role, and
persists both the graph and its description document.

Run sync first.

Examples:
  chronograph graph-build
  chronograph graph-build --json`,
	RunE: runGraphBuild,
}

func init() {
	graphBuildCmd.Flags().BoolVar(&graphBuildJSON, "json", false, "output as JSON")
}

func runGraphBuild(cmd *cobra.Command, args []string) error {
	facade := ops.New(workspaceFlag, cfg, logger)
	resp, err := facade.GraphBuild(cmd.Context(), ops.GraphBuildRequest{WorkspacePath: workspaceFlag})
	if err != nil {
		return err
	}

	if graphBuildJSON {
		return printJSON(resp)
	}
	fmt.Printf("built graph: %d nodes, %d edges\n", resp.NodeCount, resp.EdgeCount)
	return nil
}
