package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chronograph-dev/chronograph/internal/ops"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the workspace tree and print filesystem events",
	Long: `Watch arms a recursive filesystem watch over the workspace (honoring the
same exclude-name set sync uses) and prints each change as it happens.
Runs until interrupted.`,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	facade := ops.New(workspaceFlag, cfg, logger)
	return facade.Watch(cmd.Context(), ops.WatchRequest{WorkspacePath: workspaceFlag}, func(ev ops.WatchEvent) {
		fmt.Printf("%s %s\n", ev.Op, ev.Path)
	})
}
