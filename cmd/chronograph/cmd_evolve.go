package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/chronograph-dev/chronograph/internal/ops"
)

var (
	evolveJSON     bool
	evolveMaxTicks int
)

var evolveCmd = &cobra.Command{
	Use:   "evolve",
	Short: "Run the automaton under the description's own rule assignments",
	Long: `Evolve seeds every node from the persisted description's defaults and runs
the automaton with each node dispatching its configured rule, until stable
or the tick cap fires. The final state, configuration, and tick history
are persisted under the workspace's automaton directory.

Unlike impact, evolve does not seed changed files; it exercises whatever
rules the description declares (builtin, composite, or llm when
credentials are configured).

Examples:
  chronograph evolve
  chronograph evolve --max-ticks 20 --json`,
	RunE: runEvolve,
}

func init() {
	evolveCmd.Flags().BoolVar(&evolveJSON, "json", false, "output as JSON")
	evolveCmd.Flags().IntVar(&evolveMaxTicks, "max-ticks", 0, "override the automaton tick cap for this run")
}

func runEvolve(cmd *cobra.Command, args []string) error {
	facade := ops.New(workspaceFlag, cfg, logger)
	resp, err := facade.Evolve(cmd.Context(), ops.EvolveRequest{WorkspacePath: workspaceFlag, MaxTicks: evolveMaxTicks})
	if err != nil {
		if errors.Is(err, ops.ErrAutomatonFailed) {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(ExitAutomatonErr)
		}
		return err
	}

	if evolveJSON {
		return printJSON(resp)
	}
	fmt.Printf("evolved %d node(s): %d tick(s), stable=%t, %d node(s) transitioned\n",
		resp.NodeCount, resp.TicksExecuted, resp.Stabilized, resp.EvolvedNodes)
	return nil
}
