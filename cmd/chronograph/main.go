// Command chronograph builds and queries a temporal-graph impact model of
// a source repository.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/chronograph-dev/chronograph/internal/config"
	"github.com/chronograph-dev/chronograph/internal/logging"
)

// Exit codes.
const (
	ExitSuccess      = 0
	ExitError        = 1
	ExitNoChanges    = 2
	ExitAutomatonErr = 3
)

var (
	workspaceFlag string
	cfg           config.Config
	logger        *logging.Logger
)

var rootCmd = &cobra.Command{
	Use:   "chronograph",
	Short: "Temporal-graph impact analysis for source repositories",
	Long: `chronograph models a source repository as a temporal directed graph and
evolves it tick by tick to estimate the blast radius of a set of changed
files.

Typical workflow:
  chronograph sync              scan the workspace and record its layout
  chronograph graph-build       build the static graph and its description
  chronograph impact [files...] propagate activation from changed files
  chronograph evolve            run the automaton under its configured rules
  chronograph status            report what's currently persisted`,
}

func main() {
	logger = logging.Default()
	defer logger.Close()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(ExitError)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&workspaceFlag, "workspace", "", "workspace root (default: current directory)")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if workspaceFlag == "" {
			wd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("determining working directory: %w", err)
			}
			workspaceFlag = wd
		}
		loaded, err := config.Load(filepath.Join(workspaceFlag, config.FileName))
		if err != nil {
			return fmt.Errorf("loading %s: %w", config.FileName, err)
		}
		cfg = loaded
		return nil
	}

	rootCmd.AddCommand(syncCmd, graphBuildCmd, statusCmd, impactCmd, evolveCmd, cleanCmd, gitChangesCmd, watchCmd)
}
