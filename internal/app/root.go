// Package app wires the overlayctl CLI: one file per subcommand, cobra
// RunE handlers, and the explicit per-invocation configuration object.
package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Beaulewis1977/master-workflow-sub003/internal/config"
	"github.com/Beaulewis1977/master-workflow-sub003/internal/logging"
	"github.com/Beaulewis1977/master-workflow-sub003/internal/version"
)

var (
	flagProject string
	flagDBPath  string
	verbosity   int

	// RootCmd is the root command for overlayctl.
	RootCmd = &cobra.Command{
		Use:   "overlayctl",
		Short: "Safely uninstall a tool overlay from a project",
		Long: `overlayctl removes a previously-installed overlay (tool-generated
directories, files, and pattern-matched artifacts) from a project while
guaranteeing that no user-authored file is ever lost.

Every uninstall creates a backup snapshot before touching the filesystem,
verifies post-removal integrity against it, and restores automatically if
a user file went missing.

Quick Start:
  1. overlayctl uninstall --dry-run   # preview the removal plan
  2. overlayctl uninstall             # remove with backup + verification
  3. overlayctl history               # review past runs

Recovery:
  # After a crash or a bad run, restore from the recorded snapshot
  overlayctl recover --from-backup <snapshot-dir>`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Setup(verbosity)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("overlayctl: overlay uninstall & recovery engine")
			fmt.Println()
			fmt.Println("Run 'overlayctl uninstall --dry-run' to preview a removal.")
			fmt.Println("Run 'overlayctl --help' for the full reference.")
			return nil
		},
	}
)

func init() {
	RootCmd.PersistentFlags().StringVar(&flagProject, "project", "", "project root (default: current directory)")
	RootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "run-history database path (default: ~/.overlayctl/overlayctl.db)")
	RootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "increase log verbosity (-v info, -vv debug)")

	RootCmd.SuggestionsMinimumDistance = 2
}

// Execute runs the root command.
func Execute() error {
	return RootCmd.Execute()
}

// projectRoot resolves the --project flag, defaulting to the working
// directory.
func projectRoot() (string, error) {
	if flagProject != "" {
		return flagProject, nil
	}

	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	return wd, nil
}

// dbPath resolves the --db flag against the default state directory.
func dbPath() (string, error) {
	if flagDBPath != "" {
		return flagDBPath, nil
	}

	dir, err := config.StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "overlayctl.db"), nil
}
