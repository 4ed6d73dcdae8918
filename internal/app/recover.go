package app

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Beaulewis1977/master-workflow-sub003/internal/backup"
	"github.com/Beaulewis1977/master-workflow-sub003/internal/config"
	"github.com/Beaulewis1977/master-workflow-sub003/internal/engine"
)

var (
	recoverFlagFromBackup string
	recoverFlagTarget     string
	recoverFlagPaths      []string
	recoverFlagYes        bool
)

var recoverCmd = &cobra.Command{
	Use:   "recover",
	Short: "Restore files from a backup snapshot",
	Long: `Restore user files from a backup snapshot, independently of any
uninstall run. Use this after a crash, or whenever the pointer file
.overlay-backup is still present in a project root.

A snapshot directory without its metadata file is the leftover of a backup
that crashed mid-copy; restoring from it is refused.`,
	Example: `  overlayctl recover --from-backup ~/.overlayctl/backups/backup-2026-08-31-120000-a1b2c3d4
  overlayctl recover --from-backup <dir> --target /path/to/project
  overlayctl recover --from-backup <dir> --paths src/index.js --paths package.json`,
	RunE: runRecover,
}

func init() {
	recoverCmd.Flags().StringVar(&recoverFlagFromBackup, "from-backup", "", "Snapshot directory to restore from (required)")
	recoverCmd.Flags().StringVar(&recoverFlagTarget, "target", "", "Target project root (default: current directory)")
	recoverCmd.Flags().StringArrayVar(&recoverFlagPaths, "paths", nil, "Restore only these relative paths (repeatable)")
	recoverCmd.Flags().BoolVar(&recoverFlagYes, "yes", false, "Skip confirmation prompt")
	_ = recoverCmd.MarkFlagRequired("from-backup")

	RootCmd.AddCommand(recoverCmd)
}

func runRecover(cmd *cobra.Command, args []string) error {
	snap, err := backup.Load(recoverFlagFromBackup)
	if err != nil {
		if errors.Is(err, backup.ErrIncompleteSnapshot) {
			return fmt.Errorf("refusing to restore: %w", err)
		}
		return err
	}

	target := recoverFlagTarget
	if target == "" {
		target, err = projectRoot()
		if err != nil {
			return err
		}
	}

	paths := recoverFlagPaths
	if len(paths) == 0 {
		paths, err = snap.PayloadPaths()
		if err != nil {
			return err
		}
	}

	fmt.Printf("\nSnapshot details:\n")
	fmt.Printf("  ID:      %s\n", snap.Metadata.BackupID)
	fmt.Printf("  Created: %s\n", snap.Metadata.Timestamp.Format("2006-01-02 15:04:05"))
	fmt.Printf("  Source:  %s\n", snap.Metadata.ProjectRoot)
	fmt.Printf("  Target:  %s\n", target)
	fmt.Printf("  Entries: %d\n\n", len(paths))

	if !recoverFlagYes && !confirm(fmt.Sprintf("Restore %d entries into %s?", len(paths), target)) {
		fmt.Println("Recovery cancelled.")
		return engine.ErrCancelled
	}

	cfg, err := config.Load(target)
	if err != nil {
		return err
	}

	mgr := backup.New(cfg)
	if err := mgr.Restore(cmd.Context(), snap, target, paths); err != nil {
		return &engine.RestorationFailure{Err: err}
	}

	fmt.Printf("\n✓ Restored %d entries from snapshot %s\n", len(paths), snap.Metadata.BackupID)
	return nil
}
