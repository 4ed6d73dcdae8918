package app

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Beaulewis1977/master-workflow-sub003/internal/config"
	"github.com/Beaulewis1977/master-workflow-sub003/internal/engine"
	"github.com/Beaulewis1977/master-workflow-sub003/internal/output"
	"github.com/Beaulewis1977/master-workflow-sub003/internal/plan"
	"github.com/Beaulewis1977/master-workflow-sub003/internal/store"
)

var (
	uninstallFlagDryRun           bool
	uninstallFlagForce            bool
	uninstallFlagNoBackup         bool
	uninstallFlagIncludeGenerated bool
	uninstallFlagBackupDir        string
)

var uninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove the overlay from the project, with backup and verification",
	Long: `Scan the project, build a safe removal plan, back up everything at
risk, execute the plan, and verify afterwards that no user file was lost.

Safety model:
  - Hard-coded preserve rules (lockfiles, env files, VCS metadata, source
    directories) always win; matching entries are never removed.
  - Entries that cannot be classified are kept, never inferred removable.
  - A backup snapshot is created before any deletion; if verification
    finds a user file missing, it is restored automatically.

Examples:
  # Preview what would be removed
  overlayctl uninstall --dry-run

  # Remove without prompting
  overlayctl uninstall --force

  # Also remove generated documents the overlay produced
  overlayctl uninstall --include-generated

  # Skip the backup (strongly discouraged)
  overlayctl uninstall --no-backup`,
	RunE: runUninstall,
}

func init() {
	uninstallCmd.Flags().BoolVar(&uninstallFlagDryRun, "dry-run", false, "Show the removal plan without deleting anything")
	uninstallCmd.Flags().BoolVar(&uninstallFlagForce, "force", false, "Skip confirmation prompts")
	uninstallCmd.Flags().BoolVar(&uninstallFlagNoBackup, "no-backup", false, "Skip backup snapshot creation (dangerous)")
	uninstallCmd.Flags().BoolVar(&uninstallFlagIncludeGenerated, "include-generated", false, "Also remove generated documents that are kept by default")
	uninstallCmd.Flags().StringVar(&uninstallFlagBackupDir, "backup-dir", "", "Backup destination (default: ~/.overlayctl/backups)")

	RootCmd.AddCommand(uninstallCmd)
}

func runUninstall(cmd *cobra.Command, args []string) error {
	root, err := projectRoot()
	if err != nil {
		return err
	}

	cfg, err := config.Load(root)
	if err != nil {
		return err
	}
	cfg.DryRun = uninstallFlagDryRun
	cfg.Force = uninstallFlagForce
	cfg.NoBackup = uninstallFlagNoBackup
	cfg.IncludeGenerated = uninstallFlagIncludeGenerated
	if uninstallFlagBackupDir != "" {
		cfg.BackupDir = uninstallFlagBackupDir
	}

	if cfg.NoBackup && !cfg.DryRun {
		output.Warn("Backup DISABLED (--no-backup) — removal cannot be undone!")
		if !cfg.Force && !confirmDangerous("You are about to remove overlay files with no backup.") {
			fmt.Println("Uninstall cancelled.")
			return engine.ErrCancelled
		}
	}

	st := openStore()
	if st != nil {
		defer st.Close()
	}

	// SIGINT mid-removal finishes the in-flight deletion and jumps to
	// verification; the engine never leaves the tree unaudited.
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var progress *output.ProgressBar
	opts := engine.Options{
		Confirm: func(p *plan.Plan) bool {
			fmt.Printf("\nRemoval plan:\n\n")
			fmt.Print(output.RenderPlanTable(p.Items))
			printPlanSummary(p, cfg)
			return confirm(fmt.Sprintf("Remove %d entries?", len(p.Items)))
		},
		OnExecute: func(p *plan.Plan) {
			if len(p.Items) > 0 {
				progress = output.NewProgress(len(p.Items), "Removing overlay entries")
			}
		},
		OnRemove: func(item plan.Item, err error) {
			if progress != nil {
				progress.Increment()
			}
		},
	}

	eng := engine.New(cfg)
	res, runErr := eng.Run(ctx, opts)
	if progress != nil {
		progress.Finish()
	}

	recordRun(st, cfg, res)

	if res != nil {
		printRunOutcome(res, cfg)
	}

	if runErr != nil {
		if errors.Is(runErr, engine.ErrCancelled) {
			fmt.Println("Uninstall cancelled.")
			return runErr
		}
		if res != nil && res.Report != nil {
			printRecoverHint(res.Report.BackupLocation)
		}
		return runErr
	}
	return nil
}

func printPlanSummary(p *plan.Plan, cfg *config.Config) {
	fmt.Printf("\nSummary:\n")
	fmt.Printf("  Entries:            %d\n", len(p.Items))
	fmt.Printf("  Disk space to free: %s\n", output.FormatSize(p.TotalSize))
	fmt.Printf("  Kept in place:      %s\n", output.FormatSize(p.KeptSize))
	if cfg.NoBackup {
		fmt.Printf("  Backup:             SKIPPED (--no-backup)\n")
	} else {
		fmt.Printf("  Backup:             will be created under %s\n", cfg.BackupDir)
	}
	fmt.Println()
}

func printRunOutcome(res *engine.Result, cfg *config.Config) {
	rep := res.Report
	if rep == nil {
		return
	}

	if cfg.DryRun {
		fmt.Printf("\nDry-run: %d entries would be removed (%s), nothing was touched.\n",
			rep.ComponentsRemoved.Total, output.FormatSize(res.Plan.TotalSize))
	} else {
		fmt.Printf("\n✓ Removed %d entries (%s freed)\n",
			rep.ComponentsRemoved.Total, output.FormatSize(res.Plan.TotalSize))
	}

	if len(res.Failures) > 0 {
		fmt.Printf("\n⚠  %d failures:\n", len(res.Failures))
		for _, f := range res.Failures {
			fmt.Printf("  - %s\n", f.Error())
		}
	}

	if rep.BackupCreated {
		fmt.Printf("\nBackup snapshot: %s\n", rep.BackupLocation)
	}
	if res.ReportPath != "" {
		fmt.Printf("Report: %s\n", res.ReportPath)
	}
	if res.State == engine.StateRestored {
		fmt.Println("\n⚠  Integrity violation was detected and repaired from the backup.")
	}
}

// recordRun indexes the finished run (and its backup) in the history store.
func recordRun(st *store.Store, cfg *config.Config, res *engine.Result) {
	if st == nil || res == nil || res.Report == nil {
		return
	}

	run := &store.Run{
		CreatedAt:          res.Report.Timestamp,
		ProjectRoot:        cfg.ProjectRoot,
		DryRun:             res.Report.DryRun,
		RemovedTotal:       res.Report.ComponentsRemoved.Total,
		FailedCount:        len(res.Failures),
		VerificationPassed: res.Report.VerificationPassed,
		FinalState:         res.State.String(),
		ReportPath:         res.ReportPath,
	}
	if _, err := st.InsertRun(run); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to record run history: %v\n", err)
	}

	if res.Snapshot != nil {
		b := &store.Backup{
			BackupID:    res.Snapshot.Metadata.BackupID,
			CreatedAt:   res.Snapshot.Metadata.Timestamp,
			ProjectRoot: cfg.ProjectRoot,
			Location:    res.Snapshot.Root,
			EntryCount:  len(res.Snapshot.Structure),
		}
		if _, err := st.InsertBackup(b); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to record backup: %v\n", err)
		}
	}
}
