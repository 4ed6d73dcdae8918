package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Beaulewis1977/master-workflow-sub003/internal/output"
)

var snapshotsFlagAll bool

var snapshotsCmd = &cobra.Command{
	Use:   "snapshots",
	Short: "List recorded backup snapshots",
	Long: `List backup snapshots recorded in the run-history database,
newest first. Snapshots are created automatically before removal and are
retained after successful uninstalls for manual recovery.`,
	Example: `  overlayctl snapshots
  overlayctl snapshots --all    # across all projects`,
	RunE: runSnapshots,
}

func init() {
	snapshotsCmd.Flags().BoolVar(&snapshotsFlagAll, "all", false, "List snapshots for every project, not just this one")

	RootCmd.AddCommand(snapshotsCmd)
}

func runSnapshots(cmd *cobra.Command, args []string) error {
	st := openStore()
	if st == nil {
		return fmt.Errorf("run-history database unavailable")
	}
	defer st.Close()

	project := ""
	if !snapshotsFlagAll {
		root, err := projectRoot()
		if err != nil {
			return err
		}
		project, err = absRoot(root)
		if err != nil {
			return err
		}
	}

	backups, err := st.ListBackups(project)
	if err != nil {
		return err
	}

	fmt.Print(output.RenderBackupTable(backups))
	if len(backups) > 0 {
		fmt.Printf("\nRestore with: overlayctl recover --from-backup <location>\n")
	}
	return nil
}
