package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Beaulewis1977/master-workflow-sub003/internal/output"
)

var historyFlagAll bool

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past uninstall runs",
	Long: `List uninstall runs recorded in the run-history database, newest
first: when each ran, how much was removed, whether anything failed, and
whether post-removal verification passed.`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().BoolVar(&historyFlagAll, "all", false, "List runs for every project, not just this one")

	RootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	st := openStore()
	if st == nil {
		return fmt.Errorf("run-history database unavailable")
	}
	defer st.Close()

	project := ""
	if !historyFlagAll {
		root, err := projectRoot()
		if err != nil {
			return err
		}
		project, err = absRoot(root)
		if err != nil {
			return err
		}
	}

	runs, err := st.ListRuns(project)
	if err != nil {
		return err
	}

	fmt.Print(output.RenderRunTable(runs))
	return nil
}
