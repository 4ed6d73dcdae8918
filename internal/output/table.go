package output

import (
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"github.com/Beaulewis1977/master-workflow-sub003/internal/plan"
	"github.com/Beaulewis1977/master-workflow-sub003/internal/store"
)

// ANSI color codes for classification display.
const (
	colorReset  = "\033[0m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
)

// IsColorEnabled returns true if ANSI color codes should be emitted.
// It checks that os.Stdout is a TTY and that NO_COLOR is not set.
func IsColorEnabled() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd())
}

// RenderPlanTable renders the removal plan in execution order.
func RenderPlanTable(items []plan.Item) string {
	if len(items) == 0 {
		return "Nothing scheduled for removal.\n"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-48s %-10s %-10s %s\n", "Path", "Kind", "Size", "Note"))
	sb.WriteString(strings.Repeat("─", 80))
	sb.WriteString("\n")

	for _, item := range items {
		e := item.Entry
		sb.WriteString(fmt.Sprintf("%-48s %-10s %-10s %s\n",
			truncate(e.RelPath, 48),
			e.Kind.String(),
			FormatSize(e.SizeBytes),
			item.Note))
	}

	return sb.String()
}

// RenderBackupTable renders registered backup snapshots, newest first.
func RenderBackupTable(backups []*store.Backup) string {
	if len(backups) == 0 {
		return "No backups recorded.\n"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-10s %-20s %-8s %s\n", "ID", "Created", "Entries", "Location"))
	sb.WriteString(strings.Repeat("─", 80))
	sb.WriteString("\n")

	for _, b := range backups {
		sb.WriteString(fmt.Sprintf("%-10s %-20s %-8d %s\n",
			b.BackupID[:min(8, len(b.BackupID))],
			b.CreatedAt.Format("2006-01-02 15:04:05"),
			b.EntryCount,
			b.Location))
	}

	return sb.String()
}

// RenderRunTable renders past uninstall runs, newest first.
func RenderRunTable(runs []*store.Run) string {
	if len(runs) == 0 {
		return "No uninstall runs recorded.\n"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-20s %-8s %-8s %-7s %-10s %s\n",
		"Created", "Removed", "Failed", "DryRun", "Verified", "State"))
	sb.WriteString(strings.Repeat("─", 72))
	sb.WriteString("\n")

	for _, r := range runs {
		verified := "yes"
		if !r.VerificationPassed {
			verified = colorize("NO", colorRed)
		}
		sb.WriteString(fmt.Sprintf("%-20s %-8d %-8d %-7v %-10s %s\n",
			r.CreatedAt.Format("2006-01-02 15:04:05"),
			r.RemovedTotal,
			r.FailedCount,
			r.DryRun,
			verified,
			r.FinalState))
	}

	return sb.String()
}

// Warn prints a loud yellow warning line to stderr.
func Warn(msg string) {
	if os.Getenv("NO_COLOR") == "" && isatty.IsTerminal(os.Stderr.Fd()) {
		fmt.Fprintf(os.Stderr, "%s⚠  %s%s\n", colorYellow, msg, colorReset)
		return
	}
	fmt.Fprintf(os.Stderr, "⚠  %s\n", msg)
}

// FormatSize renders a byte count for humans.
func FormatSize(bytes int64) string {
	if bytes < 0 {
		bytes = 0
	}
	return humanize.Bytes(uint64(bytes))
}

func colorize(s, color string) string {
	if !IsColorEnabled() {
		return s
	}
	return color + s + colorReset
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
