package output

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/Beaulewis1977/master-workflow-sub003/internal/plan"
	"github.com/Beaulewis1977/master-workflow-sub003/internal/scan"
	"github.com/Beaulewis1977/master-workflow-sub003/internal/store"
)

func TestProgressNonTTYPrintsOnlyFinalLine(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(3, "Removing overlay files...")
	p.SetWriter(&buf)

	p.Increment()
	p.Increment()
	if buf.Len() != 0 {
		t.Errorf("expected no output before completion, got %q", buf.String())
	}

	p.Increment()
	out := buf.String()
	if strings.Count(out, "\n") != 1 {
		t.Errorf("expected a single completed line, got %q", out)
	}
	if !strings.Contains(out, "100%") {
		t.Errorf("expected 100%% in output, got %q", out)
	}
	if !strings.Contains(out, "Removing overlay files...") {
		t.Errorf("expected description in output, got %q", out)
	}
	if strings.Contains(out, "\r") {
		t.Errorf("non-TTY output must not use carriage returns: %q", out)
	}
}

func TestProgressFinishCompletesBar(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(10, "cleanup")
	p.SetWriter(&buf)

	p.Increment()
	p.Finish()

	if !strings.Contains(buf.String(), "100%") {
		t.Errorf("Finish should force completion, got %q", buf.String())
	}
}

func TestProgressZeroTotal(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(0, "empty")
	p.SetWriter(&buf)

	// Must not panic or divide by zero.
	p.Finish()

	if !strings.Contains(buf.String(), "100%") {
		t.Errorf("empty bar should report completion, got %q", buf.String())
	}
}

func TestProgressIncrementPastTotal(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(1, "x")
	p.SetWriter(&buf)

	p.Increment()
	p.Increment()
	p.Increment()

	if strings.Contains(buf.String(), "200%") || strings.Contains(buf.String(), "300%") {
		t.Errorf("bar should clamp at 100%%, got %q", buf.String())
	}
}

func TestRenderPlanTable(t *testing.T) {
	items := []plan.Item{
		{
			Entry: scan.Entry{
				RelPath:        ".overlay/state.json",
				Kind:           scan.KindFile,
				Classification: scan.ClassSystemAsset,
				Source:         scan.SourceDirectory,
				SizeBytes:      2048,
			},
			Note: "inside system directory .overlay",
		},
		{
			Entry: scan.Entry{
				RelPath:        ".overlay",
				Kind:           scan.KindDir,
				Classification: scan.ClassSystemAsset,
				Source:         scan.SourceDirectory,
			},
			Note: "system directory",
		},
	}

	out := RenderPlanTable(items)
	for _, want := range []string{"Path", "Kind", ".overlay/state.json", "2.0 kB", "system directory"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in plan table:\n%s", want, out)
		}
	}
}

func TestRenderPlanTableEmpty(t *testing.T) {
	out := RenderPlanTable(nil)
	if !strings.Contains(out, "Nothing scheduled for removal") {
		t.Errorf("unexpected empty-plan rendering: %q", out)
	}
}

func TestRenderPlanTableTruncatesLongPaths(t *testing.T) {
	long := strings.Repeat("a/", 40) + "file.tmp"
	items := []plan.Item{{
		Entry: scan.Entry{RelPath: long, Kind: scan.KindFile},
		Note:  "matches removal pattern *.tmp",
	}}

	out := RenderPlanTable(items)
	if strings.Contains(out, long) {
		t.Errorf("expected long path to be truncated:\n%s", out)
	}
	if !strings.Contains(out, "...") {
		t.Errorf("expected ellipsis for truncated path:\n%s", out)
	}
}

func TestRenderBackupTable(t *testing.T) {
	created := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	backups := []*store.Backup{{
		BackupID:   "a1b2c3d4e5f6",
		Location:   "/home/u/.overlayctl/backups/backup-20250314-a1b2c3d4",
		EntryCount: 12,
		CreatedAt:  created,
	}}

	out := RenderBackupTable(backups)
	if !strings.Contains(out, "a1b2c3d4") {
		t.Errorf("expected shortened backup id:\n%s", out)
	}
	if strings.Contains(out, "a1b2c3d4e5f6") {
		t.Errorf("backup id should be truncated to 8 chars:\n%s", out)
	}
	if !strings.Contains(out, "2025-03-14 09:26:53") {
		t.Errorf("expected formatted timestamp:\n%s", out)
	}
}

func TestRenderBackupTableEmpty(t *testing.T) {
	if out := RenderBackupTable(nil); !strings.Contains(out, "No backups recorded") {
		t.Errorf("unexpected empty rendering: %q", out)
	}
}

func TestRenderRunTable(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	runs := []*store.Run{{
		CreatedAt:          time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC),
		RemovedTotal:       7,
		FailedCount:        1,
		DryRun:             false,
		VerificationPassed: false,
		FinalState:         "failed",
	}}

	out := RenderRunTable(runs)
	for _, want := range []string{"2025-03-14 10:00:00", "NO", "failed"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in run table:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\033[") {
		t.Errorf("NO_COLOR must suppress ANSI codes:\n%q", out)
	}
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{2048, "2.0 kB"},
		{1500000, "1.5 MB"},
		{-1, "0 B"},
	}

	for _, tt := range tests {
		if got := FormatSize(tt.bytes); got != tt.want {
			t.Errorf("FormatSize(%d) = %q, want %q", tt.bytes, got, tt.want)
		}
	}
}

func TestIsColorEnabledRespectsNoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	if IsColorEnabled() {
		t.Error("NO_COLOR set but color reported enabled")
	}
}
