package scan

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func testRuleset(t *testing.T, root string) *Ruleset {
	t.Helper()
	rs, err := DefaultRulesetSpec().Compile(root)
	if err != nil {
		t.Fatalf("failed to compile default ruleset: %v", err)
	}
	return rs
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir for %s: %v", rel, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", rel, err)
	}
}

func classOf(t *testing.T, entries []Entry, rel string) Classification {
	t.Helper()
	for _, e := range entries {
		if e.RelPath == rel {
			return e.Classification
		}
	}
	t.Fatalf("entry %s not found in scan results", rel)
	return ClassUnknown
}

func TestScanClassification(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/index.js", "console.log('hi')\n")
	writeFile(t, root, "overlay/cache.tmp", "cache")
	writeFile(t, root, "overlay/README.generated.md", "# generated")
	writeFile(t, root, ".overlay/state.json", "{}")
	writeFile(t, root, "package-lock.json", "{}")
	writeFile(t, root, "notes.txt", "mine")

	s := New(root, testRuleset(t, root), 0)
	entries, err := s.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	tests := []struct {
		rel  string
		want Classification
	}{
		{"src/index.js", ClassUserFile},
		{"src", ClassUserFile},
		{"overlay/cache.tmp", ClassSystemAsset},
		{"overlay/README.generated.md", ClassGeneratedPreserved},
		{".overlay", ClassSystemAsset},
		{".overlay/state.json", ClassSystemAsset},
		{"package-lock.json", ClassUserFile},
		{"notes.txt", ClassUnknown},
	}

	for _, tt := range tests {
		if got := classOf(t, entries, tt.rel); got != tt.want {
			t.Errorf("classification of %s = %s, want %s", tt.rel, got, tt.want)
		}
	}
}

func TestScanPreserveClosesOverSubtree(t *testing.T) {
	// A file inside a preserved directory stays user_file even when it
	// matches a removable pattern.
	root := t.TempDir()
	writeFile(t, root, "src/build.cache", "x")
	writeFile(t, root, "src/deep/nested/scratch.tmp", "x")

	s := New(root, testRuleset(t, root), 0)
	entries, err := s.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	for _, rel := range []string{"src/build.cache", "src/deep/nested/scratch.tmp"} {
		if got := classOf(t, entries, rel); got != ClassUserFile {
			t.Errorf("%s = %s, want user_file (preserve closes over subtree)", rel, got)
		}
	}
}

func TestScanSkipsIgnoredDirs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "node_modules/pkg/index.js", "x")
	writeFile(t, root, ".git/config", "x")
	writeFile(t, root, "keep.txt", "x")

	s := New(root, testRuleset(t, root), 0)
	entries, err := s.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	for _, e := range entries {
		if e.RelPath == "node_modules" || e.RelPath == ".git" {
			t.Errorf("ignored directory %s appeared in scan results", e.RelPath)
		}
		if strings.HasPrefix(e.RelPath, "node_modules/") || strings.HasPrefix(e.RelPath, ".git/") {
			t.Errorf("entry inside ignored directory leaked: %s", e.RelPath)
		}
	}
}

func TestScanDepthBound(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a/b/c/deep.txt", "x")

	s := New(root, testRuleset(t, root), 2)
	entries, err := s.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	for _, e := range entries {
		if e.RelPath == "a/b/c" || e.RelPath == "a/b/c/deep.txt" {
			t.Errorf("entry beyond depth bound appeared: %s", e.RelPath)
		}
	}
	// The bounded directory itself is still inventoried.
	if got := classOf(t, entries, "a/b"); got != ClassUnknown {
		t.Errorf("a/b = %s, want unknown", got)
	}
}

func TestScanUnknownRequiresReviewWithoutManifest(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "mystery.bin", "x")

	s := New(root, testRuleset(t, root), 0)
	entries, err := s.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	for _, e := range entries {
		if e.RelPath != "mystery.bin" {
			continue
		}
		if !e.RequiresReview {
			t.Error("unknown entry without manifest should be flagged for review")
		}
		if e.IsRemovable() {
			t.Error("unknown entry must never be removable")
		}
		return
	}
	t.Fatal("mystery.bin not scanned")
}

func TestScanManifestClassifiesInstalledPaths(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "tools/runner.sh", "#!/bin/sh\n")
	writeFile(t, root, "mystery.bin", "x")
	writeFile(t, root, "manifest.json", `["tools", "tools/runner.sh"]`)

	spec := DefaultRulesetSpec()
	spec.ManifestPath = "manifest.json"
	rs, err := spec.Compile(root)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	s := New(root, rs, 0)
	entries, err := s.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	if got := classOf(t, entries, "tools/runner.sh"); got != ClassSystemAsset {
		t.Errorf("manifested file = %s, want system_asset", got)
	}
	for _, e := range entries {
		if e.RelPath == "mystery.bin" && e.RequiresReview {
			t.Error("with a manifest present, unknown entries are not review-flagged")
		}
	}
}

func TestScanUnreadableEntryIsKeptAndFlagged(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("permission bits are not enforced for root")
	}

	root := t.TempDir()
	writeFile(t, root, "mystery/inner.txt", "hidden")
	writeFile(t, root, "overlay/cache.tmp", "cache")
	writeFile(t, root, "src/index.js", "keep")

	locked := filepath.Join(root, "mystery")
	if err := os.Chmod(locked, 0000); err != nil {
		t.Fatalf("chmod failed: %v", err)
	}
	t.Cleanup(func() { _ = os.Chmod(locked, 0755) })

	s := New(root, testRuleset(t, root), 0)
	entries, err := s.Scan(context.Background())
	if err != nil {
		t.Fatalf("a per-entry read failure must not abort the scan: %v", err)
	}

	seen := 0
	for _, e := range entries {
		if e.RelPath != "mystery" {
			continue
		}
		seen++
		if !e.ScanError {
			t.Error("unreadable directory should carry ScanError")
		}
		if e.Classification != ClassUnknown {
			t.Errorf("unreadable entry = %s, want unknown", e.Classification)
		}
		if !e.RequiresReview {
			t.Error("unreadable entry without manifest should be review-flagged")
		}
		if e.IsRemovable() {
			t.Error("an entry we could not read must never be removable")
		}
	}
	if seen != 1 {
		t.Fatalf("mystery appeared %d times in scan results, want 1", seen)
	}

	for _, e := range entries {
		if strings.HasPrefix(e.RelPath, "mystery/") {
			t.Errorf("contents of the unreadable directory leaked: %s", e.RelPath)
		}
	}

	// The rest of the tree still classifies normally.
	if got := classOf(t, entries, "overlay/cache.tmp"); got != ClassSystemAsset {
		t.Errorf("overlay/cache.tmp = %s, want system_asset", got)
	}
	if got := classOf(t, entries, "src/index.js"); got != ClassUserFile {
		t.Errorf("src/index.js = %s, want user_file", got)
	}
}

func TestScanSymlinkKind(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "overlay-target.tmp", "x")
	if err := os.Symlink(filepath.Join(root, "overlay-target.tmp"), filepath.Join(root, "link.tmp")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	s := New(root, testRuleset(t, root), 0)
	entries, err := s.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	for _, e := range entries {
		if e.RelPath == "link.tmp" {
			if e.Kind != KindSymlink {
				t.Errorf("link.tmp kind = %s, want symlink", e.Kind)
			}
			return
		}
	}
	t.Fatal("link.tmp not scanned")
}
