package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Beaulewis1977/master-workflow-sub003/internal/scan"
)

func TestAddRemovedBuckets(t *testing.T) {
	r := New("/project", false)

	r.AddRemoved(scan.Entry{RelPath: ".overlay", Source: scan.SourceDirectory})
	r.AddRemoved(scan.Entry{RelPath: ".overlayrc", Source: scan.SourceFile})
	r.AddRemoved(scan.Entry{RelPath: "a.tmp", Source: scan.SourcePattern})
	r.AddRemoved(scan.Entry{RelPath: "b.tmp", Source: scan.SourcePattern})

	if r.ComponentsRemoved.Directories != 1 || r.ComponentsRemoved.Files != 1 || r.ComponentsRemoved.Patterns != 2 {
		t.Errorf("bucket counts = %+v", r.ComponentsRemoved)
	}
	if r.ComponentsRemoved.Total != 4 {
		t.Errorf("total = %d, want 4", r.ComponentsRemoved.Total)
	}
	if len(r.RemovedItems.Patterns) != 2 {
		t.Errorf("pattern items = %v", r.RemovedItems.Patterns)
	}
}

func TestWriteNeverOverwrites(t *testing.T) {
	dir := t.TempDir()
	ts := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	r1 := New("/project", true)
	r1.Timestamp = ts
	r2 := New("/project", true)
	r2.Timestamp = ts

	p1, err := Write(dir, r1)
	if err != nil {
		t.Fatalf("first write failed: %v", err)
	}
	p2, err := Write(dir, r2)
	if err != nil {
		t.Fatalf("second write failed: %v", err)
	}

	if p1 == p2 {
		t.Errorf("second report overwrote the first: %s", p1)
	}
	for _, p := range []string{p1, p2} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("report %s missing: %v", p, err)
		}
	}
}

func TestWriteEmitsArraysNotNull(t *testing.T) {
	dir := t.TempDir()
	r := New("/project", false)

	path, err := Write(dir, r)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	var items map[string]json.RawMessage
	if err := json.Unmarshal(raw["removedItems"], &items); err != nil {
		t.Fatalf("removedItems malformed: %v", err)
	}
	for _, key := range []string{"directories", "files", "patterns"} {
		if string(items[key]) == "null" {
			t.Errorf("removedItems.%s serialized as null, want []", key)
		}
	}

	if filepath.Ext(path) != ".json" {
		t.Errorf("report file %s should be .json", path)
	}
}
