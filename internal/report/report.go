// Package report produces the per-run uninstall report. Reports are
// append-only output: every run writes a new timestamped file and nothing
// is ever overwritten silently.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Beaulewis1977/master-workflow-sub003/internal/scan"
)

// ComponentCounts breaks removed entries down by the ruleset bucket that
// classified them.
type ComponentCounts struct {
	Directories int `json:"directories"`
	Files       int `json:"files"`
	Patterns    int `json:"patterns"`
	Total       int `json:"total"`
}

// RemovedItems lists removed relative paths, grouped like ComponentCounts.
type RemovedItems struct {
	Directories []string `json:"directories"`
	Files       []string `json:"files"`
	Patterns    []string `json:"patterns"`
}

// Report is the JSON document written at the end of every run, dry or not.
type Report struct {
	Timestamp          time.Time       `json:"timestamp"`
	ProjectRoot        string          `json:"projectRoot"`
	DryRun             bool            `json:"dryRun"`
	BackupCreated      bool            `json:"backupCreated"`
	BackupLocation     string          `json:"backupLocation"`
	ComponentsRemoved  ComponentCounts `json:"componentsRemoved"`
	RemovedItems       RemovedItems    `json:"removedItems"`
	KeptSize           int64           `json:"keptSize"`
	Failures           []string        `json:"failures"`
	VerificationPassed bool            `json:"verificationPassed"`
}

// New creates an empty report for the given project. Slices are initialized
// so the JSON always carries arrays, never null.
func New(projectRoot string, dryRun bool) *Report {
	return &Report{
		Timestamp:   time.Now(),
		ProjectRoot: projectRoot,
		DryRun:      dryRun,
		RemovedItems: RemovedItems{
			Directories: []string{},
			Files:       []string{},
			Patterns:    []string{},
		},
		Failures: []string{},
	}
}

// AddRemoved records one removed entry under its classification source.
func (r *Report) AddRemoved(e scan.Entry) {
	switch e.Source {
	case scan.SourceDirectory:
		r.RemovedItems.Directories = append(r.RemovedItems.Directories, e.RelPath)
		r.ComponentsRemoved.Directories++
	case scan.SourceFile:
		r.RemovedItems.Files = append(r.RemovedItems.Files, e.RelPath)
		r.ComponentsRemoved.Files++
	default:
		r.RemovedItems.Patterns = append(r.RemovedItems.Patterns, e.RelPath)
		r.ComponentsRemoved.Patterns++
	}
	r.ComponentsRemoved.Total++
}

// AddFailure records one per-entry removal failure.
func (r *Report) AddFailure(rel string, err error) {
	r.Failures = append(r.Failures, fmt.Sprintf("%s: %v", rel, err))
}

// Write persists the report into dir as a new timestamped file and returns
// its path. An existing file with the same name is never clobbered; a
// counter suffix disambiguates instead.
func Write(dir string, r *Report) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}
	data = append(data, '\n')

	base := fmt.Sprintf("uninstall-report-%s", r.Timestamp.Format("2006-01-02-150405"))
	for i := 0; ; i++ {
		name := base + ".json"
		if i > 0 {
			name = fmt.Sprintf("%s-%d.json", base, i)
		}

		path := filepath.Join(dir, name)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if os.IsExist(err) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("failed to create report file: %w", err)
		}

		if _, err := f.Write(data); err != nil {
			f.Close()
			return "", fmt.Errorf("failed to write report: %w", err)
		}
		return path, f.Close()
	}
}
