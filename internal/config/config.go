// Package config assembles the explicit configuration object threaded
// through every component. There is no process-wide state: each invocation
// builds one Config from defaults, the optional project uninstall.toml,
// and CLI flags, and passes it down.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/Beaulewis1977/master-workflow-sub003/internal/scan"
)

// ProjectFile is the optional per-project configuration, relative to the
// project root.
const ProjectFile = ".overlay/uninstall.toml"

// DefaultWorkers bounds the backup copy pool.
const DefaultWorkers = 6

// Config carries everything a single uninstall or recover invocation needs.
type Config struct {
	ProjectRoot string

	// BackupDir is where snapshot directories are created. It lives
	// outside the project tree so backups survive anything the engine
	// does to the project.
	BackupDir string

	// ReportDir receives one timestamped report per run.
	ReportDir string

	// DBPath locates the sqlite run-history index.
	DBPath string

	MaxDepth int
	Workers  int

	DryRun           bool
	Force            bool
	NoBackup         bool
	IncludeGenerated bool

	// CriticalFiles are top-level files copied into every backup payload
	// regardless of classification.
	CriticalFiles []string

	Ruleset *scan.Ruleset
}

// projectTOML mirrors the on-disk uninstall.toml shape.
type projectTOML struct {
	Scan struct {
		MaxDepth        int  `toml:"max_depth"`
		CaseInsensitive bool `toml:"case_insensitive"`
	} `toml:"scan"`
	Patterns struct {
		Preserve  []string `toml:"preserve"`
		System    []string `toml:"system"`
		Generated []string `toml:"generated"`
	} `toml:"patterns"`
	System struct {
		Directories []string `toml:"directories"`
		Files       []string `toml:"files"`
		Manifest    string   `toml:"manifest"`
	} `toml:"system"`
	Backup struct {
		Dir           string   `toml:"dir"`
		Workers       int      `toml:"workers"`
		CriticalFiles []string `toml:"critical_files"`
	} `toml:"backup"`
}

var defaultCriticalFiles = []string{
	"package.json",
	"README.md",
	"LICENSE",
	"Makefile",
}

// Load builds the configuration for a project root, merging the project's
// uninstall.toml (when present) over the defaults and compiling the rule
// set. Pattern compile failures surface here, before any scanning.
func Load(projectRoot string) (*Config, error) {
	root, err := filepath.Abs(projectRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project root: %w", err)
	}

	stateDir, err := StateDir()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		ProjectRoot:   root,
		BackupDir:     filepath.Join(stateDir, "backups"),
		ReportDir:     filepath.Join(stateDir, "reports"),
		DBPath:        filepath.Join(stateDir, "overlayctl.db"),
		MaxDepth:      scan.DefaultMaxDepth,
		Workers:       DefaultWorkers,
		CriticalFiles: append([]string(nil), defaultCriticalFiles...),
	}

	spec := scan.DefaultRulesetSpec()

	tomlPath := filepath.Join(root, filepath.FromSlash(ProjectFile))
	if data, readErr := os.ReadFile(tomlPath); readErr == nil {
		var pt projectTOML
		if err := toml.Unmarshal(data, &pt); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", ProjectFile, err)
		}
		applyProjectTOML(cfg, &spec, &pt)
	} else if !os.IsNotExist(readErr) {
		return nil, fmt.Errorf("failed to read %s: %w", ProjectFile, readErr)
	}

	ruleset, err := spec.Compile(root)
	if err != nil {
		return nil, err
	}
	cfg.Ruleset = ruleset

	return cfg, nil
}

func applyProjectTOML(cfg *Config, spec *scan.RulesetSpec, pt *projectTOML) {
	if pt.Scan.MaxDepth > 0 {
		cfg.MaxDepth = pt.Scan.MaxDepth
	}
	spec.CaseInsensitive = pt.Scan.CaseInsensitive

	spec.Preserve = append(spec.Preserve, pt.Patterns.Preserve...)
	spec.SystemPatterns = append(spec.SystemPatterns, pt.Patterns.System...)
	spec.GeneratedPatterns = append(spec.GeneratedPatterns, pt.Patterns.Generated...)
	spec.SystemDirs = append(spec.SystemDirs, pt.System.Directories...)
	spec.SystemFiles = append(spec.SystemFiles, pt.System.Files...)
	spec.ManifestPath = pt.System.Manifest

	if pt.Backup.Dir != "" {
		cfg.BackupDir = pt.Backup.Dir
	}
	if pt.Backup.Workers > 0 {
		cfg.Workers = pt.Backup.Workers
	}
	cfg.CriticalFiles = append(cfg.CriticalFiles, pt.Backup.CriticalFiles...)
}

// StateDir returns (and creates) the per-user overlayctl state directory.
func StateDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	dir := filepath.Join(home, ".overlayctl")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create state directory: %w", err)
	}
	return dir, nil
}
