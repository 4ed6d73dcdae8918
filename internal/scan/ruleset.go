package scan

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Beaulewis1977/master-workflow-sub003/internal/pattern"
)

// Ruleset is the compiled classification rule table handed to the scanner.
// Hard-coded preserve rules always win over every other bucket, and a
// preserved directory closes over its entire subtree.
type Ruleset struct {
	// Preserve holds the never-remove patterns: lockfiles, env files,
	// VCS metadata, common source directories, plus user additions.
	Preserve pattern.Set

	// SystemDirs and SystemFiles are exact relative paths the overlay
	// installer created; everything inside a system directory is a
	// system asset unless a preserve rule claims it first.
	SystemDirs  []string
	SystemFiles []string

	// SystemPatterns matches tool-managed artifacts by shape (caches,
	// temp files, logs). GeneratedPatterns matches documents the tool
	// generated but the user may have opted to keep.
	SystemPatterns    pattern.Set
	GeneratedPatterns pattern.Set

	// Manifest, when non-nil, is the set of relative paths the installer
	// recorded. Its absence switches the scanner into the conservative
	// fallback where every unknown entry is flagged for review.
	Manifest map[string]bool
}

// Default preserve patterns. Directory patterns are paired with a bare
// form so the directory entry itself is preserved along with its subtree.
var defaultPreserve = []string{
	"package-lock.json",
	"yarn.lock",
	"pnpm-lock.yaml",
	"go.sum",
	"Cargo.lock",
	"Gemfile.lock",
	"composer.lock",
	".env",
	".env.*",
	".gitignore",
	".gitattributes",
	".gitmodules",
	"src", "src/**",
	"lib", "lib/**",
	"app", "app/**",
	"test", "test/**",
	"tests", "tests/**",
}

// Directories the overlay installer owns outright.
var defaultSystemDirs = []string{
	".overlay",
	".workflow-system",
	".agents",
}

// Top-level files the overlay installer drops into the project root.
var defaultSystemFiles = []string{
	"overlay.config.json",
	".overlayrc",
	"OVERLAY.md",
}

var defaultSystemPatterns = []string{
	"*.tmp",
	"*.cache",
	"*.overlay.log",
	"**/.overlay-state.json",
}

var defaultGeneratedPatterns = []string{
	"*.generated.md",
	"*.generated.json",
	"**/docs/generated/**",
}

// RulesetSpec is the uncompiled form of a Ruleset, assembled by the config
// layer from defaults plus the project's uninstall.toml.
type RulesetSpec struct {
	Preserve          []string
	SystemDirs        []string
	SystemFiles       []string
	SystemPatterns    []string
	GeneratedPatterns []string
	ManifestPath      string
	CaseInsensitive   bool
}

// DefaultRulesetSpec returns the built-in rule table.
func DefaultRulesetSpec() RulesetSpec {
	return RulesetSpec{
		Preserve:          append([]string(nil), defaultPreserve...),
		SystemDirs:        append([]string(nil), defaultSystemDirs...),
		SystemFiles:       append([]string(nil), defaultSystemFiles...),
		SystemPatterns:    append([]string(nil), defaultSystemPatterns...),
		GeneratedPatterns: append([]string(nil), defaultGeneratedPatterns...),
	}
}

// Compile turns the spec into a matcher-backed Ruleset. Any malformed
// pattern surfaces as a *pattern.CompileError before scanning starts.
func (spec RulesetSpec) Compile(projectRoot string) (*Ruleset, error) {
	preserve, err := pattern.CompileAll(spec.Preserve, spec.CaseInsensitive)
	if err != nil {
		return nil, err
	}
	system, err := pattern.CompileAll(spec.SystemPatterns, spec.CaseInsensitive)
	if err != nil {
		return nil, err
	}
	generated, err := pattern.CompileAll(spec.GeneratedPatterns, spec.CaseInsensitive)
	if err != nil {
		return nil, err
	}

	rs := &Ruleset{
		Preserve:          preserve,
		SystemDirs:        normalizeRels(spec.SystemDirs),
		SystemFiles:       normalizeRels(spec.SystemFiles),
		SystemPatterns:    system,
		GeneratedPatterns: generated,
	}

	if spec.ManifestPath != "" {
		manifest, err := loadManifest(projectRoot, spec.ManifestPath)
		if err != nil {
			return nil, err
		}
		rs.Manifest = manifest
	}
	return rs, nil
}

// HasManifest reports whether an install manifest was loaded.
func (r *Ruleset) HasManifest() bool {
	return r.Manifest != nil
}

// InSystemDir reports whether rel is one of the system directories or a
// descendant of one.
func (r *Ruleset) InSystemDir(rel string) bool {
	for _, dir := range r.SystemDirs {
		if rel == dir || strings.HasPrefix(rel, dir+"/") {
			return true
		}
	}
	return false
}

// IsSystemFile reports whether rel exactly names a managed file.
func (r *Ruleset) IsSystemFile(rel string) bool {
	for _, f := range r.SystemFiles {
		if rel == f {
			return true
		}
	}
	return false
}

// InManifest reports whether the installer recorded rel (or an ancestor
// directory of rel) at install time.
func (r *Ruleset) InManifest(rel string) bool {
	if r.Manifest == nil {
		return false
	}
	if r.Manifest[rel] {
		return true
	}
	for parent := parentRel(rel); parent != ""; parent = parentRel(parent) {
		if r.Manifest[parent] {
			return true
		}
	}
	return false
}

func parentRel(rel string) string {
	idx := strings.LastIndex(rel, "/")
	if idx < 0 {
		return ""
	}
	return rel[:idx]
}

func normalizeRels(rels []string) []string {
	out := make([]string, 0, len(rels))
	for _, r := range rels {
		r = strings.Trim(filepath.ToSlash(r), "/")
		if r != "" && r != "." {
			out = append(out, r)
		}
	}
	return out
}

// loadManifest reads the installer's manifest: a JSON array of relative
// paths, resolved against the project root when the path itself is relative.
func loadManifest(projectRoot, manifestPath string) (map[string]bool, error) {
	if !filepath.IsAbs(manifestPath) {
		manifestPath = filepath.Join(projectRoot, manifestPath)
	}

	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", manifestPath, err)
	}

	var paths []string
	if err := json.Unmarshal(data, &paths); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", manifestPath, err)
	}

	manifest := make(map[string]bool, len(paths))
	for _, p := range normalizeRels(paths) {
		manifest[p] = true
	}
	return manifest, nil
}
