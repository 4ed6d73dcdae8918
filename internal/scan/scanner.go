// Package scan walks a project tree and produces a classified inventory of
// filesystem entries. Classification happens exactly once here; downstream
// components (plan builder, backup manager, verifier) only read it.
package scan

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Beaulewis1977/master-workflow-sub003/internal/logging"
)

// DefaultMaxDepth bounds traversal to avoid runaway recursion into
// pathological structures.
const DefaultMaxDepth = 6

// Subtrees that are never scanned: never classified, never backed up,
// never removed.
var ignoredDirs = map[string]bool{
	".git":         true,
	".svn":         true,
	".hg":          true,
	"node_modules": true,
	"vendor":       true,
	"dist":         true,
	"build":        true,
	"target":       true,
	"__pycache__":  true,
	".venv":        true,
	".next":        true,
}

// Scanner performs read-only classification walks of a project tree.
type Scanner struct {
	root     string
	ruleset  *Ruleset
	maxDepth int
	log      zerolog.Logger
}

// New creates a Scanner for the given project root. maxDepth <= 0 selects
// DefaultMaxDepth.
func New(root string, ruleset *Ruleset, maxDepth int) *Scanner {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Scanner{
		root:     root,
		ruleset:  ruleset,
		maxDepth: maxDepth,
		log:      logging.GetLogger("scanner"),
	}
}

// Scan walks the tree and returns classified entries in stable (sorted)
// order. The walk is read-only; per-entry stat failures are recorded on the
// entry rather than aborting the scan.
func (s *Scanner) Scan(ctx context.Context) ([]Entry, error) {
	if _, err := os.Stat(s.root); err != nil {
		return nil, fmt.Errorf("failed to access project root %s: %w", s.root, err)
	}

	var entries []Entry
	preservedDirs := make(map[string]bool)

	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if path == s.root {
			if walkErr != nil {
				return fmt.Errorf("failed to read project root: %w", walkErr)
			}
			return nil
		}

		rel, relErr := filepath.Rel(s.root, path)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)

		if walkErr != nil {
			// Unreadable entry: keep it, flag it, carry on. A directory
			// whose listing fails was already reported once without the
			// error; replace that entry instead of duplicating it.
			if n := len(entries); n > 0 && entries[n-1].RelPath == rel {
				entries[n-1] = s.errorEntry(path, rel, d)
			} else {
				entries = append(entries, s.errorEntry(path, rel, d))
			}
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if d.IsDir() && ignoredDirs[d.Name()] {
			return fs.SkipDir
		}

		depth := strings.Count(rel, "/") + 1
		if depth > s.maxDepth {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		entry := s.classify(path, rel, d, preservedDirs)
		if entry.Kind == KindDir && entry.Classification == ClassUserFile {
			preservedDirs[rel] = true
		}
		entries = append(entries, entry)

		if d.IsDir() && depth == s.maxDepth {
			return fs.SkipDir
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].RelPath < entries[j].RelPath
	})

	s.log.Debug().Int("entries", len(entries)).Str("root", s.root).Msg("scan complete")
	return entries, nil
}

// classify assigns the single classification for an entry. Precedence:
// preserve rules first (sticky user_file), then manifest and system rules,
// then generated-document rules, then the conservative unknown default.
func (s *Scanner) classify(path, rel string, d fs.DirEntry, preservedDirs map[string]bool) Entry {
	entry := Entry{
		Path:    path,
		RelPath: rel,
		Kind:    kindOf(d),
	}

	if info, err := d.Info(); err != nil {
		entry.ScanError = true
	} else {
		entry.SizeBytes = info.Size()
		entry.ModifiedAt = info.ModTime()
		if entry.Kind == KindDir {
			entry.SizeBytes = 0
		}
	}

	switch {
	case underPreservedDir(rel, preservedDirs) || s.ruleset.Preserve.MatchAny(rel):
		entry.Classification = ClassUserFile

	case s.ruleset.InSystemDir(rel):
		entry.Classification = ClassSystemAsset
		entry.Source = SourceDirectory

	case s.ruleset.IsSystemFile(rel):
		entry.Classification = ClassSystemAsset
		entry.Source = SourceFile

	case s.ruleset.InManifest(rel):
		entry.Classification = ClassSystemAsset
		if entry.Kind == KindDir {
			entry.Source = SourceDirectory
		} else {
			entry.Source = SourceFile
		}

	case s.ruleset.SystemPatterns.MatchAny(rel):
		entry.Classification = ClassSystemAsset
		entry.Source = SourcePattern

	case s.ruleset.GeneratedPatterns.MatchAny(rel):
		entry.Classification = ClassGeneratedPreserved
		entry.Source = SourcePattern

	default:
		entry.Classification = ClassUnknown
		if !s.ruleset.HasManifest() {
			entry.RequiresReview = true
		}
	}

	// Entries we could not stat are never trusted as removable.
	if entry.ScanError && entry.Classification != ClassUserFile {
		entry.Classification = ClassUnknown
		entry.Source = SourceNone
	}

	return entry
}

// errorEntry records an entry the walk itself could not read.
func (s *Scanner) errorEntry(path, rel string, d fs.DirEntry) Entry {
	entry := Entry{
		Path:           path,
		RelPath:        rel,
		Classification: ClassUnknown,
		ScanError:      true,
		RequiresReview: !s.ruleset.HasManifest(),
	}
	if d != nil {
		entry.Kind = kindOf(d)
	}
	s.log.Warn().Str("path", rel).Msg("entry could not be read, keeping it")
	return entry
}

func underPreservedDir(rel string, preservedDirs map[string]bool) bool {
	for parent := parentRel(rel); parent != ""; parent = parentRel(parent) {
		if preservedDirs[parent] {
			return true
		}
	}
	return false
}

func kindOf(d fs.DirEntry) Kind {
	switch {
	case d.Type()&fs.ModeSymlink != 0:
		return KindSymlink
	case d.IsDir():
		return KindDir
	default:
		return KindFile
	}
}
