// Package plan turns a classified inventory into an ordered, safe removal
// plan with size accounting.
package plan

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Beaulewis1977/master-workflow-sub003/internal/scan"
)

// Item is one planned removal, annotated with a human-readable note when
// something about it deserves operator attention.
type Item struct {
	Entry scan.Entry
	Note  string
}

// Plan is the ordered removal schedule. Ordering invariants:
//   - for any directory D, every descendant of D appears before D
//     (leaves before parents, so directory removals never hit non-empty
//     directories);
//   - symlinks sort before non-symlinks at the same depth, so links are
//     unlinked before anything they point at is touched.
type Plan struct {
	Items []Item

	// TotalSize sums the planned removals; KeptSize sums user and
	// preserved-generated content within the scanned scope.
	TotalSize int64
	KeptSize  int64
}

// Build filters the inventory to removable entries and orders them for safe
// deletion. User files are excluded unconditionally; generated-preserved
// documents join the plan only when the user opted in.
func Build(entries []scan.Entry, includeGenerated bool) *Plan {
	p := &Plan{}

	// Directories holding anything kept must themselves be kept, whatever
	// their own classification says; removing them would take the kept
	// content with them.
	tainted := make(map[string]bool)
	for _, e := range entries {
		kept := e.Classification == scan.ClassUserFile ||
			e.Classification == scan.ClassUnknown ||
			(e.Classification == scan.ClassGeneratedPreserved && !includeGenerated)
		if !kept {
			continue
		}
		for parent := parentDir(e.RelPath); parent != ""; parent = parentDir(parent) {
			tainted[parent] = true
		}
	}

	for _, e := range entries {
		if e.Kind == scan.KindDir && tainted[e.RelPath] {
			continue
		}
		switch e.Classification {
		case scan.ClassUserFile:
			p.KeptSize += e.SizeBytes
			continue
		case scan.ClassGeneratedPreserved:
			if !includeGenerated {
				p.KeptSize += e.SizeBytes
				continue
			}
		case scan.ClassUnknown:
			// Conservative bias: unknown is never removed.
			continue
		}

		p.Items = append(p.Items, Item{Entry: e, Note: noteFor(e, includeGenerated)})
		p.TotalSize += e.SizeBytes
	}

	sort.SliceStable(p.Items, func(i, j int) bool {
		return less(p.Items[i].Entry, p.Items[j].Entry)
	})

	return p
}

// less orders deeper paths first, then symlinks before regular entries,
// then lexically for determinism.
func less(a, b scan.Entry) bool {
	da, db := depth(a.RelPath), depth(b.RelPath)
	if da != db {
		return da > db
	}

	sa, sb := a.Kind == scan.KindSymlink, b.Kind == scan.KindSymlink
	if sa != sb {
		return sa
	}

	return a.RelPath < b.RelPath
}

func depth(rel string) int {
	return strings.Count(rel, "/")
}

func parentDir(rel string) string {
	idx := strings.LastIndex(rel, "/")
	if idx < 0 {
		return ""
	}
	return rel[:idx]
}

func noteFor(e scan.Entry, includeGenerated bool) string {
	switch {
	case e.Classification == scan.ClassGeneratedPreserved && includeGenerated:
		return "generated document, removed by explicit opt-in"
	case e.Kind == scan.KindSymlink:
		return "symlink, unlinked before its target"
	default:
		return ""
	}
}

// Summary renders a one-line accounting for display and logs.
func (p *Plan) Summary() string {
	return fmt.Sprintf("%d entries scheduled, %d bytes to remove, %d bytes kept",
		len(p.Items), p.TotalSize, p.KeptSize)
}

// Contains reports whether rel is scheduled for removal.
func (p *Plan) Contains(rel string) bool {
	for _, item := range p.Items {
		if item.Entry.RelPath == rel {
			return true
		}
	}
	return false
}
