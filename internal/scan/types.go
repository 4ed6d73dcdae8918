package scan

import "time"

// Kind identifies the filesystem object type of an entry.
type Kind int

const (
	KindFile Kind = iota
	KindDir
	KindSymlink
)

// String returns the JSON/report spelling of the kind.
func (k Kind) String() string {
	switch k {
	case KindDir:
		return "directory"
	case KindSymlink:
		return "symlink"
	default:
		return "file"
	}
}

// Classification labels who owns a filesystem entry. It is assigned exactly
// once by the scanner and never re-derived downstream.
type Classification int

const (
	// ClassUnknown is the conservative default: the entry is kept.
	ClassUnknown Classification = iota
	// ClassSystemAsset marks tool-managed content that is safe to remove.
	ClassSystemAsset
	// ClassGeneratedPreserved marks tool-generated documents the user
	// opted to keep; removable only by explicit opt-in.
	ClassGeneratedPreserved
	// ClassUserFile marks user-authored content. Sticky: once assigned,
	// no later rule may downgrade it to a removable classification.
	ClassUserFile
)

func (c Classification) String() string {
	switch c {
	case ClassSystemAsset:
		return "system_asset"
	case ClassGeneratedPreserved:
		return "generated_preserved"
	case ClassUserFile:
		return "user_file"
	default:
		return "unknown"
	}
}

// Source records which ruleset bucket classified the entry. The uninstall
// report groups removed items by this.
type Source int

const (
	SourceNone Source = iota
	SourceDirectory
	SourceFile
	SourcePattern
)

func (s Source) String() string {
	switch s {
	case SourceDirectory:
		return "directory"
	case SourceFile:
		return "file"
	case SourcePattern:
		return "pattern"
	default:
		return "none"
	}
}

// Entry is one filesystem object discovered during a scan.
type Entry struct {
	// Path is the absolute path; RelPath is slash-separated and relative
	// to the project root.
	Path    string
	RelPath string

	Kind           Kind
	Classification Classification
	Source         Source

	SizeBytes  int64
	ModifiedAt time.Time

	// ScanError is set when the entry could not be stat'd (permission
	// denied, broken link). Such entries stay ClassUnknown and are kept.
	ScanError bool

	// RequiresReview is set on unknown entries when no install manifest
	// was available, mirroring the maximal-caution fallback: unmanifested
	// files are flagged for a human, never inferred removable.
	RequiresReview bool
}

// IsRemovable reports whether the classification alone would permit removal.
// Plan-level flags still decide whether generated documents are included.
func (e *Entry) IsRemovable() bool {
	return e.Classification == ClassSystemAsset || e.Classification == ClassGeneratedPreserved
}
