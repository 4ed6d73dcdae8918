package backup

import (
	"time"
)

// On-disk snapshot layout. The metadata file is written last: a snapshot
// directory containing it is complete; one without it must never be
// restored from.
const (
	MetadataFile  = "backup-metadata.json"
	StructureFile = "project-structure.json"

	// PointerFile sits in the project root while an uninstall is in
	// flight and records the snapshot location. Deleted only after a
	// fully verified uninstall.
	PointerFile = ".overlay-backup"
)

// Metadata identifies one immutable snapshot.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	ProjectRoot string    `json:"projectRoot"`
	ToolVersion string    `json:"toolVersion"`
	BackupID    string    `json:"backupId"`
}

// StructureEntry records one pre-removal tree entry in the structure map.
type StructureEntry struct {
	Type     string    `json:"type"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

// Snapshot is a loaded, validated snapshot: metadata plus the full
// pre-removal structure map, rooted at Root on disk.
type Snapshot struct {
	Root      string
	Metadata  Metadata
	Structure map[string]StructureEntry
}

// CopyFailure records a single payload file that could not be copied.
type CopyFailure struct {
	RelPath string
	Err     error
}
