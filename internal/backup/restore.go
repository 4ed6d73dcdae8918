package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// ErrIncompleteSnapshot marks a snapshot directory without a metadata file.
// The metadata file is written last during creation, so its absence means
// the backup crashed mid-copy and must never be restored from.
var ErrIncompleteSnapshot = errors.New("snapshot is incomplete: metadata file missing")

// Load reads and validates a snapshot directory.
func Load(backupPath string) (*Snapshot, error) {
	metaPath := filepath.Join(backupPath, MetadataFile)
	metaData, err := os.ReadFile(metaPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", backupPath, ErrIncompleteSnapshot)
		}
		return nil, fmt.Errorf("failed to read backup metadata: %w", err)
	}

	var meta Metadata
	if err := json.Unmarshal(metaData, &meta); err != nil {
		return nil, fmt.Errorf("failed to parse backup metadata: %w", err)
	}

	structData, err := os.ReadFile(filepath.Join(backupPath, StructureFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read structure map: %w", err)
	}

	var structure map[string]StructureEntry
	if err := json.Unmarshal(structData, &structure); err != nil {
		return nil, fmt.Errorf("failed to parse structure map: %w", err)
	}

	return &Snapshot{Root: backupPath, Metadata: meta, Structure: structure}, nil
}

// Restore copies payload entries back under targetRoot. When paths is
// empty, the entire payload is restored; otherwise only the named relative
// paths. A payload file that is needed but missing is a restoration
// failure, the one truly unrecoverable condition.
func (m *Manager) Restore(ctx context.Context, snap *Snapshot, targetRoot string, paths []string) error {
	if len(paths) == 0 {
		var err error
		paths, err = snap.PayloadPaths()
		if err != nil {
			return err
		}
	}

	for _, rel := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}

		src := filepath.Join(snap.Root, filepath.FromSlash(rel))
		dst := filepath.Join(targetRoot, filepath.FromSlash(rel))

		info, err := os.Lstat(src)
		if err != nil {
			return fmt.Errorf("payload missing for %s: %w", rel, err)
		}

		if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
			return fmt.Errorf("failed to create parent for %s: %w", rel, err)
		}

		switch {
		case info.IsDir():
			err = os.MkdirAll(dst, 0755)
		case info.Mode()&os.ModeSymlink != 0:
			err = restoreSymlink(src, dst)
		default:
			err = copyFile(src, dst)
		}
		if err != nil {
			return fmt.Errorf("failed to restore %s: %w", rel, err)
		}

		m.log.Info().Str("path", rel).Msg("restored from backup")
	}

	return nil
}

// PayloadPaths lists every payload entry in the snapshot, sorted so parent
// directories restore before their contents.
func (s *Snapshot) PayloadPaths() ([]string, error) {
	var paths []string
	err := filepath.WalkDir(s.Root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if path == s.Root {
			return nil
		}

		rel, err := filepath.Rel(s.Root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == MetadataFile || rel == StructureFile {
			return nil
		}

		paths = append(paths, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate payload: %w", err)
	}

	sort.Strings(paths)
	return paths, nil
}

// HasPayload reports whether the snapshot carries a copy of rel.
func (s *Snapshot) HasPayload(rel string) bool {
	_, err := os.Lstat(filepath.Join(s.Root, filepath.FromSlash(rel)))
	return err == nil
}

func restoreSymlink(src, dst string) error {
	target, err := os.Readlink(src)
	if err != nil {
		return err
	}
	if err := os.Remove(dst); err != nil && !os.IsNotExist(err) {
		return err
	}
	return os.Symlink(target, dst)
}
