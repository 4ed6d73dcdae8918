// Package backup snapshots the pre-removal project structure and copies
// at-risk content to an independent backup location, and restores from such
// snapshots after an integrity violation or a crash.
package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/Beaulewis1977/master-workflow-sub003/internal/config"
	"github.com/Beaulewis1977/master-workflow-sub003/internal/logging"
	"github.com/Beaulewis1977/master-workflow-sub003/internal/scan"
	"github.com/Beaulewis1977/master-workflow-sub003/internal/version"
)

// Manager creates and restores backup snapshots.
type Manager struct {
	cfg *config.Config
	log zerolog.Logger
}

// New creates a backup Manager.
func New(cfg *config.Config) *Manager {
	return &Manager{
		cfg: cfg,
		log: logging.GetLogger("backup"),
	}
}

// Create writes a complete snapshot for the given scanned inventory:
// the full structure map (ground truth for later verification), payload
// copies of every user file plus the configured critical files, and the
// metadata file last. A failure here is fatal to the uninstall; removal
// never proceeds without a complete snapshot.
func (m *Manager) Create(ctx context.Context, entries []scan.Entry) (*Snapshot, error) {
	backupID := uuid.NewString()
	now := time.Now()
	dirName := fmt.Sprintf("backup-%s-%s", now.Format("2006-01-02-150405"), backupID[:8])
	root := filepath.Join(m.cfg.BackupDir, dirName)

	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}

	structure := buildStructure(entries)
	if err := writeJSON(filepath.Join(root, StructureFile), structure); err != nil {
		return nil, fmt.Errorf("failed to write structure map: %w", err)
	}

	payload := payloadEntries(entries, m.cfg)
	if err := m.copyPayload(ctx, root, payload); err != nil {
		return nil, err
	}

	// Metadata last: its presence is the completeness marker.
	meta := Metadata{
		Timestamp:   now,
		ProjectRoot: m.cfg.ProjectRoot,
		ToolVersion: version.Version,
		BackupID:    backupID,
	}
	if err := writeJSON(filepath.Join(root, MetadataFile), meta); err != nil {
		return nil, fmt.Errorf("failed to write backup metadata: %w", err)
	}

	if err := m.writePointer(root); err != nil {
		return nil, err
	}

	m.log.Info().Str("backup", root).Int("payload", len(payload)).Msg("snapshot created")
	return &Snapshot{Root: root, Metadata: meta, Structure: structure}, nil
}

// copyPayload copies payload entries on a bounded worker pool. The pool
// drains completely, each failure recorded individually, before the caller
// may write the metadata file. Any copy failure fails the whole backup:
// a snapshot missing a user file is not a snapshot.
func (m *Manager) copyPayload(ctx context.Context, root string, payload []scan.Entry) error {
	workers := m.cfg.Workers
	if workers <= 0 {
		workers = config.DefaultWorkers
	}

	var g errgroup.Group
	g.SetLimit(workers)

	var mu sync.Mutex
	var failures []CopyFailure
	mkdirDone := make(map[string]bool)

	for _, entry := range payload {
		entry := entry
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			dst := filepath.Join(root, filepath.FromSlash(entry.RelPath))

			parent := filepath.Dir(dst)
			mu.Lock()
			needMkdir := !mkdirDone[parent]
			mkdirDone[parent] = true
			mu.Unlock()

			var err error
			if needMkdir {
				err = os.MkdirAll(parent, 0755)
			}
			if err == nil {
				err = copyEntry(entry, dst)
			}
			if err != nil {
				mu.Lock()
				failures = append(failures, CopyFailure{RelPath: entry.RelPath, Err: err})
				mu.Unlock()
				m.log.Error().Err(err).Str("path", entry.RelPath).Msg("payload copy failed")
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	if len(failures) > 0 {
		return fmt.Errorf("failed to copy %d of %d payload entries (first: %s: %v)",
			len(failures), len(payload), failures[0].RelPath, failures[0].Err)
	}
	return nil
}

// writePointer leaves a pointer file in the project root recording the
// snapshot location, so a human or script can find the backup without
// re-deriving it.
func (m *Manager) writePointer(backupRoot string) error {
	pointer := filepath.Join(m.cfg.ProjectRoot, PointerFile)
	if err := os.WriteFile(pointer, []byte(backupRoot+"\n"), 0644); err != nil {
		return fmt.Errorf("failed to write backup pointer: %w", err)
	}
	return nil
}

// RemovePointer deletes the pointer file after a fully verified uninstall.
// The snapshot itself is retained for manual recovery.
func (m *Manager) RemovePointer() error {
	pointer := filepath.Join(m.cfg.ProjectRoot, PointerFile)
	if err := os.Remove(pointer); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove backup pointer: %w", err)
	}
	return nil
}

// buildStructure maps every scanned entry, regardless of classification,
// so verification has ground truth independent of what is being removed.
func buildStructure(entries []scan.Entry) map[string]StructureEntry {
	structure := make(map[string]StructureEntry, len(entries))
	for _, e := range entries {
		structure[e.RelPath] = StructureEntry{
			Type:     e.Kind.String(),
			Size:     e.SizeBytes,
			Modified: e.ModifiedAt,
		}
	}
	return structure
}

// payloadEntries selects what gets byte-for-byte copies: every user file
// plus the configured critical top-level files.
func payloadEntries(entries []scan.Entry, cfg *config.Config) []scan.Entry {
	critical := make(map[string]bool, len(cfg.CriticalFiles))
	for _, f := range cfg.CriticalFiles {
		critical[filepath.ToSlash(f)] = true
	}

	var payload []scan.Entry
	for _, e := range entries {
		if e.ScanError {
			continue
		}
		if e.Classification == scan.ClassUserFile || critical[e.RelPath] {
			payload = append(payload, e)
		}
	}
	return payload
}

// copyEntry materializes one payload entry at dst.
func copyEntry(entry scan.Entry, dst string) error {
	switch entry.Kind {
	case scan.KindDir:
		return os.MkdirAll(dst, 0755)
	case scan.KindSymlink:
		target, err := os.Readlink(entry.Path)
		if err != nil {
			return err
		}
		if err := os.Remove(dst); err != nil && !os.IsNotExist(err) {
			return err
		}
		return os.Symlink(target, dst)
	default:
		return copyFile(entry.Path, dst)
	}
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
