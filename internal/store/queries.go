package store

import (
	"fmt"
	"time"
)

// InsertRun records a finished uninstall run and returns its row id.
func (s *Store) InsertRun(run *Run) (int64, error) {
	query := `
		INSERT INTO runs
		(created_at, project_root, dry_run, removed_total, failed_count, verification_passed, final_state, report_path)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	// Stored in UTC so the lexical ORDER BY on the column stays
	// chronological regardless of the wall-clock offset at insert time.
	result, err := s.db.Exec(query,
		run.CreatedAt.UTC().Format(time.RFC3339),
		run.ProjectRoot,
		run.DryRun,
		run.RemovedTotal,
		run.FailedCount,
		run.VerificationPassed,
		run.FinalState,
		run.ReportPath,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}

	return result.LastInsertId()
}

// ListRuns returns recorded runs for a project, newest first. An empty
// projectRoot lists every project.
func (s *Store) ListRuns(projectRoot string) ([]*Run, error) {
	query := `
		SELECT id, created_at, project_root, dry_run, removed_total, failed_count, verification_passed, final_state, report_path
		FROM runs
	`
	args := []interface{}{}
	if projectRoot != "" {
		query += " WHERE project_root = ?"
		args = append(args, projectRoot)
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		var run Run
		var createdAt string
		if err := rows.Scan(&run.ID, &createdAt, &run.ProjectRoot, &run.DryRun,
			&run.RemovedTotal, &run.FailedCount, &run.VerificationPassed,
			&run.FinalState, &run.ReportPath); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		runs = append(runs, &run)
	}
	return runs, rows.Err()
}

// InsertBackup registers a snapshot directory and returns its row id.
func (s *Store) InsertBackup(b *Backup) (int64, error) {
	query := `
		INSERT INTO backups (backup_id, created_at, project_root, location, entry_count)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := s.db.Exec(query,
		b.BackupID,
		b.CreatedAt.UTC().Format(time.RFC3339),
		b.ProjectRoot,
		b.Location,
		b.EntryCount,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert backup: %w", err)
	}

	return result.LastInsertId()
}

// ListBackups returns registered backups for a project, newest first. An
// empty projectRoot lists every project.
func (s *Store) ListBackups(projectRoot string) ([]*Backup, error) {
	query := `
		SELECT id, backup_id, created_at, project_root, location, entry_count
		FROM backups
	`
	args := []interface{}{}
	if projectRoot != "" {
		query += " WHERE project_root = ?"
		args = append(args, projectRoot)
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list backups: %w", err)
	}
	defer rows.Close()

	var backups []*Backup
	for rows.Next() {
		var b Backup
		var createdAt string
		if err := rows.Scan(&b.ID, &b.BackupID, &createdAt, &b.ProjectRoot, &b.Location, &b.EntryCount); err != nil {
			return nil, fmt.Errorf("failed to scan backup: %w", err)
		}
		b.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		backups = append(backups, &b)
	}
	return backups, rows.Err()
}

// LatestBackup returns the most recent registered backup for a project, or
// nil when none exist.
func (s *Store) LatestBackup(projectRoot string) (*Backup, error) {
	backups, err := s.ListBackups(projectRoot)
	if err != nil {
		return nil, err
	}
	if len(backups) == 0 {
		return nil, nil
	}
	return backups[0], nil
}
