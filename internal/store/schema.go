package store

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    created_at TIMESTAMP NOT NULL,
    project_root TEXT NOT NULL,
    dry_run BOOLEAN NOT NULL,
    removed_total INTEGER NOT NULL,
    failed_count INTEGER NOT NULL,
    verification_passed BOOLEAN NOT NULL,
    final_state TEXT NOT NULL,
    report_path TEXT
);

CREATE TABLE IF NOT EXISTS backups (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    backup_id TEXT NOT NULL UNIQUE,
    created_at TIMESTAMP NOT NULL,
    project_root TEXT NOT NULL,
    location TEXT NOT NULL,
    entry_count INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_project ON runs(project_root);
CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
CREATE INDEX IF NOT EXISTS idx_backups_project ON backups(project_root);
`
