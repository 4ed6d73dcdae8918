package store

import "time"

// Run is one recorded uninstall invocation.
type Run struct {
	ID                 int64
	CreatedAt          time.Time
	ProjectRoot        string
	DryRun             bool
	RemovedTotal       int
	FailedCount        int
	VerificationPassed bool
	FinalState         string
	ReportPath         string
}

// Backup is one registered snapshot directory.
type Backup struct {
	ID          int64
	BackupID    string
	CreatedAt   time.Time
	ProjectRoot string
	Location    string
	EntryCount  int
}
