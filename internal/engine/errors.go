package engine

import (
	"errors"
	"fmt"
	"strings"
)

// ErrCancelled is returned when the operator declines the confirmation
// prompt. Nothing has been deleted at that point.
var ErrCancelled = errors.New("uninstall cancelled by user")

// BackupCreationError is fatal and pre-removal: the uninstall aborts before
// anything is deleted.
type BackupCreationError struct {
	Err error
}

func (e *BackupCreationError) Error() string {
	return fmt.Sprintf("backup creation failed, uninstall aborted: %v", e.Err)
}

func (e *BackupCreationError) Unwrap() error { return e.Err }

// RemovalError records one entry that could not be deleted. It is non-fatal
// per entry; the removal loop continues.
type RemovalError struct {
	Path string
	Err  error
}

func (e *RemovalError) Error() string {
	return fmt.Sprintf("failed to remove %s: %v", e.Path, e.Err)
}

func (e *RemovalError) Unwrap() error { return e.Err }

// IntegrityViolation means post-removal verification found user files that
// should have survived but did not. It triggers automatic restoration and
// is fatal only when restoration cannot complete.
type IntegrityViolation struct {
	Paths []string
}

func (e *IntegrityViolation) Error() string {
	return fmt.Sprintf("integrity violation: %d user file(s) missing after removal: %s",
		len(e.Paths), strings.Join(e.Paths, ", "))
}

// RestorationFailure is the only truly unrecoverable terminal state.
type RestorationFailure struct {
	Err error
}

func (e *RestorationFailure) Error() string {
	return fmt.Sprintf("restoration failed, manual recovery required: %v", e.Err)
}

func (e *RestorationFailure) Unwrap() error { return e.Err }
