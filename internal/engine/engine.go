// Package engine executes (or dry-runs) a removal plan, verifies
// post-removal integrity against the backup snapshot, and restores from the
// backup when verification finds a violation.
package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/Beaulewis1977/master-workflow-sub003/internal/backup"
	"github.com/Beaulewis1977/master-workflow-sub003/internal/config"
	"github.com/Beaulewis1977/master-workflow-sub003/internal/logging"
	"github.com/Beaulewis1977/master-workflow-sub003/internal/plan"
	"github.com/Beaulewis1977/master-workflow-sub003/internal/report"
	"github.com/Beaulewis1977/master-workflow-sub003/internal/scan"
)

// Deletion hitting a transient "resource busy" error is retried a bounded
// number of times before being recorded as a failure.
const (
	busyRetries    = 3
	busyRetryDelay = 100 * time.Millisecond
)

// Options carries the per-run hooks the CLI layer provides.
type Options struct {
	// Confirm is consulted between Planned and Confirmed unless the run
	// is forced or a dry-run. Returning false cancels cleanly.
	Confirm func(p *plan.Plan) bool

	// OnExecute, when set, is invoked once on entering Executing with the
	// confirmed plan; OnRemove after each removal attempt.
	OnExecute func(p *plan.Plan)
	OnRemove  func(item plan.Item, err error)
}

// Result summarizes a finished run.
type Result struct {
	State      State
	Plan       *plan.Plan
	Snapshot   *backup.Snapshot
	Report     *report.Report
	ReportPath string
	Failures   []*RemovalError
}

// Engine wires the scanner, plan builder and backup manager into the
// uninstall state machine.
type Engine struct {
	cfg     *config.Config
	scanner *scan.Scanner
	backups *backup.Manager
	state   State
	log     zerolog.Logger
}

// New creates an Engine for one invocation.
func New(cfg *config.Config) *Engine {
	return &Engine{
		cfg:     cfg,
		scanner: scan.New(cfg.ProjectRoot, cfg.Ruleset, cfg.MaxDepth),
		backups: backup.New(cfg),
		log:     logging.GetLogger("engine"),
	}
}

// State returns the machine's current state.
func (e *Engine) State() State { return e.state }

// Run drives the full state machine: Planned → Confirmed → Executing →
// Verifying → {Succeeded | Restoring → Restored | Cancelled | Failed}. A
// report is written on every path out, including cancellation and fatal
// errors.
func (e *Engine) Run(ctx context.Context, opts Options) (*Result, error) {
	e.transition(StatePlanned)

	entries, err := e.scanner.Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}

	p := plan.Build(entries, e.cfg.IncludeGenerated)
	e.log.Info().Msg(p.Summary())

	rep := report.New(e.cfg.ProjectRoot, e.cfg.DryRun)
	rep.KeptSize = p.KeptSize
	res := &Result{Plan: p, Report: rep}

	// Planned → Confirmed.
	if !e.cfg.DryRun && !e.cfg.Force && opts.Confirm != nil && !opts.Confirm(p) {
		res.State = StatePlanned
		e.writeReport(res)
		return res, ErrCancelled
	}
	e.transition(StateConfirmed)

	// Dry-run stops here: report, no mutation of any kind.
	if e.cfg.DryRun {
		for _, item := range p.Items {
			rep.AddRemoved(item.Entry)
		}
		rep.VerificationPassed = true
		res.State = StateConfirmed
		e.writeReport(res)
		return res, nil
	}

	// Backup before any removal. A backup failure is fatal; removal never
	// starts without a complete snapshot unless backups were explicitly
	// disabled.
	if !e.cfg.NoBackup {
		snap, err := e.backups.Create(ctx, entries)
		if err != nil {
			e.fail(res)
			e.writeReport(res)
			return res, &BackupCreationError{Err: err}
		}
		res.Snapshot = snap
		rep.BackupCreated = true
		rep.BackupLocation = snap.Root
	}

	// Confirmed → Executing. Strictly ordered, single control thread.
	e.transition(StateExecuting)
	if opts.OnExecute != nil {
		opts.OnExecute(p)
	}
	completed := e.execute(ctx, p, res, opts)

	// Executing → Verifying, even after cancellation mid-loop: whatever
	// partial progress was made must still be audited, so verification
	// runs outside the cancelled context.
	e.transition(StateVerifying)
	verifyErr := e.verify(context.WithoutCancel(ctx), entries, res)
	if verifyErr != nil {
		e.fail(res)
		e.writeReport(res)
		return res, verifyErr
	}

	rep.VerificationPassed = true

	// A cancelled run is never a success, even when everything removed so
	// far verified clean: the plan did not finish and the pointer file
	// stays until a full uninstall completes.
	if !completed {
		if res.State != StateRestored {
			res.State = StateCancelled
			e.transition(StateCancelled)
		}
		e.writeReport(res)
		return res, fmt.Errorf("interrupted after %d of %d removals: %w",
			rep.ComponentsRemoved.Total, len(p.Items), ErrCancelled)
	}

	if res.State != StateRestored {
		res.State = StateSucceeded
		e.transition(StateSucceeded)
	}

	if len(res.Failures) > 0 {
		e.writeReport(res)
		if rep.BackupCreated {
			return res, fmt.Errorf("%d entr%s could not be removed; backup retained at %s",
				len(res.Failures), plural(len(res.Failures)), rep.BackupLocation)
		}
		return res, fmt.Errorf("%d entr%s could not be removed",
			len(res.Failures), plural(len(res.Failures)))
	}

	// Full success: drop the pointer file; the snapshot itself is kept
	// for manual recovery.
	if err := e.backups.RemovePointer(); err != nil {
		e.log.Warn().Err(err).Msg("could not remove backup pointer")
	}

	e.writeReport(res)
	return res, nil
}

// execute runs the removal loop and reports whether the plan ran to
// completion. Per-entry failures are recorded and skipped; the loop
// optimizes for maximal safe progress. Cancellation lets the in-flight
// deletion finish, then falls through to verification.
func (e *Engine) execute(ctx context.Context, p *plan.Plan, res *Result, opts Options) bool {
	for _, item := range p.Items {
		if ctx.Err() != nil {
			e.log.Warn().Msg("cancellation requested, proceeding to verification with partial progress")
			return false
		}

		err := e.removeEntry(item.Entry)
		if err != nil {
			rerr := &RemovalError{Path: item.Entry.RelPath, Err: err}
			res.Failures = append(res.Failures, rerr)
			res.Report.AddFailure(item.Entry.RelPath, err)
			e.log.Error().Err(err).Str("path", item.Entry.RelPath).Msg("removal failed, continuing")
		} else {
			res.Report.AddRemoved(item.Entry)
		}

		if opts.OnRemove != nil {
			opts.OnRemove(item, err)
		}
	}
	return true
}

// removeEntry deletes a single entry, retrying transient busy errors.
func (e *Engine) removeEntry(entry scan.Entry) error {
	var err error
	for attempt := 0; attempt <= busyRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(busyRetryDelay)
		}

		err = e.removeOnce(entry)
		if err == nil || !isBusy(err) {
			break
		}
	}
	if err != nil && os.IsNotExist(err) {
		// Vanished entries count as removed.
		return nil
	}
	return err
}

func (e *Engine) removeOnce(entry scan.Entry) error {
	err := os.Remove(entry.Path)
	if err == nil || os.IsNotExist(err) {
		return nil
	}

	// A directory the overlay owns outright may hold content below the
	// scan depth bound. Plan construction guarantees no kept entry lives
	// under it, so removing the subtree is safe.
	if entry.Kind == scan.KindDir && entry.Source == scan.SourceDirectory && isNotEmpty(err) {
		return os.RemoveAll(entry.Path)
	}
	return err
}

// verify re-scans the project and diffs it against the pre-removal
// inventory. A user file present before removal and missing now is an
// integrity violation, answered by automatic restoration from the backup.
func (e *Engine) verify(ctx context.Context, pre []scan.Entry, res *Result) error {
	missing, err := e.missingUserFiles(ctx, pre)
	if err != nil {
		return fmt.Errorf("verification scan failed: %w", err)
	}
	if len(missing) == 0 {
		return nil
	}

	violation := &IntegrityViolation{Paths: missing}
	e.log.Error().Strs("paths", missing).Msg("integrity violation detected")

	if res.Snapshot == nil {
		return &RestorationFailure{Err: fmt.Errorf("no backup available to restore from: %w", violation)}
	}

	// Verifying → Restoring.
	e.transition(StateRestoring)
	if err := e.backups.Restore(ctx, res.Snapshot, e.cfg.ProjectRoot, missing); err != nil {
		return &RestorationFailure{Err: err}
	}

	// Re-verify after restoration.
	stillMissing, err := e.missingUserFiles(ctx, pre)
	if err != nil {
		return fmt.Errorf("re-verification scan failed: %w", err)
	}
	if len(stillMissing) > 0 {
		return &RestorationFailure{
			Err: fmt.Errorf("%d file(s) still missing after restore: %s",
				len(stillMissing), strings.Join(stillMissing, ", ")),
		}
	}

	e.transition(StateRestored)
	res.State = StateRestored
	return nil
}

// missingUserFiles rescans and returns pre-removal user files that no
// longer exist on disk.
func (e *Engine) missingUserFiles(ctx context.Context, pre []scan.Entry) ([]string, error) {
	post, err := e.scanner.Scan(ctx)
	if err != nil {
		return nil, err
	}

	present := make(map[string]bool, len(post))
	for _, entry := range post {
		present[entry.RelPath] = true
	}

	var missing []string
	for _, entry := range pre {
		if entry.Classification == scan.ClassUserFile && !present[entry.RelPath] {
			missing = append(missing, entry.RelPath)
		}
	}
	return missing, nil
}

func (e *Engine) writeReport(res *Result) {
	path, err := report.Write(e.cfg.ReportDir, res.Report)
	if err != nil {
		e.log.Error().Err(err).Msg("failed to write uninstall report")
		return
	}
	res.ReportPath = path
}

func (e *Engine) transition(next State) {
	e.log.Debug().Str("from", e.state.String()).Str("to", next.String()).Msg("state transition")
	e.state = next
}

func (e *Engine) fail(res *Result) {
	e.transition(StateFailed)
	res.State = StateFailed
}

func isBusy(err error) bool {
	return errors.Is(err, syscall.EBUSY) || errors.Is(err, syscall.ETXTBSY)
}

func isNotEmpty(err error) bool {
	return errors.Is(err, syscall.ENOTEMPTY) || errors.Is(err, syscall.EEXIST)
}

func plural(n int) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}
