// Package fix applies corrective actions for the issues the scanner
// detects. Every non-dry-run fix snapshots the files it will touch before
// writing, writes through a temp-file-and-rename, verifies the result by
// re-reading it, and rolls the file back from its snapshot when
// verification fails. One failing issue never aborts the batch.
package fix

import (
	"fmt"

	"github.com/larkstead/steamfix/internal/backup"
	"github.com/larkstead/steamfix/internal/log"
	"github.com/larkstead/steamfix/internal/scan"
)

// Status is the outcome of one fix attempt.
type Status int

const (
	// StatusFixed: the corrective action was applied and verified.
	StatusFixed Status = iota
	// StatusWouldFix: dry run; the action was computed but not applied.
	StatusWouldFix
	// StatusFailed: backup, mutation, or verification failed; the target
	// file is unchanged (rolled back when a write had happened).
	StatusFailed
	// StatusUnfixable: no automatic action exists for this issue.
	StatusUnfixable
)

func (s Status) String() string {
	switch s {
	case StatusFixed:
		return "fixed"
	case StatusWouldFix:
		return "would fix"
	case StatusFailed:
		return "failed"
	case StatusUnfixable:
		return "unfixable"
	default:
		return "unknown"
	}
}

// Result reports the outcome for one input issue.
type Result struct {
	Issue    scan.Issue
	Status   Status
	Detail   string // what was done, or would be done
	BackupID string // set when a snapshot was taken for this issue
	Err      error  // set when Status is StatusFailed
}

// ValidationError reports that a fix's post-write verification failed and
// the file was rolled back from its snapshot.
type ValidationError struct {
	Path string
	Msg  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("verify %s: %s", e.Path, e.Msg)
}

// action implements the corrective behavior for one issue kind.
type action interface {
	// describe returns the human-readable action for dry runs.
	describe(issue scan.Issue) string
	// targets returns every file the action will touch. All of them are
	// snapshotted before apply runs.
	targets(issue scan.Issue) ([]string, error)
	// apply performs the mutation.
	apply(issue scan.Issue) error
	// verify re-reads the touched state and confirms the fix took.
	// A returned *ValidationError triggers rollback of its Path.
	verify(issue scan.Issue) error
}

// Fixer consumes issues and applies their corrective actions.
type Fixer struct {
	backups *backup.Manager
	logger  *log.Logger
	actions map[scan.IssueKind]action
}

// New creates a Fixer that snapshots through backups.
func New(backups *backup.Manager, logger *log.Logger) *Fixer {
	if logger == nil {
		logger = log.Discard()
	}
	return &Fixer{
		backups: backups,
		logger:  logger,
		// One action per issue kind; kinds without an entry are unfixable.
		actions: map[scan.IssueKind]action{
			scan.KindStagingMismatch:    stagingAction{},
			scan.KindOrphanedDownload:   orphanAction{},
			scan.KindDeadLibrary:        deadLibraryAction{},
			scan.KindMissingLibraryPath: missingLibraryAction{},
		},
	}
}

// Fix applies the corrective action for every issue, in input order, and
// returns one Result per issue. With dryRun set, no backup is taken and
// nothing is written; every fixable issue reports StatusWouldFix.
func (f *Fixer) Fix(issues []scan.Issue, dryRun bool) ([]Result, error) {
	results := make([]Result, 0, len(issues))
	for _, issue := range issues {
		results = append(results, f.fixOne(issue, dryRun))
	}
	return results, nil
}

func (f *Fixer) fixOne(issue scan.Issue, dryRun bool) Result {
	act, ok := f.actions[issue.Kind]
	if !ok {
		return Result{
			Issue:  issue,
			Status: StatusUnfixable,
			Detail: "no automatic fix; inspect the file manually",
		}
	}

	detail := act.describe(issue)
	if dryRun {
		return Result{Issue: issue, Status: StatusWouldFix, Detail: detail}
	}

	targets, err := act.targets(issue)
	if err != nil {
		return Result{Issue: issue, Status: StatusFailed, Detail: detail, Err: err}
	}

	// Backup-before-mutate: nothing is written until every target is
	// durably copied into the record.
	record, err := f.backups.Snapshot(targets)
	if err != nil {
		f.logger.Errorf("backup failed for %s: %v\n", issue.Kind, err)
		return Result{Issue: issue, Status: StatusFailed, Detail: detail, Err: err}
	}

	result := Result{Issue: issue, Status: StatusFixed, Detail: detail, BackupID: record.ID}

	if err := act.apply(issue); err != nil {
		result.Status = StatusFailed
		result.Err = err
		return result
	}

	if err := act.verify(issue); err != nil {
		result.Status = StatusFailed
		result.Err = err
		if verr, ok := err.(*ValidationError); ok {
			if restoreErr := f.backups.RestoreFile(record.ID, verr.Path); restoreErr != nil {
				result.Err = fmt.Errorf("%w (rollback also failed: %v)", err, restoreErr)
			} else {
				f.logger.Printf("rolled back %s from backup %s\n", verr.Path, record.ID)
			}
		}
		return result
	}

	f.logger.Debugf("fixed %s: %s\n", issue.Kind, detail)
	return result
}
