package engine

import (
	"context"
	"errors"
	"time"

	"hiveline/internal/domain"
	"hiveline/internal/repo"
)

// CompleteStepOptions identifies one ledger row plus optional evidence.
type CompleteStepOptions struct {
	AssignmentID string
	StepID       string
	UserID       string
	Notes        string
	EvidenceURL  string
	EvidenceKind string
}

// CompleteStep flips one ledger row pending -> completed and recomputes the
// assignment status inside the same transaction. Completing an already
// completed row is a no-op that returns the existing row unchanged; a row
// that never existed is a state error. There is no way back to pending.
func (e Engine) CompleteStep(ctx context.Context, opts CompleteStepOptions) (domain.Progress, error) {
	if opts.AssignmentID == "" || opts.StepID == "" || opts.UserID == "" {
		return domain.Progress{}, validationf("assignment, step and user are required")
	}
	a, err := e.Repo.GetAssignment(ctx, opts.AssignmentID)
	if err != nil {
		return domain.Progress{}, err
	}
	if a.Archived {
		return domain.Progress{}, validationf("assignment %s is archived", a.ID)
	}
	step, err := e.Repo.GetTaskStep(ctx, opts.StepID)
	if err != nil {
		return domain.Progress{}, err
	}
	if step.TaskID != a.TaskID {
		return domain.Progress{}, validationf("step %s does not belong to task %s", step.ID, a.TaskID)
	}
	if step.RequireUserMedia && opts.EvidenceURL == "" {
		return domain.Progress{}, validationf("step %s requires evidence", step.ID)
	}
	task, err := e.Repo.GetTask(ctx, a.TaskID)
	if err != nil {
		return domain.Progress{}, err
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Progress{}, err
	}
	defer tx.Rollback()

	now := e.now().UTC().Format(time.RFC3339)
	claimed, err := e.Repo.CompleteProgressTx(ctx, tx, a.ID, step.ID, opts.UserID, now,
		optionalString(opts.Notes), optionalString(opts.EvidenceURL), optionalString(opts.EvidenceKind))
	if err != nil {
		return domain.Progress{}, err
	}
	if !claimed {
		p, err := e.Repo.GetProgressTx(ctx, tx, a.ID, step.ID, opts.UserID)
		if errors.Is(err, repo.ErrNotFound) {
			return domain.Progress{}, ErrNotParticipant
		}
		if err != nil {
			return domain.Progress{}, err
		}
		// already completed; nothing to recompute
		return p, nil
	}

	total, err := e.Repo.CountProgressTx(ctx, tx, a.ID)
	if err != nil {
		return domain.Progress{}, err
	}
	pending, err := e.Repo.CountPendingProgressTx(ctx, tx, a.ID)
	if err != nil {
		return domain.Progress{}, err
	}
	if total > 0 && pending == 0 {
		did, err := e.Repo.MarkAssignmentDoneTx(ctx, tx, a.ID, now, now)
		if err != nil {
			return domain.Progress{}, err
		}
		if did {
			if err := e.Events.TaskCompleted(ctx, tx, a.HiveID, opts.UserID, a.ID, task.ID, task.Title, now); err != nil {
				return domain.Progress{}, err
			}
		}
	} else if pending < total {
		if _, err := e.Repo.SetAssignmentStatusTx(ctx, tx, a.ID, domain.StatusInProgress, now); err != nil {
			return domain.Progress{}, err
		}
	}
	if err := tx.Commit(); err != nil {
		return domain.Progress{}, err
	}
	return e.Repo.GetProgress(ctx, a.ID, step.ID, opts.UserID)
}
