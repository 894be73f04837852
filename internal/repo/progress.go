package repo

import (
	"context"
	"database/sql"

	"hiveline/internal/domain"
)

const progressCols = `id,assignment_id,task_step_id,user_id,status,completed_at,notes,evidence_url,evidence_kind,created_at,updated_at`

func scanProgress(row rowScanner) (domain.Progress, error) {
	var p domain.Progress
	var completedAt, notes, evidenceURL, evidenceKind sql.NullString
	err := row.Scan(&p.ID, &p.AssignmentID, &p.TaskStepID, &p.UserID, &p.Status, &completedAt, &notes, &evidenceURL, &evidenceKind, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return p, ErrNotFound
	}
	if err != nil {
		return p, err
	}
	if completedAt.Valid {
		p.CompletedAt = &completedAt.String
	}
	if notes.Valid {
		p.Notes = &notes.String
	}
	if evidenceURL.Valid {
		p.EvidenceURL = &evidenceURL.String
	}
	if evidenceKind.Valid {
		p.EvidenceKind = &evidenceKind.String
	}
	return p, nil
}

// InsertProgressTx adds one pending ledger row. The UNIQUE constraint on
// (assignment_id, task_step_id, user_id) makes a duplicate fan-out fail hard.
func (r Repo) InsertProgressTx(ctx context.Context, tx *sql.Tx, p domain.Progress) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO assignment_progress(`+progressCols+`) VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		p.ID, p.AssignmentID, p.TaskStepID, p.UserID, p.Status, nullableStringPtr(p.CompletedAt),
		nullableStringPtr(p.Notes), nullableStringPtr(p.EvidenceURL), nullableStringPtr(p.EvidenceKind),
		p.CreatedAt, p.UpdatedAt)
	return err
}

// CompleteProgressTx flips one ledger row pending -> completed. Zero rows
// affected means the row was already completed, or does not exist at all;
// the caller distinguishes the two.
func (r Repo) CompleteProgressTx(ctx context.Context, tx *sql.Tx, assignmentID, stepID, userID, completedAt string, notes, evidenceURL, evidenceKind *string) (bool, error) {
	res, err := tx.ExecContext(ctx, `UPDATE assignment_progress SET status='completed', completed_at=?, notes=?, evidence_url=?, evidence_kind=?, updated_at=?
WHERE assignment_id=? AND task_step_id=? AND user_id=? AND status='pending'`,
		completedAt, nullableStringPtr(notes), nullableStringPtr(evidenceURL), nullableStringPtr(evidenceKind), completedAt,
		assignmentID, stepID, userID)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r Repo) GetProgressTx(ctx context.Context, tx *sql.Tx, assignmentID, stepID, userID string) (domain.Progress, error) {
	return scanProgress(tx.QueryRowContext(ctx, `SELECT `+progressCols+` FROM assignment_progress WHERE assignment_id=? AND task_step_id=? AND user_id=?`,
		assignmentID, stepID, userID))
}

func (r Repo) GetProgress(ctx context.Context, assignmentID, stepID, userID string) (domain.Progress, error) {
	return scanProgress(r.DB.QueryRowContext(ctx, `SELECT `+progressCols+` FROM assignment_progress WHERE assignment_id=? AND task_step_id=? AND user_id=?`,
		assignmentID, stepID, userID))
}

func (r Repo) ListProgress(ctx context.Context, assignmentID string) ([]domain.Progress, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+progressCols+` FROM assignment_progress WHERE assignment_id=? ORDER BY user_id, task_step_id`, assignmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Progress
	for rows.Next() {
		p, err := scanProgress(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, nil
}

// CountPendingProgressTx is the single read the status recompute depends on.
func (r Repo) CountPendingProgressTx(ctx context.Context, tx *sql.Tx, assignmentID string) (int, error) {
	var n int
	err := tx.QueryRowContext(ctx, `SELECT count(*) FROM assignment_progress WHERE assignment_id=? AND status='pending'`, assignmentID).Scan(&n)
	return n, err
}

func (r Repo) CountProgressTx(ctx context.Context, tx *sql.Tx, assignmentID string) (int, error) {
	var n int
	err := tx.QueryRowContext(ctx, `SELECT count(*) FROM assignment_progress WHERE assignment_id=?`, assignmentID).Scan(&n)
	return n, err
}

// ListParticipantIDs returns the participant snapshot frozen into the ledger
// at assignment creation.
func (r Repo) ListParticipantIDs(ctx context.Context, assignmentID string) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT DISTINCT user_id FROM assignment_progress WHERE assignment_id=? ORDER BY user_id`, assignmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
