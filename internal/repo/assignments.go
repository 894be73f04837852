package repo

import (
	"context"
	"database/sql"

	"hiveline/internal/domain"
)

const assignmentCols = `id,task_id,hive_id,group_id,created_by_user_id,start_date,due_date,status,archived,completed_at,review_status,review_comment,review_by_user_id,review_at,rating,rating_comment,rated_at,notified_start,notified_due_soon,created_at,updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAssignment(row rowScanner) (domain.Assignment, error) {
	var a domain.Assignment
	var groupID, createdBy, startDate, completedAt, reviewComment, reviewBy, reviewAt, ratingComment, ratedAt sql.NullString
	var rating sql.NullInt64
	var archived, notifiedStart, notifiedDueSoon int
	err := row.Scan(&a.ID, &a.TaskID, &a.HiveID, &groupID, &createdBy, &startDate, &a.DueDate, &a.Status, &archived,
		&completedAt, &a.ReviewStatus, &reviewComment, &reviewBy, &reviewAt, &rating, &ratingComment, &ratedAt,
		&notifiedStart, &notifiedDueSoon, &a.CreatedAt, &a.UpdatedAt)
	if err == sql.ErrNoRows {
		return a, ErrNotFound
	}
	if err != nil {
		return a, err
	}
	if groupID.Valid {
		a.GroupID = &groupID.String
	}
	if createdBy.Valid {
		a.CreatedByUserID = &createdBy.String
	}
	if startDate.Valid {
		a.StartDate = &startDate.String
	}
	if completedAt.Valid {
		a.CompletedAt = &completedAt.String
	}
	if reviewComment.Valid {
		a.ReviewComment = &reviewComment.String
	}
	if reviewBy.Valid {
		a.ReviewByUserID = &reviewBy.String
	}
	if reviewAt.Valid {
		a.ReviewAt = &reviewAt.String
	}
	if rating.Valid {
		v := int(rating.Int64)
		a.Rating = &v
	}
	if ratingComment.Valid {
		a.RatingComment = &ratingComment.String
	}
	if ratedAt.Valid {
		a.RatedAt = &ratedAt.String
	}
	a.Archived = archived != 0
	a.NotifiedStart = notifiedStart != 0
	a.NotifiedDueSoon = notifiedDueSoon != 0
	return a, nil
}

func (r Repo) InsertAssignmentTx(ctx context.Context, tx *sql.Tx, a domain.Assignment) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO assignments(`+assignmentCols+`) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		a.ID, a.TaskID, a.HiveID, nullableStringPtr(a.GroupID), nullableStringPtr(a.CreatedByUserID),
		nullableStringPtr(a.StartDate), a.DueDate, a.Status, boolToInt(a.Archived), nullableStringPtr(a.CompletedAt),
		a.ReviewStatus, nullableStringPtr(a.ReviewComment), nullableStringPtr(a.ReviewByUserID), nullableStringPtr(a.ReviewAt),
		nullableIntPtr(a.Rating), nullableStringPtr(a.RatingComment), nullableStringPtr(a.RatedAt),
		boolToInt(a.NotifiedStart), boolToInt(a.NotifiedDueSoon), a.CreatedAt, a.UpdatedAt)
	return err
}

func (r Repo) GetAssignment(ctx context.Context, id string) (domain.Assignment, error) {
	return scanAssignment(r.DB.QueryRowContext(ctx, `SELECT `+assignmentCols+` FROM assignments WHERE id=?`, id))
}

func (r Repo) GetAssignmentTx(ctx context.Context, tx *sql.Tx, id string) (domain.Assignment, error) {
	return scanAssignment(tx.QueryRowContext(ctx, `SELECT `+assignmentCols+` FROM assignments WHERE id=?`, id))
}

type AssignmentFilters struct {
	HiveID          string
	TaskID          string
	Status          string
	IncludeArchived bool
	Limit           int
	CursorCreatedAt string
	CursorID        string
}

func (r Repo) ListAssignments(ctx context.Context, f AssignmentFilters) ([]domain.Assignment, error) {
	var clauses []string
	var args []any
	if f.HiveID != "" {
		clauses = append(clauses, "hive_id=?")
		args = append(args, f.HiveID)
	}
	if f.TaskID != "" {
		clauses = append(clauses, "task_id=?")
		args = append(args, f.TaskID)
	}
	if f.Status != "" {
		clauses = append(clauses, "status=?")
		args = append(args, f.Status)
	}
	if !f.IncludeArchived {
		clauses = append(clauses, "archived=0")
	}
	if f.CursorCreatedAt != "" && f.CursorID != "" {
		clauses = append(clauses, "(created_at < ? OR (created_at = ? AND id < ?))")
		args = append(args, f.CursorCreatedAt, f.CursorCreatedAt, f.CursorID)
	}
	query := `SELECT ` + assignmentCols + ` FROM assignments ` + joinWhere(clauses) + ` ORDER BY created_at DESC, id DESC`
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, a)
	}
	return res, nil
}

func (r Repo) UpdateAssignmentDatesTx(ctx context.Context, tx *sql.Tx, id string, startDate *string, dueDate, updatedAt string) error {
	res, err := tx.ExecContext(ctx, `UPDATE assignments SET start_date=?, due_date=?, updated_at=? WHERE id=?`,
		nullableStringPtr(startDate), dueDate, updatedAt, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) SetAssignmentArchived(ctx context.Context, id string, archived bool, updatedAt string) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE assignments SET archived=?, updated_at=? WHERE id=?`,
		boolToInt(archived), updatedAt, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetAssignmentStatusTx moves status without touching a row that already
// reached done. Returns true when the row changed.
func (r Repo) SetAssignmentStatusTx(ctx context.Context, tx *sql.Tx, id, status, updatedAt string) (bool, error) {
	res, err := tx.ExecContext(ctx, `UPDATE assignments SET status=?, updated_at=? WHERE id=? AND status<>? AND status<>'done'`,
		status, updatedAt, id, status)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// MarkAssignmentDoneTx stamps done and completed_at exactly once. Returns
// true only for the call that performed the transition.
func (r Repo) MarkAssignmentDoneTx(ctx context.Context, tx *sql.Tx, id, completedAt, updatedAt string) (bool, error) {
	res, err := tx.ExecContext(ctx, `UPDATE assignments SET status='done', completed_at=?, updated_at=? WHERE id=? AND status<>'done'`,
		completedAt, updatedAt, id)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r Repo) UpdateReviewTx(ctx context.Context, tx *sql.Tx, id, status string, comment *string, reviewerID, reviewAt, updatedAt string) error {
	res, err := tx.ExecContext(ctx, `UPDATE assignments SET review_status=?, review_comment=?, review_by_user_id=?, review_at=?, updated_at=? WHERE id=?`,
		status, nullableStringPtr(comment), reviewerID, reviewAt, updatedAt, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateRatingTx writes the rating only when none exists yet. Returns true
// when this call claimed the one-shot rating.
func (r Repo) UpdateRatingTx(ctx context.Context, tx *sql.Tx, id string, rating int, comment *string, ratedAt, updatedAt string) (bool, error) {
	res, err := tx.ExecContext(ctx, `UPDATE assignments SET rating=?, rating_comment=?, rated_at=?, updated_at=? WHERE id=? AND rated_at IS NULL`,
		rating, nullableStringPtr(comment), ratedAt, updatedAt, id)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// FlipNotifiedStart is the idempotency gate for the start sweep. Only the
// caller that wins the flip reports true; everyone else is a no-op.
func (r Repo) FlipNotifiedStart(ctx context.Context, id string) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `UPDATE assignments SET notified_start=1 WHERE id=? AND notified_start=0`, id)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r Repo) FlipNotifiedDueSoon(ctx context.Context, id string) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `UPDATE assignments SET notified_due_soon=1 WHERE id=? AND notified_due_soon=0`, id)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r Repo) listAssignmentsWhere(ctx context.Context, where string, args ...any) ([]domain.Assignment, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+assignmentCols+` FROM assignments `+where+` ORDER BY created_at ASC, id ASC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, a)
	}
	return res, nil
}

// StartSweepCandidates returns unarchived, unfinished assignments whose start
// date has arrived and that were never announced.
func (r Repo) StartSweepCandidates(ctx context.Context, today string) ([]domain.Assignment, error) {
	return r.listAssignmentsWhere(ctx,
		`WHERE archived=0 AND status<>'done' AND notified_start=0 AND start_date IS NOT NULL AND start_date<=?`, today)
}

func (r Repo) DueSoonSweepCandidates(ctx context.Context, today, horizon string) ([]domain.Assignment, error) {
	return r.listAssignmentsWhere(ctx,
		`WHERE archived=0 AND status<>'done' AND notified_due_soon=0 AND due_date>=? AND due_date<=?`, today, horizon)
}

func (r Repo) OverdueSweepCandidates(ctx context.Context, today string) ([]domain.Assignment, error) {
	return r.listAssignmentsWhere(ctx,
		`WHERE archived=0 AND status<>'done' AND due_date<?`, today)
}

func (r Repo) CountAssignmentsByStatus(ctx context.Context, hiveID string) (map[string]int, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT status, count(*) FROM assignments WHERE hive_id=? AND archived=0 GROUP BY status`, hiveID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := map[string]int{}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		res[status] = count
	}
	return res, nil
}
