package repo

import (
	"context"
	"database/sql"

	"hiveline/internal/domain"
)

func (r Repo) InsertTask(ctx context.Context, t domain.Task) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO tasks(id,title,category,due_window_days,created_by_user_id,archived,created_at) VALUES (?,?,?,?,?,?,?)`,
		t.ID, t.Title, nullable(t.Category), nullableIntPtr(t.DueWindowDays), nullableStringPtr(t.CreatedByUserID), boolToInt(t.Archived), t.CreatedAt)
	return err
}

func scanTask(row *sql.Row) (domain.Task, error) {
	var t domain.Task
	var category, createdBy sql.NullString
	var dueWindow sql.NullInt64
	var archived int
	err := row.Scan(&t.ID, &t.Title, &category, &dueWindow, &createdBy, &archived, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return t, ErrNotFound
	}
	if err != nil {
		return t, err
	}
	if category.Valid {
		t.Category = category.String
	}
	if dueWindow.Valid {
		d := int(dueWindow.Int64)
		t.DueWindowDays = &d
	}
	if createdBy.Valid {
		t.CreatedByUserID = &createdBy.String
	}
	t.Archived = archived != 0
	return t, nil
}

func (r Repo) GetTask(ctx context.Context, id string) (domain.Task, error) {
	return scanTask(r.DB.QueryRowContext(ctx, `SELECT id,title,category,due_window_days,created_by_user_id,archived,created_at FROM tasks WHERE id=?`, id))
}

func (r Repo) GetTaskTx(ctx context.Context, tx *sql.Tx, id string) (domain.Task, error) {
	return scanTask(tx.QueryRowContext(ctx, `SELECT id,title,category,due_window_days,created_by_user_id,archived,created_at FROM tasks WHERE id=?`, id))
}

func (r Repo) ListTasks(ctx context.Context, includeArchived bool) ([]domain.Task, error) {
	query := `SELECT id,title,category,due_window_days,created_by_user_id,archived,created_at FROM tasks`
	if !includeArchived {
		query += ` WHERE archived=0`
	}
	query += ` ORDER BY created_at DESC, id DESC`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Task
	for rows.Next() {
		var t domain.Task
		var category, createdBy sql.NullString
		var dueWindow sql.NullInt64
		var archived int
		if err := rows.Scan(&t.ID, &t.Title, &category, &dueWindow, &createdBy, &archived, &t.CreatedAt); err != nil {
			return nil, err
		}
		if category.Valid {
			t.Category = category.String
		}
		if dueWindow.Valid {
			d := int(dueWindow.Int64)
			t.DueWindowDays = &d
		}
		if createdBy.Valid {
			t.CreatedByUserID = &createdBy.String
		}
		t.Archived = archived != 0
		res = append(res, t)
	}
	return res, nil
}

func (r Repo) InsertTaskStep(ctx context.Context, s domain.TaskStep) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO task_steps(id,task_id,order_index,title,content_text,media_url,media_kind,require_user_media,created_at) VALUES (?,?,?,?,?,?,?,?,?)`,
		s.ID, s.TaskID, s.OrderIndex, s.Title, nullableStringPtr(s.ContentText), nullableStringPtr(s.MediaURL), nullableStringPtr(s.MediaKind), boolToInt(s.RequireUserMedia), s.CreatedAt)
	return err
}

func scanStepRows(rows *sql.Rows) ([]domain.TaskStep, error) {
	var res []domain.TaskStep
	for rows.Next() {
		var s domain.TaskStep
		var content, mediaURL, mediaKind sql.NullString
		var requireMedia int
		if err := rows.Scan(&s.ID, &s.TaskID, &s.OrderIndex, &s.Title, &content, &mediaURL, &mediaKind, &requireMedia, &s.CreatedAt); err != nil {
			return nil, err
		}
		if content.Valid {
			s.ContentText = &content.String
		}
		if mediaURL.Valid {
			s.MediaURL = &mediaURL.String
		}
		if mediaKind.Valid {
			s.MediaKind = &mediaKind.String
		}
		s.RequireUserMedia = requireMedia != 0
		res = append(res, s)
	}
	return res, nil
}

func (r Repo) ListTaskSteps(ctx context.Context, taskID string) ([]domain.TaskStep, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,task_id,order_index,title,content_text,media_url,media_kind,require_user_media,created_at FROM task_steps WHERE task_id=? ORDER BY order_index ASC`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanStepRows(rows)
}

func (r Repo) ListTaskStepsTx(ctx context.Context, tx *sql.Tx, taskID string) ([]domain.TaskStep, error) {
	rows, err := tx.QueryContext(ctx, `SELECT id,task_id,order_index,title,content_text,media_url,media_kind,require_user_media,created_at FROM task_steps WHERE task_id=? ORDER BY order_index ASC`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanStepRows(rows)
}

func (r Repo) GetTaskStep(ctx context.Context, id string) (domain.TaskStep, error) {
	var s domain.TaskStep
	var content, mediaURL, mediaKind sql.NullString
	var requireMedia int
	err := r.DB.QueryRowContext(ctx, `SELECT id,task_id,order_index,title,content_text,media_url,media_kind,require_user_media,created_at FROM task_steps WHERE id=?`, id).
		Scan(&s.ID, &s.TaskID, &s.OrderIndex, &s.Title, &content, &mediaURL, &mediaKind, &requireMedia, &s.CreatedAt)
	if err == sql.ErrNoRows {
		return s, ErrNotFound
	}
	if err != nil {
		return s, err
	}
	if content.Valid {
		s.ContentText = &content.String
	}
	if mediaURL.Valid {
		s.MediaURL = &mediaURL.String
	}
	if mediaKind.Valid {
		s.MediaKind = &mediaKind.String
	}
	s.RequireUserMedia = requireMedia != 0
	return s, nil
}

func (r Repo) CountTaskStepsTx(ctx context.Context, tx *sql.Tx, taskID string) (int, error) {
	var n int
	err := tx.QueryRowContext(ctx, `SELECT count(*) FROM task_steps WHERE task_id=?`, taskID).Scan(&n)
	return n, err
}
