package repo

import (
	"context"
	"database/sql"

	"hiveline/internal/domain"
)

func scanHiveEvent(row rowScanner) (domain.HiveEvent, error) {
	var e domain.HiveEvent
	var userID sql.NullString
	err := row.Scan(&e.ID, &e.HiveID, &e.Type, &e.Payload, &userID, &e.CreatedAt)
	if err == sql.ErrNoRows {
		return e, ErrNotFound
	}
	if err != nil {
		return e, err
	}
	if userID.Valid {
		e.UserID = &userID.String
	}
	return e, nil
}

func (r Repo) GetHiveEvent(ctx context.Context, id int64) (domain.HiveEvent, error) {
	return scanHiveEvent(r.DB.QueryRowContext(ctx, `SELECT id,hive_id,type,payload_json,user_id,created_at FROM hive_events WHERE id=?`, id))
}

// ListHiveEvents reads one page of history, newest first, and the total row
// count for the hive.
func (r Repo) ListHiveEvents(ctx context.Context, hiveID string, page, limit int) ([]domain.HiveEvent, int, error) {
	if page < 1 {
		page = 1
	}
	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT count(*) FROM hive_events WHERE hive_id=?`, hiveID).Scan(&total); err != nil {
		return nil, 0, err
	}
	offset := (page - 1) * limit
	rows, err := r.DB.QueryContext(ctx, `SELECT id,hive_id,type,payload_json,user_id,created_at FROM hive_events WHERE hive_id=? ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		hiveID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var res []domain.HiveEvent
	for rows.Next() {
		e, err := scanHiveEvent(rows)
		if err != nil {
			return nil, 0, err
		}
		res = append(res, e)
	}
	return res, total, nil
}

// UpdateManualNotePayload edits a manual note in place. Every other event
// type is append-only, so the type is part of the predicate.
func (r Repo) UpdateManualNotePayload(ctx context.Context, id int64, payloadJSON string) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE hive_events SET payload_json=? WHERE id=? AND type='MANUAL_NOTE'`, payloadJSON, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) DeleteManualNote(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM hive_events WHERE id=? AND type='MANUAL_NOTE'`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
