package repo

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"hiveline/internal/domain"
)

type Repo struct {
	DB *sql.DB
}

var ErrNotFound = errors.New("not found")

func (r Repo) InsertUser(ctx context.Context, u domain.User) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO users(id,name,email,role,created_at) VALUES (?,?,?,?,?)`,
		u.ID, u.Name, nullable(u.Email), u.Role, u.CreatedAt)
	return err
}

func (r Repo) GetUser(ctx context.Context, id string) (domain.User, error) {
	var u domain.User
	var email sql.NullString
	err := r.DB.QueryRowContext(ctx, `SELECT id,name,email,role,created_at FROM users WHERE id=?`, id).
		Scan(&u.ID, &u.Name, &email, &u.Role, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return u, ErrNotFound
	}
	if email.Valid {
		u.Email = email.String
	}
	return u, err
}

func (r Repo) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,name,email,role,created_at FROM users ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.User
	for rows.Next() {
		var u domain.User
		var email sql.NullString
		if err := rows.Scan(&u.ID, &u.Name, &email, &u.Role, &u.CreatedAt); err != nil {
			return nil, err
		}
		if email.Valid {
			u.Email = email.String
		}
		res = append(res, u)
	}
	return res, nil
}

func scanHive(row *sql.Row) (domain.Hive, error) {
	var h domain.Hive
	var owner sql.NullString
	err := row.Scan(&h.ID, &h.Label, &owner, &h.CreatedAt, &h.UpdatedAt)
	if err == sql.ErrNoRows {
		return h, ErrNotFound
	}
	if owner.Valid {
		h.OwnerUserID = &owner.String
	}
	return h, err
}

func (r Repo) InsertHive(ctx context.Context, h domain.Hive) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO hives(id,label,owner_user_id,created_at,updated_at) VALUES (?,?,?,?,?)`,
		h.ID, h.Label, nullableStringPtr(h.OwnerUserID), h.CreatedAt, h.UpdatedAt)
	return err
}

func (r Repo) GetHive(ctx context.Context, id string) (domain.Hive, error) {
	return scanHive(r.DB.QueryRowContext(ctx, `SELECT id,label,owner_user_id,created_at,updated_at FROM hives WHERE id=?`, id))
}

func (r Repo) GetHiveTx(ctx context.Context, tx *sql.Tx, id string) (domain.Hive, error) {
	return scanHive(tx.QueryRowContext(ctx, `SELECT id,label,owner_user_id,created_at,updated_at FROM hives WHERE id=?`, id))
}

func (r Repo) ListHives(ctx context.Context) ([]domain.Hive, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,label,owner_user_id,created_at,updated_at FROM hives ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Hive
	for rows.Next() {
		var h domain.Hive
		var owner sql.NullString
		if err := rows.Scan(&h.ID, &h.Label, &owner, &h.CreatedAt, &h.UpdatedAt); err != nil {
			return nil, err
		}
		if owner.Valid {
			h.OwnerUserID = &owner.String
		}
		res = append(res, h)
	}
	return res, nil
}

func (r Repo) UpdateHiveTx(ctx context.Context, tx *sql.Tx, h domain.Hive) error {
	res, err := tx.ExecContext(ctx, `UPDATE hives SET label=?, owner_user_id=?, updated_at=? WHERE id=?`,
		h.Label, nullableStringPtr(h.OwnerUserID), h.UpdatedAt, h.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) AddHiveMember(ctx context.Context, hiveID, userID string) error {
	_, err := r.DB.ExecContext(ctx, `INSERT OR IGNORE INTO hive_members(hive_id,user_id) VALUES (?,?)`, hiveID, userID)
	return err
}

func (r Repo) RemoveHiveMember(ctx context.Context, hiveID, userID string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM hive_members WHERE hive_id=? AND user_id=?`, hiveID, userID)
	return err
}

func (r Repo) ListHiveMemberIDsTx(ctx context.Context, tx *sql.Tx, hiveID string) ([]string, error) {
	rows, err := tx.QueryContext(ctx, `SELECT user_id FROM hive_members WHERE hive_id=? ORDER BY user_id`, hiveID)
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

func (r Repo) InsertGroup(ctx context.Context, g domain.Group) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO groups(id,name,created_at) VALUES (?,?,?)`, g.ID, g.Name, g.CreatedAt)
	return err
}

func (r Repo) GetGroup(ctx context.Context, id string) (domain.Group, error) {
	var g domain.Group
	err := r.DB.QueryRowContext(ctx, `SELECT id,name,created_at FROM groups WHERE id=?`, id).
		Scan(&g.ID, &g.Name, &g.CreatedAt)
	if err == sql.ErrNoRows {
		return g, ErrNotFound
	}
	return g, err
}

func (r Repo) AddGroupMember(ctx context.Context, groupID, userID string) error {
	_, err := r.DB.ExecContext(ctx, `INSERT OR IGNORE INTO group_members(group_id,user_id) VALUES (?,?)`, groupID, userID)
	return err
}

func (r Repo) ListGroupMemberIDsTx(ctx context.Context, tx *sql.Tx, groupID string) ([]string, error) {
	rows, err := tx.QueryContext(ctx, `SELECT user_id FROM group_members WHERE group_id=? ORDER BY user_id`, groupID)
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

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func nullableStringPtr(v *string) any {
	if v == nil {
		return nil
	}
	if *v == "" {
		return nil
	}
	return *v
}

func nullableIntPtr(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func joinWhere(clauses []string) string {
	if len(clauses) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(clauses, " AND ")
}
