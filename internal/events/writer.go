package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Hive history event types. Everything except MANUAL_NOTE is written by the
// engine in the same transaction as the mutation it records and is never
// edited afterwards.
const (
	TypeHiveUpdated      = "HIVE_UPDATED"
	TypeTaskAssigned     = "TASK_ASSIGNED"
	TypeTaskDatesChanged = "TASK_DATES_CHANGED"
	TypeTaskCompleted    = "TASK_COMPLETED"
	TypeManualNote       = "MANUAL_NOTE"
)

type Writer struct {
	DB  *sql.DB
	Now func() time.Time
}

type EventPayload map[string]any

// Append writes one hive event inside the caller's transaction and returns
// its row id.
func (w Writer) Append(ctx context.Context, tx *sql.Tx, hiveID, evtType, userID string, payload EventPayload) (int64, error) {
	if w.Now == nil {
		w.Now = time.Now
	}
	ts := w.Now().UTC().Format(time.RFC3339)
	if payload == nil {
		payload = EventPayload{}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("marshal event payload: %w", err)
	}
	res, err := tx.ExecContext(ctx, `INSERT INTO hive_events(hive_id,type,payload_json,user_id,created_at) VALUES (?,?,?,?,?)`,
		hiveID, evtType, string(data), nullable(userID), ts)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (w Writer) TaskAssigned(ctx context.Context, tx *sql.Tx, hiveID, actorID, assignmentID, taskID, taskTitle string, startDate *string, dueDate string) error {
	payload := EventPayload{
		"assignment_id": assignmentID,
		"task_id":       taskID,
		"task_title":    taskTitle,
		"due_date":      dueDate,
	}
	if startDate != nil {
		payload["start_date"] = *startDate
	}
	_, err := w.Append(ctx, tx, hiveID, TypeTaskAssigned, actorID, payload)
	return err
}

func (w Writer) TaskDatesChanged(ctx context.Context, tx *sql.Tx, hiveID, actorID, assignmentID string, prevStart, nextStart *string, prevDue, nextDue string) error {
	payload := EventPayload{
		"assignment_id": assignmentID,
		"previous":      datePair(prevStart, prevDue),
		"next":          datePair(nextStart, nextDue),
	}
	_, err := w.Append(ctx, tx, hiveID, TypeTaskDatesChanged, actorID, payload)
	return err
}

func (w Writer) TaskCompleted(ctx context.Context, tx *sql.Tx, hiveID, actorID, assignmentID, taskID, taskTitle, completedAt string) error {
	_, err := w.Append(ctx, tx, hiveID, TypeTaskCompleted, actorID, EventPayload{
		"assignment_id": assignmentID,
		"task_id":       taskID,
		"task_title":    taskTitle,
		"completed_at":  completedAt,
	})
	return err
}

func (w Writer) HiveUpdated(ctx context.Context, tx *sql.Tx, hiveID, actorID string, changes map[string]EventPayload) error {
	_, err := w.Append(ctx, tx, hiveID, TypeHiveUpdated, actorID, EventPayload{"changes": changes})
	return err
}

func datePair(start *string, due string) EventPayload {
	p := EventPayload{"due_date": due}
	if start != nil {
		p["start_date"] = *start
	}
	return p
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}
