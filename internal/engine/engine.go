package engine

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"hiveline/internal/config"
	"hiveline/internal/domain"
	"hiveline/internal/events"
	"hiveline/internal/repo"
)

type Engine struct {
	DB     *sql.DB
	Repo   repo.Repo
	Events events.Writer
	Config *config.Config
	Now    func() time.Time
}

func New(db *sql.DB, cfg *config.Config) Engine {
	return Engine{
		DB:     db,
		Repo:   repo.Repo{DB: db},
		Events: events.Writer{DB: db},
		Config: cfg,
		Now:    time.Now,
	}
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e Engine) today() string {
	return e.now().UTC().Format(domain.DateLayout)
}

func (e Engine) assignmentLink(id string) string {
	base := ""
	if e.Config != nil {
		base = e.Config.App.BaseURL
	}
	return base + "/assignments/" + id
}

func checkDate(name, value string) error {
	if _, err := time.Parse(domain.DateLayout, value); err != nil {
		return validationf("%s must be a YYYY-MM-DD date, got %q", name, value)
	}
	return nil
}

func addDays(date string, days int) string {
	t, _ := time.Parse(domain.DateLayout, date)
	return t.AddDate(0, 0, days).Format(domain.DateLayout)
}

// AssignmentCreateOptions are parameters for creating one assignment.
type AssignmentCreateOptions struct {
	ID        string
	TaskID    string
	HiveID    string
	GroupID   string
	StartDate string
	DueDate   string
	ActorID   string
}

func (e Engine) CreateAssignment(ctx context.Context, opts AssignmentCreateOptions) (domain.Assignment, error) {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Assignment{}, err
	}
	defer tx.Rollback()

	a, err := e.createAssignmentTx(ctx, tx, opts)
	if err != nil {
		return domain.Assignment{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Assignment{}, err
	}
	return a, nil
}

// CreateAssignmentsBulk assigns one task to many hives atomically: either
// every hive gets its assignment, fan-out and history entry, or none do.
func (e Engine) CreateAssignmentsBulk(ctx context.Context, taskID string, hiveIDs []string, startDate, dueDate, actorID string) ([]domain.Assignment, error) {
	if len(hiveIDs) == 0 {
		return nil, validationf("at least one hive is required")
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var res []domain.Assignment
	for _, hiveID := range hiveIDs {
		a, err := e.createAssignmentTx(ctx, tx, AssignmentCreateOptions{
			TaskID:    taskID,
			HiveID:    hiveID,
			StartDate: startDate,
			DueDate:   dueDate,
			ActorID:   actorID,
		})
		if err != nil {
			return nil, fmt.Errorf("hive %s: %w", hiveID, err)
		}
		res = append(res, a)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return res, nil
}

func (e Engine) createAssignmentTx(ctx context.Context, tx *sql.Tx, opts AssignmentCreateOptions) (domain.Assignment, error) {
	if opts.TaskID == "" {
		return domain.Assignment{}, validationf("task is required")
	}
	if opts.HiveID == "" {
		return domain.Assignment{}, validationf("hive is required")
	}
	task, err := e.Repo.GetTaskTx(ctx, tx, opts.TaskID)
	if err != nil {
		return domain.Assignment{}, err
	}
	if _, err := e.Repo.GetHiveTx(ctx, tx, opts.HiveID); err != nil {
		return domain.Assignment{}, err
	}
	if opts.StartDate != "" {
		if err := checkDate("start_date", opts.StartDate); err != nil {
			return domain.Assignment{}, err
		}
	}
	if opts.DueDate == "" {
		if task.DueWindowDays == nil {
			return domain.Assignment{}, validationf("due_date is required for task %s", task.ID)
		}
		opts.DueDate = addDays(e.today(), *task.DueWindowDays)
	}
	if err := checkDate("due_date", opts.DueDate); err != nil {
		return domain.Assignment{}, err
	}
	if opts.StartDate != "" && opts.DueDate < opts.StartDate {
		return domain.Assignment{}, validationf("due_date %s is before start_date %s", opts.DueDate, opts.StartDate)
	}

	participants, err := e.resolveParticipantsTx(ctx, tx, opts.HiveID, opts.GroupID)
	if err != nil {
		return domain.Assignment{}, err
	}
	steps, err := e.Repo.ListTaskStepsTx(ctx, tx, opts.TaskID)
	if err != nil {
		return domain.Assignment{}, err
	}

	now := e.now().UTC().Format(time.RFC3339)
	id := opts.ID
	if id == "" {
		id = uuid.New().String()
	}
	a := domain.Assignment{
		ID:              id,
		TaskID:          opts.TaskID,
		HiveID:          opts.HiveID,
		GroupID:         optionalString(opts.GroupID),
		CreatedByUserID: optionalString(opts.ActorID),
		StartDate:       optionalString(opts.StartDate),
		DueDate:         opts.DueDate,
		Status:          domain.StatusNotStarted,
		ReviewStatus:    domain.ReviewPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := e.Repo.InsertAssignmentTx(ctx, tx, a); err != nil {
		return domain.Assignment{}, fmt.Errorf("insert assignment: %w", err)
	}
	for _, userID := range participants {
		for _, step := range steps {
			p := domain.Progress{
				ID:           uuid.New().String(),
				AssignmentID: a.ID,
				TaskStepID:   step.ID,
				UserID:       userID,
				Status:       domain.ProgressPending,
				CreatedAt:    now,
				UpdatedAt:    now,
			}
			if err := e.Repo.InsertProgressTx(ctx, tx, p); err != nil {
				return domain.Assignment{}, fmt.Errorf("fan out progress: %w", err)
			}
		}
	}
	if err := e.Events.TaskAssigned(ctx, tx, a.HiveID, opts.ActorID, a.ID, task.ID, task.Title, a.StartDate, a.DueDate); err != nil {
		return domain.Assignment{}, err
	}
	return a, nil
}

// resolveParticipantsTx freezes the participant set: group members when a
// group is targeted, otherwise hive owner plus members, deduped.
func (e Engine) resolveParticipantsTx(ctx context.Context, tx *sql.Tx, hiveID, groupID string) ([]string, error) {
	if groupID != "" {
		return e.Repo.ListGroupMemberIDsTx(ctx, tx, groupID)
	}
	hive, err := e.Repo.GetHiveTx(ctx, tx, hiveID)
	if err != nil {
		return nil, err
	}
	members, err := e.Repo.ListHiveMemberIDsTx(ctx, tx, hiveID)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	var res []string
	if hive.OwnerUserID != nil {
		seen[*hive.OwnerUserID] = true
		res = append(res, *hive.OwnerUserID)
	}
	for _, id := range members {
		if !seen[id] {
			seen[id] = true
			res = append(res, id)
		}
	}
	return res, nil
}

// UpdateAssignmentDates changes start/due dates, records the before and
// after pair in the hive history and notifies every participant. The sweep
// flags stay as they are.
func (e Engine) UpdateAssignmentDates(ctx context.Context, id string, startDate *string, dueDate, actorID string) (domain.Assignment, error) {
	a, err := e.Repo.GetAssignment(ctx, id)
	if err != nil {
		return a, err
	}
	nextStart := a.StartDate
	if startDate != nil {
		if *startDate == "" {
			nextStart = nil
		} else {
			if err := checkDate("start_date", *startDate); err != nil {
				return a, err
			}
			nextStart = startDate
		}
	}
	nextDue := a.DueDate
	if dueDate != "" {
		if err := checkDate("due_date", dueDate); err != nil {
			return a, err
		}
		nextDue = dueDate
	}
	if nextStart != nil && nextDue < *nextStart {
		return a, validationf("due_date %s is before start_date %s", nextDue, *nextStart)
	}
	startChanged := (a.StartDate == nil) != (nextStart == nil) ||
		(a.StartDate != nil && nextStart != nil && *a.StartDate != *nextStart)
	if !startChanged && nextDue == a.DueDate {
		return a, nil
	}

	task, err := e.Repo.GetTask(ctx, a.TaskID)
	if err != nil {
		return a, err
	}
	participants, err := e.Repo.ListParticipantIDs(ctx, a.ID)
	if err != nil {
		return a, err
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return a, err
	}
	defer tx.Rollback()

	now := e.now().UTC().Format(time.RFC3339)
	if err := e.Repo.UpdateAssignmentDatesTx(ctx, tx, a.ID, nextStart, nextDue, now); err != nil {
		return a, err
	}
	if err := e.Events.TaskDatesChanged(ctx, tx, a.HiveID, actorID, a.ID, a.StartDate, nextStart, a.DueDate, nextDue); err != nil {
		return a, err
	}
	for _, userID := range participants {
		n := domain.Notification{
			ID:        uuid.New().String(),
			UserID:    userID,
			Type:      "task_dates_changed",
			Title:     fmt.Sprintf("Dates changed for %s", task.Title),
			Body:      fmt.Sprintf("New due date: %s", nextDue),
			Link:      e.assignmentLink(a.ID),
			CreatedAt: now,
		}
		if err := e.Repo.InsertNotificationTx(ctx, tx, n); err != nil {
			return a, err
		}
	}
	if err := tx.Commit(); err != nil {
		return a, err
	}
	a.StartDate = nextStart
	a.DueDate = nextDue
	a.UpdatedAt = now
	return a, nil
}

func (e Engine) SetAssignmentArchived(ctx context.Context, id string, archived bool) (domain.Assignment, error) {
	now := e.now().UTC().Format(time.RFC3339)
	if err := e.Repo.SetAssignmentArchived(ctx, id, archived, now); err != nil {
		return domain.Assignment{}, err
	}
	return e.Repo.GetAssignment(ctx, id)
}

// ReviewAssignment records an approve/reject verdict for a finished
// assignment. A rejection is final and never rolls the assignment status
// back. A non-empty comment also lands in the hive history as a note.
func (e Engine) ReviewAssignment(ctx context.Context, id, status, comment, reviewerID string) (domain.Assignment, error) {
	if status != domain.ReviewApproved && status != domain.ReviewRejected {
		return domain.Assignment{}, validationf("review status must be approved or rejected, got %q", status)
	}
	if len(comment) > 1000 {
		return domain.Assignment{}, validationf("review comment exceeds 1000 characters")
	}
	a, err := e.Repo.GetAssignment(ctx, id)
	if err != nil {
		return a, err
	}
	if a.Status != domain.StatusDone {
		return a, ErrNotCompleted
	}
	if a.ReviewStatus != domain.ReviewPending {
		return a, ErrAlreadyReviewed
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return a, err
	}
	defer tx.Rollback()

	now := e.now().UTC().Format(time.RFC3339)
	if err := e.Repo.UpdateReviewTx(ctx, tx, a.ID, status, optionalString(comment), reviewerID, now, now); err != nil {
		return a, err
	}
	if comment != "" {
		payload := events.EventPayload{
			"text":          comment,
			"assignment_id": a.ID,
			"context":       "review",
		}
		if _, err := e.Events.Append(ctx, tx, a.HiveID, events.TypeManualNote, reviewerID, payload); err != nil {
			return a, err
		}
	}
	if err := tx.Commit(); err != nil {
		return a, err
	}
	return e.Repo.GetAssignment(ctx, a.ID)
}

// RateAssignment stores a one-shot 1..5 rating for a finished assignment.
func (e Engine) RateAssignment(ctx context.Context, id string, rating int, comment, actorID string) (domain.Assignment, error) {
	if rating < 1 || rating > 5 {
		return domain.Assignment{}, validationf("rating must be between 1 and 5, got %d", rating)
	}
	if len(comment) > 1000 {
		return domain.Assignment{}, validationf("rating comment exceeds 1000 characters")
	}
	a, err := e.Repo.GetAssignment(ctx, id)
	if err != nil {
		return a, err
	}
	if a.Status != domain.StatusDone {
		return a, ErrNotCompleted
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return a, err
	}
	defer tx.Rollback()

	now := e.now().UTC().Format(time.RFC3339)
	claimed, err := e.Repo.UpdateRatingTx(ctx, tx, a.ID, rating, optionalString(comment), now, now)
	if err != nil {
		return a, err
	}
	if !claimed {
		return a, ErrAlreadyRated
	}
	if err := tx.Commit(); err != nil {
		return a, err
	}
	return e.Repo.GetAssignment(ctx, a.ID)
}

// HiveUpdateOptions carries the editable hive fields. Nil means unchanged.
type HiveUpdateOptions struct {
	Label   *string
	OwnerID *string
	ActorID string
}

func (e Engine) UpdateHive(ctx context.Context, id string, opts HiveUpdateOptions) (domain.Hive, error) {
	h, err := e.Repo.GetHive(ctx, id)
	if err != nil {
		return h, err
	}
	changes := map[string]events.EventPayload{}
	if opts.Label != nil && *opts.Label != h.Label {
		if *opts.Label == "" {
			return h, validationf("label must not be empty")
		}
		changes["label"] = events.EventPayload{"from": h.Label, "to": *opts.Label}
		h.Label = *opts.Label
	}
	if opts.OwnerID != nil {
		prev := ""
		if h.OwnerUserID != nil {
			prev = *h.OwnerUserID
		}
		if *opts.OwnerID != prev {
			changes["owner_user_id"] = events.EventPayload{"from": prev, "to": *opts.OwnerID}
			h.OwnerUserID = optionalString(*opts.OwnerID)
		}
	}
	if len(changes) == 0 {
		return h, nil
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return h, err
	}
	defer tx.Rollback()

	h.UpdatedAt = e.now().UTC().Format(time.RFC3339)
	if err := e.Repo.UpdateHiveTx(ctx, tx, h); err != nil {
		return h, err
	}
	if err := e.Events.HiveUpdated(ctx, tx, h.ID, opts.ActorID, changes); err != nil {
		return h, err
	}
	if err := tx.Commit(); err != nil {
		return h, err
	}
	return h, nil
}

// CreateManualNote appends a free-text note to the hive history.
func (e Engine) CreateManualNote(ctx context.Context, hiveID, text string, attachments []string, actorID string) (domain.HiveEvent, error) {
	if text == "" {
		return domain.HiveEvent{}, validationf("note text is required")
	}
	if _, err := e.Repo.GetHive(ctx, hiveID); err != nil {
		return domain.HiveEvent{}, err
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.HiveEvent{}, err
	}
	defer tx.Rollback()

	payload := events.EventPayload{"text": text}
	if len(attachments) > 0 {
		payload["attachments"] = attachments
	}
	id, err := e.Events.Append(ctx, tx, hiveID, events.TypeManualNote, actorID, payload)
	if err != nil {
		return domain.HiveEvent{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.HiveEvent{}, err
	}
	return e.Repo.GetHiveEvent(ctx, id)
}

// UpdateManualNote edits an existing note. Notes are the only event type
// that can be changed after the fact.
func (e Engine) UpdateManualNote(ctx context.Context, id int64, text string, attachments []string) (domain.HiveEvent, error) {
	if text == "" {
		return domain.HiveEvent{}, validationf("note text is required")
	}
	evt, err := e.Repo.GetHiveEvent(ctx, id)
	if err != nil {
		return evt, err
	}
	if evt.Type != events.TypeManualNote {
		return evt, validationf("event %d is not a manual note", id)
	}
	payload := events.EventPayload{"text": text}
	if len(attachments) > 0 {
		payload["attachments"] = attachments
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return evt, err
	}
	if err := e.Repo.UpdateManualNotePayload(ctx, id, string(data)); err != nil {
		return evt, err
	}
	return e.Repo.GetHiveEvent(ctx, id)
}

func (e Engine) DeleteManualNote(ctx context.Context, id int64) error {
	evt, err := e.Repo.GetHiveEvent(ctx, id)
	if err != nil {
		return err
	}
	if evt.Type != events.TypeManualNote {
		return validationf("event %d is not a manual note", id)
	}
	return e.Repo.DeleteManualNote(ctx, id)
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
