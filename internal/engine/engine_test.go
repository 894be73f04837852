package engine_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"hiveline/internal/config"
	"hiveline/internal/db"
	"hiveline/internal/domain"
	"hiveline/internal/engine"
	"hiveline/internal/migrate"
	"hiveline/internal/repo"
)

type testEnv struct {
	Engine engine.Engine
	Ctx    context.Context
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	dir := t.TempDir()
	conn, err := db.Open(db.Config{Workspace: dir})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	eng := engine.New(conn, config.Default())
	eng.Now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }
	return testEnv{Engine: eng, Ctx: context.Background()}
}

func seedUser(t *testing.T, env testEnv, id string) {
	t.Helper()
	u := domain.User{ID: id, Name: id, Role: "user", CreatedAt: "2024-06-01T00:00:00Z"}
	if err := env.Engine.Repo.InsertUser(env.Ctx, u); err != nil {
		t.Fatalf("seed user %s: %v", id, err)
	}
}

func seedHive(t *testing.T, env testEnv, id, owner string, members ...string) {
	t.Helper()
	h := domain.Hive{ID: id, Label: id, CreatedAt: "2024-06-01T00:00:00Z", UpdatedAt: "2024-06-01T00:00:00Z"}
	if owner != "" {
		seedUser(t, env, owner)
		h.OwnerUserID = &owner
	}
	if err := env.Engine.Repo.InsertHive(env.Ctx, h); err != nil {
		t.Fatalf("seed hive %s: %v", id, err)
	}
	for _, m := range members {
		seedUser(t, env, m)
		if err := env.Engine.Repo.AddHiveMember(env.Ctx, id, m); err != nil {
			t.Fatalf("seed member %s: %v", m, err)
		}
	}
}

func seedTask(t *testing.T, env testEnv, id string, steps int) []domain.TaskStep {
	t.Helper()
	if err := env.Engine.Repo.InsertTask(env.Ctx, domain.Task{ID: id, Title: "Task " + id, CreatedAt: "2024-06-01T00:00:00Z"}); err != nil {
		t.Fatalf("seed task %s: %v", id, err)
	}
	var res []domain.TaskStep
	for i := 0; i < steps; i++ {
		s := domain.TaskStep{
			ID:         fmt.Sprintf("%s-step-%d", id, i+1),
			TaskID:     id,
			OrderIndex: i + 1,
			Title:      fmt.Sprintf("Step %d", i+1),
			CreatedAt:  "2024-06-01T00:00:00Z",
		}
		if err := env.Engine.Repo.InsertTaskStep(env.Ctx, s); err != nil {
			t.Fatalf("seed step: %v", err)
		}
		res = append(res, s)
	}
	return res
}

func countEvents(t *testing.T, env testEnv, hiveID, evtType string) int {
	t.Helper()
	var count int
	row := env.Engine.DB.QueryRowContext(env.Ctx, `SELECT count(*) FROM hive_events WHERE hive_id=? AND type=?`, hiveID, evtType)
	if err := row.Scan(&count); err != nil {
		t.Fatalf("count events: %v", err)
	}
	return count
}

func TestAssignmentFanOut(t *testing.T) {
	env := newTestEnv(t)
	seedHive(t, env, "hive-1", "owner", "alice", "bob")
	seedTask(t, env, "task-1", 2)

	a, err := env.Engine.CreateAssignment(env.Ctx, engine.AssignmentCreateOptions{
		TaskID: "task-1", HiveID: "hive-1", DueDate: "2024-06-10", ActorID: "owner",
	})
	if err != nil {
		t.Fatalf("create assignment: %v", err)
	}
	if a.Status != domain.StatusNotStarted {
		t.Fatalf("expected not_started, got %s", a.Status)
	}
	if a.ReviewStatus != domain.ReviewPending {
		t.Fatalf("expected review pending, got %s", a.ReviewStatus)
	}
	rows, err := env.Engine.Repo.ListProgress(env.Ctx, a.ID)
	if err != nil {
		t.Fatalf("list progress: %v", err)
	}
	// 3 participants x 2 steps
	if len(rows) != 6 {
		t.Fatalf("expected 6 progress rows, got %d", len(rows))
	}
	for _, p := range rows {
		if p.Status != domain.ProgressPending {
			t.Fatalf("expected pending row, got %s", p.Status)
		}
	}
	if n := countEvents(t, env, "hive-1", "TASK_ASSIGNED"); n != 1 {
		t.Fatalf("expected 1 TASK_ASSIGNED event, got %d", n)
	}
}

func TestCompleteStepDrivesStatus(t *testing.T) {
	env := newTestEnv(t)
	seedHive(t, env, "hive-1", "owner", "alice")
	steps := seedTask(t, env, "task-1", 2)
	a, err := env.Engine.CreateAssignment(env.Ctx, engine.AssignmentCreateOptions{
		TaskID: "task-1", HiveID: "hive-1", DueDate: "2024-06-10",
	})
	if err != nil {
		t.Fatal(err)
	}

	complete := func(stepID, userID string) {
		t.Helper()
		if _, err := env.Engine.CompleteStep(env.Ctx, engine.CompleteStepOptions{
			AssignmentID: a.ID, StepID: stepID, UserID: userID,
		}); err != nil {
			t.Fatalf("complete %s/%s: %v", stepID, userID, err)
		}
	}

	complete(steps[0].ID, "owner")
	got, err := env.Engine.Repo.GetAssignment(env.Ctx, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != domain.StatusInProgress {
		t.Fatalf("expected in_progress after first completion, got %s", got.Status)
	}

	complete(steps[1].ID, "owner")
	complete(steps[0].ID, "alice")
	got, _ = env.Engine.Repo.GetAssignment(env.Ctx, a.ID)
	if got.Status != domain.StatusInProgress {
		t.Fatalf("expected in_progress with one row pending, got %s", got.Status)
	}
	if got.CompletedAt != nil {
		t.Fatalf("completed_at set before last row")
	}

	complete(steps[1].ID, "alice")
	got, _ = env.Engine.Repo.GetAssignment(env.Ctx, a.ID)
	if got.Status != domain.StatusDone {
		t.Fatalf("expected done after last completion, got %s", got.Status)
	}
	if got.CompletedAt == nil {
		t.Fatalf("expected completed_at")
	}
	if n := countEvents(t, env, "hive-1", "TASK_COMPLETED"); n != 1 {
		t.Fatalf("expected exactly one TASK_COMPLETED event, got %d", n)
	}
}

func TestCompleteStepIdempotent(t *testing.T) {
	env := newTestEnv(t)
	seedHive(t, env, "hive-1", "owner")
	steps := seedTask(t, env, "task-1", 1)
	a, err := env.Engine.CreateAssignment(env.Ctx, engine.AssignmentCreateOptions{
		TaskID: "task-1", HiveID: "hive-1", DueDate: "2024-06-10",
	})
	if err != nil {
		t.Fatal(err)
	}
	first, err := env.Engine.CompleteStep(env.Ctx, engine.CompleteStepOptions{
		AssignmentID: a.ID, StepID: steps[0].ID, UserID: "owner",
	})
	if err != nil {
		t.Fatalf("first completion: %v", err)
	}
	second, err := env.Engine.CompleteStep(env.Ctx, engine.CompleteStepOptions{
		AssignmentID: a.ID, StepID: steps[0].ID, UserID: "owner", Notes: "ignored",
	})
	if err != nil {
		t.Fatalf("repeat completion: %v", err)
	}
	if second.CompletedAt == nil || first.CompletedAt == nil || *second.CompletedAt != *first.CompletedAt {
		t.Fatalf("repeat completion changed completed_at")
	}
	if second.Notes != nil {
		t.Fatalf("repeat completion overwrote notes")
	}
	if n := countEvents(t, env, "hive-1", "TASK_COMPLETED"); n != 1 {
		t.Fatalf("expected one TASK_COMPLETED event, got %d", n)
	}
}

func TestCompleteStepNonParticipant(t *testing.T) {
	env := newTestEnv(t)
	seedHive(t, env, "hive-1", "owner")
	seedUser(t, env, "stranger")
	steps := seedTask(t, env, "task-1", 1)
	a, err := env.Engine.CreateAssignment(env.Ctx, engine.AssignmentCreateOptions{
		TaskID: "task-1", HiveID: "hive-1", DueDate: "2024-06-10",
	})
	if err != nil {
		t.Fatal(err)
	}
	_, err = env.Engine.CompleteStep(env.Ctx, engine.CompleteStepOptions{
		AssignmentID: a.ID, StepID: steps[0].ID, UserID: "stranger",
	})
	if !errors.Is(err, engine.ErrNotParticipant) {
		t.Fatalf("expected ErrNotParticipant, got %v", err)
	}
}

func TestDueDateDefaultsFromTaskWindow(t *testing.T) {
	env := newTestEnv(t)
	seedHive(t, env, "hive-1", "owner")
	window := 7
	if err := env.Engine.Repo.InsertTask(env.Ctx, domain.Task{
		ID: "task-1", Title: "windowed", DueWindowDays: &window, CreatedAt: "2024-06-01T00:00:00Z",
	}); err != nil {
		t.Fatal(err)
	}
	a, err := env.Engine.CreateAssignment(env.Ctx, engine.AssignmentCreateOptions{TaskID: "task-1", HiveID: "hive-1"})
	if err != nil {
		t.Fatal(err)
	}
	if a.DueDate != "2024-06-08" {
		t.Fatalf("expected due 2024-06-08, got %s", a.DueDate)
	}

	seedTask(t, env, "task-2", 0)
	_, err = env.Engine.CreateAssignment(env.Ctx, engine.AssignmentCreateOptions{TaskID: "task-2", HiveID: "hive-1"})
	if !engine.IsValidation(err) {
		t.Fatalf("expected validation error without due date or window, got %v", err)
	}
}

func TestBulkAssignAtomic(t *testing.T) {
	env := newTestEnv(t)
	seedHive(t, env, "hive-1", "owner")
	seedHive(t, env, "hive-2", "")
	seedTask(t, env, "task-1", 1)

	_, err := env.Engine.CreateAssignmentsBulk(env.Ctx, "task-1", []string{"hive-1", "missing"}, "", "2024-06-10", "owner")
	if err == nil {
		t.Fatalf("expected bulk failure on unknown hive")
	}
	rows, err := env.Engine.Repo.ListAssignments(env.Ctx, repo.AssignmentFilters{})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected no assignments after failed bulk, got %d", len(rows))
	}

	res, err := env.Engine.CreateAssignmentsBulk(env.Ctx, "task-1", []string{"hive-1", "hive-2"}, "", "2024-06-10", "owner")
	if err != nil {
		t.Fatalf("bulk: %v", err)
	}
	if len(res) != 2 {
		t.Fatalf("expected 2 assignments, got %d", len(res))
	}
}

func TestReviewRequiresDone(t *testing.T) {
	env := newTestEnv(t)
	seedHive(t, env, "hive-1", "owner")
	seedUser(t, env, "reviewer")
	steps := seedTask(t, env, "task-1", 1)
	a, err := env.Engine.CreateAssignment(env.Ctx, engine.AssignmentCreateOptions{
		TaskID: "task-1", HiveID: "hive-1", DueDate: "2024-06-10",
	})
	if err != nil {
		t.Fatal(err)
	}

	_, err = env.Engine.ReviewAssignment(env.Ctx, a.ID, "approved", "", "reviewer")
	if !errors.Is(err, engine.ErrNotCompleted) {
		t.Fatalf("expected ErrNotCompleted, got %v", err)
	}

	if _, err := env.Engine.CompleteStep(env.Ctx, engine.CompleteStepOptions{
		AssignmentID: a.ID, StepID: steps[0].ID, UserID: "owner",
	}); err != nil {
		t.Fatal(err)
	}

	got, err := env.Engine.ReviewAssignment(env.Ctx, a.ID, "approved", "nice work", "reviewer")
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if got.ReviewStatus != domain.ReviewApproved || got.ReviewByUserID == nil || *got.ReviewByUserID != "reviewer" {
		t.Fatalf("review not recorded: %+v", got)
	}
	// the comment lands in the hive history as a note
	if n := countEvents(t, env, "hive-1", "MANUAL_NOTE"); n != 1 {
		t.Fatalf("expected review comment note, got %d", n)
	}

	_, err = env.Engine.ReviewAssignment(env.Ctx, a.ID, "rejected", "", "reviewer")
	if !errors.Is(err, engine.ErrAlreadyReviewed) {
		t.Fatalf("expected ErrAlreadyReviewed, got %v", err)
	}
}

func TestRatingOnce(t *testing.T) {
	env := newTestEnv(t)
	seedHive(t, env, "hive-1", "owner")
	steps := seedTask(t, env, "task-1", 1)
	a, err := env.Engine.CreateAssignment(env.Ctx, engine.AssignmentCreateOptions{
		TaskID: "task-1", HiveID: "hive-1", DueDate: "2024-06-10",
	})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := env.Engine.RateAssignment(env.Ctx, a.ID, 6, "", "owner"); !engine.IsValidation(err) {
		t.Fatalf("expected validation error for rating 6, got %v", err)
	}
	if _, err := env.Engine.RateAssignment(env.Ctx, a.ID, 0, "", "owner"); !engine.IsValidation(err) {
		t.Fatalf("expected validation error for rating 0, got %v", err)
	}
	long := strings.Repeat("x", 1001)
	if _, err := env.Engine.RateAssignment(env.Ctx, a.ID, 3, long, "owner"); !engine.IsValidation(err) {
		t.Fatalf("expected validation error for long comment, got %v", err)
	}
	if _, err := env.Engine.RateAssignment(env.Ctx, a.ID, 3, "", "owner"); !errors.Is(err, engine.ErrNotCompleted) {
		t.Fatalf("expected ErrNotCompleted before done, got %v", err)
	}

	if _, err := env.Engine.CompleteStep(env.Ctx, engine.CompleteStepOptions{
		AssignmentID: a.ID, StepID: steps[0].ID, UserID: "owner",
	}); err != nil {
		t.Fatal(err)
	}

	got, err := env.Engine.RateAssignment(env.Ctx, a.ID, 4, "solid", "owner")
	if err != nil {
		t.Fatalf("rate: %v", err)
	}
	if got.Rating == nil || *got.Rating != 4 || got.RatedAt == nil {
		t.Fatalf("rating not recorded: %+v", got)
	}
	firstRatedAt := *got.RatedAt

	_, err = env.Engine.RateAssignment(env.Ctx, a.ID, 5, "", "owner")
	if !errors.Is(err, engine.ErrAlreadyRated) {
		t.Fatalf("expected ErrAlreadyRated, got %v", err)
	}
	again, _ := env.Engine.Repo.GetAssignment(env.Ctx, a.ID)
	if again.Rating == nil || *again.Rating != 4 || *again.RatedAt != firstRatedAt {
		t.Fatalf("second rating changed the stored one: %+v", again)
	}
}

func TestUpdateDatesRecordsChange(t *testing.T) {
	env := newTestEnv(t)
	seedHive(t, env, "hive-1", "owner", "alice")
	seedTask(t, env, "task-1", 1)
	a, err := env.Engine.CreateAssignment(env.Ctx, engine.AssignmentCreateOptions{
		TaskID: "task-1", HiveID: "hive-1", StartDate: "2024-06-02", DueDate: "2024-06-10", ActorID: "owner",
	})
	if err != nil {
		t.Fatal(err)
	}

	got, err := env.Engine.UpdateAssignmentDates(env.Ctx, a.ID, nil, "2024-06-15", "owner")
	if err != nil {
		t.Fatalf("update dates: %v", err)
	}
	if got.DueDate != "2024-06-15" {
		t.Fatalf("due date not updated: %s", got.DueDate)
	}
	if n := countEvents(t, env, "hive-1", "TASK_DATES_CHANGED"); n != 1 {
		t.Fatalf("expected dates-changed event, got %d", n)
	}
	var payload string
	row := env.Engine.DB.QueryRowContext(env.Ctx, `SELECT payload_json FROM hive_events WHERE type='TASK_DATES_CHANGED'`)
	if err := row.Scan(&payload); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(payload, "2024-06-10") || !strings.Contains(payload, "2024-06-15") {
		t.Fatalf("payload missing before/after dates: %s", payload)
	}
	// both participants get told
	for _, user := range []string{"owner", "alice"} {
		items, err := env.Engine.Repo.ListNotifications(env.Ctx, user, 10)
		if err != nil {
			t.Fatal(err)
		}
		if len(items) != 1 || items[0].Type != "task_dates_changed" {
			t.Fatalf("expected dates-changed notification for %s, got %+v", user, items)
		}
	}

	// unchanged dates are a no-op
	_, err = env.Engine.UpdateAssignmentDates(env.Ctx, a.ID, nil, "2024-06-15", "owner")
	if err != nil {
		t.Fatal(err)
	}
	if n := countEvents(t, env, "hive-1", "TASK_DATES_CHANGED"); n != 1 {
		t.Fatalf("no-op update appended an event")
	}

	// clearing the start date
	empty := ""
	got, err = env.Engine.UpdateAssignmentDates(env.Ctx, a.ID, &empty, "", "owner")
	if err != nil {
		t.Fatal(err)
	}
	if got.StartDate != nil {
		t.Fatalf("start date not cleared")
	}
}

func TestEmptyParticipantsNeverDone(t *testing.T) {
	env := newTestEnv(t)
	seedHive(t, env, "hive-1", "")
	seedTask(t, env, "task-1", 2)
	a, err := env.Engine.CreateAssignment(env.Ctx, engine.AssignmentCreateOptions{
		TaskID: "task-1", HiveID: "hive-1", DueDate: "2024-06-10",
	})
	if err != nil {
		t.Fatal(err)
	}
	rows, err := env.Engine.Repo.ListProgress(env.Ctx, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected empty ledger, got %d rows", len(rows))
	}
	got, _ := env.Engine.Repo.GetAssignment(env.Ctx, a.ID)
	if got.Status != domain.StatusNotStarted {
		t.Fatalf("assignment with no participants should stay not_started, got %s", got.Status)
	}
}

func TestGroupTargetedParticipants(t *testing.T) {
	env := newTestEnv(t)
	seedHive(t, env, "hive-1", "owner", "alice")
	seedUser(t, env, "carol")
	seedUser(t, env, "dave")
	if err := env.Engine.Repo.InsertGroup(env.Ctx, domain.Group{ID: "grp-1", Name: "night shift", CreatedAt: "2024-06-01T00:00:00Z"}); err != nil {
		t.Fatal(err)
	}
	for _, m := range []string{"carol", "dave"} {
		if err := env.Engine.Repo.AddGroupMember(env.Ctx, "grp-1", m); err != nil {
			t.Fatal(err)
		}
	}
	seedTask(t, env, "task-1", 1)

	a, err := env.Engine.CreateAssignment(env.Ctx, engine.AssignmentCreateOptions{
		TaskID: "task-1", HiveID: "hive-1", GroupID: "grp-1", DueDate: "2024-06-10",
	})
	if err != nil {
		t.Fatal(err)
	}
	ids, err := env.Engine.Repo.ListParticipantIDs(env.Ctx, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected group members only, got %v", ids)
	}
	for _, id := range ids {
		if id != "carol" && id != "dave" {
			t.Fatalf("unexpected participant %s", id)
		}
	}
}

func TestManualNoteLifecycle(t *testing.T) {
	env := newTestEnv(t)
	seedHive(t, env, "hive-1", "owner")

	evt, err := env.Engine.CreateManualNote(env.Ctx, "hive-1", "checked the frames", []string{"https://pics/1.jpg"}, "owner")
	if err != nil {
		t.Fatalf("create note: %v", err)
	}
	edited, err := env.Engine.UpdateManualNote(env.Ctx, evt.ID, "checked frames, queen sighted", nil)
	if err != nil {
		t.Fatalf("edit note: %v", err)
	}
	if !strings.Contains(edited.Payload, "queen sighted") {
		t.Fatalf("edit not persisted: %s", edited.Payload)
	}
	if err := env.Engine.DeleteManualNote(env.Ctx, evt.ID); err != nil {
		t.Fatalf("delete note: %v", err)
	}
	if _, err := env.Engine.Repo.GetHiveEvent(env.Ctx, evt.ID); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("note still present after delete: %v", err)
	}

	// machine-written events are immutable
	seedTask(t, env, "task-1", 1)
	if _, err := env.Engine.CreateAssignment(env.Ctx, engine.AssignmentCreateOptions{
		TaskID: "task-1", HiveID: "hive-1", DueDate: "2024-06-10",
	}); err != nil {
		t.Fatal(err)
	}
	var assignedID int64
	row := env.Engine.DB.QueryRowContext(env.Ctx, `SELECT id FROM hive_events WHERE type='TASK_ASSIGNED'`)
	if err := row.Scan(&assignedID); err != nil {
		t.Fatal(err)
	}
	if _, err := env.Engine.UpdateManualNote(env.Ctx, assignedID, "rewrite history", nil); !engine.IsValidation(err) {
		t.Fatalf("expected validation error editing machine event, got %v", err)
	}
	if err := env.Engine.DeleteManualNote(env.Ctx, assignedID); !engine.IsValidation(err) {
		t.Fatalf("expected validation error deleting machine event, got %v", err)
	}
}

func TestHiveUpdateWritesHistory(t *testing.T) {
	env := newTestEnv(t)
	seedHive(t, env, "hive-1", "owner")
	label := "east field"
	h, err := env.Engine.UpdateHive(env.Ctx, "hive-1", engine.HiveUpdateOptions{Label: &label, ActorID: "owner"})
	if err != nil {
		t.Fatalf("update hive: %v", err)
	}
	if h.Label != "east field" {
		t.Fatalf("label not updated")
	}
	if n := countEvents(t, env, "hive-1", "HIVE_UPDATED"); n != 1 {
		t.Fatalf("expected HIVE_UPDATED event, got %d", n)
	}
	// same label again is a no-op
	if _, err := env.Engine.UpdateHive(env.Ctx, "hive-1", engine.HiveUpdateOptions{Label: &label, ActorID: "owner"}); err != nil {
		t.Fatal(err)
	}
	if n := countEvents(t, env, "hive-1", "HIVE_UPDATED"); n != 1 {
		t.Fatalf("no-op update appended an event")
	}
}

func TestHistoryPagination(t *testing.T) {
	env := newTestEnv(t)
	seedHive(t, env, "hive-1", "owner")
	for i := 0; i < 5; i++ {
		if _, err := env.Engine.CreateManualNote(env.Ctx, "hive-1", fmt.Sprintf("note %d", i), nil, "owner"); err != nil {
			t.Fatal(err)
		}
	}
	page, err := env.Engine.HiveHistory(env.Ctx, "hive-1", 1, 2)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if page.Total != 5 || len(page.Events) != 2 {
		t.Fatalf("expected total 5 page of 2, got total=%d len=%d", page.Total, len(page.Events))
	}
	// newest first
	if !strings.Contains(page.Events[0].Payload, "note 4") {
		t.Fatalf("expected newest note first, got %s", page.Events[0].Payload)
	}
	last, err := env.Engine.HiveHistory(env.Ctx, "hive-1", 3, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(last.Events) != 1 || !strings.Contains(last.Events[0].Payload, "note 0") {
		t.Fatalf("expected oldest note on last page, got %+v", last.Events)
	}
	if _, err := env.Engine.HiveHistory(env.Ctx, "missing", 1, 2); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected not found for unknown hive, got %v", err)
	}
}

func TestListAssignmentsViewFilters(t *testing.T) {
	env := newTestEnv(t)
	seedHive(t, env, "hive-1", "owner")
	steps := seedTask(t, env, "task-1", 1)

	// overdue, open
	late, err := env.Engine.CreateAssignment(env.Ctx, engine.AssignmentCreateOptions{
		TaskID: "task-1", HiveID: "hive-1", DueDate: "2024-05-20",
	})
	if err != nil {
		t.Fatal(err)
	}
	// done although past due
	doneLate, err := env.Engine.CreateAssignment(env.Ctx, engine.AssignmentCreateOptions{
		TaskID: "task-1", HiveID: "hive-1", DueDate: "2024-05-25",
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := env.Engine.CompleteStep(env.Ctx, engine.CompleteStepOptions{
		AssignmentID: doneLate.ID, StepID: steps[0].ID, UserID: "owner",
	}); err != nil {
		t.Fatal(err)
	}
	// not started yet
	future := "2024-07-01"
	if _, err := env.Engine.CreateAssignment(env.Ctx, engine.AssignmentCreateOptions{
		TaskID: "task-1", HiveID: "hive-1", StartDate: future, DueDate: "2024-07-10",
	}); err != nil {
		t.Fatal(err)
	}

	overdue, err := env.Engine.ListAssignments(env.Ctx, engine.AssignmentListFilters{ViewStatus: domain.StatusOverdue})
	if err != nil {
		t.Fatal(err)
	}
	if len(overdue) != 1 || overdue[0].ID != late.ID {
		t.Fatalf("expected only the open overdue assignment, got %+v", overdue)
	}

	available, err := env.Engine.ListAssignments(env.Ctx, engine.AssignmentListFilters{AvailableNow: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(available) != 1 || available[0].ID != late.ID {
		t.Fatalf("expected one available assignment, got %d", len(available))
	}
}
