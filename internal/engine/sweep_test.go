package engine_test

import (
	"testing"

	"hiveline/internal/domain"
	"hiveline/internal/engine"
)

// Fixed clock in newTestEnv puts "today" at 2024-06-01.

func seedAssignment(t *testing.T, env testEnv, opts engine.AssignmentCreateOptions) domain.Assignment {
	t.Helper()
	a, err := env.Engine.CreateAssignment(env.Ctx, opts)
	if err != nil {
		t.Fatalf("create assignment: %v", err)
	}
	return a
}

func notificationCount(t *testing.T, env testEnv, userID, ntype string) int {
	t.Helper()
	items, err := env.Engine.Repo.ListNotifications(env.Ctx, userID, 100)
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	count := 0
	for _, n := range items {
		if n.Type == ntype {
			count++
		}
	}
	return count
}

func TestSweepStartOnce(t *testing.T) {
	env := newTestEnv(t)
	seedHive(t, env, "hive-1", "owner", "alice")
	seedTask(t, env, "task-1", 1)
	seedAssignment(t, env, engine.AssignmentCreateOptions{
		TaskID: "task-1", HiveID: "hive-1", StartDate: "2024-06-01", DueDate: "2024-06-20",
	})

	res, err := env.Engine.SweepTick(env.Ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if res.StartNotified != 2 {
		t.Fatalf("expected 2 start notifications, got %d", res.StartNotified)
	}
	for _, user := range []string{"owner", "alice"} {
		if n := notificationCount(t, env, user, "task_started"); n != 1 {
			t.Fatalf("expected 1 start notification for %s, got %d", user, n)
		}
	}

	// repeated ticks are a no-op
	for i := 0; i < 3; i++ {
		res, err = env.Engine.SweepTick(env.Ctx)
		if err != nil {
			t.Fatal(err)
		}
		if res.StartNotified != 0 {
			t.Fatalf("repeat tick produced %d start notifications", res.StartNotified)
		}
	}
	if n := notificationCount(t, env, "owner", "task_started"); n != 1 {
		t.Fatalf("duplicate start notification for owner: %d", n)
	}
}

func TestSweepFutureStartSkipped(t *testing.T) {
	env := newTestEnv(t)
	seedHive(t, env, "hive-1", "owner")
	seedTask(t, env, "task-1", 1)
	seedAssignment(t, env, engine.AssignmentCreateOptions{
		TaskID: "task-1", HiveID: "hive-1", StartDate: "2024-06-05", DueDate: "2024-06-20",
	})
	res, err := env.Engine.SweepTick(env.Ctx)
	if err != nil {
		t.Fatal(err)
	}
	if res.StartNotified != 0 {
		t.Fatalf("future start date announced early: %d", res.StartNotified)
	}
}

func TestSweepDueSoonWindow(t *testing.T) {
	env := newTestEnv(t)
	seedHive(t, env, "hive-1", "owner")
	seedTask(t, env, "task-1", 1)
	// default lookahead is 3 days: 2024-06-01 .. 2024-06-04
	inWindow := seedAssignment(t, env, engine.AssignmentCreateOptions{
		TaskID: "task-1", HiveID: "hive-1", DueDate: "2024-06-04",
	})
	edge := seedAssignment(t, env, engine.AssignmentCreateOptions{
		TaskID: "task-1", HiveID: "hive-1", DueDate: "2024-06-01",
	})
	seedAssignment(t, env, engine.AssignmentCreateOptions{
		TaskID: "task-1", HiveID: "hive-1", DueDate: "2024-06-05",
	})

	res, err := env.Engine.SweepTick(env.Ctx)
	if err != nil {
		t.Fatal(err)
	}
	if res.DueSoonNotified != 2 {
		t.Fatalf("expected 2 due-soon notifications, got %d", res.DueSoonNotified)
	}
	for _, a := range []domain.Assignment{inWindow, edge} {
		got, err := env.Engine.Repo.GetAssignment(env.Ctx, a.ID)
		if err != nil {
			t.Fatal(err)
		}
		if !got.NotifiedDueSoon {
			t.Fatalf("due-soon flag not set on %s", a.ID)
		}
	}

	res, err = env.Engine.SweepTick(env.Ctx)
	if err != nil {
		t.Fatal(err)
	}
	if res.DueSoonNotified != 0 {
		t.Fatalf("repeat tick re-sent due-soon: %d", res.DueSoonNotified)
	}
}

func TestSweepOverdueDedup(t *testing.T) {
	env := newTestEnv(t)
	seedHive(t, env, "hive-1", "owner")
	seedTask(t, env, "task-1", 1)
	seedAssignment(t, env, engine.AssignmentCreateOptions{
		TaskID: "task-1", HiveID: "hive-1", DueDate: "2024-05-20",
	})

	res, err := env.Engine.SweepTick(env.Ctx)
	if err != nil {
		t.Fatal(err)
	}
	if res.OverdueReminded != 1 {
		t.Fatalf("expected 1 overdue reminder, got %d", res.OverdueReminded)
	}
	res, err = env.Engine.SweepTick(env.Ctx)
	if err != nil {
		t.Fatal(err)
	}
	if res.OverdueReminded != 0 {
		t.Fatalf("repeat tick re-sent overdue reminder: %d", res.OverdueReminded)
	}
	if n := notificationCount(t, env, "owner", "task_overdue"); n != 1 {
		t.Fatalf("expected single overdue notification, got %d", n)
	}
}

func TestSweepOverdueGate(t *testing.T) {
	env := newTestEnv(t)
	env.Engine.Config.Notifications.OverdueReminders = false
	seedHive(t, env, "hive-1", "owner")
	seedTask(t, env, "task-1", 1)
	seedAssignment(t, env, engine.AssignmentCreateOptions{
		TaskID: "task-1", HiveID: "hive-1", DueDate: "2024-05-20",
	})
	res, err := env.Engine.SweepTick(env.Ctx)
	if err != nil {
		t.Fatal(err)
	}
	if res.OverdueReminded != 0 {
		t.Fatalf("overdue reminders sent with the feature off: %d", res.OverdueReminded)
	}
}

func TestSweepOwnerFallback(t *testing.T) {
	env := newTestEnv(t)
	seedHive(t, env, "hive-1", "owner")
	if err := env.Engine.Repo.InsertGroup(env.Ctx, domain.Group{ID: "grp-empty", Name: "empty", CreatedAt: "2024-06-01T00:00:00Z"}); err != nil {
		t.Fatal(err)
	}
	seedTask(t, env, "task-1", 1)
	// empty group means an empty ledger; notifications go to the hive owner
	seedAssignment(t, env, engine.AssignmentCreateOptions{
		TaskID: "task-1", HiveID: "hive-1", GroupID: "grp-empty", DueDate: "2024-05-20",
	})
	res, err := env.Engine.SweepTick(env.Ctx)
	if err != nil {
		t.Fatal(err)
	}
	if res.OverdueReminded != 1 {
		t.Fatalf("expected owner fallback reminder, got %d", res.OverdueReminded)
	}
	if n := notificationCount(t, env, "owner", "task_overdue"); n != 1 {
		t.Fatalf("owner did not receive fallback reminder")
	}
}

func TestSweepSkipsDoneAndArchived(t *testing.T) {
	env := newTestEnv(t)
	seedHive(t, env, "hive-1", "owner")
	steps := seedTask(t, env, "task-1", 1)

	done := seedAssignment(t, env, engine.AssignmentCreateOptions{
		TaskID: "task-1", HiveID: "hive-1", DueDate: "2024-05-20",
	})
	if _, err := env.Engine.CompleteStep(env.Ctx, engine.CompleteStepOptions{
		AssignmentID: done.ID, StepID: steps[0].ID, UserID: "owner",
	}); err != nil {
		t.Fatal(err)
	}
	archived := seedAssignment(t, env, engine.AssignmentCreateOptions{
		TaskID: "task-1", HiveID: "hive-1", DueDate: "2024-05-21",
	})
	if _, err := env.Engine.SetAssignmentArchived(env.Ctx, archived.ID, true); err != nil {
		t.Fatal(err)
	}

	res, err := env.Engine.SweepTick(env.Ctx)
	if err != nil {
		t.Fatal(err)
	}
	if res.OverdueReminded != 0 || res.DueSoonNotified != 0 || res.StartNotified != 0 {
		t.Fatalf("sweep touched done or archived assignments: %+v", res)
	}
}
