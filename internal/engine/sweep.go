package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"hiveline/internal/domain"
)

// SweepResult counts the notifications each pass produced.
type SweepResult struct {
	StartNotified   int `json:"start_notified"`
	DueSoonNotified int `json:"due_soon_notified"`
	OverdueReminded int `json:"overdue_reminded"`
}

// SweepTick runs the start, due-soon and overdue passes once. Scheduling is
// up to the caller; running the tick again, or from several processes at
// once, produces no duplicate notifications. The start and due-soon passes
// are guarded by one-way flags on the assignment; the overdue pass dedupes
// per recipient instead.
func (e Engine) SweepTick(ctx context.Context) (SweepResult, error) {
	var res SweepResult
	today := e.today()

	starts, err := e.Repo.StartSweepCandidates(ctx, today)
	if err != nil {
		return res, err
	}
	for _, a := range starts {
		won, err := e.Repo.FlipNotifiedStart(ctx, a.ID)
		if err != nil {
			return res, err
		}
		if !won {
			continue
		}
		n, err := e.notifyParticipants(ctx, a, "task_started", "Task started: %s", fmt.Sprintf("Due %s", a.DueDate))
		if err != nil {
			return res, err
		}
		res.StartNotified += n
	}

	lookahead := 3
	if e.Config != nil {
		lookahead = e.Config.Notifications.DueSoonLookaheadDays
	}
	dueSoon, err := e.Repo.DueSoonSweepCandidates(ctx, today, addDays(today, lookahead))
	if err != nil {
		return res, err
	}
	for _, a := range dueSoon {
		won, err := e.Repo.FlipNotifiedDueSoon(ctx, a.ID)
		if err != nil {
			return res, err
		}
		if !won {
			continue
		}
		n, err := e.notifyParticipants(ctx, a, "task_due_soon", "Task due soon: %s", fmt.Sprintf("Due %s", a.DueDate))
		if err != nil {
			return res, err
		}
		res.DueSoonNotified += n
	}

	if e.Config != nil && !e.Config.Notifications.OverdueReminders {
		return res, nil
	}
	overdue, err := e.Repo.OverdueSweepCandidates(ctx, today)
	if err != nil {
		return res, err
	}
	for _, a := range overdue {
		n, err := e.remindOverdue(ctx, a)
		if err != nil {
			return res, err
		}
		res.OverdueReminded += n
	}
	return res, nil
}

// recipients is the frozen participant snapshot from the ledger, falling
// back to the hive owner for assignments that fanned out to nobody.
func (e Engine) recipients(ctx context.Context, a domain.Assignment) ([]string, error) {
	ids, err := e.Repo.ListParticipantIDs(ctx, a.ID)
	if err != nil {
		return nil, err
	}
	if len(ids) > 0 {
		return ids, nil
	}
	hive, err := e.Repo.GetHive(ctx, a.HiveID)
	if err != nil {
		return nil, err
	}
	if hive.OwnerUserID != nil {
		return []string{*hive.OwnerUserID}, nil
	}
	return nil, nil
}

func (e Engine) notifyParticipants(ctx context.Context, a domain.Assignment, ntype, titleFormat, body string) (int, error) {
	task, err := e.Repo.GetTask(ctx, a.TaskID)
	if err != nil {
		return 0, err
	}
	ids, err := e.recipients(ctx, a)
	if err != nil {
		return 0, err
	}
	now := e.now().UTC().Format(time.RFC3339)
	count := 0
	for _, userID := range ids {
		n := domain.Notification{
			ID:        uuid.New().String(),
			UserID:    userID,
			Type:      ntype,
			Title:     fmt.Sprintf(titleFormat, task.Title),
			Body:      body,
			Link:      e.assignmentLink(a.ID),
			CreatedAt: now,
		}
		if err := e.Repo.InsertNotification(ctx, n); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func (e Engine) remindOverdue(ctx context.Context, a domain.Assignment) (int, error) {
	task, err := e.Repo.GetTask(ctx, a.TaskID)
	if err != nil {
		return 0, err
	}
	ids, err := e.recipients(ctx, a)
	if err != nil {
		return 0, err
	}
	title := fmt.Sprintf("Task overdue: %s", task.Title)
	link := e.assignmentLink(a.ID)
	now := e.now().UTC().Format(time.RFC3339)
	count := 0
	for _, userID := range ids {
		exists, err := e.Repo.HasNotification(ctx, userID, title, link)
		if err != nil {
			return count, err
		}
		if exists {
			continue
		}
		n := domain.Notification{
			ID:        uuid.New().String(),
			UserID:    userID,
			Type:      "task_overdue",
			Title:     title,
			Body:      fmt.Sprintf("Was due %s", a.DueDate),
			Link:      link,
			CreatedAt: now,
		}
		if err := e.Repo.InsertNotification(ctx, n); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}
