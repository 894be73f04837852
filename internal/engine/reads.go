package engine

import (
	"context"

	"hiveline/internal/domain"
	"hiveline/internal/repo"
)

// AssignmentView decorates an assignment with its derived status.
type AssignmentView struct {
	domain.Assignment
	ViewStatus string `json:"view_status"`
}

// ParticipantProgress is one participant's slice of the ledger.
type ParticipantProgress struct {
	UserID    string            `json:"user_id"`
	Completed int               `json:"completed"`
	Total     int               `json:"total"`
	Rows      []domain.Progress `json:"rows"`
}

type AssignmentDetails struct {
	Assignment        domain.Assignment     `json:"assignment"`
	ViewStatus        string                `json:"view_status"`
	Task              domain.Task           `json:"task"`
	Steps             []domain.TaskStep     `json:"steps"`
	Participants      []ParticipantProgress `json:"participants"`
	CompletionPercent float64               `json:"completion_percent"`
}

func (e Engine) AssignmentDetails(ctx context.Context, id string) (AssignmentDetails, error) {
	var d AssignmentDetails
	a, err := e.Repo.GetAssignment(ctx, id)
	if err != nil {
		return d, err
	}
	task, err := e.Repo.GetTask(ctx, a.TaskID)
	if err != nil {
		return d, err
	}
	steps, err := e.Repo.ListTaskSteps(ctx, a.TaskID)
	if err != nil {
		return d, err
	}
	rows, err := e.Repo.ListProgress(ctx, a.ID)
	if err != nil {
		return d, err
	}

	byUser := map[string]*ParticipantProgress{}
	var order []string
	completed := 0
	for _, p := range rows {
		pp, ok := byUser[p.UserID]
		if !ok {
			pp = &ParticipantProgress{UserID: p.UserID}
			byUser[p.UserID] = pp
			order = append(order, p.UserID)
		}
		pp.Total++
		if p.Status == domain.ProgressCompleted {
			pp.Completed++
			completed++
		}
		pp.Rows = append(pp.Rows, p)
	}
	participants := make([]ParticipantProgress, 0, len(order))
	for _, id := range order {
		participants = append(participants, *byUser[id])
	}
	percent := 0.0
	if len(rows) > 0 {
		percent = float64(completed) / float64(len(rows)) * 100
	}
	return AssignmentDetails{
		Assignment:        a,
		ViewStatus:        e.viewStatus(a),
		Task:              task,
		Steps:             steps,
		Participants:      participants,
		CompletionPercent: percent,
	}, nil
}

// AssignmentListFilters adds the derived-status filters on top of the
// storage-level ones. ViewStatus accepts "overdue" in addition to the
// persisted statuses; AvailableNow keeps assignments whose start date has
// arrived (or was never set) and that are still unfinished.
type AssignmentListFilters struct {
	Repo         repo.AssignmentFilters
	ViewStatus   string
	AvailableNow bool
}

func (e Engine) ListAssignments(ctx context.Context, f AssignmentListFilters) ([]AssignmentView, error) {
	storage := f.Repo
	if f.ViewStatus != "" && f.ViewStatus != domain.StatusOverdue {
		storage.Status = f.ViewStatus
	}
	rows, err := e.Repo.ListAssignments(ctx, storage)
	if err != nil {
		return nil, err
	}
	today := e.today()
	var res []AssignmentView
	for _, a := range rows {
		view := ViewStatus(a.Status, a.DueDate, today)
		if f.ViewStatus == domain.StatusOverdue && view != domain.StatusOverdue {
			continue
		}
		if f.AvailableNow {
			if a.Status == domain.StatusDone {
				continue
			}
			if a.StartDate != nil && *a.StartDate > today {
				continue
			}
		}
		res = append(res, AssignmentView{Assignment: a, ViewStatus: view})
	}
	return res, nil
}

type HistoryPage struct {
	Events []domain.HiveEvent `json:"events"`
	Page   int                `json:"page"`
	Limit  int                `json:"limit"`
	Total  int                `json:"total"`
}

// HiveHistory reads one page of a hive's event log, newest first.
func (e Engine) HiveHistory(ctx context.Context, hiveID string, page, limit int) (HistoryPage, error) {
	if _, err := e.Repo.GetHive(ctx, hiveID); err != nil {
		return HistoryPage{}, err
	}
	defaultLimit, maxLimit := 20, 50
	if e.Config != nil {
		defaultLimit = e.Config.History.PageLimit
		maxLimit = e.Config.History.MaxPageLimit
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if page < 1 {
		page = 1
	}
	evts, total, err := e.Repo.ListHiveEvents(ctx, hiveID, page, limit)
	if err != nil {
		return HistoryPage{}, err
	}
	return HistoryPage{Events: evts, Page: page, Limit: limit, Total: total}, nil
}

type HiveSummary struct {
	HiveID            string         `json:"hive_id"`
	Assignments       int            `json:"assignments"`
	ByStatus          map[string]int `json:"by_status"`
	Overdue           int            `json:"overdue"`
	CompletionPercent float64        `json:"completion_percent"`
}

// Summary aggregates a hive's unarchived assignments.
func (e Engine) Summary(ctx context.Context, hiveID string) (HiveSummary, error) {
	if _, err := e.Repo.GetHive(ctx, hiveID); err != nil {
		return HiveSummary{}, err
	}
	byStatus, err := e.Repo.CountAssignmentsByStatus(ctx, hiveID)
	if err != nil {
		return HiveSummary{}, err
	}
	rows, err := e.Repo.ListAssignments(ctx, repo.AssignmentFilters{HiveID: hiveID})
	if err != nil {
		return HiveSummary{}, err
	}
	today := e.today()
	s := HiveSummary{HiveID: hiveID, ByStatus: byStatus}
	totalRows, completedRows := 0, 0
	for _, a := range rows {
		s.Assignments++
		if ViewStatus(a.Status, a.DueDate, today) == domain.StatusOverdue {
			s.Overdue++
		}
		progress, err := e.Repo.ListProgress(ctx, a.ID)
		if err != nil {
			return s, err
		}
		totalRows += len(progress)
		for _, p := range progress {
			if p.Status == domain.ProgressCompleted {
				completedRows++
			}
		}
	}
	if totalRows > 0 {
		s.CompletionPercent = float64(completedRows) / float64(totalRows) * 100
	}
	return s, nil
}
