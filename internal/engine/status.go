package engine

import "hiveline/internal/domain"

// ViewStatus derives the read-side status label. "overdue" only exists here:
// an unfinished assignment whose due date is strictly in the past. A due date
// equal to today is still on time, and done is never overdue.
func ViewStatus(status, dueDate, today string) string {
	if status != domain.StatusDone && dueDate != "" && dueDate < today {
		return domain.StatusOverdue
	}
	return status
}

func (e Engine) viewStatus(a domain.Assignment) string {
	return ViewStatus(a.Status, a.DueDate, e.today())
}
