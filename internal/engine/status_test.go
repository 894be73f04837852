package engine_test

import (
	"testing"

	"hiveline/internal/domain"
	"hiveline/internal/engine"
)

func TestViewStatus(t *testing.T) {
	today := "2024-06-01"
	cases := []struct {
		name    string
		status  string
		dueDate string
		want    string
	}{
		{"not started, future due", domain.StatusNotStarted, "2024-06-10", domain.StatusNotStarted},
		{"in progress, future due", domain.StatusInProgress, "2024-06-10", domain.StatusInProgress},
		{"past due derives overdue", domain.StatusInProgress, "2024-05-20", domain.StatusOverdue},
		{"not started past due", domain.StatusNotStarted, "2024-05-20", domain.StatusOverdue},
		{"due today is not overdue", domain.StatusInProgress, "2024-06-01", domain.StatusInProgress},
		{"done is never overdue", domain.StatusDone, "2024-05-20", domain.StatusDone},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := engine.ViewStatus(tc.status, tc.dueDate, today); got != tc.want {
				t.Fatalf("ViewStatus(%s, %s) = %s, want %s", tc.status, tc.dueDate, got, tc.want)
			}
		})
	}
}
