package model

import "time"

type TaskStats struct {
	Total        int `json:"total"`
	Completed    int `json:"completed"`
	Pending      int `json:"pending"`
	Overdue      int `json:"overdue"`
	HighPriority int `json:"high_priority"`
	Recent       int `json:"recent"`
	DueSoon      int `json:"due_soon"`
}

// RecentWindow bounds how far back a task counts as recently created.
const RecentWindow = 24 * time.Hour

// Tally computes stats over tasks as of now. Pending is derived from the
// total and completed counts rather than counted separately.
func Tally(tasks []Task, now time.Time) TaskStats {
	var s TaskStats
	recentSince := now.Add(-RecentWindow)
	dueSoonUntil := now.Add(DueSoonWindow)

	for _, t := range tasks {
		s.Total++
		if t.Completed {
			s.Completed++
		}
		if t.IsOverdue(now) {
			s.Overdue++
		}
		if t.Priority == PriorityHigh {
			s.HighPriority++
		}
		if !t.CreatedAt.Before(recentSince) {
			s.Recent++
		}
		if !t.Completed && t.DueDate != nil &&
			!t.DueDate.Before(now) && !t.DueDate.After(dueSoonUntil) {
			s.DueSoon++
		}
	}
	s.Pending = s.Total - s.Completed
	return s
}
