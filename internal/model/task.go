package model

import (
	"math"
	"time"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) IsValid() bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// Rank orders priorities low < medium < high. Unknown values rank 0.
func (p Priority) Rank() int {
	switch p {
	case PriorityLow:
		return 1
	case PriorityMedium:
		return 2
	case PriorityHigh:
		return 3
	default:
		return 0
	}
}

type RecurringPattern string

const (
	RecurringDaily   RecurringPattern = "daily"
	RecurringWeekly  RecurringPattern = "weekly"
	RecurringMonthly RecurringPattern = "monthly"
)

func (p RecurringPattern) IsValid() bool {
	return p == RecurringDaily || p == RecurringWeekly || p == RecurringMonthly
}

// Next returns t advanced by one recurrence interval.
func (p RecurringPattern) Next(t time.Time) time.Time {
	switch p {
	case RecurringDaily:
		return t.AddDate(0, 0, 1)
	case RecurringWeekly:
		return t.AddDate(0, 0, 7)
	case RecurringMonthly:
		return addMonthClamped(t)
	default:
		return t
	}
}

// addMonthClamped moves t to the same day next month, or to that month's last
// day when it is shorter.
func addMonthClamped(t time.Time) time.Time {
	y, m, d := t.Date()
	lastDay := time.Date(y, m+2, 0, 0, 0, 0, 0, t.Location()).Day()
	return time.Date(y, m+1, min(d, lastDay), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

const (
	DefaultCategory   = "General"
	DerivedTitleRunes = 100
	MaxTitleRunes     = 500
	MaxNotesRunes     = 1000
	MaxCategoryRunes  = 100
	MaxTagRunes       = 50
	MaxSubtaskRunes   = 200

	DueSoonWindow = 24 * time.Hour
)

type Subtask struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

type Task struct {
	ID               string           `json:"id"`
	UserID           string           `json:"user_id"`
	Title            string           `json:"title"`
	Text             string           `json:"text"`
	Completed        bool             `json:"completed"`
	Priority         Priority         `json:"priority"`
	Category         string           `json:"category"`
	Tags             []string         `json:"tags"`
	DueDate          *time.Time       `json:"due_date,omitempty"`
	EstimatedTime    *int             `json:"estimated_time,omitempty"`
	ActualTime       int              `json:"actual_time"`
	TimeStarted      *time.Time       `json:"time_started,omitempty"`
	IsRecurring      bool             `json:"is_recurring"`
	RecurringPattern RecurringPattern `json:"recurring_pattern,omitempty"`
	Subtasks         []Subtask        `json:"subtasks"`
	Notes            string           `json:"notes"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// IsOverdue reports whether an incomplete task's due date has passed.
func (t Task) IsOverdue(now time.Time) bool {
	if t.DueDate == nil || t.Completed {
		return false
	}
	return t.DueDate.Before(now)
}

// IsDueSoon reports whether an incomplete task is due within the next 24 hours.
func (t Task) IsDueSoon(now time.Time) bool {
	if t.DueDate == nil || t.Completed {
		return false
	}
	until := t.DueDate.Sub(now)
	return until > 0 && until <= DueSoonWindow
}

func (t Task) TimerRunning() bool {
	return t.TimeStarted != nil
}

// TaskView is the JSON representation of a task, including derived flags.
type TaskView struct {
	Task
	IsOverdue bool `json:"is_overdue"`
	IsDueSoon bool `json:"is_due_soon"`
}

func (t Task) View(now time.Time) TaskView {
	return TaskView{
		Task:      t,
		IsOverdue: t.IsOverdue(now),
		IsDueSoon: t.IsDueSoon(now),
	}
}

// ElapsedMinutes rounds the time between start and end to whole minutes.
// Half minutes round up; negative spans (clock skew) count as zero.
func ElapsedMinutes(start, end time.Time) int {
	d := end.Sub(start)
	if d <= 0 {
		return 0
	}
	return int(math.Floor(d.Minutes() + 0.5))
}
