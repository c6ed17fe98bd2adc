package repository

import (
	"context"
	"time"

	"github.com/jaekwang-park/task-api/internal/model"
)

// TaskRepository stores tasks. Every method except the system-wide ones
// (ListRecurringDue, DeleteAll) is scoped to the owning user; a task owned by
// someone else behaves exactly like a missing one (sql.ErrNoRows).
type TaskRepository interface {
	Create(ctx context.Context, task model.Task) (model.Task, error)
	GetByID(ctx context.Context, userID, taskID string) (model.Task, error)
	Update(ctx context.Context, task model.Task) (model.Task, error)
	Delete(ctx context.Context, userID, taskID string) error
	List(ctx context.Context, q model.TaskQuery) (model.TaskPage, error)
	Stats(ctx context.Context, userID string, now time.Time) (model.TaskStats, error)

	// StartTimer sets time_started only if the timer is idle.
	StartTimer(ctx context.Context, userID, taskID string, at time.Time) (model.Task, error)
	// StopTimer adds minutes to actual_time and clears time_started only if
	// time_started still equals startedAt.
	StopTimer(ctx context.Context, userID, taskID string, startedAt time.Time, minutes int) (model.Task, error)

	ListRecurringDue(ctx context.Context, now time.Time) ([]model.Task, error)
	// RollOver reopens a completed recurring task at nextDue and marks its
	// subtasks incomplete, only if due_date still equals dueAt. Other fields
	// are left alone; an unmatched row is sql.ErrNoRows.
	RollOver(ctx context.Context, userID, taskID string, dueAt, nextDue time.Time) (model.Task, error)
	DeleteAll(ctx context.Context) (int64, error)
}
