package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/jaekwang-park/task-api/internal/model"
)

// RolloverRecurring reopens completed recurring tasks whose due date has
// passed. Each one gets its due date advanced past now by its pattern, is
// marked incomplete, and has its subtasks reset. A task edited since it was
// listed is skipped. It returns how many tasks were rolled over; failures on
// individual tasks do not stop the run.
func (s *TaskService) RolloverRecurring(ctx context.Context) (int, error) {
	now := s.now()
	due, err := s.repo.ListRecurringDue(ctx, now)
	if err != nil {
		return 0, storeErr("failed to list recurring tasks", err)
	}

	var (
		rolled int
		errs   []error
	)
	for _, task := range due {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		next, ok := nextDue(task, now)
		if !ok {
			continue
		}

		_, err := s.repo.RollOver(ctx, task.UserID, task.ID, *task.DueDate, next)
		if errors.Is(err, sql.ErrNoRows) {
			slog.DebugContext(ctx, "recurring task changed before rollover, skipped", "task_id", task.ID)
			continue
		}
		if err != nil {
			slog.ErrorContext(ctx, "recurring rollover failed", "task_id", task.ID, "error", err)
			errs = append(errs, storeErr("failed to roll over task "+task.ID, err))
			continue
		}
		rolled++
	}

	if rolled > 0 {
		slog.InfoContext(ctx, "recurring tasks rolled over", "count", rolled)
	}
	return rolled, errors.Join(errs...)
}

// nextDue advances the task's due date by its pattern until it is after now.
// It reports false when the task cannot recur.
func nextDue(task model.Task, now time.Time) (time.Time, bool) {
	if !task.IsRecurring || !task.RecurringPattern.IsValid() || task.DueDate == nil {
		return time.Time{}, false
	}

	due := *task.DueDate
	for !due.After(now) {
		due = task.RecurringPattern.Next(due)
	}
	return due, true
}
