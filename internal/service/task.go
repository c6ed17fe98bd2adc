package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jaekwang-park/task-api/internal/model"
	"github.com/jaekwang-park/task-api/internal/repository"
)

// timerAttempts bounds how often a timer transition is re-evaluated after
// losing a compare-and-swap to a concurrent request.
const timerAttempts = 3

type TaskService struct {
	repo repository.TaskRepository
	now  func() time.Time
}

func NewTaskService(repo repository.TaskRepository) *TaskService {
	return &TaskService{repo: repo, now: time.Now}
}

// WithClock replaces the time source. Used by tests.
func (s *TaskService) WithClock(now func() time.Time) *TaskService {
	s.now = now
	return s
}

func (s *TaskService) Create(ctx context.Context, userID string, input CreateTaskInput) (model.TaskView, error) {
	task, err := buildTask(userID, input)
	if err != nil {
		return model.TaskView{}, err
	}

	created, err := s.repo.Create(ctx, task)
	if err != nil {
		return model.TaskView{}, storeErr("failed to create task", err)
	}

	return created.View(s.now()), nil
}

func (s *TaskService) GetByID(ctx context.Context, userID, taskID string) (model.TaskView, error) {
	task, err := s.get(ctx, userID, taskID)
	if err != nil {
		return model.TaskView{}, err
	}
	return task.View(s.now()), nil
}

func (s *TaskService) get(ctx context.Context, userID, taskID string) (model.Task, error) {
	if err := validateTaskID(taskID); err != nil {
		return model.Task{}, err
	}
	task, err := s.repo.GetByID(ctx, userID, taskID)
	if err != nil {
		return model.Task{}, storeErr("failed to get task", err)
	}
	return task, nil
}

func (s *TaskService) Update(ctx context.Context, userID, taskID string, input UpdateTaskInput) (model.TaskView, error) {
	existing, err := s.get(ctx, userID, taskID)
	if err != nil {
		return model.TaskView{}, err
	}

	task, err := applyUpdate(existing, input)
	if err != nil {
		return model.TaskView{}, err
	}

	return s.save(ctx, task)
}

func (s *TaskService) save(ctx context.Context, task model.Task) (model.TaskView, error) {
	updated, err := s.repo.Update(ctx, task)
	if err != nil {
		return model.TaskView{}, storeErr("failed to update task", err)
	}
	return updated.View(s.now()), nil
}

func (s *TaskService) Delete(ctx context.Context, userID, taskID string) error {
	if err := validateTaskID(taskID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, userID, taskID); err != nil {
		return storeErr("failed to delete task", err)
	}
	return nil
}

// TaskListResult is one page of tasks with derived flags filled in.
type TaskListResult struct {
	Items []model.TaskView
	Count int
	Total int
	Page  int
	Pages int
}

func (s *TaskService) List(ctx context.Context, userID string, input ListTasksInput) (TaskListResult, error) {
	now := s.now()
	q, err := buildQuery(userID, now, input)
	if err != nil {
		return TaskListResult{}, err
	}

	page, err := s.repo.List(ctx, q)
	if err != nil {
		return TaskListResult{}, storeErr("failed to list tasks", err)
	}

	items := make([]model.TaskView, len(page.Items))
	for i, t := range page.Items {
		items[i] = t.View(now)
	}

	return TaskListResult{
		Items: items,
		Count: page.Count,
		Total: page.Total,
		Page:  page.Page,
		Pages: page.Pages,
	}, nil
}

func (s *TaskService) Stats(ctx context.Context, userID string) (model.TaskStats, error) {
	stats, err := s.repo.Stats(ctx, userID, s.now())
	if err != nil {
		return model.TaskStats{}, storeErr("failed to compute stats", err)
	}
	return stats, nil
}

// StartTimer moves the task's timer from idle to running.
func (s *TaskService) StartTimer(ctx context.Context, userID, taskID string) (model.TaskView, error) {
	for attempt := 1; ; attempt++ {
		task, err := s.get(ctx, userID, taskID)
		if err != nil {
			return model.TaskView{}, err
		}
		if task.TimerRunning() {
			return model.TaskView{}, ErrAlreadyRunning
		}

		// Postgres stores microseconds; truncating keeps the stop CAS exact.
		at := s.now().Truncate(time.Microsecond)
		started, err := s.repo.StartTimer(ctx, userID, taskID, at)
		if err == nil {
			return started.View(s.now()), nil
		}
		if !errors.Is(err, repository.ErrTimerConflict) {
			return model.TaskView{}, storeErr("failed to start timer", err)
		}
		if attempt == timerAttempts {
			return model.TaskView{}, ErrAlreadyRunning
		}
		slog.DebugContext(ctx, "timer start lost race, retrying", "task_id", taskID, "attempt", attempt)
	}
}

// StopTimer moves the timer from running to idle and adds the rounded elapsed
// minutes to the task's actual time.
func (s *TaskService) StopTimer(ctx context.Context, userID, taskID string) (model.TaskView, error) {
	for attempt := 1; ; attempt++ {
		task, err := s.get(ctx, userID, taskID)
		if err != nil {
			return model.TaskView{}, err
		}
		if !task.TimerRunning() {
			return model.TaskView{}, ErrNotRunning
		}

		startedAt := *task.TimeStarted
		minutes := model.ElapsedMinutes(startedAt, s.now())
		stopped, err := s.repo.StopTimer(ctx, userID, taskID, startedAt, minutes)
		if err == nil {
			return stopped.View(s.now()), nil
		}
		if !errors.Is(err, repository.ErrTimerConflict) {
			return model.TaskView{}, storeErr("failed to stop timer", err)
		}
		if attempt == timerAttempts {
			return model.TaskView{}, ErrNotRunning
		}
		slog.DebugContext(ctx, "timer stop lost race, retrying", "task_id", taskID, "attempt", attempt)
	}
}

func (s *TaskService) AddSubtask(ctx context.Context, userID, taskID string, input SubtaskInput) (model.TaskView, error) {
	task, err := s.get(ctx, userID, taskID)
	if err != nil {
		return model.TaskView{}, err
	}

	input.ID = ""
	sub, err := newSubtask(input)
	if err != nil {
		return model.TaskView{}, err
	}
	task.Subtasks = append(task.Subtasks, sub)

	return s.save(ctx, task)
}

func (s *TaskService) UpdateSubtask(ctx context.Context, userID, taskID, subtaskID string, input UpdateSubtaskInput) (model.TaskView, error) {
	task, err := s.get(ctx, userID, taskID)
	if err != nil {
		return model.TaskView{}, err
	}

	i := subtaskIndex(task, subtaskID)
	if i < 0 {
		return model.TaskView{}, fmt.Errorf("%w: subtask %s", ErrNotFound, subtaskID)
	}
	sub, err := applySubtaskUpdate(task.Subtasks[i], input)
	if err != nil {
		return model.TaskView{}, err
	}
	task.Subtasks[i] = sub

	return s.save(ctx, task)
}

func (s *TaskService) DeleteSubtask(ctx context.Context, userID, taskID, subtaskID string) (model.TaskView, error) {
	task, err := s.get(ctx, userID, taskID)
	if err != nil {
		return model.TaskView{}, err
	}

	i := subtaskIndex(task, subtaskID)
	if i < 0 {
		return model.TaskView{}, fmt.Errorf("%w: subtask %s", ErrNotFound, subtaskID)
	}
	task.Subtasks = append(task.Subtasks[:i], task.Subtasks[i+1:]...)

	return s.save(ctx, task)
}

func subtaskIndex(task model.Task, subtaskID string) int {
	for i, sub := range task.Subtasks {
		if sub.ID == subtaskID {
			return i
		}
	}
	return -1
}

// ClearAll deletes every task of every user. Only reachable through the
// gated admin route.
func (s *TaskService) ClearAll(ctx context.Context) (int64, error) {
	n, err := s.repo.DeleteAll(ctx)
	if err != nil {
		return 0, storeErr("failed to clear tasks", err)
	}
	slog.WarnContext(ctx, "all tasks cleared", "deleted", n)
	return n, nil
}
