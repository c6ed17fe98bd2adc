package repository

import (
	"context"
	"database/sql"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jaekwang-park/task-api/internal/model"
)

// MemoryTaskRepository keeps tasks in process memory. It backs local
// development (STORAGE_BACKEND=memory) and mirrors the Postgres semantics,
// including the timer compare-and-swap.
type MemoryTaskRepository struct {
	mu    sync.RWMutex
	tasks map[string]model.Task
	now   func() time.Time
}

func NewMemoryTask() *MemoryTaskRepository {
	return &MemoryTaskRepository{
		tasks: make(map[string]model.Task),
		now:   time.Now,
	}
}

func (r *MemoryTaskRepository) Create(ctx context.Context, task model.Task) (model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ts := r.now()
	task.ID = uuid.NewString()
	task.ActualTime = 0
	task.TimeStarted = nil
	task.CreatedAt = ts
	task.UpdatedAt = ts
	task = normalizeStored(task)

	r.tasks[task.ID] = cloneTask(task)
	return cloneTask(task), nil
}

func (r *MemoryTaskRepository) GetByID(ctx context.Context, userID, taskID string) (model.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tasks[taskID]
	if !ok || t.UserID != userID {
		return model.Task{}, sql.ErrNoRows
	}
	return cloneTask(t), nil
}

func (r *MemoryTaskRepository) Update(ctx context.Context, task model.Task) (model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.tasks[task.ID]
	if !ok || existing.UserID != task.UserID {
		return model.Task{}, sql.ErrNoRows
	}

	task.ActualTime = existing.ActualTime
	task.TimeStarted = existing.TimeStarted
	task.CreatedAt = existing.CreatedAt
	task.UpdatedAt = r.now()
	task = normalizeStored(task)

	r.tasks[task.ID] = cloneTask(task)
	return cloneTask(task), nil
}

func (r *MemoryTaskRepository) Delete(ctx context.Context, userID, taskID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[taskID]
	if !ok || t.UserID != userID {
		return sql.ErrNoRows
	}
	delete(r.tasks, taskID)
	return nil
}

func (r *MemoryTaskRepository) List(ctx context.Context, q model.TaskQuery) (model.TaskPage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	page := q.Apply(r.snapshot())
	return page, nil
}

func (r *MemoryTaskRepository) Stats(ctx context.Context, userID string, now time.Time) (model.TaskStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var owned []model.Task
	for _, t := range r.tasks {
		if t.UserID == userID {
			owned = append(owned, t)
		}
	}
	return model.Tally(owned, now), nil
}

func (r *MemoryTaskRepository) StartTimer(ctx context.Context, userID, taskID string, at time.Time) (model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[taskID]
	if !ok || t.UserID != userID || t.TimeStarted != nil {
		return model.Task{}, ErrTimerConflict
	}
	t.TimeStarted = &at
	t.UpdatedAt = r.now()

	r.tasks[taskID] = cloneTask(t)
	return cloneTask(t), nil
}

func (r *MemoryTaskRepository) StopTimer(ctx context.Context, userID, taskID string, startedAt time.Time, minutes int) (model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[taskID]
	if !ok || t.UserID != userID || t.TimeStarted == nil || !t.TimeStarted.Equal(startedAt) {
		return model.Task{}, ErrTimerConflict
	}
	t.ActualTime += minutes
	t.TimeStarted = nil
	t.UpdatedAt = r.now()

	r.tasks[taskID] = cloneTask(t)
	return cloneTask(t), nil
}

func (r *MemoryTaskRepository) ListRecurringDue(ctx context.Context, now time.Time) ([]model.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	due := []model.Task{}
	for _, t := range r.snapshot() {
		if t.IsRecurring && t.Completed && t.DueDate != nil && t.DueDate.Before(now) {
			due = append(due, t)
		}
	}
	slices.SortFunc(due, func(a, b model.Task) int {
		if c := a.DueDate.Compare(*b.DueDate); c != 0 {
			return c
		}
		if a.ID < b.ID {
			return -1
		}
		return 1
	})
	return due, nil
}

func (r *MemoryTaskRepository) RollOver(ctx context.Context, userID, taskID string, dueAt, nextDue time.Time) (model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[taskID]
	if !ok || t.UserID != userID || !t.IsRecurring || !t.Completed ||
		t.DueDate == nil || !t.DueDate.Equal(dueAt) {
		return model.Task{}, sql.ErrNoRows
	}
	t = cloneTask(t)
	t.DueDate = &nextDue
	t.Completed = false
	for i := range t.Subtasks {
		t.Subtasks[i].Completed = false
	}
	t.UpdatedAt = r.now()

	r.tasks[taskID] = cloneTask(t)
	return cloneTask(t), nil
}

func (r *MemoryTaskRepository) DeleteAll(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := int64(len(r.tasks))
	r.tasks = make(map[string]model.Task)
	return n, nil
}

// snapshot copies all tasks; callers must hold the lock.
func (r *MemoryTaskRepository) snapshot() []model.Task {
	out := make([]model.Task, 0, len(r.tasks))
	for _, t := range r.tasks {
		out = append(out, cloneTask(t))
	}
	return out
}

func normalizeStored(t model.Task) model.Task {
	if t.Tags == nil {
		t.Tags = []string{}
	}
	if t.Subtasks == nil {
		t.Subtasks = []model.Subtask{}
	}
	return t
}

// cloneTask deep-copies the slice and pointer fields so callers cannot
// mutate stored state.
func cloneTask(t model.Task) model.Task {
	t.Tags = slices.Clone(t.Tags)
	t.Subtasks = slices.Clone(t.Subtasks)
	if t.DueDate != nil {
		d := *t.DueDate
		t.DueDate = &d
	}
	if t.EstimatedTime != nil {
		e := *t.EstimatedTime
		t.EstimatedTime = &e
	}
	if t.TimeStarted != nil {
		s := *t.TimeStarted
		t.TimeStarted = &s
	}
	return t
}

var _ TaskRepository = (*MemoryTaskRepository)(nil)
