package model_test

import (
	"testing"
	"time"

	"github.com/jaekwang-park/task-api/internal/model"
)

func TestTally_Example(t *testing.T) {
	old := now.Add(-72 * time.Hour)
	tasks := []model.Task{
		{ID: "done", Completed: true, Priority: model.PriorityMedium, CreatedAt: old},
		{ID: "late", Priority: model.PriorityMedium, DueDate: ptrTime(now.Add(-time.Hour)), CreatedAt: old},
		{ID: "urgent", Priority: model.PriorityHigh, CreatedAt: old},
	}

	got := model.Tally(tasks, now)
	want := model.TaskStats{Total: 3, Completed: 1, Overdue: 1, HighPriority: 1, Pending: 2}
	if got != want {
		t.Errorf("Tally() = %+v, want %+v", got, want)
	}
}

func TestTally_RecentAndDueSoon(t *testing.T) {
	tasks := []model.Task{
		{ID: "new", CreatedAt: now.Add(-time.Hour)},
		{ID: "boundary", CreatedAt: now.Add(-24 * time.Hour)},
		{ID: "old", CreatedAt: now.Add(-25 * time.Hour)},
		{ID: "due-soon", CreatedAt: now.Add(-48 * time.Hour), DueDate: ptrTime(now.Add(2 * time.Hour))},
		{ID: "due-soon-done", Completed: true, CreatedAt: now.Add(-48 * time.Hour), DueDate: ptrTime(now.Add(2 * time.Hour))},
		{ID: "due-later", CreatedAt: now.Add(-48 * time.Hour), DueDate: ptrTime(now.Add(48 * time.Hour))},
	}

	got := model.Tally(tasks, now)
	if got.Recent != 2 {
		t.Errorf("Recent = %d, want 2", got.Recent)
	}
	if got.DueSoon != 1 {
		t.Errorf("DueSoon = %d, want 1", got.DueSoon)
	}
	if got.Pending != got.Total-got.Completed {
		t.Errorf("Pending = %d, want total-completed = %d", got.Pending, got.Total-got.Completed)
	}
}

func TestTally_Empty(t *testing.T) {
	if got := model.Tally(nil, now); got != (model.TaskStats{}) {
		t.Errorf("expected zero stats, got %+v", got)
	}
}
