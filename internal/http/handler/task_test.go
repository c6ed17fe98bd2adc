package handler_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/jaekwang-park/task-api/internal/http/handler"
	"github.com/jaekwang-park/task-api/internal/model"
	"github.com/jaekwang-park/task-api/internal/repository"
)

func newTaskHandler(t *testing.T) (*handler.TaskHandler, *fakeClock) {
	t.Helper()
	svc, clock := newTaskService(repository.NewMemoryTask())
	return handler.NewTaskHandler(svc), clock
}

// create posts body and returns the stored task.
func create(t *testing.T, h http.Handler, body string) model.TaskView {
	t.Helper()
	w := do(t, h, http.MethodPost, "/api/v1/tasks", body, userID)
	if w.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d (body: %s)", w.Code, w.Body.String())
	}
	return decodeTask(t, decodeEnvelope(t, w))
}

func TestTaskHandler_Create(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   string
		wantField  string
	}{
		{"success", `{"text":"Write quarterly report","priority":"high","tags":["work"]}`, http.StatusCreated, "", ""},
		{"missing text", `{"title":"x"}`, http.StatusBadRequest, "VALIDATION_FAILED", "text"},
		{"bad priority", `{"text":"a","priority":"urgent"}`, http.StatusBadRequest, "VALIDATION_FAILED", "priority"},
		{"bad due date", `{"text":"a","due_date":"tomorrow"}`, http.StatusBadRequest, "VALIDATION_FAILED", "due_date"},
		{"recurring without pattern", `{"text":"a","is_recurring":true}`, http.StatusBadRequest, "VALIDATION_FAILED", "recurring_pattern"},
		{"invalid json", `{"text":`, http.StatusBadRequest, "INVALID_JSON", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newTaskHandler(t)
			w := do(t, h, http.MethodPost, "/api/v1/tasks", tt.body, userID)

			if w.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d (body: %s)", tt.wantStatus, w.Code, w.Body.String())
			}
			env := decodeEnvelope(t, w)
			if tt.wantStatus == http.StatusCreated {
				task := decodeTask(t, env)
				if !env.Success || task.ID == "" || task.UserID != userID {
					t.Errorf("unexpected created task %+v", task)
				}
				if task.Title != "Write quarterly report" {
					t.Errorf("expected title derived from text, got %q", task.Title)
				}
				return
			}
			if env.Code != tt.wantCode {
				t.Errorf("expected code %s, got %s", tt.wantCode, env.Code)
			}
			if tt.wantField != "" && (len(env.Errors) == 0 || env.Errors[0].Field != tt.wantField) {
				t.Errorf("expected field error on %s, got %+v", tt.wantField, env.Errors)
			}
		})
	}
}

func TestTaskHandler_GetUpdateDelete(t *testing.T) {
	h, _ := newTaskHandler(t)
	task := create(t, h, `{"text":"Pay rent","category":"home"}`)
	path := "/api/v1/tasks/" + task.ID

	w := do(t, h, http.MethodGet, path, "", userID)
	if w.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", w.Code)
	}

	w = do(t, h, http.MethodGet, path, "", otherID)
	if w.Code != http.StatusNotFound {
		t.Errorf("get as other user: expected 404, got %d", w.Code)
	}

	w = do(t, h, http.MethodPut, path, `{"completed":true,"notes":"paid by transfer"}`, userID)
	if w.Code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d (body: %s)", w.Code, w.Body.String())
	}
	updated := decodeTask(t, decodeEnvelope(t, w))
	if !updated.Completed || updated.Notes != "paid by transfer" || updated.Category != "home" {
		t.Errorf("unexpected update result %+v", updated)
	}

	w = do(t, h, http.MethodPut, path, `{"title":""}`, userID)
	if w.Code != http.StatusBadRequest {
		t.Errorf("update with empty title: expected 400, got %d", w.Code)
	}

	w = do(t, h, http.MethodDelete, path, "", otherID)
	if w.Code != http.StatusNotFound {
		t.Errorf("delete as other user: expected 404, got %d", w.Code)
	}

	w = do(t, h, http.MethodDelete, path, "", userID)
	if w.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", w.Code)
	}
	if env := decodeEnvelope(t, w); !env.Success || string(env.Data) != "{}" {
		t.Errorf("unexpected delete envelope %+v", env)
	}

	w = do(t, h, http.MethodGet, path, "", userID)
	if w.Code != http.StatusNotFound {
		t.Errorf("get after delete: expected 404, got %d", w.Code)
	}
}

func TestTaskHandler_InvalidID(t *testing.T) {
	h, _ := newTaskHandler(t)

	w := do(t, h, http.MethodGet, "/api/v1/tasks/not-a-uuid", "", userID)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	env := decodeEnvelope(t, w)
	if len(env.Errors) != 1 || env.Errors[0].Field != "id" {
		t.Errorf("expected id field error, got %+v", env.Errors)
	}

	w = do(t, h, http.MethodGet, "/api/v1/tasks/"+uuid.NewString(), "", userID)
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown id: expected 404, got %d", w.Code)
	}
}

func TestTaskHandler_List(t *testing.T) {
	h, _ := newTaskHandler(t)
	due := now.Add(-2 * time.Hour).Format(time.RFC3339)
	create(t, h, fmt.Sprintf(`{"text":"Finish project report","priority":"high","tags":["work","q1"],"due_date":%q}`, due))
	create(t, h, `{"text":"Buy milk","priority":"low","category":"shopping"}`)
	create(t, h, `{"text":"Plan project kickoff","priority":"medium","tags":["work"],"completed":true}`)

	tests := []struct {
		name      string
		query     string
		wantTexts []string
		wantTotal int
		wantPages int
	}{
		{"all sorted by priority", "?sortBy=priority&sortOrder=desc", []string{"Finish project report", "Plan project kickoff", "Buy milk"}, 3, 1},
		{"search", "?searchText=proj&sortBy=text", []string{"Finish project report", "Plan project kickoff"}, 2, 1},
		{"overdue", "?status=overdue", []string{"Finish project report"}, 1, 1},
		{"completed", "?status=completed", []string{"Plan project kickoff"}, 1, 1},
		{"category", "?category=shopping", []string{"Buy milk"}, 1, 1},
		{"repeated tags", "?tags=q1&tags=zzz", []string{"Finish project report"}, 1, 1},
		{"comma tags", "?tags=zzz,work&sortBy=text", []string{"Finish project report", "Plan project kickoff"}, 2, 1},
		{"paged", "?sortBy=text&limit=2&page=2", []string{"Plan project kickoff"}, 3, 2},
		{"no match", "?searchText=zzz", []string{}, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, http.MethodGet, "/api/v1/tasks"+tt.query, "", userID)
			if w.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d (body: %s)", w.Code, w.Body.String())
			}
			env := decodeEnvelope(t, w)
			if string(env.Data) == "null" {
				t.Fatal("expected data to be an array, got null")
			}
			tasks := decodeTasks(t, env)

			if len(tasks) != len(tt.wantTexts) {
				t.Fatalf("expected %d tasks, got %d", len(tt.wantTexts), len(tasks))
			}
			for i, want := range tt.wantTexts {
				if tasks[i].Text != want {
					t.Errorf("item %d: expected %q, got %q", i, want, tasks[i].Text)
				}
			}
			if env.Count != len(tasks) || env.Total != tt.wantTotal || env.Pages != tt.wantPages {
				t.Errorf("unexpected paging count=%d total=%d pages=%d", env.Count, env.Total, env.Pages)
			}
		})
	}

	t.Run("derived flags", func(t *testing.T) {
		w := do(t, h, http.MethodGet, "/api/v1/tasks?status=overdue", "", userID)
		tasks := decodeTasks(t, decodeEnvelope(t, w))
		if len(tasks) != 1 || !tasks[0].IsOverdue {
			t.Errorf("expected one overdue task flagged is_overdue, got %+v", tasks)
		}
	})

	t.Run("other user sees nothing", func(t *testing.T) {
		w := do(t, h, http.MethodGet, "/api/v1/tasks", "", otherID)
		if env := decodeEnvelope(t, w); env.Total != 0 {
			t.Errorf("expected 0 tasks for other user, got %d", env.Total)
		}
	})
}

func TestTaskHandler_ListInvalidParams(t *testing.T) {
	h, _ := newTaskHandler(t)

	for _, q := range []string{"?sortBy=color", "?sortOrder=up", "?priority=urgent", "?status=archived", "?page=two", "?limit=x"} {
		t.Run(q, func(t *testing.T) {
			w := do(t, h, http.MethodGet, "/api/v1/tasks"+q, "", userID)
			if w.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", w.Code)
			}
			if env := decodeEnvelope(t, w); env.Code != "VALIDATION_FAILED" {
				t.Errorf("expected VALIDATION_FAILED, got %s", env.Code)
			}
		})
	}
}

func TestTaskHandler_Timer(t *testing.T) {
	h, clock := newTaskHandler(t)
	task := create(t, h, `{"text":"Deep work"}`)
	base := "/api/v1/tasks/" + task.ID + "/timer/"

	w := do(t, h, http.MethodPost, base+"stop", "", userID)
	if w.Code != http.StatusConflict || decodeEnvelope(t, w).Code != "TIMER_NOT_RUNNING" {
		t.Fatalf("stop while idle: expected 409 TIMER_NOT_RUNNING, got %d", w.Code)
	}

	w = do(t, h, http.MethodPost, base+"start", "", userID)
	if w.Code != http.StatusOK {
		t.Fatalf("start: expected 200, got %d (body: %s)", w.Code, w.Body.String())
	}
	started := decodeTask(t, decodeEnvelope(t, w))
	if started.TimeStarted == nil {
		t.Fatal("expected time_started to be set")
	}

	w = do(t, h, http.MethodPost, base+"start", "", userID)
	if w.Code != http.StatusConflict || decodeEnvelope(t, w).Code != "TIMER_ALREADY_RUNNING" {
		t.Fatalf("double start: expected 409 TIMER_ALREADY_RUNNING, got %d", w.Code)
	}

	clock.Advance(25*time.Minute + 31*time.Second)

	w = do(t, h, http.MethodPost, base+"stop", "", userID)
	if w.Code != http.StatusOK {
		t.Fatalf("stop: expected 200, got %d", w.Code)
	}
	env := decodeEnvelope(t, w)
	stopped := decodeTask(t, env)
	if stopped.ActualTime != 26 || stopped.TimeStarted != nil {
		t.Errorf("expected 26 minutes and idle timer, got %d minutes started=%v", stopped.ActualTime, stopped.TimeStarted)
	}
	if env.Message != "timer stopped and time recorded" {
		t.Errorf("unexpected message %q", env.Message)
	}

	w = do(t, h, http.MethodGet, base+"pause", "", userID)
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET on timer: expected 405, got %d", w.Code)
	}
	w = do(t, h, http.MethodPost, base+"pause", "", userID)
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown timer action: expected 404, got %d", w.Code)
	}
}

func TestTaskHandler_Subtasks(t *testing.T) {
	h, _ := newTaskHandler(t)
	task := create(t, h, `{"text":"Move house","subtasks":[{"text":"Book van"}]}`)
	base := "/api/v1/tasks/" + task.ID + "/subtasks"

	w := do(t, h, http.MethodPost, base, `{"text":"Pack kitchen"}`, userID)
	if w.Code != http.StatusCreated {
		t.Fatalf("add: expected 201, got %d (body: %s)", w.Code, w.Body.String())
	}
	added := decodeTask(t, decodeEnvelope(t, w))
	if len(added.Subtasks) != 2 {
		t.Fatalf("expected 2 subtasks, got %d", len(added.Subtasks))
	}
	subID := added.Subtasks[1].ID

	w = do(t, h, http.MethodPost, base, `{"text":""}`, userID)
	if w.Code != http.StatusBadRequest {
		t.Errorf("add empty: expected 400, got %d", w.Code)
	}

	w = do(t, h, http.MethodPatch, base+"/"+subID, `{"completed":true}`, userID)
	if w.Code != http.StatusOK {
		t.Fatalf("patch: expected 200, got %d", w.Code)
	}
	patched := decodeTask(t, decodeEnvelope(t, w))
	if !patched.Subtasks[1].Completed || patched.Subtasks[0].Completed {
		t.Errorf("expected only the second subtask completed, got %+v", patched.Subtasks)
	}

	w = do(t, h, http.MethodPatch, base+"/missing", `{"completed":true}`, userID)
	if w.Code != http.StatusNotFound {
		t.Errorf("patch missing: expected 404, got %d", w.Code)
	}

	w = do(t, h, http.MethodDelete, base+"/"+subID, "", userID)
	if w.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", w.Code)
	}
	if remaining := decodeTask(t, decodeEnvelope(t, w)); len(remaining.Subtasks) != 1 {
		t.Errorf("expected 1 subtask left, got %d", len(remaining.Subtasks))
	}
}

func TestTaskHandler_Stats(t *testing.T) {
	h, _ := newTaskHandler(t)
	create(t, h, `{"text":"a","priority":"high","completed":true}`)
	create(t, h, `{"text":"b","priority":"low"}`)

	w := do(t, h, http.MethodGet, "/api/v1/tasks/stats", "", userID)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var stats model.TaskStats
	env := decodeEnvelope(t, w)
	if err := json.Unmarshal(env.Data, &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.Total != 2 || stats.Completed != 1 || stats.Pending != 1 {
		t.Errorf("unexpected stats %+v", stats)
	}

	w = do(t, h, http.MethodPost, "/api/v1/tasks/stats", "", userID)
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST stats: expected 405, got %d", w.Code)
	}
}

func TestTaskHandler_Routing(t *testing.T) {
	h, _ := newTaskHandler(t)
	id := uuid.NewString()

	tests := []struct {
		method     string
		path       string
		wantStatus int
	}{
		{http.MethodPatch, "/api/v1/tasks", http.StatusMethodNotAllowed},
		{http.MethodPost, "/api/v1/tasks/" + id, http.StatusMethodNotAllowed},
		{http.MethodGet, "/api/v1/tasks/" + id + "/subtasks", http.StatusMethodNotAllowed},
		{http.MethodPut, "/api/v1/tasks/" + id + "/subtasks/s1", http.StatusMethodNotAllowed},
		{http.MethodGet, "/api/v1/tasks/" + id + "/history", http.StatusNotFound},
		{http.MethodGet, "/api/v1/tasks/" + id + "/a/b/c", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := do(t, h, tt.method, tt.path, "", userID)
			if w.Code != tt.wantStatus {
				t.Errorf("expected %d, got %d", tt.wantStatus, w.Code)
			}
		})
	}
}

// unavailableRepo fails every read as if the database were down.
type unavailableRepo struct {
	*repository.MemoryTaskRepository
}

func (unavailableRepo) List(ctx context.Context, q model.TaskQuery) (model.TaskPage, error) {
	return model.TaskPage{}, fmt.Errorf("list: %w", repository.ErrUnavailable)
}

func (unavailableRepo) GetByID(ctx context.Context, userID, taskID string) (model.Task, error) {
	return model.Task{}, fmt.Errorf("get: %w", repository.ErrUnavailable)
}

func TestTaskHandler_StoreUnavailable(t *testing.T) {
	svc, _ := newTaskService(unavailableRepo{repository.NewMemoryTask()})
	h := handler.NewTaskHandler(svc)

	for _, path := range []string{"/api/v1/tasks", "/api/v1/tasks/" + uuid.NewString()} {
		w := do(t, h, http.MethodGet, path, "", userID)
		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("%s: expected 503, got %d", path, w.Code)
		}
		if env := decodeEnvelope(t, w); env.Code != "SERVICE_UNAVAILABLE" {
			t.Errorf("%s: expected SERVICE_UNAVAILABLE, got %s", path, env.Code)
		}
	}
}
