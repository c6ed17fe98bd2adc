package handler

import (
	"net/http"
	"strings"

	"github.com/jaekwang-park/task-api/internal/middleware"
	"github.com/jaekwang-park/task-api/internal/service"
)

type TaskHandler struct {
	svc *service.TaskService
}

func NewTaskHandler(svc *service.TaskService) *TaskHandler {
	return &TaskHandler{svc: svc}
}

// ServeHTTP routes /api/v1/tasks and everything below it.
func (h *TaskHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/tasks")
	path = strings.Trim(path, "/")

	var parts []string
	if path != "" {
		parts = strings.Split(path, "/")
	}

	switch {
	case len(parts) == 0:
		switch r.Method {
		case http.MethodGet:
			h.handleList(w, r)
		case http.MethodPost:
			h.handleCreate(w, r)
		default:
			methodNotAllowed(w)
		}

	case len(parts) == 1 && parts[0] == "stats":
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		h.handleStats(w, r)

	case len(parts) == 1:
		switch r.Method {
		case http.MethodGet:
			h.handleGetByID(w, r, parts[0])
		case http.MethodPut:
			h.handleUpdate(w, r, parts[0])
		case http.MethodDelete:
			h.handleDelete(w, r, parts[0])
		default:
			methodNotAllowed(w)
		}

	case len(parts) == 3 && parts[1] == "timer":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		switch parts[2] {
		case "start":
			h.handleStartTimer(w, r, parts[0])
		case "stop":
			h.handleStopTimer(w, r, parts[0])
		default:
			WriteError(w, http.StatusNotFound, "NOT_FOUND", "endpoint not found")
		}

	case len(parts) == 2 && parts[1] == "subtasks":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		h.handleAddSubtask(w, r, parts[0])

	case len(parts) == 3 && parts[1] == "subtasks":
		switch r.Method {
		case http.MethodPatch:
			h.handleUpdateSubtask(w, r, parts[0], parts[2])
		case http.MethodDelete:
			h.handleDeleteSubtask(w, r, parts[0], parts[2])
		default:
			methodNotAllowed(w)
		}

	default:
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "endpoint not found")
	}
}

// --- DTOs ---

type subtaskRequest struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

type createTaskRequest struct {
	Title            string           `json:"title"`
	Text             string           `json:"text"`
	Completed        bool             `json:"completed"`
	Priority         string           `json:"priority"`
	Category         string           `json:"category"`
	Tags             []string         `json:"tags"`
	DueDate          *string          `json:"due_date"`
	EstimatedTime    *int             `json:"estimated_time"`
	IsRecurring      bool             `json:"is_recurring"`
	RecurringPattern string           `json:"recurring_pattern"`
	Subtasks         []subtaskRequest `json:"subtasks"`
	Notes            string           `json:"notes"`
}

type updateTaskRequest struct {
	Title            *string           `json:"title"`
	Text             *string           `json:"text"`
	Completed        *bool             `json:"completed"`
	Priority         *string           `json:"priority"`
	Category         *string           `json:"category"`
	Tags             *[]string         `json:"tags"`
	DueDate          *string           `json:"due_date"`
	EstimatedTime    *int              `json:"estimated_time"`
	IsRecurring      *bool             `json:"is_recurring"`
	RecurringPattern *string           `json:"recurring_pattern"`
	Subtasks         *[]subtaskRequest `json:"subtasks"`
	Notes            *string           `json:"notes"`
}

type updateSubtaskRequest struct {
	Text      *string `json:"text"`
	Completed *bool   `json:"completed"`
}

func toSubtaskInputs(reqs []subtaskRequest) []service.SubtaskInput {
	out := make([]service.SubtaskInput, len(reqs))
	for i, s := range reqs {
		out[i] = service.SubtaskInput{ID: s.ID, Text: s.Text, Completed: s.Completed}
	}
	return out
}

// --- Handlers ---

func (h *TaskHandler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	input := service.ListTasksInput{
		SearchText: q.Get("searchText"),
		Priority:   q.Get("priority"),
		Category:   q.Get("category"),
		Status:     q.Get("status"),
		Tags:       q["tags"],
		Page:       q.Get("page"),
		Limit:      q.Get("limit"),
		SortBy:     q.Get("sortBy"),
		SortOrder:  q.Get("sortOrder"),
	}

	result, err := h.svc.List(r.Context(), middleware.GetUserID(r), input)
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, ListEnvelope{
		Success: true,
		Data:    result.Items,
		Count:   result.Count,
		Total:   result.Total,
		Page:    result.Page,
		Pages:   result.Pages,
	})
}

func (h *TaskHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	task, err := h.svc.Create(r.Context(), middleware.GetUserID(r), service.CreateTaskInput{
		Title:            req.Title,
		Text:             req.Text,
		Completed:        req.Completed,
		Priority:         req.Priority,
		Category:         req.Category,
		Tags:             req.Tags,
		DueDate:          req.DueDate,
		EstimatedTime:    req.EstimatedTime,
		IsRecurring:      req.IsRecurring,
		RecurringPattern: req.RecurringPattern,
		Subtasks:         toSubtaskInputs(req.Subtasks),
		Notes:            req.Notes,
	})
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	WriteSuccess(w, http.StatusCreated, task)
}

func (h *TaskHandler) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context(), middleware.GetUserID(r))
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}
	WriteSuccess(w, http.StatusOK, stats)
}

func (h *TaskHandler) handleGetByID(w http.ResponseWriter, r *http.Request, taskID string) {
	task, err := h.svc.GetByID(r.Context(), middleware.GetUserID(r), taskID)
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}
	WriteSuccess(w, http.StatusOK, task)
}

func (h *TaskHandler) handleUpdate(w http.ResponseWriter, r *http.Request, taskID string) {
	var req updateTaskRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	input := service.UpdateTaskInput{
		Title:            req.Title,
		Text:             req.Text,
		Completed:        req.Completed,
		Priority:         req.Priority,
		Category:         req.Category,
		Tags:             req.Tags,
		DueDate:          req.DueDate,
		EstimatedTime:    req.EstimatedTime,
		IsRecurring:      req.IsRecurring,
		RecurringPattern: req.RecurringPattern,
		Notes:            req.Notes,
	}
	if req.Subtasks != nil {
		subs := toSubtaskInputs(*req.Subtasks)
		input.Subtasks = &subs
	}

	task, err := h.svc.Update(r.Context(), middleware.GetUserID(r), taskID, input)
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}
	WriteSuccess(w, http.StatusOK, task)
}

func (h *TaskHandler) handleDelete(w http.ResponseWriter, r *http.Request, taskID string) {
	if err := h.svc.Delete(r.Context(), middleware.GetUserID(r), taskID); err != nil {
		WriteServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, Envelope{Success: true, Data: struct{}{}, Message: "task deleted"})
}

func (h *TaskHandler) handleStartTimer(w http.ResponseWriter, r *http.Request, taskID string) {
	task, err := h.svc.StartTimer(r.Context(), middleware.GetUserID(r), taskID)
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, Envelope{Success: true, Data: task, Message: "timer started"})
}

func (h *TaskHandler) handleStopTimer(w http.ResponseWriter, r *http.Request, taskID string) {
	task, err := h.svc.StopTimer(r.Context(), middleware.GetUserID(r), taskID)
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, Envelope{Success: true, Data: task, Message: "timer stopped and time recorded"})
}

func (h *TaskHandler) handleAddSubtask(w http.ResponseWriter, r *http.Request, taskID string) {
	var req subtaskRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	task, err := h.svc.AddSubtask(r.Context(), middleware.GetUserID(r), taskID, service.SubtaskInput{
		Text:      req.Text,
		Completed: req.Completed,
	})
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}
	WriteSuccess(w, http.StatusCreated, task)
}

func (h *TaskHandler) handleUpdateSubtask(w http.ResponseWriter, r *http.Request, taskID, subtaskID string) {
	var req updateSubtaskRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	task, err := h.svc.UpdateSubtask(r.Context(), middleware.GetUserID(r), taskID, subtaskID, service.UpdateSubtaskInput{
		Text:      req.Text,
		Completed: req.Completed,
	})
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}
	WriteSuccess(w, http.StatusOK, task)
}

func (h *TaskHandler) handleDeleteSubtask(w http.ResponseWriter, r *http.Request, taskID, subtaskID string) {
	task, err := h.svc.DeleteSubtask(r.Context(), middleware.GetUserID(r), taskID, subtaskID)
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}
	WriteSuccess(w, http.StatusOK, task)
}
