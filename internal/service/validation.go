package service

import (
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/jaekwang-park/task-api/internal/model"
)

const maxSearchRunes = 100

type SubtaskInput struct {
	ID        string
	Text      string
	Completed bool
}

type CreateTaskInput struct {
	Title            string
	Text             string
	Completed        bool
	Priority         string
	Category         string
	Tags             []string
	DueDate          *string // RFC3339
	EstimatedTime    *int
	IsRecurring      bool
	RecurringPattern string
	Subtasks         []SubtaskInput
	Notes            string
}

// UpdateTaskInput is a partial update; nil fields are left unchanged.
// An empty DueDate clears the due date.
type UpdateTaskInput struct {
	Title            *string
	Text             *string
	Completed        *bool
	Priority         *string
	Category         *string
	Tags             *[]string
	DueDate          *string
	EstimatedTime    *int
	IsRecurring      *bool
	RecurringPattern *string
	Subtasks         *[]SubtaskInput
	Notes            *string
}

type UpdateSubtaskInput struct {
	Text      *string
	Completed *bool
}

// ListTasksInput carries raw query parameters.
type ListTasksInput struct {
	SearchText string
	Priority   string
	Category   string
	Status     string
	Tags       []string
	Page       string
	Limit      string
	SortBy     string
	SortOrder  string
}

func validateTaskID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		var fe fieldErrors
		fe.add("id", "invalid task ID format")
		return fe.err()
	}
	return nil
}

// buildTask validates a create request and returns the task to store.
func buildTask(userID string, in CreateTaskInput) (model.Task, error) {
	var fe fieldErrors

	text := strings.TrimSpace(in.Text)
	if text == "" {
		fe.add("text", "task text is required")
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = truncateRunes(text, model.DerivedTitleRunes)
	}
	checkMax(&fe, "title", title, model.MaxTitleRunes)

	priority := model.PriorityMedium
	if in.Priority != "" {
		priority = model.Priority(in.Priority)
		if !priority.IsValid() {
			fe.add("priority", "priority must be one of: low, medium, high")
		}
	}

	category := strings.TrimSpace(in.Category)
	if category == "" {
		category = model.DefaultCategory
	}
	checkMax(&fe, "category", category, model.MaxCategoryRunes)

	tags := cleanTags(&fe, in.Tags)

	dueDate := parseDueDate(&fe, in.DueDate)

	if in.EstimatedTime != nil && *in.EstimatedTime < 0 {
		fe.add("estimated_time", "estimated time must be zero or more minutes")
	}

	pattern := model.RecurringPattern(in.RecurringPattern)
	checkRecurrence(&fe, in.IsRecurring, pattern)

	subtasks := cleanSubtasks(&fe, in.Subtasks)

	notes := strings.TrimSpace(in.Notes)
	checkMax(&fe, "notes", notes, model.MaxNotesRunes)

	if err := fe.err(); err != nil {
		return model.Task{}, err
	}

	return model.Task{
		UserID:           userID,
		Title:            title,
		Text:             text,
		Completed:        in.Completed,
		Priority:         priority,
		Category:         category,
		Tags:             tags,
		DueDate:          dueDate,
		EstimatedTime:    in.EstimatedTime,
		IsRecurring:      in.IsRecurring,
		RecurringPattern: recurrenceOrEmpty(in.IsRecurring, pattern),
		Subtasks:         subtasks,
		Notes:            notes,
	}, nil
}

// applyUpdate validates a partial update and merges it into existing.
func applyUpdate(existing model.Task, in UpdateTaskInput) (model.Task, error) {
	var fe fieldErrors
	t := existing

	if in.Text != nil {
		t.Text = strings.TrimSpace(*in.Text)
		if t.Text == "" {
			fe.add("text", "task text must not be empty")
		}
	}
	if in.Title != nil {
		t.Title = strings.TrimSpace(*in.Title)
		if t.Title == "" {
			fe.add("title", "title must be between 1 and %d characters", model.MaxTitleRunes)
		}
		checkMax(&fe, "title", t.Title, model.MaxTitleRunes)
	}
	if in.Completed != nil {
		t.Completed = *in.Completed
	}
	if in.Priority != nil {
		t.Priority = model.Priority(*in.Priority)
		if !t.Priority.IsValid() {
			fe.add("priority", "priority must be one of: low, medium, high")
		}
	}
	if in.Category != nil {
		t.Category = strings.TrimSpace(*in.Category)
		if t.Category == "" {
			t.Category = model.DefaultCategory
		}
		checkMax(&fe, "category", t.Category, model.MaxCategoryRunes)
	}
	if in.Tags != nil {
		t.Tags = cleanTags(&fe, *in.Tags)
	}
	if in.DueDate != nil {
		t.DueDate = parseDueDate(&fe, in.DueDate)
	}
	if in.EstimatedTime != nil {
		if *in.EstimatedTime < 0 {
			fe.add("estimated_time", "estimated time must be zero or more minutes")
		}
		t.EstimatedTime = in.EstimatedTime
	}
	if in.IsRecurring != nil {
		t.IsRecurring = *in.IsRecurring
	}
	if in.RecurringPattern != nil {
		t.RecurringPattern = model.RecurringPattern(*in.RecurringPattern)
	}
	if in.IsRecurring != nil || in.RecurringPattern != nil {
		checkRecurrence(&fe, t.IsRecurring, t.RecurringPattern)
		t.RecurringPattern = recurrenceOrEmpty(t.IsRecurring, t.RecurringPattern)
	}
	if in.Subtasks != nil {
		t.Subtasks = cleanSubtasks(&fe, *in.Subtasks)
	}
	if in.Notes != nil {
		t.Notes = strings.TrimSpace(*in.Notes)
		checkMax(&fe, "notes", t.Notes, model.MaxNotesRunes)
	}

	if err := fe.err(); err != nil {
		return model.Task{}, err
	}
	return t, nil
}

func newSubtask(in SubtaskInput) (model.Subtask, error) {
	var fe fieldErrors
	subs := cleanSubtasks(&fe, []SubtaskInput{in})
	if err := fe.err(); err != nil {
		return model.Subtask{}, err
	}
	return subs[0], nil
}

func applySubtaskUpdate(s model.Subtask, in UpdateSubtaskInput) (model.Subtask, error) {
	var fe fieldErrors
	if in.Text != nil {
		s.Text = strings.TrimSpace(*in.Text)
		checkSubtaskText(&fe, "text", s.Text)
	}
	if in.Completed != nil {
		s.Completed = *in.Completed
	}
	if err := fe.err(); err != nil {
		return model.Subtask{}, err
	}
	return s, nil
}

// buildQuery validates raw list parameters.
func buildQuery(userID string, now time.Time, in ListTasksInput) (model.TaskQuery, error) {
	var fe fieldErrors
	q := model.TaskQuery{
		UserID:     userID,
		SearchText: strings.TrimSpace(in.SearchText),
		Category:   strings.TrimSpace(in.Category),
		Now:        now,
	}

	checkMax(&fe, "searchText", q.SearchText, maxSearchRunes)
	checkMax(&fe, "category", q.Category, model.MaxCategoryRunes)

	if in.Priority != "" {
		p := model.Priority(in.Priority)
		if p.IsValid() {
			q.Priority = &p
		} else {
			fe.add("priority", "priority filter must be one of: low, medium, high")
		}
	}
	if in.Status != "" {
		s := model.StatusFilter(in.Status)
		if s.IsValid() {
			q.Status = &s
		} else {
			fe.add("status", "status filter must be one of: completed, pending, overdue")
		}
	}

	for _, raw := range in.Tags {
		for _, tag := range strings.Split(raw, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				q.Tags = append(q.Tags, tag)
			}
		}
	}

	q.Page = parseIntParam(&fe, "page", in.Page)
	q.Limit = parseIntParam(&fe, "limit", in.Limit)

	if in.SortBy != "" {
		f, ok := model.ParseSortField(in.SortBy)
		if !ok {
			fe.add("sortBy", "unsupported sort field %q", in.SortBy)
		}
		q.SortBy = f
	}
	switch strings.ToLower(in.SortOrder) {
	case "":
	case "asc":
		q.SortOrder = model.SortAsc
	case "desc":
		q.SortOrder = model.SortDesc
	default:
		fe.add("sortOrder", "sort order must be asc or desc")
	}

	if err := fe.err(); err != nil {
		return model.TaskQuery{}, err
	}
	return q.Normalize(), nil
}

func parseIntParam(fe *fieldErrors, field, raw string) int {
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		fe.add(field, "%s must be an integer", field)
		return 0
	}
	return n
}

func parseDueDate(fe *fieldErrors, raw *string) *time.Time {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(*raw))
	if err != nil {
		fe.add("due_date", "due date must be an RFC3339 timestamp")
		return nil
	}
	return &t
}

func checkRecurrence(fe *fieldErrors, recurring bool, pattern model.RecurringPattern) {
	switch {
	case pattern != "" && !pattern.IsValid():
		fe.add("recurring_pattern", "recurring pattern must be one of: daily, weekly, monthly")
	case recurring && pattern == "":
		fe.add("recurring_pattern", "recurring pattern is required for recurring tasks")
	}
}

func recurrenceOrEmpty(recurring bool, pattern model.RecurringPattern) model.RecurringPattern {
	if !recurring {
		return ""
	}
	return pattern
}

func cleanTags(fe *fieldErrors, raw []string) []string {
	tags := make([]string, 0, len(raw))
	for _, tag := range raw {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if utf8.RuneCountInString(tag) > model.MaxTagRunes {
			fe.add("tags", "each tag cannot exceed %d characters", model.MaxTagRunes)
			continue
		}
		tags = append(tags, tag)
	}
	return tags
}

// cleanSubtasks keeps client ids so a whole-list update preserves identity.
// Supplied ids must be unique UUIDs; missing ones are generated.
func cleanSubtasks(fe *fieldErrors, raw []SubtaskInput) []model.Subtask {
	subs := make([]model.Subtask, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for i, in := range raw {
		field := "subtasks[" + strconv.Itoa(i) + "]"
		text := strings.TrimSpace(in.Text)
		checkSubtaskText(fe, field+".text", text)

		id := uuid.NewString()
		if raw := strings.TrimSpace(in.ID); raw != "" {
			parsed, err := uuid.Parse(raw)
			if err != nil {
				fe.add(field+".id", "subtask id must be a valid UUID")
				continue
			}
			id = parsed.String()
		}
		if seen[id] {
			fe.add(field+".id", "subtask id %s is repeated", id)
			continue
		}
		seen[id] = true
		subs = append(subs, model.Subtask{ID: id, Text: text, Completed: in.Completed})
	}
	return subs
}

func checkSubtaskText(fe *fieldErrors, field, text string) {
	if n := utf8.RuneCountInString(text); n < 1 || n > model.MaxSubtaskRunes {
		fe.add(field, "subtask text must be between 1 and %d characters", model.MaxSubtaskRunes)
	}
}

func checkMax(fe *fieldErrors, field, s string, limit int) {
	if utf8.RuneCountInString(s) > limit {
		fe.add(field, "%s cannot exceed %d characters", field, limit)
	}
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
