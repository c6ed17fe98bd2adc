package model

import (
	"math"
	"sort"
	"strings"
	"time"
)

type StatusFilter string

const (
	StatusCompleted StatusFilter = "completed"
	StatusPending   StatusFilter = "pending"
	StatusOverdue   StatusFilter = "overdue"
)

func (s StatusFilter) IsValid() bool {
	return s == StatusCompleted || s == StatusPending || s == StatusOverdue
}

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// SortField names a sortable task attribute.
type SortField string

const (
	SortCreatedAt     SortField = "created_at"
	SortUpdatedAt     SortField = "updated_at"
	SortDueDate       SortField = "due_date"
	SortPriority      SortField = "priority"
	SortTitle         SortField = "title"
	SortText          SortField = "text"
	SortCategory      SortField = "category"
	SortCompleted     SortField = "completed"
	SortEstimatedTime SortField = "estimated_time"
	SortActualTime    SortField = "actual_time"
)

var sortFieldAliases = map[string]SortField{
	"createdat":     SortCreatedAt,
	"updatedat":     SortUpdatedAt,
	"duedate":       SortDueDate,
	"priority":      SortPriority,
	"title":         SortTitle,
	"text":          SortText,
	"category":      SortCategory,
	"completed":     SortCompleted,
	"estimatedtime": SortEstimatedTime,
	"actualtime":    SortActualTime,
}

// ParseSortField accepts both camelCase ("dueDate") and snake_case ("due_date") names.
func ParseSortField(s string) (SortField, bool) {
	key := strings.ToLower(strings.ReplaceAll(s, "_", ""))
	f, ok := sortFieldAliases[key]
	return f, ok
}

const (
	DefaultPage  = 1
	DefaultLimit = 50
	MaxLimit     = 100

	// MaxPage keeps (Page-1)*Limit within int.
	MaxPage = math.MaxInt / MaxLimit
)

type TaskQuery struct {
	UserID     string
	SearchText string
	Priority   *Priority
	Category   string
	Status     *StatusFilter
	Tags       []string
	Page       int
	Limit      int
	SortBy     SortField
	SortOrder  SortOrder
	Now        time.Time
}

// Normalize applies defaults and clamps pagination bounds.
func (q TaskQuery) Normalize() TaskQuery {
	if q.Page < 1 {
		q.Page = DefaultPage
	}
	q.Page = min(q.Page, MaxPage)
	switch {
	case q.Limit == 0:
		q.Limit = DefaultLimit
	case q.Limit < 1:
		q.Limit = 1
	case q.Limit > MaxLimit:
		q.Limit = MaxLimit
	}
	if q.SortBy == "" {
		q.SortBy = SortCreatedAt
	}
	if q.SortOrder != SortAsc {
		q.SortOrder = SortDesc
	}
	if q.Now.IsZero() {
		q.Now = time.Now()
	}
	q.SearchText = strings.TrimSpace(q.SearchText)
	tags := q.Tags[:0:0]
	for _, tag := range q.Tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	q.Tags = tags
	return q
}

func (q TaskQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

// Matches reports whether t satisfies every filter in q. Ownership is included.
func (q TaskQuery) Matches(t Task) bool {
	if t.UserID != q.UserID {
		return false
	}
	if q.SearchText != "" {
		needle := strings.ToLower(q.SearchText)
		hit := containsFold(t.Text, needle) || containsFold(t.Category, needle)
		for _, tag := range t.Tags {
			if hit {
				break
			}
			hit = containsFold(tag, needle)
		}
		if !hit {
			return false
		}
	}
	if q.Priority != nil && t.Priority != *q.Priority {
		return false
	}
	if q.Category != "" && t.Category != q.Category {
		return false
	}
	if q.Status != nil {
		switch *q.Status {
		case StatusCompleted:
			if !t.Completed {
				return false
			}
		case StatusPending:
			if t.Completed {
				return false
			}
		case StatusOverdue:
			if !t.IsOverdue(q.Now) {
				return false
			}
		}
	}
	if len(q.Tags) > 0 && !anyTagMatches(t.Tags, q.Tags) {
		return false
	}
	return true
}

func anyTagMatches(have, want []string) bool {
	for _, w := range want {
		needle := strings.ToLower(w)
		for _, h := range have {
			if containsFold(h, needle) {
				return true
			}
		}
	}
	return false
}

func containsFold(s, lowerNeedle string) bool {
	return strings.Contains(strings.ToLower(s), lowerNeedle)
}

// Less orders a before b according to the query's sort key. Missing optional
// values sort last regardless of direction; ties fall back to id ascending.
func (q TaskQuery) Less(a, b Task) bool {
	c := compareBy(q.SortBy, a, b)
	if c == 0 {
		return a.ID < b.ID
	}
	if c == nullsLast || c == -nullsLast {
		return c < 0
	}
	if q.SortOrder == SortDesc {
		return c > 0
	}
	return c < 0
}

const nullsLast = 2

func compareBy(field SortField, a, b Task) int {
	switch field {
	case SortUpdatedAt:
		return a.UpdatedAt.Compare(b.UpdatedAt)
	case SortDueDate:
		return compareOptionalTime(a.DueDate, b.DueDate)
	case SortPriority:
		return compareInt(a.Priority.Rank(), b.Priority.Rank())
	case SortTitle:
		return strings.Compare(a.Title, b.Title)
	case SortText:
		return strings.Compare(a.Text, b.Text)
	case SortCategory:
		return strings.Compare(a.Category, b.Category)
	case SortCompleted:
		return compareInt(boolInt(a.Completed), boolInt(b.Completed))
	case SortEstimatedTime:
		return compareOptionalInt(a.EstimatedTime, b.EstimatedTime)
	case SortActualTime:
		return compareInt(a.ActualTime, b.ActualTime)
	default:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
}

func compareOptionalTime(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return nullsLast
	case b == nil:
		return -nullsLast
	}
	return a.Compare(*b)
}

func compareOptionalInt(a, b *int) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return nullsLast
	case b == nil:
		return -nullsLast
	}
	return compareInt(*a, *b)
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Apply filters, sorts and paginates tasks in memory.
func (q TaskQuery) Apply(tasks []Task) TaskPage {
	q = q.Normalize()

	matched := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if q.Matches(t) {
			matched = append(matched, t)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return q.Less(matched[i], matched[j])
	})

	total := len(matched)
	start := min(q.Offset(), total)
	end := min(start+q.Limit, total)

	return NewTaskPage(matched[start:end], total, q)
}

type TaskPage struct {
	Items []Task
	Count int
	Total int
	Page  int
	Pages int
}

func NewTaskPage(items []Task, total int, q TaskQuery) TaskPage {
	if items == nil {
		items = []Task{}
	}
	pages := 0
	if q.Limit > 0 {
		pages = (total + q.Limit - 1) / q.Limit
	}
	return TaskPage{
		Items: items,
		Count: len(items),
		Total: total,
		Page:  q.Page,
		Pages: pages,
	}
}
