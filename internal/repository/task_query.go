package repository

import (
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/jaekwang-park/task-api/internal/model"
)

// sqlFilter accumulates WHERE clauses with positional arguments.
type sqlFilter struct {
	clauses []string
	args    []any
}

// arg registers a value and returns its placeholder.
func (f *sqlFilter) arg(v any) string {
	f.args = append(f.args, v)
	return fmt.Sprintf("$%d", len(f.args))
}

func (f *sqlFilter) where() string {
	return strings.Join(f.clauses, " AND ")
}

// buildTaskFilter translates a normalized query into a WHERE clause matching
// the semantics of model.TaskQuery.Matches.
func buildTaskFilter(q model.TaskQuery) *sqlFilter {
	f := &sqlFilter{}
	f.clauses = append(f.clauses, "user_id = "+f.arg(q.UserID))

	if q.SearchText != "" {
		p := f.arg(likePattern(q.SearchText))
		f.clauses = append(f.clauses, fmt.Sprintf(
			"(text ILIKE %[1]s OR category ILIKE %[1]s OR EXISTS (SELECT 1 FROM unnest(tags) AS tag WHERE tag ILIKE %[1]s))", p))
	}

	if q.Priority != nil {
		f.clauses = append(f.clauses, "priority = "+f.arg(string(*q.Priority)))
	}

	if q.Category != "" {
		f.clauses = append(f.clauses, "category = "+f.arg(q.Category))
	}

	if q.Status != nil {
		switch *q.Status {
		case model.StatusCompleted:
			f.clauses = append(f.clauses, "completed = TRUE")
		case model.StatusPending:
			f.clauses = append(f.clauses, "completed = FALSE")
		case model.StatusOverdue:
			f.clauses = append(f.clauses, "completed = FALSE AND due_date < "+f.arg(q.Now))
		}
	}

	if len(q.Tags) > 0 {
		patterns := make([]string, len(q.Tags))
		for i, tag := range q.Tags {
			patterns[i] = likePattern(tag)
		}
		f.clauses = append(f.clauses, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM unnest(tags) AS tag WHERE tag ILIKE ANY(%s))", f.arg(pq.Array(patterns))))
	}

	return f
}

// likePattern wraps s for a literal, unanchored ILIKE match.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}

var sortColumns = map[model.SortField]string{
	model.SortCreatedAt:     "created_at",
	model.SortUpdatedAt:     "updated_at",
	model.SortDueDate:       "due_date",
	model.SortPriority:      "CASE priority WHEN 'low' THEN 1 WHEN 'medium' THEN 2 WHEN 'high' THEN 3 ELSE 0 END",
	model.SortTitle:         `title COLLATE "C"`,
	model.SortText:          `text COLLATE "C"`,
	model.SortCategory:      `category COLLATE "C"`,
	model.SortCompleted:     "completed",
	model.SortEstimatedTime: "estimated_time",
	model.SortActualTime:    "actual_time",
}

// orderBy builds the ORDER BY clause. Unknown fields fall back to created_at;
// id is always the final tie-break so pagination is stable.
func orderBy(q model.TaskQuery) string {
	col, ok := sortColumns[q.SortBy]
	if !ok {
		col = sortColumns[model.SortCreatedAt]
	}
	dir := "DESC"
	if q.SortOrder == model.SortAsc {
		dir = "ASC"
	}
	return fmt.Sprintf("%s %s NULLS LAST, id ASC", col, dir)
}
