package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/jaekwang-park/task-api/internal/model"
)

const taskColumns = `id, user_id, title, text, completed, priority, category, tags,
		due_date, estimated_time, actual_time, time_started, is_recurring,
		recurring_pattern, subtasks, notes, created_at, updated_at`

type PostgresTaskRepository struct {
	db *sql.DB
}

func NewPostgresTask(db *sql.DB) *PostgresTaskRepository {
	return &PostgresTaskRepository{db: db}
}

func (r *PostgresTaskRepository) Create(ctx context.Context, task model.Task) (model.Task, error) {
	subtasks, err := encodeSubtasks(task.Subtasks)
	if err != nil {
		return model.Task{}, err
	}

	query := `
		INSERT INTO tasks (user_id, title, text, completed, priority, category, tags,
			due_date, estimated_time, is_recurring, recurring_pattern, subtasks, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING ` + taskColumns

	row := r.db.QueryRowContext(ctx, query,
		task.UserID, task.Title, task.Text, task.Completed, task.Priority, task.Category,
		pq.Array(nonNilTags(task.Tags)), task.DueDate, nullableInt(task.EstimatedTime),
		task.IsRecurring, nullablePattern(task.RecurringPattern), subtasks, task.Notes,
	)

	return scanTask(row)
}

func (r *PostgresTaskRepository) GetByID(ctx context.Context, userID, taskID string) (model.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1 AND user_id = $2`

	row := r.db.QueryRowContext(ctx, query, taskID, userID)
	return scanTask(row)
}

// Update writes the user-editable fields. actual_time and time_started are
// owned by the timer and are never overwritten here.
func (r *PostgresTaskRepository) Update(ctx context.Context, task model.Task) (model.Task, error) {
	subtasks, err := encodeSubtasks(task.Subtasks)
	if err != nil {
		return model.Task{}, err
	}

	query := `
		UPDATE tasks
		SET title = $1, text = $2, completed = $3, priority = $4, category = $5,
			tags = $6, due_date = $7, estimated_time = $8, is_recurring = $9,
			recurring_pattern = $10, subtasks = $11, notes = $12, updated_at = now()
		WHERE id = $13 AND user_id = $14
		RETURNING ` + taskColumns

	row := r.db.QueryRowContext(ctx, query,
		task.Title, task.Text, task.Completed, task.Priority, task.Category,
		pq.Array(nonNilTags(task.Tags)), task.DueDate, nullableInt(task.EstimatedTime),
		task.IsRecurring, nullablePattern(task.RecurringPattern), subtasks, task.Notes,
		task.ID, task.UserID,
	)

	return scanTask(row)
}

func (r *PostgresTaskRepository) Delete(ctx context.Context, userID, taskID string) error {
	query := `DELETE FROM tasks WHERE id = $1 AND user_id = $2`

	result, err := r.db.ExecContext(ctx, query, taskID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", classify(err))
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}

	return nil
}

// List runs the page and count queries in one read-only snapshot so total
// always agrees with the items returned.
func (r *PostgresTaskRepository) List(ctx context.Context, q model.TaskQuery) (model.TaskPage, error) {
	q = q.Normalize()
	f := buildTaskFilter(q)

	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return model.TaskPage{}, fmt.Errorf("failed to begin list transaction: %w", classify(err))
	}
	defer tx.Rollback()

	var total int
	countQuery := `SELECT COUNT(*) FROM tasks WHERE ` + f.where()
	if err := tx.QueryRowContext(ctx, countQuery, f.args...).Scan(&total); err != nil {
		return model.TaskPage{}, fmt.Errorf("failed to count tasks: %w", classify(err))
	}

	limitArg := f.arg(q.Limit)
	offsetArg := f.arg(q.Offset())
	listQuery := fmt.Sprintf(`SELECT %s FROM tasks WHERE %s ORDER BY %s LIMIT %s OFFSET %s`,
		taskColumns, f.where(), orderBy(q), limitArg, offsetArg)

	rows, err := tx.QueryContext(ctx, listQuery, f.args...)
	if err != nil {
		return model.TaskPage{}, fmt.Errorf("failed to list tasks: %w", classify(err))
	}
	defer rows.Close()

	tasks, err := scanTasks(rows)
	if err != nil {
		return model.TaskPage{}, err
	}

	return model.NewTaskPage(tasks, total, q), nil
}

func (r *PostgresTaskRepository) Stats(ctx context.Context, userID string, now time.Time) (model.TaskStats, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE completed),
			COUNT(*) FILTER (WHERE NOT completed AND due_date < $2),
			COUNT(*) FILTER (WHERE priority = 'high'),
			COUNT(*) FILTER (WHERE created_at >= $3),
			COUNT(*) FILTER (WHERE NOT completed AND due_date >= $2 AND due_date <= $4)
		FROM tasks
		WHERE user_id = $1`

	var s model.TaskStats
	err := r.db.QueryRowContext(ctx, query,
		userID, now, now.Add(-model.RecentWindow), now.Add(model.DueSoonWindow),
	).Scan(&s.Total, &s.Completed, &s.Overdue, &s.HighPriority, &s.Recent, &s.DueSoon)
	if err != nil {
		return model.TaskStats{}, fmt.Errorf("failed to aggregate task stats: %w", classify(err))
	}
	s.Pending = s.Total - s.Completed

	return s, nil
}

func (r *PostgresTaskRepository) StartTimer(ctx context.Context, userID, taskID string, at time.Time) (model.Task, error) {
	query := `
		UPDATE tasks
		SET time_started = $1, updated_at = now()
		WHERE id = $2 AND user_id = $3 AND time_started IS NULL
		RETURNING ` + taskColumns

	return timerResult(scanTask(r.db.QueryRowContext(ctx, query, at, taskID, userID)))
}

func (r *PostgresTaskRepository) StopTimer(ctx context.Context, userID, taskID string, startedAt time.Time, minutes int) (model.Task, error) {
	query := `
		UPDATE tasks
		SET actual_time = actual_time + $1, time_started = NULL, updated_at = now()
		WHERE id = $2 AND user_id = $3 AND time_started = $4
		RETURNING ` + taskColumns

	return timerResult(scanTask(r.db.QueryRowContext(ctx, query, minutes, taskID, userID, startedAt)))
}

// timerResult reports an unmatched compare-and-swap as ErrTimerConflict.
func timerResult(task model.Task, err error) (model.Task, error) {
	if errors.Is(err, sql.ErrNoRows) {
		return model.Task{}, ErrTimerConflict
	}
	return task, err
}

func (r *PostgresTaskRepository) ListRecurringDue(ctx context.Context, now time.Time) ([]model.Task, error) {
	query := `SELECT ` + taskColumns + `
		FROM tasks
		WHERE is_recurring AND completed AND due_date IS NOT NULL AND due_date < $1
		ORDER BY due_date ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list recurring tasks: %w", classify(err))
	}
	defer rows.Close()

	return scanTasks(rows)
}

func (r *PostgresTaskRepository) RollOver(ctx context.Context, userID, taskID string, dueAt, nextDue time.Time) (model.Task, error) {
	query := `
		UPDATE tasks
		SET due_date = $1, completed = FALSE, updated_at = now(),
			subtasks = COALESCE((
				SELECT jsonb_agg(jsonb_set(s.elem, '{completed}', 'false'::jsonb) ORDER BY s.ord)
				FROM jsonb_array_elements(subtasks) WITH ORDINALITY AS s(elem, ord)
			), '[]'::jsonb)
		WHERE id = $2 AND user_id = $3 AND is_recurring AND completed AND due_date = $4
		RETURNING ` + taskColumns

	return scanTask(r.db.QueryRowContext(ctx, query, nextDue, taskID, userID, dueAt))
}

func (r *PostgresTaskRepository) DeleteAll(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tasks`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete all tasks: %w", classify(err))
	}
	return result.RowsAffected()
}

type scannable interface {
	Scan(dest ...any) error
}

func scanTask(row scannable) (model.Task, error) {
	var (
		t             model.Task
		dueDate       sql.NullTime
		estimatedTime sql.NullInt64
		timeStarted   sql.NullTime
		pattern       sql.NullString
		subtasks      []byte
	)
	err := row.Scan(
		&t.ID, &t.UserID, &t.Title, &t.Text, &t.Completed, &t.Priority, &t.Category,
		pq.Array(&t.Tags), &dueDate, &estimatedTime, &t.ActualTime, &timeStarted,
		&t.IsRecurring, &pattern, &subtasks, &t.Notes, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return model.Task{}, fmt.Errorf("failed to scan task: %w", classify(err))
	}

	if dueDate.Valid {
		t.DueDate = &dueDate.Time
	}
	if estimatedTime.Valid {
		v := int(estimatedTime.Int64)
		t.EstimatedTime = &v
	}
	if timeStarted.Valid {
		t.TimeStarted = &timeStarted.Time
	}
	t.RecurringPattern = model.RecurringPattern(pattern.String)
	if t.Tags == nil {
		t.Tags = []string{}
	}
	if err := json.Unmarshal(subtasks, &t.Subtasks); err != nil {
		return model.Task{}, fmt.Errorf("failed to decode subtasks: %w", err)
	}
	if t.Subtasks == nil {
		t.Subtasks = []model.Subtask{}
	}

	return t, nil
}

func scanTasks(rows *sql.Rows) ([]model.Task, error) {
	tasks := []model.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tasks: %w", classify(err))
	}
	return tasks, nil
}

// encodeSubtasks returns a JSON string; lib/pq would send []byte as bytea.
func encodeSubtasks(subtasks []model.Subtask) (string, error) {
	if subtasks == nil {
		subtasks = []model.Subtask{}
	}
	b, err := json.Marshal(subtasks)
	if err != nil {
		return "", fmt.Errorf("failed to encode subtasks: %w", err)
	}
	return string(b), nil
}

func nonNilTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

func nullableInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullablePattern(p model.RecurringPattern) sql.NullString {
	return sql.NullString{String: string(p), Valid: p != ""}
}

// ensure compile-time interface compliance
var _ TaskRepository = (*PostgresTaskRepository)(nil)
