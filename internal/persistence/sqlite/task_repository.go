package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/todo-platform/internal/persistence"
)

// defaultListLimit bounds task listings when the caller supplies no limit.
const defaultListLimit = 100

// TaskRepository implements persistence.TaskRepository using SQLite.
type TaskRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewTaskRepository creates a new SQLite task repository.
func NewTaskRepository(pool *ConnectionPool) *TaskRepository {
	return &TaskRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const taskColumns = `id, user_id, title, description, completed, priority, due_date, completed_at, created_at, updated_at`

// CreateTask inserts a new task row.
func (r *TaskRepository) CreateTask(ctx context.Context, task persistence.Task) error {
	if task.ID == "" || task.UserID == "" || strings.TrimSpace(task.Title) == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO tasks (` + taskColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.helper.Exec(ctx, query,
		task.ID,
		task.UserID,
		task.Title,
		nullString(task.Description),
		task.Completed,
		task.Priority,
		nullTime(task.DueDate),
		nullTime(task.CompletedAt),
		formatTime(task.CreatedAt),
		formatTime(task.UpdatedAt),
	)
	if err != nil {
		return r.mapper.MapError(err)
	}

	return nil
}

// UpdateTask rewrites the mutable fields of an existing task. The row must
// belong to task.UserID, otherwise ErrNotFound is returned.
func (r *TaskRepository) UpdateTask(ctx context.Context, task persistence.Task) error {
	if task.ID == "" || task.UserID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		UPDATE tasks
		SET title = ?, description = ?, completed = ?, priority = ?, due_date = ?,
		    completed_at = ?, updated_at = ?
		WHERE id = ? AND user_id = ?
	`

	result, err := r.helper.Exec(ctx, query,
		task.Title,
		nullString(task.Description),
		task.Completed,
		task.Priority,
		nullTime(task.DueDate),
		nullTime(task.CompletedAt),
		formatTime(task.UpdatedAt),
		task.ID,
		task.UserID,
	)
	if err != nil {
		return r.mapper.MapError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}

	return nil
}

// GetTask retrieves a task by ID scoped to its owning user.
func (r *TaskRepository) GetTask(ctx context.Context, userID, id string) (persistence.Task, error) {
	if userID == "" || id == "" {
		return persistence.Task{}, persistence.ErrNotFound
	}

	row := r.helper.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ? AND user_id = ?`, id, userID)
	return r.scanTask(func(dest ...any) error { return row.Scan(dest...) })
}

// ListTasks returns the user's tasks matching the filter in creation order,
// along with the total number of matching rows before pagination.
func (r *TaskRepository) ListTasks(ctx context.Context, userID string, filter persistence.TaskFilter) ([]persistence.Task, int, error) {
	if userID == "" {
		return nil, 0, persistence.ErrNotFound
	}

	where, args := buildTaskFilter(userID, filter)

	var total int
	countQuery := `SELECT COUNT(*) FROM tasks ` + where
	if err := r.helper.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, r.mapper.MapError(err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := `SELECT ` + taskColumns + ` FROM tasks ` + where + ` ORDER BY created_at ASC, id ASC LIMIT ? OFFSET ?`
	rows, err := r.helper.Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, r.mapper.MapError(err)
	}
	defer rows.Close()

	tasks := make([]persistence.Task, 0)
	for rows.Next() {
		task, err := r.scanTask(rows.Scan)
		if err != nil {
			return nil, 0, err
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, r.mapper.MapError(err)
	}

	return tasks, total, nil
}

// DeleteTask removes a task scoped to its owning user.
func (r *TaskRepository) DeleteTask(ctx context.Context, userID, id string) error {
	if userID == "" || id == "" {
		return persistence.ErrNotFound
	}

	result, err := r.helper.Exec(ctx, `DELETE FROM tasks WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return r.mapper.MapError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}

	return nil
}

func buildTaskFilter(userID string, filter persistence.TaskFilter) (string, []any) {
	clauses := []string{"user_id = ?"}
	args := []any{userID}

	switch filter.Status {
	case "active":
		clauses = append(clauses, "completed = 0")
	case "completed":
		clauses = append(clauses, "completed = 1")
	}

	if filter.Priority != "" && filter.Priority != "all" {
		clauses = append(clauses, "priority = ?")
		args = append(args, filter.Priority)
	}

	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + escapeLike(search) + "%"
		clauses = append(clauses, "(title LIKE ? ESCAPE '\\' OR description LIKE ? ESCAPE '\\')")
		args = append(args, pattern, pattern)
	}

	return "WHERE " + strings.Join(clauses, " AND "), args
}

func escapeLike(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(value)
}

func (r *TaskRepository) scanTask(scan func(dest ...any) error) (persistence.Task, error) {
	var task persistence.Task
	var description sql.NullString
	var dueDate, completedAt sql.NullString
	var createdAtStr, updatedAtStr string

	err := scan(
		&task.ID,
		&task.UserID,
		&task.Title,
		&description,
		&task.Completed,
		&task.Priority,
		&dueDate,
		&completedAt,
		&createdAtStr,
		&updatedAtStr,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Task{}, persistence.ErrNotFound
		}
		return persistence.Task{}, r.mapper.MapError(err)
	}

	if description.Valid {
		task.Description = &description.String
	}
	if dueDate.Valid {
		if task.DueDate, err = parseTimePtr(dueDate.String); err != nil {
			return persistence.Task{}, fmt.Errorf("failed to parse due_date: %w", err)
		}
	}
	if completedAt.Valid {
		if task.CompletedAt, err = parseTimePtr(completedAt.String); err != nil {
			return persistence.Task{}, fmt.Errorf("failed to parse completed_at: %w", err)
		}
	}
	if task.CreatedAt, err = parseTime(createdAtStr); err != nil {
		return persistence.Task{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if task.UpdatedAt, err = parseTime(updatedAtStr); err != nil {
		return persistence.Task{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return task, nil
}

func nullTime(value *time.Time) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*value), Valid: true}
}
