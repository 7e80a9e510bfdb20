package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/example/todo-platform/internal/persistence"
)

// TaskStore captures the persistence operations required by the task service.
type TaskStore interface {
	CreateTask(ctx context.Context, task persistence.Task) error
	UpdateTask(ctx context.Context, task persistence.Task) error
	GetTask(ctx context.Context, userID, id string) (persistence.Task, error)
	ListTasks(ctx context.Context, userID string, filter persistence.TaskFilter) ([]persistence.Task, int, error)
	DeleteTask(ctx context.Context, userID, id string) error
}

// TaskService orchestrates validation and persistence for tasks. Every
// operation is scoped to the acting principal; a task belonging to another
// user is indistinguishable from a missing one.
type TaskService struct {
	tasks       TaskStore
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewTaskService wires dependencies for the task service.
func NewTaskService(tasks TaskStore, idGenerator func() string, now func() time.Time, logger *slog.Logger) *TaskService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &TaskService{tasks: tasks, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

func (s *TaskService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "TaskService", operation, attrs...)
}

// CreateTask validates input and persists a new task for the principal. The
// server assigns the ID and timestamps; callers must not synthesize them.
func (s *TaskService) CreateTask(ctx context.Context, params CreateTaskParams) (persistence.Task, error) {
	if s == nil {
		return persistence.Task{}, fmt.Errorf("TaskService is nil")
	}
	if params.Principal.UserID == "" {
		return persistence.Task{}, ErrUnauthorized
	}
	if s.tasks == nil {
		return persistence.Task{}, fmt.Errorf("task store not configured")
	}

	logger := s.loggerWith(ctx, "CreateTask", "user_id", params.Principal.UserID)

	input := params.Input
	input.Title = strings.TrimSpace(input.Title)
	if input.Priority == "" {
		input.Priority = PriorityMedium
	}
	if vErr := validateTaskInput(input.Title, input.Description, input.Priority); vErr.HasErrors() {
		return persistence.Task{}, vErr
	}

	now := s.now()
	task := persistence.Task{
		ID:          s.idGenerator(),
		UserID:      params.Principal.UserID,
		Title:       input.Title,
		Description: input.Description,
		Completed:   input.Completed,
		Priority:    input.Priority,
		DueDate:     input.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if task.Completed {
		task.CompletedAt = &now
	}

	if err := s.tasks.CreateTask(ctx, task); err != nil {
		logger.ErrorContext(ctx, "failed to create task", "error", err, "error_kind", ErrorKind(err))
		return persistence.Task{}, err
	}

	logger.With("task_id", task.ID).InfoContext(ctx, "task created")
	return task, nil
}

// ListTasks returns the principal's tasks matching the filter.
func (s *TaskService) ListTasks(ctx context.Context, params ListTasksParams) (TaskList, error) {
	if s == nil {
		return TaskList{}, fmt.Errorf("TaskService is nil")
	}
	if params.Principal.UserID == "" {
		return TaskList{}, ErrUnauthorized
	}
	if s.tasks == nil {
		return TaskList{}, fmt.Errorf("task store not configured")
	}

	if vErr := validateTaskFilter(params.Filter); vErr.HasErrors() {
		return TaskList{}, vErr
	}

	tasks, total, err := s.tasks.ListTasks(ctx, params.Principal.UserID, params.Filter)
	if err != nil {
		s.loggerWith(ctx, "ListTasks", "user_id", params.Principal.UserID).
			ErrorContext(ctx, "failed to list tasks", "error", err, "error_kind", ErrorKind(err))
		return TaskList{}, err
	}

	return TaskList{Tasks: tasks, TotalCount: total}, nil
}

// GetTask retrieves one task owned by the principal.
func (s *TaskService) GetTask(ctx context.Context, principal Principal, taskID string) (persistence.Task, error) {
	if s == nil {
		return persistence.Task{}, fmt.Errorf("TaskService is nil")
	}
	if principal.UserID == "" {
		return persistence.Task{}, ErrUnauthorized
	}
	if s.tasks == nil {
		return persistence.Task{}, fmt.Errorf("task store not configured")
	}

	task, err := s.tasks.GetTask(ctx, principal.UserID, taskID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return persistence.Task{}, ErrNotFound
		}
		return persistence.Task{}, err
	}
	return task, nil
}

// UpdateTask applies a partial update to an existing task. Only patch fields
// that are set change the stored row. completedAt always mirrors completed.
func (s *TaskService) UpdateTask(ctx context.Context, params UpdateTaskParams) (persistence.Task, error) {
	if s == nil {
		return persistence.Task{}, fmt.Errorf("TaskService is nil")
	}
	if params.Principal.UserID == "" {
		return persistence.Task{}, ErrUnauthorized
	}
	if s.tasks == nil {
		return persistence.Task{}, fmt.Errorf("task store not configured")
	}

	logger := s.loggerWith(ctx, "UpdateTask", "user_id", params.Principal.UserID, "task_id", params.TaskID)

	existing, err := s.tasks.GetTask(ctx, params.Principal.UserID, params.TaskID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return persistence.Task{}, ErrNotFound
		}
		return persistence.Task{}, err
	}

	updated := existing
	patch := params.Patch
	if patch.Title != nil {
		updated.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		updated.Description = patch.Description
	}
	if patch.Priority != nil {
		updated.Priority = *patch.Priority
	}
	if patch.DueDate != nil {
		updated.DueDate = patch.DueDate
	} else if patch.ClearDue {
		updated.DueDate = nil
	}
	if patch.Completed != nil {
		updated.Completed = *patch.Completed
	}

	if vErr := validateTaskInput(updated.Title, updated.Description, updated.Priority); vErr.HasErrors() {
		return persistence.Task{}, vErr
	}

	now := s.now()
	updated.UpdatedAt = now
	// completedAt is non-nil exactly when completed is true, on every
	// mutation path.
	if updated.Completed {
		if updated.CompletedAt == nil {
			updated.CompletedAt = &now
		}
	} else {
		updated.CompletedAt = nil
	}

	if err := s.tasks.UpdateTask(ctx, updated); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return persistence.Task{}, ErrNotFound
		}
		logger.ErrorContext(ctx, "failed to update task", "error", err, "error_kind", ErrorKind(err))
		return persistence.Task{}, err
	}

	logger.InfoContext(ctx, "task updated")
	return updated, nil
}

// ToggleTask flips the completion flag of a task. The stored entity is
// authoritative for the resulting completed/completedAt pair.
func (s *TaskService) ToggleTask(ctx context.Context, principal Principal, taskID string) (persistence.Task, error) {
	if s == nil {
		return persistence.Task{}, fmt.Errorf("TaskService is nil")
	}
	if principal.UserID == "" {
		return persistence.Task{}, ErrUnauthorized
	}
	if s.tasks == nil {
		return persistence.Task{}, fmt.Errorf("task store not configured")
	}

	logger := s.loggerWith(ctx, "ToggleTask", "user_id", principal.UserID, "task_id", taskID)

	existing, err := s.tasks.GetTask(ctx, principal.UserID, taskID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return persistence.Task{}, ErrNotFound
		}
		return persistence.Task{}, err
	}

	now := s.now()
	existing.Completed = !existing.Completed
	existing.UpdatedAt = now
	if existing.Completed {
		existing.CompletedAt = &now
	} else {
		existing.CompletedAt = nil
	}

	if err := s.tasks.UpdateTask(ctx, existing); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return persistence.Task{}, ErrNotFound
		}
		logger.ErrorContext(ctx, "failed to toggle task", "error", err, "error_kind", ErrorKind(err))
		return persistence.Task{}, err
	}

	logger.With("completed", existing.Completed).InfoContext(ctx, "task completion toggled")
	return existing, nil
}

// DeleteTask removes a task owned by the principal.
func (s *TaskService) DeleteTask(ctx context.Context, principal Principal, taskID string) error {
	if s == nil {
		return fmt.Errorf("TaskService is nil")
	}
	if principal.UserID == "" {
		return ErrUnauthorized
	}
	if s.tasks == nil {
		return fmt.Errorf("task store not configured")
	}

	logger := s.loggerWith(ctx, "DeleteTask", "user_id", principal.UserID, "task_id", taskID)

	if err := s.tasks.DeleteTask(ctx, principal.UserID, taskID); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return ErrNotFound
		}
		logger.ErrorContext(ctx, "failed to delete task", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.InfoContext(ctx, "task deleted")
	return nil
}

func validateTaskInput(title string, description *string, priority string) *ValidationError {
	vErr := &ValidationError{}
	// Limits count characters, not bytes, so multibyte titles are not
	// penalized.
	if title == "" {
		vErr.add("title", "title is required")
	} else if utf8.RuneCountInString(title) > 255 {
		vErr.add("title", "title must be at most 255 characters")
	}
	if description != nil && utf8.RuneCountInString(*description) > 1000 {
		vErr.add("description", "description must be at most 1000 characters")
	}
	switch priority {
	case PriorityLow, PriorityMedium, PriorityHigh:
	default:
		vErr.add("priority", "priority must be one of low, medium, high")
	}
	return vErr
}

func validateTaskFilter(filter persistence.TaskFilter) *ValidationError {
	vErr := &ValidationError{}
	switch filter.Status {
	case "", "all", "active", "completed":
	default:
		vErr.add("status", "status must be one of all, active, completed")
	}
	switch filter.Priority {
	case "", "all", PriorityLow, PriorityMedium, PriorityHigh:
	default:
		vErr.add("priority", "priority must be one of all, low, medium, high")
	}
	if filter.Limit < 0 {
		vErr.add("limit", "limit must not be negative")
	}
	if filter.Offset < 0 {
		vErr.add("offset", "offset must not be negative")
	}
	return vErr
}
