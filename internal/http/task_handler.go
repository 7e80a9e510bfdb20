package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/example/todo-platform/internal/application"
	"github.com/example/todo-platform/internal/persistence"
)

type taskService interface {
	CreateTask(ctx context.Context, params application.CreateTaskParams) (persistence.Task, error)
	ListTasks(ctx context.Context, params application.ListTasksParams) (application.TaskList, error)
	GetTask(ctx context.Context, principal application.Principal, taskID string) (persistence.Task, error)
	UpdateTask(ctx context.Context, params application.UpdateTaskParams) (persistence.Task, error)
	ToggleTask(ctx context.Context, principal application.Principal, taskID string) (persistence.Task, error)
	DeleteTask(ctx context.Context, principal application.Principal, taskID string) error
}

// TaskHandler serves /api/{userId}/tasks and its sub-resources.
type TaskHandler struct {
	service   taskService
	responder responder
}

// NewTaskHandler constructs a TaskHandler.
func NewTaskHandler(service taskService, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{service: service, responder: newResponder(logger)}
}

// principalFor asserts that the authenticated principal owns the path user ID.
// A mismatch yields a 403 without consulting the service layer.
func (h *TaskHandler) principalFor(w http.ResponseWriter, r *http.Request) (application.Principal, bool) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingToken)
		return application.Principal{}, false
	}

	pathUserID, _ := PathUserIDFromContext(r.Context())
	if pathUserID == "" || pathUserID != principal.UserID {
		h.responder.writeJSON(r.Context(), w, http.StatusForbidden, errorResponse{
			Error: "Cannot access tasks of another user",
			Code:  "AUTH_FORBIDDEN",
		})
		return application.Principal{}, false
	}

	return principal, true
}

// List returns the user's tasks matching the query filters.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := h.principalFor(w, r)
	if !ok {
		return
	}

	list, err := h.service.ListTasks(r.Context(), application.ListTasksParams{
		Principal: principal,
		Filter:    buildTaskFilter(r.URL.Query()),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, taskListResponse{
		Tasks:      toTaskDTOs(list.Tasks),
		TotalCount: list.TotalCount,
	})
}

// Create persists a new task for the user.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := h.principalFor(w, r)
	if !ok {
		return
	}

	var req taskCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	task, err := h.service.CreateTask(r.Context(), application.CreateTaskParams{
		Principal: principal,
		Input:     req.toInput(),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, taskResponse{Task: toTaskDTO(task), Success: true})
}

// Get returns a single task.
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := h.principalFor(w, r)
	if !ok {
		return
	}

	taskID, ok := TaskIDFromContext(r.Context())
	if !ok || strings.TrimSpace(taskID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidTaskID)
		return
	}

	task, err := h.service.GetTask(r.Context(), principal, taskID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, taskResponse{Task: toTaskDTO(task), Success: true})
}

// Update applies a partial update to a task.
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := h.principalFor(w, r)
	if !ok {
		return
	}

	taskID, ok := TaskIDFromContext(r.Context())
	if !ok || strings.TrimSpace(taskID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidTaskID)
		return
	}

	var req taskUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	task, err := h.service.UpdateTask(r.Context(), application.UpdateTaskParams{
		Principal: principal,
		TaskID:    taskID,
		Patch:     req.toPatch(),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, taskResponse{Task: toTaskDTO(task), Success: true})
}

// Toggle flips a task's completion state.
func (h *TaskHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := h.principalFor(w, r)
	if !ok {
		return
	}

	taskID, ok := TaskIDFromContext(r.Context())
	if !ok || strings.TrimSpace(taskID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidTaskID)
		return
	}

	task, err := h.service.ToggleTask(r.Context(), principal, taskID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, taskResponse{Task: toTaskDTO(task), Success: true})
}

// Delete removes a task.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := h.principalFor(w, r)
	if !ok {
		return
	}

	taskID, ok := TaskIDFromContext(r.Context())
	if !ok || strings.TrimSpace(taskID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidTaskID)
		return
	}

	if err := h.service.DeleteTask(r.Context(), principal, taskID); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, deleteResponse{Success: true})
}

type taskCreateRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Completed   bool    `json:"completed"`
	Priority    string  `json:"priority"`
	DueDate     *string `json:"dueDate"`
}

func (r taskCreateRequest) toInput() application.TaskInput {
	input := application.TaskInput{
		Title:       strings.TrimSpace(r.Title),
		Description: r.Description,
		Completed:   r.Completed,
		Priority:    strings.TrimSpace(r.Priority),
	}
	if r.DueDate != nil && strings.TrimSpace(*r.DueDate) != "" {
		if ts := parseTimestamp(*r.DueDate); !ts.IsZero() {
			input.DueDate = &ts
		}
	}
	return input
}

type taskUpdateRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Completed   *bool   `json:"completed"`
	Priority    *string `json:"priority"`
	DueDate     *string `json:"dueDate"`
}

func (r taskUpdateRequest) toPatch() application.TaskPatch {
	patch := application.TaskPatch{
		Title:       r.Title,
		Description: r.Description,
		Completed:   r.Completed,
		Priority:    r.Priority,
	}
	if r.DueDate != nil {
		if trimmed := strings.TrimSpace(*r.DueDate); trimmed == "" {
			patch.ClearDue = true
		} else if ts := parseTimestamp(trimmed); !ts.IsZero() {
			patch.DueDate = &ts
		}
	}
	return patch
}

type taskResponse struct {
	Task    taskDTO `json:"task"`
	Success bool    `json:"success"`
}

type taskListResponse struct {
	Tasks      []taskDTO `json:"tasks"`
	TotalCount int       `json:"totalCount"`
}

type deleteResponse struct {
	Success bool `json:"success"`
}

func buildTaskFilter(values url.Values) persistence.TaskFilter {
	filter := persistence.TaskFilter{
		Status:   strings.TrimSpace(values.Get("status")),
		Priority: strings.TrimSpace(values.Get("priority")),
		Search:   strings.TrimSpace(values.Get("search")),
	}
	if limit := strings.TrimSpace(values.Get("limit")); limit != "" {
		if parsed, err := strconv.Atoi(limit); err == nil {
			filter.Limit = parsed
		}
	}
	if offset := strings.TrimSpace(values.Get("offset")); offset != "" {
		if parsed, err := strconv.Atoi(offset); err == nil {
			filter.Offset = parsed
		}
	}
	return filter
}
