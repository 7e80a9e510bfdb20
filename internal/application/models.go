package application

import (
	"time"

	"github.com/example/todo-platform/internal/persistence"
)

// Principal represents the authenticated user invoking a service method.
type Principal struct {
	UserID string
}

// Priority levels accepted for tasks.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Theme values accepted for user preferences.
const (
	ThemeLight  = "light"
	ThemeDark   = "dark"
	ThemeSystem = "system"
)

// Task sort orders accepted for user preferences.
const (
	SortByDueDate   = "dueDate"
	SortByPriority  = "priority"
	SortByCreatedAt = "createdAt"
)

// DefaultPreferences returns the preference values assigned at registration.
func DefaultPreferences() persistence.Preferences {
	return persistence.Preferences{
		Theme:                ThemeSystem,
		NotificationsEnabled: true,
		TaskSortOrder:        SortByCreatedAt,
		DateFormat:           "MM/dd/yyyy",
		WeeklyDigest:         false,
	}
}

// Session describes an issued credential pair for a user.
type Session struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// RegisterParams wraps the data required to register a new account.
type RegisterParams struct {
	Email    string
	Password string
	Name     *string
}

// AuthenticateParams wraps the data required to sign in.
type AuthenticateParams struct {
	Email    string
	Password string
}

// AuthResult carries the signed-in user and their issued session.
type AuthResult struct {
	User    persistence.User
	Session Session
}

// RefreshSessionParams wraps the data required to rotate a refresh token.
type RefreshSessionParams struct {
	RefreshToken string
}

// LogoutParams wraps the data required to revoke a session.
type LogoutParams struct {
	Principal    Principal
	RefreshToken string
}

// TaskInput captures caller provided task fields for creation.
type TaskInput struct {
	Title       string
	Description *string
	Completed   bool
	Priority    string
	DueDate     *time.Time
}

// TaskPatch captures a partial task update. Nil fields are left unchanged.
type TaskPatch struct {
	Title       *string
	Description *string
	Completed   *bool
	Priority    *string
	DueDate     *time.Time
	ClearDue    bool
}

// CreateTaskParams wraps the data required to create a task.
type CreateTaskParams struct {
	Principal Principal
	Input     TaskInput
}

// UpdateTaskParams wraps the data required to update an existing task.
type UpdateTaskParams struct {
	Principal Principal
	TaskID    string
	Patch     TaskPatch
}

// ListTasksParams wraps the data required to list a user's tasks.
type ListTasksParams struct {
	Principal Principal
	Filter    persistence.TaskFilter
}

// TaskList carries a page of tasks and the total match count before paging.
type TaskList struct {
	Tasks      []persistence.Task
	TotalCount int
}

// UpdateProfileParams wraps the data required to update profile fields.
type UpdateProfileParams struct {
	Principal Principal
	Name      *string
}

// UpdatePreferencesParams wraps the data required to replace preferences.
type UpdatePreferencesParams struct {
	Principal   Principal
	Preferences persistence.Preferences
}
