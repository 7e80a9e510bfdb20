package http

import (
	"time"

	"github.com/example/todo-platform/internal/application"
	"github.com/example/todo-platform/internal/persistence"
)

// DTO shapes mirror the JSON contract consumed by the web client: camelCase
// field names and RFC 3339 timestamps.

type userDTO struct {
	ID          string         `json:"id"`
	Email       string         `json:"email"`
	Name        *string        `json:"name"`
	Preferences preferencesDTO `json:"preferences"`
	CreatedAt   string         `json:"createdAt"`
	UpdatedAt   string         `json:"updatedAt"`
}

type preferencesDTO struct {
	Theme                string `json:"theme"`
	NotificationsEnabled bool   `json:"notificationsEnabled"`
	TaskSortOrder        string `json:"taskSortOrder"`
	DateFormat           string `json:"dateFormat"`
	WeeklyDigest         bool   `json:"weeklyDigest"`
}

type sessionDTO struct {
	AccessToken  string  `json:"accessToken"`
	RefreshToken string  `json:"refreshToken"`
	ExpiresAt    string  `json:"expiresAt"`
	User         userDTO `json:"user"`
}

type taskDTO struct {
	ID          string  `json:"id"`
	UserID      string  `json:"userId"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Completed   bool    `json:"completed"`
	Priority    string  `json:"priority"`
	DueDate     *string `json:"dueDate"`
	CompletedAt *string `json:"completedAt"`
	CreatedAt   string  `json:"createdAt"`
	UpdatedAt   string  `json:"updatedAt"`
}

func toUserDTO(user persistence.User) userDTO {
	return userDTO{
		ID:          user.ID,
		Email:       user.Email,
		Name:        user.Name,
		Preferences: toPreferencesDTO(user.Preferences),
		CreatedAt:   formatTimestamp(user.CreatedAt),
		UpdatedAt:   formatTimestamp(user.UpdatedAt),
	}
}

func toPreferencesDTO(prefs persistence.Preferences) preferencesDTO {
	return preferencesDTO{
		Theme:                prefs.Theme,
		NotificationsEnabled: prefs.NotificationsEnabled,
		TaskSortOrder:        prefs.TaskSortOrder,
		DateFormat:           prefs.DateFormat,
		WeeklyDigest:         prefs.WeeklyDigest,
	}
}

func toSessionDTO(session application.Session, user persistence.User) sessionDTO {
	return sessionDTO{
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
		ExpiresAt:    formatTimestamp(session.ExpiresAt),
		User:         toUserDTO(user),
	}
}

func toTaskDTO(task persistence.Task) taskDTO {
	return taskDTO{
		ID:          task.ID,
		UserID:      task.UserID,
		Title:       task.Title,
		Description: task.Description,
		Completed:   task.Completed,
		Priority:    task.Priority,
		DueDate:     formatTimestampPtr(task.DueDate),
		CompletedAt: formatTimestampPtr(task.CompletedAt),
		CreatedAt:   formatTimestamp(task.CreatedAt),
		UpdatedAt:   formatTimestamp(task.UpdatedAt),
	}
}

func toTaskDTOs(tasks []persistence.Task) []taskDTO {
	out := make([]taskDTO, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, toTaskDTO(task))
	}
	return out
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func formatTimestampPtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	formatted := formatTimestamp(*t)
	return &formatted
}

func parseTimestamp(value string) time.Time {
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts
	}
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts
	}
	if ts, err := time.Parse("2006-01-02", value); err == nil {
		return ts
	}
	return time.Time{}
}
