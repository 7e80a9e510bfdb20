package http

import (
	"context"

	"github.com/example/todo-platform/internal/application"
)

type contextKey string

const (
	principalContextKey  contextKey = "principal"
	pathUserIDContextKey contextKey = "path_user_id"
	taskIDContextKey     contextKey = "task_id"
)

// ContextWithPrincipal returns a derived context containing the authenticated principal.
func ContextWithPrincipal(ctx context.Context, principal application.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, principal)
}

// PrincipalFromContext extracts the authenticated principal from context if available.
func PrincipalFromContext(ctx context.Context) (application.Principal, bool) {
	principal, ok := ctx.Value(principalContextKey).(application.Principal)
	return principal, ok
}

// ContextWithPathUserID injects the user identifier resolved from the request path.
func ContextWithPathUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, pathUserIDContextKey, userID)
}

// PathUserIDFromContext extracts the path user identifier from context if available.
func PathUserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(pathUserIDContextKey).(string)
	return userID, ok
}

// ContextWithTaskID injects the task identifier resolved from the request path.
func ContextWithTaskID(ctx context.Context, taskID string) context.Context {
	return context.WithValue(ctx, taskIDContextKey, taskID)
}

// TaskIDFromContext extracts the task identifier from context if available.
func TaskIDFromContext(ctx context.Context) (string, bool) {
	taskID, ok := ctx.Value(taskIDContextKey).(string)
	return taskID, ok
}
