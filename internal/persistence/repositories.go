package persistence

import (
	"context"
	"time"
)

// UserRepository exposes CRUD operations for users and their preferences.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	UpdateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	DeleteUser(ctx context.Context, id string) error
}

// TaskRepository stores task rows scoped to their owning user.
type TaskRepository interface {
	CreateTask(ctx context.Context, task Task) error
	UpdateTask(ctx context.Context, task Task) error
	GetTask(ctx context.Context, userID, id string) (Task, error)
	ListTasks(ctx context.Context, userID string, filter TaskFilter) ([]Task, int, error)
	DeleteTask(ctx context.Context, userID, id string) error
}

// SessionRepository stores refresh-token session state.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	GetSession(ctx context.Context, refreshToken string) (Session, error)
	UpdateSession(ctx context.Context, session Session) (Session, error)
	RevokeSession(ctx context.Context, refreshToken string, revokedAt time.Time) (Session, error)
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}
