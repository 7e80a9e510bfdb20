// Package testfixtures supplies deterministic clocks, identifier generators,
// and entity fixtures for tests across the to-do platform.
package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/todo-platform/internal/persistence"
)

var (
	userCounter    uint64
	taskCounter    uint64
	sessionCounter uint64
)

var referenceTime = time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ----------------------------- User fixtures -----------------------------

// UserOption configures a generated user fixture.
type UserOption func(*persistence.User)

// NewUser returns a deterministic user record with optional overrides.
func NewUser(opts ...UserOption) persistence.User {
	idx := atomic.AddUint64(&userCounter, 1)
	id := fmt.Sprintf("user-%03d", idx)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	user := persistence.User{
		ID:           id,
		Email:        fmt.Sprintf("%s@example.com", id),
		PasswordHash: fmt.Sprintf("hash-%03d", idx),
		Preferences: persistence.Preferences{
			Theme:                "system",
			NotificationsEnabled: true,
			TaskSortOrder:        "createdAt",
			DateFormat:           "MM/dd/yyyy",
		},
		CreatedAt:    created,
		UpdatedAt:    created,
	}
	for _, opt := range opts {
		opt(&user)
	}
	return user
}

// WithUserID overrides the generated user ID.
func WithUserID(id string) UserOption {
	return func(u *persistence.User) {
		u.ID = id
	}
}

// WithUserEmail overrides the generated email address.
func WithUserEmail(email string) UserOption {
	return func(u *persistence.User) {
		u.Email = email
	}
}

// WithUserName sets the display name.
func WithUserName(name string) UserOption {
	return func(u *persistence.User) {
		u.Name = &name
	}
}

// WithUserPasswordHash overrides the generated password hash.
func WithUserPasswordHash(hash string) UserOption {
	return func(u *persistence.User) {
		u.PasswordHash = hash
	}
}

// WithUserPreferences overrides the default preference block.
func WithUserPreferences(prefs persistence.Preferences) UserOption {
	return func(u *persistence.User) {
		u.Preferences = prefs
	}
}

// ----------------------------- Task fixtures -----------------------------

// TaskOption configures a generated task fixture.
type TaskOption func(*persistence.Task)

// NewTask returns a deterministic task record owned by the given user.
func NewTask(userID string, opts ...TaskOption) persistence.Task {
	idx := atomic.AddUint64(&taskCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	task := persistence.Task{
		ID:        fmt.Sprintf("task-%03d", idx),
		UserID:    userID,
		Title:     fmt.Sprintf("Task %03d", idx),
		Priority:  "medium",
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&task)
	}
	return task
}

// WithTaskID overrides the generated task ID.
func WithTaskID(id string) TaskOption {
	return func(t *persistence.Task) {
		t.ID = id
	}
}

// WithTaskTitle overrides the generated title.
func WithTaskTitle(title string) TaskOption {
	return func(t *persistence.Task) {
		t.Title = title
	}
}

// WithTaskDescription sets the description.
func WithTaskDescription(description string) TaskOption {
	return func(t *persistence.Task) {
		t.Description = &description
	}
}

// WithTaskPriority overrides the priority.
func WithTaskPriority(priority string) TaskOption {
	return func(t *persistence.Task) {
		t.Priority = priority
	}
}

// WithTaskDueDate sets the due date.
func WithTaskDueDate(due time.Time) TaskOption {
	return func(t *persistence.Task) {
		t.DueDate = &due
	}
}

// WithTaskCompleted marks the task completed at the given instant, keeping
// completedAt in step with the completed flag.
func WithTaskCompleted(completedAt time.Time) TaskOption {
	return func(t *persistence.Task) {
		t.Completed = true
		t.CompletedAt = &completedAt
	}
}

// --------------------------- Session fixtures ----------------------------

// SessionOption configures a generated session fixture.
type SessionOption func(*persistence.Session)

// NewSession returns a deterministic refresh session for the given user.
func NewSession(userID string, opts ...SessionOption) persistence.Session {
	idx := atomic.AddUint64(&sessionCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	session := persistence.Session{
		ID:           fmt.Sprintf("session-%03d", idx),
		UserID:       userID,
		RefreshToken: fmt.Sprintf("refresh-%03d", idx),
		ExpiresAt:    created.Add(7 * 24 * time.Hour),
		CreatedAt:    created,
		UpdatedAt:    created,
	}
	for _, opt := range opts {
		opt(&session)
	}
	return session
}

// WithSessionRefreshToken overrides the generated refresh token.
func WithSessionRefreshToken(token string) SessionOption {
	return func(s *persistence.Session) {
		s.RefreshToken = token
	}
}

// WithSessionExpiresAt overrides the expiry instant.
func WithSessionExpiresAt(expires time.Time) SessionOption {
	return func(s *persistence.Session) {
		s.ExpiresAt = expires
	}
}

// WithSessionRevokedAt marks the session revoked at the given instant.
func WithSessionRevokedAt(revoked time.Time) SessionOption {
	return func(s *persistence.Session) {
		s.RevokedAt = &revoked
	}
}
