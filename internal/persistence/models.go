package persistence

import "time"

// User represents a registered account in the to-do domain.
type User struct {
	ID           string
	Email        string
	Name         *string
	PasswordHash string
	Preferences  Preferences
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Preferences holds per-user display and notification settings. They have no
// lifecycle of their own and are stored alongside the owning user row.
type Preferences struct {
	Theme                string
	NotificationsEnabled bool
	TaskSortOrder        string
	DateFormat           string
	WeeklyDigest         bool
}

// Task represents a persisted to-do item owned by exactly one user.
type Task struct {
	ID          string
	UserID      string
	Title       string
	Description *string
	Completed   bool
	Priority    string
	DueDate     *time.Time
	CompletedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TaskFilter narrows task listings. Zero-valued fields impose no constraint.
type TaskFilter struct {
	Status   string
	Priority string
	Search   string
	Limit    int
	Offset   int
}

// Session represents a refresh-token session persisted for a user.
type Session struct {
	ID           string
	UserID       string
	RefreshToken string
	ExpiresAt    time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
	RevokedAt    *time.Time
}
