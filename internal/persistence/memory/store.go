// Package memory provides a map-backed implementation of the persistence
// repositories. It mirrors the SQLite behavior closely enough for service and
// handler tests that do not want a database on disk.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/example/todo-platform/internal/persistence"
)

// Store implements the persistence repository interfaces in memory.
type Store struct {
	mu       sync.RWMutex
	users    map[string]persistence.User
	tasks    map[string]persistence.Task
	sessions map[string]persistence.Session
}

// NewStore returns an empty in-memory store.
func NewStore() *Store {
	return &Store{
		users:    make(map[string]persistence.User),
		tasks:    make(map[string]persistence.Task),
		sessions: make(map[string]persistence.Session),
	}
}

// CreateUser stores a new user.
func (s *Store) CreateUser(ctx context.Context, user persistence.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user.ID == "" || user.PasswordHash == "" {
		return persistence.ErrConstraintViolation
	}
	if _, ok := s.users[user.ID]; ok {
		return persistence.ErrAlreadyExists
	}
	if s.emailTakenLocked(user.ID, user.Email) {
		return persistence.ErrAlreadyExists
	}

	user.Email = normalizeEmail(user.Email)
	s.users[user.ID] = cloneUser(user)
	return nil
}

// UpdateUser updates an existing user.
func (s *Store) UpdateUser(ctx context.Context, user persistence.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; !ok {
		return persistence.ErrNotFound
	}
	if s.emailTakenLocked(user.ID, user.Email) {
		return persistence.ErrAlreadyExists
	}

	user.Email = normalizeEmail(user.Email)
	s.users[user.ID] = cloneUser(user)
	return nil
}

// GetUser retrieves a user by ID.
func (s *Store) GetUser(ctx context.Context, id string) (persistence.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return persistence.User{}, persistence.ErrNotFound
	}
	return cloneUser(user), nil
}

// GetUserByEmail retrieves a user by email address.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (persistence.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	normalized := normalizeEmail(email)
	for _, user := range s.users {
		if user.Email == normalized {
			return cloneUser(user), nil
		}
	}
	return persistence.User{}, persistence.ErrNotFound
}

// DeleteUser removes a user along with their tasks and sessions.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.users, id)
	for taskID, task := range s.tasks {
		if task.UserID == id {
			delete(s.tasks, taskID)
		}
	}
	for token, session := range s.sessions {
		if session.UserID == id {
			delete(s.sessions, token)
		}
	}
	return nil
}

// CreateTask stores a new task.
func (s *Store) CreateTask(ctx context.Context, task persistence.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if task.ID == "" || task.UserID == "" || strings.TrimSpace(task.Title) == "" {
		return persistence.ErrConstraintViolation
	}
	if _, ok := s.users[task.UserID]; !ok {
		return persistence.ErrConstraintViolation
	}
	if _, ok := s.tasks[task.ID]; ok {
		return persistence.ErrAlreadyExists
	}

	s.tasks[task.ID] = cloneTask(task)
	return nil
}

// UpdateTask rewrites an existing task owned by task.UserID.
func (s *Store) UpdateTask(ctx context.Context, task persistence.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.tasks[task.ID]
	if !ok || existing.UserID != task.UserID {
		return persistence.ErrNotFound
	}

	s.tasks[task.ID] = cloneTask(task)
	return nil
}

// GetTask retrieves a task scoped to its owning user.
func (s *Store) GetTask(ctx context.Context, userID, id string) (persistence.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, ok := s.tasks[id]
	if !ok || task.UserID != userID {
		return persistence.Task{}, persistence.ErrNotFound
	}
	return cloneTask(task), nil
}

// ListTasks returns the user's tasks matching the filter in creation order.
func (s *Store) ListTasks(ctx context.Context, userID string, filter persistence.TaskFilter) ([]persistence.Task, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]persistence.Task, 0)
	for _, task := range s.tasks {
		if task.UserID != userID {
			continue
		}
		if !matchesFilter(task, filter) {
			continue
		}
		matched = append(matched, cloneTask(task))
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID < matched[j].ID
		}
		return matched[i].CreatedAt.Before(matched[j].CreatedAt)
	})

	total := len(matched)

	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	if offset > total {
		offset = total
	}
	matched = matched[offset:]

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	if limit < len(matched) {
		matched = matched[:limit]
	}

	return matched, total, nil
}

// DeleteTask removes a task scoped to its owning user.
func (s *Store) DeleteTask(ctx context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok || task.UserID != userID {
		return persistence.ErrNotFound
	}
	delete(s.tasks, id)
	return nil
}

// CreateSession stores a new session.
func (s *Store) CreateSession(ctx context.Context, session persistence.Session) (persistence.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if session.ID == "" || session.UserID == "" || strings.TrimSpace(session.RefreshToken) == "" {
		return persistence.Session{}, persistence.ErrConstraintViolation
	}
	if _, ok := s.sessions[session.RefreshToken]; ok {
		return persistence.Session{}, persistence.ErrAlreadyExists
	}

	s.sessions[session.RefreshToken] = cloneSession(session)
	return cloneSession(session), nil
}

// GetSession retrieves a session by refresh token.
func (s *Store) GetSession(ctx context.Context, refreshToken string) (persistence.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[strings.TrimSpace(refreshToken)]
	if !ok {
		return persistence.Session{}, persistence.ErrNotFound
	}
	return cloneSession(session), nil
}

// UpdateSession rewrites an existing session, keyed by ID. The refresh token
// may rotate, in which case the session is re-indexed under the new token.
func (s *Store) UpdateSession(ctx context.Context, session persistence.Session) (persistence.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for token, existing := range s.sessions {
		if existing.ID == session.ID {
			delete(s.sessions, token)
			s.sessions[session.RefreshToken] = cloneSession(session)
			return cloneSession(session), nil
		}
	}
	return persistence.Session{}, persistence.ErrNotFound
}

// RevokeSession marks the session carrying the refresh token as revoked.
func (s *Store) RevokeSession(ctx context.Context, refreshToken string, revokedAt time.Time) (persistence.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[strings.TrimSpace(refreshToken)]
	if !ok {
		return persistence.Session{}, persistence.ErrNotFound
	}

	stamp := revokedAt.UTC()
	session.RevokedAt = &stamp
	session.UpdatedAt = stamp
	s.sessions[session.RefreshToken] = cloneSession(session)
	return cloneSession(session), nil
}

// DeleteExpiredSessions removes sessions whose expiry precedes the reference time.
func (s *Store) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for token, session := range s.sessions {
		if session.ExpiresAt.Before(reference) {
			delete(s.sessions, token)
		}
	}
	return nil
}

func (s *Store) emailTakenLocked(id, email string) bool {
	normalized := normalizeEmail(email)
	for _, user := range s.users {
		if user.ID != id && user.Email == normalized {
			return true
		}
	}
	return false
}

func matchesFilter(task persistence.Task, filter persistence.TaskFilter) bool {
	switch filter.Status {
	case "active":
		if task.Completed {
			return false
		}
	case "completed":
		if !task.Completed {
			return false
		}
	}

	if filter.Priority != "" && filter.Priority != "all" && task.Priority != filter.Priority {
		return false
	}

	if search := strings.TrimSpace(filter.Search); search != "" {
		needle := strings.ToLower(search)
		title := strings.ToLower(task.Title)
		description := ""
		if task.Description != nil {
			description = strings.ToLower(*task.Description)
		}
		if !strings.Contains(title, needle) && !strings.Contains(description, needle) {
			return false
		}
	}

	return true
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func cloneUser(user persistence.User) persistence.User {
	out := user
	if user.Name != nil {
		name := *user.Name
		out.Name = &name
	}
	return out
}

func cloneTask(task persistence.Task) persistence.Task {
	out := task
	if task.Description != nil {
		description := *task.Description
		out.Description = &description
	}
	if task.DueDate != nil {
		due := *task.DueDate
		out.DueDate = &due
	}
	if task.CompletedAt != nil {
		completed := *task.CompletedAt
		out.CompletedAt = &completed
	}
	return out
}

func cloneSession(session persistence.Session) persistence.Session {
	out := session
	if session.RevokedAt != nil {
		revoked := *session.RevokedAt
		out.RevokedAt = &revoked
	}
	return out
}
