package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/todo-platform/internal/persistence"
)

// ProfileStore captures the persistence operations required by the user service.
type ProfileStore interface {
	GetUser(ctx context.Context, id string) (persistence.User, error)
	UpdateUser(ctx context.Context, user persistence.User) error
}

// UserService serves profile and preference reads and writes for the
// authenticated principal. Accounts are never deleted through this service.
type UserService struct {
	users  ProfileStore
	now    func() time.Time
	logger *slog.Logger
}

// NewUserService wires dependencies for the user service.
func NewUserService(users ProfileStore, now func() time.Time, logger *slog.Logger) *UserService {
	if now == nil {
		now = time.Now
	}
	return &UserService{users: users, now: now, logger: defaultLogger(logger)}
}

func (s *UserService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "UserService", operation, attrs...)
}

// GetProfile returns the principal's account including embedded preferences.
func (s *UserService) GetProfile(ctx context.Context, principal Principal) (persistence.User, error) {
	if s == nil {
		return persistence.User{}, fmt.Errorf("UserService is nil")
	}
	if principal.UserID == "" {
		return persistence.User{}, ErrUnauthorized
	}
	if s.users == nil {
		return persistence.User{}, fmt.Errorf("user store not configured")
	}

	user, err := s.users.GetUser(ctx, principal.UserID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return persistence.User{}, ErrNotFound
		}
		return persistence.User{}, err
	}
	return user, nil
}

// UpdateProfile updates mutable profile fields. Email is immutable.
func (s *UserService) UpdateProfile(ctx context.Context, params UpdateProfileParams) (persistence.User, error) {
	if s == nil {
		return persistence.User{}, fmt.Errorf("UserService is nil")
	}
	if params.Principal.UserID == "" {
		return persistence.User{}, ErrUnauthorized
	}
	if s.users == nil {
		return persistence.User{}, fmt.Errorf("user store not configured")
	}

	logger := s.loggerWith(ctx, "UpdateProfile", "user_id", params.Principal.UserID)

	user, err := s.users.GetUser(ctx, params.Principal.UserID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return persistence.User{}, ErrNotFound
		}
		return persistence.User{}, err
	}

	if params.Name != nil {
		trimmed := strings.TrimSpace(*params.Name)
		if trimmed == "" {
			vErr := &ValidationError{}
			vErr.add("name", "name must not be blank")
			return persistence.User{}, vErr
		}
		user.Name = &trimmed
	}
	user.UpdatedAt = s.now()

	if err := s.users.UpdateUser(ctx, user); err != nil {
		logger.ErrorContext(ctx, "failed to update profile", "error", err, "error_kind", ErrorKind(err))
		return persistence.User{}, err
	}

	logger.InfoContext(ctx, "profile updated")
	return user, nil
}

// GetPreferences returns the principal's preferences.
func (s *UserService) GetPreferences(ctx context.Context, principal Principal) (persistence.Preferences, error) {
	user, err := s.GetProfile(ctx, principal)
	if err != nil {
		return persistence.Preferences{}, err
	}
	return user.Preferences, nil
}

// UpdatePreferences replaces the principal's preferences after validating the
// enumerated fields.
func (s *UserService) UpdatePreferences(ctx context.Context, params UpdatePreferencesParams) (persistence.Preferences, error) {
	if s == nil {
		return persistence.Preferences{}, fmt.Errorf("UserService is nil")
	}
	if params.Principal.UserID == "" {
		return persistence.Preferences{}, ErrUnauthorized
	}
	if s.users == nil {
		return persistence.Preferences{}, fmt.Errorf("user store not configured")
	}

	logger := s.loggerWith(ctx, "UpdatePreferences", "user_id", params.Principal.UserID)

	if vErr := validatePreferences(params.Preferences); vErr.HasErrors() {
		return persistence.Preferences{}, vErr
	}

	user, err := s.users.GetUser(ctx, params.Principal.UserID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return persistence.Preferences{}, ErrNotFound
		}
		return persistence.Preferences{}, err
	}

	user.Preferences = params.Preferences
	user.UpdatedAt = s.now()

	if err := s.users.UpdateUser(ctx, user); err != nil {
		logger.ErrorContext(ctx, "failed to update preferences", "error", err, "error_kind", ErrorKind(err))
		return persistence.Preferences{}, err
	}

	logger.InfoContext(ctx, "preferences updated")
	return user.Preferences, nil
}

func validatePreferences(prefs persistence.Preferences) *ValidationError {
	vErr := &ValidationError{}
	switch prefs.Theme {
	case ThemeLight, ThemeDark, ThemeSystem:
	default:
		vErr.add("theme", "theme must be one of light, dark, system")
	}
	switch prefs.TaskSortOrder {
	case SortByDueDate, SortByPriority, SortByCreatedAt:
	default:
		vErr.add("taskSortOrder", "taskSortOrder must be one of dueDate, priority, createdAt")
	}
	if strings.TrimSpace(prefs.DateFormat) == "" {
		vErr.add("dateFormat", "dateFormat is required")
	}
	return vErr
}
