package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/example/todo-platform/internal/application"
	"github.com/example/todo-platform/internal/persistence"
)

type stubAuthService struct {
	registerResult application.AuthResult
	registerErr    error
	loginResult    application.AuthResult
	loginErr       error
	refreshResult  application.AuthResult
	refreshErr     error
	logoutErr      error

	logoutParams *application.LogoutParams
}

func (s *stubAuthService) Register(ctx context.Context, params application.RegisterParams) (application.AuthResult, error) {
	return s.registerResult, s.registerErr
}

func (s *stubAuthService) Authenticate(ctx context.Context, params application.AuthenticateParams) (application.AuthResult, error) {
	return s.loginResult, s.loginErr
}

func (s *stubAuthService) RefreshSession(ctx context.Context, params application.RefreshSessionParams) (application.AuthResult, error) {
	return s.refreshResult, s.refreshErr
}

func (s *stubAuthService) Logout(ctx context.Context, params application.LogoutParams) error {
	s.logoutParams = &params
	return s.logoutErr
}

type stubUserService struct {
	profile     persistence.User
	profileErr  error
	updated     persistence.User
	updateErr   error
	preferences persistence.Preferences
	prefsErr    error

	updateProfileParams *application.UpdateProfileParams
	updatePrefsParams   *application.UpdatePreferencesParams
}

func (s *stubUserService) GetProfile(ctx context.Context, principal application.Principal) (persistence.User, error) {
	return s.profile, s.profileErr
}

func (s *stubUserService) UpdateProfile(ctx context.Context, params application.UpdateProfileParams) (persistence.User, error) {
	s.updateProfileParams = &params
	return s.updated, s.updateErr
}

func (s *stubUserService) GetPreferences(ctx context.Context, principal application.Principal) (persistence.Preferences, error) {
	return s.preferences, s.prefsErr
}

func (s *stubUserService) UpdatePreferences(ctx context.Context, params application.UpdatePreferencesParams) (persistence.Preferences, error) {
	s.updatePrefsParams = &params
	return params.Preferences, s.prefsErr
}

type stubTaskService struct {
	task      persistence.Task
	taskErr   error
	list      application.TaskList
	listErr   error
	deleteErr error

	createParams *application.CreateTaskParams
	updateParams *application.UpdateTaskParams
	listParams   *application.ListTasksParams
	deletedID    string
	toggledID    string
}

func (s *stubTaskService) CreateTask(ctx context.Context, params application.CreateTaskParams) (persistence.Task, error) {
	s.createParams = &params
	return s.task, s.taskErr
}

func (s *stubTaskService) ListTasks(ctx context.Context, params application.ListTasksParams) (application.TaskList, error) {
	s.listParams = &params
	return s.list, s.listErr
}

func (s *stubTaskService) GetTask(ctx context.Context, principal application.Principal, taskID string) (persistence.Task, error) {
	return s.task, s.taskErr
}

func (s *stubTaskService) UpdateTask(ctx context.Context, params application.UpdateTaskParams) (persistence.Task, error) {
	s.updateParams = &params
	return s.task, s.taskErr
}

func (s *stubTaskService) ToggleTask(ctx context.Context, principal application.Principal, taskID string) (persistence.Task, error) {
	s.toggledID = taskID
	return s.task, s.taskErr
}

func (s *stubTaskService) DeleteTask(ctx context.Context, principal application.Principal, taskID string) error {
	s.deletedID = taskID
	return s.deleteErr
}

type stubTokenValidator struct {
	principal application.Principal
	err       error
}

func (s stubTokenValidator) ValidateAccessToken(ctx context.Context, token string) (application.Principal, error) {
	return s.principal, s.err
}

func sampleUser() persistence.User {
	now := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)
	return persistence.User{
		ID:           "user-1",
		Email:        "alice@example.com",
		PasswordHash: "hash",
		Preferences:  application.DefaultPreferences(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func sampleTask() persistence.Task {
	now := time.Date(2025, time.March, 11, 9, 30, 0, 0, time.UTC)
	return persistence.Task{
		ID:        "task-1",
		UserID:    "user-1",
		Title:     "Buy groceries",
		Priority:  application.PriorityMedium,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func newTestRouter(auth *stubAuthService, users *stubUserService, tasks *stubTaskService, validator TokenValidator) http.Handler {
	profiles := &stubUserService{profile: sampleUser()}
	if users != nil {
		profiles = users
	}
	cfg := RouterConfig{
		Auth:  NewAuthHandler(auth, profiles, nil),
		Users: NewUserHandler(profiles, nil),
		Tasks: NewTaskHandler(tasks, nil),
	}
	if validator != nil {
		cfg.Authenticate = RequireAuth(validator, nil)
	}
	return NewRouter(cfg)
}

func decodeBody(t *testing.T, body string) map[string]any {
	t.Helper()
	var decoded map[string]any
	if err := json.Unmarshal([]byte(body), &decoded); err != nil {
		t.Fatalf("failed to decode response body %q: %v", body, err)
	}
	return decoded
}

func TestAuthHandlers(t *testing.T) {
	t.Parallel()

	t.Run("register returns created account and session", func(t *testing.T) {
		t.Parallel()

		user := sampleUser()
		auth := &stubAuthService{registerResult: application.AuthResult{
			User: user,
			Session: application.Session{
				AccessToken:  "access-token",
				RefreshToken: "refresh-token",
				ExpiresAt:    time.Date(2025, time.March, 10, 12, 30, 0, 0, time.UTC),
			},
		}}
		router := newTestRouter(auth, nil, &stubTaskService{}, stubTokenValidator{})

		req := httptest.NewRequest(http.MethodPost, "/api/v1/register", strings.NewReader(`{"email":"alice@example.com","password":"password123"}`))
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusCreated {
			t.Fatalf("expected status 201, got %d: %s", recorder.Code, recorder.Body.String())
		}

		body := decodeBody(t, recorder.Body.String())
		userBody, ok := body["user"].(map[string]any)
		if !ok {
			t.Fatalf("expected user object in response, got %v", body)
		}
		if userBody["email"] != "alice@example.com" {
			t.Fatalf("expected email alice@example.com, got %v", userBody["email"])
		}
		session, ok := body["session"].(map[string]any)
		if !ok {
			t.Fatalf("expected session object in response, got %v", body)
		}
		if session["accessToken"] != "access-token" || session["refreshToken"] != "refresh-token" {
			t.Fatalf("unexpected session payload: %v", session)
		}
	})

	t.Run("register surfaces validation errors with field details", func(t *testing.T) {
		t.Parallel()

		vErr := &application.ValidationError{FieldErrors: map[string]string{"password": "password must be at least 8 characters"}}
		auth := &stubAuthService{registerErr: vErr}
		router := newTestRouter(auth, nil, &stubTaskService{}, stubTokenValidator{})

		req := httptest.NewRequest(http.MethodPost, "/api/v1/register", strings.NewReader(`{"email":"alice@example.com","password":"short"}`))
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected status 422, got %d", recorder.Code)
		}
		body := decodeBody(t, recorder.Body.String())
		fieldErrors, ok := body["errors"].(map[string]any)
		if !ok || fieldErrors["password"] == nil {
			t.Fatalf("expected password field error, got %v", body)
		}
	})

	t.Run("register rejects duplicate emails with 409", func(t *testing.T) {
		t.Parallel()

		auth := &stubAuthService{registerErr: application.ErrAlreadyExists}
		router := newTestRouter(auth, nil, &stubTaskService{}, stubTokenValidator{})

		req := httptest.NewRequest(http.MethodPost, "/api/v1/register", strings.NewReader(`{"email":"alice@example.com","password":"password123"}`))
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusConflict {
			t.Fatalf("expected status 409, got %d", recorder.Code)
		}
	})

	t.Run("login maps invalid credentials to 401 with code", func(t *testing.T) {
		t.Parallel()

		auth := &stubAuthService{loginErr: application.ErrInvalidCredentials}
		router := newTestRouter(auth, nil, &stubTaskService{}, stubTokenValidator{})

		req := httptest.NewRequest(http.MethodPost, "/api/v1/login", strings.NewReader(`{"email":"alice@example.com","password":"wrong"}`))
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusUnauthorized {
			t.Fatalf("expected status 401, got %d", recorder.Code)
		}
		body := decodeBody(t, recorder.Body.String())
		if body["code"] != "AUTH_INVALID_CREDENTIALS" {
			t.Fatalf("expected AUTH_INVALID_CREDENTIALS code, got %v", body)
		}
	})

	t.Run("login rejects malformed JSON bodies", func(t *testing.T) {
		t.Parallel()

		router := newTestRouter(&stubAuthService{}, nil, &stubTaskService{}, stubTokenValidator{})

		req := httptest.NewRequest(http.MethodPost, "/api/v1/login", strings.NewReader(`{`))
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", recorder.Code)
		}
	})

	t.Run("refresh returns the rotated session", func(t *testing.T) {
		t.Parallel()

		user := sampleUser()
		auth := &stubAuthService{refreshResult: application.AuthResult{
			User: user,
			Session: application.Session{
				AccessToken:  "new-access",
				RefreshToken: "new-refresh",
				ExpiresAt:    time.Date(2025, time.March, 10, 13, 0, 0, 0, time.UTC),
			},
		}}
		router := newTestRouter(auth, nil, &stubTaskService{}, stubTokenValidator{})

		req := httptest.NewRequest(http.MethodPost, "/api/v1/refresh", strings.NewReader(`{"refreshToken":"old-refresh"}`))
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", recorder.Code, recorder.Body.String())
		}
		body := decodeBody(t, recorder.Body.String())
		session, ok := body["session"].(map[string]any)
		if !ok || session["refreshToken"] != "new-refresh" {
			t.Fatalf("expected rotated refresh token, got %v", body)
		}
	})

	t.Run("refresh maps revoked sessions to 401", func(t *testing.T) {
		t.Parallel()

		auth := &stubAuthService{refreshErr: application.ErrSessionRevoked}
		router := newTestRouter(auth, nil, &stubTaskService{}, stubTokenValidator{})

		req := httptest.NewRequest(http.MethodPost, "/api/v1/refresh", strings.NewReader(`{"refreshToken":"revoked"}`))
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusUnauthorized {
			t.Fatalf("expected status 401, got %d", recorder.Code)
		}
		body := decodeBody(t, recorder.Body.String())
		if body["code"] != "AUTH_SESSION_REVOKED" {
			t.Fatalf("expected AUTH_SESSION_REVOKED code, got %v", body)
		}
	})

	t.Run("logout revokes the supplied refresh token", func(t *testing.T) {
		t.Parallel()

		auth := &stubAuthService{}
		validator := stubTokenValidator{principal: application.Principal{UserID: "user-1"}}
		router := newTestRouter(auth, nil, &stubTaskService{}, validator)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/logout", strings.NewReader(`{"refreshToken":"refresh-token"}`))
		req.Header.Set("Authorization", "Bearer access-token")
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusNoContent {
			t.Fatalf("expected status 204, got %d: %s", recorder.Code, recorder.Body.String())
		}
		if auth.logoutParams == nil {
			t.Fatal("expected Logout to be invoked")
		}
		if auth.logoutParams.RefreshToken != "refresh-token" {
			t.Fatalf("expected refresh token to be forwarded, got %q", auth.logoutParams.RefreshToken)
		}
		if auth.logoutParams.Principal.UserID != "user-1" {
			t.Fatalf("expected principal user-1, got %q", auth.logoutParams.Principal.UserID)
		}
	})

	t.Run("me returns the authenticated profile", func(t *testing.T) {
		t.Parallel()

		users := &stubUserService{profile: sampleUser()}
		validator := stubTokenValidator{principal: application.Principal{UserID: "user-1"}}
		router := newTestRouter(&stubAuthService{}, users, &stubTaskService{}, validator)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
		req.Header.Set("Authorization", "Bearer access-token")
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", recorder.Code, recorder.Body.String())
		}
		body := decodeBody(t, recorder.Body.String())
		userBody, ok := body["user"].(map[string]any)
		if !ok || userBody["id"] != "user-1" {
			t.Fatalf("expected user-1 profile, got %v", body)
		}
	})

	t.Run("register rejects non-POST methods", func(t *testing.T) {
		t.Parallel()

		router := newTestRouter(&stubAuthService{}, nil, &stubTaskService{}, stubTokenValidator{})

		req := httptest.NewRequest(http.MethodGet, "/api/v1/register", nil)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusMethodNotAllowed {
			t.Fatalf("expected status 405, got %d", recorder.Code)
		}
		if allow := recorder.Header().Get("Allow"); allow != http.MethodPost {
			t.Fatalf("expected Allow header POST, got %q", allow)
		}
	})
}

func TestUserHandlers(t *testing.T) {
	t.Parallel()

	validator := stubTokenValidator{principal: application.Principal{UserID: "user-1"}}

	t.Run("profile round trip", func(t *testing.T) {
		t.Parallel()

		name := "Alice"
		updated := sampleUser()
		updated.Name = &name
		users := &stubUserService{profile: sampleUser(), updated: updated}
		router := newTestRouter(&stubAuthService{}, users, &stubTaskService{}, validator)

		req := httptest.NewRequest(http.MethodPut, "/api/users/me", strings.NewReader(`{"name":"Alice"}`))
		req.Header.Set("Authorization", "Bearer access-token")
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", recorder.Code, recorder.Body.String())
		}
		if users.updateProfileParams == nil || users.updateProfileParams.Name == nil || *users.updateProfileParams.Name != "Alice" {
			t.Fatalf("expected name update to reach service, got %+v", users.updateProfileParams)
		}
		body := decodeBody(t, recorder.Body.String())
		userBody, ok := body["user"].(map[string]any)
		if !ok || userBody["name"] != "Alice" {
			t.Fatalf("expected updated name in response, got %v", body)
		}
	})

	t.Run("preferences update forwards the full payload", func(t *testing.T) {
		t.Parallel()

		users := &stubUserService{profile: sampleUser(), preferences: application.DefaultPreferences()}
		router := newTestRouter(&stubAuthService{}, users, &stubTaskService{}, validator)

		payload := `{"theme":"dark","notificationsEnabled":false,"taskSortOrder":"priority","dateFormat":"yyyy-MM-dd","weeklyDigest":true}`
		req := httptest.NewRequest(http.MethodPut, "/api/users/me/preferences", strings.NewReader(payload))
		req.Header.Set("Authorization", "Bearer access-token")
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", recorder.Code, recorder.Body.String())
		}
		if users.updatePrefsParams == nil {
			t.Fatal("expected UpdatePreferences to be invoked")
		}
		prefs := users.updatePrefsParams.Preferences
		if prefs.Theme != "dark" || prefs.TaskSortOrder != "priority" || !prefs.WeeklyDigest {
			t.Fatalf("unexpected preferences forwarded: %+v", prefs)
		}
		body := decodeBody(t, recorder.Body.String())
		prefsBody, ok := body["preferences"].(map[string]any)
		if !ok || prefsBody["theme"] != "dark" {
			t.Fatalf("expected dark theme in response, got %v", body)
		}
	})

	t.Run("requests without a token are rejected", func(t *testing.T) {
		t.Parallel()

		users := &stubUserService{profile: sampleUser()}
		router := newTestRouter(&stubAuthService{}, users, &stubTaskService{}, validator)

		req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusUnauthorized {
			t.Fatalf("expected status 401, got %d", recorder.Code)
		}
	})
}

func TestTaskHandlers(t *testing.T) {
	t.Parallel()

	validator := stubTokenValidator{principal: application.Principal{UserID: "user-1"}}

	t.Run("list maps query parameters to the filter", func(t *testing.T) {
		t.Parallel()

		tasks := &stubTaskService{list: application.TaskList{Tasks: []persistence.Task{sampleTask()}, TotalCount: 7}}
		router := newTestRouter(&stubAuthService{}, nil, tasks, validator)

		req := httptest.NewRequest(http.MethodGet, "/api/user-1/tasks?status=active&priority=high&search=milk&limit=5&offset=10", nil)
		req.Header.Set("Authorization", "Bearer access-token")
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", recorder.Code, recorder.Body.String())
		}
		if tasks.listParams == nil {
			t.Fatal("expected ListTasks to be invoked")
		}
		filter := tasks.listParams.Filter
		if filter.Status != "active" || filter.Priority != "high" || filter.Search != "milk" {
			t.Fatalf("unexpected filter: %+v", filter)
		}
		if filter.Limit != 5 || filter.Offset != 10 {
			t.Fatalf("unexpected paging: %+v", filter)
		}

		body := decodeBody(t, recorder.Body.String())
		if body["totalCount"] != float64(7) {
			t.Fatalf("expected totalCount 7, got %v", body["totalCount"])
		}
		list, ok := body["tasks"].([]any)
		if !ok || len(list) != 1 {
			t.Fatalf("expected one task in response, got %v", body["tasks"])
		}
	})

	t.Run("create returns 201 with the task payload", func(t *testing.T) {
		t.Parallel()

		tasks := &stubTaskService{task: sampleTask()}
		router := newTestRouter(&stubAuthService{}, nil, tasks, validator)

		req := httptest.NewRequest(http.MethodPost, "/api/user-1/tasks", strings.NewReader(`{"title":"Buy groceries","priority":"medium"}`))
		req.Header.Set("Authorization", "Bearer access-token")
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusCreated {
			t.Fatalf("expected status 201, got %d: %s", recorder.Code, recorder.Body.String())
		}
		if tasks.createParams == nil || tasks.createParams.Input.Title != "Buy groceries" {
			t.Fatalf("expected create to reach service, got %+v", tasks.createParams)
		}
		body := decodeBody(t, recorder.Body.String())
		if body["success"] != true {
			t.Fatalf("expected success flag, got %v", body)
		}
		taskBody, ok := body["task"].(map[string]any)
		if !ok || taskBody["title"] != "Buy groceries" {
			t.Fatalf("expected task payload, got %v", body)
		}
	})

	t.Run("path user mismatch yields 403 without touching the service", func(t *testing.T) {
		t.Parallel()

		tasks := &stubTaskService{}
		router := newTestRouter(&stubAuthService{}, nil, tasks, validator)

		req := httptest.NewRequest(http.MethodGet, "/api/other-user/tasks", nil)
		req.Header.Set("Authorization", "Bearer access-token")
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusForbidden {
			t.Fatalf("expected status 403, got %d", recorder.Code)
		}
		if tasks.listParams != nil {
			t.Fatal("service must not be consulted on ownership mismatch")
		}
		body := decodeBody(t, recorder.Body.String())
		if body["code"] != "AUTH_FORBIDDEN" {
			t.Fatalf("expected AUTH_FORBIDDEN code, got %v", body)
		}
	})

	t.Run("update applies a partial patch", func(t *testing.T) {
		t.Parallel()

		tasks := &stubTaskService{task: sampleTask()}
		router := newTestRouter(&stubAuthService{}, nil, tasks, validator)

		req := httptest.NewRequest(http.MethodPut, "/api/user-1/tasks/task-1", strings.NewReader(`{"completed":true,"dueDate":""}`))
		req.Header.Set("Authorization", "Bearer access-token")
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", recorder.Code, recorder.Body.String())
		}
		if tasks.updateParams == nil {
			t.Fatal("expected UpdateTask to be invoked")
		}
		patch := tasks.updateParams.Patch
		if patch.Completed == nil || !*patch.Completed {
			t.Fatalf("expected completed patch, got %+v", patch)
		}
		if !patch.ClearDue {
			t.Fatal("expected empty dueDate to request clearing the due date")
		}
		if patch.Title != nil {
			t.Fatalf("expected omitted fields to stay nil, got title %v", *patch.Title)
		}
	})

	t.Run("toggle flips completion via PATCH complete", func(t *testing.T) {
		t.Parallel()

		completed := sampleTask()
		completed.Completed = true
		completedAt := time.Date(2025, time.March, 11, 10, 0, 0, 0, time.UTC)
		completed.CompletedAt = &completedAt
		tasks := &stubTaskService{task: completed}
		router := newTestRouter(&stubAuthService{}, nil, tasks, validator)

		req := httptest.NewRequest(http.MethodPatch, "/api/user-1/tasks/task-1/complete", nil)
		req.Header.Set("Authorization", "Bearer access-token")
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", recorder.Code, recorder.Body.String())
		}
		if tasks.toggledID != "task-1" {
			t.Fatalf("expected toggle of task-1, got %q", tasks.toggledID)
		}
		body := decodeBody(t, recorder.Body.String())
		taskBody, ok := body["task"].(map[string]any)
		if !ok || taskBody["completed"] != true {
			t.Fatalf("expected completed task in response, got %v", body)
		}
		if taskBody["completedAt"] == nil {
			t.Fatal("expected completedAt to be set for completed task")
		}
	})

	t.Run("delete returns a bare success payload", func(t *testing.T) {
		t.Parallel()

		tasks := &stubTaskService{}
		router := newTestRouter(&stubAuthService{}, nil, tasks, validator)

		req := httptest.NewRequest(http.MethodDelete, "/api/user-1/tasks/task-1", nil)
		req.Header.Set("Authorization", "Bearer access-token")
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", recorder.Code, recorder.Body.String())
		}
		if tasks.deletedID != "task-1" {
			t.Fatalf("expected delete of task-1, got %q", tasks.deletedID)
		}
		body := decodeBody(t, recorder.Body.String())
		if body["success"] != true || body["task"] != nil {
			t.Fatalf("expected bare success payload, got %v", body)
		}
	})

	t.Run("missing tasks map to 404", func(t *testing.T) {
		t.Parallel()

		tasks := &stubTaskService{taskErr: application.ErrNotFound}
		router := newTestRouter(&stubAuthService{}, nil, tasks, validator)

		req := httptest.NewRequest(http.MethodGet, "/api/user-1/tasks/missing", nil)
		req.Header.Set("Authorization", "Bearer access-token")
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusNotFound {
			t.Fatalf("expected status 404, got %d", recorder.Code)
		}
	})

	t.Run("unknown sub-resources are not found", func(t *testing.T) {
		t.Parallel()

		router := newTestRouter(&stubAuthService{}, nil, &stubTaskService{}, validator)

		req := httptest.NewRequest(http.MethodGet, "/api/user-1/notes", nil)
		req.Header.Set("Authorization", "Bearer access-token")
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusNotFound {
			t.Fatalf("expected status 404, got %d", recorder.Code)
		}
	})
}
