package taskclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestClient_ListTasks(t *testing.T) {
	t.Parallel()

	t.Run("sends only non-empty filters and bearer token", func(t *testing.T) {
		t.Parallel()

		var captured *http.Request
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			captured = r.Clone(context.Background())
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"tasks":[{"id":"task-1","userId":"user-1","title":"ship report","completed":false,"priority":"high","createdAt":"2025-03-10T12:00:00Z","updatedAt":"2025-03-10T12:00:00Z"}],"totalCount":1}`))
		}))
		defer server.Close()

		client := NewClient(server.URL, server.Client(), nil)
		page, err := client.ListTasks(context.Background(), "access-token", "user-1", TaskFilters{
			Status: "active",
			Search: "ship",
			Limit:  10,
		})
		if err != nil {
			t.Fatalf("ListTasks returned error: %v", err)
		}

		if captured.URL.Path != "/api/user-1/tasks" {
			t.Fatalf("unexpected path %q", captured.URL.Path)
		}
		query := captured.URL.Query()
		if query.Get("status") != "active" || query.Get("search") != "ship" || query.Get("limit") != "10" {
			t.Fatalf("unexpected query %q", captured.URL.RawQuery)
		}
		if query.Has("priority") || query.Has("offset") {
			t.Fatalf("zero-valued filters must be omitted, got %q", captured.URL.RawQuery)
		}
		if got := captured.Header.Get("Authorization"); got != "Bearer access-token" {
			t.Fatalf("unexpected Authorization header %q", got)
		}

		if page.TotalCount != 1 || len(page.Tasks) != 1 || page.Tasks[0].ID != "task-1" {
			t.Fatalf("unexpected page: %+v", page)
		}
	})

	t.Run("maps 401 to ErrUnauthenticated with status", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"Could not validate credentials","code":"AUTH_INVALID_TOKEN"}`))
		}))
		defer server.Close()

		client := NewClient(server.URL, server.Client(), nil)
		_, err := client.ListTasks(context.Background(), "bad-token", "user-1", TaskFilters{})
		if !errors.Is(err, ErrUnauthenticated) {
			t.Fatalf("expected ErrUnauthenticated, got %v", err)
		}

		var reqErr *RequestError
		if !errors.As(err, &reqErr) {
			t.Fatalf("expected RequestError, got %T", err)
		}
		if reqErr.Status != http.StatusUnauthorized || reqErr.Code != "AUTH_INVALID_TOKEN" {
			t.Fatalf("unexpected request error: %+v", reqErr)
		}
	})

	t.Run("wraps transport failures as ErrNetworkFailure", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		server.Close()

		client := NewClient(server.URL, nil, nil)
		_, err := client.ListTasks(context.Background(), "token", "user-1", TaskFilters{})
		if !errors.Is(err, ErrNetworkFailure) {
			t.Fatalf("expected ErrNetworkFailure, got %v", err)
		}
	})
}

func TestClient_CreateTask(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/user-1/tasks" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		var input map[string]any
		if err := json.Unmarshal(body, &input); err != nil {
			t.Errorf("invalid request body: %v", err)
		}
		if input["title"] != "Buy groceries" {
			t.Errorf("unexpected title %v", input["title"])
		}
		if _, present := input["dueDate"]; present {
			t.Error("nil dueDate must be omitted")
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"task":{"id":"server-id","userId":"user-1","title":"Buy groceries","completed":false,"priority":"medium","createdAt":"2025-03-10T12:00:00Z","updatedAt":"2025-03-10T12:00:00Z"},"success":true}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, server.Client(), nil)
	task, err := client.CreateTask(context.Background(), "token", "user-1", TaskInput{Title: "Buy groceries"})
	if err != nil {
		t.Fatalf("CreateTask returned error: %v", err)
	}
	if task.ID != "server-id" {
		t.Fatalf("expected server-assigned id, got %q", task.ID)
	}
}

func TestClient_UpdateTask(t *testing.T) {
	t.Parallel()

	t.Run("sends only patched fields", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			var patch map[string]any
			if err := json.Unmarshal(body, &patch); err != nil {
				t.Errorf("invalid request body: %v", err)
			}
			if patch["completed"] != true {
				t.Errorf("expected completed=true, got %v", patch)
			}
			if _, present := patch["title"]; present {
				t.Error("unset fields must be omitted from the patch")
			}

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"task":{"id":"task-1","userId":"user-1","title":"ship report","completed":true,"priority":"high","completedAt":"2025-03-10T12:30:00Z","createdAt":"2025-03-10T12:00:00Z","updatedAt":"2025-03-10T12:30:00Z"},"success":true}`))
		}))
		defer server.Close()

		completed := true
		client := NewClient(server.URL, server.Client(), nil)
		task, err := client.UpdateTask(context.Background(), "token", "user-1", "task-1", TaskPatch{Completed: &completed})
		if err != nil {
			t.Fatalf("UpdateTask returned error: %v", err)
		}
		if !task.Completed || task.CompletedAt == nil {
			t.Fatalf("expected completed task with completedAt, got %+v", task)
		}
	})

	t.Run("clearing the due date sends an explicit empty value", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			var patch map[string]any
			_ = json.Unmarshal(body, &patch)
			if patch["dueDate"] != "" {
				t.Errorf("expected empty dueDate, got %v", patch["dueDate"])
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"task":{"id":"task-1","userId":"user-1","title":"ship report","completed":false,"priority":"high","createdAt":"2025-03-10T12:00:00Z","updatedAt":"2025-03-10T12:30:00Z"},"success":true}`))
		}))
		defer server.Close()

		client := NewClient(server.URL, server.Client(), nil)
		if _, err := client.UpdateTask(context.Background(), "token", "user-1", "task-1", TaskPatch{ClearDueDate: true}); err != nil {
			t.Fatalf("UpdateTask returned error: %v", err)
		}
	})
}

func TestClient_DeleteTask(t *testing.T) {
	t.Parallel()

	t.Run("maps 404 to ErrNotFound", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"Resource not found"}`))
		}))
		defer server.Close()

		client := NewClient(server.URL, server.Client(), nil)
		err := client.DeleteTask(context.Background(), "token", "user-1", "gone")
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestClient_AuthOperations(t *testing.T) {
	t.Parallel()

	t.Run("login returns the issued session", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/v1/login" {
				t.Errorf("unexpected path %q", r.URL.Path)
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"user":{"id":"user-1","email":"alice@example.com","name":null,"preferences":{"theme":"system","notificationsEnabled":true,"taskSortOrder":"createdAt","dateFormat":"MM/dd/yyyy","weeklyDigest":false},"createdAt":"2025-03-10T12:00:00Z","updatedAt":"2025-03-10T12:00:00Z"},"session":{"accessToken":"access","refreshToken":"refresh","expiresAt":"2025-03-10T12:30:00Z","user":{"id":"user-1","email":"alice@example.com","name":null,"preferences":{"theme":"system","notificationsEnabled":true,"taskSortOrder":"createdAt","dateFormat":"MM/dd/yyyy","weeklyDigest":false},"createdAt":"2025-03-10T12:00:00Z","updatedAt":"2025-03-10T12:00:00Z"}}}`))
		}))
		defer server.Close()

		client := NewClient(server.URL, server.Client(), nil)
		session, err := client.Login(context.Background(), "alice@example.com", "password123")
		if err != nil {
			t.Fatalf("Login returned error: %v", err)
		}
		if session.AccessToken != "access" || session.User.ID != "user-1" {
			t.Fatalf("unexpected session: %+v", session)
		}
		if !session.ExpiresAt.Equal(time.Date(2025, time.March, 10, 12, 30, 0, 0, time.UTC)) {
			t.Fatalf("unexpected expiry: %v", session.ExpiresAt)
		}
	})

	t.Run("refresh posts the old token", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			var req map[string]any
			_ = json.Unmarshal(body, &req)
			if req["refreshToken"] != "old-refresh" {
				t.Errorf("expected old refresh token, got %v", req)
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"session":{"accessToken":"new-access","refreshToken":"new-refresh","expiresAt":"2025-03-10T13:00:00Z","user":{"id":"user-1","email":"alice@example.com","name":null,"preferences":{"theme":"system","notificationsEnabled":true,"taskSortOrder":"createdAt","dateFormat":"MM/dd/yyyy","weeklyDigest":false},"createdAt":"2025-03-10T12:00:00Z","updatedAt":"2025-03-10T12:00:00Z"}}}`))
		}))
		defer server.Close()

		client := NewClient(server.URL, server.Client(), nil)
		session, err := client.Refresh(context.Background(), "old-refresh")
		if err != nil {
			t.Fatalf("Refresh returned error: %v", err)
		}
		if session.RefreshToken != "new-refresh" {
			t.Fatalf("expected rotated token, got %+v", session)
		}
	})
}
