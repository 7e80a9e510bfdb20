// Package taskclient is the typed HTTP binding for the to-do backend: auth
// operations plus one function per task operation, each failing with a
// RequestError carrying the HTTP status on any non-2xx response. The client
// never retries.
package taskclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const defaultTimeout = 30 * time.Second

// Client talks to the to-do backend REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient constructs a Client for the given backend base URL. A nil
// httpClient gets a default with a 30 second timeout.
func NewClient(baseURL string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}
}

// Register creates an account and returns its initial session.
func (c *Client) Register(ctx context.Context, email, password string, name *string) (Session, error) {
	body := map[string]any{"email": email, "password": password}
	if name != nil {
		body["name"] = *name
	}

	var response struct {
		User    User    `json:"user"`
		Session Session `json:"session"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/register", "", body, &response); err != nil {
		return Session{}, err
	}
	return response.Session, nil
}

// Login exchanges credentials for a session.
func (c *Client) Login(ctx context.Context, email, password string) (Session, error) {
	var response struct {
		User    User    `json:"user"`
		Session Session `json:"session"`
	}
	err := c.do(ctx, http.MethodPost, "/api/v1/login", "", map[string]any{
		"email":    email,
		"password": password,
	}, &response)
	if err != nil {
		return Session{}, err
	}
	return response.Session, nil
}

// Refresh rotates a refresh token and returns the replacement session.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	var response struct {
		Session Session `json:"session"`
	}
	err := c.do(ctx, http.MethodPost, "/api/v1/refresh", "", map[string]any{
		"refreshToken": refreshToken,
	}, &response)
	if err != nil {
		return Session{}, err
	}
	return response.Session, nil
}

// Logout revokes the refresh token.
func (c *Client) Logout(ctx context.Context, token, refreshToken string) error {
	return c.do(ctx, http.MethodPost, "/api/v1/logout", token, map[string]any{
		"refreshToken": refreshToken,
	}, nil)
}

// Me returns the account behind the access token.
func (c *Client) Me(ctx context.Context, token string) (User, error) {
	var response struct {
		User User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/me", token, nil, &response); err != nil {
		return User{}, err
	}
	return response.User, nil
}

// ListTasks returns the user's tasks matching the filters. Zero-valued
// filters are omitted from the query.
func (c *Client) ListTasks(ctx context.Context, token, userID string, filters TaskFilters) (TaskPage, error) {
	query := url.Values{}
	if filters.Status != "" {
		query.Set("status", filters.Status)
	}
	if filters.Priority != "" {
		query.Set("priority", filters.Priority)
	}
	if filters.Search != "" {
		query.Set("search", filters.Search)
	}
	if filters.Limit > 0 {
		query.Set("limit", strconv.Itoa(filters.Limit))
	}
	if filters.Offset > 0 {
		query.Set("offset", strconv.Itoa(filters.Offset))
	}

	path := fmt.Sprintf("/api/%s/tasks", url.PathEscape(userID))
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var page TaskPage
	if err := c.do(ctx, http.MethodGet, path, token, nil, &page); err != nil {
		return TaskPage{}, err
	}
	return page, nil
}

// CreateTask creates a task. The server assigns id and timestamps.
func (c *Client) CreateTask(ctx context.Context, token, userID string, input TaskInput) (Task, error) {
	var response struct {
		Task Task `json:"task"`
	}
	path := fmt.Sprintf("/api/%s/tasks", url.PathEscape(userID))
	if err := c.do(ctx, http.MethodPost, path, token, input, &response); err != nil {
		return Task{}, err
	}
	return response.Task, nil
}

// UpdateTask applies a partial update; only fields set in the patch change.
func (c *Client) UpdateTask(ctx context.Context, token, userID, taskID string, patch TaskPatch) (Task, error) {
	var response struct {
		Task Task `json:"task"`
	}
	path := fmt.Sprintf("/api/%s/tasks/%s", url.PathEscape(userID), url.PathEscape(taskID))
	if err := c.do(ctx, http.MethodPut, path, token, patch.body(), &response); err != nil {
		return Task{}, err
	}
	return response.Task, nil
}

// DeleteTask removes a task. A repeat call on an already-deleted task fails
// with ErrNotFound, which callers may treat as success.
func (c *Client) DeleteTask(ctx context.Context, token, userID, taskID string) error {
	path := fmt.Sprintf("/api/%s/tasks/%s", url.PathEscape(userID), url.PathEscape(taskID))
	return c.do(ctx, http.MethodDelete, path, token, nil, nil)
}

// ToggleCompletion flips a task's completed flag. The server is authoritative
// for the resulting completed and completedAt values.
func (c *Client) ToggleCompletion(ctx context.Context, token, userID, taskID string) (Task, error) {
	var response struct {
		Task Task `json:"task"`
	}
	path := fmt.Sprintf("/api/%s/tasks/%s/complete", url.PathEscape(userID), url.PathEscape(taskID))
	if err := c.do(ctx, http.MethodPatch, path, token, nil, &response); err != nil {
		return Task{}, err
	}
	return response.Task, nil
}

func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	if c == nil {
		return fmt.Errorf("taskclient: client is nil")
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("taskclient: encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("taskclient: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.DebugContext(ctx, "request transport failure", "method", method, "path", path, "error", err)
		return wrapNetwork(err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return wrapNetwork(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newRequestError(resp.StatusCode, payload)
	}

	if out == nil || len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("taskclient: decode response: %w", err)
	}
	return nil
}

func newRequestError(status int, payload []byte) error {
	reqErr := &RequestError{Status: status}
	var body struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	if err := json.Unmarshal(payload, &body); err == nil {
		reqErr.Message = body.Error
		reqErr.Code = body.Code
	}
	return reqErr
}
