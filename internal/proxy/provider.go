// Package proxy exposes the browser-facing relay: it resolves the caller's
// session, rewrites the request to the backend's per-user task API, attaches
// bearer credentials, and relays the backend response verbatim.
package proxy

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Session is the resolved identity behind an inbound request.
type Session struct {
	UserID      string
	AccessToken string
}

// SessionProvider resolves an inbound request into a session. A miss, an
// expired session, or a provider failure all yield ok=false; resolution
// never returns an error to the caller.
type SessionProvider interface {
	Resolve(ctx context.Context, r *http.Request) (Session, bool)
}

// BackendSessionProvider validates the presented token against the backend's
// own session endpoint. It is the default provider for deployments without a
// separate session service.
type BackendSessionProvider struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewBackendSessionProvider constructs a provider that validates tokens via
// GET {baseURL}/api/v1/me.
func NewBackendSessionProvider(baseURL string, httpClient *http.Client, logger *slog.Logger) *BackendSessionProvider {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BackendSessionProvider{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}
}

// Resolve extracts the access token from the Authorization header or the
// session_token cookie and validates it against the backend.
func (p *BackendSessionProvider) Resolve(ctx context.Context, r *http.Request) (Session, bool) {
	if p == nil || r == nil {
		return Session{}, false
	}

	token := tokenFromRequest(r)
	if token == "" {
		return Session{}, false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/api/v1/me", nil)
	if err != nil {
		return Session{}, false
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.logger.DebugContext(ctx, "session validation unreachable", "error", err)
		return Session{}, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Session{}, false
	}

	var body struct {
		User struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Session{}, false
	}
	if err := json.Unmarshal(payload, &body); err != nil || body.User.ID == "" {
		return Session{}, false
	}

	return Session{UserID: body.User.ID, AccessToken: token}, true
}

func tokenFromRequest(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	const prefix = "Bearer "
	if strings.HasPrefix(header, prefix) {
		if token := strings.TrimSpace(strings.TrimPrefix(header, prefix)); token != "" {
			return token
		}
	}
	if cookie, err := r.Cookie("session_token"); err == nil {
		return strings.TrimSpace(cookie.Value)
	}
	return ""
}
