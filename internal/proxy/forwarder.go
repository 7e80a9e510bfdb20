package proxy

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// PathPrefix is the local path under which the forwarder is mounted.
const PathPrefix = "/api/proxy/"

// Forwarder relays browser requests to the backend's per-user task API. One
// forward attempt per request, no retries, no timeout override beyond the
// HTTP client's own.
type Forwarder struct {
	baseURL    string
	provider   SessionProvider
	httpClient *http.Client
	logger     *slog.Logger
}

// NewForwarder constructs a Forwarder targeting the given backend base URL.
func NewForwarder(baseURL string, provider SessionProvider, httpClient *http.Client, logger *slog.Logger) *Forwarder {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Forwarder{
		baseURL:    strings.TrimRight(baseURL, "/"),
		provider:   provider,
		httpClient: httpClient,
		logger:     logger,
	}
}

func (f *Forwarder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if f == nil || f.provider == nil {
		writeJSONError(w, http.StatusInternalServerError, "Proxy request failed")
		return
	}

	switch r.Method {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
	default:
		w.Header().Set("Allow", "GET, POST, PUT, PATCH, DELETE")
		writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	session, ok := f.provider.Resolve(r.Context(), r)
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, PathPrefix)
	rest = strings.Trim(rest, "/")
	if rest == "" || !strings.HasPrefix(r.URL.Path, PathPrefix) {
		writeJSONError(w, http.StatusBadRequest, "Invalid path")
		return
	}

	target := f.baseURL + "/api/" + session.UserID + "/" + rest
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}

	var body io.Reader
	if r.Body != nil {
		body = r.Body
	}
	req, err := http.NewRequestWithContext(r.Context(), r.Method, target, body)
	if err != nil {
		f.logger.ErrorContext(r.Context(), "failed to build backend request", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "Proxy request failed")
		return
	}
	req.Header.Set("Authorization", "Bearer "+session.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		f.logger.ErrorContext(r.Context(), "backend request failed", "target", target, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "Proxy request failed")
		return
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		f.logger.ErrorContext(r.Context(), "failed to read backend response", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "Proxy request failed")
		return
	}

	// The backend contract is JSON; anything else is relayed as a generic
	// failure rather than leaking raw backend output. 204 carries no body.
	if len(payload) > 0 && !json.Valid(payload) {
		f.logger.ErrorContext(r.Context(), "backend returned non-JSON response", "status", resp.StatusCode)
		writeJSONError(w, http.StatusInternalServerError, "Proxy request failed")
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(resp.StatusCode)
	if len(payload) > 0 {
		_, _ = w.Write(payload)
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
