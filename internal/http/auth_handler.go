package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/todo-platform/internal/application"
	"github.com/example/todo-platform/internal/persistence"
)

type authService interface {
	Register(ctx context.Context, params application.RegisterParams) (application.AuthResult, error)
	Authenticate(ctx context.Context, params application.AuthenticateParams) (application.AuthResult, error)
	RefreshSession(ctx context.Context, params application.RefreshSessionParams) (application.AuthResult, error)
	Logout(ctx context.Context, params application.LogoutParams) error
}

type profileReader interface {
	GetProfile(ctx context.Context, principal application.Principal) (persistence.User, error)
}

// AuthHandler serves the /api/v1 authentication endpoints.
type AuthHandler struct {
	service   authService
	profiles  profileReader
	responder responder
	logger    *slog.Logger
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(service authService, profiles profileReader, logger *slog.Logger) *AuthHandler {
	base := defaultLogger(logger)
	return &AuthHandler{service: service, profiles: profiles, responder: newResponder(base), logger: base}
}

func (h *AuthHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "AuthHandler", operation, attrs...)
}

// Register creates a new account and returns the initial session.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Register", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode register request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	email := strings.TrimSpace(strings.ToLower(req.Email))
	logger := h.log(r.Context(), "Register", "email", email)

	result, err := h.service.Register(r.Context(), application.RegisterParams{
		Email:    email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "registration rejected", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("user_id", result.User.ID).InfoContext(r.Context(), "account registered")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, authResponse{
		User:    toUserDTO(result.User),
		Session: toSessionDTO(result.Session, result.User),
	})
}

// Login validates credentials and returns a fresh session.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Login", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode login request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	email := strings.TrimSpace(strings.ToLower(req.Email))
	logger := h.log(r.Context(), "Login", "email", email)

	result, err := h.service.Authenticate(r.Context(), application.AuthenticateParams{
		Email:    email,
		Password: req.Password,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "authentication rejected", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("user_id", result.User.ID).InfoContext(r.Context(), "user authenticated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, authResponse{
		User:    toUserDTO(result.User),
		Session: toSessionDTO(result.Session, result.User),
	})
}

// Refresh rotates a refresh token and returns the new session.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Refresh", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode refresh request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Refresh", "token_provided", strings.TrimSpace(req.RefreshToken) != "")

	result, err := h.service.RefreshSession(r.Context(), application.RefreshSessionParams{
		RefreshToken: req.RefreshToken,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "session refresh rejected", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("user_id", result.User.ID).InfoContext(r.Context(), "session refreshed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, refreshResponse{
		Session: toSessionDTO(result.Session, result.User),
	})
}

// Logout revokes the refresh token supplied in the body, when present.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingToken)
		return
	}

	// The body is optional; logout without a refresh token only abandons the
	// stateless access token.
	var req logoutRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	logger := h.log(r.Context(), "Logout", "user_id", principal.UserID)

	if err := h.service.Logout(r.Context(), application.LogoutParams{
		Principal:    principal,
		RefreshToken: req.RefreshToken,
	}); err != nil {
		logger.ErrorContext(r.Context(), "logout failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "user signed out")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// Me returns the authenticated user's account.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.profiles == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingToken)
		return
	}

	user, err := h.profiles.GetProfile(r.Context(), principal)
	if err != nil {
		h.log(r.Context(), "Me", "user_id", principal.UserID).ErrorContext(r.Context(), "failed to load profile", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, userResponse{User: toUserDTO(user)})
}

type registerRequest struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Name     *string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type logoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type authResponse struct {
	User    userDTO    `json:"user"`
	Session sessionDTO `json:"session"`
}

type refreshResponse struct {
	Session sessionDTO `json:"session"`
}

type userResponse struct {
	User userDTO `json:"user"`
}
