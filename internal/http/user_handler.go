package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/example/todo-platform/internal/application"
	"github.com/example/todo-platform/internal/persistence"
)

type userService interface {
	GetProfile(ctx context.Context, principal application.Principal) (persistence.User, error)
	UpdateProfile(ctx context.Context, params application.UpdateProfileParams) (persistence.User, error)
	GetPreferences(ctx context.Context, principal application.Principal) (persistence.Preferences, error)
	UpdatePreferences(ctx context.Context, params application.UpdatePreferencesParams) (persistence.Preferences, error)
}

// UserHandler serves the profile and preference endpoints under /api/users/me.
type UserHandler struct {
	service   userService
	responder responder
}

// NewUserHandler constructs a UserHandler.
func NewUserHandler(service userService, logger *slog.Logger) *UserHandler {
	return &UserHandler{service: service, responder: newResponder(logger)}
}

// GetProfile returns the authenticated user's account.
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingToken)
		return
	}

	user, err := h.service.GetProfile(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, userResponse{User: toUserDTO(user)})
}

// UpdateProfile changes the authenticated user's display name.
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingToken)
		return
	}

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	user, err := h.service.UpdateProfile(r.Context(), application.UpdateProfileParams{
		Principal: principal,
		Name:      req.Name,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, userResponse{User: toUserDTO(user)})
}

// GetPreferences returns the authenticated user's preferences.
func (h *UserHandler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingToken)
		return
	}

	prefs, err := h.service.GetPreferences(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, preferencesResponse{Preferences: toPreferencesDTO(prefs)})
}

// UpdatePreferences replaces the authenticated user's preferences.
func (h *UserHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingToken)
		return
	}

	var req updatePreferencesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	prefs, err := h.service.UpdatePreferences(r.Context(), application.UpdatePreferencesParams{
		Principal:   principal,
		Preferences: req.toPreferences(),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, preferencesResponse{Preferences: toPreferencesDTO(prefs)})
}

type updateProfileRequest struct {
	Name *string `json:"name"`
}

type updatePreferencesRequest struct {
	Theme                string `json:"theme"`
	NotificationsEnabled bool   `json:"notificationsEnabled"`
	TaskSortOrder        string `json:"taskSortOrder"`
	DateFormat           string `json:"dateFormat"`
	WeeklyDigest         bool   `json:"weeklyDigest"`
}

func (r updatePreferencesRequest) toPreferences() persistence.Preferences {
	return persistence.Preferences{
		Theme:                r.Theme,
		NotificationsEnabled: r.NotificationsEnabled,
		TaskSortOrder:        r.TaskSortOrder,
		DateFormat:           r.DateFormat,
		WeeklyDigest:         r.WeeklyDigest,
	}
}

type preferencesResponse struct {
	Preferences preferencesDTO `json:"preferences"`
}
