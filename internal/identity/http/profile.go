package http

import (
	"errors"
	"net/http"

	"github.com/lockhaven/identity/internal/identity/service"
	"github.com/lockhaven/identity/internal/identity/store"
	"github.com/lockhaven/identity/pkg/httpx"
	"github.com/lockhaven/identity/pkg/slogx"
)

// ProfileHandler serves /v1/users/me and the admin user listing. All routes
// sit behind AuthnMiddleware, so the principal is always present.
type ProfileHandler struct {
	UserService *service.UserService
}

type updateProfileRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func (h *ProfileHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	log := slogx.FromContext(r.Context())
	userID := httpx.UserIDFromContext(r.Context())

	profile, err := h.UserService.GetProfile(r.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Token outlived the account.
			httpx.WriteError(w, http.StatusNotFound, "user_not_found", "user no longer exists")
			return
		}
		log.Error("get profile failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "internal server error")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, profile)
}

func (h *ProfileHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	log := slogx.FromContext(r.Context())
	userID := httpx.UserIDFromContext(r.Context())

	var req updateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "request body must be JSON")
		return
	}

	profile, err := h.UserService.UpdateProfile(r.Context(), userID, req.FirstName, req.LastName)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			httpx.WriteError(w, http.StatusBadRequest, "validation_failed", "at least one of first_name or last_name is required")
		case errors.Is(err, store.ErrNotFound):
			httpx.WriteError(w, http.StatusNotFound, "user_not_found", "user no longer exists")
		default:
			log.Error("update profile failed", "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, "server_error", "internal server error")
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, profile)
}

func (h *ProfileHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	log := slogx.FromContext(r.Context())
	userID := httpx.UserIDFromContext(r.Context())

	if err := h.UserService.DeleteAccount(r.Context(), userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "user_not_found", "user no longer exists")
			return
		}
		log.Error("delete account failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *ProfileHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	log := slogx.FromContext(r.Context())

	profiles, err := h.UserService.ListUsers(r.Context())
	if err != nil {
		log.Error("list users failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "internal server error")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{"users": profiles})
}
