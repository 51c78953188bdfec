package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/lockhaven/identity/internal/identity/service"
	"github.com/lockhaven/identity/pkg/httpx"
	"github.com/lockhaven/identity/pkg/slogx"
)

// AuthHandler serves the /v1/auth endpoints. All bodies are JSON.
type AuthHandler struct {
	AuthService *service.AuthService
}

type registerRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type registerResponse struct {
	UserID string `json:"user_id"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	User         any    `json:"user"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	log := slogx.FromContext(r.Context())

	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "request body must be JSON")
		return
	}

	profile, err := h.AuthService.Register(r.Context(), service.RegisterParams{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDuplicateEmail):
			httpx.WriteError(w, http.StatusConflict, "email_taken", "email is already registered")
		case errors.Is(err, service.ErrValidation):
			httpx.WriteError(w, http.StatusBadRequest, "validation_failed", "email or password does not meet requirements")
		default:
			log.Error("registration failed", "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, "server_error", "internal server error")
		}
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, registerResponse{UserID: profile.ID})
}

func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	log := slogx.FromContext(r.Context())

	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "request body must be JSON")
		return
	}

	session, err := h.AuthService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrUserInactive):
			// Inactive accounts get the same response as bad credentials so
			// account state is not probeable.
			httpx.WriteError(w, http.StatusUnauthorized, "invalid_credentials", "invalid email or password")
		default:
			log.Error("login failed", "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, "server_error", "internal server error")
		}
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, sessionResponse{
		AccessToken:  session.Tokens.AccessToken,
		RefreshToken: session.Tokens.RefreshToken,
		TokenType:    session.Tokens.TokenType,
		ExpiresIn:    session.Tokens.ExpiresIn,
		User:         session.User,
	})
}

func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	log := slogx.FromContext(r.Context())

	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "request body must be JSON")
		return
	}

	session, err := h.AuthService.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrExpiredRefresh):
			httpx.WriteError(w, http.StatusUnauthorized, "refresh_token_expired", "refresh token expired")
		case errors.Is(err, service.ErrInvalidRefresh), errors.Is(err, service.ErrUserInactive):
			httpx.WriteError(w, http.StatusUnauthorized, "invalid_refresh_token", "invalid refresh token")
		default:
			log.Error("refresh failed", "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, "server_error", "internal server error")
		}
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, sessionResponse{
		AccessToken:  session.Tokens.AccessToken,
		RefreshToken: session.Tokens.RefreshToken,
		TokenType:    session.Tokens.TokenType,
		ExpiresIn:    session.Tokens.ExpiresIn,
		User:         session.User,
	})
}

// HandleLogout revokes the presented refresh token. Always 200 on well-formed
// requests, whatever the token's state.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	log := slogx.FromContext(r.Context())

	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "request body must be JSON")
		return
	}

	if err := h.AuthService.Logout(r.Context(), req.RefreshToken); err != nil {
		log.Error("logout failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "internal server error")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

func decodeJSON(r *http.Request, v any) error {
	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "application/json") {
		return errors.New("unsupported content type")
	}
	dec := json.NewDecoder(r.Body)
	return dec.Decode(v)
}
