// Package http provides the HTTP handlers and router of the development
// backend: login, chat sessions and the knowledge base.
package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/atinyakov/GophChat/internal/metrics"
	"github.com/atinyakov/GophChat/internal/models"
	"github.com/atinyakov/GophChat/internal/service"
)

// AuthService defines the authentication operations
// required by the HTTP handlers.
type AuthService interface {
	// Login returns service.ErrInvalidCredentials for a wrong user or password.
	Login(ctx context.Context, username, password string) (*models.User, error)
	// Role returns service.ErrUnknownUser for an unknown id.
	Role(ctx context.Context, userID string) (models.Role, error)
}

// AuthHandler handles HTTP requests for user login.
type AuthHandler struct {
	AuthService AuthService
}

// Login handles POST /api/http_user_login.
// It expects a JSON body with "username" and "password" and returns the
// user id and role.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !decode(w, r, &req, "username and password are required") {
		return
	}

	u, err := h.AuthService.Login(r.Context(), req.Username, req.Password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		metrics.LoginFailures.Inc()
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, models.LoginResponse{UserID: u.ID, UserType: u.Role})
}
