package handler

import (
	"errors"
	"net/http"

	"github.com/pavelanni/otms/internal/i18n"
	"github.com/pavelanni/otms/internal/model"
)

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type profileResponse struct {
	ID        int64          `json:"id"`
	FirstName string         `json:"first_name"`
	LastName  string         `json:"last_name"`
	Email     string         `json:"email"`
	Phone     string         `json:"phone"`
	Role      model.UserRole `json:"role"`
}

func newProfile(u model.User) profileResponse {
	return profileResponse{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Phone:     u.Phone,
		Role:      u.Role,
	}
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := h.decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	token, user, err := h.accounts.Login(r.Context(), req.Username, req.Password)
	if errors.Is(err, model.ErrUnauthorized) {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Detail: i18n.T(r.Context(), "ErrInvalidCredentials")})
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Message string          `json:"message"`
		Token   string          `json:"token"`
		User    profileResponse `json:"user"`
	}{i18n.T(r.Context(), "MsgLoginSuccess"), token, newProfile(user)})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.accounts.Logout(r.Context(), identity(r)); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: i18n.T(r.Context(), "MsgLogoutSuccess")})
}

func (h *Handler) handleProfile(w http.ResponseWriter, r *http.Request) {
	u, err := h.accounts.Profile(r.Context(), identity(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newProfile(u))
}
