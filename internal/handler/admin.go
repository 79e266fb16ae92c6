package handler

import (
	"log/slog"
	"net/http"

	"github.com/pavelanni/otms/internal/account"
	"github.com/pavelanni/otms/internal/i18n"
	"github.com/pavelanni/otms/internal/model"
)

type createUserRequest struct {
	FirstName string         `json:"first_name" validate:"required"`
	LastName  string         `json:"last_name" validate:"required"`
	Email     string         `json:"email" validate:"required,email"`
	Phone     string         `json:"phone"`
	Role      model.UserRole `json:"role" validate:"omitempty,oneof=teacher admin"`
}

type teacherResponse struct {
	profileResponse
	FullName     string `json:"full_name"`
	StudentCount int    `json:"student_count"`
	TestCount    int    `json:"test_count"`
}

func (h *Handler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := h.decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	u, err := h.accounts.CreateUser(r.Context(), identity(r), account.NewUser{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Role:      req.Role,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	slog.Info("user created", "id", u.ID, "role", u.Role, "by", identity(r).UserID)
	writeJSON(w, http.StatusCreated, struct {
		Message string          `json:"message"`
		User    profileResponse `json:"user"`
	}{i18n.T(r.Context(), "MsgUserCreated"), newProfile(u)})
}

func (h *Handler) handleListTeachers(w http.ResponseWriter, r *http.Request) {
	teachers, err := h.accounts.ListTeachers(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]teacherResponse, 0, len(teachers))
	for _, t := range teachers {
		out = append(out, teacherResponse{
			profileResponse: newProfile(t.User),
			FullName:        t.DisplayName(),
			StudentCount:    t.StudentCount,
			TestCount:       t.TestCount,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"teachers": out})
}

func (h *Handler) handleDeleteTeacher(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "teacher_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.accounts.DeleteTeacher(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	slog.Info("teacher deleted", "id", id, "by", identity(r).UserID)
	writeJSON(w, http.StatusOK, messageResponse{Message: i18n.T(r.Context(), "MsgTeacherDeleted")})
}
