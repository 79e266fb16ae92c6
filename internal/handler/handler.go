// Package handler exposes the REST API over chi.
package handler

import (
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/pavelanni/otms/internal/account"
	"github.com/pavelanni/otms/internal/auth"
	"github.com/pavelanni/otms/internal/exam"
	"github.com/pavelanni/otms/internal/i18n"
)

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	accounts *account.Service
	exams    *exam.Service
	tokens   *auth.Issuer
	validate *validator.Validate
}

// New creates a new Handler.
func New(accounts *account.Service, exams *exam.Service, tokens *auth.Issuer) *Handler {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report JSON field names in validation errors.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &Handler{accounts: accounts, exams: exams, tokens: tokens, validate: v}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Use(i18n.Middleware)

	r.Get("/health", h.handleHealth)
	r.Post("/auth/login", h.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(h.authenticate, authorize)

		r.Post("/auth/logout", h.handleLogout)
		r.Get("/auth/profile", h.handleProfile)

		r.Post("/admin/user", h.handleCreateUser)
		r.Get("/admin/teachers", h.handleListTeachers)
		r.Delete("/admin/teachers/{teacher_id}", h.handleDeleteTeacher)

		r.Post("/teacher/student", h.handleCreateStudent)
		r.Get("/teacher/students", h.handleListStudents)
		r.Post("/teacher/test", h.handleCreateTest)
		r.Get("/teacher/tests", h.handleListTests)
		r.Get("/teacher/tests/{test_id}", h.handleGetTest)
		r.Post("/teacher/tests/{test_id}/activate", h.handleSetActive(true))
		r.Post("/teacher/tests/{test_id}/deactivate", h.handleSetActive(false))
		r.Post("/teacher/tests/{test_id}/assign", h.handleAssign)
		r.Get("/teacher/tests/{test_id}/results/{student_id}", h.handleTeacherResult)

		r.Get("/student/tests", h.handleAvailableTests)
		r.Get("/student/tests/{test_id}", h.handleStartTest)
		r.Post("/student/tests/{test_id}", h.handleSubmit)
		r.Get("/student/test-result/{test_id}", h.handleResult)

		r.Get("/scores", h.handleScores)
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "module": "otms"})
}
