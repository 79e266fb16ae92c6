package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/pavelanni/otms/internal/model"
)

// authenticate verifies the bearer token and stores the caller's identity in
// the request context.
func (h *Handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			writeError(w, r, model.ErrUnauthorized)
			return
		}
		id, err := h.tokens.Verify(r.Context(), strings.TrimSpace(token))
		if errors.Is(err, model.ErrUnauthorized) {
			slog.Debug("token rejected", "path", r.URL.Path, "error", err)
			writeError(w, r, model.ErrUnauthorized)
			return
		}
		if err != nil {
			writeError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(model.ContextWithIdentity(r.Context(), id)))
	})
}

// rolePolicy lists the roles allowed under a path prefix. A nil role list
// admits any authenticated caller.
type rolePolicy struct {
	prefix string
	roles  []model.UserRole
}

var policies = []rolePolicy{
	{"/auth", nil},
	{"/admin", []model.UserRole{model.UserRoleAdmin}},
	{"/teacher", []model.UserRole{model.UserRoleTeacher}},
	{"/student", []model.UserRole{model.UserRoleStudent}},
	{"/scores", []model.UserRole{model.UserRoleTeacher, model.UserRoleStudent}},
}

// allowed reports whether role may access path. Paths outside the table are denied.
func allowed(path string, role model.UserRole) bool {
	for _, p := range policies {
		if path != p.prefix && !strings.HasPrefix(path, p.prefix+"/") {
			continue
		}
		return p.roles == nil || slices.Contains(p.roles, role)
	}
	return false
}

// authorize enforces the role policy table. It runs after authenticate.
func authorize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := model.IdentityFromContext(r.Context())
		if !ok {
			writeError(w, r, model.ErrUnauthorized)
			return
		}
		if !allowed(r.URL.Path, id.Role) {
			slog.Warn("access denied", "user_id", id.UserID, "role", id.Role, "path", r.URL.Path)
			writeError(w, r, model.ErrForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
